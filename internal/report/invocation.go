package report

import (
	"strconv"
	"strings"
)

// Flag tokens understood by Crystal Reports Ninja.
const (
	FlagReportFile = "-F"
	FlagOutput     = "-O"
	FlagFormat     = "-E"
	FlagPrinter    = "-N"
	FlagCopies     = "-C"
	FlagServer     = "-S"
	FlagDatabase   = "-D"
	FlagUsername   = "-U"
	FlagPassword   = "-P"
	FlagParameter  = "-a"
	FlagLog        = "-l"
)

// Invocation is the parameter set for one execution of the report tool.
// Only ReportFile is required; zero values mean "not supplied" and the
// corresponding flag is omitted.
type Invocation struct {
	ReportFile string
	// OutputFile defaults (tool-side) to "<report>-<yyyymmddHHmmss>.<format>".
	OutputFile string
	// Format is the export format (pdf, xls, doc, ...) or "print".
	Format   string
	Printer  string
	Copies   int
	Server   string
	Database string
	Username string
	Password string
	// Parameters are passed verbatim, conventionally as "name:value".
	Parameters []string
	CreateLog  bool
}

// valueFlags are the tokens followed by a value in a Command argument list.
var valueFlags = map[string]struct{}{
	FlagReportFile: {},
	FlagOutput:     {},
	FlagFormat:     {},
	FlagPrinter:    {},
	FlagCopies:     {},
	FlagServer:     {},
	FlagDatabase:   {},
	FlagUsername:   {},
	FlagPassword:   {},
	FlagParameter:  {},
}

type optionalFlag struct {
	token string
	value func(Invocation) string
}

// optionalFlags is the fixed emission order for single-valued options.
var optionalFlags = []optionalFlag{
	{FlagOutput, func(inv Invocation) string { return inv.OutputFile }},
	{FlagFormat, func(inv Invocation) string { return inv.Format }},
	{FlagPrinter, func(inv Invocation) string { return inv.Printer }},
	{FlagCopies, func(inv Invocation) string {
		if inv.Copies <= 0 {
			return ""
		}
		return strconv.Itoa(inv.Copies)
	}},
	{FlagServer, func(inv Invocation) string { return inv.Server }},
	{FlagDatabase, func(inv Invocation) string { return inv.Database }},
	{FlagUsername, func(inv Invocation) string { return inv.Username }},
	{FlagPassword, func(inv Invocation) string { return inv.Password }},
}

// OptionalFlags returns the single-valued flag tokens in emission order.
func OptionalFlags() []string {
	tokens := make([]string, 0, len(optionalFlags))
	for _, f := range optionalFlags {
		tokens = append(tokens, f.token)
	}
	return tokens
}

// Command builds the full command line: the binary first, then the report
// file, present options in OptionalFlags order, one -a pair per parameter in
// list order, and -l when CreateLog is set.
func Command(binary string, inv Invocation) []string {
	args := make([]string, 0, 3+2*len(optionalFlags)+2*len(inv.Parameters)+1)
	args = append(args, binary, FlagReportFile, inv.ReportFile)
	for _, f := range optionalFlags {
		if value := f.value(inv); value != "" {
			args = append(args, f.token, value)
		}
	}
	for _, param := range inv.Parameters {
		args = append(args, FlagParameter, param)
	}
	if inv.CreateLog {
		args = append(args, FlagLog)
	}
	return args
}

// Redact returns a copy of a Command argument list with the password value
// masked. Flags that take a value are skipped together with it, so a value that
// happens to read "-P" is never mistaken for the password flag.
func Redact(args []string) []string {
	out := make([]string, len(args))
	copy(out, args)
	for i := 1; i < len(out); i++ {
		if _, ok := valueFlags[out[i]]; !ok || i+1 >= len(out) {
			continue
		}
		if out[i] == FlagPassword {
			out[i+1] = redacted
		}
		i++
	}
	return out
}

const redacted = "********"

// ExtensionForFormat returns the file suffix the report tool writes for an
// export format. It returns "" for formats that produce no file (print) and for
// an empty format.
func ExtensionForFormat(format string) string {
	format = strings.ToLower(strings.TrimSpace(format))
	switch format {
	case "", "print":
		return ""
	case "xlsdata":
		return "xls"
	case "ertf":
		return "rtf"
	case "html":
		return "htm"
	default:
		return format
	}
}
