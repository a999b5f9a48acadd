package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"rptninja/internal/preflight"
	"rptninja/internal/services"
)

type checkJSON struct {
	Name   string `json:"name"`
	Passed bool   `json:"passed"`
	Detail string `json:"detail"`
}

func newDoctorCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check the report tool and directories",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			summary := preflight.RunAll(cmd.Context(), cfg)
			results := summary.Results

			if ctx.jsonOutput() {
				payload := make([]checkJSON, 0, len(results))
				for _, result := range results {
					payload = append(payload, checkJSON(result))
				}
				if err := writeJSON(cmd, payload); err != nil {
					return err
				}
			} else {
				out := cmd.OutOrStdout()
				colorize := shouldColorize(out)
				for _, result := range results {
					kind := statusOK
					if !result.Passed {
						kind = statusError
					}
					fmt.Fprintln(out, renderStatusLine(result.Name, kind, result.Detail, colorize))
				}
			}

			if len(summary.MissingTools) > 0 {
				names := make([]string, 0, len(summary.MissingTools))
				for _, tool := range summary.MissingTools {
					names = append(names, tool.Name)
				}
				return services.Wrap(services.ErrConfiguration, "doctor", "", "missing required tools: "+strings.Join(names, ", "), nil)
			}
			if preflight.Failed(results) {
				return errors.New("doctor: one or more checks failed")
			}
			return nil
		},
	}
}
