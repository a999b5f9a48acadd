package testsupport

import (
	"testing"

	"rptninja/internal/config"
	"rptninja/internal/history"
)

// MustOpenHistory opens the history store at the config's state dir and
// registers cleanup.
func MustOpenHistory(t testing.TB, cfg *config.Config) *history.Store {
	t.Helper()

	store, err := history.Open(cfg.HistoryPath())
	if err != nil {
		t.Fatalf("history.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}
