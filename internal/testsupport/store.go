package testsupport

import (
	"context"
	"testing"

	"tubeharvest/internal/config"
	"tubeharvest/internal/ledger"
)

// MustOpenLedger opens the configured ledger provider and registers cleanup.
func MustOpenLedger(t testing.TB, cfg *config.Config) ledger.Provider {
	t.Helper()

	provider, err := ledger.Open(context.Background(), cfg)
	if err != nil {
		t.Fatalf("ledger.Open: %v", err)
	}
	t.Cleanup(func() {
		_ = provider.Close()
	})
	return provider
}

// LedgerRecords lists the records of channel, failing the test on error.
func LedgerRecords(t testing.TB, provider ledger.Provider, channel, workspaceDir string) []ledger.Record {
	t.Helper()

	led, err := provider.ForChannel(context.Background(), channel, workspaceDir)
	if err != nil {
		t.Fatalf("ForChannel: %v", err)
	}
	records, err := led.List(context.Background())
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	return records
}
