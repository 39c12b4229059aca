package ledger

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
)

func TestSQLiteLedgerConformance(t *testing.T) {
	ctx := context.Background()
	store, err := OpenSQLite(ctx, filepath.Join(t.TempDir(), "state", "ledger.db"))
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	l, err := store.ForChannel(ctx, "@chan", "")
	if err != nil {
		t.Fatalf("ForChannel: %v", err)
	}
	exerciseLedger(t, l)
}

func TestSQLiteLedgerIsolatesChannels(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "ledger.db")
	store, err := OpenSQLite(ctx, path)
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}

	a, _ := store.ForChannel(ctx, "@a", "")
	b, _ := store.ForChannel(ctx, "@b", "")
	if err := a.Merge(ctx, []Record{{VideoID: "x", UploadDate: "1 day ago", Status: StatusSuccess}}); err != nil {
		t.Fatalf("merge: %v", err)
	}
	if _, ok, _ := b.Lookup(ctx, "x"); ok {
		t.Fatal("record leaked across channels")
	}

	channels, err := store.Channels(ctx)
	if err != nil || len(channels) != 1 || channels[0] != "@a" {
		t.Fatalf("Channels = %v, %v", channels, err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	reopened, err := OpenSQLite(ctx, path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()
	a, _ = reopened.ForChannel(ctx, "@a", "")
	if status, ok, _ := a.Lookup(ctx, "x"); !ok || status != StatusSuccess {
		t.Fatalf("record not durable: %q %v", status, ok)
	}
}

func TestSQLiteSchemaMismatch(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "ledger.db")
	store, err := OpenSQLite(ctx, path)
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	if _, err := store.db.ExecContext(ctx, "UPDATE schema_version SET version = 99"); err != nil {
		t.Fatalf("bump version: %v", err)
	}
	_ = store.Close()

	if _, err := OpenSQLite(ctx, path); !errors.Is(err, ErrSchemaMismatch) {
		t.Fatalf("expected schema mismatch, got %v", err)
	}
}

func TestSQLiteForChannelRequiresName(t *testing.T) {
	store, err := OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "ledger.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()
	if _, err := store.ForChannel(context.Background(), "  ", ""); err == nil {
		t.Fatal("expected error for empty channel")
	}
}
