package ledger

import (
	"context"
	"fmt"
	"path/filepath"

	"tubeharvest/internal/config"
)

// Ledger is the durable per-channel record of processed items.
type Ledger interface {
	// Merge persists records, deduplicating by key and keeping the newest write.
	Merge(ctx context.Context, records []Record) error
	// Lookup returns the status of the most recent record for videoID.
	Lookup(ctx context.Context, videoID string) (Status, bool, error)
	// List returns every record ordered by write recency.
	List(ctx context.Context) ([]Record, error)
}

// Provider hands out channel-scoped ledgers from one backend.
type Provider interface {
	// ForChannel returns the ledger of channel. workspaceDir is the channel
	// workspace, used by file-based backends.
	ForChannel(ctx context.Context, channel, workspaceDir string) (Ledger, error)
	Close() error
}

// CSVFileName is the ledger file kept in each channel workspace by the csv backend.
const CSVFileName = "channel_data.csv"

// Open builds the provider selected by cfg.Ledger.Backend.
func Open(ctx context.Context, cfg *config.Config) (Provider, error) {
	switch cfg.Ledger.Backend {
	case config.LedgerSQLite, "":
		store, err := OpenSQLite(ctx, cfg.Ledger.Path)
		if err != nil {
			return nil, err
		}
		return store, nil
	case config.LedgerCSV:
		return csvProvider{}, nil
	case config.LedgerRedis:
		return OpenRedis(ctx, cfg.Ledger.RedisURL, cfg.Ledger.RedisKeyPrefix)
	default:
		return nil, fmt.Errorf("unsupported ledger backend %q", cfg.Ledger.Backend)
	}
}

type csvProvider struct{}

func (csvProvider) ForChannel(_ context.Context, _ string, workspaceDir string) (Ledger, error) {
	return NewCSV(filepath.Join(workspaceDir, CSVFileName)), nil
}

func (csvProvider) Close() error { return nil }
