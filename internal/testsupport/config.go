package testsupport

import (
	"path/filepath"
	"testing"

	"tubeharvest/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// The archive mirrors into a local directory, the ledger is SQLite under the
// state directory, and no throttling delays apply.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Channels = []string{"@testchannel"}
	cfgVal.Paths.WorkspaceDir = filepath.Join(base, "workspace")
	cfgVal.Paths.StateDir = filepath.Join(base, "state")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Processing.DelayBetweenVideos = 0
	cfgVal.Processing.DelayBetweenChannels = 0
	cfgVal.LLM.APIKey = "test"
	cfgVal.Ledger.Path = filepath.Join(base, "state", "ledger.db")
	cfgVal.Archive.Backend = config.ArchiveLocal
	cfgVal.Archive.Local.Dir = filepath.Join(base, "archive")

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithChannels replaces the configured channel list.
func WithChannels(channels ...string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Channels = channels
	}
}

// WithLedgerBackend selects the ledger backend.
func WithLedgerBackend(backend string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Ledger.Backend = backend
	}
}

// WithArchiveBackend selects the archive backend.
func WithArchiveBackend(backend string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Archive.Backend = backend
	}
}

// WithEnsuredDirectories creates the workspace, state, and log directories.
func WithEnsuredDirectories() ConfigOption {
	return func(b *configBuilder) {
		if err := b.cfg.EnsureDirectories(); err != nil {
			b.t.Fatalf("ensure directories: %v", err)
		}
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.StateDir)
}
