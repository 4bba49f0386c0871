package extension

import "time"

// Config holds the VaultBank extension configuration.
// Fields can be set programmatically via Option functions or loaded from
// YAML configuration files (under "extensions.vaultbank" or "vaultbank" keys).
type Config struct {
	// DisableMigrate prevents auto-migration on start.
	DisableMigrate bool `json:"disable_migrate" mapstructure:"disable_migrate" yaml:"disable_migrate"`

	// Account is the bank's custody account identity.
	Account string `json:"account" mapstructure:"account" yaml:"account"`

	// ReferenceAsset is the accounting unit all balances are denominated in.
	ReferenceAsset string `json:"reference_asset" mapstructure:"reference_asset" yaml:"reference_asset"`

	// Capacity is the bank capacity in whole reference units.
	Capacity int64 `json:"capacity" mapstructure:"capacity" yaml:"capacity"`

	// Threshold is the per-withdrawal threshold in whole reference units.
	Threshold int64 `json:"threshold" mapstructure:"threshold" yaml:"threshold"`

	// JournalBatchSize is the number of journal records to buffer before
	// flushing to the store (default: 100).
	JournalBatchSize int `json:"journal_batch_size" mapstructure:"journal_batch_size" yaml:"journal_batch_size"`

	// JournalFlushInterval is how frequently the journal buffer is flushed
	// even if the batch size has not been reached (default: 5s).
	JournalFlushInterval time.Duration `json:"journal_flush_interval" mapstructure:"journal_flush_interval" yaml:"journal_flush_interval"`

	// SnapshotInterval controls how often the ledger snapshot is persisted
	// (default: 1m).
	SnapshotInterval time.Duration `json:"snapshot_interval" mapstructure:"snapshot_interval" yaml:"snapshot_interval"`

	// RequireConfig requires config to be present in YAML files.
	// If true and no config is found, Register returns an error.
	RequireConfig bool `json:"-" yaml:"-"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		JournalBatchSize:     100,
		JournalFlushInterval: 5 * time.Second,
		SnapshotInterval:     time.Minute,
	}
}
