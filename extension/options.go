package extension

import (
	"time"

	vaultbank "github.com/xraph/vaultbank"
	"github.com/xraph/vaultbank/custody"
	"github.com/xraph/vaultbank/gateway"
	"github.com/xraph/vaultbank/plugin"
	"github.com/xraph/vaultbank/store"
)

// Option configures the VaultBank Forge extension.
type Option func(*Extension)

// WithStore sets the store for the bank engine.
func WithStore(s store.Store) Option {
	return func(e *Extension) {
		e.store = s
	}
}

// WithCustodian sets the custody layer the bank moves assets through.
func WithCustodian(c custody.Custodian) Option {
	return func(e *Extension) {
		e.custodian = c
	}
}

// WithGateway sets the exchange gateway used for deposit conversion.
func WithGateway(g gateway.Gateway) Option {
	return func(e *Extension) {
		e.gateway = g
	}
}

// WithBankOption passes a vaultbank.Option through to the underlying engine.
func WithBankOption(opt vaultbank.Option) Option {
	return func(e *Extension) {
		e.bankOpts = append(e.bankOpts, opt)
	}
}

// WithPlugin registers a vaultbank plugin.
func WithPlugin(p plugin.Plugin) Option {
	return func(e *Extension) {
		e.bankOpts = append(e.bankOpts, vaultbank.WithPlugin(p))
	}
}

// WithConfig sets the Forge extension configuration.
func WithConfig(cfg Config) Option {
	return func(e *Extension) { e.config = cfg }
}

// WithDisableMigrate prevents auto-migration on start.
func WithDisableMigrate() Option {
	return func(e *Extension) { e.config.DisableMigrate = true }
}

// WithRequireConfig requires config to be present in YAML files.
// If true and no config is found, Register returns an error.
func WithRequireConfig(require bool) Option {
	return func(e *Extension) { e.config.RequireConfig = require }
}

// WithJournalBatchSize sets the number of journal records to buffer before flushing.
func WithJournalBatchSize(size int) Option {
	return func(e *Extension) { e.config.JournalBatchSize = size }
}

// WithJournalFlushInterval sets how frequently the journal buffer is flushed.
func WithJournalFlushInterval(d time.Duration) Option {
	return func(e *Extension) { e.config.JournalFlushInterval = d }
}

// WithSnapshotInterval sets how often the ledger snapshot is persisted.
func WithSnapshotInterval(d time.Duration) Option {
	return func(e *Extension) { e.config.SnapshotInterval = d }
}
