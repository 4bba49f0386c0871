// Package extension provides the Forge extension adapter for VaultBank.
//
// It implements the forge.Extension interface to integrate VaultBank
// into a Forge application with automatic dependency discovery,
// DI registration, and lifecycle management.
//
// Configuration can be provided programmatically via Option functions
// or via YAML configuration files under "extensions.vaultbank" or
// "vaultbank" keys.
package extension

import (
	"context"
	"errors"

	"github.com/xraph/forge"
	"github.com/xraph/vessel"

	vaultbank "github.com/xraph/vaultbank"
	"github.com/xraph/vaultbank/custody"
	"github.com/xraph/vaultbank/gateway"
	"github.com/xraph/vaultbank/store"
	"github.com/xraph/vaultbank/store/memory"
	"github.com/xraph/vaultbank/types"
)

// ExtensionName is the name registered with Forge.
const ExtensionName = "vaultbank"

// ExtensionDescription is the human-readable description.
const ExtensionDescription = "Single-asset custodial vault engine"

// ExtensionVersion is the semantic version.
const ExtensionVersion = "0.1.0"

// Ensure Extension implements forge.Extension at compile time.
var _ forge.Extension = (*Extension)(nil)

// Extension adapts VaultBank as a Forge extension.
type Extension struct {
	*forge.BaseExtension

	config    Config
	engine    *vaultbank.Bank
	store     store.Store
	custodian custody.Custodian
	gateway   gateway.Gateway
	bankOpts  []vaultbank.Option
}

// New creates a new VaultBank Forge extension with the given options.
func New(opts ...Option) *Extension {
	e := &Extension{
		BaseExtension: forge.NewBaseExtension(ExtensionName, ExtensionVersion, ExtensionDescription),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Engine returns the underlying Bank instance.
// This is nil until Register is called.
func (e *Extension) Engine() *vaultbank.Bank { return e.engine }

// Register implements [forge.Extension]. It loads configuration,
// initializes the bank engine, and registers it in the DI container.
func (e *Extension) Register(fapp forge.App) error {
	if err := e.BaseExtension.Register(fapp); err != nil {
		return err
	}

	if err := e.loadConfiguration(); err != nil {
		return err
	}

	// Custody and conversion have no sensible defaults; they must be
	// injected programmatically.
	if e.custodian == nil {
		return errors.New("vaultbank: extension requires WithCustodian")
	}
	if e.gateway == nil {
		return errors.New("vaultbank: extension requires WithGateway")
	}

	// Use memory store if no store was provided programmatically.
	if e.store == nil {
		e.store = memory.New()
	}

	opts := e.buildBankOpts()

	eng, err := vaultbank.New(e.store, e.custodian, e.gateway, vaultbank.Config{
		Account:        e.config.Account,
		ReferenceAsset: types.Asset(e.config.ReferenceAsset),
		Capacity:       vaultbank.Units(e.config.Capacity),
		Threshold:      vaultbank.Units(e.config.Threshold),
	}, opts...)
	if err != nil {
		return err
	}
	e.engine = eng

	return vessel.Provide(fapp.Container(), func() (*vaultbank.Bank, error) {
		return e.engine, nil
	})
}

// Start implements [forge.Extension].
func (e *Extension) Start(ctx context.Context) error {
	if e.engine == nil {
		return errors.New("vaultbank: extension not initialized")
	}

	if err := e.engine.Start(ctx); err != nil {
		return err
	}

	e.MarkStarted()
	return nil
}

// Stop implements [forge.Extension].
func (e *Extension) Stop(_ context.Context) error {
	if e.engine != nil {
		if err := e.engine.Stop(); err != nil {
			e.MarkStopped()
			return err
		}
	}
	e.MarkStopped()
	return nil
}

// Health implements [forge.Extension].
func (e *Extension) Health(ctx context.Context) error {
	if e.store == nil {
		return errors.New("vaultbank: store not initialized")
	}
	return e.store.Ping(ctx)
}

// buildBankOpts constructs vaultbank.Option values from the resolved config.
func (e *Extension) buildBankOpts() []vaultbank.Option {
	opts := make([]vaultbank.Option, 0, len(e.bankOpts)+3)

	if e.config.JournalBatchSize > 0 || e.config.JournalFlushInterval > 0 {
		batchSize := e.config.JournalBatchSize
		flushInterval := e.config.JournalFlushInterval
		defaults := DefaultConfig()
		if batchSize == 0 {
			batchSize = defaults.JournalBatchSize
		}
		if flushInterval == 0 {
			flushInterval = defaults.JournalFlushInterval
		}
		opts = append(opts, vaultbank.WithJournalConfig(batchSize, flushInterval))
	}

	if e.config.SnapshotInterval > 0 {
		opts = append(opts, vaultbank.WithSnapshotInterval(e.config.SnapshotInterval))
	}

	if e.config.DisableMigrate {
		opts = append(opts, vaultbank.WithoutMigration())
	}

	// Append any pass-through bank options.
	opts = append(opts, e.bankOpts...)

	return opts
}

// --- Config Loading (mirrors grove/shield extension pattern) ---

// loadConfiguration loads config from YAML files or programmatic sources.
func (e *Extension) loadConfiguration() error {
	programmaticConfig := e.config

	// Try loading from config file.
	fileConfig, configLoaded := e.tryLoadFromConfigFile()

	if !configLoaded {
		if programmaticConfig.RequireConfig {
			return errors.New("vaultbank: configuration is required but not found in config files; " +
				"ensure 'extensions.vaultbank' or 'vaultbank' key exists in your config")
		}

		// Use programmatic config merged with defaults.
		e.config = e.mergeWithDefaults(programmaticConfig)
	} else {
		// Config loaded from YAML -- merge with programmatic options.
		e.config = e.mergeConfigurations(fileConfig, programmaticConfig)
	}

	e.Logger().Debug("vaultbank: configuration loaded",
		forge.F("disable_migrate", e.config.DisableMigrate),
		forge.F("account", e.config.Account),
		forge.F("reference_asset", e.config.ReferenceAsset),
		forge.F("capacity", e.config.Capacity),
		forge.F("threshold", e.config.Threshold),
		forge.F("journal_batch_size", e.config.JournalBatchSize),
		forge.F("journal_flush_interval", e.config.JournalFlushInterval),
		forge.F("snapshot_interval", e.config.SnapshotInterval),
	)

	return nil
}

// tryLoadFromConfigFile attempts to load config from YAML files.
func (e *Extension) tryLoadFromConfigFile() (Config, bool) {
	cm := e.App().Config()
	var cfg Config

	// Try "extensions.vaultbank" first (namespaced pattern).
	if cm.IsSet("extensions.vaultbank") {
		if err := cm.Bind("extensions.vaultbank", &cfg); err == nil {
			e.Logger().Debug("vaultbank: loaded config from file",
				forge.F("key", "extensions.vaultbank"),
			)
			return cfg, true
		}
		e.Logger().Warn("vaultbank: failed to bind extensions.vaultbank config",
			forge.F("error", "bind failed"),
		)
	}

	// Try legacy "vaultbank" key.
	if cm.IsSet("vaultbank") {
		if err := cm.Bind("vaultbank", &cfg); err == nil {
			e.Logger().Debug("vaultbank: loaded config from file",
				forge.F("key", "vaultbank"),
			)
			return cfg, true
		}
		e.Logger().Warn("vaultbank: failed to bind vaultbank config",
			forge.F("error", "bind failed"),
		)
	}

	return Config{}, false
}

// mergeWithDefaults fills zero-valued fields with defaults.
func (e *Extension) mergeWithDefaults(cfg Config) Config {
	defaults := DefaultConfig()
	if cfg.JournalBatchSize == 0 {
		cfg.JournalBatchSize = defaults.JournalBatchSize
	}
	if cfg.JournalFlushInterval == 0 {
		cfg.JournalFlushInterval = defaults.JournalFlushInterval
	}
	if cfg.SnapshotInterval == 0 {
		cfg.SnapshotInterval = defaults.SnapshotInterval
	}
	return cfg
}

// mergeConfigurations merges YAML config with programmatic options.
// YAML config takes precedence for most fields; programmatic values fill gaps.
func (e *Extension) mergeConfigurations(yamlConfig, programmaticConfig Config) Config {
	// Programmatic bool flags override when true.
	if programmaticConfig.DisableMigrate {
		yamlConfig.DisableMigrate = true
	}

	// String fields: YAML takes precedence.
	if yamlConfig.Account == "" && programmaticConfig.Account != "" {
		yamlConfig.Account = programmaticConfig.Account
	}
	if yamlConfig.ReferenceAsset == "" && programmaticConfig.ReferenceAsset != "" {
		yamlConfig.ReferenceAsset = programmaticConfig.ReferenceAsset
	}

	// Numeric fields: YAML takes precedence, programmatic fills gaps.
	if yamlConfig.Capacity == 0 && programmaticConfig.Capacity != 0 {
		yamlConfig.Capacity = programmaticConfig.Capacity
	}
	if yamlConfig.Threshold == 0 && programmaticConfig.Threshold != 0 {
		yamlConfig.Threshold = programmaticConfig.Threshold
	}
	if yamlConfig.JournalBatchSize == 0 && programmaticConfig.JournalBatchSize != 0 {
		yamlConfig.JournalBatchSize = programmaticConfig.JournalBatchSize
	}
	if yamlConfig.JournalFlushInterval == 0 && programmaticConfig.JournalFlushInterval != 0 {
		yamlConfig.JournalFlushInterval = programmaticConfig.JournalFlushInterval
	}
	if yamlConfig.SnapshotInterval == 0 && programmaticConfig.SnapshotInterval != 0 {
		yamlConfig.SnapshotInterval = programmaticConfig.SnapshotInterval
	}

	// Fill remaining zeros with defaults.
	return e.mergeWithDefaults(yamlConfig)
}
