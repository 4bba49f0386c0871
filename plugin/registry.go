package plugin

import (
	"context"
	"fmt"
	"log/slog"
	"reflect"
	"sync"
	"time"
)

// Registry manages all registered plugins and provides efficient dispatch.
// It uses type-cached discovery for O(1) dispatch performance.
type Registry struct {
	mu      sync.RWMutex
	plugins []Plugin
	logger  *slog.Logger

	// Type-cached plugin lists for efficient dispatch
	onInit             []OnInit
	onShutdown         []OnShutdown
	onDeposit          []OnDeposit
	onWithdrawal       []OnWithdrawal
	onRescue           []OnRescue
	onSwapFailed       []OnSwapFailed
	onCapacityRejected []OnCapacityRejected
	onJournalFlushed   []OnJournalFlushed
	onSnapshotSaved    []OnSnapshotSaved
}

// NewRegistry creates a new plugin registry.
func NewRegistry() *Registry {
	return &Registry{
		logger: slog.Default(),
	}
}

// WithLogger sets the logger for the registry.
func (r *Registry) WithLogger(logger *slog.Logger) *Registry {
	r.logger = logger
	return r
}

// Register adds a plugin to the registry and caches its interfaces.
func (r *Registry) Register(p Plugin) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	// Check for duplicate
	for _, existing := range r.plugins {
		if existing.Name() == p.Name() {
			return fmt.Errorf("plugin: duplicate registration: %s", p.Name())
		}
	}

	r.plugins = append(r.plugins, p)

	// Type-switch to cache interfaces
	if v, ok := p.(OnInit); ok {
		r.onInit = append(r.onInit, v)
	}
	if v, ok := p.(OnShutdown); ok {
		r.onShutdown = append(r.onShutdown, v)
	}
	if v, ok := p.(OnDeposit); ok {
		r.onDeposit = append(r.onDeposit, v)
	}
	if v, ok := p.(OnWithdrawal); ok {
		r.onWithdrawal = append(r.onWithdrawal, v)
	}
	if v, ok := p.(OnRescue); ok {
		r.onRescue = append(r.onRescue, v)
	}
	if v, ok := p.(OnSwapFailed); ok {
		r.onSwapFailed = append(r.onSwapFailed, v)
	}
	if v, ok := p.(OnCapacityRejected); ok {
		r.onCapacityRejected = append(r.onCapacityRejected, v)
	}
	if v, ok := p.(OnJournalFlushed); ok {
		r.onJournalFlushed = append(r.onJournalFlushed, v)
	}
	if v, ok := p.(OnSnapshotSaved); ok {
		r.onSnapshotSaved = append(r.onSnapshotSaved, v)
	}

	r.logger.Info("plugin registered",
		"name", p.Name(),
		"interfaces", r.getImplementedInterfaces(p),
	)

	return nil
}

// getImplementedInterfaces returns a list of interfaces implemented by the plugin.
func (r *Registry) getImplementedInterfaces(p Plugin) []string {
	var interfaces []string
	v := reflect.TypeOf(p)

	checkInterface := func(iface reflect.Type, name string) {
		if v.Implements(iface) {
			interfaces = append(interfaces, name)
		}
	}

	checkInterface(reflect.TypeOf((*OnInit)(nil)).Elem(), "OnInit")
	checkInterface(reflect.TypeOf((*OnShutdown)(nil)).Elem(), "OnShutdown")
	checkInterface(reflect.TypeOf((*OnDeposit)(nil)).Elem(), "OnDeposit")
	checkInterface(reflect.TypeOf((*OnWithdrawal)(nil)).Elem(), "OnWithdrawal")
	checkInterface(reflect.TypeOf((*OnRescue)(nil)).Elem(), "OnRescue")
	checkInterface(reflect.TypeOf((*OnSwapFailed)(nil)).Elem(), "OnSwapFailed")
	checkInterface(reflect.TypeOf((*OnCapacityRejected)(nil)).Elem(), "OnCapacityRejected")
	checkInterface(reflect.TypeOf((*OnJournalFlushed)(nil)).Elem(), "OnJournalFlushed")
	checkInterface(reflect.TypeOf((*OnSnapshotSaved)(nil)).Elem(), "OnSnapshotSaved")

	return interfaces
}

// Get returns a plugin by name.
func (r *Registry) Get(name string) Plugin {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, p := range r.plugins {
		if p.Name() == name {
			return p
		}
	}
	return nil
}

// List returns all registered plugins.
func (r *Registry) List() []Plugin {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]Plugin, len(r.plugins))
	copy(result, r.plugins)
	return result
}

// Count returns the number of registered plugins.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.plugins)
}

// ──────────────────────────────────────────────────
// Event emission methods
// ──────────────────────────────────────────────────

// EmitInit calls OnInit for all plugins that implement it.
func (r *Registry) EmitInit(ctx context.Context, bank interface{}) {
	r.mu.RLock()
	plugins := r.onInit
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnInit(ctx, bank)
		}); err != nil {
			r.logger.Warn("plugin OnInit failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitShutdown calls OnShutdown for all plugins that implement it.
func (r *Registry) EmitShutdown(ctx context.Context) {
	r.mu.RLock()
	plugins := r.onShutdown
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnShutdown(ctx)
		}); err != nil {
			r.logger.Warn("plugin OnShutdown failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitDeposit emits a deposit credited event.
func (r *Registry) EmitDeposit(ctx context.Context, record interface{}) {
	r.mu.RLock()
	plugins := r.onDeposit
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnDeposit(ctx, record)
		}); err != nil {
			r.logger.Warn("plugin OnDeposit failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitWithdrawal emits a withdrawal completed event.
func (r *Registry) EmitWithdrawal(ctx context.Context, record interface{}) {
	r.mu.RLock()
	plugins := r.onWithdrawal
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnWithdrawal(ctx, record)
		}); err != nil {
			r.logger.Warn("plugin OnWithdrawal failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitRescue emits a rescue completed event.
func (r *Registry) EmitRescue(ctx context.Context, record interface{}) {
	r.mu.RLock()
	plugins := r.onRescue
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnRescue(ctx, record)
		}); err != nil {
			r.logger.Warn("plugin OnRescue failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitSwapFailed emits a swap failure event.
func (r *Registry) EmitSwapFailed(ctx context.Context, account, asset string) {
	r.mu.RLock()
	plugins := r.onSwapFailed
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnSwapFailed(ctx, account, asset)
		}); err != nil {
			r.logger.Warn("plugin OnSwapFailed failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitCapacityRejected emits a capacity rejection event.
func (r *Registry) EmitCapacityRejected(ctx context.Context, account string, attemptedMicro int64) {
	r.mu.RLock()
	plugins := r.onCapacityRejected
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnCapacityRejected(ctx, account, attemptedMicro)
		}); err != nil {
			r.logger.Warn("plugin OnCapacityRejected failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitJournalFlushed emits a journal flushed event.
func (r *Registry) EmitJournalFlushed(ctx context.Context, count int, elapsed time.Duration) {
	r.mu.RLock()
	plugins := r.onJournalFlushed
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnJournalFlushed(ctx, count, elapsed)
		}); err != nil {
			r.logger.Warn("plugin OnJournalFlushed failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitSnapshotSaved emits a snapshot saved event.
func (r *Registry) EmitSnapshotSaved(ctx context.Context, snapshot interface{}) {
	r.mu.RLock()
	plugins := r.onSnapshotSaved
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnSnapshotSaved(ctx, snapshot)
		}); err != nil {
			r.logger.Warn("plugin OnSnapshotSaved failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// callWithTimeout calls a plugin function with a timeout.
// Plugins should never block the deposit or withdrawal pipelines.
func (r *Registry) callWithTimeout(ctx context.Context, pluginName string, fn func() error) error {
	done := make(chan error, 1)

	go func() {
		done <- fn()
	}()

	select {
	case err := <-done:
		return err
	case <-time.After(5 * time.Second):
		return fmt.Errorf("plugin timeout: %s", pluginName)
	case <-ctx.Done():
		return ctx.Err()
	}
}
