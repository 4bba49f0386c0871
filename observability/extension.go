// Package observability provides a metrics extension for VaultBank that
// records lifecycle event counts via a MetricFactory.
package observability

import (
	"context"
	"time"

	"github.com/xraph/vaultbank/plugin"
)

// Ensure MetricsExtension implements required interfaces.
var (
	_ plugin.Plugin             = (*MetricsExtension)(nil)
	_ plugin.OnInit             = (*MetricsExtension)(nil)
	_ plugin.OnDeposit          = (*MetricsExtension)(nil)
	_ plugin.OnWithdrawal       = (*MetricsExtension)(nil)
	_ plugin.OnRescue           = (*MetricsExtension)(nil)
	_ plugin.OnSwapFailed       = (*MetricsExtension)(nil)
	_ plugin.OnCapacityRejected = (*MetricsExtension)(nil)
	_ plugin.OnJournalFlushed   = (*MetricsExtension)(nil)
	_ plugin.OnSnapshotSaved    = (*MetricsExtension)(nil)
)

// Counter interface for metric counters.
type Counter interface {
	Inc()
	Add(float64)
}

// Histogram interface for metric histograms.
type Histogram interface {
	Observe(float64)
}

// MetricFactory creates metrics.
type MetricFactory interface {
	Counter(name string) Counter
	Histogram(name string) Histogram
}

// MetricsExtension records system-wide lifecycle metrics.
// Register it as a VaultBank plugin to automatically track vault metrics.
type MetricsExtension struct {
	factory MetricFactory

	// Pipeline metrics
	Deposits    Counter
	Withdrawals Counter
	Rescues     Counter

	// Rejection metrics
	SwapFailures       Counter
	CapacityRejections Counter
	RejectedValue      Histogram

	// Persistence metrics
	JournalBatchSize    Histogram
	JournalFlushLatency Histogram
	SnapshotsSaved      Counter

	// Error metrics
	StoreErrors  Counter
	PluginErrors Counter
}

// NewMetricsExtension creates a MetricsExtension with the provided MetricFactory.
// Use app.Metrics() in forge extensions.
func NewMetricsExtension(factory MetricFactory) *MetricsExtension {
	return &MetricsExtension{
		factory: factory,

		// Pipeline metrics
		Deposits:    factory.Counter("vaultbank.deposits"),
		Withdrawals: factory.Counter("vaultbank.withdrawals"),
		Rescues:     factory.Counter("vaultbank.rescues"),

		// Rejection metrics
		SwapFailures:       factory.Counter("vaultbank.swap.failures"),
		CapacityRejections: factory.Counter("vaultbank.capacity.rejections"),
		RejectedValue:      factory.Histogram("vaultbank.capacity.rejected_micro"),

		// Persistence metrics
		JournalBatchSize:    factory.Histogram("vaultbank.journal.batch.size"),
		JournalFlushLatency: factory.Histogram("vaultbank.journal.flush.latency_ms"),
		SnapshotsSaved:      factory.Counter("vaultbank.snapshots.saved"),

		// Error metrics
		StoreErrors:  factory.Counter("vaultbank.store.errors"),
		PluginErrors: factory.Counter("vaultbank.plugin.errors"),
	}
}

// Name implements plugin.Plugin.
func (m *MetricsExtension) Name() string { return "observability-metrics" }

// OnInit implements plugin.OnInit.
func (m *MetricsExtension) OnInit(_ context.Context, _ interface{}) error {
	// No initialization needed
	return nil
}

// ──────────────────────────────────────────────────
// Pipeline hooks
// ──────────────────────────────────────────────────

// OnDeposit implements plugin.OnDeposit.
func (m *MetricsExtension) OnDeposit(_ context.Context, _ interface{}) error {
	m.Deposits.Inc()
	return nil
}

// OnWithdrawal implements plugin.OnWithdrawal.
func (m *MetricsExtension) OnWithdrawal(_ context.Context, _ interface{}) error {
	m.Withdrawals.Inc()
	return nil
}

// OnRescue implements plugin.OnRescue.
func (m *MetricsExtension) OnRescue(_ context.Context, _ interface{}) error {
	m.Rescues.Inc()
	return nil
}

// OnSwapFailed implements plugin.OnSwapFailed.
func (m *MetricsExtension) OnSwapFailed(_ context.Context, _, _ string) error {
	m.SwapFailures.Inc()
	return nil
}

// OnCapacityRejected implements plugin.OnCapacityRejected.
func (m *MetricsExtension) OnCapacityRejected(_ context.Context, _ string, attemptedMicro int64) error {
	m.CapacityRejections.Inc()
	m.RejectedValue.Observe(float64(attemptedMicro))
	return nil
}

// ──────────────────────────────────────────────────
// Persistence hooks
// ──────────────────────────────────────────────────

// OnJournalFlushed implements plugin.OnJournalFlushed.
func (m *MetricsExtension) OnJournalFlushed(_ context.Context, count int, elapsed time.Duration) error {
	m.JournalBatchSize.Observe(float64(count))
	m.JournalFlushLatency.Observe(float64(elapsed.Milliseconds()))
	return nil
}

// OnSnapshotSaved implements plugin.OnSnapshotSaved.
func (m *MetricsExtension) OnSnapshotSaved(_ context.Context, _ interface{}) error {
	m.SnapshotsSaved.Inc()
	return nil
}
