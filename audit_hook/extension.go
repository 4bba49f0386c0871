// Package audithook bridges VaultBank lifecycle events to an audit trail
// backend.
//
// It defines a local Recorder interface so the package does not import
// Chronicle directly. Callers inject a RecorderFunc adapter that bridges
// to Chronicle at wiring time.
package audithook

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/xraph/vaultbank/journal"
	"github.com/xraph/vaultbank/plugin"
)

// Compile-time interface checks.
var (
	_ plugin.Plugin             = (*Extension)(nil)
	_ plugin.OnDeposit          = (*Extension)(nil)
	_ plugin.OnWithdrawal       = (*Extension)(nil)
	_ plugin.OnRescue           = (*Extension)(nil)
	_ plugin.OnSwapFailed       = (*Extension)(nil)
	_ plugin.OnCapacityRejected = (*Extension)(nil)
)

// Recorder is the interface that audit backends must implement.
// This matches chronicle.Emitter but is defined locally so that the
// audit_hook package does not import Chronicle directly — callers inject
// the concrete *chronicle.Chronicle at wiring time.
type Recorder interface {
	Record(ctx context.Context, event *AuditEvent) error
}

// AuditEvent is a local representation of an audit event.
// It mirrors chronicle/audit.Event but avoids a module dependency.
type AuditEvent struct {
	Action     string         `json:"action"`
	Resource   string         `json:"resource"`
	Category   string         `json:"category"`
	ResourceID string         `json:"resource_id,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	Outcome    string         `json:"outcome"`
	Severity   string         `json:"severity"`
	Reason     string         `json:"reason,omitempty"`
}

// RecorderFunc is an adapter to use a plain function as a Recorder.
type RecorderFunc func(ctx context.Context, event *AuditEvent) error

// Record implements Recorder.
func (f RecorderFunc) Record(ctx context.Context, event *AuditEvent) error {
	return f(ctx, event)
}

// Extension bridges VaultBank lifecycle events to an audit trail backend.
type Extension struct {
	recorder Recorder
	enabled  map[string]bool // nil = all enabled
	logger   *slog.Logger
}

// New creates an Extension that emits audit events through the provided Recorder.
func New(r Recorder, opts ...Option) *Extension {
	e := &Extension{
		recorder: r,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Name implements plugin.Plugin.
func (e *Extension) Name() string { return "audit-hook" }

// ──────────────────────────────────────────────────
// Pipeline hooks
// ──────────────────────────────────────────────────

// OnDeposit implements plugin.OnDeposit.
func (e *Extension) OnDeposit(ctx context.Context, record interface{}) error {
	var resourceID string
	kv := []any{"event", "deposit_credited"}
	if r, ok := record.(*journal.DepositRecord); ok {
		resourceID = r.ID.String()
		kv = append(kv,
			"account", r.Account,
			"input_asset", r.InputAsset.String(),
			"input_amount", r.InputAmount.String(),
			"output_amount_micro", r.OutputAmount.Micro(),
		)
	}
	return e.record(ctx, ActionDeposit, SeverityInfo, OutcomeSuccess,
		ResourceDeposit, resourceID, CategoryCustody, nil, kv...)
}

// OnWithdrawal implements plugin.OnWithdrawal.
func (e *Extension) OnWithdrawal(ctx context.Context, record interface{}) error {
	var resourceID string
	kv := []any{"event", "withdrawal_completed"}
	if r, ok := record.(*journal.WithdrawalRecord); ok {
		resourceID = r.ID.String()
		kv = append(kv,
			"account", r.Account,
			"amount_micro", r.Amount.Micro(),
		)
	}
	return e.record(ctx, ActionWithdrawal, SeverityInfo, OutcomeSuccess,
		ResourceWithdrawal, resourceID, CategoryCustody, nil, kv...)
}

// OnRescue implements plugin.OnRescue.
func (e *Extension) OnRescue(ctx context.Context, record interface{}) error {
	var resourceID string
	kv := []any{"event", "rescue_executed"}
	if r, ok := record.(*journal.RescueRecord); ok {
		resourceID = r.ID.String()
		kv = append(kv,
			"caller", r.Caller,
			"asset", r.Asset.String(),
			"amount", r.Amount.String(),
			"recipient", r.Recipient,
		)
	}
	// Rescues bypass accounting; always worth a warning-level trail entry.
	return e.record(ctx, ActionRescue, SeverityWarning, OutcomeSuccess,
		ResourceRescue, resourceID, CategoryPrivileged, nil, kv...)
}

// ──────────────────────────────────────────────────
// Rejection hooks
// ──────────────────────────────────────────────────

// OnSwapFailed implements plugin.OnSwapFailed.
func (e *Extension) OnSwapFailed(ctx context.Context, account, asset string) error {
	return e.record(ctx, ActionSwapFailed, SeverityError, OutcomeFailure,
		ResourceDeposit, "", CategoryConversion, nil,
		"account", account,
		"asset", asset,
	)
}

// OnCapacityRejected implements plugin.OnCapacityRejected.
func (e *Extension) OnCapacityRejected(ctx context.Context, account string, attemptedMicro int64) error {
	return e.record(ctx, ActionCapacityRejected, SeverityWarning, OutcomeFailure,
		ResourceDeposit, "", CategoryCustody, nil,
		"account", account,
		"attempted_micro", attemptedMicro,
	)
}

// ──────────────────────────────────────────────────
// Internal helpers
// ──────────────────────────────────────────────────

// record builds and sends an audit event if the action is enabled.
func (e *Extension) record(
	ctx context.Context,
	action, severity, outcome string,
	resource, resourceID, category string,
	err error,
	kvPairs ...any,
) error {
	if e.enabled != nil && !e.enabled[action] {
		return nil
	}

	meta := make(map[string]any, len(kvPairs)/2+1)
	for i := 0; i+1 < len(kvPairs); i += 2 {
		key, ok := kvPairs[i].(string)
		if !ok {
			key = fmt.Sprintf("%v", kvPairs[i])
		}
		meta[key] = kvPairs[i+1]
	}

	var reason string
	if err != nil {
		reason = err.Error()
		meta["error"] = err.Error()
	}

	evt := &AuditEvent{
		Action:     action,
		Resource:   resource,
		Category:   category,
		ResourceID: resourceID,
		Metadata:   meta,
		Outcome:    outcome,
		Severity:   severity,
		Reason:     reason,
	}

	if recErr := e.recorder.Record(ctx, evt); recErr != nil {
		e.logger.Warn("audit_hook: failed to record audit event",
			"action", action,
			"resource_id", resourceID,
			"error", recErr,
		)
	}
	return nil
}
