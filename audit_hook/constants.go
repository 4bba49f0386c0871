package audithook

// Action constants for audit events.
const (
	// Pipeline actions
	ActionDeposit    = "deposit.credited"
	ActionWithdrawal = "withdrawal.completed"
	ActionRescue     = "rescue.executed"

	// Rejection actions
	ActionSwapFailed       = "swap.failed"
	ActionCapacityRejected = "capacity.rejected"

	// Persistence actions
	ActionJournalFlushed = "journal.flushed"
	ActionSnapshotSaved  = "snapshot.saved"
)

// Resource constants for audit events.
const (
	ResourceDeposit    = "deposit"
	ResourceWithdrawal = "withdrawal"
	ResourceRescue     = "rescue"
	ResourceJournal    = "journal"
	ResourceSnapshot   = "snapshot"
)

// Category constants for audit events.
const (
	CategoryCustody     = "custody"
	CategoryConversion  = "conversion"
	CategoryPrivileged  = "privileged"
	CategoryPersistence = "persistence"
)

// Severity levels for audit events.
const (
	SeverityInfo     = "info"
	SeverityWarning  = "warning"
	SeverityError    = "error"
	SeverityCritical = "critical"
)

// Outcome values for audit events.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
	OutcomePartial = "partial"
)
