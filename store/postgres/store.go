// Package postgres implements the VaultBank store on PostgreSQL via the
// Grove ORM.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/xraph/grove"
	"github.com/xraph/grove/drivers/pgdriver"
	"github.com/xraph/grove/migrate"

	vaultbank "github.com/xraph/vaultbank"
	"github.com/xraph/vaultbank/journal"
	"github.com/xraph/vaultbank/ledger"
	vaultstore "github.com/xraph/vaultbank/store"
)

// compile-time interface check
var _ vaultstore.Store = (*Store)(nil)

// Store implements store.Store using PostgreSQL via Grove ORM.
type Store struct {
	db *grove.DB
	pg *pgdriver.PgDB
}

// New creates a new PostgreSQL store backed by Grove ORM.
func New(db *grove.DB) *Store {
	return &Store{
		db: db,
		pg: pgdriver.Unwrap(db),
	}
}

// DB returns the underlying grove database for direct access.
func (s *Store) DB() *grove.DB { return s.db }

// Migrate creates the required tables and indexes using the grove orchestrator.
func (s *Store) Migrate(ctx context.Context) error {
	executor, err := migrate.NewExecutorFor(s.pg)
	if err != nil {
		return fmt.Errorf("vaultbank/postgres: create migration executor: %w", err)
	}
	orch := migrate.NewOrchestrator(executor, Migrations)
	if _, err := orch.Migrate(ctx); err != nil {
		return fmt.Errorf("vaultbank/postgres: migration failed: %w", err)
	}
	return nil
}

// Ping checks database connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// ==================== Journal Store ====================

func (s *Store) AppendDeposits(ctx context.Context, records []*journal.DepositRecord) error {
	if len(records) == 0 {
		return nil
	}
	models := make([]depositModel, len(records))
	for i, r := range records {
		models[i] = *toDepositModel(r)
	}
	_, err := s.pg.NewInsert(&models).Exec(ctx)
	return err
}

func (s *Store) AppendWithdrawals(ctx context.Context, records []*journal.WithdrawalRecord) error {
	if len(records) == 0 {
		return nil
	}
	models := make([]withdrawalModel, len(records))
	for i, r := range records {
		models[i] = *toWithdrawalModel(r)
	}
	_, err := s.pg.NewInsert(&models).Exec(ctx)
	return err
}

func (s *Store) AppendRescues(ctx context.Context, records []*journal.RescueRecord) error {
	if len(records) == 0 {
		return nil
	}
	models := make([]rescueModel, len(records))
	for i, r := range records {
		models[i] = *toRescueModel(r)
	}
	_, err := s.pg.NewInsert(&models).Exec(ctx)
	return err
}

func (s *Store) ListDeposits(ctx context.Context, account string, opts journal.ListOpts) ([]*journal.DepositRecord, error) {
	var models []depositModel
	q := s.pg.NewSelect(&models)

	if account != "" {
		q = q.Where("account = $1", account)
	}
	if opts.Limit > 0 {
		q = q.Limit(opts.Limit)
	}
	if opts.Offset > 0 {
		q = q.Offset(opts.Offset)
	}
	q = q.OrderExpr("created_at ASC")

	if err := q.Scan(ctx); err != nil {
		return nil, err
	}

	result := make([]*journal.DepositRecord, len(models))
	for i := range models {
		r, err := fromDepositModel(&models[i])
		if err != nil {
			return nil, err
		}
		result[i] = r
	}
	return result, nil
}

func (s *Store) ListWithdrawals(ctx context.Context, account string, opts journal.ListOpts) ([]*journal.WithdrawalRecord, error) {
	var models []withdrawalModel
	q := s.pg.NewSelect(&models)

	if account != "" {
		q = q.Where("account = $1", account)
	}
	if opts.Limit > 0 {
		q = q.Limit(opts.Limit)
	}
	if opts.Offset > 0 {
		q = q.Offset(opts.Offset)
	}
	q = q.OrderExpr("created_at ASC")

	if err := q.Scan(ctx); err != nil {
		return nil, err
	}

	result := make([]*journal.WithdrawalRecord, len(models))
	for i := range models {
		r, err := fromWithdrawalModel(&models[i])
		if err != nil {
			return nil, err
		}
		result[i] = r
	}
	return result, nil
}

func (s *Store) ListRescues(ctx context.Context, opts journal.ListOpts) ([]*journal.RescueRecord, error) {
	var models []rescueModel
	q := s.pg.NewSelect(&models)

	if opts.Limit > 0 {
		q = q.Limit(opts.Limit)
	}
	if opts.Offset > 0 {
		q = q.Offset(opts.Offset)
	}
	q = q.OrderExpr("created_at ASC")

	if err := q.Scan(ctx); err != nil {
		return nil, err
	}

	result := make([]*journal.RescueRecord, len(models))
	for i := range models {
		r, err := fromRescueModel(&models[i])
		if err != nil {
			return nil, err
		}
		result[i] = r
	}
	return result, nil
}

// ==================== Snapshot Store ====================

func (s *Store) SaveSnapshot(ctx context.Context, snap *ledger.Snapshot) error {
	m, err := toSnapshotModel(snap)
	if err != nil {
		return err
	}
	_, err = s.pg.NewInsert(m).
		OnConflict("(key) DO UPDATE").
		Set("balances = EXCLUDED.balances").
		Set("aggregate_micro = EXCLUDED.aggregate_micro").
		Set("deposit_count = EXCLUDED.deposit_count").
		Set("withdrawal_count = EXCLUDED.withdrawal_count").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	return err
}

func (s *Store) LoadSnapshot(ctx context.Context) (*ledger.Snapshot, error) {
	m := new(snapshotModel)
	err := s.pg.NewSelect(m).
		Where("key = $1", snapshotKey).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, vaultbank.ErrNotFound
		}
		return nil, err
	}
	return fromSnapshotModel(m)
}

// ==================== Helpers ====================

// isNoRows checks for the standard sql.ErrNoRows sentinel.
func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}
