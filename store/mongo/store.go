// Package mongo implements the VaultBank store on MongoDB via the Grove
// ORM.
package mongo

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/xraph/grove"
	"github.com/xraph/grove/drivers/mongodriver"

	vaultbank "github.com/xraph/vaultbank"
	"github.com/xraph/vaultbank/journal"
	"github.com/xraph/vaultbank/ledger"
	vaultstore "github.com/xraph/vaultbank/store"
)

// Collection name constants.
const (
	colDeposits    = "vaultbank_deposits"
	colWithdrawals = "vaultbank_withdrawals"
	colRescues     = "vaultbank_rescues"
	colSnapshot    = "vaultbank_snapshot"
)

// compile-time interface check
var _ vaultstore.Store = (*Store)(nil)

// Store implements store.Store using MongoDB via Grove ORM.
type Store struct {
	db  *grove.DB
	mdb *mongodriver.MongoDB
}

// New creates a new MongoDB store backed by Grove ORM.
func New(db *grove.DB) *Store {
	return &Store{
		db:  db,
		mdb: mongodriver.Unwrap(db),
	}
}

// DB returns the underlying grove database for direct access.
func (s *Store) DB() *grove.DB { return s.db }

// Migrate creates indexes for all vaultbank collections.
func (s *Store) Migrate(ctx context.Context) error {
	indexes := migrationIndexes()

	for col, models := range indexes {
		if len(models) == 0 {
			continue
		}
		_, err := s.mdb.Collection(col).Indexes().CreateMany(ctx, models)
		if err != nil {
			return fmt.Errorf("vaultbank/mongo: migrate %s indexes: %w", col, err)
		}
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
	for _, r := range records {
		m := toDepositModel(r)
		if _, err := s.mdb.NewInsert(m).Exec(ctx); err != nil {
			return fmt.Errorf("vaultbank/mongo: append deposit: %w", err)
		}
	}
	return nil
}

func (s *Store) AppendWithdrawals(ctx context.Context, records []*journal.WithdrawalRecord) error {
	for _, r := range records {
		m := toWithdrawalModel(r)
		if _, err := s.mdb.NewInsert(m).Exec(ctx); err != nil {
			return fmt.Errorf("vaultbank/mongo: append withdrawal: %w", err)
		}
	}
	return nil
}

func (s *Store) AppendRescues(ctx context.Context, records []*journal.RescueRecord) error {
	for _, r := range records {
		m := toRescueModel(r)
		if _, err := s.mdb.NewInsert(m).Exec(ctx); err != nil {
			return fmt.Errorf("vaultbank/mongo: append rescue: %w", err)
		}
	}
	return nil
}

func (s *Store) ListDeposits(ctx context.Context, account string, opts journal.ListOpts) ([]*journal.DepositRecord, error) {
	var models []depositModel

	filter := bson.M{}
	if account != "" {
		filter["account"] = account
	}

	q := s.mdb.NewFind(&models).
		Filter(filter).
		Sort(bson.D{{Key: "created_at", Value: 1}})

	if opts.Limit > 0 {
		q = q.Limit(int64(opts.Limit))
	}
	if opts.Offset > 0 {
		q = q.Skip(int64(opts.Offset))
	}

	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("vaultbank/mongo: list deposits: %w", err)
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

	filter := bson.M{}
	if account != "" {
		filter["account"] = account
	}

	q := s.mdb.NewFind(&models).
		Filter(filter).
		Sort(bson.D{{Key: "created_at", Value: 1}})

	if opts.Limit > 0 {
		q = q.Limit(int64(opts.Limit))
	}
	if opts.Offset > 0 {
		q = q.Skip(int64(opts.Offset))
	}

	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("vaultbank/mongo: list withdrawals: %w", err)
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

	q := s.mdb.NewFind(&models).
		Filter(bson.M{}).
		Sort(bson.D{{Key: "created_at", Value: 1}})

	if opts.Limit > 0 {
		q = q.Limit(int64(opts.Limit))
	}
	if opts.Offset > 0 {
		q = q.Skip(int64(opts.Offset))
	}

	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("vaultbank/mongo: list rescues: %w", err)
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
	m := toSnapshotModel(snap)

	_, err := s.mdb.NewUpdate(m).
		Filter(bson.M{"_id": m.Key}).
		SetUpdate(bson.M{"$set": bson.M{
			"_id":              m.Key,
			"balances":         m.Balances,
			"aggregate_micro":  m.AggregateMicro,
			"deposit_count":    m.DepositCount,
			"withdrawal_count": m.WithdrawalCount,
			"created_at":       m.CreatedAt,
			"updated_at":       m.UpdatedAt,
		}}).
		Upsert().
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("vaultbank/mongo: save snapshot: %w", err)
	}
	return nil
}

func (s *Store) LoadSnapshot(ctx context.Context) (*ledger.Snapshot, error) {
	var m snapshotModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"_id": snapshotKey}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, vaultbank.ErrNotFound
		}
		return nil, fmt.Errorf("vaultbank/mongo: load snapshot: %w", err)
	}
	return fromSnapshotModel(&m), nil
}

// ==================== Helpers ====================

// isNoDocuments checks if an error wraps mongo.ErrNoDocuments.
func isNoDocuments(err error) bool {
	return errors.Is(err, mongo.ErrNoDocuments)
}

// migrationIndexes returns the index definitions for all vaultbank collections.
func migrationIndexes() map[string][]mongo.IndexModel {
	return map[string][]mongo.IndexModel{
		colDeposits: {
			{Keys: bson.D{{Key: "account", Value: 1}, {Key: "created_at", Value: 1}}},
			{Keys: bson.D{{Key: "input_asset", Value: 1}}},
		},
		colWithdrawals: {
			{Keys: bson.D{{Key: "account", Value: 1}, {Key: "created_at", Value: 1}}},
		},
		colRescues: {
			{Keys: bson.D{{Key: "caller", Value: 1}, {Key: "created_at", Value: 1}}},
		},
		colSnapshot: {},
	}
}
