package postgres

import (
	"context"

	"github.com/xraph/grove/migrate"
)

// Migrations is the grove migration group for the VaultBank store.
var Migrations = migrate.NewGroup("vaultbank")

func init() {
	Migrations.MustRegister(
		&migrate.Migration{
			Name:    "create_vaultbank_deposits",
			Version: "20240101000001",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS vaultbank_deposits (
    id                  TEXT PRIMARY KEY,
    account             TEXT NOT NULL DEFAULT '',
    input_asset         TEXT NOT NULL DEFAULT '',
    input_amount        TEXT NOT NULL DEFAULT '0',
    output_amount_micro BIGINT NOT NULL DEFAULT 0,
    new_balance_micro   BIGINT NOT NULL DEFAULT 0,
    created_at          TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at          TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_vaultbank_deposits_account ON vaultbank_deposits (account, created_at);
CREATE INDEX IF NOT EXISTS idx_vaultbank_deposits_asset ON vaultbank_deposits (input_asset);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS vaultbank_deposits`)
				return err
			},
		},
		&migrate.Migration{
			Name:    "create_vaultbank_withdrawals",
			Version: "20240101000002",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS vaultbank_withdrawals (
    id                      TEXT PRIMARY KEY,
    account                 TEXT NOT NULL DEFAULT '',
    amount_micro            BIGINT NOT NULL DEFAULT 0,
    remaining_balance_micro BIGINT NOT NULL DEFAULT 0,
    created_at              TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at              TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_vaultbank_withdrawals_account ON vaultbank_withdrawals (account, created_at);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS vaultbank_withdrawals`)
				return err
			},
		},
		&migrate.Migration{
			Name:    "create_vaultbank_rescues",
			Version: "20240101000003",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS vaultbank_rescues (
    id         TEXT PRIMARY KEY,
    caller     TEXT NOT NULL DEFAULT '',
    asset      TEXT NOT NULL DEFAULT '',
    amount     TEXT NOT NULL DEFAULT '0',
    recipient  TEXT NOT NULL DEFAULT '',
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_vaultbank_rescues_caller ON vaultbank_rescues (caller, created_at);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS vaultbank_rescues`)
				return err
			},
		},
		&migrate.Migration{
			Name:    "create_vaultbank_snapshot",
			Version: "20240101000004",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS vaultbank_snapshot (
    key              TEXT PRIMARY KEY,
    balances         JSONB NOT NULL DEFAULT '{}',
    aggregate_micro  BIGINT NOT NULL DEFAULT 0,
    deposit_count    BIGINT NOT NULL DEFAULT 0,
    withdrawal_count BIGINT NOT NULL DEFAULT 0,
    created_at       TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at       TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS vaultbank_snapshot`)
				return err
			},
		},
	)
}
