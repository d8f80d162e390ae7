package postgres

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/ethereum/go-ethereum/common"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"elementalVault/internal/custody"
	"elementalVault/internal/model"
	"elementalVault/internal/storage"
)

// checkViolation is the SQLSTATE raised when a CHECK constraint fails.
const checkViolation = "23514"

type pgTx struct {
	tx       pgx.Tx
	readOnly bool
}

var _ storage.Tx = (*pgTx)(nil)

// lockClause makes reads inside Update take row locks.
func (t *pgTx) lockClause() string {
	if t.readOnly {
		return ""
	}
	return " FOR UPDATE"
}

func (t *pgTx) LoadGlobal(ctx context.Context) (model.Global, bool, error) {
	var raw string
	err := t.tx.QueryRow(ctx, `SELECT vault_counter::text FROM vault_registry WHERE id`+t.lockClause()).Scan(&raw)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Global{}, false, nil
		}
		return model.Global{}, false, err
	}
	counter, err := parseAmount(raw)
	if err != nil {
		return model.Global{}, false, fmt.Errorf("vault_counter: %w", err)
	}
	return model.Global{VaultCounter: counter}, true, nil
}

func (t *pgTx) SaveGlobal(ctx context.Context, g model.Global) error {
	if t.readOnly {
		return storage.ErrReadOnly
	}
	_, err := t.tx.Exec(ctx, `
		INSERT INTO vault_registry (id, vault_counter, created_at, updated_at)
		VALUES (TRUE, $1::numeric, now(), now())
		ON CONFLICT (id) DO UPDATE
		SET vault_counter = EXCLUDED.vault_counter, updated_at = now()
	`, formatAmount(g.VaultCounter))
	return err
}

func (t *pgTx) LoadVault(ctx context.Context, vaultCount uint64) (model.Vault, bool, error) {
	row := t.tx.QueryRow(ctx, `
		SELECT creator, authority, base_mint, yield_bps,
			vault_count::text, vault_capacity::text, min_amount::text, start_date::text,
			end_date::text, withdraw_timeframe::text, amount_collected::text,
			amount_withdrawn::text, amount_redeemed::text, open_positions::text
		FROM vaults WHERE vault_count = $1::numeric`+t.lockClause(),
		formatAmount(vaultCount),
	)

	var (
		v                        model.Vault
		creator, authority, mint string
		yieldBps                 int32
		nums                     [10]string
	)
	err := row.Scan(&creator, &authority, &mint, &yieldBps,
		&nums[0], &nums[1], &nums[2], &nums[3], &nums[4],
		&nums[5], &nums[6], &nums[7], &nums[8], &nums[9],
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Vault{}, false, nil
		}
		return model.Vault{}, false, err
	}

	targets := [10]*uint64{
		&v.VaultCount, &v.VaultCapacity, &v.MinAmount, &v.StartDate, &v.EndDate,
		&v.WithdrawTimeframe, &v.AmountCollected, &v.AmountWithdrawn, &v.AmountRedeemed, &v.OpenPositions,
	}
	for i, raw := range nums {
		if *targets[i], err = parseAmount(raw); err != nil {
			return model.Vault{}, false, fmt.Errorf("vault %d column %d: %w", vaultCount, i, err)
		}
	}
	v.Creator = common.HexToAddress(creator)
	v.Authority = common.HexToAddress(authority)
	v.BaseMint = common.HexToAddress(mint)
	v.YieldBps = uint16(yieldBps)
	return v, true, nil
}

func (t *pgTx) SaveVault(ctx context.Context, v model.Vault) error {
	if t.readOnly {
		return storage.ErrReadOnly
	}
	_, err := t.tx.Exec(ctx, `
		INSERT INTO vaults (
			vault_count, creator, authority, base_mint, yield_bps, vault_capacity, min_amount,
			start_date, end_date, withdraw_timeframe, amount_collected, amount_withdrawn,
			amount_redeemed, open_positions, created_at, updated_at
		) VALUES (
			$1::numeric, $2, $3, $4, $5, $6::numeric, $7::numeric, $8::numeric, $9::numeric,
			$10::numeric, $11::numeric, $12::numeric, $13::numeric, $14::numeric, now(), now()
		)
		ON CONFLICT (vault_count)
		DO UPDATE SET
			authority = EXCLUDED.authority,
			base_mint = EXCLUDED.base_mint,
			yield_bps = EXCLUDED.yield_bps,
			vault_capacity = EXCLUDED.vault_capacity,
			min_amount = EXCLUDED.min_amount,
			start_date = EXCLUDED.start_date,
			end_date = EXCLUDED.end_date,
			withdraw_timeframe = EXCLUDED.withdraw_timeframe,
			amount_collected = EXCLUDED.amount_collected,
			amount_withdrawn = EXCLUDED.amount_withdrawn,
			amount_redeemed = EXCLUDED.amount_redeemed,
			open_positions = EXCLUDED.open_positions,
			updated_at = now()
	`,
		formatAmount(v.VaultCount),
		v.Creator.Hex(),
		v.Authority.Hex(),
		v.BaseMint.Hex(),
		int32(v.YieldBps),
		formatAmount(v.VaultCapacity),
		formatAmount(v.MinAmount),
		formatAmount(v.StartDate),
		formatAmount(v.EndDate),
		formatAmount(v.WithdrawTimeframe),
		formatAmount(v.AmountCollected),
		formatAmount(v.AmountWithdrawn),
		formatAmount(v.AmountRedeemed),
		formatAmount(v.OpenPositions),
	)
	return err
}

func (t *pgTx) DeleteVault(ctx context.Context, vaultCount uint64) error {
	if t.readOnly {
		return storage.ErrReadOnly
	}
	_, err := t.tx.Exec(ctx, `DELETE FROM vaults WHERE vault_count = $1::numeric`, formatAmount(vaultCount))
	return err
}

func (t *pgTx) LoadPosition(ctx context.Context, vaultCount uint64, owner common.Address) (model.UserPosition, bool, error) {
	var raw string
	err := t.tx.QueryRow(ctx, `
		SELECT amount::text FROM user_positions
		WHERE vault_count = $1::numeric AND owner = $2`+t.lockClause(),
		formatAmount(vaultCount), owner.Hex(),
	).Scan(&raw)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.UserPosition{}, false, nil
		}
		return model.UserPosition{}, false, err
	}
	amount, err := parseAmount(raw)
	if err != nil {
		return model.UserPosition{}, false, fmt.Errorf("position amount: %w", err)
	}
	return model.UserPosition{VaultCount: vaultCount, Owner: owner, Amount: amount}, true, nil
}

func (t *pgTx) SavePosition(ctx context.Context, p model.UserPosition) error {
	if t.readOnly {
		return storage.ErrReadOnly
	}
	_, err := t.tx.Exec(ctx, `
		INSERT INTO user_positions (vault_count, owner, amount, created_at, updated_at)
		VALUES ($1::numeric, $2, $3::numeric, now(), now())
		ON CONFLICT (vault_count, owner) DO UPDATE
		SET amount = EXCLUDED.amount, updated_at = now()
	`, formatAmount(p.VaultCount), p.Owner.Hex(), formatAmount(p.Amount))
	return err
}

func (t *pgTx) DeletePosition(ctx context.Context, vaultCount uint64, owner common.Address) error {
	if t.readOnly {
		return storage.ErrReadOnly
	}
	_, err := t.tx.Exec(ctx, `DELETE FROM user_positions WHERE vault_count = $1::numeric AND owner = $2`,
		formatAmount(vaultCount), owner.Hex())
	return err
}

func (t *pgTx) BalanceOf(ctx context.Context, mint, owner common.Address) (uint64, error) {
	var raw string
	err := t.tx.QueryRow(ctx, `SELECT amount::text FROM custody_balances WHERE mint = $1 AND owner = $2`+t.lockClause(),
		mint.Hex(), owner.Hex()).Scan(&raw)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, nil
		}
		return 0, err
	}
	return parseAmount(raw)
}

func (t *pgTx) Transfer(ctx context.Context, mint, from, to common.Address, amount uint64) error {
	if t.readOnly {
		return storage.ErrReadOnly
	}
	if amount == 0 {
		return nil
	}
	tag, err := t.tx.Exec(ctx, `
		UPDATE custody_balances
		SET amount = amount - $3::numeric, updated_at = now()
		WHERE mint = $1 AND owner = $2 AND amount >= $3::numeric
	`, mint.Hex(), from.Hex(), formatAmount(amount))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("transfer from %s: need %d: %w", from.Hex(), amount, custody.ErrInsufficientBalance)
	}
	return t.credit(ctx, mint, to, amount)
}

func (t *pgTx) Open(ctx context.Context, mint, owner common.Address) error {
	if t.readOnly {
		return storage.ErrReadOnly
	}
	_, err := t.tx.Exec(ctx, `
		INSERT INTO custody_balances (mint, owner, amount, updated_at)
		VALUES ($1, $2, 0, now())
		ON CONFLICT (mint, owner) DO NOTHING
	`, mint.Hex(), owner.Hex())
	return err
}

func (t *pgTx) Mint(ctx context.Context, mint, owner common.Address, amount uint64) error {
	if t.readOnly {
		return storage.ErrReadOnly
	}
	return t.credit(ctx, mint, owner, amount)
}

func (t *pgTx) credit(ctx context.Context, mint, owner common.Address, amount uint64) error {
	_, err := t.tx.Exec(ctx, `
		INSERT INTO custody_balances (mint, owner, amount, updated_at)
		VALUES ($1, $2, $3::numeric, now())
		ON CONFLICT (mint, owner) DO UPDATE
		SET amount = custody_balances.amount + EXCLUDED.amount, updated_at = now()
	`, mint.Hex(), owner.Hex(), formatAmount(amount))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == checkViolation {
			return fmt.Errorf("credit %s: %w", owner.Hex(), custody.ErrBalanceOverflow)
		}
		return err
	}
	return nil
}

func formatAmount(v uint64) string {
	return strconv.FormatUint(v, 10)
}

func parseAmount(raw string) (uint64, error) {
	v, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse amount %q: %w", raw, err)
	}
	return v, nil
}
