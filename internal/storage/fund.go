package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/hasnin090/iq-sub001/internal/core"
)

// Deposit credits external income into the admin pool and returns the
// new pool balance. This is the only operation that grows the pool.
func (s *Store) Deposit(ctx context.Context, amount core.Money) (core.Money, error) {
	if err := amount.Validate(); err != nil {
		return core.Money{}, err
	}

	var balance core.Money
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx,
			`UPDATE admin_fund SET balance = balance + ? WHERE id = 1`, amount.Units); err != nil {
			return fmt.Errorf("credit admin fund: %w", err)
		}
		return tx.QueryRowContext(ctx,
			`SELECT balance FROM admin_fund WHERE id = 1`).Scan(&balance.Units)
	})
	if err != nil {
		return core.Money{}, err
	}

	slog.InfoContext(ctx, "Admin fund deposit", "amount", amount.Units, "balance", balance.Units)
	return balance, nil
}

// AdminBalance returns the current admin pool balance.
func (s *Store) AdminBalance(ctx context.Context) (core.Money, error) {
	var balance core.Money
	err := s.db.QueryRowContext(ctx,
		`SELECT balance FROM admin_fund WHERE id = 1`).Scan(&balance.Units)
	if err != nil {
		return core.Money{}, fmt.Errorf("read admin balance: %w", err)
	}
	return balance, nil
}

// BalanceSheet snapshots the admin pool and all project balances.
func (s *Store) BalanceSheet(ctx context.Context) (core.BalanceSheet, error) {
	var sheet core.BalanceSheet

	admin, err := s.AdminBalance(ctx)
	if err != nil {
		return sheet, err
	}
	sheet.AdminBalance = admin

	projects, err := s.ListProjects(ctx)
	if err != nil {
		return sheet, err
	}
	sheet.Projects = projects
	return sheet, nil
}

func adminBalanceTx(ctx context.Context, tx *sql.Tx) (int64, error) {
	var balance int64
	if err := tx.QueryRowContext(ctx,
		`SELECT balance FROM admin_fund WHERE id = 1`).Scan(&balance); err != nil {
		return 0, fmt.Errorf("read admin balance: %w", err)
	}
	return balance, nil
}
