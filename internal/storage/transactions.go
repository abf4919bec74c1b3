package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hasnin090/iq-sub001/internal/core"
)

const transactionColumns = `id, date, description, type, amount, project_id, expense_type, created_by, created_at`

// ApplyTransaction validates a pending transaction against the current
// balances and commits it atomically: the funds check, the transaction
// row, both balance mutations, the project aggregates and (for expenses)
// the classified ledger entry all land in one write transaction, or none
// of them do.
//
// Income moves money from the admin pool into the project; it fails with
// core.ErrInsufficientFunds when the pool holds less than the amount.
// Expense spends from the project; it fails with
// core.ErrInsufficientProjectBalance when the project holds less.
func (s *Store) ApplyTransaction(ctx context.Context, t core.Transaction) (core.Transaction, core.UpdatedBalances, error) {
	if err := t.Validate(); err != nil {
		return core.Transaction{}, core.UpdatedBalances{}, err
	}
	t.Date = t.Date.UTC()
	t.CreatedAt = time.Now().UTC()

	var balances core.UpdatedBalances
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		project, err := getProjectTx(ctx, tx, t.ProjectID)
		if err != nil {
			return err
		}

		switch t.Type {
		case core.Income:
			admin, err := adminBalanceTx(ctx, tx)
			if err != nil {
				return err
			}
			if admin < t.Amount.Units {
				return core.ErrInsufficientFunds
			}
			if _, err := tx.ExecContext(ctx,
				`UPDATE admin_fund SET balance = balance - ? WHERE id = 1`, t.Amount.Units); err != nil {
				return fmt.Errorf("debit admin fund: %w", err)
			}
			if _, err := tx.ExecContext(ctx,
				`UPDATE projects SET balance = balance + ?, total_income = total_income + ? WHERE id = ?`,
				t.Amount.Units, t.Amount.Units, t.ProjectID); err != nil {
				return fmt.Errorf("credit project: %w", err)
			}
		case core.Expense:
			if project.Balance.Units < t.Amount.Units {
				return core.ErrInsufficientProjectBalance
			}
			if _, err := tx.ExecContext(ctx,
				`UPDATE projects SET balance = balance - ?, total_expenses = total_expenses + ? WHERE id = ?`,
				t.Amount.Units, t.Amount.Units, t.ProjectID); err != nil {
				return fmt.Errorf("debit project: %w", err)
			}
		}

		res, err := tx.ExecContext(ctx,
			`INSERT INTO transactions (date, description, type, amount, project_id, expense_type, created_by, created_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			t.Date, t.Description, t.Type, t.Amount.Units, t.ProjectID, t.ExpenseType, t.CreatedBy, t.CreatedAt)
		if err != nil {
			return fmt.Errorf("insert transaction: %w", err)
		}
		t.ID, err = res.LastInsertId()
		if err != nil {
			return err
		}

		if t.Type == core.Expense {
			active, err := activeExpenseTypeTx(ctx, tx, t.ExpenseType)
			if err != nil {
				return err
			}
			if err := upsertEntryTx(ctx, tx, core.Classify(t, active)); err != nil {
				return err
			}
		}

		balances.Project, err = getProjectTx(ctx, tx, t.ProjectID)
		if err != nil {
			return err
		}
		admin, err := adminBalanceTx(ctx, tx)
		if err != nil {
			return err
		}
		balances.AdminBalance = core.Money{Units: admin}
		return nil
	})
	if err != nil {
		return core.Transaction{}, core.UpdatedBalances{}, err
	}

	slog.InfoContext(ctx, "Transaction applied",
		"id", t.ID,
		"type", t.Type,
		"amount", t.Amount.Units,
		"project_id", t.ProjectID,
		"admin_balance", balances.AdminBalance.Units,
		"project_balance", balances.Project.Balance.Units)
	return t, balances, nil
}

// DeleteTransaction performs the exact inverse of the original apply,
// restoring both balances before removing the transaction and its ledger
// entry. Reversing an income transaction requires the project to still
// hold the amount.
func (s *Store) DeleteTransaction(ctx context.Context, id int64) (core.UpdatedBalances, error) {
	var balances core.UpdatedBalances
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		t, err := getTransactionTx(ctx, tx, id)
		if err != nil {
			return err
		}

		switch t.Type {
		case core.Income:
			project, err := getProjectTx(ctx, tx, t.ProjectID)
			if err != nil {
				return err
			}
			if project.Balance.Units < t.Amount.Units {
				return core.ErrInsufficientProjectBalance
			}
			if _, err := tx.ExecContext(ctx,
				`UPDATE projects SET balance = balance - ?, total_income = total_income - ? WHERE id = ?`,
				t.Amount.Units, t.Amount.Units, t.ProjectID); err != nil {
				return fmt.Errorf("reverse project credit: %w", err)
			}
			if _, err := tx.ExecContext(ctx,
				`UPDATE admin_fund SET balance = balance + ? WHERE id = 1`, t.Amount.Units); err != nil {
				return fmt.Errorf("restore admin fund: %w", err)
			}
		case core.Expense:
			if _, err := tx.ExecContext(ctx,
				`UPDATE projects SET balance = balance + ?, total_expenses = total_expenses - ? WHERE id = ?`,
				t.Amount.Units, t.Amount.Units, t.ProjectID); err != nil {
				return fmt.Errorf("restore project balance: %w", err)
			}
		}

		if _, err := tx.ExecContext(ctx,
			`DELETE FROM ledger_entries WHERE source_kind = ? AND source_id = ?`,
			core.SourceTransaction, t.ID); err != nil {
			return fmt.Errorf("delete ledger entry: %w", err)
		}
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM transactions WHERE id = ?`, t.ID); err != nil {
			return fmt.Errorf("delete transaction: %w", err)
		}

		balances.Project, err = getProjectTx(ctx, tx, t.ProjectID)
		if err != nil {
			return err
		}
		admin, err := adminBalanceTx(ctx, tx)
		if err != nil {
			return err
		}
		balances.AdminBalance = core.Money{Units: admin}
		return nil
	})
	if err != nil {
		return core.UpdatedBalances{}, err
	}

	slog.InfoContext(ctx, "Transaction deleted", "id", id,
		"admin_balance", balances.AdminBalance.Units,
		"project_balance", balances.Project.Balance.Units)
	return balances, nil
}

func (s *Store) GetTransaction(ctx context.Context, id int64) (core.Transaction, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+transactionColumns+` FROM transactions WHERE id = ?`, id)
	return scanTransaction(row)
}

// ListTransactions returns transactions, optionally filtered by project,
// newest first.
func (s *Store) ListTransactions(ctx context.Context, projectID int64) ([]core.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions`
	args := []any{}
	if projectID > 0 {
		query += ` WHERE project_id = ?`
		args = append(args, projectID)
	}
	query += ` ORDER BY date DESC, id DESC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	var txns []core.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		txns = append(txns, t)
	}
	return txns, rows.Err()
}

func scanTransaction(row rowScanner) (core.Transaction, error) {
	var t core.Transaction
	err := row.Scan(&t.ID, &t.Date, &t.Description, &t.Type, &t.Amount.Units,
		&t.ProjectID, &t.ExpenseType, &t.CreatedBy, &t.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Transaction{}, core.ErrNotFound
	}
	if err != nil {
		return core.Transaction{}, fmt.Errorf("scan transaction: %w", err)
	}
	return t, nil
}

func getTransactionTx(ctx context.Context, tx *sql.Tx, id int64) (core.Transaction, error) {
	row := tx.QueryRowContext(ctx,
		`SELECT `+transactionColumns+` FROM transactions WHERE id = ?`, id)
	return scanTransaction(row)
}
