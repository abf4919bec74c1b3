package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/hasnin090/iq-sub001/internal/core"
)

func (s *Store) CreateExpenseType(ctx context.Context, et core.ExpenseType) (core.ExpenseType, error) {
	if err := et.Validate(); err != nil {
		return core.ExpenseType{}, err
	}

	err := s.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			`INSERT INTO expense_types (name, description, is_active) VALUES (?, ?, ?)`,
			et.Name, et.Description, et.IsActive)
		if err != nil {
			if isUniqueViolation(err) {
				return core.ErrDuplicateName
			}
			return fmt.Errorf("insert expense type: %w", err)
		}
		et.ID, err = res.LastInsertId()
		return err
	})
	if err != nil {
		return core.ExpenseType{}, err
	}
	return et, nil
}

func (s *Store) ListExpenseTypes(ctx context.Context) ([]core.ExpenseType, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, description, is_active FROM expense_types ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list expense types: %w", err)
	}
	defer rows.Close()

	var types []core.ExpenseType
	for rows.Next() {
		var et core.ExpenseType
		if err := rows.Scan(&et.ID, &et.Name, &et.Description, &et.IsActive); err != nil {
			return nil, fmt.Errorf("scan expense type: %w", err)
		}
		types = append(types, et)
	}
	return types, rows.Err()
}

// UpdateExpenseType renames, re-describes or (de)activates a type.
// Historical ledger entries that reference it are left untouched.
func (s *Store) UpdateExpenseType(ctx context.Context, et core.ExpenseType) (core.ExpenseType, error) {
	if err := et.Validate(); err != nil {
		return core.ExpenseType{}, err
	}

	err := s.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			`UPDATE expense_types SET name = ?, description = ?, is_active = ? WHERE id = ?`,
			et.Name, et.Description, et.IsActive, et.ID)
		if err != nil {
			if isUniqueViolation(err) {
				return core.ErrDuplicateName
			}
			return fmt.Errorf("update expense type: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n == 0 {
			return core.ErrNotFound
		}
		return nil
	})
	if err != nil {
		return core.ExpenseType{}, err
	}
	return et, nil
}

// activeExpenseTypeTx looks up an active type by name inside the calling
// write transaction, so classification sees the same snapshot the
// balances do. Missing or inactive types return nil without error.
func activeExpenseTypeTx(ctx context.Context, tx *sql.Tx, name string) (*core.ExpenseType, error) {
	if name == "" {
		return nil, nil
	}
	var et core.ExpenseType
	err := tx.QueryRowContext(ctx,
		`SELECT id, name, description, is_active FROM expense_types WHERE name = ? AND is_active = 1`,
		name).Scan(&et.ID, &et.Name, &et.Description, &et.IsActive)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("lookup expense type: %w", err)
	}
	return &et, nil
}
