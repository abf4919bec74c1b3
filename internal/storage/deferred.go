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

const deferredColumns = `id, beneficiary_name, total_amount, paid_amount, remaining_amount, status, project_id, due_date, created_at`

// CreateDeferred opens an installment plan with nothing paid yet.
func (s *Store) CreateDeferred(ctx context.Context, d core.DeferredPayment) (core.DeferredPayment, error) {
	if err := d.Validate(); err != nil {
		return core.DeferredPayment{}, err
	}
	d.PaidAmount = core.Money{}
	d.RemainingAmount = d.TotalAmount
	d.Status = core.DeferredPending
	d.CreatedAt = time.Now().UTC()

	err := s.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			`INSERT INTO deferred_payments
			 (beneficiary_name, total_amount, paid_amount, remaining_amount, status, project_id, due_date, created_at)
			 VALUES (?, ?, 0, ?, ?, ?, ?, ?)`,
			d.BeneficiaryName, d.TotalAmount.Units, d.RemainingAmount.Units, d.Status,
			nullableID(d.ProjectID), nullableTime(d.DueDate), d.CreatedAt)
		if err != nil {
			return fmt.Errorf("insert deferred payment: %w", err)
		}
		d.ID, err = res.LastInsertId()
		return err
	})
	if err != nil {
		return core.DeferredPayment{}, err
	}
	return d, nil
}

// PayInstallment records one payment event against the plan. Paid and
// remaining move together inside the transaction so their sum always
// equals the total; the plan flips to completed exactly when remaining
// reaches zero. The ledger is untouched until the installment is
// transferred.
func (s *Store) PayInstallment(ctx context.Context, deferredID int64, amount core.Money) (core.DeferredPayment, core.Installment, error) {
	var (
		d   core.DeferredPayment
		ins core.Installment
	)
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		var err error
		d, err = getDeferredTx(ctx, tx, deferredID)
		if err != nil {
			return err
		}
		if amount.Units <= 0 || amount.Units > d.RemainingAmount.Units {
			return core.ErrInvalidAmount
		}

		d.PaidAmount.Units += amount.Units
		d.RemainingAmount.Units -= amount.Units
		if d.RemainingAmount.Units == 0 {
			d.Status = core.DeferredCompleted
		}

		if _, err := tx.ExecContext(ctx,
			`UPDATE deferred_payments SET paid_amount = ?, remaining_amount = ?, status = ? WHERE id = ?`,
			d.PaidAmount.Units, d.RemainingAmount.Units, d.Status, d.ID); err != nil {
			return fmt.Errorf("update deferred payment: %w", err)
		}

		ins = core.Installment{
			DeferredID:  d.ID,
			Beneficiary: d.BeneficiaryName,
			Amount:      amount,
			PaidAt:      time.Now().UTC(),
		}
		res, err := tx.ExecContext(ctx,
			`INSERT INTO installments (deferred_id, amount, paid_at, transferred) VALUES (?, ?, ?, 0)`,
			ins.DeferredID, ins.Amount.Units, ins.PaidAt)
		if err != nil {
			return fmt.Errorf("insert installment: %w", err)
		}
		ins.ID, err = res.LastInsertId()
		return err
	})
	if err != nil {
		return core.DeferredPayment{}, core.Installment{}, err
	}

	slog.InfoContext(ctx, "Installment paid",
		"deferred_id", d.ID,
		"installment_id", ins.ID,
		"amount", amount.Units,
		"remaining", d.RemainingAmount.Units,
		"status", d.Status)
	return d, ins, nil
}

func (s *Store) GetDeferred(ctx context.Context, id int64) (core.DeferredPayment, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+deferredColumns+` FROM deferred_payments WHERE id = ?`, id)
	return scanDeferred(row)
}

func (s *Store) ListDeferred(ctx context.Context) ([]core.DeferredPayment, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+deferredColumns+` FROM deferred_payments ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list deferred payments: %w", err)
	}
	defer rows.Close()

	var plans []core.DeferredPayment
	for rows.Next() {
		d, err := scanDeferred(rows)
		if err != nil {
			return nil, err
		}
		plans = append(plans, d)
	}
	return plans, rows.Err()
}

// ListInstallments returns every payment event of a plan in order.
func (s *Store) ListInstallments(ctx context.Context, deferredID int64) ([]core.Installment, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT i.id, i.deferred_id, d.beneficiary_name, i.amount, i.paid_at, i.transferred
		 FROM installments i
		 JOIN deferred_payments d ON d.id = i.deferred_id
		 WHERE i.deferred_id = ?
		 ORDER BY i.paid_at, i.id`, deferredID)
	if err != nil {
		return nil, fmt.Errorf("list installments: %w", err)
	}
	defer rows.Close()

	var installments []core.Installment
	for rows.Next() {
		var ins core.Installment
		if err := rows.Scan(&ins.ID, &ins.DeferredID, &ins.Beneficiary,
			&ins.Amount.Units, &ins.PaidAt, &ins.Transferred); err != nil {
			return nil, fmt.Errorf("scan installment: %w", err)
		}
		installments = append(installments, ins)
	}
	return installments, rows.Err()
}

// UntransferredInstallmentIDs lists installments of a beneficiary that
// have not yet been posted to the ledger.
func (s *Store) UntransferredInstallmentIDs(ctx context.Context, beneficiary string) ([]int64, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT i.id
		 FROM installments i
		 JOIN deferred_payments d ON d.id = i.deferred_id
		 WHERE d.beneficiary_name = ? AND i.transferred = 0
		 ORDER BY i.paid_at, i.id`, beneficiary)
	if err != nil {
		return nil, fmt.Errorf("list untransferred installments: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func scanDeferred(row rowScanner) (core.DeferredPayment, error) {
	var (
		d         core.DeferredPayment
		projectID sql.NullInt64
		dueDate   sql.NullTime
	)
	err := row.Scan(&d.ID, &d.BeneficiaryName, &d.TotalAmount.Units, &d.PaidAmount.Units,
		&d.RemainingAmount.Units, &d.Status, &projectID, &dueDate, &d.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return core.DeferredPayment{}, core.ErrNotFound
	}
	if err != nil {
		return core.DeferredPayment{}, fmt.Errorf("scan deferred payment: %w", err)
	}
	d.ProjectID = idPtr(projectID)
	d.DueDate = timePtr(dueDate)
	return d, nil
}

func getDeferredTx(ctx context.Context, tx *sql.Tx, id int64) (core.DeferredPayment, error) {
	row := tx.QueryRowContext(ctx,
		`SELECT `+deferredColumns+` FROM deferred_payments WHERE id = ?`, id)
	return scanDeferred(row)
}
