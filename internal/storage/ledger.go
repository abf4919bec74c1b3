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

const entryColumns = `id, date, source_kind, source_id, expense_type_id, amount, description, project_id, entry_type, beneficiary, created_at`

// upsertEntryTx posts a ledger entry keyed by its source event. A repost
// for the same source replaces the classification fields instead of
// creating a second entry.
func upsertEntryTx(ctx context.Context, tx *sql.Tx, e core.LedgerEntry) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO ledger_entries
		 (date, source_kind, source_id, expense_type_id, amount, description, project_id, entry_type, beneficiary, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (source_kind, source_id) DO UPDATE SET
			entry_type = excluded.entry_type,
			expense_type_id = excluded.expense_type_id,
			description = excluded.description`,
		e.Date.UTC(), e.SourceKind, e.SourceID, nullableID(e.ExpenseTypeID), e.Amount.Units,
		e.Description, nullableID(e.ProjectID), e.EntryType, e.Beneficiary, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("upsert ledger entry: %w", err)
	}
	return nil
}

// TransferInstallments posts the given installments into the ledger,
// atomically as a batch. Already-transferred installments are skipped
// without error, so retrying a transfer is safe; an unknown id aborts
// the whole batch. Returns the entries actually created.
func (s *Store) TransferInstallments(ctx context.Context, installmentIDs []int64) ([]core.LedgerEntry, error) {
	var created []core.LedgerEntry
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		created = created[:0]
		for _, id := range installmentIDs {
			var (
				ins       core.Installment
				projectID sql.NullInt64
			)
			err := tx.QueryRowContext(ctx,
				`SELECT i.id, i.deferred_id, d.beneficiary_name, i.amount, i.paid_at, i.transferred, d.project_id
				 FROM installments i
				 JOIN deferred_payments d ON d.id = i.deferred_id
				 WHERE i.id = ?`, id).
				Scan(&ins.ID, &ins.DeferredID, &ins.Beneficiary, &ins.Amount.Units,
					&ins.PaidAt, &ins.Transferred, &projectID)
			if errors.Is(err, sql.ErrNoRows) {
				return core.ErrNotFound
			}
			if err != nil {
				return fmt.Errorf("load installment %d: %w", id, err)
			}
			if ins.Transferred {
				continue
			}

			e := core.LedgerEntry{
				Date:        ins.PaidAt,
				SourceKind:  core.SourceInstallment,
				SourceID:    ins.ID,
				Amount:      ins.Amount,
				Description: "دفعة مؤجلة - " + ins.Beneficiary,
				ProjectID:   idPtr(projectID),
				EntryType:   core.EntryDeferred,
				Beneficiary: ins.Beneficiary,
			}
			res, err := tx.ExecContext(ctx,
				`INSERT INTO ledger_entries
				 (date, source_kind, source_id, expense_type_id, amount, description, project_id, entry_type, beneficiary, created_at)
				 VALUES (?, ?, ?, NULL, ?, ?, ?, ?, ?, ?)`,
				e.Date.UTC(), e.SourceKind, e.SourceID, e.Amount.Units, e.Description,
				nullableID(e.ProjectID), e.EntryType, e.Beneficiary, time.Now().UTC())
			if err != nil {
				return fmt.Errorf("post installment %d: %w", id, err)
			}
			e.ID, err = res.LastInsertId()
			if err != nil {
				return err
			}
			if _, err := tx.ExecContext(ctx,
				`UPDATE installments SET transferred = 1 WHERE id = ?`, ins.ID); err != nil {
				return fmt.Errorf("mark installment transferred: %w", err)
			}
			created = append(created, e)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "Installments transferred to ledger",
		"requested", len(installmentIDs), "created", len(created))
	return created, nil
}

// ReclassifyAll re-evaluates every expense transaction against the
// current expense-type definitions and replaces stale classification
// fields. Amount, date and project of an entry never change here.
// Returns the number of entries that actually changed.
func (s *Store) ReclassifyAll(ctx context.Context) (int, error) {
	changed := 0
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		changed = 0
		rows, err := tx.QueryContext(ctx,
			`SELECT `+transactionColumns+` FROM transactions WHERE type = ?`, core.Expense)
		if err != nil {
			return fmt.Errorf("list expense transactions: %w", err)
		}
		var txns []core.Transaction
		for rows.Next() {
			t, err := scanTransaction(rows)
			if err != nil {
				rows.Close()
				return err
			}
			txns = append(txns, t)
		}
		if err := rows.Err(); err != nil {
			rows.Close()
			return err
		}
		rows.Close()

		for _, t := range txns {
			active, err := activeExpenseTypeTx(ctx, tx, t.ExpenseType)
			if err != nil {
				return err
			}
			want := core.Classify(t, active)

			var (
				entryID     int64
				entryType   core.EntryType
				expenseType sql.NullInt64
			)
			err = tx.QueryRowContext(ctx,
				`SELECT id, entry_type, expense_type_id FROM ledger_entries
				 WHERE source_kind = ? AND source_id = ?`,
				core.SourceTransaction, t.ID).Scan(&entryID, &entryType, &expenseType)
			if errors.Is(err, sql.ErrNoRows) {
				if err := upsertEntryTx(ctx, tx, want); err != nil {
					return err
				}
				changed++
				continue
			}
			if err != nil {
				return fmt.Errorf("load entry for transaction %d: %w", t.ID, err)
			}

			if entryType == want.EntryType && sameID(idPtr(expenseType), want.ExpenseTypeID) {
				continue
			}
			if _, err := tx.ExecContext(ctx,
				`UPDATE ledger_entries SET entry_type = ?, expense_type_id = ? WHERE id = ?`,
				want.EntryType, nullableID(want.ExpenseTypeID), entryID); err != nil {
				return fmt.Errorf("reclassify entry %d: %w", entryID, err)
			}
			changed++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	slog.InfoContext(ctx, "Ledger reclassified", "changed", changed)
	return changed, nil
}

// Summary buckets posted entries by expense-type presence. The grand
// total is the sum of both buckets and reconciles to all expense
// transactions plus all transferred installments.
func (s *Store) Summary(ctx context.Context) (core.LedgerSummary, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+entryColumns+` FROM ledger_entries ORDER BY date, id`)
	if err != nil {
		return core.LedgerSummary{}, fmt.Errorf("list ledger entries: %w", err)
	}
	defer rows.Close()

	var summary core.LedgerSummary
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return core.LedgerSummary{}, err
		}
		if e.ExpenseTypeID != nil {
			summary.Classified.Entries = append(summary.Classified.Entries, e)
			summary.Classified.Total.Units += e.Amount.Units
			summary.Classified.Count++
		} else {
			summary.GeneralExpense.Entries = append(summary.GeneralExpense.Entries, e)
			summary.GeneralExpense.Total.Units += e.Amount.Units
			summary.GeneralExpense.Count++
		}
	}
	if err := rows.Err(); err != nil {
		return core.LedgerSummary{}, err
	}
	summary.GrandTotal.Units = summary.Classified.Total.Units + summary.GeneralExpense.Total.Units
	return summary, nil
}

// BeneficiaryEntries returns a beneficiary's transferred entries in date
// order, for the running-balance fold.
func (s *Store) BeneficiaryEntries(ctx context.Context, beneficiary string) ([]core.LedgerEntry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+entryColumns+` FROM ledger_entries
		 WHERE beneficiary = ? AND source_kind = ?
		 ORDER BY date, id`, beneficiary, core.SourceInstallment)
	if err != nil {
		return nil, fmt.Errorf("list beneficiary entries: %w", err)
	}
	defer rows.Close()

	var entries []core.LedgerEntry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (s *Store) GetLedgerEntry(ctx context.Context, id int64) (core.LedgerEntry, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+entryColumns+` FROM ledger_entries WHERE id = ?`, id)
	return scanEntry(row)
}

// EntryBySource returns the single entry posted for a source event.
func (s *Store) EntryBySource(ctx context.Context, kind core.SourceKind, sourceID int64) (core.LedgerEntry, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+entryColumns+` FROM ledger_entries WHERE source_kind = ? AND source_id = ?`,
		kind, sourceID)
	return scanEntry(row)
}

// PendingMirrorEntries lists posted entries the mirror has not confirmed
// yet. The mirror is best-effort only; nothing here affects balances.
func (s *Store) PendingMirrorEntries(ctx context.Context, limit int) ([]core.LedgerEntry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+entryColumns+` FROM ledger_entries
		 WHERE mirror_status = 'pending' ORDER BY id LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list pending mirror entries: %w", err)
	}
	defer rows.Close()

	var entries []core.LedgerEntry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (s *Store) MarkMirrored(ctx context.Context, entryID int64) error {
	return s.setMirrorStatus(ctx, entryID, "done")
}

func (s *Store) MarkMirrorError(ctx context.Context, entryID int64) error {
	return s.setMirrorStatus(ctx, entryID, "error")
}

func (s *Store) setMirrorStatus(ctx context.Context, entryID int64, status string) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			`UPDATE ledger_entries SET mirror_status = ? WHERE id = ?`, status, entryID)
		if err != nil {
			return fmt.Errorf("set mirror status: %w", err)
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
}

func scanEntry(row rowScanner) (core.LedgerEntry, error) {
	var (
		e             core.LedgerEntry
		expenseTypeID sql.NullInt64
		projectID     sql.NullInt64
	)
	err := row.Scan(&e.ID, &e.Date, &e.SourceKind, &e.SourceID, &expenseTypeID,
		&e.Amount.Units, &e.Description, &projectID, &e.EntryType, &e.Beneficiary, &e.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return core.LedgerEntry{}, core.ErrNotFound
	}
	if err != nil {
		return core.LedgerEntry{}, fmt.Errorf("scan ledger entry: %w", err)
	}
	e.ExpenseTypeID = idPtr(expenseTypeID)
	e.ProjectID = idPtr(projectID)
	return e, nil
}

func sameID(a, b *int64) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
