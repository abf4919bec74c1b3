// Package services orchestrates ledger operations across the store and
// the message broker. The store is authoritative; broker publishes are
// best-effort and never fail a committed operation.
package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/hasnin090/iq-sub001/internal/core"
	"github.com/hasnin090/iq-sub001/internal/storage"
)

// EntryPublisher announces committed ledger entries to the mirror
// worker. A nil publisher disables notifications without disabling the
// ledger.
type EntryPublisher interface {
	PublishEntryPosted(ctx context.Context, entryID int64) error
	Close() error
}

type LedgerService struct {
	store     *storage.Store
	publisher EntryPublisher
}

func NewLedgerService(store *storage.Store, publisher EntryPublisher) *LedgerService {
	return &LedgerService{store: store, publisher: publisher}
}

// RecordTransaction commits a transaction and, for expenses, announces
// the posted ledger entry.
func (s *LedgerService) RecordTransaction(ctx context.Context, t core.Transaction) (core.Transaction, core.UpdatedBalances, error) {
	t, balances, err := s.store.ApplyTransaction(ctx, t)
	if err != nil {
		return core.Transaction{}, core.UpdatedBalances{}, err
	}

	if t.Type == core.Expense {
		entry, err := s.store.EntryBySource(ctx, core.SourceTransaction, t.ID)
		if err != nil {
			slog.ErrorContext(ctx, "Failed to load posted entry", "transaction_id", t.ID, "error", err)
		} else {
			s.publishEntry(ctx, entry.ID)
		}
	}
	return t, balances, nil
}

func (s *LedgerService) DeleteTransaction(ctx context.Context, id int64) (core.UpdatedBalances, error) {
	return s.store.DeleteTransaction(ctx, id)
}

func (s *LedgerService) GetTransaction(ctx context.Context, id int64) (core.Transaction, error) {
	return s.store.GetTransaction(ctx, id)
}

func (s *LedgerService) ListTransactions(ctx context.Context, projectID int64) ([]core.Transaction, error) {
	return s.store.ListTransactions(ctx, projectID)
}

// TransferReceivables posts paid installments into the ledger as one
// atomic batch and announces every entry it created. Installments
// already transferred are skipped, so retries are safe.
func (s *LedgerService) TransferReceivables(ctx context.Context, installmentIDs []int64) ([]core.LedgerEntry, error) {
	entries, err := s.store.TransferInstallments(ctx, installmentIDs)
	if err != nil {
		return nil, err
	}
	for _, e := range entries {
		s.publishEntry(ctx, e.ID)
	}
	return entries, nil
}

// TransferBeneficiary posts every untransferred installment of one
// beneficiary. A beneficiary with nothing pending transfers zero
// entries without error.
func (s *LedgerService) TransferBeneficiary(ctx context.Context, beneficiary string) ([]core.LedgerEntry, error) {
	ids, err := s.store.UntransferredInstallmentIDs(ctx, beneficiary)
	if err != nil {
		return nil, fmt.Errorf("list untransferred installments: %w", err)
	}
	if len(ids) == 0 {
		return nil, nil
	}
	return s.TransferReceivables(ctx, ids)
}

// Reclassify re-runs classification over all expense transactions and
// returns how many entries moved between buckets.
func (s *LedgerService) Reclassify(ctx context.Context) (int, error) {
	return s.store.ReclassifyAll(ctx)
}

func (s *LedgerService) Summary(ctx context.Context) (core.LedgerSummary, error) {
	return s.store.Summary(ctx)
}

// BeneficiaryStatement folds a beneficiary's transferred entries in date
// order into statement lines with a running balance. The balance is
// recomputed on every read, never cached.
func (s *LedgerService) BeneficiaryStatement(ctx context.Context, beneficiary string) ([]core.StatementLine, error) {
	entries, err := s.store.BeneficiaryEntries(ctx, beneficiary)
	if err != nil {
		return nil, err
	}

	lines := make([]core.StatementLine, 0, len(entries))
	var running core.Money
	for _, e := range entries {
		running.Units += e.Amount.Units
		lines = append(lines, core.StatementLine{Entry: e, RunningBalance: running})
	}
	return lines, nil
}

func (s *LedgerService) Deposit(ctx context.Context, amount core.Money) (core.Money, error) {
	return s.store.Deposit(ctx, amount)
}

func (s *LedgerService) BalanceSheet(ctx context.Context) (core.BalanceSheet, error) {
	return s.store.BalanceSheet(ctx)
}

func (s *LedgerService) CreateProject(ctx context.Context, p core.Project) (core.Project, error) {
	return s.store.CreateProject(ctx, p)
}

func (s *LedgerService) GetProject(ctx context.Context, id int64) (core.Project, error) {
	return s.store.GetProject(ctx, id)
}

func (s *LedgerService) ListProjects(ctx context.Context) ([]core.Project, error) {
	return s.store.ListProjects(ctx)
}

func (s *LedgerService) DeleteProject(ctx context.Context, id int64) error {
	return s.store.DeleteProject(ctx, id)
}

func (s *LedgerService) ArchiveProject(ctx context.Context, id int64) error {
	return s.store.ArchiveProject(ctx, id)
}

func (s *LedgerService) CreateExpenseType(ctx context.Context, et core.ExpenseType) (core.ExpenseType, error) {
	return s.store.CreateExpenseType(ctx, et)
}

func (s *LedgerService) ListExpenseTypes(ctx context.Context) ([]core.ExpenseType, error) {
	return s.store.ListExpenseTypes(ctx)
}

func (s *LedgerService) UpdateExpenseType(ctx context.Context, et core.ExpenseType) (core.ExpenseType, error) {
	return s.store.UpdateExpenseType(ctx, et)
}

func (s *LedgerService) publishEntry(ctx context.Context, entryID int64) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishEntryPosted(ctx, entryID); err != nil {
		// The entry is committed; the worker's pending scan will pick
		// it up even if this message never arrives.
		slog.ErrorContext(ctx, "Failed to publish entry posted message",
			"entry_id", entryID, "error", err)
	}
}

// Close closes the store and, when present, the publisher.
func (s *LedgerService) Close() error {
	var errs []error

	if s.store != nil {
		if err := s.store.Close(); err != nil {
			errs = append(errs, fmt.Errorf("storage: %w", err))
		}
	}
	if s.publisher != nil {
		if err := s.publisher.Close(); err != nil {
			errs = append(errs, fmt.Errorf("publisher: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close ledger service: %v", errs)
	}
	return nil
}
