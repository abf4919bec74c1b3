package core

import (
	"strings"
	"time"
)

const (
	Income  TransactionType = "income"
	Expense TransactionType = "expense"
)

const (
	EntryClassified     EntryType = "classified"
	EntryGeneralExpense EntryType = "general_expense"
	EntryDeferred       EntryType = "deferred"
)

const (
	DeferredPending   DeferredStatus = "pending"
	DeferredCompleted DeferredStatus = "completed"
)

const (
	SourceTransaction SourceKind = "transaction"
	SourceInstallment SourceKind = "installment"
)

const (
	ProjectActive   = "active"
	ProjectArchived = "archived"
)

type (
	TransactionType string
	EntryType       string
	DeferredStatus  string

	// SourceKind identifies the kind of money-movement event a ledger
	// entry was posted from. Together with the source id it is unique
	// per entry, which is what makes posting idempotent.
	SourceKind string

	// Transaction is a committed money movement against a project.
	// Income debits the admin pool and credits the project; expense
	// debits the project. Immutable once committed; corrections go
	// through delete-and-recreate.
	Transaction struct {
		ID          int64
		Date        time.Time
		Description string
		Type        TransactionType
		Amount      Money
		ProjectID   int64
		ExpenseType string // free-text label matched against active expense types
		CreatedBy   string
		CreatedAt   time.Time
	}

	// Project carries cached aggregates next to the balance. The balance
	// always equals total income minus total expenses for the project;
	// both are maintained inside the same store transaction that commits
	// the movement.
	Project struct {
		ID            int64
		Name          string
		Balance       Money
		TotalIncome   Money
		TotalExpenses Money
		Status        string
		CreatedAt     time.Time
	}

	// ExpenseType classifies expense transactions. Renaming or
	// deactivating a type never touches historical ledger entries.
	ExpenseType struct {
		ID          int64
		Name        string
		Description string
		IsActive    bool
	}

	// LedgerEntry is the posted, permanent record of one source event.
	LedgerEntry struct {
		ID            int64
		Date          time.Time
		SourceKind    SourceKind
		SourceID      int64
		ExpenseTypeID *int64
		Amount        Money
		Description   string
		ProjectID     *int64
		EntryType     EntryType
		Beneficiary   string
		CreatedAt     time.Time
	}

	// DeferredPayment is a beneficiary-level installment plan tracked
	// outside the main ledger until its installments are transferred.
	DeferredPayment struct {
		ID              int64
		BeneficiaryName string
		TotalAmount     Money
		PaidAmount      Money
		RemainingAmount Money
		Status          DeferredStatus
		ProjectID       *int64
		DueDate         *time.Time
		CreatedAt       time.Time
	}

	// Installment is one payment event against a deferred plan. Transfer
	// into the ledger is one-way; a transferred installment stays
	// transferred.
	Installment struct {
		ID          int64
		DeferredID  int64
		Beneficiary string
		Amount      Money
		PaidAt      time.Time
		Transferred bool
	}
)

func (t Transaction) Validate() error {
	if t.Type != Income && t.Type != Expense {
		return ErrInvalidTransactionType
	}
	if err := t.Amount.Validate(); err != nil {
		return err
	}
	if t.ProjectID <= 0 {
		return ErrNotFound
	}
	if len(strings.TrimSpace(t.Description)) == 0 {
		return ErrEmptyDescription
	}
	if len(t.Description) > 500 {
		return ErrDescriptionTooLong
	}
	if t.Date.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

func (p Project) Validate() error {
	if len(strings.TrimSpace(p.Name)) == 0 {
		return ErrEmptyName
	}
	if len(p.Name) > 200 {
		return ErrNameTooLong
	}
	return nil
}

// NetProfit is derived on read rather than cached, so it can never drift
// from the aggregates.
func (p Project) NetProfit() Money {
	return Money{Units: p.TotalIncome.Units - p.TotalExpenses.Units}
}

func (et ExpenseType) Validate() error {
	if len(strings.TrimSpace(et.Name)) == 0 {
		return ErrEmptyName
	}
	if len(et.Name) > 200 {
		return ErrNameTooLong
	}
	return nil
}

func (d DeferredPayment) Validate() error {
	if len(strings.TrimSpace(d.BeneficiaryName)) == 0 {
		return ErrEmptyName
	}
	if err := d.TotalAmount.Validate(); err != nil {
		return err
	}
	return nil
}

// Classify derives the ledger entry for an expense transaction. When the
// transaction's expense-type label names an active type the entry is
// classified against it; otherwise it falls into the general expense
// bucket. The entry is keyed by the transaction so reposting replaces
// rather than duplicates.
func Classify(t Transaction, active *ExpenseType) LedgerEntry {
	e := LedgerEntry{
		Date:        t.Date,
		SourceKind:  SourceTransaction,
		SourceID:    t.ID,
		Amount:      t.Amount,
		Description: t.Description,
		ProjectID:   &t.ProjectID,
		EntryType:   EntryGeneralExpense,
	}
	if active != nil && active.IsActive {
		e.EntryType = EntryClassified
		e.ExpenseTypeID = &active.ID
	}
	return e
}
