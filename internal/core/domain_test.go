package core

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func validTransaction() Transaction {
	return Transaction{
		Date:        time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
		Description: "cement purchase",
		Type:        Expense,
		Amount:      Money{Units: 50000},
		ProjectID:   1,
	}
}

func TestTransactionValidate(t *testing.T) {
	cases := []struct {
		name    string
		mutate  func(*Transaction)
		wantErr error
	}{
		{"valid expense", func(tx *Transaction) {}, nil},
		{"valid income", func(tx *Transaction) { tx.Type = Income }, nil},
		{"bad type", func(tx *Transaction) { tx.Type = "transfer" }, ErrInvalidTransactionType},
		{"zero amount", func(tx *Transaction) { tx.Amount = Money{} }, ErrInvalidAmount},
		{"no project", func(tx *Transaction) { tx.ProjectID = 0 }, ErrNotFound},
		{"blank description", func(tx *Transaction) { tx.Description = "   " }, ErrEmptyDescription},
		{"long description", func(tx *Transaction) { tx.Description = strings.Repeat("x", 501) }, ErrDescriptionTooLong},
		{"zero date", func(tx *Transaction) { tx.Date = time.Time{} }, ErrInvalidDate},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			tx := validTransaction()
			tc.mutate(&tx)
			err := tx.Validate()
			if !errors.Is(err, tc.wantErr) && err != tc.wantErr {
				t.Fatalf("got %v, want %v", err, tc.wantErr)
			}
		})
	}
}

func TestProjectNetProfit(t *testing.T) {
	p := Project{TotalIncome: Money{Units: 200000}, TotalExpenses: Money{Units: 50000}}
	if got := p.NetProfit().Units; got != 150000 {
		t.Fatalf("NetProfit = %d, want 150000", got)
	}
}

func TestClassify(t *testing.T) {
	tx := validTransaction()
	tx.ID = 7
	tx.ExpenseType = "مواد بناء"

	t.Run("active type", func(t *testing.T) {
		et := &ExpenseType{ID: 3, Name: "مواد بناء", IsActive: true}
		e := Classify(tx, et)
		if e.EntryType != EntryClassified {
			t.Fatalf("entry type = %s, want classified", e.EntryType)
		}
		if e.ExpenseTypeID == nil || *e.ExpenseTypeID != 3 {
			t.Fatalf("expense type id not set")
		}
		if e.SourceKind != SourceTransaction || e.SourceID != 7 {
			t.Fatalf("entry not keyed by transaction: %s/%d", e.SourceKind, e.SourceID)
		}
	})

	t.Run("inactive type falls to general", func(t *testing.T) {
		et := &ExpenseType{ID: 3, Name: "مواد بناء", IsActive: false}
		e := Classify(tx, et)
		if e.EntryType != EntryGeneralExpense || e.ExpenseTypeID != nil {
			t.Fatalf("inactive type should classify as general expense")
		}
	})

	t.Run("no type", func(t *testing.T) {
		e := Classify(tx, nil)
		if e.EntryType != EntryGeneralExpense {
			t.Fatalf("missing type should classify as general expense")
		}
		if e.Amount != tx.Amount || !e.Date.Equal(tx.Date) {
			t.Fatalf("classification must not alter amount or date")
		}
	})
}

func TestBalanceSheetTotal(t *testing.T) {
	b := BalanceSheet{
		AdminBalance: Money{Units: 800000},
		Projects: []Project{
			{Balance: Money{Units: 150000}},
			{Balance: Money{Units: 50000}},
		},
	}
	if got := b.Total().Units; got != 1000000 {
		t.Fatalf("Total = %d, want 1000000", got)
	}
}
