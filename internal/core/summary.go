package core

// EntryGroup aggregates one summary bucket of posted ledger entries.
type EntryGroup struct {
	Total   Money
	Count   int
	Entries []LedgerEntry
}

// LedgerSummary buckets posted entries by expense-type presence: entries
// carrying a type are classified, everything else (general expenses and
// transferred installments) is general expense. GrandTotal is always the
// sum of the two buckets, which reconciles to the sum of all expense
// transactions plus all transferred installments.
type LedgerSummary struct {
	Classified     EntryGroup
	GeneralExpense EntryGroup
	GrandTotal     Money
}

// StatementLine is one row of a beneficiary statement. The running
// balance is a fold over that beneficiary's transferred entries in date
// order, recomputed on every read.
type StatementLine struct {
	Entry          LedgerEntry
	RunningBalance Money
}

// UpdatedBalances reports both balances touched by a transaction apply
// or delete, read back inside the same store transaction.
type UpdatedBalances struct {
	AdminBalance Money
	Project      Project
}

// BalanceSheet is a snapshot of the admin pool and every project balance.
type BalanceSheet struct {
	AdminBalance Money
	Projects     []Project
}

// Total returns the admin pool plus all project balances. Internal
// transfers never change it; only external income and expenses do.
func (b BalanceSheet) Total() Money {
	total := b.AdminBalance.Units
	for _, p := range b.Projects {
		total += p.Balance.Units
	}
	return Money{Units: total}
}
