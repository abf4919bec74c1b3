package core

import "errors"

var (
	// ErrInsufficientFunds is returned when an income transaction would
	// require more than the admin pool currently holds.
	ErrInsufficientFunds = errors.New("insufficient admin funds")

	// ErrInsufficientProjectBalance is returned when an expense (or the
	// reversal of an income transaction) would drive a project balance
	// negative.
	ErrInsufficientProjectBalance = errors.New("insufficient project balance")

	// ErrInvalidAmount covers non-positive amounts and installment
	// payments exceeding the remaining balance.
	ErrInvalidAmount = errors.New("invalid amount")

	// ErrDuplicateName is returned when a project or expense type name
	// is already taken.
	ErrDuplicateName = errors.New("name already exists")

	ErrNotFound = errors.New("not found")

	// ErrProjectHasTransactions blocks deleting a project that
	// transactions still reference.
	ErrProjectHasTransactions = errors.New("project has transactions")

	// ErrStoreUnavailable signals a transient store failure; callers may
	// retry with backoff. Balances are never partially mutated when it
	// is returned.
	ErrStoreUnavailable = errors.New("store unavailable")

	ErrInvalidTransactionType = errors.New("invalid transaction type")
	ErrInvalidDate            = errors.New("invalid date")
	ErrEmptyDescription       = errors.New("empty description")
	ErrDescriptionTooLong     = errors.New("description too long")
	ErrEmptyName              = errors.New("empty name")
	ErrNameTooLong            = errors.New("name too long")
)
