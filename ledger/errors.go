package ledger

import "errors"

// Domain error kinds. Callers branch with errors.Is; wrapped messages add
// the offending id or field.
var (
	// Lookup failures. Recoverable by the caller re-checking input.
	ErrBookNotFound        = errors.New("book not found")
	ErrMemberNotFound      = errors.New("member not found")
	ErrTransactionNotFound = errors.New("transaction not found")

	// Business rejections.
	ErrNotAvailable    = errors.New("no copies available")
	ErrAlreadyReturned = errors.New("transaction already returned")
	ErrDeleteBlocked   = errors.New("book has copies on loan")
	ErrInvalidQuantity = errors.New("quantity must be positive")
	ErrMemberInactive  = errors.New("member is not active")

	// ErrInvalidOperation covers state changes the model cannot represent,
	// e.g. reducing total copies below the number currently on loan. Never
	// silently coerced.
	ErrInvalidOperation = errors.New("invalid operation")

	// ErrValidation covers bad caller input, surfaced before any mutation.
	ErrValidation = errors.New("validation failed")

	// ErrPersistence means the durable store rejected a write. The in-memory
	// state has been reverted to the pre-mutation snapshot.
	ErrPersistence = errors.New("persistence failed")

	// ErrInvariant indicates an internal consistency check failed. This is a
	// programming error; callers should treat it as fatal.
	ErrInvariant = errors.New("invariant violation")

	// ErrQueueFull means the background worker's task queue is at capacity.
	ErrQueueFull = errors.New("worker queue full")
)
