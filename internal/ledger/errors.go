package ledger

import "errors"

// Rejection reasons. Every failed operation wraps exactly one of these and
// leaves the campaign untouched.
var (
	ErrWindowClosed       = errors.New("window is closed")
	ErrWindowNotClosed    = errors.New("window is not closed")
	ErrInsufficientAmount = errors.New("insufficient amount")
	ErrNotOwner           = errors.New("caller is not the owner")
	ErrTargetNotReached   = errors.New("target is not reached")
	ErrTargetReached      = errors.New("target is reached")
	ErrNoContribution     = errors.New("no contribution")
	ErrZeroAddress        = errors.New("zero address")
	ErrPriceFeed          = errors.New("price feed unavailable")
)
