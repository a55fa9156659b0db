package order

import "errors"

var (
	// ErrUnavailable means the day or seat cannot be booked right now. It is
	// an expected outcome, not a failure of the run.
	ErrUnavailable = errors.New("unavailable")

	// ErrOrderFailed means the order was rejected or came back inconsistent.
	ErrOrderFailed = errors.New("order failed")
)

// IsUnavailable reports whether err is an ErrUnavailable.
func IsUnavailable(err error) bool { return errors.Is(err, ErrUnavailable) }

// IsOrderFailed reports whether err is an ErrOrderFailed.
func IsOrderFailed(err error) bool { return errors.Is(err, ErrOrderFailed) }
