package content

import "errors"

// These errors provide a consistent way to report common failure conditions
// across content store implementations. Implementations wrap them with
// context:
//
//	return fmt.Errorf("write ino %d: %w", ino, content.ErrTooLarge)
var (
	// ErrUnavailable indicates the backing store could not be reached
	// (connection failure, bucket missing). Retrying may succeed.
	ErrUnavailable = errors.New("content store unavailable")

	// ErrClosed indicates the store has been closed.
	ErrClosed = errors.New("content store closed")

	// ErrTooLarge indicates the value exceeds the store's configured limit.
	ErrTooLarge = errors.New("content too large")

	// ErrNotSupported indicates the store lacks an optional capability,
	// such as listing.
	ErrNotSupported = errors.New("operation not supported by content store")
)
