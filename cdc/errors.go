package cdc

import "errors"

var (
	// ErrFull is returned by TryEnqueue when the producer's view of the buffer
	// has no free slot.  The call had no effect beyond a producer step.
	ErrFull = errors.New("cdc: fifo full")

	// ErrEmpty is returned by TryDequeue when the consumer's view of the
	// buffer holds nothing.  The call had no effect beyond a consumer step.
	ErrEmpty = errors.New("cdc: fifo empty")

	// ErrInvalidCapacity is returned by New for a capacity that is not a power
	// of two of at least 2.
	ErrInvalidCapacity = errors.New("cdc: capacity must be a power of two >= 2")
)

// Retryable reports whether err is a full/empty rejection that the caller may
// simply retry on a later step.
func Retryable(err error) bool {
	return errors.Is(err, ErrFull) || errors.Is(err, ErrEmpty)
}
