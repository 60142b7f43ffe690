package types

import "errors"

var (
	// ErrMalformedInput: an input document is unreadable or misses expected fields.
	ErrMalformedInput = errors.New("malformed input")
	// ErrConfiguration: a sequence references an element with no sentences.
	ErrConfiguration = errors.New("configuration error")
	// ErrEmptyPool: no sequence is left to partition.
	ErrEmptyPool = errors.New("empty sequence pool")
	// ErrInvalidOption: an option value is out of range.
	ErrInvalidOption = errors.New("invalid option")
	// ErrCorruptContainer: an array container file failed validation.
	ErrCorruptContainer = errors.New("corrupt array container")
)

// ExitCode maps a run error to the process exit status.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, ErrInvalidOption):
		return 2
	case errors.Is(err, ErrMalformedInput),
		errors.Is(err, ErrConfiguration),
		errors.Is(err, ErrEmptyPool):
		return 3
	default:
		return 1
	}
}
