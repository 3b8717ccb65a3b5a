package textfilter

import "errors"

var (
	// ErrUnknownAlgorithm is returned by Hash for an algorithm name it does not know.
	ErrUnknownAlgorithm = errors.New("textfilter: unknown hashing algorithm")

	// ErrNegativeCount is returned by Repeat when asked for a negative count.
	ErrNegativeCount = errors.New("textfilter: negative repeat count")

	// ErrRepeatTooLong is returned when a repeat would exceed the configured output limit.
	ErrRepeatTooLong = errors.New("textfilter: repeat output too long")

	// ErrBadArgument is returned when a filter receives an argument of the wrong type or arity.
	ErrBadArgument = errors.New("textfilter: bad argument")

	// ErrUnknownFilter is returned by Apply for a name that is not registered.
	ErrUnknownFilter = errors.New("textfilter: unknown filter")
)
