package statement

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownPlay is matched by UnknownPlayError via errors.Is.
	ErrUnknownPlay = errors.New("unknown play")
	// ErrUnknownPlayType is matched by UnknownPlayTypeError via errors.Is.
	ErrUnknownPlayType = errors.New("unknown play type")
	// ErrOverflow reports an amount or credit total that does not fit in 64 bits.
	ErrOverflow = errors.New("statement total overflows")
)

// UnknownPlayError reports a performance whose play identifier is absent from the lookup.
type UnknownPlayError struct {
	PlayID string
}

// Error implements the error interface.
func (e *UnknownPlayError) Error() string {
	return fmt.Sprintf("unknown play: %s", e.PlayID)
}

// Is lets errors.Is match against ErrUnknownPlay.
func (e *UnknownPlayError) Is(target error) bool {
	return target == ErrUnknownPlay
}

// UnknownPlayTypeError reports a play whose type is outside the priced genres.
type UnknownPlayTypeError struct {
	Type string
}

// Error implements the error interface.
func (e *UnknownPlayTypeError) Error() string {
	return fmt.Sprintf("unknown type: %s", e.Type)
}

// Is lets errors.Is match against ErrUnknownPlayType.
func (e *UnknownPlayTypeError) Is(target error) bool {
	return target == ErrUnknownPlayType
}
