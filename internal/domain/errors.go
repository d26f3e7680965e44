package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors used across layers.
var (
	ErrNotFound = errors.New("not found")

	// ErrDecoding is matched by every *DecodingFailure via errors.Is.
	ErrDecoding = errors.New("routine decoding failed")
)

// DecodingFailure is returned when no reconciliation tier could produce a
// routine. Raw holds the last model text seen, for diagnostics.
type DecodingFailure struct {
	Raw string
	Err error
}

func (e *DecodingFailure) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%v: %v", ErrDecoding, e.Err)
	}
	return ErrDecoding.Error()
}

func (e *DecodingFailure) Unwrap() error { return e.Err }

func (e *DecodingFailure) Is(target error) bool { return target == ErrDecoding }
