package board

import (
	"errors"
	"fmt"
)

var (
	ErrOutOfBounds     = errors.New("square out of bounds")
	ErrInvalidPosition = errors.New("invalid position")
	ErrIllegalMove     = errors.New("illegal move")
)

// OutOfBoundsError reports coordinates that do not name a square.
type OutOfBoundsError struct {
	File, Rank int
}

func (e *OutOfBoundsError) Error() string {
	return fmt.Sprintf("square (%d,%d) out of bounds", e.File, e.Rank)
}

func (e *OutOfBoundsError) Unwrap() error { return ErrOutOfBounds }

// InvalidPositionError reports a position field that cannot be imported.
// Field is the zero-based index of the whitespace-separated field.
type InvalidPositionError struct {
	Field  int
	Token  string
	Reason string
}

func (e *InvalidPositionError) Error() string {
	return fmt.Sprintf("invalid position field %d (%q): %s", e.Field, e.Token, e.Reason)
}

func (e *InvalidPositionError) Unwrap() error { return ErrInvalidPosition }

// IllegalMoveError is returned when a move outside the legal set is applied.
type IllegalMoveError struct {
	Move   string
	Reason string
}

func (e *IllegalMoveError) Error() string {
	return fmt.Sprintf("illegal move %s: %s", e.Move, e.Reason)
}

func (e *IllegalMoveError) Unwrap() error { return ErrIllegalMove }
