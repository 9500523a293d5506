package layout

import (
	"errors"
	"fmt"
)

// Common reader errors
var (
	ErrEmptyDocument  = errors.New("document is empty")
	ErrPageOutOfRange = errors.New("page out of range")
	ErrClosed         = errors.New("document is closed")
)

// ReadError is returned when a PDF or one of its pages cannot be read
type ReadError struct {
	Op   string
	Page int // zero-based, -1 for document-level failures
	Err  error
}

func (e *ReadError) Error() string {
	if e.Page >= 0 {
		return fmt.Sprintf("layout %s (page %d): %v", e.Op, e.Page, e.Err)
	}
	return fmt.Sprintf("layout %s: %v", e.Op, e.Err)
}

func (e *ReadError) Unwrap() error {
	return e.Err
}
