package filing

import (
	"errors"
	"fmt"
)

// Document-level exclusions
var (
	ErrNotVotingShares = errors.New("filing does not concern voting shares")
	ErrNoSections      = errors.New("no disclosure sections found")
	ErrNoAttachment    = errors.New("announcement has no attachment")
)

// IsExcluded reports whether err marks a filing skipped on purpose rather
// than one that failed
func IsExcluded(err error) bool {
	return errors.Is(err, ErrNotVotingShares) || errors.Is(err, ErrNoSections) || errors.Is(err, ErrNoAttachment)
}

// ProcessError records the step and URL at which a filing failed
type ProcessError struct {
	Op  string
	URL string
	Err error
}

// Error implements the error interface
func (e *ProcessError) Error() string {
	if e.URL != "" {
		return fmt.Sprintf("%s %s: %v", e.Op, e.URL, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error
func (e *ProcessError) Unwrap() error {
	return e.Err
}
