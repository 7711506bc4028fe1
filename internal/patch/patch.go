// Package patch applies current/new delta blocks to file contents.
package patch

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for delta application failures.
var (
	// ErrNotFound indicates the current text of a delta was not present.
	ErrNotFound = errors.New("current text not found")

	// ErrAmbiguous indicates the current text matched more than once.
	ErrAmbiguous = errors.New("current text matches multiple locations")
)

// Delta is a single find-exact-text/replace-with-text unit.
type Delta struct {
	Current     string
	Replacement string
}

// WholeFile reports whether the delta replaces the entire file contents.
func (d Delta) WholeFile() bool {
	return strings.TrimSpace(d.Current) == ""
}

// Error describes a failed delta with its position in the sequence.
type Error struct {
	Index   int
	Current string
	Err     error
}

func (e *Error) Error() string {
	return fmt.Sprintf("delta %d: %v", e.Index+1, e.Err)
}

// Unwrap returns the underlying sentinel for errors.Is.
func (e *Error) Unwrap() error {
	return e.Err
}

// Apply applies deltas in order against contents and returns the result.
// Each delta must match exactly once in the contents produced by the
// preceding deltas. The first failure aborts the whole sequence and the
// original contents are returned unchanged.
func Apply(contents string, deltas []Delta) (string, error) {
	if len(deltas) == 0 {
		return contents, errors.New("no deltas to apply")
	}

	updated := contents
	for i, d := range deltas {
		if d.WholeFile() {
			updated = d.Replacement
			continue
		}

		switch strings.Count(updated, d.Current) {
		case 0:
			return contents, &Error{Index: i, Current: d.Current, Err: ErrNotFound}
		case 1:
			updated = strings.Replace(updated, d.Current, d.Replacement, 1)
		default:
			return contents, &Error{Index: i, Current: d.Current, Err: ErrAmbiguous}
		}
	}
	return updated, nil
}
