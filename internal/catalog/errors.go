package catalog

import (
	"errors"
	"strings"
)

// ErrNotFound is returned when no sound effect matches a name or id lookup.
var ErrNotFound = errors.New("sound effect not found")

// ValidationError carries every constraint a create or edit violated, not
// just the first one, so the caller can report them all at once.
type ValidationError struct {
	Violations []string
}

func (e *ValidationError) Error() string {
	return "invalid sound effect: " + strings.Join(e.Violations, "; ")
}
