package catalog

import (
	"errors"
	"fmt"
)

// ErrNotFound: the requested row does not exist, or an id was looked up
// inside a filtered view that excludes it.
var ErrNotFound = errors.New("catalog: not found")

// ErrNotDefined: a lookup was constructed from a blank name or slug.
// A caller forwarding a blank value is itself a defect.
var ErrNotDefined = errors.New("catalog: parameter must be defined")

func notDefined(parameter string) error {
	return fmt.Errorf("%w: %q", ErrNotDefined, parameter)
}
