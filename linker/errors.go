package linker

import (
	"strings"
)

// LinkErrors collects every problem found during one validation pass so a
// single link attempt reports the whole call surface, not just the first
// fault.
type LinkErrors struct {
	errs []error
}

// Error implements the error interface.
func (e *LinkErrors) Error() string {
	var b strings.Builder
	b.WriteString("multiple linking errors occurred: ")
	for i, err := range e.errs {
		if i > 0 {
			b.WriteString("; ")
		}
		b.WriteString(err.Error())
	}
	return b.String()
}

// Unwrap exposes the collected errors to errors.Is and errors.As.
func (e *LinkErrors) Unwrap() []error {
	return e.errs
}

// All returns the collected errors.
func (e *LinkErrors) All() []error {
	return e.errs
}

// combine collapses an error list: nil for none, the error itself for one,
// a LinkErrors aggregate otherwise.
func combine(errs []error) error {
	switch len(errs) {
	case 0:
		return nil
	case 1:
		return errs[0]
	default:
		return &LinkErrors{errs: errs}
	}
}
