package catalog

import (
	"fmt"
	"strings"
)

// LoadError means the catalog could not be read or failed validation.
// It is fatal for the process.
type LoadError struct {
	Source   string
	Problems []string
	Err      error
}

func (e *LoadError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "load catalog %s", e.Source)
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	if len(e.Problems) > 0 {
		fmt.Fprintf(&b, ": %d problem(s): %s", len(e.Problems), strings.Join(e.Problems, "; "))
	}
	return b.String()
}

func (e *LoadError) Unwrap() error { return e.Err }
