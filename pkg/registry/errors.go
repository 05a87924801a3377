package registry

import (
	"fmt"
	"strings"

	"github.com/sdcio/dataplane-translator/pkg/path"
)

// DuplicateClaimError is returned when two registrations claim the same path.
type DuplicateClaimError struct {
	Path   path.Path
	First  *Registration
	Second *Registration
}

func (e *DuplicateClaimError) Error() string {
	return fmt.Sprintf("path %s claimed by %s and %s", e.Path, e.First, e.Second)
}

// CycleError is returned when the ordering constraints form a cycle.
type CycleError struct {
	Paths []path.Path
}

func (e *CycleError) Error() string {
	ps := make([]string, 0, len(e.Paths))
	for _, p := range e.Paths {
		ps = append(ps, p.String())
	}
	return fmt.Sprintf("ordering cycle: %s", strings.Join(ps, " -> "))
}

// InvalidRegistrationError is returned for registrations that can not be
// placed in the graph.
type InvalidRegistrationError struct {
	Registration *Registration
	Reason       string
}

func (e *InvalidRegistrationError) Error() string {
	return fmt.Sprintf("invalid registration %s: %s", e.Registration, e.Reason)
}
