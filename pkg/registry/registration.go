package registry

import (
	"fmt"

	"github.com/sdcio/dataplane-translator/pkg/path"
	"github.com/sdcio/dataplane-translator/pkg/translate"
)

// Registration is a handler registered for a root path and, optionally, a
// set of subtrees below it.
type Registration struct {
	seq        int
	root       path.Path
	subtrees   []path.Path
	handler    translate.Handler
	structural bool

	// paths this registration runs before, resp. after
	before []path.Path
	after  []path.Path

	position int
}

func (r *Registration) Root() path.Path {
	return r.root
}

// Subtrees returns the claimed subtree paths. Each claims the path itself
// and everything below it.
func (r *Registration) Subtrees() []path.Path {
	return r.subtrees
}

func (r *Registration) Handler() translate.Handler {
	return r.handler
}

// IsStructural indicates a registration that only groups its children.
func (r *Registration) IsStructural() bool {
	return r.structural
}

// Position is the index of the registration in the graph order.
func (r *Registration) Position() int {
	return r.position
}

func (r *Registration) String() string {
	if r.structural {
		return fmt.Sprintf("structural node %s", r.root)
	}
	return fmt.Sprintf("%T at %s", r.handler, r.root)
}

// claims returns the root followed by the subtree claims.
func (r *Registration) claims() []path.Path {
	return append([]path.Path{r.root}, r.subtrees...)
}

func (r *Registration) isSubtreeClaim(p path.Path) bool {
	for _, s := range r.subtrees {
		if s.Equal(p) {
			return true
		}
	}
	return false
}
