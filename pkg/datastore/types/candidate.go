package types

import (
	"sync"
	"time"

	"github.com/sdcio/dataplane-translator/pkg/path"
	"github.com/sdcio/dataplane-translator/pkg/tree"
)

type edit struct {
	path   path.Path
	value  any
	delete bool
}

// Candidate collects the edits of a client. The edits are replayed on top of
// the committed configuration, so a candidate always applies to the latest
// committed state.
type Candidate struct {
	id      string
	created time.Time
	timer   *Timer

	m     *sync.Mutex
	edits []*edit
}

func NewCandidate(id string) *Candidate {
	return &Candidate{
		id:      id,
		created: time.Now(),
		m:       &sync.Mutex{},
	}
}

func (c *Candidate) ID() string {
	return c.id
}

func (c *Candidate) Created() time.Time {
	return c.created
}

func (c *Candidate) Set(p path.Path, v any) {
	c.m.Lock()
	defer c.m.Unlock()
	c.edits = append(c.edits, &edit{path: p.Copy(), value: v})
	c.touch()
}

// Delete removes p and everything below it.
func (c *Candidate) Delete(p path.Path) {
	c.m.Lock()
	defer c.m.Unlock()
	c.edits = append(c.edits, &edit{path: p.Copy(), delete: true})
	c.touch()
}

func (c *Candidate) Len() int {
	c.m.Lock()
	defer c.m.Unlock()
	return len(c.edits)
}

// Apply returns a copy of committed with the edits applied.
func (c *Candidate) Apply(committed *tree.Tree) *tree.Tree {
	c.m.Lock()
	defer c.m.Unlock()
	result := committed.DeepCopy()
	for _, e := range c.edits {
		if e.delete {
			result.Delete(e.path)
			continue
		}
		result.Set(e.path, e.value)
	}
	return result
}

// Changes returns the changes the candidate makes to committed.
func (c *Candidate) Changes(committed *tree.Tree) []*tree.Change {
	return tree.Diff(committed, c.Apply(committed))
}

// SetTimeout discards the candidate through f after the given idle time.
func (c *Candidate) SetTimeout(d time.Duration, f func()) {
	c.timer = NewTimer("candidate "+c.id, d, f)
}

func (c *Candidate) StartTimer() error {
	if c.timer == nil {
		return nil
	}
	return c.timer.Start()
}

func (c *Candidate) StopTimer() {
	if c.timer != nil {
		c.timer.Stop()
	}
}

func (c *Candidate) touch() {
	if c.timer != nil {
		c.timer.Reset()
	}
}
