package store

import (
	"context"
	"errors"
	"maps"
	"slices"
	"sync"
)

// ErrTxnDone is returned when a committed or discarded Txn is used.
var ErrTxnDone = errors.New("mapping transaction already finished")

type pending struct {
	index   uint32
	deleted bool
}

// Txn is a transaction scoped view on a Store. Writes are buffered and
// visible to reads of the same Txn (read-your-writes). They reach the
// underlying Store on Commit, or are dropped on Discard.
type Txn struct {
	base   Store
	mu     sync.RWMutex
	writes map[string]map[string]*pending
	done   bool
}

var _ Store = (*Txn)(nil)

// NewTxn starts a transaction on top of base.
func NewTxn(base Store) *Txn {
	return &Txn{
		base:   base,
		writes: map[string]map[string]*pending{},
	}
}

func (t *Txn) Get(ctx context.Context, namespace, name string) (uint32, bool, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.done {
		return 0, false, ErrTxnDone
	}
	if p, exists := t.writes[namespace][name]; exists {
		if p.deleted {
			return 0, false, nil
		}
		return p.index, true, nil
	}
	return t.base.Get(ctx, namespace, name)
}

func (t *Txn) set(namespace, name string, p *pending) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.done {
		return ErrTxnDone
	}
	ns, exists := t.writes[namespace]
	if !exists {
		ns = map[string]*pending{}
		t.writes[namespace] = ns
	}
	ns[name] = p
	return nil
}

func (t *Txn) Put(_ context.Context, namespace, name string, index uint32) error {
	if err := validate(namespace, name); err != nil {
		return err
	}
	return t.set(namespace, name, &pending{index: index})
}

func (t *Txn) Delete(_ context.Context, namespace, name string) error {
	return t.set(namespace, name, &pending{deleted: true})
}

func (t *Txn) List(ctx context.Context, namespace string) ([]*Entry, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.done {
		return nil, ErrTxnDone
	}
	return t.listLocked(ctx, namespace)
}

// listLocked merges the base entries with the buffered writes. It expects
// t.mu to be held by the caller.
func (t *Txn) listLocked(ctx context.Context, namespace string) ([]*Entry, error) {
	base, err := t.base.List(ctx, namespace)
	if err != nil {
		return nil, err
	}
	overlay := t.writes[namespace]
	result := make([]*Entry, 0, len(base)+len(overlay))
	for _, e := range base {
		if _, exists := overlay[e.Name]; exists {
			continue
		}
		result = append(result, e)
	}
	for name, p := range overlay {
		if p.deleted {
			continue
		}
		result = append(result, &Entry{Namespace: namespace, Name: name, Index: p.index})
	}
	return sortEntries(result), nil
}

func (t *Txn) Namespaces(ctx context.Context) ([]string, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.done {
		return nil, ErrTxnDone
	}
	base, err := t.base.Namespaces(ctx)
	if err != nil {
		return nil, err
	}
	set := map[string]struct{}{}
	for _, ns := range base {
		set[ns] = struct{}{}
	}
	for ns := range t.writes {
		set[ns] = struct{}{}
	}
	result := []string{}
	for ns := range set {
		entries, err := t.listLocked(ctx, ns)
		if err != nil {
			return nil, err
		}
		if len(entries) > 0 {
			result = append(result, ns)
		}
	}
	slices.Sort(result)
	return result, nil
}

// Pending returns the number of buffered writes.
func (t *Txn) Pending() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	count := 0
	for _, ns := range t.writes {
		count += len(ns)
	}
	return count
}

// Commit writes the buffered changes to the underlying Store in namespace
// and name order.
func (t *Txn) Commit(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.done {
		return ErrTxnDone
	}
	t.done = true
	for _, namespace := range slices.Sorted(maps.Keys(t.writes)) {
		ns := t.writes[namespace]
		for _, name := range slices.Sorted(maps.Keys(ns)) {
			p := ns[name]
			var err error
			if p.deleted {
				err = t.base.Delete(ctx, namespace, name)
			} else {
				err = t.base.Put(ctx, namespace, name, p.index)
			}
			if err != nil {
				return err
			}
		}
	}
	return nil
}

// Discard drops all buffered changes.
func (t *Txn) Discard() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.done = true
	t.writes = nil
}

// Close is a no-op, the underlying Store is owned by the caller.
func (t *Txn) Close() error {
	return nil
}
