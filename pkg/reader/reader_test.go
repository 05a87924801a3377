package reader

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync/atomic"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sdcio/dataplane-translator/pkg/dump"
	"github.com/sdcio/dataplane-translator/pkg/path"
	"github.com/sdcio/dataplane-translator/pkg/registry"
	"github.com/sdcio/dataplane-translator/pkg/store"
	"github.com/sdcio/dataplane-translator/pkg/translate"
	"github.com/sdcio/dataplane-translator/pkg/tree"
	"github.com/sdcio/dataplane-translator/pkg/txn"
)

type iface struct {
	Name       string
	Neighbours []string
}

type ifaceReader struct {
	names []string
	fail  string
	reads atomic.Int32
}

func (r *ifaceReader) AllKeys(ctx context.Context, p path.Path, rc *txn.Context) ([]path.Keys, error) {
	result := []path.Keys{}
	for _, n := range r.names {
		result = append(result, path.Keys{"name": n})
	}
	return result, nil
}

func (r *ifaceReader) Read(ctx context.Context, p path.Path, rc *txn.Context) (any, error) {
	r.reads.Add(1)
	name, _ := p.KeyValue("interface", "name")
	if name == r.fail {
		return nil, errors.New("retval -2")
	}
	if !slices.Contains(r.names, name) {
		return nil, nil
	}
	return &iface{Name: name}, nil
}

type neighbourReader struct {
	data  map[string][]string
	calls atomic.Int32
	dumps *dump.Manager[[]string, string]
}

func newNeighbourReader(t *testing.T, data map[string][]string) *neighbourReader {
	r := &neighbourReader{data: data}
	m, err := dump.NewManagerBuilder[[]string, string]().
		AcceptOnly("neighbours").
		WithExecutor(func(ctx context.Context, p path.Path, ifName string) ([]string, error) {
			r.calls.Add(1)
			return r.data[ifName], nil
		}).
		WithCacheKeyFactory(dump.NewIdentifierKeyFactory[string]("neighbours").ScopedBy("interface")).
		WithNonEmptyPredicate(func(s []string) bool { return len(s) > 0 }).
		Build()
	require.NoError(t, err)
	r.dumps = m
	return r
}

func (r *neighbourReader) dump(ctx context.Context, p path.Path, rc *txn.Context) ([]string, error) {
	ifName, _ := p.KeyValue("interface", "name")
	addrs, _, err := r.dumps.GetDump(ctx, p, rc.Cache(), ifName)
	return addrs, err
}

func (r *neighbourReader) AllKeys(ctx context.Context, p path.Path, rc *txn.Context) ([]path.Keys, error) {
	addrs, err := r.dump(ctx, p, rc)
	if err != nil {
		return nil, err
	}
	result := []path.Keys{}
	for _, a := range addrs {
		result = append(result, path.Keys{"address": a})
	}
	return result, nil
}

func (r *neighbourReader) Read(ctx context.Context, p path.Path, rc *txn.Context) (any, error) {
	addrs, err := r.dump(ctx, p, rc)
	if err != nil {
		return nil, err
	}
	addr, _ := p.KeyValue("neighbour", "address")
	if !slices.Contains(addrs, addr) {
		return nil, nil
	}
	return addr, nil
}

func (r *neighbourReader) Merge(parent any, p path.Path, value any) (any, error) {
	i, ok := parent.(*iface)
	if !ok {
		return nil, fmt.Errorf("unexpected parent %T", parent)
	}
	merged := &iface{Name: i.Name, Neighbours: append(slices.Clone(i.Neighbours), value.(string))}
	slices.Sort(merged.Neighbours)
	return merged, nil
}

var (
	interfacesPath = path.MustParse("/interfaces")
	interfacePath  = path.MustParse("/interfaces/interface")
	statePath      = path.MustParse("/interfaces/interface/state")
	neighboursPath = path.MustParse("/interfaces/interface/neighbours")
	neighbourPath  = path.MustParse("/interfaces/interface/neighbours/neighbour")
)

func setup(t *testing.T, ir *ifaceReader, nr *neighbourReader) *Registry {
	t.Helper()
	b := registry.NewBuilder()
	b.RegisterStructural(interfacesPath)
	b.Register(ir, interfacePath, statePath)
	b.RegisterStructural(neighboursPath)
	b.Register(nr, neighbourPath)
	g, err := b.Build()
	require.NoError(t, err)
	return New(g, WithWorkers(2))
}

func testData() map[string][]string {
	return map[string][]string{
		"eth0": {"addr1", "addr2"},
		"eth1": {"addr3"},
	}
}

func TestReadAll(t *testing.T) {
	ir := &ifaceReader{names: []string{"eth0", "eth1"}}
	nr := newNeighbourReader(t, testData())
	r := setup(t, ir, nr)
	rc := txn.NewRead(store.NewMemoryStore())

	result, err := r.ReadAll(context.Background(), rc)
	require.NoError(t, err)

	got := map[string]any{}
	_ = result.Walk(func(p path.Path, v any) error {
		got[p.String()] = v
		return nil
	})
	want := map[string]any{
		"/interfaces/interface[name=eth0]":                                     &iface{Name: "eth0", Neighbours: []string{"addr1", "addr2"}},
		"/interfaces/interface[name=eth1]":                                     &iface{Name: "eth1", Neighbours: []string{"addr3"}},
		"/interfaces/interface[name=eth0]/neighbours/neighbour[address=addr1]": "addr1",
		"/interfaces/interface[name=eth0]/neighbours/neighbour[address=addr2]": "addr2",
		"/interfaces/interface[name=eth1]/neighbours/neighbour[address=addr3]": "addr3",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("read mismatch (-want +got):\n%s", diff)
	}
	assert.EqualValues(t, 2, nr.calls.Load(), "one dump per interface")

	v, ok := rc.ReadAfter(path.MustParse("/interfaces/interface[name=eth1]"))
	assert.True(t, ok)
	assert.Equal(t, "eth1", v.(*iface).Name)
}

func TestRead_NeighboursSingleDump(t *testing.T) {
	ir := &ifaceReader{names: []string{"eth0", "eth1"}}
	nr := newNeighbourReader(t, testData())
	r := setup(t, ir, nr)
	rc := txn.NewRead(store.NewMemoryStore())
	ctx := context.Background()

	all, err := r.Read(ctx, path.MustParse("/interfaces/interface[name=eth0]/neighbours"), rc)
	require.NoError(t, err)
	assert.Equal(t, 2, all.Len())

	one, err := r.Read(ctx, path.MustParse("/interfaces/interface[name=eth0]/neighbours/neighbour[address=addr2]"), rc)
	require.NoError(t, err)
	v, ok := one.Get(path.MustParse("/interfaces/interface[name=eth0]/neighbours/neighbour[address=addr2]"))
	assert.True(t, ok)
	assert.Equal(t, "addr2", v)
	assert.Equal(t, 1, one.Len())

	assert.EqualValues(t, 1, nr.calls.Load())
	assert.EqualValues(t, 0, ir.reads.Load(), "interfaces must not be read")
}

func TestRead_WildcardAncestor(t *testing.T) {
	ir := &ifaceReader{names: []string{"eth0", "eth1"}}
	nr := newNeighbourReader(t, testData())
	r := setup(t, ir, nr)

	result, err := r.Read(context.Background(), neighbourPath, txn.NewRead(store.NewMemoryStore()))
	require.NoError(t, err)
	got := []string{}
	for _, p := range result.Find(neighbourPath) {
		got = append(got, p.String())
	}
	want := []string{
		"/interfaces/interface[name=eth0]/neighbours/neighbour[address=addr1]",
		"/interfaces/interface[name=eth0]/neighbours/neighbour[address=addr2]",
		"/interfaces/interface[name=eth1]/neighbours/neighbour[address=addr3]",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("read mismatch (-want +got):\n%s", diff)
	}
}

func TestRead_BelowHandlerRoot(t *testing.T) {
	ir := &ifaceReader{names: []string{"eth0", "eth1"}}
	nr := newNeighbourReader(t, testData())
	r := setup(t, ir, nr)

	result, err := r.Read(context.Background(), path.MustParse("/interfaces/interface[name=eth0]/state/counters"), txn.NewRead(store.NewMemoryStore()))
	require.NoError(t, err)
	assert.Equal(t, 1, result.Len())
	v, ok := result.Get(path.MustParse("/interfaces/interface[name=eth0]"))
	assert.True(t, ok)
	assert.Equal(t, &iface{Name: "eth0"}, v)
	assert.EqualValues(t, 0, nr.calls.Load(), "siblings must not be read")
}

func TestRead_Absent(t *testing.T) {
	ir := &ifaceReader{names: []string{"eth0"}}
	nr := newNeighbourReader(t, testData())
	r := setup(t, ir, nr)

	result, err := r.Read(context.Background(), path.MustParse("/interfaces/interface[name=eth0]/neighbours/neighbour[address=addr9]"), txn.NewRead(store.NewMemoryStore()))
	require.NoError(t, err)
	assert.True(t, result.IsEmpty())
}

func TestRead_FailureDiscardsPartialResults(t *testing.T) {
	ir := &ifaceReader{names: []string{"eth0", "eth1"}, fail: "eth1"}
	nr := newNeighbourReader(t, testData())
	r := setup(t, ir, nr)
	rc := txn.NewRead(store.NewMemoryStore())

	_, err := r.ReadAll(context.Background(), rc)
	var rfe *translate.ReadFailedError
	require.ErrorAs(t, err, &rfe)
	assert.Equal(t, "/interfaces/interface[name=eth1]", rfe.Path.String())
	assert.True(t, rc.After().IsEmpty())
}

func TestRead_NoReader(t *testing.T) {
	r := setup(t, &ifaceReader{}, newNeighbourReader(t, nil))
	_, err := r.Read(context.Background(), path.MustParse("/system"), txn.NewRead(store.NewMemoryStore()))
	var rfe *translate.ReadFailedError
	assert.ErrorAs(t, err, &rfe)
}

func TestReadAll_Empty(t *testing.T) {
	r := setup(t, &ifaceReader{}, newNeighbourReader(t, nil))
	result, err := r.ReadAll(context.Background(), txn.NewRead(store.NewMemoryStore()))
	require.NoError(t, err)
	assert.Equal(t, tree.New().Len(), result.Len())
}
