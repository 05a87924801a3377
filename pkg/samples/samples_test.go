package samples

import (
	"context"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sdcio/dataplane-translator/pkg/device"
	"github.com/sdcio/dataplane-translator/pkg/device/sim"
	"github.com/sdcio/dataplane-translator/pkg/naming"
	"github.com/sdcio/dataplane-translator/pkg/path"
	"github.com/sdcio/dataplane-translator/pkg/reader"
	"github.com/sdcio/dataplane-translator/pkg/registry"
	"github.com/sdcio/dataplane-translator/pkg/store"
	"github.com/sdcio/dataplane-translator/pkg/translate"
	"github.com/sdcio/dataplane-translator/pkg/tree"
	"github.com/sdcio/dataplane-translator/pkg/txn"
	"github.com/sdcio/dataplane-translator/pkg/writer"
)

type env struct {
	dev     *sim.Device
	rc      *device.ReplyConsumer
	store   store.Store
	names   *naming.Context
	writer  *writer.Registry
	reader  *reader.Registry
	applied *tree.Tree
}

func newEnv(t *testing.T) *env {
	t.Helper()
	dev := sim.New(0)
	t.Cleanup(func() { dev.Close() })

	nr := naming.NewRegistry()
	ifNames, err := nr.Add(InterfaceContext, "local")
	require.NoError(t, err)

	rc := device.NewReplyConsumer(dev, time.Second)
	b := registry.NewBuilder()
	require.NoError(t, Register(b, rc, nr))
	g, err := b.Build()
	require.NoError(t, err)

	return &env{
		dev:     dev,
		rc:      rc,
		store:   store.NewMemoryStore(),
		names:   ifNames,
		writer:  writer.New(g),
		reader:  reader.New(g, reader.WithWorkers(2)),
		applied: tree.New(),
	}
}

// apply applies after on top of the previously applied configuration.
func (e *env) apply(t *testing.T, after *tree.Tree) error {
	t.Helper()
	err := e.writer.Apply(context.Background(), txn.New(e.applied, after, e.store))
	if err == nil {
		e.applied = after
	}
	return err
}

func (e *env) read(t *testing.T, p string) *tree.Tree {
	t.Helper()
	result, err := e.reader.Read(context.Background(), path.MustParse(p), txn.NewRead(e.store))
	require.NoError(t, err)
	return result
}

func config(values map[string]any) *tree.Tree {
	t := tree.New()
	for p, v := range values {
		t.Set(path.MustParse(p), v)
	}
	return t
}

const (
	eth0  = "/interfaces/interface[name=eth0]"
	eth1  = "/interfaces/interface[name=eth1]"
	addr1 = eth0 + "/neighbours/neighbour[address=10.0.0.1]"
	addr2 = eth0 + "/neighbours/neighbour[address=10.0.0.2]"
)

func baseConfig() map[string]any {
	return map[string]any{
		eth0:  &Interface{Name: "eth0", MTU: 1500, Enabled: true},
		eth1:  &Interface{Name: "eth1", MTU: 9000},
		addr1: &Neighbour{Address: "10.0.0.1", MAC: "aa:bb:cc:00:00:01"},
		addr2: &Neighbour{Address: "10.0.0.2", MAC: "aa:bb:cc:00:00:02"},
	}
}

func TestApply_CreateAndDelete(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	require.NoError(t, e.apply(t, config(baseConfig())))

	want := map[uint32]sim.InterfaceDetails{
		1: {SwIfIndex: 1, Tag: "eth0", MTU: 1500, AdminUp: true},
		2: {SwIfIndex: 2, Tag: "eth1", MTU: 9000},
	}
	if diff := cmp.Diff(want, e.dev.Interfaces()); diff != "" {
		t.Errorf("device interfaces mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, []string{"10.0.0.1", "10.0.0.2"}, e.dev.Neighbours(1))
	idx, err := e.names.GetIndex(ctx, e.store, "eth1")
	require.NoError(t, err)
	assert.EqualValues(t, 2, idx)

	// removing eth0 removes its neighbours first
	next := baseConfig()
	delete(next, eth0)
	delete(next, addr1)
	delete(next, addr2)
	require.NoError(t, e.apply(t, config(next)))
	assert.Len(t, e.dev.Interfaces(), 1)
	ok, err := e.names.ContainsIndex(ctx, e.store, "eth0")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestApply_Update(t *testing.T) {
	e := newEnv(t)
	require.NoError(t, e.apply(t, config(baseConfig())))

	next := baseConfig()
	next[eth1] = &Interface{Name: "eth1", MTU: 1500, Enabled: true}
	require.NoError(t, e.apply(t, config(next)))
	assert.Equal(t, sim.InterfaceDetails{SwIfIndex: 2, Tag: "eth1", MTU: 1500, AdminUp: true}, e.dev.Interfaces()[2])
}

func TestApply_FailureReverts(t *testing.T) {
	e := newEnv(t)
	e.dev.FailNext(sim.MsgAddDelNeighbour, sim.RetvalNoSuchEntry, 1)

	err := e.apply(t, config(baseConfig()))
	var bulk *translate.BulkUpdateFailedError
	require.ErrorAs(t, err, &bulk)
	assert.Equal(t, addr1, bulk.Path.String())
	assert.True(t, bulk.Reverted())

	assert.Empty(t, e.dev.Interfaces())
	mappings, err := e.names.Mappings(context.Background(), e.store)
	require.NoError(t, err)
	assert.Empty(t, mappings)
}

func TestApply_UpdateFailureLeavesInterfaceUnchanged(t *testing.T) {
	tests := []struct {
		name string
		msg  string
	}{
		{"flags fail", sim.MsgSetInterfaceFlags},
		{"mtu fails", sim.MsgSetInterfaceMTU},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newEnv(t)
			require.NoError(t, e.apply(t, config(baseConfig())))
			e.dev.FailNext(tt.msg, sim.RetvalInvalidValue, 1)

			next := baseConfig()
			next[eth1] = &Interface{Name: "eth1", MTU: 1500, Enabled: true}
			err := e.apply(t, config(next))
			var bulk *translate.BulkUpdateFailedError
			require.ErrorAs(t, err, &bulk)
			assert.Equal(t, eth1, bulk.Path.String())
			assert.True(t, bulk.Reverted())

			assert.Equal(t, sim.InterfaceDetails{SwIfIndex: 2, Tag: "eth1", MTU: 9000}, e.dev.Interfaces()[2])
		})
	}
}

func TestInterfaceHandler_CreateMappedName(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	h, err := NewInterfaceHandler(e.rc, e.names)
	require.NoError(t, err)
	require.NoError(t, e.names.AddName(ctx, e.store, 7, "eth0"))

	wc := txn.New(nil, config(baseConfig()), e.store)
	err = h.Create(ctx, path.MustParse(eth0), &Interface{Name: "eth0", MTU: 1500}, wc)
	assert.ErrorIs(t, err, naming.ErrAlreadyMapped)
	assert.Zero(t, e.dev.Calls(sim.MsgCreateInterface))

	// an index mapped to another name rolls back the device create
	require.NoError(t, e.names.AddName(ctx, e.store, 1, "stale"))
	err = h.Create(ctx, path.MustParse(eth1), &Interface{Name: "eth1", MTU: 1500}, wc)
	assert.ErrorIs(t, err, naming.ErrAlreadyMapped)
	assert.Empty(t, e.dev.Interfaces())
}

func TestApply_NeighbourUpdateUnsupported(t *testing.T) {
	e := newEnv(t)
	require.NoError(t, e.apply(t, config(baseConfig())))

	next := baseConfig()
	next[eth1] = &Interface{Name: "eth1", MTU: 1400}
	next[addr2] = &Neighbour{Address: "10.0.0.2", MAC: "aa:bb:cc:00:00:ff"}
	err := e.apply(t, config(next))
	assert.ErrorIs(t, err, translate.ErrUnsupportedOperation)

	// eth1 is updated before the neighbour fails and reverted afterwards
	assert.EqualValues(t, 9000, e.dev.Interfaces()[2].MTU)
	assert.Equal(t, 2, e.dev.Calls(sim.MsgSetInterfaceMTU))
}

func TestApply_ValidationFailures(t *testing.T) {
	tests := []struct {
		name   string
		values map[string]any
	}{
		{"mtu out of range", map[string]any{eth0: &Interface{MTU: 10}}},
		{"name mismatch", map[string]any{eth0: &Interface{Name: "eth9"}}},
		{"invalid mac", map[string]any{eth0: &Interface{}, addr1: &Neighbour{MAC: "zz"}}},
		{"invalid address", map[string]any{
			eth0: &Interface{},
			eth0 + "/neighbours/neighbour[address=foo]": &Neighbour{MAC: "aa:bb:cc:00:00:01"},
		}},
		{"unexpected value", map[string]any{eth0: "eth0"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newEnv(t)
			err := e.apply(t, config(tt.values))
			var vfe *translate.ValidationFailedError
			require.ErrorAs(t, err, &vfe)
			assert.Zero(t, e.dev.Calls(sim.MsgCreateInterface))
		})
	}
}

func TestRead_NeighboursSingleDump(t *testing.T) {
	e := newEnv(t)
	require.NoError(t, e.apply(t, config(baseConfig())))
	e.dev.ResetCounters()

	rc := txn.NewRead(e.store)
	ctx := context.Background()
	all, err := e.reader.Read(ctx, path.MustParse(eth0+"/neighbours"), rc)
	require.NoError(t, err)
	one, err := e.reader.Read(ctx, path.MustParse(addr2), rc)
	require.NoError(t, err)

	assert.Equal(t, 2, all.Len())
	v, ok := one.Get(path.MustParse(addr2))
	require.True(t, ok)
	assert.Equal(t, &Neighbour{Address: "10.0.0.2", MAC: "aa:bb:cc:00:00:02"}, v)
	assert.Equal(t, 1, e.dev.Calls(sim.MsgDumpNeighbours))
	assert.Zero(t, e.dev.Calls(sim.MsgDumpInterfaces))
}

func TestReadAll(t *testing.T) {
	e := newEnv(t)
	require.NoError(t, e.apply(t, config(baseConfig())))

	// an interface created outside of this system
	_, err := e.rc.Call(context.Background(), &device.Request{
		Message: sim.MsgCreateInterface,
		Payload: &sim.CreateInterface{Tag: "tap0", MTU: 1500},
	})
	require.NoError(t, err)
	e.dev.ResetCounters()

	result, err := e.reader.ReadAll(context.Background(), txn.NewRead(e.store))
	require.NoError(t, err)

	got := map[string]any{}
	_ = result.Walk(func(p path.Path, v any) error {
		got[p.String()] = v
		return nil
	})
	want := map[string]any{
		eth0:                                 &Interface{Name: "eth0", MTU: 1500, Enabled: true, Neighbours: []string{"10.0.0.1", "10.0.0.2"}},
		eth1:                                 &Interface{Name: "eth1", MTU: 9000},
		"/interfaces/interface[name=local3]": &Interface{Name: "local3", MTU: 1500},
		addr1:                                &Neighbour{Address: "10.0.0.1", MAC: "aa:bb:cc:00:00:01"},
		addr2:                                &Neighbour{Address: "10.0.0.2", MAC: "aa:bb:cc:00:00:02"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("read mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, 1, e.dev.Calls(sim.MsgDumpInterfaces))

	v, _ := result.Get(path.MustParse(eth0))
	assert.Equal(t, []string{"10.0.0.1", "10.0.0.2"}, v.(*Interface).Neighbours)

	// apart from the learned interface the device state equals the applied configuration
	result.Delete(path.MustParse("/interfaces/interface[name=local3]"))
	assert.Empty(t, tree.Diff(e.applied, result))

	name, err := e.names.GetName(context.Background(), e.store, 3)
	require.NoError(t, err)
	assert.Equal(t, "local3", name)
}

func TestRead_Absent(t *testing.T) {
	e := newEnv(t)
	result := e.read(t, "/interfaces/interface[name=eth5]")
	assert.True(t, result.IsEmpty())
	assert.Equal(t, 0, e.dev.Calls(sim.MsgDumpInterfaces), "unmapped names are not dumped")
}
