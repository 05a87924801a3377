package samples

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/netip"

	"github.com/sdcio/dataplane-translator/pkg/device"
	"github.com/sdcio/dataplane-translator/pkg/device/sim"
	"github.com/sdcio/dataplane-translator/pkg/dump"
	"github.com/sdcio/dataplane-translator/pkg/naming"
	"github.com/sdcio/dataplane-translator/pkg/path"
	"github.com/sdcio/dataplane-translator/pkg/translate"
	"github.com/sdcio/dataplane-translator/pkg/tree"
	"github.com/sdcio/dataplane-translator/pkg/txn"
)

// NeighbourHandler writes and reads the static neighbours of an interface.
// The device can not modify a neighbour, updates are rejected. All reads
// below one interface share a single neighbour dump per transaction.
type NeighbourHandler struct {
	device *device.ReplyConsumer
	names  *naming.Context
	dumps  *dump.Manager[[]*sim.NeighbourDetails, uint32]
}

var (
	_ translate.Writer     = (*NeighbourHandler)(nil)
	_ translate.Validator  = (*NeighbourHandler)(nil)
	_ translate.ListReader = (*NeighbourHandler)(nil)
	_ translate.Merger     = (*NeighbourHandler)(nil)
)

func NewNeighbourHandler(rc *device.ReplyConsumer, names *naming.Context) (*NeighbourHandler, error) {
	h := &NeighbourHandler{device: rc, names: names}
	m, err := dump.NewManagerBuilder[[]*sim.NeighbourDetails, uint32]().
		AcceptOnly(sim.MsgDumpNeighbours).
		WithExecutor(h.dumpNeighbours).
		WithCacheKeyFactory(dump.NewIdentifierKeyFactory[uint32](sim.MsgDumpNeighbours).ScopedBy("interface")).
		WithNonEmptyPredicate(func(d []*sim.NeighbourDetails) bool { return len(d) > 0 }).
		Build()
	if err != nil {
		return nil, err
	}
	h.dumps = m
	return h, nil
}

func (h *NeighbourHandler) dumpNeighbours(ctx context.Context, p path.Path, swIfIndex uint32) ([]*sim.NeighbourDetails, error) {
	reply, err := h.device.Read(ctx, p, &device.Request{
		Message: sim.MsgDumpNeighbours,
		Payload: &sim.DumpNeighbours{SwIfIndex: swIfIndex},
	})
	if err != nil {
		return nil, err
	}
	details, ok := reply.Payload.([]*sim.NeighbourDetails)
	if !ok {
		return nil, fmt.Errorf("unexpected %s payload %T", sim.MsgDumpNeighbours, reply.Payload)
	}
	return details, nil
}

func (h *NeighbourHandler) Validate(ctx context.Context, p path.Path, op tree.Op, before, after any, wc *txn.Context) error {
	addr, err := neighbourAddress(p)
	if err != nil {
		return err
	}
	if op == tree.OpDelete {
		return nil
	}
	n, err := asNeighbour(after)
	if err != nil {
		return err
	}
	if n.Address != "" && n.Address != addr {
		return fmt.Errorf("neighbour address %q does not match key %q", n.Address, addr)
	}
	if _, err := netip.ParseAddr(addr); err != nil {
		return err
	}
	if _, err := net.ParseMAC(n.MAC); err != nil {
		return err
	}
	// the interface must be part of the resulting configuration
	ifPath := p.Truncate(InterfacePath.Len())
	if _, ok := wc.ReadAfter(ifPath); !ok {
		return fmt.Errorf("interface %s is not configured", ifPath)
	}
	return nil
}

func (h *NeighbourHandler) Create(ctx context.Context, p path.Path, after any, wc *txn.Context) error {
	n, err := asNeighbour(after)
	if err != nil {
		return err
	}
	return h.addDel(ctx, p, n, true, wc)
}

func (h *NeighbourHandler) Update(ctx context.Context, p path.Path, before, after any, wc *txn.Context) error {
	return fmt.Errorf("neighbour %s: %w", p, translate.ErrUnsupportedOperation)
}

func (h *NeighbourHandler) Delete(ctx context.Context, p path.Path, before any, wc *txn.Context) error {
	n, err := asNeighbour(before)
	if err != nil {
		return err
	}
	return h.addDel(ctx, p, n, false, wc)
}

func (h *NeighbourHandler) addDel(ctx context.Context, p path.Path, n *Neighbour, isAdd bool, wc *txn.Context) error {
	ifName, err := interfaceName(p)
	if err != nil {
		return err
	}
	addr, err := neighbourAddress(p)
	if err != nil {
		return err
	}
	idx, err := h.names.GetIndex(ctx, wc.Mapping(), ifName)
	if err != nil {
		return err
	}
	req := &device.Request{
		Message: sim.MsgAddDelNeighbour,
		Payload: &sim.AddDelNeighbour{SwIfIndex: idx, Address: addr, MAC: n.MAC, IsAdd: isAdd},
	}
	if isAdd {
		_, err = h.device.Create(ctx, p, req)
	} else {
		_, err = h.device.Delete(ctx, p, req)
	}
	return err
}

// dump returns the neighbours of the interface p is below of.
func (h *NeighbourHandler) dump(ctx context.Context, p path.Path, rc *txn.Context) ([]*sim.NeighbourDetails, error) {
	ifName, err := interfaceName(p)
	if err != nil {
		return nil, err
	}
	idx, err := h.names.GetIndex(ctx, rc.Mapping(), ifName)
	switch {
	case errors.Is(err, naming.ErrNotFound):
		return nil, nil
	case err != nil:
		return nil, err
	}
	details, _, err := h.dumps.GetDump(ctx, p, rc.Cache(), idx)
	return details, err
}

func (h *NeighbourHandler) AllKeys(ctx context.Context, p path.Path, rc *txn.Context) ([]path.Keys, error) {
	details, err := h.dump(ctx, p, rc)
	if err != nil {
		return nil, err
	}
	result := make([]path.Keys, 0, len(details))
	for _, d := range details {
		result = append(result, path.Keys{"address": d.Address})
	}
	return result, nil
}

func (h *NeighbourHandler) Read(ctx context.Context, p path.Path, rc *txn.Context) (any, error) {
	addr, err := neighbourAddress(p)
	if err != nil {
		return nil, err
	}
	details, err := h.dump(ctx, p, rc)
	if err != nil {
		return nil, err
	}
	for _, d := range details {
		if d.Address == addr {
			return &Neighbour{Address: d.Address, MAC: d.MAC}, nil
		}
	}
	return nil, nil
}

func (h *NeighbourHandler) Merge(parent any, p path.Path, value any) (any, error) {
	n, err := asNeighbour(value)
	if err != nil {
		return nil, err
	}
	if parent == nil {
		name, err := interfaceName(p)
		if err != nil {
			return nil, err
		}
		parent = &Interface{Name: name}
	}
	i, err := asInterface(parent)
	if err != nil {
		return nil, err
	}
	return i.withNeighbour(n.Address), nil
}
