// Copyright 2024 Nokia
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package samples

import (
	"context"
	"errors"
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/sdcio/dataplane-translator/pkg/device"
	"github.com/sdcio/dataplane-translator/pkg/device/sim"
	"github.com/sdcio/dataplane-translator/pkg/dump"
	"github.com/sdcio/dataplane-translator/pkg/naming"
	"github.com/sdcio/dataplane-translator/pkg/path"
	"github.com/sdcio/dataplane-translator/pkg/translate"
	"github.com/sdcio/dataplane-translator/pkg/tree"
	"github.com/sdcio/dataplane-translator/pkg/txn"
)

const (
	minMTU = 64
	maxMTU = 9216
)

// InterfaceHandler writes and reads /interfaces/interface. Interface names
// are mapped to the device's sw_if_index in the interface naming context.
type InterfaceHandler struct {
	device *device.ReplyConsumer
	names  *naming.Context
	dumps  *dump.Manager[[]*sim.InterfaceDetails, struct{}]
}

var (
	_ translate.Writer     = (*InterfaceHandler)(nil)
	_ translate.Validator  = (*InterfaceHandler)(nil)
	_ translate.ListReader = (*InterfaceHandler)(nil)
)

func NewInterfaceHandler(rc *device.ReplyConsumer, names *naming.Context) (*InterfaceHandler, error) {
	h := &InterfaceHandler{device: rc, names: names}
	m, err := dump.NewManagerBuilder[[]*sim.InterfaceDetails, struct{}]().
		AcceptOnly(sim.MsgDumpInterfaces).
		WithExecutor(h.dumpInterfaces).
		WithCacheKeyFactory(dump.NewIdentifierKeyFactory[struct{}](sim.MsgDumpInterfaces)).
		WithNonEmptyPredicate(func(d []*sim.InterfaceDetails) bool { return len(d) > 0 }).
		Build()
	if err != nil {
		return nil, err
	}
	h.dumps = m
	return h, nil
}

func (h *InterfaceHandler) dumpInterfaces(ctx context.Context, p path.Path, _ struct{}) ([]*sim.InterfaceDetails, error) {
	reply, err := h.device.Read(ctx, p, &device.Request{Message: sim.MsgDumpInterfaces, Payload: &sim.DumpInterfaces{}})
	if err != nil {
		return nil, err
	}
	details, ok := reply.Payload.([]*sim.InterfaceDetails)
	if !ok {
		return nil, fmt.Errorf("unexpected %s payload %T", sim.MsgDumpInterfaces, reply.Payload)
	}
	return details, nil
}

func (h *InterfaceHandler) Validate(ctx context.Context, p path.Path, op tree.Op, before, after any, wc *txn.Context) error {
	name, err := interfaceName(p)
	if err != nil {
		return err
	}
	if op == tree.OpDelete {
		return nil
	}
	i, err := asInterface(after)
	if err != nil {
		return err
	}
	if i.Name != "" && i.Name != name {
		return fmt.Errorf("interface name %q does not match key %q", i.Name, name)
	}
	if i.MTU != 0 && (i.MTU < minMTU || i.MTU > maxMTU) {
		return fmt.Errorf("mtu %d out of range [%d..%d]", i.MTU, minMTU, maxMTU)
	}
	if op == tree.OpCreate {
		exists, err := h.names.ContainsIndex(ctx, wc.Mapping(), name)
		if err != nil {
			return err
		}
		if exists {
			return fmt.Errorf("interface %s is already mapped to a device index", name)
		}
	}
	return nil
}

func (h *InterfaceHandler) Create(ctx context.Context, p path.Path, after any, wc *txn.Context) error {
	name, err := interfaceName(p)
	if err != nil {
		return err
	}
	i, err := asInterface(after)
	if err != nil {
		return err
	}
	var created *sim.CreateInterfaceReply
	// the name must not be taken between the device create and the mapping
	err = h.names.Atomically(ctx, wc.Mapping(), func(v *naming.View) error {
		mapped, err := v.ContainsIndex(ctx, name)
		if err != nil {
			return err
		}
		if mapped {
			return fmt.Errorf("interface %s: %w", name, naming.ErrAlreadyMapped)
		}
		reply, err := h.device.Create(ctx, p, &device.Request{
			Message: sim.MsgCreateInterface,
			Payload: &sim.CreateInterface{Tag: name, MTU: i.MTU},
		})
		if err != nil {
			return err
		}
		var ok bool
		created, ok = reply.Payload.(*sim.CreateInterfaceReply)
		if !ok {
			return fmt.Errorf("unexpected %s payload %T", sim.MsgCreateInterface, reply.Payload)
		}
		if err := v.AddName(ctx, created.SwIfIndex, name); err != nil {
			_, derr := h.device.Delete(ctx, p, &device.Request{
				Message: sim.MsgDeleteInterface,
				Payload: &sim.DeleteInterface{SwIfIndex: created.SwIfIndex},
			})
			return errors.Join(err, derr)
		}
		return nil
	})
	if err != nil {
		return err
	}
	log.Debugf("interface %s created with sw_if_index %d", name, created.SwIfIndex)

	if !i.Enabled {
		return nil
	}
	if err := h.setFlags(ctx, p, created.SwIfIndex, true); err != nil {
		// the interface is not recorded as applied, undo the partial create
		if derr := h.remove(ctx, p, name, created.SwIfIndex, wc); derr != nil {
			return errors.Join(err, derr)
		}
		return err
	}
	return nil
}

func (h *InterfaceHandler) Update(ctx context.Context, p path.Path, before, after any, wc *txn.Context) error {
	name, err := interfaceName(p)
	if err != nil {
		return err
	}
	b, err := asInterface(before)
	if err != nil {
		return err
	}
	a, err := asInterface(after)
	if err != nil {
		return err
	}
	idx, err := h.names.GetIndex(ctx, wc.Mapping(), name)
	if err != nil {
		return err
	}
	// flags go first, they can always be restored. The previous MTU may be
	// the device default which set_interface_mtu does not accept.
	flagsChanged := a.Enabled != b.Enabled
	if flagsChanged {
		if err := h.setFlags(ctx, p, idx, a.Enabled); err != nil {
			return err
		}
	}
	if a.MTU == b.MTU {
		return nil
	}
	_, err = h.device.Update(ctx, p, &device.Request{
		Message: sim.MsgSetInterfaceMTU,
		Payload: &sim.SetInterfaceMTU{SwIfIndex: idx, MTU: a.MTU},
	})
	if err != nil && flagsChanged {
		// the update is not recorded as applied, undo the flag change
		if ferr := h.setFlags(ctx, p, idx, b.Enabled); ferr != nil {
			return errors.Join(err, ferr)
		}
	}
	return err
}

func (h *InterfaceHandler) Delete(ctx context.Context, p path.Path, before any, wc *txn.Context) error {
	name, err := interfaceName(p)
	if err != nil {
		return err
	}
	idx, err := h.names.GetIndex(ctx, wc.Mapping(), name)
	if err != nil {
		return err
	}
	return h.remove(ctx, p, name, idx, wc)
}

func (h *InterfaceHandler) remove(ctx context.Context, p path.Path, name string, idx uint32, wc *txn.Context) error {
	_, err := h.device.Delete(ctx, p, &device.Request{
		Message: sim.MsgDeleteInterface,
		Payload: &sim.DeleteInterface{SwIfIndex: idx},
	})
	if err != nil {
		return err
	}
	return h.names.RemoveName(ctx, wc.Mapping(), name)
}

func (h *InterfaceHandler) setFlags(ctx context.Context, p path.Path, idx uint32, up bool) error {
	_, err := h.device.Update(ctx, p, &device.Request{
		Message: sim.MsgSetInterfaceFlags,
		Payload: &sim.SetInterfaceFlags{SwIfIndex: idx, AdminUp: up},
	})
	return err
}

// AllKeys lists the interfaces of the device. Interfaces created outside of
// this system get an artificial name.
func (h *InterfaceHandler) AllKeys(ctx context.Context, p path.Path, rc *txn.Context) ([]path.Keys, error) {
	details, _, err := h.dumps.GetDump(ctx, p, rc.Cache(), struct{}{})
	if err != nil {
		return nil, err
	}
	result := make([]path.Keys, 0, len(details))
	for _, d := range details {
		name, err := h.names.GetOrCreateName(ctx, rc.Mapping(), d.SwIfIndex)
		if err != nil {
			return nil, err
		}
		result = append(result, path.Keys{"name": name})
	}
	return result, nil
}

func (h *InterfaceHandler) Read(ctx context.Context, p path.Path, rc *txn.Context) (any, error) {
	name, err := interfaceName(p)
	if err != nil {
		return nil, err
	}
	idx, err := h.names.GetIndex(ctx, rc.Mapping(), name)
	switch {
	case errors.Is(err, naming.ErrNotFound):
		return nil, nil
	case err != nil:
		return nil, err
	}
	details, _, err := h.dumps.GetDump(ctx, p, rc.Cache(), struct{}{})
	if err != nil {
		return nil, err
	}
	for _, d := range details {
		if d.SwIfIndex == idx {
			return &Interface{Name: name, MTU: d.MTU, Enabled: d.AdminUp}, nil
		}
	}
	return nil, nil
}
