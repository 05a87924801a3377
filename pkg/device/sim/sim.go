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

package sim

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/sdcio/dataplane-translator/pkg/device"
)

const defaultQueueSize = 128

type call struct {
	ctx   context.Context
	req   *device.Request
	reply chan device.Result
}

type fault struct {
	retval int32
	count  int
}

type iface struct {
	details    InterfaceDetails
	neighbours map[string]*NeighbourDetails
}

// Device is an in-process dataplane serving requests asynchronously from a
// queue. It allocates interface indexes the way a real dataplane does and
// supports fault injection for tests.
type Device struct {
	queue  chan *call
	stopCh chan struct{}
	wg     sync.WaitGroup

	m          *sync.Mutex
	closed     bool
	interfaces map[uint32]*iface
	nextIndex  uint32
	context    uint32
	counters   map[string]int
	faults     map[string]*fault
	delays     map[string]time.Duration
}

var _ device.Client = (*Device)(nil)

// New starts a simulated device with a request queue of the given size.
func New(queueSize int) *Device {
	if queueSize <= 0 {
		queueSize = defaultQueueSize
	}
	d := &Device{
		queue:      make(chan *call, queueSize),
		stopCh:     make(chan struct{}),
		m:          &sync.Mutex{},
		interfaces: map[uint32]*iface{},
		// index 0 is reserved for the local interface
		nextIndex: 1,
		counters:  map[string]int{},
		faults:    map[string]*fault{},
		delays:    map[string]time.Duration{},
	}
	d.wg.Add(1)
	go d.serve()
	return d
}

func (d *Device) Invoke(ctx context.Context, req *device.Request) device.Future {
	d.m.Lock()
	closed := d.closed
	d.m.Unlock()
	if closed {
		return device.ResolvedFuture(device.Result{Err: device.ErrClosed})
	}

	c := &call{ctx: ctx, req: req, reply: make(chan device.Result, 1)}
	select {
	case d.queue <- c:
	case <-ctx.Done():
		return device.ResolvedFuture(device.Result{Err: ctx.Err()})
	case <-d.stopCh:
		return device.ResolvedFuture(device.Result{Err: device.ErrClosed})
	}
	return c.reply
}

func (d *Device) Close() error {
	d.m.Lock()
	if d.closed {
		d.m.Unlock()
		return nil
	}
	d.closed = true
	d.m.Unlock()
	close(d.stopCh)
	d.wg.Wait()
	return nil
}

func (d *Device) serve() {
	defer d.wg.Done()
	for {
		select {
		case <-d.stopCh:
			return
		case c := <-d.queue:
			if delay := d.delay(c.req.Message); delay > 0 {
				select {
				case <-time.After(delay):
				case <-d.stopCh:
					c.reply <- device.Result{Err: device.ErrClosed}
					return
				}
			}
			c.reply <- device.Result{Reply: d.handle(c.req)}
		}
	}
}

func (d *Device) delay(msg string) time.Duration {
	d.m.Lock()
	defer d.m.Unlock()
	return d.delays[msg]
}

// FailNext makes the next count requests of msg fail with retval.
func (d *Device) FailNext(msg string, retval int32, count int) {
	d.m.Lock()
	defer d.m.Unlock()
	d.faults[msg] = &fault{retval: retval, count: count}
}

// Delay delays the replies to msg, a zero duration removes the delay.
func (d *Device) Delay(msg string, delay time.Duration) {
	d.m.Lock()
	defer d.m.Unlock()
	d.delays[msg] = delay
}

// Calls returns the number of requests of msg served so far.
func (d *Device) Calls(msg string) int {
	d.m.Lock()
	defer d.m.Unlock()
	return d.counters[msg]
}

func (d *Device) ResetCounters() {
	d.m.Lock()
	defer d.m.Unlock()
	d.counters = map[string]int{}
}

// Interfaces returns the interfaces present on the device by index.
func (d *Device) Interfaces() map[uint32]InterfaceDetails {
	d.m.Lock()
	defer d.m.Unlock()
	result := make(map[uint32]InterfaceDetails, len(d.interfaces))
	for idx, i := range d.interfaces {
		result[idx] = i.details
	}
	return result
}

// Neighbours returns the neighbour addresses of an interface, sorted.
func (d *Device) Neighbours(swIfIndex uint32) []string {
	d.m.Lock()
	defer d.m.Unlock()
	i, exists := d.interfaces[swIfIndex]
	if !exists {
		return nil
	}
	return slices.Sorted(maps.Keys(i.neighbours))
}

func (d *Device) handle(req *device.Request) *device.Reply {
	d.m.Lock()
	defer d.m.Unlock()
	d.context++
	d.counters[req.Message]++
	reply := &device.Reply{Message: req.Message + "_reply", Context: d.context}

	if f, exists := d.faults[req.Message]; exists && f.count > 0 {
		f.count--
		reply.Retval = f.retval
		log.Debugf("sim: injected failure for %s: %d", req.Message, f.retval)
		return reply
	}

	var err error
	reply.Payload, reply.Retval, err = d.apply(req)
	if err != nil {
		log.Debugf("sim: %s: %v", req.Message, err)
	}
	return reply
}

// apply executes req, d.m must be held.
func (d *Device) apply(req *device.Request) (any, int32, error) {
	switch msg := req.Payload.(type) {
	case *CreateInterface:
		for _, i := range d.interfaces {
			if msg.Tag != "" && i.details.Tag == msg.Tag {
				return nil, RetvalAlreadyExists, fmt.Errorf("interface %s exists", msg.Tag)
			}
		}
		idx := d.nextIndex
		d.nextIndex++
		d.interfaces[idx] = &iface{
			details:    InterfaceDetails{SwIfIndex: idx, Tag: msg.Tag, MTU: msg.MTU},
			neighbours: map[string]*NeighbourDetails{},
		}
		return &CreateInterfaceReply{SwIfIndex: idx}, 0, nil
	case *DeleteInterface:
		if _, exists := d.interfaces[msg.SwIfIndex]; !exists {
			return nil, RetvalInvalidIndex, fmt.Errorf("no interface %d", msg.SwIfIndex)
		}
		delete(d.interfaces, msg.SwIfIndex)
		return nil, 0, nil
	case *SetInterfaceMTU:
		i, exists := d.interfaces[msg.SwIfIndex]
		if !exists {
			return nil, RetvalInvalidIndex, fmt.Errorf("no interface %d", msg.SwIfIndex)
		}
		if msg.MTU < 64 || msg.MTU > 9216 {
			return nil, RetvalInvalidValue, fmt.Errorf("invalid mtu %d", msg.MTU)
		}
		i.details.MTU = msg.MTU
		return nil, 0, nil
	case *SetInterfaceFlags:
		i, exists := d.interfaces[msg.SwIfIndex]
		if !exists {
			return nil, RetvalInvalidIndex, fmt.Errorf("no interface %d", msg.SwIfIndex)
		}
		i.details.AdminUp = msg.AdminUp
		return nil, 0, nil
	case *DumpInterfaces:
		result := make([]*InterfaceDetails, 0, len(d.interfaces))
		for _, idx := range slices.Sorted(maps.Keys(d.interfaces)) {
			details := d.interfaces[idx].details
			result = append(result, &details)
		}
		return result, 0, nil
	case *AddDelNeighbour:
		i, exists := d.interfaces[msg.SwIfIndex]
		if !exists {
			return nil, RetvalInvalidIndex, fmt.Errorf("no interface %d", msg.SwIfIndex)
		}
		_, present := i.neighbours[msg.Address]
		switch {
		case msg.IsAdd && present:
			return nil, RetvalAlreadyExists, fmt.Errorf("neighbour %s exists", msg.Address)
		case msg.IsAdd:
			i.neighbours[msg.Address] = &NeighbourDetails{SwIfIndex: msg.SwIfIndex, Address: msg.Address, MAC: msg.MAC}
		case !present:
			return nil, RetvalNoSuchEntry, fmt.Errorf("no neighbour %s", msg.Address)
		default:
			delete(i.neighbours, msg.Address)
		}
		return nil, 0, nil
	case *DumpNeighbours:
		i, exists := d.interfaces[msg.SwIfIndex]
		if !exists {
			return []*NeighbourDetails{}, 0, nil
		}
		result := make([]*NeighbourDetails, 0, len(i.neighbours))
		for _, addr := range slices.Sorted(maps.Keys(i.neighbours)) {
			n := *i.neighbours[addr]
			result = append(result, &n)
		}
		return result, 0, nil
	}
	return nil, RetvalUnsupported, fmt.Errorf("unsupported message %s (%T)", req.Message, req.Payload)
}
