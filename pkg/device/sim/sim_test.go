package sim

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sdcio/dataplane-translator/pkg/device"
)

func invoke(t *testing.T, d *Device, msg string, payload any) *device.Reply {
	t.Helper()
	rc := device.NewReplyConsumer(d, time.Second)
	reply, err := rc.Call(context.Background(), &device.Request{Message: msg, Payload: payload})
	require.NoError(t, err)
	return reply
}

func TestDevice_Interfaces(t *testing.T) {
	d := New(0)
	defer d.Close()

	r := invoke(t, d, MsgCreateInterface, &CreateInterface{Tag: "eth0", MTU: 1500})
	assert.Equal(t, &CreateInterfaceReply{SwIfIndex: 1}, r.Payload)
	r = invoke(t, d, MsgCreateInterface, &CreateInterface{Tag: "eth1", MTU: 1500})
	assert.Equal(t, &CreateInterfaceReply{SwIfIndex: 2}, r.Payload)

	invoke(t, d, MsgSetInterfaceMTU, &SetInterfaceMTU{SwIfIndex: 2, MTU: 9000})
	invoke(t, d, MsgSetInterfaceFlags, &SetInterfaceFlags{SwIfIndex: 1, AdminUp: true})
	invoke(t, d, MsgDeleteInterface, &DeleteInterface{SwIfIndex: 1})

	r = invoke(t, d, MsgDumpInterfaces, &DumpInterfaces{})
	want := []*InterfaceDetails{{SwIfIndex: 2, Tag: "eth1", MTU: 9000}}
	if diff := cmp.Diff(want, r.Payload); diff != "" {
		t.Errorf("dump mismatch (-want +got):\n%s", diff)
	}

	// indexes are never reused
	r = invoke(t, d, MsgCreateInterface, &CreateInterface{Tag: "eth2"})
	assert.Equal(t, &CreateInterfaceReply{SwIfIndex: 3}, r.Payload)
	assert.Equal(t, 3, d.Calls(MsgCreateInterface))
}

func TestDevice_Neighbours(t *testing.T) {
	d := New(4)
	defer d.Close()

	invoke(t, d, MsgCreateInterface, &CreateInterface{Tag: "eth0"})
	invoke(t, d, MsgAddDelNeighbour, &AddDelNeighbour{SwIfIndex: 1, Address: "10.0.0.2", MAC: "aa:bb:cc:00:00:02", IsAdd: true})
	invoke(t, d, MsgAddDelNeighbour, &AddDelNeighbour{SwIfIndex: 1, Address: "10.0.0.1", MAC: "aa:bb:cc:00:00:01", IsAdd: true})

	r := invoke(t, d, MsgDumpNeighbours, &DumpNeighbours{SwIfIndex: 1})
	want := []*NeighbourDetails{
		{SwIfIndex: 1, Address: "10.0.0.1", MAC: "aa:bb:cc:00:00:01"},
		{SwIfIndex: 1, Address: "10.0.0.2", MAC: "aa:bb:cc:00:00:02"},
	}
	if diff := cmp.Diff(want, r.Payload); diff != "" {
		t.Errorf("dump mismatch (-want +got):\n%s", diff)
	}

	invoke(t, d, MsgAddDelNeighbour, &AddDelNeighbour{SwIfIndex: 1, Address: "10.0.0.2"})
	assert.Equal(t, []string{"10.0.0.1"}, d.Neighbours(1))

	r = invoke(t, d, MsgDumpNeighbours, &DumpNeighbours{SwIfIndex: 7})
	assert.Empty(t, r.Payload)
}

func TestDevice_Failures(t *testing.T) {
	tests := []struct {
		name    string
		msg     string
		payload any
		retval  int32
	}{
		{"unknown index", MsgSetInterfaceMTU, &SetInterfaceMTU{SwIfIndex: 9, MTU: 1500}, RetvalInvalidIndex},
		{"invalid mtu", MsgSetInterfaceMTU, &SetInterfaceMTU{SwIfIndex: 1, MTU: 10}, RetvalInvalidValue},
		{"duplicate tag", MsgCreateInterface, &CreateInterface{Tag: "eth0"}, RetvalAlreadyExists},
		{"absent neighbour", MsgAddDelNeighbour, &AddDelNeighbour{SwIfIndex: 1, Address: "10.0.0.9"}, RetvalNoSuchEntry},
		{"unsupported", "sw_interface_span", struct{}{}, RetvalUnsupported},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := New(0)
			defer d.Close()
			invoke(t, d, MsgCreateInterface, &CreateInterface{Tag: "eth0"})

			rc := device.NewReplyConsumer(d, time.Second)
			_, err := rc.Call(context.Background(), &device.Request{Message: tt.msg, Payload: tt.payload})
			var callErr *device.CallError
			require.ErrorAs(t, err, &callErr)
			assert.Equal(t, tt.retval, callErr.Retval)
		})
	}
}

func TestDevice_FailNext(t *testing.T) {
	d := New(0)
	defer d.Close()
	d.FailNext(MsgCreateInterface, RetvalAlreadyExists, 1)

	rc := device.NewReplyConsumer(d, time.Second)
	_, err := rc.Call(context.Background(), &device.Request{Message: MsgCreateInterface, Payload: &CreateInterface{Tag: "eth0"}})
	var callErr *device.CallError
	require.ErrorAs(t, err, &callErr)
	assert.Empty(t, d.Interfaces())

	invoke(t, d, MsgCreateInterface, &CreateInterface{Tag: "eth0"})
	assert.Len(t, d.Interfaces(), 1)
	assert.Equal(t, 2, d.Calls(MsgCreateInterface))

	d.ResetCounters()
	assert.Zero(t, d.Calls(MsgCreateInterface))
}

func TestDevice_DelayTimesOut(t *testing.T) {
	d := New(0)
	defer d.Close()
	d.Delay(MsgDumpInterfaces, 200*time.Millisecond)

	rc := device.NewReplyConsumer(d, 10*time.Millisecond)
	_, err := rc.Call(context.Background(), &device.Request{Message: MsgDumpInterfaces, Payload: &DumpInterfaces{}})
	assert.ErrorIs(t, err, device.ErrTimeout)
}

func TestDevice_Closed(t *testing.T) {
	d := New(0)
	require.NoError(t, d.Close())
	require.NoError(t, d.Close())

	res := <-d.Invoke(context.Background(), &device.Request{Message: MsgDumpInterfaces, Payload: &DumpInterfaces{}})
	if !errors.Is(res.Err, device.ErrClosed) {
		t.Errorf("expected ErrClosed, got %v", res.Err)
	}
}
