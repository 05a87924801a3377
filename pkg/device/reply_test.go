package device_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/mock/gomock"

	"github.com/sdcio/dataplane-translator/mocks/mockdevice"
	"github.com/sdcio/dataplane-translator/pkg/device"
	"github.com/sdcio/dataplane-translator/pkg/path"
	"github.com/sdcio/dataplane-translator/pkg/translate"
	"github.com/sdcio/dataplane-translator/pkg/tree"
)

func TestReplyConsumer(t *testing.T) {
	p := path.MustParse("/interfaces/interface[name=eth0]")
	req := &device.Request{Message: "create_interface"}
	boom := errors.New("connection reset")

	tests := []struct {
		name    string
		future  func() device.Future
		call    func(r *device.ReplyConsumer) (*device.Reply, error)
		wantErr func(t *testing.T, err error)
	}{
		{
			name: "success",
			future: func() device.Future {
				return device.ResolvedFuture(device.Result{Reply: &device.Reply{Message: "create_interface_reply", Payload: uint32(3)}})
			},
			call: func(r *device.ReplyConsumer) (*device.Reply, error) {
				return r.Create(context.Background(), p, req)
			},
			wantErr: func(t *testing.T, err error) {
				if err != nil {
					t.Fatal(err)
				}
			},
		},
		{
			name: "retval maps to write failure",
			future: func() device.Future {
				return device.ResolvedFuture(device.Result{Reply: &device.Reply{Retval: -2}})
			},
			call: func(r *device.ReplyConsumer) (*device.Reply, error) {
				return r.Delete(context.Background(), p, req)
			},
			wantErr: func(t *testing.T, err error) {
				var wfe *translate.WriteFailedError
				if !errors.As(err, &wfe) || wfe.Op != tree.OpDelete {
					t.Fatalf("got %v, want WriteFailedError for delete", err)
				}
				var ce *device.CallError
				if !errors.As(err, &ce) || ce.Retval != -2 {
					t.Errorf("got %v, want CallError with retval -2", err)
				}
			},
		},
		{
			name: "transport error maps to read failure",
			future: func() device.Future {
				return device.ResolvedFuture(device.Result{Err: boom})
			},
			call: func(r *device.ReplyConsumer) (*device.Reply, error) {
				return r.Read(context.Background(), p, req)
			},
			wantErr: func(t *testing.T, err error) {
				var rfe *translate.ReadFailedError
				if !errors.As(err, &rfe) || !errors.Is(err, boom) {
					t.Fatalf("got %v, want ReadFailedError wrapping the transport error", err)
				}
			},
		},
		{
			name: "timeout",
			future: func() device.Future {
				return device.Future(make(chan device.Result))
			},
			call: func(r *device.ReplyConsumer) (*device.Reply, error) {
				return r.Update(context.Background(), p, req)
			},
			wantErr: func(t *testing.T, err error) {
				if !errors.Is(err, device.ErrTimeout) {
					t.Fatalf("got %v, want ErrTimeout", err)
				}
				var wfe *translate.WriteFailedError
				if !errors.As(err, &wfe) || wfe.Op != tree.OpUpdate {
					t.Errorf("got %v, want WriteFailedError for update", err)
				}
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			c := mockdevice.NewMockClient(ctrl)
			c.EXPECT().Invoke(gomock.Any(), req).Return(tt.future())

			r := device.NewReplyConsumer(c, 20*time.Millisecond)
			_, err := tt.call(r)
			tt.wantErr(t, err)
		})
	}
}

func TestReplyConsumer_ContextCancelled(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mockdevice.NewMockClient(ctrl)
	c.EXPECT().Invoke(gomock.Any(), gomock.Any()).Return(device.Future(make(chan device.Result)))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := device.NewReplyConsumer(c, time.Minute).Call(ctx, &device.Request{Message: "dump_interfaces"})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("got %v, want context.Canceled", err)
	}
}
