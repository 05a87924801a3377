package device

import (
	"context"
	"errors"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/sdcio/dataplane-translator/pkg/metrics"
	"github.com/sdcio/dataplane-translator/pkg/path"
	"github.com/sdcio/dataplane-translator/pkg/translate"
	"github.com/sdcio/dataplane-translator/pkg/tree"
)

const DefaultReplyTimeout = 5 * time.Second

// ReplyConsumer invokes device requests and waits for their replies. The
// operation variants map failures to the error types of the translate
// package.
type ReplyConsumer struct {
	client  Client
	timeout time.Duration
}

func NewReplyConsumer(c Client, timeout time.Duration) *ReplyConsumer {
	if timeout <= 0 {
		timeout = DefaultReplyTimeout
	}
	return &ReplyConsumer{client: c, timeout: timeout}
}

// Call sends req and waits for the reply. Replies with a non zero retval
// are returned as *CallError.
func (r *ReplyConsumer) Call(ctx context.Context, req *Request) (*Reply, error) {
	reply, err := r.Wait(ctx, req.Message, r.client.Invoke(ctx, req))
	switch {
	case err == nil:
		metrics.DeviceRequests.WithLabelValues(req.Message, "ok").Inc()
	case errors.Is(err, ErrTimeout):
		metrics.DeviceRequests.WithLabelValues(req.Message, "timeout").Inc()
	default:
		metrics.DeviceRequests.WithLabelValues(req.Message, "error").Inc()
	}
	return reply, err
}

// Wait waits for the reply of f, at most the configured timeout.
func (r *ReplyConsumer) Wait(ctx context.Context, msg string, f Future) (*Reply, error) {
	timer := time.NewTimer(r.timeout)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-timer.C:
		return nil, fmt.Errorf("%s: %w after %s", msg, ErrTimeout, r.timeout)
	case res := <-f:
		if res.Err != nil {
			return nil, res.Err
		}
		if res.Reply == nil {
			return nil, fmt.Errorf("%s: empty reply", msg)
		}
		if res.Reply.Retval != 0 {
			return res.Reply, &CallError{Message: msg, Retval: res.Reply.Retval}
		}
		return res.Reply, nil
	}
}

func (r *ReplyConsumer) write(ctx context.Context, p path.Path, op tree.Op, req *Request) (*Reply, error) {
	log.Debugf("device %s %s: %s", op, p, req.Message)
	reply, err := r.Call(ctx, req)
	if err != nil {
		return reply, &translate.WriteFailedError{Path: p, Op: op, Cause: err}
	}
	return reply, nil
}

// Create sends a request creating the object at p.
func (r *ReplyConsumer) Create(ctx context.Context, p path.Path, req *Request) (*Reply, error) {
	return r.write(ctx, p, tree.OpCreate, req)
}

// Update sends a request updating the object at p.
func (r *ReplyConsumer) Update(ctx context.Context, p path.Path, req *Request) (*Reply, error) {
	return r.write(ctx, p, tree.OpUpdate, req)
}

// Delete sends a request deleting the object at p.
func (r *ReplyConsumer) Delete(ctx context.Context, p path.Path, req *Request) (*Reply, error) {
	return r.write(ctx, p, tree.OpDelete, req)
}

// Read sends a read or dump request for p.
func (r *ReplyConsumer) Read(ctx context.Context, p path.Path, req *Request) (*Reply, error) {
	reply, err := r.Call(ctx, req)
	if err != nil {
		return reply, &translate.ReadFailedError{Path: p, Cause: err}
	}
	return reply, nil
}
