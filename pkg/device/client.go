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

//go:generate mockgen -source=client.go -destination=../../mocks/mockdevice/client.go -package=mockdevice

package device

import (
	"context"
	"errors"
	"fmt"
)

var (
	ErrTimeout = errors.New("timeout waiting for device reply")
	ErrClosed  = errors.New("device client closed")
)

// Request is a single device API message.
type Request struct {
	Message string
	Payload any
}

// Reply is the answer to a Request. A non zero Retval reports a failure.
type Reply struct {
	Message string
	Context uint32
	Retval  int32
	Payload any
}

// Result carries either the Reply or the error of an invocation.
type Result struct {
	Reply *Reply
	Err   error
}

// Future delivers exactly one Result.
type Future <-chan Result

// ResolvedFuture returns a Future delivering r immediately.
func ResolvedFuture(r Result) Future {
	ch := make(chan Result, 1)
	ch <- r
	return ch
}

// Client is the asynchronous request/reply session to the device.
type Client interface {
	Invoke(ctx context.Context, req *Request) Future
	Close() error
}

// CallError is a reply with a non zero return value.
type CallError struct {
	Message string
	Retval  int32
}

func (e *CallError) Error() string {
	return fmt.Sprintf("%s failed with retval %d", e.Message, e.Retval)
}
