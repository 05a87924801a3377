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

//go:generate mockgen -source=handler.go -destination=../../mocks/mocktranslate/handler.go -package=mocktranslate

package translate

import (
	"context"

	"github.com/sdcio/dataplane-translator/pkg/path"
	"github.com/sdcio/dataplane-translator/pkg/tree"
	"github.com/sdcio/dataplane-translator/pkg/txn"
)

// Handler is anything registered for a subtree of the configuration. Its
// capabilities are expressed by the interfaces below.
type Handler any

// Writer applies the configuration of one instance to the device. p is the
// keyed path of the instance. Handlers maintain the naming contexts of the
// objects they create and delete.
type Writer interface {
	Create(ctx context.Context, p path.Path, after any, wc *txn.Context) error
	Update(ctx context.Context, p path.Path, before, after any, wc *txn.Context) error
	Delete(ctx context.Context, p path.Path, before any, wc *txn.Context) error
}

// Validator checks a change before any device call of the transaction.
type Validator interface {
	Validate(ctx context.Context, p path.Path, op tree.Op, before, after any, wc *txn.Context) error
}

// Reader reads the operational value of one instance. A nil value with a
// nil error means the instance does not exist on the device.
type Reader interface {
	Read(ctx context.Context, p path.Path, rc *txn.Context) (any, error)
}

// ListReader enumerates the keys of the list instances present on the
// device. p is the list path, ancestors keyed.
type ListReader interface {
	Reader
	AllKeys(ctx context.Context, p path.Path, rc *txn.Context) ([]path.Keys, error)
}

// Merger merges a read child value into the value of its parent and returns
// the updated parent. parent is nil if the parent has no value yet.
type Merger interface {
	Merge(parent any, p path.Path, value any) (any, error)
}
