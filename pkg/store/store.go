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

package store

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/fxamacker/cbor/v2"
)

const (
	TypeMemory = "memory"
	TypeBadger = "badgerdb"
	TypeBolt   = "bbolt"
)

var (
	ErrClosed          = errors.New("mapping store closed")
	ErrInvalidArgument = errors.New("invalid argument")
)

// Store is the durable key->value storage for naming context entries.
// Entries are addressed by (namespace, name) and hold the device index.
type Store interface {
	// Get returns the index stored for name in namespace.
	Get(ctx context.Context, namespace, name string) (uint32, bool, error)
	// Put stores index for name in namespace, overwriting an existing entry.
	Put(ctx context.Context, namespace, name string, index uint32) error
	// Delete removes the entry. Deleting a non existing entry is not an error.
	Delete(ctx context.Context, namespace, name string) error
	// List returns all entries of the namespace sorted by name.
	List(ctx context.Context, namespace string) ([]*Entry, error)
	// Namespaces returns the sorted names of all namespaces holding entries.
	Namespaces(ctx context.Context) ([]string, error)
	// Close releases the underlying resources.
	Close() error
}

// Entry is a single mapping of a symbolic name to a device index.
type Entry struct {
	Namespace string
	Name      string
	Index     uint32
}

func (e *Entry) String() string {
	return fmt.Sprintf("%s/%s=%d", e.Namespace, e.Name, e.Index)
}

// record is the persisted form of an entry value.
type record struct {
	Index   uint32 `cbor:"1,keyasint"`
	Updated int64  `cbor:"2,keyasint"`
}

func encodeRecord(index uint32) ([]byte, error) {
	return cbor.Marshal(&record{Index: index, Updated: time.Now().UnixNano()})
}

func decodeRecord(b []byte) (*record, error) {
	r := &record{}
	if err := cbor.Unmarshal(b, r); err != nil {
		return nil, fmt.Errorf("failed to decode mapping record: %w", err)
	}
	return r, nil
}

func validate(namespace, name string) error {
	if namespace == "" {
		return fmt.Errorf("%w: empty namespace", ErrInvalidArgument)
	}
	if strings.ContainsRune(namespace, keySep) || strings.ContainsRune(name, keySep) {
		return fmt.Errorf("%w: namespace and name must not contain NUL characters", ErrInvalidArgument)
	}
	return nil
}

func sortEntries(es []*Entry) []*Entry {
	slices.SortFunc(es, func(a, b *Entry) int {
		return strings.Compare(a.Name, b.Name)
	})
	return es
}
