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

package dump

import (
	"context"
	"errors"
	"fmt"
	"reflect"

	log "github.com/sirupsen/logrus"

	"github.com/sdcio/dataplane-translator/pkg/metrics"
	"github.com/sdcio/dataplane-translator/pkg/path"
)

// Executor performs the device dump for the request path.
type Executor[T, P any] func(ctx context.Context, p path.Path, params P) (T, error)

// NonEmptyPredicate reports whether a dump result carries data.
type NonEmptyPredicate[T any] func(T) bool

// PostProcessor transforms a dump result before it is cached.
type PostProcessor[T any] func(T) T

// errEmpty marks an empty dump inside the singleflight call.
var errEmpty = errors.New("empty dump")

// Manager serves dumps of one type through a ModificationCache.
type Manager[T, P any] struct {
	dumpType    string
	executor    Executor[T, P]
	keyFactory  KeyFactory[P]
	nonEmpty    NonEmptyPredicate[T]
	postProcess PostProcessor[T]
}

// GetDump returns the dump for p. Cached dumps are returned without a device
// call. Otherwise the executor runs, at most once per cache key even with
// concurrent callers; an empty result is reported as absent and not cached.
func (m *Manager[T, P]) GetDump(ctx context.Context, p path.Path, cache *ModificationCache, params P) (T, bool, error) {
	var zero T
	key := m.keyFactory.Key(p, params)

	if v, ok := cache.Get(key); ok {
		metrics.DumpLookups.WithLabelValues(m.dumpType, "hit").Inc()
		return m.cast(key, v)
	}

	v, err, _ := cache.group.Do(key, func() (any, error) {
		// a concurrent caller may have filled the cache meanwhile
		if v, ok := cache.Get(key); ok {
			metrics.DumpLookups.WithLabelValues(m.dumpType, "hit").Inc()
			return v, nil
		}
		metrics.DumpLookups.WithLabelValues(m.dumpType, "miss").Inc()
		log.Debugf("dump %s: executing for key %s", m.dumpType, key)
		result, err := m.executor(ctx, p, params)
		if err != nil {
			return nil, err
		}
		if !m.nonEmpty(result) {
			metrics.DumpLookups.WithLabelValues(m.dumpType, "empty").Inc()
			return nil, errEmpty
		}
		result = m.postProcess(result)
		cache.Put(key, result)
		return result, nil
	})
	switch {
	case errors.Is(err, errEmpty):
		return zero, false, nil
	case err != nil:
		return zero, false, fmt.Errorf("dump %s for %s failed: %w", m.dumpType, p, err)
	}
	return m.cast(key, v)
}

func (m *Manager[T, P]) cast(key string, v any) (T, bool, error) {
	t, ok := v.(T)
	if !ok {
		var zero T
		return zero, false, fmt.Errorf("dump %s: cached value for key %s has type %T", m.dumpType, key, v)
	}
	return t, true, nil
}

// ManagerBuilder configures a Manager.
type ManagerBuilder[T, P any] struct {
	dumpType    string
	executor    Executor[T, P]
	keyFactory  KeyFactory[P]
	nonEmpty    NonEmptyPredicate[T]
	postProcess PostProcessor[T]
}

func NewManagerBuilder[T, P any]() *ManagerBuilder[T, P] {
	return &ManagerBuilder[T, P]{}
}

// AcceptOnly names the dump type, used in cache keys and metrics. It
// defaults to the name of T.
func (b *ManagerBuilder[T, P]) AcceptOnly(dumpType string) *ManagerBuilder[T, P] {
	b.dumpType = dumpType
	return b
}

func (b *ManagerBuilder[T, P]) WithExecutor(e Executor[T, P]) *ManagerBuilder[T, P] {
	b.executor = e
	return b
}

func (b *ManagerBuilder[T, P]) WithCacheKeyFactory(f KeyFactory[P]) *ManagerBuilder[T, P] {
	b.keyFactory = f
	return b
}

func (b *ManagerBuilder[T, P]) WithNonEmptyPredicate(f NonEmptyPredicate[T]) *ManagerBuilder[T, P] {
	b.nonEmpty = f
	return b
}

func (b *ManagerBuilder[T, P]) WithPostProcessing(f PostProcessor[T]) *ManagerBuilder[T, P] {
	b.postProcess = f
	return b
}

// Build returns the Manager. Without a key factory an IdentifierKeyFactory
// for the dump type is used, without a predicate every result counts as
// non-empty.
func (b *ManagerBuilder[T, P]) Build() (*Manager[T, P], error) {
	if b.executor == nil {
		return nil, fmt.Errorf("dump manager: no executor set")
	}
	m := &Manager[T, P]{
		dumpType:    b.dumpType,
		executor:    b.executor,
		keyFactory:  b.keyFactory,
		nonEmpty:    b.nonEmpty,
		postProcess: b.postProcess,
	}
	if m.dumpType == "" {
		m.dumpType = reflect.TypeFor[T]().String()
	}
	if m.keyFactory == nil {
		m.keyFactory = NewIdentifierKeyFactory[P](m.dumpType)
	}
	if m.nonEmpty == nil {
		m.nonEmpty = func(T) bool { return true }
	}
	if m.postProcess == nil {
		m.postProcess = func(t T) T { return t }
	}
	return m, nil
}
