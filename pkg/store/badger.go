package store

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dgraph-io/badger/v4"
	log "github.com/sirupsen/logrus"
)

const (
	keySep       = '\x00'
	mappingsRoot = "mappings"
)

type badgerStore struct {
	db *badger.DB
}

// NewBadgerStore opens (or creates) a badger database in dir.
func NewBadgerStore(dir string) (Store, error) {
	opts := badger.DefaultOptions(dir).
		WithLogger(log.WithField("component", "mapping-store"))
	return openBadger(opts)
}

// NewBadgerInMemoryStore returns a badger backed Store that is not written to disk.
func NewBadgerInMemoryStore() (Store, error) {
	opts := badger.DefaultOptions("").
		WithInMemory(true).
		WithLogger(nil)
	return openBadger(opts)
}

func openBadger(opts badger.Options) (Store, error) {
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger mapping store: %w", err)
	}
	return &badgerStore{db: db}, nil
}

func namespacePrefix(namespace string) []byte {
	return []byte(mappingsRoot + string(keySep) + namespace + string(keySep))
}

func entryKey(namespace, name string) []byte {
	return append(namespacePrefix(namespace), []byte(name)...)
}

// splitKey returns namespace and name of a stored key.
func splitKey(k []byte) (string, string, bool) {
	parts := strings.SplitN(string(k), string(keySep), 3)
	if len(parts) != 3 || parts[0] != mappingsRoot {
		return "", "", false
	}
	return parts[1], parts[2], true
}

func (b *badgerStore) Get(_ context.Context, namespace, name string) (uint32, bool, error) {
	var r *record
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(entryKey(namespace, name))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			r, err = decodeRecord(val)
			return err
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return r.Index, true, nil
}

func (b *badgerStore) Put(_ context.Context, namespace, name string, index uint32) error {
	if err := validate(namespace, name); err != nil {
		return err
	}
	val, err := encodeRecord(index)
	if err != nil {
		return err
	}
	return b.db.Update(func(txn *badger.Txn) error {
		return txn.Set(entryKey(namespace, name), val)
	})
}

func (b *badgerStore) Delete(_ context.Context, namespace, name string) error {
	return b.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(entryKey(namespace, name))
	})
}

func (b *badgerStore) List(_ context.Context, namespace string) ([]*Entry, error) {
	prefix := namespacePrefix(namespace)
	result := []*Entry{}
	err := b.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			item := it.Item()
			name := string(bytes.TrimPrefix(item.KeyCopy(nil), prefix))
			err := item.Value(func(val []byte) error {
				r, err := decodeRecord(val)
				if err != nil {
					return err
				}
				result = append(result, &Entry{Namespace: namespace, Name: name, Index: r.Index})
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return sortEntries(result), nil
}

func (b *badgerStore) Namespaces(_ context.Context) ([]string, error) {
	prefix := []byte(mappingsRoot + string(keySep))
	result := []string{}
	err := b.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			ns, _, ok := splitKey(it.Item().Key())
			if !ok {
				continue
			}
			// keys are sorted, so equal namespaces are adjacent
			if len(result) == 0 || result[len(result)-1] != ns {
				result = append(result, ns)
			}
		}
		return nil
	})
	return result, err
}

func (b *badgerStore) Close() error {
	return b.db.Close()
}
