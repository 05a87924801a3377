package store

import (
	"context"
	"fmt"
	"time"

	bolt "go.etcd.io/bbolt"
)

const boltOpenTimeout = 5 * time.Second

type boltStore struct {
	db *bolt.DB
}

// NewBoltStore opens (or creates) a bbolt database file. Every namespace is
// kept in its own bucket.
func NewBoltStore(file string) (Store, error) {
	db, err := bolt.Open(file, 0o600, &bolt.Options{Timeout: boltOpenTimeout})
	if err != nil {
		return nil, fmt.Errorf("failed to open bbolt mapping store %s: %w", file, err)
	}
	return &boltStore{db: db}, nil
}

func (b *boltStore) Get(_ context.Context, namespace, name string) (uint32, bool, error) {
	var r *record
	err := b.db.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(namespace))
		if bucket == nil {
			return nil
		}
		val := bucket.Get([]byte(name))
		if val == nil {
			return nil
		}
		var err error
		r, err = decodeRecord(val)
		return err
	})
	if err != nil || r == nil {
		return 0, false, err
	}
	return r.Index, true, nil
}

func (b *boltStore) Put(_ context.Context, namespace, name string, index uint32) error {
	if err := validate(namespace, name); err != nil {
		return err
	}
	val, err := encodeRecord(index)
	if err != nil {
		return err
	}
	return b.db.Update(func(tx *bolt.Tx) error {
		bucket, err := tx.CreateBucketIfNotExists([]byte(namespace))
		if err != nil {
			return err
		}
		return bucket.Put([]byte(name), val)
	})
}

func (b *boltStore) Delete(_ context.Context, namespace, name string) error {
	return b.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(namespace))
		if bucket == nil {
			return nil
		}
		if err := bucket.Delete([]byte(name)); err != nil {
			return err
		}
		if k, _ := bucket.Cursor().First(); k == nil {
			return tx.DeleteBucket([]byte(namespace))
		}
		return nil
	})
}

func (b *boltStore) List(_ context.Context, namespace string) ([]*Entry, error) {
	result := []*Entry{}
	err := b.db.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(namespace))
		if bucket == nil {
			return nil
		}
		return bucket.ForEach(func(k, v []byte) error {
			r, err := decodeRecord(v)
			if err != nil {
				return err
			}
			result = append(result, &Entry{Namespace: namespace, Name: string(k), Index: r.Index})
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return sortEntries(result), nil
}

func (b *boltStore) Namespaces(_ context.Context) ([]string, error) {
	result := []string{}
	err := b.db.View(func(tx *bolt.Tx) error {
		return tx.ForEach(func(name []byte, _ *bolt.Bucket) error {
			result = append(result, string(name))
			return nil
		})
	})
	return result, err
}

func (b *boltStore) Close() error {
	return b.db.Close()
}
