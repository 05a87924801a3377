package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

type storeFactory func(t *testing.T) Store

func backends() map[string]storeFactory {
	return map[string]storeFactory{
		TypeMemory: func(t *testing.T) Store {
			return NewMemoryStore()
		},
		TypeBadger: func(t *testing.T) Store {
			s, err := NewBadgerInMemoryStore()
			if err != nil {
				t.Fatal(err)
			}
			return s
		},
		TypeBolt: func(t *testing.T) Store {
			s, err := NewBoltStore(filepath.Join(t.TempDir(), "mappings.db"))
			if err != nil {
				t.Fatal(err)
			}
			return s
		},
	}
}

func TestStore_Backends(t *testing.T) {
	ctx := context.Background()
	for name, newStore := range backends() {
		t.Run(name, func(t *testing.T) {
			s := newStore(t)
			defer s.Close()

			if _, ok, err := s.Get(ctx, "interface-context", "eth0"); err != nil || ok {
				t.Fatalf("expected empty store, got ok=%t err=%v", ok, err)
			}

			for n, idx := range map[string]uint32{"eth0": 1, "eth1": 2, "loop0": 7} {
				if err := s.Put(ctx, "interface-context", n, idx); err != nil {
					t.Fatal(err)
				}
			}
			if err := s.Put(ctx, "bd-context", "bd1", 3); err != nil {
				t.Fatal(err)
			}
			// overwrite
			if err := s.Put(ctx, "interface-context", "eth1", 4); err != nil {
				t.Fatal(err)
			}

			idx, ok, err := s.Get(ctx, "interface-context", "eth1")
			if err != nil || !ok || idx != 4 {
				t.Errorf("Get eth1 = %d, %t, %v; want 4, true, nil", idx, ok, err)
			}

			got, err := s.List(ctx, "interface-context")
			if err != nil {
				t.Fatal(err)
			}
			want := []*Entry{
				{Namespace: "interface-context", Name: "eth0", Index: 1},
				{Namespace: "interface-context", Name: "eth1", Index: 4},
				{Namespace: "interface-context", Name: "loop0", Index: 7},
			}
			if diff := cmp.Diff(want, got); diff != "" {
				t.Errorf("List mismatch (-want +got):\n%s", diff)
			}

			nss, err := s.Namespaces(ctx)
			if err != nil {
				t.Fatal(err)
			}
			if diff := cmp.Diff([]string{"bd-context", "interface-context"}, nss); diff != "" {
				t.Errorf("Namespaces mismatch (-want +got):\n%s", diff)
			}

			if err := s.Delete(ctx, "bd-context", "bd1"); err != nil {
				t.Fatal(err)
			}
			if err := s.Delete(ctx, "bd-context", "not-there"); err != nil {
				t.Errorf("deleting a missing entry: %v", err)
			}
			nss, err = s.Namespaces(ctx)
			if err != nil {
				t.Fatal(err)
			}
			if diff := cmp.Diff([]string{"interface-context"}, nss); diff != "" {
				t.Errorf("Namespaces after delete mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestStore_InvalidArguments(t *testing.T) {
	ctx := context.Background()
	for name, newStore := range backends() {
		t.Run(name, func(t *testing.T) {
			s := newStore(t)
			defer s.Close()
			if err := s.Put(ctx, "", "eth0", 1); err == nil {
				t.Error("expected error for empty namespace")
			}
		})
	}
}

func TestBoltStore_Persistent(t *testing.T) {
	ctx := context.Background()
	file := filepath.Join(t.TempDir(), "mappings.db")
	s, err := NewBoltStore(file)
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Put(ctx, "interface-context", "eth0", 5); err != nil {
		t.Fatal(err)
	}
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}

	s, err = NewBoltStore(file)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()
	idx, ok, err := s.Get(ctx, "interface-context", "eth0")
	if err != nil || !ok || idx != 5 {
		t.Errorf("Get after reopen = %d, %t, %v; want 5, true, nil", idx, ok, err)
	}
}
