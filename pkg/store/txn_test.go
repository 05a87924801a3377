package store

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func seededStore(t *testing.T) Store {
	t.Helper()
	s := NewMemoryStore()
	ctx := context.Background()
	for name, idx := range map[string]uint32{"eth0": 1, "eth1": 2} {
		if err := s.Put(ctx, "interface-context", name, idx); err != nil {
			t.Fatal(err)
		}
	}
	return s
}

func TestTxn_ReadYourWrites(t *testing.T) {
	ctx := context.Background()
	base := seededStore(t)
	txn := NewTxn(base)

	if err := txn.Put(ctx, "interface-context", "eth2", 3); err != nil {
		t.Fatal(err)
	}
	if err := txn.Delete(ctx, "interface-context", "eth0"); err != nil {
		t.Fatal(err)
	}

	if idx, ok, _ := txn.Get(ctx, "interface-context", "eth2"); !ok || idx != 3 {
		t.Errorf("txn Get eth2 = %d, %t; want 3, true", idx, ok)
	}
	if _, ok, _ := txn.Get(ctx, "interface-context", "eth0"); ok {
		t.Error("eth0 deleted in txn but still visible")
	}
	// base untouched
	if _, ok, _ := base.Get(ctx, "interface-context", "eth2"); ok {
		t.Error("buffered write leaked into base store")
	}

	got, err := txn.List(ctx, "interface-context")
	if err != nil {
		t.Fatal(err)
	}
	want := []*Entry{
		{Namespace: "interface-context", Name: "eth1", Index: 2},
		{Namespace: "interface-context", Name: "eth2", Index: 3},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("List mismatch (-want +got):\n%s", diff)
	}
	if txn.Pending() != 2 {
		t.Errorf("Pending() = %d, want 2", txn.Pending())
	}
}

func TestTxn_Commit(t *testing.T) {
	ctx := context.Background()
	base := seededStore(t)
	txn := NewTxn(base)

	_ = txn.Put(ctx, "interface-context", "eth2", 3)
	_ = txn.Delete(ctx, "interface-context", "eth0")
	if err := txn.Commit(ctx); err != nil {
		t.Fatal(err)
	}

	got, err := base.List(ctx, "interface-context")
	if err != nil {
		t.Fatal(err)
	}
	want := []*Entry{
		{Namespace: "interface-context", Name: "eth1", Index: 2},
		{Namespace: "interface-context", Name: "eth2", Index: 3},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("base after commit mismatch (-want +got):\n%s", diff)
	}

	if err := txn.Put(ctx, "interface-context", "eth3", 4); !errors.Is(err, ErrTxnDone) {
		t.Errorf("Put after commit: got %v, want ErrTxnDone", err)
	}
}

func TestTxn_Discard(t *testing.T) {
	ctx := context.Background()
	base := seededStore(t)
	txn := NewTxn(base)

	_ = txn.Put(ctx, "bd-context", "bd1", 9)
	nss, err := txn.Namespaces(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"bd-context", "interface-context"}, nss); diff != "" {
		t.Errorf("Namespaces mismatch (-want +got):\n%s", diff)
	}

	txn.Discard()
	if _, ok, _ := base.Get(ctx, "bd-context", "bd1"); ok {
		t.Error("discarded write reached the base store")
	}
	if _, _, err := txn.Get(ctx, "bd-context", "bd1"); !errors.Is(err, ErrTxnDone) {
		t.Errorf("Get after discard: got %v, want ErrTxnDone", err)
	}
}
