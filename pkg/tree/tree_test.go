package tree

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/sdcio/dataplane-translator/pkg/path"
)

func paths(ps []path.Path) []string {
	result := make([]string, 0, len(ps))
	for _, p := range ps {
		result = append(result, p.String())
	}
	return result
}

func TestTree_SetGetDelete(t *testing.T) {
	tr := New()
	eth0 := path.MustParse("/interfaces/interface[name=eth0]")
	eth1 := path.MustParse("/interfaces/interface[name=eth1]")
	nb := path.MustParse("/interfaces/interface[name=eth0]/neighbours/neighbour[address=a1]")

	tr.Set(eth0, "eth0")
	tr.Set(eth1, "eth1")
	tr.Set(nb, "a1")

	if v, ok := tr.Get(eth0); !ok || v != "eth0" {
		t.Fatalf("Get(%s) = %v, %v", eth0, v, ok)
	}
	if _, ok := tr.Get(path.MustParse("/interfaces")); ok {
		t.Errorf("intermediate entries must not carry a value")
	}
	if !tr.Exists(path.MustParse("/interfaces/interface[name=eth0]/neighbours")) {
		t.Errorf("expected neighbours container to exist")
	}
	if tr.Len() != 3 {
		t.Errorf("Len() = %d, want 3", tr.Len())
	}

	got := paths(tr.Find(path.MustParse("/interfaces/interface")))
	if diff := cmp.Diff([]string{eth0.String(), eth1.String()}, got); diff != "" {
		t.Errorf("Find() mismatch (-want +got):\n%s", diff)
	}

	tr.Delete(eth0)
	if tr.Exists(nb) {
		t.Errorf("delete must remove descendants")
	}
	if !tr.Exists(eth1) {
		t.Errorf("delete must keep siblings")
	}

	tr.Unset(eth1)
	if !tr.IsEmpty() {
		t.Errorf("expected empty tree, got:\n%s", tr)
	}
}

func TestTree_DeepCopyIsolated(t *testing.T) {
	tr := New()
	p := path.MustParse("/a/b[k=1]")
	tr.Set(p, 1)
	c := tr.DeepCopy()
	c.Set(p, 2)
	c.Set(path.MustParse("/a/b[k=2]"), 3)

	if v, _ := tr.Get(p); v != 1 {
		t.Errorf("original modified through copy: %v", v)
	}
	if tr.Len() != 1 {
		t.Errorf("original Len() = %d, want 1", tr.Len())
	}
}

func TestDiff(t *testing.T) {
	before := New()
	before.Set(path.MustParse("/a[k=1]"), "one")
	before.Set(path.MustParse("/a[k=2]"), "two")
	before.Set(path.MustParse("/c"), "same")

	after := New()
	after.Set(path.MustParse("/a[k=2]"), "TWO")
	after.Set(path.MustParse("/b"), "new")
	after.Set(path.MustParse("/c"), "same")

	type result struct {
		Path string
		Op   string
	}
	got := []result{}
	for _, c := range Diff(before, after) {
		got = append(got, result{Path: c.Path.String(), Op: c.Op.String()})
	}
	want := []result{
		{Path: "/a[k=1]", Op: "delete"},
		{Path: "/a[k=2]", Op: "update"},
		{Path: "/b", Op: "create"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Diff() mismatch (-want +got):\n%s", diff)
	}
}

func TestDiff_Empty(t *testing.T) {
	tr := New()
	tr.Set(path.MustParse("/x"), map[string]int{"a": 1})
	if changes := Diff(tr, tr.DeepCopy()); len(changes) != 0 {
		t.Errorf("expected no changes, got %d", len(changes))
	}
}
