package schema

import "testing"

func TestFileCachePutThenGet(t *testing.T) {
	c := NewFileCache(t.TempDir())
	ref := ModuleRef{Name: "ietf-interfaces", Revision: "2018-02-20"}

	if _, ok := c.Get(ref); ok {
		t.Fatal("expected miss before Put")
	}
	if err := c.Put(ref, []byte("module ietf-interfaces { }")); err != nil {
		t.Fatalf("Put: %v", err)
	}
	body, ok := c.Get(ref)
	if !ok {
		t.Fatal("expected hit after Put")
	}
	if string(body) != "module ietf-interfaces { }" {
		t.Errorf("unexpected cached body: %q", body)
	}
}

func TestFileCachePutIsIdempotent(t *testing.T) {
	c := NewFileCache(t.TempDir())
	ref := ModuleRef{Name: "ietf-ip"}
	if err := c.Put(ref, []byte("v1")); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := c.Put(ref, []byte("v2")); err != nil {
		t.Fatalf("second Put: %v", err)
	}
	body, _ := c.Get(ref)
	if string(body) != "v1" {
		t.Errorf("expected first write to win, got %q", body)
	}
}
