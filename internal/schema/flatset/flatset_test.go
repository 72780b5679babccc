package flatset

import (
	"context"
	"testing"

	"github.com/meridian-net/meridian/internal/schema"
)

const ifModule = `
module acme-if {
  namespace "urn:acme:if";
  prefix if;

  list interface {
    key "name";
    leaf name {
      type string;
    }
    leaf mtu {
      type uint16;
    }
  }
}
`

func TestParseDeclaresListKeys(t *testing.T) {
	ref := schema.ModuleRef{Name: "acme-if", Revision: "2024-01-01"}
	set, err := Parser{}.Parse(context.Background(), "/devices/r1", map[schema.ModuleRef][]byte{
		ref: []byte(ifModule),
	})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if set.Mount() != "/devices/r1" {
		t.Errorf("unexpected mount: %q", set.Mount())
	}
	keys, ok := set.IsList("interface")
	if !ok {
		t.Fatal("expected interface to be recognized as a list")
	}
	if len(keys) != 1 || keys[0] != "name" {
		t.Errorf("unexpected keys: %v", keys)
	}
	if _, ok := set.IsList("mtu"); ok {
		t.Errorf("mtu leaf should not be reported as a list")
	}
}

func TestParseEmptyCatalog(t *testing.T) {
	set, err := Parser{}.Parse(context.Background(), "/devices/r2", nil)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(set.Modules()) != 0 {
		t.Errorf("expected no modules, got %v", set.Modules())
	}
}
