// Package schema defines the contract the device state machine uses to turn
// a device's advertised module catalog into a bound schema set (spec.md
// §4.3, SCHEMA_LIST/SCHEMA_ONE states). The schema-language parser itself is
// explicitly out of scope for the core ("the core consumes a 'parse these
// module@revision pairs into a schema set; attach this set at this mount
// point' service" — spec.md §1 Non-goals); this package is that service's
// contract, with a minimal reference implementation in schema/flatset.
package schema

import "context"

// ModuleRef names one schema module at a specific revision, as advertised in
// a device's NETCONF monitoring schema list.
type ModuleRef struct {
	Name     string
	Revision string
}

func (m ModuleRef) String() string {
	if m.Revision == "" {
		return m.Name
	}
	return m.Name + "@" + m.Revision
}

// CatalogEntry is one row of a device's advertised schema catalog (spec.md
// §4.3 SCHEMA_LIST: "translate catalog into module-set").
type CatalogEntry struct {
	ModuleRef
	Namespace        string
	LocallyAvailable bool
}

// Set is the opaque parsed-schema object attached to a device handle once
// all required modules have been parsed (spec.md §3: device.schema_set).
// A device reaches OPEN only once its Set is non-nil (invariant in spec.md
// §3: "conn_state == OPEN ⇒ schema_set is non-empty").
type Set interface {
	// Mount reports the mount point this set is attached at.
	Mount() string
	// Modules lists the module references bound into this set.
	Modules() []ModuleRef
	// IsList reports whether the element name is a schema-declared YANG
	// list (as opposed to a container or leaf), and if so its declared key
	// leaf names in schema order. Used by the diff engine to decide
	// key-based vs positional child matching without inspecting data.
	IsList(elementName string) (keys []string, ok bool)
}

// Parser turns a set of module sources into a bound Set. Implementations may
// do arbitrarily little or much real schema-language validation; the core
// only requires that modules it already holds parse deterministically and
// that IsList answers correctly for the elements the device's data actually
// uses.
type Parser interface {
	Parse(ctx context.Context, mount string, sources map[ModuleRef][]byte) (Set, error)
}
