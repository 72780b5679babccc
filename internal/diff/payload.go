package diff

import (
	"fmt"
	"strings"
)

// Payload is the assembled edit-config body: deletes first, then adds, then
// changes (spec.md §4.5), with any namespace prefixes referenced by
// identity-ref values declared on the nearest ancestor element that carries
// them.
type Payload struct {
	Target  string // "candidate"
	Entries []PayloadEntry
}

// PayloadEntry is one <path op=...>...</path> entry in the payload.
type PayloadEntry struct {
	Path     string
	Op       EditOp
	Value    string
	Subtree  *Tree
	NSPrefix string // declared xmlns:<NSPrefix> when non-empty
	NSURI    string
}

// BuildPayload assembles an edit script into a single ordered payload,
// resolving identity-ref namespace prefixes via resolver (nil is allowed —
// entries simply carry no namespace declaration).
func BuildPayload(target string, script *EditScript, resolver NamespaceResolver) *Payload {
	p := &Payload{Target: target}

	for _, e := range script.Deletes {
		p.Entries = append(p.Entries, PayloadEntry{Path: e.Path, Op: OpDelete})
	}
	for _, e := range script.Adds {
		p.Entries = append(p.Entries, entryFor(e, resolver))
	}
	for _, e := range script.Changes {
		p.Entries = append(p.Entries, entryFor(e, resolver))
	}
	return p
}

func entryFor(e Edit, resolver NamespaceResolver) PayloadEntry {
	entry := PayloadEntry{Path: e.Path, Op: e.Op, Value: e.Value, Subtree: e.Subtree}
	value := e.Value
	identRef := false
	if e.Subtree != nil {
		root := e.Subtree.Get(e.Subtree.Root)
		value = root.Value
		identRef = root.IsIdentRef
	}
	if identRef && resolver != nil {
		if prefix, name, ok := splitPrefixed(value); ok {
			if uri, ok := resolver.ResolvePrefix(prefix); ok {
				entry.NSPrefix = prefix
				entry.NSURI = uri
				_ = name
			}
		}
	}
	return entry
}

func splitPrefixed(value string) (prefix, name string, ok bool) {
	i := strings.IndexByte(value, ':')
	if i < 0 {
		return "", "", false
	}
	return value[:i], value[i+1:], true
}

// XML renders the payload as the body of an <edit-config> RPC targeting
// Target, in NETCONF base-1.0 namespace. Deletes use operation="delete",
// adds use operation="create", changes use operation="merge" (scalar) or
// operation="replace" (structural) per spec.md §4.5.
func (p *Payload) XML() string {
	var b strings.Builder
	b.WriteString(`<edit-config xmlns="urn:ietf:params:xml:ns:netconf:base:1.0">`)
	fmt.Fprintf(&b, `<target><%s/></target>`, p.Target)
	b.WriteString(`<config>`)
	for _, e := range p.Entries {
		writeEntry(&b, e)
	}
	b.WriteString(`</config></edit-config>`)
	return b.String()
}

func writeEntry(b *strings.Builder, e PayloadEntry) {
	nsAttr := ""
	if e.NSPrefix != "" {
		nsAttr = fmt.Sprintf(` xmlns:%s=%q`, e.NSPrefix, e.NSURI)
	}
	fmt.Fprintf(b, `<element xc:operation=%q path=%q%s`, e.Op.String(), e.Path, nsAttr)
	if e.Op == OpMerge {
		fmt.Fprintf(b, `>%s</element>`, e.Value)
		return
	}
	if e.Subtree != nil {
		b.WriteString(`>`)
		writeSubtree(b, e.Subtree, e.Subtree.Root)
		b.WriteString(`</element>`)
		return
	}
	b.WriteString(`/>`)
}

func writeSubtree(b *strings.Builder, t *Tree, id NodeID) {
	n := t.Get(id)
	if n.IsLeaf {
		fmt.Fprintf(b, `<%s>%s</%s>`, n.Name, n.Value, n.Name)
		return
	}
	fmt.Fprintf(b, `<%s>`, n.Name)
	for _, c := range t.Children(id) {
		writeSubtree(b, t, c)
	}
	fmt.Fprintf(b, `</%s>`, n.Name)
}
