package diff

import (
	"encoding/xml"
	"fmt"
	"io"
	"strings"
)

// ListSchema answers whether an element name is schema-declared as a YANG
// list and, if so, its declared key leaf names — the only schema fact
// FromXML needs to bind a pulled device tree (schema.Set satisfies this).
type ListSchema interface {
	IsList(elementName string) (keys []string, ok bool)
}

// FromXML parses an XML document (e.g. a NETCONF get-config rpc-reply's
// <data> body) into a Tree, consulting sch to mark list entries and their
// declared keys so later diffs match list entries by key, not position
// (spec.md §4.3 DEVICE_SYNC: "bind tree to schema_set").
func FromXML(data []byte, sch ListSchema) (*Tree, error) {
	dec := xml.NewDecoder(strings.NewReader(string(data)))
	t := NewTree()

	type frame struct {
		id   NodeID
		text strings.Builder
	}
	stack := []frame{{id: t.Root}}

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("diff: parsing XML: %w", err)
		}

		switch tt := tok.(type) {
		case xml.StartElement:
			parent := stack[len(stack)-1].id
			keys, isList := sch.IsList(tt.Name.Local)
			id := t.AddChild(parent, Node{Name: tt.Name.Local, Namespace: tt.Name.Space, Keys: keys})
			if isList {
				t.Nodes[id].Keys = keys
			}
			stack = append(stack, frame{id: id})

		case xml.CharData:
			stack[len(stack)-1].text.WriteString(string(tt))

		case xml.EndElement:
			top := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			text := strings.TrimSpace(top.text.String())
			n := &t.Nodes[top.id]
			if len(t.Children(top.id)) == 0 {
				n.IsLeaf = true
				n.Value = text
			}
		}
	}
	return t, nil
}
