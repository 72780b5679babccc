// Package diff implements the differential edit engine (spec.md §4.5): given
// two configuration trees (whose list entries carry the key names their
// schema declares, as FromXML records them), it computes an ordered (deletes, adds, changes) edit script and assembles it
// into a single edit-config payload.
//
// Trees are represented as an arena of nodes plus integer indices
// (parent/first-child/next-sibling), per the "pointer-rich XML trees" design
// note in spec.md §9 — this avoids pointer-chasing parent/child/sibling
// links in favor of slice indices that stay valid under copy.
package diff

// NodeID indexes a node within a Tree's arena. NoNode (-1) means "absent";
// 0 is a valid index (NewTree puts the root there).
type NodeID int

const NoNode NodeID = -1

// Attr is a single XML-style attribute, kept as an inline field on Node
// rather than a nested map (spec.md §9: "attributes live on the node as an
// inline small-vector").
type Attr struct {
	Name  string
	Value string
}

// Node is one element in a configuration tree. Leaf nodes carry Value and no
// children; container/list nodes carry children reachable via FirstChild and
// NextSib.
type Node struct {
	Name       string // local name, schema-qualified by the caller if needed
	Namespace  string
	Value      string // leaf value; empty for containers/lists
	IsLeaf     bool
	IsIdentRef bool     // true if Value is an identityref, of form "prefix:name"
	Keys       []string // for list entries: the declared key leaf names
	Attrs      []Attr
	Parent     NodeID
	FirstChild NodeID
	NextSib    NodeID
}

// Tree is an arena of Nodes. Index 0, if present, is the document root's
// first child list owner; Root holds the synthetic top-level container.
type Tree struct {
	Nodes []Node
	Root  NodeID
}

// NewTree returns an empty tree with a single root container node.
func NewTree() *Tree {
	t := &Tree{}
	t.Root = t.newNode(Node{Name: "", FirstChild: NoNode, NextSib: NoNode, Parent: NoNode})
	return t
}

func (t *Tree) newNode(n Node) NodeID {
	t.Nodes = append(t.Nodes, n)
	return NodeID(len(t.Nodes) - 1)
}

// AddChild appends a new child under parent and returns its id.
func (t *Tree) AddChild(parent NodeID, n Node) NodeID {
	n.Parent = parent
	n.FirstChild = NoNode
	n.NextSib = NoNode
	id := t.newNode(n)

	p := &t.Nodes[parent]
	if p.FirstChild == NoNode {
		p.FirstChild = id
		return id
	}
	sib := p.FirstChild
	for t.Nodes[sib].NextSib != NoNode {
		sib = t.Nodes[sib].NextSib
	}
	t.Nodes[sib].NextSib = id
	return id
}

// Children returns the ordered child ids of n (document order).
func (t *Tree) Children(n NodeID) []NodeID {
	var out []NodeID
	for c := t.Nodes[n].FirstChild; c != NoNode; c = t.Nodes[c].NextSib {
		out = append(out, c)
	}
	return out
}

// Get returns the node at id.
func (t *Tree) Get(id NodeID) Node {
	return t.Nodes[id]
}

// Path renders a slash-separated leaf-qualified path from the root to id,
// using declared keys for list entries (e.g. "/if[name=eth0]/mtu").
func (t *Tree) Path(id NodeID) string {
	var segs []string
	for cur := id; cur != t.Root && cur != NoNode; cur = t.Nodes[cur].Parent {
		n := t.Nodes[cur]
		seg := n.Name
		if len(n.Keys) > 0 {
			seg += keyPredicate(t, cur, n.Keys)
		}
		segs = append([]string{seg}, segs...)
	}
	result := ""
	for _, s := range segs {
		result += "/" + s
	}
	return result
}

func keyPredicate(t *Tree, listEntry NodeID, keys []string) string {
	pred := ""
	for _, k := range keys {
		for c := t.Nodes[listEntry].FirstChild; c != NoNode; c = t.Nodes[c].NextSib {
			if t.Nodes[c].Name == k {
				pred += "[" + k + "=" + t.Nodes[c].Value + "]"
				break
			}
		}
	}
	return pred
}

// KeyValues returns the key-tuple string used to match list entries by key,
// not by position (spec.md §4.5).
func (t *Tree) KeyValues(listEntry NodeID) string {
	n := t.Nodes[listEntry]
	return keyPredicate(t, listEntry, n.Keys)
}

// Equal reports whether two trees are structurally and value-identical,
// ignoring the order of children under each node (used by the round-trip
// property checks: Apply(prev, Diff(prev, next)) equals next).
func Equal(a, b *Tree) bool {
	return equalSubtree(a, a.Root, b, b.Root)
}

func equalSubtree(a *Tree, na NodeID, b *Tree, nb NodeID) bool {
	an, bn := a.Nodes[na], b.Nodes[nb]
	if an.Name != bn.Name || an.Namespace != bn.Namespace || an.Value != bn.Value || an.IsLeaf != bn.IsLeaf {
		return false
	}
	ac, bc := a.Children(na), b.Children(nb)
	if len(ac) != len(bc) {
		return false
	}
	// Match children in any order: by name, and by key tuple for keyed list entries.
	used := make([]bool, len(bc))
	for _, ca := range ac {
		matched := false
		for i, cb := range bc {
			if used[i] {
				continue
			}
			if a.Nodes[ca].Name == b.Nodes[cb].Name && sameKey(a, ca, b, cb) {
				if equalSubtree(a, ca, b, cb) {
					used[i] = true
					matched = true
					break
				}
			}
		}
		if !matched {
			return false
		}
	}
	return true
}

func sameKey(a *Tree, na NodeID, b *Tree, nb NodeID) bool {
	an, bn := a.Nodes[na], b.Nodes[nb]
	if len(an.Keys) == 0 && len(bn.Keys) == 0 {
		return true
	}
	return a.KeyValues(na) == b.KeyValues(nb)
}
