package diff

// NamespaceResolver resolves the namespace a "prefix:name" identity-ref
// value's prefix refers to, so the assembled payload can declare it on the
// nearest ancestor (spec.md §4.5).
type NamespaceResolver interface {
	ResolvePrefix(prefix string) (namespace string, ok bool)
}

// Diff walks prev and next in tandem, in document order, matching container
// and list children by name (list entries additionally by declared key
// tuple, never by position), and returns the ordered edit script.
//
// Idempotence: if prev and next are structurally equal, Diff returns an
// empty script (spec.md §4.5, property 4 in spec.md §8).
func Diff(prev, next *Tree) *EditScript {
	script := &EditScript{}
	diffChildren(prev, prev.Root, next, next.Root, script)
	return script
}

func diffChildren(pt *Tree, pParent NodeID, nt *Tree, nParent NodeID, script *EditScript) {
	pChildren := pt.Children(pParent)
	nChildren := nt.Children(nParent)

	matchedP := make([]bool, len(pChildren))
	matchedN := make([]bool, len(nChildren))

	for i, pc := range pChildren {
		pn := pt.Get(pc)
		for j, nc := range nChildren {
			if matchedN[j] {
				continue
			}
			nn := nt.Get(nc)
			if pn.Name != nn.Name {
				continue
			}
			if len(pn.Keys) > 0 || len(nn.Keys) > 0 {
				if pt.KeyValues(pc) != nt.KeyValues(nc) {
					continue
				}
			}
			matchedP[i] = true
			matchedN[j] = true
			diffMatched(pt, pc, nt, nc, script)
			break
		}
	}

	for i, pc := range pChildren {
		if !matchedP[i] {
			script.Deletes = append(script.Deletes, Edit{
				Path: pt.Path(pc),
				Op:   OpDelete,
			})
		}
	}
	for j, nc := range nChildren {
		if !matchedN[j] {
			script.Adds = append(script.Adds, Edit{
				Path:    nt.Path(nc),
				Op:      OpCreate,
				Subtree: SubtreeCopy(nt, nc),
			})
		}
	}
}

// diffMatched handles a pair of nodes already matched by name (and key, for
// list entries).
func diffMatched(pt *Tree, pid NodeID, nt *Tree, nid NodeID, script *EditScript) {
	pn, nn := pt.Get(pid), nt.Get(nid)

	if pn.IsLeaf && nn.IsLeaf {
		if pn.Value != nn.Value {
			script.Changes = append(script.Changes, Edit{
				Path:  nt.Path(nid),
				Op:    OpMerge,
				Value: nn.Value,
			})
		}
		return
	}

	if len(nn.Keys) > 0 && childNameSet(pt, pid) != childNameSet(nt, nid) {
		// Structural change within a keyed list entry: the set of present
		// fields differs, not just a scalar value. Replace the entry whole
		// rather than trying to reconcile field-by-field.
		script.Changes = append(script.Changes, Edit{
			Path:    nt.Path(nid),
			Op:      OpReplace,
			Subtree: SubtreeCopy(nt, nid),
		})
		return
	}

	diffChildren(pt, pid, nt, nid, script)
}

func childNameSet(t *Tree, parent NodeID) string {
	set := ""
	for _, c := range t.Children(parent) {
		set += "|" + t.Get(c).Name
	}
	return set
}

// SubtreeCopy copies the subtree rooted at id in src into a standalone Tree
// whose Root is the copied node.
func SubtreeCopy(src *Tree, id NodeID) *Tree {
	dst := &Tree{}
	root := copyInto(src, id, dst, NoNode)
	dst.Root = root
	return dst
}

func copyInto(src *Tree, id NodeID, dst *Tree, parent NodeID) NodeID {
	n := src.Get(id)
	newID := dst.newNode(Node{
		Name:       n.Name,
		Namespace:  n.Namespace,
		Value:      n.Value,
		IsLeaf:     n.IsLeaf,
		IsIdentRef: n.IsIdentRef,
		Keys:       append([]string(nil), n.Keys...),
		Attrs:      append([]Attr(nil), n.Attrs...),
		Parent:     parent,
		FirstChild: NoNode,
		NextSib:    NoNode,
	})
	var prevSib NodeID = NoNode
	for c := src.Nodes[id].FirstChild; c != NoNode; c = src.Nodes[c].NextSib {
		childID := copyInto(src, c, dst, newID)
		if prevSib == NoNode {
			dst.Nodes[newID].FirstChild = childID
		} else {
			dst.Nodes[prevSib].NextSib = childID
		}
		prevSib = childID
	}
	return newID
}

// Apply reconstructs the tree that results from applying script to prev.
// Used to verify the round-trip property (spec.md §8, property 5):
// Apply(prev, Diff(prev, next)) == next, modulo child ordering.
func Apply(prev *Tree, script *EditScript) *Tree {
	result := SubtreeCopy(prev, prev.Root)

	for _, e := range script.Deletes {
		removeAtPath(result, e.Path)
	}
	for _, e := range script.Adds {
		insertAtPath(result, e.Path, e.Subtree)
	}
	for _, e := range script.Changes {
		if e.Op == OpReplace {
			removeAtPath(result, e.Path)
			insertAtPath(result, e.Path, e.Subtree)
		} else {
			setLeafAtPath(result, e.Path, e.Value)
		}
	}
	return result
}
