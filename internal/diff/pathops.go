package diff

import "strings"

type segment struct {
	name  string
	preds map[string]string
}

func parsePath(path string) []segment {
	var segs []segment
	for _, raw := range strings.Split(strings.Trim(path, "/"), "/") {
		if raw == "" {
			continue
		}
		name := raw
		preds := map[string]string{}
		if i := strings.IndexByte(raw, '['); i >= 0 {
			name = raw[:i]
			rest := raw[i:]
			for len(rest) > 0 {
				end := strings.IndexByte(rest, ']')
				if end < 0 {
					break
				}
				kv := rest[1:end]
				if eq := strings.IndexByte(kv, '='); eq >= 0 {
					preds[kv[:eq]] = kv[eq+1:]
				}
				rest = rest[end+1:]
			}
		}
		segs = append(segs, segment{name: name, preds: preds})
	}
	return segs
}

func matchesSeg(t *Tree, id NodeID, s segment) bool {
	n := t.Get(id)
	if n.Name != s.name {
		return false
	}
	for k, v := range s.preds {
		found := false
		for c := t.Nodes[id].FirstChild; c != NoNode; c = t.Nodes[c].NextSib {
			cn := t.Nodes[c]
			if cn.Name == k && cn.Value == v {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func findChild(t *Tree, parent NodeID, s segment) NodeID {
	for c := t.Nodes[parent].FirstChild; c != NoNode; c = t.Nodes[c].NextSib {
		if matchesSeg(t, c, s) {
			return c
		}
	}
	return NoNode
}

// navigate walks segs starting at t.Root and returns the node id, or NoNode.
func navigate(t *Tree, segs []segment) NodeID {
	cur := t.Root
	for _, s := range segs {
		cur = findChild(t, cur, s)
		if cur == NoNode {
			return NoNode
		}
	}
	return cur
}

func removeAtPath(t *Tree, path string) {
	segs := parsePath(path)
	if len(segs) == 0 {
		return
	}
	parent := navigate(t, segs[:len(segs)-1])
	if parent == NoNode {
		return
	}
	last := segs[len(segs)-1]
	unlinkChild(t, parent, last)
}

func unlinkChild(t *Tree, parent NodeID, s segment) {
	var prev NodeID = NoNode
	for c := t.Nodes[parent].FirstChild; c != NoNode; c = t.Nodes[c].NextSib {
		if matchesSeg(t, c, s) {
			if prev == NoNode {
				t.Nodes[parent].FirstChild = t.Nodes[c].NextSib
			} else {
				t.Nodes[prev].NextSib = t.Nodes[c].NextSib
			}
			return
		}
		prev = c
	}
}

func insertAtPath(t *Tree, path string, subtree *Tree) {
	segs := parsePath(path)
	if len(segs) == 0 || subtree == nil {
		return
	}
	parent := navigate(t, segs[:len(segs)-1])
	if parent == NoNode {
		return
	}
	newID := copyInto(subtree, subtree.Root, t, parent)
	p := &t.Nodes[parent]
	if p.FirstChild == NoNode {
		p.FirstChild = newID
		return
	}
	sib := p.FirstChild
	for t.Nodes[sib].NextSib != NoNode {
		sib = t.Nodes[sib].NextSib
	}
	t.Nodes[sib].NextSib = newID
}

func setLeafAtPath(t *Tree, path, value string) {
	segs := parsePath(path)
	id := navigate(t, segs)
	if id == NoNode {
		return
	}
	t.Nodes[id].Value = value
}
