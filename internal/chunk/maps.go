package chunk

import "fmt"

// HierarchyMaps links chunks to their parents and children. Derived once
// from the finalized chunk set; immutable thereafter.
type HierarchyMaps struct {
	Parent   map[string]string   `json:"parent_map"`
	Children map[string][]string `json:"child_map"`
}

// BuildMaps derives parent/child maps from the chunk set. A parent edge is
// recorded whether or not the parent id resolves to a chunk in the set, so
// child counts reflect the document tree, matching each chunk's metadata.
func BuildMaps(chunks []Chunk) HierarchyMaps {
	m := HierarchyMaps{
		Parent:   make(map[string]string),
		Children: make(map[string][]string),
	}
	for _, c := range chunks {
		pid := c.Meta.ParentID
		if pid == "" {
			continue
		}
		m.Parent[c.ID] = pid
		m.Children[pid] = append(m.Children[pid], c.ID)
	}
	return m
}

// ChildCount returns the number of child chunks recorded for an id.
func (m HierarchyMaps) ChildCount(id string) int {
	return len(m.Children[id])
}

// Verify cross-checks the maps against the chunk metadata they were derived
// from. Used in tests and on snapshot load.
func (m HierarchyMaps) Verify(chunks []Chunk) error {
	for _, c := range chunks {
		want := c.Meta.ParentID
		got := m.Parent[c.ID]
		if got != want {
			return fmt.Errorf("chunk %s: parent_map has %q, metadata has %q", c.ID, got, want)
		}
		if want != "" {
			found := false
			for _, cid := range m.Children[want] {
				if cid == c.ID {
					found = true
					break
				}
			}
			if !found {
				return fmt.Errorf("chunk %s missing from child_map[%s]", c.ID, want)
			}
		}
	}
	return nil
}
