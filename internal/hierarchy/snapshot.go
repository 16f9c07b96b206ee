package hierarchy

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// snapshotNode is the serialized, introspection-friendly form of a Node.
// Text is truncated to a preview; the snapshot is a debugging artifact,
// not required for correctness.
type snapshotNode struct {
	ID          string   `json:"id"`
	TextPreview string   `json:"text_preview"`
	TextLength  int      `json:"text_length"`
	Level       int      `json:"level"`
	ParentID    string   `json:"parent_id,omitempty"`
	ChildrenIDs []string `json:"children_ids"`
	Meta        Metadata `json:"metadata"`
}

type snapshotFile struct {
	Nodes map[string]snapshotNode `json:"nodes"`
	Roots []string                `json:"root_nodes"`
}

const previewLen = 100

// SaveSnapshot writes the tree structure to a JSON file.
func SaveSnapshot(tree *Tree, path string) error {
	snap := snapshotFile{
		Nodes: make(map[string]snapshotNode, len(tree.Nodes)),
		Roots: tree.Roots,
	}
	for id, node := range tree.Nodes {
		preview := node.Text
		if len(preview) > previewLen {
			preview = preview[:previewLen] + "..."
		}
		snap.Nodes[id] = snapshotNode{
			ID:          node.ID,
			TextPreview: preview,
			TextLength:  len(node.Text),
			Level:       node.Level,
			ParentID:    node.ParentID,
			ChildrenIDs: node.ChildrenIDs,
			Meta:        node.Meta,
		}
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create snapshot dir: %w", err)
	}
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal hierarchy: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write hierarchy snapshot: %w", err)
	}
	return nil
}

// LoadSnapshot reads a hierarchy snapshot back. Node text holds only the
// saved preview; the snapshot exists for structure inspection.
func LoadSnapshot(path string) (*Tree, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read hierarchy snapshot: %w", err)
	}
	var snap snapshotFile
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("decode hierarchy snapshot: %w", err)
	}

	tree := &Tree{Nodes: make(map[string]*Node, len(snap.Nodes)), Roots: snap.Roots}
	for id, sn := range snap.Nodes {
		tree.Nodes[id] = &Node{
			ID:          sn.ID,
			Text:        sn.TextPreview,
			Level:       sn.Level,
			ParentID:    sn.ParentID,
			ChildrenIDs: sn.ChildrenIDs,
			Meta:        sn.Meta,
		}
	}
	return tree, nil
}
