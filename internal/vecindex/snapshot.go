package vecindex

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/dgallion1/bookrag/internal/chunk"
)

// snapshot is the serialized form of a built index set: the flat-index
// vectors in chunk order, the chunk list, and the hierarchy maps. Per-level
// indices are reconstructed from the flat vectors on load, so a reloaded
// set is identical to a rebuilt one without re-embedding.
type snapshot struct {
	Dim     int                 `json:"dimension"`
	Chunks  []chunk.Chunk       `json:"chunks"`
	Vectors [][]float32         `json:"vectors"`
	Maps    chunk.HierarchyMaps `json:"hierarchy"`
}

// Save writes the index set and hierarchy maps to a JSON file.
func (s *Set) Save(path string, maps chunk.HierarchyMaps) error {
	if !s.Ready() {
		return ErrIndexNotReady
	}

	snap := snapshot{
		Dim:     s.dim,
		Chunks:  s.chunks,
		Vectors: make([][]float32, len(s.chunks)),
		Maps:    maps,
	}
	for i := range s.chunks {
		snap.Vectors[i] = s.flat.Vector(i)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create snapshot dir: %w", err)
	}
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshal index snapshot: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write index snapshot: %w", err)
	}
	return nil
}

// Load reads a snapshot and reconstructs the full index set, including the
// per-level indices, plus the hierarchy maps. The maps are cross-checked
// against the chunk metadata before the set is returned.
func Load(path string) (*Set, chunk.HierarchyMaps, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, chunk.HierarchyMaps{}, fmt.Errorf("read index snapshot: %w", err)
	}
	var snap snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, chunk.HierarchyMaps{}, fmt.Errorf("decode index snapshot: %w", err)
	}
	if len(snap.Vectors) != len(snap.Chunks) {
		return nil, chunk.HierarchyMaps{}, fmt.Errorf(
			"snapshot corrupt: %d vectors for %d chunks", len(snap.Vectors), len(snap.Chunks))
	}
	if err := snap.Maps.Verify(snap.Chunks); err != nil {
		return nil, chunk.HierarchyMaps{}, fmt.Errorf("snapshot hierarchy inconsistent: %w", err)
	}

	s := &Set{
		dim:    snap.Dim,
		chunks: snap.Chunks,
		byID:   make(map[string]chunk.Chunk, len(snap.Chunks)),
		flat:   NewIndex(snap.Dim),
		levels: make(map[int]*levelIndex),
	}
	for i, c := range snap.Chunks {
		s.byID[c.ID] = c
		if err := s.flat.Add(snap.Vectors[i]); err != nil {
			return nil, chunk.HierarchyMaps{}, fmt.Errorf("restore flat index: %w", err)
		}
	}

	// Regroup per level; vectors are parallel to chunks, so the per-level
	// indices come back byte-identical to a fresh build.
	for i, c := range snap.Chunks {
		li, ok := s.levels[c.Meta.Level]
		if !ok {
			li = &levelIndex{index: NewIndex(snap.Dim)}
			s.levels[c.Meta.Level] = li
		}
		li.chunks = append(li.chunks, c)
		if err := li.index.Add(snap.Vectors[i]); err != nil {
			return nil, chunk.HierarchyMaps{}, fmt.Errorf("restore level %d index: %w", c.Meta.Level, err)
		}
	}

	s.ready = true
	return s, snap.Maps, nil
}
