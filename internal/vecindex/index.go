package vecindex

import (
	"fmt"
	"math"
	"sort"
)

// Hit is one search result: a position into the indexed sequence and its
// inner-product score. A negative position is a sentinel for "no match" —
// callers must skip it.
type Hit struct {
	Pos   int
	Score float32
}

// Index is an exact inner-product index over unit-normalized vectors.
// With normalized vectors the inner product is cosine similarity.
// Immutable once populated; Search never mutates state.
type Index struct {
	dim     int
	vectors [][]float32
}

// NewIndex creates an empty index for vectors of the given dimensionality.
func NewIndex(dim int) *Index {
	return &Index{dim: dim}
}

// Len returns the number of indexed vectors.
func (ix *Index) Len() int { return len(ix.vectors) }

// Dim returns the vector dimensionality.
func (ix *Index) Dim() int { return ix.dim }

// Add appends a vector. The caller is responsible for normalization.
func (ix *Index) Add(vec []float32) error {
	if len(vec) != ix.dim {
		return fmt.Errorf("vector dimension %d, index expects %d", len(vec), ix.dim)
	}
	ix.vectors = append(ix.vectors, vec)
	return nil
}

// Vector returns the stored vector at a position.
func (ix *Index) Vector(pos int) []float32 {
	return ix.vectors[pos]
}

// Search returns up to topN (position, score) pairs ordered best first.
// It returns fewer pairs when the index holds fewer entries.
func (ix *Index) Search(query []float32, topN int) []Hit {
	if topN <= 0 || len(ix.vectors) == 0 {
		return nil
	}
	hits := make([]Hit, 0, len(ix.vectors))
	for pos, vec := range ix.vectors {
		hits = append(hits, Hit{Pos: pos, Score: Dot(query, vec)})
	}
	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].Score > hits[j].Score
	})
	if len(hits) > topN {
		hits = hits[:topN]
	}
	return hits
}

// Dot computes the inner product of two equal-length vectors.
func Dot(a, b []float32) float32 {
	var sum float32
	for i := range a {
		sum += a[i] * b[i]
	}
	return sum
}

// Normalize L2-normalizes a vector in place and returns it. A zero vector
// is returned unchanged.
func Normalize(v []float32) []float32 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	if sum == 0 {
		return v
	}
	inv := float32(1 / math.Sqrt(sum))
	for i := range v {
		v[i] *= inv
	}
	return v
}
