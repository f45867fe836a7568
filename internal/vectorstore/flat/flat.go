// Package flat provides an exact brute-force L2 nearest-neighbor index.
package flat

import (
	"errors"
	"math"
	"sort"

	"studyrag/internal/domain"
)

var (
	// ErrDimensionMismatch is returned when vectors of different dimensions
	// are mixed at build time or a query has the wrong dimension.
	ErrDimensionMismatch = errors.New("flat: vector dimension mismatch")

	// ErrEmptyIndex is returned when searching an index with no vectors.
	ErrEmptyIndex = errors.New("flat: index is empty")
)

// Index is an append-only flat vector set searched by linear scan. Corpus
// sizes are modest, so exact search is fine; callers depend on the
// domain.VectorSearcher interface, which leaves room for an approximate
// structure later. An Index is read-only after Build.
type Index struct {
	dim     int
	vectors [][]float32
}

// Build constructs an index over the given vectors. All vectors must share
// the same dimension. Row order is preserved: the vector at row i keeps
// position i in every search result.
func Build(vectors [][]float32) (*Index, error) {
	if len(vectors) == 0 {
		return &Index{}, nil
	}
	dim := len(vectors[0])
	if dim == 0 {
		return nil, ErrDimensionMismatch
	}
	for _, v := range vectors {
		if len(v) != dim {
			return nil, ErrDimensionMismatch
		}
	}
	rows := make([][]float32, len(vectors))
	for i, v := range vectors {
		row := make([]float32, dim)
		copy(row, v)
		rows[i] = row
	}
	return &Index{dim: dim, vectors: rows}, nil
}

// Dimension returns the vector dimension, or 0 for an empty index.
func (ix *Index) Dimension() int { return ix.dim }

// Len returns the number of indexed vectors.
func (ix *Index) Len() int { return len(ix.vectors) }

// Rows exposes the raw row vectors for serialization. Callers must not
// mutate the returned slices.
func (ix *Index) Rows() [][]float32 { return ix.vectors }

// Search returns the min(k, Len()) nearest rows to the query by Euclidean
// distance, ascending, with ties broken by insertion order. Searching an
// empty index is an error; callers that want "no results" for the empty
// state check Len first.
func (ix *Index) Search(query []float32, k int) ([]domain.Hit, error) {
	if len(ix.vectors) == 0 {
		return nil, ErrEmptyIndex
	}
	if len(query) != ix.dim {
		return nil, ErrDimensionMismatch
	}
	hits := make([]domain.Hit, len(ix.vectors))
	for i, row := range ix.vectors {
		hits[i] = domain.Hit{Position: i, Distance: l2(query, row)}
	}
	sort.Slice(hits, func(a, b int) bool {
		if hits[a].Distance != hits[b].Distance {
			return hits[a].Distance < hits[b].Distance
		}
		return hits[a].Position < hits[b].Position
	})
	if k < 0 {
		k = 0
	}
	if k > len(hits) {
		k = len(hits)
	}
	return hits[:k], nil
}

func l2(a, b []float32) float64 {
	var sum float64
	for i := range a {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}
	return math.Sqrt(sum)
}
