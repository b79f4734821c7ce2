package recommender

import (
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Neighbor is one entry of a nearest-neighbor query result.
type Neighbor struct {
	Row      int
	Distance float64
}

// knnIndex answers Euclidean nearest-neighbor queries over the standardized
// feature matrix. The row counts here are small (one season of one league),
// so exhaustive search is both exact and fast enough; no spatial tree is
// needed.
type knnIndex struct {
	data *mat.Dense
}

func newKNNIndex(data *mat.Dense) *knnIndex {
	return &knnIndex{data: data}
}

// Neighbors returns the k rows closest to the query vector, ordered by
// ascending distance with row index as the deterministic tie-break. k
// greater than the row count returns all rows.
func (ix *knnIndex) Neighbors(query []float64, k int) []Neighbor {
	n, _ := ix.data.Dims()
	neighbors := make([]Neighbor, n)
	for i := 0; i < n; i++ {
		neighbors[i] = Neighbor{
			Row:      i,
			Distance: floats.Distance(query, ix.data.RawRowView(i), 2),
		}
	}

	sort.Slice(neighbors, func(a, b int) bool {
		if neighbors[a].Distance != neighbors[b].Distance {
			return neighbors[a].Distance < neighbors[b].Distance
		}
		return neighbors[a].Row < neighbors[b].Row
	})

	if k < len(neighbors) {
		neighbors = neighbors[:k]
	}
	return neighbors
}

// Len returns the number of indexed rows.
func (ix *knnIndex) Len() int {
	n, _ := ix.data.Dims()
	return n
}
