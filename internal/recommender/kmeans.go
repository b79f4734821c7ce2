package recommender

import (
	"math"
	"math/rand"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

const (
	// kmeansSeed fixes the centroid initialization so that repeated fits on
	// identical data assign identical labels.
	kmeansSeed = 42

	maxKMeansIterations = 100
)

// kmeans partitions the standardized feature matrix into k clusters with
// Lloyd's algorithm and k-means++ seeding from a fixed random source.
type kmeans struct {
	k    int
	seed int64
}

func newKMeans(k int) *kmeans {
	return &kmeans{k: k, seed: kmeansSeed}
}

// Fit returns one cluster label per matrix row. k is clamped to the row
// count, so every cluster is non-empty at initialization.
func (km *kmeans) Fit(data *mat.Dense) []int {
	n, dim := data.Dims()
	k := km.k
	if k > n {
		k = n
	}
	if k < 1 {
		k = 1
	}

	rng := rand.New(rand.NewSource(km.seed))
	centroids := km.seedCentroids(data, k, rng)

	labels := make([]int, n)
	for i := range labels {
		labels[i] = -1
	}

	for iter := 0; iter < maxKMeansIterations; iter++ {
		changed := false
		for i := 0; i < n; i++ {
			best, bestDist := 0, math.Inf(1)
			for c := 0; c < k; c++ {
				d := floats.Distance(data.RawRowView(i), centroids[c], 2)
				if d < bestDist {
					best, bestDist = c, d
				}
			}
			if labels[i] != best {
				labels[i] = best
				changed = true
			}
		}
		if !changed {
			break
		}

		// Recompute centroids as member means. A cluster left empty keeps
		// its previous centroid.
		counts := make([]int, k)
		sums := make([][]float64, k)
		for c := range sums {
			sums[c] = make([]float64, dim)
		}
		for i := 0; i < n; i++ {
			counts[labels[i]]++
			floats.Add(sums[labels[i]], data.RawRowView(i))
		}
		for c := 0; c < k; c++ {
			if counts[c] == 0 {
				continue
			}
			floats.Scale(1/float64(counts[c]), sums[c])
			centroids[c] = sums[c]
		}
	}

	return labels
}

// seedCentroids picks initial centroids with k-means++: the first uniformly,
// each subsequent one with probability proportional to its squared distance
// from the nearest centroid chosen so far.
func (km *kmeans) seedCentroids(data *mat.Dense, k int, rng *rand.Rand) [][]float64 {
	n, dim := data.Dims()
	centroids := make([][]float64, 0, k)

	first := make([]float64, dim)
	copy(first, data.RawRowView(rng.Intn(n)))
	centroids = append(centroids, first)

	distances := make([]float64, n)
	for len(centroids) < k {
		var total float64
		for i := 0; i < n; i++ {
			nearest := math.Inf(1)
			for _, c := range centroids {
				if d := floats.Distance(data.RawRowView(i), c, 2); d < nearest {
					nearest = d
				}
			}
			distances[i] = nearest * nearest
			total += distances[i]
		}

		next := 0
		if total > 0 {
			target := rng.Float64() * total
			var cumulative float64
			for i := 0; i < n; i++ {
				cumulative += distances[i]
				if cumulative >= target {
					next = i
					break
				}
			}
		} else {
			// All points coincide with a centroid already.
			next = rng.Intn(n)
		}

		centroid := make([]float64, dim)
		copy(centroid, data.RawRowView(next))
		centroids = append(centroids, centroid)
	}

	return centroids
}
