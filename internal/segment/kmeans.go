package segment

import (
	"math"
	"math/rand"
)

// Clustering is the result of a k-means fit.
type Clustering struct {
	Labels    []int
	Centroids [][]float64
	Inertia   float64
}

// KMeans partitions points with Lloyd's algorithm and k-means++ seeding.
type KMeans struct {
	k        int
	restarts int
	maxIter  int
	rnd      *rand.Rand
}

// NewKMeans returns a KMeans for k groups seeded from opts.
func NewKMeans(k int, opts Options) *KMeans {
	opts = opts.withDefaults()
	return &KMeans{
		k:        k,
		restarts: opts.Restarts,
		maxIter:  opts.MaxIter,
		rnd:      rand.New(rand.NewSource(opts.Seed)),
	}
}

// Fit runs every restart and keeps the lowest-inertia result. Earlier runs win
// ties. Points must be non-empty and share one dimension.
func (km *KMeans) Fit(points [][]float64) Clustering {
	var best Clustering
	for r := 0; r < km.restarts; r++ {
		c := km.run(points)
		if r == 0 || c.Inertia < best.Inertia {
			best = c
		}
	}
	return best
}

func (km *KMeans) run(points [][]float64) Clustering {
	centroids := km.seed(points)
	labels := make([]int, len(points))
	for i := range labels {
		labels[i] = -1
	}
	for iter := 0; iter < km.maxIter; iter++ {
		if !assign(points, centroids, labels) {
			break
		}
		updateCentroids(points, labels, centroids)
	}
	return Clustering{
		Labels:    labels,
		Centroids: centroids,
		Inertia:   inertia(points, centroids, labels),
	}
}

// seed picks k initial centroids: the first uniformly, the rest with
// probability proportional to the squared distance to the nearest centroid
// chosen so far. When every point coincides with a centroid the pick falls back
// to uniform, which leaves duplicate centroids and empty groups.
func (km *KMeans) seed(points [][]float64) [][]float64 {
	centroids := make([][]float64, 0, km.k)
	centroids = append(centroids, clonePoint(points[km.rnd.Intn(len(points))]))
	dist := make([]float64, len(points))
	for len(centroids) < km.k {
		total := 0.0
		for i, p := range points {
			dist[i] = nearestDistance(p, centroids)
			total += dist[i]
		}
		if total == 0 {
			centroids = append(centroids, clonePoint(points[km.rnd.Intn(len(points))]))
			continue
		}
		r := km.rnd.Float64() * total
		acc := 0.0
		idx := -1
		for i, d := range dist {
			if d == 0 {
				continue
			}
			acc += d
			idx = i
			if r < acc {
				break
			}
		}
		centroids = append(centroids, clonePoint(points[idx]))
	}
	return centroids
}

// assign moves every point to its nearest centroid, lowest index on ties, and
// reports whether any label changed.
func assign(points, centroids [][]float64, labels []int) bool {
	changed := false
	for i, p := range points {
		best := 0
		bestDist := math.Inf(1)
		for c, centroid := range centroids {
			if d := sqDist(p, centroid); d < bestDist {
				best = c
				bestDist = d
			}
		}
		if labels[i] != best {
			labels[i] = best
			changed = true
		}
	}
	return changed
}

// updateCentroids moves each centroid to the mean of its points. A centroid
// with no points keeps its position.
func updateCentroids(points [][]float64, labels []int, centroids [][]float64) {
	dims := len(points[0])
	sums := make([][]float64, len(centroids))
	counts := make([]int, len(centroids))
	for c := range sums {
		sums[c] = make([]float64, dims)
	}
	for i, p := range points {
		c := labels[i]
		counts[c]++
		for d, v := range p {
			sums[c][d] += v
		}
	}
	for c := range centroids {
		if counts[c] == 0 {
			continue
		}
		for d := range centroids[c] {
			centroids[c][d] = sums[c][d] / float64(counts[c])
		}
	}
}

func inertia(points, centroids [][]float64, labels []int) float64 {
	var total float64
	for i, p := range points {
		total += sqDist(p, centroids[labels[i]])
	}
	return total
}

func nearestDistance(p []float64, centroids [][]float64) float64 {
	best := math.Inf(1)
	for _, c := range centroids {
		if d := sqDist(p, c); d < best {
			best = d
		}
	}
	return best
}

func sqDist(a, b []float64) float64 {
	var sum float64
	for i := range a {
		diff := a[i] - b[i]
		sum += diff * diff
	}
	return sum
}

func clonePoint(p []float64) []float64 {
	out := make([]float64, len(p))
	copy(out, p)
	return out
}
