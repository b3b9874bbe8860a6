// Package kmeans extracts the dominant color of a pixel buffer by
// clustering in the Oklab perceptual space, where Euclidean distance
// tracks perceived color difference far better than device RGB.
package kmeans

import (
	"errors"
	"image/color"
	"math"
	"math/rand"
	"sort"

	"remosaic/oklab"
)

// ErrEmptyClusterResult reports that clustering yielded no centroids.
// Callers treat it as fatal rather than substituting a default color.
var ErrEmptyClusterResult = errors.New("clustering produced no centroids")

const (
	clusterCount  = 8
	maxIterations = 20
	// Total centroid movement below which a run is considered converged.
	// Oklab lightness spans [0, 1], so this matches a 5-unit threshold on
	// the usual 0..100 lightness scale.
	convergence = 0.05
	runCount    = 3
	seedBase    = 30
)

type run struct {
	centroids []oklab.Lab
	counts    []int
	score     float64
}

// Dominant returns the most representative color of the given pixels:
// the centroid with the largest membership from the best of three
// independently seeded k-means runs. Output is reproducible for
// identical input since all seeds are fixed. Alpha is discarded on the
// way in and the result carries full opacity.
func Dominant(pixels []color.RGBA) (color.RGBA, error) {
	if len(pixels) == 0 {
		return color.RGBA{}, ErrEmptyClusterResult
	}

	labs := make([]oklab.Lab, len(pixels))
	for i, px := range pixels {
		labs[i] = oklab.FromRGBA(px)
	}

	// Lowest inertia wins. Starting from +Inf guarantees the first run
	// replaces the placeholder no matter how poor its score is.
	best := run{score: math.Inf(1)}
	for i := 0; i < runCount; i++ {
		r := cluster(labs, int64(seedBase+i))
		if r.score < best.score {
			best = r
		}
	}
	if len(best.centroids) == 0 {
		return color.RGBA{}, ErrEmptyClusterResult
	}

	ranked := make([]weighted, len(best.centroids))
	for i, c := range best.centroids {
		ranked[i] = weighted{centroid: c, members: best.counts[i]}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].members > ranked[j].members
	})
	return ranked[0].centroid.ToRGBA(), nil
}

type weighted struct {
	centroid oklab.Lab
	members  int
}

// cluster performs one bounded k-means run over labs with a fixed seed
// for centroid initialization. Its score is the clustering inertia: the
// sum of squared distances from each pixel to its assigned centroid.
func cluster(labs []oklab.Lab, seed int64) run {
	k := clusterCount
	if k > len(labs) {
		k = len(labs)
	}
	rng := rand.New(rand.NewSource(seed))

	centroids := make([]oklab.Lab, k)
	taken := make(map[int]bool, k)
	for i := 0; i < k; i++ {
		idx := rng.Intn(len(labs))
		for taken[idx] {
			idx = rng.Intn(len(labs))
		}
		taken[idx] = true
		centroids[i] = labs[idx]
	}

	assign := make([]int, len(labs))
	counts := make([]int, k)
	for iter := 0; iter < maxIterations; iter++ {
		for i := range counts {
			counts[i] = 0
		}
		for i, px := range labs {
			nearest, nearestDist := 0, math.MaxFloat64
			for j, c := range centroids {
				if d := px.DistSq(c); d < nearestDist {
					nearest, nearestDist = j, d
				}
			}
			assign[i] = nearest
			counts[nearest]++
		}

		sums := make([]oklab.Lab, k)
		for i, px := range labs {
			s := &sums[assign[i]]
			s.L += px.L
			s.A += px.A
			s.B += px.B
		}

		moved := 0.0
		for i := range centroids {
			if counts[i] == 0 {
				// Empty cluster keeps its previous centroid.
				continue
			}
			n := float64(counts[i])
			next := oklab.Lab{L: sums[i].L / n, A: sums[i].A / n, B: sums[i].B / n}
			moved += math.Sqrt(centroids[i].DistSq(next))
			centroids[i] = next
		}
		if moved < convergence {
			break
		}
	}

	score := 0.0
	for i, px := range labs {
		score += px.DistSq(centroids[assign[i]])
	}

	return run{centroids: centroids, counts: counts, score: score}
}
