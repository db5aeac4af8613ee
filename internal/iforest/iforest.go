// Package iforest implements the isolation-forest outlier detector the
// triage pipeline scores vectors with. Score semantics follow the usual
// convention: DecisionFunction is positive for inliers and negative for
// outliers, with the zero point set by the training contamination rate.
package iforest

import (
	"fmt"
	"math"
	"math/rand"
	"sort"
)

// Label is a model verdict for one vector.
type Label int

const (
	Inlier  Label = 1
	Outlier Label = -1
)

// Options control training. Zero values pick the standard defaults.
type Options struct {
	Trees         int     // number of trees (default 100)
	SampleSize    int     // subsample per tree (default 256, capped at len(data))
	MaxFeatures   float64 // fraction of features considered per tree (default 1.0)
	Contamination float64 // expected outlier share; 0 keeps the -0.5 auto offset
	Seed          int64
}

const (
	defaultTrees      = 100
	defaultSampleSize = 256
)

// node is one split or leaf in flattened form. Leaves have Left == -1 and
// carry the subsample size that reached them.
type node struct {
	Feature int     `json:"f"`
	Split   float64 `json:"s"`
	Left    int     `json:"l"`
	Right   int     `json:"r"`
	Size    int     `json:"n"`
}

type tree struct {
	Nodes []node `json:"nodes"`
}

// Forest is a trained model. It is immutable after Train and safe for
// concurrent scoring.
type Forest struct {
	Trees          []tree  `json:"trees"`
	SampleSize     int     `json:"sample_size"`
	NumFeatures    int     `json:"num_features"`
	Offset         float64 `json:"offset"`
	FeatureVersion int     `json:"feature_version"`
}

// Train fits a forest on the given vectors. All vectors must share one
// length; at least two are required to isolate anything.
func Train(vectors [][]float64, version int, opts Options) (*Forest, error) {
	if len(vectors) < 2 {
		return nil, fmt.Errorf("iforest: need at least 2 training vectors, got %d", len(vectors))
	}
	dim := len(vectors[0])
	if dim == 0 {
		return nil, fmt.Errorf("iforest: zero-length feature vectors")
	}
	for i, v := range vectors {
		if len(v) != dim {
			return nil, fmt.Errorf("iforest: vector %d has length %d, want %d", i, len(v), dim)
		}
	}

	trees := opts.Trees
	if trees <= 0 {
		trees = defaultTrees
	}
	sample := opts.SampleSize
	if sample <= 0 {
		sample = defaultSampleSize
	}
	if sample > len(vectors) {
		sample = len(vectors)
	}
	maxFeatures := opts.MaxFeatures
	if maxFeatures <= 0 || maxFeatures > 1 {
		maxFeatures = 1.0
	}
	featureCount := int(maxFeatures * float64(dim))
	if featureCount < 1 {
		featureCount = 1
	}

	rng := rand.New(rand.NewSource(opts.Seed))
	maxDepth := int(math.Ceil(math.Log2(float64(sample))))

	f := &Forest{
		Trees:          make([]tree, 0, trees),
		SampleSize:     sample,
		NumFeatures:    dim,
		FeatureVersion: version,
	}
	for i := 0; i < trees; i++ {
		subsample := sampleWithoutReplacement(vectors, sample, rng)
		features := sampleFeatures(dim, featureCount, rng)
		f.Trees = append(f.Trees, buildTree(subsample, features, maxDepth, rng))
	}

	f.Offset = -0.5
	if opts.Contamination > 0 {
		scores := make([]float64, len(vectors))
		for i, v := range vectors {
			scores[i] = f.scoreSample(v)
		}
		sort.Float64s(scores)
		idx := int(opts.Contamination * float64(len(scores)))
		if idx >= len(scores) {
			idx = len(scores) - 1
		}
		f.Offset = scores[idx]
	}
	return f, nil
}

func sampleWithoutReplacement(vectors [][]float64, n int, rng *rand.Rand) [][]float64 {
	perm := rng.Perm(len(vectors))
	out := make([][]float64, n)
	for i := 0; i < n; i++ {
		out[i] = vectors[perm[i]]
	}
	return out
}

func sampleFeatures(dim, count int, rng *rand.Rand) []int {
	if count >= dim {
		features := make([]int, dim)
		for i := range features {
			features[i] = i
		}
		return features
	}
	return rng.Perm(dim)[:count]
}

func buildTree(data [][]float64, features []int, maxDepth int, rng *rand.Rand) tree {
	t := tree{}
	var grow func(data [][]float64, depth int) int
	grow = func(data [][]float64, depth int) int {
		idx := len(t.Nodes)
		t.Nodes = append(t.Nodes, node{Left: -1, Right: -1, Size: len(data)})

		if depth >= maxDepth || len(data) <= 1 || allEqual(data, features) {
			return idx
		}

		// Pick a feature with spread, then a uniform split inside it.
		feature, lo, hi, ok := pickSplit(data, features, rng)
		if !ok {
			return idx
		}
		split := lo + rng.Float64()*(hi-lo)

		var left, right [][]float64
		for _, v := range data {
			if v[feature] < split {
				left = append(left, v)
			} else {
				right = append(right, v)
			}
		}
		if len(left) == 0 || len(right) == 0 {
			return idx
		}

		t.Nodes[idx].Feature = feature
		t.Nodes[idx].Split = split
		t.Nodes[idx].Left = grow(left, depth+1)
		t.Nodes[idx].Right = grow(right, depth+1)
		return idx
	}
	grow(data, 0)
	return t
}

// pickSplit chooses a random feature that still has spread in this subset.
func pickSplit(data [][]float64, features []int, rng *rand.Rand) (feature int, lo, hi float64, ok bool) {
	for _, fi := range rng.Perm(len(features)) {
		feature = features[fi]
		lo, hi = data[0][feature], data[0][feature]
		for _, v := range data {
			lo = math.Min(lo, v[feature])
			hi = math.Max(hi, v[feature])
		}
		if hi > lo {
			return feature, lo, hi, true
		}
	}
	return 0, 0, 0, false
}

func allEqual(data [][]float64, features []int) bool {
	for _, f := range features {
		for _, v := range data[1:] {
			if v[f] != data[0][f] {
				return false
			}
		}
	}
	return true
}

// pathLength walks one tree and returns the adjusted isolation depth.
func (t tree) pathLength(v []float64) float64 {
	depth := 0.0
	idx := 0
	for {
		n := t.Nodes[idx]
		if n.Left < 0 {
			return depth + avgPathLength(n.Size)
		}
		if v[n.Feature] < n.Split {
			idx = n.Left
		} else {
			idx = n.Right
		}
		depth++
	}
}

const eulerMascheroni = 0.5772156649015329

// avgPathLength is c(n), the expected path length of an unsuccessful BST
// search over n points.
func avgPathLength(n int) float64 {
	switch {
	case n > 2:
		h := math.Log(float64(n-1)) + eulerMascheroni
		return 2*h - 2*float64(n-1)/float64(n)
	case n == 2:
		return 1
	default:
		return 0
	}
}

// scoreSample is the negated anomaly score in [-1, 0): closer to -1 means
// more anomalous.
func (f *Forest) scoreSample(v []float64) float64 {
	total := 0.0
	for _, t := range f.Trees {
		total += t.pathLength(v)
	}
	mean := total / float64(len(f.Trees))
	anomaly := math.Pow(2, -mean/avgPathLength(f.SampleSize))
	return -anomaly
}

// DecisionFunction returns the signed distance from the decision boundary.
// Negative values are outliers.
func (f *Forest) DecisionFunction(v []float64) float64 {
	return f.scoreSample(v) - f.Offset
}

// Predict labels a vector as Inlier or Outlier.
func (f *Forest) Predict(v []float64) Label {
	if f.DecisionFunction(v) < 0 {
		return Outlier
	}
	return Inlier
}
