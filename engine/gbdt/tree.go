package gbdt

import (
	"math"
	"slices"
)

// Tree is a binary decision tree stored as parallel node arrays.
//
// Internal nodes are numbered 0..NumLeaves-2. A child reference >= 0 is an
// internal node; a negative reference c points at leaf ^c.
type Tree struct {
	NumLeaves    int       `json:"num_leaves"`
	SplitFeature []int     `json:"split_feature"`
	Threshold    []float64 `json:"threshold"`
	Categorical  []bool    `json:"categorical"`
	Categories   [][]int   `json:"categories"`
	DefaultLeft  []bool    `json:"default_left"`
	LeftChild    []int     `json:"left_child"`
	RightChild   []int     `json:"right_child"`
	SplitGain    []float64 `json:"split_gain"`
	LeafValue    []float64 `json:"leaf_value"`
	LeafCount    []int     `json:"leaf_count"`
	Shrinkage    float64   `json:"shrinkage"`
}

func newTree(rootValue float64, rootCount int) *Tree {
	return &Tree{
		NumLeaves: 1,
		LeafValue: []float64{rootValue},
		LeafCount: []int{rootCount},
		Shrinkage: 1,
	}
}

// split turns leaf into an internal node whose left child keeps the leaf
// index and whose right child becomes a new leaf. parent is the internal
// node currently pointing at leaf, or -1 for the root. Returns the new
// internal node index and the new leaf index.
func (t *Tree) split(leaf, parent int, s *splitInfo, threshold float64, categories []int) (int, int) {
	node := t.NumLeaves - 1
	newLeaf := t.NumLeaves
	if parent >= 0 {
		if t.LeftChild[parent] == ^leaf {
			t.LeftChild[parent] = node
		} else {
			t.RightChild[parent] = node
		}
	}

	t.SplitFeature = append(t.SplitFeature, s.feature)
	t.Threshold = append(t.Threshold, threshold)
	t.Categorical = append(t.Categorical, categories != nil)
	t.Categories = append(t.Categories, categories)
	t.DefaultLeft = append(t.DefaultLeft, s.defaultLeft)
	t.LeftChild = append(t.LeftChild, ^leaf)
	t.RightChild = append(t.RightChild, ^newLeaf)
	t.SplitGain = append(t.SplitGain, s.gain)

	t.LeafValue[leaf] = s.leftOutput
	t.LeafCount[leaf] = s.leftCount
	t.LeafValue = append(t.LeafValue, s.rightOutput)
	t.LeafCount = append(t.LeafCount, s.rightCount)
	t.NumLeaves++
	return node, newLeaf
}

// shrink multiplies every leaf output by rate.
func (t *Tree) shrink(rate float64) {
	for i := range t.LeafValue {
		t.LeafValue[i] *= rate
	}
	t.Shrinkage *= rate
}

func (t *Tree) goesLeft(node int, v float64) bool {
	if t.Categorical[node] {
		if math.IsNaN(v) || v < 0 {
			return false
		}
		_, found := slices.BinarySearch(t.Categories[node], int(v))
		return found
	}
	if math.IsNaN(v) {
		return t.DefaultLeft[node]
	}
	return v <= t.Threshold[node]
}

// Leaf returns the index of the leaf row falls into.
func (t *Tree) Leaf(row []float64) int {
	if t.NumLeaves <= 1 {
		return 0
	}
	node := 0
	for node >= 0 {
		if t.goesLeft(node, row[t.SplitFeature[node]]) {
			node = t.LeftChild[node]
		} else {
			node = t.RightChild[node]
		}
	}
	return ^node
}

// Predict returns the tree output for one row.
func (t *Tree) Predict(row []float64) float64 {
	return t.LeafValue[t.Leaf(row)]
}

// Depth returns the maximum depth of the tree; a single leaf has depth 0.
func (t *Tree) Depth() int {
	if t.NumLeaves <= 1 {
		return 0
	}
	var walk func(node int) int
	walk = func(node int) int {
		if node < 0 {
			return 0
		}
		return 1 + max(walk(t.LeftChild[node]), walk(t.RightChild[node]))
	}
	return walk(0)
}
