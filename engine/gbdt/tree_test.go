package gbdt

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

// x0 <= 1 ? (x1 in {2, 4} ? -1 : 1) : 3
func buildTestTree() *Tree {
	t := newTree(0, 10)
	t.split(0, -1, &splitInfo{feature: 0, gain: 5, defaultLeft: true, leftOutput: 0, rightOutput: 3}, 1, nil)
	t.split(0, 0, &splitInfo{feature: 1, gain: 2, leftOutput: -1, rightOutput: 1}, 0, []int{2, 4})
	return t
}

func TestTreeStructure(t *testing.T) {
	tree := buildTestTree()

	assert.Equal(t, 3, tree.NumLeaves)
	assert.Equal(t, []int{0, 1}, tree.SplitFeature)
	assert.Equal(t, []int{1, ^0}, tree.LeftChild)
	assert.Equal(t, []int{^1, ^2}, tree.RightChild)
	assert.Equal(t, []float64{-1, 3, 1}, tree.LeafValue)
	assert.Equal(t, 2, tree.Depth())
}

func TestTreePredict(t *testing.T) {
	tree := buildTestTree()

	tests := []struct {
		name string
		row  []float64
		want float64
	}{
		{"left then category in set", []float64{0.5, 2}, -1},
		{"left then category outside set", []float64{1, 3}, 1},
		{"left then negative category", []float64{1, -1}, 1},
		{"left then NaN category", []float64{1, math.NaN()}, 1},
		{"right", []float64{1.1, 2}, 3},
		{"missing goes default left", []float64{math.NaN(), 4}, -1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tree.Predict(tt.row))
		})
	}
}

func TestTreeShrink(t *testing.T) {
	tree := buildTestTree()
	tree.shrink(0.5)

	assert.Equal(t, []float64{-0.5, 1.5, 0.5}, tree.LeafValue)
	assert.Equal(t, 0.5, tree.Shrinkage)
}

func TestSingleLeafTree(t *testing.T) {
	tree := newTree(2.5, 4)
	assert.Equal(t, 0, tree.Depth())
	assert.Equal(t, 0, tree.Leaf([]float64{1}))
	assert.Equal(t, 2.5, tree.Predict([]float64{1}))
}
