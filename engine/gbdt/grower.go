package gbdt

import (
	"sort"

	"github.com/koalaml/koala-lightgbm/core/parallel"
)

type leafState struct {
	rows       []int
	sumG, sumH float64
	depth      int
	parent     int
	hist       [][]histBin
	best       *splitInfo
}

// grower builds one tree leaf-wise: at every step the leaf with the largest
// gain is split, until num_leaves is reached or no leaf can be split.
type grower struct {
	sp       *splitter
	workers  int
	features []int
}

func newGrower(p Params, data *binnedData, workers int) *grower {
	return &grower{sp: &splitter{p: p, data: data}, workers: workers}
}

func (g *grower) buildHist(rows []int, grad, hess []float64) [][]histBin {
	data := g.sp.data
	hist := make([][]histBin, len(data.mappers))
	parallel.ParallelizeN(len(g.features), g.workers, func(start, end int) {
		for k := start; k < end; k++ {
			j := g.features[k]
			h := make([]histBin, data.mappers[j].NumBins())
			col := data.bins[j]
			for _, r := range rows {
				b := col[r]
				h[b].g += grad[r]
				h[b].h += hess[r]
				h[b].n++
			}
			hist[j] = h
		}
	})
	return hist
}

func subtractHist(parent, child [][]histBin) [][]histBin {
	out := make([][]histBin, len(parent))
	for j, ph := range parent {
		if ph == nil {
			continue
		}
		ch := child[j]
		h := make([]histBin, len(ph))
		for b := range ph {
			h[b] = histBin{g: ph[b].g - ch[b].g, h: ph[b].h - ch[b].h, n: ph[b].n - ch[b].n}
		}
		out[j] = h
	}
	return out
}

func (g *grower) findBest(l *leafState) *splitInfo {
	p := g.sp.p
	if p.MaxDepth > 0 && l.depth >= p.MaxDepth {
		return nil
	}
	if len(l.rows) < 2*max(p.MinDataInLeaf, 1) {
		return nil
	}
	bests := make([]*splitInfo, len(g.features))
	parallel.ParallelizeN(len(g.features), g.workers, func(start, end int) {
		for k := start; k < end; k++ {
			j := g.features[k]
			bests[k] = g.sp.bestForFeature(j, l.hist[j], l.sumG, l.sumH, len(l.rows))
		}
	})
	var best *splitInfo
	for _, s := range bests {
		if s != nil && (best == nil || s.gain > best.gain) {
			best = s
		}
	}
	return best
}

// grow fits a tree to the gradients of rows. features lists the feature
// indices the tree may split on.
func (g *grower) grow(rows, features []int, grad, hess []float64) *Tree {
	p := g.sp.p
	g.features = features

	root := &leafState{rows: rows, parent: -1}
	for _, r := range rows {
		root.sumG += grad[r]
		root.sumH += hess[r]
	}
	tree := newTree(leafOutput(root.sumG, root.sumH, p.LambdaL1, p.LambdaL2), len(rows))
	if len(rows) == 0 {
		return tree
	}
	root.hist = g.buildHist(rows, grad, hess)
	root.best = g.findBest(root)

	leaves := []*leafState{root}
	for tree.NumLeaves < p.NumLeaves {
		pick := -1
		for i, l := range leaves {
			if l.best != nil && (pick < 0 || l.best.gain > leaves[pick].best.gain) {
				pick = i
			}
		}
		if pick < 0 {
			break
		}

		l := leaves[pick]
		s := l.best
		m := g.sp.data.mappers[s.feature]
		var threshold float64
		var categories []int
		if s.leftBins != nil {
			categories = make([]int, len(s.leftBins))
			for i, b := range s.leftBins {
				categories[i] = m.Categories[b]
			}
			sort.Ints(categories)
		} else {
			threshold = m.UpperBounds[s.thresholdBin]
		}
		node, _ := tree.split(pick, l.parent, s, threshold, categories)

		col := g.sp.data.bins[s.feature]
		leftRows := make([]int, 0, s.leftCount)
		rightRows := make([]int, 0, s.rightCount)
		for _, r := range l.rows {
			if s.goesLeft(int(col[r]), m) {
				leftRows = append(leftRows, r)
			} else {
				rightRows = append(rightRows, r)
			}
		}

		left := &leafState{rows: leftRows, sumG: s.leftG, sumH: s.leftH, depth: l.depth + 1, parent: node}
		right := &leafState{rows: rightRows, sumG: s.rightG, sumH: s.rightH, depth: l.depth + 1, parent: node}
		if len(leftRows) <= len(rightRows) {
			left.hist = g.buildHist(leftRows, grad, hess)
			right.hist = subtractHist(l.hist, left.hist)
		} else {
			right.hist = g.buildHist(rightRows, grad, hess)
			left.hist = subtractHist(l.hist, right.hist)
		}
		l.hist = nil

		left.best = g.findBest(left)
		right.best = g.findBest(right)
		leaves[pick] = left
		leaves = append(leaves, right)
	}
	return tree
}
