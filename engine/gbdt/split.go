package gbdt

import (
	"math"
	"sort"
)

const kEpsilon = 1e-15

type histBin struct {
	g, h float64
	n    int
}

// splitInfo describes the best split found for one leaf.
type splitInfo struct {
	feature      int
	gain         float64
	thresholdBin int
	defaultLeft  bool
	// bins sent left by a categorical split; nil for numerical splits
	leftBins []int

	leftG, leftH   float64
	leftCount      int
	rightG, rightH float64
	rightCount     int

	leftOutput, rightOutput float64
}

func thresholdL1(g, l1 float64) float64 {
	reg := math.Max(0, math.Abs(g)-l1)
	if g < 0 {
		return -reg
	}
	return reg
}

func leafOutput(g, h, l1, l2 float64) float64 {
	return -thresholdL1(g, l1) / (h + l2 + kEpsilon)
}

func leafGain(g, h, l1, l2 float64) float64 {
	t := thresholdL1(g, l1)
	return t * t / (h + l2 + kEpsilon)
}

type splitter struct {
	p    Params
	data *binnedData
}

func (sp *splitter) feasible(n int, h float64) bool {
	return n >= sp.p.MinDataInLeaf && h >= sp.p.MinSumHessianInLeaf
}

// finish fills outputs and the reported gain of a candidate split.
func (sp *splitter) finish(s *splitInfo, l2, parentGain float64) {
	l1 := sp.p.LambdaL1
	s.leftOutput = leafOutput(s.leftG, s.leftH, l1, l2)
	s.rightOutput = leafOutput(s.rightG, s.rightH, l1, l2)
	s.gain -= parentGain
}

// numerical scans thresholds left to right, trying the missing bin on both
// sides when it holds data.
func (sp *splitter) numerical(j int, hist []histBin, sumG, sumH float64, n int) *splitInfo {
	l1, l2 := sp.p.LambdaL1, sp.p.LambdaL2
	parentGain := leafGain(sumG, sumH, l1, l2)
	minGainShift := parentGain + sp.p.MinGainToSplit

	missing := hist[len(hist)-1]
	valueBins := len(hist) - 1
	directions := []bool{false}
	if missing.n > 0 {
		directions = append(directions, true)
	}

	var best *splitInfo
	for _, missingLeft := range directions {
		var lg, lh float64
		var ln int
		if missingLeft {
			lg, lh, ln = missing.g, missing.h, missing.n
		}
		// with data in the missing bin, the last threshold isolates NaN
		limit := valueBins - 1
		if missing.n > 0 && !missingLeft {
			limit = valueBins
		}
		for t := 0; t < limit; t++ {
			lg += hist[t].g
			lh += hist[t].h
			ln += hist[t].n
			if hist[t].n == 0 && t > 0 && t < valueBins-1 {
				continue
			}
			rg, rh, rn := sumG-lg, sumH-lh, n-ln
			if !sp.feasible(ln, lh) {
				continue
			}
			if !sp.feasible(rn, rh) {
				break
			}
			gain := leafGain(lg, lh, l1, l2) + leafGain(rg, rh, l1, l2)
			if gain <= minGainShift {
				continue
			}
			if best == nil || gain > best.gain {
				best = &splitInfo{
					feature:      j,
					gain:         gain,
					thresholdBin: t,
					defaultLeft:  missingLeft,
					leftG:        lg, leftH: lh, leftCount: ln,
					rightG: rg, rightH: rh, rightCount: rn,
				}
			}
		}
	}
	if best != nil {
		sp.finish(best, l2, parentGain)
	}
	return best
}

// categorical tries one-vs-rest splits for low cardinality features and a
// gradient-ordered prefix scan otherwise. The "other" bin always goes right.
func (sp *splitter) categorical(j int, hist []histBin, sumG, sumH float64, n int) *splitInfo {
	l1 := sp.p.LambdaL1
	other := len(hist) - 1

	var used []int
	for b := 0; b < other; b++ {
		if hist[b].n > 0 {
			used = append(used, b)
		}
	}
	if len(used) == 0 {
		return nil
	}

	var best *splitInfo
	consider := func(left []int, l2, parentGain float64) {
		var lg, lh float64
		var ln int
		for _, b := range left {
			lg += hist[b].g
			lh += hist[b].h
			ln += hist[b].n
		}
		rg, rh, rn := sumG-lg, sumH-lh, n-ln
		if !sp.feasible(ln, lh) || !sp.feasible(rn, rh) {
			return
		}
		gain := leafGain(lg, lh, l1, l2) + leafGain(rg, rh, l1, l2)
		if gain <= parentGain+sp.p.MinGainToSplit {
			return
		}
		if best == nil || gain > best.gain {
			best = &splitInfo{
				feature:  j,
				gain:     gain,
				leftBins: append([]int(nil), left...),
				leftG:    lg, leftH: lh, leftCount: ln,
				rightG: rg, rightH: rh, rightCount: rn,
			}
		}
	}

	if len(used) <= sp.p.MaxCatToOnehot {
		l2 := sp.p.LambdaL2
		parentGain := leafGain(sumG, sumH, l1, l2)
		for _, b := range used {
			consider([]int{b}, l2, parentGain)
		}
		if best != nil {
			sp.finish(best, l2, parentGain)
		}
		return best
	}

	l2 := sp.p.LambdaL2 + sp.p.CatL2
	parentGain := leafGain(sumG, sumH, l1, l2)
	var candidates []int
	for _, b := range used {
		if hist[b].n >= sp.p.MinDataPerGroup {
			candidates = append(candidates, b)
		}
	}
	if len(candidates) < 2 {
		return nil
	}
	smooth := sp.p.CatSmooth
	sort.SliceStable(candidates, func(a, b int) bool {
		ca, cb := hist[candidates[a]], hist[candidates[b]]
		return ca.g/(ca.h+smooth) < cb.g/(cb.h+smooth)
	})

	maxTake := min(sp.p.MaxCatThreshold, (len(candidates)+1)/2)
	for _, reverse := range []bool{false, true} {
		left := make([]int, 0, maxTake)
		for k := 0; k < maxTake; k++ {
			idx := k
			if reverse {
				idx = len(candidates) - 1 - k
			}
			left = append(left, candidates[idx])
			consider(left, l2, parentGain)
		}
	}
	if best != nil {
		sp.finish(best, l2, parentGain)
	}
	return best
}

func (sp *splitter) bestForFeature(j int, hist []histBin, sumG, sumH float64, n int) *splitInfo {
	m := sp.data.mappers[j]
	if m.IsTrivial() || hist == nil {
		return nil
	}
	if m.Categorical {
		return sp.categorical(j, hist, sumG, sumH, n)
	}
	return sp.numerical(j, hist, sumG, sumH, n)
}

// goesLeft applies a split to a training row's bin.
func (s *splitInfo) goesLeft(bin int, m *BinMapper) bool {
	if s.leftBins != nil {
		for _, b := range s.leftBins {
			if b == bin {
				return true
			}
		}
		return false
	}
	if bin == m.MissingBin() {
		return s.defaultLeft
	}
	return bin <= s.thresholdBin
}
