package gbdt

import (
	"math"
	"math/rand"
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/koalaml/koala-lightgbm/core/parallel"
)

// BinMapper discretises one feature.
//
// Numerical features map a value v to the first bin whose upper bound is
// >= v; NaN goes to a dedicated missing bin after the value bins.
// Categorical features map each retained category to its own bin and every
// other value (negative, NaN, rare or unseen) to a trailing "other" bin.
type BinMapper struct {
	Categorical bool      `json:"categorical"`
	UpperBounds []float64 `json:"upper_bounds,omitempty"`
	Categories  []int     `json:"categories,omitempty"`
	HasMissing  bool      `json:"has_missing"`

	catBins map[int]int
}

// NumBins returns the number of bins including the missing/other bin.
func (m *BinMapper) NumBins() int {
	if m.Categorical {
		return len(m.Categories) + 1
	}
	return len(m.UpperBounds) + 1
}

// MissingBin returns the index of the missing (numerical) or other
// (categorical) bin.
func (m *BinMapper) MissingBin() int { return m.NumBins() - 1 }

// ValueToBin maps a raw feature value to its bin.
func (m *BinMapper) ValueToBin(v float64) int {
	if m.Categorical {
		if math.IsNaN(v) || v < 0 {
			return m.MissingBin()
		}
		if b, ok := m.catBins[int(v)]; ok {
			return b
		}
		return m.MissingBin()
	}
	if math.IsNaN(v) {
		return m.MissingBin()
	}
	return sort.SearchFloat64s(m.UpperBounds, v)
}

// IsTrivial reports whether the feature cannot be split on.
func (m *BinMapper) IsTrivial() bool {
	if m.Categorical {
		return len(m.Categories) == 0
	}
	return len(m.UpperBounds) <= 1 && !m.HasMissing
}

func newNumericalMapper(sample []float64, maxBin int) *BinMapper {
	values := make([]float64, 0, len(sample))
	hasMissing := false
	for _, v := range sample {
		if math.IsNaN(v) {
			hasMissing = true
			continue
		}
		values = append(values, v)
	}
	sort.Float64s(values)

	var distinct []float64
	var counts []int
	for i, v := range values {
		if i == 0 || v != values[i-1] {
			distinct = append(distinct, v)
			counts = append(counts, 1)
			continue
		}
		counts[len(counts)-1]++
	}

	// one bin is reserved for NaN
	valueBins := maxBin - 1
	if valueBins < 1 {
		valueBins = 1
	}

	var bounds []float64
	if len(distinct) <= valueBins {
		for i := 0; i+1 < len(distinct); i++ {
			bounds = append(bounds, (distinct[i]+distinct[i+1])/2)
		}
	} else {
		// greedy equal-frequency binning over distinct values
		perBin := float64(len(values)) / float64(valueBins)
		acc := 0
		for i := 0; i+1 < len(distinct) && len(bounds) < valueBins-1; i++ {
			acc += counts[i]
			if float64(acc) >= perBin*float64(len(bounds)+1) {
				bounds = append(bounds, (distinct[i]+distinct[i+1])/2)
			}
		}
	}
	bounds = append(bounds, math.Inf(1))
	return &BinMapper{UpperBounds: bounds, HasMissing: hasMissing}
}

func newCategoricalMapper(sample []float64, maxBin int) *BinMapper {
	counts := map[int]int{}
	for _, v := range sample {
		if math.IsNaN(v) || v < 0 {
			continue
		}
		counts[int(v)]++
	}
	cats := make([]int, 0, len(counts))
	for c := range counts {
		cats = append(cats, c)
	}
	// most frequent first, ties by category value
	sort.Slice(cats, func(i, j int) bool {
		if counts[cats[i]] != counts[cats[j]] {
			return counts[cats[i]] > counts[cats[j]]
		}
		return cats[i] < cats[j]
	})
	if len(cats) > maxBin-1 {
		cats = cats[:maxBin-1]
	}
	m := &BinMapper{Categorical: true, Categories: cats}
	m.index()
	return m
}

func (m *BinMapper) index() {
	if !m.Categorical {
		return
	}
	m.catBins = make(map[int]int, len(m.Categories))
	for b, c := range m.Categories {
		m.catBins[c] = b
	}
}

// binnedData holds the bin index of every training row, one slice per feature.
type binnedData struct {
	mappers []*BinMapper
	bins    [][]uint32
	rows    int
}

func sampleRows(n, cnt int, seed int64) []int {
	if cnt <= 0 || n <= cnt {
		rows := make([]int, n)
		for i := range rows {
			rows[i] = i
		}
		return rows
	}
	rng := rand.New(rand.NewSource(seed))
	rows := rng.Perm(n)[:cnt]
	sort.Ints(rows)
	return rows
}

func constructBins(X *mat.Dense, p Params, workers int) *binnedData {
	rows, cols := X.Dims()
	isCat := make([]bool, cols)
	for _, j := range p.CategoricalFeature {
		if j < cols {
			isCat[j] = true
		}
	}
	sample := sampleRows(rows, p.BinConstructSampleCnt, p.DataRandomSeed)

	d := &binnedData{
		mappers: make([]*BinMapper, cols),
		bins:    make([][]uint32, cols),
		rows:    rows,
	}
	parallel.ParallelizeN(cols, workers, func(start, end int) {
		values := make([]float64, len(sample))
		for j := start; j < end; j++ {
			for k, i := range sample {
				values[k] = X.At(i, j)
			}
			if isCat[j] {
				d.mappers[j] = newCategoricalMapper(values, p.MaxBin)
			} else {
				d.mappers[j] = newNumericalMapper(values, p.MaxBin)
			}
			col := make([]uint32, rows)
			for i := 0; i < rows; i++ {
				col[i] = uint32(d.mappers[j].ValueToBin(X.At(i, j)))
			}
			d.bins[j] = col
		}
	})
	return d
}
