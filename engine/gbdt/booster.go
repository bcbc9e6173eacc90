package gbdt

import (
	"io"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/koalaml/koala-lightgbm/core/model"
	"github.com/koalaml/koala-lightgbm/core/parallel"
	"github.com/koalaml/koala-lightgbm/pkg/errors"
)

// Booster is a trained tree ensemble.
type Booster struct {
	Objective           string  `json:"objective"`
	Sigmoid             float64 `json:"sigmoid"`
	Features            int     `json:"num_features"`
	CategoricalFeatures []int   `json:"categorical_feature,omitempty"`
	InitScore           float64 `json:"init_score"`
	Trees               []*Tree `json:"trees"`
	// BestIteration is the 1-based iteration chosen by early stopping, or 0
	// when every tree is used.
	BestIteration int `json:"best_iteration"`
}

// NumFeatures returns the number of input columns the booster expects.
func (b *Booster) NumFeatures() int { return b.Features }

// NumTrees returns the number of trees in the ensemble.
func (b *Booster) NumTrees() int { return len(b.Trees) }

// NumIterations returns the number of trees used at prediction time.
func (b *Booster) NumIterations() int { return len(b.activeTrees()) }

func (b *Booster) activeTrees() []*Tree {
	if b.BestIteration > 0 && b.BestIteration < len(b.Trees) {
		return b.Trees[:b.BestIteration]
	}
	return b.Trees
}

func (b *Booster) rawRow(row []float64) float64 {
	score := b.InitScore
	for _, t := range b.activeTrees() {
		score += t.Predict(row)
	}
	return score
}

func (b *Booster) transform(raw float64) float64 {
	if b.Objective == ObjectiveBinary {
		return 1 / (1 + math.Exp(-b.Sigmoid*raw))
	}
	return raw
}

// PredictRaw returns raw scores for every row of X, using up to numThreads
// goroutines (<= 0 means all cores).
func (b *Booster) PredictRaw(X mat.Matrix, numThreads int) (*mat.VecDense, error) {
	return b.predict(X, numThreads, false)
}

// Predict returns predictions on the output scale: raw values for
// regression, P(y=1) for binary classification.
func (b *Booster) Predict(X mat.Matrix, numThreads int) (*mat.VecDense, error) {
	return b.predict(X, numThreads, true)
}

func (b *Booster) predict(X mat.Matrix, numThreads int, transform bool) (*mat.VecDense, error) {
	if X == nil {
		return nil, errors.NewValueError("Predict", "nil matrix")
	}
	rows, cols := X.Dims()
	if cols != b.Features {
		return nil, errors.NewDimensionError("Predict", b.Features, cols, 1)
	}
	if rows == 0 {
		return nil, errors.Wrap(errors.ErrEmptyData, "Predict")
	}

	out := make([]float64, rows)
	dense, isDense := X.(*mat.Dense)
	parallel.ParallelizeWithThreshold(rows, 256, parallel.Workers(numThreads), func(start, end int) {
		buf := make([]float64, cols)
		for i := start; i < end; i++ {
			row := buf
			if isDense {
				row = dense.RawRowView(i)
			} else {
				mat.Row(buf, i, X)
			}
			raw := b.rawRow(row)
			if transform {
				raw = b.transform(raw)
			}
			out[i] = raw
		}
	})
	return mat.NewVecDense(rows, out), nil
}

// Save writes the booster in MessagePack form.
func (b *Booster) Save(w io.Writer) error {
	return model.SaveModelToWriter(b, w)
}

// LoadBooster reads a booster written by Save.
func LoadBooster(r io.Reader) (*Booster, error) {
	var b Booster
	if err := model.LoadModelFromReader(&b, r); err != nil {
		return nil, err
	}
	if b.Objective != ObjectiveRegression && b.Objective != ObjectiveBinary {
		return nil, errors.NewValidationError("objective", "unsupported objective in model", b.Objective)
	}
	return &b, nil
}

// FeatureImportance returns per-feature split counts ("split") or total
// split gain ("gain").
func (b *Booster) FeatureImportance(importanceType string) ([]float64, error) {
	if importanceType != "split" && importanceType != "gain" {
		return nil, errors.NewValidationError("importance_type", "must be split or gain", importanceType)
	}
	out := make([]float64, b.Features)
	for _, t := range b.activeTrees() {
		for node, f := range t.SplitFeature {
			if importanceType == "split" {
				out[f]++
			} else {
				out[f] += t.SplitGain[node]
			}
		}
	}
	return out, nil
}
