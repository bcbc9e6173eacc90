package gbdt

import (
	"math"
	"strings"

	"github.com/koalaml/koala-lightgbm/pkg/errors"
)

// Supported objectives.
const (
	ObjectiveRegression = "regression"
	ObjectiveBinary     = "binary"
)

func canonicalObjective(name string) string {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "regression", "regression_l2", "l2", "mean_squared_error", "mse", "l2_root", "root_mean_squared_error", "rmse":
		return ObjectiveRegression
	case "binary":
		return ObjectiveBinary
	default:
		return name
	}
}

// Objective computes first and second order gradients of a loss.
type Objective interface {
	// Name returns the canonical objective name.
	Name() string

	// Init validates labels and prepares per-label weights.
	Init(labels []float64) error

	// Gradients fills grad and hess for the given raw scores.
	Gradients(scores, grad, hess []float64)

	// BoostFromAverage returns the constant initial raw score.
	BoostFromAverage() float64

	// Transform converts a raw score to the output scale.
	Transform(raw float64) float64
}

func newObjective(p Params) (Objective, error) {
	switch p.Objective {
	case ObjectiveRegression:
		return &regressionL2{}, nil
	case ObjectiveBinary:
		return &binaryLogloss{sigmoid: p.Sigmoid, isUnbalance: p.IsUnbalance}, nil
	default:
		return nil, errors.NewValidationError("objective", "unsupported objective", p.Objective)
	}
}

// regressionL2 is the squared error objective.
type regressionL2 struct {
	labels []float64
}

func (o *regressionL2) Name() string { return ObjectiveRegression }

func (o *regressionL2) Init(labels []float64) error {
	for i, y := range labels {
		if math.IsNaN(y) || math.IsInf(y, 0) {
			return errors.NewValidationError("label", "must be finite", i)
		}
	}
	o.labels = labels
	return nil
}

func (o *regressionL2) Gradients(scores, grad, hess []float64) {
	for i, s := range scores {
		grad[i] = s - o.labels[i]
		hess[i] = 1
	}
}

func (o *regressionL2) BoostFromAverage() float64 {
	if len(o.labels) == 0 {
		return 0
	}
	sum := 0.0
	for _, y := range o.labels {
		sum += y
	}
	return sum / float64(len(o.labels))
}

func (o *regressionL2) Transform(raw float64) float64 { return raw }

// binaryLogloss is the logistic loss for 0/1 labels.
type binaryLogloss struct {
	sigmoid     float64
	isUnbalance bool
	labels      []float64
	// weight of the negative and positive class
	labelWeights [2]float64
}

func (o *binaryLogloss) Name() string { return ObjectiveBinary }

func (o *binaryLogloss) Init(labels []float64) error {
	var cntPos, cntNeg int
	for i, y := range labels {
		switch y {
		case 0:
			cntNeg++
		case 1:
			cntPos++
		default:
			return errors.NewValidationError("label", "binary labels must be 0 or 1", i)
		}
	}
	o.labels = labels
	o.labelWeights = [2]float64{1, 1}
	if o.isUnbalance && cntPos > 0 && cntNeg > 0 {
		if cntPos > cntNeg {
			o.labelWeights[0] = float64(cntPos) / float64(cntNeg)
		} else {
			o.labelWeights[1] = float64(cntNeg) / float64(cntPos)
		}
	}
	return nil
}

func (o *binaryLogloss) Gradients(scores, grad, hess []float64) {
	for i, s := range scores {
		// labels in {-1, +1}
		label := -1.0
		w := o.labelWeights[0]
		if o.labels[i] == 1 {
			label = 1
			w = o.labelWeights[1]
		}
		response := -label * o.sigmoid / (1 + math.Exp(label*o.sigmoid*s))
		abs := math.Abs(response)
		grad[i] = response * w
		hess[i] = abs * (o.sigmoid - abs) * w
	}
}

func (o *binaryLogloss) BoostFromAverage() float64 {
	var sumW, sumPos float64
	for _, y := range o.labels {
		if y == 1 {
			sumW += o.labelWeights[1]
			sumPos += o.labelWeights[1]
		} else {
			sumW += o.labelWeights[0]
		}
	}
	if sumW == 0 {
		return 0
	}
	pavg := sumPos / sumW
	pavg = math.Min(math.Max(pavg, 1e-15), 1-1e-15)
	return math.Log(pavg/(1-pavg)) / o.sigmoid
}

func (o *binaryLogloss) Transform(raw float64) float64 {
	return 1 / (1 + math.Exp(-o.sigmoid*raw))
}
