package lightgbm

import (
	"gonum.org/v1/gonum/mat"

	"github.com/koalaml/koala-lightgbm/core/model"
	"github.com/koalaml/koala-lightgbm/pkg/errors"
	"github.com/koalaml/koala-lightgbm/preprocessing"
)

// BinaryClassifier trains gradient boosted trees with the logistic loss.
// Labels must be 0 or 1 and Predict returns P(y=1).
type BinaryClassifier struct {
	estimator
}

var (
	_ model.Supervised[*preprocessing.TransformScheme, *FitCache, Predictor, *Report] = (*BinaryClassifier)(nil)
	_ model.ParameterSetter                                                            = (*BinaryClassifier)(nil)
)

// NewBinaryClassifier creates a binary classifier with default hyperparameters.
func NewBinaryClassifier(opts ...Option) *BinaryClassifier {
	return &BinaryClassifier{newEstimator(KindBinary, "BinaryClassifier", "lightgbm.classifier", opts)}
}

// WithIsUnbalance reweights the classes by their inverse frequency.
func (c *BinaryClassifier) WithIsUnbalance(v bool) *BinaryClassifier {
	c.IsUnbalance = v
	return c
}

// PredictLabels thresholds the predicted probabilities into 0/1 labels.
func (c *BinaryClassifier) PredictLabels(p Predictor, X mat.Matrix, threshold float64) (*mat.VecDense, error) {
	if threshold <= 0 || threshold >= 1 {
		return nil, errors.NewValidationError("threshold", "must be in (0, 1)", threshold)
	}
	probs, err := c.Predict(p, X, true, -1)
	if err != nil {
		return nil, err
	}
	labels := mat.NewVecDense(probs.Len(), nil)
	for i := 0; i < probs.Len(); i++ {
		if probs.AtVec(i) > threshold {
			labels.SetVec(i, 1)
		}
	}
	return labels, nil
}
