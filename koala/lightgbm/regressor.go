package lightgbm

import (
	"github.com/koalaml/koala-lightgbm/core/model"
	"github.com/koalaml/koala-lightgbm/preprocessing"
)

// Regressor trains gradient boosted regression trees with the L2 objective.
//
// Example:
//
//	reg := lightgbm.NewRegressor()
//	reg.WithNumIterations(100).WithValidationFraction(0.2)
//	cache, err := reg.Setup(X, y, scheme, true, 0)
//	pred, report, _, err := reg.Fit(cache, true, 0, false)
//	yHat, err := reg.Predict(pred, Xtest, true, 0)
type Regressor struct {
	estimator
}

var (
	_ model.Supervised[*preprocessing.TransformScheme, *FitCache, Predictor, *Report] = (*Regressor)(nil)
	_ model.ParameterSetter                                                            = (*Regressor)(nil)
)

// NewRegressor creates a regressor with default hyperparameters.
func NewRegressor(opts ...Option) *Regressor {
	return &Regressor{newEstimator(KindRegression, "Regressor", "lightgbm.regressor", opts)}
}
