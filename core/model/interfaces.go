// Package model defines the generic model lifecycle shared by the
// preprocessing transformer and the boosting wrappers.
//
// A supervised model is driven in three steps: Setup validates and caches the
// training data, Fit trains on the cache and returns an opaque predictor plus
// a report, Predict applies a predictor to new rows.
package model

import (
	"gonum.org/v1/gonum/mat"

	"github.com/koalaml/koala-lightgbm/core/table"
)

// Supervised is the setup/fit/predict lifecycle of a supervised model.
//
// S is the preprocessing scheme consumed by Setup, C the fit cache, P the
// trained predictor and R the fit report.
type Supervised[S, C, P, R any] interface {
	// Setup validates X and y against the scheme and returns an owned cache.
	Setup(X mat.Matrix, y mat.Vector, scheme S, parallel bool, verbosity int) (C, error)

	// Fit trains on the cache. add requests incremental training and may be
	// ignored by implementations that cannot continue a model.
	Fit(cache C, parallel bool, verbosity int, add bool) (P, R, C, error)

	// Predict applies a trained predictor to X.
	Predict(predictor P, X mat.Matrix, parallel bool, verbosity int) (*mat.VecDense, error)

	ParameterGetter
}

// TableTransformer fits a scheme on a table and applies it to tables.
type TableTransformer[S any] interface {
	// Fit learns a scheme from the table.
	Fit(t *table.Table, parallel bool, verbosity int) (S, error)

	// Transform applies a fitted scheme and returns a dense float matrix.
	Transform(scheme S, t *table.Table) (*mat.Dense, error)
}

// ParameterGetter is the interface for models that expose their parameters.
type ParameterGetter interface {
	// Params returns the model's hyperparameters keyed by name.
	Params() map[string]interface{}
}

// ParameterSetter is the interface for models that allow parameter modification.
type ParameterSetter interface {
	// SetParams sets hyperparameters by name.
	SetParams(params map[string]interface{}) error
}
