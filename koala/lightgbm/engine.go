package lightgbm

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/koalaml/koala-lightgbm/engine/gbdt"
	"github.com/koalaml/koala-lightgbm/pkg/errors"
)

// Kind selects the engine's regression or binary classification variant.
type Kind int

const (
	KindRegression Kind = iota
	KindBinary
)

func (k Kind) String() string {
	switch k {
	case KindRegression:
		return "regression"
	case KindBinary:
		return "binary"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Dataset is a validation pair handed to the engine.
type Dataset struct {
	X *mat.Dense
	Y *mat.VecDense
}

// MetricSeries is the per-iteration value of one metric on the validation set.
type MetricSeries struct {
	Metric string    `json:"metric"`
	Values []float64 `json:"values"`
}

// Predictor is an opaque trained model returned by an Engine.
type Predictor interface {
	// NumFeatures returns the number of input columns the model expects.
	NumFeatures() int
	// NumIterations returns the number of boosting iterations used at
	// prediction time.
	NumIterations() int
}

// Engine trains and applies gradient boosting models.
type Engine interface {
	// Train fits a model on X and y. valid holds at most one validation
	// pair; the returned series are its per-metric errors in metric order.
	Train(kind Kind, params map[string]interface{}, X *mat.Dense, y *mat.VecDense, valid []Dataset, verbosity int) (Predictor, []MetricSeries, error)

	// Predict returns raw predictions for regression and P(y=1) for binary
	// classification.
	Predict(p Predictor, X mat.Matrix) (*mat.VecDense, error)
}

// GBDTEngine runs the built-in histogram GBDT engine.
type GBDTEngine struct {
	// PredictThreads bounds prediction parallelism; 0 uses every core.
	PredictThreads int
}

// validName is the dataset name the engine reports validation metrics under.
const validName = "valid_0"

// Train implements Engine.
func (e GBDTEngine) Train(kind Kind, params map[string]interface{}, X *mat.Dense, y *mat.VecDense, valid []Dataset, verbosity int) (Predictor, []MetricSeries, error) {
	raw := make(map[string]interface{}, len(params)+2)
	for k, v := range params {
		raw[k] = v
	}
	raw["objective"] = kind.String()
	raw["verbosity"] = verbosity

	sets := make([]gbdt.Dataset, len(valid))
	for i, v := range valid {
		sets[i] = gbdt.Dataset{Name: fmt.Sprintf("valid_%d", i), X: v.X, Y: v.Y}
	}
	res, err := gbdt.Train(raw, gbdt.Dataset{Name: gbdt.TrainingSetName, X: X, Y: y}, sets...)
	if err != nil {
		return nil, nil, err
	}

	var series []MetricSeries
	for _, rec := range res.History {
		if rec.Dataset == validName {
			series = append(series, MetricSeries{Metric: rec.Metric, Values: rec.Values})
		}
	}
	return res.Booster, series, nil
}

// Predict implements Engine.
func (e GBDTEngine) Predict(p Predictor, X mat.Matrix) (*mat.VecDense, error) {
	b, ok := p.(*gbdt.Booster)
	if !ok {
		return nil, errors.NewValueError("Predict", fmt.Sprintf("predictor of type %T was not trained by this engine", p))
	}
	return b.Predict(X, e.PredictThreads)
}
