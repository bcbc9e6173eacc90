package lightgbm

import (
	"fmt"
	"math"
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/koalaml/koala-lightgbm/pkg/errors"
	"github.com/koalaml/koala-lightgbm/pkg/log"
	"github.com/koalaml/koala-lightgbm/preprocessing"
)

// FitCache is the owned training data produced by Setup and returned,
// post-split, by Fit.
type FitCache struct {
	X                  *mat.Dense
	Y                  *mat.VecDense
	CategoricalIndices []int
}

// Option configures a wrapper at construction.
type Option func(*estimator)

// WithEngine replaces the training engine.
func WithEngine(engine Engine) Option {
	return func(e *estimator) { e.Engine = engine }
}

// WithSeedSource replaces the source of seeds for parameters left at 0.
func WithSeedSource(s SeedSource) Option {
	return func(e *estimator) { e.Seeds = s }
}

// WithHyperparameters replaces the whole hyperparameter record.
func WithHyperparameters(h Hyperparameters) Option {
	return func(e *estimator) {
		kind := e.kind
		e.Hyperparameters = h
		e.Metric = append([]string(nil), h.Metric...)
		e.kind = kind
	}
}

// estimator holds the lifecycle shared by Regressor and BinaryClassifier.
type estimator struct {
	Hyperparameters

	// Engine trains and applies models. Defaults to GBDTEngine.
	Engine Engine
	// Seeds fills seed parameters left at 0. Defaults to WallClockSeed.
	Seeds SeedSource

	name       string
	loggerName string
}

func newEstimator(kind Kind, name, loggerName string, opts []Option) estimator {
	e := estimator{
		Hyperparameters: defaultHyperparameters(kind),
		Engine:          GBDTEngine{},
		Seeds:           WallClockSeed{},
		name:            name,
		loggerName:      loggerName,
	}
	for _, opt := range opts {
		opt(&e)
	}
	return e
}

// Kind returns the engine variant the wrapper trains.
func (e *estimator) Kind() Kind { return e.kind }

func (e *estimator) logger(verbosity int) log.Logger {
	return log.WithVerbosity(log.GetLoggerWithName(e.loggerName), verbosity)
}

// Setup validates X and y, resolves the scheme's categorical features to
// column indices and copies the data into owned storage. A nil scheme means
// no categorical features.
func (e *estimator) Setup(X mat.Matrix, y mat.Vector, scheme *preprocessing.TransformScheme, parallel bool, verbosity int) (*FitCache, error) {
	op := e.name + ".Setup"
	if X == nil || y == nil {
		return nil, errors.NewValueError(op, "X and y must not be nil")
	}
	rows, cols := X.Dims()
	if rows == 0 || cols == 0 {
		return nil, errors.Wrap(errors.ErrEmptyData, op)
	}
	if y.Len() != rows {
		return nil, errors.NewDimensionError(op, rows, y.Len(), 0)
	}

	var indices []int
	if scheme != nil {
		if cols != len(scheme.Features) {
			return nil, errors.NewDimensionError(op, len(scheme.Features), cols, 1)
		}
		var err error
		if indices, err = scheme.CategoricalIndices(); err != nil {
			return nil, err
		}
	}

	cache := &FitCache{
		X:                  mat.DenseCopyOf(X),
		Y:                  mat.VecDenseCopyOf(y),
		CategoricalIndices: indices,
	}
	e.logger(verbosity).Debug("setup completed",
		log.OperationKey, log.OperationSetup,
		log.SamplesKey, rows,
		log.FeaturesKey, cols,
		log.CategoricalKey, indices,
	)
	return cache, nil
}

// Fit trains on the cache. With validation_fraction f > 0 the first
// round(n*(1-f)) rows train the model and the rest are used for validation.
// add is accepted for lifecycle compatibility and ignored.
func (e *estimator) Fit(cache *FitCache, parallel bool, verbosity int, add bool) (pred Predictor, report *Report, next *FitCache, err error) {
	op := e.name + ".Fit"
	defer errors.Recover(&err, op)
	start := time.Now()
	logger := e.logger(verbosity).With(log.OperationKey, log.OperationFit)

	if cache == nil || cache.X == nil || cache.Y == nil {
		return nil, nil, nil, errors.NewValueError(op, "empty fit cache; call Setup first")
	}
	if e.Engine == nil {
		return nil, nil, nil, errors.NewValueError(op, "no engine configured")
	}
	if err := e.Hyperparameters.Validate(); err != nil {
		return nil, nil, nil, err
	}
	if add {
		logger.Debug("incremental fitting is not supported, training from scratch")
	}

	trainX, trainY, valid, err := e.split(cache)
	if err != nil {
		return nil, nil, nil, err
	}
	params := e.engineParams(parallel, cache.CategoricalIndices)

	trainRows, cols := trainX.Dims()
	validRows := 0
	if len(valid) > 0 {
		validRows, _ = valid[0].X.Dims()
	}
	logger.Info("training started",
		log.ModelNameKey, e.name,
		log.SamplesKey, trainRows,
		log.FeaturesKey, cols,
		log.ValidationSamplesKey, validRows,
		log.CategoricalKey, cache.CategoricalIndices,
		log.EngineKey, fmt.Sprintf("%T", e.Engine),
		log.ThreadsKey, params[ParamNumThreads],
	)
	logger.Debug("engine parameters", log.HyperParamsKey, params)

	pred, series, err := e.Engine.Train(e.kind, params, trainX, trainY, valid, verbosity)
	if err != nil {
		return nil, nil, nil, errors.NewModelError(op, e.kind.String(), err)
	}

	report = &Report{
		RMSRawValidationErrors: []float64{},
		TrainSamples:           trainRows,
		ValidationSamples:      validRows,
	}
	if pred != nil {
		report.BestIteration = pred.NumIterations()
	}
	if len(valid) > 0 && len(series) > 0 {
		report.RMSRawValidationErrors = append([]float64(nil), series[0].Values...)
		report.Metric = series[0].Metric
		report.History = series
	}

	logger.Info("training completed",
		log.BestIterationKey, report.BestIteration,
		log.DurationMsKey, time.Since(start).Milliseconds(),
	)
	next = &FitCache{
		X:                  trainX,
		Y:                  trainY,
		CategoricalIndices: append([]int(nil), cache.CategoricalIndices...),
	}
	return pred, report, next, nil
}

// split returns the training prefix and, when validation_fraction leaves at
// least one row, the validation suffix.
func (e *estimator) split(cache *FitCache) (*mat.Dense, *mat.VecDense, []Dataset, error) {
	n, cols := cache.X.Dims()
	if cache.Y.Len() != n {
		return nil, nil, nil, errors.NewDimensionError(e.name+".Fit", n, cache.Y.Len(), 0)
	}
	f := e.ValidationFraction
	if f == 0 {
		return cache.X, cache.Y, nil, nil
	}

	nTrain := TrainSize(n, f)
	if nTrain == 0 {
		return nil, nil, nil, errors.NewValidationError(ParamValidationFraction, "leaves no training rows", f)
	}
	if nTrain == n {
		errors.Warn(errors.NewEmptyValidationWarning(f, n))
		return cache.X, cache.Y, nil, nil
	}

	trainX := mat.DenseCopyOf(cache.X.Slice(0, nTrain, 0, cols))
	trainY := mat.VecDenseCopyOf(cache.Y.SliceVec(0, nTrain))
	validX := mat.DenseCopyOf(cache.X.Slice(nTrain, n, 0, cols))
	validY := mat.VecDenseCopyOf(cache.Y.SliceVec(nTrain, n))
	return trainX, trainY, []Dataset{{X: validX, Y: validY}}, nil
}

// TrainSize returns the number of leading rows kept for training when a
// fraction of n rows is held out. Halves round to even.
func TrainSize(n int, validationFraction float64) int {
	return int(math.RoundToEven(float64(n) * (1 - validationFraction)))
}

// engineParams snapshots the hyperparameters into the engine mapping.
func (e *estimator) engineParams(parallel bool, categorical []int) map[string]interface{} {
	params := e.Hyperparameters.Params()
	delete(params, ParamValidationFraction)

	seeds := e.Seeds
	if seeds == nil {
		seeds = WallClockSeed{}
	}
	for _, key := range []string{ParamFeatureFractionSeed, ParamBaggingSeed, ParamDataRandomSeed} {
		if s, ok := params[key].(int64); ok && s == 0 {
			params[key] = seeds.Seed()
		}
	}
	if !parallel {
		params[ParamNumThreads] = 1
	}
	params[ParamCategoricalFeature] = append([]int{}, categorical...)
	return params
}

// Predict applies a trained predictor to X. Prediction runs silently and
// the parallel flag has no effect.
func (e *estimator) Predict(p Predictor, X mat.Matrix, parallel bool, verbosity int) (*mat.VecDense, error) {
	if p == nil {
		return nil, errors.NewNotFittedError(e.name, "Predict")
	}
	if X == nil {
		return nil, errors.NewValueError(e.name+".Predict", "X must not be nil")
	}
	if e.Engine == nil {
		return nil, errors.NewValueError(e.name+".Predict", "no engine configured")
	}
	return e.Engine.Predict(p, X)
}
