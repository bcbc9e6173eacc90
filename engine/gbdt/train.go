// Package gbdt is a histogram-based gradient boosting engine with a
// LightGBM-style native API: parameters are passed as a name/value mapping
// (aliases included) and training returns a Booster plus the per-iteration
// evaluation history of every metric on every evaluation set.
//
//	res, err := gbdt.Train(map[string]interface{}{
//	    "objective":      "binary",
//	    "num_iterations": 50,
//	    "metric":         []string{"auc"},
//	}, gbdt.Dataset{X: X, Y: y}, gbdt.Dataset{X: Xv, Y: yv})
//	probs, err := res.Booster.Predict(Xtest, 0)
//
// Leaves are grown best-first with L1/L2 regularised gains, categorical
// features are split either one-vs-rest or by a gradient-ordered category
// prefix, and bagging and feature subsampling are driven by their own seeds.
package gbdt

import (
	"bufio"
	"fmt"
	"math/rand"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/koalaml/koala-lightgbm/core/parallel"
	"github.com/koalaml/koala-lightgbm/pkg/errors"
	"github.com/koalaml/koala-lightgbm/pkg/log"
)

// TrainingSetName names the training set in the evaluation history.
const TrainingSetName = "training"

// Dataset is a feature matrix with labels and optional per-row initial scores.
type Dataset struct {
	Name      string
	X         *mat.Dense
	Y         *mat.VecDense
	InitScore []float64
}

// EvalRecord is the per-iteration history of one metric on one dataset.
type EvalRecord struct {
	Dataset string    `json:"dataset"`
	Metric  string    `json:"metric"`
	Values  []float64 `json:"values"`
}

// Result is the outcome of Train.
type Result struct {
	Booster *Booster
	History []EvalRecord
	// Params are the parsed parameters training ran with.
	Params Params
}

type evalSet struct {
	name   string
	X      *mat.Dense
	labels []float64
	scores []float64
	// shares its scores with the training set
	isTrain bool
}

func labelsOf(op string, ds Dataset) ([]float64, error) {
	if ds.X == nil || ds.X.IsEmpty() {
		return nil, errors.Wrap(errors.ErrEmptyData, op)
	}
	rows, _ := ds.X.Dims()
	if ds.Y == nil || ds.Y.IsEmpty() {
		return nil, errors.NewValueError(op, "missing labels")
	}
	if ds.Y.Len() != rows {
		return nil, errors.NewDimensionError(op, rows, ds.Y.Len(), 0)
	}
	labels := make([]float64, rows)
	for i := range labels {
		labels[i] = ds.Y.AtVec(i)
	}
	return labels, nil
}

// ReadInitScores reads one initial score per line.
func ReadInitScores(path string) ([]float64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open init score file")
	}
	defer f.Close()

	var scores []float64
	sc := bufio.NewScanner(f)
	for line := 1; sc.Scan(); line++ {
		text := strings.TrimSpace(sc.Text())
		if text == "" {
			continue
		}
		v, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return nil, errors.Wrapf(err, "init score file line %d", line)
		}
		scores = append(scores, v)
	}
	if err := sc.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to read init score file")
	}
	return scores, nil
}

// Train fits a booster on train, evaluating metrics on valid after every
// iteration. Early stopping watches the first metric of the first
// validation set.
func Train(raw map[string]interface{}, train Dataset, valid ...Dataset) (res *Result, err error) {
	defer errors.Recover(&err, "gbdt.Train")
	start := time.Now()

	p, unknown, err := ParseParams(ObjectiveRegression, raw)
	if err != nil {
		return nil, err
	}
	logger := log.WithVerbosity(log.GetLoggerWithName("gbdt.trainer"), p.Verbosity).With(
		log.OperationKey, log.OperationFit,
	)
	for _, name := range unknown {
		logger.Warn("unknown parameter: "+name, "param", name)
	}
	if p.SaveBinary || p.HistogramPoolSize > 0 || !p.IsSparse {
		logger.Debug("dataset storage parameters have no effect",
			"save_binary", p.SaveBinary, "histogram_pool_size", p.HistogramPoolSize, "is_sparse", p.IsSparse)
	}

	labels, err := labelsOf("Train", train)
	if err != nil {
		return nil, err
	}
	X := train.X
	rows, cols := X.Dims()
	for _, j := range p.CategoricalFeature {
		if j >= cols {
			return nil, errors.NewValidationError("categorical_feature", fmt.Sprintf("index out of range for %d features", cols), j)
		}
	}

	initScore := train.InitScore
	if initScore == nil && p.InitScoreFile != "" {
		if initScore, err = ReadInitScores(p.InitScoreFile); err != nil {
			return nil, err
		}
	}
	if initScore != nil && len(initScore) != rows {
		return nil, errors.NewDimensionError("init_score", rows, len(initScore), 0)
	}

	obj, err := newObjective(p)
	if err != nil {
		return nil, err
	}
	if err := obj.Init(labels); err != nil {
		return nil, err
	}
	metricNames, err := resolveMetrics(p.Metric, p.Objective)
	if err != nil {
		return nil, err
	}

	workers := parallel.Workers(p.NumThreads)
	data := constructBins(X, p, workers)

	booster := &Booster{
		Objective:           p.Objective,
		Sigmoid:             p.Sigmoid,
		Features:            cols,
		CategoricalFeatures: append([]int(nil), p.CategoricalFeature...),
	}
	if initScore == nil {
		booster.InitScore = obj.BoostFromAverage()
	}
	trainScores := make([]float64, rows)
	for i := range trainScores {
		trainScores[i] = booster.InitScore
		if initScore != nil {
			trainScores[i] += initScore[i]
		}
	}

	var evals []*evalSet
	if p.IsTrainingMetric {
		evals = append(evals, &evalSet{name: TrainingSetName, X: X, labels: labels, scores: trainScores, isTrain: true})
	}
	firstValid := len(evals)
	for k, v := range valid {
		vLabels, err := labelsOf("Train", v)
		if err != nil {
			return nil, errors.Wrapf(err, "validation set %d", k)
		}
		if _, c := v.X.Dims(); c != cols {
			return nil, errors.NewDimensionError("Train", cols, c, 1)
		}
		name := v.Name
		if name == "" {
			name = fmt.Sprintf("valid_%d", k)
		}
		scores := make([]float64, len(vLabels))
		for i := range scores {
			scores[i] = booster.InitScore
			if v.InitScore != nil {
				if len(v.InitScore) != len(vLabels) {
					return nil, errors.NewDimensionError("init_score", len(vLabels), len(v.InitScore), 0)
				}
				scores[i] += v.InitScore[i]
			}
		}
		evals = append(evals, &evalSet{name: name, X: v.X, labels: vLabels, scores: scores})
	}

	history := make([]EvalRecord, 0, len(evals)*len(metricNames))
	for _, e := range evals {
		for _, m := range metricNames {
			history = append(history, EvalRecord{Dataset: e.name, Metric: m})
		}
	}

	earlyStopping := p.EarlyStoppingRound > 0 && len(valid) > 0 && len(metricNames) > 0
	if p.EarlyStoppingRound > 0 && !earlyStopping {
		logger.Warn("early stopping requires at least one validation set and metric")
	}

	logger.Info("training started",
		log.SamplesKey, rows,
		log.FeaturesKey, cols,
		log.CategoricalKey, p.CategoricalFeature,
		log.LearningRateKey, p.LearningRate,
		log.ThreadsKey, workers,
	)

	grad := make([]float64, rows)
	hess := make([]float64, rows)
	allRows := make([]int, rows)
	for i := range allRows {
		allRows[i] = i
	}
	allFeatures := make([]int, cols)
	for j := range allFeatures {
		allFeatures[j] = j
	}
	bagRng := rand.New(rand.NewSource(p.BaggingSeed))
	featRng := rand.New(rand.NewSource(p.FeatureFractionSeed))
	useBagging := p.BaggingFreq > 0 && p.BaggingFraction < 1
	bagRows := allRows

	g := newGrower(p, data, workers)
	bestIter, bestScore, sinceBest := -1, 0.0, 0

	for iter := 0; iter < p.NumIterations; iter++ {
		obj.Gradients(trainScores, grad, hess)
		if err := errors.CheckNumericalStability("gradients", grad, iter); err != nil {
			return nil, err
		}

		if useBagging && iter%p.BaggingFreq == 0 {
			cnt := max(1, int(p.BaggingFraction*float64(rows)))
			bagRows = bagRng.Perm(rows)[:cnt]
			sort.Ints(bagRows)
		}
		features := allFeatures
		if p.FeatureFraction < 1 {
			cnt := max(1, int(p.FeatureFraction*float64(cols)+0.5))
			features = featRng.Perm(cols)[:cnt]
			sort.Ints(features)
		}

		tree := g.grow(bagRows, features, grad, hess)
		if tree.NumLeaves <= 1 {
			logger.Warn("stopped training because there are no more leaves that meet the split requirements",
				log.IterationKey, iter)
			break
		}
		tree.shrink(p.LearningRate)
		booster.Trees = append(booster.Trees, tree)
		logger.Debug("tree added", log.IterationKey, iter, log.LeavesKey, tree.NumLeaves)

		addTreeScores(tree, X, trainScores, workers)
		for _, e := range evals {
			if !e.isTrain {
				addTreeScores(tree, e.X, e.scores, workers)
			}
		}

		k := 0
		for _, e := range evals {
			preds := make([]float64, len(e.scores))
			for i, s := range e.scores {
				preds[i] = obj.Transform(s)
			}
			for _, m := range metricNames {
				v, err := evalMetric(m, e.labels, preds)
				if err != nil {
					return nil, errors.Wrapf(err, "%s's %s", e.name, m)
				}
				if err := errors.CheckScalar(m, v, iter); err != nil {
					return nil, err
				}
				history[k].Values = append(history[k].Values, v)
				if (iter+1)%p.MetricFreq == 0 {
					logger.Info(fmt.Sprintf("[%d] %s's %s: %g", iter+1, e.name, m, v),
						log.IterationKey, iter+1, log.MetricKey, m, log.MetricValueKey, v)
				}
				k++
			}
		}

		if earlyStopping {
			v := history[firstValid*len(metricNames)].Values[iter]
			m := metricNames[0]
			if bestIter < 0 || (higherBetter(m) && v > bestScore) || (!higherBetter(m) && v < bestScore) {
				bestIter, bestScore, sinceBest = iter, v, 0
			} else {
				sinceBest++
			}
			if sinceBest >= p.EarlyStoppingRound {
				logger.Info("early stopping", log.IterationKey, iter+1, log.BestIterationKey, bestIter+1)
				break
			}
		}
	}

	if earlyStopping && bestIter >= 0 {
		booster.BestIteration = bestIter + 1
	}

	logger.Info("training completed",
		"trees", len(booster.Trees),
		log.BestIterationKey, booster.BestIteration,
		log.DurationMsKey, time.Since(start).Milliseconds(),
	)
	return &Result{Booster: booster, History: history, Params: p}, nil
}

func addTreeScores(t *Tree, X *mat.Dense, scores []float64, workers int) {
	parallel.ParallelizeWithThreshold(len(scores), 1024, workers, func(start, end int) {
		for i := start; i < end; i++ {
			scores[i] += t.Predict(X.RawRowView(i))
		}
	})
}
