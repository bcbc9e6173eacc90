package lightgbm

import (
	"sort"
	"strings"

	"github.com/koalaml/koala-lightgbm/core/model"
	"github.com/koalaml/koala-lightgbm/engine/gbdt"
	"github.com/koalaml/koala-lightgbm/pkg/errors"
)

// Parameter names that the wrappers treat specially.
const (
	ParamValidationFraction  = "validation_fraction"
	ParamFeatureFractionSeed = "feature_fraction_seed"
	ParamBaggingSeed         = "bagging_seed"
	ParamDataRandomSeed      = "data_random_seed"
	ParamNumThreads          = "num_threads"
	ParamCategoricalFeature  = "categorical_feature"
	ParamIsUnbalance         = "is_unbalance"
)

// Hyperparameters is the training configuration of a wrapper. It is copied
// into the engine's parameter mapping at fit time and never modified by Fit.
//
// A seed left at 0 is replaced by the wrapper's seed source when fitting.
type Hyperparameters struct {
	NumIterations       int
	LearningRate        float64
	NumLeaves           int
	MaxDepth            int
	TreeLearner         string
	NumThreads          int // 0 uses every core
	HistogramPoolSize   float64
	MinDataInLeaf       int
	MinSumHessianInLeaf float64
	LambdaL1            float64
	LambdaL2            float64
	MinGainToSplit      float64
	FeatureFraction     float64
	FeatureFractionSeed int64
	BaggingFraction     float64
	BaggingFreq         int
	BaggingSeed         int64
	EarlyStoppingRound  int
	MaxBin              int
	DataRandomSeed      int64
	InitScore           string // path of an initial score file
	IsSparse            bool
	SaveBinary          bool
	MaxCatToOnehot      int
	CatSmooth           float64
	CatL2               float64
	Metric              []string
	MetricFreq          int
	IsTrainingMetric    bool
	// IsUnbalance only applies to binary classification.
	IsUnbalance bool
	// ValidationFraction is the trailing share of rows held out for
	// validation. It is never passed to the engine.
	ValidationFraction float64

	kind Kind
}

func defaultHyperparameters(kind Kind) Hyperparameters {
	h := Hyperparameters{
		NumIterations:       10,
		LearningRate:        0.1,
		NumLeaves:           127,
		MaxDepth:            -1,
		TreeLearner:         "serial",
		HistogramPoolSize:   -1,
		MinDataInLeaf:       100,
		MinSumHessianInLeaf: 10,
		FeatureFraction:     1,
		FeatureFractionSeed: 2,
		BaggingFraction:     1,
		BaggingSeed:         3,
		MaxBin:              255,
		DataRandomSeed:      1,
		IsSparse:            true,
		MaxCatToOnehot:      4,
		CatSmooth:           10,
		CatL2:               10,
		Metric:              []string{"l2"},
		MetricFreq:          1,
		kind:                kind,
	}
	if kind == KindBinary {
		h.Metric = []string{"binary_logloss"}
	}
	return h
}

// DefaultRegressorHyperparameters returns the regressor defaults.
func DefaultRegressorHyperparameters() Hyperparameters {
	return defaultHyperparameters(KindRegression)
}

// DefaultClassifierHyperparameters returns the binary classifier defaults.
func DefaultClassifierHyperparameters() Hyperparameters {
	return defaultHyperparameters(KindBinary)
}

type hyperField struct {
	name       string
	binaryOnly bool
	get        func(h *Hyperparameters) interface{}
	set        func(h *Hyperparameters, v interface{}) error
}

func intField(name string, dst func(h *Hyperparameters) *int) hyperField {
	return hyperField{
		name: name,
		get:  func(h *Hyperparameters) interface{} { return *dst(h) },
		set: func(h *Hyperparameters, v interface{}) error {
			n, err := model.ToInt(v)
			if err != nil {
				return err
			}
			*dst(h) = int(n)
			return nil
		},
	}
}

func seedField(name string, dst func(h *Hyperparameters) *int64) hyperField {
	return hyperField{
		name: name,
		get:  func(h *Hyperparameters) interface{} { return *dst(h) },
		set: func(h *Hyperparameters, v interface{}) error {
			n, err := model.ToInt(v)
			if err != nil {
				return err
			}
			*dst(h) = n
			return nil
		},
	}
}

func floatField(name string, dst func(h *Hyperparameters) *float64) hyperField {
	return hyperField{
		name: name,
		get:  func(h *Hyperparameters) interface{} { return *dst(h) },
		set: func(h *Hyperparameters, v interface{}) error {
			f, err := model.ToFloat(v)
			if err != nil {
				return err
			}
			*dst(h) = f
			return nil
		},
	}
}

func boolField(name string, dst func(h *Hyperparameters) *bool) hyperField {
	return hyperField{
		name: name,
		get:  func(h *Hyperparameters) interface{} { return *dst(h) },
		set: func(h *Hyperparameters, v interface{}) error {
			b, err := model.ToBool(v)
			if err != nil {
				return err
			}
			*dst(h) = b
			return nil
		},
	}
}

func stringField(name string, dst func(h *Hyperparameters) *string) hyperField {
	return hyperField{
		name: name,
		get:  func(h *Hyperparameters) interface{} { return *dst(h) },
		set: func(h *Hyperparameters, v interface{}) error {
			s, err := model.ToString(v)
			if err != nil {
				return err
			}
			*dst(h) = s
			return nil
		},
	}
}

var hyperFields = []hyperField{
	intField("num_iterations", func(h *Hyperparameters) *int { return &h.NumIterations }),
	floatField("learning_rate", func(h *Hyperparameters) *float64 { return &h.LearningRate }),
	intField("num_leaves", func(h *Hyperparameters) *int { return &h.NumLeaves }),
	intField("max_depth", func(h *Hyperparameters) *int { return &h.MaxDepth }),
	stringField("tree_learner", func(h *Hyperparameters) *string { return &h.TreeLearner }),
	intField(ParamNumThreads, func(h *Hyperparameters) *int { return &h.NumThreads }),
	floatField("histogram_pool_size", func(h *Hyperparameters) *float64 { return &h.HistogramPoolSize }),
	intField("min_data_in_leaf", func(h *Hyperparameters) *int { return &h.MinDataInLeaf }),
	floatField("min_sum_hessian_in_leaf", func(h *Hyperparameters) *float64 { return &h.MinSumHessianInLeaf }),
	floatField("lambda_l1", func(h *Hyperparameters) *float64 { return &h.LambdaL1 }),
	floatField("lambda_l2", func(h *Hyperparameters) *float64 { return &h.LambdaL2 }),
	floatField("min_gain_to_split", func(h *Hyperparameters) *float64 { return &h.MinGainToSplit }),
	floatField("feature_fraction", func(h *Hyperparameters) *float64 { return &h.FeatureFraction }),
	seedField(ParamFeatureFractionSeed, func(h *Hyperparameters) *int64 { return &h.FeatureFractionSeed }),
	floatField("bagging_fraction", func(h *Hyperparameters) *float64 { return &h.BaggingFraction }),
	intField("bagging_freq", func(h *Hyperparameters) *int { return &h.BaggingFreq }),
	seedField(ParamBaggingSeed, func(h *Hyperparameters) *int64 { return &h.BaggingSeed }),
	intField("early_stopping_round", func(h *Hyperparameters) *int { return &h.EarlyStoppingRound }),
	intField("max_bin", func(h *Hyperparameters) *int { return &h.MaxBin }),
	seedField(ParamDataRandomSeed, func(h *Hyperparameters) *int64 { return &h.DataRandomSeed }),
	stringField("init_score", func(h *Hyperparameters) *string { return &h.InitScore }),
	boolField("is_sparse", func(h *Hyperparameters) *bool { return &h.IsSparse }),
	boolField("save_binary", func(h *Hyperparameters) *bool { return &h.SaveBinary }),
	intField("max_cat_to_onehot", func(h *Hyperparameters) *int { return &h.MaxCatToOnehot }),
	floatField("cat_smooth", func(h *Hyperparameters) *float64 { return &h.CatSmooth }),
	floatField("cat_l2", func(h *Hyperparameters) *float64 { return &h.CatL2 }),
	{
		name: "metric",
		get:  func(h *Hyperparameters) interface{} { return append([]string(nil), h.Metric...) },
		set: func(h *Hyperparameters, v interface{}) error {
			names, err := model.ToStringList(v)
			if err != nil {
				return err
			}
			h.Metric = names
			return nil
		},
	},
	intField("metric_freq", func(h *Hyperparameters) *int { return &h.MetricFreq }),
	boolField("is_training_metric", func(h *Hyperparameters) *bool { return &h.IsTrainingMetric }),
	func() hyperField {
		f := boolField(ParamIsUnbalance, func(h *Hyperparameters) *bool { return &h.IsUnbalance })
		f.binaryOnly = true
		return f
	}(),
	floatField(ParamValidationFraction, func(h *Hyperparameters) *float64 { return &h.ValidationFraction }),
}

var hyperIndex = func() map[string]*hyperField {
	idx := make(map[string]*hyperField, len(hyperFields))
	for i := range hyperFields {
		idx[hyperFields[i].name] = &hyperFields[i]
	}
	return idx
}()

func (h *Hyperparameters) fields() []*hyperField {
	out := make([]*hyperField, 0, len(hyperFields))
	for i := range hyperFields {
		if hyperFields[i].binaryOnly && h.kind != KindBinary {
			continue
		}
		out = append(out, &hyperFields[i])
	}
	return out
}

// Params returns every hyperparameter keyed by its canonical name.
func (h *Hyperparameters) Params() map[string]interface{} {
	out := make(map[string]interface{}, len(hyperFields))
	for _, f := range h.fields() {
		out[f.name] = f.get(h)
	}
	return out
}

// SetParams sets hyperparameters by name. Engine aliases such as
// "n_estimators" or "reg_lambda" are accepted; "seed" sets all three seeds.
// Nothing is changed when any entry is invalid.
func (h *Hyperparameters) SetParams(params map[string]interface{}) error {
	next := *h
	next.Metric = append([]string(nil), h.Metric...)

	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	// the seed fan-out goes first so specific seeds in the same call win
	rest := make([]string, 0, len(keys))
	for _, k := range keys {
		v := params[k]
		if !isSeedAlias(k) {
			rest = append(rest, k)
			continue
		}
		s, err := model.ToInt(v)
		if err != nil {
			return errors.NewValidationError(k, err.Error(), v)
		}
		next.DataRandomSeed, next.BaggingSeed, next.FeatureFractionSeed = s, s, s
	}

	for _, k := range rest {
		v := params[k]
		name := strings.ToLower(strings.TrimSpace(k))
		f, ok := hyperIndex[name]
		if !ok {
			if canonical, found := gbdt.CanonicalName(name); found {
				f, ok = hyperIndex[canonical]
			}
		}
		if !ok || (f.binaryOnly && h.kind != KindBinary) {
			return errors.NewValidationError(k, "unknown hyperparameter", v)
		}
		if err := f.set(&next, v); err != nil {
			return errors.NewValidationError(f.name, err.Error(), v)
		}
	}
	*h = next
	return nil
}

func isSeedAlias(key string) bool {
	switch strings.ToLower(strings.TrimSpace(key)) {
	case "seed", "random_seed", "random_state":
		return true
	}
	return false
}

// Validate checks the settings the wrapper itself interprets. Engine
// parameters are validated by the engine.
func (h *Hyperparameters) Validate() error {
	if h.ValidationFraction < 0 || h.ValidationFraction >= 1 {
		return errors.NewValidationError(ParamValidationFraction, "must be in [0, 1)", h.ValidationFraction)
	}
	return nil
}

// WithNumIterations sets the number of boosting iterations.
func (h *Hyperparameters) WithNumIterations(n int) *Hyperparameters {
	h.NumIterations = n
	return h
}

// WithLearningRate sets the shrinkage rate.
func (h *Hyperparameters) WithLearningRate(lr float64) *Hyperparameters {
	h.LearningRate = lr
	return h
}

// WithNumLeaves sets the maximum number of leaves per tree.
func (h *Hyperparameters) WithNumLeaves(n int) *Hyperparameters {
	h.NumLeaves = n
	return h
}

// WithMaxDepth sets the maximum tree depth; <= 0 means unlimited.
func (h *Hyperparameters) WithMaxDepth(d int) *Hyperparameters {
	h.MaxDepth = d
	return h
}

// WithMinDataInLeaf sets the minimum number of rows per leaf.
func (h *Hyperparameters) WithMinDataInLeaf(n int) *Hyperparameters {
	h.MinDataInLeaf = n
	return h
}

// WithMinSumHessianInLeaf sets the minimum hessian sum per leaf.
func (h *Hyperparameters) WithMinSumHessianInLeaf(v float64) *Hyperparameters {
	h.MinSumHessianInLeaf = v
	return h
}

// WithRegularization sets the L1 and L2 penalties.
func (h *Hyperparameters) WithRegularization(l1, l2 float64) *Hyperparameters {
	h.LambdaL1, h.LambdaL2 = l1, l2
	return h
}

// WithBagging enables row subsampling every freq iterations.
func (h *Hyperparameters) WithBagging(fraction float64, freq int) *Hyperparameters {
	h.BaggingFraction, h.BaggingFreq = fraction, freq
	return h
}

// WithFeatureFraction sets the share of features tried per tree.
func (h *Hyperparameters) WithFeatureFraction(f float64) *Hyperparameters {
	h.FeatureFraction = f
	return h
}

// WithSeed sets all three seeds.
func (h *Hyperparameters) WithSeed(seed int64) *Hyperparameters {
	h.DataRandomSeed, h.BaggingSeed, h.FeatureFractionSeed = seed, seed, seed
	return h
}

// WithEarlyStopping stops training after rounds iterations without
// improvement on the validation split.
func (h *Hyperparameters) WithEarlyStopping(rounds int) *Hyperparameters {
	h.EarlyStoppingRound = rounds
	return h
}

// WithMetric replaces the evaluation metrics.
func (h *Hyperparameters) WithMetric(names ...string) *Hyperparameters {
	h.Metric = append([]string(nil), names...)
	return h
}

// WithValidationFraction holds out the trailing fraction of rows.
func (h *Hyperparameters) WithValidationFraction(f float64) *Hyperparameters {
	h.ValidationFraction = f
	return h
}

// WithNumThreads sets the engine thread count; 0 uses every core.
func (h *Hyperparameters) WithNumThreads(n int) *Hyperparameters {
	h.NumThreads = n
	return h
}
