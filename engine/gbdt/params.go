package gbdt

import (
	"fmt"
	"sort"
	"strings"

	"github.com/koalaml/koala-lightgbm/core/model"
	"github.com/koalaml/koala-lightgbm/pkg/errors"
)

// Params holds every training parameter the engine understands. Values are
// normally produced by ParseParams from a LightGBM-style parameter mapping.
type Params struct {
	Objective     string
	NumIterations int
	LearningRate  float64
	NumLeaves     int
	MaxDepth      int
	TreeLearner   string
	NumThreads    int

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

	EarlyStoppingRound int

	MaxBin                int
	DataRandomSeed        int64
	BinConstructSampleCnt int
	InitScoreFile         string
	IsSparse              bool
	SaveBinary            bool

	CategoricalFeature []int
	MaxCatToOnehot     int
	MaxCatThreshold    int
	CatSmooth          float64
	CatL2              float64
	MinDataPerGroup    int

	Metric           []string
	MetricFreq       int
	IsTrainingMetric bool

	IsUnbalance bool
	Sigmoid     float64

	Verbosity int
}

// DefaultParams returns the engine defaults for the given objective.
func DefaultParams(objective string) Params {
	return Params{
		Objective:             objective,
		NumIterations:         100,
		LearningRate:          0.1,
		NumLeaves:             31,
		MaxDepth:              -1,
		TreeLearner:           "serial",
		HistogramPoolSize:     -1,
		MinDataInLeaf:         20,
		MinSumHessianInLeaf:   1e-3,
		FeatureFraction:       1,
		FeatureFractionSeed:   2,
		BaggingFraction:       1,
		BaggingSeed:           3,
		MaxBin:                255,
		DataRandomSeed:        1,
		BinConstructSampleCnt: 200000,
		IsSparse:              true,
		MaxCatToOnehot:        4,
		MaxCatThreshold:       32,
		CatSmooth:             10,
		CatL2:                 10,
		MinDataPerGroup:       100,
		MetricFreq:            1,
		Sigmoid:               1,
		Verbosity:             1,
	}
}

type paramSpec struct {
	name    string
	aliases []string
	set     func(p *Params, v interface{}) error
}

func intSetter(dst func(p *Params) *int) func(*Params, interface{}) error {
	return func(p *Params, v interface{}) error {
		n, err := model.ToInt(v)
		if err != nil {
			return err
		}
		*dst(p) = int(n)
		return nil
	}
}

func int64Setter(dst func(p *Params) *int64) func(*Params, interface{}) error {
	return func(p *Params, v interface{}) error {
		n, err := model.ToInt(v)
		if err != nil {
			return err
		}
		*dst(p) = n
		return nil
	}
}

func floatSetter(dst func(p *Params) *float64) func(*Params, interface{}) error {
	return func(p *Params, v interface{}) error {
		f, err := model.ToFloat(v)
		if err != nil {
			return err
		}
		*dst(p) = f
		return nil
	}
}

func boolSetter(dst func(p *Params) *bool) func(*Params, interface{}) error {
	return func(p *Params, v interface{}) error {
		b, err := model.ToBool(v)
		if err != nil {
			return err
		}
		*dst(p) = b
		return nil
	}
}

func stringSetter(dst func(p *Params) *string) func(*Params, interface{}) error {
	return func(p *Params, v interface{}) error {
		s, err := model.ToString(v)
		if err != nil {
			return err
		}
		*dst(p) = s
		return nil
	}
}

var paramSpecs = []paramSpec{
	{"objective", []string{"objective_type", "app", "application", "loss"}, stringSetter(func(p *Params) *string { return &p.Objective })},
	{"num_iterations", []string{"num_iteration", "n_iter", "num_tree", "num_trees", "num_round", "num_rounds", "num_boost_round", "n_estimators", "max_iter"}, intSetter(func(p *Params) *int { return &p.NumIterations })},
	{"learning_rate", []string{"shrinkage_rate", "eta"}, floatSetter(func(p *Params) *float64 { return &p.LearningRate })},
	{"num_leaves", []string{"num_leaf", "max_leaves", "max_leaf", "max_leaf_nodes"}, intSetter(func(p *Params) *int { return &p.NumLeaves })},
	{"max_depth", nil, intSetter(func(p *Params) *int { return &p.MaxDepth })},
	{"tree_learner", []string{"tree", "tree_type", "tree_learner_type"}, stringSetter(func(p *Params) *string { return &p.TreeLearner })},
	{"num_threads", []string{"num_thread", "nthread", "nthreads", "n_jobs"}, intSetter(func(p *Params) *int { return &p.NumThreads })},
	{"histogram_pool_size", []string{"hist_pool_size"}, floatSetter(func(p *Params) *float64 { return &p.HistogramPoolSize })},
	{"min_data_in_leaf", []string{"min_data_per_leaf", "min_data", "min_child_samples", "min_samples_leaf"}, intSetter(func(p *Params) *int { return &p.MinDataInLeaf })},
	{"min_sum_hessian_in_leaf", []string{"min_sum_hessian_per_leaf", "min_sum_hessian", "min_hessian", "min_child_weight"}, floatSetter(func(p *Params) *float64 { return &p.MinSumHessianInLeaf })},
	{"lambda_l1", []string{"reg_alpha", "l1_regularization"}, floatSetter(func(p *Params) *float64 { return &p.LambdaL1 })},
	{"lambda_l2", []string{"reg_lambda", "lambda", "l2_regularization"}, floatSetter(func(p *Params) *float64 { return &p.LambdaL2 })},
	{"min_gain_to_split", []string{"min_split_gain"}, floatSetter(func(p *Params) *float64 { return &p.MinGainToSplit })},
	{"feature_fraction", []string{"sub_feature", "colsample_bytree"}, floatSetter(func(p *Params) *float64 { return &p.FeatureFraction })},
	{"feature_fraction_seed", nil, int64Setter(func(p *Params) *int64 { return &p.FeatureFractionSeed })},
	{"bagging_fraction", []string{"sub_row", "subsample", "bagging"}, floatSetter(func(p *Params) *float64 { return &p.BaggingFraction })},
	{"bagging_freq", []string{"subsample_freq"}, intSetter(func(p *Params) *int { return &p.BaggingFreq })},
	{"bagging_seed", []string{"bagging_fraction_seed"}, int64Setter(func(p *Params) *int64 { return &p.BaggingSeed })},
	{"early_stopping_round", []string{"early_stopping_rounds", "early_stopping", "n_iter_no_change"}, intSetter(func(p *Params) *int { return &p.EarlyStoppingRound })},
	{"max_bin", []string{"max_bins"}, intSetter(func(p *Params) *int { return &p.MaxBin })},
	{"data_random_seed", []string{"data_seed"}, int64Setter(func(p *Params) *int64 { return &p.DataRandomSeed })},
	{"bin_construct_sample_cnt", []string{"subsample_for_bin"}, intSetter(func(p *Params) *int { return &p.BinConstructSampleCnt })},
	{"init_score", []string{"initscore_filename", "init_score_filename", "init_score_file", "input_init_score"}, stringSetter(func(p *Params) *string { return &p.InitScoreFile })},
	{"is_sparse", []string{"is_enable_sparse", "enable_sparse", "sparse"}, boolSetter(func(p *Params) *bool { return &p.IsSparse })},
	{"save_binary", []string{"is_save_binary", "is_save_binary_file"}, boolSetter(func(p *Params) *bool { return &p.SaveBinary })},
	{"categorical_feature", []string{"cat_feature", "categorical_column", "cat_column", "categorical_features"}, func(p *Params, v interface{}) error {
		idx, err := model.ToIntList(v)
		if err != nil {
			return err
		}
		p.CategoricalFeature = idx
		return nil
	}},
	{"max_cat_to_onehot", nil, intSetter(func(p *Params) *int { return &p.MaxCatToOnehot })},
	{"max_cat_threshold", nil, intSetter(func(p *Params) *int { return &p.MaxCatThreshold })},
	{"cat_smooth", nil, floatSetter(func(p *Params) *float64 { return &p.CatSmooth })},
	{"cat_l2", nil, floatSetter(func(p *Params) *float64 { return &p.CatL2 })},
	{"min_data_per_group", []string{"min_data_per_category"}, intSetter(func(p *Params) *int { return &p.MinDataPerGroup })},
	{"metric", []string{"metrics", "metric_types"}, func(p *Params, v interface{}) error {
		names, err := model.ToStringList(v)
		if err != nil {
			return err
		}
		p.Metric = names
		return nil
	}},
	{"metric_freq", []string{"output_freq"}, intSetter(func(p *Params) *int { return &p.MetricFreq })},
	{"is_training_metric", []string{"training_metric", "is_provide_training_metric", "train_metric"}, boolSetter(func(p *Params) *bool { return &p.IsTrainingMetric })},
	{"is_unbalance", []string{"unbalance", "unbalanced_sets"}, boolSetter(func(p *Params) *bool { return &p.IsUnbalance })},
	{"sigmoid", nil, floatSetter(func(p *Params) *float64 { return &p.Sigmoid })},
	{"verbosity", []string{"verbose"}, intSetter(func(p *Params) *int { return &p.Verbosity })},
}

var paramIndex = func() map[string]*paramSpec {
	idx := make(map[string]*paramSpec, len(paramSpecs)*3)
	for i := range paramSpecs {
		spec := &paramSpecs[i]
		idx[spec.name] = spec
		for _, a := range spec.aliases {
			idx[a] = spec
		}
	}
	return idx
}()

// CanonicalName resolves a parameter alias to its canonical name.
func CanonicalName(name string) (string, bool) {
	spec, ok := paramIndex[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return "", false
	}
	return spec.name, true
}

// ParseParams builds Params from a LightGBM-style mapping. Aliases are
// resolved to their canonical names; when both an alias and the canonical
// name are present the canonical name wins. "seed" fills any of the three
// seeds not given explicitly. Unknown names are returned so the caller can
// report them.
func ParseParams(objective string, raw map[string]interface{}) (Params, []string, error) {
	p := DefaultParams(objective)

	type entry struct {
		key  string
		spec *paramSpec
		v    interface{}
	}
	var entries []entry
	var unknown []string
	var seed interface{}
	explicitSeeds := map[string]bool{}

	for k, v := range raw {
		key := strings.ToLower(strings.TrimSpace(k))
		if key == "seed" || key == "random_seed" || key == "random_state" {
			seed = v
			continue
		}
		spec, ok := paramIndex[key]
		if !ok {
			unknown = append(unknown, k)
			continue
		}
		switch spec.name {
		case "feature_fraction_seed", "bagging_seed", "data_random_seed":
			explicitSeeds[spec.name] = true
		}
		entries = append(entries, entry{key: key, spec: spec, v: v})
	}
	sort.Strings(unknown)
	// aliases first so the canonical spelling is applied last
	sort.SliceStable(entries, func(i, j int) bool {
		ci := entries[i].key == entries[i].spec.name
		cj := entries[j].key == entries[j].spec.name
		if ci != cj {
			return !ci
		}
		return entries[i].key < entries[j].key
	})

	if seed != nil {
		s, err := model.ToInt(seed)
		if err != nil {
			return p, unknown, errors.NewValidationError("seed", err.Error(), seed)
		}
		if !explicitSeeds["data_random_seed"] {
			p.DataRandomSeed = s
		}
		if !explicitSeeds["bagging_seed"] {
			p.BaggingSeed = s + 1
		}
		if !explicitSeeds["feature_fraction_seed"] {
			p.FeatureFractionSeed = s + 2
		}
	}

	for _, e := range entries {
		if err := e.spec.set(&p, e.v); err != nil {
			return p, unknown, errors.NewValidationError(e.spec.name, err.Error(), e.v)
		}
	}

	p.Objective = canonicalObjective(p.Objective)
	if err := p.Validate(); err != nil {
		return p, unknown, err
	}
	return p, unknown, nil
}

// Validate checks parameter ranges.
func (p *Params) Validate() error {
	switch {
	case p.Objective != ObjectiveRegression && p.Objective != ObjectiveBinary:
		return errors.NewValidationError("objective", "unsupported objective", p.Objective)
	case p.NumIterations < 0:
		return errors.NewValidationError("num_iterations", "must be non-negative", p.NumIterations)
	case p.LearningRate <= 0:
		return errors.NewValidationError("learning_rate", "must be positive", p.LearningRate)
	case p.NumLeaves < 2:
		return errors.NewValidationError("num_leaves", "must be at least 2", p.NumLeaves)
	case p.TreeLearner != "serial":
		return errors.NewValidationError("tree_learner", "only the serial learner is supported", p.TreeLearner)
	case p.MinDataInLeaf < 0:
		return errors.NewValidationError("min_data_in_leaf", "must be non-negative", p.MinDataInLeaf)
	case p.MinSumHessianInLeaf < 0:
		return errors.NewValidationError("min_sum_hessian_in_leaf", "must be non-negative", p.MinSumHessianInLeaf)
	case p.LambdaL1 < 0:
		return errors.NewValidationError("lambda_l1", "must be non-negative", p.LambdaL1)
	case p.LambdaL2 < 0:
		return errors.NewValidationError("lambda_l2", "must be non-negative", p.LambdaL2)
	case p.MinGainToSplit < 0:
		return errors.NewValidationError("min_gain_to_split", "must be non-negative", p.MinGainToSplit)
	case p.FeatureFraction <= 0 || p.FeatureFraction > 1:
		return errors.NewValidationError("feature_fraction", "must be in (0, 1]", p.FeatureFraction)
	case p.BaggingFraction <= 0 || p.BaggingFraction > 1:
		return errors.NewValidationError("bagging_fraction", "must be in (0, 1]", p.BaggingFraction)
	case p.BaggingFreq < 0:
		return errors.NewValidationError("bagging_freq", "must be non-negative", p.BaggingFreq)
	case p.MaxBin < 2:
		return errors.NewValidationError("max_bin", "must be at least 2", p.MaxBin)
	case p.MaxCatToOnehot < 1:
		return errors.NewValidationError("max_cat_to_onehot", "must be positive", p.MaxCatToOnehot)
	case p.MaxCatThreshold < 1:
		return errors.NewValidationError("max_cat_threshold", "must be positive", p.MaxCatThreshold)
	case p.CatSmooth < 0 || p.CatL2 < 0:
		return errors.NewValidationError("cat_smooth", "categorical smoothing must be non-negative", p.CatSmooth)
	case p.MetricFreq < 1:
		return errors.NewValidationError("metric_freq", "must be positive", p.MetricFreq)
	case p.Sigmoid <= 0:
		return errors.NewValidationError("sigmoid", "must be positive", p.Sigmoid)
	}
	for _, idx := range p.CategoricalFeature {
		if idx < 0 {
			return errors.NewValidationError("categorical_feature", "indices must be non-negative", idx)
		}
	}
	for _, m := range p.Metric {
		if _, err := canonicalMetric(m); err != nil {
			return err
		}
	}
	return nil
}

// String renders the parameters in LightGBM's key=value form.
func (p Params) String() string {
	return fmt.Sprintf("objective=%s num_iterations=%d learning_rate=%g num_leaves=%d max_depth=%d "+
		"min_data_in_leaf=%d lambda_l1=%g lambda_l2=%g max_bin=%d metric=%s",
		p.Objective, p.NumIterations, p.LearningRate, p.NumLeaves, p.MaxDepth,
		p.MinDataInLeaf, p.LambdaL1, p.LambdaL2, p.MaxBin, strings.Join(p.Metric, ","))
}
