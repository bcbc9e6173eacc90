package gbdt

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/koalaml/koala-lightgbm/pkg/errors"
)

func TestParseParamsDefaults(t *testing.T) {
	p, unknown, err := ParseParams(ObjectiveRegression, nil)
	require.NoError(t, err)
	assert.Empty(t, unknown)
	assert.Equal(t, DefaultParams(ObjectiveRegression), p)
}

func TestParseParamsAliases(t *testing.T) {
	p, unknown, err := ParseParams(ObjectiveRegression, map[string]interface{}{
		"objective":           "binary",
		"n_estimators":        7,
		"eta":                 0.05,
		"num_leaves":          15.0,
		"reg_lambda":          "2.5",
		"min_child_samples":   int64(3),
		"categorical_feature": []interface{}{0, 2.0},
		"metric":              "auc, binary_error",
		"is_unbalance":        "true",
		"num_threads":         1,
		"not_a_param":         true,
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"not_a_param"}, unknown)
	assert.Equal(t, ObjectiveBinary, p.Objective)
	assert.Equal(t, 7, p.NumIterations)
	assert.Equal(t, 0.05, p.LearningRate)
	assert.Equal(t, 15, p.NumLeaves)
	assert.Equal(t, 2.5, p.LambdaL2)
	assert.Equal(t, 3, p.MinDataInLeaf)
	assert.Equal(t, []int{0, 2}, p.CategoricalFeature)
	assert.Equal(t, []string{"auc", "binary_error"}, p.Metric)
	assert.True(t, p.IsUnbalance)
	assert.Equal(t, 1, p.NumThreads)
}

func TestParseParamsCanonicalNameWins(t *testing.T) {
	p, _, err := ParseParams(ObjectiveRegression, map[string]interface{}{
		"num_iterations": 5,
		"num_trees":      9,
		"n_estimators":   11,
	})
	require.NoError(t, err)
	assert.Equal(t, 5, p.NumIterations)
}

func TestParseParamsSeed(t *testing.T) {
	p, _, err := ParseParams(ObjectiveRegression, map[string]interface{}{
		"seed":         10,
		"bagging_seed": 99,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(10), p.DataRandomSeed)
	assert.Equal(t, int64(99), p.BaggingSeed)
	assert.Equal(t, int64(12), p.FeatureFractionSeed)
}

func TestParseParamsValidation(t *testing.T) {
	tests := []struct {
		name  string
		param string
		raw   map[string]interface{}
	}{
		{"bad objective", "objective", map[string]interface{}{"objective": "lambdarank"}},
		{"zero learning rate", "learning_rate", map[string]interface{}{"learning_rate": 0}},
		{"one leaf", "num_leaves", map[string]interface{}{"num_leaves": 1}},
		{"distributed learner", "tree_learner", map[string]interface{}{"tree_learner": "data"}},
		{"feature fraction above one", "feature_fraction", map[string]interface{}{"feature_fraction": 1.5}},
		{"bagging fraction zero", "bagging_fraction", map[string]interface{}{"bagging_fraction": 0.0}},
		{"unknown metric", "metric", map[string]interface{}{"metric": []string{"ndcg"}}},
		{"non integer", "num_iterations", map[string]interface{}{"num_iterations": 2.5}},
		{"wrong type", "tree_learner", map[string]interface{}{"tree_learner": 3}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := ParseParams(ObjectiveRegression, tt.raw)
			var vErr *errors.ValidationError
			require.True(t, errors.As(err, &vErr), "got %v", err)
			assert.Equal(t, tt.param, vErr.ParamName)
		})
	}
}

func TestCanonicalName(t *testing.T) {
	name, ok := CanonicalName("Sub_Row")
	assert.True(t, ok)
	assert.Equal(t, "bagging_fraction", name)

	_, ok = CanonicalName("nope")
	assert.False(t, ok)
}

func TestResolveMetrics(t *testing.T) {
	m, err := resolveMetrics(nil, ObjectiveBinary)
	require.NoError(t, err)
	assert.Equal(t, []string{MetricBinaryLogloss}, m)

	m, err = resolveMetrics([]string{"mse", "l2", "mae"}, ObjectiveRegression)
	require.NoError(t, err)
	assert.Equal(t, []string{MetricL2, MetricL1}, m)

	m, err = resolveMetrics([]string{"None"}, ObjectiveRegression)
	require.NoError(t, err)
	assert.Empty(t, m)
}
