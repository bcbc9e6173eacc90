package gbdt

import (
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/koalaml/koala-lightgbm/pkg/errors"
)

// stepData returns x = i/n with y = high where x > 0.5 and 0 elsewhere.
func stepData(n int, high float64) (*mat.Dense, *mat.VecDense) {
	X := mat.NewDense(n, 1, nil)
	y := mat.NewVecDense(n, nil)
	for i := 0; i < n; i++ {
		x := float64(i) / float64(n)
		X.Set(i, 0, x)
		if x > 0.5 {
			y.SetVec(i, high)
		}
	}
	return X, y
}

func smallTreeParams(extra map[string]interface{}) map[string]interface{} {
	p := map[string]interface{}{
		"num_iterations":          50,
		"learning_rate":           0.3,
		"num_leaves":              4,
		"min_data_in_leaf":        5,
		"min_sum_hessian_in_leaf": 0,
		"verbosity":               -1,
	}
	for k, v := range extra {
		p[k] = v
	}
	return p
}

func TestTrainRegressionStep(t *testing.T) {
	X, y := stepData(200, 10)

	res, err := Train(smallTreeParams(nil), Dataset{X: X, Y: y})
	require.NoError(t, err)
	require.NotNil(t, res.Booster)

	assert.Equal(t, ObjectiveRegression, res.Params.Objective)
	assert.Equal(t, 50, res.Booster.NumTrees())
	assert.Equal(t, 1, res.Booster.NumFeatures())
	assert.InDelta(t, 4.95, res.Booster.InitScore, 1e-12)
	assert.Empty(t, res.History)

	preds, err := res.Booster.Predict(mat.NewDense(4, 1, []float64{0.1, 0.45, 0.55, 0.9}), 0)
	require.NoError(t, err)
	want := []float64{0, 0, 10, 10}
	for i, w := range want {
		assert.InDelta(t, w, preds.AtVec(i), 1e-3, "row %d", i)
	}
}

func TestTrainBinarySeparable(t *testing.T) {
	X, y := stepData(200, 1)

	res, err := Train(smallTreeParams(map[string]interface{}{"objective": "binary"}), Dataset{X: X, Y: y})
	require.NoError(t, err)

	probs, err := res.Booster.Predict(mat.NewDense(2, 1, []float64{0.2, 0.8}), 1)
	require.NoError(t, err)
	assert.Less(t, probs.AtVec(0), 0.1)
	assert.Greater(t, probs.AtVec(1), 0.9)

	raw, err := res.Booster.PredictRaw(mat.NewDense(2, 1, []float64{0.2, 0.8}), 1)
	require.NoError(t, err)
	for i := 0; i < 2; i++ {
		assert.InDelta(t, 1/(1+math.Exp(-raw.AtVec(i))), probs.AtVec(i), 1e-12)
	}
}

func TestTrainValidationHistory(t *testing.T) {
	X, y := stepData(200, 10)
	Xv, yv := stepData(50, 10)

	res, err := Train(smallTreeParams(map[string]interface{}{
		"num_iterations":     10,
		"metric":             []string{"l2", "l1"},
		"is_training_metric": true,
	}), Dataset{X: X, Y: y}, Dataset{Name: "holdout", X: Xv, Y: yv})
	require.NoError(t, err)

	require.Len(t, res.History, 4)
	names := make([]string, len(res.History))
	for i, r := range res.History {
		names[i] = r.Dataset + "/" + r.Metric
		assert.Len(t, r.Values, 10)
		assert.Less(t, r.Values[9], r.Values[0], names[i])
	}
	assert.Equal(t, []string{"training/l2", "training/l1", "holdout/l2", "holdout/l1"}, names)
}

func TestTrainDefaultValidationName(t *testing.T) {
	X, y := stepData(100, 1)

	res, err := Train(smallTreeParams(map[string]interface{}{
		"objective":      "binary",
		"num_iterations": 3,
		"metric":         "auc,binary_error",
	}), Dataset{X: X, Y: y}, Dataset{X: X, Y: y})
	require.NoError(t, err)

	require.Len(t, res.History, 2)
	assert.Equal(t, "valid_0", res.History[0].Dataset)
	assert.Equal(t, MetricAUC, res.History[0].Metric)
	assert.InDelta(t, 1.0, res.History[0].Values[2], 1e-12)
	assert.Equal(t, 0.0, res.History[1].Values[2])
}

func TestTrainEarlyStopping(t *testing.T) {
	X, y := stepData(200, 10)
	// inverted labels: every tree makes the validation error worse
	inverted := mat.NewVecDense(200, nil)
	for i := 0; i < 200; i++ {
		inverted.SetVec(i, 10-y.AtVec(i))
	}

	res, err := Train(smallTreeParams(map[string]interface{}{
		"early_stopping_round": 3,
	}), Dataset{X: X, Y: y}, Dataset{X: X, Y: inverted})
	require.NoError(t, err)

	require.Len(t, res.History, 1)
	assert.Len(t, res.History[0].Values, 4)
	assert.Equal(t, 4, res.Booster.NumTrees())
	assert.Equal(t, 1, res.Booster.BestIteration)
	assert.IsIncreasing(t, res.History[0].Values)

	// only the best iteration's trees are used
	row := []float64{0.9}
	want := res.Booster.InitScore + res.Booster.Trees[0].Predict(row)
	preds, err := res.Booster.Predict(mat.NewDense(1, 1, row), 1)
	require.NoError(t, err)
	assert.InDelta(t, want, preds.AtVec(0), 1e-12)
}

func TestTrainCategoricalOneVsRest(t *testing.T) {
	n := 90
	X := mat.NewDense(n, 1, nil)
	y := mat.NewVecDense(n, nil)
	for i := 0; i < n; i++ {
		c := []float64{1, 3, 5}[i%3]
		X.Set(i, 0, c)
		y.SetVec(i, -5)
		if c == 3 {
			y.SetVec(i, 5)
		}
	}

	res, err := Train(map[string]interface{}{
		"num_iterations":          20,
		"learning_rate":           0.5,
		"num_leaves":              2,
		"min_data_in_leaf":        5,
		"min_sum_hessian_in_leaf": 0,
		"min_data_per_group":      10,
		"categorical_feature":     []int{0},
		"verbosity":               -1,
	}, Dataset{X: X, Y: y})
	require.NoError(t, err)

	first := res.Booster.Trees[0]
	assert.True(t, first.Categorical[0])
	assert.Equal(t, []int{3}, first.Categories[0])
	assert.Equal(t, []int{0}, res.Booster.CategoricalFeatures)

	preds, err := res.Booster.Predict(mat.NewDense(4, 1, []float64{1, 3, 5, 9}), 0)
	require.NoError(t, err)
	assert.InDelta(t, 5, preds.AtVec(1), 1e-3)
	assert.InDelta(t, -5, preds.AtVec(0), 1e-3)
	// unseen categories share the "rest" side
	assert.Equal(t, preds.AtVec(0), preds.AtVec(2))
	assert.Equal(t, preds.AtVec(0), preds.AtVec(3))
}

func TestTrainCategoricalGradientOrdered(t *testing.T) {
	n := 120
	X := mat.NewDense(n, 1, nil)
	y := mat.NewVecDense(n, nil)
	for i := 0; i < n; i++ {
		c := i % 6
		X.Set(i, 0, float64(c))
		if c%2 == 0 {
			y.SetVec(i, 10)
		}
	}

	res, err := Train(map[string]interface{}{
		"num_iterations":          1,
		"num_leaves":              2,
		"min_data_in_leaf":        5,
		"min_sum_hessian_in_leaf": 0,
		"min_data_per_group":      10,
		"categorical_feature":     "0",
		"verbosity":               -1,
	}, Dataset{X: X, Y: y})
	require.NoError(t, err)

	require.Equal(t, 1, res.Booster.NumTrees())
	assert.Equal(t, []int{0, 2, 4}, res.Booster.Trees[0].Categories[0])
}

func TestTrainIsolatesMissingValues(t *testing.T) {
	n := 200
	X := mat.NewDense(n, 1, nil)
	y := mat.NewVecDense(n, nil)
	for i := 0; i < n; i++ {
		if i < 50 {
			X.Set(i, 0, math.NaN())
			y.SetVec(i, 10)
			continue
		}
		X.Set(i, 0, float64(i%3))
	}

	res, err := Train(smallTreeParams(map[string]interface{}{
		"num_iterations": 20,
		"learning_rate":  0.5,
		"num_leaves":     2,
	}), Dataset{X: X, Y: y})
	require.NoError(t, err)

	first := res.Booster.Trees[0]
	assert.False(t, first.DefaultLeft[0])
	assert.True(t, math.IsInf(first.Threshold[0], 1))

	preds, err := res.Booster.Predict(mat.NewDense(3, 1, []float64{math.NaN(), 0, 2}), 0)
	require.NoError(t, err)
	assert.InDelta(t, 10, preds.AtVec(0), 1e-3)
	assert.InDelta(t, 0, preds.AtVec(1), 1e-3)
	assert.InDelta(t, 0, preds.AtVec(2), 1e-3)
}

func randomData(n, cols int, seed int64) (*mat.Dense, *mat.VecDense) {
	rng := rand.New(rand.NewSource(seed))
	X := mat.NewDense(n, cols, nil)
	y := mat.NewVecDense(n, nil)
	for i := 0; i < n; i++ {
		target := 0.0
		for j := 0; j < cols; j++ {
			v := rng.Float64()
			X.Set(i, j, v)
			target += float64(j+1) * v
		}
		y.SetVec(i, target+0.1*rng.NormFloat64())
	}
	return X, y
}

func TestTrainDeterministic(t *testing.T) {
	X, y := randomData(300, 4, 11)
	params := func(threads int) map[string]interface{} {
		return smallTreeParams(map[string]interface{}{
			"num_iterations":   15,
			"num_leaves":       8,
			"bagging_fraction": 0.7,
			"bagging_freq":     1,
			"feature_fraction": 0.5,
			"seed":             42,
			"num_threads":      threads,
		})
	}

	a, err := Train(params(1), Dataset{X: X, Y: y})
	require.NoError(t, err)
	b, err := Train(params(1), Dataset{X: X, Y: y})
	require.NoError(t, err)
	c, err := Train(params(4), Dataset{X: X, Y: y})
	require.NoError(t, err)

	pa, err := a.Booster.Predict(X, 1)
	require.NoError(t, err)
	pb, err := b.Booster.Predict(X, 1)
	require.NoError(t, err)
	pc, err := c.Booster.Predict(X, 4)
	require.NoError(t, err)

	assert.Equal(t, pa.RawVector().Data, pb.RawVector().Data)
	assert.Equal(t, pa.RawVector().Data, pc.RawVector().Data)
	assert.Equal(t, int64(42), a.Params.DataRandomSeed)
	assert.Equal(t, int64(43), a.Params.BaggingSeed)
	assert.Equal(t, int64(44), a.Params.FeatureFractionSeed)
}

func TestTrainConstantTargetAddsNoTrees(t *testing.T) {
	X, _ := stepData(50, 1)
	y := mat.NewVecDense(50, nil)
	for i := 0; i < 50; i++ {
		y.SetVec(i, 3)
	}

	res, err := Train(smallTreeParams(nil), Dataset{X: X, Y: y})
	require.NoError(t, err)
	assert.Zero(t, res.Booster.NumTrees())

	preds, err := res.Booster.Predict(mat.NewDense(1, 1, []float64{0.3}), 1)
	require.NoError(t, err)
	assert.InDelta(t, 3, preds.AtVec(0), 1e-12)
}

func TestTrainInitScoreFile(t *testing.T) {
	X, y := stepData(100, 10)
	dir := t.TempDir()

	good := filepath.Join(dir, "init.txt")
	require.NoError(t, os.WriteFile(good, []byte(strings.Repeat("1.5\n", 100)), 0o600))

	res, err := Train(smallTreeParams(map[string]interface{}{"init_score": good}), Dataset{X: X, Y: y})
	require.NoError(t, err)
	assert.Zero(t, res.Booster.InitScore)
	assert.Positive(t, res.Booster.NumTrees())

	short := filepath.Join(dir, "short.txt")
	require.NoError(t, os.WriteFile(short, []byte("1\n2\n"), 0o600))
	_, err = Train(smallTreeParams(map[string]interface{}{"init_score": short}), Dataset{X: X, Y: y})
	var dimErr *errors.DimensionError
	assert.True(t, errors.As(err, &dimErr))

	_, err = Train(smallTreeParams(map[string]interface{}{"init_score": filepath.Join(dir, "missing.txt")}), Dataset{X: X, Y: y})
	assert.Error(t, err)
}

func TestReadInitScores(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scores.txt")
	require.NoError(t, os.WriteFile(path, []byte("0.5\n\n-1\n2e-1\n"), 0o600))

	scores, err := ReadInitScores(path)
	require.NoError(t, err)
	assert.Equal(t, []float64{0.5, -1, 0.2}, scores)

	require.NoError(t, os.WriteFile(path, []byte("0.5\nabc\n"), 0o600))
	_, err = ReadInitScores(path)
	assert.ErrorContains(t, err, "line 2")
}

func TestTrainErrors(t *testing.T) {
	X, y := stepData(20, 1)
	badLabels := mat.NewVecDense(20, nil)
	badLabels.SetVec(3, 2)

	t.Run("binary labels outside 0/1", func(t *testing.T) {
		_, err := Train(map[string]interface{}{"objective": "binary", "verbosity": -1}, Dataset{X: X, Y: badLabels})
		var vErr *errors.ValidationError
		require.True(t, errors.As(err, &vErr))
		assert.Equal(t, "label", vErr.ParamName)
	})

	t.Run("label length mismatch", func(t *testing.T) {
		_, err := Train(nil, Dataset{X: X, Y: mat.NewVecDense(3, nil)})
		var dimErr *errors.DimensionError
		assert.True(t, errors.As(err, &dimErr))
	})

	t.Run("missing matrix", func(t *testing.T) {
		_, err := Train(nil, Dataset{Y: y})
		assert.True(t, errors.Is(err, errors.ErrEmptyData))
	})

	t.Run("categorical index out of range", func(t *testing.T) {
		_, err := Train(map[string]interface{}{"categorical_feature": []int{4}}, Dataset{X: X, Y: y})
		var vErr *errors.ValidationError
		require.True(t, errors.As(err, &vErr))
		assert.Equal(t, "categorical_feature", vErr.ParamName)
	})

	t.Run("validation width mismatch", func(t *testing.T) {
		_, err := Train(nil, Dataset{X: X, Y: y}, Dataset{X: mat.NewDense(20, 2, nil), Y: y})
		var dimErr *errors.DimensionError
		assert.True(t, errors.As(err, &dimErr))
	})

	t.Run("invalid parameter", func(t *testing.T) {
		_, err := Train(map[string]interface{}{"num_leaves": 0}, Dataset{X: X, Y: y})
		var vErr *errors.ValidationError
		assert.True(t, errors.As(err, &vErr))
	})
}
