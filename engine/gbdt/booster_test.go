package gbdt

import (
	"bytes"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/koalaml/koala-lightgbm/pkg/errors"
)

func trainMixedBooster(t *testing.T) *Booster {
	t.Helper()
	n := 150
	X := mat.NewDense(n, 2, nil)
	y := mat.NewVecDense(n, nil)
	for i := 0; i < n; i++ {
		x := float64(i) / float64(n)
		if i%10 == 0 {
			x = math.NaN()
		}
		c := float64(i % 3)
		X.Set(i, 0, x)
		X.Set(i, 1, c)
		if (x > 0.4 || math.IsNaN(x)) && c != 1 {
			y.SetVec(i, 1)
		}
	}
	res, err := Train(smallTreeParams(map[string]interface{}{
		"objective":           "binary",
		"num_iterations":      10,
		"categorical_feature": []int{1},
	}), Dataset{X: X, Y: y})
	require.NoError(t, err)
	return res.Booster
}

func TestBoosterSaveLoad(t *testing.T) {
	b := trainMixedBooster(t)

	var buf bytes.Buffer
	require.NoError(t, b.Save(&buf))
	loaded, err := LoadBooster(&buf)
	require.NoError(t, err)

	assert.Equal(t, b.NumTrees(), loaded.NumTrees())
	assert.Equal(t, b.CategoricalFeatures, loaded.CategoricalFeatures)

	X := mat.NewDense(4, 2, []float64{
		0.1, 0,
		0.9, 2,
		math.NaN(), 1,
		0.5, 7,
	})
	want, err := b.Predict(X, 1)
	require.NoError(t, err)
	got, err := loaded.Predict(X, 1)
	require.NoError(t, err)
	assert.Equal(t, want.RawVector().Data, got.RawVector().Data)
}

func TestLoadBoosterRejectsUnknownObjective(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, (&Booster{Objective: "poisson", Features: 1}).Save(&buf))

	_, err := LoadBooster(&buf)
	var vErr *errors.ValidationError
	require.True(t, errors.As(err, &vErr))
	assert.Equal(t, "objective", vErr.ParamName)
}

func TestBoosterPredictDimensionMismatch(t *testing.T) {
	b := trainMixedBooster(t)

	_, err := b.Predict(mat.NewDense(2, 3, nil), 1)
	var dimErr *errors.DimensionError
	require.True(t, errors.As(err, &dimErr))
	assert.Equal(t, 2, dimErr.Expected)
	assert.Equal(t, 3, dimErr.Got)

	_, err = b.Predict(nil, 1)
	assert.Error(t, err)
}

// plainMatrix hides the concrete *mat.Dense type.
type plainMatrix struct{ mat.Matrix }

func TestBoosterPredictAcceptsAnyMatrix(t *testing.T) {
	b := trainMixedBooster(t)
	X := mat.NewDense(2, 2, []float64{0.2, 0, 0.8, 2})

	want, err := b.Predict(X, 1)
	require.NoError(t, err)
	got, err := b.Predict(plainMatrix{X}, 1)
	require.NoError(t, err)
	assert.Equal(t, want.RawVector().Data, got.RawVector().Data)
}

func TestBoosterFeatureImportance(t *testing.T) {
	X, y := stepData(200, 10)
	wide := mat.NewDense(200, 2, nil)
	for i := 0; i < 200; i++ {
		wide.Set(i, 0, X.At(i, 0))
		wide.Set(i, 1, 1)
	}
	res, err := Train(smallTreeParams(map[string]interface{}{"num_iterations": 5}), Dataset{X: wide, Y: y})
	require.NoError(t, err)

	split, err := res.Booster.FeatureImportance("split")
	require.NoError(t, err)
	assert.Positive(t, split[0])
	assert.Zero(t, split[1])

	gain, err := res.Booster.FeatureImportance("gain")
	require.NoError(t, err)
	assert.Greater(t, gain[0], 0.0)

	_, err = res.Booster.FeatureImportance("cover")
	assert.Error(t, err)
}
