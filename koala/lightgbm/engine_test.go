package lightgbm

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/koalaml/koala-lightgbm/core/table"
	"github.com/koalaml/koala-lightgbm/engine/gbdt"
	"github.com/koalaml/koala-lightgbm/pkg/errors"
	"github.com/koalaml/koala-lightgbm/preprocessing"
)

var cityEffect = map[string]float64{"NY": 5, "LA": -5, "SF": 0, "TX": 10}

func cityTable(n int) (*table.Table, []float64) {
	cities := []string{"NY", "LA", "SF", "TX"}
	ages := make([]float64, n)
	names := make([]string, n)
	y := make([]float64, n)
	for i := 0; i < n; i++ {
		ages[i] = float64(20 + (i*7)%50)
		names[i] = cities[i%len(cities)]
		y[i] = 0.1*ages[i] + cityEffect[names[i]]
	}
	return table.MustNew(
		table.FloatColumn("age", ages),
		table.StringColumn("city", names),
	), y
}

func smallTrees(h *Hyperparameters) {
	h.WithNumIterations(60).
		WithLearningRate(0.3).
		WithNumLeaves(16).
		WithMinDataInLeaf(5).
		WithMinSumHessianInLeaf(0).
		WithSeed(1)
}

func TestRegressorWithGBDTEngine(t *testing.T) {
	tbl, target := cityTable(400)
	tr := preprocessing.NewCategoricalTransformer(false)
	scheme, X, err := tr.FitTransform(tbl, true, -1)
	require.NoError(t, err)

	reg := NewRegressor()
	smallTrees(&reg.Hyperparameters)
	reg.WithValidationFraction(0.2)

	cache, err := reg.Setup(X, mat.NewVecDense(len(target), target), scheme, true, -1)
	require.NoError(t, err)
	assert.Equal(t, []int{1}, cache.CategoricalIndices)

	pred, report, next, err := reg.Fit(cache, true, -1, false)
	require.NoError(t, err)

	rows, _ := next.X.Dims()
	assert.Equal(t, 320, rows)
	assert.Equal(t, "l2", report.Metric)
	require.Len(t, report.RMSRawValidationErrors, 60)
	assert.Less(t, report.RMSRawValidationErrors[59], report.RMSRawValidationErrors[0])
	assert.Equal(t, 60, report.BestIteration)

	booster, ok := pred.(*gbdt.Booster)
	require.True(t, ok)
	assert.Equal(t, []int{1}, booster.CategoricalFeatures)

	test := table.MustNew(
		table.FloatColumn("age", []float64{30, 30, 30}),
		table.StringColumn("city", []string{"NY", "LA", "Boston"}),
	)
	Xt, err := tr.Transform(scheme, test)
	require.NoError(t, err)
	assert.Equal(t, -1.0, Xt.At(2, 1))

	preds, err := reg.Predict(pred, Xt, true, 3)
	require.NoError(t, err)
	assert.Greater(t, preds.AtVec(0)-preds.AtVec(1), 5.0)
	assert.False(t, math.IsNaN(preds.AtVec(2)))
}

func TestBinaryClassifierWithGBDTEngine(t *testing.T) {
	tbl, _ := cityTable(400)
	labels := make([]float64, tbl.NumRows())
	city, _ := tbl.Column("city")
	for i, c := range city.Strings {
		if c == "NY" || c == "TX" {
			labels[i] = 1
		}
	}

	tr := preprocessing.NewCategoricalTransformer(true)
	scheme, X, err := tr.FitTransform(tbl, true, -1)
	require.NoError(t, err)

	clf := NewBinaryClassifier()
	smallTrees(&clf.Hyperparameters)
	clf.WithMetric("auc").WithValidationFraction(0.25)

	cache, err := clf.Setup(X, mat.NewVecDense(len(labels), labels), scheme, false, -1)
	require.NoError(t, err)
	pred, report, _, err := clf.Fit(cache, false, -1, false)
	require.NoError(t, err)

	assert.Equal(t, "auc", report.Metric)
	require.NotEmpty(t, report.RMSRawValidationErrors)
	assert.InDelta(t, 1.0, report.RMSRawValidationErrors[len(report.RMSRawValidationErrors)-1], 1e-9)

	test := table.MustNew(
		table.FloatColumn("age", []float64{40, 40}),
		table.StringColumn("city", []string{"TX", "SF"}),
	)
	Xt, err := tr.Transform(scheme, test)
	require.NoError(t, err)

	probs, err := clf.Predict(pred, Xt, true, 0)
	require.NoError(t, err)
	assert.Greater(t, probs.AtVec(0), 0.8)
	assert.Less(t, probs.AtVec(1), 0.2)

	labelsOut, err := clf.PredictLabels(pred, Xt, 0.5)
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 0}, labelsOut.RawVector().Data)
}

func TestGBDTEngineRejectsForeignPredictor(t *testing.T) {
	_, err := GBDTEngine{}.Predict(&fakePredictor{features: 1}, mat.NewDense(1, 1, nil))
	var vErr *errors.ValueError
	assert.True(t, errors.As(err, &vErr))
}

func TestGBDTEngineErrorsAreWrapped(t *testing.T) {
	clf := NewBinaryClassifier()
	clf.WithNumIterations(2)
	X := mat.NewDense(4, 1, []float64{1, 2, 3, 4})
	cache, err := clf.Setup(X, mat.NewVecDense(4, []float64{0, 1, 2, 1}), nil, true, -1)
	require.NoError(t, err)

	_, _, _, err = clf.Fit(cache, true, -1, false)
	var mErr *errors.ModelError
	require.True(t, errors.As(err, &mErr))
	var vErr *errors.ValidationError
	require.True(t, errors.As(err, &vErr))
	assert.Equal(t, "label", vErr.ParamName)
}
