package metrics

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func vec(v ...float64) *mat.VecDense {
	if len(v) == 0 {
		return &mat.VecDense{}
	}
	return mat.NewVecDense(len(v), v)
}

func TestRegressionMetrics(t *testing.T) {
	tests := []struct {
		name    string
		fn      func(a, b *mat.VecDense) (float64, error)
		yTrue   *mat.VecDense
		yPred   *mat.VecDense
		want    float64
		wantErr bool
	}{
		{"MSE perfect", MSE, vec(1, 2, 3), vec(1, 2, 3), 0, false},
		{"MSE simple", MSE, vec(1, 2, 3, 4), vec(1.5, 2.5, 2.5, 3.5), 0.25, false},
		{"MSE larger errors", MSE, vec(10, 20, 30), vec(12, 18, 33), 17.0 / 3.0, false},
		{"MSE dimension mismatch", MSE, vec(1, 2, 3), vec(1, 2), 0, true},
		{"MSE empty", MSE, vec(), vec(), 0, true},
		{"MSE nil", MSE, nil, vec(1), 0, true},
		{"RMSE", RMSE, vec(1, 2, 3, 4), vec(1.5, 2.5, 2.5, 3.5), 0.5, false},
		{"MAE", MAE, vec(1, 2, 3), vec(2, 2, 1), 1, false},
		{"R2 perfect", R2Score, vec(1, 2, 3), vec(1, 2, 3), 1, false},
		{"R2 mean predictor", R2Score, vec(1, 2, 3), vec(2, 2, 2), 0, false},
		{"R2 constant target", R2Score, vec(2, 2, 2), vec(1, 2, 3), 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.fn(tt.yTrue, tt.yPred)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-10)
		})
	}
}

func TestMSEMatrix(t *testing.T) {
	got, err := MSEMatrix(mat.NewDense(2, 1, []float64{1, 3}), mat.NewDense(2, 1, []float64{2, 3}))
	require.NoError(t, err)
	assert.InDelta(t, 0.5, got, 1e-12)

	_, err = MSEMatrix(mat.NewDense(2, 2, []float64{1, 2, 3, 4}), mat.NewDense(2, 2, []float64{1, 2, 3, 4}))
	assert.Error(t, err)

	_, err = MSEMatrix(nil, mat.NewDense(1, 1, []float64{1}))
	assert.Error(t, err)
}

func BenchmarkMSE(b *testing.B) {
	n := 10000
	yTrue := mat.NewVecDense(n, nil)
	yPred := mat.NewVecDense(n, nil)
	for i := 0; i < n; i++ {
		yTrue.SetVec(i, math.Sin(float64(i)))
		yPred.SetVec(i, math.Cos(float64(i)))
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = MSE(yTrue, yPred)
	}
}
