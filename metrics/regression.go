// Package metrics は学習器の評価指標を提供する。
//
// 回帰 (MSE, RMSE, MAE, R2) と二値分類 (LogLoss, 誤分類率, AUC) の指標を含み、
// gbdt エンジンの評価関数としても使われる。
package metrics

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/koalaml/koala-lightgbm/pkg/errors"
)

// checkPair は2つのベクトルが空でなく同じ長さであることを確認し、生データを返す
func checkPair(op string, yTrue, yPred *mat.VecDense) ([]float64, []float64, error) {
	if yTrue == nil || yPred == nil || yTrue.IsEmpty() || yPred.IsEmpty() {
		return nil, nil, errors.NewValueError(op, "empty vector")
	}
	n := yTrue.Len()
	if yPred.Len() != n {
		return nil, nil, errors.NewDimensionError(op, n, yPred.Len(), 0)
	}
	return rawVector(yTrue), rawVector(yPred), nil
}

func rawVector(v *mat.VecDense) []float64 {
	raw := v.RawVector()
	if raw.Inc == 1 {
		return raw.Data[:v.Len()]
	}
	out := make([]float64, v.Len())
	for i := range out {
		out[i] = v.AtVec(i)
	}
	return out
}

// firstColumn は行列の最初の列をベクトルとして取り出す
func firstColumn(op string, m mat.Matrix) (*mat.VecDense, error) {
	if m == nil {
		return nil, errors.NewValueError(op, "nil matrix")
	}
	if d, ok := m.(*mat.Dense); ok && d.IsEmpty() {
		return nil, errors.NewValueError(op, "empty matrix")
	}
	r, c := m.Dims()
	if r == 0 || c == 0 {
		return nil, errors.NewValueError(op, "empty matrix")
	}
	return mat.NewVecDense(r, mat.Col(nil, 0, m)), nil
}

// MSE は平均二乗誤差（Mean Squared Error）を計算する
func MSE(yTrue, yPred *mat.VecDense) (float64, error) {
	a, b, err := checkPair("MSE", yTrue, yPred)
	if err != nil {
		return 0, err
	}
	d := floats.Distance(a, b, 2)
	return d * d / float64(len(a)), nil
}

// MSEMatrix は n×1 行列形式の入力に対して MSE を計算する
func MSEMatrix(yTrue, yPred mat.Matrix) (float64, error) {
	t, err := firstColumn("MSEMatrix", yTrue)
	if err != nil {
		return 0, err
	}
	p, err := firstColumn("MSEMatrix", yPred)
	if err != nil {
		return 0, err
	}
	if _, c := yTrue.Dims(); c != 1 {
		return 0, errors.NewValueError("MSEMatrix", "must be a column vector (n×1 matrix)")
	}
	return MSE(t, p)
}

// RMSE は平方根平均二乗誤差（Root Mean Squared Error）を計算する
func RMSE(yTrue, yPred *mat.VecDense) (float64, error) {
	mse, err := MSE(yTrue, yPred)
	if err != nil {
		return 0, err
	}
	return math.Sqrt(mse), nil
}

// MAE は平均絶対誤差（Mean Absolute Error）を計算する
func MAE(yTrue, yPred *mat.VecDense) (float64, error) {
	a, b, err := checkPair("MAE", yTrue, yPred)
	if err != nil {
		return 0, err
	}
	return floats.Distance(a, b, 1) / float64(len(a)), nil
}

// R2Score は決定係数（R²）を計算する
func R2Score(yTrue, yPred *mat.VecDense) (float64, error) {
	a, b, err := checkPair("R2Score", yTrue, yPred)
	if err != nil {
		return 0, err
	}
	if stat.Variance(a, nil) == 0 || len(a) == 1 {
		return 0, errors.Newf("R2Score: total sum of squares is zero (no variance in yTrue)")
	}
	return stat.RSquaredFrom(b, a, nil), nil
}
