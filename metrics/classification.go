package metrics

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/koalaml/koala-lightgbm/pkg/errors"
)

// logLossEpsilon は log(0) を避けるための確率のクリップ幅
const logLossEpsilon = 1e-15

func checkBinaryLabels(op string, y []float64) error {
	for _, v := range y {
		if v != 0 && v != 1 {
			return errors.NewValidationError("y_true", op+": labels must be 0 or 1", v)
		}
	}
	return nil
}

// AUC は ROC 曲線下面積を計算する。同順位のスコアは平均順位で扱う。
// 正例または負例しかない場合は 0.5 を返す。
func AUC(yTrue, yScore *mat.VecDense) (float64, error) {
	y, s, err := checkPair("AUC", yTrue, yScore)
	if err != nil {
		return 0, err
	}
	if err := checkBinaryLabels("AUC", y); err != nil {
		return 0, err
	}
	return aucFromScores(y, s), nil
}

// AUCMatrix は行列の最初の列に対して AUC を計算する
func AUCMatrix(yTrue, yScore mat.Matrix) (float64, error) {
	t, err := firstColumn("AUCMatrix", yTrue)
	if err != nil {
		return 0, err
	}
	p, err := firstColumn("AUCMatrix", yScore)
	if err != nil {
		return 0, err
	}
	return AUC(t, p)
}

// aucFromScores は Mann-Whitney の U 統計量から AUC を求める
func aucFromScores(y, s []float64) float64 {
	n := len(y)
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool { return s[order[a]] < s[order[b]] })

	var nPos, nNeg, rankSum float64
	for i := 0; i < n; {
		j := i
		for j+1 < n && s[order[j+1]] == s[order[i]] {
			j++
		}
		// 1 始まりの平均順位
		avgRank := float64(i+j)/2 + 1
		for k := i; k <= j; k++ {
			if y[order[k]] == 1 {
				nPos++
				rankSum += avgRank
			} else {
				nNeg++
			}
		}
		i = j + 1
	}
	if nPos == 0 || nNeg == 0 {
		return 0.5
	}
	return (rankSum - nPos*(nPos+1)/2) / (nPos * nNeg)
}

// BinaryLogLoss は二値交差エントロピーを計算する。yProb は P(y=1)。
func BinaryLogLoss(yTrue, yProb *mat.VecDense) (float64, error) {
	y, p, err := checkPair("BinaryLogLoss", yTrue, yProb)
	if err != nil {
		return 0, err
	}
	if err := checkBinaryLabels("BinaryLogLoss", y); err != nil {
		return 0, err
	}
	var sum float64
	for i := range y {
		pi := math.Min(math.Max(p[i], logLossEpsilon), 1-logLossEpsilon)
		if y[i] == 1 {
			sum -= math.Log(pi)
		} else {
			sum -= math.Log(1 - pi)
		}
	}
	return sum / float64(len(y)), nil
}

// ClassificationError は誤分類率を計算する。yPred はクラスラベル。
func ClassificationError(yTrue, yPred *mat.VecDense) (float64, error) {
	acc, err := Accuracy(yTrue, yPred)
	if err != nil {
		return 0, err
	}
	return 1 - acc, nil
}

// Accuracy は正解率を計算する
func Accuracy(yTrue, yPred *mat.VecDense) (float64, error) {
	y, p, err := checkPair("Accuracy", yTrue, yPred)
	if err != nil {
		return 0, err
	}
	correct := 0
	for i := range y {
		if y[i] == p[i] {
			correct++
		}
	}
	return float64(correct) / float64(len(y)), nil
}

// BinaryError は確率 yProb を threshold で二値化したときの誤分類率を計算する
func BinaryError(yTrue, yProb *mat.VecDense, threshold float64) (float64, error) {
	y, p, err := checkPair("BinaryError", yTrue, yProb)
	if err != nil {
		return 0, err
	}
	wrong := 0
	for i := range y {
		pred := 0.0
		if p[i] > threshold {
			pred = 1
		}
		if pred != y[i] {
			wrong++
		}
	}
	return float64(wrong) / float64(len(y)), nil
}
