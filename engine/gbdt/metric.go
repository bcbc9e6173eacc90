package gbdt

import (
	"strings"

	"gonum.org/v1/gonum/mat"

	"github.com/koalaml/koala-lightgbm/metrics"
	"github.com/koalaml/koala-lightgbm/pkg/errors"
)

// Metric names.
const (
	MetricL1            = "l1"
	MetricL2            = "l2"
	MetricRMSE          = "rmse"
	MetricBinaryLogloss = "binary_logloss"
	MetricBinaryError   = "binary_error"
	MetricAUC           = "auc"
)

func canonicalMetric(name string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "l1", "mean_absolute_error", "mae", "regression_l1":
		return MetricL1, nil
	case "l2", "mean_squared_error", "mse", "regression_l2", "regression":
		return MetricL2, nil
	case "rmse", "root_mean_squared_error", "l2_root":
		return MetricRMSE, nil
	case "binary_logloss", "binary":
		return MetricBinaryLogloss, nil
	case "binary_error":
		return MetricBinaryError, nil
	case "auc":
		return MetricAUC, nil
	case "none", "null", "custom", "na", "":
		return "", nil
	default:
		return "", errors.NewValidationError("metric", "unknown metric", name)
	}
}

// resolveMetrics returns the canonical metric list, defaulting to the
// objective's natural metric when none is given. "None" disables metrics.
func resolveMetrics(names []string, objective string) ([]string, error) {
	if len(names) == 0 {
		if objective == ObjectiveBinary {
			return []string{MetricBinaryLogloss}, nil
		}
		return []string{MetricL2}, nil
	}
	var out []string
	seen := map[string]bool{}
	for _, n := range names {
		c, err := canonicalMetric(n)
		if err != nil {
			return nil, err
		}
		if c == "" {
			return nil, nil
		}
		if !seen[c] {
			seen[c] = true
			out = append(out, c)
		}
	}
	return out, nil
}

// higherBetter reports whether larger values of the metric are better.
func higherBetter(metric string) bool {
	return metric == MetricAUC
}

// evalMetric computes metric over labels and transformed predictions.
func evalMetric(metric string, labels, preds []float64) (float64, error) {
	y := mat.NewVecDense(len(labels), labels)
	p := mat.NewVecDense(len(preds), preds)
	switch metric {
	case MetricL1:
		return metrics.MAE(y, p)
	case MetricL2:
		return metrics.MSE(y, p)
	case MetricRMSE:
		return metrics.RMSE(y, p)
	case MetricBinaryLogloss:
		return metrics.BinaryLogLoss(y, p)
	case MetricBinaryError:
		return metrics.BinaryError(y, p, 0.5)
	case MetricAUC:
		return metrics.AUC(y, p)
	default:
		return 0, errors.NewValidationError("metric", "unknown metric", metric)
	}
}
