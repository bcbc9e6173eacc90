package lightgbm

// ReportKeyValidationErrors is the report key of the first metric's
// validation series.
const ReportKeyValidationErrors = "rms_raw_validation_errors"

// Report summarises a Fit call.
type Report struct {
	// RMSRawValidationErrors is the per-iteration validation series of the
	// first metric, empty when no validation split was used.
	RMSRawValidationErrors []float64 `json:"rms_raw_validation_errors"`
	// Metric names the series above.
	Metric string `json:"metric,omitempty"`
	// BestIteration is the number of iterations the predictor uses.
	BestIteration int `json:"best_iteration"`
	// History holds every metric's validation series.
	History []MetricSeries `json:"history,omitempty"`
	// TrainSamples and ValidationSamples are the split sizes.
	TrainSamples      int `json:"train_samples"`
	ValidationSamples int `json:"validation_samples"`
}

// AsMap returns the report as a record keyed by name.
func (r *Report) AsMap() map[string]interface{} {
	history := make(map[string][]float64, len(r.History))
	for _, s := range r.History {
		history[s.Metric] = append([]float64(nil), s.Values...)
	}
	return map[string]interface{}{
		ReportKeyValidationErrors: append([]float64{}, r.RMSRawValidationErrors...),
		"metric":                  r.Metric,
		"best_iteration":          r.BestIteration,
		"history":                 history,
		"train_samples":           r.TrainSamples,
		"validation_samples":      r.ValidationSamples,
	}
}
