// Package lightgbm adapts a gradient boosting engine to the setup/fit/predict
// model lifecycle.
//
// Regressor and BinaryClassifier hold a Hyperparameters record with
// LightGBM's parameter names. Setup resolves the categorical columns of a
// preprocessing.TransformScheme to indices and copies the data; Fit
// optionally holds out a trailing validation slice, fills unset seeds from
// a SeedSource, pins the engine to one thread when parallelism is off and
// reports the first metric's validation series under
// "rms_raw_validation_errors"; Predict delegates to the engine.
//
// The engine is pluggable through the Engine interface. GBDTEngine, the
// default, runs the histogram GBDT engine in engine/gbdt.
package lightgbm
