// Package koala adapts a LightGBM-style gradient boosting engine to a small
// supervised-learning lifecycle, with a categorical preprocessing step that
// turns mixed-type tables into float matrices.
//
// # Features
//
//   - Categorical encoding: string columns (and any column named explicitly)
//     are mapped to dense integer codes, unseen values at predict time become -1
//   - Regressor and binary classifier wrappers with Setup/Fit/Predict
//   - Order-preserving validation split and per-iteration validation history
//   - Pluggable engine with a pure-Go histogram GBDT included
//   - Structured logging via zerolog and typed errors via cockroachdb/errors
//
// # Quick Start
//
//	tbl := table.MustNew(
//	    table.FloatColumn("age", []float64{25, 30, 25, 41}),
//	    table.StringColumn("city", []string{"NY", "LA", "NY", "SF"}),
//	)
//	y := mat.NewVecDense(4, []float64{1.5, 2.0, 1.4, 3.1})
//
//	tr := preprocessing.NewCategoricalTransformer(false)
//	scheme, X, err := tr.FitTransform(tbl, true, 0)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	reg := lightgbm.NewRegressor()
//	reg.WithNumIterations(50).WithMinDataInLeaf(1).WithMinSumHessianInLeaf(0)
//	cache, err := reg.Setup(X, y, scheme, true, 0)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	pred, report, _, err := reg.Fit(cache, true, 0, false)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	predictions, err := reg.Predict(pred, X, true, 0)
//
// # Packages
//
//   - core/table: Named, typed columns and CSV input/output
//   - core/model: Lifecycle interfaces, parameter coercion, persistence
//   - core/parallel: Bounded parallel loops
//   - preprocessing: Integer encoding schemes and the categorical transformer
//   - koala/lightgbm: Regressor and BinaryClassifier wrappers, engine contract
//   - engine/gbdt: Histogram gradient boosting with LightGBM parameters
//   - metrics: Regression and binary classification metrics
//   - pkg/errors, pkg/log: Typed errors and structured logging
//   - cmd/koala-lgbm: Command line training and prediction on CSV files
package koala
