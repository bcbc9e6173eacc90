// Package log defines standard attribute keys for machine learning operations.
//
// Keys follow a hierarchical naming convention ("model.name", "data.samples")
// so that records from the transformer, the wrappers and the engine can be
// filtered together.
package log

// Model and Operation Context
const (
	// ModelNameKey identifies the type of model or transformer.
	// Examples: "Regressor", "BinaryClassifier", "CategoricalTransformer"
	ModelNameKey = "model.name"

	// OperationKey specifies the lifecycle operation being performed.
	OperationKey = "ml.operation"

	// ComponentKey identifies which component is logging.
	// Examples: "koala.lightgbm", "gbdt.trainer", "preprocessing"
	ComponentKey = "ml.component"

	// PhaseKey indicates the phase of model lifecycle.
	PhaseKey = "ml.phase"

	// EngineKey names the training engine behind a wrapper.
	EngineKey = "model.engine"
)

// Data Shape and Characteristics
const (
	// SamplesKey indicates the number of samples (rows) in the dataset.
	SamplesKey = "data.samples"

	// FeaturesKey indicates the number of features (columns) in the dataset.
	FeaturesKey = "data.features"

	// ValidationSamplesKey indicates the number of rows held out for validation.
	ValidationSamplesKey = "data.validation_samples"

	// CategoricalKey lists the categorical feature names or indices.
	CategoricalKey = "data.categorical"

	// ColumnKey names a single table column.
	ColumnKey = "data.column"

	// CategoriesKey records the number of distinct categories in a column.
	CategoriesKey = "data.categories"
)

// Performance and Training Metrics
const (
	// DurationMsKey records the execution time of an operation in milliseconds.
	DurationMsKey = "perf.duration_ms"

	// IterationKey records the current boosting iteration.
	IterationKey = "training.iteration"

	// MetricKey names an evaluation metric ("l2", "binary_logloss", ...).
	MetricKey = "metrics.name"

	// MetricValueKey records the value of MetricKey.
	MetricValueKey = "metrics.value"

	// LossKey records loss value during training or evaluation.
	LossKey = "metrics.loss"

	// BestIterationKey records the iteration chosen by early stopping.
	BestIterationKey = "training.best_iteration"

	// LeavesKey records the number of leaves of a freshly grown tree.
	LeavesKey = "training.leaves"
)

// Error and Warning Context
const (
	// ErrorCodeKey provides a structured error code for programmatic handling.
	ErrorCodeKey = "error.code"

	// StacktraceKey contains stack trace information for debugging.
	// Populated automatically for errors created through pkg/errors.
	StacktraceKey = "error.stacktrace"

	// WarningKey carries a structured warning object.
	WarningKey = "warning"
)

// Hyperparameters and Configuration
const (
	// HyperParamsKey contains model hyperparameters as a structured object.
	HyperParamsKey = "model.hyperparams"

	// LearningRateKey records the learning rate.
	LearningRateKey = "hyperparams.learning_rate"

	// RandomSeedKey records a random seed for reproducibility.
	RandomSeedKey = "config.random_seed"

	// ThreadsKey records the thread budget handed to the engine.
	ThreadsKey = "config.num_threads"
)

// Standard attribute values.
const (
	OperationFit       = "fit"
	OperationPredict   = "predict"
	OperationTransform = "transform"
	OperationSetup     = "setup"

	PhaseTraining      = "training"
	PhaseValidation    = "validation"
	PhaseInference     = "inference"
	PhasePreprocessing = "preprocessing"

	ErrorSchemaMismatch    = "SCHEMA_MISMATCH"
	ErrorUnresolvedFeature = "UNRESOLVED_FEATURE"
	ErrorEngineFailure     = "ENGINE_FAILURE"
	ErrorInvalidInput      = "INVALID_INPUT"
)
