// Standard attribute keys for glmbench log records.
//
// Keys follow a hierarchical naming convention (e.g. "model.name",
// "data.samples") so that benchmark logs can be filtered and aggregated.

package log

// Model and Operation Context
const (
	// ModelNameKey identifies the estimator type.
	// Examples: "GeneralizedLinearRegressor", "ElasticNet", "Ridge"
	ModelNameKey = "model.name"

	// OperationKey specifies the operation being performed.
	// Standard values: "fit", "predict", "transform", "score"
	OperationKey = "ml.operation"

	// ComponentKey identifies which package is performing the operation.
	ComponentKey = "ml.component"

	// LibraryKey names the benchmarked library behind an adapter.
	LibraryKey = "bench.library"
)

// Data Shape
const (
	SamplesKey  = "data.samples"
	FeaturesKey = "data.features"
	// SparseKey is true when X is stored as a sparse matrix.
	SparseKey = "data.sparse"
)

// Performance and convergence
const (
	DurationMsKey = "perf.duration_ms"
	LossKey       = "metrics.loss"
	MSEKey        = "metrics.mse"
	R2ScoreKey    = "metrics.r2_score"
	IterationKey  = "training.iteration"
	ConvergedKey  = "training.converged"
)

// Hyperparameters
const (
	AlphaKey   = "hyperparams.alpha"
	L1RatioKey = "hyperparams.l1_ratio"
	SolverKey  = "hyperparams.solver"
	FamilyKey  = "hyperparams.family"
	LinkKey    = "hyperparams.link"
	FoldKey    = "cv.fold"
	NFoldsKey  = "cv.n_folds"
)

// Error and Warning Context
const (
	ErrorCodeKey  = "error.code"
	StacktraceKey = "error.stacktrace"
	// SuggestionKey provides helpful suggestions for resolving issues.
	SuggestionKey = "error.suggestion"
	ReasonKey     = "reason"
)

// Standard attribute values.
const (
	OperationFit       = "fit"
	OperationPredict   = "predict"
	OperationTransform = "transform"
	OperationScore     = "score"

	ErrorNotFitted         = "NOT_FITTED"
	ErrorDimensionMismatch = "DIMENSION_MISMATCH"
	ErrorConvergence       = "CONVERGENCE_FAILURE"
	ErrorSkipped           = "SKIPPED"
)
