package p2n

import "context"

// CodeGenerator is the contract every concrete generator implements, one per
// registry backend tag per entity kind (dataset or model).
//
// Generators are stateless and pure: for the same plan every method returns
// byte-identical output, with no I/O, no randomness, and no environment
// reads at generation time. Environment-dependent behavior is deferred to
// notebook runtime through the conventionally-named globals established by
// the determinism cell (SEED, CACHE_DIR, OFFLINE_MODE, MAX_TRAIN_SAMPLES,
// plus the log_event and check_budget hooks).
//
// Model generators must additionally define, inside their generated code,
// the two functions the assembler's training-loop and results cells call:
//
//	train_epoch(model, epoch) -> dict of metric name to value
//	evaluate_model(model)     -> dict of metric name to value
//
// GenerateCode may only fail on malformed plan data (a required sub-spec
// field absent or out of range); anything else a generator cannot honor is
// clamped or defaulted with a warning comment in the emitted code.
type CodeGenerator interface {
	// Name returns the generator's backend tag (e.g. "huggingface", "textcnn"),
	// used for error attribution and fallback reporting.
	Name() string

	// GenerateImports returns the import statements the generated code needs.
	GenerateImports(plan *PlanDocument) []string

	// GenerateCode returns the body of the cell this generator contributes.
	GenerateCode(plan *PlanDocument) (string, error)

	// GenerateRequirements returns pinned pip requirement specifiers.
	GenerateRequirements(plan *PlanDocument) []string
}

// GeneratorFactory resolves a plan's free-text dataset and model names onto
// concrete generators. Resolution never fails: a registry miss selects the
// synthetic dataset generator or the simplest sklearn model generator.
type GeneratorFactory interface {
	DatasetGenerator(plan *PlanDocument) CodeGenerator
	ModelGenerator(plan *PlanDocument) CodeGenerator
}

// NotebookAssembler turns a plan plus its resolved generators into the fixed
// five-cell notebook: determinism/safety, dataset, model, training loop,
// results serialization.
type NotebookAssembler interface {
	Assemble(plan *PlanDocument, datasetGen, modelGen CodeGenerator) (*AssembledNotebook, error)
}

// Planner generates a validated plan document from extracted claims.
// Implementations live outside the core (the two-stage LLM planner); the
// core only consumes their output.
type Planner interface {
	GeneratePlan(ctx context.Context, input PlannerInput) (*PlanDocument, error)
}

// Cache memoizes materialization results by plan digest. Materialization is a
// pure function of its plan, so cached results are always safe to reuse.
type Cache interface {
	Get(ctx context.Context, key string) (interface{}, error)
	Set(ctx context.Context, key string, value interface{}) error
}

// ArtifactStore is the narrow persistence contract the core's callers use to
// park materialized artifacts. The core itself never calls it.
type ArtifactStore interface {
	Put(ctx context.Context, path string, data []byte) error
	Get(ctx context.Context, path string) ([]byte, error)
	List(ctx context.Context, prefix string) ([]string, error)
	Delete(ctx context.Context, path string) error
}
