package generators

import (
	"fmt"

	p2n "github.com/PIP-Team-3/pip-final-project-sub000"
)

// SyntheticDatasetGenerator is the guaranteed fallback: deterministic
// classification data generated from the run seed, no download ever. Every
// schema-valid plan can be materialized through it.
type SyntheticDatasetGenerator struct{}

func (SyntheticDatasetGenerator) Name() string { return "synthetic" }

func (SyntheticDatasetGenerator) GenerateImports(plan *p2n.PlanDocument) []string {
	return []string{
		"from sklearn.datasets import make_classification",
		"from sklearn.model_selection import train_test_split",
	}
}

func (SyntheticDatasetGenerator) GenerateCode(plan *p2n.PlanDocument) (string, error) {
	if plan.Dataset.Split == "" {
		return "", p2n.NewPlanFieldError("dataset.split", "dataset split is required", nil)
	}
	return fmt.Sprintf(`log_event(
    "stage_update",
    {
        "stage": "dataset_load",
        "dataset": %s,
        "split": %s,
        "backend": "synthetic",
    },
)

n_samples = min(512, MAX_TRAIN_SAMPLES)
X, y = make_classification(
    n_samples=n_samples,
    n_features=32,
    n_informative=16,
    n_redundant=4,
    random_state=SEED,
)
X_train, X_test, y_train, y_test = train_test_split(
    X, y, test_size=0.2, stratify=y, random_state=SEED
)
num_classes = 2
log_event(
    "metric_update",
    {"metric": "dataset_samples", "value": int(X.shape[0])},
)`, pyString(plan.Dataset.Name), pyString(plan.Dataset.Split)), nil
}

func (SyntheticDatasetGenerator) GenerateRequirements(plan *p2n.PlanDocument) []string {
	return []string{reqSklearn}
}
