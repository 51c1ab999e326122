package generators

import (
	"fmt"

	p2n "github.com/PIP-Team-3/pip-final-project-sub000"
	"github.com/PIP-Team-3/pip-final-project-sub000/internal/registry"
)

// SklearnDatasetGenerator loads datasets bundled with scikit-learn.
// No network is ever needed, so the offline flag is irrelevant here.
type SklearnDatasetGenerator struct {
	Entry registry.DatasetEntry
}

func (SklearnDatasetGenerator) Name() string { return "sklearn" }

func (g SklearnDatasetGenerator) GenerateImports(plan *p2n.PlanDocument) []string {
	return []string{
		fmt.Sprintf("from sklearn.datasets import %s", g.Entry.LoadFunction),
		"from sklearn.model_selection import train_test_split",
	}
}

func (g SklearnDatasetGenerator) GenerateCode(plan *p2n.PlanDocument) (string, error) {
	if plan.Dataset.Split == "" {
		return "", p2n.NewPlanFieldError("dataset.split", "dataset split is required", nil)
	}
	if g.Entry.LoadFunction == "" {
		return "", p2n.NewPlanFieldError("dataset.name",
			fmt.Sprintf("registry entry %q has no sklearn loader", g.Entry.Canonical), nil)
	}
	return fmt.Sprintf(`log_event(
    "stage_update",
    {
        "stage": "dataset_load",
        "dataset": %s,
        "split": %s,
        "backend": "sklearn",
    },
)

bundle = %s()
X, y = bundle.data, bundle.target
if X.shape[0] > MAX_TRAIN_SAMPLES:
    X, y = X[:MAX_TRAIN_SAMPLES], y[:MAX_TRAIN_SAMPLES]
X_train, X_test, y_train, y_test = train_test_split(
    X, y, test_size=0.2, stratify=y, random_state=SEED
)
num_classes = int(len(set(int(label) for label in y)))
log_event(
    "metric_update",
    {"metric": "dataset_samples", "value": int(X.shape[0])},
)`, pyString(plan.Dataset.Name), pyString(plan.Dataset.Split), g.Entry.LoadFunction), nil
}

func (SklearnDatasetGenerator) GenerateRequirements(plan *p2n.PlanDocument) []string {
	return []string{reqSklearn}
}
