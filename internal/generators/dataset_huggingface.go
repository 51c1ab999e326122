package generators

import (
	"fmt"
	"strings"

	p2n "github.com/PIP-Team-3/pip-final-project-sub000"
	"github.com/PIP-Team-3/pip-final-project-sub000/internal/registry"
)

// HuggingFaceDatasetGenerator emits a lazy load_dataset call against the
// shared cache directory. download_mode="reuse_dataset_if_exists" makes the
// first run populate the cache and later runs stay offline; when the offline
// flag is set the hub client is told not to reach the network at all.
type HuggingFaceDatasetGenerator struct {
	Entry registry.DatasetEntry
}

func (HuggingFaceDatasetGenerator) Name() string { return "huggingface" }

func (HuggingFaceDatasetGenerator) GenerateImports(plan *p2n.PlanDocument) []string {
	return []string{
		"import os",
		"from datasets import load_dataset",
	}
}

func (g HuggingFaceDatasetGenerator) GenerateCode(plan *p2n.PlanDocument) (string, error) {
	if plan.Dataset.Split == "" {
		return "", p2n.NewPlanFieldError("dataset.split", "dataset split is required", nil)
	}
	if len(g.Entry.HFPath) == 0 {
		return "", p2n.NewPlanFieldError("dataset.name",
			fmt.Sprintf("registry entry %q has no hub path", g.Entry.Canonical), nil)
	}

	args := make([]string, 0, len(g.Entry.HFPath))
	for _, part := range g.Entry.HFPath {
		args = append(args, pyString(part))
	}
	loadArgs := strings.Join(args, ", ")

	return fmt.Sprintf(`log_event(
    "stage_update",
    {
        "stage": "dataset_load",
        "dataset": %s,
        "split": %s,
        "backend": "huggingface",
    },
)

if OFFLINE_MODE:
    os.environ["HF_DATASETS_OFFLINE"] = "1"
raw = load_dataset(
    %s,
    cache_dir=str(CACHE_DIR),
    download_mode="reuse_dataset_if_exists",
)
train_split = raw[%s] if %s in raw else raw["train"]
# GLUE-style test splits hide their labels (-1), so hold out on validation
# whenever the dataset ships one.
test_split = raw["validation"] if "validation" in raw else raw["test"]

text_column = "sentence" if "sentence" in train_split.column_names else "text"
train_split = train_split.select(range(min(len(train_split), MAX_TRAIN_SAMPLES)))
train_texts = list(train_split[text_column])
train_labels = list(train_split["label"])
test_texts = list(test_split[text_column])
test_labels = list(test_split["label"])
num_classes = int(len(set(train_labels)))
log_event(
    "metric_update",
    {"metric": "dataset_samples", "value": len(train_texts)},
)`,
		pyString(plan.Dataset.Name), pyString(plan.Dataset.Split),
		loadArgs,
		pyString(plan.Dataset.Split), pyString(plan.Dataset.Split)), nil
}

func (HuggingFaceDatasetGenerator) GenerateRequirements(plan *p2n.PlanDocument) []string {
	return []string{reqDatasets}
}
