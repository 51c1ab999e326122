package generators

import (
	"fmt"

	p2n "github.com/PIP-Team-3/pip-final-project-sub000"
	"github.com/PIP-Team-3/pip-final-project-sub000/internal/registry"
)

// TorchvisionDatasetGenerator instantiates a torchvision dataset rooted at
// the cache directory. The download flag is gated by the offline-mode global
// so a sandboxed run only ever touches data already in the cache.
type TorchvisionDatasetGenerator struct {
	Entry registry.DatasetEntry
}

func (TorchvisionDatasetGenerator) Name() string { return "torchvision" }

func (TorchvisionDatasetGenerator) GenerateImports(plan *p2n.PlanDocument) []string {
	return []string{
		"import torch",
		"from torchvision import datasets as tv_datasets",
		"from torchvision import transforms",
	}
}

func (g TorchvisionDatasetGenerator) GenerateCode(plan *p2n.PlanDocument) (string, error) {
	if plan.Dataset.Split == "" {
		return "", p2n.NewPlanFieldError("dataset.split", "dataset split is required", nil)
	}
	if g.Entry.LoadFunction == "" {
		return "", p2n.NewPlanFieldError("dataset.name",
			fmt.Sprintf("registry entry %q has no torchvision class", g.Entry.Canonical), nil)
	}
	return fmt.Sprintf(`log_event(
    "stage_update",
    {
        "stage": "dataset_load",
        "dataset": %s,
        "split": %s,
        "backend": "torchvision",
    },
)

transform = transforms.Compose([transforms.ToTensor()])
train_dataset = tv_datasets.%s(
    root=str(CACHE_DIR),
    train=True,
    download=not OFFLINE_MODE,
    transform=transform,
)
test_dataset = tv_datasets.%s(
    root=str(CACHE_DIR),
    train=False,
    download=not OFFLINE_MODE,
    transform=transform,
)
if len(train_dataset) > MAX_TRAIN_SAMPLES:
    train_dataset = torch.utils.data.Subset(train_dataset, range(MAX_TRAIN_SAMPLES))
num_classes = int(len(getattr(test_dataset, "classes", [])) or 10)
log_event(
    "metric_update",
    {"metric": "dataset_samples", "value": len(train_dataset)},
)`,
		pyString(plan.Dataset.Name), pyString(plan.Dataset.Split),
		g.Entry.LoadFunction, g.Entry.LoadFunction), nil
}

func (TorchvisionDatasetGenerator) GenerateRequirements(plan *p2n.PlanDocument) []string {
	return []string{reqTorch, reqTorchvision}
}
