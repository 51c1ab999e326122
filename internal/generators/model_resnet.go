package generators

import (
	"fmt"

	p2n "github.com/PIP-Team-3/pip-final-project-sub000"
	"github.com/PIP-Team-3/pip-final-project-sub000/internal/registry"
)

// ResNetGenerator emits a torchvision residual network trained from scratch
// over the image dataset variables. Weights are never downloaded; offline runs
// must stay reproducible from the pinned packages alone.
type ResNetGenerator struct {
	Entry registry.ModelEntry
}

func (ResNetGenerator) Name() string { return "resnet" }

func (g ResNetGenerator) depth() int {
	switch g.Entry.Depth {
	case 18, 34, 50, 101, 152:
		return g.Entry.Depth
	default:
		return 18
	}
}

func (ResNetGenerator) GenerateImports(plan *p2n.PlanDocument) []string {
	return []string{
		"import torch",
		"import torch.nn as nn",
		"from torch.utils.data import DataLoader",
		"from torchvision import models",
	}
}

func (g ResNetGenerator) GenerateCode(plan *p2n.PlanDocument) (string, error) {
	if plan.Model.Name == "" {
		return "", p2n.NewPlanFieldError("model.name", "model name is required", nil)
	}
	metric := primaryMetricName(plan)

	return fmt.Sprintf(`log_event("stage_update", {"stage": "model_build", "model": %s, "backend": "resnet%d"})
model = models.resnet%d(weights=None, num_classes=num_classes)

sample, _ = train_dataset[0]
in_channels = int(sample.shape[0])
if in_channels != 3:
    model.conv1 = nn.Conv2d(in_channels, 64, kernel_size=7, stride=2, padding=3, bias=False)

loader_gen = torch.Generator().manual_seed(SEED)
train_loader = DataLoader(train_dataset, batch_size=BATCH_SIZE, shuffle=True, generator=loader_gen)
test_loader = DataLoader(test_dataset, batch_size=BATCH_SIZE, shuffle=False)

optimizer = %s
criterion = nn.CrossEntropyLoss()

def train_epoch(model, epoch):
    model.train()
    total_loss, batches = 0.0, 0
    for images, labels in train_loader:
        optimizer.zero_grad()
        loss = criterion(model(images), labels)
        loss.backward()
        optimizer.step()
        total_loss += float(loss.item())
        batches += 1
    return {"train_loss": total_loss / max(1, batches)}

def evaluate_model(model):
    model.eval()
    correct, total = 0, 0
    with torch.no_grad():
        for images, labels in test_loader:
            preds = model(images).argmax(dim=1)
            correct += int((preds == labels).sum().item())
            total += int(labels.size(0))
    return {%s: correct / max(1, total)}`,
		pyString(plan.Model.Name), g.depth(), g.depth(),
		torchOptimizer(plan.Config),
		pyString(metric)), nil
}

func (ResNetGenerator) GenerateRequirements(plan *p2n.PlanDocument) []string {
	return []string{reqTorch, reqTorchvision}
}
