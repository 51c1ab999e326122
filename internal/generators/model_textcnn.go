package generators

import (
	"fmt"
	"strings"

	p2n "github.com/PIP-Team-3/pip-final-project-sub000"
)

// torchOptimizer renders the optimizer constructor for torch-backed models.
// Unknown optimizer names fall back to Adam rather than failing the plan.
func torchOptimizer(cfg p2n.PlanConfig) string {
	lr := cfg.LearningRate
	if lr <= 0 {
		lr = 0.001
	}
	var class string
	switch strings.ToLower(strings.TrimSpace(cfg.Optimizer)) {
	case "sgd":
		class = "torch.optim.SGD"
	case "adadelta":
		class = "torch.optim.Adadelta"
	case "adagrad":
		class = "torch.optim.Adagrad"
	case "rmsprop":
		class = "torch.optim.RMSprop"
	case "adamw":
		class = "torch.optim.AdamW"
	default:
		class = "torch.optim.Adam"
	}
	return fmt.Sprintf("%s(model.parameters(), lr=%g)", class, lr)
}

// TextCNNGenerator emits a convolutional sentence classifier over the text
// dataset variables. The filter widths come from the plan architecture and
// have no safe default, so their absence is a plan field error.
type TextCNNGenerator struct{}

func (TextCNNGenerator) Name() string { return "textcnn" }

func (TextCNNGenerator) GenerateImports(plan *p2n.PlanDocument) []string {
	return []string{
		"import torch",
		"import torch.nn as nn",
		"import torch.nn.functional as F",
		"import numpy as np",
	}
}

func (TextCNNGenerator) GenerateCode(plan *p2n.PlanDocument) (string, error) {
	arch := plan.Model.Architecture
	filterSizes, ok := archIntList(arch, "filter_sizes")
	if !ok || len(filterSizes) == 0 {
		return "", p2n.NewPlanFieldError("model.architecture.filter_sizes",
			"a convolutional text model needs an explicit list of filter widths", nil)
	}

	embeddingDim := archInt(arch, "embedding_dim", 128)
	numFilters := archInt(arch, "num_filters", 100)
	dropout := archFloat(arch, "dropout", 0.5)
	maxLen := archInt(arch, "max_len", 64)

	metric := primaryMetricName(plan)

	return fmt.Sprintf(`log_event("stage_update", {"stage": "model_build", "model": %s, "backend": "textcnn"})
MAX_LEN = %d
PAD, UNK = 0, 1

vocab = {}
for text in train_texts:
    for token in text.lower().split():
        if token not in vocab:
            vocab[token] = len(vocab) + 2
vocab_size = len(vocab) + 2

def encode(texts):
    rows = []
    for text in texts:
        ids = [vocab.get(token, UNK) for token in text.lower().split()][:MAX_LEN]
        ids = ids + [PAD] * (MAX_LEN - len(ids))
        rows.append(ids)
    return torch.tensor(rows, dtype=torch.long)

train_ids = encode(train_texts)
test_ids = encode(test_texts)
train_y = torch.tensor(train_labels, dtype=torch.long)
test_y = torch.tensor(test_labels, dtype=torch.long)

class TextCNN(nn.Module):
    def __init__(self, vocab_size, num_classes):
        super().__init__()
        self.embedding = nn.Embedding(vocab_size, %d, padding_idx=PAD)
        self.convs = nn.ModuleList([
            nn.Conv1d(%d, %d, kernel_size=k) for k in %s
        ])
        self.dropout = nn.Dropout(%g)
        self.fc = nn.Linear(%d * len(self.convs), num_classes)

    def forward(self, ids):
        x = self.embedding(ids).transpose(1, 2)
        pooled = [F.relu(conv(x)).max(dim=2).values for conv in self.convs]
        return self.fc(self.dropout(torch.cat(pooled, dim=1)))

model = TextCNN(vocab_size, num_classes)
optimizer = %s
criterion = nn.CrossEntropyLoss()

def train_epoch(model, epoch):
    model.train()
    perm = torch.randperm(train_ids.size(0), generator=torch.Generator().manual_seed(SEED + epoch))
    total_loss, batches = 0.0, 0
    for start in range(0, train_ids.size(0), BATCH_SIZE):
        idx = perm[start:start + BATCH_SIZE]
        optimizer.zero_grad()
        loss = criterion(model(train_ids[idx]), train_y[idx])
        loss.backward()
        optimizer.step()
        total_loss += float(loss.item())
        batches += 1
    return {"train_loss": total_loss / max(1, batches)}

def evaluate_model(model):
    model.eval()
    correct = 0
    with torch.no_grad():
        for start in range(0, test_ids.size(0), BATCH_SIZE):
            logits = model(test_ids[start:start + BATCH_SIZE])
            correct += int((logits.argmax(dim=1) == test_y[start:start + BATCH_SIZE]).sum().item())
    accuracy = correct / max(1, test_ids.size(0))
    return {%s: accuracy}`,
		pyString(plan.Model.Name), maxLen,
		embeddingDim, embeddingDim, numFilters, pyIntList(filterSizes),
		dropout, numFilters,
		torchOptimizer(plan.Config),
		pyString(metric)), nil
}

func (TextCNNGenerator) GenerateRequirements(plan *p2n.PlanDocument) []string {
	return []string{reqTorch, reqNumpy}
}
