package assembler

import (
	"errors"
	"regexp"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	p2n "github.com/PIP-Team-3/pip-final-project-sub000"
	"github.com/PIP-Team-3/pip-final-project-sub000/internal/generators"
)

func plan(dataset, model string) *p2n.PlanDocument {
	return &p2n.PlanDocument{
		Version: p2n.PlanVersion,
		Dataset: p2n.PlanDataset{Name: dataset, Split: "train"},
		Model:   p2n.PlanModel{Name: model, Framework: p2n.FrameworkSklearn},
		Config:  p2n.PlanConfig{Epochs: 3, BatchSize: 32, Optimizer: "adam", LearningRate: 0.001},
		Metrics: []p2n.PlanMetric{{Name: "accuracy", Primary: true, Split: "test"}},
		Policy:  p2n.PlanPolicy{BudgetMinutes: 10, MaxRetries: 1},
	}
}

func assemble(t *testing.T, p *p2n.PlanDocument) *p2n.AssembledNotebook {
	t.Helper()
	factory, err := generators.NewFactory(nil, nil)
	if err != nil {
		t.Fatalf("NewFactory failed: %v", err)
	}
	nb, err := New().Assemble(p, factory.DatasetGenerator(p), factory.ModelGenerator(p))
	if err != nil {
		t.Fatalf("Assemble failed: %v", err)
	}
	return nb
}

func TestAssembleCellOrder(t *testing.T) {
	nb := assemble(t, plan("digits", "logistic"))
	if len(nb.Cells) != 5 {
		t.Fatalf("got %d cells, want 5", len(nb.Cells))
	}
	markers := []string{
		"atexit.register(_write_results)",
		"load_digits",
		"LogisticRegression(",
		"EPOCHS = 3",
		`RUN_STATUS["status"] = "succeeded"`,
	}
	for i, marker := range markers {
		if nb.Cells[i].Type != p2n.CellTypeCode {
			t.Errorf("cell %d type = %q, want code", i, nb.Cells[i].Type)
		}
		if !strings.Contains(nb.Cells[i].Source, marker) {
			t.Errorf("cell %d missing marker %q", i, marker)
		}
	}
	if nb.DatasetBackend != "sklearn" || nb.ModelBackend != "sklearn" {
		t.Errorf("backends = %q/%q, want sklearn/sklearn", nb.DatasetBackend, nb.ModelBackend)
	}
}

func TestAssembleRequirementsStayMinimal(t *testing.T) {
	nb := assemble(t, plan("digits", "logistic"))
	want := []string{"numpy==1.26.4", "scikit-learn==1.5.1"}
	if diff := cmp.Diff(want, nb.Requirements); diff != "" {
		t.Errorf("requirements mismatch (-want +got):\n%s", diff)
	}
	for _, req := range nb.Requirements {
		if strings.HasPrefix(req, "torch") || strings.HasPrefix(req, "datasets") {
			t.Errorf("sklearn-only plan pulled in %q", req)
		}
	}
}

func TestAssembleTorchRequirements(t *testing.T) {
	p := plan("cifar10", "resnet18")
	p.Model.Framework = p2n.FrameworkTorch
	nb := assemble(t, p)
	want := []string{"numpy==1.26.4", "torch==2.2.2", "torchvision==0.17.2"}
	if diff := cmp.Diff(want, nb.Requirements); diff != "" {
		t.Errorf("requirements mismatch (-want +got):\n%s", diff)
	}
}

func TestEnvironmentHashIgnoresBudget(t *testing.T) {
	base := plan("digits", "logistic")
	other := plan("digits", "logistic")
	other.Policy.BudgetMinutes = 90

	first := assemble(t, base)
	second := assemble(t, other)

	if first.Cells[0].Source == second.Cells[0].Source {
		t.Error("budget change should alter the preamble cell")
	}
	if first.EnvironmentHash != second.EnvironmentHash {
		t.Errorf("environment hash changed with budget: %s vs %s",
			first.EnvironmentHash, second.EnvironmentHash)
	}
	if !regexp.MustCompile(`^[0-9a-f]{64}$`).MatchString(first.EnvironmentHash) {
		t.Errorf("environment hash %q is not 64 hex chars", first.EnvironmentHash)
	}
}

func TestAssembleDeterministic(t *testing.T) {
	first := assemble(t, plan("sst2", "logistic"))
	second := assemble(t, plan("sst2", "logistic"))
	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("same plan assembled differently (-first +second):\n%s", diff)
	}
}

func TestAssembleClampsInvalidConfig(t *testing.T) {
	p := plan("digits", "logistic")
	p.Config.Epochs = 0
	p.Config.BatchSize = -4
	p.Policy.BudgetMinutes = 0

	nb := assemble(t, p)
	training := nb.Cells[3].Source
	if !strings.Contains(training, "# warning: config.epochs=0") {
		t.Error("missing epochs clamp warning")
	}
	if !strings.Contains(training, "# warning: config.batch_size=-4") {
		t.Error("missing batch size clamp warning")
	}
	if !strings.Contains(training, "EPOCHS = 1") || !strings.Contains(training, "BATCH_SIZE = 32") {
		t.Errorf("clamped values not applied:\n%s", training)
	}
	if !strings.Contains(nb.Cells[0].Source, "BUDGET_MINUTES = 20") {
		t.Error("zero budget should substitute the default")
	}
}

func TestAssemblePropagatesGeneratorErrors(t *testing.T) {
	p := plan("sst2", "textcnn")
	p.Model.Framework = p2n.FrameworkTorch
	// no architecture: the textcnn generator requires filter_sizes

	factory, err := generators.NewFactory(nil, nil)
	if err != nil {
		t.Fatalf("NewFactory failed: %v", err)
	}
	_, err = New().Assemble(p, factory.DatasetGenerator(p), factory.ModelGenerator(p))
	if err == nil {
		t.Fatal("expected a plan field error")
	}
	var perr *p2n.Error
	if !errors.As(err, &perr) || perr.Code != p2n.ErrCodePlanField {
		t.Errorf("got %v, want a %s error", err, p2n.ErrCodePlanField)
	}
	if !strings.Contains(err.Error(), `model generator "textcnn"`) {
		t.Errorf("error should name the failing generator: %v", err)
	}
}

func TestAssembleNilPlan(t *testing.T) {
	if _, err := New().Assemble(nil, generators.SyntheticDatasetGenerator{}, generators.SklearnModelGenerator{}); err == nil {
		t.Error("expected an error for nil plan")
	}
}
