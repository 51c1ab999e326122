package sanitizer

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	p2n "github.com/PIP-Team-3/pip-final-project-sub000"
	"github.com/PIP-Team-3/pip-final-project-sub000/internal/registry"
)

func datasets(t *testing.T) *registry.DatasetRegistry {
	t.Helper()
	r, err := registry.NewDatasetRegistry()
	if err != nil {
		t.Fatalf("NewDatasetRegistry failed: %v", err)
	}
	return r
}

func rawPlan(dataset string) map[string]interface{} {
	return map[string]interface{}{
		"version": "1.1",
		"dataset": map[string]interface{}{"name": dataset, "split": "train"},
		"model":   map[string]interface{}{"name": "logistic", "framework": "sklearn"},
		"config": map[string]interface{}{
			"epochs": 3, "batch_size": 32, "optimizer": "adam", "learning_rate": 0.001,
		},
		"metrics": []interface{}{
			map[string]interface{}{"name": "accuracy", "primary": true, "split": "test"},
		},
		"policy": map[string]interface{}{"budget_minutes": 10, "max_retries": 1},
		"justifications": map[string]interface{}{
			"dataset": map[string]interface{}{"quote": "q", "citation": "c"},
			"model":   map[string]interface{}{"quote": "q", "citation": "c"},
			"config":  map[string]interface{}{"quote": "q", "citation": "c"},
		},
	}
}

func TestCoerceValue(t *testing.T) {
	got := coerceValue(map[string]interface{}{
		"epochs":    "10",
		"lr":        "0.5",
		"primary":   "true",
		"tolerance": "null",
		"name":      "sst2",
		"nested":    []interface{}{map[string]interface{}{"count": "5"}},
	})
	want := map[string]interface{}{
		"epochs":    10,
		"lr":        0.5,
		"primary":   true,
		"tolerance": nil,
		"name":      "sst2",
		"nested":    []interface{}{map[string]interface{}{"count": 5}},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("coerceValue mismatch (-want +got):\n%s", diff)
	}
}

func TestSanitizeCoercesStringNumbers(t *testing.T) {
	raw := rawPlan("sst2")
	raw["config"] = map[string]interface{}{
		"epochs": "5", "batch_size": "64", "optimizer": "adam", "learning_rate": "0.01",
	}
	plan, _, err := Sanitize(raw, datasets(t), p2n.PlanPolicy{BudgetMinutes: 10})
	if err != nil {
		t.Fatalf("Sanitize failed: %v", err)
	}
	if plan.Config.Epochs != 5 || plan.Config.BatchSize != 64 {
		t.Errorf("config not coerced: %+v", plan.Config)
	}
	if plan.Config.LearningRate != 0.01 {
		t.Errorf("learning rate = %v, want 0.01", plan.Config.LearningRate)
	}
}

func TestSanitizePrunesUnknownKeys(t *testing.T) {
	raw := rawPlan("sst2")
	raw["hallucinated_section"] = map[string]interface{}{"foo": 1}
	plan, _, err := Sanitize(raw, datasets(t), p2n.PlanPolicy{BudgetMinutes: 10})
	if err != nil {
		t.Fatalf("Sanitize failed: %v", err)
	}
	if plan == nil {
		t.Fatal("expected a plan")
	}
}

func TestSanitizeResolvesAlias(t *testing.T) {
	plan, warnings, err := Sanitize(rawPlan("SST-2"), datasets(t), p2n.PlanPolicy{BudgetMinutes: 10})
	if err != nil {
		t.Fatalf("Sanitize failed: %v", err)
	}
	if plan.Dataset.Name != "sst2" {
		t.Errorf("dataset name = %q, want sst2", plan.Dataset.Name)
	}
	if !hasWarning(warnings, "normalized") {
		t.Errorf("expected a normalization warning, got %v", warnings)
	}
}

func TestSanitizeBlockedDatasetFails(t *testing.T) {
	_, warnings, err := Sanitize(rawPlan("imagenet"), datasets(t), p2n.PlanPolicy{BudgetMinutes: 10})
	if err == nil {
		t.Fatal("expected an error when the only dataset is blocked")
	}
	var perr *p2n.Error
	if !errors.As(err, &perr) || perr.Code != p2n.ErrCodeSanitize {
		t.Errorf("got %v, want a %s error", err, p2n.ErrCodeSanitize)
	}
	if !hasWarning(warnings, "blocked") {
		t.Errorf("expected a blocked warning, got %v", warnings)
	}
}

func TestSanitizeUnknownDatasetFails(t *testing.T) {
	_, warnings, err := Sanitize(rawPlan("my-private-dataset"), datasets(t), p2n.PlanPolicy{BudgetMinutes: 10})
	if err == nil {
		t.Fatal("expected an error when the only dataset is unknown")
	}
	if !hasWarning(warnings, "not in registry") {
		t.Errorf("expected an omission warning, got %v", warnings)
	}
}

func TestSanitizeProseJustification(t *testing.T) {
	raw := rawPlan("sst2")
	raw["justifications"] = map[string]interface{}{
		"dataset": "The paper evaluates on SST-2 (Section 3.1)",
		"model":   "A CNN with multiple filter widths is used",
	}
	plan, warnings, err := Sanitize(raw, datasets(t), p2n.PlanPolicy{BudgetMinutes: 10})
	if err != nil {
		t.Fatalf("Sanitize failed: %v", err)
	}
	ds := plan.Justifications["dataset"]
	if ds.Quote != "The paper evaluates on SST-2" {
		t.Errorf("quote = %q", ds.Quote)
	}
	if ds.Citation != "Section 3.1" {
		t.Errorf("citation = %q", ds.Citation)
	}
	model := plan.Justifications["model"]
	if !strings.Contains(model.Citation, "Inferred from plan") {
		t.Errorf("prose without locator should infer citation, got %q", model.Citation)
	}
	if !hasWarning(warnings, "config") {
		t.Errorf("missing config justification should warn, got %v", warnings)
	}
	if _, ok := plan.Justifications["config"]; !ok {
		t.Error("config justification placeholder missing")
	}
}

func TestSanitizeDefaults(t *testing.T) {
	raw := map[string]interface{}{
		"dataset": map[string]interface{}{"name": "mnist", "split": "train"},
		"model":   map[string]interface{}{"name": "resnet18", "framework": "torch"},
		"config":  map[string]interface{}{"epochs": 2, "batch_size": 64},
	}
	plan, warnings, err := Sanitize(raw, datasets(t), p2n.PlanPolicy{BudgetMinutes: 15, MaxRetries: 1})
	if err != nil {
		t.Fatalf("Sanitize failed: %v", err)
	}
	if plan.Version != p2n.PlanVersion {
		t.Errorf("version = %q, want %q", plan.Version, p2n.PlanVersion)
	}
	if len(plan.Metrics) != 1 || plan.Metrics[0].Name != "accuracy" {
		t.Errorf("metrics = %+v, want defaulted accuracy", plan.Metrics)
	}
	if len(plan.Visualizations) == 0 || len(plan.Explain) == 0 {
		t.Error("expected defaulted visualizations and explain steps")
	}
	if plan.EstimatedRuntimeMinutes != 15 {
		t.Errorf("runtime estimate = %v, want budget 15", plan.EstimatedRuntimeMinutes)
	}
	if !plan.LicenseCompliant {
		t.Error("license_compliant should default to true")
	}
	if plan.Policy.BudgetMinutes != 15 {
		t.Errorf("policy budget = %d, want 15", plan.Policy.BudgetMinutes)
	}
	if len(warnings) == 0 {
		t.Error("defaults should be reported as warnings")
	}
}

func TestSanitizeMetricStringsBecomeObjects(t *testing.T) {
	raw := rawPlan("sst2")
	raw["metrics"] = []interface{}{"accuracy", "f1"}
	plan, _, err := Sanitize(raw, datasets(t), p2n.PlanPolicy{BudgetMinutes: 10})
	if err != nil {
		t.Fatalf("Sanitize failed: %v", err)
	}
	if len(plan.Metrics) != 2 {
		t.Fatalf("got %d metrics, want 2", len(plan.Metrics))
	}
	if plan.Metrics[0].Name != "accuracy" || plan.Metrics[1].Name != "f1" {
		t.Errorf("metrics = %+v", plan.Metrics)
	}
	if plan.Metrics[0].Split != "train" {
		t.Errorf("metric split = %q, want dataset split train", plan.Metrics[0].Split)
	}
}

func TestSanitizeDropsUnparsableFilters(t *testing.T) {
	raw := rawPlan("sst2")
	raw["dataset"].(map[string]interface{})["filters"] = []interface{}{
		"label >= 0",
		"((broken &&",
	}
	plan, warnings, err := Sanitize(raw, datasets(t), p2n.PlanPolicy{BudgetMinutes: 10})
	if err != nil {
		t.Fatalf("Sanitize failed: %v", err)
	}
	want := []string{"label >= 0"}
	if diff := cmp.Diff(want, plan.Dataset.Filters); diff != "" {
		t.Errorf("filters mismatch (-want +got):\n%s", diff)
	}
	if !hasWarning(warnings, "does not parse") {
		t.Errorf("expected a dropped-filter warning, got %v", warnings)
	}
}

func TestSanitizeNilPlan(t *testing.T) {
	if _, _, err := Sanitize(nil, datasets(t), p2n.PlanPolicy{}); err == nil {
		t.Error("expected an error for nil plan")
	}
}

func hasWarning(warnings []string, substr string) bool {
	for _, w := range warnings {
		if strings.Contains(w, substr) {
			return true
		}
	}
	return false
}
