package p2n

import (
	"encoding/json"
	"fmt"
)

// PlanVersion is the plan document version this core understands.
const PlanVersion = "1.1"

// Framework identifies the model framework family declared by a plan.
type Framework string

const (
	// FrameworkSklearn covers classic estimators (logistic regression, random forest, SVM).
	FrameworkSklearn Framework = "sklearn"
	// FrameworkTorch covers torch-like architectures (TextCNN, ResNet variants).
	FrameworkTorch Framework = "torch"
)

// PlanJustification is a grounded quote/citation pair carried through from the planner.
// The core never reads these during generation; they must survive re-serialization intact.
type PlanJustification struct {
	Quote    string `json:"quote"`
	Citation string `json:"citation"`
}

// PlanDataset describes the dataset an experiment should run against.
type PlanDataset struct {
	Name      string                 `json:"name"`
	Split     string                 `json:"split"`
	Filters   []string               `json:"filters,omitempty"`
	Transform map[string]interface{} `json:"transform,omitempty"`
	Notes     string                 `json:"notes,omitempty"`
}

// PlanModel describes the model architecture an experiment should train.
// Architecture carries free-form hyperparameters (embedding_dim, filter_sizes,
// dropout, depth, ...) whose interpretation belongs to the selected generator.
type PlanModel struct {
	Name         string                 `json:"name"`
	Framework    Framework              `json:"framework"`
	Variant      string                 `json:"variant,omitempty"`
	Architecture map[string]interface{} `json:"architecture,omitempty"`
	SizeCategory string                 `json:"size_category,omitempty"`
}

// PlanConfig holds the training configuration.
type PlanConfig struct {
	Epochs       int     `json:"epochs"`
	BatchSize    int     `json:"batch_size"`
	Optimizer    string  `json:"optimizer"`
	LearningRate float64 `json:"learning_rate"`
}

// PlanMetric is a single metric target declared by the plan.
type PlanMetric struct {
	Name      string   `json:"name"`
	Primary   bool     `json:"primary,omitempty"`
	Split     string   `json:"split,omitempty"`
	Goal      *float64 `json:"goal,omitempty"`
	Tolerance *float64 `json:"tolerance,omitempty"`
	Direction string   `json:"direction,omitempty"`
}

// PlanPolicy holds run-policy knobs. BudgetMinutes governs the generated
// notebook's own wall-clock budget, not the materialization call.
type PlanPolicy struct {
	BudgetMinutes int `json:"budget_minutes"`
	MaxRetries    int `json:"max_retries"`
}

// PlanDocument is the validated plan handed to the core by the upstream planner.
// The core treats it as read-only and never re-validates its schema; it only
// reads the fields generation needs and fails explicitly when one is malformed.
type PlanDocument struct {
	Version                 string                       `json:"version"`
	Dataset                 PlanDataset                  `json:"dataset"`
	Model                   PlanModel                    `json:"model"`
	Config                  PlanConfig                   `json:"config"`
	Metrics                 []PlanMetric                 `json:"metrics"`
	Policy                  PlanPolicy                   `json:"policy"`
	Justifications          map[string]PlanJustification `json:"justifications,omitempty"`
	Visualizations          []string                     `json:"visualizations,omitempty"`
	Explain                 []string                     `json:"explain,omitempty"`
	EstimatedRuntimeMinutes float64                      `json:"estimated_runtime_minutes,omitempty"`
	LicenseCompliant        bool                         `json:"license_compliant,omitempty"`
}

// PrimaryMetric returns the metric marked primary, or the first metric,
// or "accuracy" when the plan declares none.
func (p *PlanDocument) PrimaryMetric() PlanMetric {
	for _, m := range p.Metrics {
		if m.Primary {
			return m
		}
	}
	if len(p.Metrics) > 0 {
		return p.Metrics[0]
	}
	return PlanMetric{Name: "accuracy"}
}

// Digest returns a stable content digest of the plan, suitable as a cache key.
// JSON encoding of the struct is deterministic (fixed field order, sorted maps).
func (p *PlanDocument) Digest() string {
	raw, err := json.Marshal(p)
	if err != nil {
		// Marshalling a plain struct cannot fail in practice.
		return fmt.Sprintf("plan:unmarshalable:%p", p)
	}
	return hashHex(raw)
}

// ParsePlan decodes a plan document from JSON without business validation.
func ParsePlan(raw []byte) (*PlanDocument, error) {
	var plan PlanDocument
	if err := json.Unmarshal(raw, &plan); err != nil {
		return nil, NewPlanFieldError("plan", fmt.Sprintf("plan document is not valid JSON: %v", err), err)
	}
	return &plan, nil
}

// Validate performs the structural checks the planner path applies before a
// plan is accepted (version, required names, numeric ranges, justification
// keys). Materialize does not call this: it trusts its input per the core
// contract and only rejects the specific fields it reads.
func (p *PlanDocument) Validate() error {
	if p.Version != PlanVersion {
		return NewPlanFieldError("version", fmt.Sprintf("unsupported plan version %q (want %q)", p.Version, PlanVersion), nil)
	}
	if p.Dataset.Name == "" {
		return NewPlanFieldError("dataset.name", "dataset name is required", nil)
	}
	if p.Dataset.Split == "" {
		return NewPlanFieldError("dataset.split", "dataset split is required", nil)
	}
	if p.Model.Name == "" {
		return NewPlanFieldError("model.name", "model name is required", nil)
	}
	if p.Config.Epochs < 1 || p.Config.Epochs > 20 {
		return NewPlanFieldError("config.epochs", fmt.Sprintf("epochs must be in [1,20], got %d", p.Config.Epochs), nil)
	}
	if p.Config.BatchSize < 1 {
		return NewPlanFieldError("config.batch_size", fmt.Sprintf("batch size must be positive, got %d", p.Config.BatchSize), nil)
	}
	if p.Config.LearningRate <= 0 {
		return NewPlanFieldError("config.learning_rate", fmt.Sprintf("learning rate must be positive, got %g", p.Config.LearningRate), nil)
	}
	if len(p.Metrics) == 0 {
		return NewPlanFieldError("metrics", "at least one metric target is required", nil)
	}
	if p.Policy.BudgetMinutes < 1 || p.Policy.BudgetMinutes > 120 {
		return NewPlanFieldError("policy.budget_minutes", fmt.Sprintf("budget must be in [1,120] minutes, got %d", p.Policy.BudgetMinutes), nil)
	}
	for _, key := range []string{"dataset", "model", "config"} {
		if _, ok := p.Justifications[key]; !ok {
			return NewPlanFieldError("justifications."+key, "missing required justification", nil)
		}
	}
	return nil
}

// CellType identifies the kind of a notebook cell.
type CellType string

const (
	// CellTypeCode is an executable code cell.
	CellTypeCode CellType = "code"
)

// Cell is a single notebook cell before serialization.
type Cell struct {
	Type   CellType `json:"type"`
	Source string   `json:"source"`
}

// AssembledNotebook is the in-memory artifact produced by the assembler,
// before notebook-format serialization.
type AssembledNotebook struct {
	Cells           []Cell   `json:"cells"`
	Requirements    []string `json:"requirements"`
	EnvironmentHash string   `json:"environment_hash"`

	// Backend tags of the generators that produced the dataset and model
	// cells, reported so callers can surface fallback decisions.
	DatasetBackend string `json:"dataset_backend"`
	ModelBackend   string `json:"model_backend"`
}

// MaterializationResult is the byte-level output of a single materialization.
type MaterializationResult struct {
	NotebookBytes    []byte `json:"notebook_bytes"`
	RequirementsText string `json:"requirements_text"`
	EnvironmentHash  string `json:"environment_hash"`
	DatasetBackend   string `json:"dataset_backend"`
	ModelBackend     string `json:"model_backend"`
}

// Claim is a quantitative claim extracted from a paper, consumed by the planner.
type Claim struct {
	Dataset    string   `json:"dataset,omitempty"`
	Split      string   `json:"split,omitempty"`
	Metric     string   `json:"metric,omitempty"`
	Value      *float64 `json:"value,omitempty"`
	Units      string   `json:"units,omitempty"`
	Citation   string   `json:"citation"`
	Confidence float64  `json:"confidence"`
}

// PlannerInput carries everything the two-stage planner needs to draft a plan.
type PlannerInput struct {
	PaperTitle    string  `json:"paper_title,omitempty"`
	Claims        []Claim `json:"claims"`
	BudgetMinutes int     `json:"budget_minutes"`
}
