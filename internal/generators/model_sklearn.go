package generators

import (
	"fmt"

	p2n "github.com/PIP-Team-3/pip-final-project-sub000"
	"github.com/PIP-Team-3/pip-final-project-sub000/internal/registry"
)

// estimatorImports maps supported sklearn estimator classes to their modules.
var estimatorImports = map[string]string{
	"LogisticRegression":         "sklearn.linear_model",
	"RandomForestClassifier":     "sklearn.ensemble",
	"LinearSVC":                  "sklearn.svm",
	"MLPClassifier":              "sklearn.neural_network",
	"GradientBoostingClassifier": "sklearn.ensemble",
}

// SklearnModelGenerator builds a classic estimator parameterized from the
// training config. It doubles as the model fallback: when the plan names an
// unregistered architecture the factory selects it with LogisticRegression.
type SklearnModelGenerator struct {
	Entry registry.ModelEntry
}

func (SklearnModelGenerator) Name() string { return "sklearn" }

func (g SklearnModelGenerator) estimator() string {
	if g.Entry.Estimator == "" {
		return "LogisticRegression"
	}
	return g.Entry.Estimator
}

func (g SklearnModelGenerator) GenerateImports(plan *p2n.PlanDocument) []string {
	module, ok := estimatorImports[g.estimator()]
	if !ok {
		module = "sklearn.linear_model"
	}
	return []string{
		"import numpy as np",
		fmt.Sprintf("from %s import %s", module, g.estimator()),
		"from sklearn.feature_extraction.text import HashingVectorizer",
		"from sklearn.metrics import accuracy_score, precision_score, recall_score",
	}
}

func (g SklearnModelGenerator) GenerateCode(plan *p2n.PlanDocument) (string, error) {
	if plan.Model.Name == "" {
		return "", p2n.NewPlanFieldError("model.name", "model name is required", nil)
	}
	epochs, _ := clampPositive(plan.Config.Epochs, 1)
	warn := clampComment("config.epochs", plan.Config.Epochs, epochs)

	var construct string
	switch g.estimator() {
	case "RandomForestClassifier":
		construct = fmt.Sprintf("RandomForestClassifier(\n    n_estimators=max(10, %d * 10),\n    random_state=SEED,\n)", epochs)
	case "LinearSVC":
		construct = fmt.Sprintf("LinearSVC(\n    max_iter=max(1000, %d * 200),\n    random_state=SEED,\n)", epochs)
	case "MLPClassifier":
		construct = fmt.Sprintf("MLPClassifier(\n    hidden_layer_sizes=(64,),\n    max_iter=max(200, %d * 20),\n    random_state=SEED,\n)", epochs)
	case "GradientBoostingClassifier":
		construct = fmt.Sprintf("GradientBoostingClassifier(\n    n_estimators=max(10, %d * 10),\n    random_state=SEED,\n)", epochs)
	default:
		construct = fmt.Sprintf("LogisticRegression(\n    max_iter=max(100, %d * 10),\n    solver=\"lbfgs\",\n    random_state=SEED,\n)", epochs)
	}

	metric := primaryMetricName(plan)
	goal := "None"
	if m := plan.PrimaryMetric(); m.Goal != nil {
		goal = fmt.Sprintf("%.6f", *m.Goal)
	}

	return fmt.Sprintf(`log_event("stage_update", {"stage": "model_build", "model": %s, "backend": "sklearn"})
%sif "X_train" not in globals() and "train_texts" in globals():
    # Text dataset upstream: vectorize so a tabular estimator can train on it.
    vectorizer = HashingVectorizer(n_features=4096, alternate_sign=False)
    X_train = vectorizer.transform(train_texts)
    X_test = vectorizer.transform(test_texts)
    y_train = np.array(train_labels)
    y_test = np.array(test_labels)
if "X_train" not in globals() and "train_dataset" in globals():
    # Image dataset upstream: flatten each tensor into a feature row.
    X_train = np.stack([np.asarray(x).reshape(-1) for x, _ in train_dataset])
    y_train = np.asarray([int(y) for _, y in train_dataset])
    X_test = np.stack([np.asarray(x).reshape(-1) for x, _ in test_dataset])
    y_test = np.asarray([int(y) for _, y in test_dataset])

model = %s

def train_epoch(model, epoch):
    model.fit(X_train, y_train)
    return {"train_accuracy": float(model.score(X_train, y_train))}

def evaluate_model(model):
    y_pred = model.predict(X_test)
    accuracy = float(accuracy_score(y_test, y_pred))
    precision = float(precision_score(y_test, y_pred, average="macro", zero_division=0))
    recall = float(recall_score(y_test, y_pred, average="macro", zero_division=0))
    metrics = {
        %s: accuracy,
        "precision": precision,
        "recall": recall,
    }
    GOAL_VALUE = %s
    if GOAL_VALUE is not None:
        metrics[%s] = accuracy - GOAL_VALUE
    if len(y_pred) > 0:
        log_event("sample_pred", {"label": int(y_pred[0]), "stage": "evaluate"})
    return metrics`,
		pyString(plan.Model.Name), warn, construct,
		pyString(metric), goal, pyString(metric+"_gap")), nil
}

func (SklearnModelGenerator) GenerateRequirements(plan *p2n.PlanDocument) []string {
	return []string{reqSklearn}
}
