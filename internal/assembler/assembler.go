// Package assembler composes generated dataset and model code into the fixed
// five-cell notebook layout: determinism and safety preamble, dataset load,
// model build, training loop, results serialization. The assembler owns the
// runtime contract the generated cells rely on: SEED, CACHE_DIR, OFFLINE_MODE,
// MAX_TRAIN_SAMPLES, BUDGET_MINUTES, BATCH_SIZE, EPOCHS, log_event and
// check_budget, plus the always-write-results exit hook.
package assembler

import (
	"fmt"
	"strings"

	p2n "github.com/PIP-Team-3/pip-final-project-sub000"
	"github.com/PIP-Team-3/pip-final-project-sub000/internal/generators"
)

const (
	// reqNumpy is pinned in every notebook regardless of backend; the
	// preamble seeds numpy and the results cell uses it for coercion.
	reqNumpy = "numpy==1.26.4"

	defaultBudgetMinutes = 20
	maxBudgetMinutes     = 120
	maxEpochs            = 100
)

// Assembler implements the notebook assembly contract over any pair of
// generators.
type Assembler struct{}

// New returns a ready assembler.
func New() *Assembler { return &Assembler{} }

var _ p2n.NotebookAssembler = (*Assembler)(nil)

// Assemble produces the five-cell notebook for the plan. The cell order never
// varies; its content is a pure function of the plan and the two generators.
func (a *Assembler) Assemble(plan *p2n.PlanDocument, datasetGen, modelGen p2n.CodeGenerator) (*p2n.AssembledNotebook, error) {
	if plan == nil {
		return nil, p2n.NewPlanFieldError("plan", "plan document is required", nil)
	}
	if datasetGen == nil || modelGen == nil {
		return nil, p2n.NewConfigurationError("assembler needs both a dataset and a model generator", nil)
	}

	datasetCode, err := datasetGen.GenerateCode(plan)
	if err != nil {
		return nil, fmt.Errorf("dataset generator %q: %w", datasetGen.Name(), err)
	}
	modelCode, err := modelGen.GenerateCode(plan)
	if err != nil {
		return nil, fmt.Errorf("model generator %q: %w", modelGen.Name(), err)
	}

	requirements := generators.MergeRequirements(
		[]string{reqNumpy},
		datasetGen.GenerateRequirements(plan),
		modelGen.GenerateRequirements(plan),
	)

	cells := []p2n.Cell{
		{Type: p2n.CellTypeCode, Source: preambleCell(plan)},
		{Type: p2n.CellTypeCode, Source: generatorCell(datasetGen, datasetCode, plan)},
		{Type: p2n.CellTypeCode, Source: generatorCell(modelGen, modelCode, plan)},
		{Type: p2n.CellTypeCode, Source: trainingCell(plan)},
		{Type: p2n.CellTypeCode, Source: resultsCell(plan)},
	}

	return &p2n.AssembledNotebook{
		Cells:           cells,
		Requirements:    requirements,
		EnvironmentHash: EnvironmentHash(requirements),
		DatasetBackend:  datasetGen.Name(),
		ModelBackend:    modelGen.Name(),
	}, nil
}

// EnvironmentHash is the sha256 hex digest of the sorted, deduplicated
// requirement list joined by newlines. Two notebooks with equal requirement
// sets share an environment regardless of any other plan difference.
func EnvironmentHash(requirements []string) string {
	merged := generators.MergeRequirements(requirements)
	return p2n.HashHex([]byte(strings.Join(merged, "\n")))
}

// generatorCell joins a generator's imports and body into one cell.
func generatorCell(gen p2n.CodeGenerator, code string, plan *p2n.PlanDocument) string {
	imports := gen.GenerateImports(plan)
	if len(imports) == 0 {
		return code
	}
	return strings.Join(imports, "\n") + "\n\n" + code
}

func clampBudget(minutes int) int {
	if minutes <= 0 {
		return defaultBudgetMinutes
	}
	if minutes > maxBudgetMinutes {
		return maxBudgetMinutes
	}
	return minutes
}

// preambleCell establishes the execution context every later cell assumes.
// Runs never touch a GPU and never write outside CACHE_DIR and the working
// directory, and a results file exists even when a later cell raises.
func preambleCell(plan *p2n.PlanDocument) string {
	budget := clampBudget(plan.Policy.BudgetMinutes)
	var warn string
	if budget != plan.Policy.BudgetMinutes {
		warn = fmt.Sprintf("# warning: policy.budget_minutes=%d is not a valid value, substituted %d\n",
			plan.Policy.BudgetMinutes, budget)
	}
	return fmt.Sprintf(`import atexit
import json
import os
import pathlib
import random
import sys
import time

import numpy as np

SEED = int(os.environ.get("P2N_SEED", "42"))
CACHE_DIR = pathlib.Path(os.environ.get("DATASET_CACHE_DIR", "./data/cache"))
CACHE_DIR.mkdir(parents=True, exist_ok=True)
OFFLINE_MODE = os.environ.get("P2N_OFFLINE", "") not in ("", "0", "false")
MAX_TRAIN_SAMPLES = int(os.environ.get("P2N_MAX_TRAIN_SAMPLES", "8000"))
%sBUDGET_MINUTES = %d

# CPU only. Torch is optional at this point; seed it when present.
os.environ.setdefault("CUDA_VISIBLE_DEVICES", "")
random.seed(SEED)
np.random.seed(SEED)
try:
    import torch
    torch.manual_seed(SEED)
    torch.use_deterministic_algorithms(True, warn_only=True)
except ImportError:
    pass

RUN_START = time.monotonic()
RUN_STATUS = {"status": "running", "error": None}
METRICS = {}


def log_event(kind, payload):
    record = {"event": kind, "elapsed_seconds": round(time.monotonic() - RUN_START, 3)}
    record.update(payload)
    print(json.dumps(record), flush=True)


def check_budget():
    elapsed_minutes = (time.monotonic() - RUN_START) / 60.0
    if elapsed_minutes > BUDGET_MINUTES:
        RUN_STATUS["status"] = "budget_exceeded"
        log_event("stage_update", {"stage": "budget_exceeded", "elapsed_minutes": round(elapsed_minutes, 2)})
        raise RuntimeError(f"time budget of {BUDGET_MINUTES} minutes exceeded")


def _write_results():
    if RUN_STATUS["status"] == "running":
        RUN_STATUS["status"] = "failed"
        RUN_STATUS["error"] = "run ended before the results cell"
    payload = {
        "status": RUN_STATUS["status"],
        "error": RUN_STATUS["error"],
        "metrics": {k: float(v) for k, v in METRICS.items()},
        "seed": SEED,
        "elapsed_seconds": round(time.monotonic() - RUN_START, 3),
    }
    with open("results.json", "w") as fh:
        json.dump(payload, fh, indent=2, sort_keys=True)


atexit.register(_write_results)
log_event("stage_update", {"stage": "environment_ready", "seed": SEED, "offline": OFFLINE_MODE})`, warn, budget)
}

// trainingCell drives the train_epoch/evaluate_model functions the model cell
// defined. Epoch and batch counts are clamped rather than rejected.
func trainingCell(plan *p2n.PlanDocument) string {
	epochs := plan.Config.Epochs
	var warns []string
	if epochs < 1 {
		warns = append(warns, fmt.Sprintf("# warning: config.epochs=%d is not a valid value, substituted 1", epochs))
		epochs = 1
	}
	if epochs > maxEpochs {
		warns = append(warns, fmt.Sprintf("# warning: config.epochs=%d is not a valid value, substituted %d", plan.Config.Epochs, maxEpochs))
		epochs = maxEpochs
	}
	batch := plan.Config.BatchSize
	if batch < 1 {
		warns = append(warns, fmt.Sprintf("# warning: config.batch_size=%d is not a valid value, substituted 32", batch))
		batch = 32
	}
	prefix := ""
	if len(warns) > 0 {
		prefix = strings.Join(warns, "\n") + "\n"
	}
	return fmt.Sprintf(`%sEPOCHS = %d
BATCH_SIZE = %d

log_event("stage_update", {"stage": "training_start", "epochs": EPOCHS, "batch_size": BATCH_SIZE})
for epoch in range(1, EPOCHS + 1):
    check_budget()
    epoch_metrics = train_epoch(model, epoch)
    for name, value in epoch_metrics.items():
        log_event("metric_update", {"metric": name, "value": float(value), "epoch": epoch})
check_budget()

final_metrics = evaluate_model(model)
METRICS.update(final_metrics)
for name, value in final_metrics.items():
    log_event("metric_update", {"metric": name, "value": float(value), "split": "test"})
log_event("stage_update", {"stage": "training_complete"})`, prefix, epochs, batch)
}

// resultsCell marks the run successful; the exit hook does the writing so a
// crash in any earlier cell still leaves a results file behind.
func resultsCell(plan *p2n.PlanDocument) string {
	metric := "accuracy"
	if m := plan.PrimaryMetric(); m.Name != "" {
		metric = m.Name
	}
	return fmt.Sprintf(`RUN_STATUS["status"] = "succeeded"
primary = METRICS.get(%q)
log_event("stage_update", {"stage": "complete", "primary_metric": %q, "primary_value": None if primary is None else float(primary)})
_write_results()
print(open("results.json").read())`, metric, metric)
}
