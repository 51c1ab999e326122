// Package generators contains the concrete code generators the factory can
// select: four dataset backends (huggingface, torchvision, sklearn,
// synthetic) and three model families (sklearn estimators, TextCNN, ResNet).
//
// Every generator is a pure function of the plan: no I/O, no clock, no
// randomness at generation time. Environment-dependent behavior is deferred
// to notebook runtime through the globals the determinism cell establishes
// (SEED, CACHE_DIR, OFFLINE_MODE, MAX_TRAIN_SAMPLES, log_event, check_budget).
//
// Generated cells follow per-backend variable conventions:
//
//	sklearn/synthetic datasets  -> X_train, y_train, X_test, y_test, num_classes
//	huggingface text datasets   -> train_texts, train_labels, test_texts, test_labels, num_classes
//	torchvision image datasets  -> train_dataset, test_dataset, num_classes
//
// Model generators define train_epoch(model, epoch) and evaluate_model(model)
// for the assembler's training-loop and results cells.
package generators

import (
	"fmt"
	"sort"
	"strings"

	p2n "github.com/PIP-Team-3/pip-final-project-sub000"
)

// Pinned pip requirement specifiers shared by the generators. Versions match
// the sandbox images the generated notebooks run in.
const (
	reqNumpy       = "numpy==1.26.4"
	reqSklearn     = "scikit-learn==1.5.1"
	reqTorch       = "torch==2.2.2"
	reqTorchvision = "torchvision==0.17.2"
	reqDatasets    = "datasets==2.19.0"
)

// clampPositive returns v, or min when v is not positive, plus whether
// clamping happened. Generation never fails on non-positive training knobs;
// it substitutes the minimum and flags it in the emitted code.
func clampPositive(v, min int) (int, bool) {
	if v < min {
		return min, true
	}
	return v, false
}

// clampComment renders the warning comment emitted when a training knob was
// substituted, or the empty string.
func clampComment(field string, original, used int) string {
	if original >= used {
		return ""
	}
	return fmt.Sprintf("# warning: %s=%d is not a valid value, substituted %d\n", field, original, used)
}

// archInt reads an integer hyperparameter from the plan's architecture map,
// tolerating JSON's float64 decoding.
func archInt(arch map[string]interface{}, key string, fallback int) int {
	v, ok := arch[key]
	if !ok {
		return fallback
	}
	switch n := v.(type) {
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		return int(n)
	default:
		return fallback
	}
}

// archFloat reads a float hyperparameter from the architecture map.
func archFloat(arch map[string]interface{}, key string, fallback float64) float64 {
	v, ok := arch[key]
	if !ok {
		return fallback
	}
	switch n := v.(type) {
	case float64:
		return n
	case int:
		return float64(n)
	case int64:
		return float64(n)
	default:
		return fallback
	}
}

// archIntList reads a list-of-int hyperparameter (e.g. filter widths).
// ok is false when the key is absent or holds no usable integers.
func archIntList(arch map[string]interface{}, key string) ([]int, bool) {
	v, present := arch[key]
	if !present {
		return nil, false
	}
	raw, isList := v.([]interface{})
	if !isList {
		// A single number is accepted as a one-element list.
		if n := archInt(arch, key, -1); n > 0 {
			return []int{n}, true
		}
		return nil, false
	}
	out := make([]int, 0, len(raw))
	for _, item := range raw {
		switch n := item.(type) {
		case int:
			out = append(out, n)
		case int64:
			out = append(out, int(n))
		case float64:
			out = append(out, int(n))
		}
	}
	if len(out) == 0 {
		return nil, false
	}
	return out, true
}

// pyIntList renders a Go int slice as a Python list literal.
func pyIntList(values []int) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = fmt.Sprintf("%d", v)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// pyString renders a Go string as a quoted Python string literal.
func pyString(s string) string {
	replacer := strings.NewReplacer(`\`, `\\`, `"`, `\"`, "\n", `\n`)
	return `"` + replacer.Replace(s) + `"`
}

// MergeRequirements deduplicates and lexically sorts requirement lists.
// The assembler uses it to aggregate both generators' pins before hashing.
func MergeRequirements(lists ...[]string) []string {
	seen := make(map[string]struct{})
	for _, list := range lists {
		for _, req := range list {
			seen[req] = struct{}{}
		}
	}
	merged := make([]string, 0, len(seen))
	for req := range seen {
		merged = append(merged, req)
	}
	sort.Strings(merged)
	return merged
}

// primaryMetricName is shared by the model generators' evaluate_model code.
func primaryMetricName(plan *p2n.PlanDocument) string {
	return plan.PrimaryMetric().Name
}
