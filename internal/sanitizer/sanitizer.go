// Package sanitizer cleans up second-stage planner output before validation.
// The cleanup is soft: string-typed numbers become numbers, unknown keys are
// dropped, dataset names collapse onto registry canonicals, prose
// justifications become quote/citation pairs, and missing optional sections
// get serviceable defaults. Every change is reported as a warning so callers
// can surface what was repaired.
package sanitizer

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/Knetic/govaluate"

	p2n "github.com/PIP-Team-3/pip-final-project-sub000"
	"github.com/PIP-Team-3/pip-final-project-sub000/internal/logging"
	"github.com/PIP-Team-3/pip-final-project-sub000/internal/registry"
	"github.com/PIP-Team-3/pip-final-project-sub000/internal/resolution"
)

// allowedTopLevel is the Plan v1.1 top-level schema.
var allowedTopLevel = map[string]bool{
	"version":                   true,
	"dataset":                   true,
	"model":                     true,
	"config":                    true,
	"metrics":                   true,
	"visualizations":            true,
	"explain":                   true,
	"justifications":            true,
	"estimated_runtime_minutes": true,
	"license_compliant":         true,
	"policy":                    true,
}

// citationPattern matches parenthesized paper locators: (Section 3.1),
// (Table 2), (Figure 4), (Appendix A), (p. 7).
var citationPattern = regexp.MustCompile(`(?i)\((?:Section|Table|Figure|Appendix|p\.?)\s+[\w.]+\)`)

// Sanitize repairs a raw plan object into a PlanDocument.
//
// It returns the clean document plus a warning per repair. It fails only when
// no runnable plan can be recovered: the value is not an object, the dataset
// was blocked or unknown with nothing left to run, or the repaired object
// still does not decode as a plan.
func Sanitize(raw map[string]interface{}, datasets *registry.DatasetRegistry, policy p2n.PlanPolicy) (*p2n.PlanDocument, []string, error) {
	logger := logging.New("sanitizer")
	if raw == nil {
		return nil, nil, p2n.NewSanitizeError("plan must be a JSON object", nil)
	}

	var warnings []string

	coerced, ok := coerceValue(raw).(map[string]interface{})
	if !ok {
		return nil, nil, p2n.NewSanitizeError("plan must be a JSON object", nil)
	}

	pruned := make(map[string]interface{}, len(coerced))
	for key, value := range coerced {
		if allowedTopLevel[key] {
			pruned[key] = value
		} else {
			logger.Debug("pruned unknown key", "key", key)
		}
	}

	warnings = append(warnings, resolveDataset(pruned, datasets)...)
	name, _ := datasetName(pruned)
	if name == "" {
		return nil, warnings, p2n.NewSanitizeError(
			"no allowed dataset in plan after sanitization", nil)
	}

	warnings = append(warnings, validateFilters(pruned)...)
	warnings = append(warnings, fixJustifications(pruned)...)
	warnings = append(warnings, applyDefaults(pruned, policy)...)

	data, err := json.Marshal(pruned)
	if err != nil {
		return nil, warnings, p2n.NewSanitizeError("re-encoding sanitized plan", err)
	}
	plan, err := p2n.ParsePlan(data)
	if err != nil {
		return nil, warnings, p2n.NewSanitizeError("sanitized plan does not decode", err)
	}

	logger.Info("sanitize complete", "dataset", plan.Dataset.Name, "warnings", len(warnings))
	return plan, warnings, nil
}

// coerceValue recursively converts string-typed scalars: "10" becomes 10,
// "0.5" becomes 0.5, "true"/"false" become booleans, "null"/"none" become nil.
func coerceValue(value interface{}) interface{} {
	switch v := value.(type) {
	case string:
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "true":
			return true
		case "false":
			return false
		case "null", "none":
			return nil
		}
		if strings.Contains(v, ".") {
			if f, err := strconv.ParseFloat(v, 64); err == nil {
				return f
			}
			return v
		}
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			return n
		}
		return v
	case []interface{}:
		out := make([]interface{}, len(v))
		for i, item := range v {
			out[i] = coerceValue(item)
		}
		return out
	case map[string]interface{}:
		out := make(map[string]interface{}, len(v))
		for k, item := range v {
			out[k] = coerceValue(item)
		}
		return out
	default:
		return value
	}
}

func datasetName(plan map[string]interface{}) (string, map[string]interface{}) {
	obj, ok := plan["dataset"].(map[string]interface{})
	if !ok {
		return "", nil
	}
	name, _ := obj["name"].(string)
	return name, obj
}

// resolveDataset collapses the dataset name onto its registry canonical.
// Blocked and unresolvable datasets are removed; the caller decides whether
// anything runnable remains.
func resolveDataset(plan map[string]interface{}, datasets *registry.DatasetRegistry) []string {
	raw, obj := datasetName(plan)
	if raw == "" {
		return nil
	}
	result := resolution.Classify(raw, datasets)
	switch result.Status {
	case resolution.StatusResolved:
		if result.CanonicalName != raw {
			obj["name"] = result.CanonicalName
			return []string{fmt.Sprintf("dataset name normalized: %q -> %q", raw, result.CanonicalName)}
		}
		return nil
	case resolution.StatusBlocked:
		delete(plan, "dataset")
		return []string{fmt.Sprintf("dataset %q is blocked (large/restricted) and was omitted", raw)}
	default:
		delete(plan, "dataset")
		return []string{fmt.Sprintf("dataset %q not in registry and was omitted", raw)}
	}
}

// validateFilters parses each dataset filter as a boolean expression and
// drops the ones that do not parse.
func validateFilters(plan map[string]interface{}) []string {
	_, obj := datasetName(plan)
	if obj == nil {
		return nil
	}
	rawFilters, ok := obj["filters"].([]interface{})
	if !ok || len(rawFilters) == 0 {
		return nil
	}
	var warnings []string
	kept := make([]interface{}, 0, len(rawFilters))
	for _, rf := range rawFilters {
		expr, ok := rf.(string)
		if !ok {
			warnings = append(warnings, fmt.Sprintf("dataset filter %v is not a string and was dropped", rf))
			continue
		}
		if _, err := govaluate.NewEvaluableExpressionWithFunctions(expr, nil); err != nil {
			warnings = append(warnings, fmt.Sprintf("dataset filter %q does not parse and was dropped: %v", expr, err))
			continue
		}
		kept = append(kept, expr)
	}
	if len(kept) == 0 {
		delete(obj, "filters")
	} else {
		obj["filters"] = kept
	}
	return warnings
}

// extractJustification splits prose into a quote/citation pair using the
// paper-locator pattern; prose without a locator keeps its first sentence.
func extractJustification(prose, field string) map[string]interface{} {
	if loc := citationPattern.FindStringIndex(prose); loc != nil {
		citation := strings.Trim(prose[loc[0]:loc[1]], "()")
		quote := strings.TrimSpace(prose[:loc[0]])
		if quote == "" {
			quote = "Justification for " + field + " from paper"
		}
		return map[string]interface{}{
			"quote":    truncate(quote, 500),
			"citation": truncate(citation, 100),
		}
	}
	quote := strings.TrimSpace(strings.SplitN(prose, ".", 2)[0])
	if quote == "" {
		quote = "Justification for " + field + " from paper"
	}
	return map[string]interface{}{
		"quote":    truncate(quote, 500),
		"citation": "Inferred from plan (" + field + ")",
	}
}

func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	return s[:limit]
}

// fixJustifications guarantees a structured {quote, citation} entry for the
// dataset, model and config keys.
func fixJustifications(plan map[string]interface{}) []string {
	justifs, ok := plan["justifications"].(map[string]interface{})
	if !ok {
		justifs = map[string]interface{}{}
		plan["justifications"] = justifs
	}
	var warnings []string
	for _, field := range []string{"dataset", "model", "config"} {
		switch j := justifs[field].(type) {
		case string:
			justifs[field] = extractJustification(j, field)
		case map[string]interface{}:
			if _, ok := j["quote"]; !ok {
				j["quote"] = "Justification for " + field
			}
			if _, ok := j["citation"]; !ok {
				j["citation"] = "Inferred from plan"
			}
		default:
			justifs[field] = map[string]interface{}{
				"quote":    "Justification for " + field + " from planner output",
				"citation": "Inferred from plan",
			}
			warnings = append(warnings, fmt.Sprintf("missing justification for %q, added placeholder", field))
		}
	}
	return warnings
}

// applyDefaults fills in the optional sections a runnable plan needs. The
// version is forced to the current schema even when the planner set one.
func applyDefaults(plan map[string]interface{}, policy p2n.PlanPolicy) []string {
	var warnings []string
	plan["version"] = p2n.PlanVersion

	split := "test"
	if _, obj := datasetName(plan); obj != nil {
		if s, ok := obj["split"].(string); ok && s != "" {
			split = s
		}
	}

	switch metrics := plan["metrics"].(type) {
	case []interface{}:
		if len(metrics) == 0 {
			plan["metrics"] = defaultMetrics(split)
			warnings = append(warnings, "no metrics specified, defaulted to accuracy")
			break
		}
		allStrings := true
		for _, m := range metrics {
			if _, ok := m.(string); !ok {
				allStrings = false
				break
			}
		}
		if allStrings {
			converted := make([]interface{}, 0, len(metrics))
			for _, m := range metrics {
				converted = append(converted, map[string]interface{}{
					"name":      m,
					"split":     split,
					"direction": "maximize",
				})
			}
			plan["metrics"] = converted
		}
	default:
		plan["metrics"] = defaultMetrics(split)
		warnings = append(warnings, "no metrics specified, defaulted to accuracy")
	}

	if list, ok := plan["visualizations"].([]interface{}); !ok || len(list) == 0 {
		plan["visualizations"] = []interface{}{"training_curve"}
		warnings = append(warnings, "no visualizations specified, defaulted to [training_curve]")
	}
	if list, ok := plan["explain"].([]interface{}); !ok || len(list) == 0 {
		plan["explain"] = []interface{}{"Load dataset", "Train model", "Evaluate metrics"}
		warnings = append(warnings, "no explain steps, added defaults")
	}
	if _, ok := plan["estimated_runtime_minutes"]; !ok {
		budget := policy.BudgetMinutes
		if budget <= 0 {
			budget = 20
		}
		plan["estimated_runtime_minutes"] = budget
		warnings = append(warnings, fmt.Sprintf("no runtime estimate, defaulted to budget (%d minutes)", budget))
	}
	if _, ok := plan["license_compliant"]; !ok {
		plan["license_compliant"] = true
	}
	if _, ok := plan["policy"]; !ok {
		plan["policy"] = map[string]interface{}{
			"budget_minutes": policy.BudgetMinutes,
			"max_retries":    policy.MaxRetries,
		}
	}
	return warnings
}

func defaultMetrics(split string) []interface{} {
	return []interface{}{
		map[string]interface{}{
			"name":      "accuracy",
			"split":     split,
			"direction": "maximize",
		},
	}
}
