// Package resolution classifies raw dataset names before sanitization: is
// the name servable from the registry, intentionally blocked, unknown, or a
// composite that needs a bespoke acquisition pipeline.
package resolution

import (
	"regexp"
	"strings"

	"github.com/PIP-Team-3/pip-final-project-sub000/internal/logging"
	"github.com/PIP-Team-3/pip-final-project-sub000/internal/registry"
)

// Status is the outcome of classifying a dataset name.
type Status string

const (
	// StatusResolved means the registry can serve the dataset.
	StatusResolved Status = "resolved"
	// StatusBlocked means the dataset is intentionally refused (too large or
	// license-restricted for a bounded run).
	StatusBlocked Status = "blocked"
	// StatusUnknown means the name is not in the registry but looks like a
	// single acquirable dataset.
	StatusUnknown Status = "unknown"
	// StatusComplex means the name describes a multi-source or bespoke
	// dataset that no single loader covers.
	StatusComplex Status = "complex"
)

// Result carries the classification and enough context to explain it.
type Result struct {
	Status        Status
	DatasetName   string
	CanonicalName string
	Reason        string
	Suggestions   []string
	Source        registry.Source
}

// complexPatterns flag names that describe joined or custom-built corpora.
var complexPatterns = []*regexp.Regexp{
	regexp.MustCompile(`\+`),
	regexp.MustCompile(`taxi.*weather`),
	regexp.MustCompile(`weather.*taxi`),
	regexp.MustCompile(`fairness.*demographic`),
	regexp.MustCompile(`demographic.*fairness`),
	regexp.MustCompile(`eia.*load`),
	regexp.MustCompile(`load.*eia`),
	regexp.MustCompile(`openimages.*subset`),
}

// IsComplex reports whether the name matches a multi-source pattern.
func IsComplex(name string) bool {
	lower := strings.ToLower(name)
	for _, pattern := range complexPatterns {
		if pattern.MatchString(lower) {
			return true
		}
	}
	return false
}

// Classify resolves a raw dataset name against the registry.
func Classify(name string, datasets *registry.DatasetRegistry) Result {
	logger := logging.New("resolution")

	if strings.TrimSpace(name) == "" {
		return Result{
			Status:      StatusUnknown,
			DatasetName: name,
			Reason:      "no dataset name provided",
		}
	}

	if datasets.Blocked(name) {
		logger.Info("dataset blocked", "dataset", name)
		return Result{
			Status:      StatusBlocked,
			DatasetName: name,
			Reason:      "dataset is blocked (large or restricted license)",
			Suggestions: []string{"use a smaller alternative dataset from the registry"},
		}
	}

	if entry, ok := datasets.Lookup(name); ok {
		logger.Info("dataset resolved", "dataset", name, "canonical", entry.Canonical)
		return Result{
			Status:        StatusResolved,
			DatasetName:   name,
			CanonicalName: entry.Canonical,
			Reason:        "dataset found in registry",
			Source:        entry.Source,
		}
	}

	if IsComplex(name) {
		logger.Info("dataset complex", "dataset", name)
		return Result{
			Status:      StatusComplex,
			DatasetName: name,
			Reason:      "dataset requires custom acquisition or preprocessing",
			Suggestions: []string{"break the dataset into registered components", "add a custom loader"},
		}
	}

	logger.Info("dataset unknown", "dataset", name)
	return Result{
		Status:      StatusUnknown,
		DatasetName: name,
		Reason:      "dataset not found in registry",
		Suggestions: []string{
			"add the dataset to the registry if it is a standard benchmark",
			"pick a similar registered dataset as a fallback",
		},
	}
}
