package registry

import "sort"

// Family identifies the code-generator backend for a model architecture.
type Family string

const (
	// FamilySklearn covers classic estimators trained with fit/predict.
	FamilySklearn Family = "sklearn"
	// FamilyTextCNN is the small convolutional text classifier.
	FamilyTextCNN Family = "textcnn"
	// FamilyResNet selects a torchvision ResNet variant by depth.
	FamilyResNet Family = "resnet"
)

// ModelEntry describes how to generate construction code for one architecture.
type ModelEntry struct {
	Canonical string
	Family    Family
	Estimator string // sklearn estimator class, FamilySklearn only
	Depth     int    // ResNet depth, FamilyResNet only
	Aliases   []string
}

var builtinModels = []ModelEntry{
	{Canonical: "logistic", Family: FamilySklearn, Estimator: "LogisticRegression",
		Aliases: []string{"logistic_regression", "logreg", "logisticregression"}},
	{Canonical: "randomforest", Family: FamilySklearn, Estimator: "RandomForestClassifier",
		Aliases: []string{"random_forest", "random-forest", "rf"}},
	{Canonical: "svm", Family: FamilySklearn, Estimator: "LinearSVC",
		Aliases: []string{"linear_svm", "linearsvc", "svc"}},
	{Canonical: "mlp", Family: FamilySklearn, Estimator: "MLPClassifier",
		Aliases: []string{"multilayer_perceptron", "feedforward"}},

	{Canonical: "textcnn", Family: FamilyTextCNN,
		Aliases: []string{"text_cnn", "text-cnn", "cnn_text", "kim_cnn", "simplecnn"}},

	{Canonical: "resnet18", Family: FamilyResNet, Depth: 18,
		Aliases: []string{"resnet-18", "resnet_18"}},
	{Canonical: "resnet50", Family: FamilyResNet, Depth: 50,
		Aliases: []string{"resnet-50", "resnet_50"}},
}

// ModelRegistry maps canonical and alias names to model entries.
type ModelRegistry struct {
	entries map[string]ModelEntry
	index   *index
}

// NewModelRegistry builds the registry from the builtin catalog plus any
// extra entries. Duplicate keys or aliases fail fast.
func NewModelRegistry(extra ...ModelEntry) (*ModelRegistry, error) {
	r := &ModelRegistry{
		entries: make(map[string]ModelEntry),
		index:   newIndex("model"),
	}
	for _, entry := range append(append([]ModelEntry{}, builtinModels...), extra...) {
		if err := r.index.add(entry.Canonical, entry.Aliases); err != nil {
			return nil, err
		}
		entry.Canonical = Normalize(entry.Canonical)
		r.entries[entry.Canonical] = entry
	}
	return r, nil
}

// Canonical resolves a raw name to its canonical key, or to the normalized
// input when the name is unregistered.
func (r *ModelRegistry) Canonical(raw string) string {
	return r.index.canonical(raw)
}

// Lookup resolves a raw name to its entry. A miss triggers fallback to the
// simplest sklearn generator one layer up.
func (r *ModelRegistry) Lookup(raw string) (ModelEntry, bool) {
	entry, ok := r.entries[r.index.canonical(raw)]
	return entry, ok
}

// Names returns all canonical model names, sorted.
func (r *ModelRegistry) Names() []string {
	names := make([]string, 0, len(r.entries))
	for name := range r.entries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
