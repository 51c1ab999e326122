package registry

import "sort"

// Source identifies the acquisition backend for a dataset.
type Source string

const (
	// SourceSklearn datasets ship bundled with scikit-learn; no network ever.
	SourceSklearn Source = "sklearn"
	// SourceTorchvision datasets download into the cache directory on first use.
	SourceTorchvision Source = "torchvision"
	// SourceHuggingFace datasets load lazily through the datasets hub cache.
	SourceHuggingFace Source = "huggingface"
	// SourceSynthetic data is generated on the fly from the run seed.
	SourceSynthetic Source = "synthetic"
)

// DatasetEntry describes HOW to generate loading code for one dataset.
// SizeHintMB is informational (budget heuristics), not enforced here.
type DatasetEntry struct {
	Canonical         string
	Source            Source
	LoadFunction      string   // sklearn loader or torchvision class name
	HFPath            []string // load_dataset arguments, HuggingFace only
	SizeHintMB        int
	SupportsStreaming bool
	License           string
	Aliases           []string
}

// builtinDatasets is the seed catalog: classic sklearn bundles, torchvision
// vision sets, and HuggingFace text benchmarks.
var builtinDatasets = []DatasetEntry{
	{Canonical: "digits", Source: SourceSklearn, LoadFunction: "load_digits", SizeHintMB: 1,
		License: "BSD-3-Clause", Aliases: []string{"sklearn_digits", "digit"}},
	{Canonical: "iris", Source: SourceSklearn, LoadFunction: "load_iris", SizeHintMB: 1,
		License: "BSD-3-Clause", Aliases: []string{"sklearn_iris"}},
	{Canonical: "wine", Source: SourceSklearn, LoadFunction: "load_wine", SizeHintMB: 1,
		License: "BSD-3-Clause", Aliases: []string{"sklearn_wine"}},
	{Canonical: "breastcancer", Source: SourceSklearn, LoadFunction: "load_breast_cancer", SizeHintMB: 1,
		License: "BSD-3-Clause", Aliases: []string{"breast_cancer", "wdbc"}},

	{Canonical: "mnist", Source: SourceTorchvision, LoadFunction: "MNIST", SizeHintMB: 15,
		License: "CC-BY-SA-3.0", Aliases: []string{"mnist_vision", "torch_mnist"}},
	{Canonical: "fashionmnist", Source: SourceTorchvision, LoadFunction: "FashionMNIST", SizeHintMB: 30,
		License: "MIT", Aliases: []string{"fashion_mnist", "fashion-mnist"}},
	{Canonical: "cifar10", Source: SourceTorchvision, LoadFunction: "CIFAR10", SizeHintMB: 170,
		License: "MIT", Aliases: []string{"cifar_10", "cifar-10"}},
	{Canonical: "cifar100", Source: SourceTorchvision, LoadFunction: "CIFAR100", SizeHintMB: 169,
		License: "MIT", Aliases: []string{"cifar_100", "cifar-100"}},

	{Canonical: "sst2", Source: SourceHuggingFace, LoadFunction: "load_dataset", SizeHintMB: 67,
		SupportsStreaming: true, HFPath: []string{"glue", "sst2"}, License: "other",
		Aliases: []string{"sst-2", "glue/sst2", "sst_2", "gluesst2", "stanford_sentiment"}},
	{Canonical: "imdb", Source: SourceHuggingFace, LoadFunction: "load_dataset", SizeHintMB: 130,
		SupportsStreaming: true, HFPath: []string{"imdb"}, License: "apache-2.0",
		Aliases: []string{"imdb_reviews", "imdb_sentiment"}},
	{Canonical: "agnews", Source: SourceHuggingFace, LoadFunction: "load_dataset", SizeHintMB: 35,
		SupportsStreaming: true, HFPath: []string{"ag_news"}, License: "apache-2.0",
		Aliases: []string{"ag_news", "ag", "ag-news"}},
	{Canonical: "dbpedia14", Source: SourceHuggingFace, LoadFunction: "load_dataset", SizeHintMB: 120,
		SupportsStreaming: true, HFPath: []string{"dbpedia_14"}, License: "cc-by-sa-3.0",
		Aliases: []string{"dbpedia_14", "dbpedia"}},
	{Canonical: "yelppolarity", Source: SourceHuggingFace, LoadFunction: "load_dataset", SizeHintMB: 200,
		SupportsStreaming: true, HFPath: []string{"yelp_polarity"}, License: "unknown",
		Aliases: []string{"yelp_polarity", "yelp_p", "yelp-polarity", "yelp"}},
	{Canonical: "yahooanswerstopics", Source: SourceHuggingFace, LoadFunction: "load_dataset", SizeHintMB: 450,
		SupportsStreaming: true, HFPath: []string{"yahoo_answers_topics"}, License: "unknown",
		Aliases: []string{"yahoo_answers_topics", "yahoo_answers", "yah_a", "yahoo-answers"}},
	{Canonical: "trec", Source: SourceHuggingFace, LoadFunction: "load_dataset", SizeHintMB: 1,
		HFPath: []string{"trec"}, License: "unknown", Aliases: []string{"trec-6"}},
}

// blockedDatasets are omitted from plans with a warning instead of causing
// hard failures (too large or license-restricted for the sandbox).
var blockedDatasets = []string{
	"imagenet",
	"imagenet1k",
	"imagenet2012",
	"imagenet21k",
	"openimages",
	"yfcc100m",
}

// DatasetRegistry maps canonical and alias names to dataset entries.
type DatasetRegistry struct {
	entries map[string]DatasetEntry
	index   *index
	blocked map[string]struct{}
}

// NewDatasetRegistry builds the registry from the builtin catalog plus any
// extra entries (e.g. from a YAML overlay). Duplicate keys or aliases fail
// fast here; lookups never re-validate.
func NewDatasetRegistry(extra ...DatasetEntry) (*DatasetRegistry, error) {
	r := &DatasetRegistry{
		entries: make(map[string]DatasetEntry),
		index:   newIndex("dataset"),
		blocked: make(map[string]struct{}),
	}
	for _, name := range blockedDatasets {
		r.blocked[Normalize(name)] = struct{}{}
	}
	for _, entry := range append(append([]DatasetEntry{}, builtinDatasets...), extra...) {
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
func (r *DatasetRegistry) Canonical(raw string) string {
	return r.index.canonical(raw)
}

// Lookup resolves a raw name (canonical or alias, any spelling) to its entry.
// A miss is an expected outcome, not an error: the factory falls back to the
// synthetic generator.
func (r *DatasetRegistry) Lookup(raw string) (DatasetEntry, bool) {
	entry, ok := r.entries[r.index.canonical(raw)]
	return entry, ok
}

// Blocked reports whether the named dataset is on the blocked list.
func (r *DatasetRegistry) Blocked(raw string) bool {
	_, ok := r.blocked[Normalize(raw)]
	return ok
}

// Names returns all canonical dataset names, sorted.
func (r *DatasetRegistry) Names() []string {
	names := make([]string, 0, len(r.entries))
	for name := range r.entries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// BySource returns the canonical names of all datasets with the given source, sorted.
func (r *DatasetRegistry) BySource(source Source) []string {
	var names []string
	for name, entry := range r.entries {
		if entry.Source == source {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}
