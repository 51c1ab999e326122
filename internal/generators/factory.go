package generators

import (
	p2n "github.com/PIP-Team-3/pip-final-project-sub000"
	"github.com/PIP-Team-3/pip-final-project-sub000/internal/registry"
)

// Factory resolves plan names against the registries and picks a concrete
// generator per backend. Resolution is total: blocked or unknown datasets get
// the synthetic generator, unknown models get a logistic regression, so a
// plan that parses always materializes.
type Factory struct {
	datasets *registry.DatasetRegistry
	models   *registry.ModelRegistry
}

// NewFactory wires a factory over the given registries. Nil registries fall
// back to the built-in catalogs.
func NewFactory(datasets *registry.DatasetRegistry, models *registry.ModelRegistry) (*Factory, error) {
	if datasets == nil {
		var err error
		datasets, err = registry.NewDatasetRegistry()
		if err != nil {
			return nil, err
		}
	}
	if models == nil {
		var err error
		models, err = registry.NewModelRegistry()
		if err != nil {
			return nil, err
		}
	}
	return &Factory{datasets: datasets, models: models}, nil
}

// DatasetGenerator resolves the plan's dataset name. Blocked datasets (too
// large to download in a bounded run) and registry misses both degrade to the
// synthetic generator rather than failing the plan.
func (f *Factory) DatasetGenerator(plan *p2n.PlanDocument) p2n.CodeGenerator {
	if plan == nil {
		return SyntheticDatasetGenerator{}
	}
	if f.datasets.Blocked(plan.Dataset.Name) {
		return SyntheticDatasetGenerator{}
	}
	entry, ok := f.datasets.Lookup(plan.Dataset.Name)
	if !ok {
		return SyntheticDatasetGenerator{}
	}
	switch entry.Source {
	case registry.SourceSklearn:
		return SklearnDatasetGenerator{Entry: entry}
	case registry.SourceTorchvision:
		return TorchvisionDatasetGenerator{Entry: entry}
	case registry.SourceHuggingFace:
		return HuggingFaceDatasetGenerator{Entry: entry}
	default:
		return SyntheticDatasetGenerator{}
	}
}

// datasetSource reports the backend the dataset resolution above will land
// on, including the synthetic fallbacks.
func (f *Factory) datasetSource(plan *p2n.PlanDocument) registry.Source {
	if plan == nil || f.datasets.Blocked(plan.Dataset.Name) {
		return registry.SourceSynthetic
	}
	entry, ok := f.datasets.Lookup(plan.Dataset.Name)
	if !ok {
		return registry.SourceSynthetic
	}
	return entry.Source
}

// ModelGenerator resolves the plan's model name, falling back to a sklearn
// logistic regression for unregistered architectures. Torch families are
// further gated on the resolved dataset backend: a TextCNN needs text splits
// and a ResNet needs image tensors, so a plan that pairs them with any other
// dataset degrades to the sklearn estimator, which trains on every backend.
func (f *Factory) ModelGenerator(plan *p2n.PlanDocument) p2n.CodeGenerator {
	if plan == nil {
		return SklearnModelGenerator{}
	}
	entry, ok := f.models.Lookup(plan.Model.Name)
	if !ok {
		return SklearnModelGenerator{}
	}
	switch entry.Family {
	case registry.FamilyTextCNN:
		if f.datasetSource(plan) != registry.SourceHuggingFace {
			return SklearnModelGenerator{}
		}
		return TextCNNGenerator{}
	case registry.FamilyResNet:
		if f.datasetSource(plan) != registry.SourceTorchvision {
			return SklearnModelGenerator{}
		}
		return ResNetGenerator{Entry: entry}
	default:
		return SklearnModelGenerator{Entry: entry}
	}
}

var _ p2n.GeneratorFactory = (*Factory)(nil)
