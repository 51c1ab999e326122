package registry

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// OverlayFile is a YAML catalog extension so deployments can register extra
// datasets and models without recompiling. Entries merge on top of the
// builtin catalogs and are subject to the same collision checks.
type OverlayFile struct {
	Datasets []OverlayDataset `yaml:"datasets"`
	Models   []OverlayModel   `yaml:"models"`
}

type OverlayDataset struct {
	Name         string   `yaml:"name"`
	Source       string   `yaml:"source"`
	LoadFunction string   `yaml:"load_function"`
	HFPath       []string `yaml:"hf_path"`
	SizeMB       int      `yaml:"size_mb"`
	Streaming    bool     `yaml:"streaming"`
	License      string   `yaml:"license"`
	Aliases      []string `yaml:"aliases"`
}

type OverlayModel struct {
	Name      string   `yaml:"name"`
	Family    string   `yaml:"family"`
	Estimator string   `yaml:"estimator"`
	Depth     int      `yaml:"depth"`
	Aliases   []string `yaml:"aliases"`
}

// LoadOverlayFile parses a YAML overlay file.
func LoadOverlayFile(path string) (*OverlayFile, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open registry overlay: %w", err)
	}
	defer f.Close()

	var overlay OverlayFile
	dec := yaml.NewDecoder(f)
	if err := dec.Decode(&overlay); err != nil {
		return nil, fmt.Errorf("failed to parse registry overlay YAML: %w", err)
	}
	return &overlay, nil
}

// DatasetEntries converts the overlay's dataset rows, validating source tags.
func (f *OverlayFile) DatasetEntries() ([]DatasetEntry, error) {
	entries := make([]DatasetEntry, 0, len(f.Datasets))
	for _, d := range f.Datasets {
		source := Source(d.Source)
		switch source {
		case SourceSklearn, SourceTorchvision, SourceHuggingFace, SourceSynthetic:
		default:
			return nil, fmt.Errorf("overlay dataset %q has unknown source %q", d.Name, d.Source)
		}
		entries = append(entries, DatasetEntry{
			Canonical:         d.Name,
			Source:            source,
			LoadFunction:      d.LoadFunction,
			HFPath:            d.HFPath,
			SizeHintMB:        d.SizeMB,
			SupportsStreaming: d.Streaming,
			License:           d.License,
			Aliases:           d.Aliases,
		})
	}
	return entries, nil
}

// ModelEntries converts the overlay's model rows, validating family tags.
func (f *OverlayFile) ModelEntries() ([]ModelEntry, error) {
	entries := make([]ModelEntry, 0, len(f.Models))
	for _, m := range f.Models {
		family := Family(m.Family)
		switch family {
		case FamilySklearn, FamilyTextCNN, FamilyResNet:
		default:
			return nil, fmt.Errorf("overlay model %q has unknown family %q", m.Name, m.Family)
		}
		entries = append(entries, ModelEntry{
			Canonical: m.Name,
			Family:    family,
			Estimator: m.Estimator,
			Depth:     m.Depth,
			Aliases:   m.Aliases,
		})
	}
	return entries, nil
}
