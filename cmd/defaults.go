package cmd

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/inference-sim/llm-matchmaker/match/dataset"
	"github.com/inference-sim/llm-matchmaker/match/learn"
)

// Defaults represents the full defaults.yaml structure.
// All top-level sections must be listed to satisfy KnownFields(true) strict parsing.
type Defaults struct {
	Version   string                 `yaml:"version"`
	Synthesis *dataset.SynthesisSpec `yaml:"synthesis"`
	Training  learn.TrainConfig      `yaml:"training"`
}

// loadDefaults parses path over the built-in defaults. A missing file yields
// the built-in defaults unchanged.
func loadDefaults(path string) (*Defaults, error) {
	d := &Defaults{Training: learn.DefaultTrainConfig()}
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		logrus.Debugf("defaults file %s not found, using built-in defaults", path)
	case err != nil:
		return nil, fmt.Errorf("reading defaults file: %w", err)
	default:
		decoder := yaml.NewDecoder(bytes.NewReader(data))
		decoder.KnownFields(true)
		if err := decoder.Decode(d); err != nil {
			return nil, fmt.Errorf("parsing defaults file %s: %w", path, err)
		}
	}
	if d.Synthesis == nil {
		d.Synthesis = dataset.DefaultSynthesisSpec()
	}
	if d.Synthesis.Version == "" {
		d.Synthesis.Version = dataset.SpecVersion
	}
	return d, nil
}

// synthesisSpec returns the spec in specPath, or the defaults file's synthesis
// section when specPath is empty.
func synthesisSpec(specPath string) (*dataset.SynthesisSpec, error) {
	if specPath != "" {
		return dataset.LoadSynthesisSpec(specPath)
	}
	d, err := loadDefaults(defaultsPath)
	if err != nil {
		return nil, err
	}
	return d.Synthesis, nil
}

// trainConfig returns the config in configPath, or the defaults file's
// training section when configPath is empty.
func trainConfig(configPath string) (learn.TrainConfig, error) {
	if configPath != "" {
		return learn.LoadTrainConfig(configPath)
	}
	d, err := loadDefaults(defaultsPath)
	if err != nil {
		return learn.TrainConfig{}, err
	}
	return d.Training, nil
}
