// Package classifier scores feature vectors with a linear model.
package classifier

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/nxneeraj/phishwatch/pkg/features"
	"github.com/nxneeraj/phishwatch/pkg/types"
)

// Model is a weighted sum of named features compared against a threshold.
type Model struct {
	Name      string             `yaml:"name"`
	Bias      float64            `yaml:"bias"`
	Threshold float64            `yaml:"threshold"`
	Weights   map[string]float64 `yaml:"weights"`

	weights []float64 // indexed like features.Names
}

// Default returns the built-in model. Young or soon-expiring domains, many
// dots and slashes, redirects, and few mail servers push the score up.
func Default() *Model {
	m := &Model{
		Name:      "builtin",
		Bias:      -3.0,
		Threshold: 0,
		Weights: map[string]float64{
			"directory_length":       0.01,
			"time_domain_activation": -0.002,
			"time_response":          0.3,
			"length_url":             0.02,
			"qty_dot_domain":         0.35,
			"time_domain_expiration": -0.001,
			"qty_nameservers":        -0.1,
			"domain_length":          0.03,
			"qty_slash_url":          0.1,
			"qty_mx_servers":         -0.2,
			"qty_hyphen_directory":   0.25,
			"qty_ip_resolved":        -0.05,
			"file_length":            0.01,
			"qty_redirects":          0.3,
			"qty_dot_url":            0.1,
			"qty_dot_file":           0.15,
		},
	}
	if err := m.compile(); err != nil {
		panic(err)
	}
	return m
}

// Load reads a model from a YAML file.
func Load(path string) (*Model, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read model %s: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes a YAML model. Weights for unknown features are rejected.
func Parse(data []byte) (*Model, error) {
	var m Model
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse model: %w", err)
	}
	if len(m.Weights) == 0 {
		return nil, fmt.Errorf("model %q has no weights", m.Name)
	}
	if err := m.compile(); err != nil {
		return nil, err
	}
	return &m, nil
}

func (m *Model) compile() error {
	index := make(map[string]int, len(features.Names))
	for i, n := range features.Names {
		index[n] = i
	}
	m.weights = make([]float64, len(features.Names))
	for name, w := range m.Weights {
		i, ok := index[name]
		if !ok {
			return fmt.Errorf("model %q: unknown feature %q", m.Name, name)
		}
		m.weights[i] = w
	}
	return nil
}

// Score returns the model's raw score for v.
func (m *Model) Score(v features.Vector) float64 {
	s := m.Bias
	for i, x := range v {
		if i < len(m.weights) {
			s += m.weights[i] * x
		}
	}
	return s
}

// Predict labels v as phishing when its score reaches the threshold.
func (m *Model) Predict(v features.Vector) (string, float64) {
	s := m.Score(v)
	if s >= m.Threshold {
		return types.ResultPhishing, s
	}
	return types.ResultLegitimate, s
}
