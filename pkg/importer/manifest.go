// CLAUDE:SUMMARY Dataset manifest (dataset.yaml): source location, tabular format and tokenizer strategy.
package importer

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/hazyhaar/kanaseek/pkg/tokenize"
	"gopkg.in/yaml.v3"
)

// Manifest describes a dataset: where it comes from and how to read it.
type Manifest struct {
	ID          string            `yaml:"id" json:"id"`
	Description string            `yaml:"description,omitempty" json:"description,omitempty"`
	Source      string            `yaml:"source" json:"source"`
	License     string            `yaml:"license,omitempty" json:"license,omitempty"`
	Format      Format            `yaml:"format" json:"format"`
	Tokenizer   tokenize.Strategy `yaml:"tokenizer" json:"tokenizer"`
}

// Format describes the tabular layout of the source.
type Format struct {
	Type      string `yaml:"type,omitempty" json:"type,omitempty"`
	Delimiter string `yaml:"delimiter,omitempty" json:"delimiter,omitempty"`
	Encoding  string `yaml:"encoding,omitempty" json:"encoding,omitempty"`
	HasHeader *bool  `yaml:"has_header,omitempty" json:"has_header,omitempty"`
	Sheet     string `yaml:"sheet,omitempty" json:"sheet,omitempty"`
}

// Header reports whether the first row holds column names. Defaults to true.
func (f Format) Header() bool {
	return f.HasHeader == nil || *f.HasHeader
}

// LoadManifest reads and parses a dataset.yaml file. A relative local source
// is resolved against the manifest's directory.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest %s: %w", path, err)
	}
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse manifest %s: %w", path, err)
	}
	if m.ID == "" {
		return nil, fmt.Errorf("manifest %s: missing id", path)
	}
	if m.Source == "" {
		return nil, fmt.Errorf("manifest %s: missing source", path)
	}
	if !isRemote(m.Source) && !filepath.IsAbs(m.Source) {
		m.Source = filepath.Join(filepath.Dir(path), m.Source)
	}
	return &m, nil
}

// ResolveManifest returns the manifest for path: parsed when path is a YAML
// manifest, otherwise a default manifest reading path itself.
func ResolveManifest(path string) (*Manifest, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return LoadManifest(path)
	}
	if path == "" {
		return nil, fmt.Errorf("no dataset configured")
	}
	base := filepath.Base(path)
	return &Manifest{
		ID:     strings.TrimSuffix(base, filepath.Ext(base)),
		Source: path,
	}, nil
}

// WriteManifest writes m as YAML to dir/dataset.yaml.
func WriteManifest(dir string, m *Manifest) error {
	data, err := yaml.Marshal(m)
	if err != nil {
		return fmt.Errorf("marshal manifest: %w", err)
	}
	return os.WriteFile(filepath.Join(dir, "dataset.yaml"), data, 0o644)
}

func isRemote(source string) bool {
	return strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://")
}
