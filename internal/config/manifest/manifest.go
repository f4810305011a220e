// Package manifest loads and validates the scan manifest: the yaml document
// naming each output target and the staging root its files come from.
package manifest

import (
	"fmt"

	"gopkg.in/yaml.v3"
	sigyaml "sigs.k8s.io/yaml"

	"github.com/open-edge-platform/pkg-depscan/internal/config/validate"
	"github.com/open-edge-platform/pkg-depscan/internal/utils/security"
)

// TargetSpec maps one output target to its staged file tree.
type TargetSpec struct {
	Name    string   `yaml:"name" json:"name"`
	Root    string   `yaml:"root" json:"root"`
	Exclude []string `yaml:"exclude,omitempty" json:"exclude,omitempty"`
}

// ReportSpec optionally fixes the report destination in the manifest itself.
type ReportSpec struct {
	Format string `yaml:"format,omitempty" json:"format,omitempty"`
	Path   string `yaml:"path,omitempty" json:"path,omitempty"`
}

// Manifest is the root scan manifest document.
type Manifest struct {
	Targets []TargetSpec `yaml:"targets" json:"targets"`
	Report  ReportSpec   `yaml:"report,omitempty" json:"report,omitempty"`
}

// Load reads, schema-validates and decodes a manifest file. Reads refuse
// symlinked manifests the same way config reads do.
func Load(path string) (*Manifest, error) {
	data, err := security.SafeReadFile(path, security.RejectSymlinks)
	if err != nil {
		return nil, fmt.Errorf("reading manifest %s: %w", path, err)
	}

	// Schema validation works on JSON, so convert the user yaml first.
	jsonData, err := sigyaml.YAMLToJSON(data)
	if err != nil {
		return nil, fmt.Errorf("converting manifest %s to JSON: %w", path, err)
	}
	if err := validate.ValidateManifestJSON(jsonData); err != nil {
		return nil, fmt.Errorf("validating manifest %s: %w", path, err)
	}

	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parsing manifest %s: %w", path, err)
	}
	if err := m.Validate(); err != nil {
		return nil, fmt.Errorf("manifest %s: %w", path, err)
	}
	return &m, nil
}

// Validate applies the checks the schema cannot express.
func (m *Manifest) Validate() error {
	if len(m.Targets) == 0 {
		return fmt.Errorf("manifest declares no targets")
	}
	seen := make(map[string]struct{}, len(m.Targets))
	for _, t := range m.Targets {
		if t.Name == "" {
			return fmt.Errorf("target with empty name")
		}
		if t.Root == "" {
			return fmt.Errorf("target %s has no root", t.Name)
		}
		if _, dup := seen[t.Name]; dup {
			return fmt.Errorf("duplicate target name %s", t.Name)
		}
		seen[t.Name] = struct{}{}
	}
	return nil
}
