package skills

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// ManifestFile is the manifest's file name inside a skill directory.
const ManifestFile = "manifest.yaml"

// Manifest describes a skill. CanRepeatLastResponse lets the user have the
// assistant repeat its last prompt after the skill ran; CanGoAgain lets them
// re-run the skill's last intent. Both default to true when absent.
type Manifest struct {
	ID                    string   `yaml:"id" json:"id"`
	Name                  string   `yaml:"name" json:"name"`
	Description           string   `yaml:"description" json:"description,omitempty"`
	Disabled              bool     `yaml:"disabled" json:"disabled"`
	Entry                 string   `yaml:"entry" json:"entry,omitempty"`
	Capabilities          []string `yaml:"capabilities" json:"capabilities,omitempty"`
	Permissions           []string `yaml:"permissions" json:"permissions,omitempty"`
	CanRepeatLastResponse bool     `yaml:"can_repeat_last_response" json:"can_repeat_last_response"`
	CanGoAgain            bool     `yaml:"can_go_again" json:"can_go_again"`
	Author                string   `yaml:"author" json:"author,omitempty"`
	Version               string   `yaml:"version" json:"version,omitempty"`
}

// DefaultManifest is used for a skill directory without a manifest.
func DefaultManifest(id string) Manifest {
	return Manifest{
		ID:                    id,
		Name:                  id,
		CanRepeatLastResponse: true,
		CanGoAgain:            true,
	}
}

// ParseManifest decodes manifest YAML. Missing id and name fall back to
// the directory name.
func ParseManifest(data []byte, dirName string) (Manifest, error) {
	m := Manifest{CanRepeatLastResponse: true, CanGoAgain: true}
	if err := yaml.Unmarshal(data, &m); err != nil {
		return Manifest{}, fmt.Errorf("%w: %v", ErrManifestInvalid, err)
	}
	if m.ID == "" {
		m.ID = dirName
	}
	if m.Name == "" {
		m.Name = m.ID
	}
	return m, nil
}

// ReadManifest reads <dir>/manifest.yaml. A missing file yields the
// default manifest and found=false.
func ReadManifest(dir string) (m Manifest, found bool, err error) {
	name := filepath.Base(dir)
	data, err := os.ReadFile(filepath.Join(dir, ManifestFile))
	if errors.Is(err, os.ErrNotExist) {
		return DefaultManifest(name), false, nil
	}
	if err != nil {
		return Manifest{}, true, fmt.Errorf("%w: %v", ErrManifestInvalid, err)
	}
	m, err = ParseManifest(data, name)
	return m, true, err
}
