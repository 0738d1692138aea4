package routing

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/zeebo/blake3"
	"gopkg.in/yaml.v3"

	"github.com/rjardine/newsroute/internal/model"
)

// Set is a validated collection of routing schemes keyed by name.
type Set struct {
	Schemes map[string]*model.RoutingScheme

	// Fingerprint is blake3:<hex> of the normalized scheme set, used to
	// detect configuration drift between restarts.
	Fingerprint string
}

// Names returns scheme names in stable order.
func (s *Set) Names() []string {
	names := make([]string, 0, len(s.Schemes))
	for name := range s.Schemes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// LoadDir discovers scheme files in <configDir>/schemes/*.yaml, parses and
// validates them, and fingerprints the resulting set. A missing directory is
// an empty set, not an error.
func LoadDir(configDir string) (*Set, error) {
	return LoadSchemes(filepath.Join(configDir, "schemes"))
}

// LoadSchemes loads every *.yaml scheme file directly from dir.
func LoadSchemes(schemesDir string) (*Set, error) {
	entries, err := os.ReadDir(schemesDir)
	if err != nil {
		if os.IsNotExist(err) {
			return buildSet(nil)
		}
		return nil, fmt.Errorf("read schemes directory %q: %w", schemesDir, err)
	}

	var yamlFiles []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if filepath.Ext(entry.Name()) != ".yaml" {
			continue
		}
		yamlFiles = append(yamlFiles, filepath.Join(schemesDir, entry.Name()))
	}
	sort.Strings(yamlFiles)

	var schemes []*model.RoutingScheme
	for _, filePath := range yamlFiles {
		fileSchemes, err := LoadFile(filePath)
		if err != nil {
			return nil, err
		}
		schemes = append(schemes, fileSchemes...)
	}

	return buildSet(schemes)
}

// LoadFile parses one scheme YAML file. A file holds either a single scheme
// document or a top-level `schemes:` list.
func LoadFile(path string) ([]*model.RoutingScheme, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scheme file %q: %w", path, err)
	}

	var multi struct {
		Schemes []*model.RoutingScheme `yaml:"schemes"`
	}
	if err := yaml.Unmarshal(data, &multi); err == nil && len(multi.Schemes) > 0 {
		return multi.Schemes, nil
	}

	var single model.RoutingScheme
	if err := yaml.Unmarshal(data, &single); err != nil {
		return nil, fmt.Errorf("parse scheme file %q: %w", path, err)
	}
	return []*model.RoutingScheme{&single}, nil
}

func buildSet(schemes []*model.RoutingScheme) (*Set, error) {
	out := &Set{Schemes: make(map[string]*model.RoutingScheme, len(schemes))}

	for i, scheme := range schemes {
		if err := scheme.Validate(); err != nil {
			return nil, fmt.Errorf("schemes[%d]: %w", i, err)
		}
		if _, exists := out.Schemes[scheme.Name]; exists {
			return nil, fmt.Errorf("duplicate scheme name %q", scheme.Name)
		}
		out.Schemes[scheme.Name] = scheme
	}

	fingerprint, err := fingerprintSet(out.Schemes)
	if err != nil {
		return nil, err
	}
	out.Fingerprint = fingerprint
	return out, nil
}

// fingerprintSet hashes the JSON form of the schemes in name order so the
// fingerprint is independent of file layout and map iteration.
func fingerprintSet(schemes map[string]*model.RoutingScheme) (string, error) {
	names := make([]string, 0, len(schemes))
	for name := range schemes {
		names = append(names, name)
	}
	sort.Strings(names)

	ordered := make([]*model.RoutingScheme, 0, len(names))
	for _, name := range names {
		ordered = append(ordered, schemes[name])
	}

	body, err := json.Marshal(ordered)
	if err != nil {
		return "", fmt.Errorf("fingerprint schemes: %w", err)
	}
	sum := blake3.Sum256(body)
	return "blake3:" + hex.EncodeToString(sum[:]), nil
}
