// Package integrations holds the catalog of tooling presets a user can add to
// a project and turns a selection of them into queued updates.
package integrations

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/nirtamir-cli/cli/internal/document"
)

// Integration is one catalog entry. Every field is optional except Name.
type Integration struct {
	Name        string           `yaml:"name"`
	Description string           `yaml:"description"`
	Installs    []string         `yaml:"installs"`
	DevInstalls []string         `yaml:"devInstalls"`
	Scripts     Scripts          `yaml:"scripts"`
	TypeConfig  *document.Object `yaml:"tsconfig"`
	PackageJSON *document.Object `yaml:"packageJson"`
	Steps       `yaml:",inline"`

	// PostInstall runs only after the main changes are applied and the user
	// confirms a second time.
	PostInstall *Steps `yaml:"postInstall"`

	// Source names the catalog the entry came from.
	Source string `yaml:"-"`
}

// Steps are the side effects of an integration beyond dependencies and
// config fragments.
type Steps struct {
	Files    []File   `yaml:"files"`
	Edits    []Edit   `yaml:"edits"`
	Commands []string `yaml:"commands"`
}

// Empty reports whether s has nothing to do.
func (s *Steps) Empty() bool {
	return s == nil || len(s.Files)+len(s.Edits)+len(s.Commands) == 0
}

// File is a whole-file write.
type File struct {
	Path      string `yaml:"path"`
	Contents  string `yaml:"contents"`
	Exclusive bool   `yaml:"exclusive"`
}

// Script is a named package.json script.
type Script struct {
	Name    string
	Content string
}

// Scripts keeps package.json scripts in the order they are declared.
type Scripts []Script

// UnmarshalYAML decodes a mapping of script name to command.
func (s *Scripts) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: scripts must be a mapping", node.Line)
	}
	out := make(Scripts, 0, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		key, val := node.Content[i], node.Content[i+1]
		if val.Kind != yaml.ScalarNode {
			return fmt.Errorf("line %d: script %q must be a string", val.Line, key.Value)
		}
		out = append(out, Script{Name: key.Value, Content: val.Value})
	}
	*s = out
	return nil
}

func (i *Integration) validate() error {
	if i.Name == "" {
		return fmt.Errorf("integration without a name")
	}
	steps := []*Steps{&i.Steps}
	if i.PostInstall != nil {
		steps = append(steps, i.PostInstall)
	}
	for _, s := range steps {
		for _, f := range s.Files {
			if f.Path == "" {
				return fmt.Errorf("integration %s: file without a path", i.Name)
			}
		}
		for _, e := range s.Edits {
			if err := e.validate(); err != nil {
				return fmt.Errorf("integration %s: %w", i.Name, err)
			}
		}
	}
	return nil
}
