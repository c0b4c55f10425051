package integrations

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/nirtamir-cli/cli/internal/archive"
	"github.com/nirtamir-cli/cli/internal/logger"
)

//go:embed catalog.yaml
var builtinCatalog []byte

// BuiltinSource is the Source of entries shipped with the binary.
const BuiltinSource = "builtin"

// Catalog is an ordered set of integrations keyed by name.
type Catalog struct {
	entries []*Integration
	index   map[string]int
}

type catalogFile struct {
	Integrations []*Integration `yaml:"integrations"`
}

// Builtin returns the catalog embedded in the binary.
func Builtin() (*Catalog, error) {
	c := &Catalog{index: map[string]int{}}
	if err := c.addYAML(builtinCatalog, BuiltinSource); err != nil {
		return nil, fmt.Errorf("builtin catalog: %w", err)
	}
	return c, nil
}

// Load returns the builtin catalog extended by the given packs, in order. A
// pack entry with the name of an existing one replaces it in place.
func Load(packs ...string) (*Catalog, error) {
	c, err := Builtin()
	if err != nil {
		return nil, err
	}
	for _, p := range packs {
		if err := c.AddPack(p); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// AddPack loads a catalog pack: either a YAML file or an archive holding YAML
// files.
func (c *Catalog) AddPack(path string) error {
	if !archive.IsArchive(path) {
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read catalog %s: %w", path, err)
		}
		if err := c.addYAML(data, path); err != nil {
			return fmt.Errorf("catalog %s: %w", path, err)
		}
		return nil
	}

	tmp, err := os.MkdirTemp("", "nirtamir-cli-pack-")
	if err != nil {
		return err
	}
	defer os.RemoveAll(tmp)

	files, err := archive.Extract(path, tmp)
	if err != nil {
		return fmt.Errorf("failed to extract catalog %s: %w", path, err)
	}
	var yamls []string
	for _, f := range files {
		if ext := strings.ToLower(filepath.Ext(f)); ext == ".yaml" || ext == ".yml" {
			yamls = append(yamls, f)
		}
	}
	if len(yamls) == 0 {
		return fmt.Errorf("catalog %s: archive contains no yaml files", path)
	}
	sort.Strings(yamls)

	source := archive.Name(path)
	for _, f := range yamls {
		data, err := os.ReadFile(f)
		if err != nil {
			return err
		}
		rel, _ := filepath.Rel(tmp, f)
		if err := c.addYAML(data, source+"/"+filepath.ToSlash(rel)); err != nil {
			return fmt.Errorf("catalog %s: %s: %w", path, rel, err)
		}
	}
	return nil
}

func (c *Catalog) addYAML(data []byte, source string) error {
	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return err
	}
	for _, in := range file.Integrations {
		if in == nil {
			continue
		}
		if err := in.validate(); err != nil {
			return err
		}
		in.Source = source
		if i, ok := c.index[in.Name]; ok {
			logger.Debug("[DEBUG] %s overrides integration %s from %s\n", source, in.Name, c.entries[i].Source)
			c.entries[i] = in
			continue
		}
		c.index[in.Name] = len(c.entries)
		c.entries = append(c.entries, in)
	}
	return nil
}

// Get returns the integration called name.
func (c *Catalog) Get(name string) (*Integration, bool) {
	i, ok := c.index[name]
	if !ok {
		return nil, false
	}
	return c.entries[i], true
}

// All returns every integration in catalog order.
func (c *Catalog) All() []*Integration {
	out := make([]*Integration, len(c.entries))
	copy(out, c.entries)
	return out
}

// Names returns every integration name in catalog order.
func (c *Catalog) Names() []string {
	out := make([]string, len(c.entries))
	for i, e := range c.entries {
		out[i] = e.Name
	}
	return out
}

// Select splits names into known integrations, in the order given, and the
// names the catalog does not know. Repeated names are selected once.
func (c *Catalog) Select(names []string) (selected []*Integration, unknown []string) {
	seen := map[string]bool{}
	for _, n := range names {
		n = strings.TrimSpace(n)
		if n == "" || seen[n] {
			continue
		}
		seen[n] = true
		if in, ok := c.Get(n); ok {
			selected = append(selected, in)
			continue
		}
		unknown = append(unknown, n)
	}
	return selected, unknown
}
