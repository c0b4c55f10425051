package state

import (
	"encoding/json" // State file format
	"os"            // Reading the state file
	"path/filepath" // Default location next to the config
	"sort"          // Stable output of AppliedNames
	"time"          // When an integration was applied

	"github.com/nirtamir-cli/cli/internal/filelock" // Atomic writes of the state file
	"github.com/nirtamir-cli/cli/internal/logger"   // Warnings for unreadable state
)

// Applied records one integration added to a project.
type Applied struct {
	AppliedAt time.Time `json:"appliedAt"`        // Time of the run that applied it, in UTC
	Source    string    `json:"source,omitempty"` // Catalog the integration came from, "builtin" or a pack path
	Records   []string  `json:"records"`          // Applied updates as "category name", e.g. "dev-package knip"
}

// State maps an absolute project path to the integrations applied to it.
type State struct {
	Projects map[string]map[string]Applied `json:"projects"` // Project path -> integration name -> Applied
}

// New returns an empty state.
func New() *State {
	return &State{Projects: make(map[string]map[string]Applied)}
}

// DefaultPath returns state.json next to the user config.
func DefaultPath(configDir string) string {
	return filepath.Join(configDir, "state.json")
}

// LoadState reads the state file at path. A missing or unreadable file gives
// an empty state, so a corrupt file never blocks adding integrations.
func LoadState(path string) *State {
	file, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			logger.Warn("[WARN] Cannot read state file %s: %v\n", path, err)
		}
		return New()
	}

	// A corrupt file is reported and replaced on the next save
	var st State
	if err := json.Unmarshal(file, &st); err != nil {
		logger.Warn("[WARN] Ignoring corrupt state file %s: %v\n", path, err)
		return New()
	}
	// "projects": null decodes to a nil map
	if st.Projects == nil {
		st.Projects = make(map[string]map[string]Applied)
	}
	return &st
}

// SaveState writes st to path.
func SaveState(path string, st *State) error {
	file, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return err
	}
	logger.Debug("[DEBUG] Writing state to %s\n", path)
	return filelock.AtomicWrite(path, file)
}

// Record marks integration name as applied to project.
func (s *State) Record(project, name string, a Applied) {
	apps, ok := s.Projects[project]
	if !ok {
		apps = make(map[string]Applied)
		s.Projects[project] = apps
	}
	apps[name] = a
}

// IsApplied reports whether name was applied to project.
func (s *State) IsApplied(project, name string) bool {
	_, ok := s.Projects[project][name]
	return ok
}

// AppliedNames returns the integrations applied to project, sorted.
func (s *State) AppliedNames(project string) []string {
	names := make([]string, 0, len(s.Projects[project]))
	for n := range s.Projects[project] {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
