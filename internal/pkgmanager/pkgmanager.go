// Package pkgmanager detects which JavaScript package manager a project uses
// and maps it to the sub-commands the CLI invokes.
package pkgmanager

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/nirtamir-cli/cli/internal/logger"
)

// Manager names a supported package manager binary.
type Manager string

const (
	NPM  Manager = "npm"
	Yarn Manager = "yarn"
	PNPM Manager = "pnpm"
	Bun  Manager = "bun"
)

// All lists the supported managers.
var All = []Manager{NPM, Yarn, PNPM, Bun}

// lockfiles are checked in order; the first one present wins.
var lockfiles = []struct {
	file    string
	manager Manager
}{
	{"pnpm-lock.yaml", PNPM},
	{"yarn.lock", Yarn},
	{"bun.lockb", Bun},
	{"bun.lock", Bun},
	{"package-lock.json", NPM},
	{"npm-shrinkwrap.json", NPM},
}

// Parse validates a manager name, accepting a version suffix such as
// "pnpm@9.1.0".
func Parse(s string) (Manager, error) {
	name := strings.TrimSpace(s)
	if i := strings.Index(name, "@"); i > 0 {
		name = name[:i]
	}
	for _, m := range All {
		if string(m) == name {
			return m, nil
		}
	}
	return "", fmt.Errorf("unsupported package manager %q", s)
}

// Detect returns the manager for the project in dir. An explicit override
// wins, then the "packageManager" field of package.json, then lockfiles, then
// the manager that launched us (npm_config_user_agent), then npm.
func Detect(dir, override string) (Manager, error) {
	if override != "" {
		return Parse(override)
	}

	if data, err := os.ReadFile(filepath.Join(dir, "package.json")); err == nil {
		if field := gjson.GetBytes(data, "packageManager"); field.Exists() {
			if m, err := Parse(field.String()); err == nil {
				logger.Debug("[DEBUG] Package manager %s from package.json\n", m)
				return m, nil
			}
			logger.Warn("[WARN] Ignoring unknown packageManager %q in package.json\n", field.String())
		}
	}

	for _, lf := range lockfiles {
		if _, err := os.Stat(filepath.Join(dir, lf.file)); err == nil {
			logger.Debug("[DEBUG] Package manager %s from %s\n", lf.manager, lf.file)
			return lf.manager, nil
		}
	}

	if agent := os.Getenv("npm_config_user_agent"); agent != "" {
		name, _, _ := strings.Cut(agent, "/")
		if m, err := Parse(name); err == nil {
			logger.Debug("[DEBUG] Package manager %s from user agent\n", m)
			return m, nil
		}
	}

	return NPM, nil
}

// InstallSubcommand returns the sub-command that adds a dependency.
func InstallSubcommand(m Manager) string {
	switch m {
	case NPM:
		return "install"
	default:
		return "add"
	}
}

// DevFlag returns the flag that marks an install as a dev dependency.
func DevFlag(Manager) string {
	return "-D"
}

// RunnerCommand returns the binary that executes a package's CLI without
// installing it globally.
func RunnerCommand(m Manager) string {
	switch m {
	case PNPM:
		return "pnpx"
	case Bun:
		return "bunx"
	default:
		return "npx"
	}
}
