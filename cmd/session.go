package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/nirtamir-cli/cli/internal/config"
	"github.com/nirtamir-cli/cli/internal/integrations"
	"github.com/nirtamir-cli/cli/internal/logger"
	"github.com/nirtamir-cli/cli/internal/primitives"
	"github.com/nirtamir-cli/cli/internal/queue"
	"github.com/nirtamir-cli/cli/internal/state"
	"github.com/nirtamir-cli/cli/internal/ui"
)

// session is what every command needs once the flags are parsed: the config,
// the resolved project directory and the catalogs.
type session struct {
	cfg        config.Config
	dir        string
	catalog    *integrations.Catalog
	statePath  string
	primitives *primitives.Store
}

func (o *options) open(extraCatalogs []string) (*session, error) {
	cfg, err := config.LoadConfig(o.configPath)
	if err != nil {
		return nil, err
	}

	dir, err := filepath.Abs(o.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s: %w", o.dir, err)
	}
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		return nil, fmt.Errorf("project directory %s does not exist", dir)
	}

	catalog, err := integrations.Load(append(slices.Clone(cfg.Catalogs), extraCatalogs...)...)
	if err != nil {
		return nil, err
	}

	statePath := cfg.State
	if statePath == "" {
		cfgDir, err := config.Dir()
		if err != nil {
			return nil, fmt.Errorf("cannot locate the user config dir: %w", err)
		}
		statePath = state.DefaultPath(cfgDir)
	}

	cachePath, err := primitives.DefaultCachePath()
	if err != nil {
		return nil, fmt.Errorf("cannot locate the user cache dir: %w", err)
	}

	return &session{
		cfg:       cfg,
		dir:       dir,
		catalog:   catalog,
		statePath: statePath,
		primitives: &primitives.Store{
			CachePath: cachePath,
			TTL:       time.Duration(cfg.Primitives.TTL),
			URL:       cfg.Primitives.URL,
		},
	}, nil
}

// loadPrimitives never fails: without a usable cache or network the static
// list is used.
func (s *session) loadPrimitives(ctx context.Context, out io.Writer) []primitives.Primitive {
	var list []primitives.Primitive
	err := ui.Spinnerify(out, "Loading primitives...", "Primitives loaded", func() error {
		var err error
		list, err = s.primitives.Load(ctx)
		return err
	})
	if err != nil {
		logger.Warn("[WARN] Failed to load primitives (%v), using the built-in list\n", err)
		return primitives.Static()
	}
	return list
}

// record marks every selected integration whose updates all applied. owned
// holds the records each integration queued.
func (s *session) record(selected []*integrations.Integration, owned map[string][]queue.Record, report queue.Report) {
	failed := make(map[string]bool, len(report.Failed))
	for _, r := range report.Failed {
		failed[recordKey(r)] = true
	}

	st := state.LoadState(s.statePath)
	now := time.Now().UTC()
	for _, in := range selected {
		keys := make([]string, 0, len(owned[in.Name]))
		seen := make(map[string]bool)
		complete := true
		for _, r := range owned[in.Name] {
			k := recordKey(r)
			if failed[k] {
				complete = false
				break
			}
			if !seen[k] {
				seen[k] = true
				keys = append(keys, k)
			}
		}
		if !complete {
			logger.Debug("[DEBUG] Not recording %s: some of its updates failed\n", in.Name)
			continue
		}
		st.Record(s.dir, in.Name, state.Applied{AppliedAt: now, Source: in.Source, Records: keys})
	}

	if err := state.SaveState(s.statePath, st); err != nil {
		logger.Warn("[WARN] Failed to save state: %v\n", err)
	}
}

func recordKey(r queue.Record) string {
	return string(r.Category()) + " " + r.Name()
}

var errNeedsTerminal = errors.New("this needs an interactive terminal; pass the names to add and --yes")

// confirm returns true without asking when yes is set.
func (o *options) confirm(yes bool, message string, out io.Writer) (bool, error) {
	if yes {
		return true, nil
	}
	if o.prompt != nil {
		return o.prompt(message, out)
	}
	return o.terminalPrompt(message, out)
}

func (o *options) terminalPrompt(message string, out io.Writer) (bool, error) {
	if !ui.IsTerminal(o.in) {
		return false, errNeedsTerminal
	}
	return ui.RunConfirm(message, o.in, out)
}

// lockDirectory is where project locks live, outside any project.
func lockDirectory() (string, error) {
	dir, err := os.UserCacheDir()
	if err != nil {
		return "", fmt.Errorf("cannot locate the user cache dir: %w", err)
	}
	return filepath.Join(dir, "nirtamir-cli", "locks"), nil
}
