package integrations

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/multierr"

	"github.com/nirtamir-cli/cli/internal/logger"
	"github.com/nirtamir-cli/cli/internal/queue"
)

// RunnerPlaceholder in a command is replaced with the package runner (npx,
// pnpx, bunx) of the project's package manager.
const RunnerPlaceholder = "{runner}"

// Builder turns selected integrations into queued records for the project in
// Dir.
type Builder struct {
	Dir string
	// Runner substitutes RunnerPlaceholder in commands.
	Runner string
}

// Queue pushes every requirement of selected onto q. Dependencies, scripts
// and config fragments are pushed integration by integration; files are
// pushed next and edits last, so an edit sees every file the selection
// writes. A failing edit is reported and skipped; the rest is still queued.
func (b Builder) Queue(q *queue.Queue, selected []*Integration) error {
	_, err := b.QueueOwned(q, selected)
	return err
}

// QueueOwned is Queue, and also returns the records each integration pushed,
// keyed by integration name. An edit's result belongs to the integration that
// declared the edit.
func (b Builder) QueueOwned(q *queue.Queue, selected []*Integration) (map[string][]queue.Record, error) {
	owned := make(map[string][]queue.Record, len(selected))
	for _, in := range selected {
		push := func(r queue.Record) {
			q.Push(r)
			owned[in.Name] = append(owned[in.Name], r)
		}
		for _, p := range in.Installs {
			push(queue.PackageInstall{Package: p})
		}
		for _, p := range in.DevInstalls {
			push(queue.DevPackageInstall{Package: p})
		}
		for _, s := range in.Scripts {
			push(queue.ScriptEntry{Script: s.Name, Content: s.Content})
		}
		if in.TypeConfig.Len() > 0 {
			push(queue.TypeConfigFragment{Label: label(in.TypeConfig.Keys()), Fragment: in.TypeConfig})
		}
		if in.PackageJSON.Len() > 0 {
			push(queue.ManifestFragment{Label: label(in.PackageJSON.Keys()), Fragment: in.PackageJSON})
		}
	}

	steps := make([]ownedSteps, 0, len(selected))
	for _, in := range selected {
		steps = append(steps, ownedSteps{owner: in.Name, steps: &in.Steps})
	}
	err := b.queueSteps(q, steps, owned)
	return owned, err
}

// QueueSteps pushes the files, edits and commands of s.
func (b Builder) QueueSteps(q *queue.Queue, s *Steps) error {
	return b.queueSteps(q, []ownedSteps{{steps: s}}, nil)
}

type ownedSteps struct {
	owner string
	steps *Steps
}

// queueSteps records what it pushes in owned when owned is not nil.
func (b Builder) queueSteps(q *queue.Queue, all []ownedSteps, owned map[string][]queue.Record) error {
	track := func(owner string, r queue.Record) {
		if owned != nil {
			owned[owner] = append(owned[owner], r)
		}
	}

	for _, s := range all {
		for _, f := range s.steps.Files {
			fw := queue.FileWrite{Path: f.Path, Contents: f.Contents, Exclusive: f.Exclusive}
			q.Push(fw)
			track(s.owner, fw)
		}
	}
	var errs error
	for _, s := range all {
		for _, e := range s.steps.Edits {
			path, fw, err := queueEdit(q, b.Dir, e)
			if err != nil {
				logger.Error("[ERROR] Cannot edit %s: %v\n", path, err)
				errs = multierr.Append(errs, fmt.Errorf("%s: %w", path, err))
				continue
			}
			track(s.owner, fw)
		}
	}
	for _, s := range all {
		for _, c := range s.steps.Commands {
			sc := queue.ShellCommand{Line: b.expand(c)}
			q.Push(sc)
			track(s.owner, sc)
		}
	}
	return errs
}

func (b Builder) expand(command string) string {
	runner := b.Runner
	if runner == "" {
		runner = "npx"
	}
	return strings.ReplaceAll(command, RunnerPlaceholder, runner)
}

// label names a fragment record by its top-level keys.
func label(keys []string) string {
	return strings.Join(keys, ",")
}

// WithPostInstall returns the integrations of selected that declare
// post-install steps.
func WithPostInstall(selected []*Integration) []*Integration {
	var out []*Integration
	for _, in := range selected {
		if !in.PostInstall.Empty() {
			out = append(out, in)
		}
	}
	return out
}

// Flusher applies a queue. *queue.Flusher satisfies it.
type Flusher interface {
	FlushAll(ctx context.Context, q *queue.Queue) (queue.Report, error)
}

// RunPostInstall applies the post-install steps of selected, one integration
// at a time on a fresh queue. Commands are flushed before files and edits are
// queued, because post-install commands typically generate the files that the
// edits then change (husky init creates .husky/pre-commit).
func (b Builder) RunPostInstall(ctx context.Context, f Flusher, selected []*Integration) error {
	var errs error
	for _, in := range WithPostInstall(selected) {
		logger.Info("[INFO] Running post install steps for %s\n", in.Name)
		steps := in.PostInstall

		q := queue.New()
		for _, c := range steps.Commands {
			q.Push(queue.ShellCommand{Line: b.expand(c)})
		}
		if q.Len() > 0 {
			if _, err := f.FlushAll(ctx, q); err != nil {
				errs = multierr.Append(errs, err)
				continue
			}
		}

		q = queue.New()
		if err := b.QueueSteps(q, &Steps{Files: steps.Files, Edits: steps.Edits}); err != nil {
			errs = multierr.Append(errs, err)
		}
		if q.Len() > 0 {
			if _, err := f.FlushAll(ctx, q); err != nil {
				errs = multierr.Append(errs, err)
			}
		}
	}
	return errs
}
