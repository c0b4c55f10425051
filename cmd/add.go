package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/multierr"

	"github.com/nirtamir-cli/cli/internal/filelock"
	"github.com/nirtamir-cli/cli/internal/integrations"
	"github.com/nirtamir-cli/cli/internal/logger"
	"github.com/nirtamir-cli/cli/internal/pkgmanager"
	"github.com/nirtamir-cli/cli/internal/primitives"
	"github.com/nirtamir-cli/cli/internal/queue"
	"github.com/nirtamir-cli/cli/internal/ui"
)

var errUpdatesFailed = errors.New("some updates failed")

type addOptions struct {
	yes            bool
	dryRun         bool
	catalogs       []string
	packageManager string
}

func (a *addOptions) bind(c *cobra.Command) {
	f := c.Flags()
	f.BoolVarP(&a.yes, "yes", "y", false, "Skip confirmation prompts")
	f.BoolVar(&a.dryRun, "dry-run", false, "Print the queued updates without applying them")
	f.StringArrayVar(&a.catalogs, "catalog", nil, "Extra integration pack, a YAML file or an archive of them (repeatable)")
	f.StringVar(&a.packageManager, "package-manager", "", "Use npm, yarn, pnpm or bun instead of detecting it")
}

func newAddCmd(o *options) *cobra.Command {
	a := &addOptions{}
	c := &cobra.Command{
		Use:   "add [integration|primitive...]",
		Short: "Add integrations and primitives to the project",
		Example: `  nirtamir-cli add eslint prettier
  nirtamir-cli add zod --yes
  nirtamir-cli add --dry-run precommit`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAdd(cmd, o, a, args)
		},
	}
	a.bind(c)
	return c
}

// stepMessages are the spinner texts shown while a category is flushed.
var stepMessages = map[queue.Category][2]string{
	queue.CategoryFile:       {"Writing files...", "Files written"},
	queue.CategoryScript:     {"Adding scripts...", "Scripts added"},
	queue.CategoryPackage:    {"Installing packages...", "Packages installed"},
	queue.CategoryDevPackage: {"Installing dev packages...", "Dev packages installed"},
	queue.CategoryCommand:    {"Running setup commands...", "Setup commands ran"},
	queue.CategoryTypeConfig: {"Updating tsconfig.json...", "tsconfig.json updated"},
	queue.CategoryManifest:   {"Updating package.json...", "package.json updated"},
}

func stepSpinner(out io.Writer) func(queue.Category, func() error) error {
	return func(c queue.Category, step func() error) error {
		msg := stepMessages[c]
		return ui.Spinnerify(out, msg[0], msg[1], step)
	}
}

func runAdd(cmd *cobra.Command, o *options, a *addOptions, args []string) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	s, err := o.open(a.catalogs)
	if err != nil {
		return err
	}

	pm := a.packageManager
	if pm == "" {
		pm = s.cfg.PackageManager
	} else if _, err := pkgmanager.Parse(pm); err != nil {
		return err
	}

	lockDir, err := lockDirectory()
	if err != nil {
		return err
	}
	lock, err := filelock.ForProject(lockDir, s.dir)
	if err != nil {
		return err
	}
	if err := lock.Acquire(); err != nil {
		return err
	}
	defer func() { _ = lock.Unlock() }()

	names := args
	if len(names) == 0 {
		names, err = o.pick(ctx, s, out)
		if errors.Is(err, ui.ErrCancelled) {
			logger.Info("[INFO] Cancelled\n")
			return nil
		}
		if err != nil {
			return err
		}
		if len(names) == 0 {
			logger.Info("[INFO] Nothing selected\n")
			return nil
		}
	}

	manager, err := pkgmanager.Detect(s.dir, pm)
	if err != nil {
		return err
	}
	b := integrations.Builder{Dir: s.dir, Runner: pkgmanager.RunnerCommand(manager)}

	selected, unknown := s.catalog.Select(names)
	q := queue.New()
	owned, err := b.QueueOwned(q, selected)
	if err != nil {
		logger.Warn("[WARN] Some edits were skipped\n")
	}
	if len(unknown) > 0 {
		found, missing := primitives.Resolve(s.loadPrimitives(ctx, out), unknown)
		for _, p := range found {
			q.Push(queue.PackageInstall{Package: p.Value})
		}
		for _, n := range missing {
			logger.Error("[ERROR] No support for %s\n", n)
		}
	}
	if q.Len() == 0 {
		logger.Info("[INFO] Nothing to do\n")
		return nil
	}

	ui.RenderSummary(out, q.Summarize())
	if a.dryRun {
		return nil
	}

	ok, err := o.confirm(a.yes, "Do you wish to continue?", out)
	if err != nil {
		return err
	}
	if !ok {
		q.Clear()
		logger.Info("[INFO] Cancelled, nothing was changed\n")
		return nil
	}

	f := queue.NewFlusher(s.dir, o.runner, pm)
	f.Wrap = stepSpinner(out)
	report, flushErr := f.FlushAll(ctx, q)
	ui.RenderReport(out, report)
	s.record(selected, owned, report)

	if post := integrations.WithPostInstall(selected); len(post) > 0 && ctx.Err() == nil {
		msg := fmt.Sprintf("%d integration(s) have post install steps. Run them now?", len(post))
		ok, err := o.confirm(a.yes, msg, out)
		if err != nil {
			return err
		}
		if ok {
			if err := b.RunPostInstall(ctx, f, post); err != nil {
				flushErr = multierr.Append(flushErr, err)
			} else {
				logger.Info("[INFO] Post install steps complete\n")
			}
		}
	}

	if flushErr != nil {
		return errUpdatesFailed
	}
	return nil
}

// pick asks which integrations and primitives to add.
func (o *options) pick(ctx context.Context, s *session, out io.Writer) ([]string, error) {
	if !ui.IsTerminal(o.in) {
		return nil, errNeedsTerminal
	}

	var opts []ui.Option
	for _, in := range s.catalog.All() {
		opts = append(opts, ui.Option{Label: in.Name, Value: in.Name, Group: "integrations", Hint: in.Description})
	}
	for _, p := range s.loadPrimitives(ctx, out) {
		opts = append(opts, ui.Option{Label: p.Label, Value: p.Value, Group: p.Group, Hint: p.Group})
	}

	picked, err := ui.RunMultiSelect("Which packages would you like to add?", opts, o.in, out)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(picked))
	for _, p := range picked {
		names = append(names, p.Value)
	}
	return names, nil
}
