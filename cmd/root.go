package cmd

import (
	"context"   // Cancellation of the running command
	"io"        // Injectable input and prompt output
	"os"        // Stdin and the exit status
	"os/signal" // Ctrl-C cancels the context

	"github.com/spf13/cobra" // CLI framework for commands and flags

	"github.com/nirtamir-cli/cli/internal/logger" // Set up before any subcommand runs
	"github.com/nirtamir-cli/cli/internal/runner" // Runs package managers and shell commands
)

// options holds the global flags and the process dependencies shared by all
// commands. Tests replace the process dependencies.
type options struct {
	debug      bool   // --debug: show [DEBUG] messages
	configPath string // --config: explicit config.yaml, must exist
	dir        string // --dir: project to update, default "."
	logFile    string // --log-file: JSON log of every message

	runner runner.Runner                                     // Executes external processes
	in     io.Reader                                         // Keys for the interactive prompts
	prompt func(message string, out io.Writer) (bool, error) // Yes/no question; nil prompts on the terminal
}

// NewRootCommand builds the nirtamir-cli command tree.
func NewRootCommand() *cobra.Command {
	return newRootCmd(&options{runner: runner.Exec{}, in: os.Stdin})
}

func newRootCmd(o *options) *cobra.Command {
	add := &addOptions{}

	rootCmd := &cobra.Command{
		Use:   "nirtamir-cli [integration|primitive...]",
		Short: "Add tooling integrations to a JavaScript project",
		Long: `nirtamir-cli adds preset tooling (eslint, prettier, knip, husky...) and
plain packages to the project in the current directory. Without arguments it
asks which ones to add.`,
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,

		// Logging is configured before any subcommand runs.
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return logger.Init(o.debug, o.logFile)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAdd(cmd, o, add, args)
		},
	}

	pf := rootCmd.PersistentFlags()
	pf.BoolVar(&o.debug, "debug", false, "Enable debug logging")
	pf.StringVarP(&o.configPath, "config", "c", "", "Path to config.yaml (default: user config dir)")
	pf.StringVarP(&o.dir, "dir", "C", ".", "Project directory to update")
	pf.StringVar(&o.logFile, "log-file", "", "Also write a JSON log to this file")
	add.bind(rootCmd)

	// Subcommands (defined in add.go, list.go and catalog.go)
	rootCmd.AddCommand(newAddCmd(o))
	rootCmd.AddCommand(newListCmd(o))
	rootCmd.AddCommand(newCatalogCmd(o))
	return rootCmd
}

// Execute runs the CLI and exits non-zero on failure. An interrupt cancels
// the running command's context, so in-flight installs are stopped and the
// updates not yet applied stay unapplied.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := NewRootCommand().ExecuteContext(ctx)
	stop()

	if err != nil {
		logger.Error("[ERROR] %v\n", err)
	}
	logger.Sync()
	if err != nil {
		os.Exit(1)
	}
}
