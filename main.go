package main

import (
	"github.com/nirtamir-cli/cli/cmd" // CLI commands and execution
)

// main delegates to cmd.Execute, which parses arguments and runs the
// selected command.
//
// nirtamir-cli adds tooling integrations to a JavaScript or TypeScript
// project:
//   - Integrations come from a built-in YAML catalog plus optional packs
//     (YAML files or archives of them) named in the config or on the
//     command line
//   - Every requested change is queued first and shown to the user, then
//     applied in a fixed order: files, scripts, packages, dev packages,
//     commands, tsconfig.json and package.json
//   - The package manager is detected from package.json and lockfiles
//   - A JSON state file records which integrations were added to which
//     project
//
// Failed updates are reported and the run exits non-zero, while everything
// that could be applied is applied.
func main() {
	cmd.Execute()
}
