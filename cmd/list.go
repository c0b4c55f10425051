package cmd

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/nirtamir-cli/cli/internal/integrations"
	"github.com/nirtamir-cli/cli/internal/state"
)

var headingColor = color.New(color.FgCyan)

func newListCmd(o *options) *cobra.Command {
	var catalogs []string
	c := &cobra.Command{
		Use:   "list",
		Short: "List integrations and primitives; ✓ marks integrations already added to the project",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := o.open(catalogs)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			st := state.LoadState(s.statePath)

			headingColor.Fprintln(out, "Integrations")
			for _, in := range s.catalog.All() {
				mark := " "
				if st.IsApplied(s.dir, in.Name) {
					mark = "✓"
				}
				line := fmt.Sprintf("%s %-24s %s", mark, in.Name, in.Description)
				if in.Source != integrations.BuiltinSource {
					line += " [" + in.Source + "]"
				}
				fmt.Fprintln(out, strings.TrimRight(line, " "))
			}

			headingColor.Fprintln(out, "Primitives")
			for _, p := range s.loadPrimitives(cmd.Context(), out) {
				fmt.Fprintln(out, strings.TrimRight(fmt.Sprintf("  %-24s %-24s %s", p.Label, p.Value, p.Group), " "))
			}
			return nil
		},
	}
	c.Flags().StringArrayVar(&catalogs, "catalog", nil, "Extra integration pack to include (repeatable)")
	return c
}
