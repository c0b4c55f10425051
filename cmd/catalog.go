package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nirtamir-cli/cli/internal/integrations"
	"github.com/nirtamir-cli/cli/internal/primitives"
	"github.com/nirtamir-cli/cli/internal/ui"
)

func newCatalogCmd(o *options) *cobra.Command {
	c := &cobra.Command{
		Use:   "catalog",
		Short: "Manage the primitives catalog and integration packs",
	}

	c.AddCommand(&cobra.Command{
		Use:   "refresh",
		Short: "Refetch the primitives catalog and rewrite its cache",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := o.open(nil)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			var list []primitives.Primitive
			err = ui.Spinnerify(out, "Fetching primitives...", "Primitives cached", func() error {
				var err error
				list, err = s.primitives.Refetch(cmd.Context())
				return err
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "%d primitive(s) available\n", len(list))
			return nil
		},
	})

	// check lets pack authors validate a pack before adding it to the config.
	c.AddCommand(&cobra.Command{
		Use:   "check <pack>...",
		Short: "Validate integration packs",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			builtin, err := integrations.Builtin()
			if err != nil {
				return err
			}
			before := len(builtin.All())

			catalog, err := integrations.Load(args...)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, in := range catalog.All() {
				if in.Source != integrations.BuiltinSource {
					fmt.Fprintf(out, "%-24s %s\n", in.Name, in.Source)
				}
			}
			fmt.Fprintf(out, "%d integration(s) in total, %d built in\n", len(catalog.All()), before)
			return nil
		},
	})
	return c
}
