package main

import (
	"github.com/spf13/cobra"

	"github.com/samuelstevens/ghrel/internal/config"
	"github.com/samuelstevens/ghrel/internal/service"
	"github.com/samuelstevens/ghrel/internal/state"
)

func newListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List installed packages",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc := service.NewListService(
				config.NewLoader(a.settings.PackagesDir, a.logger),
				state.NewStore(a.settings.StateDir, a.logger),
			)
			res, err := svc.List(cmd.Context())
			if err != nil {
				return err
			}

			p := newPrinter(cmd.OutOrStdout())
			if len(res.Packages) == 0 {
				p.line("No packages installed.")
				return nil
			}

			width := 0
			for _, pkg := range res.Packages {
				width = max(width, len(pkg.Name))
			}
			for _, pkg := range res.Packages {
				note := ""
				if pkg.Orphan {
					note = "  " + p.warn.Render("(orphan - no package file)")
				}
				p.line("%-*s  %s%s", width, pkg.Name, pkg.Version, note)
			}
			return nil
		},
	}
}
