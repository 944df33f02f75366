package main

import (
	"github.com/spf13/cobra"

	"github.com/samuelstevens/ghrel/internal/config"
	"github.com/samuelstevens/ghrel/internal/service"
	"github.com/samuelstevens/ghrel/internal/state"
)

func newPruneCmd(a *app) *cobra.Command {
	var dryRun bool
	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Remove installed packages that no longer have a descriptor",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc := service.NewPruneService(
				config.NewLoader(a.settings.PackagesDir, a.logger),
				state.NewStore(a.settings.StateDir, a.logger),
				a.logger,
			)
			res, err := svc.Prune(cmd.Context(), service.PruneRequest{DryRun: dryRun})
			if err != nil {
				return err
			}

			p := newPrinter(cmd.OutOrStdout())
			if len(res.Pruned) == 0 {
				p.line("No orphaned packages.")
				return nil
			}
			for _, pr := range res.Pruned {
				switch {
				case res.DryRun:
					p.line("Would remove: %s (%s) - %s", pr.Name, pr.Version, pr.Path)
				case pr.Missing:
					p.line("Removed: %s (%s) - binary already missing", pr.Name, pr.Version)
				default:
					p.line("Removed: %s (%s) - %s", pr.Name, pr.Version, pr.Path)
				}
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Show what would be removed")
	return cmd
}
