package main

import (
	"context"
	"io"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/samuelstevens/ghrel/internal/config"
	"github.com/samuelstevens/ghrel/internal/github"
	"github.com/samuelstevens/ghrel/internal/hooks"
	"github.com/samuelstevens/ghrel/internal/installer"
	"github.com/samuelstevens/ghrel/internal/plan"
	"github.com/samuelstevens/ghrel/internal/platform"
	"github.com/samuelstevens/ghrel/internal/service"
	"github.com/samuelstevens/ghrel/internal/state"
)

func newSyncCmd(a *app) *cobra.Command {
	var (
		dryRun      bool
		packagesDir string
	)
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Install or update every declared package",
		Long: `Sync resolves each package's release, installs what is missing or
outdated, repairs binaries that were deleted or modified, and records the
result in the state file. Packages in the state file without a descriptor
are reported as orphans.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runSync(cmd.Context(), cmd.OutOrStdout(), cmd.ErrOrStderr(), dryRun, packagesDir)
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Show what would change without installing")
	cmd.Flags().StringVar(&packagesDir, "path", "", "Read package descriptors from this directory")
	return cmd
}

func (a *app) runSync(ctx context.Context, stdout, stderr io.Writer, dryRun bool, packagesDir string) error {
	s := a.settings
	if packagesDir == "" {
		packagesDir = s.PackagesDir
	} else if abs, err := filepath.Abs(packagesDir); err == nil {
		packagesDir = abs
	}

	info, err := platform.NewDetector().Detect(ctx)
	if err != nil {
		return err
	}
	a.logger.Debug("platform detected", "platform", info.Key(), "distro", info.Platform)

	opts := []github.Option{
		github.WithBaseURL(s.APIURL),
		github.WithToken(s.Token),
		github.WithVersion(Version),
		github.WithLogger(a.logger),
	}
	if isTerminal(stderr) {
		opts = append(opts, github.WithProgress(stderr))
	}
	client := github.NewClient(opts...)

	clock := service.RealClock{}
	svc := service.NewSyncService(
		config.NewLoader(packagesDir, a.logger),
		state.NewStore(s.StateDir, a.logger),
		&plan.Resolver{
			Releases: client,
			Platform: info,
			BinDir:   s.BinDir,
			Policy:   plan.Policy{VerifyChecksums: !s.SkipChecksumDrift},
		},
		installer.New(client, installer.WithLogger(a.logger), installer.WithClock(clock.Now)),
		hooks.NewRunner(hooks.NewBuiltinRegistry(), info, a.logger),
		info,
		clock,
		a.logger,
	)

	p := newPrinter(stdout)
	res, err := svc.Sync(ctx, service.SyncRequest{
		DryRun: dryRun,
		Reporter: &syncReporter{
			p:         p,
			dryRun:    dryRun,
			warnToken: s.Token == "" && !s.NoTokenWarning,
		},
	})
	if err != nil {
		return err
	}
	if len(res.Failures) > 0 {
		p.failures(res.Failures)
		return errPackagesFailed
	}
	return nil
}
