package main

import (
	"errors"
	"io"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/samuelstevens/ghrel/internal/config"
	"github.com/samuelstevens/ghrel/internal/logging"
)

// errPackagesFailed signals that sync finished with per-package failures.
var errPackagesFailed = errors.New("one or more packages failed")

// app carries what every subcommand needs once flags are parsed.
type app struct {
	verbose  bool
	settings *config.Settings
	logger   logging.Logger
	flush    func()
}

func newRootCmd() *cobra.Command {
	a := &app{logger: logging.Nop(), flush: func() {}}

	root := &cobra.Command{
		Use:   "ghrel",
		Short: "Install and update binaries from GitHub releases",
		Long: `ghrel installs prebuilt binaries published as GitHub releases.

Each package is described by one file in the packages directory
(~/.config/ghrel/packages by default). 'ghrel sync' fetches, verifies and
installs whatever is missing or out of date and records the result in a
state file, so repeated runs only touch what changed.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd.ErrOrStderr())
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			a.flush()
		},
	}
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "Show debug logging on stderr")

	root.AddCommand(newSyncCmd(a), newListCmd(a), newPruneCmd(a))
	return root
}

func (a *app) setup(stderr io.Writer) error {
	a.logger, a.flush = logging.NewZap(stderr, a.verbose)

	settings, err := config.LoadSettings()
	if err != nil {
		return err
	}
	a.settings = settings
	a.logger.Debug("settings loaded",
		"config", settings.ConfigFile,
		"bin_dir", settings.BinDir,
		"packages_dir", settings.PackagesDir,
		"state_dir", settings.StateDir,
	)
	return nil
}

// isTerminal reports whether w is an interactive terminal.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
