// Package service drives ghrel's reconciliation runs: sync, list and prune.
//
// Services take their collaborators through small interfaces and return
// structured results; rendering is left to the CLI.
package service

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/samuelstevens/ghrel/internal/config"
	"github.com/samuelstevens/ghrel/internal/errs"
	"github.com/samuelstevens/ghrel/internal/hooks"
	"github.com/samuelstevens/ghrel/internal/installer"
	"github.com/samuelstevens/ghrel/internal/logging"
	"github.com/samuelstevens/ghrel/internal/plan"
	"github.com/samuelstevens/ghrel/internal/platform"
	"github.com/samuelstevens/ghrel/internal/state"
)

// PackageLoader provides the declared packages.
type PackageLoader interface {
	CheckDir() error
	Load() (map[string]*config.PackageConfig, error)
	Names() (map[string]bool, error)
}

// Planner resolves one package into a plan.
type Planner interface {
	Resolve(ctx context.Context, pkg *config.PackageConfig, current *state.PackageState) (*plan.Plan, error)
}

// Installer performs one install.
type Installer interface {
	Install(ctx context.Context, req installer.Request) (*installer.Result, error)
}

// HookRunner runs package hooks.
type HookRunner interface {
	PostInstall(ctx context.Context, spec *hooks.Spec, args hooks.PostInstallArgs) error
	Verify(ctx context.Context, spec *hooks.Spec, args hooks.VerifyArgs) error
}

// SyncService reconciles the declared packages with the state file.
type SyncService struct {
	loader    PackageLoader
	store     *state.Store
	planner   Planner
	installer Installer
	hooks     HookRunner
	clock     Clock
	logger    logging.Logger
	platform  *platform.Info
}

// NewSyncService creates a sync service with dependency injection.
func NewSyncService(
	loader PackageLoader,
	store *state.Store,
	planner Planner,
	inst Installer,
	runner HookRunner,
	info *platform.Info,
	clock Clock,
	logger logging.Logger,
) *SyncService {
	if clock == nil {
		clock = RealClock{}
	}
	return &SyncService{
		loader:    loader,
		store:     store,
		planner:   planner,
		installer: inst,
		hooks:     runner,
		platform:  info,
		clock:     clock,
		logger:    logging.OrNop(logger),
	}
}

// Reporter receives a run's progress as it happens.
type Reporter interface {
	// Started is called once the descriptors are loaded, before the lock
	// is taken.
	Started(packages int)
	// Outcome is called for each orphan and package as soon as it is known.
	Outcome(o Outcome)
}

// SyncRequest contains the parameters for a sync run.
type SyncRequest struct {
	DryRun   bool
	Reporter Reporter
}

// Outcome is the per-package (or per-orphan) result of a run.
type Outcome struct {
	Name string
	// Orphan marks a state entry with no descriptor.
	Orphan bool
	// Plan is nil when planning failed.
	Plan *plan.Plan
	// Installed is set once the binary is in place and the state written.
	Installed bool
	// NoVerify is set for installs of packages without a verify hook.
	NoVerify bool
	Err      error
}

// Failure is one package that could not be synced.
type Failure struct {
	Name string
	Err  error
}

// SyncResult contains the results of a sync run.
type SyncResult struct {
	RunID      string
	DryRun     bool
	NoPackages bool
	Outcomes   []Outcome
	Failures   []Failure
	StartedAt  time.Time
	Duration   time.Duration
}

// Orphans returns the names reported as orphans.
func (r *SyncResult) Orphans() []string {
	var names []string
	for _, o := range r.Outcomes {
		if o.Orphan {
			names = append(names, o.Name)
		}
	}
	return names
}

// Sync runs one reconciliation. Per-package failures are collected in the
// result; configuration, lock, state and authentication errors abort the
// run and are returned.
func (s *SyncService) Sync(ctx context.Context, req SyncRequest) (*SyncResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	result := &SyncResult{
		RunID:     uuid.NewString(),
		DryRun:    req.DryRun,
		StartedAt: s.clock.Now(),
	}
	logger := logging.With(s.logger, "run_id", result.RunID)
	emit := func(o Outcome) {
		result.Outcomes = append(result.Outcomes, o)
		if o.Err != nil {
			result.Failures = append(result.Failures, Failure{Name: o.Name, Err: o.Err})
		}
		if req.Reporter != nil {
			req.Reporter.Outcome(o)
		}
	}
	defer func() {
		result.Duration = since(s.clock, result.StartedAt)
		logger.Debug("sync finished", "duration", result.Duration, "failures", len(result.Failures))
	}()

	packages, err := s.loader.Load()
	if err != nil {
		return nil, err
	}
	logger.Debug("sync started", "packages", len(packages), "dry_run", req.DryRun)
	if req.Reporter != nil {
		req.Reporter.Started(len(packages))
	}

	lock, err := s.store.Lock()
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := lock.Release(); err != nil {
			logger.Warn("release state lock", "error", err)
		}
	}()

	st, err := s.store.Read()
	if err != nil {
		return nil, err
	}

	if len(packages) == 0 {
		result.NoPackages = true
	}
	for _, name := range st.Names() {
		if _, ok := packages[name]; !ok {
			emit(Outcome{Name: name, Orphan: true})
		}
	}

	names := make([]string, 0, len(packages))
	for name := range packages {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		o, err := s.syncOne(ctx, st, packages[name], req.DryRun, logging.With(logger, "package", name))
		if err != nil {
			return result, err
		}
		emit(o)
	}
	return result, nil
}

// syncOne plans and, if needed, installs one package. It returns an error
// only when the whole run must stop.
func (s *SyncService) syncOne(ctx context.Context, st *state.State, pkg *config.PackageConfig, dryRun bool, logger logging.Logger) (Outcome, error) {
	o := Outcome{Name: pkg.Name}

	p, err := s.planner.Resolve(ctx, pkg, st.Get(pkg.Name))
	if err != nil {
		if errs.Is(err, errs.AuthFailure) {
			return o, err
		}
		o.Err = errs.Unexpected(err)
		return o, nil
	}
	o.Plan = p
	logger.Debug("planned", "action", p.Action.String(), "current", p.CurrentVersion, "desired", p.DesiredVersion)

	if dryRun || !p.Action.NeedsInstall() {
		return o, nil
	}

	tempDir, err := os.MkdirTemp("", "ghrel-")
	if err != nil {
		o.Err = errs.Unexpected(fmt.Errorf("create temp directory: %w", err))
		return o, nil
	}
	defer os.RemoveAll(tempDir)

	res, err := s.installer.Install(ctx, installer.Request{
		Package:       pkg,
		Release:       p.Release,
		Asset:         p.Asset,
		BinaryPattern: p.BinaryPattern,
		TargetDir:     filepath.Dir(p.TargetPath),
		TempDir:       tempDir,
		Platform:      s.platform,
	})
	if err != nil {
		if errs.Is(err, errs.AuthFailure) {
			return o, err
		}
		o.Err = errs.Unexpected(err)
		return o, nil
	}

	ps := res.PackageState
	binaryName := filepath.Base(ps.BinaryPath)
	if pkg.PostInstall != nil {
		err := s.hooks.PostInstall(ctx, pkg.PostInstall, hooks.PostInstallArgs{
			Version:      ps.Version,
			BinaryName:   binaryName,
			BinaryPath:   ps.BinaryPath,
			Checksum:     ps.Checksum,
			Repo:         pkg.Repo,
			BinDir:       filepath.Dir(ps.BinaryPath),
			ExtractedDir: res.ExtractedDir,
		})
		if err != nil {
			o.Err = err
			return o, nil
		}
	}

	if pkg.Verify == nil {
		o.NoVerify = true
	} else {
		err := s.hooks.Verify(ctx, pkg.Verify, hooks.VerifyArgs{
			Version:    ps.Version,
			BinaryName: binaryName,
			BinaryPath: ps.BinaryPath,
			Checksum:   ps.Checksum,
			Repo:       pkg.Repo,
		})
		if err != nil {
			o.Err = err
			return o, nil
		}
	}

	st.Set(pkg.Name, ps)
	if err := s.store.Write(st); err != nil {
		return o, err
	}
	o.Installed = true
	logger.Info("installed", "version", ps.Version, "path", ps.BinaryPath)
	return o, nil
}
