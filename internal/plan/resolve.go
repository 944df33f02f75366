package plan

import (
	"context"
	"path/filepath"

	"github.com/samuelstevens/ghrel/internal/config"
	"github.com/samuelstevens/ghrel/internal/github"
	"github.com/samuelstevens/ghrel/internal/platform"
	"github.com/samuelstevens/ghrel/internal/selector"
	"github.com/samuelstevens/ghrel/internal/state"
)

// ReleaseSource looks up releases.
type ReleaseSource interface {
	GetLatestRelease(ctx context.Context, repo string) (*github.Release, error)
	GetReleaseByTag(ctx context.Context, repo, tag string) (*github.Release, error)
}

// Plan is the resolved decision for one package.
type Plan struct {
	PackageName    string
	Package        *config.PackageConfig
	Current        *state.PackageState
	CurrentVersion string
	DesiredVersion string
	Release        *github.Release
	Asset          github.ReleaseAsset
	BinaryPattern  string
	TargetPath     string
	Action         Action
}

// Resolver builds plans.
type Resolver struct {
	Releases ReleaseSource
	Platform *platform.Info
	BinDir   string
	Probe    Probe
	Policy   Policy
}

// Resolve fetches the pinned or latest release, selects the asset,
// computes the install path and decides the action.
func (r *Resolver) Resolve(ctx context.Context, pkg *config.PackageConfig, current *state.PackageState) (*Plan, error) {
	var (
		release *github.Release
		err     error
	)
	if pkg.Version != "" {
		release, err = r.Releases.GetReleaseByTag(ctx, pkg.Repo, pkg.Version)
	} else {
		release, err = r.Releases.GetLatestRelease(ctx, pkg.Repo)
	}
	if err != nil {
		return nil, err
	}

	asset, err := selector.SelectAsset(pkg, release, r.Platform)
	if err != nil {
		return nil, err
	}
	pattern, _, err := selector.BinaryPattern(pkg, r.Platform)
	if err != nil {
		return nil, err
	}
	name, err := selector.InstallName(pkg, asset, pattern)
	if err != nil {
		return nil, err
	}

	binDir, err := filepath.Abs(r.BinDir)
	if err != nil {
		return nil, err
	}
	target := filepath.Join(binDir, name)

	probe := r.Probe
	if probe == nil {
		probe = FileProbe{}
	}
	action, err := Decide(current, release.Tag, target, probe, r.Policy)
	if err != nil {
		return nil, err
	}

	p := &Plan{
		PackageName:    pkg.Name,
		Package:        pkg,
		Current:        current,
		DesiredVersion: release.Tag,
		Release:        release,
		Asset:          asset,
		BinaryPattern:  pattern,
		TargetPath:     target,
		Action:         action,
	}
	if current != nil {
		p.CurrentVersion = current.Version
	}
	return p, nil
}
