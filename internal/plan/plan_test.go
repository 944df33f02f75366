package plan

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/samuelstevens/ghrel/internal/config"
	"github.com/samuelstevens/ghrel/internal/errs"
	"github.com/samuelstevens/ghrel/internal/github"
	"github.com/samuelstevens/ghrel/internal/installer"
	"github.com/samuelstevens/ghrel/internal/platform"
	"github.com/samuelstevens/ghrel/internal/state"
)

type fakeProbe struct {
	exists    bool
	checksum  string
	err       error
	checksums int
}

func (p *fakeProbe) Exists(string) bool { return p.exists }

func (p *fakeProbe) Checksum(string) (string, error) {
	p.checksums++
	return p.checksum, p.err
}

func TestDecide(t *testing.T) {
	const target = "/home/u/.local/bin/rg"
	current := &state.PackageState{
		Version:    "14.1.0",
		Checksum:   "sha256:aaa",
		BinaryPath: target,
	}

	tests := []struct {
		name    string
		current *state.PackageState
		desired string
		target  string
		probe   *fakeProbe
		policy  Policy
		want    Action
	}{
		{
			name:    "no state installs",
			current: nil,
			desired: "14.1.0",
			target:  target,
			probe:   &fakeProbe{},
			policy:  DefaultPolicy(),
			want:    Action{Kind: Install},
		},
		{
			name:    "path change wins over equal version",
			current: current,
			desired: "14.1.0",
			target:  "/opt/bin/rg",
			probe:   &fakeProbe{exists: true, checksum: "sha256:aaa"},
			policy:  DefaultPolicy(),
			want:    Action{Kind: Reinstall, Reason: BinaryPathChanged},
		},
		{
			name:    "path change wins over version change",
			current: current,
			desired: "15.0.0",
			target:  "/opt/bin/rg",
			probe:   &fakeProbe{exists: true, checksum: "sha256:aaa"},
			policy:  DefaultPolicy(),
			want:    Action{Kind: Reinstall, Reason: BinaryPathChanged},
		},
		{
			name:    "unclean path compares equal",
			current: current,
			desired: "14.1.0",
			target:  "/home/u/.local/bin/../bin/rg",
			probe:   &fakeProbe{exists: true, checksum: "sha256:aaa"},
			policy:  DefaultPolicy(),
			want:    Action{Kind: UpToDate},
		},
		{
			name:    "version change updates",
			current: current,
			desired: "15.0.0",
			target:  target,
			probe:   &fakeProbe{exists: false},
			policy:  DefaultPolicy(),
			want:    Action{Kind: Update},
		},
		{
			name:    "missing binary reinstalls",
			current: current,
			desired: "14.1.0",
			target:  target,
			probe:   &fakeProbe{exists: false},
			policy:  DefaultPolicy(),
			want:    Action{Kind: Reinstall, Reason: BinaryMissing},
		},
		{
			name:    "checksum drift reinstalls",
			current: current,
			desired: "14.1.0",
			target:  target,
			probe:   &fakeProbe{exists: true, checksum: "sha256:bbb"},
			policy:  DefaultPolicy(),
			want:    Action{Kind: Reinstall, Reason: ChecksumMismatch},
		},
		{
			name:    "checksum drift ignored when disabled",
			current: current,
			desired: "14.1.0",
			target:  target,
			probe:   &fakeProbe{exists: true, checksum: "sha256:bbb"},
			policy:  Policy{VerifyChecksums: false},
			want:    Action{Kind: UpToDate},
		},
		{
			name:    "up to date",
			current: current,
			desired: "14.1.0",
			target:  target,
			probe:   &fakeProbe{exists: true, checksum: "sha256:aaa"},
			policy:  DefaultPolicy(),
			want:    Action{Kind: UpToDate},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Decide(tt.current, tt.desired, tt.target, tt.probe, tt.policy)
			if err != nil {
				t.Fatalf("Decide() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("Decide() = %v, want %v", got, tt.want)
			}
			if !tt.policy.VerifyChecksums && tt.probe.checksums != 0 {
				t.Errorf("checksum computed %d times with checks disabled", tt.probe.checksums)
			}
		})
	}
}

func TestDecide_ChecksumError(t *testing.T) {
	current := &state.PackageState{Version: "v1", Checksum: "sha256:a", BinaryPath: "/bin/x"}
	probe := &fakeProbe{exists: true, err: errors.New("permission denied")}

	if _, err := Decide(current, "v1", "/bin/x", probe, DefaultPolicy()); err == nil {
		t.Fatal("Decide() error = nil, want error")
	}
}

func TestAction_String(t *testing.T) {
	if s := (Action{Kind: Update}).String(); s != "update" {
		t.Errorf("String() = %q", s)
	}
	if s := (Action{Kind: Reinstall, Reason: BinaryMissing}).String(); s != "reinstall (binary_missing)" {
		t.Errorf("String() = %q", s)
	}
}

func TestFileProbe(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tool")
	if err := os.WriteFile(path, []byte("tool"), 0o755); err != nil {
		t.Fatal(err)
	}

	p := FileProbe{}
	if !p.Exists(path) {
		t.Error("Exists(file) = false")
	}
	if p.Exists(dir) {
		t.Error("Exists(dir) = true")
	}
	if p.Exists(filepath.Join(dir, "missing")) {
		t.Error("Exists(missing) = true")
	}
	sum, err := p.Checksum(path)
	if err != nil {
		t.Fatal(err)
	}
	if sum != installer.ChecksumBytes([]byte("tool")) {
		t.Errorf("Checksum() = %s", sum)
	}
}

type fakeReleases struct {
	latest *github.Release
	byTag  map[string]*github.Release
}

func (f *fakeReleases) GetLatestRelease(ctx context.Context, repo string) (*github.Release, error) {
	return f.latest, nil
}

func (f *fakeReleases) GetReleaseByTag(ctx context.Context, repo, tag string) (*github.Release, error) {
	r, ok := f.byTag[tag]
	if !ok {
		return nil, errs.New(errs.NotFound, "Version '%s' not found for %s", tag, repo)
	}
	return r, nil
}

func TestResolver_Resolve(t *testing.T) {
	binDir := t.TempDir()
	latest := &github.Release{Tag: "v2", Assets: []github.ReleaseAsset{
		{Name: "t-linux-amd64.tgz"}, {Name: "t-linux-arm64.tgz"},
	}}
	pinned := &github.Release{Tag: "v1", Assets: []github.ReleaseAsset{
		{Name: "t-linux-amd64.tgz"},
	}}
	r := &Resolver{
		Releases: &fakeReleases{latest: latest, byTag: map[string]*github.Release{"v1": pinned}},
		Platform: &platform.Info{OS: platform.Linux, Arch: platform.X86_64},
		BinDir:   binDir,
		Probe:    &fakeProbe{exists: true, checksum: "sha256:a"},
		Policy:   DefaultPolicy(),
	}
	pkg := &config.PackageConfig{Name: "t", Repo: "o/t", Archive: true, Binary: config.PatternSpec{Literal: "t"}}

	t.Run("latest install", func(t *testing.T) {
		p, err := r.Resolve(context.Background(), pkg, nil)
		if err != nil {
			t.Fatalf("Resolve() error = %v", err)
		}
		if p.Asset.Name != "t-linux-amd64.tgz" {
			t.Errorf("Asset = %s", p.Asset.Name)
		}
		if p.Action.Kind != Install || p.DesiredVersion != "v2" || p.CurrentVersion != "" {
			t.Errorf("plan = %+v", p)
		}
		if want := filepath.Join(binDir, "t"); p.TargetPath != want {
			t.Errorf("TargetPath = %s, want %s", p.TargetPath, want)
		}
		if p.BinaryPattern != "t" {
			t.Errorf("BinaryPattern = %q", p.BinaryPattern)
		}
	})

	t.Run("pinned up to date", func(t *testing.T) {
		pinnedPkg := *pkg
		pinnedPkg.Version = "v1"
		current := &state.PackageState{Version: "v1", Checksum: "sha256:a", BinaryPath: filepath.Join(binDir, "t")}
		p, err := r.Resolve(context.Background(), &pinnedPkg, current)
		if err != nil {
			t.Fatalf("Resolve() error = %v", err)
		}
		if p.Action.Kind != UpToDate || p.CurrentVersion != "v1" {
			t.Errorf("plan = %+v", p)
		}
	})

	t.Run("pin not found", func(t *testing.T) {
		pinnedPkg := *pkg
		pinnedPkg.Version = "v9"
		_, err := r.Resolve(context.Background(), &pinnedPkg, nil)
		if !errs.Is(err, errs.NotFound) {
			t.Errorf("Resolve() error = %v, want NotFound", err)
		}
	})

	t.Run("ambiguous pattern", func(t *testing.T) {
		explicit := *pkg
		explicit.Asset = config.PatternSpec{Literal: "*linux*"}
		_, err := r.Resolve(context.Background(), &explicit, nil)
		if !errs.Is(err, errs.AmbiguousSelection) {
			t.Errorf("Resolve() error = %v, want AmbiguousSelection", err)
		}
	})
}
