package selector

import (
	"archive/tar"
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/samuelstevens/ghrel/internal/config"
	"github.com/samuelstevens/ghrel/internal/errs"
	"github.com/samuelstevens/ghrel/internal/github"
	"github.com/samuelstevens/ghrel/internal/platform"
)

var linuxAMD64 = &platform.Info{OS: platform.Linux, Arch: platform.X86_64}

func release(names ...string) *github.Release {
	r := &github.Release{Tag: "v1"}
	for _, n := range names {
		r.Assets = append(r.Assets, github.ReleaseAsset{Name: n, DownloadURL: "https://example.com/" + n})
	}
	return r
}

func TestSelectAsset(t *testing.T) {
	tests := []struct {
		name     string
		asset    config.PatternSpec
		assets   []string
		info     *platform.Info
		want     string
		wantKind errs.Kind
		wantMsg  []string
	}{
		{
			name:   "inference picks amd64",
			assets: []string{"t-linux-amd64.tgz", "t-linux-arm64.tgz"},
			info:   linuxAMD64,
			want:   "t-linux-amd64.tgz",
		},
		{
			name:   "inference is case insensitive",
			assets: []string{"Tool_Darwin_ARM64.zip", "Tool_Linux_x86_64.tar.gz"},
			info:   &platform.Info{OS: platform.Darwin, Arch: platform.ARM64},
			want:   "Tool_Darwin_ARM64.zip",
		},
		{
			name:   "inference accepts macos alias",
			assets: []string{"tool-macos-aarch64.tar.gz", "tool-linux-aarch64.tar.gz"},
			info:   &platform.Info{OS: platform.Darwin, Arch: platform.ARM64},
			want:   "tool-macos-aarch64.tar.gz",
		},
		{
			name:     "inference no match",
			assets:   []string{"tool-windows-amd64.zip"},
			info:     linuxAMD64,
			wantKind: errs.NoMatch,
			wantMsg:  []string{"No assets match platform for owner/repo v1", "Set an explicit asset pattern"},
		},
		{
			name:     "inference ambiguous",
			assets:   []string{"tool-linux-amd64.tar.gz", "tool-linux-amd64.tar.gz.sha256"},
			info:     linuxAMD64,
			wantKind: errs.AmbiguousSelection,
			wantMsg:  []string{"  - tool-linux-amd64.tar.gz\n", "  - tool-linux-amd64.tar.gz.sha256"},
		},
		{
			name:     "explicit pattern ambiguous",
			asset:    config.PatternSpec{Literal: "*linux*"},
			assets:   []string{"t-linux-amd64.tgz", "t-linux-arm64.tgz"},
			info:     linuxAMD64,
			wantKind: errs.AmbiguousSelection,
			wantMsg:  []string{"Multiple assets match '*linux*' for owner/repo v1:", "  - t-linux-amd64.tgz", "  - t-linux-arm64.tgz"},
		},
		{
			name:   "explicit literal",
			asset:  config.PatternSpec{Literal: "tool-any.tar.gz"},
			assets: []string{"tool-any.tar.gz", "other.tar.gz"},
			info:   linuxAMD64,
			want:   "tool-any.tar.gz",
		},
		{
			name:     "explicit no match",
			asset:    config.PatternSpec{Literal: "*.deb"},
			assets:   []string{"tool.tar.gz"},
			info:     linuxAMD64,
			wantKind: errs.NoMatch,
			wantMsg:  []string{"No assets match pattern '*.deb' for owner/repo v1", "less specific"},
		},
		{
			name: "mapping uses platform key",
			asset: config.PatternSpec{ByPlatform: map[string]string{
				"linux-x86_64": "*linux-amd64.tar.gz",
				"linux-arm64":  "*linux-arm64.tar.gz",
			}},
			assets: []string{"tool-linux-amd64.tar.gz", "tool-linux-arm64.tar.gz"},
			info:   linuxAMD64,
			want:   "tool-linux-amd64.tar.gz",
		},
		{
			name: "mapping missing key",
			asset: config.PatternSpec{ByPlatform: map[string]string{
				"darwin-arm64":  "*darwin-arm64.tar.gz",
				"darwin-x86_64": "*darwin-x86_64.tar.gz",
			}},
			assets:   []string{"tool-linux-amd64.tar.gz"},
			info:     linuxAMD64,
			wantKind: errs.NoMatch,
			wantMsg: []string{
				"Platform 'linux-x86_64' not found in asset dict",
				"Closest matches: 'darwin-x86_64', 'darwin-arm64'",
				"Available keys: 'darwin-arm64', 'darwin-x86_64'",
				"Add a 'linux-x86_64' key",
			},
		},
		{
			name:     "mapping empty",
			asset:    config.PatternSpec{ByPlatform: map[string]string{}},
			assets:   []string{"tool-linux-amd64.tar.gz"},
			info:     linuxAMD64,
			wantKind: errs.NoMatch,
			wantMsg:  []string{"Platform 'linux-x86_64' not found in empty asset dict"},
		},
		{
			name:     "bad glob",
			asset:    config.PatternSpec{Literal: "tool-[.tar.gz"},
			assets:   []string{"tool.tar.gz"},
			info:     linuxAMD64,
			wantKind: errs.ConfigInvalid,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pkg := &config.PackageConfig{Name: "tool", Repo: "owner/repo", Archive: true, Asset: tt.asset}
			got, err := SelectAsset(pkg, release(tt.assets...), tt.info)

			if tt.wantKind != "" {
				if !errs.Is(err, tt.wantKind) {
					t.Fatalf("SelectAsset() error = %v, want kind %v", err, tt.wantKind)
				}
				for _, s := range tt.wantMsg {
					if !strings.Contains(err.Error(), s) {
						t.Errorf("error %q missing %q", err.Error(), s)
					}
				}
				return
			}
			if err != nil {
				t.Fatalf("SelectAsset() error = %v", err)
			}
			if got.Name != tt.want {
				t.Errorf("SelectAsset() = %q, want %q", got.Name, tt.want)
			}
		})
	}
}

func TestBinaryPattern(t *testing.T) {
	tests := []struct {
		name      string
		pkg       config.PackageConfig
		want      string
		wantOK    bool
		wantError string
	}{
		{
			name:   "raw binary has no pattern",
			pkg:    config.PackageConfig{Archive: false},
			wantOK: false,
		},
		{
			name:   "literal",
			pkg:    config.PackageConfig{Archive: true, Binary: config.PatternSpec{Literal: "bin/tool"}},
			want:   "bin/tool",
			wantOK: true,
		},
		{
			name: "mapping",
			pkg: config.PackageConfig{Archive: true, Binary: config.PatternSpec{ByPlatform: map[string]string{
				"linux-x86_64": "bin/tool",
				"linux-arm64":  "bin/tool-arm",
			}}},
			want:   "bin/tool",
			wantOK: true,
		},
		{
			name: "mapping missing key",
			pkg: config.PackageConfig{Archive: true, Binary: config.PatternSpec{ByPlatform: map[string]string{
				"darwin-x86_64": "bin/tool",
			}}},
			wantError: "Platform 'linux-x86_64' not found in binary dict",
		},
		{
			name:      "archive without binary",
			pkg:       config.PackageConfig{Name: "tool", Archive: true},
			wantError: "Missing binary",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok, err := BinaryPattern(&tt.pkg, linuxAMD64)
			if tt.wantError != "" {
				if err == nil || !strings.Contains(err.Error(), tt.wantError) {
					t.Fatalf("BinaryPattern() error = %v, want %q", err, tt.wantError)
				}
				return
			}
			if err != nil {
				t.Fatalf("BinaryPattern() error = %v", err)
			}
			if got != tt.want || ok != tt.wantOK {
				t.Errorf("BinaryPattern() = %q, %v; want %q, %v", got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestInstallName(t *testing.T) {
	asset := github.ReleaseAsset{Name: "tool-linux-amd64"}
	tests := []struct {
		name    string
		pkg     config.PackageConfig
		pattern string
		want    string
		wantErr bool
	}{
		{"install_as wins", config.PackageConfig{InstallAs: "t"}, "bin/tool", "t", false},
		{"archive binary basename", config.PackageConfig{}, "dist/bin/tool", "tool", false},
		{"raw asset name", config.PackageConfig{}, "", "tool-linux-amd64", false},
		{"wildcard dir", config.PackageConfig{}, "tool-*/tool", "tool", false},
		{"wildcard basename", config.PackageConfig{}, "tool-*", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := InstallName(&tt.pkg, asset, tt.pattern)
			if (err != nil) != tt.wantErr {
				t.Fatalf("InstallName() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("InstallName() = %q, want %q", got, tt.want)
			}
		})
	}
}

// layout creates files under a fresh extraction dir and a matching tar
// so error hints can list the archive contents.
func layout(t *testing.T, files ...string) (dir, archivePath string) {
	t.Helper()
	base := t.TempDir()
	dir = filepath.Join(base, "extract")

	var buf bytes.Buffer
	tw := tar.NewWriter(&buf)
	for _, f := range files {
		p := filepath.Join(dir, filepath.FromSlash(f))
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(p, []byte(f), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := tw.WriteHeader(&tar.Header{Name: f, Mode: 0o755, Size: int64(len(f))}); err != nil {
			t.Fatal(err)
		}
		tw.Write([]byte(f))
	}
	tw.Close()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}

	archivePath = filepath.Join(base, "tool.tar")
	if err := os.WriteFile(archivePath, buf.Bytes(), 0o644); err != nil {
		t.Fatal(err)
	}
	return dir, archivePath
}

func TestFindBinary(t *testing.T) {
	tests := []struct {
		name     string
		files    []string
		pattern  string
		want     string
		wantKind errs.Kind
		wantMsg  []string
	}{
		{
			name:    "root bare name",
			files:   []string{"tool", "sub/tool"},
			pattern: "tool",
			want:    "tool",
		},
		{
			name:    "recursive bare name",
			files:   []string{"tool-1.0/bin/tool", "README"},
			pattern: "tool",
			want:    "tool-1.0/bin/tool",
		},
		{
			name:    "literal path",
			files:   []string{"dist/tool", "other/tool"},
			pattern: "dist/tool",
			want:    "dist/tool",
		},
		{
			name:    "wildcard path",
			files:   []string{"fd-v1.0.0-x86_64-unknown-linux-musl/fd", "fd-v1.0.0-x86_64-unknown-linux-musl/fd.1"},
			pattern: "fd-*-x86_64-unknown-linux-musl/fd",
			want:    "fd-v1.0.0-x86_64-unknown-linux-musl/fd",
		},
		{
			name:    "wildcard basename",
			files:   []string{"pkg/tool-linux", "pkg/README"},
			pattern: "tool-*",
			want:    "pkg/tool-linux",
		},
		{
			name:     "not found lists contents",
			files:    []string{"alpha", "beta"},
			pattern:  "tool",
			wantKind: errs.NoMatch,
			wantMsg: []string{
				"Archive contents:", "  - alpha", "  - beta",
				"binary = {'linux-x86_64': '<dir>/tool'}", "wildcard", "*",
			},
		},
		{
			name:     "literal path missing",
			files:    []string{"bin/other"},
			pattern:  "bin/tool",
			wantKind: errs.NoMatch,
			wantMsg:  []string{"Binary 'bin/tool' not found", "  - bin/other"},
		},
		{
			name:     "ambiguous bare name",
			files:    []string{"bin/tool", "alt/tool"},
			pattern:  "tool",
			wantKind: errs.AmbiguousSelection,
			wantMsg:  []string{"Binary 'tool' matched multiple files:", "\n  - ", "bin/tool", "alt/tool"},
		},
		{
			name:     "ambiguous wildcard",
			files:    []string{"a/tool", "b/tool"},
			pattern:  "*/tool",
			wantKind: errs.AmbiguousSelection,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir, archivePath := layout(t, tt.files...)
			got, err := FindBinary(dir, tt.pattern, archivePath, linuxAMD64)

			if tt.wantKind != "" {
				if !errs.Is(err, tt.wantKind) {
					t.Fatalf("FindBinary() error = %v, want kind %v", err, tt.wantKind)
				}
				for _, s := range tt.wantMsg {
					if !strings.Contains(err.Error(), s) {
						t.Errorf("error %q missing %q", err.Error(), s)
					}
				}
				return
			}
			if err != nil {
				t.Fatalf("FindBinary() error = %v", err)
			}
			want := filepath.Join(dir, filepath.FromSlash(tt.want))
			if got != want {
				t.Errorf("FindBinary() = %q, want %q", got, want)
			}
		})
	}
}
