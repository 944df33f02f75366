package installer

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/samuelstevens/ghrel/internal/archive"
	"github.com/samuelstevens/ghrel/internal/config"
	"github.com/samuelstevens/ghrel/internal/errs"
	"github.com/samuelstevens/ghrel/internal/github"
	"github.com/samuelstevens/ghrel/internal/logging"
	"github.com/samuelstevens/ghrel/internal/platform"
	"github.com/samuelstevens/ghrel/internal/selector"
	"github.com/samuelstevens/ghrel/internal/state"
)

// TimeFormat renders install timestamps: UTC, second precision, Z suffix.
const TimeFormat = "2006-01-02T15:04:05Z"

// Downloader fetches a release asset to a local path.
type Downloader interface {
	DownloadAsset(ctx context.Context, url, dest string) error
}

// Request describes one install.
type Request struct {
	Package *config.PackageConfig
	Release *github.Release
	Asset   github.ReleaseAsset
	// BinaryPattern is the resolved binary pattern for archive packages.
	BinaryPattern string
	TargetDir     string
	// TempDir is a caller-owned scratch directory. When empty the
	// installer creates and removes its own.
	TempDir  string
	Platform *platform.Info
}

// Result is the outcome of a successful install.
type Result struct {
	PackageState state.PackageState
	// ExtractedDir is the archive's extraction root. It is only set when
	// the caller supplied TempDir, since an owned scratch directory is gone
	// by the time Install returns.
	ExtractedDir string
}

// Installer installs release assets.
type Installer struct {
	downloader Downloader
	logger     logging.Logger
	now        func() time.Time
	copyFile   func(src, dst string) error
}

// Option configures an Installer.
type Option func(*Installer)

// WithLogger sets the logger.
func WithLogger(l logging.Logger) Option {
	return func(i *Installer) { i.logger = logging.OrNop(l) }
}

// WithClock sets the time source used for install timestamps.
func WithClock(now func() time.Time) Option {
	return func(i *Installer) { i.now = now }
}

// New creates an installer that downloads through d.
func New(d Downloader, opts ...Option) *Installer {
	i := &Installer{
		downloader: d,
		logger:     logging.Nop(),
		now:        time.Now,
		copyFile:   copyFile,
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// Install runs the full download, verify, extract and atomic install
// sequence for req.
func (i *Installer) Install(ctx context.Context, req Request) (*Result, error) {
	if req.Package == nil || req.Release == nil {
		return nil, fmt.Errorf("install request requires a package and a release")
	}

	targetDir, err := filepath.Abs(req.TargetDir)
	if err != nil {
		return nil, fmt.Errorf("resolve target directory: %w", err)
	}
	if err := os.MkdirAll(targetDir, 0o755); err != nil {
		return nil, fmt.Errorf("create target directory: %w", err)
	}

	tempDir := req.TempDir
	owned := tempDir == ""
	if owned {
		tempDir, err = os.MkdirTemp("", "ghrel-")
		if err != nil {
			return nil, fmt.Errorf("create temp directory: %w", err)
		}
		defer os.RemoveAll(tempDir)
	} else if err := os.MkdirAll(tempDir, 0o755); err != nil {
		return nil, fmt.Errorf("create temp directory: %w", err)
	}

	assetPath := filepath.Join(tempDir, filepath.Base(req.Asset.Name))
	i.logger.Debug("downloading asset", "package", req.Package.Name, "asset", req.Asset.Name)
	if err := i.downloader.DownloadAsset(ctx, req.Asset.DownloadURL, assetPath); err != nil {
		return nil, err
	}

	if err := i.verifyRelease(ctx, req, assetPath, tempDir); err != nil {
		return nil, err
	}

	source := assetPath
	var extracted string
	if req.Package.Archive {
		root, files, err := archive.Extract(assetPath, filepath.Join(tempDir, "extract"))
		if err != nil {
			return nil, err
		}
		i.logger.Debug("extracted archive", "package", req.Package.Name, "files", len(files))
		source, err = selector.FindBinary(root, req.BinaryPattern, assetPath, req.Platform)
		if err != nil {
			return nil, err
		}
		extracted = root
	}

	name, err := selector.InstallName(req.Package, req.Asset, req.BinaryPattern)
	if err != nil {
		return nil, err
	}
	target := filepath.Join(targetDir, name)

	checksum, err := i.installFile(source, target)
	if err != nil {
		return nil, err
	}

	res := &Result{
		PackageState: state.PackageState{
			Version:     req.Release.Tag,
			Checksum:    checksum,
			InstalledAt: i.now().UTC().Format(TimeFormat),
			BinaryPath:  target,
		},
	}
	if !owned {
		res.ExtractedDir = extracted
	}
	i.logger.Info("installed binary", "package", req.Package.Name, "version", req.Release.Tag, "path", target)
	return res, nil
}

// installFile copies src to dst through dst+".tmp", requiring the copy's
// checksum to equal the source's before the rename. The returned checksum
// is the source's.
func (i *Installer) installFile(src, dst string) (string, error) {
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return "", fmt.Errorf("create target directory: %w", err)
	}
	tmp := dst + ".tmp"

	if err := i.copyFile(src, tmp); err != nil {
		os.Remove(tmp)
		return "", fmt.Errorf("copy %s to %s: %w", src, tmp, err)
	}

	want, err := Checksum(src)
	if err != nil {
		os.Remove(tmp)
		return "", err
	}
	got, err := Checksum(tmp)
	if err != nil {
		os.Remove(tmp)
		return "", err
	}
	if got != want {
		os.Remove(tmp)
		return "", errs.New(errs.ChecksumMismatch, "Checksum mismatch copying %s to %s", src, dst).
			WithPath(dst).
			WithHint("Expected %s, got %s. Check free disk space and retry.", want, got)
	}

	if err := os.Chmod(tmp, 0o755); err != nil {
		os.Remove(tmp)
		return "", fmt.Errorf("chmod %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, dst); err != nil {
		os.Remove(tmp)
		return "", fmt.Errorf("rename %s to %s: %w", tmp, dst, err)
	}
	return want, nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	if err := out.Sync(); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
