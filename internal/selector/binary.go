package selector

import (
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/samuelstevens/ghrel/internal/archive"
	"github.com/samuelstevens/ghrel/internal/config"
	"github.com/samuelstevens/ghrel/internal/errs"
	"github.com/samuelstevens/ghrel/internal/github"
	"github.com/samuelstevens/ghrel/internal/platform"
)

const wildcardChars = "*?["

// BinaryPattern resolves which file inside the archive is the binary.
// The boolean is false for raw (non-archive) packages.
func BinaryPattern(pkg *config.PackageConfig, info *platform.Info) (string, bool, error) {
	if !pkg.Archive {
		return "", false, nil
	}
	if !pkg.Binary.IsSet() {
		return "", false, errs.New(errs.ConfigInvalid, "Missing binary for archive package %s", pkg.Name).
			WithPath(pkg.Path).
			WithHint("Set 'binary' to the executable's path inside the archive.")
	}
	pattern, err := resolvePattern(pkg.Binary, info.Key(), "binary")
	if err != nil {
		return "", false, err
	}
	return pattern, true, nil
}

// InstallName returns the filename the binary is installed under:
// install_as, else the basename of the binary pattern, else the asset's
// basename.
func InstallName(pkg *config.PackageConfig, asset github.ReleaseAsset, binaryPattern string) (string, error) {
	if pkg.InstallAs != "" {
		return pkg.InstallAs, nil
	}
	if binaryPattern == "" {
		return path.Base(asset.Name), nil
	}

	name := path.Base(strings.ReplaceAll(binaryPattern, `\`, "/"))
	if strings.ContainsAny(name, wildcardChars) {
		return "", errs.New(errs.ConfigInvalid, "Cannot derive install name from binary pattern '%s' for %s", binaryPattern, pkg.Name).
			WithPath(pkg.Path).
			WithHint("Set install_as to the filename to install.")
	}
	return name, nil
}

// FindBinary locates pattern inside extractDir. archivePath is only used
// to list the archive's contents in error hints.
//
//   - A literal path containing "/" must exist as given.
//   - A bare name is looked up at the root first, then searched recursively.
//   - A wildcard pattern is matched against slash-separated relative paths
//     when it contains "/", and against basenames otherwise.
func FindBinary(extractDir, pattern, archivePath string, info *platform.Info) (string, error) {
	pattern = strings.ReplaceAll(pattern, `\`, "/")
	wildcard := strings.ContainsAny(pattern, wildcardChars)
	hasDir := strings.Contains(pattern, "/")

	if !wildcard && hasDir {
		candidate := filepath.Join(extractDir, filepath.FromSlash(pattern))
		if isFile(candidate) {
			return candidate, nil
		}
		return "", notFound(pattern, archivePath, info)
	}

	if !wildcard {
		root := filepath.Join(extractDir, pattern)
		if isFile(root) {
			return root, nil
		}
	}

	var matches []string
	err := filepath.WalkDir(extractDir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(extractDir, p)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)

		subject := path.Base(rel)
		if hasDir {
			subject = rel
		}
		ok, err := path.Match(pattern, subject)
		if err != nil {
			return errs.Wrap(errs.ConfigInvalid, err, "Invalid binary pattern '%s'", pattern).
				WithHint("Use shell glob syntax: *, ? and [abc].")
		}
		if ok {
			matches = append(matches, p)
		}
		return nil
	})
	if err != nil {
		return "", err
	}

	switch len(matches) {
	case 0:
		return "", notFound(pattern, archivePath, info)
	case 1:
		return matches[0], nil
	}

	rels := make([]string, len(matches))
	for i, m := range matches {
		r, _ := filepath.Rel(extractDir, m)
		rels[i] = filepath.ToSlash(r)
	}
	return "", errs.New(errs.AmbiguousSelection, "Binary '%s' matched multiple files:%s", pattern, bullets(rels)).
		WithHint("Use an explicit path for the binary in the package file.\n%s", archiveContents(archivePath))
}

func isFile(p string) bool {
	info, err := os.Stat(p)
	return err == nil && !info.IsDir()
}

func archiveContents(archivePath string) string {
	entries := archive.ListEntries(archivePath)
	if len(entries) == 0 {
		return "Archive contents: (empty)"
	}
	return "Archive contents:" + bullets(entries)
}

func notFound(pattern, archivePath string, info *platform.Info) error {
	base := path.Base(pattern)
	var hint strings.Builder
	hint.WriteString(archiveContents(archivePath))
	fmt.Fprintf(&hint, "\nIf the binary sits in a directory, give its path per platform:\n  binary = {'%s': '<dir>/%s'}", info.Key(), base)
	fmt.Fprintf(&hint, "\nOr use a wildcard for versioned directories, e.g. binary = '*/%s'", base)

	return errs.New(errs.NoMatch, "Binary '%s' not found in archive %s", pattern, filepath.Base(archivePath)).
		WithHint("%s", hint.String())
}
