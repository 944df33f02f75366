package archive

import (
	"archive/tar"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/klauspost/compress/zip"

	"github.com/samuelstevens/ghrel/internal/errs"
)

var windowsDrive = regexp.MustCompile(`^[A-Za-z]:`)

// canonical returns the absolute, symlink-free form of path. Path
// components that do not exist yet are appended unchanged to the resolved
// existing prefix, so nothing needs to be created.
func canonical(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}

	var rest []string
	cur := abs
	for {
		resolved, err := filepath.EvalSymlinks(cur)
		if err == nil {
			return filepath.Join(append([]string{resolved}, rest...)...), nil
		}
		if !os.IsNotExist(err) {
			return "", err
		}
		parent := filepath.Dir(cur)
		if parent == cur {
			return abs, nil
		}
		rest = append([]string{filepath.Base(cur)}, rest...)
		cur = parent
	}
}

// checkName rejects absolute names and names whose resolved target, after
// following symlinks already present under root, escapes root.
func checkName(name, root string) error {
	if strings.HasPrefix(name, "/") || strings.HasPrefix(name, `\`) || windowsDrive.MatchString(name) {
		return errs.New(errs.ArchiveUnsafe, "Unsafe path in archive: %s", name).
			WithHint("Archive contains absolute paths.")
	}

	target, err := canonical(filepath.Join(root, filepath.FromSlash(name)))
	if err != nil {
		return errs.Wrap(errs.ArchiveUnsafe, err, "Cannot resolve archive path: %s", name)
	}
	if !within(root, target) {
		return errs.New(errs.ArchiveUnsafe, "Unsafe path in archive: %s", name).
			WithHint("Archive contains path traversal entries.")
	}
	return nil
}

func within(root, target string) bool {
	rel, err := filepath.Rel(root, target)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

func unsafeLink(name string) error {
	return errs.New(errs.ArchiveUnsafe, "Unsafe link in archive: %s", name).
		WithHint("Archive contains symlink or hardlink entries.")
}

func validateTar(archivePath, root string) error {
	tr, closer, err := openTar(archivePath)
	if err != nil {
		return readErr(archivePath, err)
	}
	defer closer.Close()

	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return readErr(archivePath, err)
		}
		if hdr.Typeflag == tar.TypeSymlink || hdr.Typeflag == tar.TypeLink {
			return unsafeLink(hdr.Name)
		}
		if err := checkName(hdr.Name, root); err != nil {
			return err
		}
	}
}

func validateZip(archivePath, root string) error {
	r, err := zip.OpenReader(archivePath)
	if err != nil {
		return readErr(archivePath, err)
	}
	defer r.Close()

	for _, f := range r.File {
		if f.Mode()&fs.ModeSymlink != 0 {
			return unsafeLink(f.Name)
		}
		if err := checkName(f.Name, root); err != nil {
			return err
		}
	}
	return nil
}
