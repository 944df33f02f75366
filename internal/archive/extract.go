package archive

import (
	"archive/tar"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zip"
)

// fileMode collapses archive permissions to 0755 for anything executable
// and 0644 otherwise.
func fileMode(m fs.FileMode) fs.FileMode {
	if m&0o111 != 0 {
		return 0o755
	}
	return 0o644
}

func writeFile(target string, r io.Reader, mode fs.FileMode) error {
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return fmt.Errorf("create parent dir for %s: %w", target, err)
	}
	out, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, fileMode(mode))
	if err != nil {
		return fmt.Errorf("create file %s: %w", target, err)
	}
	if _, err := io.Copy(out, r); err != nil {
		out.Close()
		return fmt.Errorf("write file %s: %w", target, err)
	}
	// OpenFile is subject to the umask; set the final mode explicitly.
	if err := out.Chmod(fileMode(mode)); err != nil {
		out.Close()
		return fmt.Errorf("chmod %s: %w", target, err)
	}
	return out.Close()
}

func extractTar(archivePath, root string) ([]string, error) {
	tr, closer, err := openTar(archivePath)
	if err != nil {
		return nil, readErr(archivePath, err)
	}
	defer closer.Close()

	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create dest dir: %w", err)
	}

	var written []string
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			return written, nil
		}
		if err != nil {
			return written, readErr(archivePath, err)
		}

		target := filepath.Join(root, filepath.FromSlash(hdr.Name))
		switch hdr.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, 0o755); err != nil {
				return written, fmt.Errorf("create directory %s: %w", target, err)
			}
		case tar.TypeReg:
			if err := writeFile(target, tr, fs.FileMode(hdr.Mode)); err != nil {
				return written, err
			}
		default:
			// Devices, fifos and other special entries are skipped.
			continue
		}
		written = append(written, target)
	}
}

func extractZip(archivePath, root string) ([]string, error) {
	r, err := zip.OpenReader(archivePath)
	if err != nil {
		return nil, readErr(archivePath, err)
	}
	defer r.Close()

	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create dest dir: %w", err)
	}

	var written []string
	for _, f := range r.File {
		target := filepath.Join(root, filepath.FromSlash(f.Name))
		mode := f.Mode()
		switch {
		case mode.IsDir():
			if err := os.MkdirAll(target, 0o755); err != nil {
				return written, fmt.Errorf("create directory %s: %w", target, err)
			}
		case mode.IsRegular():
			rc, err := f.Open()
			if err != nil {
				return written, readErr(archivePath, err)
			}
			err = writeFile(target, rc, mode)
			rc.Close()
			if err != nil {
				return written, err
			}
		default:
			continue
		}
		written = append(written, target)
	}
	return written, nil
}
