// Package archive extracts release archives safely.
//
// The format is detected from file content, never from the extension:
// tar streams (plain, gzip, zstd, xz or bzip2 compressed) and zip files are
// supported. Before anything is written, every entry is validated; links,
// absolute names and entries that would land outside the destination make
// the whole archive fail with errs.ArchiveUnsafe.
package archive

import (
	"archive/tar"
	"bufio"
	"bytes"
	"compress/bzip2"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zip"
	"github.com/klauspost/compress/zstd"
	"github.com/ulikunitz/xz"

	"github.com/samuelstevens/ghrel/internal/errs"
)

// Format is a detected archive container.
type Format int

const (
	Unknown Format = iota
	Tar
	Zip
)

func (f Format) String() string {
	switch f {
	case Tar:
		return "tar"
	case Zip:
		return "zip"
	}
	return "unknown"
}

var (
	magicGzip  = []byte{0x1f, 0x8b}
	magicZstd  = []byte{0x28, 0xb5, 0x2f, 0xfd}
	magicXz    = []byte{0xfd, '7', 'z', 'X', 'Z', 0x00}
	magicBzip2 = []byte("BZh")
)

// Detect sniffs the container format of the file at path.
func Detect(path string) (Format, error) {
	info, err := os.Stat(path)
	if err != nil {
		return Unknown, fmt.Errorf("stat archive: %w", err)
	}
	if info.Size() == 0 {
		return Unknown, nil
	}

	if isTar(path) {
		return Tar, nil
	}
	if r, err := zip.OpenReader(path); err == nil {
		r.Close()
		return Zip, nil
	}
	return Unknown, nil
}

// isTar reports whether the (possibly compressed) stream starts with a
// valid tar header.
func isTar(path string) bool {
	tr, closer, err := openTar(path)
	if err != nil {
		return false
	}
	defer closer.Close()

	_, err = tr.Next()
	return err == nil || err == io.EOF
}

// openTar opens path as a tar stream, transparently decompressing it.
func openTar(path string) (*tar.Reader, io.Closer, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}

	br := bufio.NewReader(f)
	head, _ := br.Peek(len(magicXz))

	var r io.Reader = br
	closers := multiCloser{f}
	switch {
	case bytes.HasPrefix(head, magicGzip):
		gz, err := gzip.NewReader(br)
		if err != nil {
			f.Close()
			return nil, nil, err
		}
		r = gz
		closers = append(closers, gz)
	case bytes.HasPrefix(head, magicZstd):
		dec, err := zstd.NewReader(br)
		if err != nil {
			f.Close()
			return nil, nil, err
		}
		rc := dec.IOReadCloser()
		r = rc
		closers = append(closers, rc)
	case bytes.HasPrefix(head, magicXz):
		xr, err := xz.NewReader(br)
		if err != nil {
			f.Close()
			return nil, nil, err
		}
		r = xr
	case bytes.HasPrefix(head, magicBzip2):
		r = bzip2.NewReader(br)
	}
	return tar.NewReader(r), closers, nil
}

type multiCloser []io.Closer

func (m multiCloser) Close() error {
	var errList []error
	for i := len(m) - 1; i >= 0; i-- {
		errList = append(errList, m[i].Close())
	}
	return errors.Join(errList...)
}

// Extract validates and unpacks the archive at archivePath into destDir.
// It returns the extraction root and every path written (directories and
// files), in archive order. Nothing is written unless every entry passes
// validation.
func Extract(archivePath, destDir string) (string, []string, error) {
	format, err := Detect(archivePath)
	if err != nil {
		return "", nil, err
	}

	root, err := canonical(destDir)
	if err != nil {
		return "", nil, fmt.Errorf("resolve destination: %w", err)
	}

	switch format {
	case Tar:
		if err := validateTar(archivePath, root); err != nil {
			return "", nil, err
		}
		files, err := extractTar(archivePath, root)
		return root, files, err
	case Zip:
		if err := validateZip(archivePath, root); err != nil {
			return "", nil, err
		}
		files, err := extractZip(archivePath, root)
		return root, files, err
	}

	return "", nil, errs.New(errs.ArchiveUnsafe, "Unsupported archive format: %s", archivePath).
		WithHint("Only tar (optionally gzip, zstd, xz or bzip2 compressed) and zip archives are supported. Set archive = false for raw binaries.")
}

// ListEntries returns entry names for diagnostics. It performs no
// validation and returns an empty slice for unreadable or unsupported input.
func ListEntries(archivePath string) []string {
	names := []string{}
	format, err := Detect(archivePath)
	if err != nil {
		return names
	}

	switch format {
	case Tar:
		tr, closer, err := openTar(archivePath)
		if err != nil {
			return names
		}
		defer closer.Close()
		for {
			hdr, err := tr.Next()
			if err != nil {
				break
			}
			names = append(names, hdr.Name)
		}
	case Zip:
		r, err := zip.OpenReader(archivePath)
		if err != nil {
			return names
		}
		defer r.Close()
		for _, f := range r.File {
			names = append(names, f.Name)
		}
	}
	return names
}

func readErr(archivePath string, err error) error {
	return errs.Wrap(errs.ArchiveUnsafe, err, "Failed to read archive %s: %v", archivePath, err).
		WithHint("The download may be corrupt; run the command again.")
}
