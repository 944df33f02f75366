package installer

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/ProtonMail/go-crypto/openpgp" //nolint:staticcheck // Using ProtonMail's maintained fork

	"github.com/samuelstevens/ghrel/internal/errs"
	"github.com/samuelstevens/ghrel/internal/github"
)

// verifyRelease checks the downloaded asset against the release's
// checksums file and detached signature, when the package asks for them.
func (i *Installer) verifyRelease(ctx context.Context, req Request, assetPath, tempDir string) error {
	pkg := req.Package

	if pkg.Checksums != "" {
		sumsAsset, err := findAsset(req.Release, pkg.Checksums, "checksums")
		if err != nil {
			return err
		}
		sumsPath := filepath.Join(tempDir, "verify-"+filepath.Base(sumsAsset.Name))
		if err := i.downloader.DownloadAsset(ctx, sumsAsset.DownloadURL, sumsPath); err != nil {
			return err
		}
		if err := verifySHA256(assetPath, req.Asset.Name, sumsPath, sumsAsset.Name); err != nil {
			return err
		}
		i.logger.Debug("checksum verified", "package", pkg.Name, "checksums", sumsAsset.Name)
	}

	if pkg.Signature != nil {
		sigAsset, err := findAsset(req.Release, pkg.Signature.Asset, "signature")
		if err != nil {
			return err
		}
		sigPath := filepath.Join(tempDir, "verify-"+filepath.Base(sigAsset.Name))
		if err := i.downloader.DownloadAsset(ctx, sigAsset.DownloadURL, sigPath); err != nil {
			return err
		}
		if err := verifyGPG(assetPath, sigPath, pkg.Signature.Keyring); err != nil {
			return errs.Wrap(errs.ChecksumMismatch, err, "Signature verification failed for %s: %v", req.Asset.Name, err).
				WithPackage(pkg.Name).
				WithHint("Check the keyring at %s matches the release signer.", pkg.Signature.Keyring)
		}
		i.logger.Debug("signature verified", "package", pkg.Name, "signature", sigAsset.Name)
	}
	return nil
}

// findAsset returns the single release asset matching pattern.
func findAsset(release *github.Release, pattern, what string) (github.ReleaseAsset, error) {
	var matches []github.ReleaseAsset
	for _, a := range release.Assets {
		ok, err := path.Match(pattern, a.Name)
		if err != nil {
			return github.ReleaseAsset{}, errs.Wrap(errs.ConfigInvalid, err, "Invalid %s pattern '%s'", what, pattern)
		}
		if ok {
			matches = append(matches, a)
		}
	}

	switch len(matches) {
	case 1:
		return matches[0], nil
	case 0:
		return github.ReleaseAsset{}, errs.New(errs.NoMatch, "No %s asset matches '%s' in %s", what, pattern, release.Tag).
			WithHint("Release assets: %s", strings.Join(release.AssetNames(), ", "))
	default:
		names := make([]string, len(matches))
		for j, m := range matches {
			names[j] = m.Name
		}
		return github.ReleaseAsset{}, errs.New(errs.AmbiguousSelection, "Multiple %s assets match '%s': %s", what, pattern, strings.Join(names, ", ")).
			WithHint("Make the %s pattern more specific.", what)
	}
}

// verifySHA256 compares the asset's digest with its line in the checksums
// file.
func verifySHA256(assetPath, assetName, sumsPath, sumsName string) error {
	actual, err := Checksum(assetPath)
	if err != nil {
		return err
	}
	actual = strings.TrimPrefix(actual, ChecksumPrefix)

	expected, err := findChecksum(sumsPath, assetName)
	if err != nil {
		return errs.Wrap(errs.ChecksumMismatch, err, "Asset %s is not listed in %s", assetName, sumsName).
			WithHint("Check the checksums pattern in the package file.")
	}

	if !strings.EqualFold(actual, expected) {
		return errs.New(errs.ChecksumMismatch, "Checksum mismatch for %s", assetName).
			WithHint("Expected %s (from %s), got %s.", expected, sumsName, actual)
	}
	return nil
}

// findChecksum finds the checksum for a specific filename in a checksum file
// Format: "abc123def456  filename.tar.gz"
func findChecksum(checksumPath, filename string) (string, error) {
	file, err := os.Open(checksumPath)
	if err != nil {
		return "", fmt.Errorf("open checksum file: %w", err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		parts := strings.Fields(scanner.Text())
		if len(parts) < 2 {
			continue
		}

		// "*name" marks binary mode in sha256sum output
		name := strings.TrimPrefix(parts[1], "*")
		if name == filename || path.Base(name) == filename {
			return parts[0], nil
		}
	}

	if err := scanner.Err(); err != nil {
		return "", fmt.Errorf("scan checksum file: %w", err)
	}

	return "", fmt.Errorf("checksum not found for %s", filename)
}

// verifyGPG checks a detached signature, armored or binary, against the
// keyring at keyringPath.
func verifyGPG(filePath, signaturePath, keyringPath string) error {
	keyring, err := loadKeyring(keyringPath)
	if err != nil {
		return err
	}

	f, err := os.Open(filePath)
	if err != nil {
		return fmt.Errorf("open file: %w", err)
	}
	defer f.Close()

	sig, err := os.Open(signaturePath)
	if err != nil {
		return fmt.Errorf("open signature: %w", err)
	}
	defer sig.Close()

	_, err = openpgp.CheckArmoredDetachedSignature(keyring, f, sig, nil)
	if err != nil {
		if err := rewind(f, sig); err != nil {
			return err
		}
		_, err = openpgp.CheckDetachedSignature(keyring, f, sig, nil)
	}
	if err != nil {
		return fmt.Errorf("verify signature: %w", err)
	}
	return nil
}

func loadKeyring(keyringPath string) (openpgp.EntityList, error) {
	f, err := os.Open(keyringPath)
	if err != nil {
		return nil, fmt.Errorf("open keyring: %w", err)
	}
	defer f.Close()

	keyring, err := openpgp.ReadArmoredKeyRing(f)
	if err != nil {
		if err := rewind(f); err != nil {
			return nil, err
		}
		keyring, err = openpgp.ReadKeyRing(f)
		if err != nil {
			return nil, fmt.Errorf("read keyring: %w", err)
		}
	}

	if len(keyring) == 0 {
		return nil, fmt.Errorf("keyring is empty")
	}
	return keyring, nil
}

// rewind seeks every file back to its start for a second parse.
func rewind(files ...*os.File) error {
	for _, f := range files {
		if _, err := f.Seek(0, io.SeekStart); err != nil {
			return fmt.Errorf("rewind %s: %w", f.Name(), err)
		}
	}
	return nil
}
