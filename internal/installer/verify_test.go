package installer

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ProtonMail/go-crypto/openpgp" //nolint:staticcheck // Using ProtonMail's maintained fork

	"github.com/samuelstevens/ghrel/internal/config"
	"github.com/samuelstevens/ghrel/internal/errs"
	"github.com/samuelstevens/ghrel/internal/github"
)

func sha256Hex(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

func TestFindChecksum(t *testing.T) {
	content := strings.Join([]string{
		"aaaa  tool-linux.tar.gz",
		"bbbb *tool-darwin.tar.gz",
		"cccc  dist/tool-windows.zip",
		"garbage",
		"",
	}, "\n")
	path := filepath.Join(t.TempDir(), "SHA256SUMS")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name    string
		want    string
		wantErr bool
	}{
		{name: "tool-linux.tar.gz", want: "aaaa"},
		{name: "tool-darwin.tar.gz", want: "bbbb"},
		{name: "tool-windows.zip", want: "cccc"},
		{name: "missing.tar.gz", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := findChecksum(path, tt.name)
			if (err != nil) != tt.wantErr {
				t.Fatalf("findChecksum() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("findChecksum() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestInstall_ChecksumsFile(t *testing.T) {
	asset := []byte("tool v1")
	tests := []struct {
		name     string
		sums     string
		wantKind errs.Kind
	}{
		{name: "valid", sums: sha256Hex(asset) + "  tool-linux\n"},
		{name: "valid uppercase", sums: strings.ToUpper(sha256Hex(asset)) + "  tool-linux\n"},
		{name: "mismatch", sums: sha256Hex([]byte("other")) + "  tool-linux\n", wantKind: errs.ChecksumMismatch},
		{name: "not listed", sums: sha256Hex(asset) + "  tool-darwin\n", wantKind: errs.ChecksumMismatch},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			binDir := t.TempDir()
			dl := &fakeDownloader{files: map[string][]byte{
				"https://dl/tool-linux": asset,
				"https://dl/sums":       []byte(tt.sums),
			}}
			release := &github.Release{Tag: "v1", Assets: []github.ReleaseAsset{
				{Name: "tool-linux", DownloadURL: "https://dl/tool-linux"},
				{Name: "checksums.txt", DownloadURL: "https://dl/sums"},
			}}

			_, err := New(dl).Install(context.Background(), Request{
				Package:   &config.PackageConfig{Name: "tool", InstallAs: "tool", Checksums: "checksums*"},
				Release:   release,
				Asset:     release.Assets[0],
				TargetDir: binDir,
				Platform:  linux,
			})

			if tt.wantKind == "" {
				if err != nil {
					t.Fatalf("Install() error = %v", err)
				}
				return
			}
			if !errs.Is(err, tt.wantKind) {
				t.Fatalf("Install() error = %v, want %s", err, tt.wantKind)
			}
			if _, statErr := os.Stat(filepath.Join(binDir, "tool")); !os.IsNotExist(statErr) {
				t.Errorf("binary installed despite failed verification")
			}
		})
	}
}

func TestInstall_ChecksumsAssetMissing(t *testing.T) {
	dl := &fakeDownloader{files: map[string][]byte{"https://dl/tool": []byte("x")}}
	release := &github.Release{Tag: "v1", Assets: []github.ReleaseAsset{
		{Name: "tool", DownloadURL: "https://dl/tool"},
	}}

	_, err := New(dl).Install(context.Background(), Request{
		Package:   &config.PackageConfig{Name: "tool", Checksums: "*.sha256"},
		Release:   release,
		Asset:     release.Assets[0],
		TargetDir: t.TempDir(),
		Platform:  linux,
	})
	if !errs.Is(err, errs.NoMatch) {
		t.Errorf("Install() error = %v, want NoMatch", err)
	}
}

// signingFixture generates a throwaway key, writes its public half as a
// binary keyring, and returns a detached armored signature for msg.
func signingFixture(t *testing.T, msg []byte) (keyringPath string, sig []byte) {
	t.Helper()
	entity, err := openpgp.NewEntity("ghrel test", "", "test@example.com", nil)
	if err != nil {
		t.Fatalf("NewEntity: %v", err)
	}

	var pub bytes.Buffer
	if err := entity.Serialize(&pub); err != nil {
		t.Fatalf("Serialize: %v", err)
	}
	keyringPath = filepath.Join(t.TempDir(), "signer.gpg")
	if err := os.WriteFile(keyringPath, pub.Bytes(), 0o644); err != nil {
		t.Fatal(err)
	}

	var out bytes.Buffer
	if err := openpgp.ArmoredDetachSign(&out, entity, bytes.NewReader(msg), nil); err != nil {
		t.Fatalf("ArmoredDetachSign: %v", err)
	}
	return keyringPath, out.Bytes()
}

func TestInstall_Signature(t *testing.T) {
	asset := []byte("signed tool")
	keyring, sig := signingFixture(t, asset)

	tests := []struct {
		name    string
		content []byte
		wantErr bool
	}{
		{name: "valid", content: asset},
		{name: "tampered", content: []byte("signed tool!"), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dl := &fakeDownloader{files: map[string][]byte{
				"https://dl/tool": tt.content,
				"https://dl/sig":  sig,
			}}
			release := &github.Release{Tag: "v1", Assets: []github.ReleaseAsset{
				{Name: "tool", DownloadURL: "https://dl/tool"},
				{Name: "tool.asc", DownloadURL: "https://dl/sig"},
			}}

			_, err := New(dl).Install(context.Background(), Request{
				Package: &config.PackageConfig{
					Name:      "tool",
					Signature: &config.SignatureSpec{Asset: "*.asc", Keyring: keyring},
				},
				Release:   release,
				Asset:     release.Assets[0],
				TargetDir: t.TempDir(),
				Platform:  linux,
			})
			if !tt.wantErr {
				if err != nil {
					t.Fatalf("Install() error = %v", err)
				}
				return
			}
			if !errs.Is(err, errs.ChecksumMismatch) {
				t.Fatalf("Install() error = %v, want ChecksumMismatch", err)
			}
			if !strings.Contains(err.Error(), "Signature verification failed") {
				t.Errorf("error = %q", err)
			}
		})
	}
}

func TestFindAsset_Ambiguous(t *testing.T) {
	release := &github.Release{Tag: "v1", Assets: []github.ReleaseAsset{
		{Name: "a.sha256"}, {Name: "b.sha256"},
	}}
	_, err := findAsset(release, "*.sha256", "checksums")
	if !errs.Is(err, errs.AmbiguousSelection) {
		t.Errorf("findAsset() error = %v, want AmbiguousSelection", err)
	}
}

func TestVerifyGPG_BinarySignature(t *testing.T) {
	msg := []byte("signed tool")
	entity, err := openpgp.NewEntity("ghrel test", "", "test@example.com", nil)
	if err != nil {
		t.Fatalf("NewEntity: %v", err)
	}
	var pub, sig bytes.Buffer
	if err := entity.Serialize(&pub); err != nil {
		t.Fatalf("Serialize: %v", err)
	}
	if err := openpgp.DetachSign(&sig, entity, bytes.NewReader(msg), nil); err != nil {
		t.Fatalf("DetachSign: %v", err)
	}

	dir := t.TempDir()
	write := func(name string, data []byte) string {
		p := filepath.Join(dir, name)
		if err := os.WriteFile(p, data, 0o644); err != nil {
			t.Fatal(err)
		}
		return p
	}
	keyring := write("signer.gpg", pub.Bytes())
	sigPath := write("tool.sig", sig.Bytes())

	if err := verifyGPG(write("tool", msg), sigPath, keyring); err != nil {
		t.Errorf("verifyGPG() error = %v", err)
	}
	if err := verifyGPG(write("tampered", []byte("signed tool!")), sigPath, keyring); err == nil {
		t.Error("verifyGPG() accepted a tampered file")
	}
}

func TestRewind_ClosedFile(t *testing.T) {
	p := filepath.Join(t.TempDir(), "f")
	if err := os.WriteFile(p, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	f, err := os.Open(p)
	if err != nil {
		t.Fatal(err)
	}
	f.Close()

	if err := rewind(f); err == nil || !strings.Contains(err.Error(), "rewind") {
		t.Errorf("rewind() error = %v, want a rewind error", err)
	}
}
