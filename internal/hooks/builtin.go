package hooks

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
)

// NewBuiltinRegistry returns a registry holding the callbacks shipped with
// ghrel:
//
//	executable      binary_path is a regular file with an execute bit
//	checksum        binary_path still hashes to the recorded checksum
//	version-output  "binary_path --version" prints the release version
func NewBuiltinRegistry() *Registry {
	r := NewRegistry()
	r.callbacks["executable"] = checkExecutable
	r.callbacks["checksum"] = checkChecksum
	r.callbacks["version-output"] = checkVersionOutput
	return r
}

func checkExecutable(_ context.Context, args map[string]string) error {
	fi, err := os.Stat(args["binary_path"])
	if err != nil {
		return err
	}
	if !fi.Mode().IsRegular() {
		return fmt.Errorf("%s is not a regular file", args["binary_path"])
	}
	if fi.Mode().Perm()&0o111 == 0 {
		return fmt.Errorf("%s is not executable", args["binary_path"])
	}
	return nil
}

func checkChecksum(_ context.Context, args map[string]string) error {
	f, err := os.Open(args["binary_path"])
	if err != nil {
		return err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return fmt.Errorf("hash %s: %w", args["binary_path"], err)
	}
	got := "sha256:" + hex.EncodeToString(h.Sum(nil))
	if got != args["checksum"] {
		return fmt.Errorf("checksum is %s, recorded %s", got, args["checksum"])
	}
	return nil
}

func checkVersionOutput(ctx context.Context, args map[string]string) error {
	out, err := exec.CommandContext(ctx, args["binary_path"], "--version").CombinedOutput()
	if err != nil {
		return fmt.Errorf("%s --version: %w", args["binary_name"], err)
	}
	want := strings.TrimPrefix(args["version"], "v")
	if !strings.Contains(string(out), want) {
		return fmt.Errorf("%s --version does not mention %s: %s", args["binary_name"], want, lastLine(string(out)))
	}
	return nil
}
