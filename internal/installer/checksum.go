package installer

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
)

// ChecksumPrefix tags checksums with their algorithm.
const ChecksumPrefix = "sha256:"

// Checksum returns "sha256:<hex>" for the file at path.
func Checksum(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	h := sha256.New()
	buf := make([]byte, 1<<20)
	if _, err := io.CopyBuffer(h, f, buf); err != nil {
		return "", fmt.Errorf("hash %s: %w", path, err)
	}
	return ChecksumPrefix + hex.EncodeToString(h.Sum(nil)), nil
}

// ChecksumBytes returns "sha256:<hex>" for b.
func ChecksumBytes(b []byte) string {
	sum := sha256.Sum256(b)
	return ChecksumPrefix + hex.EncodeToString(sum[:])
}
