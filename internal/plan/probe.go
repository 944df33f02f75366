package plan

import (
	"os"

	"github.com/samuelstevens/ghrel/internal/installer"
)

// FileProbe checks binaries on the local filesystem.
type FileProbe struct{}

func (FileProbe) Exists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

func (FileProbe) Checksum(path string) (string, error) {
	return installer.Checksum(path)
}
