package hooks

// PostInstallArgs is passed to post_install hooks after a binary is placed.
type PostInstallArgs struct {
	Version    string
	BinaryName string
	BinaryPath string
	Checksum   string
	Repo       string
	BinDir     string
	// ExtractedDir is empty for non-archive packages.
	ExtractedDir string
}

func (a PostInstallArgs) values() map[string]string {
	return map[string]string{
		"version":       a.Version,
		"binary_name":   a.BinaryName,
		"binary_path":   a.BinaryPath,
		"checksum":      a.Checksum,
		"repo":          a.Repo,
		"bin_dir":       a.BinDir,
		"extracted_dir": a.ExtractedDir,
	}
}

// VerifyArgs is passed to verify hooks.
type VerifyArgs struct {
	Version    string
	BinaryName string
	BinaryPath string
	Checksum   string
	Repo       string
}

func (a VerifyArgs) values() map[string]string {
	return map[string]string{
		"version":     a.Version,
		"binary_name": a.BinaryName,
		"binary_path": a.BinaryPath,
		"checksum":    a.Checksum,
		"repo":        a.Repo,
	}
}
