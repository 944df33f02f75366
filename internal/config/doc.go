// Package config loads package descriptors and tool settings.
//
// # Package Descriptors
//
// Each package ghrel manages is one file in the packages directory, named
// after the package: rg.toml, fd.yaml, jq.yml. Descriptors are plain data:
//
//	repo = "BurntSushi/ripgrep"
//	binary = "rg"
//	asset = { "linux-x86_64" = "*x86_64-unknown-linux-musl.tar.gz", "darwin-arm64" = "*aarch64-apple-darwin.tar.gz" }
//	version = "14.1.0"
//	checksums = "*.sha256"
//	verify = { command = ["rg", "--version"] }
//
// Keys:
//   - repo (required): "owner/repo"
//   - archive: whether the asset is an archive (default true)
//   - binary: path or glob of the executable inside the archive, or a
//     table keyed by platform ("linux-x86_64"); required for archives
//   - install_as: installed filename
//   - asset: asset glob or per-platform table; inferred from the platform
//     when absent
//   - version: pinned release tag; latest when absent
//   - checksums: glob of a checksums asset in the same release
//   - signature: { asset = "<glob>", keyring = "<path>" }
//   - post_install, verify: hook tables, see package hooks
//
// Unknown keys and wrong types are errors. Descriptors are also scanned for
// hardcoded secrets; findings are logged as warnings.
//
// # Settings
//
// Settings layer defaults, $XDG_CONFIG_HOME/ghrel/config.toml and
// environment variables, in that order, through koanf.
package config
