// Package installer downloads a selected release asset, verifies it and
// places the binary atomically into the target directory.
//
// # Install Steps
//
//  1. Ensure the target directory exists
//  2. Download the asset into a scratch directory
//  3. Optionally verify the asset against the release's checksums file
//     and a detached OpenPGP signature
//  4. Extract archives and locate the binary inside them
//  5. Copy the binary to <target>.tmp, compare SHA-256 of source and copy,
//     chmod 0755 and rename over the final path
//  6. Return the new package state
//
// A failed checksum comparison leaves the existing binary untouched.
//
// # Usage
//
//	inst := installer.New(client, installer.WithLogger(logger))
//	res, err := inst.Install(ctx, installer.Request{
//	    Package:       pkg,
//	    Release:       release,
//	    Asset:         asset,
//	    BinaryPattern: pattern,
//	    TargetDir:     binDir,
//	    Platform:      info,
//	})
package installer
