// Package github is a minimal client for the GitHub releases REST API.
//
// A Client fetches release metadata (latest, by tag, recent tags) and
// downloads release assets. Transport failures are retried with exponential
// backoff; HTTP failures are classified into errs kinds so callers can tell
// a missing release from an authentication problem. Release lookups are
// cached for the lifetime of the Client, which is meant to live for a single
// ghrel run.
package github

import "time"

const (
	// DefaultBaseURL is the public GitHub REST API root.
	DefaultBaseURL = "https://api.github.com"
	// DefaultTimeout bounds connecting and waiting for response headers.
	DefaultTimeout = 30 * time.Second
	// DefaultAttempts is the total number of tries for one request.
	DefaultAttempts = 3
	// DefaultBaseDelay is the first retry delay; it doubles per attempt.
	DefaultBaseDelay = time.Second
	// DefaultTagLimit is how many tags are listed when a pinned version is missing.
	DefaultTagLimit = 10

	acceptJSON   = "application/vnd.github+json"
	acceptBinary = "application/octet-stream"

	copyBufferSize = 1 << 20
	cacheSize      = 256
)

// ReleaseAsset is one downloadable file attached to a release.
type ReleaseAsset struct {
	Name        string
	DownloadURL string
}

// Release is a published release and its assets.
type Release struct {
	Tag    string
	Assets []ReleaseAsset
}

// AssetNames returns the names of all assets in release order.
func (r *Release) AssetNames() []string {
	names := make([]string, len(r.Assets))
	for i, a := range r.Assets {
		names[i] = a.Name
	}
	return names
}
