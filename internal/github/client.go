package github

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/samuelstevens/ghrel/internal/errs"
	"github.com/samuelstevens/ghrel/internal/logging"
)

type releaseKey struct {
	repo string
	tag  string // "latest" for the latest release
}

type tagsKey struct {
	repo  string
	limit int
}

// Client talks to the GitHub releases API.
type Client struct {
	baseURL   string
	token     string
	userAgent string
	http      *http.Client
	attempts  uint
	baseDelay time.Duration
	progress  io.Writer
	logger    logging.Logger

	releases *lru.Cache[releaseKey, *Release]
	tags     *lru.Cache[tagsKey, []string]
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL points the client at a different API root, such as a
// GitHub Enterprise server or a test server.
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = strings.TrimRight(u, "/") }
}

// WithToken sets the bearer token sent with every request.
func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

// WithVersion sets the version reported in the User-Agent header.
func WithVersion(version string) Option {
	return func(c *Client) { c.userAgent = "ghrel/" + version }
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithRetry sets the total number of attempts and the first backoff delay.
func WithRetry(attempts uint, baseDelay time.Duration) Option {
	return func(c *Client) {
		c.attempts = max(attempts, 1)
		c.baseDelay = baseDelay
	}
}

// WithProgress renders a progress bar on w while downloading assets.
func WithProgress(w io.Writer) Option {
	return func(c *Client) { c.progress = w }
}

// WithLogger sets the client's logger.
func WithLogger(l logging.Logger) Option {
	return func(c *Client) { c.logger = logging.OrNop(l) }
}

// NewClient creates a client. Caches live as long as the client.
func NewClient(opts ...Option) *Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.DialContext = (&net.Dialer{Timeout: DefaultTimeout}).DialContext
	transport.ResponseHeaderTimeout = DefaultTimeout
	transport.TLSHandshakeTimeout = DefaultTimeout

	c := &Client{
		baseURL:   DefaultBaseURL,
		userAgent: "ghrel/dev",
		http:      &http.Client{Transport: transport},
		attempts:  DefaultAttempts,
		baseDelay: DefaultBaseDelay,
		logger:    logging.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}

	// lru.New only fails for a non-positive size.
	c.releases, _ = lru.New[releaseKey, *Release](cacheSize)
	c.tags, _ = lru.New[tagsKey, []string](cacheSize)
	return c
}

// GetLatestRelease returns the newest published release of repo
// ("owner/name"). Drafts and prereleases are excluded by the API.
func (c *Client) GetLatestRelease(ctx context.Context, repo string) (*Release, error) {
	key := releaseKey{repo: repo, tag: "latest"}
	if r, ok := c.releases.Get(key); ok {
		return r, nil
	}

	owner, name, err := SplitRepo(repo)
	if err != nil {
		return nil, err
	}
	endpoint := fmt.Sprintf("%s/repos/%s/%s/releases/latest", c.baseURL, owner, name)
	body, err := c.getJSON(ctx, endpoint, nil)
	if err != nil {
		return nil, err
	}
	r, err := parseRelease(body, repo, "latest")
	if err != nil {
		return nil, err
	}
	c.releases.Add(key, r)
	return r, nil
}

// GetReleaseByTag returns the release of repo tagged tag. When no such
// release exists the error lists the most recent tags as a hint.
func (c *Client) GetReleaseByTag(ctx context.Context, repo, tag string) (*Release, error) {
	key := releaseKey{repo: repo, tag: tag}
	if r, ok := c.releases.Get(key); ok {
		return r, nil
	}

	owner, name, err := SplitRepo(repo)
	if err != nil {
		return nil, err
	}
	endpoint := fmt.Sprintf("%s/repos/%s/%s/releases/tags/%s", c.baseURL, owner, name, url.PathEscape(tag))
	body, err := c.getJSON(ctx, endpoint, nil)
	if errs.Is(err, errs.NotFound) {
		recent, tagsErr := c.GetRecentTags(ctx, repo, DefaultTagLimit)
		if tagsErr != nil {
			return nil, tagsErr
		}
		available := "(none)"
		if len(recent) > 0 {
			available = strings.Join(recent, ", ")
		}
		return nil, errs.Wrap(errs.NotFound, err, "Version '%s' not found for %s", tag, repo).
			WithHint("Available tags: %s", available)
	}
	if err != nil {
		return nil, err
	}

	r, err := parseRelease(body, repo, tag)
	if err != nil {
		return nil, err
	}
	c.releases.Add(key, r)
	return r, nil
}

// GetRecentTags lists up to limit release tags of repo, newest first.
func (c *Client) GetRecentTags(ctx context.Context, repo string, limit int) ([]string, error) {
	key := tagsKey{repo: repo, limit: limit}
	if tags, ok := c.tags.Get(key); ok {
		return tags, nil
	}

	owner, name, err := SplitRepo(repo)
	if err != nil {
		return nil, err
	}
	endpoint := fmt.Sprintf("%s/repos/%s/%s/releases", c.baseURL, owner, name)
	body, err := c.getJSON(ctx, endpoint, url.Values{"per_page": {strconv.Itoa(limit)}})
	if err != nil {
		return nil, err
	}

	var items []json.RawMessage
	if err := json.Unmarshal(body, &items); err != nil {
		return nil, errs.Wrap(errs.APIError, err, "Unexpected response from GitHub for %s tags", repo)
	}
	tags := make([]string, 0, len(items))
	for _, raw := range items {
		var item struct {
			TagName *string `json:"tag_name"`
		}
		if json.Unmarshal(raw, &item) != nil || item.TagName == nil {
			continue
		}
		tags = append(tags, *item.TagName)
	}
	c.tags.Add(key, tags)
	return tags, nil
}

// getJSON performs a GET and returns the response body.
func (c *Client) getJSON(ctx context.Context, endpoint string, query url.Values) ([]byte, error) {
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}
	resp, err := c.do(ctx, endpoint, acceptJSON)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errs.Wrap(errs.Connectivity, err, "Network error contacting GitHub: %v", err)
	}
	if !json.Valid(body) {
		return nil, errs.New(errs.APIError, "Invalid JSON response from GitHub for %s", endpoint)
	}
	return body, nil
}

// do sends a GET with retries. Only transport failures are retried;
// any HTTP error status is classified and returned immediately.
func (c *Client) do(ctx context.Context, endpoint, accept string) (*http.Response, error) {
	attempt := 0
	op := func() (*http.Response, error) {
		attempt++
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return nil, backoff.Permanent(errs.Wrap(errs.Internal, err, "build request for %s", endpoint))
		}
		req.Header.Set("Accept", accept)
		req.Header.Set("User-Agent", c.userAgent)
		if c.token != "" {
			req.Header.Set("Authorization", "Bearer "+c.token)
		}

		resp, err := c.http.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return nil, backoff.Permanent(ctx.Err())
			}
			c.logger.Debug("request failed", "url", endpoint, "attempt", attempt, "error", err)
			return nil, err
		}
		if err := c.classify(resp, endpoint); err != nil {
			resp.Body.Close()
			return nil, backoff.Permanent(err)
		}
		return resp, nil
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.baseDelay
	b.Multiplier = 2
	b.RandomizationFactor = 0

	resp, err := backoff.Retry(ctx, op,
		backoff.WithBackOff(b),
		backoff.WithMaxTries(c.attempts),
	)
	if err == nil {
		return resp, nil
	}

	var e *errs.Error
	if errors.As(err, &e) {
		return nil, err
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	return nil, errs.Wrap(errs.Connectivity, err, "Network error contacting GitHub: %v", err)
}

// classify maps an HTTP status to an error, or nil for success.
func (c *Client) classify(resp *http.Response, endpoint string) error {
	switch code := resp.StatusCode; {
	case code == http.StatusNotFound:
		return errs.New(errs.NotFound, "Resource not found: %s", endpoint)
	case code == http.StatusUnauthorized || code == http.StatusForbidden:
		if c.token != "" {
			return errs.New(errs.AuthFailure, "GitHub authentication failed.").
				WithHint("Check your GITHUB_TOKEN. If invalid or expired, create a new one.")
		}
		return errs.New(errs.RateLimited, "GitHub API rate limit exceeded.").
			WithHint("Set GITHUB_TOKEN to increase the limit.")
	case code >= 400:
		return errs.New(errs.APIError, "GitHub API error (%d) for %s", code, endpoint)
	}
	return nil
}

// parseRelease decodes a release document. Assets missing a name or
// download URL are skipped.
func parseRelease(body []byte, repo, tag string) (*Release, error) {
	var doc struct {
		TagName *string           `json:"tag_name"`
		Assets  []json.RawMessage `json:"assets"`
	}
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, errs.Wrap(errs.APIError, err, "Unexpected response from GitHub for %s %s release", repo, tag)
	}
	if doc.TagName == nil || *doc.TagName == "" {
		return nil, errs.New(errs.APIError, "Release JSON missing tag_name for %s %s", repo, tag)
	}
	if doc.Assets == nil {
		return nil, errs.New(errs.APIError, "Release JSON missing assets for %s %s", repo, tag)
	}

	r := &Release{Tag: *doc.TagName, Assets: make([]ReleaseAsset, 0, len(doc.Assets))}
	for _, raw := range doc.Assets {
		var a struct {
			Name *string `json:"name"`
			URL  *string `json:"browser_download_url"`
		}
		if json.Unmarshal(raw, &a) != nil || a.Name == nil || a.URL == nil {
			continue
		}
		r.Assets = append(r.Assets, ReleaseAsset{Name: *a.Name, DownloadURL: *a.URL})
	}
	return r, nil
}

// SplitRepo splits "owner/name" into its parts.
func SplitRepo(repo string) (owner, name string, err error) {
	owner, name, ok := strings.Cut(repo, "/")
	if !ok || owner == "" || name == "" || strings.Contains(name, "/") {
		return "", "", errs.New(errs.ConfigInvalid, "Invalid repo '%s'", repo).
			WithHint("Expected format 'owner/repo'.")
	}
	return owner, name, nil
}
