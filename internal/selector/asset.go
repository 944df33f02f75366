// Package selector picks the release asset for a package and locates the
// binary inside an extracted archive.
//
// Every resolution must produce exactly one candidate. Zero candidates is
// an errs.NoMatch error and several is errs.AmbiguousSelection; the first
// match is never picked silently.
package selector

import (
	"fmt"
	"path"
	"sort"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"

	"github.com/samuelstevens/ghrel/internal/config"
	"github.com/samuelstevens/ghrel/internal/errs"
	"github.com/samuelstevens/ghrel/internal/github"
	"github.com/samuelstevens/ghrel/internal/platform"
)

// SelectAsset returns the single asset of release that pkg should install
// on info's platform.
func SelectAsset(pkg *config.PackageConfig, release *github.Release, info *platform.Info) (github.ReleaseAsset, error) {
	if pkg.Asset.IsSet() {
		pattern, err := resolvePattern(pkg.Asset, info.Key(), "asset")
		if err != nil {
			return github.ReleaseAsset{}, err
		}
		matches, err := matchByPattern(release.Assets, pattern)
		if err != nil {
			return github.ReleaseAsset{}, err
		}
		return requireOne(matches, pattern, pkg.Repo, release.Tag)
	}

	matches := matchByPlatform(release.Assets, info)
	return requireOne(matches, "", pkg.Repo, release.Tag)
}

// resolvePattern picks the pattern for key from spec. what names the
// setting ("asset" or "binary") in error messages.
func resolvePattern(spec config.PatternSpec, key, what string) (string, error) {
	if !spec.IsMapping() {
		return spec.Literal, nil
	}
	if p, ok := spec.ByPlatform[key]; ok {
		return p, nil
	}

	keys := spec.Keys()
	if len(keys) == 0 {
		return "", errs.New(errs.NoMatch, "Platform '%s' not found in empty %s dict", key, what).
			WithHint("Add a '%s' key to the %s mapping.", key, what)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Closest matches: %s\n", quoteList(closestKeys(key, keys, 2)))
	fmt.Fprintf(&b, "Available keys: %s\n", quoteList(keys))
	fmt.Fprintf(&b, "Add a '%s' key to the %s mapping.", key, what)
	return "", errs.New(errs.NoMatch, "Platform '%s' not found in %s dict", key, what).
		WithHint("%s", b.String())
}

// closestKeys returns up to n keys ordered by edit distance to target.
func closestKeys(target string, keys []string, n int) []string {
	ranked := append([]string(nil), keys...)
	sort.SliceStable(ranked, func(i, j int) bool {
		di := fuzzy.LevenshteinDistance(target, ranked[i])
		dj := fuzzy.LevenshteinDistance(target, ranked[j])
		if di != dj {
			return di < dj
		}
		return ranked[i] < ranked[j]
	})
	if len(ranked) > n {
		ranked = ranked[:n]
	}
	return ranked
}

func quoteList(items []string) string {
	quoted := make([]string, len(items))
	for i, s := range items {
		quoted[i] = "'" + s + "'"
	}
	return strings.Join(quoted, ", ")
}

func matchByPattern(assets []github.ReleaseAsset, pattern string) ([]github.ReleaseAsset, error) {
	var matches []github.ReleaseAsset
	for _, a := range assets {
		ok, err := path.Match(pattern, a.Name)
		if err != nil {
			return nil, errs.Wrap(errs.ConfigInvalid, err, "Invalid asset pattern '%s'", pattern).
				WithHint("Use shell glob syntax: *, ? and [abc].")
		}
		if ok {
			matches = append(matches, a)
		}
	}
	return matches, nil
}

// matchByPlatform keeps assets whose lower-cased name contains at least
// one OS alias and at least one architecture alias.
func matchByPlatform(assets []github.ReleaseAsset, info *platform.Info) []github.ReleaseAsset {
	osKeys := info.OSAliases()
	archKeys := info.ArchAliases()

	var matches []github.ReleaseAsset
	for _, a := range assets {
		name := strings.ToLower(a.Name)
		if containsAny(name, osKeys) && containsAny(name, archKeys) {
			matches = append(matches, a)
		}
	}
	return matches
}

func containsAny(s string, keys []string) bool {
	for _, k := range keys {
		if strings.Contains(s, k) {
			return true
		}
	}
	return false
}

func requireOne(matches []github.ReleaseAsset, pattern, repo, tag string) (github.ReleaseAsset, error) {
	switch len(matches) {
	case 1:
		return matches[0], nil
	case 0:
		if pattern != "" {
			return github.ReleaseAsset{}, errs.New(errs.NoMatch, "No assets match pattern '%s' for %s %s", pattern, repo, tag).
				WithHint("Make the pattern less specific, or check the release assets.")
		}
		return github.ReleaseAsset{}, errs.New(errs.NoMatch, "No assets match platform for %s %s", repo, tag).
			WithHint("Set an explicit asset pattern in the package file.")
	}

	names := make([]string, len(matches))
	for i, m := range matches {
		names[i] = m.Name
	}
	if pattern != "" {
		return github.ReleaseAsset{}, errs.New(errs.AmbiguousSelection, "Multiple assets match '%s' for %s %s:%s", pattern, repo, tag, bullets(names)).
			WithHint("Make the pattern more specific.")
	}
	return github.ReleaseAsset{}, errs.New(errs.AmbiguousSelection, "Multiple assets match platform for %s %s:%s", repo, tag, bullets(names)).
		WithHint("Set an explicit asset pattern in the package file.")
}

// bullets renders items as "\n  - item" lines.
func bullets(items []string) string {
	var b strings.Builder
	for _, it := range items {
		b.WriteString("\n  - ")
		b.WriteString(it)
	}
	return b.String()
}
