package config

import (
	"bytes"
	"path/filepath"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/adrg/xdg"
	"github.com/lithammer/fuzzysearch/fuzzy"
	"gopkg.in/yaml.v3"

	"github.com/samuelstevens/ghrel/internal/errs"
	"github.com/samuelstevens/ghrel/internal/github"
	"github.com/samuelstevens/ghrel/internal/hooks"
)

// ParseDescriptor decodes and validates one descriptor. path selects the
// syntax by extension and names the package by its stem.
func ParseDescriptor(path string, data []byte) (*PackageConfig, error) {
	raw, err := decode(path, data)
	if err != nil {
		return nil, err
	}

	r := &fieldReader{path: path, raw: raw}
	if err := r.checkKeys(); err != nil {
		return nil, err
	}

	pkg := &PackageConfig{
		Name: strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)),
		Path: path,
	}

	repo, ok, err := r.str(keyRepo)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, r.invalid("Missing required key '%s' in %s", keyRepo, path)
	}
	if _, _, err := github.SplitRepo(repo); err != nil {
		return nil, r.invalid("Invalid repo '%s' in %s", repo, path).
			WithHint("Expected format 'owner/repo'.")
	}
	pkg.Repo = repo

	if pkg.Archive, err = r.boolean(keyArchive, true); err != nil {
		return nil, err
	}

	if pkg.Binary, err = r.pattern(keyBinary); err != nil {
		return nil, err
	}
	if pkg.Archive && !pkg.Binary.IsSet() {
		return nil, r.invalid("Missing required key '%s' in %s", keyBinary, path).
			WithHint("Archive packages must name the executable inside the archive, or set archive = false.")
	}

	installAs, ok, err := r.str(keyInstallAs)
	if err != nil {
		return nil, err
	}
	if ok {
		if installAs == "" {
			return nil, r.invalid("Invalid install_as '%s' in %s", installAs, path).
				WithHint("install_as must be a non-empty filename.")
		}
		if strings.ContainsAny(installAs, `/\`) {
			return nil, r.invalid("Invalid install_as '%s' in %s", installAs, path).
				WithHint("install_as must be a filename, not a path.")
		}
		pkg.InstallAs = installAs
	}

	if pkg.Asset, err = r.pattern(keyAsset); err != nil {
		return nil, err
	}
	if pkg.Version, _, err = r.str(keyVersion); err != nil {
		return nil, err
	}
	if pkg.Checksums, _, err = r.str(keyChecksums); err != nil {
		return nil, err
	}
	if pkg.Signature, err = r.signature(); err != nil {
		return nil, err
	}
	if pkg.PostInstall, err = r.hook(keyPostInstall); err != nil {
		return nil, err
	}
	if pkg.Verify, err = r.hook(keyVerify); err != nil {
		return nil, err
	}

	return pkg, nil
}

func decode(path string, data []byte) (map[string]interface{}, error) {
	raw := map[string]interface{}{}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		if _, err := toml.Decode(string(data), &raw); err != nil {
			return nil, errs.Wrap(errs.ConfigInvalid, err, "Failed to parse %s: %v", path, err).WithPath(path)
		}
	case ".yaml", ".yml":
		if len(bytes.TrimSpace(data)) == 0 {
			return raw, nil
		}
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil, errs.Wrap(errs.ConfigInvalid, err, "Failed to parse %s: %v", path, err).WithPath(path)
		}
	default:
		return nil, errs.New(errs.ConfigInvalid, "Unsupported descriptor format: %s", path).
			WithPath(path).
			WithHint("Use a .toml, .yaml or .yml file.")
	}
	return raw, nil
}

// fieldReader pulls typed values out of a decoded descriptor.
type fieldReader struct {
	path string
	raw  map[string]interface{}
}

func (r *fieldReader) invalid(format string, args ...any) *errs.Error {
	return errs.New(errs.ConfigInvalid, format, args...).WithPath(r.path)
}

func (r *fieldReader) typeErr(key, want string) error {
	return r.invalid("Invalid type for '%s' in %s (expected %s)", key, r.path, want)
}

// checkKeys rejects keys the descriptor format does not define.
func (r *fieldReader) checkKeys() error {
	known := make(map[string]bool, len(descriptorKeys))
	for _, k := range descriptorKeys {
		known[k] = true
	}

	var unknown []string
	for k := range r.raw {
		if !known[k] {
			unknown = append(unknown, k)
		}
	}
	if len(unknown) == 0 {
		return nil
	}
	sort.Strings(unknown)

	key := unknown[0]
	e := r.invalid("Unknown key '%s' in %s", key, r.path)
	if guess := closestKey(key, descriptorKeys); guess != "" {
		return e.WithHint("Did you mean '%s'?", guess)
	}
	return e.WithHint("Valid keys: %s", strings.Join(descriptorKeys, ", "))
}

// closestKey returns the candidate within edit distance 3 of key, if any.
func closestKey(key string, candidates []string) string {
	best, bestDist := "", 4
	for _, c := range candidates {
		if d := fuzzy.LevenshteinDistance(key, c); d < bestDist {
			best, bestDist = c, d
		}
	}
	return best
}

func (r *fieldReader) str(key string) (string, bool, error) {
	v, ok := r.raw[key]
	if !ok || v == nil {
		return "", false, nil
	}
	s, isStr := v.(string)
	if !isStr {
		return "", false, r.typeErr(key, "string")
	}
	return s, true, nil
}

func (r *fieldReader) boolean(key string, def bool) (bool, error) {
	v, ok := r.raw[key]
	if !ok || v == nil {
		return def, nil
	}
	b, isBool := v.(bool)
	if !isBool {
		return false, r.typeErr(key, "bool")
	}
	return b, nil
}

// pattern reads a string or a platform-keyed table of strings.
func (r *fieldReader) pattern(key string) (PatternSpec, error) {
	v, ok := r.raw[key]
	if !ok || v == nil {
		return PatternSpec{}, nil
	}
	switch val := v.(type) {
	case string:
		if val == "" {
			return PatternSpec{}, nil
		}
		return PatternSpec{Literal: val}, nil
	case map[string]interface{}:
		m := make(map[string]string, len(val))
		for platformKey, pv := range val {
			s, isStr := pv.(string)
			if !isStr {
				return PatternSpec{}, r.typeErr(key+"."+platformKey, "string")
			}
			m[platformKey] = s
		}
		return PatternSpec{ByPlatform: m}, nil
	default:
		return PatternSpec{}, r.typeErr(key, "string or table")
	}
}

func (r *fieldReader) table(key string) (map[string]interface{}, bool, error) {
	v, ok := r.raw[key]
	if !ok || v == nil {
		return nil, false, nil
	}
	m, isMap := v.(map[string]interface{})
	if !isMap {
		return nil, false, r.typeErr(key, "table")
	}
	return m, true, nil
}

func (r *fieldReader) signature() (*SignatureSpec, error) {
	m, ok, err := r.table(keySignature)
	if err != nil || !ok {
		return nil, err
	}
	sub := &fieldReader{path: r.path, raw: m}
	for k := range m {
		if k != keySigAsset && k != keySigKeyring {
			return nil, r.invalid("Unknown key '%s.%s' in %s", keySignature, k, r.path).
				WithHint("signature takes 'asset' and 'keyring'.")
		}
	}

	asset, ok, err := sub.str(keySigAsset)
	if err != nil {
		return nil, err
	}
	if !ok || asset == "" {
		return nil, r.invalid("Missing '%s.%s' in %s", keySignature, keySigAsset, r.path)
	}
	keyring, ok, err := sub.str(keySigKeyring)
	if err != nil {
		return nil, err
	}
	if !ok || keyring == "" {
		return nil, r.invalid("Missing '%s.%s' in %s", keySignature, keySigKeyring, r.path)
	}

	return &SignatureSpec{Asset: asset, Keyring: resolveRelative(keyring, filepath.Dir(r.path))}, nil
}

// resolveRelative expands "~/" and anchors relative paths at base.
func resolveRelative(p, base string) string {
	if p == "~" {
		return xdg.Home
	}
	if strings.HasPrefix(p, "~/") {
		return filepath.Join(xdg.Home, p[2:])
	}
	if filepath.IsAbs(p) {
		return filepath.Clean(p)
	}
	return filepath.Join(base, p)
}

func (r *fieldReader) hook(key string) (*hooks.Spec, error) {
	m, ok, err := r.table(key)
	if err != nil || !ok {
		return nil, err
	}

	spec := &hooks.Spec{}
	for k, v := range m {
		switch k {
		case keyHookCommand:
			switch cmd := v.(type) {
			case string:
				spec.Command = []string{"sh", "-c", cmd}
			case []interface{}:
				for _, arg := range cmd {
					s, isStr := arg.(string)
					if !isStr {
						return nil, r.typeErr(key+"."+k, "list of strings")
					}
					spec.Command = append(spec.Command, s)
				}
			default:
				return nil, r.typeErr(key+"."+k, "string or list of strings")
			}
		case keyHookLua, keyHookCallback:
			s, isStr := v.(string)
			if !isStr {
				return nil, r.typeErr(key+"."+k, "string")
			}
			if k == keyHookLua {
				spec.Lua = s
			} else {
				spec.Callback = s
			}
		default:
			return nil, r.invalid("Unknown key '%s.%s' in %s", key, k, r.path).
				WithHint("Hooks take one of 'command', 'lua' or 'callback'.")
		}
	}

	if err := spec.Validate(); err != nil {
		return nil, errs.Wrap(errs.ConfigInvalid, err, "Invalid %s hook in %s: %v", key, r.path, err).WithPath(r.path)
	}
	return spec, nil
}
