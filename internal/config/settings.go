package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"github.com/adrg/xdg"
	kotoml "github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/samuelstevens/ghrel/internal/errs"
	"github.com/samuelstevens/ghrel/internal/github"
)

// Settings are the resolved tool settings. Paths are absolute.
type Settings struct {
	BinDir      string
	PackagesDir string
	StateDir    string
	Token       string
	APIURL      string

	SkipChecksumDrift bool
	NoTokenWarning    bool

	// ConfigFile is the settings file that was read, if any.
	ConfigFile string
}

// DefaultConfigFile returns $XDG_CONFIG_HOME/ghrel/config.toml.
func DefaultConfigFile() string {
	return filepath.Join(xdg.ConfigHome, "ghrel", "config.toml")
}

func defaults() map[string]interface{} {
	return map[string]interface{}{
		SettingBinDir:            filepath.Join(xdg.Home, ".local", "bin"),
		SettingPackagesDir:       filepath.Join(xdg.ConfigHome, "ghrel", "packages"),
		SettingStateDir:          filepath.Join(xdg.StateHome, "ghrel"),
		SettingToken:             "",
		SettingAPIURL:            github.DefaultBaseURL,
		SettingSkipChecksumDrift: "false",
		SettingNoTokenWarning:    "false",
	}
}

// LoadSettings layers defaults, the settings file and the environment.
func LoadSettings() (*Settings, error) {
	// Pick up XDG_* changes made after process start.
	xdg.Reload()

	k := koanf.New(".")
	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return nil, fmt.Errorf("load default settings: %w", err)
	}

	cfgFile := os.Getenv(EnvConfigFile)
	explicit := cfgFile != ""
	if !explicit {
		cfgFile = DefaultConfigFile()
	}
	loaded := ""
	if _, err := os.Stat(cfgFile); err == nil {
		if err := k.Load(file.Provider(cfgFile), kotoml.Parser()); err != nil {
			return nil, errs.Wrap(errs.ConfigInvalid, err, "Failed to parse %s: %v", cfgFile, err).WithPath(cfgFile)
		}
		loaded = cfgFile
	} else if explicit {
		return nil, errs.New(errs.ConfigInvalid, "Settings file does not exist: %s", cfgFile).
			WithPath(cfgFile).
			WithHint("Unset %s or point it at an existing file.", EnvConfigFile)
	}

	if err := checkSettingKeys(k, loaded); err != nil {
		return nil, err
	}

	envProvider := env.ProviderWithValue("", ".", func(key, value string) (string, interface{}) {
		setting, ok := settingsEnv[key]
		if !ok || value == "" {
			return "", nil
		}
		return setting, value
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("load environment settings: %w", err)
	}

	s := &Settings{
		Token:      k.String(SettingToken),
		APIURL:     k.String(SettingAPIURL),
		ConfigFile: loaded,
	}
	var err error
	if s.BinDir, err = absPath(k.String(SettingBinDir)); err != nil {
		return nil, err
	}
	if s.PackagesDir, err = absPath(k.String(SettingPackagesDir)); err != nil {
		return nil, err
	}
	if s.StateDir, err = absPath(k.String(SettingStateDir)); err != nil {
		return nil, err
	}
	if s.SkipChecksumDrift, err = boolSetting(k, SettingSkipChecksumDrift); err != nil {
		return nil, err
	}
	if s.NoTokenWarning, err = boolSetting(k, SettingNoTokenWarning); err != nil {
		return nil, err
	}
	return s, nil
}

func checkSettingKeys(k *koanf.Koanf, path string) error {
	known := defaults()
	keys := k.Keys()
	sort.Strings(keys)
	for _, key := range keys {
		if _, ok := known[key]; !ok {
			return errs.New(errs.ConfigInvalid, "Unknown setting '%s' in %s", key, path).
				WithPath(path).
				WithHint("Valid settings: %s", settingNames())
		}
	}
	return nil
}

func settingNames() string {
	names := make([]string, 0, len(defaults()))
	for k := range defaults() {
		names = append(names, k)
	}
	sort.Strings(names)
	return fmt.Sprint(names)
}

func boolSetting(k *koanf.Koanf, key string) (bool, error) {
	raw := k.String(key)
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return false, errs.New(errs.ConfigInvalid, "Invalid value for '%s': %q", key, raw).
			WithHint("Use true/false or 1/0.")
	}
	return b, nil
}

func absPath(p string) (string, error) {
	p = resolveRelative(p, ".")
	abs, err := filepath.Abs(p)
	if err != nil {
		return "", errs.Wrap(errs.ConfigInvalid, err, "Invalid path '%s': %v", p, err)
	}
	return abs, nil
}
