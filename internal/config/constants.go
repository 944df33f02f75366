package config

// Descriptor keys.
const (
	keyRepo        = "repo"
	keyArchive     = "archive"
	keyBinary      = "binary"
	keyInstallAs   = "install_as"
	keyAsset       = "asset"
	keyVersion     = "version"
	keyChecksums   = "checksums"
	keySignature   = "signature"
	keyPostInstall = "post_install"
	keyVerify      = "verify"

	keySigAsset   = "asset"
	keySigKeyring = "keyring"

	keyHookCommand  = "command"
	keyHookLua      = "lua"
	keyHookCallback = "callback"
)

var descriptorKeys = []string{
	keyRepo, keyArchive, keyBinary, keyInstallAs, keyAsset, keyVersion,
	keyChecksums, keySignature, keyPostInstall, keyVerify,
}

// Descriptor file extensions, in lookup order.
var descriptorExts = []string{".toml", ".yaml", ".yml"}

// Settings keys.
const (
	SettingBinDir            = "bin_dir"
	SettingPackagesDir       = "packages_dir"
	SettingStateDir          = "state_dir"
	SettingToken             = "token"
	SettingAPIURL            = "api_url"
	SettingSkipChecksumDrift = "skip_checksum_drift"
	SettingNoTokenWarning    = "no_token_warning"
)

// Environment variables mapped onto settings.
var settingsEnv = map[string]string{
	"GHREL_BIN":                 SettingBinDir,
	"GHREL_PACKAGES_DIR":        SettingPackagesDir,
	"GHREL_STATE_DIR":           SettingStateDir,
	"GITHUB_TOKEN":              SettingToken,
	"GHREL_API_URL":             SettingAPIURL,
	"GHREL_SKIP_CHECKSUM_DRIFT": SettingSkipChecksumDrift,
	"GHREL_NO_TOKEN_WARNING":    SettingNoTokenWarning,
}

// EnvConfigFile overrides the settings file location.
const EnvConfigFile = "GHREL_CONFIG"
