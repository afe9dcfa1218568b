// Package config loads the platform's persisted settings from
// ~/.openbb_platform and the OPENBB_ environment namespace.
package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	settingsDirName    = ".openbb_platform"
	userSettingsFile   = "user_settings.json"
	systemSettingsFile = "system_settings.json"

	envPrefix = "OPENBB_"
)

// RouteDefault is the user's preferred provider for one route.
type RouteDefault struct {
	Provider string `json:"provider" mapstructure:"provider"`
}

// Defaults holds user-configured routing preferences.
type Defaults struct {
	Routes map[string]RouteDefault `json:"routes" mapstructure:"routes"`
}

// UserSettings mirrors user_settings.json.
type UserSettings struct {
	Credentials map[string]string `json:"credentials" mapstructure:"credentials"`
	Preferences map[string]string `json:"preferences" mapstructure:"preferences"`
	Defaults    Defaults          `json:"defaults" mapstructure:"defaults"`
	Profile     map[string]any    `json:"profile" mapstructure:"profile"`
}

// RouteDefaults flattens the route preference map for the dispatcher.
func (u UserSettings) RouteDefaults() map[string]string {
	out := make(map[string]string, len(u.Defaults.Routes))
	for route, d := range u.Defaults.Routes {
		if d.Provider != "" {
			out[route] = d.Provider
		}
	}
	return out
}

// APISettings configures the HTTP surface.
type APISettings struct {
	Host        string   `json:"host" mapstructure:"host"`
	Port        int      `json:"port" mapstructure:"port"`
	Username    string   `json:"username" mapstructure:"username"`
	Password    string   `json:"password" mapstructure:"password"`
	CORSOrigins []string `json:"cors_origins" mapstructure:"cors_origins"`
}

// SystemSettings mirrors system_settings.json.
type SystemSettings struct {
	LogCollect  bool        `json:"log_collect" mapstructure:"log_collect"`
	DebugMode   bool        `json:"debug_mode" mapstructure:"debug_mode"`
	TestMode    bool        `json:"test_mode" mapstructure:"test_mode"`
	APISettings APISettings `json:"api_settings" mapstructure:"api_settings"`
}

// Settings is the full loaded configuration.
type Settings struct {
	User   UserSettings
	System SystemSettings
}

// Dir returns the settings directory, honoring OPENBB_USER_DATA_DIRECTORY.
func Dir() string {
	if d := os.Getenv(envPrefix + "USER_DATA_DIRECTORY"); d != "" {
		return d
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return settingsDirName
	}
	return filepath.Join(home, settingsDirName)
}

// Load reads both settings files (each optional) and overlays the OPENBB_
// environment: reserved variables map onto system/API settings, every other
// OPENBB_<NAME> variable becomes credential <name>.
func Load() (*Settings, error) {
	dir := Dir()

	var s Settings
	if err := loadFile(filepath.Join(dir, userSettingsFile), userDefaults, &s.User); err != nil {
		return nil, err
	}
	if err := loadFile(filepath.Join(dir, systemSettingsFile), systemDefaults, &s.System); err != nil {
		return nil, err
	}

	if s.User.Credentials == nil {
		s.User.Credentials = make(map[string]string)
	}
	applyEnv(&s)

	return &s, nil
}

func userDefaults(v *viper.Viper) {
	v.SetDefault("credentials", map[string]string{})
	v.SetDefault("preferences", map[string]string{})
	v.SetDefault("defaults.routes", map[string]RouteDefault{})
}

func systemDefaults(v *viper.Viper) {
	v.SetDefault("log_collect", true)
	v.SetDefault("debug_mode", false)
	v.SetDefault("test_mode", false)
	v.SetDefault("api_settings.host", "127.0.0.1")
	v.SetDefault("api_settings.port", 8000)
	v.SetDefault("api_settings.cors_origins", []string{"*"})
}

func loadFile(path string, defaults func(*viper.Viper), out any) error {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("json")
	defaults(v)

	if err := v.ReadInConfig(); err != nil {
		// Settings files are optional; anything else is a real failure.
		if !os.IsNotExist(err) {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return eris.Wrapf(err, "config: read %s", path)
			}
		}
	}

	if err := v.Unmarshal(out); err != nil {
		return eris.Wrapf(err, "config: unmarshal %s", path)
	}
	return nil
}

func applyEnv(s *Settings) {
	for _, kv := range os.Environ() {
		k, val, ok := strings.Cut(kv, "=")
		if !ok || !strings.HasPrefix(k, envPrefix) {
			continue
		}
		name := strings.TrimPrefix(k, envPrefix)
		switch name {
		case "DEBUG_MODE":
			s.System.DebugMode = isTruthy(val)
		case "TEST_MODE":
			s.System.TestMode = isTruthy(val)
		case "LOG_COLLECT":
			s.System.LogCollect = isTruthy(val)
		case "API_USERNAME":
			s.System.APISettings.Username = val
		case "API_PASSWORD":
			s.System.APISettings.Password = val
		case "USER_DATA_DIRECTORY":
			// Consumed by Dir.
		default:
			s.User.Credentials[strings.ToLower(name)] = val
		}
	}
}

func isTruthy(v string) bool {
	switch strings.ToLower(v) {
	case "1", "true", "yes", "on":
		return true
	default:
		return false
	}
}

// InitLogger initializes the global zap logger. Debug mode switches to the
// development config with console output.
func InitLogger(s SystemSettings) error {
	var zapCfg zap.Config
	if s.DebugMode {
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.Level.SetLevel(zapcore.DebugLevel)
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
