// Package config provides application settings loaded from an optional
// YAML file and environment variables.
//
// Settings are created via New() which handles:
// - Default value application
// - YAML file parsing when a config file is given
// - Environment variable parsing with validation (highest precedence)

package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"

	"aeropolar/geom"
	"aeropolar/solver"
)

// Settings holds all application configuration.
type Settings struct {
	Bridge BridgeConfig
	Cache  CacheConfig
	Server ServerConfig

	LogLevel string
}

// BridgeConfig configures the embedded solver runtime.
type BridgeConfig struct {
	// Root is the bridge installation directory: the interpreter GOPATH
	// lives at <root>/gopath and the bridge script at
	// <root>/bridge/neuralfoil_bridge.go. Empty selects the solver's
	// ~/.aeropolar default.
	Root      string
	ModelSize solver.ModelSize

	// Default analysis parameters applied when a request leaves them
	// unset. Trip locations of 1.0 mean free transition.
	NCrit    float64
	XTripTop float64
	XTripBot float64
}

// CacheConfig configures mesh caching and persistence.
type CacheConfig struct {
	FingerprintMode geom.FingerprintMode
	DatabasePath    string
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	ListenAddr string
}

// fileSettings is the YAML layer. Every field is optional; zero values
// fall through to the defaults.
type fileSettings struct {
	BridgeRoot      string  `yaml:"bridge_root"`
	ModelSize       string  `yaml:"model_size"`
	NCrit           float64 `yaml:"ncrit"`
	XTripTop        float64 `yaml:"xtr_top"`
	XTripBot        float64 `yaml:"xtr_bot"`
	FingerprintMode string  `yaml:"fingerprint"`
	DatabasePath    string  `yaml:"database"`
	ListenAddr      string  `yaml:"listen_addr"`
	LogLevel        string  `yaml:"log_level"`
}

// New creates settings from defaults and environment variables.
// Returns an error if an environment variable contains an invalid value.
func New() (Settings, error) {
	return Load("")
}

// Load creates settings from defaults, the YAML file at path (when not
// empty), and environment variables, in increasing precedence.
func Load(path string) (Settings, error) {
	s := defaults()

	if path != "" {
		if err := applyFile(&s, path); err != nil {
			return Settings{}, err
		}
	}
	if err := applyEnv(&s); err != nil {
		return Settings{}, err
	}
	return s, nil
}

// MustNew creates settings from defaults and environment variables.
// Panics on invalid values. Use this only when configuration errors
// should be fatal.
func MustNew() Settings {
	s, err := New()
	if err != nil {
		panic(fmt.Sprintf("config: %v", err))
	}
	return s
}

func defaults() Settings {
	return Settings{
		Bridge: BridgeConfig{
			ModelSize: solver.DefaultModelSize,
			NCrit:     9.0,
			XTripTop:  1.0,
			XTripBot:  1.0,
		},
		Cache: CacheConfig{
			FingerprintMode: geom.FingerprintSampled,
			DatabasePath:    filepath.Join(".aeropolar", "aeropolar.db"),
		},
		Server: ServerConfig{
			ListenAddr: ":8080",
		},
		LogLevel: "info",
	}
}

func applyFile(s *Settings, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config file: %w", err)
	}
	var f fileSettings
	if err := yaml.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("parsing config file %s: %w", path, err)
	}

	if f.BridgeRoot != "" {
		s.Bridge.Root = f.BridgeRoot
	}
	if f.ModelSize != "" {
		m, err := solver.ParseModelSize(f.ModelSize)
		if err != nil {
			return fmt.Errorf("config file %s: %w", path, err)
		}
		s.Bridge.ModelSize = m
	}
	if f.NCrit != 0 {
		s.Bridge.NCrit = f.NCrit
	}
	if f.XTripTop != 0 {
		s.Bridge.XTripTop = f.XTripTop
	}
	if f.XTripBot != 0 {
		s.Bridge.XTripBot = f.XTripBot
	}
	if f.FingerprintMode != "" {
		m, err := geom.ParseFingerprintMode(f.FingerprintMode)
		if err != nil {
			return fmt.Errorf("config file %s: %w", path, err)
		}
		s.Cache.FingerprintMode = m
	}
	if f.DatabasePath != "" {
		s.Cache.DatabasePath = f.DatabasePath
	}
	if f.ListenAddr != "" {
		s.Server.ListenAddr = f.ListenAddr
	}
	if f.LogLevel != "" {
		s.LogLevel = f.LogLevel
	}
	return nil
}

func applyEnv(s *Settings) error {
	if v := os.Getenv("AEROPOLAR_BRIDGE_ROOT"); v != "" {
		s.Bridge.Root = v
	}
	if v := os.Getenv("AEROPOLAR_MODEL_SIZE"); v != "" {
		m, err := solver.ParseModelSize(v)
		if err != nil {
			return fmt.Errorf("AEROPOLAR_MODEL_SIZE: %w", err)
		}
		s.Bridge.ModelSize = m
	}
	if v := os.Getenv("AEROPOLAR_FINGERPRINT"); v != "" {
		m, err := geom.ParseFingerprintMode(v)
		if err != nil {
			return fmt.Errorf("AEROPOLAR_FINGERPRINT: %w", err)
		}
		s.Cache.FingerprintMode = m
	}
	if v := os.Getenv("AEROPOLAR_DB"); v != "" {
		s.Cache.DatabasePath = v
	}
	if v := os.Getenv("AEROPOLAR_ADDR"); v != "" {
		s.Server.ListenAddr = v
	}
	if v := os.Getenv("AEROPOLAR_LOG_LEVEL"); v != "" {
		s.LogLevel = v
	}

	var err error
	if s.Bridge.NCrit, err = getEnvFloat64("AEROPOLAR_NCRIT", s.Bridge.NCrit); err != nil {
		return err
	}
	if s.Bridge.XTripTop, err = getEnvFloat64("AEROPOLAR_XTR_TOP", s.Bridge.XTripTop); err != nil {
		return err
	}
	if s.Bridge.XTripBot, err = getEnvFloat64("AEROPOLAR_XTR_BOT", s.Bridge.XTripBot); err != nil {
		return err
	}
	return nil
}

// Environment variable helpers with proper error handling

func getEnvFloat64(key string, defaultVal float64) (float64, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	f, err := strconv.ParseFloat(val, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid value for %s: %q: %w", key, val, err)
	}
	return f, nil
}
