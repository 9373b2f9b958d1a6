package config

import (
	"fmt"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// Manager handles loading and accessing application configuration.
type Manager struct {
	koanfInstance *koanf.Koanf
	currentConfig Config
	mu            sync.RWMutex
}

// NewManager creates a configuration manager with an empty koanf instance.
func NewManager() *Manager {
	return &Manager{koanfInstance: koanf.New(".")}
}

// Default returns the baseline configuration used when no other source
// overrides a value.
func Default() Config {
	return Config{
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Databases: DatabasesConfig{
			Dir:    "",
			Strict: false,
			Engine: "regexp2",
		},
	}
}

func defaultAsMap() map[string]interface{} {
	defaults := Default()
	return map[string]interface{}{
		"log.level":        defaults.Log.Level,
		"log.format":       defaults.Log.Format,
		"databases.dir":    defaults.Databases.Dir,
		"databases.strict": defaults.Databases.Strict,
		"databases.engine": defaults.Databases.Engine,
	}
}

// Load merges configuration sources in precedence order: hardcoded
// defaults, then an optional YAML config file, then command-line flags.
// The merged result is validated before it becomes current.
func (m *Manager) Load(flags *pflag.FlagSet, configFilePath string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.koanfInstance.Load(confmap.Provider(defaultAsMap(), "."), nil); err != nil {
		return fmt.Errorf("load defaults: %w", err)
	}

	if configFilePath != "" {
		if err := m.koanfInstance.Load(file.Provider(configFilePath), yaml.Parser()); err != nil {
			return fmt.Errorf("load config file %s: %w", configFilePath, err)
		}
	}

	if flags != nil {
		if err := m.koanfInstance.Load(posflag.Provider(flags, ".", m.koanfInstance), nil); err != nil {
			return fmt.Errorf("load command-line flags: %w", err)
		}
	}

	var cfg Config
	if err := m.koanfInstance.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return fmt.Errorf("unmarshal config: %w", err)
	}

	if err := validator.New().Struct(cfg); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	m.currentConfig = cfg
	return nil
}

// Get returns a copy of the current configuration.
func (m *Manager) Get() Config {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.currentConfig
}

// BindFlags defines command-line flags corresponding to configuration
// keys. Flag names use the koanf key path so posflag maps them directly.
func BindFlags(flags *pflag.FlagSet) {
	defaults := Default()
	flags.String("log.level", defaults.Log.Level, "Log level (trace, debug, info, warn, error)")
	flags.String("log.format", defaults.Log.Format, "Log format (text, json)")
	flags.String("databases.dir", defaults.Databases.Dir, "Fingerprint database directory")
	flags.Bool("databases.strict", defaults.Databases.Strict, "Fail on malformed fingerprints instead of skipping them")
	flags.String("databases.engine", defaults.Databases.Engine, "Regex engine (regexp2, go)")
}
