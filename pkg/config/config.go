// pkg/config/config.go
package config

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/v2"
	"github.com/rs/zerolog/log"
	"github.com/spf13/pflag"
)

// DefaultDefinitionsPath is where the definitions file is looked up by default.
const DefaultDefinitionsPath = "busmock.yml"

// EnvPrefix is the prefix of environment variables mapped onto config keys.
const EnvPrefix = "BUSMOCK_"

var validate = validator.New()

// Global Koanf instance, initialized once at startup.
var (
	k    *koanf.Koanf
	once sync.Once
)

// InitGlobalConfig initializes the global Koanf instance.
// This should be called early in the application lifecycle, before Load.
func InitGlobalConfig() {
	once.Do(func() {
		k = koanf.New(".")
	})
}

// Manager handles loading and accessing application configuration.
type Manager struct {
	koanfInstance *koanf.Koanf
	currentConfig Config
	mu            sync.RWMutex
}

// NewManager creates a new Manager backed by the global Koanf instance.
func NewManager() *Manager {
	InitGlobalConfig()
	return &Manager{
		koanfInstance: k,
		currentConfig: DefaultConfig(),
	}
}

// DefaultConfig returns a new Config struct populated with hardcoded default values.
// These serve as the baseline configuration if no other sources override them.
func DefaultConfig() Config {
	return Config{
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Server: DefaultServerConfig(),
		Bus: BusConfig{
			Account: "000000000000",
			Region:  "us-east-1",
		},
		Retry: RetryConfig{
			MaxAttempts:    11,
			Delay:          500 * time.Millisecond,
			ThrowExhausted: true,
		},
		Definitions: DefinitionsConfig{
			Path: DefaultDefinitionsPath,
		},
	}
}

// Load loads configuration from the standard sources: defaults, the config
// file, BUSMOCK_* environment variables and flags, in that order.
func (m *Manager) Load(flags *pflag.FlagSet, customConfigFilePath string) error {
	debug := false
	if flags != nil {
		if f := flags.Lookup("debug"); f != nil && f.Value.String() == "true" {
			debug = true
		}
	}
	return m.LoadSources(DefaultSources(customConfigFilePath, flags, debug)...)
}

// LoadSources loads the given sources in priority order, then unmarshals and
// validates the merged result.
func (m *Manager) LoadSources(sources ...ConfigSource) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	sorted := append([]ConfigSource(nil), sources...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Priority() < sorted[j].Priority() })

	for _, src := range sorted {
		if err := src.Load(m.koanfInstance); err != nil {
			return fmt.Errorf("config source %s: %w", src.Name(), err)
		}
		log.Debug().Str("component", "config").Str("source", src.Name()).Msg("Config source loaded")
	}

	var newCfg Config
	if err := m.koanfInstance.UnmarshalWithConf("", &newCfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return fmt.Errorf("error unmarshaling final config: %w", err)
	}

	if err := Validate(newCfg); err != nil {
		return err
	}
	m.currentConfig = newCfg
	return nil
}

// Get returns a copy of the current configuration.
func (m *Manager) Get() Config {
	m.mu.RLock()
	defer m.mu.RUnlock()
	cfg := m.currentConfig
	if cfg.Bus.Imported != nil {
		imported := make(map[string]string, len(cfg.Bus.Imported))
		for key, v := range cfg.Bus.Imported {
			imported[key] = v
		}
		cfg.Bus.Imported = imported
	}
	return cfg
}

// Validate checks struct constraints and the payload limit.
func Validate(cfg Config) error {
	if err := validate.Struct(cfg); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if _, err := cfg.Server.PayloadLimitBytes(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// DefaultConfigAsMap converts the DefaultConfig struct to a map for Koanf's
// confmap.Provider, so that Koanf knows every key.
func DefaultConfigAsMap() map[string]interface{} {
	def := DefaultConfig()
	return map[string]interface{}{
		"log.level":  def.Log.Level,
		"log.format": def.Log.Format,

		"server.addr":             def.Server.Addr,
		"server.port":             def.Server.Port,
		"server.payload_limit":    def.Server.PayloadLimit,
		"server.queue_size":       def.Server.QueueSize,
		"server.concurrency":      def.Server.Concurrency,
		"server.sync_dispatch":    def.Server.SyncDispatch,
		"server.state_dir":        def.Server.StateDir,
		"server.read_timeout":     def.Server.ReadTimeout,
		"server.write_timeout":    def.Server.WriteTimeout,
		"server.invoke_timeout":   def.Server.InvokeTimeout,
		"server.shutdown_timeout": def.Server.ShutdownTimeout,

		"bus.name":    def.Bus.Name,
		"bus.account": def.Bus.Account,
		"bus.region":  def.Bus.Region,

		"retry.max_attempts":    def.Retry.MaxAttempts,
		"retry.delay":           def.Retry.Delay,
		"retry.throw_exhausted": def.Retry.ThrowExhausted,

		"definitions.path": def.Definitions.Path,
	}
}

// BindFlags defines the global flags shared by every command.
// The --config / -c flag is defined on the root command itself.
func BindFlags(flags *pflag.FlagSet) {
	var flagvar bool
	flags.BoolVar(&flagvar, "debug", false, "Enable debug logging")
}
