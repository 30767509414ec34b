package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/spf13/viper"
)

/**
 * Control server configuration parameters
 * @property {string} address - Control API listening address (e.g. "127.0.0.1:8499")
 * @property {string} mode - gin mode (debug/release/test)
 */
type ServerConfig struct {
	Address string `mapstructure:"address"`
	Mode    string `mapstructure:"mode"`
}

/**
 * Logging configuration
 * @property {string} level - Log level (debug/info/warn/error)
 * @property {string} path - Log file path, "console" or empty for the default file
 */
type LogConfig struct {
	Level string `mapstructure:"level"`
	Path  string `mapstructure:"path"`
}

/**
 * Supervisor timing configuration
 * @property {time.Duration} gracePeriod - Time allowed for graceful termination before a forced kill
 * @property {time.Duration} healthCheckDelay - Delay of the one-shot early crash check
 * @property {time.Duration} drainTimeout - How long server output may stay open after the process exited
 * @property {time.Duration} promptTimeout - How long the CLI waits for a port on stdin
 * @property {int} historyLines - Number of server output lines kept for diagnosis
 */
type SupervisorConfig struct {
	GracePeriod      time.Duration `mapstructure:"grace_period"`
	HealthCheckDelay time.Duration `mapstructure:"health_check_delay"`
	DrainTimeout     time.Duration `mapstructure:"drain_timeout"`
	PromptTimeout    time.Duration `mapstructure:"prompt_timeout"`
	HistoryLines     int           `mapstructure:"history_lines"`
}

/**
 * Launched application configuration
 * @property {string} baseDir - Explicit bundle directory, skips detection when set
 * @property {string} nodeExe - Node.js executable file name inside the nodejs folder
 * @property {map[string]string} env - Extra environment variables, values are templates ({{.Port}}, {{.BaseDir}})
 * @property {bool} openBrowser - Open the browser once the server is confirmed alive
 * @property {time.Duration} browserDelay - Delay between the health check and opening the browser
 */
type AppSection struct {
	BaseDir      string            `mapstructure:"base_dir"`
	NodeExe      string            `mapstructure:"node_exe"`
	Env          map[string]string `mapstructure:"env"`
	OpenBrowser  bool              `mapstructure:"open_browser"`
	BrowserDelay time.Duration     `mapstructure:"browser_delay"`
}

type MetricsConfig struct {
	Enabled      bool          `mapstructure:"enabled"`
	Path         string        `mapstructure:"path"`
	Pushgateway  string        `mapstructure:"pushgateway"`
	PushInterval time.Duration `mapstructure:"push_interval"`
}

var ErrConfigNotLoaded = errors.New("configuration not loaded")

type AppConfig struct {
	Server     ServerConfig     `mapstructure:"server"`
	Log        LogConfig        `mapstructure:"log"`
	Supervisor SupervisorConfig `mapstructure:"supervisor"`
	App        AppSection       `mapstructure:"app"`
	Metrics    MetricsConfig    `mapstructure:"metrics"`
}

const (
	ConfigName = "launcher"
	EnvPrefix  = "HANDOVER"
)

var (
	cfgMutex sync.RWMutex
	Config   AppConfig
)

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.address", "127.0.0.1:8499")
	v.SetDefault("server.mode", "release")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.path", "")
	v.SetDefault("supervisor.grace_period", 5*time.Second)
	v.SetDefault("supervisor.health_check_delay", 2*time.Second)
	v.SetDefault("supervisor.drain_timeout", 2*time.Second)
	v.SetDefault("supervisor.prompt_timeout", 10*time.Second)
	v.SetDefault("supervisor.history_lines", 500)
	v.SetDefault("app.base_dir", "")
	v.SetDefault("app.node_exe", defaultNodeExe())
	v.SetDefault("app.open_browser", false)
	v.SetDefault("app.browser_delay", 3*time.Second)
	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.path", "/metrics")
	v.SetDefault("metrics.pushgateway", "")
	v.SetDefault("metrics.push_interval", time.Minute)
}

/**
 * Build a viper instance bound to launcher.yaml and HANDOVER_* variables
 * @param {[]string} paths - Directories searched for launcher.yaml
 * @returns {*viper.Viper} Configured viper instance, not yet read
 */
func newViper(paths ...string) *viper.Viper {
	v := viper.New()
	v.SetConfigName(ConfigName)
	v.SetConfigType("yaml")
	for _, p := range paths {
		v.AddConfigPath(p)
	}
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)
	return v
}

func searchPaths() []string {
	paths := []string{"."}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".handover-launcher"))
	}
	return paths
}

/**
 * Load application configuration from launcher.yaml
 * @param {[]string} paths - Directories searched for the config file
 * @returns {*AppConfig} Loaded configuration with defaults applied
 * @returns {error} Returns error if the file exists but cannot be parsed
 * @description
 * - A missing launcher.yaml is not an error, defaults are used
 * - HANDOVER_SUPERVISOR_GRACE_PERIOD style variables override file values
 */
func LoadConfig(paths ...string) (*AppConfig, error) {
	v := newViper(paths...)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	var cfg AppConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	return normalize(&cfg), nil
}

func normalize(cfg *AppConfig) *AppConfig {
	if cfg.Supervisor.GracePeriod <= 0 {
		cfg.Supervisor.GracePeriod = 5 * time.Second
	}
	if cfg.Supervisor.HealthCheckDelay <= 0 {
		cfg.Supervisor.HealthCheckDelay = 2 * time.Second
	}
	if cfg.Supervisor.DrainTimeout <= 0 {
		cfg.Supervisor.DrainTimeout = 2 * time.Second
	}
	if cfg.Supervisor.PromptTimeout <= 0 {
		cfg.Supervisor.PromptTimeout = 10 * time.Second
	}
	if cfg.Supervisor.HistoryLines <= 0 {
		cfg.Supervisor.HistoryLines = 500
	}
	if cfg.Metrics.PushInterval <= 0 {
		cfg.Metrics.PushInterval = time.Minute
	}
	if cfg.App.NodeExe == "" {
		cfg.App.NodeExe = defaultNodeExe()
	}
	return cfg
}

// ReloadConfig re-reads launcher.yaml into the global Config
func ReloadConfig() error {
	cfg, err := LoadConfig(searchPaths()...)
	if err != nil {
		return err
	}
	cfgMutex.Lock()
	Config = *cfg
	cfgMutex.Unlock()
	return nil
}

// App returns a copy of the current global configuration
func App() AppConfig {
	cfgMutex.RLock()
	defer cfgMutex.RUnlock()
	return Config
}

func init() {
	cfg, err := LoadConfig(searchPaths()...)
	if err != nil {
		cfg = normalize(&AppConfig{})
		cfg.Server.Address = "127.0.0.1:8499"
		cfg.Log.Level = "info"
		cfg.Metrics.Enabled = true
		cfg.Metrics.Path = "/metrics"
		cfg.App.BrowserDelay = 3 * time.Second
	}
	Config = *cfg
}
