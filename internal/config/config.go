package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"facility-locator/internal/geometry"
	"facility-locator/internal/solver"
)

// EnvPrefix is prepended to every environment override, e.g. FLP_SERVER_ADDR
const EnvPrefix = "FLP"

// Config stores all configuration of the service.
// Values are layered: defaults, config file, environment, flags.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Log       LogConfig       `mapstructure:"log"`
	History   HistoryConfig   `mapstructure:"history"`
	Solver    SolverConfig    `mapstructure:"solver"`
	RateLimit RateLimitConfig `mapstructure:"ratelimit"`
}

type ServerConfig struct {
	Addr            string        `mapstructure:"addr"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type LogConfig struct {
	Level   string `mapstructure:"level"`
	Console bool   `mapstructure:"console"`
}

// HistoryConfig controls the sqlite run history
type HistoryConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// SolverConfig holds the service-wide parameter defaults. Request parameters
// override them field by field.
type SolverConfig struct {
	Probability float64 `mapstructure:"probability"`
	OpeningCost float64 `mapstructure:"opening_cost"`
	Metric      string  `mapstructure:"metric"`
	Iterations  int     `mapstructure:"iterations"`
	// Seed makes coin flips reproducible across the process; 0 leaves them unseeded
	Seed uint64 `mapstructure:"seed"`
}

type RateLimitConfig struct {
	RPS   float64 `mapstructure:"rps"`
	Burst int     `mapstructure:"burst"`
}

// OnlineParams returns the configured online defaults
func (c SolverConfig) OnlineParams() solver.OnlineParams {
	return solver.OnlineParams{
		Probability: c.Probability,
		OpeningCost: c.OpeningCost,
		Metric:      geometry.Metric(c.Metric),
	}
}

// OfflineParams returns the configured offline defaults
func (c SolverConfig) OfflineParams() solver.OfflineParams {
	return solver.OfflineParams{
		Iterations:  c.Iterations,
		OpeningCost: c.OpeningCost,
		Metric:      geometry.Metric(c.Metric),
	}
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", "127.0.0.1:8001")
	v.SetDefault("server.read_timeout", 15*time.Second)
	v.SetDefault("server.write_timeout", 60*time.Second)
	v.SetDefault("server.shutdown_timeout", 30*time.Second)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.console", false)

	v.SetDefault("history.enabled", true)
	v.SetDefault("history.path", "~/.facility-locator/runs.db")

	v.SetDefault("solver.probability", solver.DefaultProbability)
	v.SetDefault("solver.opening_cost", solver.DefaultOpeningCost)
	v.SetDefault("solver.metric", string(geometry.DefaultMetric))
	v.SetDefault("solver.iterations", solver.DefaultIterations)
	v.SetDefault("solver.seed", 0)

	v.SetDefault("ratelimit.rps", 20.0)
	v.SetDefault("ratelimit.burst", 40)
}

// flagKeys maps command-line flags onto config keys
var flagKeys = map[string]string{
	"addr":         "server.addr",
	"log-level":    "log.level",
	"log-console":  "log.console",
	"history":      "history.enabled",
	"history-path": "history.path",
	"probability":  "solver.probability",
	"opening-cost": "solver.opening_cost",
	"metric":       "solver.metric",
	"iterations":   "solver.iterations",
	"seed":         "solver.seed",
}

// AddFlags registers the command-line flags understood by Load on fs
func AddFlags(fs *pflag.FlagSet) {
	fs.String("config", "", "Path to a config file (yaml, json, toml or env)")
	fs.String("addr", "127.0.0.1:8001", "Address to listen on")
	fs.String("log-level", "info", "Log level: debug, info, warn, error")
	fs.Bool("log-console", false, "Human readable console logs instead of JSON")
	fs.Bool("history", true, "Record solver runs in the sqlite history")
	fs.String("history-path", "~/.facility-locator/runs.db", "Path of the run history database")
	fs.Float64("probability", solver.DefaultProbability, "Default opening probability scale")
	fs.Float64("opening-cost", solver.DefaultOpeningCost, "Default facility opening cost")
	fs.String("metric", string(geometry.DefaultMetric), "Default distance metric")
	fs.Int("iterations", solver.DefaultIterations, "Default offline iterations")
	fs.Uint64("seed", 0, "Seed for coin flips (0 = unseeded)")
}

// Load builds the configuration. flags may be nil; only flags that were set
// explicitly override the lower layers.
func Load(flags *pflag.FlagSet) (Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := readConfigFile(v, flags); err != nil {
		return Config{}, err
	}

	if flags != nil {
		for name, key := range flagKeys {
			f := flags.Lookup(name)
			if f == nil || !f.Changed {
				continue
			}
			if err := v.BindPFlag(key, f); err != nil {
				return Config{}, fmt.Errorf("failed to bind flag %s: %w", name, err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to decode config: %w", err)
	}

	metric, err := geometry.ParseMetric(cfg.Solver.Metric)
	if err != nil {
		return Config{}, fmt.Errorf("solver.metric: %w", err)
	}
	cfg.Solver.Metric = string(metric)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func readConfigFile(v *viper.Viper, flags *pflag.FlagSet) error {
	path := ""
	if flags != nil {
		if f := flags.Lookup("config"); f != nil {
			path = f.Value.String()
		}
	}

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("facility")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.facility-locator")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path == "" && errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("failed to read config file: %w", err)
	}
	return nil
}

// Validate checks the solver defaults and the server limits
func (c Config) Validate() error {
	if err := c.Solver.OnlineParams().Validate(); err != nil {
		return fmt.Errorf("solver defaults: %w", err)
	}
	if err := c.Solver.OfflineParams().Validate(); err != nil {
		return fmt.Errorf("solver defaults: %w", err)
	}
	if c.Server.Addr == "" {
		return errors.New("server.addr must not be empty")
	}
	if c.RateLimit.RPS < 0 || c.RateLimit.Burst < 0 {
		return errors.New("ratelimit values must not be negative")
	}
	return nil
}
