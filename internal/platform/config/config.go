package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	apperrors "doomscroll/internal/platform/errors"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"

	envPrefix = "DOOMSCROLL"
)

type Config struct {
	Database DatabaseConfig `mapstructure:"database" yaml:"database"`
	Pipeline PipelineConfig `mapstructure:"pipeline" yaml:"pipeline"`
	Logging  LoggingConfig  `mapstructure:"logging" yaml:"logging"`
	Metrics  MetricsConfig  `mapstructure:"metrics" yaml:"metrics"`
}

type DatabaseConfig struct {
	Driver   string `mapstructure:"driver" yaml:"driver"`
	DSN      string `mapstructure:"dsn" yaml:"dsn"`
	Host     string `mapstructure:"host" yaml:"host"`
	Port     int    `mapstructure:"port" yaml:"port"`
	User     string `mapstructure:"user" yaml:"user"`
	Password string `mapstructure:"password" yaml:"password"`
	Name     string `mapstructure:"name" yaml:"name"`
	SSLMode  string `mapstructure:"sslmode" yaml:"sslmode"`
}

// PipelineConfig carries the knobs every stage receives explicitly.
type PipelineConfig struct {
	FeedApps        []string `mapstructure:"feed_apps" yaml:"feed_apps"`
	MidnightHours   []int    `mapstructure:"midnight_hours" yaml:"midnight_hours"`
	ZScoreThreshold float64  `mapstructure:"zscore_threshold" yaml:"zscore_threshold"`
	InsertChunkSize int      `mapstructure:"insert_chunk_size" yaml:"insert_chunk_size"`
}

type LoggingConfig struct {
	Level      string `mapstructure:"level" yaml:"level"`
	Format     string `mapstructure:"format" yaml:"format"`
	File       string `mapstructure:"file" yaml:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb" yaml:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups" yaml:"max_backups"`
}

type MetricsConfig struct {
	Textfile string `mapstructure:"textfile" yaml:"textfile"`
}

// Load reads an optional YAML file, applies DOOMSCROLL_* environment
// overrides and validates the result. An empty path means defaults + env.
func Load(path string) (Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetConfigType("yaml")
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) && !os.IsNotExist(err) {
				return Config{}, fmt.Errorf("read config %s: %w", path, err)
			}
		}
	}

	cfg := Config{}
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	cfg.Pipeline.FeedApps = splitList(cfg.Pipeline.FeedApps)
	if cfg.Database.Driver == DriverSQLite && cfg.Database.DSN == "" {
		cfg.Database.DSN = Default().Database.DSN
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Default returns the built-in configuration without consulting files or env.
func Default() Config {
	return Config{
		Database: DatabaseConfig{
			Driver:  DriverSQLite,
			DSN:     "data/doomscroll.db",
			Host:    "localhost",
			Port:    5432,
			User:    "doomscroll_user",
			Name:    "doomscroll_db",
			SSLMode: "disable",
		},
		Pipeline: PipelineConfig{
			FeedApps:        DefaultFeedApps(),
			MidnightHours:   []int{0, 1, 2, 3, 4, 5},
			ZScoreThreshold: 1.5,
			InsertChunkSize: 500,
		},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "console",
			MaxSizeMB:  50,
			MaxBackups: 5,
		},
	}
}

func DefaultFeedApps() []string {
	return []string{
		"tiktok", "instagram", "twitter", "reddit", "x", "youtube",
		"youtube shorts", "facebook", "snapchat", "pinterest", "threads",
		"bluesky", "mastodon",
	}
}

func setDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("database.driver", d.Database.Driver)
	v.SetDefault("database.dsn", "")
	v.SetDefault("database.host", d.Database.Host)
	v.SetDefault("database.port", d.Database.Port)
	v.SetDefault("database.user", d.Database.User)
	v.SetDefault("database.password", "")
	v.SetDefault("database.name", d.Database.Name)
	v.SetDefault("database.sslmode", d.Database.SSLMode)
	v.SetDefault("pipeline.feed_apps", d.Pipeline.FeedApps)
	v.SetDefault("pipeline.midnight_hours", d.Pipeline.MidnightHours)
	v.SetDefault("pipeline.zscore_threshold", d.Pipeline.ZScoreThreshold)
	v.SetDefault("pipeline.insert_chunk_size", d.Pipeline.InsertChunkSize)
	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("logging.format", d.Logging.Format)
	v.SetDefault("logging.file", "")
	v.SetDefault("logging.max_size_mb", d.Logging.MaxSizeMB)
	v.SetDefault("logging.max_backups", d.Logging.MaxBackups)
	v.SetDefault("metrics.textfile", "")
}

func (c Config) Validate() error {
	var problems []string
	switch c.Database.Driver {
	case DriverSQLite, DriverPostgres:
	default:
		problems = append(problems, fmt.Sprintf("unsupported database driver %q", c.Database.Driver))
	}
	if c.Database.Driver == DriverSQLite && strings.TrimSpace(c.Database.DSN) == "" {
		problems = append(problems, "sqlite requires database.dsn")
	}
	if len(c.Pipeline.MidnightHours) == 0 {
		problems = append(problems, "pipeline.midnight_hours must not be empty")
	}
	for _, h := range c.Pipeline.MidnightHours {
		if h < 0 || h > 23 {
			problems = append(problems, fmt.Sprintf("midnight hour %d outside 0-23", h))
		}
	}
	if c.Pipeline.ZScoreThreshold <= 0 {
		problems = append(problems, "pipeline.zscore_threshold must be positive")
	}
	if c.Pipeline.InsertChunkSize <= 0 {
		problems = append(problems, "pipeline.insert_chunk_size must be positive")
	}
	switch c.Logging.Format {
	case "console", "json":
	default:
		problems = append(problems, fmt.Sprintf("unsupported logging format %q", c.Logging.Format))
	}
	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", apperrors.ErrInvalidConfig, strings.Join(problems, "; "))
	}
	return nil
}

// DataSource returns the driver DSN. Postgres connections are assembled from
// the discrete fields unless an explicit DSN is configured.
func (d DatabaseConfig) DataSource() string {
	if d.DSN != "" || d.Driver != DriverPostgres {
		return d.DSN
	}
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(d.User, d.Password),
		Host:   d.Host + ":" + strconv.Itoa(d.Port),
		Path:   "/" + d.Name,
	}
	if d.SSLMode != "" {
		u.RawQuery = "sslmode=" + url.QueryEscape(d.SSLMode)
	}
	return u.String()
}

// FeedAppSet lower-cases and trims the configured names.
func (p PipelineConfig) FeedAppSet() map[string]struct{} {
	out := make(map[string]struct{}, len(p.FeedApps))
	for _, name := range p.FeedApps {
		name = strings.ToLower(strings.TrimSpace(name))
		if name == "" {
			continue
		}
		out[name] = struct{}{}
	}
	return out
}

func (p PipelineConfig) MidnightHourSet() map[int]struct{} {
	out := make(map[int]struct{}, len(p.MidnightHours))
	for _, h := range p.MidnightHours {
		out[h] = struct{}{}
	}
	return out
}

// YAML renders the effective configuration with the password redacted.
func (c Config) YAML() (string, error) {
	redacted := c
	if redacted.Database.Password != "" {
		redacted.Database.Password = "********"
	}
	redacted.Pipeline.FeedApps = append([]string(nil), c.Pipeline.FeedApps...)
	sort.Strings(redacted.Pipeline.FeedApps)
	raw, err := yaml.Marshal(redacted)
	if err != nil {
		return "", fmt.Errorf("marshal config: %w", err)
	}
	return string(raw), nil
}

// splitList expands comma separated entries, which is how list values arrive
// from environment variables.
func splitList(in []string) []string {
	out := make([]string, 0, len(in))
	for _, item := range in {
		for _, part := range strings.Split(item, ",") {
			part = strings.TrimSpace(part)
			if part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
