package config

import (
	"errors"
	"fmt"
	"os"
	"runtime"
	"slices"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all churn scoring configuration.
type Config struct {
	Artifacts   ArtifactsConfig `yaml:"artifacts"`
	Engine      EngineConfig    `yaml:"engine"`
	Source      SourceConfig    `yaml:"source"`
	Stream      StreamConfig    `yaml:"stream"`
	Output      OutputConfig    `yaml:"output"`
	LogLevel    string          `yaml:"log_level"`
	MetricsAddr string          `yaml:"metrics_addr"`
}

// ArtifactsConfig locates the fitted parameter bundle.
type ArtifactsConfig struct {
	Dir string `yaml:"dir"`
}

// EngineConfig holds row-parallel scoring settings.
type EngineConfig struct {
	Workers   int `yaml:"workers"`
	ChunkSize int `yaml:"chunk_size"`
}

// SourceConfig selects where feature records come from.
type SourceConfig struct {
	Format string      `yaml:"format"` // "json", "ndjson", "csv"
	Input  string      `yaml:"input"`  // path, "-" for stdin
	Kafka  KafkaConfig `yaml:"kafka"`
}

// KafkaConfig holds broker settings shared by the stream source and sink.
type KafkaConfig struct {
	Brokers []string `yaml:"brokers"`
	Topic   string   `yaml:"topic"`
	GroupID string   `yaml:"group_id"`
}

// StreamConfig controls batching in stream mode.
type StreamConfig struct {
	Window   time.Duration `yaml:"window"`
	MaxBatch int           `yaml:"max_batch"`
}

// OutputConfig holds prediction sink settings. Sinks lists every enabled
// destination; more than one fans out.
type OutputConfig struct {
	Sinks     []string       `yaml:"sinks"` // "stdout", "file", "kafka", "sqlite", "postgres", "redis"
	Pretty    bool           `yaml:"pretty"`
	Verbosity string         `yaml:"verbosity"` // "minimal", "full"
	File      FileConfig     `yaml:"file"`
	Kafka     KafkaConfig    `yaml:"kafka"`
	SQLite    SQLiteConfig   `yaml:"sqlite"`
	Postgres  PostgresConfig `yaml:"postgres"`
	Redis     RedisConfig    `yaml:"redis"`
	Async     bool           `yaml:"async"`
}

// FileConfig holds rotating NDJSON file settings.
type FileConfig struct {
	Path       string `yaml:"path"`
	MaxSize    int64  `yaml:"max_size"`    // bytes, 0 disables rotation
	MaxBackups int    `yaml:"max_backups"` // rotated files kept, 0 keeps the default of 9
}

// SQLiteConfig holds the local prediction store path.
type SQLiteConfig struct {
	Path string `yaml:"path"`
}

// PostgresConfig holds the churn_predictions connection string.
type PostgresConfig struct {
	DSN         string `yaml:"dsn"`
	CreateTable bool   `yaml:"create_table"` // off for XTDB
}

// RedisConfig holds the latest-score cache settings.
type RedisConfig struct {
	URL       string        `yaml:"url"`
	KeyPrefix string        `yaml:"key_prefix"`
	TTL       time.Duration `yaml:"ttl"` // 0 keeps keys forever
}

const defaultBroker = "localhost:9092"

var (
	validSinks     = []string{"stdout", "file", "kafka", "sqlite", "postgres", "redis"}
	validFormats   = []string{"json", "ndjson", "csv"}
	validVerbosity = []string{"minimal", "full"}
)

// Default returns the configuration used when no file or environment
// overrides are present.
func Default() Config {
	return Config{
		Artifacts: ArtifactsConfig{Dir: "artifacts"},
		Engine: EngineConfig{
			Workers:   runtime.GOMAXPROCS(0),
			ChunkSize: 256,
		},
		Source: SourceConfig{
			Format: "json",
			Input:  "-",
			Kafka: KafkaConfig{
				Brokers: []string{defaultBroker},
				Topic:   "churn-features",
				GroupID: "churn-scorer",
			},
		},
		Stream: StreamConfig{
			Window:   2 * time.Second,
			MaxBatch: 500,
		},
		Output: OutputConfig{
			Sinks:     []string{"stdout"},
			Verbosity: "full",
			File:      FileConfig{Path: "predictions.ndjson"},
			Kafka: KafkaConfig{
				Brokers: []string{defaultBroker},
				Topic:   "churn-predictions",
			},
			SQLite: SQLiteConfig{Path: "predictions.db"},
			Redis:  RedisConfig{KeyPrefix: "churn:prediction:"},
		},
		LogLevel: "info",
	}
}

// Load resolves configuration from defaults, then the YAML file at path
// (skipped when path is empty), then CHURN_* environment variables.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("config: read %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}

	applyEnv(&cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	cfg.Artifacts.Dir = getenv("CHURN_ARTIFACTS_DIR", cfg.Artifacts.Dir)
	cfg.Engine.Workers = getenvInt("CHURN_WORKERS", cfg.Engine.Workers)
	cfg.Engine.ChunkSize = getenvInt("CHURN_CHUNK_SIZE", cfg.Engine.ChunkSize)

	cfg.Source.Format = getenv("CHURN_SOURCE_FORMAT", cfg.Source.Format)
	cfg.Source.Input = getenv("CHURN_SOURCE_INPUT", cfg.Source.Input)
	cfg.Source.Kafka.Brokers = getenvList("CHURN_KAFKA_BROKERS", cfg.Source.Kafka.Brokers)
	cfg.Source.Kafka.Topic = getenv("CHURN_SOURCE_TOPIC", cfg.Source.Kafka.Topic)
	cfg.Source.Kafka.GroupID = getenv("CHURN_SOURCE_GROUP_ID", cfg.Source.Kafka.GroupID)

	cfg.Stream.Window = getenvDuration("CHURN_STREAM_WINDOW", cfg.Stream.Window)
	cfg.Stream.MaxBatch = getenvInt("CHURN_STREAM_MAX_BATCH", cfg.Stream.MaxBatch)

	cfg.Output.Sinks = getenvList("CHURN_OUTPUT", cfg.Output.Sinks)
	cfg.Output.Pretty = getenvBool("CHURN_OUTPUT_PRETTY", cfg.Output.Pretty)
	cfg.Output.Verbosity = getenv("CHURN_VERBOSITY", cfg.Output.Verbosity)
	cfg.Output.Async = getenvBool("CHURN_OUTPUT_ASYNC", cfg.Output.Async)
	cfg.Output.File.Path = getenv("CHURN_OUTPUT_FILE", cfg.Output.File.Path)
	cfg.Output.File.MaxSize = int64(getenvInt("CHURN_OUTPUT_FILE_MAX_SIZE", int(cfg.Output.File.MaxSize)))
	cfg.Output.File.MaxBackups = getenvInt("CHURN_OUTPUT_FILE_MAX_BACKUPS", cfg.Output.File.MaxBackups)
	cfg.Output.Kafka.Brokers = getenvList("CHURN_KAFKA_BROKERS", cfg.Output.Kafka.Brokers)
	cfg.Output.Kafka.Topic = getenv("CHURN_OUTPUT_TOPIC", cfg.Output.Kafka.Topic)
	cfg.Output.SQLite.Path = getenv("CHURN_SQLITE_PATH", cfg.Output.SQLite.Path)
	cfg.Output.Postgres.DSN = getenv("CHURN_POSTGRES_DSN", cfg.Output.Postgres.DSN)
	cfg.Output.Postgres.CreateTable = getenvBool("CHURN_POSTGRES_CREATE_TABLE", cfg.Output.Postgres.CreateTable)
	cfg.Output.Redis.URL = getenv("CHURN_REDIS_URL", cfg.Output.Redis.URL)
	cfg.Output.Redis.KeyPrefix = getenv("CHURN_REDIS_KEY_PREFIX", cfg.Output.Redis.KeyPrefix)
	cfg.Output.Redis.TTL = getenvDuration("CHURN_REDIS_TTL", cfg.Output.Redis.TTL)

	cfg.LogLevel = getenv("CHURN_LOG_LEVEL", cfg.LogLevel)
	cfg.MetricsAddr = getenv("CHURN_METRICS_ADDR", cfg.MetricsAddr)
}

// Validate checks the resolved configuration and reports every problem at once.
func (c Config) Validate() error {
	var errs []error

	if c.Artifacts.Dir == "" {
		errs = append(errs, errors.New("artifacts dir must not be empty (CHURN_ARTIFACTS_DIR)"))
	}
	if c.Engine.Workers < 1 {
		errs = append(errs, fmt.Errorf("engine workers must be at least 1, got %d", c.Engine.Workers))
	}
	if c.Engine.ChunkSize < 1 {
		errs = append(errs, fmt.Errorf("engine chunk size must be at least 1, got %d", c.Engine.ChunkSize))
	}
	if !slices.Contains(validFormats, c.Source.Format) {
		errs = append(errs, fmt.Errorf("source format %q must be one of %v", c.Source.Format, validFormats))
	}
	if c.Stream.Window < 0 {
		errs = append(errs, fmt.Errorf("stream window must be non-negative, got %v", c.Stream.Window))
	}
	if c.Stream.MaxBatch < 1 {
		errs = append(errs, fmt.Errorf("stream max batch must be at least 1, got %d", c.Stream.MaxBatch))
	}
	if !slices.Contains(validVerbosity, c.Output.Verbosity) {
		errs = append(errs, fmt.Errorf("output verbosity %q must be one of %v", c.Output.Verbosity, validVerbosity))
	}
	if len(c.Output.Sinks) == 0 {
		errs = append(errs, errors.New("at least one output sink is required (CHURN_OUTPUT)"))
	}
	for _, s := range c.Output.Sinks {
		if !slices.Contains(validSinks, s) {
			errs = append(errs, fmt.Errorf("output sink %q must be one of %v", s, validSinks))
			continue
		}
		switch s {
		case "file":
			if c.Output.File.Path == "" {
				errs = append(errs, errors.New("file sink requires a path (CHURN_OUTPUT_FILE)"))
			}
			if c.Output.File.MaxSize < 0 {
				errs = append(errs, fmt.Errorf("file max size must be non-negative, got %d", c.Output.File.MaxSize))
			}
			if c.Output.File.MaxBackups < 0 {
				errs = append(errs, fmt.Errorf("file max backups must be non-negative, got %d", c.Output.File.MaxBackups))
			}
		case "kafka":
			if len(c.Output.Kafka.Brokers) == 0 || c.Output.Kafka.Topic == "" {
				errs = append(errs, errors.New("kafka sink requires brokers and a topic"))
			}
		case "sqlite":
			if c.Output.SQLite.Path == "" {
				errs = append(errs, errors.New("sqlite sink requires a path (CHURN_SQLITE_PATH)"))
			}
		case "postgres":
			if c.Output.Postgres.DSN == "" {
				errs = append(errs, errors.New("postgres sink requires a DSN (CHURN_POSTGRES_DSN)"))
			}
		case "redis":
			if c.Output.Redis.URL == "" {
				errs = append(errs, errors.New("redis sink requires a URL (CHURN_REDIS_URL)"))
			}
			if c.Output.Redis.TTL < 0 {
				errs = append(errs, fmt.Errorf("redis ttl must be non-negative, got %v", c.Output.Redis.TTL))
			}
		}
	}

	return errors.Join(errs...)
}

// HasSink reports whether the named sink is enabled.
func (c Config) HasSink(name string) bool {
	return slices.Contains(c.Output.Sinks, name)
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getenvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func getenvBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}

func getenvDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}

// getenvList splits a comma-separated value, dropping empty entries.
func getenvList(key string, fallback []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}
