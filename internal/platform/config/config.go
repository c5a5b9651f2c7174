package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Server captures HTTP server level configuration.
type Server struct {
	Addr            string
	ShutdownTimeout time.Duration
	LogLevel        string
}

type DatabaseConfig struct {
	URL             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type KafkaConfig struct {
	Brokers           []string
	ClientID          string
	CapaTopic         string
	RoundTopic        string
	Partitions        int32
	ReplicationFactor int16
}

// Enabled reports whether a broker is configured.
func (k KafkaConfig) Enabled() bool {
	return len(k.Brokers) > 0
}

// Evaluation holds the tunables of the evaluation engine.
type Evaluation struct {
	AutosaveInterval time.Duration
	SaveTimeout      time.Duration
	Threshold        int
	CatalogCacheTTL  time.Duration
	PolicyFile       string
}

type Config struct {
	Server     Server
	Database   DatabaseConfig
	Redis      RedisConfig
	Kafka      KafkaConfig
	Evaluation Evaluation
}

// Load reads .env files (missing files are ignored) and then the environment.
// Variables already set in the environment win over .env values.
func Load(envFiles ...string) (Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, os.ErrNotExist) {
			return Config{}, fmt.Errorf("load %s: %w", f, err)
		}
	}
	return FromEnv()
}

// FromEnv builds a Config from environment variables so main stays lean.
func FromEnv() (Config, error) {
	p := &parser{}
	cfg := Config{
		Server: Server{
			Addr:            getEnvOrDefault("ROUNDWISE_ADDR", ":8080"),
			ShutdownTimeout: p.duration("SHUTDOWN_TIMEOUT", 15*time.Second),
			LogLevel:        getEnvOrDefault("LOG_LEVEL", "info"),
		},
		Database: DatabaseConfig{
			URL:             os.Getenv("DATABASE_URL"),
			MaxOpenConns:    p.int("DATABASE_MAX_OPEN_CONNS", 20),
			MaxIdleConns:    p.int("DATABASE_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: p.duration("DATABASE_CONN_MAX_LIFETIME", 30*time.Minute),
		},
		Redis: RedisConfig{
			URL:          os.Getenv("REDIS_URL"),
			PoolSize:     p.int("REDIS_POOL_SIZE", 10),
			MinIdleConns: p.int("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  p.duration("REDIS_DIAL_TIMEOUT", 2*time.Second),
			ReadTimeout:  p.duration("REDIS_READ_TIMEOUT", 500*time.Millisecond),
			WriteTimeout: p.duration("REDIS_WRITE_TIMEOUT", 500*time.Millisecond),
		},
		Kafka: KafkaConfig{
			Brokers:           splitList(os.Getenv("KAFKA_BROKERS")),
			ClientID:          getEnvOrDefault("KAFKA_CLIENT_ID", "roundwise"),
			CapaTopic:         getEnvOrDefault("KAFKA_CAPA_TOPIC", "roundwise.capa.drafted"),
			RoundTopic:        getEnvOrDefault("KAFKA_ROUND_TOPIC", "roundwise.round.finalized"),
			Partitions:        int32(p.int("KAFKA_TOPIC_PARTITIONS", 3)),
			ReplicationFactor: int16(p.int("KAFKA_REPLICATION_FACTOR", 1)),
		},
		Evaluation: Evaluation{
			AutosaveInterval: p.duration("AUTOSAVE_INTERVAL", 30*time.Second),
			SaveTimeout:      p.duration("SAVE_TIMEOUT", 10*time.Second),
			Threshold:        p.int("NONCOMPLIANCE_THRESHOLD", 50),
			CatalogCacheTTL:  p.duration("CATALOG_CACHE_TTL", 5*time.Minute),
			PolicyFile:       os.Getenv("POLICY_FILE"),
		},
	}
	if err := p.err(); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks cross-field constraints.
func (c Config) Validate() error {
	var errs []error
	if c.Evaluation.AutosaveInterval <= 0 {
		errs = append(errs, errors.New("AUTOSAVE_INTERVAL must be positive"))
	}
	if c.Evaluation.SaveTimeout <= 0 {
		errs = append(errs, errors.New("SAVE_TIMEOUT must be positive"))
	}
	if c.Evaluation.Threshold < 0 || c.Evaluation.Threshold > 100 {
		errs = append(errs, fmt.Errorf("NONCOMPLIANCE_THRESHOLD must be within 0..100, got %d", c.Evaluation.Threshold))
	}
	if c.Kafka.Partitions <= 0 {
		errs = append(errs, errors.New("KAFKA_TOPIC_PARTITIONS must be positive"))
	}
	return errors.Join(errs...)
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// parser collects malformed values so FromEnv can report all of them at once.
type parser struct {
	errs []error
}

func (p *parser) int(key string, def int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		p.errs = append(p.errs, fmt.Errorf("%s: invalid integer %q", key, v))
		return def
	}
	return n
}

func (p *parser) duration(key string, def time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		p.errs = append(p.errs, fmt.Errorf("%s: invalid duration %q", key, v))
		return def
	}
	return d
}

func (p *parser) err() error {
	return errors.Join(p.errs...)
}
