package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig
	Storage   StorageConfig
	LLM       LLMConfig
	Vector    VectorConfig
	Redis     RedisConfig
	Pipeline  PipelineConfig
	RateLimit RateLimitConfig
	Logging   LoggingConfig
}

type ServerConfig struct {
	Host         string
	Port         int
	ReadTimeout  int
	WriteTimeout int
	BodyLimit    int
	CORSOrigins  string
}

type StorageConfig struct {
	Driver   string
	SQLite   SQLiteConfig
	Postgres PostgresConfig
}

type SQLiteConfig struct {
	Path string
}

type PostgresConfig struct {
	URL      string
	MaxConns int32
	MinConns int32
}

type LLMConfig struct {
	Provider       string
	Model          string
	APIKey         string
	BaseURL        string
	Temperature    float32
	MaxTokens      int
	TimeoutSec     int
	EmbeddingModel string
	EmbeddingKey   string
}

func (c LLMConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSec) * time.Second
}

type VectorConfig struct {
	Enabled            bool
	Endpoint           string
	APIKey             string
	VectorDim          int
	ProfilesCollection string
	FloatsCollection   string
	ProfileHits        int
	FloatHits          int
}

type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
}

type PipelineConfig struct {
	ConfidenceThreshold float64
	MeasurementLimit    int
	RowLimit            int
	HistoryLimit        int
}

type RateLimitConfig struct {
	Enabled           bool
	RequestsPerMinute int
}

type LoggingConfig struct {
	Level      string
	Format     string
	OutputPath string
}

var (
	knownDrivers   = map[string]bool{"sqlite": true, "postgres": true}
	knownProviders = map[string]bool{"openai": true, "anthropic": true, "gemini": true, "ollama": true, "none": true}
)

// Load reads .env, then config.yaml, then FLOATCHAT_* environment variables.
// A missing .env or config file is not an error.
func Load() (*Config, error) {
	return LoadFile("")
}

func LoadFile(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	v := viper.New()
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("/etc/floatchat")
	}

	v.SetEnvPrefix("FLOATCHAT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Names used by existing deployments.
	_ = v.BindEnv("llm.apiKey", "FLOATCHAT_LLM_APIKEY", "GOOGLE_API_KEY")
	_ = v.BindEnv("storage.postgres.url", "FLOATCHAT_STORAGE_POSTGRES_URL", "DATABASE_URL")
	_ = v.BindEnv("llm.embeddingKey", "FLOATCHAT_LLM_EMBEDDINGKEY", "OPENAI_API_KEY")

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

func (c *Config) Validate() error {
	if !knownDrivers[c.Storage.Driver] {
		return fmt.Errorf("unknown storage driver %q", c.Storage.Driver)
	}
	if c.Storage.Driver == "postgres" && c.Storage.Postgres.URL == "" {
		return errors.New("storage.postgres.url is required for the postgres driver")
	}
	if !knownProviders[c.LLM.Provider] {
		return fmt.Errorf("unknown llm provider %q", c.LLM.Provider)
	}
	if c.Pipeline.ConfidenceThreshold < 0 || c.Pipeline.ConfidenceThreshold > 1 {
		return fmt.Errorf("pipeline.confidenceThreshold must be within [0,1], got %v", c.Pipeline.ConfidenceThreshold)
	}
	if c.LLM.TimeoutSec <= 0 {
		return errors.New("llm.timeoutSec must be positive")
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.readTimeout", 30)
	v.SetDefault("server.writeTimeout", 60)
	v.SetDefault("server.bodyLimit", 1048576)
	v.SetDefault("server.corsOrigins", "*")

	v.SetDefault("storage.driver", "sqlite")
	v.SetDefault("storage.sqlite.path", "./data/argo.db")
	v.SetDefault("storage.postgres.maxConns", 10)
	v.SetDefault("storage.postgres.minConns", 1)

	v.SetDefault("llm.provider", "gemini")
	v.SetDefault("llm.model", "gemini-1.5-flash")
	v.SetDefault("llm.temperature", 0.1)
	v.SetDefault("llm.maxTokens", 2048)
	v.SetDefault("llm.timeoutSec", 8)
	v.SetDefault("llm.embeddingModel", "text-embedding-3-small")

	v.SetDefault("vector.enabled", false)
	v.SetDefault("vector.endpoint", "localhost:19530")
	v.SetDefault("vector.vectorDim", 1536)
	v.SetDefault("vector.profilesCollection", "argo_profiles")
	v.SetDefault("vector.floatsCollection", "argo_floats")
	v.SetDefault("vector.profileHits", 5)
	v.SetDefault("vector.floatHits", 3)

	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.db", 0)

	v.SetDefault("pipeline.confidenceThreshold", 0.7)
	v.SetDefault("pipeline.measurementLimit", 1000)
	v.SetDefault("pipeline.rowLimit", 100)
	v.SetDefault("pipeline.historyLimit", 50)

	v.SetDefault("ratelimit.enabled", true)
	v.SetDefault("ratelimit.requestsPerMinute", 60)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.outputPath", "stdout")
}
