package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/hireloop/talent-search/internal/cost"
)

// Config holds the full application configuration. Loaded once at startup;
// changes require a process restart.
type Config struct {
	Supabase SupabaseConfig `yaml:"supabase" mapstructure:"supabase"`
	OpenAI   OpenAIConfig   `yaml:"openai" mapstructure:"openai"`
	Gemini   GeminiConfig   `yaml:"gemini" mapstructure:"gemini"`
	Pricing  cost.Rates     `yaml:"pricing" mapstructure:"pricing"`
	Search   SearchConfig   `yaml:"search" mapstructure:"search"`
	Store    StoreConfig    `yaml:"store" mapstructure:"store"`
	Server   ServerConfig   `yaml:"server" mapstructure:"server"`
	Log      LogConfig      `yaml:"log" mapstructure:"log"`
}

// SupabaseConfig holds candidate-store and storage-bucket settings.
// RailwayEnvironment is set by the hosting platform; when present the
// pooler endpoint is used instead of the direct one.
type SupabaseConfig struct {
	URL                string `yaml:"url" mapstructure:"url"`
	DBPassword         string `yaml:"db_password" mapstructure:"db_password"`
	DBUser             string `yaml:"db_user" mapstructure:"db_user"`
	DBName             string `yaml:"db_name" mapstructure:"db_name"`
	PoolerHost         string `yaml:"pooler_host" mapstructure:"pooler_host"`
	PoolerPort         int    `yaml:"pooler_port" mapstructure:"pooler_port"`
	DirectPort         int    `yaml:"direct_port" mapstructure:"direct_port"`
	ProfileBucket      string `yaml:"profile_bucket" mapstructure:"profile_bucket"`
	RailwayEnvironment string `yaml:"railway_environment" mapstructure:"railway_environment"`
}

// ProfileBucketBase returns the public base URL for profile pictures.
func (c SupabaseConfig) ProfileBucketBase() string {
	return strings.TrimSuffix(c.URL, "/") + "/storage/v1/object/public/" + c.ProfileBucket
}

// OpenAIConfig holds settings for the small/fast model used by query
// translation and Stage-1 classification.
type OpenAIConfig struct {
	Key         string `yaml:"key" mapstructure:"key"`
	Model       string `yaml:"model" mapstructure:"model"`
	TimeoutSecs int    `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	MaxRetries  int    `yaml:"max_retries" mapstructure:"max_retries"`
}

// GeminiConfig holds settings for the large-context ranking model.
type GeminiConfig struct {
	Key         string `yaml:"key" mapstructure:"key"`
	Model       string `yaml:"model" mapstructure:"model"`
	BaseURL     string `yaml:"base_url" mapstructure:"base_url"`
	TimeoutSecs int    `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	MaxRetries  int    `yaml:"max_retries" mapstructure:"max_retries"`
}

// SearchConfig tunes the search pipeline.
type SearchConfig struct {
	// MinResults triggers the relaxation pass when the first SQL execution
	// returns fewer rows.
	MinResults int `yaml:"min_results" mapstructure:"min_results"`
	// BatchSize bounds how many candidates are classified concurrently
	// before the next batch starts.
	BatchSize int `yaml:"batch_size" mapstructure:"batch_size"`
	// RequestIntervalMS is the per-task submission delay within a batch
	// (240ms ≈ 250 requests/minute).
	RequestIntervalMS int `yaml:"request_interval_ms" mapstructure:"request_interval_ms"`
}

// StoreConfig configures the saved-search store backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	SQLitePath  string `yaml:"sqlite_path" mapstructure:"sqlite_path"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Port           int      `yaml:"port" mapstructure:"port"`
	AllowedOrigins []string `yaml:"allowed_origins" mapstructure:"allowed_origins"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("TALENT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Well-known unprefixed variables used by the deployment platform.
	_ = v.BindEnv("supabase.url", "TALENT_SUPABASE_URL", "SUPABASE_URL")
	_ = v.BindEnv("supabase.db_password", "TALENT_SUPABASE_DB_PASSWORD", "SUPABASE_DB_PASSWORD")
	_ = v.BindEnv("supabase.railway_environment", "RAILWAY_ENVIRONMENT_NAME")
	_ = v.BindEnv("openai.key", "TALENT_OPENAI_KEY", "OPENAI_API_KEY")
	_ = v.BindEnv("gemini.key", "TALENT_GEMINI_KEY", "GOOGLE_API_KEY")

	// Defaults
	v.SetDefault("supabase.db_user", "postgres")
	v.SetDefault("supabase.db_name", "postgres")
	v.SetDefault("supabase.pooler_host", "aws-0-us-east-1.pooler.supabase.com")
	v.SetDefault("supabase.pooler_port", 6543)
	v.SetDefault("supabase.direct_port", 5432)
	v.SetDefault("supabase.profile_bucket", "profile-pics")
	v.SetDefault("openai.model", "gpt-4o-mini")
	v.SetDefault("openai.timeout_secs", 180)
	v.SetDefault("openai.max_retries", 3)
	v.SetDefault("gemini.model", "gemini-2.5-pro")
	v.SetDefault("gemini.base_url", "https://generativelanguage.googleapis.com")
	v.SetDefault("gemini.timeout_secs", 300)
	v.SetDefault("gemini.max_retries", 3)
	v.SetDefault("search.min_results", 10)
	v.SetDefault("search.batch_size", 250)
	v.SetDefault("search.request_interval_ms", 240)
	v.SetDefault("store.driver", "postgres")
	v.SetDefault("store.sqlite_path", "talent-search.db")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.allowed_origins", []string{"*"})
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("pricing.openai", map[string]any{
		"gpt-4o-mini": map[string]any{"input": 0.15, "output": 0.60},
		"gpt-4o":      map[string]any{"input": 2.50, "output": 10.00},
	})
	v.SetDefault("pricing.gemini", map[string]any{
		"gemini-2.5-pro":   map[string]any{"input": 1.25, "output": 10.00},
		"gemini-2.0-flash": map[string]any{"input": 0.10, "output": 0.40},
	})

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
