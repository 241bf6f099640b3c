package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	VLM      VLMConfig      `mapstructure:"vlm"`
	Caption  CaptionConfig  `mapstructure:"caption"`
	Batch    BatchConfig    `mapstructure:"batch"`
}

type ServerConfig struct {
	Port          int        `mapstructure:"port"`
	Mode          string     `mapstructure:"mode"`
	MaxUploadSize int64      `mapstructure:"max_upload_size"`
	CORS          CORSConfig `mapstructure:"cors"`
}

type CORSConfig struct {
	AllowedOrigins  []string `mapstructure:"allowed_origins"`
	AllowAllOrigins bool     `mapstructure:"allow_all_origins"`
}

// DatabaseConfig selects the caption archive backend.
// Driver is "sqlite" (Path) or "postgres" (Host/Port/User/Password/DBName).
type DatabaseConfig struct {
	Enabled         bool          `mapstructure:"enabled"`
	Driver          string        `mapstructure:"driver"`
	Path            string        `mapstructure:"path"`
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	DBName          string        `mapstructure:"dbname"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	AutoMigrate     bool          `mapstructure:"auto_migrate"`
}

// DSN returns the connection string for the configured driver.
func (c DatabaseConfig) DSN() string {
	if c.Driver == "postgres" {
		return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
			c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode)
	}
	return c.Path
}

// CaptionConfig tunes the caption pipeline.
type CaptionConfig struct {
	DefaultPrompt       string  `mapstructure:"default_prompt"`
	MaxTitleTokens      int     `mapstructure:"max_title_tokens"`
	FlourishProbability float64 `mapstructure:"flourish_probability"`
	PrefixCandidates    int     `mapstructure:"prefix_candidates"`
	DescriptionCutoff   float64 `mapstructure:"description_cutoff"`
	Seed                int64   `mapstructure:"seed"`
}

// BatchConfig tunes gallery captioning. GalleryDir and ManifestDir register
// the "gallery" and "manifest" sources when set.
type BatchConfig struct {
	Workers     int    `mapstructure:"workers"`
	BatchSize   int    `mapstructure:"batch_size"`
	GalleryDir  string `mapstructure:"gallery_dir"`
	ManifestDir string `mapstructure:"manifest_dir"`
}

func Load(configPath string) (*Config, error) {
	// Load .env file if exists
	_ = godotenv.Load()

	v := viper.New()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./configs")
		v.AddConfigPath(".")
	}

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// Bind environment variables explicitly for sensitive data
	v.BindEnv("vlm.api_key", "OPENAI_API_KEY")
	v.BindEnv("vlm.base_url", "OPENAI_BASE_URL")
	v.BindEnv("vlm.model", "VLM_MODEL")
	v.BindEnv("database.password", "DB_PASSWORD")
	v.BindEnv("caption.seed", "CAPTION_SEED")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	cfg.VLM.ResolveEnvVars()
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "debug")
	v.SetDefault("server.max_upload_size", 20<<20)
	v.SetDefault("server.cors.allow_all_origins", true)
	v.SetDefault("server.cors.allowed_origins", []string{})

	v.SetDefault("database.enabled", true)
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.path", "./data/captions.db")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_idle_conns", 10)
	v.SetDefault("database.max_open_conns", 100)
	v.SetDefault("database.conn_max_lifetime", time.Hour)
	v.SetDefault("database.auto_migrate", true)

	v.SetDefault("vlm.provider", "openai")
	v.SetDefault("vlm.model", "gpt-4o-mini")
	v.SetDefault("vlm.base_url", "https://api.openai.com/v1")
	v.SetDefault("vlm.timeout", 60*time.Second)

	v.SetDefault("caption.default_prompt", "a painting of")
	v.SetDefault("caption.max_title_tokens", 40)
	v.SetDefault("caption.flourish_probability", 0.3)
	v.SetDefault("caption.prefix_candidates", 10)
	v.SetDefault("caption.description_cutoff", 0.6)
	v.SetDefault("caption.seed", 0)

	v.SetDefault("batch.workers", 4)
	v.SetDefault("batch.batch_size", 16)
	v.SetDefault("batch.gallery_dir", "./data/gallery")
	v.SetDefault("batch.manifest_dir", "")
}

func (c *Config) validate() error {
	if c.Caption.FlourishProbability < 0 || c.Caption.FlourishProbability > 1 {
		return fmt.Errorf("caption: flourish_probability must be within [0, 1], got %v", c.Caption.FlourishProbability)
	}
	if c.Caption.DescriptionCutoff < 0 || c.Caption.DescriptionCutoff > 1 {
		return fmt.Errorf("caption: description_cutoff must be within [0, 1], got %v", c.Caption.DescriptionCutoff)
	}
	if c.Caption.PrefixCandidates <= 0 {
		return fmt.Errorf("caption: prefix_candidates must be positive")
	}
	if c.Batch.Workers <= 0 {
		return fmt.Errorf("batch: workers must be positive")
	}
	switch c.Database.Driver {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("database: unknown driver %q", c.Database.Driver)
	}
	return nil
}
