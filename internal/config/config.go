package config

import (
	"fmt"
	"os"
	"reflect"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

// Config captures the runtime configuration for the runboard service.
type Config struct {
	Server        ServerConfig        `mapstructure:"server"`
	Mongo         MongoConfig         `mapstructure:"mongo"`
	Database      DatabaseConfig      `mapstructure:"database"`
	Reporting     ReportingConfig     `mapstructure:"reporting"`
	Exports       ExportsConfig       `mapstructure:"exports"`
	Observability ObservabilityConfig `mapstructure:"observability"`
}

type ServerConfig struct {
	ListenAddr            string        `mapstructure:"listen_addr"`
	BodyLimitMB           int           `mapstructure:"body_limit_mb"`
	ReadTimeout           time.Duration `mapstructure:"read_timeout"`
	GracefulShutdownDelay time.Duration `mapstructure:"graceful_shutdown_delay"`
}

// MongoConfig points at the document store holding user profiles,
// performance documents, and insight entries.
type MongoConfig struct {
	URI            string        `mapstructure:"uri"`
	Database       string        `mapstructure:"database"`
	ConnectTimeout time.Duration `mapstructure:"connect_timeout"`
	QueryTimeout   time.Duration `mapstructure:"query_timeout"`
}

// DatabaseConfig points at the Postgres billing database.
type DatabaseConfig struct {
	URL             string        `mapstructure:"url"`
	RunMigrations   bool          `mapstructure:"run_migrations"`
	MigrationsDir   string        `mapstructure:"migrations_dir"`
	MaxConns        int32         `mapstructure:"max_conns"`
	MinConns        int32         `mapstructure:"min_conns"`
	MaxConnIdleTime time.Duration `mapstructure:"max_conn_idle_time"`
	MaxConnLifetime time.Duration `mapstructure:"max_conn_lifetime"`
}

type ReportingConfig struct {
	Timezone         string `mapstructure:"timezone"`
	DefaultRangeDays int    `mapstructure:"default_range_days"`
}

type ExportsConfig struct {
	Storage string             `mapstructure:"storage"`
	Archive bool               `mapstructure:"archive"`
	S3      ExportsS3Config    `mapstructure:"s3"`
	Local   ExportsLocalConfig `mapstructure:"local"`
}

type ExportsS3Config struct {
	Bucket          string `mapstructure:"bucket"`
	Prefix          string `mapstructure:"prefix"`
	Region          string `mapstructure:"region"`
	Endpoint        string `mapstructure:"endpoint"`
	UsePathStyle    bool   `mapstructure:"use_path_style"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
}

type ExportsLocalConfig struct {
	Directory string `mapstructure:"directory"`
}

type ObservabilityConfig struct {
	OTLPEndpoint  string `mapstructure:"otlp_endpoint"`
	EnableOTLP    bool   `mapstructure:"enable_otlp"`
	EnableMetrics bool   `mapstructure:"enable_metrics"`
}

// Options customizes where Load looks for configuration files.
type Options struct {
	ConfigFile string
	EnvFile    string
}

// Load returns the merged configuration sourced from YAML and environment variables.
func Load(opts Options) (*Config, error) {
	if opts.EnvFile != "" {
		_ = godotenv.Load(opts.EnvFile)
	} else {
		_ = godotenv.Load()
	}

	v := viper.New()
	setDefaults(v)

	explicitFile := false
	if opts.ConfigFile != "" {
		v.SetConfigFile(opts.ConfigFile)
		explicitFile = true
	} else {
		if cfg := os.Getenv("RUNBOARD_CONFIG_FILE"); cfg != "" {
			v.SetConfigFile(cfg)
			explicitFile = true
		}
	}

	if !explicitFile {
		// Allow standard lookup locations when no explicit file is provided.
		v.SetConfigName("runboard")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	v.SetEnvPrefix("RUNBOARD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg, viper.DecodeHook(timeStringToDurationHook())); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate ensures required values are set.
func (c *Config) Validate() error {
	var missing []string

	if c.Mongo.URI == "" {
		missing = append(missing, "RUNBOARD_MONGO_URI")
	}
	if c.Database.URL == "" {
		missing = append(missing, "RUNBOARD_DATABASE_URL")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required configuration: %s", strings.Join(missing, ", "))
	}

	if strings.TrimSpace(c.Mongo.Database) == "" {
		c.Mongo.Database = "runboard"
	}
	if c.Mongo.ConnectTimeout <= 0 {
		c.Mongo.ConnectTimeout = 10 * time.Second
	}
	if c.Mongo.QueryTimeout <= 0 {
		c.Mongo.QueryTimeout = 30 * time.Second
	}

	if c.Database.RunMigrations && c.Database.MigrationsDir == "" {
		return fmt.Errorf("database.migrations_dir must be provided when run_migrations is true")
	}
	if c.Database.MaxConns < 0 {
		return fmt.Errorf("database.max_conns must be >= 0")
	}

	reportingTZ := strings.TrimSpace(c.Reporting.Timezone)
	if reportingTZ == "" {
		reportingTZ = "UTC"
	}
	if _, err := time.LoadLocation(reportingTZ); err != nil {
		return fmt.Errorf("invalid reporting.timezone: %w", err)
	}
	c.Reporting.Timezone = reportingTZ
	if c.Reporting.DefaultRangeDays <= 0 {
		c.Reporting.DefaultRangeDays = 7
	}

	if err := c.Exports.validate(); err != nil {
		return err
	}

	return nil
}

func (e *ExportsConfig) validate() error {
	storage := strings.ToLower(strings.TrimSpace(e.Storage))
	if storage == "" {
		storage = "local"
	}
	switch storage {
	case "local", "s3":
	default:
		return fmt.Errorf("exports.storage must be local or s3")
	}
	e.Storage = storage
	if storage == "s3" && strings.TrimSpace(e.S3.Bucket) == "" {
		return fmt.Errorf("exports.s3.bucket must be provided for s3 storage")
	}
	if storage == "local" && strings.TrimSpace(e.Local.Directory) == "" {
		e.Local.Directory = "./data/exports"
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.listen_addr", ":8080")
	v.SetDefault("server.body_limit_mb", 5)
	v.SetDefault("server.read_timeout", "60s")
	v.SetDefault("server.graceful_shutdown_delay", "5s")

	v.SetDefault("mongo.database", "runboard")
	v.SetDefault("mongo.connect_timeout", "10s")
	v.SetDefault("mongo.query_timeout", "30s")

	v.SetDefault("database.run_migrations", true)
	v.SetDefault("database.migrations_dir", "./migrations")
	v.SetDefault("database.max_conns", 10)
	v.SetDefault("database.min_conns", 2)
	v.SetDefault("database.max_conn_idle_time", "10m")
	v.SetDefault("database.max_conn_lifetime", "1h")

	v.SetDefault("reporting.timezone", "UTC")
	v.SetDefault("reporting.default_range_days", 7)

	v.SetDefault("exports.storage", "local")
	v.SetDefault("exports.archive", false)
	v.SetDefault("exports.local.directory", "./data/exports")

	v.SetDefault("observability.enable_otlp", false)
	v.SetDefault("observability.enable_metrics", true)
	v.SetDefault("observability.otlp_endpoint", "http://localhost:4317")
}

func timeStringToDurationHook() mapstructure.DecodeHookFunc {
	return func(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
		if to != reflect.TypeOf(time.Duration(0)) {
			return data, nil
		}

		switch v := data.(type) {
		case time.Duration:
			return v, nil
		case string:
			d, err := time.ParseDuration(v)
			if err != nil {
				return nil, err
			}
			return d, nil
		default:
			return nil, fmt.Errorf("cannot decode %T into time.Duration", data)
		}
	}
}
