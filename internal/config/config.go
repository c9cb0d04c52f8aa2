package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Policy names accepted in a stat spec.
const (
	PolicyInterval = "interval"
	PolicyCount    = "count"
)

// Value types accepted in a stat spec.
const (
	ValueTypeFloat = "float"
	ValueTypeInt   = "int"
)

const (
	defaultKafkaGroupID    = "statwatch-default-group"
	defaultStatValueType   = ValueTypeFloat
	defaultLogSinkEnabled  = true
	defaultKafkaSinkBuffer = 256
	defaultMetricsAddr     = ":9090"
	defaultLogLevel        = "info"
	defaultLogFormat       = "console"
	defaultLogFileEnabled  = false
	defaultLogDirectory    = "log"
	defaultLogFilename     = "app.log"
	defaultLogMaxSizeMB    = 100
	defaultLogMaxBackups   = 3
	defaultLogMaxAgeDays   = 7
	defaultLogCompress     = false

	// Environment variable prefix
	envPrefix = "STATWATCH"
)

type Config struct {
	Kafka   KafkaConfig   `mapstructure:"kafka"`
	Stats   []StatSpec    `mapstructure:"stats"`
	Sinks   SinksConfig   `mapstructure:"sinks"`
	Metrics MetricsConfig `mapstructure:"metrics"`
	Log     LogConfig     `mapstructure:"log"`
}

type KafkaConfig struct {
	Brokers []string `mapstructure:"brokers"`
	Topic   string   `mapstructure:"topic"`
	GroupID string   `mapstructure:"groupID"`
}

// StatSpec declares one stat the recorder maintains: which message field it
// observes, which aggregations it computes, and when its window closes.
type StatSpec struct {
	Name         string        `mapstructure:"name"`
	Field        string        `mapstructure:"field"`
	ValueType    string        `mapstructure:"valueType"` // "float" or "int"
	Aggregations []string      `mapstructure:"aggregations"`
	Policy       string        `mapstructure:"policy"`      // "interval" or "count"
	WindowSize   time.Duration `mapstructure:"windowSize"`  // interval policy
	WindowCount  int64         `mapstructure:"windowCount"` // count policy
}

type SinksConfig struct {
	LogEnabled bool            `mapstructure:"logEnabled"`
	Kafka      KafkaSinkConfig `mapstructure:"kafka"`
}

type KafkaSinkConfig struct {
	Enabled    bool     `mapstructure:"enabled"`
	Brokers    []string `mapstructure:"brokers"`
	Topic      string   `mapstructure:"topic"`
	BufferSize int      `mapstructure:"bufferSize"`
}

type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Addr    string `mapstructure:"addr"`
}

type LogConfig struct {
	Level              string `mapstructure:"level"`
	Format             string `mapstructure:"format"`
	FileLoggingEnabled bool   `mapstructure:"fileLoggingEnabled"`
	Directory          string `mapstructure:"directory"`
	Filename           string `mapstructure:"filename"`
	MaxSize            int    `mapstructure:"maxSize"`    // Max size in MB
	MaxBackups         int    `mapstructure:"maxBackups"` // Max backup files
	MaxAge             int    `mapstructure:"maxAge"`     // Max days to retain
	Compress           bool   `mapstructure:"compress"`   // Compress rotated files?
}

// Load initializes viper, reads config, applies defaults, unmarshals, and validates.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	configureViper(v, configPath)

	// Set default values before reading config source .yaml
	setDefaults(v)

	// Read configuration from file (error if mandatory file is missing)
	if err := readConfigFile(v); err != nil {
		return nil, err
	}

	// Unmarshal the configuration
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnmarshallingConfig, err)
	}

	applyStatDefaults(&cfg)

	if err := validateConfig(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// configureViper sets up viper instance for file and environment variables.
func configureViper(v *viper.Viper, configPath string) {
	if configPath != "" {
		v.SetConfigFile(configPath)
	}

	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
}

// setDefaults applies default configuration values using Viper.
func setDefaults(v *viper.Viper) {
	v.SetDefault("kafka.groupID", defaultKafkaGroupID)
	v.SetDefault("sinks.logEnabled", defaultLogSinkEnabled)
	v.SetDefault("sinks.kafka.enabled", false)
	v.SetDefault("sinks.kafka.bufferSize", defaultKafkaSinkBuffer)
	v.SetDefault("metrics.enabled", false)
	v.SetDefault("metrics.addr", defaultMetricsAddr)
	v.SetDefault("log.level", defaultLogLevel)
	v.SetDefault("log.format", defaultLogFormat)
	v.SetDefault("log.fileLoggingEnabled", defaultLogFileEnabled)
	v.SetDefault("log.directory", defaultLogDirectory)
	v.SetDefault("log.filename", defaultLogFilename)
	v.SetDefault("log.maxSize", defaultLogMaxSizeMB)
	v.SetDefault("log.maxBackups", defaultLogMaxBackups)
	v.SetDefault("log.maxAge", defaultLogMaxAgeDays)
	v.SetDefault("log.compress", defaultLogCompress)
}

// applyStatDefaults fills per-entry defaults viper's SetDefault cannot reach
// inside a list of stat specs.
func applyStatDefaults(cfg *Config) {
	for i := range cfg.Stats {
		if cfg.Stats[i].ValueType == "" {
			cfg.Stats[i].ValueType = defaultStatValueType
		}
		if cfg.Stats[i].Field == "" {
			cfg.Stats[i].Field = cfg.Stats[i].Name
		}
	}
}

// readConfigFile attempts to read the configuration file specified in viper.
func readConfigFile(v *viper.Viper) error {
	err := v.ReadInConfig()
	if err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if errors.As(err, &configFileNotFoundError) {
			return ErrConfigFileMissing
		}
		return fmt.Errorf("%w: %w", ErrReadingConfigFile, err)
	}
	return nil
}

func validateConfig(cfg *Config) error {
	if len(cfg.Kafka.Brokers) == 0 {
		return ErrEmptyKafkaBrokers
	}
	if cfg.Kafka.Topic == "" {
		return ErrEmptyKafkaTopic
	}
	if cfg.Kafka.GroupID == "" {
		return ErrEmptyKafkaGroupID
	}
	if len(cfg.Stats) == 0 {
		return ErrNoStatsConfigured
	}
	for _, spec := range cfg.Stats {
		if err := validateStatSpec(spec); err != nil {
			return err
		}
	}
	if cfg.Sinks.Kafka.Enabled {
		if len(cfg.Sinks.Kafka.Brokers) == 0 || cfg.Sinks.Kafka.Topic == "" {
			return ErrInvalidKafkaSink
		}
	}
	return nil
}

func validateStatSpec(spec StatSpec) error {
	if spec.Name == "" {
		return fmt.Errorf("%w: name cannot be empty", ErrInvalidStatSpec)
	}
	if len(spec.Aggregations) == 0 {
		return fmt.Errorf("%w: stat %q needs at least one aggregation", ErrInvalidStatSpec, spec.Name)
	}
	if spec.ValueType != ValueTypeFloat && spec.ValueType != ValueTypeInt {
		return fmt.Errorf("%w: stat %q has unknown valueType %q", ErrInvalidStatSpec, spec.Name, spec.ValueType)
	}
	switch spec.Policy {
	case PolicyInterval:
		if spec.WindowSize <= 0 {
			return fmt.Errorf("%w: stat %q windowSize must be positive", ErrInvalidStatSpec, spec.Name)
		}
	case PolicyCount:
		if spec.WindowCount <= 0 {
			return fmt.Errorf("%w: stat %q windowCount must be positive", ErrInvalidStatSpec, spec.Name)
		}
	default:
		return fmt.Errorf("%w: stat %q has unknown policy %q", ErrInvalidStatSpec, spec.Name, spec.Policy)
	}
	return nil
}
