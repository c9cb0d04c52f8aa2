package config

import "errors"

var (
	ErrReadingConfigFile   = errors.New("failed to read config file")
	ErrUnmarshallingConfig = errors.New("failed to unmarshal config")
	ErrConfigFileMissing   = errors.New("config file not found")
	ErrEmptyKafkaBrokers   = errors.New("kafka brokers list cannot be empty")
	ErrEmptyKafkaTopic     = errors.New("kafka topic cannot be empty")
	ErrEmptyKafkaGroupID   = errors.New("kafka groupID cannot be empty")
	ErrNoStatsConfigured   = errors.New("at least one stat must be configured")
	ErrInvalidStatSpec     = errors.New("invalid stat spec")
	ErrInvalidKafkaSink    = errors.New("invalid kafka sink configuration")
)
