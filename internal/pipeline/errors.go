package pipeline

import "errors"

var (
	ErrInvalidKafkaConfig     = errors.New("invalid Kafka configuration provided")
	ErrKafkaFetchFailed       = errors.New("failed to fetch message from Kafka")
	ErrConsumerCreationFailed = errors.New("failed to create consumer")
	ErrRecorderCreationFailed = errors.New("failed to create recorder")
	ErrConsumerRunFailed      = errors.New("consumer component failed")
	ErrRecorderRunFailed      = errors.New("recorder component failed")
	ErrSinkRunFailed          = errors.New("sink component failed")
)
