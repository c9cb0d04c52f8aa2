package sink

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/statwatch/statwatch/internal/config"
	"github.com/statwatch/statwatch/internal/event"
)

// kafkaEventPayload is the wire shape published to the output topic.
type kafkaEventPayload struct {
	Type      string         `json:"type"`
	Stat      string         `json:"stat"`
	Timestamp time.Time      `json:"timestamp"`
	Metadata  map[string]any `json:"metadata"`
}

// KafkaSink publishes closed-window events to a Kafka topic. The handler
// only enqueues onto a buffered channel; a writer goroutine does the actual
// publishing, so a slow broker never stalls the stat add path. Events are
// dropped with a warning once the buffer is full.
type KafkaSink struct {
	writer *kafka.Writer
	events chan event.Event
	logger *zap.Logger
}

// NewKafkaSink creates a sink for the given output topic.
func NewKafkaSink(cfg config.KafkaSinkConfig, logger *zap.Logger) (*KafkaSink, error) {
	if len(cfg.Brokers) == 0 || cfg.Topic == "" {
		return nil, errors.New("kafka sink needs brokers and a topic")
	}

	bufferSize := cfg.BufferSize
	if bufferSize <= 0 {
		bufferSize = 256
	}

	w := &kafka.Writer{
		Addr:     kafka.TCP(cfg.Brokers...),
		Topic:    cfg.Topic,
		Balancer: &kafka.LeastBytes{},
	}

	logger.Info("Kafka sink created",
		zap.String("topic", cfg.Topic),
		zap.Strings("brokers", cfg.Brokers),
		zap.Int("buffer_size", bufferSize),
	)

	return &KafkaSink{
		writer: w,
		events: make(chan event.Event, bufferSize),
		logger: logger,
	}, nil
}

// Handler returns the emit-side of the sink. Never blocks.
func (s *KafkaSink) Handler() event.Handler {
	return func(e event.Event) {
		select {
		case s.events <- e:
		default:
			s.logger.Sugar().Warnw("Kafka sink buffer full, dropping event",
				zap.String("stat", e.Message),
				zap.Time("timestamp", e.Timestamp),
			)
		}
	}
}

// Run drains the buffer and publishes until the context is cancelled.
func (s *KafkaSink) Run(ctx context.Context) error {
	sugar := s.logger.Sugar()
	sugar.Info("Starting Kafka sink loop...")

	defer func() {
		if err := s.writer.Close(); err != nil {
			sugar.Errorw("Failed to close Kafka writer cleanly", zap.Error(err))
		}
		sugar.Info("Kafka sink loop stopped.")
	}()

	for {
		select {
		case e := <-s.events:
			s.publish(ctx, e)

		case <-ctx.Done():
			s.drain()
			return ctx.Err()
		}
	}
}

// drain publishes whatever is still buffered at shutdown, with a short
// deadline so a dead broker cannot hang process exit.
func (s *KafkaSink) drain() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	for {
		select {
		case e := <-s.events:
			s.publish(ctx, e)
		default:
			return
		}
	}
}

func (s *KafkaSink) publish(ctx context.Context, e event.Event) {
	payload := kafkaEventPayload{
		Type:      e.Type,
		Stat:      e.Message,
		Timestamp: e.Timestamp,
		Metadata:  e.Metadata,
	}
	msgBytes, err := json.Marshal(payload)
	if err != nil {
		s.logger.Error("Failed to marshal event payload", zap.Error(err))
		return
	}

	err = s.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(e.Message),
		Value: msgBytes,
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		s.logger.Error("Failed to publish event to Kafka",
			zap.String("stat", e.Message),
			zap.Error(err),
		)
	}
}
