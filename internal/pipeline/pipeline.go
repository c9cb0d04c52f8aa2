package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/statwatch/statwatch/internal/config"
	"github.com/statwatch/statwatch/internal/event"
	"github.com/statwatch/statwatch/internal/message"
	"github.com/statwatch/statwatch/internal/sink"
	"github.com/statwatch/statwatch/internal/stat"
)

// Pipeline orchestrates the stages: consumer, parsing, recording, sinks.
type Pipeline struct {
	cfg       *config.Config
	consumer  *Consumer
	recorder  *Recorder
	kafkaSink *sink.KafkaSink
	logger    *zap.Logger

	rawMessages    chan []byte
	parsedMessages chan message.DynamicMessage
}

// New creates and wires up a new stat pipeline. The registry is owned by the
// caller so it can also be served over the debug endpoints.
func New(cfg *config.Config, registry *stat.Registry, logger *zap.Logger) (*Pipeline, error) {
	initLogger := logger.Named("pipeline.init")
	initLogger.Debug("Creating pipeline components...")

	// Create Channels
	const channelBufferSize = 100
	rawMessages := make(chan []byte, channelBufferSize)
	parsedMessages := make(chan message.DynamicMessage, channelBufferSize)

	// Wire sinks onto the event bus before any stat exists, so the very
	// first window close already reaches every sink.
	bus := event.NewBus()
	if cfg.Sinks.LogEnabled {
		bus.Subscribe(sink.NewLogHandler(logger.Named("sink.log")))
		initLogger.Debug("Log sink subscribed")
	}
	if cfg.Metrics.Enabled {
		bus.Subscribe(sink.NewPrometheusHandler())
		initLogger.Debug("Prometheus sink subscribed")
	}
	var kafkaSink *sink.KafkaSink
	if cfg.Sinks.Kafka.Enabled {
		ks, err := sink.NewKafkaSink(cfg.Sinks.Kafka, logger.Named("sink.kafka"))
		if err != nil {
			initLogger.Error("Failed to create kafka sink", zap.Error(err))
			return nil, fmt.Errorf("%w: %w", ErrSinkRunFailed, err)
		}
		bus.Subscribe(ks.Handler())
		kafkaSink = ks
		initLogger.Debug("Kafka sink subscribed")
	}

	// Initialize Components
	consumerInstance, err := NewConsumer(cfg.Kafka, rawMessages, logger.Named("consumer"))
	if err != nil {
		initLogger.Error("Failed to create consumer", zap.Error(err))
		return nil, fmt.Errorf("%w: %w", ErrConsumerCreationFailed, err)
	}
	initLogger.Debug("Consumer created")

	recorderInstance, err := NewRecorder(cfg.Stats, registry, bus, parsedMessages, logger.Named("recorder"))
	if err != nil {
		initLogger.Error("Failed to create recorder", zap.Error(err))
		return nil, fmt.Errorf("%w: %w", ErrRecorderCreationFailed, err)
	}
	initLogger.Debug("Recorder created")

	p := &Pipeline{
		cfg:            cfg,
		consumer:       consumerInstance,
		recorder:       recorderInstance,
		kafkaSink:      kafkaSink,
		logger:         logger.Named("pipeline"),
		rawMessages:    rawMessages,
		parsedMessages: parsedMessages,
	}

	initLogger.Info("Pipeline instance created successfully")
	return p, nil
}

// Run starts all pipeline components and waits for them to complete or
// context cancellation.
func (p *Pipeline) Run(ctx context.Context) error {
	sugar := p.logger.Sugar()
	var wg sync.WaitGroup
	pipelineErr := make(chan error, 4) // consumer, parser, recorder, kafka sink

	sugar.Info("Pipeline Run: Starting components...")

	// One failing component tears down the rest.
	ctx, cancelStages := context.WithCancel(ctx)
	defer cancelStages()

	// The kafka sink gets its own cancellation so it can finish draining
	// buffered events after the recorder's final flush.
	sinkCtx, stopSink := context.WithCancel(context.Background())
	defer stopSink()

	if p.kafkaSink != nil {
		wg.Add(1)
		go p.runKafkaSink(sinkCtx, &wg, pipelineErr)
	}

	var stageWg sync.WaitGroup
	stageWg.Add(3)
	go p.runConsumer(ctx, &stageWg, pipelineErr)
	go p.runParser(ctx, &stageWg)
	go p.runRecorder(ctx, &stageWg, pipelineErr)

	// Wait for context cancellation or the first error from any component.
	var firstErr error
	select {
	case <-ctx.Done():
		sugar.Info("Pipeline Run: Context cancelled. Waiting for components to finish...")
		firstErr = ctx.Err()
	case err := <-pipelineErr:
		sugar.Errorw("Pipeline Run: Received error from a component, initiating shutdown...", zap.Error(err))
		firstErr = err
	}

	cancelStages()
	sugar.Debug("Pipeline Run: Waiting for stages to finish...")
	stageWg.Wait()

	// All final windows are flushed now; let the sink drain and stop.
	stopSink()
	wg.Wait()
	sugar.Info("Pipeline Run: All components finished.")

	if firstErr != nil && !errors.Is(firstErr, context.Canceled) {
		return firstErr
	}
	return nil
}

// runConsumer executes the consumer component logic in a goroutine.
func (p *Pipeline) runConsumer(ctx context.Context, wg *sync.WaitGroup, errCh chan<- error) {
	defer wg.Done()
	defer func() {
		close(p.rawMessages)
		p.logger.Debug("Raw messages channel closed")
	}()

	p.logger.Debug("Starting consumer goroutine...")
	if err := p.consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		p.logger.Error("Consumer component exited with error", zap.Error(err))
		errCh <- fmt.Errorf("%w: %w", ErrConsumerRunFailed, err)
	} else {
		p.logger.Debug("Consumer goroutine finished")
	}
}

// runParser executes the parsing logic in a goroutine.
func (p *Pipeline) runParser(ctx context.Context, wg *sync.WaitGroup) {
	defer wg.Done()
	defer func() {
		close(p.parsedMessages)
		p.logger.Debug("Parsed messages channel closed")
	}()

	parserLogger := p.logger.Named("parser").Sugar()
	parserLogger.Debug("Starting parser goroutine...")

	for {
		select {
		case rawMsg, ok := <-p.rawMessages:
			if !ok {
				parserLogger.Debug("Parser finished (raw message channel closed).")
				return
			}

			parsedMsg, err := message.ParseDynamicJSON(rawMsg)
			if err != nil {
				parserLogger.Warnw("Failed to parse message, skipping", zap.Error(err))
				continue
			}

			select {
			case p.parsedMessages <- parsedMsg:

			case <-ctx.Done():
				parserLogger.Debug("Parser context cancelled during send.", zap.Error(ctx.Err()))
				return
			}

		case <-ctx.Done():
			parserLogger.Debug("Parser context cancelled while waiting for raw message.", zap.Error(ctx.Err()))
			return
		}
	}
}

// runRecorder executes the recorder component logic in a goroutine.
func (p *Pipeline) runRecorder(ctx context.Context, wg *sync.WaitGroup, errCh chan<- error) {
	defer wg.Done()

	p.logger.Debug("Starting recorder goroutine...")
	if err := p.recorder.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		p.logger.Error("Recorder component exited with error", zap.Error(err))
		errCh <- fmt.Errorf("%w: %w", ErrRecorderRunFailed, err)
	} else {
		p.logger.Debug("Recorder goroutine finished")
	}
}

// runKafkaSink executes the kafka sink publishing loop in a goroutine.
func (p *Pipeline) runKafkaSink(ctx context.Context, wg *sync.WaitGroup, errCh chan<- error) {
	defer wg.Done()

	p.logger.Debug("Starting kafka sink goroutine...")
	if err := p.kafkaSink.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		p.logger.Error("Kafka sink exited with error", zap.Error(err))
		errCh <- fmt.Errorf("%w: %w", ErrSinkRunFailed, err)
	} else {
		p.logger.Debug("Kafka sink goroutine finished")
	}
}
