package pipeline

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/statwatch/statwatch/internal/config"
	"github.com/statwatch/statwatch/internal/event"
	"github.com/statwatch/statwatch/internal/message"
	"github.com/statwatch/statwatch/internal/stat"
)

// recordedStat hides the stat's value type from the recorder loop so float
// and int stats sit in one slice.
type recordedStat interface {
	Record(msg message.DynamicMessage)
	Close()
}

// Recorder owns the configured stats and folds message fields into them.
// Window closes are triggered from inside Add; the recorder only has to keep
// feeding observations, plus one final flush on shutdown.
type Recorder struct {
	input  <-chan message.DynamicMessage
	stats  []recordedStat
	logger *zap.Logger
}

// NewRecorder constructs one stat per spec, registers them with the
// registry, and wires their events to the bus.
func NewRecorder(specs []config.StatSpec, registry *stat.Registry, bus *event.Bus, input <-chan message.DynamicMessage, logger *zap.Logger) (*Recorder, error) {
	r := &Recorder{
		input:  input,
		logger: logger,
	}

	for _, spec := range specs {
		rs, err := buildStat(spec, registry, bus.Publish, logger)
		if err != nil {
			// Undo stats built so far; registry must not keep handles for a
			// recorder that never ran.
			r.closeStats()
			return nil, fmt.Errorf("stat %q: %w", spec.Name, err)
		}
		r.stats = append(r.stats, rs)
	}

	logger.Info("Recorder initialized", zap.Int("configured_stats", len(r.stats)))
	return r, nil
}

// Run starts the recorder's processing loop.
func (r *Recorder) Run(ctx context.Context) error {
	sugar := r.logger.Sugar()
	sugar.Info("Starting recorder loop...")
	defer sugar.Info("Recorder loop stopped.")

	// Flushing on every exit path guarantees the final partial windows are
	// emitted rather than dropped.
	defer r.closeStats()

	for {
		select {
		case msg, ok := <-r.input:
			if !ok {
				sugar.Info("Recorder input channel closed. Flushing final windows...")
				return nil
			}
			for _, rs := range r.stats {
				rs.Record(msg)
			}

		case <-ctx.Done():
			sugar.Info("Context cancelled, stopping recorder. Flushing final windows...")
			return ctx.Err()
		}
	}
}

func (r *Recorder) closeStats() {
	for _, rs := range r.stats {
		rs.Close()
	}
}

// buildStat translates one config spec into a registered stat wrapped for
// the recorder loop.
func buildStat(spec config.StatSpec, registry *stat.Registry, emit event.Handler, logger *zap.Logger) (recordedStat, error) {
	kinds, err := parseAggregations(spec.Aggregations)
	if err != nil {
		return nil, err
	}

	policy, err := buildPolicy(spec)
	if err != nil {
		return nil, err
	}

	switch spec.ValueType {
	case config.ValueTypeInt:
		st, err := stat.New[int64](spec.Name, kinds, policy, registry, emit)
		if err != nil {
			return nil, err
		}
		return &recorded[int64]{
			field:    spec.Field,
			st:       st,
			getValue: message.DynamicMessage.GetInt64,
			logger:   logger,
		}, nil

	case config.ValueTypeFloat:
		st, err := stat.New[float64](spec.Name, kinds, policy, registry, emit)
		if err != nil {
			return nil, err
		}
		return &recorded[float64]{
			field:    spec.Field,
			st:       st,
			getValue: message.DynamicMessage.GetFloat64,
			logger:   logger,
		}, nil

	default:
		return nil, fmt.Errorf("unknown valueType %q", spec.ValueType)
	}
}

func parseAggregations(names []string) ([]stat.Aggregation, error) {
	kinds := make([]stat.Aggregation, 0, len(names))
	for _, name := range names {
		k, err := stat.ParseAggregation(name)
		if err != nil {
			return nil, err
		}
		kinds = append(kinds, k)
	}
	return kinds, nil
}

func buildPolicy(spec config.StatSpec) (stat.Policy, error) {
	switch spec.Policy {
	case config.PolicyInterval:
		if spec.WindowSize <= 0 {
			return nil, fmt.Errorf("windowSize must be positive, got %v", spec.WindowSize)
		}
		return stat.NewIntervalPolicy(spec.WindowSize), nil
	case config.PolicyCount:
		if spec.WindowCount <= 0 {
			return nil, fmt.Errorf("windowCount must be positive, got %d", spec.WindowCount)
		}
		return stat.NewFixedCountPolicy(spec.WindowCount), nil
	default:
		return nil, fmt.Errorf("unknown policy %q", spec.Policy)
	}
}

// recorded binds one stat to the message field it observes.
type recorded[T stat.Number] struct {
	field    string
	st       *stat.Stat[T]
	getValue func(message.DynamicMessage, string) (T, bool)
	logger   *zap.Logger
}

func (r *recorded[T]) Record(msg message.DynamicMessage) {
	if !msg.HasNonNull(r.field) {
		return
	}

	v, ok := r.getValue(msg, r.field)
	if !ok {
		r.logger.Sugar().Warnw("Field value could not be read as the stat's value type",
			zap.String("stat", r.st.Name()),
			zap.String("field", r.field),
			zap.String("value_snippet", msg.GetFieldSnippet(r.field, 50)),
		)
		return
	}
	r.st.Add(v)
}

func (r *recorded[T]) Close() {
	r.st.Close()
}
