package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"math/rand"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/segmentio/kafka-go"
)

const (
	kafkaBroker = "localhost:9092"
	topic       = "observation-stream"
)

// Example observation message structure (matches what statwatch expects)
type ObservationMessage struct {
	Timestamp   time.Time `json:"timestamp"`
	RequestID   string    `json:"request_id"`
	LatencyMs   *float64  `json:"latency_ms"`
	QueueDepth  *int64    `json:"queue_depth"`
	PayloadSize int       `json:"payload_size"`
}

func main() {
	writer := &kafka.Writer{
		Addr:     kafka.TCP(kafkaBroker),
		Topic:    topic,
		Balancer: &kafka.LeastBytes{},
	}
	defer func() {
		if err := writer.Close(); err != nil {
			log.Fatalf("Error closing kafka writer: %v", err)
		}
	}()
	log.Printf("Starting sample producer for topic: %s on broker: %s", topic, kafkaBroker)

	// Handle graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-signals
		log.Println("Shutdown signal received, stopping producer...")
		cancel()
	}()

	// Produce messages periodically
	ticker := time.NewTicker(200 * time.Millisecond)
	defer ticker.Stop()

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))

	for {
		select {
		case <-ticker.C:
			msg := generateSampleMessage(rng)
			msgBytes, err := json.Marshal(msg)
			if err != nil {
				log.Printf("Error marshalling message: %v", err)
				continue
			}

			err = writer.WriteMessages(ctx, kafka.Message{Value: msgBytes})
			if err != nil {
				if ctx.Err() != nil { // Check if context was cancelled (shutdown)
					log.Println("Context cancelled, exiting message loop.")
					return
				}
				log.Printf("Error writing message: %v", err)
			} else {
				log.Printf("Produced message: %s", string(msgBytes))
			}

		case <-ctx.Done():
			log.Println("Producer loop stopped.")
			return
		}
	}
}

// Generates a sample message with some randomness and potential nulls/outliers
func generateSampleMessage(rng *rand.Rand) ObservationMessage {
	now := time.Now()
	requestID := fmt.Sprintf("req_%d", rng.Intn(100000))

	var latency *float64
	// ~5% chance of being null (timed-out request)
	if rng.Float64() > 0.05 {
		// Log-normal-ish latency around 20ms with occasional spikes
		val := 20.0 + rng.NormFloat64()*5.0
		if rng.Float64() < 0.02 { // 2% chance of a slow request
			val += rng.Float64() * 200.0
		}
		if val < 0 {
			val = 0.1
		}
		latency = &val
	}

	var queueDepth *int64
	if rng.Float64() > 0.1 {
		val := int64(rng.Intn(64))
		queueDepth = &val
	}

	payloadSize := 128 + rng.Intn(4096)

	return ObservationMessage{
		Timestamp:   now,
		RequestID:   requestID,
		LatencyMs:   latency,
		QueueDepth:  queueDepth,
		PayloadSize: payloadSize,
	}
}
