package output

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/chrisdamba/golfsim/internal/metrics"
	"github.com/chrisdamba/golfsim/internal/models"
)

// MessageWriter publishes keyed messages to a topic.
type MessageWriter interface {
	WriteMessage(topic, key string, msg []byte) error
	Close() error
}

// KafkaOutput publishes one run document per run, keyed by simulation id.
type KafkaOutput struct {
	producer MessageWriter
	topic    string
}

func NewKafkaOutput(producer MessageWriter, topic string) *KafkaOutput {
	return &KafkaOutput{producer: producer, topic: topic}
}

func (k *KafkaOutput) WriteRun(ctx context.Context, result *models.RunResult, report metrics.Report) error {
	if k.producer == nil {
		return fmt.Errorf("kafka producer is closed")
	}
	msg, err := json.Marshal(newDocument(ctx, result, report))
	if err != nil {
		return fmt.Errorf("marshal run %s: %w", result.SimulationID, err)
	}
	if err := k.producer.WriteMessage(k.topic, result.SimulationID, msg); err != nil {
		return fmt.Errorf("publish run %s to %s: %w", result.SimulationID, k.topic, err)
	}
	return nil
}

func (k *KafkaOutput) Close() error {
	if k.producer == nil {
		return nil
	}
	err := k.producer.Close()
	k.producer = nil
	return err
}
