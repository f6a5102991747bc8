package detection

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"

	"github.com/ds124wfegd/emergency-ops/internal/alert"
	"github.com/ds124wfegd/emergency-ops/internal/entity"
)

// Consumer streams detection events off Kafka and feeds them into the
// alert pipeline. It is the second intake next to the HTTP endpoint;
// both deliver the same payload shape.
type Consumer struct {
	reader   *kafka.Reader
	pipeline *alert.Pipeline
}

type ConsumerConfig struct {
	Brokers string
	Topic   string
	GroupID string
}

func NewConsumer(cfg ConsumerConfig, pipeline *alert.Pipeline) *Consumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        strings.Split(cfg.Brokers, ","),
		Topic:          cfg.Topic,
		GroupID:        cfg.GroupID,
		MinBytes:       10e3, // 10KB
		MaxBytes:       10e6, // 10MB
		CommitInterval: time.Second,
		StartOffset:    kafka.FirstOffset,
	})

	return &Consumer{
		reader:   reader,
		pipeline: pipeline,
	}
}

// Run reads until ctx is cancelled. Malformed payloads are logged and
// skipped; the pipeline itself absorbs structurally valid events with
// missing fields.
func (c *Consumer) Run(ctx context.Context) {
	logrus.WithFields(logrus.Fields{
		"topic": c.reader.Config().Topic,
		"group": c.reader.Config().GroupID,
	}).Info("Detection consumer started")

	for {
		msg, err := c.reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			logrus.WithError(err).Error("Failed to read detection message")
			continue
		}

		var event entity.DetectionEvent
		if err := json.Unmarshal(msg.Value, &event); err != nil {
			logrus.WithError(err).WithFields(logrus.Fields{
				"partition": msg.Partition,
				"offset":    msg.Offset,
			}).Warn("Skipping malformed detection message")
			continue
		}

		c.pipeline.ProcessDetection(ctx, &event)
	}
}

func (c *Consumer) Close() error {
	return c.reader.Close()
}
