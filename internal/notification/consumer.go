package notification

import (
	"context"
	"encoding/json"
	"log"

	"github.com/segmentio/kafka-go"
)

// Mailer delivers one confirmation. The real SMTP sender lives outside
// this repo, the default implementation just logs.
type Mailer interface {
	SendConfirmation(ctx context.Context, event ConfirmationEvent) error
}

type LogMailer struct{}

func (LogMailer) SendConfirmation(_ context.Context, event ConfirmationEvent) error {
	log.Printf("order confirmation for %s to %s (total %s)",
		event.OrderID, event.CustomerEmail, event.Total)
	return nil
}

type Consumer struct {
	reader *kafka.Reader
	mailer Mailer
}

func NewConsumer(mailer Mailer, brokers ...string) *Consumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		Topic:    Topic,
		GroupID:  "notification-consumer",
		MaxBytes: 10e6, // 10MB
	})
	return &Consumer{reader: reader, mailer: mailer}
}

func (c *Consumer) Run(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}
		c.consumeOne(ctx)
	}
}

func (c *Consumer) Close() {
	if err := c.reader.Close(); err != nil {
		log.Printf("error closing notification reader: %v", err)
	}
}

func (c *Consumer) consumeOne(ctx context.Context) {
	m, err := c.reader.ReadMessage(ctx)
	if err != nil {
		if ctx.Err() == nil {
			log.Printf("error reading confirmation message: %v", err)
		}
		return
	}

	var event ConfirmationEvent
	if err := json.Unmarshal(m.Value, &event); err != nil {
		log.Printf("error parsing confirmation message: %v", err)
		return
	}

	if err := c.mailer.SendConfirmation(ctx, event); err != nil {
		log.Printf("failed to deliver confirmation for order %s: %v", event.OrderID, err)
	}
}
