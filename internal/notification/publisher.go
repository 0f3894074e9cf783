package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/billionairedev24/royal-grace-cards/internal/domain"
	"github.com/segmentio/kafka-go"
)

const Topic = "order-confirmations"

type ConfirmationEvent struct {
	OrderID       string    `json:"order_id"`
	CustomerName  string    `json:"customer_name"`
	CustomerEmail string    `json:"customer_email"`
	Total         string    `json:"total"`
	PaymentMethod string    `json:"payment_method"`
	CompletedAt   time.Time `json:"completed_at"`
}

// Publisher hands settled orders to the notification pipeline over
// Kafka. Callers treat it as best effort.
type Publisher struct {
	writer *kafka.Writer
}

func NewPublisher(brokers ...string) *Publisher {
	w := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  Topic,
		Balancer:               &kafka.LeastBytes{},
		AllowAutoTopicCreation: true,
	}
	return &Publisher{writer: w}
}

func (p *Publisher) SendOrderConfirmation(ctx context.Context, o *domain.Order) error {
	event := ConfirmationEvent{
		OrderID:       o.ID,
		CustomerName:  o.CustomerName,
		CustomerEmail: o.CustomerEmail,
		Total:         o.Total.StringFixed(2),
		PaymentMethod: string(o.PaymentMethod),
		CompletedAt:   time.Now(),
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal confirmation event: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(o.ID), // order id for ordering
		Value: payload,
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("failed to publish confirmation event: %w", err)
	}
	return nil
}

func (p *Publisher) Close() error {
	return p.writer.Close()
}
