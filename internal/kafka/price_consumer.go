package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
	"github.com/tradefolio/portfolio-service/internal/models"
)

// PriceRepository defines the database operations for price pushes
type PriceRepository interface {
	ApplyPriceUpdate(symbol string, price decimal.Decimal) (*models.Stock, int, error)
}

// PriceInvalidator drops any cached price for a symbol after a push
type PriceInvalidator interface {
	Invalidate(ctx context.Context, symbol string)
}

// PriceConsumer consumes external price pushes from the market-data
// topic and applies them through the same path as the HTTP push.
type PriceConsumer struct {
	reader      *kafka.Reader
	repo        PriceRepository
	invalidator PriceInvalidator
}

// NewPriceConsumer creates a new Kafka consumer for price events.
// invalidator may be nil when no price cache is configured.
func NewPriceConsumer(brokers []string, topic, groupID string, repo PriceRepository, invalidator PriceInvalidator) *PriceConsumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        brokers,
		Topic:          topic,
		GroupID:        groupID + "-prices", // Separate consumer group for price pushes
		MinBytes:       10e3,                // 10KB
		MaxBytes:       10e6,                // 10MB
		MaxWait:        1 * time.Second,
		StartOffset:    kafka.LastOffset, // Only read new messages (not historical)
		CommitInterval: time.Second,
	})

	return &PriceConsumer{
		reader:      reader,
		repo:        repo,
		invalidator: invalidator,
	}
}

// Start begins consuming messages from Kafka
func (c *PriceConsumer) Start(ctx context.Context) error {
	log.Printf("Starting Kafka price consumer for topic: %s", c.reader.Config().Topic)

	for {
		select {
		case <-ctx.Done():
			log.Println("Price consumer shutting down...")
			return c.reader.Close()
		default:
			msg, err := c.reader.ReadMessage(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return nil // Context cancelled, normal shutdown
				}
				log.Printf("Error reading price message: %v", err)
				continue
			}

			if err := c.processMessage(ctx, msg); err != nil {
				log.Printf("Error processing price message: %v", err)
				// Continue processing other messages
			}
		}
	}
}

// processMessage handles a single Kafka message
func (c *PriceConsumer) processMessage(ctx context.Context, msg kafka.Message) error {
	var event models.PriceEvent
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		return fmt.Errorf("failed to unmarshal price event: %w", err)
	}

	// Only process PRICE_UPDATED events
	if event.EventType != models.EventPriceUpdated {
		log.Printf("Ignoring event type: %s", event.EventType)
		return nil
	}

	if event.Symbol == "" {
		return fmt.Errorf("price event missing symbol")
	}
	price, err := decimal.NewFromString(event.Price)
	if err != nil {
		return fmt.Errorf("invalid price %q: %w", event.Price, err)
	}
	if price.IsNegative() {
		return fmt.Errorf("negative price %s for %s", price, event.Symbol)
	}

	stock, affected, err := c.repo.ApplyPriceUpdate(event.Symbol, price)
	if err != nil {
		return fmt.Errorf("failed to apply price update for %s: %w", event.Symbol, err)
	}

	if c.invalidator != nil {
		c.invalidator.Invalidate(ctx, event.Symbol)
	}

	log.Printf("Applied price push: %s -> %s (%d positions revalued)",
		stock.Symbol, stock.CurrentPrice, affected)
	return nil
}

// Close closes the Kafka consumer
func (c *PriceConsumer) Close() error {
	return c.reader.Close()
}
