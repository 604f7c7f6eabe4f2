package events

//go:generate mockgen -source=events.go -destination=mock_events.go -package=events

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"auction-site/utils"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Routing keys of the domain events
const (
	AuctionCreated = "auction.created"
	AuctionUpdated = "auction.updated"
	AuctionDeleted = "auction.deleted"
	BidPlaced      = "bid.placed"
)

// Publisher sends domain events to interested consumers
type Publisher interface {
	Publish(ctx context.Context, routingKey string, payload any) error
}

// Event is the envelope written to the exchange
type Event struct {
	ID         string    `json:"id"`
	Type       string    `json:"type"`
	OccurredAt time.Time `json:"occurredAt"`
	Data       any       `json:"data"`
}

// AuctionEvent is the payload of the auction.* events
type AuctionEvent struct {
	AuctionID uint   `json:"auctionId"`
	SellerID  uint   `json:"sellerId"`
	Title     string `json:"title,omitempty"`
}

// BidEvent is the payload of bid.placed
type BidEvent struct {
	AuctionID uint      `json:"auctionId"`
	BidderID  uint      `json:"bidderId"`
	Amount    int       `json:"amount"`
	Timestamp time.Time `json:"timestamp"`
}

// channel is the subset of *amqp.Channel the publisher uses
type channel interface {
	ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// AMQPPublisher publishes JSON events to a durable topic exchange
type AMQPPublisher struct {
	mu       sync.Mutex
	conn     *amqp.Connection
	ch       channel
	exchange string
}

// NewAMQPPublisher dials url and declares the exchange
func NewAMQPPublisher(url, exchange string) (*AMQPPublisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("events: dial: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("events: open channel: %w", err)
	}
	p, err := newPublisher(ch, exchange)
	if err != nil {
		_ = conn.Close()
		return nil, err
	}
	p.conn = conn
	utils.Info("connected to rabbitmq", map[string]any{"exchange": exchange})
	return p, nil
}

func newPublisher(ch channel, exchange string) (*AMQPPublisher, error) {
	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		_ = ch.Close()
		return nil, fmt.Errorf("events: declare exchange %s: %w", exchange, err)
	}
	return &AMQPPublisher{ch: ch, exchange: exchange}, nil
}

// Publish wraps payload in an Event and sends it as a persistent message
func (p *AMQPPublisher) Publish(ctx context.Context, routingKey string, payload any) error {
	evt := Event{
		ID:         utils.GenerateID(),
		Type:       routingKey,
		OccurredAt: time.Now().UTC(),
		Data:       payload,
	}
	body, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("events: encode %s: %w", routingKey, err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	err = p.ch.PublishWithContext(ctx, p.exchange, routingKey, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    evt.ID,
		Timestamp:    evt.OccurredAt,
		Type:         routingKey,
		Body:         body,
	})
	if err != nil {
		return fmt.Errorf("events: publish %s: %w", routingKey, err)
	}
	return nil
}

// Close closes the channel and the connection
func (p *AMQPPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	err := p.ch.Close()
	if p.conn != nil {
		if cerr := p.conn.Close(); err == nil {
			err = cerr
		}
	}
	return err
}

// Healthy reports whether the underlying connection is still open
func (p *AMQPPublisher) Healthy() bool {
	return p.conn != nil && !p.conn.IsClosed()
}

// NopPublisher drops every event; used when no broker is configured
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, string, any) error { return nil }

// Emit publishes an event and logs a failure instead of returning it
func Emit(ctx context.Context, p Publisher, routingKey string, payload any) {
	if p == nil {
		return
	}
	if err := p.Publish(ctx, routingKey, payload); err != nil {
		utils.Warn("failed to publish event", map[string]any{"routingKey": routingKey, "error": err.Error()})
	}
}
