package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

const (
	exchangeName = "library.events"
	exchangeType = "topic"

	// Event types
	EventTypeAuthorCreated = "library.author.created"
	EventTypeBookCreated   = "library.book.created"
	EventTypeBookDeleted   = "library.book.deleted"

	eventVersion = "1.0.0"

	// Retry configuration
	maxRetries     = 3
	initialBackoff = 100 * time.Millisecond
	maxBackoff     = 5 * time.Second
	confirmTimeout = 5 * time.Second
)

// Emitter publishes catalog changes. Handlers depend on this interface so
// the broker stays optional.
type Emitter interface {
	PublishAuthorCreated(ctx context.Context, authorID int64, name, birthDate, dateOfDeath string) error
	PublishBookCreated(ctx context.Context, bookID int64, isbn, title string, publicationYear int, authorID int64) error
	PublishBookDeleted(ctx context.Context, bookID, authorID int64, authorDeleted bool) error
	IsHealthy() bool
	Close() error
}

// Event represents a domain event
type Event struct {
	EventID       string                 `json:"event_id"`
	EventType     string                 `json:"event_type"`
	EventVersion  string                 `json:"event_version"`
	Timestamp     string                 `json:"timestamp"`
	Source        string                 `json:"source"`
	CorrelationID string                 `json:"correlation_id,omitempty"`
	Payload       map[string]interface{} `json:"payload"`
}

type correlationKey struct{}

// WithCorrelationID attaches a correlation id (usually the request id)
// that published events will carry.
func WithCorrelationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, correlationKey{}, id)
}

// CorrelationID returns the id set by WithCorrelationID, if any.
func CorrelationID(ctx context.Context) string {
	id, _ := ctx.Value(correlationKey{}).(string)
	return id
}

// NewEvent builds an event envelope of the given type.
func NewEvent(ctx context.Context, source, eventType string, payload map[string]interface{}) Event {
	return Event{
		EventID:       uuid.New().String(),
		EventType:     eventType,
		EventVersion:  eventVersion,
		Timestamp:     time.Now().UTC().Format(time.RFC3339),
		Source:        source,
		CorrelationID: CorrelationID(ctx),
		Payload:       payload,
	}
}

// Publisher handles event publishing to RabbitMQ
type Publisher struct {
	conn    *amqp.Connection
	channel *amqp.Channel
	source  string
	log     *zap.Logger
}

var _ Emitter = (*Publisher)(nil)

// NewPublisher connects to RabbitMQ and declares the library exchange
func NewPublisher(url, source string, log *zap.Logger) (*Publisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	if err := channel.ExchangeDeclare(
		exchangeName,
		exchangeType,
		true,  // durable
		false, // auto-deleted
		false, // internal
		false, // no-wait
		nil,   // arguments
	); err != nil {
		channel.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare exchange: %w", err)
	}

	// Enable publisher confirms for reliability
	if err := channel.Confirm(false); err != nil {
		channel.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to enable publisher confirms: %w", err)
	}

	log.Info("Connected to RabbitMQ", zap.String("exchange", exchangeName))

	return &Publisher{
		conn:    conn,
		channel: channel,
		source:  source,
		log:     log,
	}, nil
}

// PublishAuthorCreated publishes an author created event
func (p *Publisher) PublishAuthorCreated(ctx context.Context, authorID int64, name, birthDate, dateOfDeath string) error {
	return p.publishWithRetry(ctx, NewEvent(ctx, p.source, EventTypeAuthorCreated, AuthorCreatedPayload(authorID, name, birthDate, dateOfDeath)))
}

// PublishBookCreated publishes a book created event
func (p *Publisher) PublishBookCreated(ctx context.Context, bookID int64, isbn, title string, publicationYear int, authorID int64) error {
	return p.publishWithRetry(ctx, NewEvent(ctx, p.source, EventTypeBookCreated, BookCreatedPayload(bookID, isbn, title, publicationYear, authorID)))
}

// PublishBookDeleted publishes a book deleted event
func (p *Publisher) PublishBookDeleted(ctx context.Context, bookID, authorID int64, authorDeleted bool) error {
	return p.publishWithRetry(ctx, NewEvent(ctx, p.source, EventTypeBookDeleted, BookDeletedPayload(bookID, authorID, authorDeleted)))
}

// AuthorCreatedPayload is the payload of library.author.created.
// dateOfDeath is omitted when empty.
func AuthorCreatedPayload(authorID int64, name, birthDate, dateOfDeath string) map[string]interface{} {
	payload := map[string]interface{}{
		"author_id":  authorID,
		"name":       name,
		"birth_date": birthDate,
	}
	if dateOfDeath != "" {
		payload["date_of_death"] = dateOfDeath
	}
	return payload
}

// BookCreatedPayload is the payload of library.book.created.
func BookCreatedPayload(bookID int64, isbn, title string, publicationYear int, authorID int64) map[string]interface{} {
	return map[string]interface{}{
		"book_id":          bookID,
		"isbn":             isbn,
		"title":            title,
		"publication_year": publicationYear,
		"author_id":        authorID,
	}
}

// BookDeletedPayload is the payload of library.book.deleted.
func BookDeletedPayload(bookID, authorID int64, authorDeleted bool) map[string]interface{} {
	return map[string]interface{}{
		"book_id":        bookID,
		"author_id":      authorID,
		"author_deleted": authorDeleted,
	}
}

// publishWithRetry publishes an event with exponential backoff retry
func (p *Publisher) publishWithRetry(ctx context.Context, event Event) error {
	body, err := json.Marshal(event)
	if err != nil {
		p.log.Error("Failed to marshal event", zap.Error(err))
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	backoff := initialBackoff
	var lastErr error

	for attempt := 0; attempt < maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
				backoff *= 2
				if backoff > maxBackoff {
					backoff = maxBackoff
				}
			}
		}

		confirmation, err := p.channel.PublishWithDeferredConfirmWithContext(
			ctx,
			exchangeName,
			event.EventType, // routing key
			false,           // mandatory
			false,           // immediate
			amqp.Publishing{
				ContentType:   "application/json",
				DeliveryMode:  amqp.Persistent,
				Timestamp:     time.Now(),
				MessageId:     event.EventID,
				CorrelationId: event.CorrelationID,
				Body:          body,
				Headers: amqp.Table{
					"event_type":    event.EventType,
					"event_version": event.EventVersion,
				},
			},
		)
		if err != nil {
			lastErr = err
			p.log.Warn("Failed to publish event, retrying",
				zap.Int("attempt", attempt+1),
				zap.Error(err),
			)
			continue
		}

		confirmCtx, cancel := context.WithTimeout(ctx, confirmTimeout)
		acked, err := confirmation.WaitContext(confirmCtx)
		cancel()

		switch {
		case err != nil && ctx.Err() != nil:
			return ctx.Err()
		case err != nil:
			lastErr = fmt.Errorf("confirmation timeout: %w", err)
		case acked:
			p.log.Info("Event published successfully",
				zap.String("event_id", event.EventID),
				zap.String("event_type", event.EventType),
			)
			return nil
		default:
			lastErr = fmt.Errorf("event not acknowledged")
		}

		p.log.Warn("Event publish not confirmed, retrying",
			zap.Int("attempt", attempt+1),
			zap.Error(lastErr),
		)
	}

	p.log.Error("Failed to publish event after retries",
		zap.String("event_id", event.EventID),
		zap.String("event_type", event.EventType),
		zap.Int("attempts", maxRetries),
		zap.Error(lastErr),
	)
	return fmt.Errorf("failed to publish event after %d attempts: %w", maxRetries, lastErr)
}

// IsHealthy checks if the publisher connection is healthy
func (p *Publisher) IsHealthy() bool {
	return p.conn != nil && !p.conn.IsClosed()
}

// Close closes the publisher connection
func (p *Publisher) Close() error {
	if p.channel != nil {
		if err := p.channel.Close(); err != nil {
			p.log.Error("Failed to close channel", zap.Error(err))
		}
	}
	if p.conn != nil {
		if err := p.conn.Close(); err != nil {
			p.log.Error("Failed to close connection", zap.Error(err))
			return err
		}
	}
	p.log.Info("Publisher closed")
	return nil
}
