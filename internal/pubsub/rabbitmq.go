package pubsub

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
)

// RabbitPublisher publishes to durable RabbitMQ queues through the default exchange, so the
// topic name is the queue name.
type RabbitPublisher struct {
	mu       sync.Mutex
	conn     *amqp.Connection
	channel  *amqp.Channel
	declared map[string]bool
}

// NewRabbitPublisher dials the broker with a bounded timeout.
func NewRabbitPublisher(amqpURL string) (*RabbitPublisher, error) {
	cleanURL, err := sanitizeAMQPURL(amqpURL)
	if err != nil {
		return nil, err
	}
	conn, err := amqp.DialConfig(cleanURL, amqp.Config{Dial: amqp.DefaultDial(10 * time.Second)})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to open RabbitMQ channel: %w", err)
	}
	return &RabbitPublisher{conn: conn, channel: ch, declared: map[string]bool{}}, nil
}

// Publish declares the queue on first use and sends a persistent JSON message. A failed publish
// reopens the channel and retries once.
func (p *RabbitPublisher) Publish(ctx context.Context, topic string, payload []byte) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	id := uuid.NewString()
	msg := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    id,
		Timestamp:    time.Now().UTC(),
		Body:         payload,
	}

	err := p.publishLocked(ctx, topic, msg)
	if err == nil {
		return id, nil
	}
	if reopenErr := p.reopenLocked(); reopenErr != nil {
		return "", fmt.Errorf("failed to publish message to queue %s: %w", topic, errors.Join(err, reopenErr))
	}
	if err := p.publishLocked(ctx, topic, msg); err != nil {
		return "", fmt.Errorf("failed to publish message to queue %s: %w", topic, err)
	}
	return id, nil
}

func (p *RabbitPublisher) publishLocked(ctx context.Context, queue string, msg amqp.Publishing) error {
	if !p.declared[queue] {
		if _, err := p.channel.QueueDeclare(queue, true, false, false, false, nil); err != nil {
			return err
		}
		p.declared[queue] = true
	}
	return p.channel.PublishWithContext(ctx, "", queue, false, false, msg)
}

func (p *RabbitPublisher) reopenLocked() error {
	if p.conn == nil || p.conn.IsClosed() {
		return amqp.ErrClosed
	}
	ch, err := p.conn.Channel()
	if err != nil {
		return err
	}
	p.channel = ch
	p.declared = map[string]bool{}
	return nil
}

func (p *RabbitPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	var errs []error
	if p.channel != nil {
		errs = append(errs, p.channel.Close())
	}
	if p.conn != nil {
		errs = append(errs, p.conn.Close())
	}
	return errors.Join(errs...)
}

// sanitizeAMQPURL strips quotes and whitespace that env files tend to leave around the URL.
func sanitizeAMQPURL(raw string) (string, error) {
	clean := strings.Trim(strings.TrimSpace(raw), "\"'")
	u, err := url.Parse(clean)
	if err != nil {
		return "", fmt.Errorf("invalid RabbitMQ URL: %w", err)
	}
	if u.Scheme != "amqp" && u.Scheme != "amqps" {
		return "", errors.New("RabbitMQ URL scheme must be amqp:// or amqps://")
	}
	return clean, nil
}
