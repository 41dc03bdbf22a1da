package amqp

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/rabbitmq/amqp091-go"
)

type Client struct {
	conn         *amqp091.Connection
	channel      *amqp091.Channel
	exchangeName string
	queueName    string
}

func NewClient(url, exchangeName, queueName string) (*Client, error) {
	conn, err := amqp091.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial AMQP: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	client := &Client{
		conn:         conn,
		channel:      channel,
		exchangeName: exchangeName,
		queueName:    queueName,
	}

	if err := client.setup(); err != nil {
		client.Close()
		return nil, fmt.Errorf("setup exchange and queue: %w", err)
	}

	return client, nil
}

func (c *Client) setup() error {
	err := c.channel.ExchangeDeclare(
		c.exchangeName,
		"direct",
		true,  // durable
		false, // auto-deleted
		false, // internal
		false, // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("declare exchange: %w", err)
	}

	_, err = c.channel.QueueDeclare(
		c.queueName,
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("declare queue: %w", err)
	}

	// One queue, two routing keys: the worker tells upserts from removals
	// by the delivery's routing key.
	for _, key := range []string{RoutingKeySync, RoutingKeyDelete} {
		if err := c.channel.QueueBind(c.queueName, key, c.exchangeName, false, nil); err != nil {
			return fmt.Errorf("bind queue with key %s: %w", key, err)
		}
	}

	return nil
}

// PublishSubscriptionSync publishes an upsert notification for the worker.
func (c *Client) PublishSubscriptionSync(ctx context.Context, id string, version int64) error {
	msg := NewSubscriptionSyncMessage(id, version)
	body, err := msg.ToJSON()
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	if err := c.publish(ctx, RoutingKeySync, body); err != nil {
		return err
	}

	slog.InfoContext(ctx, "Published subscription sync message",
		"id", id,
		"version", version,
		"exchange", c.exchangeName)
	return nil
}

// PublishSubscriptionDelete publishes a removal notification for the worker.
func (c *Client) PublishSubscriptionDelete(ctx context.Context, id string) error {
	msg := NewSubscriptionDeleteMessage(id)
	body, err := msg.ToJSON()
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	if err := c.publish(ctx, RoutingKeyDelete, body); err != nil {
		return err
	}

	slog.InfoContext(ctx, "Published subscription delete message",
		"id", id,
		"exchange", c.exchangeName)
	return nil
}

func (c *Client) publish(ctx context.Context, routingKey string, body []byte) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	err := c.channel.PublishWithContext(
		ctx,
		c.exchangeName,
		routingKey,
		false, // mandatory
		false, // immediate
		amqp091.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp091.Persistent,
			Timestamp:    time.Now(),
			Body:         body,
		},
	)
	if err != nil {
		return fmt.Errorf("publish message: %w", err)
	}
	return nil
}

// Handlers receives decoded messages from Consume. A returned error nacks
// the delivery back onto the queue for retry.
type Handlers struct {
	OnSync   func(*SubscriptionSyncMessage) error
	OnDelete func(*SubscriptionDeleteMessage) error
}

// Consume blocks reading from the queue until ctx is cancelled, dispatching
// each delivery to the matching handler by routing key.
func (c *Client) Consume(ctx context.Context, h Handlers) error {
	msgs, err := c.channel.Consume(
		c.queueName,
		"",    // consumer
		false, // auto-ack (we want manual ack)
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("start consuming: %w", err)
	}

	slog.InfoContext(ctx, "Started consuming subscription messages", "queue", c.queueName)

	for {
		select {
		case <-ctx.Done():
			slog.InfoContext(ctx, "Stopping message consumption", "reason", ctx.Err())
			return ctx.Err()
		case delivery, ok := <-msgs:
			if !ok {
				return fmt.Errorf("message channel closed")
			}
			c.dispatch(ctx, delivery, h)
		}
	}
}

func (c *Client) dispatch(ctx context.Context, delivery amqp091.Delivery, h Handlers) {
	var err error
	switch delivery.RoutingKey {
	case RoutingKeySync:
		var msg *SubscriptionSyncMessage
		if msg, err = SubscriptionSyncMessageFromJSON(delivery.Body); err == nil {
			err = c.handleSync(ctx, msg, h)
			if err == nil {
				delivery.Ack(false)
				return
			}
			delivery.Nack(false, true) // requeue for retry
			return
		}
	case RoutingKeyDelete:
		var msg *SubscriptionDeleteMessage
		if msg, err = SubscriptionDeleteMessageFromJSON(delivery.Body); err == nil {
			err = c.handleDelete(ctx, msg, h)
			if err == nil {
				delivery.Ack(false)
				return
			}
			delivery.Nack(false, true) // requeue for retry
			return
		}
	default:
		slog.WarnContext(ctx, "Unknown routing key", "routing_key", delivery.RoutingKey)
		delivery.Nack(false, false)
		return
	}

	// Undecodable message: reject without requeue, retrying cannot help.
	slog.ErrorContext(ctx, "Failed to unmarshal message",
		"error", err,
		"routing_key", delivery.RoutingKey)
	delivery.Nack(false, false)
}

func (c *Client) handleSync(ctx context.Context, msg *SubscriptionSyncMessage, h Handlers) error {
	if h.OnSync == nil {
		return nil
	}
	slog.InfoContext(ctx, "Processing subscription sync message",
		"id", msg.ID,
		"version", msg.Version)
	if err := h.OnSync(msg); err != nil {
		slog.ErrorContext(ctx, "Failed to handle sync message",
			"error", err,
			"id", msg.ID,
			"version", msg.Version)
		return err
	}
	return nil
}

func (c *Client) handleDelete(ctx context.Context, msg *SubscriptionDeleteMessage, h Handlers) error {
	if h.OnDelete == nil {
		return nil
	}
	slog.InfoContext(ctx, "Processing subscription delete message", "id", msg.ID)
	if err := h.OnDelete(msg); err != nil {
		slog.ErrorContext(ctx, "Failed to handle delete message",
			"error", err,
			"id", msg.ID)
		return err
	}
	return nil
}

func (c *Client) Close() error {
	if c.channel != nil {
		c.channel.Close()
	}
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}
