package queue

import (
	"context"
	"errors"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// ErrConsumerClosed reports that the broker connection or channel is gone.
// The caller should treat it as a transport failure and retry after a pause.
var ErrConsumerClosed = errors.New("queue consumer closed")

// RabbitConsumer is a prefetch-1, manual-ack consumer over a durable queue.
type RabbitConsumer struct {
	conn       *amqp.Connection
	channel    *amqp.Channel
	deliveries <-chan amqp.Delivery
	logger     *zap.Logger
}

// NewRabbitConsumer connects to the broker, declares the queue, and starts a
// consumer limited to one unacknowledged message at a time.
func NewRabbitConsumer(url, queueName string, logger *zap.Logger) (*RabbitConsumer, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	if _, err := ch.QueueDeclare(
		queueName,
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,
	); err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare queue: %w", err)
	}

	// One in-flight message bounds the pipeline to a single image at a time.
	if err := ch.Qos(1, 0, false); err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to set prefetch: %w", err)
	}

	deliveries, err := ch.Consume(
		queueName,
		"",    // consumer tag
		false, // auto-ack
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,
	)
	if err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to start consumer: %w", err)
	}

	logger.Info("queue consumer started", zap.String("queue", queueName))
	return &RabbitConsumer{
		conn:       conn,
		channel:    ch,
		deliveries: deliveries,
		logger:     logger,
	}, nil
}

// Receive waits up to the given duration for one message. An empty queue
// yields (nil, nil); a closed channel yields ErrConsumerClosed.
func (c *RabbitConsumer) Receive(ctx context.Context, wait time.Duration) (Delivery, error) {
	timer := time.NewTimer(wait)
	defer timer.Stop()

	select {
	case msg, ok := <-c.deliveries:
		if !ok {
			return nil, ErrConsumerClosed
		}
		return &rabbitDelivery{msg: msg}, nil
	case <-timer.C:
		return nil, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Close shuts down the channel and connection.
func (c *RabbitConsumer) Close() error {
	if c.channel != nil {
		if err := c.channel.Close(); err != nil {
			c.logger.Warn("error closing channel", zap.Error(err))
		}
	}
	if c.conn != nil {
		if err := c.conn.Close(); err != nil {
			c.logger.Warn("error closing connection", zap.Error(err))
			return err
		}
	}
	return nil
}

type rabbitDelivery struct {
	msg amqp.Delivery
}

func (d *rabbitDelivery) Body() []byte {
	return d.msg.Body
}

func (d *rabbitDelivery) Ack() error {
	return d.msg.Ack(false)
}

func (d *rabbitDelivery) Reject() error {
	return d.msg.Nack(false, true)
}
