package events

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

const publishTimeout = 5 * time.Second

type Client struct {
	conn         *amqp091.Connection
	channel      *amqp091.Channel
	exchangeName string
	queueName    string
	logger       *zap.Logger
}

func NewClient(url, exchangeName, queueName string, logger *zap.Logger) (*Client, error) {
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
		logger:       logger,
	}

	if err := client.setup(); err != nil {
		client.Close()
		return nil, fmt.Errorf("setup exchange and queue: %w", err)
	}

	logger.Info("AMQP client connected",
		zap.String("exchange", exchangeName),
		zap.String("queue", queueName),
	)
	return client, nil
}

func (c *Client) setup() error {
	if err := c.channel.ExchangeDeclare(
		c.exchangeName, // name
		"direct",       // type
		true,           // durable
		false,          // auto-deleted
		false,          // internal
		false,          // no-wait
		nil,
	); err != nil {
		return fmt.Errorf("declare exchange: %w", err)
	}

	if _, err := c.channel.QueueDeclare(
		c.queueName, // name
		true,        // durable
		false,       // delete when unused
		false,       // exclusive
		false,       // no-wait
		nil,
	); err != nil {
		return fmt.Errorf("declare queue: %w", err)
	}

	// direct exchange: the queue name doubles as routing key
	if err := c.channel.QueueBind(c.queueName, c.queueName, c.exchangeName, false, nil); err != nil {
		return fmt.Errorf("bind queue: %w", err)
	}
	return nil
}

func (c *Client) PublishAnomalyAlert(ctx context.Context, msg *AnomalyAlertMessage) error {
	body, err := msg.ToJSON()
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	err = c.channel.PublishWithContext(ctx,
		c.exchangeName,
		c.queueName,
		false, // mandatory
		false, // immediate
		amqp091.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp091.Persistent,
			Timestamp:    msg.Timestamp,
			Body:         body,
		},
	)
	if err != nil {
		return fmt.Errorf("publish message: %w", err)
	}

	c.logger.Debug("Published anomaly alert",
		zap.String("upload_id", msg.UploadID),
		zap.String("service", msg.Anomaly.Service),
		zap.String("severity", string(msg.Anomaly.Severity)),
	)
	return nil
}

// ConsumeAnomalyAlerts blocks until ctx is done or the channel closes.
// Malformed messages are dropped; messages the handler fails on are requeued.
func (c *Client) ConsumeAnomalyAlerts(ctx context.Context, handler func(context.Context, *AnomalyAlertMessage) error) error {
	msgs, err := c.channel.Consume(
		c.queueName,
		"",    // consumer
		false, // auto-ack
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("start consuming: %w", err)
	}

	c.logger.Info("Started consuming anomaly alerts", zap.String("queue", c.queueName))

	for {
		select {
		case <-ctx.Done():
			c.logger.Info("Stopping message consumption", zap.Error(ctx.Err()))
			return ctx.Err()
		case delivery, ok := <-msgs:
			if !ok {
				return errors.New("message channel closed")
			}
			dispatchDelivery(ctx, delivery, delivery.Body, handler, c.logger)
		}
	}
}

type acknowledger interface {
	Ack(multiple bool) error
	Nack(multiple, requeue bool) error
}

func dispatchDelivery(ctx context.Context, ack acknowledger, body []byte, handler func(context.Context, *AnomalyAlertMessage) error, logger *zap.Logger) {
	msg, err := AnomalyAlertMessageFromJSON(body)
	if err != nil {
		logger.Error("Failed to unmarshal message", zap.Error(err))
		if err := ack.Nack(false, false); err != nil {
			logger.Warn("Failed to nack message", zap.Bool("requeue", false), zap.Error(err))
		}
		return
	}

	if err := handler(ctx, msg); err != nil {
		logger.Error("Failed to handle anomaly alert",
			zap.Error(err),
			zap.String("upload_id", msg.UploadID),
		)
		if err := ack.Nack(false, true); err != nil {
			logger.Warn("Failed to nack message", zap.Bool("requeue", true), zap.String("upload_id", msg.UploadID), zap.Error(err))
		}
		return
	}

	if err := ack.Ack(false); err != nil {
		logger.Warn("Failed to ack message", zap.String("upload_id", msg.UploadID), zap.Error(err))
	}
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
