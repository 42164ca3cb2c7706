package messaging

import (
	"context"
	"encoding/json"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// AnalysisTaskHandler processes one analysis task. A returned error causes a
// requeue-free Nack so a poison message cannot loop forever.
type AnalysisTaskHandler interface {
	HandleAnalysisTask(ctx context.Context, payload AnalysisTaskPayload) error
}

// Consumer reads analysis tasks from RabbitMQ and dispatches them to a
// handler.
type Consumer struct {
	conn      *amqp.Connection
	queueName string
	handler   AnalysisTaskHandler
	logger    *zap.Logger
}

// NewConsumer creates a Consumer for the given queue.
func NewConsumer(conn *amqp.Connection, queueName string, handler AnalysisTaskHandler, logger *zap.Logger) *Consumer {
	return &Consumer{
		conn:      conn,
		queueName: queueName,
		handler:   handler,
		logger:    logger.Named("AnalysisConsumer"),
	}
}

// Run consumes tasks until the context is cancelled or the channel closes.
func (c *Consumer) Run(ctx context.Context) error {
	ch, err := c.conn.Channel()
	if err != nil {
		return fmt.Errorf("consumer: failed to open channel: %w", err)
	}
	defer ch.Close()

	if _, err := ch.QueueDeclare(c.queueName, true, false, false, false, nil); err != nil {
		return fmt.Errorf("consumer: failed to declare queue %q: %w", c.queueName, err)
	}

	// One task at a time; analysis calls are slow and memory-heavy.
	if err := ch.Qos(1, 0, false); err != nil {
		return fmt.Errorf("consumer: failed to set QoS: %w", err)
	}

	deliveries, err := ch.Consume(c.queueName, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("consumer: failed to start consuming from %q: %w", c.queueName, err)
	}

	c.logger.Info("Consuming analysis tasks", zap.String("queue", c.queueName))

	for {
		select {
		case <-ctx.Done():
			c.logger.Info("Consumer stopping", zap.Error(ctx.Err()))
			return ctx.Err()
		case d, ok := <-deliveries:
			if !ok {
				c.logger.Warn("Delivery channel closed")
				return nil
			}
			c.handleDelivery(ctx, d)
		}
	}
}

func (c *Consumer) handleDelivery(ctx context.Context, d amqp.Delivery) {
	var payload AnalysisTaskPayload
	if err := json.Unmarshal(d.Body, &payload); err != nil {
		c.logger.Error("Failed to unmarshal analysis task, dropping", zap.Error(err))
		if nackErr := d.Nack(false, false); nackErr != nil {
			c.logger.Error("Failed to Nack malformed message", zap.Error(nackErr))
		}
		return
	}

	log := c.logger.With(
		zap.String("taskID", payload.TaskID),
		zap.String("userID", payload.UserID.String()))
	log.Info("Processing analysis task")

	if err := c.handler.HandleAnalysisTask(ctx, payload); err != nil {
		log.Error("Analysis task failed", zap.Error(err))
		if nackErr := d.Nack(false, false); nackErr != nil {
			log.Error("Failed to Nack message", zap.Error(nackErr))
		}
		return
	}

	if err := d.Ack(false); err != nil {
		log.Error("Failed to Ack message", zap.Error(err))
		return
	}
	log.Info("Analysis task completed")
}
