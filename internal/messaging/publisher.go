package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// AnalysisTaskPublisher publishes pattern analysis tasks onto the work queue.
type AnalysisTaskPublisher interface {
	PublishAnalysisTask(ctx context.Context, payload AnalysisTaskPayload) error
}

// Compile-time check
var _ AnalysisTaskPublisher = (*rabbitMQPublisher)(nil)

type rabbitMQPublisher struct {
	channel   *amqp.Channel
	queueName string
	logger    *zap.Logger
}

// NewRabbitMQAnalysisTaskPublisher opens a channel and declares the task
// queue. Queue parameters must match the worker's declaration.
func NewRabbitMQAnalysisTaskPublisher(conn *amqp.Connection, queueName string, logger *zap.Logger) (AnalysisTaskPublisher, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("analysis task publisher: failed to open channel: %w", err)
	}
	if _, err := ch.QueueDeclare(queueName, true, false, false, false, nil); err != nil {
		ch.Close()
		return nil, fmt.Errorf("analysis task publisher: failed to declare queue %q: %w", queueName, err)
	}
	logger.Info("Analysis task queue declared", zap.String("queue", queueName))
	return &rabbitMQPublisher{
		channel:   ch,
		queueName: queueName,
		logger:    logger.Named("AnalysisTaskPublisher"),
	}, nil
}

func (p *rabbitMQPublisher) PublishAnalysisTask(ctx context.Context, payload AnalysisTaskPayload) error {
	body, err := json.Marshal(payload)
	if err != nil {
		p.logger.Error("Failed to marshal analysis task",
			zap.String("taskID", payload.TaskID), zap.Error(err))
		return fmt.Errorf("failed to marshal analysis task %s: %w", payload.TaskID, err)
	}
	if err := p.publishMessage(ctx, body); err != nil {
		p.logger.Error("Failed to publish analysis task",
			zap.String("taskID", payload.TaskID),
			zap.String("userID", payload.UserID.String()),
			zap.Error(err))
		return fmt.Errorf("failed to publish analysis task %s: %w", payload.TaskID, err)
	}
	p.logger.Debug("Analysis task published",
		zap.String("taskID", payload.TaskID),
		zap.String("userID", payload.UserID.String()))
	return nil
}

func (p *rabbitMQPublisher) publishMessage(ctx context.Context, body []byte) error {
	if p.channel == nil {
		return errors.New("RabbitMQ channel is not initialized")
	}
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	var err error
	for attempt := 1; attempt <= 3; attempt++ {
		err = p.channel.PublishWithContext(ctx,
			"",          // exchange
			p.queueName, // routing key
			false,       // mandatory
			false,       // immediate
			amqp.Publishing{
				ContentType:  "application/json",
				DeliveryMode: amqp.Persistent,
				Body:         body,
				Timestamp:    time.Now(),
				AppId:        "thing-journal-server",
			},
		)
		if err == nil {
			return nil
		}
		p.logger.Warn("Publish attempt failed",
			zap.Int("attempt", attempt),
			zap.String("queue", p.queueName),
			zap.Error(err))
		time.Sleep(time.Duration(attempt) * 100 * time.Millisecond)
	}
	return fmt.Errorf("failed to publish to queue %s after retries: %w", p.queueName, err)
}
