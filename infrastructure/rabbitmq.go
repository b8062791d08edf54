package infrastructure

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"talentvibe/application"
	"talentvibe/logger"
)

const analysisQueue = "analysis_queue"

// RabbitMQ carries whole analysis batches through a durable queue, so the
// upload handler can return immediately while a consumer on this or
// another process runs the orchestrator. Optional: without a broker the
// goroutine dispatcher covers the same contract in-process.
type RabbitMQ struct {
	conn    *amqp.Connection
	channel *amqp.Channel
	queue   amqp.Queue
	log     *logger.Logger
}

func NewRabbitMQ(url string, log *logger.Logger) (*RabbitMQ, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("connect to RabbitMQ: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("open channel: %w", err)
	}
	q, err := ch.QueueDeclare(
		analysisQueue,
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("declare queue: %w", err)
	}
	log.Info("connected to RabbitMQ", "queue", q.Name)
	return &RabbitMQ{conn: conn, channel: ch, queue: q, log: log.With("component", "RabbitMQ")}, nil
}

// Dispatch publishes the batch. Satisfies application.Dispatcher.
func (r *RabbitMQ) Dispatch(batch application.Batch) error {
	body, err := json.Marshal(batch)
	if err != nil {
		return fmt.Errorf("marshal batch: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	return r.channel.PublishWithContext(
		ctx,
		"",           // exchange
		r.queue.Name, // routing key
		false,
		false,
		amqp.Publishing{
			ContentType: "application/json",
			Body:        body,
		},
	)
}

// StartConsumer drains the queue on a background goroutine, running each
// batch through the handler. Batches run to completion; there is no
// mid-batch cancel.
func (r *RabbitMQ) StartConsumer(handler func(application.Batch)) error {
	msgs, err := r.channel.Consume(
		r.queue.Name,
		"",
		true,  // auto-ack
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("register consumer: %w", err)
	}

	go func() {
		for d := range msgs {
			var batch application.Batch
			if err := json.Unmarshal(d.Body, &batch); err != nil {
				r.log.Warn("dropping malformed batch message", "error", err)
				continue
			}
			handler(batch)
		}
	}()
	return nil
}

func (r *RabbitMQ) Close() {
	if r.channel != nil {
		_ = r.channel.Close()
	}
	if r.conn != nil {
		_ = r.conn.Close()
	}
}
