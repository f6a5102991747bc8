package rabbitMQ

import (
	"context"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"
)

// Queue is the broker surface the scheduler depends on. Delayed
// publishes come back on the main queue once their delay elapses.
type Queue interface {
	Publish(ctx context.Context, body []byte) error
	PublishWithDelay(ctx context.Context, body []byte, delay time.Duration) error
	Consume(ctx context.Context, handler func(body []byte) error) error
	HealthCheck() error
	Close() error
}

type RabbitMQ struct {
	conn    *amqp.Connection
	channel *amqp.Channel
	queue   amqp.Queue
	config  Config
}

type Config struct {
	URL       string
	QueueName string
}

func NewRabbitMQ(config Config) (*RabbitMQ, error) {
	conn, err := amqp.Dial(config.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	q, err := channel.QueueDeclare(
		config.QueueName, // name
		true,             // durable
		false,            // delete when unused
		false,            // exclusive
		false,            // no-wait
		amqp.Table{
			"x-queue-mode": "lazy",
		},
	)
	if err != nil {
		channel.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare queue: %w", err)
	}

	return &RabbitMQ{
		conn:    conn,
		channel: channel,
		queue:   q,
		config:  config,
	}, nil
}

func (r *RabbitMQ) Publish(ctx context.Context, body []byte) error {
	err := r.channel.PublishWithContext(
		ctx,
		"",           // exchange
		r.queue.Name, // routing key
		false,        // mandatory
		false,        // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         body,
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now(),
		},
	)
	if err != nil {
		return fmt.Errorf("failed to publish message: %w", err)
	}
	return nil
}

// PublishWithDelay parks the message in a per-publish TTL queue whose
// dead-letter target is the main queue, so it reappears there once the
// delay expires. The parking queue expires itself shortly after.
func (r *RabbitMQ) PublishWithDelay(ctx context.Context, body []byte, delay time.Duration) error {
	delayedQueueName := fmt.Sprintf("%s_delayed_%d", r.config.QueueName, time.Now().UnixNano())

	_, err := r.channel.QueueDeclare(
		delayedQueueName,
		true,  // durable
		false, // delete when unused
		true,  // exclusive
		false, // no-wait
		amqp.Table{
			"x-message-ttl":             delay.Milliseconds(),
			"x-dead-letter-exchange":    "",
			"x-dead-letter-routing-key": r.config.QueueName,
			"x-expires":                 delay.Milliseconds() + 60000,
		},
	)
	if err != nil {
		return fmt.Errorf("failed to declare delayed queue: %w", err)
	}

	err = r.channel.PublishWithContext(
		ctx,
		"",
		delayedQueueName,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         body,
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now(),
		},
	)
	if err != nil {
		return fmt.Errorf("failed to publish delayed message: %w", err)
	}
	return nil
}

func (r *RabbitMQ) Consume(ctx context.Context, handler func(body []byte) error) error {
	err := r.channel.Qos(
		1,     // prefetch count
		0,     // prefetch size
		false, // global
	)
	if err != nil {
		return fmt.Errorf("failed to set QoS: %w", err)
	}

	msgs, err := r.channel.Consume(
		r.queue.Name, // queue
		"",           // consumer
		false,        // auto-ack
		false,        // exclusive
		false,        // no-local
		false,        // no-wait
		nil,          // args
	)
	if err != nil {
		return fmt.Errorf("failed to consume messages: %w", err)
	}

	go r.handleMessages(ctx, msgs, handler)
	return nil
}

func (r *RabbitMQ) handleMessages(ctx context.Context, msgs <-chan amqp.Delivery, handler func(body []byte) error) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-msgs:
			if !ok {
				return
			}

			if err := handler(msg.Body); err != nil {
				logrus.WithError(err).Warn("Failed to process queue message, requeueing")
				msg.Nack(false, true)
			} else {
				msg.Ack(false)
			}
		}
	}
}

// HealthCheck verifies the broker connection is still usable.
func (r *RabbitMQ) HealthCheck() error {
	if r.conn == nil || r.conn.IsClosed() {
		return fmt.Errorf("RabbitMQ connection is closed")
	}

	testChannel, err := r.conn.Channel()
	if err != nil {
		return fmt.Errorf("RabbitMQ health check failed: %w", err)
	}
	testChannel.Close()
	return nil
}

func (r *RabbitMQ) Close() error {
	var errs []error

	if r.channel != nil {
		if err := r.channel.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if r.conn != nil {
		if err := r.conn.Close(); err != nil {
			errs = append(errs, err)
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("errors while closing RabbitMQ: %v", errs)
	}
	return nil
}
