package queue

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/streadway/amqp"
	"go.uber.org/zap"
)

const (
	headerKey   = "x-ordering-key"
	headerRetry = "x-retry-count"
)

// publisher is the part of *amqp.Channel used to (re)publish jobs.
type publisher interface {
	Publish(exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

// AMQPQueue is the broker-backed Queue used when the webhook and the worker
// run as separate processes. Every topic is a durable queue; consumers take
// one unacked delivery at a time so a single consumer sees jobs in order.
// Failed jobs are republished with an incremented retry header and dropped
// (Nack without requeue) once MaxRetries is exceeded.
type AMQPQueue struct {
	MaxRetries int
	Logger     *zap.Logger

	conn *amqp.Connection
	ch   *amqp.Channel
	pub  publisher

	mu       sync.Mutex
	declared map[string]bool
	ctx      context.Context
	cancel   context.CancelFunc
	wg       sync.WaitGroup
}

func DialAMQP(url string, logger *zap.Logger) (*AMQPQueue, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("connect to rabbitmq: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &AMQPQueue{
		MaxRetries: DefaultMaxRetries,
		Logger:     logger.Named("amqp"),
		conn:       conn,
		ch:         ch,
		pub:        ch,
		declared:   make(map[string]bool),
		ctx:        ctx,
		cancel:     cancel,
	}, nil
}

func (q *AMQPQueue) declare(ch *amqp.Channel, topic string) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.declared[topic] {
		return nil
	}
	_, err := ch.QueueDeclare(
		topic, // name
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,   // arguments
	)
	if err != nil {
		return fmt.Errorf("declare queue %s: %w", topic, err)
	}
	q.declared[topic] = true
	return nil
}

func (q *AMQPQueue) Publish(_ context.Context, topic string, msg Message) error {
	if err := q.declare(q.ch, topic); err != nil {
		return err
	}
	return q.publish(topic, msg)
}

func (q *AMQPQueue) publish(topic string, msg Message) error {
	return q.pub.Publish("", topic, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now(),
		Headers: amqp.Table{
			headerKey:   msg.Key,
			headerRetry: int32(msg.Attempt),
		},
		Body: msg.Body,
	})
}

// Subscribe opens a dedicated consumer channel for topic.
func (q *AMQPQueue) Subscribe(topic string, handler Handler) error {
	ch, err := q.conn.Channel()
	if err != nil {
		return fmt.Errorf("open consumer channel: %w", err)
	}
	if err := q.declare(ch, topic); err != nil {
		return err
	}
	if err := ch.Qos(1, 0, false); err != nil {
		return fmt.Errorf("set qos: %w", err)
	}
	deliveries, err := ch.Consume(
		topic,
		"",
		false, // autoAck = false for reliability
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return fmt.Errorf("register consumer: %w", err)
	}

	q.wg.Add(1)
	go func() {
		defer q.wg.Done()
		for d := range deliveries {
			q.handle(q.ctx, topic, d, handler)
		}
		q.Logger.Info("consumer stopped", zap.String("topic", topic))
	}()
	return nil
}

func (q *AMQPQueue) handle(ctx context.Context, topic string, d amqp.Delivery, handler Handler) {
	msg := Message{
		Key:     headerString(d.Headers, headerKey),
		Body:    d.Body,
		Attempt: retryCount(d.Headers),
	}
	err := call(ctx, handler, msg)
	if err == nil {
		_ = d.Ack(false)
		return
	}

	if msg.Attempt >= q.MaxRetries {
		q.Logger.Error("job permanently failed",
			zap.String("topic", topic), zap.String("key", msg.Key), zap.Int("attempts", msg.Attempt+1), zap.Error(err))
		_ = d.Nack(false, false)
		return
	}

	q.Logger.Warn("job failed, retrying",
		zap.String("topic", topic), zap.String("key", msg.Key), zap.Int("attempt", msg.Attempt+1), zap.Error(err))
	msg.Attempt++
	if perr := q.publish(topic, msg); perr != nil {
		q.Logger.Error("republish failed, requeueing", zap.Error(perr))
		_ = d.Nack(false, true)
		return
	}
	_ = d.Ack(false)
}

// Close stops the consumers and the connection.
func (q *AMQPQueue) Close() error {
	q.cancel()
	if q.ch != nil {
		_ = q.ch.Close()
	}
	var err error
	if q.conn != nil {
		err = q.conn.Close()
	}
	q.wg.Wait()
	return err
}

func headerString(h amqp.Table, key string) string {
	if v, ok := h[key].(string); ok {
		return v
	}
	return ""
}

func retryCount(h amqp.Table) int {
	switch v := h[headerRetry].(type) {
	case int:
		return v
	case int16:
		return int(v)
	case int32:
		return int(v)
	case int64:
		return int(v)
	default:
		return 0
	}
}
