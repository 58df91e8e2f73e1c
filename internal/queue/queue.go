package queue

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// InboundTopic carries JSON encoded inbound messages from the webhook to the processor.
const InboundTopic = "inbound_messages"

const (
	DefaultMaxRetries = 3
	DefaultBackoff    = 500 * time.Millisecond
)

var ErrClosed = errors.New("queue closed")

// Message is one queued job. Jobs sharing a Key are delivered in publish order.
type Message struct {
	Key     string
	Body    []byte
	Attempt int
}

// Handler returning an error gets the job retried until MaxRetries is reached.
type Handler func(ctx context.Context, msg Message) error

// Queue interface
type Queue interface {
	Publish(ctx context.Context, topic string, msg Message) error
	Subscribe(topic string, handler Handler) error
	Close() error
}

// InMemoryQueue runs one goroutine per active key, so different keys are
// processed in parallel and jobs of the same key strictly one after another.
type InMemoryQueue struct {
	MaxRetries int
	Backoff    time.Duration
	Logger     *zap.Logger

	mu       sync.Mutex
	handlers map[string][]Handler
	lanes    map[string]*lane
	closed   bool
	pending  sync.WaitGroup
	ctx      context.Context
	cancel   context.CancelFunc
}

type lane struct {
	jobs []job
}

type job struct {
	handler Handler
	msg     Message
}

// NewInMemoryQueue creates a new queue
func NewInMemoryQueue(logger *zap.Logger) *InMemoryQueue {
	ctx, cancel := context.WithCancel(context.Background())
	return &InMemoryQueue{
		MaxRetries: DefaultMaxRetries,
		Backoff:    DefaultBackoff,
		Logger:     logger.Named("queue"),
		handlers:   make(map[string][]Handler),
		lanes:      make(map[string]*lane),
		ctx:        ctx,
		cancel:     cancel,
	}
}

// Publish hands msg to every subscriber of topic.
func (q *InMemoryQueue) Publish(_ context.Context, topic string, msg Message) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return ErrClosed
	}
	handlers := q.handlers[topic]
	if len(handlers) == 0 {
		return fmt.Errorf("no subscribers for topic %s", topic)
	}

	for i, h := range handlers {
		key := fmt.Sprintf("%s/%d/%s", topic, i, msg.Key)
		q.pending.Add(1)
		if l, ok := q.lanes[key]; ok {
			l.jobs = append(l.jobs, job{h, msg})
			continue
		}
		l := &lane{jobs: []job{{h, msg}}}
		q.lanes[key] = l
		go q.drain(key, l)
	}
	return nil
}

// Subscribe adds a handler for a topic
func (q *InMemoryQueue) Subscribe(topic string, handler Handler) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return ErrClosed
	}
	q.handlers[topic] = append(q.handlers[topic], handler)
	return nil
}

// Wait blocks until every published job has been handled or dropped.
func (q *InMemoryQueue) Wait() {
	q.pending.Wait()
}

// Close rejects new jobs, aborts pending backoffs and waits for in-flight handlers.
func (q *InMemoryQueue) Close() error {
	q.mu.Lock()
	q.closed = true
	q.mu.Unlock()
	q.cancel()
	q.pending.Wait()
	return nil
}

func (q *InMemoryQueue) drain(key string, l *lane) {
	for {
		q.mu.Lock()
		if len(l.jobs) == 0 {
			delete(q.lanes, key)
			q.mu.Unlock()
			return
		}
		j := l.jobs[0]
		l.jobs = l.jobs[1:]
		q.mu.Unlock()

		q.processJob(j)
		q.pending.Done()
	}
}

// processJob handles retries and errors
func (q *InMemoryQueue) processJob(j job) {
	for attempt := 0; ; attempt++ {
		j.msg.Attempt = attempt
		err := call(q.ctx, j.handler, j.msg)
		if err == nil {
			return // ACK
		}
		if attempt >= q.MaxRetries || q.ctx.Err() != nil {
			q.Logger.Error("job permanently failed",
				zap.String("key", j.msg.Key), zap.Int("attempts", attempt+1), zap.Error(err))
			return // no requeue
		}
		q.Logger.Warn("job failed, retrying",
			zap.String("key", j.msg.Key), zap.Int("attempt", attempt+1), zap.Error(err))

		select {
		case <-time.After(q.Backoff * time.Duration(attempt+1)):
		case <-q.ctx.Done():
		}
	}
}

// call converts handler panics into errors.
func call(ctx context.Context, h Handler, msg Message) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panic: %v", r)
		}
	}()
	return h(ctx, msg)
}
