package kafka

import (
	"context"
	"time"

	"github.com/goccy/go-json"
	"github.com/pkg/errors"
	"github.com/segmentio/kafka-go"
	"github.com/sony/gobreaker"
)

// ErrBreakerOpen is returned while the producer refuses to talk to the broker.
var ErrBreakerOpen = errors.New("kafka producer circuit open")

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

type BreakerSettings struct {
	// ConsecutiveFailures trips the breaker.
	ConsecutiveFailures uint32
	// OpenTimeout is how long the breaker stays open before a trial request.
	OpenTimeout   time.Duration
	OnStateChange func(from, to string)
}

type Producer struct {
	w  messageWriter
	cb *gobreaker.CircuitBreaker
}

func NewProducer(brokers []string, bs BreakerSettings) *Producer {
	return newProducerWithWriter(&kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Balancer:               &kafka.Hash{},
		AllowAutoTopicCreation: true,
		BatchTimeout:           10 * time.Millisecond,
	}, bs)
}

func newProducerWithWriter(w messageWriter, bs BreakerSettings) *Producer {
	if bs.ConsecutiveFailures == 0 {
		bs.ConsecutiveFailures = 5
	}
	if bs.OpenTimeout <= 0 {
		bs.OpenTimeout = 30 * time.Second
	}
	st := gobreaker.Settings{
		Name:        "kafka-producer",
		MaxRequests: 1,
		Timeout:     bs.OpenTimeout,
		ReadyToTrip: func(c gobreaker.Counts) bool {
			return c.ConsecutiveFailures >= bs.ConsecutiveFailures
		},
	}
	if bs.OnStateChange != nil {
		st.OnStateChange = func(_ string, from, to gobreaker.State) {
			bs.OnStateChange(from.String(), to.String())
		}
	}
	return &Producer{w: w, cb: gobreaker.NewCircuitBreaker(st)}
}

func (p *Producer) Publish(ctx context.Context, topic string, key, value []byte) error {
	_, err := p.cb.Execute(func() (interface{}, error) {
		return nil, p.w.WriteMessages(ctx, kafka.Message{
			Topic: topic,
			Key:   key,
			Value: value,
		})
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return ErrBreakerOpen
	}
	if err != nil {
		return errors.Wrap(err, "kafka publish")
	}
	return nil
}

// PublishJSON encodes v and publishes it under key.
func (p *Producer) PublishJSON(ctx context.Context, topic, key string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return errors.Wrap(err, "encode event")
	}
	return p.Publish(ctx, topic, []byte(key), b)
}

func (p *Producer) State() string {
	return p.cb.State().String()
}

func (p *Producer) Close() error {
	if c, ok := p.w.(interface{ Close() error }); ok {
		return c.Close()
	}
	return nil
}
