package kafka

import (
	"context"
	"errors"
	"sync"

	"github.com/IBM/sarama"
	"github.com/rbaliyan/signalprop"
)

// Emitter resolves signal names to topics under a prefix
// ("page" + "loadFinished" -> "page.loadFinished"). Signals share one
// producer and are created on first lookup.
type Emitter struct {
	producer    sarama.SyncProducer
	newConsumer ConsumerFactory
	prefix      string
	opts        *options
	mu          sync.Mutex
	signals     map[string]*Signal
}

// NewEmitter creates an emitter.
func NewEmitter(producer sarama.SyncProducer, newConsumer ConsumerFactory, prefix string, opts ...Option) (*Emitter, error) {
	if producer == nil {
		return nil, ErrProducerRequired
	}
	if newConsumer == nil {
		return nil, ErrConsumerRequired
	}
	return &Emitter{
		producer:    producer,
		newConsumer: newConsumer,
		prefix:      prefix,
		opts:        newOptions(opts...),
		signals:     make(map[string]*Signal),
	}, nil
}

// Topic returns the topic for the named signal.
func (e *Emitter) Topic(name string) string {
	if e.prefix == "" {
		return name
	}
	return e.prefix + "." + name
}

// Get returns the named signal, creating it if needed.
func (e *Emitter) Get(name string) (*Signal, error) {
	if name == "" {
		return nil, ErrTopicRequired
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if s, ok := e.signals[name]; ok {
		return s, nil
	}
	s, err := newSignal(e.producer, e.newConsumer, e.Topic(name), e.opts)
	if err != nil {
		return nil, err
	}
	e.signals[name] = s
	return s, nil
}

// Signal implements signalprop.Emitter.
func (e *Emitter) Signal(name string) (signalprop.Signal, bool) {
	s, err := e.Get(name)
	if err != nil {
		return nil, false
	}
	return s, true
}

// Emit produces args on the named signal.
func (e *Emitter) Emit(ctx context.Context, name string, args ...any) error {
	s, err := e.Get(name)
	if err != nil {
		return err
	}
	return s.Emit(ctx, args...)
}

// Close closes every signal the emitter created.
func (e *Emitter) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	var errs []error
	for _, s := range e.signals {
		if err := s.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

var _ signalprop.Emitter = (*Emitter)(nil)
