// Package kafka provides signals backed by Kafka topics.
//
// Consumer groups cannot drop a single member's subscription without a
// rebalance, so every connection gets its own partition consumers instead:
// each connector reads every partition of the topic, starting at the
// configured offset, and Disconnect closes only that connector's consumer.
//
//	client, _ := sarama.NewClient(brokers, config)
//	sig, err := kafka.New(client, "page.loadFinished")
//	prop, err := signalprop.Bind(page, sig, "onLoadFinished", store, signalprop.Plain())
package kafka

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/IBM/sarama"
	"github.com/rbaliyan/signalprop"
	"github.com/rbaliyan/signalprop/payload"
)

// ContentTypeHeader carries the codec name of a produced argument list.
const ContentTypeHeader = "Content-Type"

// Errors
var (
	ErrClientRequired   = errors.New("kafka client is required")
	ErrProducerRequired = errors.New("kafka producer is required")
	ErrConsumerRequired = errors.New("kafka consumer factory is required")
	ErrTopicRequired    = errors.New("topic is required")
	ErrSignalClosed     = errors.New("signal closed")
)

// ConsumerFactory creates the consumer dedicated to one connection.
type ConsumerFactory func() (sarama.Consumer, error)

// FromClient returns a producer and a consumer factory sharing client.
func FromClient(client sarama.Client) (sarama.SyncProducer, ConsumerFactory, error) {
	if client == nil {
		return nil, nil, ErrClientRequired
	}
	producer, err := sarama.NewSyncProducerFromClient(client)
	if err != nil {
		return nil, nil, fmt.Errorf("create producer: %w", err)
	}
	factory := func() (sarama.Consumer, error) {
		return sarama.NewConsumerFromClient(client)
	}
	return producer, factory, nil
}

// Signal implements signalprop.Signal on a Kafka topic.
type Signal struct {
	status      int32
	topic       string
	producer    sarama.SyncProducer
	newConsumer ConsumerFactory
	codec       payload.Codec
	offset      int64
	logger      *slog.Logger
	onError     func(error)

	mu    sync.Mutex
	conns map[*signalprop.Connector][]*connection
}

type connection struct {
	consumer sarama.Consumer
	wg       sync.WaitGroup
}

// New creates a signal on topic using client for both directions.
func New(client sarama.Client, topic string, opts ...Option) (*Signal, error) {
	producer, factory, err := FromClient(client)
	if err != nil {
		return nil, err
	}
	return NewFromParts(producer, factory, topic, opts...)
}

// NewFromParts creates a signal from an existing producer and consumer factory.
func NewFromParts(producer sarama.SyncProducer, newConsumer ConsumerFactory, topic string, opts ...Option) (*Signal, error) {
	return newSignal(producer, newConsumer, topic, newOptions(opts...))
}

func newSignal(producer sarama.SyncProducer, newConsumer ConsumerFactory, topic string, o *options) (*Signal, error) {
	switch {
	case producer == nil:
		return nil, ErrProducerRequired
	case newConsumer == nil:
		return nil, ErrConsumerRequired
	case topic == "":
		return nil, ErrTopicRequired
	}
	return &Signal{
		status:      1,
		topic:       topic,
		producer:    producer,
		newConsumer: newConsumer,
		codec:       o.codec,
		offset:      o.offset,
		logger:      o.logger.With("topic", topic),
		onError:     o.onError,
		conns:       make(map[*signalprop.Connector][]*connection),
	}, nil
}

// Topic returns the Kafka topic.
func (s *Signal) Topic() string {
	return s.topic
}

func (s *Signal) isOpen() bool {
	return atomic.LoadInt32(&s.status) == 1
}

// Connect starts consuming every partition of the topic for c.
func (s *Signal) Connect(_ context.Context, c *signalprop.Connector) error {
	if c == nil {
		return errors.New("connector is nil")
	}
	if !s.isOpen() {
		return ErrSignalClosed
	}

	consumer, err := s.newConsumer()
	if err != nil {
		return fmt.Errorf("create consumer: %w", err)
	}
	partitions, err := consumer.Partitions(s.topic)
	if err != nil {
		consumer.Close()
		return fmt.Errorf("partitions %s: %w", s.topic, err)
	}

	conn := &connection{consumer: consumer}
	for _, partition := range partitions {
		pc, err := consumer.ConsumePartition(s.topic, partition, s.offset)
		if err != nil {
			consumer.Close()
			return fmt.Errorf("consume %s/%d: %w", s.topic, partition, err)
		}
		conn.wg.Add(2)
		go s.drain(c, pc, &conn.wg)
		go s.drainErrors(pc, &conn.wg)
	}

	s.mu.Lock()
	s.conns[c] = append(s.conns[c], conn)
	s.mu.Unlock()

	s.logger.Debug("connected", "connector", c.ID(), "partitions", len(partitions))
	return nil
}

func (s *Signal) drain(c *signalprop.Connector, pc sarama.PartitionConsumer, wg *sync.WaitGroup) {
	defer wg.Done()
	for msg := range pc.Messages() {
		codec := s.codec
		for _, h := range msg.Headers {
			if h != nil && string(h.Key) == ContentTypeHeader {
				codec = payload.MustGet(string(h.Value))
				break
			}
		}

		args, err := payload.DecodeArgs(codec, msg.Value)
		if err != nil {
			s.logger.Error("failed to decode arguments",
				"connector", c.ID(),
				"partition", msg.Partition,
				"offset", msg.Offset,
				"error", err)
			s.onError(fmt.Errorf("decode %s/%d@%d: %w", s.topic, msg.Partition, msg.Offset, err))
			continue
		}
		if err := c.Invoke(context.Background(), args...); err != nil {
			s.logger.Debug("connector failed", "connector", c.ID(), "error", err)
			s.onError(err)
		}
	}
}

func (s *Signal) drainErrors(pc sarama.PartitionConsumer, wg *sync.WaitGroup) {
	defer wg.Done()
	for err := range pc.Errors() {
		s.logger.Error("consumer error", "error", err)
		s.onError(err)
	}
}

// Disconnect closes the most recent connection of c.
// Returns signalprop.ErrNotConnected if c is not connected.
func (s *Signal) Disconnect(_ context.Context, c *signalprop.Connector) error {
	s.mu.Lock()
	conns := s.conns[c]
	if len(conns) == 0 {
		s.mu.Unlock()
		return signalprop.ErrNotConnected
	}
	conn := conns[len(conns)-1]
	if len(conns) == 1 {
		delete(s.conns, c)
	} else {
		s.conns[c] = conns[:len(conns)-1]
	}
	s.mu.Unlock()

	if err := conn.consumer.Close(); err != nil {
		return fmt.Errorf("close consumer %s: %w", s.topic, err)
	}
	s.logger.Debug("disconnected", "connector", c.ID())
	return nil
}

// Len returns the number of active connections.
func (s *Signal) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, conns := range s.conns {
		n += len(conns)
	}
	return n
}

// Emit produces args to the topic and waits for the broker to acknowledge.
func (s *Signal) Emit(_ context.Context, args ...any) error {
	if !s.isOpen() {
		return ErrSignalClosed
	}
	data, err := payload.EncodeArgs(s.codec, args)
	if err != nil {
		return err
	}

	_, _, err = s.producer.SendMessage(&sarama.ProducerMessage{
		Topic: s.topic,
		Value: sarama.ByteEncoder(data),
		Headers: []sarama.RecordHeader{
			{Key: []byte(ContentTypeHeader), Value: []byte(s.codec.ContentType())},
		},
	})
	if err != nil {
		s.onError(err)
		return fmt.Errorf("produce %s: %w", s.topic, err)
	}
	return nil
}

// Close closes every connection and waits for their goroutines.
// The producer is left open; it belongs to the caller.
func (s *Signal) Close() error {
	if !atomic.CompareAndSwapInt32(&s.status, 1, 0) {
		return nil
	}
	s.mu.Lock()
	all := s.conns
	s.conns = make(map[*signalprop.Connector][]*connection)
	s.mu.Unlock()

	var errs []error
	for _, conns := range all {
		for _, conn := range conns {
			if err := conn.consumer.Close(); err != nil {
				errs = append(errs, err)
			}
			conn.wg.Wait()
		}
	}
	s.logger.Debug("signal closed")
	return errors.Join(errs...)
}

var _ signalprop.Signal = (*Signal)(nil)
