// Package redis provides signals backed by Redis Pub/Sub channels.
//
// Every connected connector owns a dedicated PubSub subscription and a
// goroutine draining it; Disconnect closes that subscription only.
// Pub/Sub is fire-and-forget, so messages published while nothing is
// connected are lost.
package redis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/rbaliyan/signalprop"
	"github.com/rbaliyan/signalprop/payload"
	"github.com/redis/go-redis/v9"
)

// Errors
var (
	ErrClientRequired  = errors.New("redis client is required")
	ErrChannelRequired = errors.New("channel is required")
	ErrSignalClosed    = errors.New("signal closed")
)

// Signal implements signalprop.Signal on a Redis Pub/Sub channel.
type Signal struct {
	status  int32
	client  redis.UniversalClient
	channel string
	codec   payload.Codec
	logger  *slog.Logger
	onError func(error)

	mu   sync.Mutex
	subs map[*signalprop.Connector][]*subscription
}

type subscription struct {
	pubsub *redis.PubSub
	done   chan struct{}
}

// New creates a signal on channel.
func New(client redis.UniversalClient, channel string, opts ...Option) (*Signal, error) {
	return newSignal(client, channel, newOptions(opts...))
}

func newSignal(client redis.UniversalClient, channel string, o *options) (*Signal, error) {
	if client == nil {
		return nil, ErrClientRequired
	}
	if channel == "" {
		return nil, ErrChannelRequired
	}
	return &Signal{
		status:  1,
		client:  client,
		channel: channel,
		codec:   o.codec,
		logger:  o.logger.With("channel", channel),
		onError: o.onError,
		subs:    make(map[*signalprop.Connector][]*subscription),
	}, nil
}

// Channel returns the Pub/Sub channel name.
func (s *Signal) Channel() string {
	return s.channel
}

func (s *Signal) isOpen() bool {
	return atomic.LoadInt32(&s.status) == 1
}

// Connect subscribes c to the channel. It returns once Redis has confirmed
// the subscription.
func (s *Signal) Connect(ctx context.Context, c *signalprop.Connector) error {
	if c == nil {
		return errors.New("connector is nil")
	}
	if !s.isOpen() {
		return ErrSignalClosed
	}

	pubsub := s.client.Subscribe(ctx, s.channel)
	if _, err := pubsub.Receive(ctx); err != nil {
		pubsub.Close()
		return fmt.Errorf("subscribe %s: %w", s.channel, err)
	}

	sub := &subscription{pubsub: pubsub, done: make(chan struct{})}
	go s.drain(c, sub)

	s.mu.Lock()
	s.subs[c] = append(s.subs[c], sub)
	s.mu.Unlock()

	s.logger.Debug("connected", "connector", c.ID())
	return nil
}

func (s *Signal) drain(c *signalprop.Connector, sub *subscription) {
	defer close(sub.done)
	for msg := range sub.pubsub.Channel() {
		args, err := payload.DecodeArgs(s.codec, []byte(msg.Payload))
		if err != nil {
			s.logger.Error("failed to decode arguments", "connector", c.ID(), "error", err)
			s.onError(fmt.Errorf("decode %s: %w", s.channel, err))
			continue
		}
		if err := c.Invoke(context.Background(), args...); err != nil {
			s.logger.Debug("connector failed", "connector", c.ID(), "error", err)
			s.onError(err)
		}
	}
}

// Disconnect closes the most recent subscription of c.
// A message already received may still be delivered while the subscription
// goroutine exits. Returns signalprop.ErrNotConnected if c is not connected.
func (s *Signal) Disconnect(_ context.Context, c *signalprop.Connector) error {
	s.mu.Lock()
	subs := s.subs[c]
	if len(subs) == 0 {
		s.mu.Unlock()
		return signalprop.ErrNotConnected
	}
	sub := subs[len(subs)-1]
	if len(subs) == 1 {
		delete(s.subs, c)
	} else {
		s.subs[c] = subs[:len(subs)-1]
	}
	s.mu.Unlock()

	if err := sub.pubsub.Close(); err != nil {
		return fmt.Errorf("unsubscribe %s: %w", s.channel, err)
	}
	s.logger.Debug("disconnected", "connector", c.ID())
	return nil
}

// Len returns the number of active connections.
func (s *Signal) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, subs := range s.subs {
		n += len(subs)
	}
	return n
}

// Emit publishes args to the channel.
func (s *Signal) Emit(ctx context.Context, args ...any) error {
	if !s.isOpen() {
		return ErrSignalClosed
	}
	data, err := payload.EncodeArgs(s.codec, args)
	if err != nil {
		return err
	}
	if err := s.client.Publish(ctx, s.channel, data).Err(); err != nil {
		s.onError(err)
		return err
	}
	return nil
}

// Close closes every subscription. The client stays open.
func (s *Signal) Close() error {
	if !atomic.CompareAndSwapInt32(&s.status, 1, 0) {
		return nil
	}
	s.mu.Lock()
	all := s.subs
	s.subs = make(map[*signalprop.Connector][]*subscription)
	s.mu.Unlock()

	var errs []error
	for _, subs := range all {
		for _, sub := range subs {
			if err := sub.pubsub.Close(); err != nil {
				errs = append(errs, err)
			}
			<-sub.done
		}
	}
	return errors.Join(errs...)
}

var _ signalprop.Signal = (*Signal)(nil)
