// Package nats provides signals backed by NATS Core subjects.
//
// Each connected connector gets its own NATS subscription, so disconnecting
// one connector never affects another. Delivery is at-most-once: messages
// published while nothing is connected are dropped.
//
//	nc, _ := nats.Connect(nats.DefaultURL)
//	emitter, _ := natssource.NewEmitter(nc, "page")
//	prop, err := signalprop.BindSignal(page, "onLoadFinished", "loadFinished", store, emitter)
//
// Connectors run on the NATS subscription goroutine.
package nats

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/nats-io/nats.go"
	"github.com/rbaliyan/signalprop"
	"github.com/rbaliyan/signalprop/payload"
)

// ContentTypeHeader carries the codec name of a published argument list.
const ContentTypeHeader = "Content-Type"

// Errors
var (
	ErrConnRequired    = errors.New("nats connection is required")
	ErrSubjectRequired = errors.New("subject is required")
	ErrSignalClosed    = errors.New("signal closed")
)

// Signal implements signalprop.Signal on a NATS subject.
type Signal struct {
	status  int32
	conn    *nats.Conn
	subject string
	codec   payload.Codec
	queue   string
	logger  *slog.Logger
	onError func(error)

	mu   sync.Mutex
	subs map[*signalprop.Connector][]*nats.Subscription
}

// New creates a signal on subject.
func New(conn *nats.Conn, subject string, opts ...Option) (*Signal, error) {
	return newSignal(conn, subject, newOptions(opts...))
}

func newSignal(conn *nats.Conn, subject string, o *options) (*Signal, error) {
	if conn == nil {
		return nil, ErrConnRequired
	}
	if subject == "" {
		return nil, ErrSubjectRequired
	}
	return &Signal{
		status:  1,
		conn:    conn,
		subject: subject,
		codec:   o.codec,
		queue:   o.queue,
		logger:  o.logger.With("subject", subject),
		onError: o.onError,
		subs:    make(map[*signalprop.Connector][]*nats.Subscription),
	}, nil
}

// Subject returns the NATS subject.
func (s *Signal) Subject() string {
	return s.subject
}

func (s *Signal) isOpen() bool {
	return atomic.LoadInt32(&s.status) == 1
}

// Connect subscribes c to the subject.
func (s *Signal) Connect(_ context.Context, c *signalprop.Connector) error {
	if c == nil {
		return errors.New("connector is nil")
	}
	if !s.isOpen() {
		return ErrSignalClosed
	}

	handler := func(msg *nats.Msg) {
		s.deliver(c, msg)
	}

	var sub *nats.Subscription
	var err error
	if s.queue != "" {
		sub, err = s.conn.QueueSubscribe(s.subject, s.queue, handler)
	} else {
		sub, err = s.conn.Subscribe(s.subject, handler)
	}
	if err != nil {
		return fmt.Errorf("subscribe %s: %w", s.subject, err)
	}

	s.mu.Lock()
	s.subs[c] = append(s.subs[c], sub)
	s.mu.Unlock()

	s.logger.Debug("connected", "connector", c.ID())
	return nil
}

// Disconnect unsubscribes the most recent connection of c.
// Returns signalprop.ErrNotConnected if c is not connected.
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

	if err := sub.Unsubscribe(); err != nil {
		return fmt.Errorf("unsubscribe %s: %w", s.subject, err)
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

func (s *Signal) deliver(c *signalprop.Connector, msg *nats.Msg) {
	codec := s.codec
	if ct := msg.Header.Get(ContentTypeHeader); ct != "" {
		codec = payload.MustGet(ct)
	}

	args, err := payload.DecodeArgs(codec, msg.Data)
	if err != nil {
		s.logger.Error("failed to decode arguments", "connector", c.ID(), "error", err)
		s.onError(fmt.Errorf("decode %s: %w", s.subject, err))
		return
	}

	if err := c.Invoke(context.Background(), args...); err != nil {
		s.logger.Debug("connector failed", "connector", c.ID(), "error", err)
		s.onError(err)
	}
}

// Emit publishes args to the subject. Delivery happens asynchronously on
// the subscribers' goroutines.
func (s *Signal) Emit(_ context.Context, args ...any) error {
	if !s.isOpen() {
		return ErrSignalClosed
	}
	data, err := payload.EncodeArgs(s.codec, args)
	if err != nil {
		return err
	}

	msg := nats.NewMsg(s.subject)
	msg.Header.Set(ContentTypeHeader, s.codec.ContentType())
	msg.Data = data
	if err := s.conn.PublishMsg(msg); err != nil {
		s.onError(err)
		return err
	}
	return nil
}

// Close unsubscribes every connection. Connect and Emit fail afterwards.
func (s *Signal) Close() error {
	if !atomic.CompareAndSwapInt32(&s.status, 1, 0) {
		return nil
	}
	s.mu.Lock()
	all := s.subs
	s.subs = make(map[*signalprop.Connector][]*nats.Subscription)
	s.mu.Unlock()

	var errs []error
	for _, subs := range all {
		for _, sub := range subs {
			if err := sub.Unsubscribe(); err != nil && !errors.Is(err, nats.ErrConnectionClosed) {
				errs = append(errs, err)
			}
		}
	}
	s.logger.Debug("signal closed")
	return errors.Join(errs...)
}

var _ signalprop.Signal = (*Signal)(nil)
