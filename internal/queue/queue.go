package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/oseayemenre/bookshelf/internal/logger"
	"github.com/oseayemenre/bookshelf/internal/mailer"
	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	QueueMail = "bookshelf.mail"
)

// Publisher hands emails to the mail queue. It satisfies mailer.Mailer so the
// API does not care whether mail goes out inline or through the worker.
// A dropped connection is redialled on the next Send.
type Publisher struct {
	mu      sync.Mutex
	dial    func() (session, error)
	session session
}

type session interface {
	publish(ctx context.Context, body []byte) error
	closed() bool
	close() error
}

type amqpSession struct {
	conn     *amqp.Connection
	ch       *amqp.Channel
	notifyCh chan *amqp.Error
}

func dialSession(url string) (session, error) {
	conn, err := amqp.Dial(url)

	if err != nil {
		return nil, fmt.Errorf("error connecting to rabbitmq: %v", err)
	}

	ch, err := conn.Channel()

	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("error opening channel: %v", err)
	}

	if _, err := declare(ch); err != nil {
		ch.Close()
		conn.Close()
		return nil, err
	}

	// A connection close also closes its channels, so watching the channel
	// covers both.
	notifyCh := ch.NotifyClose(make(chan *amqp.Error, 1))

	return &amqpSession{conn: conn, ch: ch, notifyCh: notifyCh}, nil
}

func (s *amqpSession) publish(ctx context.Context, body []byte) error {
	return s.ch.PublishWithContext(ctx, "", QueueMail, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now(),
		Body:         body,
	})
}

func (s *amqpSession) closed() bool {
	select {
	case <-s.notifyCh:
		return true
	default:
		return false
	}
}

func (s *amqpSession) close() error {
	if err := s.ch.Close(); err != nil && !errors.Is(err, amqp.ErrClosed) {
		s.conn.Close()
		return fmt.Errorf("error closing channel: %v", err)
	}

	if err := s.conn.Close(); err != nil && !errors.Is(err, amqp.ErrClosed) {
		return err
	}

	return nil
}

func NewPublisher(url string) (*Publisher, error) {
	p := &Publisher{dial: func() (session, error) { return dialSession(url) }}

	s, err := p.dial()

	if err != nil {
		return nil, err
	}

	p.session = s
	return p, nil
}

func declare(ch *amqp.Channel) (amqp.Queue, error) {
	q, err := ch.QueueDeclare(QueueMail, true, false, false, false, nil)

	if err != nil {
		return amqp.Queue{}, fmt.Errorf("error declaring queue: %v", err)
	}

	return q, nil
}

func Encode(msg *mailer.Message) ([]byte, error) {
	body, err := json.Marshal(msg)

	if err != nil {
		return nil, fmt.Errorf("error encoding message: %v", err)
	}

	return body, nil
}

func Decode(body []byte) (*mailer.Message, error) {
	var msg mailer.Message

	if err := json.Unmarshal(body, &msg); err != nil {
		return nil, fmt.Errorf("error decoding message: %v", err)
	}

	if msg.To == "" || msg.Subject == "" {
		return nil, fmt.Errorf("error decoding message: missing recipient or subject")
	}

	return &msg, nil
}

func (p *Publisher) Send(ctx context.Context, msg *mailer.Message) error {
	body, err := Encode(msg)

	if err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	s, err := p.current()

	if err != nil {
		return err
	}

	if err := s.publish(ctx, body); err == nil {
		return nil
	}

	// The broker may have dropped us between the liveness check and the
	// publish. Retry once on a fresh session.
	p.reset()

	if s, err = p.current(); err != nil {
		return err
	}

	if err := s.publish(ctx, body); err != nil {
		p.reset()
		return fmt.Errorf("error publishing message: %v", err)
	}

	return nil
}

// current returns a live session, redialling if the last one was closed.
// Callers hold p.mu.
func (p *Publisher) current() (session, error) {
	if p.session != nil && !p.session.closed() {
		return p.session, nil
	}

	p.reset()

	s, err := p.dial()

	if err != nil {
		return nil, fmt.Errorf("error reconnecting to rabbitmq: %v", err)
	}

	p.session = s
	return s, nil
}

func (p *Publisher) reset() {
	if p.session != nil {
		p.session.close()
		p.session = nil
	}
}

func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.session == nil {
		return nil
	}

	err := p.session.close()
	p.session = nil
	return err
}

// Consume delivers queued emails through m until ctx is cancelled. Messages
// that cannot be decoded are dropped; send failures are requeued once.
func Consume(ctx context.Context, url string, m mailer.Mailer, logger logger.Logger) error {
	conn, err := amqp.Dial(url)

	if err != nil {
		return fmt.Errorf("error connecting to rabbitmq: %v", err)
	}

	defer conn.Close()

	ch, err := conn.Channel()

	if err != nil {
		return fmt.Errorf("error opening channel: %v", err)
	}

	defer ch.Close()

	q, err := declare(ch)

	if err != nil {
		return err
	}

	if err := ch.Qos(1, 0, false); err != nil {
		return fmt.Errorf("error setting qos: %v", err)
	}

	deliveries, err := ch.ConsumeWithContext(ctx, q.Name, "", false, false, false, false, nil)

	if err != nil {
		return fmt.Errorf("error consuming messages from queue: %v", err)
	}

	logger.Info("mail worker", "status", "consuming", "queue", q.Name)

	for {
		select {
		case <-ctx.Done():
			return nil
		case d, ok := <-deliveries:
			if !ok {
				return fmt.Errorf("delivery channel closed")
			}

			handle(ctx, d, m, logger)
		}
	}
}

type acknowledger interface {
	Ack(multiple bool) error
	Nack(multiple, requeue bool) error
}

func handle(ctx context.Context, d amqp.Delivery, m mailer.Mailer, logger logger.Logger) {
	process(ctx, d.Body, d.Redelivered, &d, m, logger)
}

func process(ctx context.Context, body []byte, redelivered bool, ack acknowledger, m mailer.Mailer, logger logger.Logger) {
	msg, err := Decode(body)

	if err != nil {
		logger.Error(err.Error(), "service", "mail worker")
		ack.Nack(false, false)
		return
	}

	sendCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if err := m.Send(sendCtx, msg); err != nil {
		logger.Error(err.Error(), "service", "mail worker", "to", msg.To, "redelivered", redelivered)
		ack.Nack(false, !redelivered)
		return
	}

	logger.Info("email sent", "to", msg.To, "subject", msg.Subject)
	ack.Ack(false)
}
