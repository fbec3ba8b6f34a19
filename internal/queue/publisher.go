package queue

import (
	"context"
	"time"

	"github.com/goccy/go-json"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"
)

// DefaultDialTimeout bounds the TCP connect and AMQP handshake of one
// publish when no timeout is configured.
const DefaultDialTimeout = 2 * time.Second

// Publisher publishes notification events to RabbitMQ.  Every publish
// opens its own connection, so a broker restart never leaves the
// publisher holding a dead channel.  The dial is bounded by dialTimeout
// because publishing happens on the request path.
type Publisher struct {
	url         string
	dialTimeout time.Duration
	log         zerolog.Logger
}

// NewPublisher returns a Publisher for the broker at url.  A non-positive
// dialTimeout selects DefaultDialTimeout.
func NewPublisher(url string, dialTimeout time.Duration, log zerolog.Logger) *Publisher {
	if dialTimeout <= 0 {
		dialTimeout = DefaultDialTimeout
	}
	return &Publisher{
		url:         url,
		dialTimeout: dialTimeout,
		log:         log.With().Str("component", "queue-publisher").Logger(),
	}
}

// dial opens a connection whose connect and handshake give up after
// timeout, or earlier when ctx has a sooner deadline.
func dial(ctx context.Context, url string, timeout time.Duration) (*amqp.Connection, error) {
	if d, ok := ctx.Deadline(); ok {
		if left := time.Until(d); left < timeout {
			timeout = left
		}
	}
	if timeout <= 0 {
		return nil, context.DeadlineExceeded
	}
	return amqp.DialConfig(url, amqp.Config{
		Heartbeat: 10 * time.Second,
		Locale:    "en_US",
		Dial:      amqp.DefaultDial(timeout),
	})
}

// PublishNotification publishes ev to the watchparty.notification queue.
// Errors are logged and returned so the caller can choose to ignore them.
// Messages are marked as persistent.
func (p *Publisher) PublishNotification(ctx context.Context, ev NotificationEvent) error {
	conn, err := dial(ctx, p.url, p.dialTimeout)
	if err != nil {
		p.log.Warn().Err(err).Msg("rabbitmq dial failed")
		return err
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		p.log.Warn().Err(err).Msg("rabbitmq channel open failed")
		return err
	}
	defer func() { _ = ch.Close() }()

	// Ensure the queue exists (idempotent). Durable so messages survive broker restarts.
	if _, err := ch.QueueDeclare(
		NotificationQueueName, // name
		true,                  // durable
		false,                 // autoDelete
		false,                 // exclusive
		false,                 // noWait
		nil,                   // args
	); err != nil {
		p.log.Warn().Err(err).Msg("rabbitmq queue declare failed")
		return err
	}

	body, err := json.Marshal(ev)
	if err != nil {
		return err
	}

	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		MessageId:    ev.NotificationID,
		Body:         body,
	}
	if err := ch.PublishWithContext(ctx,
		"",                    // default exchange
		NotificationQueueName, // routing key = queue name
		false,                 // mandatory
		false,                 // immediate
		pub,
	); err != nil {
		p.log.Warn().Err(err).Msg("rabbitmq publish failed")
		return err
	}
	return nil
}
