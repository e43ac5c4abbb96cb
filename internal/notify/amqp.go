// README: RabbitMQ notifier. Publishes persistent JSON messages to a durable queue.
package notify

import (
	"context"
	"encoding/json"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"
)

// AMQPNotifier dials per publish. Notification volume here is one message per
// booking step, so connection churn is irrelevant and a dropped broker never
// leaves a stale channel behind.
type AMQPNotifier struct {
	url   string
	queue string
	log   *logrus.Logger
}

func NewAMQPNotifier(url, queue string, log *logrus.Logger) *AMQPNotifier {
	return &AMQPNotifier{url: url, queue: queue, log: log}
}

func (n *AMQPNotifier) Send(ctx context.Context, msg Message) error {
	conn, err := amqp.Dial(n.url)
	if err != nil {
		n.log.WithError(err).Warn("notify: amqp dial failed")
		return err
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		n.log.WithError(err).Warn("notify: amqp channel failed")
		return err
	}
	defer func() { _ = ch.Close() }()

	// Idempotent declare; durable so messages survive broker restarts.
	if _, err := ch.QueueDeclare(n.queue, true, false, false, false, nil); err != nil {
		n.log.WithError(err).Warn("notify: queue declare failed")
		return err
	}

	body, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}
	if err := ch.PublishWithContext(ctx, "", n.queue, false, false, pub); err != nil {
		n.log.WithError(err).Warn("notify: publish failed")
		return err
	}
	return nil
}
