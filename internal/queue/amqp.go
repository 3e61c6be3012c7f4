package queue

import (
	"github.com/google/uuid"
	"github.com/streadway/amqp"
)

// AMQPQueue implements Queue over a RabbitMQ channel with durable
// queues, manual acks and bounded redelivery.
type AMQPQueue struct {
	ch *amqp.Channel
}

func NewAMQPQueue(conn *amqp.Connection) (*AMQPQueue, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, err
	}
	return &AMQPQueue{ch: ch}, nil
}

func (q *AMQPQueue) declare(topic string) error {
	_, err := q.ch.QueueDeclare(
		topic,
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,   // arguments
	)
	return err
}

func (q *AMQPQueue) Publish(topic string, body []byte) error {
	if err := q.declare(topic); err != nil {
		return err
	}
	return q.publish(topic, body, 0)
}

func (q *AMQPQueue) publish(topic string, body []byte, retryCount int32) error {
	return q.ch.Publish(
		"",
		topic,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			MessageId:    uuid.NewString(),
			Body:         body,
			Headers:      amqp.Table{"x-retry-count": retryCount},
		},
	)
}

func (q *AMQPQueue) Subscribe(topic string, handler func(body []byte) error) error {
	if err := q.declare(topic); err != nil {
		return err
	}

	msgs, err := q.ch.Consume(
		topic,
		"",
		false, // manual ack so failed jobs can be redelivered
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return err
	}

	go func() {
		for d := range msgs {
			if err := handler(d.Body); err != nil {
				retries := retryCountOf(d)
				if retries < maxRetries {
					// Republish with an incremented retry count rather
					// than nacking, so the count survives redelivery.
					_ = q.publish(topic, d.Body, retries+1)
				}
			}
			d.Ack(false)
		}
	}()
	return nil
}

func retryCountOf(d amqp.Delivery) int32 {
	switch v := d.Headers["x-retry-count"].(type) {
	case int32:
		return v
	case int64:
		return int32(v)
	case int:
		return int32(v)
	}
	return 0
}

var _ Queue = (*AMQPQueue)(nil)
