// Package eventbus delivers committed journal events to consumers.
//
// Memory fans events out in process. AMQPPublisher sends them to a RabbitMQ
// topic exchange with publisher confirms. Relay drains the journal outbox
// into either bus so that events whose first publish failed are delivered
// later, in sequence order.
package eventbus
