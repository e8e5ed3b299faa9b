package messaging

import (
	"fmt"

	"github.com/nats-io/nats.go"
)

// PubSub is plain at-most-once NATS publish/subscribe, used for request
// intake from the pairing gateway.
type PubSub interface {
	Publish(topic string, message []byte) error
	Subscribe(topic string, handler func(msg *nats.Msg)) (Subscription, error)
	Close()
}

type Subscription interface {
	Unsubscribe() error
}

type natsPubSub struct {
	conn *nats.Conn
}

func NewNATSPubSub(conn *nats.Conn) PubSub {
	return &natsPubSub{conn: conn}
}

func (p *natsPubSub) Publish(topic string, message []byte) error {
	if err := p.conn.Publish(topic, message); err != nil {
		return fmt.Errorf("publish to %s: %w", topic, err)
	}
	return nil
}

func (p *natsPubSub) Subscribe(topic string, handler func(msg *nats.Msg)) (Subscription, error) {
	sub, err := p.conn.Subscribe(topic, handler)
	if err != nil {
		return nil, fmt.Errorf("subscribe to %s: %w", topic, err)
	}
	return sub, nil
}

func (p *natsPubSub) Close() {
	if p.conn != nil && !p.conn.IsClosed() {
		p.conn.Close()
	}
}
