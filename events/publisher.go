// Package events pushes ticket lifecycle notifications to kitchen displays
// that subscribe instead of polling. Publishing happens after the storage
// commit and is best-effort: a lost event is recovered by the next poll.
package events

import (
	"encoding/json"
	"fmt"

	"github.com/nats-io/nats.go"
	"github.com/sirupsen/logrus"
)

const (
	SubjectTicketCreated = "kitchen.ticket.created"
	SubjectTicketUpdated = "kitchen.ticket.updated"
	SubjectLineUpdated   = "kitchen.line.updated"
)

type Publisher interface {
	Publish(subject string, payload interface{})
	Close()
}

type NATSPublisher struct {
	conn *nats.Conn
}

func NewNATSPublisher(url string) (*NATSPublisher, error) {
	conn, err := nats.Connect(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	return &NATSPublisher{conn: conn}, nil
}

func (p *NATSPublisher) Publish(subject string, payload interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		logrus.WithError(err).WithField("subject", subject).Error("failed to encode event")
		return
	}
	if err := p.conn.Publish(subject, data); err != nil {
		logrus.WithError(err).WithField("subject", subject).Error("failed to publish event")
	}
}

func (p *NATSPublisher) Close() {
	p.conn.Close()
}

// NoopPublisher is used when NATS_URL is not configured; displays fall back
// to polling.
type NoopPublisher struct{}

func (NoopPublisher) Publish(string, interface{}) {}

func (NoopPublisher) Close() {}
