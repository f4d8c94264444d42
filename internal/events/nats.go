package events

import (
	"fmt"
	"time"

	json "github.com/goccy/go-json"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"
)

// DefaultSubject is used when no NATS subject is configured.
const DefaultSubject = "relayd.events"

// natsConn is the subset of *nats.Conn the publisher needs.
type natsConn interface {
	Publish(subject string, data []byte) error
}

// NATS publishes events as JSON to a subject. Publish errors are logged and
// otherwise ignored; core NATS publishing is fire-and-forget.
type NATS struct {
	conn    natsConn
	subject string
	log     zerolog.Logger
	closer  func()
}

// ConnectNATS dials url and returns a publisher for subject.
func ConnectNATS(url, subject string, log zerolog.Logger) (*NATS, error) {
	nc, err := nats.Connect(url,
		nats.Name("relayd"),
		nats.Timeout(5*time.Second),
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				log.Warn().Err(err).Msg("nats disconnected")
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			log.Info().Str("url", c.ConnectedUrl()).Msg("nats reconnected")
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect nats %s: %w", url, err)
	}
	p := NewNATS(nc, subject, log)
	p.closer = func() { _ = nc.Drain() }
	return p, nil
}

// NewNATS wraps an existing connection.
func NewNATS(conn natsConn, subject string, log zerolog.Logger) *NATS {
	if subject == "" {
		subject = DefaultSubject
	}
	return &NATS{conn: conn, subject: subject, log: log}
}

// Subject returns the subject events are published to.
func (p *NATS) Subject() string { return p.subject }

func (p *NATS) Publish(e Event) {
	b, err := json.Marshal(e)
	if err != nil {
		p.log.Error().Err(err).Str("event", e.Name).Msg("encode lifecycle event")
		return
	}
	if err := p.conn.Publish(p.subject, b); err != nil {
		p.log.Warn().Err(err).Str("event", e.Name).Msg("publish lifecycle event")
	}
}

// Close drains the underlying connection if this publisher opened it.
func (p *NATS) Close() {
	if p.closer != nil {
		p.closer()
	}
}
