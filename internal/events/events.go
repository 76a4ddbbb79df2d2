// Package events mirrors run transcript events onto a NATS subject so
// external consumers can follow runs live.
package events

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/Balogunolalere/Thoughbot/internal/logging"
	"github.com/Balogunolalere/Thoughbot/internal/session"
)

// DefaultSubject is the subject prefix events publish under.
const DefaultSubject = "thoughtbot.events"

// Publisher mirrors session events onto NATS. It satisfies
// session.Mirror.
type Publisher struct {
	conn    *nats.Conn
	subject string
	logger  *logging.Logger
}

// Connect dials the NATS server and returns a publisher. The connection
// reconnects on its own; publishes during an outage are buffered by the
// client.
func Connect(url, subject string) (*Publisher, error) {
	if subject == "" {
		subject = DefaultSubject
	}

	conn, err := nats.Connect(url,
		nats.Name("thoughtbot"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("events: connect %s: %w", url, err)
	}

	return &Publisher{
		conn:    conn,
		subject: subject,
		logger:  logging.New().WithComponent("events"),
	}, nil
}

// Publish sends one event as JSON on <subject>.<runID>.<type>.
func (p *Publisher) Publish(runID string, event session.Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("events: marshal: %w", err)
	}
	return p.conn.Publish(p.Subject(runID, event.Type), data)
}

// Subject returns the full subject for a run's event type.
func (p *Publisher) Subject(runID, eventType string) string {
	return fmt.Sprintf("%s.%s.%s", p.subject, runID, eventType)
}

// Close flushes buffered publishes and closes the connection.
func (p *Publisher) Close() {
	if err := p.conn.Drain(); err != nil {
		p.logger.Warn("drain failed", map[string]interface{}{
			"error": err.Error(),
		})
		p.conn.Close()
	}
}
