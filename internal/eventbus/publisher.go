// Package eventbus publishes backup integration changes to NATS.
package eventbus

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/vulnconsole/vulnconsole/internal/backups"
	"github.com/vulnconsole/vulnconsole/internal/logging"
)

type natsPublisher interface {
	Publish(subject string, data []byte) error
}

// Publisher is a backups.Publisher that writes one JSON message per event.
type Publisher struct {
	conn   *nats.Conn
	pub    natsPublisher
	prefix string
	logger *slog.Logger
}

func NewPublisher(natsURL, subjectPrefix string, logger *slog.Logger) (*Publisher, error) {
	logger = logging.OrDiscard(logger)
	conn, err := nats.Connect(natsURL,
		nats.Name("vulnconsole"),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(10),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("connect nats: %w", err)
	}

	logger.Info("connected to nats", "url", conn.ConnectedUrlRedacted())
	return &Publisher{conn: conn, pub: conn, prefix: subjectPrefix, logger: logger}, nil
}

// Subject returns the subject an event with action is published on.
func (p *Publisher) Subject(action string) string {
	prefix := strings.Trim(strings.TrimSpace(p.prefix), ".")
	if prefix == "" {
		return "backups." + action
	}
	return prefix + ".backups." + action
}

func (p *Publisher) Publish(ctx context.Context, event backups.Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	subject := p.Subject(event.Action)
	if err := p.pub.Publish(subject, data); err != nil {
		return fmt.Errorf("publish %s: %w", subject, err)
	}
	p.logger.Debug("published backup integration event", "subject", subject, "integration_id", event.ID)
	return nil
}

func (p *Publisher) Close() {
	if p.conn != nil {
		p.conn.Close()
		p.logger.Info("disconnected from nats")
	}
}

func (p *Publisher) IsConnected() bool {
	return p.conn != nil && p.conn.IsConnected()
}
