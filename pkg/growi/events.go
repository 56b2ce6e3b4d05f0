package growi

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/nats-io/nats.go"
)

// PageOperation names the write that produced a PageEvent.
type PageOperation string

// Page operations that emit events.
const (
	PageCreated  PageOperation = "created"
	PageUpdated  PageOperation = "updated"
	PageRenamed  PageOperation = "renamed"
	PageAttached PageOperation = "attached"
)

// DefaultEventSubjectPrefix is used when a NATS publisher is built without a prefix.
const DefaultEventSubjectPrefix = "growi"

// PageEvent describes a successful write.
type PageEvent struct {
	Operation  PageOperation `json:"operation"`
	PageID     string        `json:"page_id"`
	Path       string        `json:"path"`
	RevisionID string        `json:"revision_id,omitempty"`
	OldPath    string        `json:"old_path,omitempty"`
	Attachment string        `json:"attachment,omitempty"`
	Time       time.Time     `json:"time"`
}

// EventPublisher receives page events. Publish errors are logged by the
// client and never turn a successful write into a failure.
type EventPublisher interface {
	Publish(ctx context.Context, event *PageEvent) error
}

type natsConn interface {
	Publish(subject string, data []byte) error
	Drain() error
}

// NATSPublisher publishes page events as JSON on "<prefix>.page.<operation>".
type NATSPublisher struct {
	conn   natsConn
	prefix string
}

// NewNATSPublisher wraps an existing NATS connection.
func NewNATSPublisher(conn *nats.Conn, prefix string) *NATSPublisher {
	return newNATSPublisher(conn, prefix)
}

func newNATSPublisher(conn natsConn, prefix string) *NATSPublisher {
	prefix = strings.TrimSuffix(prefix, ".")
	if prefix == "" {
		prefix = DefaultEventSubjectPrefix
	}

	return &NATSPublisher{conn: conn, prefix: prefix}
}

// ConnectNATS dials a NATS server and returns a publisher that owns the connection.
func ConnectNATS(url, prefix string, opts ...nats.Option) (*NATSPublisher, error) {
	opts = append([]nats.Option{nats.Name("growi-client")}, opts...)

	conn, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, fmt.Errorf("connecting to NATS: %w", err)
	}

	return newNATSPublisher(conn, prefix), nil
}

// Subject returns the subject an event for op is published on.
func (p *NATSPublisher) Subject(op PageOperation) string {
	return p.prefix + ".page." + string(op)
}

// Publish implements EventPublisher.
func (p *NATSPublisher) Publish(ctx context.Context, event *PageEvent) error {
	err := ctx.Err()
	if err != nil {
		return fmt.Errorf("publishing page event: %w", err)
	}

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encoding page event: %w", err)
	}

	err = p.conn.Publish(p.Subject(event.Operation), data)
	if err != nil {
		return fmt.Errorf("publishing page event: %w", err)
	}

	return nil
}

// Close drains the connection, flushing pending events.
func (p *NATSPublisher) Close() error {
	err := p.conn.Drain()
	if err != nil {
		return fmt.Errorf("draining NATS connection: %w", err)
	}

	return nil
}
