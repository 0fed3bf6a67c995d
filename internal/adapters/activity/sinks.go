// Package activity contains ActivitySink implementations: the persistent
// activity log, a NATS publisher and a fan-out combining them.
package activity

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/example/labelr/internal/ctxutil"
	"github.com/example/labelr/internal/ports/secondary"
)

// StoreSink writes activity entries to the activity_logs table.
type StoreSink struct {
	repo secondary.ActivityRepository
}

// NewStoreSink creates a sink over the activity repository.
func NewStoreSink(repo secondary.ActivityRepository) *StoreSink {
	return &StoreSink{repo: repo}
}

// Record persists one entry. The actor defaults to the one on the context.
func (s *StoreSink) Record(ctx context.Context, entry secondary.ActivityEntry) error {
	entry = withDefaults(ctx, entry)

	details := ""
	if len(entry.Details) > 0 {
		b, err := json.Marshal(entry.Details)
		if err != nil {
			return fmt.Errorf("failed to encode activity details: %w", err)
		}
		details = string(b)
	}

	return s.repo.Create(ctx, &secondary.ActivityRecord{
		UserID:        entry.UserID,
		Action:        entry.Action,
		TargetType:    entry.TargetType,
		TargetID:      entry.TargetID,
		Details:       details,
		CorrelationID: entry.CorrelationID,
		CreatedAt:     entry.At,
	})
}

// Publisher is the subset of *nats.Conn used by NATSSink.
type Publisher interface {
	Publish(subject string, data []byte) error
}

// NATSSink publishes each entry as JSON on <subject>.<action>.
type NATSSink struct {
	pub     Publisher
	subject string
}

// NewNATSSink creates a sink publishing under subject.
func NewNATSSink(pub Publisher, subject string) *NATSSink {
	return &NATSSink{pub: pub, subject: subject}
}

// ConnectNATS dials url and returns a sink plus the connection to close.
func ConnectNATS(url, subject string) (*NATSSink, *nats.Conn, error) {
	conn, err := nats.Connect(url,
		nats.Name("labelr"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to NATS: %w", err)
	}
	return NewNATSSink(conn, subject), conn, nil
}

// Record publishes one entry.
func (s *NATSSink) Record(ctx context.Context, entry secondary.ActivityEntry) error {
	entry = withDefaults(ctx, entry)
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to encode activity entry: %w", err)
	}
	subject := s.subject + "." + entry.Action
	if err := s.pub.Publish(subject, data); err != nil {
		return fmt.Errorf("publish %s: %w", subject, err)
	}
	return nil
}

// Fanout records each entry on every sink and joins their errors.
type Fanout []secondary.ActivitySink

// Record forwards entry to all sinks, continuing past failures.
func (f Fanout) Record(ctx context.Context, entry secondary.ActivityEntry) error {
	var errList []error
	for _, sink := range f {
		if err := sink.Record(ctx, entry); err != nil {
			errList = append(errList, err)
		}
	}
	return errors.Join(errList...)
}

func withDefaults(ctx context.Context, entry secondary.ActivityEntry) secondary.ActivityEntry {
	if entry.UserID == 0 {
		entry.UserID = ctxutil.ActorFromContext(ctx)
	}
	if entry.CorrelationID == "" {
		entry.CorrelationID = ctxutil.CorrelationFromContext(ctx)
	}
	if entry.At.IsZero() {
		entry.At = time.Now().UTC()
	}
	return entry
}

var (
	_ secondary.ActivitySink = (*StoreSink)(nil)
	_ secondary.ActivitySink = (*NATSSink)(nil)
	_ secondary.ActivitySink = Fanout(nil)
	_ Publisher              = (*nats.Conn)(nil)
)
