package growi

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errTestNATS = errors.New("nats: connection closed")

type fakeConn struct {
	subjects []string
	payloads [][]byte
	drained  bool
	err      error
}

func (c *fakeConn) Publish(subject string, data []byte) error {
	if c.err != nil {
		return c.err
	}

	c.subjects = append(c.subjects, subject)
	c.payloads = append(c.payloads, data)

	return nil
}

func (c *fakeConn) Drain() error {
	c.drained = true

	return nil
}

func TestNATSPublisher_Publish(t *testing.T) {
	t.Parallel()

	conn := &fakeConn{}
	publisher := newNATSPublisher(conn, "wiki.prod.")

	event := &PageEvent{
		Operation:  PageRenamed,
		PageID:     "p1",
		Path:       "/b",
		OldPath:    "/a",
		RevisionID: "r3",
		Time:       time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
	}

	require.NoError(t, publisher.Publish(context.Background(), event))
	require.Len(t, conn.subjects, 1)
	assert.Equal(t, "wiki.prod.page.renamed", conn.subjects[0])

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(conn.payloads[0], &decoded))
	assert.Equal(t, "renamed", decoded["operation"])
	assert.Equal(t, "/a", decoded["old_path"])
	assert.Equal(t, "r3", decoded["revision_id"])
	assert.NotContains(t, decoded, "attachment")

	require.NoError(t, publisher.Close())
	assert.True(t, conn.drained)
}

func TestNATSPublisher_DefaultPrefix(t *testing.T) {
	t.Parallel()

	publisher := newNATSPublisher(&fakeConn{}, "")

	assert.Equal(t, "growi.page.created", publisher.Subject(PageCreated))
	assert.Equal(t, "growi.page.attached", publisher.Subject(PageAttached))
}

func TestNATSPublisher_Errors(t *testing.T) {
	t.Parallel()

	publisher := newNATSPublisher(&fakeConn{err: errTestNATS}, "growi")

	err := publisher.Publish(context.Background(), &PageEvent{Operation: PageUpdated})
	require.ErrorIs(t, err, errTestNATS)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err = newNATSPublisher(&fakeConn{}, "growi").Publish(ctx, &PageEvent{Operation: PageUpdated})
	require.ErrorIs(t, err, context.Canceled)
}

func TestConnectNATS_Unreachable(t *testing.T) {
	t.Parallel()

	_, err := ConnectNATS("nats://127.0.0.1:1", "growi")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connecting to NATS")
}
