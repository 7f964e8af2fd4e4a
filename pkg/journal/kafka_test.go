package journal

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDecodeEntry(t *testing.T) {
	entry, err := DecodeEntry([]byte(`{"key":"k1","kind":"payment.completed","subject_id":7,"payload":{"status":"completed"},"created_at":"2025-03-10T12:00:00Z"}`))
	require.NoError(t, err)
	require.Equal(t, "k1", entry.Key)
	require.Equal(t, KindPaymentCompleted, entry.Kind)
	require.Equal(t, 7, entry.SubjectID)
	require.JSONEq(t, `{"status":"completed"}`, string(entry.Payload))

	entry, err = DecodeEntry([]byte(`{"key":"k2","kind":"http.request"}`))
	require.NoError(t, err)
	require.Equal(t, json.RawMessage("null"), entry.Payload)

	_, err = DecodeEntry([]byte(`{"kind":"rental.created"}`))
	require.Error(t, err)

	_, err = DecodeEntry([]byte(`not json`))
	require.Error(t, err)
}

func TestKafkaJournal_NoWriterOrReader(t *testing.T) {
	j := NewKafkaJournal(nil, nil, slog.New(slog.NewTextHandler(io.Discard, nil)), nil)

	require.ErrorIs(t, j.Publish(context.Background(), KindRentalCreated, 1, nil), ErrNoWriter)
	require.ErrorIs(t, j.PushRequest(context.Background(), Request{Method: "GET"}), ErrNoWriter)
	require.ErrorIs(t, j.Consume(context.Background()), ErrNoReader)
	require.ErrorIs(t, j.HealthCheck(context.Background()), ErrNoWriter)
}
