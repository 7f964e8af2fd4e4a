package journal

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
	"github.com/segmentio/kafka-go"
)

type JournalError string

func (e JournalError) Error() string {
	return string(e)
}

const (
	ErrNoWriter JournalError = "journal has no writer"
	ErrNoReader JournalError = "journal has no reader"
	ErrNoSink   JournalError = "journal has no sink"
)

const (
	KindHTTPRequest      = "http.request"
	KindRentalCreated    = "rental.created"
	KindRentalUpdated    = "rental.updated"
	KindRentalDeleted    = "rental.deleted"
	KindRentalActivated  = "rental.activated"
	KindRentalCanceled   = "rental.canceled"
	KindPaymentCreated   = "payment.created"
	KindPaymentCompleted = "payment.completed"
	KindPaymentFailed    = "payment.failed"
	KindPaymentCanceled  = "payment.canceled"
	KindPaymentUpdated   = "payment.updated"
	KindPaymentReconcile = "payment.reconcile"
	KindCheckoutOpened   = "checkout.opened"
)

const topicCreationWait = 5 * time.Second

type Entry struct {
	Key       string          `json:"key" db:"key"`
	Kind      string          `json:"kind" db:"kind"`
	SubjectID int             `json:"subject_id,omitempty" db:"subject_id"`
	Payload   json.RawMessage `json:"payload" db:"payload"`
	CreatedAt time.Time       `json:"created_at" db:"created_at"`
}

// Request is the payload of KindHTTPRequest entries.
type Request struct {
	Method  string `json:"method"`
	URL     string `json:"url"`
	Body    string `json:"body"`
	Headers string `json:"headers"`
}

type Sink interface {
	SaveEntry(ctx context.Context, entry Entry) error
}

type KafkaJournal struct {
	reader *kafka.Reader
	writer *kafka.Writer
	logger *slog.Logger
	sink   Sink
}

func NewKafkaJournal(reader *kafka.Reader, writer *kafka.Writer, logger *slog.Logger, sink Sink) *KafkaJournal {
	return &KafkaJournal{
		reader: reader,
		writer: writer,
		logger: logger,
		sink:   sink,
	}
}

func (j *KafkaJournal) HealthCheck(_ context.Context) error {
	if j.writer == nil && j.reader == nil {
		return ErrNoWriter
	}
	return nil
}

// Publish appends one entry. subjectID is the rental or payment id the entry is about.
func (j *KafkaJournal) Publish(ctx context.Context, kind string, subjectID int, payload any) error {
	if j.writer == nil {
		return ErrNoWriter
	}

	rawPayload, err := json.Marshal(payload)
	if err != nil {
		return errors.Wrap(err, "marshal journal payload")
	}

	entry := Entry{
		Key:       uuid.NewString(),
		Kind:      kind,
		SubjectID: subjectID,
		Payload:   rawPayload,
		CreatedAt: time.Now().UTC(),
	}

	value, err := json.Marshal(entry)
	if err != nil {
		return errors.Wrap(err, "marshal journal entry")
	}

	msg := kafka.Message{
		Key:   []byte(entry.Key),
		Value: value,
	}
	j.logger.Debug("write message to kafka...",
		slog.String("topic", j.writer.Topic),
		slog.String("key", entry.Key),
		slog.String("kind", kind),
	)

	err = j.writer.WriteMessages(ctx, msg)
	if errors.Is(err, kafka.UnknownTopicOrPartition) {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(topicCreationWait):
		}
		err = j.writer.WriteMessages(ctx, msg)
	}

	return err
}

func (j *KafkaJournal) PushRequest(ctx context.Context, req Request) error {
	return j.Publish(ctx, KindHTTPRequest, 0, req)
}

// Consume reads one message and stores it. On failure the reader is rewound to the message.
func (j *KafkaJournal) Consume(ctx context.Context) (err error) {
	if j.reader == nil {
		return ErrNoReader
	}
	if j.sink == nil {
		return ErrNoSink
	}

	msg, err := j.reader.ReadMessage(ctx)
	if err != nil {
		return err
	}

	defer func() {
		if err != nil {
			err = multierror.Append(err, j.reader.SetOffset(msg.Offset))
		}
	}()

	j.logger.Debug("read message from kafka",
		slog.String("topic", msg.Topic),
		slog.Int("partition", msg.Partition),
		slog.Int64("offset", msg.Offset),
		slog.String("key", string(msg.Key)),
	)

	entry, err := DecodeEntry(msg.Value)
	if err != nil {
		return err
	}

	return j.sink.SaveEntry(ctx, entry)
}

func DecodeEntry(value []byte) (Entry, error) {
	var entry Entry
	if err := json.Unmarshal(value, &entry); err != nil {
		return Entry{}, errors.Wrap(err, "unmarshal journal entry")
	}
	if entry.Key == "" || entry.Kind == "" {
		return Entry{}, errors.New("journal entry without key or kind")
	}
	if len(entry.Payload) == 0 {
		entry.Payload = json.RawMessage("null")
	}
	return entry, nil
}
