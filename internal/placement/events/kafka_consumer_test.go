package events

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"
)

// fakeReader serves queued messages and then blocks until ctx is done.
type fakeReader struct {
	mu        sync.Mutex
	messages  []kafka.Message
	committed []kafka.Message
	commitErr error
	closed    bool
}

func (r *fakeReader) FetchMessage(ctx context.Context) (kafka.Message, error) {
	r.mu.Lock()
	if len(r.messages) > 0 {
		msg := r.messages[0]
		r.messages = r.messages[1:]
		r.mu.Unlock()
		return msg, nil
	}
	r.mu.Unlock()
	<-ctx.Done()
	return kafka.Message{}, ctx.Err()
}

func (r *fakeReader) CommitMessages(_ context.Context, msgs ...kafka.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.commitErr != nil {
		return r.commitErr
	}
	r.committed = append(r.committed, msgs...)
	return nil
}

func (r *fakeReader) Close() error {
	r.closed = true
	return nil
}

func (r *fakeReader) committedCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.committed)
}

func encodedEvent(t *testing.T, eventType EventType, entityID int64) kafka.Message {
	t.Helper()
	value, err := json.Marshal(NewEvent(eventType, manager, entityID, nil))
	require.NoError(t, err)
	return kafka.Message{Value: value}
}

func TestDecodeEvent(t *testing.T) {
	msg := encodedEvent(t, EvaluationCreated, 8)
	event, err := DecodeEvent(msg.Value)
	require.NoError(t, err)
	assert.Equal(t, EvaluationCreated, event.Type)
	assert.Equal(t, int64(8), event.EntityID)

	_, err = DecodeEvent([]byte("not json"))
	assert.Error(t, err)

	_, err = DecodeEvent([]byte(`{"entity_id": 1}`))
	assert.EqualError(t, err, "event without type")
}

func TestConsumer_Process(t *testing.T) {
	t.Run("handled events are committed", func(t *testing.T) {
		reader := &fakeReader{}
		consumer := &Consumer{reader: reader, logger: zaptest.NewLogger(t)}
		var got []EventType
		consumer.RegisterHandler(func(_ context.Context, event Event) error {
			got = append(got, event.Type)
			return nil
		})

		consumer.process(context.Background(), encodedEvent(t, OfferCreated, 1))

		assert.Equal(t, []EventType{OfferCreated}, got)
		assert.Equal(t, 1, reader.committedCount())
	})

	t.Run("undecodable messages are skipped", func(t *testing.T) {
		core, recorded := observer.New(zap.ErrorLevel)
		reader := &fakeReader{}
		consumer := &Consumer{reader: reader, logger: zap.New(core)}

		consumer.process(context.Background(), kafka.Message{Value: []byte("{")})

		assert.Equal(t, 1, recorded.FilterMessage("Failed to parse event").Len())
		assert.Zero(t, reader.committedCount())
	})

	t.Run("handler failures are not committed", func(t *testing.T) {
		core, recorded := observer.New(zap.ErrorLevel)
		reader := &fakeReader{}
		consumer := &Consumer{reader: reader, logger: zap.New(core)}
		consumer.RegisterHandler(func(context.Context, Event) error { return errors.New("boom") })

		consumer.process(context.Background(), encodedEvent(t, OfferCreated, 1))

		assert.Equal(t, 1, recorded.FilterMessage("Failed to handle event").Len())
		assert.Zero(t, reader.committedCount())
	})

	t.Run("commit failures are logged", func(t *testing.T) {
		core, recorded := observer.New(zap.ErrorLevel)
		reader := &fakeReader{commitErr: errors.New("commit failed")}
		consumer := &Consumer{reader: reader, logger: zap.New(core)}

		consumer.process(context.Background(), encodedEvent(t, OfferCreated, 1))

		assert.Equal(t, 1, recorded.FilterMessage("Failed to commit message").Len())
	})
}

func TestConsumer_Start(t *testing.T) {
	reader := &fakeReader{messages: []kafka.Message{
		encodedEvent(t, ApplicationSubmitted, 1),
		encodedEvent(t, ApplicationStatusChanged, 1),
	}}
	consumer := &Consumer{reader: reader, logger: zaptest.NewLogger(t)}
	handled := make(chan EventType, 2)
	consumer.RegisterHandler(func(_ context.Context, event Event) error {
		handled <- event.Type
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := consumer.Start(ctx)

	assert.Equal(t, ApplicationSubmitted, <-handled)
	assert.Equal(t, ApplicationStatusChanged, <-handled)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("consumer did not stop after cancel")
	}
	assert.Equal(t, 2, reader.committedCount())

	consumer.Close()
	assert.True(t, reader.closed)
}
