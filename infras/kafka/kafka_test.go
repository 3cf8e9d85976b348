package kafka_test

import (
	"campusbook/infras/kafka"
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/cenkalti/backoff/v5"
	kafkaGo "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
)

// fakeReader serves queued fetch results and cancels the consumer once they run out.
type fakeReader struct {
	mu        sync.Mutex
	fetches   []fetchResult
	committed []int64
	stop      context.CancelFunc
}

type fetchResult struct {
	msg kafkaGo.Message
	err error
}

func (r *fakeReader) FetchMessage(ctx context.Context) (kafkaGo.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.fetches) == 0 {
		r.stop()

		return kafkaGo.Message{}, ctx.Err()
	}

	next := r.fetches[0]
	r.fetches = r.fetches[1:]

	return next.msg, next.err
}

func (r *fakeReader) CommitMessages(_ context.Context, msgs ...kafkaGo.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, msg := range msgs {
		r.committed = append(r.committed, msg.Offset)
	}

	return nil
}

func newReader(stop context.CancelFunc, fetches ...fetchResult) *fakeReader {
	return &fakeReader{fetches: fetches, stop: stop}
}

func message(offset int64) fetchResult {
	return fetchResult{msg: kafkaGo.Message{Offset: offset, Key: []byte("b-1")}}
}

func TestConsume(t *testing.T) {
	t.Run("failed message is retried before the next one", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		reader := newReader(cancel, message(1), message(2))

		var handled []int64

		failures := 2
		handler := func(_ context.Context, msg kafkaGo.Message) error {
			handled = append(handled, msg.Offset)

			if msg.Offset == 1 && failures > 0 {
				failures--

				return errors.New("audit store down")
			}

			return nil
		}

		kafka.ConsumeFrom(ctx, reader, "booking.events", handler, &backoff.ZeroBackOff{})

		assert.Equal(t, []int64{1, 1, 1, 2}, handled)
		assert.Equal(t, []int64{1, 2}, reader.committed)
	})

	t.Run("unhandled message is never committed", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		reader := newReader(cancel, message(1), message(2))

		attempts := 0
		handler := func(_ context.Context, msg kafkaGo.Message) error {
			attempts++
			if attempts == 3 {
				cancel()
			}

			return errors.New("audit store down")
		}

		kafka.ConsumeFrom(ctx, reader, "booking.events", handler, &backoff.ZeroBackOff{})

		assert.Equal(t, 3, attempts)
		assert.Empty(t, reader.committed)
	})

	t.Run("fetch errors back off and resume", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		reader := newReader(cancel, fetchResult{err: errors.New("broker unavailable")}, message(7))

		var handled []int64

		handler := func(_ context.Context, msg kafkaGo.Message) error {
			handled = append(handled, msg.Offset)

			return nil
		}

		kafka.ConsumeFrom(ctx, reader, "booking.events", handler, &backoff.ZeroBackOff{})

		assert.Equal(t, []int64{7}, handled)
		assert.Equal(t, []int64{7}, reader.committed)
	})

	t.Run("exhausted backoff stops the consumer", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		reader := newReader(cancel, message(1))

		handler := func(context.Context, kafkaGo.Message) error {
			return errors.New("audit store down")
		}

		kafka.ConsumeFrom(ctx, reader, "booking.events", handler, &backoff.StopBackOff{})

		assert.Empty(t, reader.committed)
	})
}
