package main

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type pushed struct {
	qid  string
	book Book
}

func newRecordingQueue() (*MockQueuer, *[]pushed) {
	var mu sync.Mutex
	records := &[]pushed{}
	return &MockQueuer{
		PushFunc: func(ctx context.Context, qid string, book Book) error {
			mu.Lock()
			defer mu.Unlock()
			*records = append(*records, pushed{qid, book})
			return nil
		},
	}, records
}

// TestBookService ensures every successful change is published once.
func TestBookService(t *testing.T) {
	ctx := context.Background()
	queue, records := newRecordingQueue()
	bs := NewBookService(zap.NewNop(), newMemBookStorage(), queue)

	book, err := bs.Add(ctx, Book{Title: "Dune"})
	require.NoError(t, err)
	book.Genre = "SF"
	_, err = bs.Update(ctx, book)
	require.NoError(t, err)
	require.NoError(t, bs.Delete(ctx, book))

	require.Len(t, *records, 3)
	assert.Equal(t, pushed{CreateQueue, Book{ID: book.ID, Title: "Dune"}}, (*records)[0])
	assert.Equal(t, pushed{UpdateQueue, book}, (*records)[1])
	assert.Equal(t, pushed{DeleteQueue, Book{ID: book.ID}}, (*records)[2])

	t.Run("failures are not published", func(t *testing.T) {
		*records = nil
		_, err := bs.Update(ctx, Book{ID: primitive.NewObjectID()})
		assert.ErrorIs(t, err, ErrBookNotFound)
		err = bs.Delete(ctx, Book{ID: primitive.NewObjectID()})
		assert.ErrorIs(t, err, ErrBookNotFound)
		assert.Empty(t, *records)
	})

	t.Run("queue failure does not fail the change", func(t *testing.T) {
		failing := &MockQueuer{
			PushFunc: func(ctx context.Context, qid string, book Book) error {
				return errors.New("redis down")
			},
		}
		bs := NewBookService(zap.NewNop(), newMemBookStorage(), failing)
		_, err := bs.Add(ctx, Book{Title: "Dune"})
		assert.NoError(t, err)
	})
}

// TestBackupConsumer ensures queued changes are applied to the replica until the context is done.
func TestBackupConsumer(t *testing.T) {
	created := Book{ID: primitive.NewObjectID(), Title: "Dune"}
	deleted := primitive.NewObjectID()
	items := make(chan pushed, 4)
	items <- pushed{CreateQueue, created}
	items <- pushed{"unknown", created}
	items <- pushed{DeleteQueue, Book{ID: deleted}}

	queue := &MockQueuer{
		PopFunc: func(ctx context.Context, qids ...string) (string, Book, error) {
			select {
			case <-ctx.Done():
				return "", Book{}, ctx.Err()
			case item := <-items:
				return item.qid, item.book, nil
			}
		},
	}
	replica := &MockReplica{}
	consumer := NewBackupConsumer(zap.NewNop(), queue, replica)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- consumer.Consume(ctx, CreateQueue, UpdateQueue, DeleteQueue) }()

	assert.Eventually(t, func() bool {
		replica.mu.Lock()
		defer replica.mu.Unlock()
		return len(replica.upserted) == 1 && len(replica.deleted) == 1
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("consumer did not stop")
	}

	assert.Equal(t, []Book{created}, replica.upserted)
	assert.Equal(t, []string{deleted.Hex()}, replica.deleted)
}

func TestNopQueue(t *testing.T) {
	q := nopQueue{}
	assert.NoError(t, q.Push(context.Background(), CreateQueue, Book{}))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, _, err := q.Pop(ctx, CreateQueue)
	assert.ErrorIs(t, err, context.Canceled)
}
