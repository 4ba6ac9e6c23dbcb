package main

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
)

const popRetryDelay = time.Second

type Consumer interface {
	Consume(ctx context.Context, qids ...string) error
}

// BookReplica is the storage which receives the replicated changes.
type BookReplica interface {
	Upsert(ctx context.Context, book Book) error
	Delete(ctx context.Context, id string) error
}

type backupConsumer struct {
	logger  *zap.Logger
	queue   Queuer
	replica BookReplica
}

// NewBackupConsumer provides a consumer which applies queued changes to the replica.
func NewBackupConsumer(logger *zap.Logger, q Queuer, replica BookReplica) Consumer {
	return &backupConsumer{logger: logger, queue: q, replica: replica}
}

// Consume pops changes until ctx is done. Failures are logged and skipped.
func (bc *backupConsumer) Consume(ctx context.Context, qids ...string) error {
	for {
		qid, book, err := bc.queue.Pop(ctx, qids...)
		if err != nil && ctx.Err() != nil {
			bc.logger.Info("consumer: queue pop call: context is done: exit", zap.String("reason", ctx.Err().Error()))
			return nil
		}

		if err != nil {
			bc.logger.Error("consumer: error on queue pop call", zap.Error(err))
			select {
			case <-ctx.Done():
			case <-time.After(popRetryDelay):
			}
			continue
		}

		bc.apply(ctx, qid, book)
	}
}

func (bc *backupConsumer) apply(ctx context.Context, qid string, book Book) {
	switch qid {
	case CreateQueue, UpdateQueue:
		if err := bc.replica.Upsert(ctx, book); err != nil {
			bc.logger.Error("consumer: failed to save", zap.String("qid", qid), zap.String("book.id", book.ID.Hex()), zap.Error(err))
		}
	case DeleteQueue:
		err := bc.replica.Delete(ctx, book.ID.Hex())
		if err != nil && !errors.Is(err, ErrBookNotFound) {
			bc.logger.Error("consumer: failed to delete", zap.String("book.id", book.ID.Hex()), zap.Error(err))
		}
	default:
		bc.logger.Warn("consumer: received book on unknown queue id", zap.String("qid", qid), zap.String("book.id", book.ID.Hex()))
	}
}
