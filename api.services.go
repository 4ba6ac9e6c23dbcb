package main

import (
	"context"

	"go.uber.org/zap"
)

type BookServiceProvider interface {
	Add(ctx context.Context, book Book) (Book, error)
	GetOne(ctx context.Context, id string) (Book, error)
	Update(ctx context.Context, book Book) (Book, error)
	Delete(ctx context.Context, book Book) error
	GetAll(ctx context.Context) ([]Book, error)
}

// BookService sits between the api handlers and the storage. Every
// successful change is published to the queue for the backup replica.
type BookService struct {
	logger  *zap.Logger
	storage BookStorage
	queue   Queuer
}

// NewBookService provides a book service. A nil queue disables publishing.
func NewBookService(logger *zap.Logger, storage BookStorage, queue Queuer) BookServiceProvider {
	if queue == nil {
		queue = nopQueue{}
	}
	return &BookService{
		logger:  logger,
		storage: storage,
		queue:   queue,
	}
}

func (bs *BookService) publish(ctx context.Context, qid string, book Book) {
	if err := bs.queue.Push(ctx, qid, book); err != nil {
		bs.logger.Error("service: failed to push book to queue",
			zap.String("qid", qid),
			zap.String("book.id", book.ID.Hex()),
			zap.Error(err),
		)
	}
}

func (bs *BookService) Add(ctx context.Context, book Book) (Book, error) {
	book, err := bs.storage.Add(ctx, book)
	if err != nil {
		return book, err
	}
	bs.publish(ctx, CreateQueue, book)
	return book, nil
}

func (bs *BookService) GetOne(ctx context.Context, id string) (Book, error) {
	return bs.storage.GetOne(ctx, id)
}

func (bs *BookService) Update(ctx context.Context, book Book) (Book, error) {
	book, err := bs.storage.Update(ctx, book)
	if err != nil {
		return book, err
	}
	bs.publish(ctx, UpdateQueue, book)
	return book, nil
}

func (bs *BookService) Delete(ctx context.Context, book Book) error {
	if err := bs.storage.Delete(ctx, book.ID.Hex()); err != nil {
		return err
	}
	bs.publish(ctx, DeleteQueue, Book{ID: book.ID})
	return nil
}

func (bs *BookService) GetAll(ctx context.Context) ([]Book, error) {
	return bs.storage.GetAll(ctx)
}
