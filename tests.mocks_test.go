package main

import (
	"context"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// This file contains mocks definitions needed to perform unit tests.

type MockBookStorage struct {
	AddFunc    func(ctx context.Context, book Book) (Book, error)
	GetOneFunc func(ctx context.Context, id string) (Book, error)
	UpdateFunc func(ctx context.Context, book Book) (Book, error)
	DeleteFunc func(ctx context.Context, id string) error
	GetAllFunc func(ctx context.Context) ([]Book, error)

	getOneCalls int
}

// Add mocks the behavior of book creation by the repository.
func (m *MockBookStorage) Add(ctx context.Context, book Book) (Book, error) {
	return m.AddFunc(ctx, book)
}

// GetOne mocks the behavior of retrieving a book by the repository.
func (m *MockBookStorage) GetOne(ctx context.Context, id string) (Book, error) {
	m.getOneCalls++
	return m.GetOneFunc(ctx, id)
}

// Update mocks the behavior of updating a book by the repository.
func (m *MockBookStorage) Update(ctx context.Context, book Book) (Book, error) {
	return m.UpdateFunc(ctx, book)
}

// Delete mocks the behavior of deleting a book by the repository.
func (m *MockBookStorage) Delete(ctx context.Context, id string) error {
	return m.DeleteFunc(ctx, id)
}

// GetAll mocks the behavior of retrieving all books by the repository.
func (m *MockBookStorage) GetAll(ctx context.Context) ([]Book, error) {
	return m.GetAllFunc(ctx)
}

// memBookStorage is an in-memory BookStorage keeping insertion order.
type memBookStorage struct {
	mu    sync.Mutex
	order []primitive.ObjectID
	books map[primitive.ObjectID]Book
}

func newMemBookStorage() *memBookStorage {
	return &memBookStorage{books: make(map[primitive.ObjectID]Book)}
}

func (ms *memBookStorage) Add(_ context.Context, book Book) (Book, error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	assignID(&book)
	ms.order = append(ms.order, book.ID)
	ms.books[book.ID] = book
	return book, nil
}

func (ms *memBookStorage) GetOne(_ context.Context, id string) (Book, error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return Book{}, err
	}
	book, ok := ms.books[oid]
	if !ok {
		return Book{}, ErrBookNotFound
	}
	return book, nil
}

func (ms *memBookStorage) Update(_ context.Context, book Book) (Book, error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	if _, ok := ms.books[book.ID]; !ok {
		return book, ErrBookNotFound
	}
	ms.books[book.ID] = book
	return book, nil
}

func (ms *memBookStorage) Delete(_ context.Context, id string) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return err
	}
	if _, ok := ms.books[oid]; !ok {
		return ErrBookNotFound
	}
	delete(ms.books, oid)
	for i, v := range ms.order {
		if v == oid {
			ms.order = append(ms.order[:i], ms.order[i+1:]...)
			break
		}
	}
	return nil
}

func (ms *memBookStorage) GetAll(_ context.Context) ([]Book, error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	books := make([]Book, 0, len(ms.order))
	for _, id := range ms.order {
		books = append(books, ms.books[id])
	}
	return books, nil
}

// MockQueuer records pushed books and serves popped ones from a channel.
type MockQueuer struct {
	PushFunc func(ctx context.Context, qid string, book Book) error
	PopFunc  func(ctx context.Context, qids ...string) (string, Book, error)
}

func (mq *MockQueuer) Push(ctx context.Context, qid string, book Book) error {
	return mq.PushFunc(ctx, qid, book)
}

func (mq *MockQueuer) Pop(ctx context.Context, qids ...string) (string, Book, error) {
	return mq.PopFunc(ctx, qids...)
}

// MockReplica implements BookReplica.
type MockReplica struct {
	mu       sync.Mutex
	upserted []Book
	deleted  []string
}

func (mr *MockReplica) Upsert(_ context.Context, book Book) error {
	mr.mu.Lock()
	defer mr.mu.Unlock()
	mr.upserted = append(mr.upserted, book)
	return nil
}

func (mr *MockReplica) Delete(_ context.Context, id string) error {
	mr.mu.Lock()
	defer mr.mu.Unlock()
	mr.deleted = append(mr.deleted, id)
	return nil
}

// MockClocker implements a fake Clocker.
type MockClocker struct {
	MockNow time.Time
}

// NewMockClocker returns a mocked instance with fixed time.
func NewMockClocker() *MockClocker {
	return &MockClocker{time.Date(2023, 0o7, 0o2, 0o0, 0o0, 0o0, 0o00000000, time.UTC)}
}

// Now returns an already defined time to be used as mock. This
// equals to `Sun, 02 Jul 2023 00:00:00 UTC` in time.RFC1123 format.
func (mck *MockClocker) Now() time.Time {
	return mck.MockNow
}

// MockUIDHandler implements a fake UIDHandler. Book ids are checked
// with the real rule so the loader behaves as in production.
type MockUIDHandler struct {
	MockedUID string
}

// NewMockUIDHandler returns a mocked instance with predictable id.
func NewMockUIDHandler(id string) *MockUIDHandler {
	return &MockUIDHandler{MockedUID: id}
}

// Generate constructs a predictable id to be used as mock.
func (muid *MockUIDHandler) Generate(prefix string) string {
	return prefix + ":" + muid.MockedUID
}

func (muid *MockUIDHandler) IsValid(id string) bool {
	return IsValidBookID(id)
}
