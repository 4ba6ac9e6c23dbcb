package main

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ErrBookNotFound is returned by storages when no document matches an id.
var ErrBookNotFound = errors.New("book not found")

// Book represents a book document.
type Book struct {
	ID              primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	Title           string             `json:"title" bson:"title"`
	Author          string             `json:"author" bson:"author"`
	Genre           string             `json:"genre" bson:"genre"`
	PublicationDate time.Time          `json:"publication_date" bson:"publication_date"`
}

// BookStorage defines possible operations on book entity. Add assigns
// a new id when the given book does not carry one.
type BookStorage interface {
	Add(ctx context.Context, book Book) (Book, error)
	GetOne(ctx context.Context, id string) (Book, error)
	Update(ctx context.Context, book Book) (Book, error)
	Delete(ctx context.Context, id string) error
	GetAll(ctx context.Context) ([]Book, error)
}

// assignID gives the book a fresh ObjectID if it has none yet.
func assignID(book *Book) {
	if book.ID.IsZero() {
		book.ID = primitive.NewObjectID()
	}
}
