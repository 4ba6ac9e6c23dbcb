package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// codeNamespaceExists is returned by the server when creating an existing collection.
const codeNamespaceExists = 48

type mongoBookStorage struct {
	logger     *zap.Logger
	collection *mongo.Collection
}

// NewMongoBookStorage provides an instance of mongodb-based book storage.
func NewMongoBookStorage(logger *zap.Logger, collection *mongo.Collection) BookStorage {
	return &mongoBookStorage{
		logger:     logger,
		collection: collection,
	}
}

// GetMongoDBClient connects to the mongodb server and pings it. The attempts
// are retried with exponential backoff until ConnectMaxElapsed is reached.
func GetMongoDBClient(ctx context.Context, logger *zap.Logger, config *MongoDBConfig) (*mongo.Client, error) {
	opts := options.Client().ApplyURI(config.URI)
	if config.ConnectTimeout > 0 {
		opts.SetConnectTimeout(config.ConnectTimeout)
		opts.SetServerSelectionTimeout(config.ConnectTimeout)
	}

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("invalid mongodb client options: %v", err)
	}

	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = config.ConnectMaxElapsed
	if bo.MaxElapsedTime == 0 {
		bo.MaxElapsedTime = 30 * time.Second
	}
	ping := func() error {
		return client.Ping(ctx, nil)
	}
	notify := func(err error, next time.Duration) {
		logger.Warn("mongodb ping failed. retrying.", zap.Duration("retry.after", next), zap.Error(err))
	}
	if err = backoff.RetryNotify(ping, backoff.WithContext(bo, ctx), notify); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("test connection failed: %v", err)
	}
	return client, nil
}

// bookSchemaValidator mirrors the create requirements so the
// server refuses incomplete documents.
var bookSchemaValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required":  []string{"title", "author", "genre", "publication_date"},
		"properties": bson.M{
			"title":            bson.M{"bsonType": "string", "minLength": 1},
			"author":           bson.M{"bsonType": "string", "minLength": 1},
			"genre":            bson.M{"bsonType": "string", "minLength": 1},
			"publication_date": bson.M{"bsonType": "date"},
		},
	},
}

// SetupBooksCollection creates the books collection with its schema
// validator if missing and returns a handle on it.
func SetupBooksCollection(ctx context.Context, db *mongo.Database, name string) (*mongo.Collection, error) {
	opts := options.CreateCollection().SetValidator(bookSchemaValidator)
	err := db.CreateCollection(ctx, name, opts)
	var cmdErr mongo.CommandError
	if err != nil && !(errors.As(err, &cmdErr) && cmdErr.Code == codeNamespaceExists) {
		return nil, fmt.Errorf("failed to create %s collection: %v", name, err)
	}
	return db.Collection(name), nil
}

// Add inserts a new book document.
func (ms *mongoBookStorage) Add(ctx context.Context, book Book) (Book, error) {
	assignID(&book)
	if _, err := ms.collection.InsertOne(ctx, book); err != nil {
		return Book{}, err
	}
	return book, nil
}

// GetOne retrieves a book document based on its ID.
func (ms *mongoBookStorage) GetOne(ctx context.Context, id string) (Book, error) {
	var book Book
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return book, err
	}
	err = ms.collection.FindOne(ctx, bson.M{"_id": oid}).Decode(&book)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return Book{}, ErrBookNotFound
	}
	return book, err
}

// Update replaces the whole stored document with book.
func (ms *mongoBookStorage) Update(ctx context.Context, book Book) (Book, error) {
	res, err := ms.collection.ReplaceOne(ctx, bson.M{"_id": book.ID}, book)
	if err != nil {
		return book, err
	}
	if res.MatchedCount == 0 {
		return book, ErrBookNotFound
	}
	return book, nil
}

// Delete removes a book document based on its ID.
func (ms *mongoBookStorage) Delete(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return err
	}
	res, err := ms.collection.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrBookNotFound
	}
	return nil
}

// GetAll retrieves all book documents in the server natural order.
func (ms *mongoBookStorage) GetAll(ctx context.Context) ([]Book, error) {
	cursor, err := ms.collection.Find(ctx, bson.D{})
	if err != nil {
		return nil, err
	}
	books := []Book{}
	if err = cursor.All(ctx, &books); err != nil {
		return nil, err
	}
	return books, nil
}
