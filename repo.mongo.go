package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
)

// bookDocument is the representation of a book inside the collection.
// The elements names follow the existing documents layout.
type bookDocument struct {
	ID       primitive.ObjectID `bson:"_id,omitempty"`
	Name     string             `bson:"Name"`
	Price    float64            `bson:"Price"`
	Category string             `bson:"Category"`
	Author   string             `bson:"Author"`
}

func (d bookDocument) toBook() Book {
	return Book{
		ID:       d.ID.Hex(),
		Name:     d.Name,
		Price:    d.Price,
		Category: d.Category,
		Author:   d.Author,
	}
}

func newBookDocument(oid primitive.ObjectID, book Book) bookDocument {
	return bookDocument{
		ID:       oid,
		Name:     book.Name,
		Price:    book.Price,
		Category: book.Category,
		Author:   book.Author,
	}
}

type mongoBookStorage struct {
	logger     *zap.Logger
	collection *mongo.Collection
}

// NewMongoBookStorage provides an instance of mongo-based book storage.
func NewMongoBookStorage(logger *zap.Logger, collection *mongo.Collection) BookStorage {
	return &mongoBookStorage{
		logger:     logger,
		collection: collection,
	}
}

// GetMongoClient provides a ready to use mongo client.
func GetMongoClient(config *Config) (*mongo.Client, error) {
	timeout := config.Mongo.ConnectTimeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	opts := options.Client().
		ApplyURI(fmt.Sprintf("mongodb://%s:%s", config.Mongo.Host, config.Mongo.Port)).
		SetConnectTimeout(timeout).
		SetServerSelectionTimeout(timeout)

	if config.Mongo.Username != "" {
		opts.SetAuth(options.Credential{
			AuthSource: config.Mongo.AuthSource,
			Username:   config.Mongo.Username,
			Password:   config.Mongo.Password,
		})
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, err
	}

	// test connection.
	if err = client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("test connection failed: %v", err)
	}
	return client, nil
}

// GetMongoCollection returns the books collection handle.
func GetMongoCollection(config *Config, client *mongo.Client) *mongo.Collection {
	return client.Database(config.Mongo.Database).Collection(config.Mongo.Collection)
}

// Add inserts a new book record. The driver assigns the
// object id unless the book already carries a valid one.
func (ms *mongoBookStorage) Add(ctx context.Context, book *Book) error {
	var oid primitive.ObjectID
	if book.ID != "" {
		var err error
		if oid, err = primitive.ObjectIDFromHex(book.ID); err != nil {
			return ErrInvalidBookID
		}
	}

	result, err := ms.collection.InsertOne(ctx, newBookDocument(oid, *book))
	if mongo.IsDuplicateKeyError(err) {
		return ErrBookExists
	}
	if err != nil {
		return err
	}

	insertedID, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return fmt.Errorf("unexpected inserted id type %T", result.InsertedID)
	}
	book.ID = insertedID.Hex()
	return nil
}

// GetOne retrieves a book record based on its ID. An id which
// is not an object id cannot match any record.
func (ms *mongoBookStorage) GetOne(ctx context.Context, id string) (Book, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return Book{}, ErrBookNotFound
	}

	var doc bookDocument
	err = ms.collection.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return Book{}, ErrBookNotFound
	}
	if err != nil {
		return Book{}, err
	}
	return doc.toBook(), nil
}

// Delete removes a book record based on its ID.
func (ms *mongoBookStorage) Delete(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return ErrBookNotFound
	}
	result, err := ms.collection.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return ErrBookNotFound
	}
	return nil
}

// Update replaces all fields of the existing book record.
func (ms *mongoBookStorage) Update(ctx context.Context, id string, book Book) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return ErrBookNotFound
	}
	result, err := ms.collection.ReplaceOne(ctx, bson.M{"_id": oid}, newBookDocument(oid, book))
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return ErrBookNotFound
	}
	return nil
}

// GetAll retrieves a list of all books in the collection natural order.
func (ms *mongoBookStorage) GetAll(ctx context.Context) ([]Book, error) {
	cursor, err := ms.collection.Find(ctx, bson.D{})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	docs := []bookDocument{}
	if err = cursor.All(ctx, &docs); err != nil {
		return nil, err
	}

	books := make([]Book, 0, len(docs))
	for _, doc := range docs {
		books = append(books, doc.toBook())
	}
	return books, nil
}
