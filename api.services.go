package main

import (
	"context"

	"go.uber.org/zap"
)

type BookServiceProvider interface {
	Add(ctx context.Context, book *Book) error
	GetOne(ctx context.Context, id string) (Book, error)
	Delete(ctx context.Context, id string) error
	Update(ctx context.Context, id string, book Book) error
	GetAll(ctx context.Context) ([]Book, error)
}

// BookService is the thin layer between the api handlers and the storage.
// When a queue is provided, every successful mutation is published on it.
type BookService struct {
	logger  *zap.Logger
	config  *Config
	storage BookStorage
	queue   Queuer
	metrics *Metrics
}

func NewBookService(logger *zap.Logger, config *Config, storage BookStorage, queue Queuer, metrics *Metrics) BookServiceProvider {
	return &BookService{
		logger:  logger,
		config:  config,
		storage: storage,
		queue:   queue,
		metrics: metrics,
	}
}

// publish pushes the book on the queue. The failure is only
// logged since the primary storage already holds the change.
func (bs *BookService) publish(ctx context.Context, qid string, book Book) {
	if bs.queue == nil {
		return
	}
	if err := bs.queue.Push(ctx, qid, book); err != nil {
		bs.logger.Error("service: failed to push book to queue", zap.String("qid", qid), zap.String("book.id", book.ID), zap.Error(err))
	}
}

func (bs *BookService) Add(ctx context.Context, book *Book) error {
	err := bs.storage.Add(ctx, book)
	bs.metrics.ObserveBookOperation("add", err)
	if err != nil {
		return err
	}
	bs.publish(ctx, CreateQueue, *book)
	return nil
}

func (bs *BookService) GetOne(ctx context.Context, id string) (Book, error) {
	book, err := bs.storage.GetOne(ctx, id)
	bs.metrics.ObserveBookOperation("get_one", err)
	return book, err
}

func (bs *BookService) Delete(ctx context.Context, id string) error {
	err := bs.storage.Delete(ctx, id)
	bs.metrics.ObserveBookOperation("delete", err)
	if err != nil {
		return err
	}
	bs.publish(ctx, DeleteQueue, Book{ID: id})
	return nil
}

func (bs *BookService) Update(ctx context.Context, id string, book Book) error {
	err := bs.storage.Update(ctx, id, book)
	bs.metrics.ObserveBookOperation("update", err)
	if err != nil {
		return err
	}
	book.ID = id
	bs.publish(ctx, UpdateQueue, book)
	return nil
}

func (bs *BookService) GetAll(ctx context.Context) ([]Book, error) {
	books, err := bs.storage.GetAll(ctx)
	bs.metrics.ObserveBookOperation("get_all", err)
	return books, err
}
