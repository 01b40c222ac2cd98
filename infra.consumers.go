package main

import (
	"context"
	"time"

	"go.uber.org/zap"
)

type Consumer interface {
	Consume(ctx context.Context, qids ...string) error
}

// boltDBConsumer applies books mutations read from the queues to the boltdb replica.
type boltDBConsumer struct {
	logger *zap.Logger
	queue  Queuer
	repo   BookStorage

	retryDelay time.Duration
}

func NewBoltDBConsumer(logger *zap.Logger, q Queuer, repo BookStorage) Consumer {
	return &boltDBConsumer{logger: logger, queue: q, repo: repo, retryDelay: time.Second}
}

// Consume runs until the context is done. Failures on a single
// message are logged and the loop moves on to the next one.
func (bc *boltDBConsumer) Consume(ctx context.Context, qids ...string) error {
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
			case <-time.After(bc.retryDelay):
			}
			continue
		}

		switch qid {
		case CreateQueue:
			if err = bc.repo.Add(ctx, &book); err != nil {
				bc.logger.Error("consumer: failed to create", zap.String("book.id", book.ID), zap.Error(err))
			}
		case UpdateQueue:
			if err = bc.repo.Update(ctx, book.ID, book); err != nil {
				bc.logger.Error("consumer: failed to update", zap.String("book.id", book.ID), zap.Error(err))
			}
		case DeleteQueue:
			if err = bc.repo.Delete(ctx, book.ID); err != nil && err != ErrBookNotFound {
				bc.logger.Error("consumer: failed to delete", zap.String("book.id", book.ID), zap.Error(err))
			}
		default:
			bc.logger.Warn("consumer: received book on unknown queue id", zap.String("qid", qid), zap.Any("book", book))
		}
	}
}
