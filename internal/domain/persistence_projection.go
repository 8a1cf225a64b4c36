package domain

import (
	"context"

	"github.com/detekto/cellwatch/internal/bus"
	"github.com/detekto/cellwatch/internal/connectors"
)

// WriteQueue serializes persistence writes from async domain events.
type WriteQueue interface {
	Enqueue(name string, fn func(context.Context) error)
}

func StartPersistenceProjection(ctx context.Context, b bus.MessageBus, queue WriteQueue, repo OperatorRepository) {
	learnedSub := b.Subscribe(connectors.TopicOperatorLearned)

	go func() {
		defer b.Unsubscribe(learnedSub, connectors.TopicOperatorLearned)
		for {
			select {
			case <-ctx.Done():
				return
			case raw, ok := <-learnedSub:
				if !ok {
					return
				}
				learned, ok := raw.(LearnedOperator)
				if !ok {
					continue
				}
				queue.Enqueue("upsert_operator", func(writeCtx context.Context) error {
					return repo.Upsert(writeCtx, learned)
				})
			}
		}
	}()
}
