package queue

import (
	"context"
	"sync"
)

// Delivery 包裝一筆訊息與其確認方式
type Delivery[T any] struct {
	Data *T
	Ack  func()
	Nack func(requeue bool)
}

type Queue[T any] interface {
	// 發送訊息到隊列
	Publish(ctx context.Context, msg *T) error
	// 訂閱隊列
	Subscribe(ctx context.Context) (<-chan Delivery[T], error)
	// 最近發送的 n 筆訊息，新的在前
	Recent(ctx context.Context, n int) ([]*T, error)
}

const memoryHistoryLimit = 1000

type MemoryQueue[T any] struct {
	// 使用 Go channel 來模擬 MQ 隊列
	ch chan *T

	mu      sync.Mutex
	history []*T
}

func NewMemoryQueue[T any](bufferSize int) *MemoryQueue[T] {
	return &MemoryQueue[T]{
		ch: make(chan *T, bufferSize),
	}
}

func (q *MemoryQueue[T]) Publish(ctx context.Context, msg *T) error {
	select {
	case q.ch <- msg:
	case <-ctx.Done():
		return ctx.Err()
	}

	q.mu.Lock()
	q.history = append(q.history, msg)
	if len(q.history) > memoryHistoryLimit {
		q.history = q.history[len(q.history)-memoryHistoryLimit:]
	}
	q.mu.Unlock()
	return nil
}

func (q *MemoryQueue[T]) Subscribe(ctx context.Context) (<-chan Delivery[T], error) {
	out := make(chan Delivery[T])

	go func() {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-q.ch:
				if !ok {
					return
				}

				d := Delivery[T]{
					Data: msg,
					Ack:  func() { /* 記憶體版不用做特別動作 */ },
					Nack: func(requeue bool) {
						if requeue {
							// 簡單模擬重回隊列；不可阻塞 worker
							go func() {
								select {
								case q.ch <- msg:
								case <-ctx.Done():
								}
							}()
						}
					},
				}

				select {
				case out <- d:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return out, nil
}

func (q *MemoryQueue[T]) Recent(ctx context.Context, n int) ([]*T, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if n <= 0 || n > len(q.history) {
		n = len(q.history)
	}
	result := make([]*T, 0, n)
	for i := len(q.history) - 1; i >= 0 && len(result) < n; i-- {
		result = append(result, q.history[i])
	}
	return result, nil
}
