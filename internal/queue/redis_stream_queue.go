package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"tixify/pkg/logger"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// StreamSpec names a stream and the consumer group that drains it.
type StreamSpec struct {
	Key   string
	Group string
}

var (
	IssuanceStream       = StreamSpec{Key: "tickets:issuance:stream", Group: "issuance-workers"}
	ReconciliationStream = StreamSpec{Key: "checkout:reconciliation:stream", Group: "reconciliation-workers"}
)

const payloadField = "payload"

// StreamOptions 零值欄位使用預設
type StreamOptions struct {
	// Consumer 名稱，同一台機器重啟後沿用可以接回自己的 PEL
	Consumer string
	// ClaimIdle 訊息在 PEL 停留超過這個時間才會被重新領取
	ClaimIdle time.Duration
	// MaxDeliveries 投遞次數到達後直接 ack 掉
	MaxDeliveries int
	Block         time.Duration
	BatchSize     int64
	// MaxLen 大約保留的訊息數，0 表示不修剪
	MaxLen int64
}

func (o StreamOptions) withDefaults() StreamOptions {
	if o.Consumer == "" {
		o.Consumer = uuid.NewString()
	}
	if o.ClaimIdle <= 0 {
		o.ClaimIdle = 5 * time.Second
	}
	if o.MaxDeliveries <= 0 {
		o.MaxDeliveries = 5
	}
	if o.Block <= 0 {
		o.Block = 2 * time.Second
	}
	if o.BatchSize <= 0 {
		o.BatchSize = 10
	}
	return o
}

// RedisStreamQueue is a Queue on a Redis stream consumer group. Requeued
// messages stay pending and come back through XAUTOCLAIM after ClaimIdle.
type RedisStreamQueue[T any] struct {
	client   *redis.Client
	spec     StreamSpec
	consumer string
	opts     StreamOptions
	log      *zap.Logger
}

func NewRedisStreamQueue[T any](client *redis.Client, spec StreamSpec, opts StreamOptions) (*RedisStreamQueue[T], error) {
	opts = opts.withDefaults()
	q := &RedisStreamQueue[T]{
		client:   client,
		spec:     spec,
		consumer: "worker:" + opts.Consumer,
		opts:     opts,
		log:      logger.WithComponent("mq").With(zap.String("stream", spec.Key)),
	}

	err := client.XGroupCreateMkStream(context.Background(), spec.Key, spec.Group, "0").Err()
	if err != nil && !strings.HasPrefix(err.Error(), "BUSYGROUP") {
		return nil, fmt.Errorf("create consumer group %s: %w", spec.Group, err)
	}
	return q, nil
}

func (q *RedisStreamQueue[T]) Publish(ctx context.Context, msg *T) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}
	args := &redis.XAddArgs{
		Stream: q.spec.Key,
		ID:     "*",
		Values: map[string]interface{}{payloadField: string(payload)},
	}
	if q.opts.MaxLen > 0 {
		args.MaxLen = q.opts.MaxLen
		args.Approx = true
	}
	if err := q.client.XAdd(ctx, args).Err(); err != nil {
		return fmt.Errorf("xadd %s: %w", q.spec.Key, err)
	}
	return nil
}

func (q *RedisStreamQueue[T]) Subscribe(ctx context.Context) (<-chan Delivery[T], error) {
	out := make(chan Delivery[T])
	go func() {
		defer close(out)
		go q.claimLoop(ctx, out)
		for ctx.Err() == nil {
			q.readNew(ctx, out)
		}
	}()
	return out, nil
}

func (q *RedisStreamQueue[T]) Recent(ctx context.Context, n int) ([]*T, error) {
	if n <= 0 {
		n = 100
	}
	msgs, err := q.client.XRevRangeN(ctx, q.spec.Key, "+", "-", int64(n)).Result()
	if err != nil {
		return nil, fmt.Errorf("xrevrange %s: %w", q.spec.Key, err)
	}
	result := make([]*T, 0, len(msgs))
	for _, msg := range msgs {
		data, err := decodeMessage[T](msg)
		if err != nil {
			q.log.Warn("skip undecodable message", zap.String("message_id", msg.ID), zap.Error(err))
			continue
		}
		result = append(result, data)
	}
	return result, nil
}

func decodeMessage[T any](msg redis.XMessage) (*T, error) {
	raw, ok := msg.Values[payloadField].(string)
	if !ok {
		return nil, errors.New("missing payload field")
	}
	var data T
	if err := json.Unmarshal([]byte(raw), &data); err != nil {
		return nil, err
	}
	return &data, nil
}

// readNew 只讀 ">"；已投遞過的訊息交給 claimLoop
func (q *RedisStreamQueue[T]) readNew(ctx context.Context, out chan<- Delivery[T]) {
	streams, err := q.client.XReadGroup(ctx, &redis.XReadGroupArgs{
		Group:    q.spec.Group,
		Consumer: q.consumer,
		Streams:  []string{q.spec.Key, ">"},
		Count:    q.opts.BatchSize,
		Block:    q.opts.Block,
	}).Result()
	if errors.Is(err, redis.Nil) || ctx.Err() != nil {
		return
	}
	if err != nil {
		q.log.Error("XReadGroup failed", zap.Error(err))
		select {
		case <-time.After(time.Second):
		case <-ctx.Done():
		}
		return
	}
	for _, stream := range streams {
		if !q.deliver(ctx, out, stream.Messages) {
			return
		}
	}
}

func (q *RedisStreamQueue[T]) claimLoop(ctx context.Context, out chan<- Delivery[T]) {
	ticker := time.NewTicker(q.opts.ClaimIdle)
	defer ticker.Stop()
	start := "0-0"

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		claimed, next, err := q.client.XAutoClaim(ctx, &redis.XAutoClaimArgs{
			Stream:   q.spec.Key,
			Group:    q.spec.Group,
			Consumer: q.consumer,
			MinIdle:  q.opts.ClaimIdle,
			Start:    start,
			Count:    q.opts.BatchSize,
		}).Result()
		if err != nil && !errors.Is(err, redis.Nil) {
			if ctx.Err() == nil {
				q.log.Error("XAutoClaim failed", zap.Error(err))
			}
			continue
		}
		// next 為 "0-0" 代表整個 PEL 掃完，下一輪從頭開始
		start = next
		if start == "" {
			start = "0-0"
		}

		if !q.deliver(ctx, out, q.dropExhausted(ctx, claimed)) {
			return
		}
	}
}

// dropExhausted acks claimed messages that reached MaxDeliveries and returns the rest.
func (q *RedisStreamQueue[T]) dropExhausted(ctx context.Context, claimed []redis.XMessage) []redis.XMessage {
	if len(claimed) == 0 {
		return nil
	}
	counts, err := q.deliveryCounts(ctx, claimed[0].ID, claimed[len(claimed)-1].ID)
	if err != nil {
		q.log.Warn("XPENDING failed, retrying claimed messages", zap.Error(err))
		return claimed
	}

	keep := claimed[:0]
	for _, msg := range claimed {
		n := counts[msg.ID]
		if n < int64(q.opts.MaxDeliveries) {
			keep = append(keep, msg)
			continue
		}
		q.log.Error("giving up on message",
			zap.String("message_id", msg.ID),
			zap.Int64("deliveries", n),
			zap.Any("payload", msg.Values[payloadField]),
		)
		if err := q.client.XAck(ctx, q.spec.Key, q.spec.Group, msg.ID).Err(); err != nil {
			q.log.Error("XAck failed", zap.String("message_id", msg.ID), zap.Error(err))
		}
	}
	return keep
}

// deliveryCounts 一次查出這個 consumer 在 [first, last] 之間所有 pending 訊息的投遞次數
func (q *RedisStreamQueue[T]) deliveryCounts(ctx context.Context, first, last string) (map[string]int64, error) {
	pending, err := q.client.XPendingExt(ctx, &redis.XPendingExtArgs{
		Stream:   q.spec.Key,
		Group:    q.spec.Group,
		Consumer: q.consumer,
		Start:    first,
		End:      last,
		Count:    q.opts.BatchSize * 4,
	}).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, err
	}
	counts := make(map[string]int64, len(pending))
	for _, p := range pending {
		counts[p.ID] = p.RetryCount
	}
	return counts, nil
}

// deliver 回傳 false 表示 ctx 已結束
func (q *RedisStreamQueue[T]) deliver(ctx context.Context, out chan<- Delivery[T], msgs []redis.XMessage) bool {
	for _, msg := range msgs {
		data, err := decodeMessage[T](msg)
		if err != nil {
			// 格式錯誤的訊息重試也不會好
			q.log.Warn("dropping undecodable message", zap.String("message_id", msg.ID), zap.Error(err))
			q.ack(ctx, msg.ID)
			continue
		}
		id := msg.ID
		d := Delivery[T]{
			Data: data,
			Ack:  func() { q.ack(ctx, id) },
			Nack: func(requeue bool) {
				if !requeue {
					q.ack(ctx, id)
				}
			},
		}
		select {
		case out <- d:
		case <-ctx.Done():
			return false
		}
	}
	return true
}

// ack 在 Subscribe 的 ctx 結束後仍要能送出，否則處理完的訊息會被重新投遞
func (q *RedisStreamQueue[T]) ack(ctx context.Context, id string) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := q.client.XAck(ctx, q.spec.Key, q.spec.Group, id).Err(); err != nil {
		q.log.Error("XAck failed", zap.String("message_id", id), zap.Error(err))
	}
}
