package cache

import (
	"context"
	"fmt"

	apperrors "tixify/pkg/app_errors"

	"github.com/redis/go-redis/v9"
)

// TierInventory 在 Redis 上的票種庫存閘門。
// Postgres 才是庫存的真實來源，這裡只用來在流量高峰時提早擋掉已售完的請求。
type TierInventory interface {
	// 預熱：把票種剩餘數量載入 Redis
	WarmUp(ctx context.Context, tierID int, available int, quantity int) error
	// 預留：原子地扣減，回傳扣減後剩餘數量
	Reserve(ctx context.Context, tierID int, quantity int) (int, error)
	// 釋放：歸還預留數量，不會超過總量
	Release(ctx context.Context, tierID int, quantity int) error
	// 移除快取，下次預熱前 Reserve 會回傳 ErrTierNotWarmed
	Invalidate(ctx context.Context, tierIDs ...int) error
}

type RedisTierInventory struct {
	client *redis.Client
}

func NewRedisTierInventory(client *redis.Client) TierInventory {
	return &RedisTierInventory{
		client: client,
	}
}

func tierKey(tierID int) string {
	return fmt.Sprintf("tier:%d:inventory", tierID)
}

const reserveScript = `
	local key = KEYS[1]
	local request_qty = tonumber(ARGV[1])

	local available = redis.call('HGET', key, 'available')
	if not available then
		return {-2, 0} -- 未預熱
	end

	available = tonumber(available)
	if available < request_qty then
		return {-1, available} -- 庫存不足
	end

	local remaining = redis.call('HINCRBY', key, 'available', -request_qty)
	return {1, remaining}
`

const releaseScript = `
	local key = KEYS[1]
	local release_qty = tonumber(ARGV[1])

	local info = redis.call('HMGET', key, 'available', 'quantity')
	if not info[1] or not info[2] then
		return -2
	end

	local next_available = tonumber(info[1]) + release_qty
	local quantity = tonumber(info[2])
	if next_available > quantity then
		next_available = quantity
	end

	redis.call('HSET', key, 'available', next_available)
	return next_available
`

func (m *RedisTierInventory) WarmUp(ctx context.Context, tierID int, available int, quantity int) error {
	return m.client.HSet(ctx, tierKey(tierID), "available", available, "quantity", quantity).Err()
}

func (m *RedisTierInventory) Reserve(ctx context.Context, tierID int, quantity int) (int, error) {
	if quantity <= 0 {
		return 0, apperrors.ErrInvalidInput
	}

	result, err := m.client.Eval(ctx, reserveScript, []string{tierKey(tierID)}, quantity).Result()
	if err != nil {
		return 0, err
	}

	resSlice, ok := result.([]interface{})
	if !ok || len(resSlice) != 2 {
		return 0, fmt.Errorf("unexpected reserve result: %v", result)
	}
	code, _ := resSlice[0].(int64)
	value, _ := resSlice[1].(int64)

	switch code {
	case 1:
		return int(value), nil
	case -1:
		return 0, &apperrors.InsufficientInventoryError{
			TierID:    tierID,
			Requested: quantity,
			Available: int(value),
		}
	case -2:
		return 0, apperrors.ErrTierNotWarmed
	default:
		return 0, fmt.Errorf("unexpected reserve code: %d", code)
	}
}

func (m *RedisTierInventory) Release(ctx context.Context, tierID int, quantity int) error {
	if quantity <= 0 {
		return nil
	}

	code, err := m.client.Eval(ctx, releaseScript, []string{tierKey(tierID)}, quantity).Int64()
	if err != nil {
		return err
	}
	if code == -2 {
		return apperrors.ErrTierNotWarmed
	}
	return nil
}

func (m *RedisTierInventory) Invalidate(ctx context.Context, tierIDs ...int) error {
	if len(tierIDs) == 0 {
		return nil
	}
	keys := make([]string, 0, len(tierIDs))
	for _, id := range tierIDs {
		keys = append(keys, tierKey(id))
	}
	return m.client.Del(ctx, keys...).Err()
}
