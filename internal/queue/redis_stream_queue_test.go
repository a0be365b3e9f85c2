package queue

import (
	"context"
	"errors"
	"testing"
	"time"

	"tixify/internal/testutil"

	"github.com/go-redis/redismock/v9"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testStream = "test:queue:stream"
const testGroup = "test-workers"

var testSpec = StreamSpec{Key: testStream, Group: testGroup}

func newMockQueue(t *testing.T) (*RedisStreamQueue[testMessage], redismock.ClientMock) {
	t.Helper()
	client, mock := redismock.NewClientMock()
	mock.ExpectXGroupCreateMkStream(testStream, testGroup, "0").SetVal("OK")
	q, err := NewRedisStreamQueue[testMessage](client, testSpec, StreamOptions{Consumer: "unit"})
	require.NoError(t, err)
	return q, mock
}

func TestNewRedisStreamQueue_existingGroup(t *testing.T) {
	client, mock := redismock.NewClientMock()
	mock.ExpectXGroupCreateMkStream(testStream, testGroup, "0").
		SetErr(errors.New("BUSYGROUP Consumer Group name already exists"))

	q, err := NewRedisStreamQueue[testMessage](client, testSpec, StreamOptions{})
	require.NoError(t, err)
	assert.Equal(t, 5*time.Second, q.opts.ClaimIdle)
	assert.Equal(t, 5, q.opts.MaxDeliveries)
	assert.NotEmpty(t, q.opts.Consumer)
}

func TestNewRedisStreamQueue_groupError(t *testing.T) {
	client, mock := redismock.NewClientMock()
	mock.ExpectXGroupCreateMkStream(testStream, testGroup, "0").SetErr(errors.New("NOAUTH"))

	_, err := NewRedisStreamQueue[testMessage](client, testSpec, StreamOptions{})
	assert.Error(t, err)
}

func TestRedisStreamQueue_Publish_trimmed(t *testing.T) {
	client, mock := redismock.NewClientMock()
	mock.ExpectXGroupCreateMkStream(testStream, testGroup, "0").SetVal("OK")
	q, err := NewRedisStreamQueue[testMessage](client, testSpec, StreamOptions{Consumer: "unit", MaxLen: 100})
	require.NoError(t, err)

	mock.ExpectXAdd(&redis.XAddArgs{
		Stream: testStream,
		MaxLen: 100,
		Approx: true,
		ID:     "*",
		Values: map[string]interface{}{payloadField: `{"id":"x","attempt":0}`},
	}).SetVal("1-0")

	assert.NoError(t, q.Publish(context.Background(), &testMessage{ID: "x"}))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisStreamQueue_dropExhausted(t *testing.T) {
	q, mock := newMockQueue(t)
	q.opts.MaxDeliveries = 3

	claimed := []redis.XMessage{
		{ID: "1-0", Values: map[string]interface{}{payloadField: `{"id":"fresh"}`}},
		{ID: "2-0", Values: map[string]interface{}{payloadField: `{"id":"tired"}`}},
	}
	mock.ExpectXPendingExt(&redis.XPendingExtArgs{
		Stream:   testStream,
		Group:    testGroup,
		Consumer: "worker:unit",
		Start:    "1-0",
		End:      "2-0",
		Count:    40,
	}).SetVal([]redis.XPendingExt{
		{ID: "1-0", Consumer: "worker:unit", RetryCount: 2},
		{ID: "2-0", Consumer: "worker:unit", RetryCount: 3},
	})
	mock.ExpectXAck(testStream, testGroup, "2-0").SetVal(1)

	keep := q.dropExhausted(context.Background(), claimed)
	require.Len(t, keep, 1)
	assert.Equal(t, "1-0", keep[0].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisStreamQueue_Publish(t *testing.T) {
	q, mock := newMockQueue(t)

	mock.ExpectXAdd(&redis.XAddArgs{
		Stream: testStream,
		ID:     "*",
		Values: map[string]interface{}{payloadField: `{"id":"x","attempt":1}`},
	}).SetVal("1-0")

	err := q.Publish(context.Background(), &testMessage{ID: "x", Attempt: 1})
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisStreamQueue_Recent(t *testing.T) {
	q, mock := newMockQueue(t)

	mock.ExpectXRevRangeN(testStream, "+", "-", 10).SetVal([]redis.XMessage{
		{ID: "2-0", Values: map[string]interface{}{payloadField: `{"id":"b"}`}},
		{ID: "1-5", Values: map[string]interface{}{"other": "junk"}},
		{ID: "1-0", Values: map[string]interface{}{payloadField: `{"id":"a"}`}},
	})

	recent, err := q.Recent(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, "b", recent[0].ID)
	assert.Equal(t, "a", recent[1].ID)
}

// 以下需要真的 Redis

func cleanupStream(t *testing.T, client *redis.Client) {
	t.Helper()
	_ = client.Del(context.Background(), testStream).Err()
}

func TestRedisStreamQueue_deliversAndAcks(t *testing.T) {
	client := testutil.Redis(t)
	cleanupStream(t, client)
	ctx := context.Background()

	q, err := NewRedisStreamQueue[testMessage](client, testSpec, StreamOptions{Consumer: "deliver-test"})
	require.NoError(t, err)
	require.NoError(t, q.Publish(ctx, &testMessage{ID: "deliver"}))

	subCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	ch, err := q.Subscribe(subCtx)
	require.NoError(t, err)

	d := receive(t, ch)
	assert.Equal(t, "deliver", d.Data.ID)
	d.Ack()

	pending, err := client.XPending(ctx, testStream, testGroup).Result()
	require.NoError(t, err)
	assert.Equal(t, int64(0), pending.Count)
}

func TestRedisStreamQueue_NackRequeue_redeliversAfterIdle(t *testing.T) {
	client := testutil.Redis(t)
	cleanupStream(t, client)
	ctx := context.Background()

	q, err := NewRedisStreamQueue[testMessage](client, testSpec, StreamOptions{
		Consumer:  "requeue-test",
		ClaimIdle: 200 * time.Millisecond,
		Block:     500 * time.Millisecond,
	})
	require.NoError(t, err)
	require.NoError(t, q.Publish(ctx, &testMessage{ID: "requeue"}))

	subCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	ch, err := q.Subscribe(subCtx)
	require.NoError(t, err)

	receive(t, ch).Nack(true)

	again := receive(t, ch)
	assert.Equal(t, "requeue", again.Data.ID, "重試應為同一筆")
	again.Ack()
}

func TestRedisStreamQueue_poisonMessageDiscarded(t *testing.T) {
	client := testutil.Redis(t)
	cleanupStream(t, client)
	ctx := context.Background()

	opts := StreamOptions{
		Consumer:      "poison-test",
		ClaimIdle:     200 * time.Millisecond,
		MaxDeliveries: 3,
		Block:         200 * time.Millisecond,
	}
	q, err := NewRedisStreamQueue[testMessage](client, testSpec, opts)
	require.NoError(t, err)
	require.NoError(t, q.Publish(ctx, &testMessage{ID: "poison"}))

	subCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	ch, err := q.Subscribe(subCtx)
	require.NoError(t, err)

	received := 0
loop:
	for {
		select {
		case d, ok := <-ch:
			require.True(t, ok)
			received++
			d.Nack(true)
		case <-time.After(time.Second):
			break loop
		case <-subCtx.Done():
			t.Fatalf("test context timeout，只收到 %d 次", received)
		}
	}

	assert.GreaterOrEqual(t, received, 1)
	assert.LessOrEqual(t, received, opts.MaxDeliveries)
}
