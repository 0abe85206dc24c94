package redis

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// RedisPushQueue backs the push-notification hand-off with a Redis Stream
// and a consumer group, so a worker restart never loses queued jobs.
type RedisPushQueue struct {
	rdb *redis.Client
	log *slog.Logger
}

func NewRedisPushQueue(rdb *redis.Client, log *slog.Logger) *RedisPushQueue {
	return &RedisPushQueue{rdb: rdb, log: log}
}

func (q *RedisPushQueue) streamKey(topic string) string {
	return "stream:" + topic
}

func (q *RedisPushQueue) Publish(ctx context.Context, topic string, payload []byte) error {
	return q.rdb.XAdd(ctx, &redis.XAddArgs{
		Stream: q.streamKey(topic),
		MaxLen: 10000,
		Approx: true,
		ID:     "*",
		Values: map[string]interface{}{"data": payload},
	}).Err()
}

func (q *RedisPushQueue) Subscribe(
	ctx context.Context,
	topic string,
	group string,
	handler func(ctx context.Context, messageID string, data []byte) error,
) error {
	stream := q.streamKey(topic)
	err := q.rdb.XGroupCreateMkStream(ctx, stream, group, "0").Err()
	if err != nil && err.Error() != "BUSYGROUP Consumer Group name already exists" {
		return fmt.Errorf("create consumer group: %w", err)
	}
	consumerName := uuid.NewString()
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			default:
				res, err := q.rdb.XReadGroup(ctx, &redis.XReadGroupArgs{
					Group:    group,
					Consumer: consumerName,
					Streams:  []string{stream, ">"},
					Count:    1,
					Block:    2 * time.Second,
				}).Result()
				if err != nil {
					if err != redis.Nil && ctx.Err() == nil {
						q.log.Error("push queue - stream read failed", "stream", stream, "err", err)
					}
					continue
				}
				for _, s := range res {
					for _, msg := range s.Messages {
						raw, ok := msg.Values["data"].(string)
						if !ok {
							continue
						}
						if err := handler(ctx, msg.ID, []byte(raw)); err != nil {
							q.log.ErrorContext(ctx, "push queue - handler failed", "message_id", msg.ID, "err", err)
						}
					}
				}
			}
		}
	}()
	return nil
}

func (q *RedisPushQueue) Ack(ctx context.Context, topic, group, messageID string) error {
	return q.rdb.XAck(ctx, q.streamKey(topic), group, messageID).Err()
}

func (q *RedisPushQueue) Delete(ctx context.Context, topic, messageID string) error {
	return q.rdb.XDel(ctx, q.streamKey(topic), messageID).Err()
}
