package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/maltedev/catalog-crawler/internal/models"
)

const DefaultStream = "stream:product_records"

// RedisClient interface for Redis operations (for testing)
type RedisClient interface {
	XAdd(ctx context.Context, args *redis.XAddArgs) *redis.StringCmd
	Close() error
}

// Stream publishes every record as one entry on a Redis stream.
type Stream struct {
	client RedisClient
	stream string
	now    func() time.Time
}

func NewStream(client RedisClient, stream string) *Stream {
	if stream == "" {
		stream = DefaultStream
	}
	return &Stream{client: client, stream: stream, now: time.Now}
}

func (s *Stream) Append(ctx context.Context, rec models.AttributeRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal record: %w", err)
	}

	values := map[string]any{
		"data":        string(data),
		"type":        "product.record.extracted",
		"article_num": rec.ArticleNum,
		"timestamp":   fmt.Sprintf("%d", s.now().UnixNano()),
	}
	if id, ok := RunIDFrom(ctx); ok {
		values["run_id"] = id.String()
	}

	args := &redis.XAddArgs{
		Stream: s.stream,
		Values: values,
	}
	if _, err := s.client.XAdd(ctx, args).Result(); err != nil {
		return fmt.Errorf("failed to publish to redis: %w", err)
	}
	return nil
}

func (s *Stream) Close() error {
	return s.client.Close()
}
