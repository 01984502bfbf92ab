package events

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/trebuchet-org/dvote/internal/domain"
)

// DefaultStream is the stream key used when none is configured
const DefaultStream = "dvote:events"

// StreamClient is the part of the redis client the sink needs
type StreamClient interface {
	XAdd(ctx context.Context, a *redis.XAddArgs) *redis.StringCmd
}

// RedisSink appends events to a redis stream
type RedisSink struct {
	client StreamClient
	stream string
}

// NewRedisSink creates a sink writing to stream
func NewRedisSink(client StreamClient, stream string) *RedisSink {
	if stream == "" {
		stream = DefaultStream
	}
	return &RedisSink{client: client, stream: stream}
}

// NewRedisClient connects to the server at url and checks it answers.
func NewRedisClient(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to reach redis: %w", err)
	}
	return client, nil
}

func (s *RedisSink) Publish(ctx context.Context, events ...domain.Event) error {
	now := time.Now()
	for _, e := range events {
		rec, err := NewRecord(e, now)
		if err != nil {
			return err
		}
		err = s.client.XAdd(ctx, &redis.XAddArgs{
			Stream: s.stream,
			Values: map[string]any{
				"id":      rec.ID,
				"name":    rec.Name,
				"summary": rec.Summary,
				"data":    string(rec.Data),
			},
		}).Err()
		if err != nil {
			return fmt.Errorf("failed to add %s to stream %s: %w", rec.Name, s.stream, err)
		}
	}
	return nil
}
