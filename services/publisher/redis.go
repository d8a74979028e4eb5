package publisher

import (
	"context"
	"encoding/base64"

	"github.com/redis/go-redis/v9"

	"sjsage522/propertyscraper/internal/record"
	"sjsage522/propertyscraper/logger"
	apperrors "sjsage522/propertyscraper/pkg/errors"
)

// MessageField is the stream entry field holding the base64 record
const MessageField = "b64_record"

// RedisPublisher implements Publisher using one Redis stream per category
type RedisPublisher struct {
	client          *redis.Client
	streamPrefix    string
	streamMaxLength int
	log             *logger.Logger
}

// NewRedisPublisher creates a new Redis publisher. Records of a category go
// to the stream <streamPrefix>:<category>.
func NewRedisPublisher(addr string, db int, streamPrefix string, streamMaxLength int) *RedisPublisher {
	client := redis.NewClient(&redis.Options{
		Addr: addr,
		DB:   db,
	})

	return &RedisPublisher{
		client:          client,
		streamPrefix:    streamPrefix,
		streamMaxLength: streamMaxLength,
		log:             logger.ForPublisher(),
	}
}

// Ping checks the connection
func (p *RedisPublisher) Ping(ctx context.Context) error {
	if err := p.client.Ping(ctx).Err(); err != nil {
		return apperrors.NewPublisher("redis", "ping failed", err)
	}
	return nil
}

// StreamName returns the stream used for category
func (p *RedisPublisher) StreamName(category record.Category) string {
	return p.streamPrefix + ":" + string(category)
}

// Publish publishes a message to the category's Redis stream
// The message is base64 encoded before publishing
func (p *RedisPublisher) Publish(ctx context.Context, category record.Category, message []byte) error {
	encodedMessage := base64.StdEncoding.EncodeToString(message)

	err := p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: p.StreamName(category),
		Values: map[string]interface{}{
			MessageField: encodedMessage,
		},
	}).Err()
	if err != nil {
		p.log.Warn().Err(err).Str("stream", p.StreamName(category)).Int("bytes", len(message)).Msg("xadd failed")
		return apperrors.NewPublisher(string(category), "xadd failed", err)
	}
	return nil
}

// TrimStreams trims every category stream to the configured maximum length
func (p *RedisPublisher) TrimStreams(ctx context.Context) error {
	if p.streamMaxLength <= 0 {
		return nil
	}
	for _, c := range record.Categories {
		err := p.client.XTrimMaxLen(ctx, p.StreamName(c), int64(p.streamMaxLength)).Err()
		if err != nil {
			p.log.Warn().Err(err).Str("stream", p.StreamName(c)).Msg("xtrim failed")
			return apperrors.NewPublisher(string(c), "xtrim failed", err)
		}
	}
	p.log.Debug().Int("max_length", p.streamMaxLength).Msg("streams trimmed")
	return nil
}

// Close closes the Redis connection
func (p *RedisPublisher) Close() error {
	return p.client.Close()
}
