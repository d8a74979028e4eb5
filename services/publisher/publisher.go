package publisher

import (
	"context"
	"encoding/json"

	"sjsage522/propertyscraper/internal/record"
	apperrors "sjsage522/propertyscraper/pkg/errors"
)

// Publisher represents a service for publishing persisted records
type Publisher interface {
	// Publish publishes a message to the stream of a category
	Publish(ctx context.Context, category record.Category, message []byte) error

	// TrimStreams trims all streams to the configured maximum length
	TrimStreams(ctx context.Context) error

	// Close closes the publisher connection
	Close() error
}

// PublishRecords encodes each record as JSON and publishes it. It stops at
// the first failure and returns the number published so far.
func PublishRecords(ctx context.Context, p Publisher, category record.Category, records []record.Record) (int, error) {
	for i, r := range records {
		data, err := json.Marshal(r)
		if err != nil {
			return i, apperrors.NewPublisher(string(category), "failed to encode record", err)
		}
		if err := p.Publish(ctx, category, data); err != nil {
			return i, err
		}
	}
	return len(records), nil
}
