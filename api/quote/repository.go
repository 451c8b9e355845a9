package quote

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
)

const (
	// SnapshotKey is the redis hash holding the latest quote per token.
	SnapshotKey = "quotes:latest"
	// RedisChannel carries each broadcast batch for out-of-process consumers.
	RedisChannel = "CH:API:QUOTES"
)

// Repository stores the latest quote snapshot in redis.
type Repository struct {
	redisClient *redis.Client
}

func NewRepository(redisClient *redis.Client) *Repository {
	return &Repository{redisClient: redisClient}
}

// SaveSnapshot writes the batch to the latest-quote hash and publishes it
// on the quotes channel.
func (r *Repository) SaveSnapshot(ctx context.Context, quotes []Quote) error {
	if len(quotes) == 0 {
		return nil
	}

	fields := make(map[string]interface{}, len(quotes))
	for _, q := range quotes {
		data, err := json.Marshal(q)
		if err != nil {
			return fmt.Errorf("failed to marshal quote %s: %v", q.Token, err)
		}
		fields[q.Token] = string(data)
	}

	if err := r.redisClient.HSet(ctx, SnapshotKey, fields).Err(); err != nil {
		return fmt.Errorf("failed to store quote snapshot: %v", err)
	}

	batch, err := json.Marshal(quotes)
	if err != nil {
		return fmt.Errorf("failed to marshal quote batch: %v", err)
	}
	if err := r.redisClient.Publish(ctx, RedisChannel, batch).Err(); err != nil {
		return fmt.Errorf("failed to publish quote batch: %v", err)
	}

	return nil
}

// GetSnapshot returns the latest stored quote for every token.
func (r *Repository) GetSnapshot(ctx context.Context) ([]Quote, error) {
	values, err := r.redisClient.HGetAll(ctx, SnapshotKey).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read quote snapshot: %v", err)
	}

	quotes := make([]Quote, 0, len(values))
	for token, raw := range values {
		var q Quote
		if err := json.Unmarshal([]byte(raw), &q); err != nil {
			return nil, fmt.Errorf("failed to unmarshal quote %s: %v", token, err)
		}
		quotes = append(quotes, q)
	}

	return quotes, nil
}

// GetQuote returns the latest stored quote for one token.
func (r *Repository) GetQuote(ctx context.Context, token string) (*Quote, error) {
	raw, err := r.redisClient.HGet(ctx, SnapshotKey, token).Result()
	if err == redis.Nil {
		return nil, fmt.Errorf("no quote for token %s", token)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read quote %s: %v", token, err)
	}

	var q Quote
	if err := json.Unmarshal([]byte(raw), &q); err != nil {
		return nil, fmt.Errorf("failed to unmarshal quote %s: %v", token, err)
	}
	return &q, nil
}
