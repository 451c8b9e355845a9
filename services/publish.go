package services

import (
	"context"
	"time"

	"github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/stockpulse/stockpulseapi/shared/logger"
)

var PostgresChannel = "CH:API:QUOTES"
var RedisChannel = "CH:API:QUOTES"

// PublishQuotesToRedisChannel relays postgres NOTIFY payloads on the quotes
// channel to the matching redis channel, so database-side triggers can feed
// the same out-of-process consumers as the poller. Blocks forever; run in
// its own goroutine.
func PublishQuotesToRedisChannel(db *gorm.DB, redisClient *redis.Client, pgConnStr string) {
	quotesLogger, err := logger.New(db)
	if err != nil {
		panic(err)
	}

	listener := pq.NewListener(pgConnStr, 10*time.Second, time.Minute, nil)
	err = listener.Listen(PostgresChannel)
	if err != nil {
		quotesLogger.Error("QuotesService", "Failed to create listener", map[string]interface{}{
			"Postgres Channel": PostgresChannel,
			"error":            err,
		})
		return
	}

	quotesLogger.Info("QuotesService", "Starting to Publish", map[string]interface{}{
		"Postgres Channel": PostgresChannel,
		"Redis Channel":    RedisChannel,
	})

	ctx := context.Background()

	for {
		select {
		case n := <-listener.Notify:
			if n == nil {
				// nil notification after a reconnect
				continue
			}
			err := redisClient.Publish(ctx, RedisChannel, n.Extra).Err()
			if err != nil {
				quotesLogger.Error("QuotesService", "Failed to publish to Redis", map[string]interface{}{
					"Postgres Channel": PostgresChannel,
					"Redis Channel":    RedisChannel,
					"error":            err,
				})
			}
		case <-time.After(90 * time.Second):
			go func() {
				err := listener.Ping()
				if err != nil {
					quotesLogger.Error("QuotesService", "Error pinging PostgreSQL", map[string]interface{}{
						"Postgres Channel": PostgresChannel,
						"Redis Channel":    RedisChannel,
						"error":            err,
					})
				}
			}()
		}
	}
}
