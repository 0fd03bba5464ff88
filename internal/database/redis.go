package database

import (
	"context"

	"mixologue-backend/config"

	"github.com/go-redis/redis/v8"
)

var RedisClient *redis.Client

// ConnectRedis dials the configured server and checks it answers.
func ConnectRedis(ctx context.Context, cfg *config.Config) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisFullAddr(),
		Password: cfg.RedisPassword,
		DB:       0, // use default DB
	})

	if _, err := client.Ping(ctx).Result(); err != nil {
		client.Close()
		return nil, err
	}
	RedisClient = client
	return client, nil
}
