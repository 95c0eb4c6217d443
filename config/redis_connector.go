package config

import (
	"fmt"

	"gopkg.in/redis.v5"
)

func SetupRedis(addr string) (*redis.Client, error) {
	redisClient := redis.NewClient(&redis.Options{
		Addr: addr,
	})

	if err := redisClient.Ping().Err(); err != nil {
		redisClient.Close()
		return nil, fmt.Errorf("redis %s: %w", addr, err)
	}

	return redisClient, nil
}
