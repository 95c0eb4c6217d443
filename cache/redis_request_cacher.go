package cache

import "gopkg.in/redis.v5"

// RedisRequestCacher keeps each key's journal in a redis list, newest
// entry at the head.
type RedisRequestCacher struct {
	MaxNumber int
	client    *redis.Client
}

func CreateRedisCache(client *redis.Client, maxNumber int) *RedisRequestCacher {
	return &RedisRequestCacher{MaxNumber: maxNumber, client: client}
}

// Write pushes value and trims the list inside one MULTI/EXEC, so readers
// never see more than MaxNumber entries.
func (cacher *RedisRequestCacher) Write(key string, value []byte) error {
	_, err := cacher.client.TxPipelined(func(pipe *redis.Pipeline) error {
		pipe.LPush(key, value)
		pipe.LTrim(key, 0, cacher.last())
		return nil
	})

	return err
}

func (cacher *RedisRequestCacher) Read(key string) ([]string, error) {
	entries, err := cacher.client.LRange(key, 0, cacher.last()).Result()
	if err != nil {
		return nil, err
	}

	return entries, nil
}

func (cacher *RedisRequestCacher) Close() error {
	return cacher.client.Close()
}

func (cacher *RedisRequestCacher) last() int64 {
	return int64(cacher.MaxNumber - 1)
}
