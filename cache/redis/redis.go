package redis

import (
	"context"
	"crypto/tls"
	"errors"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/zlnvch/canvashub/cache"
)

type RedisProjectCache struct {
	client redis.UniversalClient
}

func NewRedisProjectCache(ctx context.Context, devMode bool, redisEndpoint string) (*RedisProjectCache, error) {
	var client redis.UniversalClient
	if devMode {
		client = redis.NewClient(&redis.Options{
			Addr: redisEndpoint,
		})
	} else {
		client = redis.NewClient(&redis.Options{
			Addr: redisEndpoint,
			// AWS elasticache endpoints require TLS
			TLSConfig: &tls.Config{},
		})
	}

	err := client.Ping(ctx).Err()
	if err != nil {
		return nil, err
	}

	return &RedisProjectCache{client: client}, nil
}

func (redisCache *RedisProjectCache) Publish(ctx context.Context, channel string, message []byte) error {
	if err := redisCache.client.Publish(ctx, channel, message).Err(); err != nil {
		return err
	}
	return nil
}

func (redisCache *RedisProjectCache) Subscribe(ctx context.Context, channel string, handler func(message []byte)) error {
	pubsub := redisCache.client.Subscribe(ctx, channel)
	// Ensure subscription is established
	if _, err := pubsub.Receive(ctx); err != nil {
		pubsub.Close()
		log.Printf("Pubsub channel closed: %s", channel)
		return err
	}

	ch := pubsub.Channel()

	go func() {
		defer pubsub.Close()

		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				handler([]byte(msg.Payload))
			}
		}
	}()

	return nil
}

const cacheTTL = 10 * time.Minute

func buildImageKey(projectId string) string {
	return "project:{" + projectId + "}:image"
}

func (redisCache *RedisProjectCache) SetProjectImage(ctx context.Context, projectId string, image string) error {
	return redisCache.client.Set(ctx, buildImageKey(projectId), image, cacheTTL).Err()
}

func (redisCache *RedisProjectCache) GetProjectImage(ctx context.Context, projectId string) (string, error) {
	val, err := redisCache.client.Get(ctx, buildImageKey(projectId)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", cache.ErrCacheMiss
		}
		return "", err
	}
	// Refresh TTL on hit
	redisCache.client.Expire(ctx, buildImageKey(projectId), cacheTTL)
	return val, nil
}

func (redisCache *RedisProjectCache) InvalidateProjects(ctx context.Context, projectIds []string) error {
	if len(projectIds) == 0 {
		return nil
	}

	// In Redis Cluster, keys with different hash tags hash to different
	// slots, so each project is deleted separately.
	for _, projectId := range projectIds {
		if err := redisCache.client.Del(ctx, buildImageKey(projectId)).Err(); err != nil {
			return err
		}
	}

	return nil
}
