package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	redisKeyPrefix   = "termreport:preview:"
	redisIndexKey    = "termreport:previews"
	redisCallTimeout = 5 * time.Second
)

// RedisDatabase keeps previews in redis hashes so several server replicas
// can serve the same preview references.
type RedisDatabase struct {
	client *redis.Client
}

// NewRedisDatabase connects using a redis URL such as redis://localhost:6379/0.
func NewRedisDatabase(connectionString string) (DatabaseService, error) {
	opts, err := redis.ParseURL(connectionString)
	if err != nil {
		return nil, fmt.Errorf("invalid redis connection string: %w", err)
	}
	return &RedisDatabase{client: redis.NewClient(opts)}, nil
}

// CreateDatabase only verifies connectivity; redis needs no schema.
func (r *RedisDatabase) CreateDatabase() error {
	ctx, cancel := r.context()
	defer cancel()
	return r.client.Ping(ctx).Err()
}

func (r *RedisDatabase) DoesDatabaseExist() bool {
	return r.CreateDatabase() == nil
}

func (r *RedisDatabase) Close() error {
	return r.client.Close()
}

func (r *RedisDatabase) CreatePreview(preview *Preview) (string, error) {
	if preview == nil || len(preview.Data) == 0 {
		return "", fmt.Errorf("preview data must not be empty")
	}
	ctx, cancel := r.context()
	defer cancel()

	id := generateID()
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, redisKeyPrefix+id, "content_type", preview.ContentType, "data", preview.Data)
		pipe.SAdd(ctx, redisIndexKey, id)
		return nil
	})
	if err != nil {
		return "", err
	}
	return id, nil
}

func (r *RedisDatabase) GetPreview(id string) (*Preview, error) {
	ctx, cancel := r.context()
	defer cancel()

	values, err := r.client.HGetAll(ctx, redisKeyPrefix+id).Result()
	if err != nil {
		return nil, err
	}
	data, ok := values["data"]
	if !ok {
		return nil, ErrPreviewNotFound
	}
	return &Preview{
		ID:          id,
		ContentType: values["content_type"],
		Data:        []byte(data),
	}, nil
}

func (r *RedisDatabase) DeletePreview(id string) error {
	ctx, cancel := r.context()
	defer cancel()

	var del *redis.IntCmd
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		del = pipe.Del(ctx, redisKeyPrefix+id)
		pipe.SRem(ctx, redisIndexKey, id)
		return nil
	})
	if err != nil {
		return err
	}
	if del.Val() == 0 {
		return ErrPreviewNotFound
	}
	return nil
}

func (r *RedisDatabase) CountPreviews() (int, error) {
	ctx, cancel := r.context()
	defer cancel()

	n, err := r.client.SCard(ctx, redisIndexKey).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return 0, err
	}
	return int(n), nil
}

func (r *RedisDatabase) context() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), redisCallTimeout)
}
