package database

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/ds124wfegd/pfpframe/internal/entity"
	"github.com/redis/go-redis/v9"
)

type redisCredentialRepository struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisCredentialRepository stores credentials as JSON under
// "<prefix>:<fid>". A zero ttl keeps them until deleted.
func NewRedisCredentialRepository(ctx context.Context, client *redis.Client, prefix string, ttl time.Duration) (CredentialRepository, error) {
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	if prefix == "" {
		prefix = "credential"
	}
	return &redisCredentialRepository{client: client, prefix: prefix, ttl: ttl}, nil
}

func (r *redisCredentialRepository) key(fid uint64) string {
	return credentialKey(r.prefix, fid)
}

func credentialKey(prefix string, fid uint64) string {
	return fmt.Sprintf("%s:%d", prefix, fid)
}

func (r *redisCredentialRepository) Get(ctx context.Context, fid uint64) (*entity.Credential, error) {
	data, err := r.client.Get(ctx, r.key(fid)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, entity.ErrCredentialNotFound
		}
		return nil, err
	}

	var cred entity.Credential
	if err := json.Unmarshal(data, &cred); err != nil {
		return nil, err
	}
	return &cred, nil
}

func (r *redisCredentialRepository) Save(ctx context.Context, cred *entity.Credential) error {
	data, err := json.Marshal(cred)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, r.key(cred.FID), data, r.ttl).Err()
}

func (r *redisCredentialRepository) Delete(ctx context.Context, fid uint64) error {
	n, err := r.client.Del(ctx, r.key(fid)).Result()
	if err != nil {
		return err
	}
	if n == 0 {
		return entity.ErrCredentialNotFound
	}
	return nil
}
