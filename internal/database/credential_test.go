package database

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/ds124wfegd/pfpframe/internal/entity"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func exerciseCredentialRepository(t *testing.T, repo CredentialRepository) {
	ctx := context.Background()

	_, err := repo.Get(ctx, 1)
	assert.ErrorIs(t, err, entity.ErrCredentialNotFound)

	cred := &entity.Credential{
		FID:        1,
		PrivateKey: "0xpriv",
		PublicKey:  "0xpub",
		CreatedAt:  time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC),
	}
	require.NoError(t, repo.Save(ctx, cred))

	got, err := repo.Get(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, cred, got)

	require.NoError(t, repo.Delete(ctx, 1))
	_, err = repo.Get(ctx, 1)
	assert.ErrorIs(t, err, entity.ErrCredentialNotFound)
	assert.ErrorIs(t, repo.Delete(ctx, 1), entity.ErrCredentialNotFound)
}

func TestMemoryCredentialRepository(t *testing.T) {
	exerciseCredentialRepository(t, NewMemoryCredentialRepository())
}

func TestMemoryCredentialRepositoryCopies(t *testing.T) {
	repo := NewMemoryCredentialRepository()
	cred := &entity.Credential{FID: 2, PrivateKey: "a"}
	require.NoError(t, repo.Save(context.Background(), cred))
	cred.PrivateKey = "b"

	got, err := repo.Get(context.Background(), 2)
	require.NoError(t, err)
	assert.Equal(t, "a", got.PrivateKey)
}

func TestRedisCredentialRepository(t *testing.T) {
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("TEST_REDIS_ADDR not set")
	}
	client := redis.NewClient(&redis.Options{Addr: addr})
	defer client.Close()

	repo, err := NewRedisCredentialRepository(context.Background(), client, "test-credential", time.Minute)
	require.NoError(t, err)
	client.Del(context.Background(), credentialKey("test-credential", 1))

	exerciseCredentialRepository(t, repo)
}

func TestCredentialKey(t *testing.T) {
	assert.Equal(t, "pfpframe:credential:12345", credentialKey("pfpframe:credential", 12345))
}
