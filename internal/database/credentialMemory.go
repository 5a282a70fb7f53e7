package database

import (
	"context"
	"sync"

	"github.com/ds124wfegd/pfpframe/internal/entity"
)

type memoryCredentialRepository struct {
	mu    sync.RWMutex
	creds map[uint64]entity.Credential
}

// NewMemoryCredentialRepository keeps credentials for the lifetime of the
// process.
func NewMemoryCredentialRepository() CredentialRepository {
	return &memoryCredentialRepository{creds: make(map[uint64]entity.Credential)}
}

func (r *memoryCredentialRepository) Get(_ context.Context, fid uint64) (*entity.Credential, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	cred, ok := r.creds[fid]
	if !ok {
		return nil, entity.ErrCredentialNotFound
	}
	return &cred, nil
}

func (r *memoryCredentialRepository) Save(_ context.Context, cred *entity.Credential) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.creds[cred.FID] = *cred
	return nil
}

func (r *memoryCredentialRepository) Delete(_ context.Context, fid uint64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.creds[fid]; !ok {
		return entity.ErrCredentialNotFound
	}
	delete(r.creds, fid)
	return nil
}
