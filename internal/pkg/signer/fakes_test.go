package signer

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/ds124wfegd/pfpframe/internal/entity"
)

type memStore struct {
	mu      sync.Mutex
	creds   map[uint64]*entity.Credential
	deletes int
	saveErr error
	// beforeSave runs before each Save takes the lock.
	beforeSave func()
}

func newMemStore() *memStore {
	return &memStore{creds: make(map[uint64]*entity.Credential)}
}

func (s *memStore) Get(_ context.Context, fid uint64) (*entity.Credential, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.creds[fid]
	if !ok {
		return nil, entity.ErrCredentialNotFound
	}
	return c, nil
}

func (s *memStore) Save(_ context.Context, c *entity.Credential) error {
	if s.beforeSave != nil {
		s.beforeSave()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saveErr != nil {
		return s.saveErr
	}
	s.creds[c.FID] = c
	return nil
}

func (s *memStore) Delete(_ context.Context, fid uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deletes++
	if _, ok := s.creds[fid]; !ok {
		return entity.ErrCredentialNotFound
	}
	delete(s.creds, fid)
	return nil
}

type fakeIssuer struct {
	calls atomic.Int32
	err   error
	keys  []string
	mu    sync.Mutex
}

func (f *fakeIssuer) Signature(_ context.Context, key string, _ int64) (string, error) {
	f.calls.Add(1)
	f.mu.Lock()
	f.keys = append(f.keys, key)
	f.mu.Unlock()
	if f.err != nil {
		return "", f.err
	}
	return "0xsig", nil
}

type fakeHub struct {
	createCalls atomic.Int32
	pollCalls   atomic.Int32
	createErr   error
	pollErr     error
	// pendingPolls is how many polls report "pending" before "completed".
	// A negative value never completes.
	pendingPolls int32
	gate         chan struct{}
	lastRequest  SignedKeyRequest
	mu           sync.Mutex
}

func (f *fakeHub) CreateSignedKeyRequest(_ context.Context, req SignedKeyRequest) (*SignedKeyRequestResult, error) {
	f.createCalls.Add(1)
	f.mu.Lock()
	f.lastRequest = req
	f.mu.Unlock()
	if f.createErr != nil {
		return nil, f.createErr
	}
	return &SignedKeyRequestResult{Token: "tok", DeepLinkURL: "farcaster://signed-key-request?token=tok"}, nil
}

func (f *fakeHub) SignedKeyRequestState(ctx context.Context, _ string) (string, error) {
	n := f.pollCalls.Add(1)
	if f.gate != nil {
		select {
		case <-f.gate:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	if f.pollErr != nil {
		return "", f.pollErr
	}
	if f.pendingPolls < 0 || n <= f.pendingPolls {
		return "pending", nil
	}
	return stateCompleted, nil
}

var errBoom = errors.New("boom")
