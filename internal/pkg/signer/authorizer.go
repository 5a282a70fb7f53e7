package signer

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"time"

	"github.com/ds124wfegd/pfpframe/internal/entity"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"
)

type Progress struct {
	State       entity.HandshakeState `json:"state"`
	DeepLinkURL string                `json:"deeplink_url,omitempty"`
	StartedAt   time.Time             `json:"started_at"`
	UpdatedAt   time.Time             `json:"updated_at"`
}

// Live reports whether the handshake is still running or ended at or after t.
func (p Progress) Live(t time.Time) bool {
	return !p.State.Terminal() || !p.UpdatedAt.Before(t)
}

// Authorizer hands out credentials, running a handshake only when the store
// has none. Concurrent callers for the same fid share one handshake.
type Authorizer struct {
	store     CredentialStore
	handshake *Handshake
	group     singleflight.Group

	mu       sync.RWMutex
	progress map[uint64]Progress
	// generation is bumped by Forget; a handshake that started under an
	// older generation must not leave a credential behind.
	generation map[uint64]uint64
	cancels    map[uint64]context.CancelFunc
}

func NewAuthorizer(store CredentialStore, handshake *Handshake) *Authorizer {
	return &Authorizer{
		store:      store,
		handshake:  handshake,
		progress:   make(map[uint64]Progress),
		generation: make(map[uint64]uint64),
		cancels:    make(map[uint64]context.CancelFunc),
	}
}

// Credential returns the cached credential for fid or runs a handshake. The
// shared handshake runs under the context of the caller that started it.
func (a *Authorizer) Credential(ctx context.Context, fid uint64) (*entity.Credential, error) {
	cred, err := a.store.Get(ctx, fid)
	if err == nil {
		return cred, nil
	}
	if !errors.Is(err, entity.ErrCredentialNotFound) {
		return nil, err
	}

	ch := a.group.DoChan(strconv.FormatUint(fid, 10), func() (any, error) {
		return a.authorize(ctx, fid)
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*entity.Credential), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (a *Authorizer) authorize(ctx context.Context, fid uint64) (*entity.Credential, error) {
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	now := time.Now()
	a.mu.Lock()
	gen := a.generation[fid]
	a.cancels[fid] = cancel
	a.progress[fid] = Progress{State: entity.StateNoCredential, StartedAt: now, UpdatedAt: now}
	a.mu.Unlock()

	cred, err := a.handshake.Run(runCtx, fid, a.track(fid, gen))

	a.mu.Lock()
	revoked := a.generation[fid] != gen
	if !revoked {
		delete(a.cancels, fid)
	}
	a.mu.Unlock()

	if !revoked {
		return cred, err
	}
	if err == nil {
		// Saved after Forget ran its delete.
		if derr := a.store.Delete(context.WithoutCancel(ctx), fid); derr != nil && !errors.Is(derr, entity.ErrCredentialNotFound) {
			logrus.WithError(derr).WithField("fid", fid).Warn("failed to drop credential after sign out")
		}
	}
	return nil, entity.ErrSignedOut
}

// Progress reports the latest handshake state seen for fid.
func (a *Authorizer) Progress(fid uint64) (Progress, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	p, ok := a.progress[fid]
	return p, ok
}

// Forget deletes the credential for fid and cancels a handshake in flight.
// A cancelled handshake counts as a successful sign out even when nothing
// was stored yet.
func (a *Authorizer) Forget(ctx context.Context, fid uint64) error {
	a.mu.Lock()
	a.generation[fid]++
	cancel, inflight := a.cancels[fid]
	delete(a.cancels, fid)
	delete(a.progress, fid)
	a.mu.Unlock()

	if inflight {
		cancel()
	}

	err := a.store.Delete(ctx, fid)
	if inflight && errors.Is(err, entity.ErrCredentialNotFound) {
		return nil
	}
	return err
}

func (a *Authorizer) track(fid, gen uint64) Observer {
	return func(state entity.HandshakeState, deepLink string) {
		a.mu.Lock()
		defer a.mu.Unlock()
		if a.generation[fid] != gen {
			return
		}
		p := a.progress[fid]
		p.State = state
		if deepLink != "" {
			p.DeepLinkURL = deepLink
		}
		if state == entity.StateNoCredential || state == entity.StateKeyGenerated {
			p.DeepLinkURL = ""
		}
		p.UpdatedAt = time.Now()
		a.progress[fid] = p
	}
}
