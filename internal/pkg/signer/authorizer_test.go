package signer

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/ds124wfegd/pfpframe/internal/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthorizerUsesCachedCredential(t *testing.T) {
	store := newMemStore()
	cached := &entity.Credential{FID: 3, PrivateKey: "0xpriv"}
	require.NoError(t, store.Save(context.Background(), cached))

	issuer := &fakeIssuer{}
	hub := &fakeHub{}
	a := NewAuthorizer(store, NewHandshake(issuer, hub, store, fastConfig()))

	cred, err := a.Credential(context.Background(), 3)
	require.NoError(t, err)
	assert.Same(t, cached, cred)
	assert.Equal(t, int32(0), issuer.calls.Load())
	assert.Equal(t, int32(0), hub.createCalls.Load())

	_, ok := a.Progress(3)
	assert.False(t, ok)
}

func TestAuthorizerRunsHandshakeOnce(t *testing.T) {
	store := newMemStore()
	issuer := &fakeIssuer{}
	hub := &fakeHub{gate: make(chan struct{})}
	a := NewAuthorizer(store, NewHandshake(issuer, hub, store, fastConfig()))

	const callers = 5
	var wg sync.WaitGroup
	creds := make([]*entity.Credential, callers)
	errs := make([]error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			creds[i], errs[i] = a.Credential(context.Background(), 11)
		}(i)
	}

	require.Eventually(t, func() bool {
		p, ok := a.Progress(11)
		return ok && p.State == entity.StateAwaitingApproval
	}, time.Second, time.Millisecond)

	p, _ := a.Progress(11)
	assert.Equal(t, "farcaster://signed-key-request?token=tok", p.DeepLinkURL)

	close(hub.gate)
	wg.Wait()

	assert.Equal(t, int32(1), issuer.calls.Load())
	for i := 0; i < callers; i++ {
		require.NoError(t, errs[i])
		assert.Equal(t, creds[0].PrivateKey, creds[i].PrivateKey)
	}

	p, _ = a.Progress(11)
	assert.Equal(t, entity.StateCompleted, p.State)

	// a second call is served from the store
	_, err := a.Credential(context.Background(), 11)
	require.NoError(t, err)
	assert.Equal(t, int32(1), issuer.calls.Load())
}

func TestAuthorizerHandshakeFailure(t *testing.T) {
	store := newMemStore()
	a := NewAuthorizer(store, NewHandshake(&fakeIssuer{err: errBoom}, &fakeHub{}, store, fastConfig()))

	_, err := a.Credential(context.Background(), 4)
	assert.ErrorIs(t, err, errBoom)

	p, ok := a.Progress(4)
	require.True(t, ok)
	assert.Equal(t, entity.StateErrored, p.State)

	_, err = store.Get(context.Background(), 4)
	assert.ErrorIs(t, err, entity.ErrCredentialNotFound)
}

func TestAuthorizerWaiterCancel(t *testing.T) {
	store := newMemStore()
	hub := &fakeHub{gate: make(chan struct{})}
	defer close(hub.gate)
	a := NewAuthorizer(store, NewHandshake(&fakeIssuer{}, hub, store, fastConfig()))

	go a.Credential(context.Background(), 8)
	require.Eventually(t, func() bool { return hub.pollCalls.Load() > 0 }, time.Second, time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err := a.Credential(ctx, 8)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestAuthorizerForget(t *testing.T) {
	store := newMemStore()
	require.NoError(t, store.Save(context.Background(), &entity.Credential{FID: 2}))
	a := NewAuthorizer(store, NewHandshake(&fakeIssuer{}, &fakeHub{}, store, fastConfig()))

	require.NoError(t, a.Forget(context.Background(), 2))
	_, err := store.Get(context.Background(), 2)
	assert.ErrorIs(t, err, entity.ErrCredentialNotFound)
}

func TestAuthorizerForgetCancelsInflightHandshake(t *testing.T) {
	store := newMemStore()
	hub := &fakeHub{pendingPolls: -1}
	a := NewAuthorizer(store, NewHandshake(&fakeIssuer{}, hub, store, fastConfig()))

	done := make(chan error, 1)
	go func() {
		_, err := a.Credential(context.Background(), 9)
		done <- err
	}()

	require.Eventually(t, func() bool {
		p, ok := a.Progress(9)
		return ok && p.State == entity.StateAwaitingApproval
	}, time.Second, time.Millisecond)

	require.NoError(t, a.Forget(context.Background(), 9))

	select {
	case err := <-done:
		assert.ErrorIs(t, err, entity.ErrSignedOut)
	case <-time.After(2 * time.Second):
		t.Fatal("handshake kept running after sign out")
	}

	_, err := store.Get(context.Background(), 9)
	assert.ErrorIs(t, err, entity.ErrCredentialNotFound)
	_, ok := a.Progress(9)
	assert.False(t, ok)
}

func TestAuthorizerSignOutBeforeSaveLeavesNoCredential(t *testing.T) {
	store := newMemStore()
	a := NewAuthorizer(store, NewHandshake(&fakeIssuer{}, &fakeHub{}, store, fastConfig()))

	var once sync.Once
	store.beforeSave = func() {
		once.Do(func() { assert.NoError(t, a.Forget(context.Background(), 12)) })
	}

	_, err := a.Credential(context.Background(), 12)
	assert.ErrorIs(t, err, entity.ErrSignedOut)

	_, err = store.Get(context.Background(), 12)
	assert.ErrorIs(t, err, entity.ErrCredentialNotFound)
}

func TestAuthorizerProgressStartedAt(t *testing.T) {
	store := newMemStore()
	a := NewAuthorizer(store, NewHandshake(&fakeIssuer{}, &fakeHub{}, store, fastConfig()))

	before := time.Now()
	_, err := a.Credential(context.Background(), 13)
	require.NoError(t, err)

	p, ok := a.Progress(13)
	require.True(t, ok)
	assert.Equal(t, entity.StateCompleted, p.State)
	assert.False(t, p.StartedAt.Before(before))
	assert.False(t, p.UpdatedAt.Before(p.StartedAt))
	assert.True(t, p.Live(before))
	assert.False(t, p.Live(time.Now().Add(time.Hour)))
}

func TestProgressLive(t *testing.T) {
	t0 := time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		name string
		p    Progress
		want bool
	}{
		{name: "running since before", p: Progress{State: entity.StateAwaitingApproval, UpdatedAt: t0.Add(-time.Minute)}, want: true},
		{name: "completed before", p: Progress{State: entity.StateCompleted, UpdatedAt: t0.Add(-time.Minute)}, want: false},
		{name: "errored before", p: Progress{State: entity.StateErrored, UpdatedAt: t0.Add(-time.Minute)}, want: false},
		{name: "completed after", p: Progress{State: entity.StateCompleted, UpdatedAt: t0.Add(time.Second)}, want: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.p.Live(t0))
		})
	}
}
