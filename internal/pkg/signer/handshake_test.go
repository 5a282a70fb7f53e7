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

type recorder struct {
	mu       sync.Mutex
	states   []entity.HandshakeState
	deepLink string
}

func (r *recorder) observe(state entity.HandshakeState, link string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.states = append(r.states, state)
	if link != "" {
		r.deepLink = link
	}
}

func fastConfig() HandshakeConfig {
	return HandshakeConfig{RequestFID: 99, PollInterval: time.Millisecond, MaxWait: time.Second}
}

func TestHandshakeCompletes(t *testing.T) {
	store := newMemStore()
	issuer := &fakeIssuer{}
	hub := &fakeHub{pendingPolls: 3}
	h := NewHandshake(issuer, hub, store, fastConfig())
	now := time.Unix(1700000000, 0)
	h.now = func() time.Time { return now }

	rec := &recorder{}
	cred, err := h.Run(context.Background(), 7, rec.observe)
	require.NoError(t, err)

	assert.Equal(t, uint64(7), cred.FID)
	pub, err := PublicKeyFor(cred.PrivateKey)
	require.NoError(t, err)
	assert.Equal(t, cred.PublicKey, pub)

	stored, err := store.Get(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, cred, stored)

	assert.Equal(t, []entity.HandshakeState{
		entity.StateKeyGenerated,
		entity.StateSignatureObtained,
		entity.StateRequestSubmitted,
		entity.StateAwaitingApproval,
		entity.StateCompleted,
	}, rec.states)
	assert.Equal(t, "farcaster://signed-key-request?token=tok", rec.deepLink)

	assert.Equal(t, int32(4), hub.pollCalls.Load())
	assert.Equal(t, []string{cred.PublicKey}, issuer.keys)
	assert.Equal(t, SignedKeyRequest{
		Key:        cred.PublicKey,
		RequestFID: 99,
		Signature:  "0xsig",
		Deadline:   now.Add(24 * time.Hour).Unix(),
	}, hub.lastRequest)
}

func TestHandshakeFailures(t *testing.T) {
	tests := []struct {
		name      string
		issuerErr error
		createErr error
		pollErr   error
		saveErr   error
		lastState entity.HandshakeState
		polls     int32
	}{
		{name: "signature", issuerErr: errBoom, lastState: entity.StateKeyGenerated},
		{name: "signed key request", createErr: errBoom, lastState: entity.StateSignatureObtained},
		{name: "poll", pollErr: errBoom, lastState: entity.StateAwaitingApproval, polls: 1},
		{name: "save", saveErr: errBoom, lastState: entity.StateAwaitingApproval, polls: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newMemStore()
			store.saveErr = tt.saveErr
			issuer := &fakeIssuer{err: tt.issuerErr}
			hub := &fakeHub{createErr: tt.createErr, pollErr: tt.pollErr}
			h := NewHandshake(issuer, hub, store, fastConfig())

			rec := &recorder{}
			cred, err := h.Run(context.Background(), 5, rec.observe)
			assert.Nil(t, cred)
			assert.ErrorIs(t, err, errBoom)

			_, err = store.Get(context.Background(), 5)
			assert.ErrorIs(t, err, entity.ErrCredentialNotFound)
			assert.Equal(t, 1, store.deletes)

			require.GreaterOrEqual(t, len(rec.states), 2)
			assert.Equal(t, tt.lastState, rec.states[len(rec.states)-2])
			assert.Equal(t, entity.StateErrored, rec.states[len(rec.states)-1])
			assert.Equal(t, tt.polls, hub.pollCalls.Load())
		})
	}
}

func TestHandshakeSignatureFailureSkipsRemoteRequest(t *testing.T) {
	hub := &fakeHub{}
	h := NewHandshake(&fakeIssuer{err: errBoom}, hub, newMemStore(), fastConfig())

	_, err := h.Run(context.Background(), 1, nil)
	require.Error(t, err)
	assert.Equal(t, int32(0), hub.createCalls.Load())
	assert.Equal(t, int32(0), hub.pollCalls.Load())
}

func TestHandshakeApprovalTimeout(t *testing.T) {
	hub := &fakeHub{pendingPolls: -1}
	cfg := fastConfig()
	cfg.MaxWait = 30 * time.Millisecond
	h := NewHandshake(&fakeIssuer{}, hub, newMemStore(), cfg)

	_, err := h.Run(context.Background(), 1, nil)
	assert.ErrorIs(t, err, entity.ErrApprovalTimeout)
	assert.Greater(t, hub.pollCalls.Load(), int32(1))
}

func TestHandshakeCancelled(t *testing.T) {
	hub := &fakeHub{pendingPolls: -1}
	h := NewHandshake(&fakeIssuer{}, hub, newMemStore(), fastConfig())

	ctx, cancel := context.WithCancel(context.Background())
	rec := &recorder{}
	done := make(chan error, 1)
	go func() {
		_, err := h.Run(ctx, 1, rec.observe)
		done <- err
	}()

	require.Eventually(t, func() bool { return hub.pollCalls.Load() > 0 }, time.Second, time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("handshake did not stop after cancel")
	}
}

func TestHandshakeCancelledMidPoll(t *testing.T) {
	hub := &fakeHub{gate: make(chan struct{})}
	h := NewHandshake(&fakeIssuer{}, hub, newMemStore(), fastConfig())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := h.Run(ctx, 1, nil)
		done <- err
	}()

	require.Eventually(t, func() bool { return hub.pollCalls.Load() > 0 }, time.Second, time.Millisecond)
	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
}

func TestHandshakeDefaults(t *testing.T) {
	cfg := HandshakeConfig{}.withDefaults()
	assert.Equal(t, 2*time.Second, cfg.PollInterval)
	assert.Equal(t, 10*time.Minute, cfg.MaxWait)
	assert.Equal(t, 24*time.Hour, cfg.DeadlineTTL)
}

func TestHandshakeTransitionsAreLinear(t *testing.T) {
	state := entity.StateNoCredential
	var path []entity.HandshakeState
	for !state.Terminal() {
		next, ok := transitions[state]
		require.True(t, ok, state)
		path = append(path, next)
		state = next
	}
	assert.Len(t, path, 5)
	assert.Equal(t, entity.StateCompleted, state)

	r := &run{state: entity.StateNoCredential}
	assert.Panics(t, func() { r.advance(entity.StateCompleted, "") })
}
