package signer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ds124wfegd/pfpframe/internal/entity"
	"github.com/sirupsen/logrus"
)

type SignatureIssuer interface {
	Signature(ctx context.Context, key string, deadline int64) (string, error)
}

type KeyRequestHub interface {
	CreateSignedKeyRequest(ctx context.Context, req SignedKeyRequest) (*SignedKeyRequestResult, error)
	SignedKeyRequestState(ctx context.Context, token string) (string, error)
}

type CredentialStore interface {
	Get(ctx context.Context, fid uint64) (*entity.Credential, error)
	Save(ctx context.Context, cred *entity.Credential) error
	Delete(ctx context.Context, fid uint64) error
}

// Observer is told about every state the handshake enters. deepLink is only
// set for StateAwaitingApproval.
type Observer func(state entity.HandshakeState, deepLink string)

type HandshakeConfig struct {
	RequestFID   uint64
	DeadlineTTL  time.Duration
	PollInterval time.Duration
	MaxWait      time.Duration
}

func (c HandshakeConfig) withDefaults() HandshakeConfig {
	if c.DeadlineTTL <= 0 {
		c.DeadlineTTL = 24 * time.Hour
	}
	if c.PollInterval <= 0 {
		c.PollInterval = 2 * time.Second
	}
	if c.MaxWait <= 0 {
		c.MaxWait = 10 * time.Minute
	}
	return c
}

var transitions = map[entity.HandshakeState]entity.HandshakeState{
	entity.StateNoCredential:      entity.StateKeyGenerated,
	entity.StateKeyGenerated:      entity.StateSignatureObtained,
	entity.StateSignatureObtained: entity.StateRequestSubmitted,
	entity.StateRequestSubmitted:  entity.StateAwaitingApproval,
	entity.StateAwaitingApproval:  entity.StateCompleted,
}

// Handshake obtains a credential by registering a fresh key with the hub and
// waiting for the user to approve it on another device. It keeps no state
// between runs and is safe for concurrent use.
type Handshake struct {
	issuer SignatureIssuer
	hub    KeyRequestHub
	store  CredentialStore
	cfg    HandshakeConfig
	now    func() time.Time
	keygen func() (KeyPair, error)
}

func NewHandshake(issuer SignatureIssuer, hub KeyRequestHub, store CredentialStore, cfg HandshakeConfig) *Handshake {
	return &Handshake{
		issuer: issuer,
		hub:    hub,
		store:  store,
		cfg:    cfg.withDefaults(),
		now:    time.Now,
		keygen: GenerateKey,
	}
}

type run struct {
	fid      uint64
	state    entity.HandshakeState
	observer Observer
}

func (r *run) advance(next entity.HandshakeState, deepLink string) {
	if transitions[r.state] != next {
		panic(fmt.Sprintf("signer: invalid handshake transition %s -> %s", r.state, next))
	}
	r.enter(next, deepLink)
}

func (r *run) enter(state entity.HandshakeState, deepLink string) {
	r.state = state
	logrus.WithFields(logrus.Fields{"fid": r.fid, "state": state}).Debug("handshake state")
	if r.observer != nil {
		r.observer(state, deepLink)
	}
}

// Run walks the handshake to completion and saves the resulting credential.
// Any failure clears the stored credential for fid and returns the error.
func (h *Handshake) Run(ctx context.Context, fid uint64, observer Observer) (*entity.Credential, error) {
	r := &run{fid: fid, state: entity.StateNoCredential, observer: observer}

	cred, err := h.run(ctx, r)
	if err != nil {
		if derr := h.store.Delete(context.WithoutCancel(ctx), fid); derr != nil && !errors.Is(derr, entity.ErrCredentialNotFound) {
			logrus.WithError(derr).WithField("fid", fid).Warn("failed to clear credential after handshake error")
		}
		from := r.state
		r.enter(entity.StateErrored, "")
		logrus.WithError(err).WithFields(logrus.Fields{"fid": fid, "from": from}).Error("handshake failed")
		return nil, err
	}
	return cred, nil
}

func (h *Handshake) run(ctx context.Context, r *run) (*entity.Credential, error) {
	kp, err := h.keygen()
	if err != nil {
		return nil, err
	}
	r.advance(entity.StateKeyGenerated, "")

	deadline := h.now().Add(h.cfg.DeadlineTTL).Unix()
	sig, err := h.issuer.Signature(ctx, kp.PublicKey, deadline)
	if err != nil {
		return nil, fmt.Errorf("request signature: %w", err)
	}
	r.advance(entity.StateSignatureObtained, "")

	req, err := h.hub.CreateSignedKeyRequest(ctx, SignedKeyRequest{
		Key:        kp.PublicKey,
		RequestFID: h.cfg.RequestFID,
		Signature:  sig,
		Deadline:   deadline,
	})
	if err != nil {
		return nil, fmt.Errorf("create signed key request: %w", err)
	}
	r.advance(entity.StateRequestSubmitted, "")
	r.advance(entity.StateAwaitingApproval, req.DeepLinkURL)

	if err := h.waitForApproval(ctx, req.Token); err != nil {
		return nil, err
	}

	cred := &entity.Credential{
		FID:        r.fid,
		PrivateKey: kp.PrivateKey,
		PublicKey:  kp.PublicKey,
		CreatedAt:  h.now().UTC(),
	}
	if err := h.store.Save(ctx, cred); err != nil {
		return nil, fmt.Errorf("save credential: %w", err)
	}
	r.advance(entity.StateCompleted, "")
	return cred, nil
}

// waitForApproval polls the request at a fixed interval until it completes,
// MaxWait elapses or ctx is done.
func (h *Handshake) waitForApproval(ctx context.Context, token string) error {
	pollCtx, cancel := context.WithTimeout(ctx, h.cfg.MaxWait)
	defer cancel()

	ticker := time.NewTicker(h.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-pollCtx.Done():
			return pollError(ctx, pollCtx.Err())
		case <-ticker.C:
		}

		state, err := h.hub.SignedKeyRequestState(pollCtx, token)
		if err != nil {
			if pollCtx.Err() != nil {
				return pollError(ctx, pollCtx.Err())
			}
			return fmt.Errorf("poll signed key request: %w", err)
		}
		if state == stateCompleted {
			return nil
		}
	}
}

func pollError(parent context.Context, err error) error {
	if parent.Err() == nil && errors.Is(err, context.DeadlineExceeded) {
		return entity.ErrApprovalTimeout
	}
	if parent.Err() != nil {
		return parent.Err()
	}
	return err
}
