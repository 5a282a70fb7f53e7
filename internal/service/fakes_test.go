package service

import (
	"context"
	"errors"
	"sync"

	"github.com/ds124wfegd/pfpframe/internal/entity"
	"github.com/ds124wfegd/pfpframe/internal/pkg/compositor"
	"github.com/ds124wfegd/pfpframe/internal/pkg/signer"
)

var errBoom = errors.New("boom")

type fakeRenderer struct {
	calls int
	err   error
	png   []byte
}

func (r *fakeRenderer) Render(_ context.Context, _ entity.RenderRequest) (*compositor.Result, error) {
	r.calls++
	if r.err != nil {
		return nil, r.err
	}
	return &compositor.Result{PNG: r.png, Size: 600}, nil
}

type fakeAuth struct {
	mu        sync.Mutex
	cred      *entity.Credential
	err       error
	calls     int
	gate      chan struct{}
	progress  *signer.Progress
	forgotten []uint64
}

func (a *fakeAuth) Credential(ctx context.Context, fid uint64) (*entity.Credential, error) {
	a.mu.Lock()
	a.calls++
	gate := a.gate
	a.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if a.err != nil {
		return nil, a.err
	}
	return a.cred, nil
}

func (a *fakeAuth) Progress(uint64) (signer.Progress, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.progress == nil {
		return signer.Progress{}, false
	}
	return *a.progress, true
}

func (a *fakeAuth) setProgress(p signer.Progress) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.progress = &p
}

func (a *fakeAuth) Forget(_ context.Context, fid uint64) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.cred == nil || a.cred.FID != fid {
		return entity.ErrCredentialNotFound
	}
	a.forgotten = append(a.forgotten, fid)
	a.cred = nil
	return nil
}

type fakeUploader struct {
	mu    sync.Mutex
	calls int
	data  []string
	err   error
}

func (u *fakeUploader) Upload(_ context.Context, dataURL string) (string, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.calls++
	u.data = append(u.data, dataURL)
	if u.err != nil {
		return "", u.err
	}
	return "https://img.example/hash.png", nil
}

type changeCall struct {
	privateKey string
	pfpURL     string
	fid        uint64
}

type fakeChanger struct {
	mu    sync.Mutex
	calls []changeCall
	err   error
}

func (c *fakeChanger) ChangePFP(_ context.Context, privateKey, pfpURL string, fid uint64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls = append(c.calls, changeCall{privateKey, pfpURL, fid})
	return c.err
}

type fakeProducer struct {
	mu     sync.Mutex
	events []entity.ProfileChangedEvent
	err    error
}

func (p *fakeProducer) Publish(_ context.Context, event entity.ProfileChangedEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return p.err
}

func (p *fakeProducer) Close() error { return nil }
