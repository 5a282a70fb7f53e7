package service

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/ds124wfegd/pfpframe/internal/database"
	"github.com/ds124wfegd/pfpframe/internal/entity"
	"github.com/ds124wfegd/pfpframe/internal/pkg/compositor"
	"github.com/ds124wfegd/pfpframe/internal/pkg/imagehost"
	"github.com/ds124wfegd/pfpframe/internal/pkg/kafka"
	"github.com/ds124wfegd/pfpframe/internal/pkg/signer"
)

type CompositeService interface {
	Render(ctx context.Context, req entity.RenderRequest) (*entity.Composite, error)
	Get(id string) (*entity.Composite, error)
	Latest(sessionID string) (*entity.Composite, error)
	Open(id string) (io.ReadCloser, error)
	Delete(id string) error
}

type PublishService interface {
	Upload(ctx context.Context, compositeID string) (string, error)
	SetProfilePicture(ctx context.Context, req entity.SetPFPRequest, step func(entity.JobState)) (string, error)
	SignOut(ctx context.Context, fid uint64) error
	StartJob(req entity.SetPFPRequest) (*entity.PublishJob, error)
	Job(id string) (*entity.PublishJob, error)
}

// CredentialProvider is satisfied by *signer.Authorizer.
type CredentialProvider interface {
	Credential(ctx context.Context, fid uint64) (*entity.Credential, error)
	Progress(fid uint64) (signer.Progress, bool)
	Forget(ctx context.Context, fid uint64) error
}

// ProfileChanger is satisfied by *signer.Client.
type ProfileChanger interface {
	ChangePFP(ctx context.Context, privateKey, pfpURL string, fid uint64) error
}

type compositeService struct {
	repo     database.CompositeRepository
	renderer compositor.Renderer
	now      func() time.Time
	newID    func() string
}

type publishService struct {
	composites database.CompositeRepository
	auth       CredentialProvider
	uploader   imagehost.Uploader
	changer    ProfileChanger
	producer   kafka.Producer
	now        func() time.Time
	newID      func() string

	jobTimeout   time.Duration
	jobRetention time.Duration

	mu   sync.RWMutex
	jobs map[string]*entity.PublishJob
}
