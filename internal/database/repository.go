package database

import (
	"context"
	"io"

	"github.com/ds124wfegd/pfpframe/internal/entity"
	"github.com/ds124wfegd/pfpframe/internal/pkg/storage"
)

type CompositeRepository interface {
	Save(composite *entity.Composite, png io.Reader) error
	FindByID(id string) (*entity.Composite, error)
	Open(id string) (io.ReadCloser, error)
	Delete(id string) error
	SetLatest(sessionID, id string) error
	Latest(sessionID string) (*entity.Composite, error)
}

type CredentialRepository interface {
	Get(ctx context.Context, fid uint64) (*entity.Credential, error)
	Save(ctx context.Context, cred *entity.Credential) error
	Delete(ctx context.Context, fid uint64) error
}

type fileCompositeRepository struct {
	storage storage.FileStorage
}
