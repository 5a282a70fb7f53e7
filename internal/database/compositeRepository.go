package database

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path"
	"strings"

	"github.com/ds124wfegd/pfpframe/internal/entity"
	"github.com/ds124wfegd/pfpframe/internal/pkg/storage"
)

func NewCompositeRepository(storage storage.FileStorage) CompositeRepository {
	return &fileCompositeRepository{storage: storage}
}

// Save writes the PNG before the metadata, so metadata never points at a
// missing image.
func (r *fileCompositeRepository) Save(composite *entity.Composite, png io.Reader) error {
	if err := r.storage.Save(imagePath(composite.ID), png); err != nil {
		return err
	}

	data, err := json.Marshal(composite)
	if err != nil {
		return err
	}
	return r.storage.Save(metadataPath(composite.ID), bytes.NewReader(data))
}

func (r *fileCompositeRepository) FindByID(id string) (*entity.Composite, error) {
	reader, err := r.storage.Get(metadataPath(id))
	if err != nil {
		return nil, notFound(err, entity.ErrCompositeNotFound)
	}
	defer reader.Close()

	var composite entity.Composite
	if err := json.NewDecoder(reader).Decode(&composite); err != nil {
		return nil, err
	}
	return &composite, nil
}

func (r *fileCompositeRepository) Open(id string) (io.ReadCloser, error) {
	reader, err := r.storage.Get(imagePath(id))
	if err != nil {
		return nil, notFound(err, entity.ErrCompositeNotFound)
	}
	return reader, nil
}

func (r *fileCompositeRepository) Delete(id string) error {
	if !r.storage.Exists(metadataPath(id)) {
		return entity.ErrCompositeNotFound
	}
	if err := r.storage.Delete(metadataPath(id)); err != nil && !os.IsNotExist(err) {
		return err
	}
	if err := r.storage.Delete(imagePath(id)); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

func (r *fileCompositeRepository) SetLatest(sessionID, id string) error {
	return r.storage.Save(latestPath(sessionID), strings.NewReader(id))
}

func (r *fileCompositeRepository) Latest(sessionID string) (*entity.Composite, error) {
	reader, err := r.storage.Get(latestPath(sessionID))
	if err != nil {
		return nil, notFound(err, entity.ErrNoComposite)
	}
	defer reader.Close()

	id, err := io.ReadAll(reader)
	if err != nil {
		return nil, err
	}

	composite, err := r.FindByID(string(id))
	if errors.Is(err, entity.ErrCompositeNotFound) {
		return nil, entity.ErrNoComposite
	}
	return composite, err
}

func notFound(err, sentinel error) error {
	if os.IsNotExist(err) || errors.Is(err, storage.ErrInvalidPath) {
		return sentinel
	}
	return err
}

func imagePath(id string) string {
	return path.Join("composites", safeName(id)+".png")
}

func metadataPath(id string) string {
	return path.Join("metadata", safeName(id)+".json")
}

func latestPath(sessionID string) string {
	return path.Join("sessions", safeName(sessionID))
}

// safeName encodes ids coming from requests into a single path element.
// Distinct ids always give distinct names; "_" stands for the empty id and
// is never produced by the encoding.
func safeName(s string) string {
	if s == "" {
		return "_"
	}
	return base64.RawURLEncoding.EncodeToString([]byte(s))
}
