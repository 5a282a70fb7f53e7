package service

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"time"

	"github.com/ds124wfegd/pfpframe/internal/database"
	"github.com/ds124wfegd/pfpframe/internal/entity"
	"github.com/ds124wfegd/pfpframe/internal/pkg/compositor"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

func NewCompositeService(repo database.CompositeRepository, renderer compositor.Renderer) CompositeService {
	return &compositeService{
		repo:     repo,
		renderer: renderer,
		now:      time.Now,
		newID:    uuid.NewString,
	}
}

// Render stores a new composite and makes it the session's latest. A failed
// render leaves the previous latest in place.
func (s *compositeService) Render(ctx context.Context, req entity.RenderRequest) (*entity.Composite, error) {
	filter, err := entity.ParseFilter(string(req.Filter))
	if err != nil {
		return nil, err
	}
	req.Filter = filter

	result, err := s.renderer.Render(ctx, req)
	if err != nil {
		return nil, err
	}

	sum := sha256.Sum256(result.PNG)
	composite := &entity.Composite{
		ID:        s.newID(),
		SessionID: req.SessionID,
		Filter:    filter,
		Size:      result.Size,
		Hash:      hex.EncodeToString(sum[:]),
		CreatedAt: s.now().UTC(),
	}

	if err := s.repo.Save(composite, bytes.NewReader(result.PNG)); err != nil {
		return nil, err
	}
	if err := s.repo.SetLatest(req.SessionID, composite.ID); err != nil {
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"composite": composite.ID,
		"session":   composite.SessionID,
		"filter":    composite.Filter,
	}).Info("composite stored")

	return composite, nil
}

func (s *compositeService) Get(id string) (*entity.Composite, error) {
	return s.repo.FindByID(id)
}

func (s *compositeService) Latest(sessionID string) (*entity.Composite, error) {
	return s.repo.Latest(sessionID)
}

func (s *compositeService) Open(id string) (io.ReadCloser, error) {
	return s.repo.Open(id)
}

func (s *compositeService) Delete(id string) error {
	return s.repo.Delete(id)
}
