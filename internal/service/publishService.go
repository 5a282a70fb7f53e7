package service

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/ds124wfegd/pfpframe/internal/database"
	"github.com/ds124wfegd/pfpframe/internal/entity"
	"github.com/ds124wfegd/pfpframe/internal/pkg/compositor"
	"github.com/ds124wfegd/pfpframe/internal/pkg/imagehost"
	"github.com/ds124wfegd/pfpframe/internal/pkg/kafka"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

type PublishConfig struct {
	// JobTimeout bounds a whole job, handshake included.
	JobTimeout time.Duration
	// JobRetention is how long finished jobs stay queryable.
	JobRetention time.Duration
}

func NewPublishService(
	composites database.CompositeRepository,
	auth CredentialProvider,
	uploader imagehost.Uploader,
	changer ProfileChanger,
	producer kafka.Producer,
	cfg PublishConfig,
) PublishService {
	if cfg.JobTimeout <= 0 {
		cfg.JobTimeout = 15 * time.Minute
	}
	if cfg.JobRetention <= 0 {
		cfg.JobRetention = time.Hour
	}
	return &publishService{
		composites:   composites,
		auth:         auth,
		uploader:     uploader,
		changer:      changer,
		producer:     producer,
		now:          time.Now,
		newID:        uuid.NewString,
		jobTimeout:   cfg.JobTimeout,
		jobRetention: cfg.JobRetention,
		jobs:         make(map[string]*entity.PublishJob),
	}
}

// Upload hosts the stored PNG of a composite and returns its public URL.
func (s *publishService) Upload(ctx context.Context, compositeID string) (string, error) {
	r, err := s.composites.Open(compositeID)
	if err != nil {
		return "", err
	}
	defer r.Close()

	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}

	url, err := s.uploader.Upload(ctx, compositor.EncodeDataURL(data))
	if err != nil {
		return "", fmt.Errorf("upload composite %s: %w", compositeID, err)
	}

	logrus.WithFields(logrus.Fields{
		"composite": compositeID,
		"url":       url,
	}).Info("composite uploaded")
	return url, nil
}

// SetProfilePicture authorizes fid, uploads the composite and points the
// profile picture at it. step, if not nil, is told about each stage.
func (s *publishService) SetProfilePicture(ctx context.Context, req entity.SetPFPRequest, step func(entity.JobState)) (string, error) {
	if req.FID == 0 {
		return "", entity.ErrMissingFID
	}
	composite, err := s.composites.FindByID(req.CompositeID)
	if err != nil {
		return "", err
	}
	if step == nil {
		step = func(entity.JobState) {}
	}

	step(entity.JobAuthorizing)
	cred, err := s.auth.Credential(ctx, req.FID)
	if err != nil {
		return "", fmt.Errorf("authorize fid %d: %w", req.FID, err)
	}

	step(entity.JobUploading)
	url, err := s.Upload(ctx, composite.ID)
	if err != nil {
		return "", err
	}

	step(entity.JobChanging)
	if err := s.changer.ChangePFP(ctx, cred.PrivateKey, url, req.FID); err != nil {
		return "", fmt.Errorf("change pfp: %w", err)
	}

	event := entity.ProfileChangedEvent{
		FID:         req.FID,
		PFPURL:      url,
		CompositeID: composite.ID,
		Filter:      composite.Filter,
		ChangedAt:   s.now().UTC(),
	}
	if err := s.producer.Publish(ctx, event); err != nil {
		logrus.WithError(err).WithField("fid", req.FID).Warn("failed to publish profile change")
	}

	logrus.WithFields(logrus.Fields{
		"fid":       req.FID,
		"composite": composite.ID,
		"pfp_url":   url,
	}).Info("profile picture changed")
	return url, nil
}

// SignOut drops the stored credential for fid.
func (s *publishService) SignOut(ctx context.Context, fid uint64) error {
	if fid == 0 {
		return entity.ErrMissingFID
	}
	return s.auth.Forget(ctx, fid)
}
