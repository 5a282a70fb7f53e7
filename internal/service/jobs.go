package service

import (
	"context"
	"time"

	"github.com/ds124wfegd/pfpframe/internal/entity"
	"github.com/sirupsen/logrus"
)

// StartJob validates req and runs SetProfilePicture in the background.
func (s *publishService) StartJob(req entity.SetPFPRequest) (*entity.PublishJob, error) {
	if req.FID == 0 {
		return nil, entity.ErrMissingFID
	}
	if _, err := s.composites.FindByID(req.CompositeID); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	job := &entity.PublishJob{
		ID:          s.newID(),
		FID:         req.FID,
		CompositeID: req.CompositeID,
		State:       entity.JobPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	s.mu.Lock()
	s.pruneLocked(now)
	s.jobs[job.ID] = job
	snapshot := *job
	s.mu.Unlock()

	go s.runJob(job.ID, req)

	return &snapshot, nil
}

// Job returns a snapshot of the job, with live handshake progress while it
// is authorizing.
func (s *publishService) Job(id string) (*entity.PublishJob, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	job, ok := s.jobs[id]
	if !ok {
		return nil, entity.ErrJobNotFound
	}
	snapshot := *job
	if snapshot.State == entity.JobAuthorizing {
		s.mergeProgress(&snapshot)
	}
	return &snapshot, nil
}

func (s *publishService) runJob(id string, req entity.SetPFPRequest) {
	ctx, cancel := context.WithTimeout(context.Background(), s.jobTimeout)
	defer cancel()

	url, err := s.SetProfilePicture(ctx, req, func(state entity.JobState) {
		s.updateJob(id, func(job *entity.PublishJob) {
			if job.State == entity.JobAuthorizing {
				s.mergeProgress(job)
			}
			job.State = state
		})
	})

	s.updateJob(id, func(job *entity.PublishJob) {
		if job.State == entity.JobAuthorizing {
			s.mergeProgress(job)
		}
		if err != nil {
			job.State = entity.JobFailed
			job.Error = err.Error()
			job.Cause = err
			return
		}
		job.State = entity.JobCompleted
		job.PFPURL = url
	})

	if err != nil {
		logrus.WithError(err).WithFields(logrus.Fields{
			"job": id,
			"fid": req.FID,
		}).Error("publish job failed")
	}
}

func (s *publishService) updateJob(id string, fn func(job *entity.PublishJob)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[id]
	if !ok {
		return
	}
	fn(job)
	job.UpdatedAt = s.now().UTC()
}

// mergeProgress copies the progress of the handshake the job is waiting on:
// one still running, or one that ended after the job was created. A job that
// joins a handshake already awaiting approval sees its deep link.
func (s *publishService) mergeProgress(job *entity.PublishJob) {
	p, ok := s.auth.Progress(job.FID)
	if !ok || !p.Live(job.CreatedAt) {
		return
	}
	job.Handshake = p.State
	job.DeepLinkURL = p.DeepLinkURL
}

func (s *publishService) pruneLocked(now time.Time) {
	for id, job := range s.jobs {
		finished := job.State == entity.JobCompleted || job.State == entity.JobFailed
		if finished && now.Sub(job.UpdatedAt) > s.jobRetention {
			delete(s.jobs, id)
		}
	}
}
