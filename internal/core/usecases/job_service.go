package usecases

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/samirrijal/mapframe/internal/core/domain"
	"github.com/samirrijal/mapframe/internal/core/ports"
	"github.com/samirrijal/mapframe/internal/pkg/metrics"
)

const (
	// jobTTLSeconds bounds how long a job status stays readable. Matches
	// the queue's message retention.
	jobTTLSeconds = 24 * 60 * 60

	// recentJobsMax caps the in-memory listing ring.
	recentJobsMax = 100
)

// ErrQueueDisabled is returned by Enqueue when the process runs without a
// job queue, e.g. NATS is disabled in the configuration.
var ErrQueueDisabled = errors.New("job queue disabled")

// JobService queues poster renders and tracks their status. The API process
// uses it to enqueue and query; the worker process uses it to execute.
type JobService struct {
	cache  ports.CacheStore
	queue  ports.JobQueue
	poster *PosterService

	mu     sync.Mutex
	recent []string // newest first
}

// NewJobService creates a new JobService. The poster service is only
// exercised by HandleJob, so an API-only process may pass the same instance
// it uses for synchronous renders.
func NewJobService(cache ports.CacheStore, queue ports.JobQueue, poster *PosterService) *JobService {
	return &JobService{cache: cache, queue: queue, poster: poster}
}

// Enqueue validates the request, persists a queued status, and publishes
// the job. A status write failure is logged but does not block the job; a
// publish failure does, since nothing would ever pick the job up.
func (s *JobService) Enqueue(ctx context.Context, req *domain.PosterRequest) (*domain.RenderJob, error) {
	if s.queue == nil {
		return nil, ErrQueueDisabled
	}
	req.ApplyDefaults()
	for _, note := range req.ClampDimensions() {
		slog.Warn(note, "city", req.City)
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	job := &domain.RenderJob{
		ID:         uuid.NewString(),
		Request:    *req,
		EnqueuedAt: time.Now().UTC(),
	}
	s.writeStatus(ctx, &domain.JobStatus{
		ID:        job.ID,
		State:     domain.JobQueued,
		UpdatedAt: job.EnqueuedAt,
	})

	if err := s.queue.PublishJob(ctx, job); err != nil {
		return nil, fmt.Errorf("publishing render job: %w", err)
	}
	metrics.JobsEnqueued.Inc()
	s.remember(job.ID)

	slog.Info("render job queued", "job_id", job.ID, "city", req.City, "theme", req.Theme)
	return job, nil
}

// Status returns the current state of a job, or domain.ErrJobNotFound when
// the ID is unknown or its status has expired.
func (s *JobService) Status(ctx context.Context, id string) (*domain.JobStatus, error) {
	data, err := s.cache.Get(ctx, domain.JobCacheKey(id))
	if err != nil {
		return nil, fmt.Errorf("reading job status: %w", err)
	}
	if data == nil {
		return nil, fmt.Errorf("job %s: %w", id, domain.ErrJobNotFound)
	}
	var status domain.JobStatus
	if err := json.Unmarshal(data, &status); err != nil {
		return nil, fmt.Errorf("decoding job status: %w", err)
	}
	return &status, nil
}

// Recent lists statuses of recently enqueued jobs, newest first. Jobs whose
// status has expired are skipped. The second return is the total number of
// jobs in the ring before pagination.
func (s *JobService) Recent(ctx context.Context, offset, limit int) ([]domain.JobStatus, int, error) {
	s.mu.Lock()
	ids := make([]string, len(s.recent))
	copy(ids, s.recent)
	s.mu.Unlock()

	total := len(ids)
	if offset < 0 {
		offset = 0
	}
	if offset >= total {
		return []domain.JobStatus{}, total, nil
	}
	end := offset + limit
	if limit <= 0 || end > total {
		end = total
	}

	statuses := make([]domain.JobStatus, 0, end-offset)
	for _, id := range ids[offset:end] {
		status, err := s.Status(ctx, id)
		if err != nil {
			continue
		}
		statuses = append(statuses, *status)
	}
	return statuses, total, nil
}

// HandleJob executes one queued render, updating the persisted status and
// publishing a progress event per pipeline stage. The returned error drives
// the queue's ack/nak decision, so a failed render is redelivered until the
// delivery cap.
func (s *JobService) HandleJob(ctx context.Context, job *domain.RenderJob) error {
	slog.Info("render job started", "job_id", job.ID, "city", job.Request.City)
	s.update(ctx, job.ID, domain.JobRunning, "", "", "")

	progress := func(stage domain.Stage, message string) {
		s.update(ctx, job.ID, domain.JobRunning, stage, "", message)
	}

	result, err := s.poster.Render(ctx, &job.Request, progress)
	if err != nil {
		s.update(ctx, job.ID, domain.JobFailed, "", "", err.Error())
		metrics.JobsProcessed.WithLabelValues(string(domain.JobFailed)).Inc()
		slog.Error("render job failed", "job_id", job.ID, "error", err)
		return err
	}

	s.updateDone(ctx, job.ID, result.File)
	metrics.JobsProcessed.WithLabelValues(string(domain.JobDone)).Inc()
	slog.Info("render job finished", "job_id", job.ID, "file", result.File)
	return nil
}

func (s *JobService) update(ctx context.Context, id string, state domain.JobState, stage domain.Stage, file, message string) {
	now := time.Now().UTC()
	status := &domain.JobStatus{ID: id, State: state, Stage: stage, File: file, UpdatedAt: now}
	if state == domain.JobFailed {
		status.Error = message
	}
	s.writeStatus(ctx, status)

	if s.queue != nil {
		event := &domain.ProgressEvent{JobID: id, State: state, Stage: stage, Message: message, Time: now}
		if err := s.queue.PublishProgress(ctx, event); err != nil {
			slog.Warn("progress publish failed", "job_id", id, "error", err)
		}
	}
}

func (s *JobService) updateDone(ctx context.Context, id, file string) {
	s.update(ctx, id, domain.JobDone, domain.StageDone, file, file)
}

// writeStatus persists a status snapshot. Failures are logged and swallowed:
// a lost status never aborts a render.
func (s *JobService) writeStatus(ctx context.Context, status *domain.JobStatus) {
	data, err := json.Marshal(status)
	if err != nil {
		slog.Warn("job status encode failed", "job_id", status.ID, "error", err)
		return
	}
	key := domain.JobCacheKey(status.ID)
	if err := s.cache.Set(ctx, key, data, jobTTLSeconds); err != nil {
		slog.Warn("cache write failed", "error", &domain.CacheWriteError{Key: key, Err: err})
	}
}

func (s *JobService) remember(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.recent = append([]string{id}, s.recent...)
	if len(s.recent) > recentJobsMax {
		s.recent = s.recent[:recentJobsMax]
	}
}
