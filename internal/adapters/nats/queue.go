// Package natsadapter queues render jobs on NATS JetStream and fans out
// per-job progress events over plain NATS subjects.
package natsadapter

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/samirrijal/mapframe/internal/core/domain"
)

const (
	jobStream             = "POSTER_JOBS"
	jobSubjectPrefix      = "posters.jobs."
	jobSubjectAll         = "posters.jobs.>"
	progressSubjectPrefix = "posters.progress."
)

// ProgressSubject returns the subject carrying progress events for a job.
// The WebSocket relay subscribes here with a raw connection.
func ProgressSubject(jobID string) string {
	return progressSubjectPrefix + jobID
}

// Queue implements ports.JobQueue using NATS JetStream for jobs and core
// NATS for progress. Progress events are fire-and-forget: a subscriber that
// connects late simply misses the earlier stages.
type Queue struct {
	conn *nats.Conn
	js   nats.JetStreamContext
}

// NewQueue connects to NATS, enables JetStream, and ensures the job stream
// exists. Jobs older than a day are dropped unprocessed, matching the job
// status retention.
func NewQueue(url string) (*Queue, error) {
	conn, err := nats.Connect(url,
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}

	js, err := conn.JetStream()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("jetstream: %w", err)
	}

	cfg := nats.StreamConfig{
		Name:      jobStream,
		Subjects:  []string{jobSubjectAll},
		Retention: nats.WorkQueuePolicy,
		MaxAge:    24 * time.Hour,
		Storage:   nats.FileStorage,
	}
	if _, err := js.AddStream(&cfg); err != nil {
		// Stream may already exist — try update
		if _, err := js.UpdateStream(&cfg); err != nil {
			conn.Close()
			return nil, fmt.Errorf("ensure stream %s: %w", cfg.Name, err)
		}
	}

	return &Queue{conn: conn, js: js}, nil
}

func (q *Queue) PublishJob(ctx context.Context, job *domain.RenderJob) error {
	data, err := json.Marshal(job)
	if err != nil {
		return err
	}
	_, err = q.js.Publish(jobSubjectPrefix+job.ID, data)
	return err
}

func (q *Queue) PublishProgress(ctx context.Context, event *domain.ProgressEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return q.conn.Publish(ProgressSubject(event.JobID), data)
}

// Close drains and closes the connection.
func (q *Queue) Close() {
	_ = q.conn.Drain()
}

// RawConn creates a plain NATS connection for subscribing (e.g. WebSocket relay).
func RawConn(url string) (*nats.Conn, error) {
	return nats.Connect(url,
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
}
