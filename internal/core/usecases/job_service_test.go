package usecases_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/samirrijal/mapframe/internal/core/domain"
	"github.com/samirrijal/mapframe/internal/core/usecases"
)

type memCache struct {
	mu      sync.Mutex
	entries map[string][]byte
	ttls    map[string]int
	failSet bool
}

func newMemCache() *memCache {
	return &memCache{entries: map[string][]byte{}, ttls: map[string]int{}}
}

func (c *memCache) Get(ctx context.Context, key string) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.entries[key], nil
}

func (c *memCache) Set(ctx context.Context, key string, value []byte, ttlSeconds int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failSet {
		return errors.New("backend down")
	}
	c.entries[key] = value
	c.ttls[key] = ttlSeconds
	return nil
}

func (c *memCache) Delete(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
	return nil
}

type mockQueue struct {
	mu          sync.Mutex
	jobs        []*domain.RenderJob
	events      []*domain.ProgressEvent
	failPublish bool
}

func (q *mockQueue) PublishJob(ctx context.Context, job *domain.RenderJob) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.failPublish {
		return errors.New("nats unavailable")
	}
	q.jobs = append(q.jobs, job)
	return nil
}

func (q *mockQueue) PublishProgress(ctx context.Context, event *domain.ProgressEvent) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.events = append(q.events, event)
	return nil
}

func newTestJobService(cache *memCache, queue *mockQueue) (*usecases.JobService, *testPorts) {
	poster, ports := newTestPosterService("posters")
	return usecases.NewJobService(cache, queue, poster), ports
}

func TestJobService_Enqueue(t *testing.T) {
	cache := newMemCache()
	queue := &mockQueue{}
	svc, _ := newTestJobService(cache, queue)

	job, err := svc.Enqueue(context.Background(), baseRequest())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if job.ID == "" {
		t.Fatal("job has no ID")
	}
	if len(queue.jobs) != 1 || queue.jobs[0].ID != job.ID {
		t.Fatalf("job not published: %+v", queue.jobs)
	}

	status, err := svc.Status(context.Background(), job.ID)
	if err != nil {
		t.Fatalf("status after enqueue: %v", err)
	}
	if status.State != domain.JobQueued {
		t.Errorf("state = %s, expected queued", status.State)
	}
	if ttl := cache.ttls[domain.JobCacheKey(job.ID)]; ttl != 24*60*60 {
		t.Errorf("status ttl = %d, expected 24h", ttl)
	}
}

func TestJobService_Enqueue_InvalidRequest(t *testing.T) {
	svc, _ := newTestJobService(newMemCache(), &mockQueue{})

	req := baseRequest()
	req.City = ""
	if _, err := svc.Enqueue(context.Background(), req); err == nil {
		t.Fatal("expected error for request without a city")
	}
}

func TestJobService_Enqueue_PublishFailure(t *testing.T) {
	queue := &mockQueue{failPublish: true}
	svc, _ := newTestJobService(newMemCache(), queue)

	if _, err := svc.Enqueue(context.Background(), baseRequest()); err == nil {
		t.Fatal("expected error when the queue is unreachable")
	}
}

func TestJobService_Enqueue_QueueDisabled(t *testing.T) {
	svc := usecases.NewJobService(newMemCache(), nil, nil)

	_, err := svc.Enqueue(context.Background(), baseRequest())
	if !errors.Is(err, usecases.ErrQueueDisabled) {
		t.Fatalf("expected ErrQueueDisabled, got %v", err)
	}
}

func TestJobService_Enqueue_StatusWriteFailureStillQueues(t *testing.T) {
	cache := newMemCache()
	cache.failSet = true
	queue := &mockQueue{}
	svc, _ := newTestJobService(cache, queue)

	job, err := svc.Enqueue(context.Background(), baseRequest())
	if err != nil {
		t.Fatalf("a status write failure must not block the job: %v", err)
	}
	if len(queue.jobs) != 1 || queue.jobs[0].ID != job.ID {
		t.Error("job was not published")
	}
}

func TestJobService_Status_NotFound(t *testing.T) {
	svc, _ := newTestJobService(newMemCache(), &mockQueue{})

	_, err := svc.Status(context.Background(), "no-such-job")
	if !errors.Is(err, domain.ErrJobNotFound) {
		t.Fatalf("expected ErrJobNotFound, got %v", err)
	}
}

func TestJobService_HandleJob(t *testing.T) {
	cache := newMemCache()
	queue := &mockQueue{}
	svc, ports := newTestJobService(cache, queue)

	job, err := svc.Enqueue(context.Background(), baseRequest())
	if err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	if err := svc.HandleJob(context.Background(), job); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	status, err := svc.Status(context.Background(), job.ID)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if status.State != domain.JobDone {
		t.Errorf("state = %s, expected done", status.State)
	}
	if status.File != ports.renderer.lastPath {
		t.Errorf("status file %q, expected %q", status.File, ports.renderer.lastPath)
	}

	if len(queue.events) == 0 {
		t.Fatal("no progress events published")
	}
	last := queue.events[len(queue.events)-1]
	if last.State != domain.JobDone || last.JobID != job.ID {
		t.Errorf("unexpected final event: %+v", last)
	}
	for _, ev := range queue.events[:len(queue.events)-1] {
		if ev.State != domain.JobRunning {
			t.Errorf("intermediate event has state %s", ev.State)
		}
	}
}

func TestJobService_HandleJob_FailureNaks(t *testing.T) {
	cache := newMemCache()
	queue := &mockQueue{}
	svc, ports := newTestJobService(cache, queue)
	ports.fetcher.networkFn = func(ctx context.Context, center domain.GeoPoint, dist float64) (*domain.StreetGraph, error) {
		return nil, errors.New("overpass down")
	}

	job, err := svc.Enqueue(context.Background(), baseRequest())
	if err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	if err := svc.HandleJob(context.Background(), job); err == nil {
		t.Fatal("expected error so the message is redelivered")
	}

	status, err := svc.Status(context.Background(), job.ID)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if status.State != domain.JobFailed {
		t.Errorf("state = %s, expected failed", status.State)
	}
	if status.Error == "" {
		t.Error("failed status carries no error message")
	}

	last := queue.events[len(queue.events)-1]
	if last.State != domain.JobFailed {
		t.Errorf("final event state = %s, expected failed", last.State)
	}
}

func TestJobService_Recent_Pagination(t *testing.T) {
	svc, _ := newTestJobService(newMemCache(), &mockQueue{})

	var ids []string
	for i := 0; i < 5; i++ {
		job, err := svc.Enqueue(context.Background(), baseRequest())
		if err != nil {
			t.Fatalf("enqueue %d: %v", i, err)
		}
		ids = append(ids, job.ID)
	}

	page, total, err := svc.Recent(context.Background(), 0, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if total != 5 {
		t.Errorf("total = %d, expected 5", total)
	}
	if len(page) != 2 {
		t.Fatalf("page size = %d, expected 2", len(page))
	}
	if page[0].ID != ids[4] || page[1].ID != ids[3] {
		t.Error("listing is not newest-first")
	}

	page, _, err = svc.Recent(context.Background(), 4, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(page) != 1 || page[0].ID != ids[0] {
		t.Errorf("tail page wrong: %+v", page)
	}

	page, total, err = svc.Recent(context.Background(), 10, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(page) != 0 || total != 5 {
		t.Errorf("out-of-range page returned %d items, total %d", len(page), total)
	}
}
