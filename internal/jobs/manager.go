package jobs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/maltedev/catalog-crawler/internal/crawler"
	"github.com/maltedev/catalog-crawler/internal/models"
	"github.com/maltedev/catalog-crawler/internal/queue"
)

var (
	ErrRunNotFound  = errors.New("run not found")
	ErrEmptyCatalog = errors.New("at least one product name is required")
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// Run represents a crawl submitted through the API
type Run struct {
	ID          string          `json:"id"`
	Products    []string        `json:"products"`
	Status      Status          `json:"status"`
	Report      *crawler.Report `json:"report,omitempty"`
	Error       string          `json:"error,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	StartedAt   *time.Time      `json:"started_at,omitempty"`
	CompletedAt *time.Time      `json:"completed_at,omitempty"`
}

// Stats represents run statistics
type Stats struct {
	TotalRuns     int `json:"total_runs"`
	PendingRuns   int `json:"pending_runs"`
	RunningRuns   int `json:"running_runs"`
	CompletedRuns int `json:"completed_runs"`
	FailedRuns    int `json:"failed_runs"`
	Records       int `json:"records"`
}

// RunFunc executes one crawl. It owns the browser session for its duration.
type RunFunc func(ctx context.Context, runID uuid.UUID, catalog models.Catalog) (*crawler.Report, error)

// Manager keeps runs in memory and executes them one at a time.
type Manager struct {
	mu     sync.RWMutex
	runs   map[string]*Run
	queue  queue.Queue
	run    RunFunc
	logger *slog.Logger
}

func NewManager(q queue.Queue, run RunFunc, logger *slog.Logger) *Manager {
	return &Manager{
		runs:   make(map[string]*Run),
		queue:  q,
		run:    run,
		logger: logger.With("component", "job_manager"),
	}
}

// CreateRun registers a run for products and queues it.
func (m *Manager) CreateRun(ctx context.Context, products []string) (*Run, error) {
	names := make([]string, 0, len(products))
	for _, p := range products {
		if strings.TrimSpace(p) != "" {
			names = append(names, p)
		}
	}
	if len(names) == 0 {
		return nil, ErrEmptyCatalog
	}

	run := &Run{
		ID:        uuid.New().String(),
		Products:  names,
		Status:    StatusPending,
		CreatedAt: time.Now(),
	}

	m.mu.Lock()
	m.runs[run.ID] = run
	m.mu.Unlock()

	if err := m.queue.Push(&queue.Task{ID: run.ID, Products: names, CreatedAt: run.CreatedAt}); err != nil {
		m.mu.Lock()
		delete(m.runs, run.ID)
		m.mu.Unlock()
		return nil, fmt.Errorf("failed to queue run: %w", err)
	}

	m.logger.Info("run created", "id", run.ID, "products", len(names))
	return m.snapshot(run), nil
}

// GetRun retrieves a run by ID
func (m *Manager) GetRun(ctx context.Context, id string) (*Run, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	run, ok := m.runs[id]
	if !ok {
		return nil, ErrRunNotFound
	}
	return m.snapshot(run), nil
}

// ListRuns lists all runs, newest first
func (m *Manager) ListRuns(ctx context.Context) []*Run {
	m.mu.RLock()
	defer m.mu.RUnlock()

	runs := make([]*Run, 0, len(m.runs))
	for _, run := range m.runs {
		runs = append(runs, m.snapshot(run))
	}
	slices.SortFunc(runs, func(a, b *Run) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	return runs
}

func (m *Manager) GetStats(ctx context.Context) *Stats {
	m.mu.RLock()
	defer m.mu.RUnlock()

	stats := &Stats{TotalRuns: len(m.runs)}
	for _, run := range m.runs {
		switch run.Status {
		case StatusPending:
			stats.PendingRuns++
		case StatusRunning:
			stats.RunningRuns++
		case StatusCompleted:
			stats.CompletedRuns++
		case StatusFailed:
			stats.FailedRuns++
		}
		if run.Report != nil {
			stats.Records += run.Report.Records()
		}
	}
	return stats
}

// StartWorker processes queued runs one at a time until ctx ends or the
// queue is closed.
func (m *Manager) StartWorker(ctx context.Context) {
	m.logger.Info("job worker started")

	for {
		task, err := m.queue.Pop(ctx)
		if err != nil {
			if !errors.Is(err, queue.ErrQueueClosed) && ctx.Err() == nil {
				m.logger.Error("failed to take next run", "error", err)
				continue
			}
			m.logger.Info("job worker stopping")
			return
		}
		m.processRun(ctx, task)
	}
}

func (m *Manager) processRun(ctx context.Context, task *queue.Task) {
	id, err := uuid.Parse(task.ID)
	if err != nil {
		m.finish(task.ID, nil, fmt.Errorf("invalid run id: %w", err))
		return
	}

	m.update(task.ID, func(r *Run) {
		now := time.Now()
		r.Status = StatusRunning
		r.StartedAt = &now
	})
	m.logger.Info("processing run", "id", task.ID, "products", len(task.Products))

	report, err := m.run(ctx, id, models.NewCatalog(task.Products))
	m.finish(task.ID, report, err)
}

func (m *Manager) finish(id string, report *crawler.Report, err error) {
	m.update(id, func(r *Run) {
		now := time.Now()
		r.CompletedAt = &now
		r.Report = report
		if err != nil {
			r.Status = StatusFailed
			r.Error = err.Error()
			return
		}
		r.Status = StatusCompleted
	})

	if err != nil {
		m.logger.Error("run failed", "id", id, "error", err)
		return
	}
	records := 0
	if report != nil {
		records = report.Records()
	}
	m.logger.Info("run completed", "id", id, "records", records)
}

func (m *Manager) update(id string, fn func(*Run)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if run, ok := m.runs[id]; ok {
		fn(run)
	}
}

func (m *Manager) snapshot(run *Run) *Run {
	cp := *run
	cp.Products = slices.Clone(run.Products)
	return &cp
}
