package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/daylog-app/daylog-api/internal/models"
	"github.com/daylog-app/daylog-api/pkg/config"
	"github.com/daylog-app/daylog-api/pkg/jobs"
)

type auditLogStore interface {
	Create(ctx context.Context, log *models.AuditLog) error
}

// AuditService records auth events asynchronously so the request path never
// blocks on audit writes. Failures are logged and retried by the queue but
// never surfaced to callers.
type AuditService struct {
	store  auditLogStore
	queue  *jobs.Queue
	logger *zap.Logger
}

// NewAuditService constructs an AuditService backed by a worker queue.
func NewAuditService(store auditLogStore, logger *zap.Logger, cfg config.AuditConfig) *AuditService {
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &AuditService{store: store, logger: logger}
	s.queue = jobs.NewQueue("audit", s.handle, jobs.QueueConfig{
		Workers:    cfg.WorkerConcurrency,
		MaxRetries: cfg.WorkerRetries,
		Logger:     logger,
	})
	return s
}

// Start launches the audit workers.
func (s *AuditService) Start(ctx context.Context) {
	if s == nil {
		return
	}
	s.queue.Start(ctx)
}

// Stop drains the audit workers.
func (s *AuditService) Stop() {
	if s == nil {
		return
	}
	s.queue.Stop()
}

// Record enqueues an auth event. Nil-safe; best effort.
func (s *AuditService) Record(entry models.AuditLog) {
	if s == nil {
		return
	}
	if err := s.queue.Enqueue(jobs.Job{Type: string(entry.Action), Payload: entry}); err != nil {
		s.logger.Warn("failed to enqueue audit event", zap.String("action", string(entry.Action)), zap.Error(err))
	}
}

func (s *AuditService) handle(ctx context.Context, job jobs.Job) error {
	entry, ok := job.Payload.(models.AuditLog)
	if !ok {
		return fmt.Errorf("unexpected audit payload type %T", job.Payload)
	}
	return s.store.Create(ctx, &entry)
}
