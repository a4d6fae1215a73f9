package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/odyssey-commerce/storefront/internal/jobs"
	"github.com/odyssey-commerce/storefront/internal/rbac"
)

var defaultJobMetrics = jobmetrics.NewMetrics(nil)

// ACLService is the part of the authorization engine driven by background jobs.
type ACLService interface {
	ReconcileRegistered(ctx context.Context) ([]rbac.Capability, error)
	FlushCache(ctx context.Context) error
}

// ACLJob handles catalog reconciliation and cache flush tasks.
type ACLJob struct {
	Service ACLService
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
}

// NewACLJob wires dependencies for the ACL task handlers.
func NewACLJob(service ACLService, logger *slog.Logger, metrics *jobmetrics.Metrics) *ACLJob {
	return &ACLJob{Service: service, Logger: logger, Metrics: metrics}
}

// HandleReconcile processes TaskACLReconcile tasks.
func (j *ACLJob) HandleReconcile(ctx context.Context, t *asynq.Task) (resultErr error) {
	if j == nil || j.Service == nil {
		return errors.New("acl reconcile: handler not configured")
	}
	var payload ReconcilePayload
	if len(t.Payload()) > 0 {
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return asynq.SkipRetry
		}
	}

	tracker := j.metrics().Track(TaskACLReconcile)
	defer func() {
		resultErr = tracker.End(resultErr)
	}()

	logger := j.logger().With(slog.String("reason", payload.Reason))
	created, err := j.Service.ReconcileRegistered(ctx)
	if err != nil {
		logger.Error("acl reconcile", slog.Int("installed", len(created)), slog.Any("error", err))
		return err
	}
	j.metrics().AddInstalled(len(created))
	logger.Info("acl reconcile completed", slog.Int("installed", len(created)))
	return nil
}

// HandleCacheFlush processes TaskACLCacheFlush tasks.
func (j *ACLJob) HandleCacheFlush(ctx context.Context, _ *asynq.Task) (resultErr error) {
	if j == nil || j.Service == nil {
		return errors.New("acl cache flush: handler not configured")
	}
	tracker := j.metrics().Track(TaskACLCacheFlush)
	defer func() {
		resultErr = tracker.End(resultErr)
	}()
	if err := j.Service.FlushCache(ctx); err != nil {
		j.logger().Error("acl cache flush", slog.Any("error", err))
		return err
	}
	j.logger().Info("acl cache flushed")
	return nil
}

func (j *ACLJob) metrics() *jobmetrics.Metrics {
	if j.Metrics != nil {
		return j.Metrics
	}
	return defaultJobMetrics
}

func (j *ACLJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger
	}
	return slog.Default()
}
