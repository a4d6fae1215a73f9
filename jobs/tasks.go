package jobs

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskACLReconcile installs declared capabilities that are missing from storage.
	TaskACLReconcile = "acl:reconcile"
	// TaskACLCacheFlush drops every cached authorization decision.
	TaskACLCacheFlush = "acl:cache:flush"
)

// ReconcilePayload describes a catalog reconciliation request.
type ReconcilePayload struct {
	Reason string `json:"reason,omitempty"`
}

// NewReconcileTask constructs an Asynq task.
func NewReconcileTask(reason string) (*asynq.Task, error) {
	data, err := json.Marshal(ReconcilePayload{Reason: reason})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskACLReconcile, data), nil
}

// NewCacheFlushTask constructs an Asynq task.
func NewCacheFlushTask() *asynq.Task {
	return asynq.NewTask(TaskACLCacheFlush, nil)
}
