package cli

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-commerce/storefront/jobs"
)

type recordingEnqueuer struct {
	tasks []*asynq.Task
}

func (r *recordingEnqueuer) EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error) {
	r.tasks = append(r.tasks, task)
	return &asynq.TaskInfo{ID: "t1", Type: task.Type(), Queue: jobs.QueueDefault}, nil
}

type stubInspector struct {
	info *asynq.QueueInfo
	err  error
}

func (s stubInspector) GetQueueInfo(queue string) (*asynq.QueueInfo, error) {
	return s.info, s.err
}

func TestTriggerACLJobs(t *testing.T) {
	enq := &recordingEnqueuer{}
	c := &JobsCLI{client: jobs.NewClientWith(enq)}

	_, err := c.Trigger(context.Background(), JobACLReconcile)
	require.NoError(t, err)
	_, err = c.Trigger(context.Background(), JobACLCacheFlush)
	require.NoError(t, err)
	_, err = c.Trigger(context.Background(), "gl-integrity")
	require.Error(t, err)

	require.Len(t, enq.tasks, 2)
	assert.Equal(t, jobs.TaskACLReconcile, enq.tasks[0].Type())
	assert.Equal(t, jobs.TaskACLCacheFlush, enq.tasks[1].Type())
}

func TestRunCommands(t *testing.T) {
	c := &JobsCLI{
		client:    jobs.NewClientWith(&recordingEnqueuer{}),
		inspector: stubInspector{info: &asynq.QueueInfo{Queue: jobs.QueueDefault, Pending: 2, Retry: 1}},
	}

	var out bytes.Buffer
	assert.Equal(t, 0, c.run(context.Background(), []string{"enqueue", JobACLReconcile}, &out))
	assert.Contains(t, out.String(), "enqueued acl:reconcile")

	out.Reset()
	assert.Equal(t, 0, c.run(context.Background(), []string{"queue"}, &out))
	assert.Equal(t, "queue=default pending=2 active=0 scheduled=0 retry=1\n", out.String())

	assert.Equal(t, 2, c.run(context.Background(), nil, &out))
	assert.Equal(t, 2, c.run(context.Background(), []string{"enqueue"}, &out))
	assert.Equal(t, 2, c.run(context.Background(), []string{"bogus"}, &out))

	failing := &JobsCLI{inspector: stubInspector{err: errors.New("redis down")}}
	assert.Equal(t, 1, failing.run(context.Background(), []string{"queue"}, &out))
}

func TestTriggerWithoutClient(t *testing.T) {
	_, err := (&JobsCLI{}).Trigger(context.Background(), JobACLReconcile)
	assert.Error(t, err)
}
