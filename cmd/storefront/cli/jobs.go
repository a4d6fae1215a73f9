package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/hibiken/asynq"

	"github.com/odyssey-commerce/storefront/jobs"
)

// Job names accepted by Trigger.
const (
	JobACLReconcile  = "acl-reconcile"
	JobACLCacheFlush = "acl-cache-flush"
)

// JobsCLI wraps manual management helpers for Asynq jobs.
type JobsCLI struct {
	client    *jobs.Client
	inspector jobs.QueueInspector
	closers   []io.Closer
}

// NewJobsCLI initialises the CLI helpers for the given Redis connection.
func NewJobsCLI(redisOpt asynq.RedisClientOpt) *JobsCLI {
	client := jobs.NewClient(redisOpt)
	inspector := asynq.NewInspector(redisOpt)
	return &JobsCLI{client: client, inspector: inspector, closers: []io.Closer{inspector, client}}
}

// Close releases underlying resources.
func (c *JobsCLI) Close() error {
	var err error
	for _, closer := range c.closers {
		if closeErr := closer.Close(); closeErr != nil {
			err = closeErr
		}
	}
	return err
}

// Trigger enqueues a supported job by name.
func (c *JobsCLI) Trigger(ctx context.Context, name string) (*asynq.TaskInfo, error) {
	if c == nil || c.client == nil {
		return nil, errors.New("jobs cli: client not configured")
	}
	switch name {
	case JobACLReconcile:
		return c.client.EnqueueReconcile(ctx, "manual")
	case JobACLCacheFlush:
		return c.client.EnqueueCacheFlush(ctx)
	default:
		return nil, fmt.Errorf("jobs cli: unsupported job %s", name)
	}
}

// QueueStats summarises the current queue state.
type QueueStats struct {
	Queue     string
	Pending   int
	Active    int
	Scheduled int
	Retry     int
}

// InspectQueue reports the queue metrics for the default queue.
func (c *JobsCLI) InspectQueue(ctx context.Context) (QueueStats, error) {
	if c == nil || c.inspector == nil {
		return QueueStats{}, errors.New("jobs cli: inspector not configured")
	}
	info, err := c.inspector.GetQueueInfo(jobs.QueueDefault)
	if err != nil {
		return QueueStats{}, err
	}
	stats := QueueStats{Queue: jobs.QueueDefault}
	if info != nil {
		stats.Pending = int(info.Pending)
		stats.Active = int(info.Active)
		stats.Scheduled = int(info.Scheduled)
		stats.Retry = int(info.Retry)
	}
	return stats, nil
}

// Run executes a command line such as "enqueue acl-reconcile" or "queue" and
// returns the process exit code.
func Run(ctx context.Context, redisOpt asynq.RedisClientOpt, args []string, out io.Writer) int {
	c := NewJobsCLI(redisOpt)
	defer c.Close()
	return c.run(ctx, args, out)
}

func (c *JobsCLI) run(ctx context.Context, args []string, out io.Writer) int {
	if len(args) == 0 {
		fmt.Fprintln(out, "usage: storefront enqueue <acl-reconcile|acl-cache-flush> | storefront queue")
		return 2
	}
	switch args[0] {
	case "enqueue":
		if len(args) != 2 {
			fmt.Fprintln(out, "usage: storefront enqueue <acl-reconcile|acl-cache-flush>")
			return 2
		}
		info, err := c.Trigger(ctx, args[1])
		if err != nil {
			fmt.Fprintln(out, err)
			return 1
		}
		fmt.Fprintf(out, "enqueued %s id=%s queue=%s\n", info.Type, info.ID, info.Queue)
		return 0
	case "queue":
		stats, err := c.InspectQueue(ctx)
		if err != nil {
			fmt.Fprintln(out, err)
			return 1
		}
		fmt.Fprintf(out, "queue=%s pending=%d active=%d scheduled=%d retry=%d\n", stats.Queue, stats.Pending, stats.Active, stats.Scheduled, stats.Retry)
		return 0
	default:
		fmt.Fprintf(out, "unknown command %q\n", args[0])
		return 2
	}
}
