package scheduler

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"

	"tenant_portal_backend/platform/config"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
)

const notificationMaxRetry = 5

type Client struct {
	client       *asynq.Client
	queue        string
	viewingQueue string
}

// TaskEnqueuer is the queue surface used by the notification module.
type TaskEnqueuer interface {
	EnqueueApplicantNotification(ctx context.Context, payload ApplicantNotificationPayload) error
	EnqueueViewingReservation(ctx context.Context, payload ViewingSlotPayload) error
	EnqueueViewingRelease(ctx context.Context, payload ViewingSlotPayload) error
}

func NewClient(cfg config.SchedulerConfig) (*Client, error) {
	redisURL := cfg.GetRedisURL()
	if redisURL == "" {
		return nil, fmt.Errorf("redis url not configured")
	}

	opt, err := redisClientOpt(redisURL, cfg.GetRedisTLSInsecure())
	if err != nil {
		return nil, err
	}

	queue := cfg.GetAsynqQueueName()
	if queue == "" {
		queue = "default"
	}
	viewingQueue := cfg.GetViewingQueueName()
	if viewingQueue == "" {
		viewingQueue = "viewings"
	}

	return &Client{
		client:       asynq.NewClient(opt),
		queue:        queue,
		viewingQueue: viewingQueue,
	}, nil
}

func (c *Client) Close() error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Close()
}

// EnqueueApplicantNotification queues an applicant email. The task id is
// derived from the decision so a redelivered event does not mail twice.
func (c *Client) EnqueueApplicantNotification(ctx context.Context, payload ApplicantNotificationPayload) error {
	if c == nil || c.client == nil {
		return nil
	}

	task, err := NewApplicantNotificationTask(payload)
	if err != nil {
		return err
	}

	opts := []asynq.Option{asynq.Queue(c.queue), asynq.MaxRetry(notificationMaxRetry)}
	if payload.DecisionID != "" {
		opts = append(opts, asynq.TaskID("notify:"+payload.DecisionID))
	}
	return ignoreDuplicate(c.client.EnqueueContext(ctx, task, opts...))
}

func (c *Client) EnqueueViewingReservation(ctx context.Context, payload ViewingSlotPayload) error {
	return c.enqueueViewing(ctx, TaskViewingReserve, payload)
}

func (c *Client) EnqueueViewingRelease(ctx context.Context, payload ViewingSlotPayload) error {
	return c.enqueueViewing(ctx, TaskViewingRelease, payload)
}

func (c *Client) enqueueViewing(ctx context.Context, taskType string, payload ViewingSlotPayload) error {
	if c == nil || c.client == nil {
		return nil
	}

	task, err := NewViewingTask(taskType, payload)
	if err != nil {
		return err
	}

	opts := []asynq.Option{asynq.Queue(c.viewingQueue)}
	if payload.DecisionID != "" {
		opts = append(opts, asynq.TaskID(taskType+":"+payload.DecisionID))
	}
	return ignoreDuplicate(c.client.EnqueueContext(ctx, task, opts...))
}

func ignoreDuplicate(_ *asynq.TaskInfo, err error) error {
	if errors.Is(err, asynq.ErrTaskIDConflict) {
		return nil
	}
	return err
}

func redisClientOpt(redisURL string, tlsInsecure bool) (asynq.RedisClientOpt, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return asynq.RedisClientOpt{}, err
	}

	var tlsConfig *tls.Config
	if opt.TLSConfig != nil {
		clone := opt.TLSConfig.Clone()
		if tlsInsecure {
			clone.InsecureSkipVerify = true
		}
		tlsConfig = clone
	} else if tlsInsecure {
		tlsConfig = &tls.Config{InsecureSkipVerify: true}
	}

	return asynq.RedisClientOpt{
		Addr:      opt.Addr,
		Password:  opt.Password,
		DB:        opt.DB,
		TLSConfig: tlsConfig,
	}, nil
}

var _ TaskEnqueuer = (*Client)(nil)
