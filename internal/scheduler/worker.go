package scheduler

import (
	"context"
	"fmt"
	"strings"

	"tenant_portal_backend/internal/email"
	"tenant_portal_backend/platform/config"
	"tenant_portal_backend/platform/logger"

	"github.com/hibiken/asynq"
)

// WorkerConfig combines the settings the worker needs.
type WorkerConfig interface {
	config.SchedulerConfig
	config.NotificationConfig
}

type Worker struct {
	server    *asynq.Server
	mux       *asynq.ServeMux
	sender    email.Sender
	portalURL string
	log       *logger.Logger
}

func NewWorker(cfg WorkerConfig, sender email.Sender, log *logger.Logger) (*Worker, error) {
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

	concurrency := cfg.GetAsynqConcurrency()
	if concurrency < 1 {
		concurrency = 10
	}

	server := asynq.NewServer(opt, asynq.Config{
		Concurrency: concurrency,
		Queues: map[string]int{
			queue: 1,
		},
	})

	w := &Worker{
		server:    server,
		mux:       asynq.NewServeMux(),
		sender:    sender,
		portalURL: cfg.GetAppBaseURL(),
		log:       log,
	}
	w.mux.HandleFunc(TaskApplicantNotification, w.handleApplicantNotification)

	return w, nil
}

func (w *Worker) Run(ctx context.Context) {
	if w == nil || w.server == nil {
		return
	}

	go func() {
		<-ctx.Done()
		w.server.Shutdown()
	}()

	if err := w.server.Run(w.mux); err != nil {
		w.log.Error("scheduler worker stopped", "error", err)
	}
}

func (w *Worker) handleApplicantNotification(ctx context.Context, task *asynq.Task) error {
	payload, err := ParseApplicantNotificationPayload(task)
	if err != nil {
		return fmt.Errorf("%w: %v", asynq.SkipRetry, err)
	}
	return w.notifyApplicant(ctx, payload)
}

func (w *Worker) notifyApplicant(ctx context.Context, p ApplicantNotificationPayload) error {
	to := strings.TrimSpace(p.Email)
	if to == "" {
		w.log.Info("applicant has no email; notification skipped", "applicationId", p.ApplicationID, "kind", p.Kind)
		return nil
	}

	switch p.Kind {
	case NotificationAccepted:
		return w.sender.SendApplicationAcceptedEmail(ctx, to, p.Name, w.portalURL)
	case NotificationRejected:
		return w.sender.SendApplicationRejectedEmail(ctx, to, p.Name, p.Reason)
	case NotificationViewingInvite:
		return w.sender.SendViewingInviteEmail(ctx, to, p.Name, p.SlotStart, p.SlotEnd)
	default:
		return fmt.Errorf("%w: unknown notification kind %q", asynq.SkipRetry, p.Kind)
	}
}
