package worker

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/Likith-Yadav/echo-us/internal/core/contracts"
	"github.com/Likith-Yadav/echo-us/internal/core/domain"
)

// PushWorker consumes queued push jobs and fans them out to device tokens.
// Delivery is best effort: a user with no registered token is skipped, and a
// provider failure leaves the job pending for redelivery.
type PushWorker struct {
	log      *slog.Logger
	queue    contracts.PushQueue
	notifier contracts.Notifier
	users    domain.UserRepository
	stream   string
	group    string
}

func NewPushWorker(
	log *slog.Logger,
	queue contracts.PushQueue,
	notifier contracts.Notifier,
	users domain.UserRepository,
	stream, group string,
) contracts.AsyncWorker {
	return &PushWorker{
		log:      log,
		queue:    queue,
		notifier: notifier,
		users:    users,
		stream:   stream,
		group:    group,
	}
}

func (w *PushWorker) Run(ctx context.Context) error {
	if err := w.queue.Subscribe(ctx, w.stream, w.group, w.ProcessJob); err != nil {
		return err
	}
	w.log.InfoContext(ctx, "worker - run - subscribed", "stream", w.stream, "group", w.group)
	<-ctx.Done()
	return ctx.Err()
}

func (w *PushWorker) ProcessJob(ctx context.Context, messageID string, raw []byte) error {
	var job domain.PushJob
	if err := json.Unmarshal(raw, &job); err != nil {
		w.log.ErrorContext(ctx, "worker - process job - wrong payload", "message_id", messageID, "err", err)
		// Unparseable jobs would redeliver forever; drop them.
		return w.finish(ctx, messageID)
	}

	user, err := w.users.GetUserByID(ctx, job.UserID)
	if err != nil {
		w.log.ErrorContext(ctx, "worker - process job - user lookup failed", "message_id", messageID, "user_id", job.UserID, "err", err)
		return err
	}

	if user.PushToken == nil || *user.PushToken == "" {
		w.log.InfoContext(ctx, "worker - process job - no push token, skipping", "message_id", messageID, "user_id", job.UserID)
		return w.finish(ctx, messageID)
	}

	if err := w.notifier.SendPush(ctx, *user.PushToken, job.Title, job.Body, job.Data); err != nil {
		w.log.ErrorContext(ctx, "worker - process job - push delivery failed", "message_id", messageID, "user_id", job.UserID, "err", err)
		return err
	}

	w.log.InfoContext(ctx, "worker - process job - delivered", "message_id", messageID, "user_id", job.UserID)
	return w.finish(ctx, messageID)
}

// finish acks the entry and trims it from the stream.
func (w *PushWorker) finish(ctx context.Context, messageID string) error {
	if err := w.queue.Ack(ctx, w.stream, w.group, messageID); err != nil {
		w.log.ErrorContext(ctx, "worker - process job - ack failed", "message_id", messageID, "err", err)
		return err
	}
	if err := w.queue.Delete(ctx, w.stream, messageID); err != nil {
		// Already acked; the trim is housekeeping only.
		w.log.ErrorContext(ctx, "worker - process job - delete failed", "message_id", messageID, "err", err)
	}
	return nil
}
