// Package app contains the application services that orchestrate the
// labeling workflow. Every mutating operation runs in exactly one
// transaction. Activity entries and workflow metrics are emitted only after
// the transaction commits.
package app

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/example/labelr/internal/core/access"
	"github.com/example/labelr/internal/core/dataitem"
	"github.com/example/labelr/internal/ctxutil"
	"github.com/example/labelr/internal/errs"
	"github.com/example/labelr/internal/ports/secondary"
)

// Deps holds the collaborators shared by the workflow services.
type Deps struct {
	Store    secondary.Store
	Files    secondary.FileStorage
	Activity secondary.ActivitySink     // optional
	Observer secondary.WorkflowObserver // optional
	Logger   zerolog.Logger
	Now      func() time.Time // optional, defaults to time.Now
}

// workflow is embedded by every service.
type workflow struct {
	store    secondary.Store
	files    secondary.FileStorage
	activity secondary.ActivitySink
	observer secondary.WorkflowObserver
	logger   zerolog.Logger
	now      func() time.Time
}

func newWorkflow(d Deps) workflow {
	w := workflow{
		store:    d.Store,
		files:    d.Files,
		activity: d.Activity,
		observer: d.Observer,
		logger:   d.Logger,
		now:      d.Now,
	}
	if w.observer == nil {
		w.observer = secondary.NopObserver{}
	}
	if w.now == nil {
		w.now = time.Now
	}
	return w
}

func (w workflow) clock() time.Time {
	return w.now().UTC()
}

// correlate tags ctx with a fresh correlation id unless it already has one.
func correlate(ctx context.Context) context.Context {
	if ctxutil.CorrelationFromContext(ctx) != "" {
		return ctx
	}
	return ctxutil.WithCorrelationID(ctx, uuid.NewString())
}

// loadActor resolves the acting user from the context.
func loadActor(ctx context.Context, uow secondary.UnitOfWork) (access.Actor, error) {
	id := ctxutil.ActorFromContext(ctx)
	if id == 0 {
		return access.Actor{}, errs.Unauthorized("no acting user (pass --as or set actor in the config)")
	}
	user, err := uow.Users().GetByID(ctx, id)
	if errs.IsNotFound(err) {
		return access.Actor{}, errs.Unauthorized("acting user %d does not exist", id)
	}
	if err != nil {
		return access.Actor{}, err
	}
	return access.Actor{ID: user.ID, Role: access.Role(user.Role), IsActive: user.IsActive}, nil
}

// requireActive fails for a deactivated actor.
func requireActive(a access.Actor) error {
	if !a.IsActive {
		return errs.Unauthorized("user %d is deactivated", a.ID)
	}
	return nil
}

// outbox collects what a transaction wants to announce once it has committed.
type outbox struct {
	entries   []secondary.ActivityEntry
	dataItems [][2]string
	tasks     [][2]string
	reviews   []string
}

func (o *outbox) record(userID int64, action, targetType string, targetID int64, details map[string]any) {
	o.entries = append(o.entries, secondary.ActivityEntry{
		UserID:     userID,
		Action:     action,
		TargetType: targetType,
		TargetID:   targetID,
		Details:    details,
	})
}

func (o *outbox) dataItemMoved(from, to string) { o.dataItems = append(o.dataItems, [2]string{from, to}) }
func (o *outbox) taskMoved(from, to string)     { o.tasks = append(o.tasks, [2]string{from, to}) }
func (o *outbox) reviewed(decision string)      { o.reviews = append(o.reviews, decision) }

// flush publishes the outbox. Sink failures are logged and swallowed.
func (w workflow) flush(ctx context.Context, o *outbox) {
	for _, t := range o.dataItems {
		w.observer.DataItemTransition(t[0], t[1])
		w.logger.Debug().Str("from", t[0]).Str("to", t[1]).Msg("data item transition")
	}
	for _, t := range o.tasks {
		w.observer.TaskTransition(t[0], t[1])
		w.logger.Debug().Str("from", t[0]).Str("to", t[1]).Msg("task transition")
	}
	for _, d := range o.reviews {
		w.observer.ReviewRecorded(d)
	}

	if w.activity == nil {
		return
	}
	correlationID := ctxutil.CorrelationFromContext(ctx)
	now := w.clock()
	for _, e := range o.entries {
		e.CorrelationID = correlationID
		e.At = now
		if err := w.activity.Record(ctx, e); err != nil {
			w.logger.Warn().Err(err).
				Str("action", e.Action).
				Str("correlation_id", correlationID).
				Msg("failed to record activity")
		}
	}
}

// advanceDataItem moves a data item through the status machine with a
// version-checked write. Reaching the status it already has is a no-op.
func (w workflow) advanceDataItem(ctx context.Context, uow secondary.UnitOfWork, item *secondary.DataItemRecord, to dataitem.Status, o *outbox) error {
	from := dataitem.Status(item.Status)
	if from == to {
		return nil
	}
	if r := dataitem.CanTransition(from, to); !r.Allowed {
		return r.Error()
	}
	if err := uow.DataItems().UpdateStatus(ctx, item, string(to), w.clock()); err != nil {
		return err
	}
	o.dataItemMoved(string(from), string(to))
	return nil
}

// notify stores a notification for a user inside the current transaction.
func notify(ctx context.Context, uow secondary.UnitOfWork, userID int64, kind, message, targetType string, targetID int64) error {
	return uow.Notifications().Create(ctx, &secondary.NotificationRecord{
		UserID:     userID,
		Kind:       kind,
		Message:    message,
		TargetType: targetType,
		TargetID:   targetID,
	})
}

// dedupe drops repeated ids, reporting them as failures.
func dedupe(ids []int64) ([]int64, []errs.ItemFailure) {
	seen := make(map[int64]bool, len(ids))
	out := make([]int64, 0, len(ids))
	var dups []errs.ItemFailure
	for _, id := range ids {
		if seen[id] {
			dups = append(dups, errs.ItemFailure{ID: id, Reason: "duplicate id in request"})
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out, dups
}

// reason renders an error as a batch failure reason.
func reason(err error) string {
	var e *errs.Error
	if errors.As(err, &e) && e.Message != "" {
		return e.Message
	}
	return err.Error()
}
