package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"todotracker/internal/core/domain"
	"todotracker/internal/core/port"
	"todotracker/internal/core/telemetry"
)

const (
	ReminderTitle   = "Todo Reminder"
	reminderLockKey = "todotracker:reminder-cycle"
	dueDateLayout   = "Jan 02, 2006 at 15:04"
)

// CycleResult summarizes one sweep. Skipped counts todos whose owner is gone
// and reminders another writer changed first.
type CycleResult struct {
	Due     int
	Sent    int
	Skipped int
	Failed  int
}

type ReminderScanner struct {
	todos      port.TodoRepository
	users      port.UserRepository
	dispatcher port.NotificationDispatcher
	lock       port.CycleLock
	lockTTL    time.Duration
	metrics    *telemetry.AppMetrics
	logger     *zap.Logger
	now        func() time.Time
}

// NewReminderScanner builds a scanner. lock may be nil, in which case only
// the compare-and-set on the reminder status guards against overlapping
// sweeps.
func NewReminderScanner(
	todos port.TodoRepository,
	users port.UserRepository,
	dispatcher port.NotificationDispatcher,
	lock port.CycleLock,
	lockTTL time.Duration,
	metrics *telemetry.AppMetrics,
	logger *zap.Logger,
) *ReminderScanner {
	if logger == nil {
		logger = zap.NewNop()
	}

	if lockTTL <= 0 {
		lockTTL = time.Minute
	}

	return &ReminderScanner{
		todos:      todos,
		users:      users,
		dispatcher: dispatcher,
		lock:       lock,
		lockTTL:    lockTTL,
		metrics:    metrics,
		logger:     logger,
		now:        time.Now,
	}
}

// Run is the cron entry point.
func (rs *ReminderScanner) Run() {
	rs.RunCycle(context.Background())
}

// RunCycle sends every due PENDING reminder once and marks it SENT. A failure
// on one todo is logged and the sweep moves on to the next.
func (rs *ReminderScanner) RunCycle(ctx context.Context) CycleResult {
	startTime := time.Now()
	result := CycleResult{}

	if rs.lock != nil {
		release, acquired, err := rs.lock.TryLock(ctx, reminderLockKey, rs.lockTTL)

		switch {
		case err != nil:
			rs.logger.Warn("Reminder lock unavailable, sweeping without it", zap.Error(err))
		case !acquired:
			rs.logger.Debug("Reminder sweep already running elsewhere")
			rs.metrics.RecordReminderCycle(ctx, "locked", time.Since(startTime))
			return result
		default:
			defer release()
		}
	}

	due, err := rs.todos.FindDueReminders(ctx, rs.now())

	if err != nil {
		rs.logger.Error("Failed to load due reminders", zap.Error(err))
		rs.metrics.RecordReminderCycle(ctx, "error", time.Since(startTime))
		return result
	}

	result.Due = len(due)
	rs.logger.Debug("Found due reminders", zap.Int("count", result.Due))

	for _, todo := range due {
		if ctx.Err() != nil {
			rs.logger.Warn("Reminder sweep cancelled", zap.Int("remaining", result.Due-result.Sent-result.Skipped-result.Failed))
			break
		}

		switch outcome := rs.process(ctx, todo); outcome {
		case outcomeSent:
			result.Sent++
		case outcomeSkipped:
			result.Skipped++
		default:
			result.Failed++
		}
	}

	rs.metrics.RecordReminderCycle(ctx, "ok", time.Since(startTime))

	if result.Due > 0 {
		rs.logger.Info("Reminder sweep finished",
			zap.Int("due", result.Due),
			zap.Int("sent", result.Sent),
			zap.Int("skipped", result.Skipped),
			zap.Int("failed", result.Failed),
			zap.Duration("duration", time.Since(startTime)),
		)
	}

	return result
}

type reminderOutcome int

const (
	outcomeSent reminderOutcome = iota
	outcomeSkipped
	outcomeFailed
)

func (rs *ReminderScanner) process(ctx context.Context, todo domain.Todo) (outcome reminderOutcome) {
	defer func() {
		if r := recover(); r != nil {
			rs.logger.Error("Reminder processing panicked",
				zap.Int("todo_id", todo.ID),
				zap.Any("panic", r),
			)
			outcome = outcomeFailed
		}
	}()

	if todo.ReminderAt == nil {
		return outcomeSkipped
	}

	user, err := rs.users.FindByUsername(ctx, todo.Owner)

	if errors.Is(err, domain.ErrNotFound) {
		rs.logger.Warn("User not found for todo reminder",
			zap.Int("todo_id", todo.ID),
			zap.String("owner", todo.Owner),
		)
		return outcomeSkipped
	}

	if err != nil {
		rs.logger.Error("Failed to load reminder owner",
			zap.Int("todo_id", todo.ID),
			zap.String("owner", todo.Owner),
			zap.Error(err),
		)
		return outcomeFailed
	}

	rs.dispatcher.Dispatch(ctx, user, ReminderTitle, ReminderMessage(todo))

	changed, err := rs.todos.MarkReminderSent(ctx, todo.ID, *todo.ReminderAt)

	if err != nil {
		rs.logger.Error("Failed to mark reminder as sent",
			zap.Int("todo_id", todo.ID),
			zap.Error(err),
		)
		return outcomeFailed
	}

	if !changed {
		rs.logger.Debug("Reminder changed during dispatch",
			zap.Int("todo_id", todo.ID),
		)
		return outcomeSkipped
	}

	rs.metrics.RecordReminderSent(ctx)
	rs.logger.Info("Sent reminder notification",
		zap.Int("todo_id", todo.ID),
		zap.String("title", todo.Title),
	)

	return outcomeSent
}

// ReminderMessage renders the notification body, e.g.
// "Reminder: Pay rent (Due: Mar 01, 2026 at 09:00)".
func ReminderMessage(todo domain.Todo) string {
	message := "Reminder: " + todo.Title

	if todo.EndDate != nil {
		message += fmt.Sprintf(" (Due: %s)", todo.EndDate.UTC().Format(dueDateLayout))
	}

	return message
}
