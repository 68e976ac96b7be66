package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"todotracker/internal/core/domain"
	"todotracker/internal/core/model/request"
	"todotracker/internal/core/model/response"
	"todotracker/internal/core/port"
	tel "todotracker/internal/core/telemetry"
	"todotracker/internal/core/util"
	"todotracker/pkg/db/cursor"
)

const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

type TodoService struct {
	repo      port.TodoRepository
	tags      port.TagResolver
	telemetry port.Telemetry
	now       func() time.Time
}

func NewTodoService(repo port.TodoRepository, tags port.TagResolver, telemetry port.Telemetry) *TodoService {
	if telemetry == nil {
		telemetry = tel.NewNoOpProbe()
	}

	return &TodoService{
		repo:      repo,
		tags:      tags,
		telemetry: telemetry,
		now:       time.Now,
	}
}

func (ts *TodoService) Create(ctx context.Context, owner string, req request.CreateTodoRequest) (domain.Todo, error) {
	ctx, span := ts.telemetry.StartServiceSpan(ctx, "TodoService", "Create", owner, map[string]interface{}{
		"todo.tags":         len(req.Tags),
		"todo.has_reminder": req.ReminderAt != nil,
	})
	defer span.End()

	startTime := time.Now()

	title := strings.TrimSpace(req.Title)

	if title == "" {
		return domain.Todo{}, ts.fail(ctx, span, "Create", owner, startTime, fmt.Errorf("%w: title is required", domain.ErrValidation))
	}

	tags, err := ts.tags.Resolve(ctx, req.Tags)

	if err != nil {
		return domain.Todo{}, ts.fail(ctx, span, "Create", owner, startTime, err)
	}

	todo := domain.Todo{
		Owner:        owner,
		Title:        title,
		Completed:    req.Completed,
		StartDate:    utc(req.StartDate),
		EndDate:      utc(req.EndDate),
		ActivityType: req.ActivityType,
		Tags:         tags,
	}

	todo.ScheduleReminder(req.ReminderAt)

	created, err := ts.repo.Create(ctx, todo)

	if err != nil {
		slog.Error("TodoService#Create", "error", err, "owner", owner)
		return domain.Todo{}, ts.fail(ctx, span, "Create", owner, startTime, err)
	}

	span.SetStatus("ok", "")
	ts.telemetry.RecordServiceOperation(ctx, "TodoService", "Create", owner, time.Since(startTime), nil)

	return created, nil
}

func (ts *TodoService) FindAllForOwner(ctx context.Context, owner string) ([]domain.Todo, error) {
	return ts.repo.FindAllByOwner(ctx, owner)
}

func (ts *TodoService) FindPageForOwner(ctx context.Context, owner string, limit int, token string) (*response.CursorResponse, error) {
	if limit <= 0 {
		limit = DefaultPageSize
	}

	if limit > MaxPageSize {
		limit = MaxPageSize
	}

	rows, hasNext, err := ts.repo.FindPageByOwner(ctx, owner, limit, token)

	if err != nil {
		return nil, err
	}

	data := response.NewTodoListResponse(rows)

	var nextCursor string

	if hasNext && len(rows) > 0 {
		last := rows[len(rows)-1]
		nextCursor = cursor.EncodeCursor(last.CreatedAt, last.ID)
	}

	dataBytes, err := util.Serialize(data)

	if err != nil {
		return nil, err
	}

	return &response.CursorResponse{
		Size: len(data),
		Data: dataBytes,
		Pagination: response.Pagination{
			HasNext:    hasNext,
			NextCursor: nextCursor,
		},
	}, nil
}

func (ts *TodoService) FindOneForOwner(ctx context.Context, id int, owner string) (domain.Todo, error) {
	return ts.repo.FindByIDAndOwner(ctx, id, owner)
}

// Update applies only the fields present in req. Marking a todo completed
// stamps endDate with the current time unless the request carries one.
func (ts *TodoService) Update(ctx context.Context, id int, owner string, req request.UpdateTodoRequest) (domain.Todo, error) {
	ctx, span := ts.telemetry.StartServiceSpan(ctx, "TodoService", "Update", owner, map[string]interface{}{
		"todo.id":           id,
		"todo.tags_present": req.Tags.Set && !req.Tags.Null,
		"todo.reminder_set": req.ReminderAt.Set,
	})
	defer span.End()

	startTime := time.Now()

	todo, err := ts.repo.FindByIDAndOwner(ctx, id, owner)

	if err != nil {
		return domain.Todo{}, ts.fail(ctx, span, "Update", owner, startTime, err)
	}

	update := port.TodoUpdate{}

	if req.Title.Set {
		title := strings.TrimSpace(req.Title.Value)

		if req.Title.Null || title == "" {
			return domain.Todo{}, ts.fail(ctx, span, "Update", owner, startTime, fmt.Errorf("%w: title cannot be blank", domain.ErrValidation))
		}

		todo.Title = title
	}

	completing := false

	if completed, ok := req.Completed.Get(); ok {
		completing = completed && !todo.Completed
		todo.Completed = completed
	}

	if req.StartDate.Set {
		todo.StartDate = utc(req.StartDate.Ptr())
	}

	if req.EndDate.Set {
		todo.EndDate = utc(req.EndDate.Ptr())
	}

	// Only a concrete endDate overrides the completion stamp, null does not.
	if completing && (!req.EndDate.Set || req.EndDate.Null) {
		now := ts.now().UTC()
		todo.EndDate = &now
	}

	if req.ActivityType.Set {
		todo.ActivityType = req.ActivityType.Value
	}

	// null tags leave the set untouched, an empty list clears it.
	if req.Tags.Set && !req.Tags.Null {
		tags, err := ts.tags.Resolve(ctx, req.Tags.Value)

		if err != nil {
			return domain.Todo{}, ts.fail(ctx, span, "Update", owner, startTime, err)
		}

		todo.Tags = tags
		update.ReplaceTags = true
	}

	if req.ReminderAt.Set {
		todo.ScheduleReminder(req.ReminderAt.Ptr())
		update.ReplaceReminder = true
	}

	update.Todo = todo

	updated, err := ts.repo.Update(ctx, update)

	if err != nil {
		return domain.Todo{}, ts.fail(ctx, span, "Update", owner, startTime, err)
	}

	span.SetStatus("ok", "")
	ts.telemetry.RecordServiceOperation(ctx, "TodoService", "Update", owner, time.Since(startTime), nil)

	return updated, nil
}

// Delete succeeds whether or not a matching todo existed.
func (ts *TodoService) Delete(ctx context.Context, id int, owner string) error {
	deleted, err := ts.repo.DeleteByIDAndOwner(ctx, id, owner)

	if err != nil {
		return err
	}

	if !deleted {
		slog.Debug("TodoService#Delete", "id", id, "owner", owner, "result", "nothing to delete")
	}

	return nil
}

func (ts *TodoService) fail(ctx context.Context, span port.Span, operation string, owner string, startTime time.Time, err error) error {
	span.SetStatus("error", err.Error())
	span.RecordError(err)
	ts.telemetry.RecordServiceOperation(ctx, "TodoService", operation, owner, time.Since(startTime), err)

	return err
}

func utc(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}

	value := t.UTC()
	return &value
}
