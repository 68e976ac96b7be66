package port

import (
	"context"
	"time"

	"todotracker/internal/core/domain"
	"todotracker/internal/core/model/request"
	"todotracker/internal/core/model/response"
)

// TodoUpdate always rewrites the plain columns of Todo. Tag links and the
// reminder pair are only written when their flag is set, so an edit that
// leaves the reminder alone cannot undo a concurrent PENDING to SENT move.
type TodoUpdate struct {
	Todo            domain.Todo
	ReplaceTags     bool
	ReplaceReminder bool
}

type TodoRepository interface {
	FindAllByOwner(ctx context.Context, owner string) ([]domain.Todo, error)
	FindPageByOwner(ctx context.Context, owner string, limit int, cursor string) ([]domain.Todo, bool, error)
	FindByIDAndOwner(ctx context.Context, id int, owner string) (domain.Todo, error)
	Create(ctx context.Context, todo domain.Todo) (domain.Todo, error)
	Update(ctx context.Context, update TodoUpdate) (domain.Todo, error)
	DeleteByIDAndOwner(ctx context.Context, id int, owner string) (bool, error)

	FindDueReminders(ctx context.Context, now time.Time) ([]domain.Todo, error)
	// MarkReminderSent moves a reminder from PENDING to SENT only if it is
	// still PENDING for the same reminderAt. It reports whether a row changed.
	MarkReminderSent(ctx context.Context, id int, reminderAt time.Time) (bool, error)
}

type TodoService interface {
	Create(ctx context.Context, owner string, req request.CreateTodoRequest) (domain.Todo, error)
	FindAllForOwner(ctx context.Context, owner string) ([]domain.Todo, error)
	FindPageForOwner(ctx context.Context, owner string, limit int, cursor string) (*response.CursorResponse, error)
	FindOneForOwner(ctx context.Context, id int, owner string) (domain.Todo, error)
	Update(ctx context.Context, id int, owner string, req request.UpdateTodoRequest) (domain.Todo, error)
	Delete(ctx context.Context, id int, owner string) error
}
