package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"

	"todotracker/internal/adapter/database"
	"todotracker/internal/core/domain"
	"todotracker/internal/core/port"
	tel "todotracker/internal/core/telemetry"
	"todotracker/pkg/db/cursor"
)

var todoColumns = []string{
	"id", "owner", "title", "completed", "start_date", "end_date", "activity_type",
	"reminder_at", "reminder_status", "created_at", "updated_at",
}

type TodoRepository struct {
	db        *database.DB
	telemetry port.Telemetry
}

func NewTodoRepository(db *database.DB, telemetry port.Telemetry) port.TodoRepository {
	if telemetry == nil {
		telemetry = tel.NewNoOpProbe()
	}

	return &TodoRepository{
		db:        db,
		telemetry: telemetry,
	}
}

func (tr *TodoRepository) FindAllByOwner(ctx context.Context, owner string) ([]domain.Todo, error) {
	ctx, span := tr.telemetry.StartRepositorySpan(ctx, "FindAllByOwner", "todo", map[string]interface{}{
		"db.system": tr.db.Dialect,
		"db.table":  "todos",
		"owner":     owner,
	})
	defer span.End()

	startTime := time.Now()

	query, args, err := tr.db.QueryBuilder.Select(todoColumns...).
		From("todos").
		Where(sq.Eq{"owner": owner}).
		OrderBy("created_at DESC", "id DESC").
		ToSql()

	if err != nil {
		return nil, tr.fail(ctx, span, "FindAllByOwner", startTime, err)
	}

	tr.telemetry.RecordRepositoryQuery(ctx, "FindAllByOwner", "todo", query, args)

	todos, err := tr.queryTodos(ctx, query, args)

	if err != nil {
		return nil, tr.fail(ctx, span, "FindAllByOwner", startTime, err)
	}

	span.SetAttributes(map[string]interface{}{"db.rows_returned": len(todos)})
	tr.succeed(ctx, span, "FindAllByOwner", startTime)

	return todos, nil
}

func (tr *TodoRepository) FindPageByOwner(ctx context.Context, owner string, limit int, token string) ([]domain.Todo, bool, error) {
	ctx, span := tr.telemetry.StartRepositorySpan(ctx, "FindPageByOwner", "todo", map[string]interface{}{
		"db.system":         tr.db.Dialect,
		"db.table":          "todos",
		"owner":             owner,
		"pagination.limit":  limit,
		"pagination.cursor": token,
	})
	defer span.End()

	startTime := time.Now()

	query := tr.db.QueryBuilder.Select(todoColumns...).
		From("todos").
		Where(sq.Eq{"owner": owner}).
		OrderBy("created_at DESC", "id DESC").
		Limit(uint64(limit + 1))

	if token != "" {
		createdAt, id, err := cursor.DecodeCursor(token)

		if err != nil {
			return nil, false, tr.fail(ctx, span, "FindPageByOwner", startTime, fmt.Errorf("%w: %w", domain.ErrValidation, err))
		}

		query = query.Where(sq.Or{
			sq.Lt{"created_at": createdAt},
			sq.And{
				sq.Eq{"created_at": createdAt},
				sq.Lt{"id": id},
			},
		})
	}

	sqlQuery, args, err := query.ToSql()

	if err != nil {
		return nil, false, tr.fail(ctx, span, "FindPageByOwner", startTime, err)
	}

	tr.telemetry.RecordRepositoryQuery(ctx, "FindPageByOwner", "todo", sqlQuery, args)

	todos, err := tr.queryTodos(ctx, sqlQuery, args)

	if err != nil {
		return nil, false, tr.fail(ctx, span, "FindPageByOwner", startTime, err)
	}

	hasNext := len(todos) > limit

	if hasNext {
		todos = todos[:limit]
	}

	span.SetAttributes(map[string]interface{}{
		"db.rows_returned": len(todos),
		"db.has_next":      hasNext,
	})
	tr.succeed(ctx, span, "FindPageByOwner", startTime)

	return todos, hasNext, nil
}

func (tr *TodoRepository) FindByIDAndOwner(ctx context.Context, id int, owner string) (domain.Todo, error) {
	query, args, err := tr.db.QueryBuilder.Select(todoColumns...).
		From("todos").
		Where(sq.Eq{"id": id, "owner": owner}).
		Limit(1).
		ToSql()

	if err != nil {
		return domain.Todo{}, err
	}

	todos, err := tr.queryTodos(ctx, query, args)

	if err != nil {
		return domain.Todo{}, err
	}

	if len(todos) == 0 {
		return domain.Todo{}, fmt.Errorf("todo %d: %w", id, domain.ErrNotFound)
	}

	return todos[0], nil
}

func (tr *TodoRepository) Create(ctx context.Context, todo domain.Todo) (domain.Todo, error) {
	ctx, span := tr.telemetry.StartRepositorySpan(ctx, "Create", "todo", map[string]interface{}{
		"db.system":    tr.db.Dialect,
		"db.table":     "todos",
		"db.operation": "INSERT",
		"owner":        todo.Owner,
		"todo.tags":    len(todo.Tags),
	})
	defer span.End()

	startTime := time.Now()
	now := time.Now().UTC()

	var id int

	err := tr.db.WithTx(ctx, func(tx *sql.Tx) error {
		query, args, err := tr.db.QueryBuilder.Insert("todos").
			Columns("owner", "title", "completed", "start_date", "end_date", "activity_type",
				"reminder_at", "reminder_status", "created_at", "updated_at").
			Values(todo.Owner, todo.Title, todo.Completed, utcOrNil(todo.StartDate), utcOrNil(todo.EndDate),
				todo.ActivityType, utcOrNil(todo.ReminderAt), statusOrNil(todo.ReminderStatus), now, now).
			Suffix("RETURNING id").
			ToSql()

		if err != nil {
			return err
		}

		tr.telemetry.RecordRepositoryQuery(ctx, "Create", "todo", query, args)

		if err := tx.QueryRowContext(ctx, query, args...).Scan(&id); err != nil {
			return err
		}

		return tr.linkTags(ctx, tx, id, todo.TagIDs())
	})

	if err != nil {
		return domain.Todo{}, tr.fail(ctx, span, "Create", startTime, err)
	}

	saved, err := tr.FindByIDAndOwner(ctx, id, todo.Owner)

	if err != nil {
		return domain.Todo{}, tr.fail(ctx, span, "Create", startTime, err)
	}

	tr.telemetry.RecordBusinessEvent(ctx, "created", "todo", fmt.Sprint(saved.ID), saved.Owner, map[string]interface{}{
		"tags":         len(saved.Tags),
		"has_reminder": saved.ReminderAt != nil,
	})

	tr.succeed(ctx, span, "Create", startTime)

	return saved, nil
}

func (tr *TodoRepository) Update(ctx context.Context, update port.TodoUpdate) (domain.Todo, error) {
	todo := update.Todo

	ctx, span := tr.telemetry.StartRepositorySpan(ctx, "Update", "todo", map[string]interface{}{
		"db.system":        tr.db.Dialect,
		"db.table":         "todos",
		"db.operation":     "UPDATE",
		"todo.id":          todo.ID,
		"owner":            todo.Owner,
		"replace_tags":     update.ReplaceTags,
		"replace_reminder": update.ReplaceReminder,
	})
	defer span.End()

	startTime := time.Now()

	columns := map[string]interface{}{
		"title":         todo.Title,
		"completed":     todo.Completed,
		"start_date":    utcOrNil(todo.StartDate),
		"end_date":      utcOrNil(todo.EndDate),
		"activity_type": todo.ActivityType,
		"updated_at":    time.Now().UTC(),
	}

	if update.ReplaceReminder {
		columns["reminder_at"] = utcOrNil(todo.ReminderAt)
		columns["reminder_status"] = statusOrNil(todo.ReminderStatus)
	}

	err := tr.db.WithTx(ctx, func(tx *sql.Tx) error {
		query, args, err := tr.db.QueryBuilder.Update("todos").
			SetMap(columns).
			Where(sq.Eq{"id": todo.ID, "owner": todo.Owner}).
			ToSql()

		if err != nil {
			return err
		}

		tr.telemetry.RecordRepositoryQuery(ctx, "Update", "todo", query, args)

		result, err := tx.ExecContext(ctx, query, args...)

		if err != nil {
			return err
		}

		if rowsAffected, err := result.RowsAffected(); err == nil && rowsAffected == 0 {
			return fmt.Errorf("todo %d: %w", todo.ID, domain.ErrNotFound)
		}

		if !update.ReplaceTags {
			return nil
		}

		query, args, err = tr.db.QueryBuilder.Delete("todo_tags").
			Where(sq.Eq{"todo_id": todo.ID}).
			ToSql()

		if err != nil {
			return err
		}

		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return err
		}

		return tr.linkTags(ctx, tx, todo.ID, todo.TagIDs())
	})

	if err != nil {
		return domain.Todo{}, tr.fail(ctx, span, "Update", startTime, err)
	}

	updated, err := tr.FindByIDAndOwner(ctx, todo.ID, todo.Owner)

	if err != nil {
		return domain.Todo{}, tr.fail(ctx, span, "Update", startTime, err)
	}

	tr.telemetry.RecordBusinessEvent(ctx, "updated", "todo", fmt.Sprint(updated.ID), updated.Owner, map[string]interface{}{
		"replace_tags":     update.ReplaceTags,
		"replace_reminder": update.ReplaceReminder,
	})

	tr.succeed(ctx, span, "Update", startTime)

	return updated, nil
}

// DeleteByIDAndOwner removes the todo and, through the cascade, its tag
// links. The tags themselves are kept.
func (tr *TodoRepository) DeleteByIDAndOwner(ctx context.Context, id int, owner string) (bool, error) {
	query, args, err := tr.db.QueryBuilder.Delete("todos").
		Where(sq.Eq{"id": id, "owner": owner}).
		ToSql()

	if err != nil {
		return false, err
	}

	result, err := tr.db.ExecContext(ctx, query, args...)

	if err != nil {
		return false, err
	}

	rowsAffected, err := result.RowsAffected()

	if err != nil {
		return false, err
	}

	return rowsAffected > 0, nil
}

func (tr *TodoRepository) FindDueReminders(ctx context.Context, now time.Time) ([]domain.Todo, error) {
	ctx, span := tr.telemetry.StartRepositorySpan(ctx, "FindDueReminders", "todo", map[string]interface{}{
		"db.system": tr.db.Dialect,
		"db.table":  "todos",
	})
	defer span.End()

	startTime := time.Now()

	query, args, err := tr.db.QueryBuilder.Select(todoColumns...).
		From("todos").
		Where(sq.Eq{"reminder_status": string(domain.ReminderPending)}).
		Where(sq.LtOrEq{"reminder_at": now.UTC()}).
		OrderBy("reminder_at ASC", "id ASC").
		ToSql()

	if err != nil {
		return nil, tr.fail(ctx, span, "FindDueReminders", startTime, err)
	}

	todos, err := tr.scanTodos(ctx, query, args)

	if err != nil {
		return nil, tr.fail(ctx, span, "FindDueReminders", startTime, err)
	}

	span.SetAttributes(map[string]interface{}{"db.rows_returned": len(todos)})
	tr.succeed(ctx, span, "FindDueReminders", startTime)

	return todos, nil
}

func (tr *TodoRepository) MarkReminderSent(ctx context.Context, id int, reminderAt time.Time) (bool, error) {
	query, args, err := tr.db.QueryBuilder.Update("todos").
		Set("reminder_status", string(domain.ReminderSent)).
		Set("updated_at", time.Now().UTC()).
		Where(sq.Eq{
			"id":              id,
			"reminder_status": string(domain.ReminderPending),
			"reminder_at":     reminderAt.UTC(),
		}).
		ToSql()

	if err != nil {
		return false, err
	}

	result, err := tr.db.ExecContext(ctx, query, args...)

	if err != nil {
		return false, err
	}

	rowsAffected, err := result.RowsAffected()

	if err != nil {
		return false, err
	}

	return rowsAffected == 1, nil
}

func (tr *TodoRepository) linkTags(ctx context.Context, tx *sql.Tx, todoID int, tagIDs []int) error {
	if len(tagIDs) == 0 {
		return nil
	}

	insert := tr.db.QueryBuilder.Insert("todo_tags").Columns("todo_id", "tag_id")
	seen := make(map[int]struct{}, len(tagIDs))

	for _, tagID := range tagIDs {
		if _, ok := seen[tagID]; ok {
			continue
		}

		seen[tagID] = struct{}{}
		insert = insert.Values(todoID, tagID)
	}

	query, args, err := insert.ToSql()

	if err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx, query, args...)

	return err
}

// queryTodos scans the rows first and loads tags afterwards, so no two
// result sets are open on the same connection.
func (tr *TodoRepository) queryTodos(ctx context.Context, query string, args []interface{}) ([]domain.Todo, error) {
	todos, err := tr.scanTodos(ctx, query, args)

	if err != nil {
		return nil, err
	}

	if err := tr.loadTags(ctx, todos); err != nil {
		return nil, err
	}

	return todos, nil
}

func (tr *TodoRepository) scanTodos(ctx context.Context, query string, args []interface{}) ([]domain.Todo, error) {
	rows, err := tr.db.QueryContext(ctx, query, args...)

	if err != nil {
		return nil, err
	}

	defer rows.Close()

	todos := make([]domain.Todo, 0)

	for rows.Next() {
		todo, err := scanTodo(rows)

		if err != nil {
			return nil, err
		}

		todos = append(todos, todo)
	}

	return todos, rows.Err()
}

func (tr *TodoRepository) loadTags(ctx context.Context, todos []domain.Todo) error {
	if len(todos) == 0 {
		return nil
	}

	ids := make([]int, 0, len(todos))
	index := make(map[int]int, len(todos))

	for i, todo := range todos {
		ids = append(ids, todo.ID)
		index[todo.ID] = i
	}

	query, args, err := tr.db.QueryBuilder.Select("tt.todo_id", "t.id", "t.name").
		From("todo_tags tt").
		Join("tags t ON t.id = tt.tag_id").
		Where(sq.Eq{"tt.todo_id": ids}).
		OrderBy("t.name ASC").
		ToSql()

	if err != nil {
		return err
	}

	rows, err := tr.db.QueryContext(ctx, query, args...)

	if err != nil {
		return err
	}

	defer rows.Close()

	for rows.Next() {
		var todoID int
		var tag domain.Tag

		if err := rows.Scan(&todoID, &tag.ID, &tag.Name); err != nil {
			return err
		}

		if i, ok := index[todoID]; ok {
			todos[i].Tags = append(todos[i].Tags, tag)
		}
	}

	return rows.Err()
}

func (tr *TodoRepository) fail(ctx context.Context, span port.Span, operation string, startTime time.Time, err error) error {
	span.SetStatus("error", err.Error())
	span.RecordError(err)
	tr.telemetry.RecordRepositoryOperation(ctx, operation, "todo", time.Since(startTime), err)

	return err
}

func (tr *TodoRepository) succeed(ctx context.Context, span port.Span, operation string, startTime time.Time) {
	span.SetStatus("ok", "")
	tr.telemetry.RecordRepositoryOperation(ctx, operation, "todo", time.Since(startTime), nil)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTodo(row rowScanner) (domain.Todo, error) {
	var (
		todo           domain.Todo
		startDate      sql.NullTime
		endDate        sql.NullTime
		reminderAt     sql.NullTime
		reminderStatus sql.NullString
	)

	err := row.Scan(
		&todo.ID,
		&todo.Owner,
		&todo.Title,
		&todo.Completed,
		&startDate,
		&endDate,
		&todo.ActivityType,
		&reminderAt,
		&reminderStatus,
		&todo.CreatedAt,
		&todo.UpdatedAt,
	)

	if err != nil {
		return domain.Todo{}, err
	}

	todo.StartDate = timePtr(startDate)
	todo.EndDate = timePtr(endDate)
	todo.ReminderAt = timePtr(reminderAt)
	todo.CreatedAt = todo.CreatedAt.UTC()
	todo.UpdatedAt = todo.UpdatedAt.UTC()
	todo.Tags = []domain.Tag{}

	if reminderStatus.Valid {
		status := domain.ReminderStatus(reminderStatus.String)

		if !status.IsValid() {
			return domain.Todo{}, errors.New("unknown reminder status " + reminderStatus.String)
		}

		todo.ReminderStatus = &status
	}

	return todo, nil
}

func timePtr(value sql.NullTime) *time.Time {
	if !value.Valid {
		return nil
	}

	t := value.Time.UTC()
	return &t
}

func utcOrNil(t *time.Time) interface{} {
	if t == nil {
		return nil
	}

	return t.UTC()
}

func statusOrNil(status *domain.ReminderStatus) interface{} {
	if status == nil {
		return nil
	}

	return string(*status)
}
