package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"

	"todotracker/internal/adapter/database"
	"todotracker/internal/core/domain"
	"todotracker/internal/core/port"
	tel "todotracker/internal/core/telemetry"
)

var userColumns = []string{"id", "uuid", "username", "encrypted_password", "role", "status", "created_at", "updated_at"}

type UserRepository struct {
	db        *database.DB
	telemetry port.Telemetry
}

func NewUserRepository(db *database.DB, telemetry port.Telemetry) port.UserRepository {
	if telemetry == nil {
		telemetry = tel.NewNoOpProbe()
	}

	return &UserRepository{
		db:        db,
		telemetry: telemetry,
	}
}

func (ur *UserRepository) FindByID(ctx context.Context, id int) (domain.User, error) {
	return ur.findOne(ctx, "FindByID", sq.Eq{"id": id})
}

func (ur *UserRepository) FindByUsername(ctx context.Context, username string) (domain.User, error) {
	return ur.findOne(ctx, "FindByUsername", sq.Eq{"username": username})
}

func (ur *UserRepository) FindByStatus(ctx context.Context, status domain.UserStatus) ([]domain.User, error) {
	return ur.findMany(ctx, "FindByStatus", sq.Eq{"status": string(status)})
}

func (ur *UserRepository) FindAll(ctx context.Context) ([]domain.User, error) {
	return ur.findMany(ctx, "FindAll", nil)
}

func (ur *UserRepository) Create(ctx context.Context, user domain.User) (domain.User, error) {
	ctx, span := ur.telemetry.StartRepositorySpan(ctx, "Create", "user", map[string]interface{}{
		"db.system":    ur.db.Dialect,
		"db.table":     "users",
		"db.operation": "INSERT",
		"username":     user.Username,
	})
	defer span.End()

	startTime := time.Now()
	now := time.Now().UTC()

	if user.UUID == uuid.Nil {
		user.UUID = uuid.New()
	}

	if !user.Role.IsValid() {
		user.Role = domain.RoleUser
	}

	if !user.Status.IsValid() {
		user.Status = domain.UserPending
	}

	query, args, err := ur.db.QueryBuilder.Insert("users").
		Columns("uuid", "username", "encrypted_password", "role", "status", "created_at", "updated_at").
		Values(user.UUID.String(), user.Username, user.EncryptedPassword, string(user.Role), string(user.Status), now, now).
		Suffix("RETURNING id").
		ToSql()

	if err != nil {
		return domain.User{}, err
	}

	ur.telemetry.RecordRepositoryQuery(ctx, "Create", "user", query, args)

	if err := ur.db.QueryRowContext(ctx, query, args...).Scan(&user.ID); err != nil {
		if database.IsUniqueViolation(err) {
			err = fmt.Errorf("username %q: %w", user.Username, domain.ErrConflict)
		}

		span.SetStatus("error", err.Error())
		span.RecordError(err)
		ur.telemetry.RecordRepositoryOperation(ctx, "Create", "user", time.Since(startTime), err)

		return domain.User{}, err
	}

	user.CreatedAt = now
	user.UpdatedAt = now

	ur.telemetry.RecordBusinessEvent(ctx, "registered", "user", fmt.Sprint(user.ID), user.Username, map[string]interface{}{
		"role":   user.Role,
		"status": user.Status,
	})

	span.SetStatus("ok", "")
	ur.telemetry.RecordRepositoryOperation(ctx, "Create", "user", time.Since(startTime), nil)

	return user, nil
}

func (ur *UserRepository) UpdateStatus(ctx context.Context, id int, status domain.UserStatus) error {
	return ur.update(ctx, "UpdateStatus", id, map[string]interface{}{"status": string(status)})
}

func (ur *UserRepository) UpdatePassword(ctx context.Context, id int, encryptedPassword string) error {
	return ur.update(ctx, "UpdatePassword", id, map[string]interface{}{"encrypted_password": encryptedPassword})
}

func (ur *UserRepository) DeleteByID(ctx context.Context, id int) error {
	query, args, err := ur.db.QueryBuilder.Delete("users").
		Where(sq.Eq{"id": id}).
		ToSql()

	if err != nil {
		return err
	}

	result, err := ur.db.ExecContext(ctx, query, args...)

	if err != nil {
		slog.Error("Error deleting user", "id", id, "error", err)
		return err
	}

	if rowsAffected, err := result.RowsAffected(); err == nil && rowsAffected == 0 {
		return fmt.Errorf("user %d: %w", id, domain.ErrNotFound)
	}

	return nil
}

func (ur *UserRepository) update(ctx context.Context, operation string, id int, columns map[string]interface{}) error {
	columns["updated_at"] = time.Now().UTC()

	query, args, err := ur.db.QueryBuilder.Update("users").
		SetMap(columns).
		Where(sq.Eq{"id": id}).
		ToSql()

	if err != nil {
		return err
	}

	ur.telemetry.RecordRepositoryQuery(ctx, operation, "user", query, args)

	result, err := ur.db.ExecContext(ctx, query, args...)

	if err != nil {
		return err
	}

	if rowsAffected, err := result.RowsAffected(); err == nil && rowsAffected == 0 {
		return fmt.Errorf("user %d: %w", id, domain.ErrNotFound)
	}

	return nil
}

func (ur *UserRepository) findOne(ctx context.Context, operation string, where sq.Eq) (domain.User, error) {
	query, args, err := ur.db.QueryBuilder.Select(userColumns...).
		From("users").
		Where(where).
		Limit(1).
		ToSql()

	if err != nil {
		return domain.User{}, err
	}

	ur.telemetry.RecordRepositoryQuery(ctx, operation, "user", query, args)

	user, err := scanUser(ur.db.QueryRowContext(ctx, query, args...))

	if errors.Is(err, sql.ErrNoRows) {
		return domain.User{}, fmt.Errorf("user: %w", domain.ErrNotFound)
	}

	return user, err
}

func (ur *UserRepository) findMany(ctx context.Context, operation string, where sq.Sqlizer) ([]domain.User, error) {
	builder := ur.db.QueryBuilder.Select(userColumns...).
		From("users").
		OrderBy("created_at ASC", "id ASC")

	if where != nil {
		builder = builder.Where(where)
	}

	query, args, err := builder.ToSql()

	if err != nil {
		return nil, err
	}

	ur.telemetry.RecordRepositoryQuery(ctx, operation, "user", query, args)

	rows, err := ur.db.QueryContext(ctx, query, args...)

	if err != nil {
		return nil, err
	}

	defer rows.Close()

	users := make([]domain.User, 0)

	for rows.Next() {
		user, err := scanUser(rows)

		if err != nil {
			return nil, err
		}

		users = append(users, user)
	}

	return users, rows.Err()
}

func scanUser(row rowScanner) (domain.User, error) {
	var (
		user   domain.User
		uid    string
		role   string
		status string
	)

	err := row.Scan(&user.ID, &uid, &user.Username, &user.EncryptedPassword, &role, &status, &user.CreatedAt, &user.UpdatedAt)

	if err != nil {
		return domain.User{}, err
	}

	parsed, err := uuid.Parse(uid)

	if err != nil {
		return domain.User{}, fmt.Errorf("user %d has an invalid uuid: %w", user.ID, err)
	}

	user.UUID = parsed
	user.Role = domain.UserRole(role)
	user.Status = domain.UserStatus(status)
	user.CreatedAt = user.CreatedAt.UTC()
	user.UpdatedAt = user.UpdatedAt.UTC()

	return user, nil
}
