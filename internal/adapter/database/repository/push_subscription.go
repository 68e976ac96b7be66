package repository

import (
	"context"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"

	"todotracker/internal/adapter/database"
	"todotracker/internal/core/domain"
	"todotracker/internal/core/port"
	tel "todotracker/internal/core/telemetry"
)

type PushSubscriptionRepository struct {
	db        *database.DB
	telemetry port.Telemetry
}

func NewPushSubscriptionRepository(db *database.DB, telemetry port.Telemetry) port.PushSubscriptionRepository {
	if telemetry == nil {
		telemetry = tel.NewNoOpProbe()
	}

	return &PushSubscriptionRepository{
		db:        db,
		telemetry: telemetry,
	}
}

func (pr *PushSubscriptionRepository) Create(ctx context.Context, sub domain.PushSubscription) (domain.PushSubscription, error) {
	ctx, span := pr.telemetry.StartRepositorySpan(ctx, "Create", "push_subscription", map[string]interface{}{
		"db.system":    pr.db.Dialect,
		"db.table":     "push_subscriptions",
		"db.operation": "INSERT",
		"user.id":      sub.UserID,
	})
	defer span.End()

	startTime := time.Now()
	sub.CreatedAt = time.Now().UTC()

	query, args, err := pr.db.QueryBuilder.Insert("push_subscriptions").
		Columns("user_id", "endpoint", "p256dh_key", "auth_key", "created_at").
		Values(sub.UserID, sub.Endpoint, sub.P256dhKey, sub.AuthKey, sub.CreatedAt).
		Suffix("RETURNING id").
		ToSql()

	if err != nil {
		return domain.PushSubscription{}, err
	}

	if err := pr.db.QueryRowContext(ctx, query, args...).Scan(&sub.ID); err != nil {
		if database.IsUniqueViolation(err) {
			err = fmt.Errorf("push subscription: %w", domain.ErrConflict)
		}

		span.SetStatus("error", err.Error())
		span.RecordError(err)
		pr.telemetry.RecordRepositoryOperation(ctx, "Create", "push_subscription", time.Since(startTime), err)

		return domain.PushSubscription{}, err
	}

	span.SetStatus("ok", "")
	pr.telemetry.RecordRepositoryOperation(ctx, "Create", "push_subscription", time.Since(startTime), nil)

	return sub, nil
}

func (pr *PushSubscriptionRepository) Exists(ctx context.Context, userID int, endpoint string) (bool, error) {
	query, args, err := pr.db.QueryBuilder.Select("COUNT(*)").
		From("push_subscriptions").
		Where(sq.Eq{"user_id": userID, "endpoint": endpoint}).
		ToSql()

	if err != nil {
		return false, err
	}

	var count int

	if err := pr.db.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return false, err
	}

	return count > 0, nil
}

func (pr *PushSubscriptionRepository) FindByUserID(ctx context.Context, userID int) ([]domain.PushSubscription, error) {
	query, args, err := pr.db.QueryBuilder.Select("id", "user_id", "endpoint", "p256dh_key", "auth_key", "created_at").
		From("push_subscriptions").
		Where(sq.Eq{"user_id": userID}).
		OrderBy("id ASC").
		ToSql()

	if err != nil {
		return nil, err
	}

	rows, err := pr.db.QueryContext(ctx, query, args...)

	if err != nil {
		return nil, err
	}

	defer rows.Close()

	subs := make([]domain.PushSubscription, 0)

	for rows.Next() {
		var sub domain.PushSubscription

		if err := rows.Scan(&sub.ID, &sub.UserID, &sub.Endpoint, &sub.P256dhKey, &sub.AuthKey, &sub.CreatedAt); err != nil {
			return nil, err
		}

		sub.CreatedAt = sub.CreatedAt.UTC()
		subs = append(subs, sub)
	}

	return subs, rows.Err()
}

func (pr *PushSubscriptionRepository) CountByUserID(ctx context.Context, userID int) (int, error) {
	query, args, err := pr.db.QueryBuilder.Select("COUNT(*)").
		From("push_subscriptions").
		Where(sq.Eq{"user_id": userID}).
		ToSql()

	if err != nil {
		return 0, err
	}

	var count int

	err = pr.db.QueryRowContext(ctx, query, args...).Scan(&count)

	return count, err
}

func (pr *PushSubscriptionRepository) DeleteByID(ctx context.Context, id int) error {
	_, err := pr.delete(ctx, sq.Eq{"id": id})
	return err
}

func (pr *PushSubscriptionRepository) DeleteByUserAndEndpoint(ctx context.Context, userID int, endpoint string) (int64, error) {
	return pr.delete(ctx, sq.Eq{"user_id": userID, "endpoint": endpoint})
}

func (pr *PushSubscriptionRepository) DeleteByUserID(ctx context.Context, userID int) (int64, error) {
	return pr.delete(ctx, sq.Eq{"user_id": userID})
}

func (pr *PushSubscriptionRepository) delete(ctx context.Context, where sq.Eq) (int64, error) {
	query, args, err := pr.db.QueryBuilder.Delete("push_subscriptions").
		Where(where).
		ToSql()

	if err != nil {
		return 0, err
	}

	result, err := pr.db.ExecContext(ctx, query, args...)

	if err != nil {
		return 0, err
	}

	return result.RowsAffected()
}
