package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"

	"todotracker/internal/adapter/database"
	"todotracker/internal/core/domain"
	"todotracker/internal/core/port"
	tel "todotracker/internal/core/telemetry"
)

type TagRepository struct {
	db        *database.DB
	telemetry port.Telemetry
}

func NewTagRepository(db *database.DB, telemetry port.Telemetry) port.TagRepository {
	if telemetry == nil {
		telemetry = tel.NewNoOpProbe()
	}

	return &TagRepository{
		db:        db,
		telemetry: telemetry,
	}
}

func (tr *TagRepository) FindByName(ctx context.Context, name string) (domain.Tag, error) {
	query, args, err := tr.db.QueryBuilder.Select("id", "name").
		From("tags").
		Where(sq.Expr("lower(name) = ?", domain.NormalizeTagName(name))).
		Limit(1).
		ToSql()

	if err != nil {
		return domain.Tag{}, err
	}

	var tag domain.Tag

	err = tr.db.QueryRowContext(ctx, query, args...).Scan(&tag.ID, &tag.Name)

	if errors.Is(err, sql.ErrNoRows) {
		return domain.Tag{}, fmt.Errorf("tag %q: %w", name, domain.ErrNotFound)
	}

	if err != nil {
		return domain.Tag{}, err
	}

	return tag, nil
}

func (tr *TagRepository) Create(ctx context.Context, name string) (domain.Tag, error) {
	ctx, span := tr.telemetry.StartRepositorySpan(ctx, "Create", "tag", map[string]interface{}{
		"db.system":    tr.db.Dialect,
		"db.table":     "tags",
		"db.operation": "INSERT",
		"tag.name":     name,
	})
	defer span.End()

	startTime := time.Now()

	query, args, err := tr.db.QueryBuilder.Insert("tags").
		Columns("name").
		Values(name).
		Suffix("RETURNING id").
		ToSql()

	if err != nil {
		return domain.Tag{}, err
	}

	tr.telemetry.RecordRepositoryQuery(ctx, "Create", "tag", query, args)

	tag := domain.Tag{Name: name}

	if err := tr.db.QueryRowContext(ctx, query, args...).Scan(&tag.ID); err != nil {
		if database.IsUniqueViolation(err) {
			err = fmt.Errorf("tag %q: %w", name, domain.ErrConflict)
		}

		span.SetStatus("error", err.Error())
		span.RecordError(err)
		tr.telemetry.RecordRepositoryOperation(ctx, "Create", "tag", time.Since(startTime), err)

		return domain.Tag{}, err
	}

	span.SetStatus("ok", "")
	tr.telemetry.RecordRepositoryOperation(ctx, "Create", "tag", time.Since(startTime), nil)

	return tag, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`)

// Suggest returns tags whose name contains term literally, in name order.
func (tr *TagRepository) Suggest(ctx context.Context, term string, limit int) ([]domain.Tag, error) {
	query, args, err := tr.db.QueryBuilder.Select("id", "name").
		From("tags").
		Where(sq.Expr(`lower(name) LIKE ? ESCAPE '\'`, "%"+likeEscaper.Replace(domain.NormalizeTagName(term))+"%")).
		OrderBy("name ASC").
		Limit(uint64(limit)).
		ToSql()

	if err != nil {
		return nil, err
	}

	rows, err := tr.db.QueryContext(ctx, query, args...)

	if err != nil {
		return nil, err
	}

	defer rows.Close()

	tags := make([]domain.Tag, 0)

	for rows.Next() {
		var tag domain.Tag

		if err := rows.Scan(&tag.ID, &tag.Name); err != nil {
			return nil, err
		}

		tags = append(tags, tag)
	}

	return tags, rows.Err()
}
