package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/mattn/go-sqlite3"
)

const (
	DialectSQLite   = "sqlite"
	DialectPostgres = "postgres"
)

// DB is shared by every repository regardless of the engine behind it. The
// query builder carries the placeholder format of the dialect.
type DB struct {
	*sql.DB
	QueryBuilder *squirrel.StatementBuilderType
	Dialect      string
}

func New(sqlDB *sql.DB, dialect string) *DB {
	var format squirrel.PlaceholderFormat = squirrel.Question

	if dialect == DialectPostgres {
		format = squirrel.Dollar
	}

	queryBuilder := squirrel.StatementBuilder.PlaceholderFormat(format)

	return &DB{
		DB:           sqlDB,
		QueryBuilder: &queryBuilder,
		Dialect:      dialect,
	}
}

// IsUniqueViolation reports whether err comes from a UNIQUE or primary key
// constraint in either engine.
func IsUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
			sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}

	return false
}

// WithTx runs fn inside a transaction and commits when it returns nil.
func (db *DB) WithTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, nil)

	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return errors.Join(err, rbErr)
		}

		return err
	}

	return tx.Commit()
}
