// Package postgres implements apkstore.Catalog on PostgreSQL via pgx.
//
// Expected schema:
//
//	CREATE TABLE apks (
//	    id                    UUID PRIMARY KEY,
//	    name                  TEXT NOT NULL,
//	    slug                  TEXT NOT NULL,
//	    description           TEXT NOT NULL DEFAULT '',
//	    category              TEXT NOT NULL DEFAULT '',
//	    storage_backend       TEXT NOT NULL,
//	    artifact_key          TEXT NOT NULL,
//	    artifact_name         TEXT NOT NULL DEFAULT '',
//	    artifact_size         BIGINT NOT NULL DEFAULT 0,
//	    artifact_content_type TEXT NOT NULL DEFAULT '',
//	    preview_key           TEXT NOT NULL DEFAULT '',
//	    preview_name          TEXT NOT NULL DEFAULT '',
//	    created_at            TIMESTAMPTZ NOT NULL
//	);
//	CREATE UNIQUE INDEX apks_slug_key ON apks (slug);
//
// The unique index is the catalog-level backstop for slug uniqueness; a
// violation surfaces as apkstore.ErrSlugConflict.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/alphastore/apkstore/pkg/apkstore"
)

// DBTX is an interface that allows us to use either a connection pool or a
// transaction
type DBTX interface {
	Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error)
	Query(context.Context, string, ...interface{}) (pgx.Rows, error)
	QueryRow(context.Context, string, ...interface{}) pgx.Row
}

// Repository implements apkstore.Catalog using PostgreSQL
type Repository struct {
	db DBTX
}

// New creates a new PostgreSQL catalog
func New(db DBTX) *Repository {
	return &Repository{db: db}
}

// NewWithPool creates a new PostgreSQL catalog with a connection pool
func NewWithPool(pool *pgxpool.Pool) *Repository {
	return &Repository{db: pool}
}

// handlePostgresError maps driver errors onto the catalog's error contract
func (r *Repository) handlePostgresError(operation string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505": // unique_violation
			if strings.Contains(pgErr.ConstraintName, "slug") {
				return apkstore.ErrSlugConflict
			}
			return fmt.Errorf("duplicate entry")
		case "23502": // not_null_violation
			return fmt.Errorf("required field %s is missing", pgErr.ColumnName)
		case "42P01": // undefined_table
			return fmt.Errorf("table does not exist - database migration required")
		default:
			return fmt.Errorf("database error in %s: %s (code: %s)", operation, pgErr.Message, pgErr.Code)
		}
	}

	return fmt.Errorf("database error in %s: %w", operation, err)
}

func (r *Repository) CreateApk(ctx context.Context, apk *apkstore.Apk) error {
	query := `
		INSERT INTO apks (
			id, name, slug, description, category, storage_backend,
			artifact_key, artifact_name, artifact_size, artifact_content_type,
			preview_key, preview_name, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`

	_, err := r.db.Exec(ctx, query,
		apk.ID, apk.Name, apk.Slug, apk.Description, apk.Category,
		apk.StorageBackend, apk.ArtifactKey, apk.ArtifactName,
		apk.ArtifactSize, apk.ArtifactContentType,
		apk.PreviewKey, apk.PreviewName, apk.CreatedAt)

	if err != nil {
		return r.handlePostgresError("create apk", err)
	}

	return nil
}

const apkColumns = `id, name, slug, description, category, storage_backend,
		artifact_key, artifact_name, artifact_size, artifact_content_type,
		preview_key, preview_name, created_at`

func scanApk(row pgx.Row) (*apkstore.Apk, error) {
	var apk apkstore.Apk
	err := row.Scan(
		&apk.ID, &apk.Name, &apk.Slug, &apk.Description, &apk.Category,
		&apk.StorageBackend, &apk.ArtifactKey, &apk.ArtifactName,
		&apk.ArtifactSize, &apk.ArtifactContentType,
		&apk.PreviewKey, &apk.PreviewName, &apk.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &apk, nil
}

func (r *Repository) GetApkByID(ctx context.Context, id uuid.UUID) (*apkstore.Apk, error) {
	query := `SELECT ` + apkColumns + ` FROM apks WHERE id = $1`

	apk, err := scanApk(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apkstore.ErrApkNotFound
		}
		return nil, r.handlePostgresError("get apk by id", err)
	}

	return apk, nil
}

func (r *Repository) GetApkBySlug(ctx context.Context, slug string) (*apkstore.Apk, error) {
	query := `SELECT ` + apkColumns + ` FROM apks WHERE slug = $1`

	apk, err := scanApk(r.db.QueryRow(ctx, query, slug))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apkstore.ErrApkNotFound
		}
		return nil, r.handlePostgresError("get apk by slug", err)
	}

	return apk, nil
}

func (r *Repository) ListApks(ctx context.Context) ([]*apkstore.Apk, error) {
	query := `SELECT ` + apkColumns + ` FROM apks ORDER BY created_at DESC, id ASC`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, r.handlePostgresError("list apks", err)
	}
	defer rows.Close()

	var apks []*apkstore.Apk
	for rows.Next() {
		apk, err := scanApk(rows)
		if err != nil {
			return nil, r.handlePostgresError("list apks", err)
		}
		apks = append(apks, apk)
	}
	if err := rows.Err(); err != nil {
		return nil, r.handlePostgresError("list apks", err)
	}

	return apks, nil
}

func (r *Repository) DeleteApk(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM apks WHERE id = $1`, id)
	if err != nil {
		return r.handlePostgresError("delete apk", err)
	}
	if tag.RowsAffected() == 0 {
		return apkstore.ErrApkNotFound
	}
	return nil
}
