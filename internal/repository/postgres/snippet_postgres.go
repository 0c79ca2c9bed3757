package postgres

import (
	"context"
	"database/sql"

	"snippets/internal/model"
	"snippets/internal/repository"
)

const snippetColumns = `id, title, description, storage_path, size, content_type, created_at, updated_at`

// SnippetPostgres is a PostgreSQL implementation of repository.SnippetRepository.
type SnippetPostgres struct {
	db *sql.DB
}

// NewSnippetPostgres creates a new SnippetPostgres repository.
func NewSnippetPostgres(db *sql.DB) *SnippetPostgres {
	return &SnippetPostgres{db: db}
}

var _ repository.SnippetRepository = (*SnippetPostgres)(nil)

type scanner interface {
	Scan(dest ...any) error
}

func scanSnippet(row scanner) (*model.Snippet, error) {
	var s model.Snippet
	if err := row.Scan(
		&s.ID,
		&s.Title,
		&s.Description,
		&s.StoragePath,
		&s.Size,
		&s.ContentType,
		&s.CreatedAt,
		&s.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &s, nil
}

// Create inserts a new snippet row and returns the stored record.
func (r *SnippetPostgres) Create(ctx context.Context, s *model.Snippet) (*model.Snippet, error) {
	const q = `
		INSERT INTO snippets (title, description, storage_path, size, content_type, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING ` + snippetColumns
	row := r.db.QueryRowContext(ctx, q,
		s.Title,
		s.Description,
		s.StoragePath,
		s.Size,
		s.ContentType,
		s.CreatedAt,
		s.UpdatedAt,
	)
	return scanSnippet(row)
}

// FindByID fetches a single snippet by its ID.
func (r *SnippetPostgres) FindByID(ctx context.Context, id int64) (*model.Snippet, error) {
	const q = `SELECT ` + snippetColumns + ` FROM snippets WHERE id = $1`
	return scanSnippet(r.db.QueryRowContext(ctx, q, id))
}

// Update writes title, description, content location and updated_at.
func (r *SnippetPostgres) Update(ctx context.Context, s *model.Snippet) (*model.Snippet, error) {
	const q = `
		UPDATE snippets
		SET title = $2, description = $3, storage_path = $4, size = $5, content_type = $6, updated_at = $7
		WHERE id = $1
		RETURNING ` + snippetColumns
	row := r.db.QueryRowContext(ctx, q,
		s.ID,
		s.Title,
		s.Description,
		s.StoragePath,
		s.Size,
		s.ContentType,
		s.UpdatedAt,
	)
	return scanSnippet(row)
}

// List returns snippets newest first using LIMIT/OFFSET pagination and a total count.
func (r *SnippetPostgres) List(ctx context.Context, pq repository.PageQuery) (*repository.PageResult[model.Snippet], error) {
	const qCount = `SELECT COUNT(*) FROM snippets`
	var total int
	if err := r.db.QueryRowContext(ctx, qCount).Scan(&total); err != nil {
		return nil, err
	}

	const qList = `SELECT ` + snippetColumns + ` FROM snippets ORDER BY created_at DESC, id DESC LIMIT $1 OFFSET $2`
	rows, err := r.db.QueryContext(ctx, qList, pq.Limit, pq.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]model.Snippet, 0)
	for rows.Next() {
		s, err := scanSnippet(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &repository.PageResult[model.Snippet]{
		Items: items,
		Total: total,
	}, nil
}

// Delete removes a snippet by ID. It does not return an error if the row does not exist.
func (r *SnippetPostgres) Delete(ctx context.Context, id int64) error {
	const q = `DELETE FROM snippets WHERE id = $1`
	_, err := r.db.ExecContext(ctx, q, id)
	return err
}
