// Package repository contains data access layer abstractions.
// Implementations live in subpackages (e.g., postgres).
package repository

import (
	"context"

	"snippets/internal/model"
)

// SnippetRepository defines data access for snippet metadata using SQL queries only.
// No business logic here, strictly persistence operations.
type SnippetRepository interface {
	// Create inserts a new snippet row. The ID is assigned by the database.
	Create(ctx context.Context, s *model.Snippet) (*model.Snippet, error)

	// FindByID returns a snippet by its ID, or sql.ErrNoRows.
	FindByID(ctx context.Context, id int64) (*model.Snippet, error)

	// Update overwrites the mutable columns of an existing row, or returns sql.ErrNoRows.
	Update(ctx context.Context, s *model.Snippet) (*model.Snippet, error)

	// List returns a page of snippets and the total row count.
	List(ctx context.Context, pq PageQuery) (*PageResult[model.Snippet], error)

	// Delete removes a snippet by ID. It returns nil if the row was deleted or did not exist.
	Delete(ctx context.Context, id int64) error
}

// PageQuery holds limit/offset pagination parameters.
type PageQuery struct {
	Limit  int
	Offset int
}

// PageResult is a generic pagination result wrapper.
type PageResult[T any] struct {
	Items []T
	Total int
}
