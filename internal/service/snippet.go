package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/docker/go-units"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"snippets/internal/model"
	"snippets/internal/repository"
	"snippets/internal/storage"
)

const (
	// MaxTitleLength is the longest accepted title, in characters.
	MaxTitleLength = 128

	// ContentType is stored with every code object.
	ContentType = "text/plain; charset=utf-8"

	keyPrefix = "snippets"

	defaultLimit = 10
	maxLimit     = 100
)

var (
	ErrInvalidID = errors.New("id must be positive")
	ErrNotFound  = errors.New("snippet not found")
)

var tracer = otel.Tracer("snippets/internal/service")

// ValidationError lists per-field problems with a SnippetInput.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range []string{"title", "code", "description"} {
		if msg, ok := e.Fields[f]; ok {
			parts = append(parts, f+": "+msg)
		}
	}
	return "invalid snippet: " + strings.Join(parts, "; ")
}

// SnippetInput carries the user-editable fields of a snippet.
type SnippetInput struct {
	Title       string `json:"title" form:"title"`
	Code        string `json:"code" form:"code"`
	Description string `json:"description" form:"description"`
}

// SnippetListResult is the service-level DTO for paginated snippets.
type SnippetListResult struct {
	Items []model.Snippet `json:"data"`
	Total int             `json:"total"`
}

// SnippetService defines the use cases for handling snippets.
type SnippetService interface {
	// Create stores the code in object storage and the metadata in the repository.
	// The object is removed again if the metadata cannot be saved.
	Create(ctx context.Context, in SnippetInput) (*model.Snippet, error)

	// Get returns a snippet by ID with its code loaded.
	Get(ctx context.Context, id int64) (*model.Snippet, error)

	// Update replaces title, description and code of an existing snippet.
	Update(ctx context.Context, id int64, in SnippetInput) (*model.Snippet, error)

	// List returns snippet metadata using limit/offset and a total count.
	List(ctx context.Context, limit, offset int) (*SnippetListResult, error)

	// Delete removes a snippet from both storage and repository.
	Delete(ctx context.Context, id int64) error

	// RawURL returns a presigned download URL for the snippet's code.
	RawURL(ctx context.Context, id int64, expiry time.Duration) (string, error)
}

type snippetService struct {
	store   storage.Storage
	repo    repository.SnippetRepository
	maxSize int64
	now     func() time.Time
}

// NewSnippetService constructs a SnippetService. maxSize bounds the code body in bytes.
func NewSnippetService(store storage.Storage, repo repository.SnippetRepository, maxSize int64) SnippetService {
	return &snippetService{
		store:   store,
		repo:    repo,
		maxSize: maxSize,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// validate trims the input and reports every invalid field.
func (s *snippetService) validate(in *SnippetInput) error {
	in.Title = strings.TrimSpace(in.Title)
	in.Description = strings.TrimSpace(in.Description)

	fields := map[string]string{}
	switch {
	case in.Title == "":
		fields["title"] = "this field is required"
	case utf8.RuneCountInString(in.Title) > MaxTitleLength:
		fields["title"] = fmt.Sprintf("must be at most %d characters", MaxTitleLength)
	}
	switch {
	case strings.TrimSpace(in.Code) == "":
		fields["code"] = "this field is required"
	case s.maxSize > 0 && int64(len(in.Code)) > s.maxSize:
		fields["code"] = "must be at most " + units.HumanSize(float64(s.maxSize))
	}
	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

func (s *snippetService) putCode(ctx context.Context, code string) (storage.ObjectInfo, error) {
	key := path.Join(keyPrefix, uuid.NewString()+".txt")
	info, err := s.store.Put(ctx, key, strings.NewReader(code), storage.PutObjectOptions{
		Size:        int64(len(code)),
		ContentType: ContentType,
	})
	if err != nil {
		return storage.ObjectInfo{}, fmt.Errorf("upload to storage: %w", err)
	}
	return info, nil
}

func (s *snippetService) find(ctx context.Context, id int64) (*model.Snippet, error) {
	if id <= 0 {
		return nil, ErrInvalidID
	}
	sn, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return sn, nil
}

func (s *snippetService) Create(ctx context.Context, in SnippetInput) (_ *model.Snippet, err error) {
	ctx, span := tracer.Start(ctx, "SnippetService.Create")
	defer func() { end(span, err) }()

	if err := s.validate(&in); err != nil {
		return nil, err
	}

	info, err := s.putCode(ctx, in.Code)
	if err != nil {
		return nil, err
	}

	now := s.now()
	stored, err := s.repo.Create(ctx, &model.Snippet{
		Title:       in.Title,
		Description: in.Description,
		StoragePath: info.Key,
		Size:        info.Size,
		ContentType: ContentType,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	if err != nil {
		if delErr := s.store.Delete(ctx, info.Key); delErr != nil {
			return nil, fmt.Errorf("db save failed: %v; rollback delete failed: %v", err, delErr)
		}
		return nil, fmt.Errorf("db save failed: %w", err)
	}
	stored.Code = in.Code
	span.SetAttributes(attribute.Int64("snippet.id", stored.ID))
	return stored, nil
}

func (s *snippetService) Get(ctx context.Context, id int64) (_ *model.Snippet, err error) {
	ctx, span := tracer.Start(ctx, "SnippetService.Get", trace.WithAttributes(attribute.Int64("snippet.id", id)))
	defer func() { end(span, err) }()

	sn, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}

	rc, _, err := s.store.Get(ctx, sn.StoragePath)
	if err != nil {
		return nil, fmt.Errorf("read storage: %w", err)
	}
	defer rc.Close()

	limit := sn.Size
	if s.maxSize > limit {
		limit = s.maxSize
	}
	body, err := io.ReadAll(io.LimitReader(rc, limit))
	if err != nil {
		return nil, fmt.Errorf("read storage: %w", err)
	}
	sn.Code = string(body)
	return sn, nil
}

func (s *snippetService) Update(ctx context.Context, id int64, in SnippetInput) (_ *model.Snippet, err error) {
	ctx, span := tracer.Start(ctx, "SnippetService.Update", trace.WithAttributes(attribute.Int64("snippet.id", id)))
	defer func() { end(span, err) }()

	current, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.validate(&in); err != nil {
		return nil, err
	}

	info, err := s.putCode(ctx, in.Code)
	if err != nil {
		return nil, err
	}

	updated, err := s.repo.Update(ctx, &model.Snippet{
		ID:          id,
		Title:       in.Title,
		Description: in.Description,
		StoragePath: info.Key,
		Size:        info.Size,
		ContentType: ContentType,
		UpdatedAt:   s.now(),
	})
	if err != nil {
		if delErr := s.store.Delete(ctx, info.Key); delErr != nil {
			return nil, fmt.Errorf("db update failed: %v; rollback delete failed: %v", err, delErr)
		}
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("db update failed: %w", err)
	}

	// The row no longer references the old object; a failed delete only leaves an orphan.
	if err := s.store.Delete(ctx, current.StoragePath); err != nil {
		span.AddEvent("old object not removed", trace.WithAttributes(attribute.String("storage.key", current.StoragePath)))
	}

	updated.Code = in.Code
	return updated, nil
}

// List returns paginated snippets without exposing repository types.
func (s *snippetService) List(ctx context.Context, limit, offset int) (_ *SnippetListResult, err error) {
	ctx, span := tracer.Start(ctx, "SnippetService.List")
	defer func() { end(span, err) }()

	if limit <= 0 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	if offset < 0 {
		offset = 0
	}

	res, err := s.repo.List(ctx, repository.PageQuery{Limit: limit, Offset: offset})
	if err != nil {
		return nil, err
	}
	return &SnippetListResult{Items: res.Items, Total: res.Total}, nil
}

// Delete removes the code object first; if that fails the row is kept so the
// object is never left without a reference.
func (s *snippetService) Delete(ctx context.Context, id int64) (err error) {
	ctx, span := tracer.Start(ctx, "SnippetService.Delete", trace.WithAttributes(attribute.Int64("snippet.id", id)))
	defer func() { end(span, err) }()

	sn, err := s.find(ctx, id)
	if err != nil {
		return err
	}
	if err := s.store.Delete(ctx, sn.StoragePath); err != nil {
		return fmt.Errorf("delete storage: %w", err)
	}
	return s.repo.Delete(ctx, id)
}

func (s *snippetService) RawURL(ctx context.Context, id int64, expiry time.Duration) (_ string, err error) {
	ctx, span := tracer.Start(ctx, "SnippetService.RawURL", trace.WithAttributes(attribute.Int64("snippet.id", id)))
	defer func() { end(span, err) }()

	sn, err := s.find(ctx, id)
	if err != nil {
		return "", err
	}
	u, err := s.store.PresignGet(ctx, sn.StoragePath, expiry)
	if err != nil {
		return "", fmt.Errorf("presign: %w", err)
	}
	return u, nil
}

// end records unexpected errors on the span. Client errors (unknown or invalid
// id, failed validation) leave the span status unset.
func end(span trace.Span, err error) {
	if err != nil && !isClientError(err) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

func isClientError(err error) bool {
	var verr *ValidationError
	return errors.Is(err, ErrNotFound) || errors.Is(err, ErrInvalidID) || errors.As(err, &verr)
}
