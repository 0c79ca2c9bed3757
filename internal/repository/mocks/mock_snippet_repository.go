package mocks

import (
	"context"

	"snippets/internal/model"
	"snippets/internal/repository"

	"github.com/stretchr/testify/mock"
)

type MockSnippetRepository struct {
	mock.Mock
}

func (m *MockSnippetRepository) Create(ctx context.Context, s *model.Snippet) (*model.Snippet, error) {
	args := m.Called(ctx, s)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Snippet), args.Error(1)
}

func (m *MockSnippetRepository) FindByID(ctx context.Context, id int64) (*model.Snippet, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Snippet), args.Error(1)
}

func (m *MockSnippetRepository) Update(ctx context.Context, s *model.Snippet) (*model.Snippet, error) {
	args := m.Called(ctx, s)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Snippet), args.Error(1)
}

func (m *MockSnippetRepository) List(ctx context.Context, pq repository.PageQuery) (*repository.PageResult[model.Snippet], error) {
	args := m.Called(ctx, pq)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repository.PageResult[model.Snippet]), args.Error(1)
}

func (m *MockSnippetRepository) Delete(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}
