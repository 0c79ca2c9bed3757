package mocks

import (
	"context"
	"time"

	"snippets/internal/model"
	"snippets/internal/service"

	"github.com/stretchr/testify/mock"
)

type MockSnippetService struct {
	mock.Mock
}

func (m *MockSnippetService) Create(ctx context.Context, in service.SnippetInput) (*model.Snippet, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Snippet), args.Error(1)
}

func (m *MockSnippetService) Get(ctx context.Context, id int64) (*model.Snippet, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Snippet), args.Error(1)
}

func (m *MockSnippetService) Update(ctx context.Context, id int64, in service.SnippetInput) (*model.Snippet, error) {
	args := m.Called(ctx, id, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Snippet), args.Error(1)
}

func (m *MockSnippetService) List(ctx context.Context, limit, offset int) (*service.SnippetListResult, error) {
	args := m.Called(ctx, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.SnippetListResult), args.Error(1)
}

func (m *MockSnippetService) Delete(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockSnippetService) RawURL(ctx context.Context, id int64, expiry time.Duration) (string, error) {
	args := m.Called(ctx, id, expiry)
	return args.String(0), args.Error(1)
}
