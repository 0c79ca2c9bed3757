package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"testing"
	"time"

	"snippets/internal/model"
	"snippets/internal/repository"
	repoMocks "snippets/internal/repository/mocks"
	"snippets/internal/storage"
	storeMocks "snippets/internal/storage/mocks"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const testMaxSize = 64

func TestSnippetService_Create(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name       string
		in         SnippetInput
		setupMocks func(mStore *storeMocks.MockStorage, mRepo *repoMocks.MockSnippetRepository)
		wantFields []string
		wantErrMsg string
	}{
		{
			name: "happy path",
			in:   SnippetInput{Title: "  hello  ", Code: "print('hello')", Description: "greets"},
			setupMocks: func(mStore *storeMocks.MockStorage, mRepo *repoMocks.MockSnippetRepository) {
				mStore.On("Put", mock.Anything, storeMocks.SnippetKey(), mock.Anything, storage.PutObjectOptions{
					Size:        14,
					ContentType: ContentType,
				}).Return(storeMocks.EchoPut, nil)

				mRepo.On("Create", mock.Anything, mock.MatchedBy(func(s *model.Snippet) bool {
					return s.Title == "hello" && s.Size == 14 && storeMocks.IsSnippetKey(s.StoragePath) &&
						s.CreatedAt.Equal(s.UpdatedAt)
				})).Return(&model.Snippet{ID: 1, Title: "hello"}, nil)
			},
		},
		{
			name:       "missing title and code",
			in:         SnippetInput{Title: "   ", Code: "\n"},
			setupMocks: func(*storeMocks.MockStorage, *repoMocks.MockSnippetRepository) {},
			wantFields: []string{"title", "code"},
		},
		{
			name:       "title too long",
			in:         SnippetInput{Title: strings.Repeat("あ", MaxTitleLength+1), Code: "x"},
			setupMocks: func(*storeMocks.MockStorage, *repoMocks.MockSnippetRepository) {},
			wantFields: []string{"title"},
		},
		{
			name:       "code too large",
			in:         SnippetInput{Title: "big", Code: strings.Repeat("x", testMaxSize+1)},
			setupMocks: func(*storeMocks.MockStorage, *repoMocks.MockSnippetRepository) {},
			wantFields: []string{"code"},
		},
		{
			name: "storage error",
			in:   SnippetInput{Title: "t", Code: "c"},
			setupMocks: func(mStore *storeMocks.MockStorage, mRepo *repoMocks.MockSnippetRepository) {
				mStore.On("Put", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
					Return(storage.ObjectInfo{}, errors.New("storage fail"))
			},
			wantErrMsg: "upload to storage: storage fail",
		},
		{
			name: "repository error with successful rollback",
			in:   SnippetInput{Title: "t", Code: "c"},
			setupMocks: func(mStore *storeMocks.MockStorage, mRepo *repoMocks.MockSnippetRepository) {
				mStore.On("Put", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(storeMocks.EchoPut, nil)
				mRepo.On("Create", mock.Anything, mock.Anything).Return(nil, errors.New("db fail"))
				mStore.On("Delete", mock.Anything, storeMocks.SnippetKey()).Return(nil)
			},
			wantErrMsg: "db save failed: db fail",
		},
		{
			name: "repository error with failed rollback",
			in:   SnippetInput{Title: "t", Code: "c"},
			setupMocks: func(mStore *storeMocks.MockStorage, mRepo *repoMocks.MockSnippetRepository) {
				mStore.On("Put", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(storeMocks.EchoPut, nil)
				mRepo.On("Create", mock.Anything, mock.Anything).Return(nil, errors.New("db fail"))
				mStore.On("Delete", mock.Anything, mock.Anything).Return(errors.New("delete fail"))
			},
			wantErrMsg: "rollback delete failed: delete fail",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mStore := new(storeMocks.MockStorage)
			mRepo := new(repoMocks.MockSnippetRepository)
			svc := NewSnippetService(mStore, mRepo, testMaxSize)

			tt.setupMocks(mStore, mRepo)

			sn, err := svc.Create(ctx, tt.in)

			switch {
			case tt.wantFields != nil:
				var verr *ValidationError
				require.ErrorAs(t, err, &verr)
				for _, f := range tt.wantFields {
					assert.Contains(t, verr.Fields, f)
				}
				assert.Len(t, verr.Fields, len(tt.wantFields))
			case tt.wantErrMsg != "":
				assert.ErrorContains(t, err, tt.wantErrMsg)
				assert.Nil(t, sn)
			default:
				require.NoError(t, err)
				assert.Equal(t, int64(1), sn.ID)
				assert.Equal(t, tt.in.Code, sn.Code)
			}

			mStore.AssertExpectations(t)
			mRepo.AssertExpectations(t)
		})
	}
}

func TestSnippetService_Get(t *testing.T) {
	ctx := context.Background()

	t.Run("loads code from storage", func(t *testing.T) {
		mStore := new(storeMocks.MockStorage)
		mRepo := new(repoMocks.MockSnippetRepository)
		svc := NewSnippetService(mStore, mRepo, testMaxSize)

		mRepo.On("FindByID", mock.Anything, int64(5)).
			Return(&model.Snippet{ID: 5, StoragePath: "snippets/a.txt", Size: 11}, nil)
		mStore.On("Get", mock.Anything, "snippets/a.txt").
			Return(storeMocks.Code("hello world"), storage.ObjectInfo{}, nil)

		sn, err := svc.Get(ctx, 5)

		require.NoError(t, err)
		assert.Equal(t, "hello world", sn.Code)
		mStore.AssertExpectations(t)
		mRepo.AssertExpectations(t)
	})

	t.Run("invalid id", func(t *testing.T) {
		svc := NewSnippetService(nil, nil, testMaxSize)

		sn, err := svc.Get(ctx, 0)

		assert.ErrorIs(t, err, ErrInvalidID)
		assert.Nil(t, sn)
	})

	t.Run("not found", func(t *testing.T) {
		mRepo := new(repoMocks.MockSnippetRepository)
		svc := NewSnippetService(nil, mRepo, testMaxSize)
		mRepo.On("FindByID", mock.Anything, int64(9)).Return(nil, sql.ErrNoRows)

		_, err := svc.Get(ctx, 9)

		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("storage error", func(t *testing.T) {
		mStore := new(storeMocks.MockStorage)
		mRepo := new(repoMocks.MockSnippetRepository)
		svc := NewSnippetService(mStore, mRepo, testMaxSize)

		mRepo.On("FindByID", mock.Anything, int64(5)).
			Return(&model.Snippet{ID: 5, StoragePath: "snippets/a.txt"}, nil)
		mStore.On("Get", mock.Anything, "snippets/a.txt").
			Return(nil, storage.ObjectInfo{}, errors.New("no such key"))

		_, err := svc.Get(ctx, 5)

		assert.ErrorContains(t, err, "read storage: no such key")
	})
}

func TestSnippetService_Update(t *testing.T) {
	ctx := context.Background()
	current := &model.Snippet{ID: 3, Title: "old", StoragePath: "snippets/old.txt"}

	t.Run("replaces object and row", func(t *testing.T) {
		mStore := new(storeMocks.MockStorage)
		mRepo := new(repoMocks.MockSnippetRepository)
		svc := NewSnippetService(mStore, mRepo, testMaxSize)

		mRepo.On("FindByID", mock.Anything, int64(3)).Return(current, nil)
		mStore.On("Put", mock.Anything, storeMocks.SnippetKey(), mock.Anything, mock.Anything).Return(storeMocks.EchoPut, nil)
		mRepo.On("Update", mock.Anything, mock.MatchedBy(func(s *model.Snippet) bool {
			return s.ID == 3 && s.Title == "new" && s.StoragePath != current.StoragePath
		})).Return(&model.Snippet{ID: 3, Title: "new"}, nil)
		mStore.On("Delete", mock.Anything, "snippets/old.txt").Return(nil)

		sn, err := svc.Update(ctx, 3, SnippetInput{Title: "new", Code: "fmt.Println()"})

		require.NoError(t, err)
		assert.Equal(t, "new", sn.Title)
		assert.Equal(t, "fmt.Println()", sn.Code)
		mStore.AssertExpectations(t)
		mRepo.AssertExpectations(t)
	})

	t.Run("old object delete failure is tolerated", func(t *testing.T) {
		mStore := new(storeMocks.MockStorage)
		mRepo := new(repoMocks.MockSnippetRepository)
		svc := NewSnippetService(mStore, mRepo, testMaxSize)

		mRepo.On("FindByID", mock.Anything, int64(3)).Return(current, nil)
		mStore.On("Put", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(storeMocks.EchoPut, nil)
		mRepo.On("Update", mock.Anything, mock.Anything).Return(&model.Snippet{ID: 3}, nil)
		mStore.On("Delete", mock.Anything, "snippets/old.txt").Return(errors.New("unavailable"))

		_, err := svc.Update(ctx, 3, SnippetInput{Title: "new", Code: "x"})

		assert.NoError(t, err)
	})

	t.Run("row update failure removes new object", func(t *testing.T) {
		mStore := new(storeMocks.MockStorage)
		mRepo := new(repoMocks.MockSnippetRepository)
		svc := NewSnippetService(mStore, mRepo, testMaxSize)

		mRepo.On("FindByID", mock.Anything, int64(3)).Return(current, nil)
		mStore.On("Put", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(storeMocks.EchoPut, nil)
		mRepo.On("Update", mock.Anything, mock.Anything).Return(nil, errors.New("db fail"))
		mStore.On("Delete", mock.Anything, mock.MatchedBy(func(key string) bool {
			return storeMocks.IsSnippetKey(key) && key != current.StoragePath
		})).Return(nil)

		_, err := svc.Update(ctx, 3, SnippetInput{Title: "new", Code: "x"})

		assert.ErrorContains(t, err, "db update failed: db fail")
		mStore.AssertExpectations(t)
	})

	t.Run("validation error", func(t *testing.T) {
		mRepo := new(repoMocks.MockSnippetRepository)
		svc := NewSnippetService(nil, mRepo, testMaxSize)
		mRepo.On("FindByID", mock.Anything, int64(3)).Return(current, nil)

		_, err := svc.Update(ctx, 3, SnippetInput{})

		var verr *ValidationError
		assert.ErrorAs(t, err, &verr)
	})

	t.Run("not found", func(t *testing.T) {
		mRepo := new(repoMocks.MockSnippetRepository)
		svc := NewSnippetService(nil, mRepo, testMaxSize)
		mRepo.On("FindByID", mock.Anything, int64(4)).Return(nil, sql.ErrNoRows)

		_, err := svc.Update(ctx, 4, SnippetInput{Title: "t", Code: "c"})

		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestSnippetService_List(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name          string
		limit, offset int
		want          repository.PageQuery
	}{
		{"passes through", 20, 5, repository.PageQuery{Limit: 20, Offset: 5}},
		{"zero limit uses default", 0, -1, repository.PageQuery{Limit: 10, Offset: 0}},
		{"limit is capped", 1000, 0, repository.PageQuery{Limit: 100, Offset: 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mRepo := new(repoMocks.MockSnippetRepository)
			svc := NewSnippetService(nil, mRepo, testMaxSize)

			mRepo.On("List", mock.Anything, tt.want).
				Return(&repository.PageResult[model.Snippet]{Items: []model.Snippet{{ID: 1}}, Total: 1}, nil)

			res, err := svc.List(ctx, tt.limit, tt.offset)

			require.NoError(t, err)
			assert.Equal(t, 1, res.Total)
			mRepo.AssertExpectations(t)
		})
	}

	t.Run("repository error", func(t *testing.T) {
		mRepo := new(repoMocks.MockSnippetRepository)
		svc := NewSnippetService(nil, mRepo, testMaxSize)
		mRepo.On("List", mock.Anything, mock.Anything).Return(nil, errors.New("db fail"))

		_, err := svc.List(ctx, 10, 0)

		assert.Error(t, err)
	})
}

func TestSnippetService_Delete(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name       string
		id         int64
		setupMocks func(mStore *storeMocks.MockStorage, mRepo *repoMocks.MockSnippetRepository)
		wantErr    error
		wantErrMsg string
	}{
		{
			name: "happy path",
			id:   1,
			setupMocks: func(mStore *storeMocks.MockStorage, mRepo *repoMocks.MockSnippetRepository) {
				mRepo.On("FindByID", mock.Anything, int64(1)).Return(&model.Snippet{ID: 1, StoragePath: "snippets/1.txt"}, nil)
				mStore.On("Delete", mock.Anything, "snippets/1.txt").Return(nil)
				mRepo.On("Delete", mock.Anything, int64(1)).Return(nil)
			},
		},
		{
			name:       "invalid id",
			id:         -1,
			setupMocks: func(*storeMocks.MockStorage, *repoMocks.MockSnippetRepository) {},
			wantErr:    ErrInvalidID,
		},
		{
			name: "not found",
			id:   2,
			setupMocks: func(mStore *storeMocks.MockStorage, mRepo *repoMocks.MockSnippetRepository) {
				mRepo.On("FindByID", mock.Anything, int64(2)).Return(nil, sql.ErrNoRows)
			},
			wantErr: ErrNotFound,
		},
		{
			name: "storage delete error keeps row",
			id:   3,
			setupMocks: func(mStore *storeMocks.MockStorage, mRepo *repoMocks.MockSnippetRepository) {
				mRepo.On("FindByID", mock.Anything, int64(3)).Return(&model.Snippet{ID: 3, StoragePath: "p"}, nil)
				mStore.On("Delete", mock.Anything, "p").Return(errors.New("storage fail"))
			},
			wantErrMsg: "delete storage: storage fail",
		},
		{
			name: "repository delete error",
			id:   4,
			setupMocks: func(mStore *storeMocks.MockStorage, mRepo *repoMocks.MockSnippetRepository) {
				mRepo.On("FindByID", mock.Anything, int64(4)).Return(&model.Snippet{ID: 4, StoragePath: "p"}, nil)
				mStore.On("Delete", mock.Anything, "p").Return(nil)
				mRepo.On("Delete", mock.Anything, int64(4)).Return(errors.New("db fail"))
			},
			wantErrMsg: "db fail",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mStore := new(storeMocks.MockStorage)
			mRepo := new(repoMocks.MockSnippetRepository)
			svc := NewSnippetService(mStore, mRepo, testMaxSize)

			tt.setupMocks(mStore, mRepo)

			err := svc.Delete(ctx, tt.id)

			switch {
			case tt.wantErr != nil:
				assert.ErrorIs(t, err, tt.wantErr)
			case tt.wantErrMsg != "":
				assert.ErrorContains(t, err, tt.wantErrMsg)
			default:
				assert.NoError(t, err)
			}
			mStore.AssertExpectations(t)
			mRepo.AssertExpectations(t)
		})
	}
}

func TestSnippetService_RawURL(t *testing.T) {
	mStore := new(storeMocks.MockStorage)
	mRepo := new(repoMocks.MockSnippetRepository)
	svc := NewSnippetService(mStore, mRepo, testMaxSize)

	mRepo.On("FindByID", mock.Anything, int64(1)).Return(&model.Snippet{ID: 1, StoragePath: "snippets/1.txt"}, nil)
	mStore.On("PresignGet", mock.Anything, "snippets/1.txt", time.Minute).Return("https://s3.local/snippets/1.txt?sig=1", nil)

	u, err := svc.RawURL(context.Background(), 1, time.Minute)

	require.NoError(t, err)
	assert.Contains(t, u, "sig=1")
}

func TestValidationError_Error(t *testing.T) {
	err := &ValidationError{Fields: map[string]string{"code": "this field is required", "title": "too long"}}
	assert.Equal(t, "invalid snippet: title: too long; code: this field is required", err.Error())
}
