// Package mocks provides a testify mock of storage.Storage plus helpers for
// the snippet object layout (snippets/<uuid>.txt).
package mocks

import (
	"context"
	"io"
	"strings"
	"time"

	"snippets/internal/storage"

	"github.com/stretchr/testify/mock"
)

// MockStorage is a testify mock of storage.Storage.
type MockStorage struct {
	mock.Mock
}

// EchoPut can be given to Return for Put: the mock then reports the object it
// was asked to store.
func EchoPut(_ context.Context, key string, _ io.Reader, opt storage.PutObjectOptions) storage.ObjectInfo {
	return storage.ObjectInfo{Key: key, Size: opt.Size, ContentType: opt.ContentType}
}

// IsSnippetKey reports whether key is shaped like a snippet code object.
func IsSnippetKey(key string) bool {
	return strings.HasPrefix(key, "snippets/") && strings.HasSuffix(key, ".txt")
}

// SnippetKey matches any snippet code object key.
func SnippetKey() any {
	return mock.MatchedBy(IsSnippetKey)
}

// Code wraps a snippet body as the reader Get returns.
func Code(s string) io.ReadCloser {
	return io.NopCloser(strings.NewReader(s))
}

// Put accepts either a storage.ObjectInfo or a func with Put's signature
// (such as EchoPut) as its first return value.
func (m *MockStorage) Put(ctx context.Context, key string, r io.Reader, opt storage.PutObjectOptions) (storage.ObjectInfo, error) {
	args := m.Called(ctx, key, r, opt)
	if f, ok := args.Get(0).(func(context.Context, string, io.Reader, storage.PutObjectOptions) storage.ObjectInfo); ok {
		return f(ctx, key, r, opt), args.Error(1)
	}
	return args.Get(0).(storage.ObjectInfo), args.Error(1)
}

// Get returns a nil reader when the first return value is nil.
func (m *MockStorage) Get(ctx context.Context, key string) (io.ReadCloser, storage.ObjectInfo, error) {
	args := m.Called(ctx, key)
	rc, _ := args.Get(0).(io.ReadCloser)
	return rc, args.Get(1).(storage.ObjectInfo), args.Error(2)
}

func (m *MockStorage) Delete(ctx context.Context, key string) error {
	return m.Called(ctx, key).Error(0)
}

func (m *MockStorage) PresignGet(ctx context.Context, key string, expiry time.Duration) (string, error) {
	args := m.Called(ctx, key, expiry)
	return args.String(0), args.Error(1)
}
