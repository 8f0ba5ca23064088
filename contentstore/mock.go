package contentstore

import (
	"context"

	"github.com/stretchr/testify/mock"
)

// MockStore mocks the interfaces.ContentStore interface.
type MockStore struct {
	mock.Mock
}

// Put mocks the Put method.
func (m *MockStore) Put(ctx context.Context, name string, data []byte) (string, error) {
	args := m.Called(ctx, name, data)
	return args.String(0), args.Error(1)
}

// Available mocks the Available method.
func (m *MockStore) Available(ctx context.Context) bool {
	args := m.Called(ctx)
	return args.Bool(0)
}

// Name mocks the Name method.
func (m *MockStore) Name() string {
	args := m.Called()
	return args.String(0)
}
