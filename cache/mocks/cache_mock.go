package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"
)

type MockCache struct {
	mock.Mock
}

func (m *MockCache) Publish(ctx context.Context, channel string, message []byte) error {
	args := m.Called(ctx, channel, message)
	return args.Error(0)
}

func (m *MockCache) Subscribe(ctx context.Context, channel string, handler func(message []byte)) error {
	args := m.Called(ctx, channel, handler)
	return args.Error(0)
}

func (m *MockCache) SetProjectImage(ctx context.Context, projectId string, image string) error {
	args := m.Called(ctx, projectId, image)
	return args.Error(0)
}

func (m *MockCache) GetProjectImage(ctx context.Context, projectId string) (string, error) {
	args := m.Called(ctx, projectId)
	return args.String(0), args.Error(1)
}

func (m *MockCache) InvalidateProjects(ctx context.Context, projectIds []string) error {
	args := m.Called(ctx, projectIds)
	return args.Error(0)
}
