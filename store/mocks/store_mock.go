package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"
	"github.com/zlnvch/canvashub/models"
)

type MockStore struct {
	mock.Mock
}

func (m *MockStore) CreateUser(ctx context.Context, user models.User) (models.User, bool, error) {
	args := m.Called(ctx, user)
	return args.Get(0).(models.User), args.Bool(1), args.Error(2)
}

func (m *MockStore) GetUser(ctx context.Context, provider string, providerId string) (models.User, error) {
	args := m.Called(ctx, provider, providerId)
	return args.Get(0).(models.User), args.Error(1)
}

func (m *MockStore) DeleteUser(ctx context.Context, provider string, providerId string) error {
	args := m.Called(ctx, provider, providerId)
	return args.Error(0)
}

func (m *MockStore) CreateProject(ctx context.Context, project models.Project) (models.Project, error) {
	args := m.Called(ctx, project)
	return args.Get(0).(models.Project), args.Error(1)
}

func (m *MockStore) GetProject(ctx context.Context, id string, ownerId string) (models.Project, error) {
	args := m.Called(ctx, id, ownerId)
	return args.Get(0).(models.Project), args.Error(1)
}

func (m *MockStore) GetProjectImage(ctx context.Context, id string) (string, error) {
	args := m.Called(ctx, id)
	return args.String(0), args.Error(1)
}

func (m *MockStore) ListProjectsByOwner(ctx context.Context, ownerId string) ([]models.ProjectSummary, error) {
	args := m.Called(ctx, ownerId)
	return args.Get(0).([]models.ProjectSummary), args.Error(1)
}

func (m *MockStore) ListProjectIdsByOwner(ctx context.Context, ownerId string) ([]string, error) {
	args := m.Called(ctx, ownerId)
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockStore) SaveProject(ctx context.Context, id string, ownerId string, name string, image string, preview string) error {
	args := m.Called(ctx, id, ownerId, name, image, preview)
	return args.Error(0)
}

func (m *MockStore) DeleteProject(ctx context.Context, id string, ownerId string) error {
	args := m.Called(ctx, id, ownerId)
	return args.Error(0)
}

func (m *MockStore) AddCollaborator(ctx context.Context, projectId string, sessionId string) (bool, error) {
	args := m.Called(ctx, projectId, sessionId)
	return args.Bool(0), args.Error(1)
}

func (m *MockStore) PurgeProjectImage(ctx context.Context, projectId string) error {
	args := m.Called(ctx, projectId)
	return args.Error(0)
}

func (m *MockStore) DeleteProjectsByOwner(ctx context.Context, ownerId string) error {
	args := m.Called(ctx, ownerId)
	return args.Error(0)
}
