package service_test

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/zlnvch/canvashub/cache"
	cachemocks "github.com/zlnvch/canvashub/cache/mocks"
	"github.com/zlnvch/canvashub/models"
	mqmocks "github.com/zlnvch/canvashub/mq/mocks"
	"github.com/zlnvch/canvashub/service"
	"github.com/zlnvch/canvashub/store"
	storemocks "github.com/zlnvch/canvashub/store/mocks"
	"github.com/zlnvch/canvashub/worker"
)

func setupService(t *testing.T) (*service.Service, *storemocks.MockStore, *cachemocks.MockCache, *mqmocks.MockMQ) {
	mockStore := new(storemocks.MockStore)
	mockCache := new(cachemocks.MockCache)
	mockMQ := new(mqmocks.MockMQ)

	svc, err := service.NewService(
		mockStore,
		mockCache,
		mockMQ,
		nil,
		[]byte("secret"),
	)
	assert.NoError(t, err)

	return svc, mockStore, mockCache, mockMQ
}

// Helper that creates a channel and wraps a mock call to signal when it's called
func wrapMockWithSignal(call *mock.Call) chan struct{} {
	done := make(chan struct{})
	call.Run(func(args mock.Arguments) {
		close(done)
	})
	return done
}

func awaitSignal(t *testing.T, done chan struct{}) {
	t.Helper()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for async mock call")
	}
}

func TestCreateProject_Success(t *testing.T) {
	svc, mockStore, _, _ := setupService(t)
	ctx := context.Background()

	mockStore.On("CreateProject", ctx, mock.MatchedBy(func(p models.Project) bool {
		return p.Name == "My Canvas" &&
			p.OwnerId == "user1" &&
			p.Width == 300 &&
			p.Height == 200 &&
			p.Image != "" &&
			p.Preview != ""
	})).Return(models.Project{Id: "project1"}, nil)

	id, err := svc.CreateProject(ctx, "user1", "My Canvas", 300, 200)
	assert.NoError(t, err)
	assert.Equal(t, "project1", id)
	mockStore.AssertExpectations(t)
}

func TestCreateProject_InvalidName(t *testing.T) {
	svc, mockStore, _, _ := setupService(t)
	ctx := context.Background()

	_, err := svc.CreateProject(ctx, "user1", "   ", 300, 200)
	assert.Error(t, err)

	_, err = svc.CreateProject(ctx, "user1", "", 300, 200)
	assert.Error(t, err)

	mockStore.AssertNotCalled(t, "CreateProject", mock.Anything, mock.Anything)
}

func TestCreateProject_InvalidDimensions(t *testing.T) {
	svc, mockStore, _, _ := setupService(t)
	ctx := context.Background()

	_, err := svc.CreateProject(ctx, "user1", "My Canvas", 0, 200)
	assert.Error(t, err)

	_, err = svc.CreateProject(ctx, "user1", "My Canvas", 300, 5000)
	assert.Error(t, err)

	mockStore.AssertNotCalled(t, "CreateProject", mock.Anything, mock.Anything)
}

func TestUploadProject_Success(t *testing.T) {
	svc, mockStore, _, _ := setupService(t)
	ctx := context.Background()

	image, err := service.CreateImage(400, 300)
	require.NoError(t, err)

	mockStore.On("CreateProject", ctx, mock.MatchedBy(func(p models.Project) bool {
		return p.Image == image && p.Preview != ""
	})).Return(models.Project{Id: "project1"}, nil)

	id, err := svc.UploadProject(ctx, "user1", "Uploaded", 400, 300, image)
	assert.NoError(t, err)
	assert.Equal(t, "project1", id)
}

func TestUploadProject_BadImage(t *testing.T) {
	svc, mockStore, _, _ := setupService(t)
	ctx := context.Background()

	_, err := svc.UploadProject(ctx, "user1", "Uploaded", 400, 300, "not-base64!!!")
	assert.Error(t, err)
	mockStore.AssertNotCalled(t, "CreateProject", mock.Anything, mock.Anything)
}

func makeSummaries(n int) []models.ProjectSummary {
	summaries := make([]models.ProjectSummary, n)
	for i := range summaries {
		summaries[i] = models.ProjectSummary{Id: fmt.Sprintf("project%d", i+1)}
	}
	return summaries
}

func TestListProjects_PageWindow(t *testing.T) {
	svc, mockStore, _, _ := setupService(t)
	ctx := context.Background()

	mockStore.On("ListProjectsByOwner", ctx, "user1").Return(makeSummaries(25), nil)

	// Page 2 of size 10 is items 11..20 of the ordered listing
	page, err := svc.ListProjects(ctx, "user1", 2, 10)
	assert.NoError(t, err)
	assert.Len(t, page, 10)
	assert.Equal(t, "project11", page[0].Id)
	assert.Equal(t, "project20", page[9].Id)
}

func TestListProjects_LastPartialPage(t *testing.T) {
	svc, mockStore, _, _ := setupService(t)
	ctx := context.Background()

	mockStore.On("ListProjectsByOwner", ctx, "user1").Return(makeSummaries(25), nil)

	page, err := svc.ListProjects(ctx, "user1", 3, 10)
	assert.NoError(t, err)
	assert.Len(t, page, 5)
	assert.Equal(t, "project21", page[0].Id)
}

func TestListProjects_OutOfRange(t *testing.T) {
	svc, mockStore, _, _ := setupService(t)
	ctx := context.Background()

	mockStore.On("ListProjectsByOwner", ctx, "user1").Return(makeSummaries(25), nil)

	_, err := svc.ListProjects(ctx, "user1", 4, 10)
	assert.ErrorIs(t, err, service.ErrNoProjects)
}

func TestListProjects_NoProjects(t *testing.T) {
	svc, mockStore, _, _ := setupService(t)
	ctx := context.Background()

	mockStore.On("ListProjectsByOwner", ctx, "user1").Return([]models.ProjectSummary{}, nil)

	_, err := svc.ListProjects(ctx, "user1", 1, 10)
	assert.ErrorIs(t, err, service.ErrNoProjects)
}

func TestListProjects_ZeroValuesUseDefaults(t *testing.T) {
	svc, mockStore, _, _ := setupService(t)
	ctx := context.Background()

	mockStore.On("ListProjectsByOwner", ctx, "user1").Return(makeSummaries(25), nil)

	page, err := svc.ListProjects(ctx, "user1", 0, 0)
	assert.NoError(t, err)
	assert.Len(t, page, 10)
	assert.Equal(t, "project1", page[0].Id)
}

func TestGetProject_CacheHit(t *testing.T) {
	svc, mockStore, mockCache, _ := setupService(t)
	ctx := context.Background()

	mockStore.On("GetProject", ctx, "project1", "user1").
		Return(models.Project{Id: "project1", Name: "My Canvas"}, nil)
	mockCache.On("GetProjectImage", ctx, "project1").Return("cached-image", nil)

	project, err := svc.GetProject(ctx, "project1", "user1")
	assert.NoError(t, err)
	assert.Equal(t, "My Canvas", project.Name)
	assert.Equal(t, "cached-image", project.Image)

	mockStore.AssertNotCalled(t, "GetProjectImage", mock.Anything, mock.Anything)
}

func TestGetProject_CacheMissBackfills(t *testing.T) {
	svc, mockStore, mockCache, _ := setupService(t)
	ctx := context.Background()

	mockStore.On("GetProject", ctx, "project1", "user1").
		Return(models.Project{Id: "project1", Name: "My Canvas"}, nil)
	mockCache.On("GetProjectImage", ctx, "project1").Return("", cache.ErrCacheMiss)
	mockStore.On("GetProjectImage", ctx, "project1").Return("stored-image", nil)

	backfilled := wrapMockWithSignal(
		mockCache.On("SetProjectImage", mock.Anything, "project1", "stored-image").Return(nil),
	)

	project, err := svc.GetProject(ctx, "project1", "user1")
	assert.NoError(t, err)
	assert.Equal(t, "stored-image", project.Image)

	awaitSignal(t, backfilled)
}

func TestGetProject_NotOwned(t *testing.T) {
	svc, mockStore, _, _ := setupService(t)
	ctx := context.Background()

	mockStore.On("GetProject", ctx, "project1", "intruder").
		Return(models.Project{}, store.ErrItemNotFound)

	_, err := svc.GetProject(ctx, "project1", "intruder")
	assert.ErrorIs(t, err, store.ErrItemNotFound)
}

func TestSaveProject_WritesThrough(t *testing.T) {
	svc, mockStore, mockCache, _ := setupService(t)
	ctx := context.Background()

	image, err := service.CreateImage(640, 480)
	require.NoError(t, err)

	mockStore.On("SaveProject", ctx, "project1", "user1", "Renamed", image, mock.Anything).Return(nil)
	written := wrapMockWithSignal(
		mockCache.On("SetProjectImage", mock.Anything, "project1", image).Return(nil),
	)

	err = svc.SaveProject(ctx, "project1", "user1", "Renamed", image)
	assert.NoError(t, err)

	awaitSignal(t, written)
	mockStore.AssertExpectations(t)
}

func TestSaveProject_NotFound(t *testing.T) {
	svc, mockStore, _, _ := setupService(t)
	ctx := context.Background()

	image, err := service.CreateImage(10, 10)
	require.NoError(t, err)

	mockStore.On("SaveProject", ctx, "missing", "user1", "Renamed", image, mock.Anything).
		Return(store.ErrItemNotFound)

	err = svc.SaveProject(ctx, "missing", "user1", "Renamed", image)
	assert.ErrorIs(t, err, store.ErrItemNotFound)
}

func TestDeleteProject_EnqueuesPurge(t *testing.T) {
	svc, mockStore, mockCache, mockMQ := setupService(t)
	ctx := context.Background()

	mockStore.On("DeleteProject", ctx, "project1", "user1").Return(nil)

	invalidated := wrapMockWithSignal(
		mockCache.On("InvalidateProjects", mock.Anything, []string{"project1"}).Return(nil),
	)
	enqueued := wrapMockWithSignal(
		mockMQ.On("Send", mock.Anything, mock.MatchedBy(func(body string) bool {
			var msg worker.PurgeMessage
			if err := json.Unmarshal([]byte(body), &msg); err != nil {
				return false
			}
			return msg.ProjectId == "project1" && !msg.CascadeOwner
		})).Return(nil),
	)

	err := svc.DeleteProject(ctx, "project1", "user1")
	assert.NoError(t, err)

	awaitSignal(t, invalidated)
	awaitSignal(t, enqueued)
}

func TestDeleteProject_NotFound(t *testing.T) {
	svc, mockStore, mockCache, mockMQ := setupService(t)
	ctx := context.Background()

	mockStore.On("DeleteProject", ctx, "missing", "user1").Return(store.ErrItemNotFound)

	err := svc.DeleteProject(ctx, "missing", "user1")
	assert.ErrorIs(t, err, store.ErrItemNotFound)

	mockCache.AssertNotCalled(t, "InvalidateProjects", mock.Anything, mock.Anything)
	mockMQ.AssertNotCalled(t, "Send", mock.Anything, mock.Anything)
}
