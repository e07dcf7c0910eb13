package rest_test

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/zlnvch/canvashub/api/rest"
	cachemocks "github.com/zlnvch/canvashub/cache/mocks"
	"github.com/zlnvch/canvashub/models"
	mqmocks "github.com/zlnvch/canvashub/mq/mocks"
	"github.com/zlnvch/canvashub/service"
	"github.com/zlnvch/canvashub/store"
	storemocks "github.com/zlnvch/canvashub/store/mocks"
)

func setupMux(t *testing.T) (*http.ServeMux, *storemocks.MockStore, *cachemocks.MockCache, *mqmocks.MockMQ) {
	t.Helper()
	mockStore := new(storemocks.MockStore)
	mockCache := new(cachemocks.MockCache)
	mockMQ := new(mqmocks.MockMQ)

	svc, err := service.NewService(mockStore, mockCache, mockMQ, nil, []byte("secret"))
	require.NoError(t, err)

	handler := rest.NewHandler(svc)
	mux := http.NewServeMux()
	mux.HandleFunc("POST /projects/create", handler.HandleCreateProject)
	mux.HandleFunc("POST /projects/upload", handler.HandleUploadProject)
	mux.HandleFunc("GET /projects", handler.HandleListProjects)
	mux.HandleFunc("GET /projects/{id}", handler.HandleGetProject)
	mux.HandleFunc("PUT /projects/{id}", handler.HandleSaveProject)
	mux.HandleFunc("DELETE /projects/{id}", handler.HandleDeleteProject)
	mux.HandleFunc("GET /health", handler.HandleHealth)

	return mux, mockStore, mockCache, mockMQ
}

func doRequest(mux *http.ServeMux, method, target, userId, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if userId != "" {
		req.Header.Set("X-UserId", userId)
	}
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func TestHandleCreateProject(t *testing.T) {
	mux, mockStore, _, _ := setupMux(t)

	mockStore.On("CreateProject", mock.Anything, mock.MatchedBy(func(p models.Project) bool {
		return p.OwnerId == "user1" && p.Name == "My Canvas"
	})).Return(models.Project{Id: "project1"}, nil)

	rec := doRequest(mux, http.MethodPost, "/projects/create", "user1",
		`{"name":"My Canvas","width":300,"height":200}`)

	assert.Equal(t, http.StatusOK, rec.Code)
	var resp map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "project1", resp["id"])
}

func TestHandleCreateProject_Validation(t *testing.T) {
	mux, mockStore, _, _ := setupMux(t)

	rec := doRequest(mux, http.MethodPost, "/projects/create", "user1",
		`{"name":"","width":300,"height":200}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doRequest(mux, http.MethodPost, "/projects/create", "user1",
		`{"name":"My Canvas","width":0,"height":200}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doRequest(mux, http.MethodPost, "/projects/create", "user1", `{broken`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	mockStore.AssertNotCalled(t, "CreateProject", mock.Anything, mock.Anything)
}

func TestHandleCreateProject_MissingIdentity(t *testing.T) {
	mux, _, _, _ := setupMux(t)

	rec := doRequest(mux, http.MethodPost, "/projects/create", "",
		`{"name":"My Canvas","width":300,"height":200}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestHandleListProjects_Page(t *testing.T) {
	mux, mockStore, _, _ := setupMux(t)

	summaries := make([]models.ProjectSummary, 25)
	for i := range summaries {
		summaries[i] = models.ProjectSummary{Id: fmt.Sprintf("project%d", i+1)}
	}
	mockStore.On("ListProjectsByOwner", mock.Anything, "user1").Return(summaries, nil)

	rec := doRequest(mux, http.MethodGet, "/projects?pageNumber=2&pageSize=10", "user1", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	var page []models.ProjectSummary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &page))
	assert.Len(t, page, 10)
	assert.Equal(t, "project11", page[0].Id)
}

func TestHandleListProjects_EmptyPageIs404(t *testing.T) {
	mux, mockStore, _, _ := setupMux(t)

	mockStore.On("ListProjectsByOwner", mock.Anything, "user1").
		Return([]models.ProjectSummary{}, nil)

	rec := doRequest(mux, http.MethodGet, "/projects", "user1", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "No projects found.", strings.TrimSpace(rec.Body.String()))
}

func TestHandleListProjects_BadQuery(t *testing.T) {
	mux, _, _, _ := setupMux(t)

	rec := doRequest(mux, http.MethodGet, "/projects?pageNumber=abc", "user1", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleGetProject(t *testing.T) {
	mux, mockStore, mockCache, _ := setupMux(t)

	mockStore.On("GetProject", mock.Anything, "project1", "user1").
		Return(models.Project{Id: "project1", Name: "My Canvas"}, nil)
	mockCache.On("GetProjectImage", mock.Anything, "project1").Return("img-bytes", nil)

	rec := doRequest(mux, http.MethodGet, "/projects/project1", "user1", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "My Canvas", resp["name"])
	assert.Equal(t, "img-bytes", resp["image"])
}

func TestHandleGetProject_NotFound(t *testing.T) {
	mux, mockStore, _, _ := setupMux(t)

	mockStore.On("GetProject", mock.Anything, "ghost", "user1").
		Return(models.Project{}, store.ErrItemNotFound)

	rec := doRequest(mux, http.MethodGet, "/projects/ghost", "user1", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Project not found.", strings.TrimSpace(rec.Body.String()))
}

func TestHandleSaveProject(t *testing.T) {
	mux, mockStore, mockCache, _ := setupMux(t)

	image, err := service.CreateImage(64, 64)
	require.NoError(t, err)

	mockStore.On("SaveProject", mock.Anything, "project1", "user1", "Renamed", image, mock.Anything).
		Return(nil)
	mockCache.On("SetProjectImage", mock.Anything, "project1", image).Return(nil).Maybe()

	body, err := json.Marshal(map[string]string{"name": "Renamed", "image": image})
	require.NoError(t, err)

	rec := doRequest(mux, http.MethodPut, "/projects/project1", "user1", string(body))
	assert.Equal(t, http.StatusOK, rec.Code)
	mockStore.AssertExpectations(t)
}

func TestHandleDeleteProject(t *testing.T) {
	mux, mockStore, mockCache, mockMQ := setupMux(t)

	mockStore.On("DeleteProject", mock.Anything, "project1", "user1").Return(nil)
	mockCache.On("InvalidateProjects", mock.Anything, []string{"project1"}).Return(nil).Maybe()
	mockMQ.On("Send", mock.Anything, mock.Anything).Return(nil).Maybe()

	rec := doRequest(mux, http.MethodDelete, "/projects/project1", "user1", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestHandleDeleteProject_NotFound(t *testing.T) {
	mux, mockStore, _, _ := setupMux(t)

	mockStore.On("DeleteProject", mock.Anything, "ghost", "user1").
		Return(store.ErrItemNotFound)

	rec := doRequest(mux, http.MethodDelete, "/projects/ghost", "user1", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandleHealth(t *testing.T) {
	mux, _, _, _ := setupMux(t)

	rec := doRequest(mux, http.MethodGet, "/health", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}
