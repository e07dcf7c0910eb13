package rest

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/zlnvch/canvashub/service"
	"github.com/zlnvch/canvashub/store"
)

type Handler struct {
	Service *service.Service
}

func NewHandler(svc *service.Service) *Handler {
	return &Handler{Service: svc}
}

// userIdFromRequest returns the identity the gateway injected after
// authenticating. An empty header means the request bypassed the gateway.
func userIdFromRequest(r *http.Request) string {
	return r.Header.Get("X-UserId")
}

type createProjectRequest struct {
	Name   string `json:"name"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

type uploadProjectRequest struct {
	Name   string `json:"name"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
	Image  string `json:"image"`
}

type projectIdResponse struct {
	Id string `json:"id"`
}

func (h *Handler) HandleCreateProject(w http.ResponseWriter, r *http.Request) {
	userId := userIdFromRequest(r)
	if userId == "" {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var req createProjectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	if err := service.ValidateProjectName(req.Name); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := service.ValidateDimensions(req.Width, req.Height); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	id, err := h.Service.CreateProject(r.Context(), userId, req.Name, req.Width, req.Height)
	if err != nil {
		log.Printf("Create project failed: %v", err)
		http.Error(w, "failed to create project", http.StatusInternalServerError)
		return
	}

	h.sendResponse(w, projectIdResponse{Id: id})
}

func (h *Handler) HandleUploadProject(w http.ResponseWriter, r *http.Request) {
	userId := userIdFromRequest(r)
	if userId == "" {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var req uploadProjectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	if err := service.ValidateProjectName(req.Name); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := service.ValidateDimensions(req.Width, req.Height); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if req.Image == "" {
		http.Error(w, "image is required", http.StatusBadRequest)
		return
	}

	id, err := h.Service.UploadProject(r.Context(), userId, req.Name, req.Width, req.Height, req.Image)
	if err != nil {
		log.Printf("Upload project failed: %v", err)
		http.Error(w, "failed to upload project", http.StatusInternalServerError)
		return
	}

	h.sendResponse(w, projectIdResponse{Id: id})
}

func (h *Handler) HandleListProjects(w http.ResponseWriter, r *http.Request) {
	userId := userIdFromRequest(r)
	if userId == "" {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	pageNumber, err := queryInt(r, "pageNumber")
	if err != nil {
		http.Error(w, "invalid pageNumber", http.StatusBadRequest)
		return
	}
	pageSize, err := queryInt(r, "pageSize")
	if err != nil {
		http.Error(w, "invalid pageSize", http.StatusBadRequest)
		return
	}

	summaries, err := h.Service.ListProjects(r.Context(), userId, pageNumber, pageSize)
	if err != nil {
		if errors.Is(err, service.ErrNoProjects) {
			http.Error(w, "No projects found.", http.StatusNotFound)
			return
		}
		log.Printf("List projects failed: %v", err)
		http.Error(w, "failed to list projects", http.StatusInternalServerError)
		return
	}

	h.sendResponse(w, summaries)
}

type getProjectResponse struct {
	Name  string `json:"name"`
	Image string `json:"image"`
}

func (h *Handler) HandleGetProject(w http.ResponseWriter, r *http.Request) {
	userId := userIdFromRequest(r)
	if userId == "" {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	project, err := h.Service.GetProject(r.Context(), r.PathValue("id"), userId)
	if err != nil {
		if errors.Is(err, store.ErrItemNotFound) {
			http.Error(w, "Project not found.", http.StatusNotFound)
			return
		}
		log.Printf("Get project failed: %v", err)
		http.Error(w, "failed to get project", http.StatusInternalServerError)
		return
	}

	h.sendResponse(w, getProjectResponse{Name: project.Name, Image: project.Image})
}

type saveProjectRequest struct {
	Name  string `json:"name"`
	Image string `json:"image"`
}

type successResponse struct {
	Success bool `json:"success"`
}

func (h *Handler) HandleSaveProject(w http.ResponseWriter, r *http.Request) {
	userId := userIdFromRequest(r)
	if userId == "" {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var req saveProjectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	if err := service.ValidateProjectName(req.Name); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if req.Image == "" {
		http.Error(w, "image is required", http.StatusBadRequest)
		return
	}

	if err := h.Service.SaveProject(r.Context(), r.PathValue("id"), userId, req.Name, req.Image); err != nil {
		if errors.Is(err, store.ErrItemNotFound) {
			http.Error(w, "Project not found.", http.StatusNotFound)
			return
		}
		log.Printf("Save project failed: %v", err)
		http.Error(w, "failed to save project", http.StatusInternalServerError)
		return
	}

	h.sendResponse(w, successResponse{Success: true})
}

func (h *Handler) HandleDeleteProject(w http.ResponseWriter, r *http.Request) {
	userId := userIdFromRequest(r)
	if userId == "" {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	if err := h.Service.DeleteProject(r.Context(), r.PathValue("id"), userId); err != nil {
		if errors.Is(err, store.ErrItemNotFound) {
			http.Error(w, "Project not found.", http.StatusNotFound)
			return
		}
		log.Printf("Delete project failed: %v", err)
		http.Error(w, "failed to delete project", http.StatusInternalServerError)
		return
	}

	h.sendResponse(w, successResponse{Success: true})
}

func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

func (h *Handler) sendResponse(w http.ResponseWriter, resp any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		http.Error(w, "failed to encode response", http.StatusInternalServerError)
	}
}

// queryInt parses an optional integer query parameter; absence is zero,
// which the service layer replaces with its default.
func queryInt(r *http.Request, name string) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, nil
	}
	return strconv.Atoi(raw)
}
