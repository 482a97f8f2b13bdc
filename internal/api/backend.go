package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/bidwise/bidwise/internal/models"
	"github.com/bidwise/bidwise/internal/storage"
)

const maxBodySize = 1 << 20 // 1MB

// BackendDeps holds dependencies for the development backend.
type BackendDeps struct {
	Store  *storage.Store
	Token  string       // optional; empty disables bearer auth
	Logger *slog.Logger // optional; defaults to slog.Default()
}

// NewBackendHandler serves the dashboard data contract from SQLite.
func NewBackendHandler(deps BackendDeps) http.Handler {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(requestLogger(deps.Logger))

	r.Get("/health", handleHealth(deps))

	r.Group(func(r chi.Router) {
		r.Use(BearerAuth(deps.Token))

		r.Get("/projects", handleListProjects(deps))
		r.Post("/projects", handleCreateProject(deps))
		r.Put("/projects/status", handleUpdateStatus(deps))
		r.Get("/bids", handleListBids(deps))
		r.Get("/traffic-data", handleTrafficData(deps))
		r.Get("/project-progress", handleProjectProgress(deps))
	})

	return r
}

func handleHealth(deps BackendDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := deps.Store.Ping(); err != nil {
			httpError(w, http.StatusServiceUnavailable, "api_error", "Database unavailable.")
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

func handleListProjects(deps BackendDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		projects, err := deps.Store.ListProjects()
		if err != nil {
			deps.Logger.Error("listing projects", "error", err)
			httpError(w, http.StatusInternalServerError, "api_error", "Failed to fetch projects.")
			return
		}
		writeJSON(w, http.StatusOK, projects)
	}
}

func handleCreateProject(deps BackendDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req models.NewProject
		if !decodeBody(w, r, &req) {
			return
		}
		req.Name = strings.TrimSpace(req.Name)
		req.Status = strings.TrimSpace(req.Status)
		if req.Name == "" || req.Status == "" {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "Project name and status are required.")
			return
		}
		if req.Schools < 0 {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "School count must not be negative.")
			return
		}

		created, err := deps.Store.CreateProject(req)
		if errors.Is(err, storage.ErrConflict) {
			httpError(w, http.StatusConflict, "conflict_error", "Project %q already exists.", req.Name)
			return
		}
		if err != nil {
			deps.Logger.Error("creating project", "name", req.Name, "error", err)
			httpError(w, http.StatusInternalServerError, "api_error", "Failed to create project.")
			return
		}
		deps.Logger.Info("project created", "name", created.Name, "status", created.Status)
		writeJSON(w, http.StatusCreated, created)
	}
}

func handleUpdateStatus(deps BackendDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req models.StatusChange
		if !decodeBody(w, r, &req) {
			return
		}
		req.Name = strings.TrimSpace(req.Name)
		req.NewStatus = strings.TrimSpace(req.NewStatus)
		if req.Name == "" || req.NewStatus == "" {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "Project name and new status are required.")
			return
		}

		err := deps.Store.UpdateProjectStatus(req.Name, req.NewStatus)
		if errors.Is(err, storage.ErrNotFound) {
			httpError(w, http.StatusNotFound, "not_found", "Project not found.")
			return
		}
		if err != nil {
			deps.Logger.Error("updating project status", "name", req.Name, "error", err)
			httpError(w, http.StatusInternalServerError, "api_error", "Failed to change project status.")
			return
		}
		deps.Logger.Info("project status changed", "name", req.Name, "status", req.NewStatus)
		writeJSON(w, http.StatusOK, map[string]string{"message": "Project status updated."})
	}
}

func handleListBids(deps BackendDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		bids, err := deps.Store.ListBids(r.URL.Query().Get("project_id"))
		if err != nil {
			deps.Logger.Error("listing bids", "error", err)
			httpError(w, http.StatusInternalServerError, "api_error", "Failed to fetch bids.")
			return
		}
		writeJSON(w, http.StatusOK, bids)
	}
}

func handleTrafficData(deps BackendDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		series, err := deps.Store.TrafficSeries()
		if err != nil {
			deps.Logger.Error("reading traffic", "error", err)
			httpError(w, http.StatusInternalServerError, "api_error", "Failed to fetch traffic data.")
			return
		}
		writeJSON(w, http.StatusOK, series)
	}
}

func handleProjectProgress(deps BackendDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		project := r.URL.Query().Get("project")
		if project == "" {
			all, err := deps.Store.ListProgress()
			if err != nil {
				deps.Logger.Error("listing progress", "error", err)
				httpError(w, http.StatusInternalServerError, "api_error", "Failed to fetch project progress.")
				return
			}
			writeJSON(w, http.StatusOK, all)
			return
		}

		p, err := deps.Store.GetProgress(project)
		if errors.Is(err, storage.ErrNotFound) {
			httpError(w, http.StatusNotFound, "not_found", "Project progress not found.")
			return
		}
		if err != nil {
			deps.Logger.Error("reading progress", "project", project, "error", err)
			httpError(w, http.StatusInternalServerError, "api_error", "Failed to fetch project progress.")
			return
		}
		writeJSON(w, http.StatusOK, p)
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)
	defer r.Body.Close()

	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		httpError(w, http.StatusBadRequest, "invalid_request_error", "Invalid request body: %v", err)
		return false
	}
	return true
}
