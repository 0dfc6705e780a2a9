package handler

import (
	"context"
	"net/http"

	"iat/tracker-service/internal/app/tracker/entity"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

type ProjectServiceInterface interface {
	Create(ctx context.Context, req *entity.CreateProjectRequest) (*entity.Project, error)
	List(ctx context.Context) ([]entity.Project, error)
	Get(ctx context.Context, id string) (*entity.Project, error)
	Update(ctx context.Context, id string, req *entity.UpdateProjectRequest) (*entity.Project, error)
	UpdateProgress(ctx context.Context, id string, progress float64) (*entity.Project, error)
	ReplaceCheckpoints(ctx context.Context, id string, checkpoints []entity.CheckpointInput) (*entity.Project, error)
	UpdateCheckpoint(ctx context.Context, id, checkpointID string, req *entity.UpdateCheckpointRequest) (*entity.Project, error)
	Delete(ctx context.Context, id string) error
}

// ProjectHandler обрабатывает проекты и контрольные точки
type ProjectHandler struct {
	projectService ProjectServiceInterface
	validator      *validator.Validate
}

func NewProjectHandler(projectService ProjectServiceInterface) *ProjectHandler {
	return &ProjectHandler{
		projectService: projectService,
		validator:      validator.New(),
	}
}

func (h *ProjectHandler) CreateProject(c *gin.Context) {
	var req entity.CreateProjectRequest
	if !bindAndValidate(c, h.validator, &req) {
		return
	}

	project, err := h.projectService.Create(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, project)
}

func (h *ProjectHandler) ListProjects(c *gin.Context) {
	projects, err := h.projectService.List(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, projects)
}

func (h *ProjectHandler) GetProject(c *gin.Context) {
	project, err := h.projectService.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, project)
}

func (h *ProjectHandler) UpdateProject(c *gin.Context) {
	var req entity.UpdateProjectRequest
	if !bindAndValidate(c, h.validator, &req) {
		return
	}

	project, err := h.projectService.Update(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, project)
}

func (h *ProjectHandler) UpdateProgress(c *gin.Context) {
	var req entity.UpdateProgressRequest
	if !bindAndValidate(c, h.validator, &req) {
		return
	}

	project, err := h.projectService.UpdateProgress(c.Request.Context(), c.Param("id"), *req.Progress)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, project)
}

func (h *ProjectHandler) ReplaceCheckpoints(c *gin.Context) {
	var req entity.ReplaceCheckpointsRequest
	if !bindAndValidate(c, h.validator, &req) {
		return
	}

	project, err := h.projectService.ReplaceCheckpoints(c.Request.Context(), c.Param("id"), req.Checkpoints)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, project)
}

func (h *ProjectHandler) UpdateCheckpoint(c *gin.Context) {
	var req entity.UpdateCheckpointRequest
	if !bindAndValidate(c, h.validator, &req) {
		return
	}

	project, err := h.projectService.UpdateCheckpoint(c.Request.Context(), c.Param("id"), c.Param("checkpointId"), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, project)
}

func (h *ProjectHandler) DeleteProject(c *gin.Context) {
	if err := h.projectService.Delete(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, entity.MessageResponse{Message: "Project deleted successfully"})
}
