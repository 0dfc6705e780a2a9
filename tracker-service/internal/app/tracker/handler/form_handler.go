package handler

import (
	"context"
	"net/http"

	"iat/tracker-service/internal/app/tracker/entity"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

type FormServiceInterface interface {
	Submit(ctx context.Context, principal entity.Principal, req *entity.SubmitFormRequest) (*entity.Form, error)
	All(ctx context.Context) ([]entity.Form, error)
	Daily(ctx context.Context) ([]entity.Form, error)
	History(ctx context.Context, principal entity.Principal, userID string) ([]entity.Form, error)
	InternActivities(ctx context.Context) ([]entity.ActivityView, error)
}

// FormHandler обрабатывает ежедневные отчеты
type FormHandler struct {
	formService FormServiceInterface
	validator   *validator.Validate
}

func NewFormHandler(formService FormServiceInterface) *FormHandler {
	return &FormHandler{
		formService: formService,
		validator:   validator.New(),
	}
}

func (h *FormHandler) SubmitForm(c *gin.Context) {
	principal, ok := requirePrincipal(c)
	if !ok {
		return
	}

	var req entity.SubmitFormRequest
	if !bindAndValidate(c, h.validator, &req) {
		return
	}

	form, err := h.formService.Submit(c.Request.Context(), principal, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, form)
}

func (h *FormHandler) AllForms(c *gin.Context) {
	forms, err := h.formService.All(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, forms)
}

func (h *FormHandler) DailyForms(c *gin.Context) {
	forms, err := h.formService.Daily(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, forms)
}

func (h *FormHandler) UserHistory(c *gin.Context) {
	principal, ok := requirePrincipal(c)
	if !ok {
		return
	}

	forms, err := h.formService.History(c.Request.Context(), principal, c.Param("userId"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, forms)
}

func (h *FormHandler) InternActivities(c *gin.Context) {
	activities, err := h.formService.InternActivities(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, activities)
}
