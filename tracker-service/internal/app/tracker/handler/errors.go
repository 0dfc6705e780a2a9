package handler

import (
	"errors"
	"net/http"

	"iat/pkg/logger"
	"iat/tracker-service/internal/app/tracker/entity"
	"iat/tracker-service/internal/app/tracker/service"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

// Стабильные машинные коды ошибок API
const (
	CodeNotFound             = "not_found"
	CodeCheckpointNotFound   = "checkpoint_not_found"
	CodeAlreadyMember        = "already_member"
	CodeSingleGroupViolation = "single_group_violation"
	CodeNotMember            = "not_member"
	CodeSelfRatingForbidden  = "self_rating_forbidden"
	CodeDuplicateRating      = "duplicate_rating"
	CodeRatingNotFound       = "rating_not_found"
	CodeInvalidScore         = "invalid_score"
	CodeValidation           = "validation_error"
	CodeGroupExists          = "group_exists"
	CodeUserExists           = "user_exists"
	CodeFormCooldown         = "form_cooldown"
	CodeForbidden            = "forbidden"
	CodeInvalidCredentials   = "invalid_credentials"
	CodeUnauthenticated      = "unauthenticated"
	CodeConcurrentUpdate     = "concurrent_update"
	CodeInternal             = "internal_error"
)

type errorMapping struct {
	err    error
	status int
	code   string
}

// errorMappings порядок важен только для ошибок, оборачивающих другие
var errorMappings = []errorMapping{
	{service.ErrGroupNotFound, http.StatusNotFound, CodeNotFound},
	{service.ErrUserNotFound, http.StatusNotFound, CodeNotFound},
	{service.ErrProjectNotFound, http.StatusNotFound, CodeNotFound},
	{service.ErrCheckpointNotFound, http.StatusNotFound, CodeCheckpointNotFound},

	{service.ErrAlreadyMember, http.StatusBadRequest, CodeAlreadyMember},
	{service.ErrSingleGroupViolation, http.StatusBadRequest, CodeSingleGroupViolation},
	{service.ErrNotMember, http.StatusBadRequest, CodeNotMember},
	{service.ErrSelfRatingForbidden, http.StatusBadRequest, CodeSelfRatingForbidden},
	{service.ErrDuplicateRating, http.StatusBadRequest, CodeDuplicateRating},
	{service.ErrRatingNotFound, http.StatusBadRequest, CodeRatingNotFound},
	{service.ErrInvalidScore, http.StatusBadRequest, CodeInvalidScore},
	{service.ErrValidation, http.StatusBadRequest, CodeValidation},
	{service.ErrFormCooldown, http.StatusBadRequest, CodeFormCooldown},

	{service.ErrGroupExists, http.StatusConflict, CodeGroupExists},
	{service.ErrUserExists, http.StatusConflict, CodeUserExists},
	{service.ErrConcurrentUpdate, http.StatusConflict, CodeConcurrentUpdate},

	{service.ErrForbidden, http.StatusForbidden, CodeForbidden},

	{service.ErrInvalidCredentials, http.StatusUnauthorized, CodeInvalidCredentials},
	{service.ErrInvalidRefreshToken, http.StatusUnauthorized, CodeUnauthenticated},
	{service.ErrTokenExpired, http.StatusUnauthorized, CodeUnauthenticated},
	{service.ErrInvalidToken, http.StatusUnauthorized, CodeUnauthenticated},
	{service.ErrTokenBlacklisted, http.StatusUnauthorized, CodeUnauthenticated},
}

// respondError переводит ошибку сервиса в HTTP ответ с кодом и сообщением.
// Внутренние ошибки логируются, клиенту уходит общее сообщение.
func respondError(c *gin.Context, err error) {
	for _, m := range errorMappings {
		if errors.Is(err, m.err) {
			c.JSON(m.status, entity.ErrorResponse{Error: m.code, Message: err.Error()})
			return
		}
	}

	logger.Error().
		Err(err).
		Str("method", c.Request.Method).
		Str("path", c.FullPath()).
		Msg("Request failed")

	c.JSON(http.StatusInternalServerError, entity.ErrorResponse{
		Error:   CodeInternal,
		Message: "Internal server error",
	})
}

func respondBadRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, entity.ErrorResponse{Error: CodeValidation, Message: message})
}

func respondUnauthenticated(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, entity.ErrorResponse{Error: CodeUnauthenticated, Message: message})
}

// bindAndValidate разбирает JSON тело и проверяет теги validate
func bindAndValidate(c *gin.Context, v *validator.Validate, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		respondBadRequest(c, "Invalid request body")
		return false
	}
	if err := v.Struct(req); err != nil {
		respondBadRequest(c, formatValidationError(err))
		return false
	}
	return true
}

func formatValidationError(err error) string {
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		for _, fieldError := range validationErrors {
			return fieldError.Field() + " is " + fieldError.Tag()
		}
	}
	return "Validation failed"
}
