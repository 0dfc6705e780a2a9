package handler

import (
	"context"
	"net/http"

	"iat/tracker-service/internal/app/tracker/entity"
	"iat/tracker-service/internal/app/tracker/util"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

type AuthServiceInterface interface {
	Register(ctx context.Context, req *entity.RegisterRequest) (*entity.RegisterResponse, error)
	Login(ctx context.Context, req *entity.LoginRequest) (*entity.LoginResponse, error)
	RefreshTokens(ctx context.Context, refreshToken string) (*entity.TokenPair, error)
	Logout(ctx context.Context, principal entity.Principal, accessToken string) error
	ValidateToken(ctx context.Context, token string) (*util.JWTClaims, error)
}

type UserServiceInterface interface {
	GetCurrentUser(ctx context.Context, principal entity.Principal) (*entity.User, error)
	ListInterns(ctx context.Context) ([]entity.User, error)
	DepartmentCounts(ctx context.Context) ([]entity.DepartmentCount, error)
}

// AuthHandler обрабатывает регистрацию, вход и профили стажеров
type AuthHandler struct {
	authService AuthServiceInterface
	userService UserServiceInterface
	validator   *validator.Validate
}

func NewAuthHandler(authService AuthServiceInterface, userService UserServiceInterface) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		userService: userService,
		validator:   validator.New(),
	}
}

func (h *AuthHandler) Register(c *gin.Context) {
	var req entity.RegisterRequest
	if !bindAndValidate(c, h.validator, &req) {
		return
	}

	resp, err := h.authService.Register(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, resp)
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req entity.LoginRequest
	if !bindAndValidate(c, h.validator, &req) {
		return
	}

	resp, err := h.authService.Login(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (h *AuthHandler) RefreshToken(c *gin.Context) {
	var req entity.RefreshTokenRequest
	if !bindAndValidate(c, h.validator, &req) {
		return
	}

	tokens, err := h.authService.RefreshTokens(c.Request.Context(), req.RefreshToken)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, tokens)
}

func (h *AuthHandler) Logout(c *gin.Context) {
	principal, ok := requirePrincipal(c)
	if !ok {
		return
	}

	if err := h.authService.Logout(c.Request.Context(), principal, c.GetString(ctxToken)); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, entity.MessageResponse{Message: "Logged out successfully"})
}

func (h *AuthHandler) GetMe(c *gin.Context) {
	principal, ok := requirePrincipal(c)
	if !ok {
		return
	}

	user, err := h.userService.GetCurrentUser(c.Request.Context(), principal)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, user)
}

// VerifyToken вызывается после Authenticate, поэтому токен уже проверен
func (h *AuthHandler) VerifyToken(c *gin.Context) {
	principal, ok := requirePrincipal(c)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, entity.VerifyTokenResponse{Valid: true, User: principal})
}

func (h *AuthHandler) ListInterns(c *gin.Context) {
	users, err := h.userService.ListInterns(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, users)
}

func (h *AuthHandler) DepartmentCounts(c *gin.Context) {
	counts, err := h.userService.DepartmentCounts(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, counts)
}
