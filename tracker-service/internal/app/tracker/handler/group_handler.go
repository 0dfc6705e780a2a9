package handler

import (
	"context"
	"net/http"

	"iat/tracker-service/internal/app/tracker/entity"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

type GroupServiceInterface interface {
	CreateGroup(ctx context.Context, principal entity.Principal, req *entity.CreateGroupRequest) (*entity.Group, error)
	GetGroup(ctx context.Context, groupID string) (*entity.Group, error)
	ListGroups(ctx context.Context, principal entity.Principal) ([]entity.GroupView, error)
	DeleteGroup(ctx context.Context, principal entity.Principal, groupID string) error
}

type MembershipServiceInterface interface {
	JoinGroup(ctx context.Context, principal entity.Principal, groupID string) (*entity.Group, error)
	LeaveGroup(ctx context.Context, principal entity.Principal, groupID string) (*entity.Group, error)
}

type RatingServiceInterface interface {
	RateGroup(ctx context.Context, principal entity.Principal, groupID string, req *entity.RateGroupRequest) (*entity.Group, *entity.Rating, error)
	RemoveRating(ctx context.Context, principal entity.Principal, groupID string) (*entity.Group, error)
	GetRatings(ctx context.Context, groupID string) ([]entity.Rating, error)
}

// GroupHandler обрабатывает группы, членство и оценки
type GroupHandler struct {
	groupService      GroupServiceInterface
	membershipService MembershipServiceInterface
	ratingService     RatingServiceInterface
	validator         *validator.Validate
}

func NewGroupHandler(groups GroupServiceInterface, membership MembershipServiceInterface, ratings RatingServiceInterface) *GroupHandler {
	return &GroupHandler{
		groupService:      groups,
		membershipService: membership,
		ratingService:     ratings,
		validator:         validator.New(),
	}
}

func (h *GroupHandler) ListGroups(c *gin.Context) {
	principal, _ := principalFrom(c)

	groups, err := h.groupService.ListGroups(c.Request.Context(), principal)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, groups)
}

func (h *GroupHandler) GetGroup(c *gin.Context) {
	group, err := h.groupService.GetGroup(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, group)
}

func (h *GroupHandler) CreateGroup(c *gin.Context) {
	principal, ok := requirePrincipal(c)
	if !ok {
		return
	}

	var req entity.CreateGroupRequest
	if !bindAndValidate(c, h.validator, &req) {
		return
	}

	group, err := h.groupService.CreateGroup(c.Request.Context(), principal, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, entity.GroupResponse{Message: "Group created successfully", Group: group})
}

func (h *GroupHandler) DeleteGroup(c *gin.Context) {
	principal, ok := requirePrincipal(c)
	if !ok {
		return
	}

	if err := h.groupService.DeleteGroup(c.Request.Context(), principal, c.Param("id")); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, entity.MessageResponse{Message: "Group deleted successfully"})
}

func (h *GroupHandler) JoinGroup(c *gin.Context) {
	principal, ok := requirePrincipal(c)
	if !ok {
		return
	}

	group, err := h.membershipService.JoinGroup(c.Request.Context(), principal, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, entity.GroupResponse{Message: "Joined group successfully", Group: group})
}

func (h *GroupHandler) LeaveGroup(c *gin.Context) {
	principal, ok := requirePrincipal(c)
	if !ok {
		return
	}

	group, err := h.membershipService.LeaveGroup(c.Request.Context(), principal, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, entity.GroupResponse{Message: "Left group successfully", Group: group})
}

func (h *GroupHandler) RateGroup(c *gin.Context) {
	principal, ok := requirePrincipal(c)
	if !ok {
		return
	}

	var req entity.RateGroupRequest
	if !bindAndValidate(c, h.validator, &req) {
		return
	}

	group, rating, err := h.ratingService.RateGroup(c.Request.Context(), principal, c.Param("id"), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, entity.RatingResponse{Message: "Rating submitted successfully", Group: group, NewRating: rating})
}

func (h *GroupHandler) RemoveRating(c *gin.Context) {
	principal, ok := requirePrincipal(c)
	if !ok {
		return
	}

	group, err := h.ratingService.RemoveRating(c.Request.Context(), principal, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, entity.GroupResponse{Message: "Rating removed successfully", Group: group})
}

func (h *GroupHandler) GetRatings(c *gin.Context) {
	ratings, err := h.ratingService.GetRatings(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, ratings)
}
