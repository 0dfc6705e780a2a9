package service

import "errors"

var (
	// Группы, членство и оценки
	ErrGroupNotFound        = errors.New("group not found")
	ErrGroupExists          = errors.New("group with this name already exists")
	ErrAlreadyMember        = errors.New("user is already a member of this group")
	ErrSingleGroupViolation = errors.New("user can only be a member of one group")
	ErrNotMember            = errors.New("user is not a member of this group")
	ErrSelfRatingForbidden  = errors.New("members cannot rate their own group")
	ErrDuplicateRating      = errors.New("user has already rated this group")
	ErrRatingNotFound       = errors.New("user has not rated this group")
	ErrInvalidScore         = errors.New("scores must be between 0 and 40")
	ErrConcurrentUpdate     = errors.New("too many concurrent updates, please retry")

	// Пользователи и токены
	ErrInvalidCredentials  = errors.New("invalid email or password")
	ErrInvalidRefreshToken = errors.New("invalid or expired refresh token")
	ErrUserExists          = errors.New("user with this email or username already exists")
	ErrUserNotFound        = errors.New("user not found")
	ErrTokenExpired        = errors.New("token has expired")
	ErrInvalidToken        = errors.New("invalid token")
	ErrTokenBlacklisted    = errors.New("token is blacklisted")

	// Отчеты и проекты
	ErrFormCooldown       = errors.New("form already submitted within the cooldown window")
	ErrProjectNotFound    = errors.New("project not found")
	ErrCheckpointNotFound = errors.New("checkpoint not found")

	ErrForbidden  = errors.New("access forbidden")
	ErrValidation = errors.New("validation error")
)
