package handler

import (
	"context"

	"iat/tracker-service/internal/app/tracker/entity"
	"iat/tracker-service/internal/app/tracker/util"

	"github.com/stretchr/testify/mock"
)

type MockAuthService struct {
	mock.Mock
}

func (m *MockAuthService) Register(ctx context.Context, req *entity.RegisterRequest) (*entity.RegisterResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.RegisterResponse), args.Error(1)
}

func (m *MockAuthService) Login(ctx context.Context, req *entity.LoginRequest) (*entity.LoginResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.LoginResponse), args.Error(1)
}

func (m *MockAuthService) RefreshTokens(ctx context.Context, refreshToken string) (*entity.TokenPair, error) {
	args := m.Called(ctx, refreshToken)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.TokenPair), args.Error(1)
}

func (m *MockAuthService) Logout(ctx context.Context, principal entity.Principal, accessToken string) error {
	args := m.Called(ctx, principal, accessToken)
	return args.Error(0)
}

func (m *MockAuthService) ValidateToken(ctx context.Context, token string) (*util.JWTClaims, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*util.JWTClaims), args.Error(1)
}

type MockUserService struct {
	mock.Mock
}

func (m *MockUserService) GetCurrentUser(ctx context.Context, principal entity.Principal) (*entity.User, error) {
	args := m.Called(ctx, principal)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.User), args.Error(1)
}

func (m *MockUserService) ListInterns(ctx context.Context) ([]entity.User, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.User), args.Error(1)
}

func (m *MockUserService) DepartmentCounts(ctx context.Context) ([]entity.DepartmentCount, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.DepartmentCount), args.Error(1)
}

type MockGroupService struct {
	mock.Mock
}

func (m *MockGroupService) CreateGroup(ctx context.Context, principal entity.Principal, req *entity.CreateGroupRequest) (*entity.Group, error) {
	args := m.Called(ctx, principal, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Group), args.Error(1)
}

func (m *MockGroupService) GetGroup(ctx context.Context, groupID string) (*entity.Group, error) {
	args := m.Called(ctx, groupID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Group), args.Error(1)
}

func (m *MockGroupService) ListGroups(ctx context.Context, principal entity.Principal) ([]entity.GroupView, error) {
	args := m.Called(ctx, principal)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.GroupView), args.Error(1)
}

func (m *MockGroupService) DeleteGroup(ctx context.Context, principal entity.Principal, groupID string) error {
	args := m.Called(ctx, principal, groupID)
	return args.Error(0)
}

type MockMembershipService struct {
	mock.Mock
}

func (m *MockMembershipService) JoinGroup(ctx context.Context, principal entity.Principal, groupID string) (*entity.Group, error) {
	args := m.Called(ctx, principal, groupID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Group), args.Error(1)
}

func (m *MockMembershipService) LeaveGroup(ctx context.Context, principal entity.Principal, groupID string) (*entity.Group, error) {
	args := m.Called(ctx, principal, groupID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Group), args.Error(1)
}

type MockRatingService struct {
	mock.Mock
}

func (m *MockRatingService) RateGroup(ctx context.Context, principal entity.Principal, groupID string, req *entity.RateGroupRequest) (*entity.Group, *entity.Rating, error) {
	args := m.Called(ctx, principal, groupID, req)
	if args.Get(0) == nil {
		return nil, nil, args.Error(2)
	}
	return args.Get(0).(*entity.Group), args.Get(1).(*entity.Rating), args.Error(2)
}

func (m *MockRatingService) RemoveRating(ctx context.Context, principal entity.Principal, groupID string) (*entity.Group, error) {
	args := m.Called(ctx, principal, groupID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Group), args.Error(1)
}

func (m *MockRatingService) GetRatings(ctx context.Context, groupID string) ([]entity.Rating, error) {
	args := m.Called(ctx, groupID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.Rating), args.Error(1)
}

type MockFormService struct {
	mock.Mock
}

func (m *MockFormService) Submit(ctx context.Context, principal entity.Principal, req *entity.SubmitFormRequest) (*entity.Form, error) {
	args := m.Called(ctx, principal, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Form), args.Error(1)
}

func (m *MockFormService) All(ctx context.Context) ([]entity.Form, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.Form), args.Error(1)
}

func (m *MockFormService) Daily(ctx context.Context) ([]entity.Form, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.Form), args.Error(1)
}

func (m *MockFormService) History(ctx context.Context, principal entity.Principal, userID string) ([]entity.Form, error) {
	args := m.Called(ctx, principal, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.Form), args.Error(1)
}

func (m *MockFormService) InternActivities(ctx context.Context) ([]entity.ActivityView, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.ActivityView), args.Error(1)
}

type MockProjectService struct {
	mock.Mock
}

func (m *MockProjectService) Create(ctx context.Context, req *entity.CreateProjectRequest) (*entity.Project, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Project), args.Error(1)
}

func (m *MockProjectService) List(ctx context.Context) ([]entity.Project, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.Project), args.Error(1)
}

func (m *MockProjectService) Get(ctx context.Context, id string) (*entity.Project, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Project), args.Error(1)
}

func (m *MockProjectService) Update(ctx context.Context, id string, req *entity.UpdateProjectRequest) (*entity.Project, error) {
	args := m.Called(ctx, id, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Project), args.Error(1)
}

func (m *MockProjectService) UpdateProgress(ctx context.Context, id string, progress float64) (*entity.Project, error) {
	args := m.Called(ctx, id, progress)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Project), args.Error(1)
}

func (m *MockProjectService) ReplaceCheckpoints(ctx context.Context, id string, checkpoints []entity.CheckpointInput) (*entity.Project, error) {
	args := m.Called(ctx, id, checkpoints)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Project), args.Error(1)
}

func (m *MockProjectService) UpdateCheckpoint(ctx context.Context, id, checkpointID string, req *entity.UpdateCheckpointRequest) (*entity.Project, error) {
	args := m.Called(ctx, id, checkpointID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Project), args.Error(1)
}

func (m *MockProjectService) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}
