package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"iat/pkg/rubric"
	"iat/tracker-service/internal/app/tracker/entity"
	"iat/tracker-service/internal/app/tracker/service"
	"iat/tracker-service/internal/app/tracker/util"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const testToken = "valid-token"

var testPrincipal = entity.Principal{UserID: primitive.NewObjectID().Hex(), Name: "alice", Email: "alice@example.com", Branch: "CSE"}

type testServer struct {
	router     *gin.Engine
	auth       *MockAuthService
	users      *MockUserService
	groups     *MockGroupService
	membership *MockMembershipService
	ratings    *MockRatingService
	forms      *MockFormService
	projects   *MockProjectService
}

func newTestServer() *testServer {
	gin.SetMode(gin.TestMode)

	s := &testServer{
		auth:       new(MockAuthService),
		users:      new(MockUserService),
		groups:     new(MockGroupService),
		membership: new(MockMembershipService),
		ratings:    new(MockRatingService),
		forms:      new(MockFormService),
		projects:   new(MockProjectService),
	}

	s.auth.On("ValidateToken", mock.Anything, testToken).Return(&util.JWTClaims{
		UserID: testPrincipal.UserID,
		Name:   testPrincipal.Name,
		Email:  testPrincipal.Email,
		Branch: testPrincipal.Branch,
	}, nil).Maybe()

	s.router = SetupRoutes(Handlers{
		Auth:    NewAuthHandler(s.auth, s.users),
		Groups:  NewGroupHandler(s.groups, s.membership, s.ratings),
		Forms:   NewFormHandler(s.forms),
		Project: NewProjectHandler(s.projects),
	}, NewAuthMiddleware(s.auth), []string{"http://localhost:5173"})

	return s
}

func (s *testServer) do(t *testing.T, method, path string, body interface{}, authorized bool) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if authorized {
		req.Header.Set("Authorization", "Bearer "+testToken)
	}

	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) entity.ErrorResponse {
	t.Helper()
	var resp entity.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func TestHealth(t *testing.T) {
	s := newTestServer()

	rec := s.do(t, http.MethodGet, "/health", nil, false)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "tracker-service")
}

func TestAuthMiddleware_RejectsMissingAndMalformedHeaders(t *testing.T) {
	s := newTestServer()

	testCases := []struct {
		name       string
		authHeader string
	}{
		{"Missing", ""},
		{"No Bearer prefix", "token-without-bearer"},
		{"Wrong prefix", "Basic token"},
		{"Only Bearer", "Bearer"},
		{"Extra parts", "Bearer token extra"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/groups", nil)
			if tc.authHeader != "" {
				req.Header.Set("Authorization", tc.authHeader)
			}
			rec := httptest.NewRecorder()

			s.router.ServeHTTP(rec, req)

			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.Equal(t, CodeUnauthenticated, decodeError(t, rec).Error)
		})
	}
	s.groups.AssertNotCalled(t, "ListGroups", mock.Anything, mock.Anything)
}

func TestAuthMiddleware_RejectsBlacklistedToken(t *testing.T) {
	s := newTestServer()
	s.auth.On("ValidateToken", mock.Anything, "revoked").Return(nil, service.ErrTokenBlacklisted)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/groups", nil)
	req.Header.Set("Authorization", "Bearer revoked")
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, CodeUnauthenticated, decodeError(t, rec).Error)
}

func TestListGroups_PassesPrincipal(t *testing.T) {
	s := newTestServer()
	views := []entity.GroupView{
		{Group: entity.Group{Name: "Nova", Aggregate: rubric.Aggregate{TotalRating: 155}}, HasRated: true},
	}
	s.groups.On("ListGroups", mock.Anything, testPrincipal).Return(views, nil)

	rec := s.do(t, http.MethodGet, "/api/v1/groups", nil, true)

	require.Equal(t, http.StatusOK, rec.Code)
	var body []map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body, 1)
	assert.Equal(t, "Nova", body[0]["name"])
	assert.Equal(t, 155.0, body[0]["totalRating"])
	assert.Equal(t, true, body[0]["hasRated"])
	assert.Equal(t, false, body[0]["isMember"])
}

func TestJoinGroup_Success(t *testing.T) {
	s := newTestServer()
	group := &entity.Group{ID: primitive.NewObjectID(), Name: "Nova"}
	s.membership.On("JoinGroup", mock.Anything, testPrincipal, group.ID.Hex()).Return(group, nil)

	rec := s.do(t, http.MethodPost, "/api/v1/groups/"+group.ID.Hex()+"/join", nil, true)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Message string       `json:"message"`
		Group   entity.Group `json:"group"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.Message)
	assert.Equal(t, "Nova", resp.Group.Name)
}

func TestGroupRuleErrors_MappedToStableCodes(t *testing.T) {
	testCases := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"group not found", service.ErrGroupNotFound, http.StatusNotFound, CodeNotFound},
		{"already member", service.ErrAlreadyMember, http.StatusBadRequest, CodeAlreadyMember},
		{"single group", service.ErrSingleGroupViolation, http.StatusBadRequest, CodeSingleGroupViolation},
		{"concurrent update", service.ErrConcurrentUpdate, http.StatusConflict, CodeConcurrentUpdate},
		{"internal", errors.New("mongo: connection reset"), http.StatusInternalServerError, CodeInternal},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			s := newTestServer()
			s.membership.On("JoinGroup", mock.Anything, testPrincipal, "g1").Return(nil, tc.err)

			rec := s.do(t, http.MethodPost, "/api/v1/groups/g1/join", nil, true)

			assert.Equal(t, tc.status, rec.Code)
			resp := decodeError(t, rec)
			assert.Equal(t, tc.code, resp.Error)
			assert.NotEmpty(t, resp.Message)
			assert.NotContains(t, resp.Message, "mongo")
		})
	}
}

func TestLeaveGroup_NotMember(t *testing.T) {
	s := newTestServer()
	s.membership.On("LeaveGroup", mock.Anything, testPrincipal, "g1").Return(nil, service.ErrNotMember)

	rec := s.do(t, http.MethodPost, "/api/v1/groups/g1/leave", nil, true)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, CodeNotMember, decodeError(t, rec).Error)
}

func TestRateGroup_Created(t *testing.T) {
	s := newTestServer()
	group := &entity.Group{ID: primitive.NewObjectID(), Name: "Nova", Aggregate: rubric.Aggregate{TotalRating: 70, RatingCount: 1}}
	rating := &entity.Rating{RaterName: "alice", Scores: rubric.Scores{Communication: 30, Presentation: 20, Content: 10, HelpfulForCompany: 5, HelpfulForInterns: 5}}
	s.ratings.On("RateGroup", mock.Anything, testPrincipal, group.ID.Hex(), mock.AnythingOfType("*entity.RateGroupRequest")).Return(group, rating, nil)

	body := map[string]interface{}{
		"communication": 30, "presentation": 20, "content": 10,
		"helpfulForCompany": 5, "helpfulForInterns": 5, "participation": 0,
		"comments": "well done",
	}
	rec := s.do(t, http.MethodPost, "/api/v1/groups/"+group.ID.Hex()+"/ratings", body, true)

	require.Equal(t, http.StatusCreated, rec.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Contains(t, resp, "message")
	assert.Contains(t, resp, "group")
	assert.Contains(t, resp, "newRating")

	req := s.ratings.Calls[0].Arguments.Get(3).(*entity.RateGroupRequest)
	require.NotNil(t, req.Participation)
	assert.Equal(t, 0.0, *req.Participation)
}

func TestRateGroup_MissingDimension(t *testing.T) {
	s := newTestServer()
	s.ratings.On("RateGroup", mock.Anything, testPrincipal, "g1", mock.Anything).
		Return(nil, nil, fmt.Errorf("%w: missing participation", service.ErrValidation))

	body := map[string]interface{}{
		"communication": 30, "presentation": 20, "content": 10,
		"helpfulForCompany": 5, "helpfulForInterns": 5,
	}
	rec := s.do(t, http.MethodPost, "/api/v1/groups/g1/ratings", body, true)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	resp := decodeError(t, rec)
	assert.Equal(t, CodeValidation, resp.Error)
	assert.Contains(t, resp.Message, "participation")

	req := s.ratings.Calls[0].Arguments.Get(3).(*entity.RateGroupRequest)
	assert.Nil(t, req.Participation)
}

func TestRateGroup_MissingGroupWithIncompleteBody(t *testing.T) {
	s := newTestServer()
	s.ratings.On("RateGroup", mock.Anything, testPrincipal, "missing", mock.Anything).
		Return(nil, nil, service.ErrGroupNotFound)

	body := map[string]interface{}{"communication": 30}
	rec := s.do(t, http.MethodPost, "/api/v1/groups/missing/ratings", body, true)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRateGroup_InvalidScore(t *testing.T) {
	s := newTestServer()
	s.ratings.On("RateGroup", mock.Anything, testPrincipal, "g1", mock.Anything).
		Return(nil, nil, service.ErrInvalidScore)

	body := map[string]interface{}{
		"communication": 41, "presentation": 0, "content": 0,
		"helpfulForCompany": 0, "helpfulForInterns": 0, "participation": 0,
	}
	rec := s.do(t, http.MethodPost, "/api/v1/groups/g1/ratings", body, true)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, CodeInvalidScore, decodeError(t, rec).Error)
}

func TestRemoveRating_NotRated(t *testing.T) {
	s := newTestServer()
	s.ratings.On("RemoveRating", mock.Anything, testPrincipal, "g1").Return(nil, service.ErrRatingNotFound)

	rec := s.do(t, http.MethodDelete, "/api/v1/groups/g1/ratings", nil, true)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, CodeRatingNotFound, decodeError(t, rec).Error)
}

func TestDeleteGroup_Forbidden(t *testing.T) {
	s := newTestServer()
	s.groups.On("DeleteGroup", mock.Anything, testPrincipal, "g1").Return(service.ErrForbidden)

	rec := s.do(t, http.MethodDelete, "/api/v1/groups/g1", nil, true)

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, CodeForbidden, decodeError(t, rec).Error)
}

func TestCreateGroup_Exists(t *testing.T) {
	s := newTestServer()
	s.groups.On("CreateGroup", mock.Anything, testPrincipal, &entity.CreateGroupRequest{Name: "Nova"}).Return(nil, service.ErrGroupExists)

	rec := s.do(t, http.MethodPost, "/api/v1/groups", map[string]string{"name": "Nova"}, true)

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, CodeGroupExists, decodeError(t, rec).Error)
}

func TestRegister_ValidationAndConflict(t *testing.T) {
	s := newTestServer()
	s.auth.On("Register", mock.Anything, mock.AnythingOfType("*entity.RegisterRequest")).Return(nil, service.ErrUserExists)

	bad := map[string]string{"username": "alice", "email": "alice@example.com", "password": "secret123", "branch": "Physics"}
	rec := s.do(t, http.MethodPost, "/api/v1/user/register", bad, false)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, CodeValidation, decodeError(t, rec).Error)

	good := map[string]string{"username": "alice", "email": "alice@example.com", "password": "secret123", "branch": "CSE"}
	rec = s.do(t, http.MethodPost, "/api/v1/user/register", good, false)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, CodeUserExists, decodeError(t, rec).Error)
}

func TestLogin_InvalidCredentials(t *testing.T) {
	s := newTestServer()
	s.auth.On("Login", mock.Anything, mock.Anything).Return(nil, service.ErrInvalidCredentials)

	rec := s.do(t, http.MethodPost, "/api/v1/user/login", map[string]string{"email": "alice@example.com", "password": "nope"}, false)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, CodeInvalidCredentials, decodeError(t, rec).Error)
}

func TestLogout_PassesAccessToken(t *testing.T) {
	s := newTestServer()
	s.auth.On("Logout", mock.Anything, testPrincipal, testToken).Return(nil)

	rec := s.do(t, http.MethodPost, "/api/v1/user/logout", nil, true)

	assert.Equal(t, http.StatusOK, rec.Code)
	s.auth.AssertCalled(t, "Logout", mock.Anything, testPrincipal, testToken)
}

func TestVerifyToken_ReturnsPrincipal(t *testing.T) {
	s := newTestServer()

	rec := s.do(t, http.MethodGet, "/api/v1/user/verify-token", nil, true)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp entity.VerifyTokenResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Valid)
	assert.Equal(t, testPrincipal, resp.User)
}

func TestAllInterns_HidesPasswordHash(t *testing.T) {
	s := newTestServer()
	s.users.On("ListInterns", mock.Anything).Return([]entity.User{{Username: "alice", PasswordHash: "$2a$10$secret"}}, nil)

	rec := s.do(t, http.MethodGet, "/api/v1/user/all-interns", nil, false)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), "secret")
}

func TestSubmitForm_Cooldown(t *testing.T) {
	s := newTestServer()
	s.forms.On("Submit", mock.Anything, testPrincipal, mock.Anything).Return(nil, service.ErrFormCooldown)

	body := map[string]string{"name": "alice", "branch": "CSE", "activities": "tests"}
	rec := s.do(t, http.MethodPost, "/api/v1/form/submit-form", body, true)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, CodeFormCooldown, decodeError(t, rec).Error)
}

func TestInternActivities_Public(t *testing.T) {
	s := newTestServer()
	s.forms.On("InternActivities", mock.Anything).Return([]entity.ActivityView{{Name: "alice", Date: "Mar 5, 2024", Time: "02:07 PM"}}, nil)

	rec := s.do(t, http.MethodGet, "/api/v1/form/intern-activities", nil, false)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "02:07 PM")
}

func TestUserHistory_Forbidden(t *testing.T) {
	s := newTestServer()
	s.forms.On("History", mock.Anything, testPrincipal, "other").Return(nil, service.ErrForbidden)

	rec := s.do(t, http.MethodGet, "/api/v1/form/user-history/other", nil, true)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestCreateProject_Validation(t *testing.T) {
	s := newTestServer()

	rec := s.do(t, http.MethodPost, "/api/v1/projects", map[string]interface{}{"name": "Bench"}, true)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodPost, "/api/v1/projects", map[string]interface{}{
		"name":     "Bench",
		"deadline": "2024-06-01T00:00:00Z",
		"links":    []map[string]string{{"title": "Repo", "url": "not a url"}},
	}, true)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	s.projects.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestUpdateProgress_ValidationError(t *testing.T) {
	s := newTestServer()
	s.projects.On("UpdateProgress", mock.Anything, "p1", 150.0).Return(nil, service.ErrValidation)

	rec := s.do(t, http.MethodPatch, "/api/v1/projects/p1/progress", map[string]float64{"progress": 150}, true)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, CodeValidation, decodeError(t, rec).Error)
}

func TestUpdateCheckpoint_NotFound(t *testing.T) {
	s := newTestServer()
	s.projects.On("UpdateCheckpoint", mock.Anything, "p1", "c1", mock.Anything).Return(nil, service.ErrCheckpointNotFound)

	rec := s.do(t, http.MethodPatch, "/api/v1/projects/p1/checkpoints/c1", map[string]string{"status": "completed"}, true)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, CodeCheckpointNotFound, decodeError(t, rec).Error)
}

func TestProjects_RequireAuth(t *testing.T) {
	s := newTestServer()

	rec := s.do(t, http.MethodGet, "/api/v1/projects", nil, false)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
