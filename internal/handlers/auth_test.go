package handlers

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"group-chat-service/internal/auth"
	"group-chat-service/internal/mocks"
	"group-chat-service/internal/models"
	"group-chat-service/internal/repositories"
)

func setupAuthRouter(handler *AuthHandler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/api/auth/register", handler.Register)
	r.POST("/api/auth/login", handler.Login)
	r.POST("/api/auth/forgot-password", handler.ForgotPassword)
	r.GET("/api/auth/me", func(c *gin.Context) {
		c.Set("userID", "u1")
		handler.Me(c)
	})
	return r
}

func newTestAuthHandler(userRepo repositories.UserRepository) *AuthHandler {
	jwtManager := auth.NewJWTManager("test-secret", time.Hour)
	return NewAuthHandler(userRepo, jwtManager, nil, false)
}

func TestRegisterSuccess(t *testing.T) {
	userRepo := new(mocks.UserRepositoryMock)
	router := setupAuthRouter(newTestAuthHandler(userRepo))

	userRepo.On("CreateUser", mock.Anything, "alice", "alice@example.com", mock.AnythingOfType("string")).
		Return(models.User{ID: "u1", Name: "alice", Email: "alice@example.com"}, nil).Once()

	body := bytes.NewBufferString(`{"name":"alice","email":"alice@example.com","password":"hunter2"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/auth/register", body)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	require.NotContains(t, rec.Body.String(), "password")
	userRepo.AssertExpectations(t)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	userRepo := new(mocks.UserRepositoryMock)
	router := setupAuthRouter(newTestAuthHandler(userRepo))

	userRepo.On("CreateUser", mock.Anything, "alice", "alice@example.com", mock.AnythingOfType("string")).
		Return(models.User{}, repositories.ErrEmailTaken).Once()

	body := bytes.NewBufferString(`{"name":"alice","email":"alice@example.com","password":"hunter2"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/auth/register", body)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	userRepo.AssertExpectations(t)
}

func TestRegisterInvalidEmail(t *testing.T) {
	router := setupAuthRouter(newTestAuthHandler(new(mocks.UserRepositoryMock)))

	body := bytes.NewBufferString(`{"name":"alice","email":"not-an-email","password":"hunter2"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/auth/register", body)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLoginSetsCookie(t *testing.T) {
	userRepo := new(mocks.UserRepositoryMock)
	router := setupAuthRouter(newTestAuthHandler(userRepo))

	hash, err := auth.HashPassword("hunter2")
	require.NoError(t, err)
	userRepo.On("GetUserByEmail", mock.Anything, "alice@example.com").
		Return(models.User{ID: "u1", Name: "alice", Email: "alice@example.com", Password: hash}, nil).Once()

	body := bytes.NewBufferString(`{"email":"alice@example.com","password":"hunter2"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", body)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	require.Equal(t, "token", cookies[0].Name)
	require.True(t, cookies[0].HttpOnly)
	require.NotEmpty(t, cookies[0].Value)
	userRepo.AssertExpectations(t)
}

func TestLoginWrongPassword(t *testing.T) {
	userRepo := new(mocks.UserRepositoryMock)
	router := setupAuthRouter(newTestAuthHandler(userRepo))

	hash, err := auth.HashPassword("hunter2")
	require.NoError(t, err)
	userRepo.On("GetUserByEmail", mock.Anything, "alice@example.com").
		Return(models.User{ID: "u1", Email: "alice@example.com", Password: hash}, nil).Once()

	body := bytes.NewBufferString(`{"email":"alice@example.com","password":"wrong"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", body)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusUnauthorized, rec.Code)
	userRepo.AssertExpectations(t)
}

func TestLoginUnknownEmail(t *testing.T) {
	userRepo := new(mocks.UserRepositoryMock)
	router := setupAuthRouter(newTestAuthHandler(userRepo))

	userRepo.On("GetUserByEmail", mock.Anything, "ghost@example.com").
		Return(models.User{}, repositories.ErrUserNotFound).Once()

	body := bytes.NewBufferString(`{"email":"ghost@example.com","password":"hunter2"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", body)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusUnauthorized, rec.Code)
	userRepo.AssertExpectations(t)
}

func TestMeReturnsUser(t *testing.T) {
	userRepo := new(mocks.UserRepositoryMock)
	router := setupAuthRouter(newTestAuthHandler(userRepo))

	userRepo.On("GetUser", mock.Anything, "u1").
		Return(models.User{ID: "u1", Name: "alice", Email: "alice@example.com"}, nil).Once()

	req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"alice"`)
	userRepo.AssertExpectations(t)
}

func TestForgotPasswordUnknownUser(t *testing.T) {
	userRepo := new(mocks.UserRepositoryMock)
	router := setupAuthRouter(newTestAuthHandler(userRepo))

	userRepo.On("UpdatePassword", mock.Anything, "ghost@example.com", mock.AnythingOfType("string")).
		Return(repositories.ErrUserNotFound).Once()

	body := bytes.NewBufferString(`{"email":"ghost@example.com","newPassword":"newpass"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/auth/forgot-password", body)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNotFound, rec.Code)
	userRepo.AssertExpectations(t)
}
