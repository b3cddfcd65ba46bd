package controller

import (
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/milanenterprises/cleancare-backend/internal/app/model"
	"github.com/milanenterprises/cleancare-backend/internal/app/repository"
	"github.com/milanenterprises/cleancare-backend/internal/app/service"
	apperrors "github.com/milanenterprises/cleancare-backend/internal/errors"
	"github.com/milanenterprises/cleancare-backend/internal/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupAuthControllerTest(t *testing.T) *gin.Engine {
	testDB := newTestDB(t)
	revoker := newMemoryRevoker()

	authService := service.NewAuthService(repository.NewUserRepository(testDB), revoker, testSecret, 15*time.Minute, 24*time.Hour)
	ctrl := NewAuthController(authService)
	auth := middleware.NewAuthMiddleware(testSecret, revoker)

	router := gin.New()
	router.POST("/register", ctrl.Register)
	router.POST("/login", ctrl.Login)
	router.POST("/refresh", ctrl.RefreshToken)
	router.POST("/logout", auth.Authenticate(), ctrl.Logout)
	router.GET("/me", auth.Authenticate(), ctrl.GetMe)
	router.PUT("/me", auth.Authenticate(), ctrl.UpdateMe)
	router.PUT("/change-password", auth.Authenticate(), ctrl.ChangePassword)
	return router
}

func registerUser(t *testing.T, router *gin.Engine, email string) AuthResponse {
	w := performJSON(router, http.MethodPost, "/register", RegisterRequest{
		Email:     email,
		Password:  "password123",
		FirstName: "Asha",
		LastName:  "Patil",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var resp AuthResponse
	decodeData(t, w, &resp)
	return resp
}

func TestAuthController_Register_Success(t *testing.T) {
	router := setupAuthControllerTest(t)

	resp := registerUser(t, router, "Asha@Example.com")

	require.NotNil(t, resp.User)
	assert.Equal(t, "asha@example.com", resp.User.Email)
	assert.Equal(t, model.RoleCustomer, resp.User.Role)
	require.NotNil(t, resp.Tokens)
	assert.NotEmpty(t, resp.Tokens.AccessToken)
	assert.NotEmpty(t, resp.Tokens.RefreshToken)
}

func TestAuthController_Register_InvalidEmail(t *testing.T) {
	router := setupAuthControllerTest(t)

	w := performJSON(router, http.MethodPost, "/register", RegisterRequest{
		Email:     "invalid-email",
		Password:  "password123",
		FirstName: "Asha",
		LastName:  "Patil",
	})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	resp := decode(t, w)
	assert.False(t, resp.Success)
	assert.Equal(t, apperrors.ValidationInvalidInput, resp.Code)
	require.NotEmpty(t, resp.Errors)
	assert.Equal(t, "email", resp.Errors[0].Field)
}

func TestAuthController_Register_DuplicateEmail(t *testing.T) {
	router := setupAuthControllerTest(t)
	registerUser(t, router, "asha@example.com")

	w := performJSON(router, http.MethodPost, "/register", RegisterRequest{
		Email:     "ASHA@example.com",
		Password:  "password456",
		FirstName: "Another",
		LastName:  "User",
	})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, apperrors.AuthEmailAlreadyExists, decode(t, w).Code)
}

func TestAuthController_Login(t *testing.T) {
	router := setupAuthControllerTest(t)
	registerUser(t, router, "asha@example.com")

	w := performJSON(router, http.MethodPost, "/login", LoginRequest{Email: "asha@example.com", Password: "password123"})
	require.Equal(t, http.StatusOK, w.Code)
	var resp AuthResponse
	decodeData(t, w, &resp)
	assert.NotEmpty(t, resp.Tokens.AccessToken)

	w = performJSON(router, http.MethodPost, "/login", LoginRequest{Email: "asha@example.com", Password: "wrong-password"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Invalid credentials", decode(t, w).Message)

	w = performJSON(router, http.MethodPost, "/login", LoginRequest{Email: "nobody@example.com", Password: "password123"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthController_RefreshToken(t *testing.T) {
	router := setupAuthControllerTest(t)
	registered := registerUser(t, router, "asha@example.com")

	w := performJSON(router, http.MethodPost, "/refresh", RefreshRequest{RefreshToken: registered.Tokens.RefreshToken})
	assert.Equal(t, http.StatusOK, w.Code, w.Body.String())

	// an access token is not accepted as a refresh token
	w = performJSON(router, http.MethodPost, "/refresh", RefreshRequest{RefreshToken: registered.Tokens.AccessToken})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthController_MeAndLogout(t *testing.T) {
	router := setupAuthControllerTest(t)
	registered := registerUser(t, router, "asha@example.com")
	token := registered.Tokens.AccessToken

	w := performJSON(router, http.MethodGet, "/me", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = performJSON(router, http.MethodGet, "/me", nil, withToken(token))
	require.Equal(t, http.StatusOK, w.Code)
	var me struct {
		User model.User `json:"user"`
	}
	decodeData(t, w, &me)
	assert.Equal(t, "Asha", me.User.FirstName)

	phone := "9876543210"
	w = performJSON(router, http.MethodPut, "/me", UpdateProfileRequest{Phone: &phone}, withToken(token))
	assert.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = performJSON(router, http.MethodPost, "/logout", nil, withToken(token))
	require.Equal(t, http.StatusOK, w.Code)

	w = performJSON(router, http.MethodGet, "/me", nil, withToken(token))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthController_ChangePassword(t *testing.T) {
	router := setupAuthControllerTest(t)
	token := registerUser(t, router, "asha@example.com").Tokens.AccessToken

	w := performJSON(router, http.MethodPut, "/change-password", ChangePasswordRequest{
		CurrentPassword: "not-my-password",
		NewPassword:     "new-password-1",
	}, withToken(token))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = performJSON(router, http.MethodPut, "/change-password", ChangePasswordRequest{
		CurrentPassword: "password123",
		NewPassword:     "new-password-1",
	}, withToken(token))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = performJSON(router, http.MethodPost, "/login", LoginRequest{Email: "asha@example.com", Password: "new-password-1"})
	assert.Equal(t, http.StatusOK, w.Code)
}
