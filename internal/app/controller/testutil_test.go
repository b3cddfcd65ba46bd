package controller

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/milanenterprises/cleancare-backend/internal/app/model"
	"github.com/milanenterprises/cleancare-backend/internal/db"
	"github.com/milanenterprises/cleancare-backend/internal/middleware"
	"github.com/milanenterprises/cleancare-backend/pkg/util"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const testSecret = "test-secret"

// envelope mirrors apperrors.Response with the payload left raw
type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
	Code    string          `json:"code"`
	Errors  []struct {
		Field   string `json:"field"`
		Message string `json:"message"`
	} `json:"errors"`
}

func newTestDB(t *testing.T) *gorm.DB {
	gin.SetMode(gin.TestMode)

	testDB, err := db.SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() {
		db.CleanupTestDB(testDB)
	})
	return testDB
}

func newAuthMiddleware() *middleware.AuthMiddleware {
	return middleware.NewAuthMiddleware(testSecret, nil)
}

func seedUser(t *testing.T, testDB *gorm.DB, email string, role model.UserRole) (*model.User, string) {
	hash, err := util.HashPassword("password123")
	require.NoError(t, err)

	user := &model.User{Email: email, PasswordHash: hash, FirstName: "Test", LastName: "User", Role: role}
	require.NoError(t, testDB.Create(user).Error)

	tokens, err := util.GenerateTokenPair(user.ID, user.Email, string(user.Role), testSecret, 15*time.Minute, time.Hour)
	require.NoError(t, err)
	return user, tokens.AccessToken
}

func seedCategory(t *testing.T, testDB *gorm.DB, slug string) *model.Category {
	category := &model.Category{Name: slug, Slug: slug}
	require.NoError(t, testDB.Create(category).Error)
	return category
}

func seedProduct(t *testing.T, testDB *gorm.DB, categoryID uint, name string, price float64, stock int) *model.Product {
	slug := util.Slugify(name)
	product := &model.Product{
		Name:          name,
		Slug:          slug,
		SKU:           fmt.Sprintf("SKU-%s", slug),
		Price:         price,
		CategoryID:    categoryID,
		StockQuantity: stock,
	}
	require.NoError(t, testDB.Create(product).Error)
	return product
}

type requestOption func(*http.Request)

func withToken(token string) requestOption {
	return func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+token) }
}

func withSession(id string) requestOption {
	return func(r *http.Request) { r.Header.Set(SessionHeader, id) }
}

func performJSON(router http.Handler, method, path string, body interface{}, opts ...requestOption) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != nil {
		raw, _ := json.Marshal(body)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for _, opt := range opts {
		opt(req)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) envelope {
	var resp envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
	return resp
}

func decodeData(t *testing.T, w *httptest.ResponseRecorder, out interface{}) envelope {
	resp := decode(t, w)
	require.True(t, resp.Success, w.Body.String())
	require.NoError(t, json.Unmarshal(resp.Data, out))
	return resp
}

// memoryRevoker stands in for the Redis token blacklist
type memoryRevoker struct {
	mu     sync.Mutex
	tokens map[string]bool
}

func newMemoryRevoker() *memoryRevoker {
	return &memoryRevoker{tokens: make(map[string]bool)}
}

func (m *memoryRevoker) Add(_ context.Context, token string, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tokens[token] = true
	return nil
}

func (m *memoryRevoker) IsBlacklisted(_ context.Context, token string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tokens[token], nil
}
