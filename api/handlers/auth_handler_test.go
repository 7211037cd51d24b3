// api/handlers/auth_handler_test.go
package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"golang.org/x/crypto/bcrypt"

	"github.com/buildloom/loom-backend/api/middleware"
	"github.com/buildloom/loom-backend/config"
)

func testConfig() *config.Config {
	return &config.Config{
		JWTSecret:     "test-secret",
		JWTExpiration: time.Hour,
	}
}

func authTestRouter(t *testing.T) (*gin.Engine, sqlmock.Sqlmock) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to open sqlmock: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	router := gin.New()
	router.Use(middleware.ErrorHandler())
	h := NewAuthHandler(db, testConfig())
	router.POST("/auth/signup", h.Signup)
	router.POST("/auth/login", h.Login)
	return router, mock
}

func TestSignupCreatesUser(t *testing.T) {
	router, mock := authTestRouter(t)

	mock.ExpectExec(`INSERT INTO control_plane\.users`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	body, _ := json.Marshal(map[string]string{
		"email":    "dev@example.com",
		"password": "supersecret",
	})
	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodPost, "/auth/signup", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)
	var resp map[string]any
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp["user_id"])
}

func TestSignupRejectsShortPassword(t *testing.T) {
	router, _ := authTestRouter(t)

	body, _ := json.Marshal(map[string]string{
		"email":    "dev@example.com",
		"password": "short",
	})
	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodPost, "/auth/signup", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestLoginIssuesToken(t *testing.T) {
	router, mock := authTestRouter(t)

	hash, err := bcrypt.GenerateFromPassword([]byte("supersecret"), bcrypt.MinCost)
	assert.NoError(t, err)
	rows := sqlmock.NewRows([]string{"id", "email", "password_hash", "created_at"}).
		AddRow("user-1", "dev@example.com", string(hash), time.Now())
	mock.ExpectQuery(`SELECT .+ FROM control_plane\.users WHERE email`).
		WillReturnRows(rows)

	body, _ := json.Marshal(map[string]string{
		"email":    "dev@example.com",
		"password": "supersecret",
	})
	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodPost, "/auth/login", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp map[string]any
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp["token"])
}

func TestLoginWrongPasswordIsUnauthorized(t *testing.T) {
	router, mock := authTestRouter(t)

	hash, err := bcrypt.GenerateFromPassword([]byte("supersecret"), bcrypt.MinCost)
	assert.NoError(t, err)
	rows := sqlmock.NewRows([]string{"id", "email", "password_hash", "created_at"}).
		AddRow("user-1", "dev@example.com", string(hash), time.Now())
	mock.ExpectQuery(`SELECT .+ FROM control_plane\.users WHERE email`).
		WillReturnRows(rows)

	body, _ := json.Marshal(map[string]string{
		"email":    "dev@example.com",
		"password": "wrong-password",
	})
	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodPost, "/auth/login", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestLoginUnknownEmailIsUnauthorized(t *testing.T) {
	router, mock := authTestRouter(t)

	mock.ExpectQuery(`SELECT .+ FROM control_plane\.users WHERE email`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "email", "password_hash", "created_at"}))

	body, _ := json.Marshal(map[string]string{
		"email":    "nobody@example.com",
		"password": "whatever123",
	})
	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodPost, "/auth/login", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	// Unknown email and wrong password are indistinguishable.
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
