package http

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tollgate-service/internal/config"
	"tollgate-service/internal/service"
)

const testSecret = "test-secret"

func newTestRouter(t *testing.T) (*gin.Engine, *config.Config) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg, err := config.Load("")
	require.NoError(t, err)
	cfg.Auth.JWTSecret = testSecret
	cfg.Paths.AuthorizedPlates = filepath.Join(t.TempDir(), "authorized_plates.txt")

	svc := service.NewGateService(cfg, nil, nil, nil, "lane-1", zerolog.Nop())
	handler := NewHandler(svc, cfg, zerolog.Nop())

	r := gin.New()
	handler.Register(r, NewAuthMiddleware(cfg.Auth.JWTSecret))
	return r, cfg
}

func signToken(t *testing.T, secret string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "operator",
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func TestHealthEndpoint(t *testing.T) {
	r, _ := newTestRouter(t)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestListPlatesRequiresQuery(t *testing.T) {
	r, _ := newTestRouter(t)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/plates", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestListViolationsWithoutDatabase(t *testing.T) {
	r, _ := newTestRouter(t)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/violations", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAuthorizePlateRejectsMissingToken(t *testing.T) {
	r, _ := newTestRouter(t)

	body := bytes.NewBufferString(`{"plate":"MH01AB1234"}`)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/v1/authorized-plates", body))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthorizePlateRejectsBadToken(t *testing.T) {
	r, _ := newTestRouter(t)

	body := bytes.NewBufferString(`{"plate":"MH01AB1234"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/authorized-plates", body)
	req.Header.Set("Authorization", "Bearer "+signToken(t, "wrong-secret"))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthorizePlateAppendsToList(t *testing.T) {
	r, cfg := newTestRouter(t)

	body := bytes.NewBufferString(`{"plate":"mh-01-ab-1234"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/authorized-plates", body)
	req.Header.Set("Authorization", "Bearer "+signToken(t, testSecret))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusCreated, w.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "MH01AB1234", resp["plate"])

	data, err := os.ReadFile(cfg.Paths.AuthorizedPlates)
	require.NoError(t, err)
	assert.Contains(t, string(data), "MH01AB1234\n")
}

func TestAuthorizePlateRejectsEmptyPlate(t *testing.T) {
	r, _ := newTestRouter(t)

	body := bytes.NewBufferString(`{"plate":"---"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/authorized-plates", body)
	req.Header.Set("Authorization", "Bearer "+signToken(t, testSecret))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAuthMiddlewareDisabledWithoutSecret(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/admin", NewAuthMiddleware(""), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/admin", nil))
	assert.Equal(t, http.StatusForbidden, w.Code)
}
