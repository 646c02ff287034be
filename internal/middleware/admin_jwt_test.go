package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"shop/internal/config"
	"shop/internal/middleware"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
)

const testSecret = "test_secret"

func signToken(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := tok.SignedString([]byte(secret))
	assert.NoError(t, err)
	return signed
}

func adminClaims() jwt.MapClaims {
	now := time.Now()
	return jwt.MapClaims{
		"sub":  "admin@example.com",
		"role": "ADMIN",
		"iat":  now.Unix(),
		"exp":  now.Add(15 * time.Minute).Unix(),
	}
}

// ミドルウェアを通した先でsubを返すだけのハンドラ
func runAdminJWT(t *testing.T, authz string) *httptest.ResponseRecorder {
	t.Helper()

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/admin/orders", nil)
	if authz != "" {
		req.Header.Set("Authorization", authz)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	h := middleware.AdminJWT(config.Config{JWTSecret: testSecret})(func(c echo.Context) error {
		sub, _ := c.Get(middleware.CtxAdminSubKey).(string)
		return c.String(http.StatusOK, sub)
	})
	assert.NoError(t, h(c))

	return rec
}

func TestAdminJWT_Valid(t *testing.T) {
	token := signToken(t, testSecret, adminClaims())

	rec := runAdminJWT(t, "Bearer "+token)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "admin@example.com", rec.Body.String())
}

func TestAdminJWT_MissingHeader(t *testing.T) {
	rec := runAdminJWT(t, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAdminJWT_MalformedHeader(t *testing.T) {
	rec := runAdminJWT(t, "Token abc")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAdminJWT_WrongSecret(t *testing.T) {
	token := signToken(t, "other_secret", adminClaims())

	rec := runAdminJWT(t, "Bearer "+token)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAdminJWT_Expired(t *testing.T) {
	claims := adminClaims()
	claims["exp"] = time.Now().Add(-time.Minute).Unix()
	token := signToken(t, testSecret, claims)

	rec := runAdminJWT(t, "Bearer "+token)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAdminJWT_NonAdminRole(t *testing.T) {
	claims := adminClaims()
	claims["role"] = "CUSTOMER"
	token := signToken(t, testSecret, claims)

	rec := runAdminJWT(t, "Bearer "+token)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}
