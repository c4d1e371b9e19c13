package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/anonto42/lumina/backend/internal/models"
	"github.com/golang-jwt/jwt/v4"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func sign(t *testing.T, secret string, role models.Role, ttl time.Duration) string {
	t.Helper()
	claims := &models.JwtCustomClaims{
		UserID: 42,
		Email:  "jane@example.com",
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
		},
	}
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return s
}

func run(mw echo.MiddlewareFunc, header string) (*httptest.ResponseRecorder, *models.JwtCustomClaims, error) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	var seen *models.JwtCustomClaims
	err := mw(func(c echo.Context) error {
		seen, _ = c.Get(UserContextKey).(*models.JwtCustomClaims)
		return c.NoContent(http.StatusOK)
	})(c)
	return rec, seen, err
}

func statusOf(err error) int {
	if he, ok := err.(*echo.HTTPError); ok {
		return he.Code
	}
	return 0
}

func TestJWTAuthMiddleware(t *testing.T) {
	valid := sign(t, testSecret, models.RoleUser, time.Hour)

	cases := []struct {
		name   string
		header string
		status int
	}{
		{"valid", "Bearer " + valid, 0},
		{"lowercase_scheme", "bearer " + valid, 0},
		{"missing", "", http.StatusUnauthorized},
		{"bad_format", "Token " + valid, http.StatusUnauthorized},
		{"wrong_secret", "Bearer " + sign(t, "other", models.RoleUser, time.Hour), http.StatusUnauthorized},
		{"expired", "Bearer " + sign(t, testSecret, models.RoleUser, -time.Hour), http.StatusUnauthorized},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, claims, err := run(JWTAuthMiddleware(testSecret), tc.header)
			if tc.status == 0 {
				require.NoError(t, err)
				require.NotNil(t, claims)
				assert.Equal(t, uint(42), claims.UserID)
				return
			}
			assert.Equal(t, tc.status, statusOf(err))
			assert.Nil(t, claims)
		})
	}
}

func TestOptionalJWTMiddleware(t *testing.T) {
	_, claims, err := run(OptionalJWTMiddleware(testSecret), "")
	require.NoError(t, err)
	assert.Nil(t, claims)

	_, claims, err = run(OptionalJWTMiddleware(testSecret), "Bearer garbage")
	require.NoError(t, err)
	assert.Nil(t, claims)

	_, claims, err = run(OptionalJWTMiddleware(testSecret), "Bearer "+sign(t, testSecret, models.RoleUser, time.Hour))
	require.NoError(t, err)
	require.NotNil(t, claims)
}

func TestRequireAdmin(t *testing.T) {
	chain := func(token string) error {
		_, _, err := run(func(next echo.HandlerFunc) echo.HandlerFunc {
			return JWTAuthMiddleware(testSecret)(RequireAdmin()(next))
		}, "Bearer "+token)
		return err
	}

	assert.NoError(t, chain(sign(t, testSecret, models.RoleAdmin, time.Hour)))
	assert.Equal(t, http.StatusForbidden, statusOf(chain(sign(t, testSecret, models.RoleUser, time.Hour))))
}
