package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aroschi/gestimmo/internal/utils"
)

func runWithRole(t *testing.T, role any, allowed ...string) int {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if role != nil {
		c.Set("role", role)
	}

	h := RequireRole(allowed...)(func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})
	require.NoError(t, h(c))
	return rec.Code
}

func TestRequireRole(t *testing.T) {
	assert.Equal(t, http.StatusOK, runWithRole(t, "OWNER", "OWNER"))
	assert.Equal(t, http.StatusOK, runWithRole(t, "RENTER", "OWNER", "RENTER"))
	assert.Equal(t, http.StatusForbidden, runWithRole(t, "RENTER", "OWNER"))
	assert.Equal(t, http.StatusForbidden, runWithRole(t, nil, "OWNER"))
	assert.Equal(t, http.StatusForbidden, runWithRole(t, 42, "OWNER"))
}

func TestJWTAuthAcceptsIssuedToken(t *testing.T) {
	at, err := utils.NewAccessToken("test-secret", 7, "RENTER", 5)
	require.NoError(t, err)

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+at.Token)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	var gotRole any
	h := JWTAuth("test-secret")(func(c echo.Context) error {
		gotRole = c.Get("role")
		return c.NoContent(http.StatusOK)
	})
	require.NoError(t, h(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "RENTER", gotRole)
}

func TestJWTAuthRejectsBadToken(t *testing.T) {
	e := echo.New()

	for _, header := range []string{"", "Bearer garbage", "Basic abc"} {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)

		h := JWTAuth("test-secret")(func(c echo.Context) error {
			return c.NoContent(http.StatusOK)
		})
		require.NoError(t, h(c))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	}
}

func TestJWTAuthRejectsWrongSecret(t *testing.T) {
	at, err := utils.NewAccessToken("other-secret", 7, "OWNER", 5)
	require.NoError(t, err)

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+at.Token)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	h := JWTAuth("test-secret")(func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})
	require.NoError(t, h(c))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
