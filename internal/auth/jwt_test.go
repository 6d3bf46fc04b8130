package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
)

func contextWithToken(t *testing.T, tokenStr, secret string) echo.Context {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/", nil)
	c := e.NewContext(req, httptest.NewRecorder())

	token, err := jwt.Parse(tokenStr, func(*jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	})
	require.NoError(t, err)
	c.Set("user", token)
	return c
}

func TestGenerateTokenRoundTrip(t *testing.T) {
	signed, expiresAt, err := GenerateToken("user-123", "test-secret", time.Hour)
	require.NoError(t, err)
	require.NotEmpty(t, signed)

	token, err := jwt.Parse(signed, func(*jwt.Token) (interface{}, error) {
		return []byte("test-secret"), nil
	})
	require.NoError(t, err)
	require.True(t, token.Valid)

	claims := token.Claims.(jwt.MapClaims)
	require.Equal(t, "user-123", claims["sub"])
	require.Equal(t, "user-123", claims["user_id"])
	require.Equal(t, expiresAt.Unix(), int64(claims["exp"].(float64)))
}

func TestGenerateTokenValidation(t *testing.T) {
	_, _, err := GenerateToken("", "secret", time.Hour)
	require.Error(t, err)
	_, _, err = GenerateToken("user-123", "", time.Hour)
	require.Error(t, err)
	_, _, err = GenerateToken("user-123", "secret", 0)
	require.Error(t, err)
}

func TestUserIDFromContext(t *testing.T) {
	signed, _, err := GenerateToken("user-123", "test-secret", time.Hour)
	require.NoError(t, err)

	c := contextWithToken(t, signed, "test-secret")
	userID, err := UserIDFromContext(c)
	require.NoError(t, err)
	require.Equal(t, "user-123", userID)
}

func TestUserIDFromContextMissingToken(t *testing.T) {
	e := echo.New()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())

	_, err := UserIDFromContext(c)
	require.Error(t, err)
	httpErr, ok := err.(*echo.HTTPError)
	require.True(t, ok)
	require.Equal(t, http.StatusUnauthorized, httpErr.Code)
}

func TestRefreshTokenKeepsOriginalLifespan(t *testing.T) {
	secret := "test-secret"

	// Issue a 5-minute token, then refresh with a 1-hour default: the
	// refreshed token must keep the 5-minute lifespan.
	signed, _, err := GenerateToken("user-123", secret, 5*time.Minute)
	require.NoError(t, err)
	c := contextWithToken(t, signed, secret)

	time.Sleep(1100 * time.Millisecond)

	refreshed, expiresAt, err := RefreshTokenFromContext(c, secret, time.Hour)
	require.NoError(t, err)
	require.NotEmpty(t, refreshed)

	token, err := jwt.Parse(refreshed, func(*jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	})
	require.NoError(t, err)
	claims := token.Claims.(jwt.MapClaims)

	require.Equal(t, "user-123", claims["sub"])

	newIat := int64(claims["iat"].(float64))
	newExp := int64(claims["exp"].(float64))
	require.Equal(t, int64(5*60), newExp-newIat)
	require.Equal(t, expiresAt.Unix(), newExp)

	// Time bounds moved forward.
	original, err := jwt.Parse(signed, func(*jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	})
	require.NoError(t, err)
	origIat := int64(original.Claims.(jwt.MapClaims)["iat"].(float64))
	require.Greater(t, newIat, origIat)
}

func TestRefreshTokenMissingUser(t *testing.T) {
	e := echo.New()
	c := e.NewContext(httptest.NewRequest(http.MethodPost, "/", nil), httptest.NewRecorder())

	_, _, err := RefreshTokenFromContext(c, "test-secret", time.Hour)
	require.Error(t, err)

	httpErr, ok := err.(*echo.HTTPError)
	require.True(t, ok)
	require.Equal(t, http.StatusUnauthorized, httpErr.Code)
	require.Equal(t, "invalid token", httpErr.Message)
}
