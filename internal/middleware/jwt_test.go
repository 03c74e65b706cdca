package middleware_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/messenger-go-api/internal/middleware"
)

const testSecret = "unit-test-secret"

func signToken(t *testing.T, claims jwt.MapClaims, secret string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func decodeBody(t *testing.T, resp *http.Response, target interface{}) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(target))
}

func newProtectedApp() *fiber.App {
	app := fiber.New()
	app.Get("/protected", middleware.JWTProtected(testSecret), func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"email": c.Locals("user_email"),
			"name":  c.Locals("user_name"),
		})
	})
	return app
}

func TestJWTProtectedMissingHeader(t *testing.T) {
	app := newProtectedApp()

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestJWTProtectedBadSignature(t *testing.T) {
	app := newProtectedApp()

	token := signToken(t, jwt.MapClaims{"email": "alice@example.com"}, "wrong-secret")
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestJWTProtectedExpiredToken(t *testing.T) {
	app := newProtectedApp()

	token := signToken(t, jwt.MapClaims{
		"email": "alice@example.com",
		"exp":   time.Now().Add(-time.Hour).Unix(),
	}, testSecret)
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestJWTProtectedTokenWithoutIdentity(t *testing.T) {
	app := newProtectedApp()

	token := signToken(t, jwt.MapClaims{"sub": "not-an-email"}, testSecret)
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestJWTProtectedBindsIdentity(t *testing.T) {
	app := newProtectedApp()

	token := signToken(t, jwt.MapClaims{
		"email": "Alice@Example.com",
		"name":  "Alice Smith",
	}, testSecret)
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var payload struct {
		Email string `json:"email"`
		Name  string `json:"name"`
	}
	decodeBody(t, resp, &payload)

	require.Equal(t, "alice@example.com", payload.Email)
	require.Equal(t, "Alice Smith", payload.Name)
}

func TestJWTProtectedFallsBackToSubClaim(t *testing.T) {
	app := newProtectedApp()

	token := signToken(t, jwt.MapClaims{"sub": "bob@example.com"}, testSecret)
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var payload struct {
		Email string `json:"email"`
	}
	decodeBody(t, resp, &payload)
	require.Equal(t, "bob@example.com", payload.Email)
}
