package auth

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// tokenEchoApp mounts a protected route that answers with the token the
// middleware resolved, the same token a logout handler must blacklist.
func tokenEchoApp(t *testing.T) *fiber.App {
	t.Helper()
	SetSecret("test-secret")
	app := fiber.New()
	app.Post("/logout", Required(Options{}), func(c *fiber.Ctx) error {
		return c.SendString(Token(c))
	})
	return app
}

func TestTokenResolvesBearerHeader(t *testing.T) {
	app := tokenEchoApp(t)
	token, err := GenerateAccessToken("user-123", "member")
	require.NoError(t, err)

	req := httptest.NewRequest(fiber.MethodPost, "/logout", nil)
	req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)

	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, token, string(body))
}

func TestTokenResolvesCookie(t *testing.T) {
	app := tokenEchoApp(t)
	token, err := GenerateAccessToken("user-456", "member")
	require.NoError(t, err)

	req := httptest.NewRequest(fiber.MethodPost, "/logout", nil)
	req.AddCookie(&http.Cookie{Name: "access_token", Value: token})

	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, token, string(body))
}

func TestRequiredRejectsMissingToken(t *testing.T) {
	app := tokenEchoApp(t)

	req := httptest.NewRequest(fiber.MethodPost, "/logout", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}
