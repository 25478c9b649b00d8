package middleware

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chynybekuuludastan/post_factory/internal/config"
)

func newApp(cfg *config.Config) *fiber.App {
	app := fiber.New()
	app.Get("/private", JWTMiddleware(cfg), func(c *fiber.Ctx) error {
		return c.SendString("ok")
	})
	return app
}

func TestJWTMiddlewareDisabled(t *testing.T) {
	app := newApp(&config.Config{AuthEnabled: false})

	resp, err := app.Test(httptest.NewRequest("GET", "/private", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestJWTMiddlewareEnabled(t *testing.T) {
	cfg := &config.Config{AuthEnabled: true, JWTSecret: "s3cret"}
	app := newApp(cfg)

	token, expires, err := GenerateJWT(cfg.JWTSecret, time.Hour)
	require.NoError(t, err)
	assert.True(t, expires.After(time.Now()))

	expired, _, err := GenerateJWT(cfg.JWTSecret, -time.Minute)
	require.NoError(t, err)
	forged, _, err := GenerateJWT("other", time.Hour)
	require.NoError(t, err)

	cases := []struct {
		name   string
		header string
		query  string
		want   int
	}{
		{"missing", "", "", fiber.StatusUnauthorized},
		{"bad format", "Token " + token, "", fiber.StatusUnauthorized},
		{"valid header", "Bearer " + token, "", fiber.StatusOK},
		{"valid query", "", "?token=" + token, fiber.StatusOK},
		{"expired", "Bearer " + expired, "", fiber.StatusUnauthorized},
		{"wrong secret", "Bearer " + forged, "", fiber.StatusUnauthorized},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/private"+tc.query, nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			resp, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, tc.want, resp.StatusCode)
		})
	}
}
