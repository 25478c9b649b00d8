package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/chynybekuuludastan/post_factory/internal/api/middleware"
	"github.com/chynybekuuludastan/post_factory/internal/config"
	"github.com/chynybekuuludastan/post_factory/internal/logging"
	"github.com/chynybekuuludastan/post_factory/internal/utils/password"
)

// AuthHandler exchanges the operator key for a token
type AuthHandler struct {
	Config *config.Config
	Logger logging.Logger
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(cfg *config.Config, logger logging.Logger) *AuthHandler {
	return &AuthHandler{Config: cfg, Logger: logging.OrDefault(logger)}
}

// TokenRequest carries the operator key
type TokenRequest struct {
	Key string `json:"key" example:"operator-key"`
}

// TokenResponse represents a JWT token response
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
}

// @Summary Issue an operator token
// @Tags auth
// @Accept json
// @Produce json
// @Param request body TokenRequest true "Operator key"
// @Success 200 {object} map[string]interface{} "Token issued"
// @Failure 400 {object} map[string]interface{} "Invalid request"
// @Failure 401 {object} map[string]interface{} "Wrong key"
// @Failure 404 {object} map[string]interface{} "Auth disabled"
// @Router /auth/token [post]
func (h *AuthHandler) IssueToken(c *fiber.Ctx) error {
	if !h.Config.AuthEnabled {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"success": false,
			"error":   "Authentication is disabled",
		})
	}

	req := new(TokenRequest)
	if err := c.BodyParser(req); err != nil || req.Key == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "Invalid request body",
		})
	}

	ok, err := password.Verify(req.Key, h.Config.OperatorKeyHash)
	if err != nil {
		h.Logger.Error("Operator key hash is unusable", "error", err)
		return fiber.NewError(fiber.StatusInternalServerError, "Authentication is misconfigured")
	}
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"success": false,
			"error":   "Invalid operator key",
		})
	}

	token, _, err := middleware.GenerateJWT(h.Config.JWTSecret, h.Config.JWTExpiration)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "Failed to issue token")
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data": TokenResponse{
			AccessToken: token,
			TokenType:   "bearer",
			ExpiresIn:   int(h.Config.JWTExpiration.Seconds()),
		},
	})
}
