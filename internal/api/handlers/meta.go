package handlers

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/chynybekuuludastan/post_factory/internal/config"
	"github.com/chynybekuuludastan/post_factory/internal/service/llm"
	"github.com/chynybekuuludastan/post_factory/internal/service/pipeline"
)

// Pinger is a backend that can report its health
type Pinger interface {
	Ping(ctx context.Context) error
}

// MetaHandler serves health, the model menu and credential status
type MetaHandler struct {
	Config *config.Config
	// Credentials is nil when no service account is loaded
	Credentials *config.Credentials
	// Providers names the registered text providers
	Providers []string
	// ImagesEnabled and DriveEnabled report optional stages
	ImagesEnabled bool
	DriveEnabled  bool
	Redis         Pinger
	// DB is nil when history is not configured
	DB Pinger
}

// @Summary Health check
// @Tags meta
// @Produce json
// @Success 200 {object} map[string]interface{} "All backends reachable"
// @Failure 503 {object} map[string]interface{} "A backend is down"
// @Router /health [get]
func (h *MetaHandler) Health(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
	defer cancel()

	status := fiber.StatusOK
	checks := fiber.Map{}
	check := func(name string, p Pinger) {
		if p == nil {
			checks[name] = "disabled"
			return
		}
		if err := p.Ping(ctx); err != nil {
			checks[name] = err.Error()
			status = fiber.StatusServiceUnavailable
			return
		}
		checks[name] = "ok"
	}
	check("redis", h.Redis)
	check("postgres", h.DB)

	state := "ok"
	if status != fiber.StatusOK {
		state = "degraded"
	}
	return c.Status(status).JSON(fiber.Map{
		"status": state,
		"checks": checks,
	})
}

// @Summary Model menu and presets
// @Tags meta
// @Produce json
// @Success 200 {object} map[string]interface{} "Models and presets"
// @Router /models [get]
func (h *MetaHandler) Models(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"success": true,
		"data": fiber.Map{
			"models":        llm.ModelMenu,
			"providers":     h.Providers,
			"default_model": h.Config.TextModel,
			"temperature":   h.Config.Temperature,
			"post_types":    llm.PostTypes,
			"vibes":         llm.Vibes,
			"visual_styles": llm.VisualStyles,
			"max_bulk":      pipeline.MaxBulkCount,
		},
	})
}

// @Summary Credential status
// @Description Shows which service account to share the Drive folder with
// @Tags meta
// @Produce json
// @Success 200 {object} map[string]interface{} "Credential status"
// @Router /auth/status [get]
func (h *MetaHandler) AuthStatus(c *fiber.Ctx) error {
	data := fiber.Map{
		"credentials_loaded": h.Credentials != nil,
		"auth_enabled":       h.Config.AuthEnabled,
		"images_enabled":     h.ImagesEnabled,
		"drive_enabled":      h.DriveEnabled,
		"location":           h.Config.Location,
	}
	if h.Credentials != nil {
		data["project_id"] = h.Credentials.ProjectID
		data["service_account_email"] = h.Credentials.ClientEmail
		data["share_instructions"] = "Share the destination Drive folder with " + h.Credentials.ClientEmail + " as Editor"
	}
	return c.JSON(fiber.Map{
		"success": true,
		"data":    data,
	})
}
