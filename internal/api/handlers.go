package api

import (
	"context"
	"crypto/subtle"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/calderaweb/pressroom/internal/blob"
	"github.com/calderaweb/pressroom/internal/config"
	"github.com/calderaweb/pressroom/internal/lifecycle"
	"github.com/calderaweb/pressroom/internal/logger"
	"github.com/calderaweb/pressroom/internal/middleware"
	"github.com/calderaweb/pressroom/internal/models"
	"github.com/calderaweb/pressroom/internal/repository"
	"github.com/gofiber/fiber/v2"
)

// PageCache is the operational surface of the rendering cache. A nil
// PageCache means no cache is configured (development without Redis).
type PageCache interface {
	Flush(ctx context.Context) error
}

type Handlers struct {
	config    *config.Config
	repo      repository.PostRepository
	manager   *lifecycle.Manager
	blobs     blob.Store
	pages     PageCache
	validator *middleware.Validator
}

func NewHandlers(cfg *config.Config, repo repository.PostRepository, manager *lifecycle.Manager, blobs blob.Store, pages PageCache) *Handlers {
	return &Handlers{
		config:    cfg,
		repo:      repo,
		manager:   manager,
		blobs:     blobs,
		pages:     pages,
		validator: middleware.NewValidator(),
	}
}

// HealthCheck handles GET /api/v1/health
func (h *Handlers) HealthCheck(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status": "ok",
		"time":   time.Now().Format(time.RFC3339),
	})
}

// ListPosts handles GET /api/v1/posts
func (h *Handlers) ListPosts(c *fiber.Ctx) error {
	var filter models.PostFilter
	// Malformed filter params fall back to defaults instead of erroring.
	if err := c.QueryParser(&filter); err != nil {
		logger.Get().Debug().Err(err).Msg("Ignoring malformed filter params")
		filter = models.PostFilter{}
	}

	list, err := h.repo.List(c.Context(), filter)
	if err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(list)
}

// GetPost handles GET /api/v1/posts/:id
func (h *Handlers) GetPost(c *fiber.Ctx) error {
	post, err := h.repo.GetByID(c.Context(), c.Params("id"))
	if err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(fiber.Map{"post": post})
}

// GetPostBySlug handles GET /api/v1/posts/slug/:slug
func (h *Handlers) GetPostBySlug(c *fiber.Ctx) error {
	post, err := h.repo.GetBySlug(c.Context(), c.Params("slug"))
	if err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(fiber.Map{"post": post})
}

// CreatePost handles POST /api/v1/admin/posts
func (h *Handlers) CreatePost(c *fiber.Ctx) error {
	var in models.PostInput
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	if fields := h.validator.Validate(&in); fields != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":  "Validation failed",
			"fields": fields,
		})
	}

	post, err := h.manager.Create(c.Context(), &in)
	if err != nil {
		return h.respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"post": post})
}

// UpdatePost handles PUT /api/v1/admin/posts/:id
func (h *Handlers) UpdatePost(c *fiber.Ctx) error {
	var in models.PostInput
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	if fields := h.validator.Validate(&in); fields != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":  "Validation failed",
			"fields": fields,
		})
	}

	post, err := h.manager.Update(c.Context(), c.Params("id"), &in)
	if err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(fiber.Map{"post": post})
}

// PatchStatus handles PATCH /api/v1/admin/posts/:id/status
func (h *Handlers) PatchStatus(c *fiber.Ctx) error {
	var in models.StatusInput
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	post, err := h.manager.Patch(c.Context(), c.Params("id"), &in)
	if err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(fiber.Map{"post": post})
}

// DuplicatePost handles POST /api/v1/admin/posts/:id/duplicate
func (h *Handlers) DuplicatePost(c *fiber.Ctx) error {
	post, err := h.manager.Duplicate(c.Context(), c.Params("id"))
	if err != nil {
		return h.respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"post": post})
}

// DeletePost handles DELETE /api/v1/admin/posts/:id
func (h *Handlers) DeletePost(c *fiber.Ctx) error {
	if _, err := h.manager.Delete(c.Context(), c.Params("id")); err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Post deleted successfully"})
}

// Upload handles POST /api/v1/admin/upload
func (h *Handlers) Upload(c *fiber.Ctx) error {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "No file provided",
		})
	}
	if fileHeader.Size > h.config.MaxUploadSize {
		return c.Status(fiber.StatusRequestEntityTooLarge).JSON(fiber.Map{
			"error": fmt.Sprintf("File too large (max %dMB)", h.config.MaxUploadSize>>20),
		})
	}

	file, err := fileHeader.Open()
	if err != nil {
		return h.respondError(c, fmt.Errorf("failed to open upload: %w", err))
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return h.respondError(c, fmt.Errorf("failed to read upload: %w", err))
	}

	contentType := fileHeader.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	key := fmt.Sprintf("blog/%d-%s", time.Now().UnixMilli(), sanitizeFilename(fileHeader.Filename))
	url, err := h.blobs.Store(c.Context(), key, data, contentType)
	if err != nil {
		return h.respondError(c, fmt.Errorf("upload failed: %w", err))
	}

	return c.JSON(fiber.Map{"url": url})
}

// FlushCache handles POST /api/v1/admin/cache/flush
func (h *Handlers) FlushCache(c *fiber.Ctx) error {
	if h.pages == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"error": "Page cache is not configured",
		})
	}
	if err := h.pages.Flush(c.Context()); err != nil {
		return h.respondError(c, fmt.Errorf("flush page cache: %w", err))
	}
	logger.Get().Info().Msg("Page cache flushed")
	return c.JSON(fiber.Map{"message": "Page cache flushed"})
}

// Login handles POST /api/v1/admin/login
func (h *Handlers) Login(c *fiber.Ctx) error {
	var body struct {
		Password string `json:"password"`
	}
	if err := c.BodyParser(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if h.config.AdminPassword == "" ||
		subtle.ConstantTimeCompare([]byte(body.Password), []byte(h.config.AdminPassword)) != 1 {
		logger.Get().Warn().Str("ip", c.IP()).Msg("Failed admin login attempt")
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Invalid password",
		})
	}

	token, err := middleware.IssueAdminToken(middleware.JWTSecret(h.config.AdminPassword))
	if err != nil {
		return h.respondError(c, err)
	}

	c.Cookie(&fiber.Cookie{
		Name:     middleware.AdminCookie,
		Value:    token,
		HTTPOnly: true,
		Secure:   h.config.Env != "development",
		SameSite: "Strict",
		Expires:  time.Now().Add(7 * 24 * time.Hour),
	})
	return c.JSON(fiber.Map{"authenticated": true})
}

// Logout handles POST /api/v1/admin/logout
func (h *Handlers) Logout(c *fiber.Ctx) error {
	c.Cookie(&fiber.Cookie{
		Name:     middleware.AdminCookie,
		Value:    "",
		HTTPOnly: true,
		Expires:  time.Now().Add(-time.Hour),
	})
	return c.JSON(fiber.Map{"authenticated": false})
}

// Check handles GET /api/v1/admin/check
func (h *Handlers) Check(c *fiber.Ctx) error {
	token := c.Cookies(middleware.AdminCookie)
	authenticated := token != "" &&
		middleware.VerifyAdminToken(token, middleware.JWTSecret(h.config.AdminPassword))
	return c.JSON(fiber.Map{"authenticated": authenticated})
}

// respondError maps domain errors to HTTP status codes. Anything
// untyped is an internal error and gets logged.
func (h *Handlers) respondError(c *fiber.Ctx, err error) error {
	switch {
	case models.IsNotFound(err):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
	case models.IsConflict(err):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": err.Error()})
	case models.IsValidation(err):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	case models.IsUnauthorized(err):
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": err.Error()})
	default:
		logger.Get().Error().Err(err).Str("path", c.Path()).Msg("Internal error")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Internal server error",
		})
	}
}

// sanitizeFilename keeps object keys flat and URL-friendly.
func sanitizeFilename(name string) string {
	name = strings.ReplaceAll(name, "/", "-")
	name = strings.ReplaceAll(name, "\\", "-")
	return strings.Join(strings.Fields(name), "-")
}
