package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/calderaweb/pressroom/internal/assets"
	"github.com/calderaweb/pressroom/internal/blob"
	"github.com/calderaweb/pressroom/internal/cache"
	"github.com/calderaweb/pressroom/internal/config"
	"github.com/calderaweb/pressroom/internal/lifecycle"
	"github.com/calderaweb/pressroom/internal/middleware"
	"github.com/calderaweb/pressroom/internal/models"
	"github.com/calderaweb/pressroom/internal/repository"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const managedHost = "media.calderaweb.com"

func setupTestApp(t *testing.T) (*fiber.App, *config.Config, *cache.MockInvalidator) {
	t.Helper()

	cfg := &config.Config{
		Env:            "development",
		AdminPassword:  "hunter2",
		BlobPublicHost: managedHost,
		MaxUploadSize:  10 << 20,
		PageSize:       10,
	}

	repo := repository.NewMemoryRepository(cfg.PageSize)
	blobs := blob.NewMockStore(managedHost)
	resolver := assets.NewResolver(managedHost)
	gc := assets.NewGarbageCollector(blobs, resolver, repo)
	invalidator := cache.NewMockInvalidator()
	manager := lifecycle.NewManager(repo, gc, invalidator)

	app := fiber.New(fiber.Config{ErrorHandler: middleware.ErrorHandler})
	SetupRoutes(app, cfg, NewHandlers(cfg, repo, manager, blobs, invalidator))
	return app, cfg, invalidator
}

func adminCookie(t *testing.T, cfg *config.Config) *http.Cookie {
	t.Helper()
	token, err := middleware.IssueAdminToken(middleware.JWTSecret(cfg.AdminPassword))
	require.NoError(t, err)
	return &http.Cookie{Name: middleware.AdminCookie, Value: token}
}

func doJSON(t *testing.T, app *fiber.App, method, path string, body interface{}, cookie *http.Cookie) *http.Response {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if cookie != nil {
		req.AddCookie(cookie)
	}

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func decodePost(t *testing.T, resp *http.Response) *models.Post {
	t.Helper()
	var body struct {
		Post *models.Post `json:"post"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.NotNil(t, body.Post)
	return body.Post
}

func TestCreateRequiresAdmin(t *testing.T) {
	app, _, _ := setupTestApp(t)

	resp := doJSON(t, app, "POST", "/api/v1/admin/posts", map[string]string{
		"title": "x", "excerpt": "x", "content": "x", "category": "x",
	}, nil)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestCreateAndFetchPost(t *testing.T) {
	app, cfg, _ := setupTestApp(t)
	cookie := adminCookie(t, cfg)

	resp := doJSON(t, app, "POST", "/api/v1/admin/posts", map[string]interface{}{
		"title":    "Why Practices Stall!",
		"excerpt":  "An honest look",
		"content":  "<p>x</p>",
		"category": "Strategy",
	}, cookie)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	created := decodePost(t, resp)
	assert.Equal(t, "why-practices-stall", created.Slug)
	assert.Equal(t, models.StatusDraft, created.Status)

	resp = doJSON(t, app, "GET", "/api/v1/posts/"+created.ID, nil, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, created.ID, decodePost(t, resp).ID)

	resp = doJSON(t, app, "GET", "/api/v1/posts/slug/why-practices-stall", nil, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, created.ID, decodePost(t, resp).ID)
}

func TestCreateValidationFails(t *testing.T) {
	app, cfg, _ := setupTestApp(t)
	cookie := adminCookie(t, cfg)

	resp := doJSON(t, app, "POST", "/api/v1/admin/posts", map[string]string{
		"title": "No Body",
	}, cookie)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestCreateSlugConflictReturns409(t *testing.T) {
	app, cfg, _ := setupTestApp(t)
	cookie := adminCookie(t, cfg)

	body := map[string]string{
		"title": "Same Title", "excerpt": "x", "content": "x", "category": "x",
	}
	resp := doJSON(t, app, "POST", "/api/v1/admin/posts", body, cookie)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	resp = doJSON(t, app, "POST", "/api/v1/admin/posts", body, cookie)
	assert.Equal(t, fiber.StatusConflict, resp.StatusCode)
}

func TestPatchStatusEndpoint(t *testing.T) {
	app, cfg, _ := setupTestApp(t)
	cookie := adminCookie(t, cfg)

	resp := doJSON(t, app, "POST", "/api/v1/admin/posts", map[string]string{
		"title": "Toggle Me", "excerpt": "x", "content": "x", "category": "x",
	}, cookie)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	created := decodePost(t, resp)

	resp = doJSON(t, app, "PATCH", "/api/v1/admin/posts/"+created.ID+"/status",
		map[string]string{"status": "published"}, cookie)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	published := decodePost(t, resp)
	assert.Equal(t, models.StatusPublished, published.Status)
	assert.NotNil(t, published.PublishedAt)
}

func TestDuplicateEndpoint(t *testing.T) {
	app, cfg, _ := setupTestApp(t)
	cookie := adminCookie(t, cfg)

	resp := doJSON(t, app, "POST", "/api/v1/admin/posts", map[string]string{
		"title": "Original", "excerpt": "x", "content": "x", "category": "x",
	}, cookie)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	original := decodePost(t, resp)

	resp = doJSON(t, app, "POST", "/api/v1/admin/posts/"+original.ID+"/duplicate", nil, cookie)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	dup := decodePost(t, resp)
	assert.Equal(t, "Original (Copy)", dup.Title)
	assert.Equal(t, models.StatusDraft, dup.Status)
	assert.NotEqual(t, original.Slug, dup.Slug)
}

func TestDeleteEndpoint(t *testing.T) {
	app, cfg, _ := setupTestApp(t)
	cookie := adminCookie(t, cfg)

	resp := doJSON(t, app, "POST", "/api/v1/admin/posts", map[string]string{
		"title": "Doomed", "excerpt": "x", "content": "x", "category": "x",
	}, cookie)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	created := decodePost(t, resp)

	resp = doJSON(t, app, "DELETE", "/api/v1/admin/posts/"+created.ID, nil, cookie)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp = doJSON(t, app, "GET", "/api/v1/posts/"+created.ID, nil, nil)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)

	resp = doJSON(t, app, "DELETE", "/api/v1/admin/posts/"+created.ID, nil, cookie)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestListEndpoint(t *testing.T) {
	app, cfg, _ := setupTestApp(t)
	cookie := adminCookie(t, cfg)

	for _, title := range []string{"Alpha", "Beta", "Gamma"} {
		resp := doJSON(t, app, "POST", "/api/v1/admin/posts", map[string]string{
			"title": title, "excerpt": "x", "content": "x", "category": "News",
		}, cookie)
		require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	}

	resp := doJSON(t, app, "GET", "/api/v1/posts?page=1&limit=2", nil, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var list models.PostList
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&list))
	assert.Len(t, list.Posts, 2)
	assert.True(t, list.Pagination.HasMore)
	assert.Equal(t, int64(3), list.Stats.Total)
	assert.Equal(t, []string{"News"}, list.Categories)
}

func TestFlushCacheEndpoint(t *testing.T) {
	app, cfg, invalidator := setupTestApp(t)

	resp := doJSON(t, app, "POST", "/api/v1/admin/cache/flush", nil, nil)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, 0, invalidator.Flushed)

	resp = doJSON(t, app, "POST", "/api/v1/admin/cache/flush", nil, adminCookie(t, cfg))
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, 1, invalidator.Flushed)
}

func TestLoginFlow(t *testing.T) {
	app, _, _ := setupTestApp(t)

	resp := doJSON(t, app, "POST", "/api/v1/admin/login", map[string]string{"password": "wrong"}, nil)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	resp = doJSON(t, app, "POST", "/api/v1/admin/login", map[string]string{"password": "hunter2"}, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var sessionCookie *http.Cookie
	for _, c := range resp.Cookies() {
		if c.Name == middleware.AdminCookie {
			sessionCookie = c
		}
	}
	require.NotNil(t, sessionCookie, "login must set the session cookie")

	req := httptest.NewRequest("GET", "/api/v1/admin/check", nil)
	req.AddCookie(sessionCookie)
	checkResp, err := app.Test(req, -1)
	require.NoError(t, err)

	var check struct {
		Authenticated bool `json:"authenticated"`
	}
	require.NoError(t, json.NewDecoder(checkResp.Body).Decode(&check))
	assert.True(t, check.Authenticated)
}
