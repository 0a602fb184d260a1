// Package lifecycle mediates every post mutation: field validation,
// slug derivation, the publish-timestamp invariant, asset cleanup and
// rendering-cache invalidation.
package lifecycle

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/calderaweb/pressroom/internal/assets"
	"github.com/calderaweb/pressroom/internal/logger"
	"github.com/calderaweb/pressroom/internal/models"
	"github.com/calderaweb/pressroom/internal/repository"
	"github.com/calderaweb/pressroom/internal/slug"
)

const (
	blogPath = "/blog"
	homePath = "/"
)

// Invalidator signals the rendering cache that a path is stale.
// Failures are logged and never fail the mutation that triggered them.
type Invalidator interface {
	Invalidate(ctx context.Context, paths ...string) error
}

// Manager enforces the content lifecycle rules on top of the
// repository. Reads go straight to the repository; every mutation goes
// through here.
type Manager struct {
	repo         repository.PostRepository
	gc           *assets.GarbageCollector
	invalidators []Invalidator
}

func NewManager(repo repository.PostRepository, gc *assets.GarbageCollector, invalidators ...Invalidator) *Manager {
	return &Manager{repo: repo, gc: gc, invalidators: invalidators}
}

// Create validates the input, derives a slug when none is supplied,
// stamps publishedAt on publish and persists the new post.
func (m *Manager) Create(ctx context.Context, in *models.PostInput) (*models.Post, error) {
	if err := validateInput(in); err != nil {
		return nil, err
	}

	postSlug, err := resolveSlug(in)
	if err != nil {
		return nil, err
	}

	status := in.Status
	if status == "" {
		status = models.StatusDraft
	}

	publishedAt := in.PublishedAt
	if status == models.StatusPublished && publishedAt == nil {
		now := time.Now()
		publishedAt = &now
	}

	post := &models.Post{
		Slug:            postSlug,
		Title:           in.Title,
		Excerpt:         in.Excerpt,
		Content:         in.Content,
		Category:        in.Category,
		Tags:            in.Tags,
		FeaturedImage:   in.FeaturedImage,
		MetaTitle:       in.MetaTitle,
		MetaDescription: in.MetaDescription,
		Status:          status,
		PublishedAt:     publishedAt,
	}

	created, err := m.repo.Insert(ctx, post)
	if err != nil {
		return nil, err
	}

	m.invalidate(ctx, blogPath, homePath, blogPath+"/"+created.Slug)
	return created, nil
}

// Update replaces the writable fields of an existing post. The caller
// may pass the previous feature image so a replaced one can be
// garbage-collected once the write has committed.
func (m *Manager) Update(ctx context.Context, id string, in *models.PostInput) (*models.Post, error) {
	existing, err := m.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := validateInput(in); err != nil {
		return nil, err
	}

	postSlug, err := resolveSlug(in)
	if err != nil {
		return nil, err
	}

	status := in.Status
	if status == "" {
		status = models.StatusDraft
	}

	publishedAt := in.PublishedAt
	if publishedAt == nil && status == models.StatusPublished {
		if existing.PublishedAt != nil {
			publishedAt = existing.PublishedAt
		} else {
			now := time.Now()
			publishedAt = &now
		}
	}

	post := &models.Post{
		ID:              existing.ID,
		Slug:            postSlug,
		Title:           in.Title,
		Excerpt:         in.Excerpt,
		Content:         in.Content,
		Category:        in.Category,
		Tags:            in.Tags,
		FeaturedImage:   in.FeaturedImage,
		MetaTitle:       in.MetaTitle,
		MetaDescription: in.MetaDescription,
		Status:          status,
		PublishedAt:     publishedAt,
		CreatedAt:       existing.CreatedAt,
	}

	updated, err := m.repo.Update(ctx, post)
	if err != nil {
		return nil, err
	}

	// Cleanup strictly after the superseding write has committed.
	m.gc.CleanupReplacedImage(ctx, in.PreviousFeaturedImage, updated.FeaturedImage)

	paths := []string{blogPath, homePath, blogPath + "/" + updated.Slug}
	if existing.Slug != updated.Slug {
		paths = append(paths, blogPath+"/"+existing.Slug)
	}
	m.invalidate(ctx, paths...)
	return updated, nil
}

// Patch toggles only the status. Publishing stamps publishedAt when it
// is missing; unpublishing clears it, so re-publishing gets a fresh
// date rather than the original one.
func (m *Manager) Patch(ctx context.Context, id string, in *models.StatusInput) (*models.Post, error) {
	if in.Status != models.StatusDraft && in.Status != models.StatusPublished {
		return nil, models.NewValidationError("status must be draft or published")
	}

	post, err := m.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	post.Status = in.Status
	switch in.Status {
	case models.StatusPublished:
		if post.PublishedAt == nil {
			now := time.Now()
			post.PublishedAt = &now
		}
	case models.StatusDraft:
		post.PublishedAt = nil
	}

	updated, err := m.repo.Update(ctx, post)
	if err != nil {
		return nil, err
	}

	m.invalidate(ctx, blogPath, homePath, blogPath+"/"+updated.Slug)
	return updated, nil
}

// Duplicate copies a post into a fresh draft. The slug is left blank so
// Create re-derives it from the new title; the copy shares the same
// asset references as the original, which is why orphan detection is
// collection-wide.
func (m *Manager) Duplicate(ctx context.Context, id string) (*models.Post, error) {
	source, err := m.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	return m.Create(ctx, &models.PostInput{
		Title:           source.Title + " (Copy)",
		Excerpt:         source.Excerpt,
		Content:         source.Content,
		Category:        source.Category,
		Tags:            source.Tags,
		FeaturedImage:   source.FeaturedImage,
		MetaTitle:       source.MetaTitle,
		MetaDescription: source.MetaDescription,
		Status:          models.StatusDraft,
	})
}

// Delete removes the post, then best-effort collects the assets it
// owned. A missing id fails before any side effect runs.
func (m *Manager) Delete(ctx context.Context, id string) (*models.Post, error) {
	deleted, err := m.repo.Delete(ctx, id)
	if err != nil {
		return nil, err
	}

	m.gc.CleanupDeletedPost(ctx, deleted)
	m.invalidate(ctx, blogPath, homePath, blogPath+"/"+deleted.Slug)
	return deleted, nil
}

// invalidate fans the stale paths out to every configured sink.
// Fire-and-forget: failures are logged, the mutation already succeeded.
func (m *Manager) invalidate(ctx context.Context, paths ...string) {
	for _, inv := range m.invalidators {
		if err := inv.Invalidate(ctx, paths...); err != nil {
			logger.Get().Warn().Err(err).Strs("paths", paths).Msg("Cache invalidation failed")
		}
	}
}

func validateInput(in *models.PostInput) error {
	required := map[string]string{
		"title":    in.Title,
		"excerpt":  in.Excerpt,
		"content":  in.Content,
		"category": in.Category,
	}
	for field, value := range required {
		if strings.TrimSpace(value) == "" {
			return models.NewValidationError(fmt.Sprintf("%s is required", field))
		}
	}
	if in.Status != "" && in.Status != models.StatusDraft && in.Status != models.StatusPublished {
		return models.NewValidationError("status must be draft or published")
	}
	return nil
}

// resolveSlug uses the supplied slug when present, deriving one from
// the title otherwise. A supplied slug must already be in canonical
// form; anything else would break the uniqueness and URL invariants.
func resolveSlug(in *models.PostInput) (string, error) {
	if in.Slug != "" {
		if slug.Derive(in.Slug) != in.Slug {
			return "", models.NewValidationError(fmt.Sprintf("slug %q is not URL-safe", in.Slug))
		}
		return in.Slug, nil
	}

	derived := slug.Derive(in.Title)
	if derived == "" {
		return "", models.NewValidationError("cannot derive a slug from the title")
	}
	return derived, nil
}
