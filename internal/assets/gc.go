package assets

import (
	"context"

	"github.com/calderaweb/pressroom/internal/blob"
	"github.com/calderaweb/pressroom/internal/logger"
	"github.com/calderaweb/pressroom/internal/models"
	"github.com/calderaweb/pressroom/internal/repository"
)

// GarbageCollector deletes blobs no surviving post references. Every
// deletion is best-effort: a failure is logged and never propagated to
// the mutation that triggered the cleanup. It must only run after the
// triggering document write has committed.
type GarbageCollector struct {
	blobs    blob.Store
	resolver *Resolver
	repo     repository.PostRepository
}

func NewGarbageCollector(blobs blob.Store, resolver *Resolver, repo repository.PostRepository) *GarbageCollector {
	return &GarbageCollector{blobs: blobs, resolver: resolver, repo: repo}
}

// CleanupReplacedImage removes the previous feature image after an
// update swapped it out. Only the feature-image slot is guarded here;
// images edited out of content wait for the owning post's deletion.
func (g *GarbageCollector) CleanupReplacedImage(ctx context.Context, previousURL, newURL string) {
	if previousURL == "" || previousURL == newURL {
		return
	}
	if !g.resolver.IsManaged(previousURL) {
		return
	}
	g.deleteIfOrphaned(ctx, previousURL)
}

// CleanupDeletedPost removes every managed asset the deleted post owned,
// unless another post still references it (a duplicate sharing the
// feature image, for instance).
func (g *GarbageCollector) CleanupDeletedPost(ctx context.Context, post *models.Post) {
	for _, url := range g.resolver.OwnedAssets(post) {
		g.deleteIfOrphaned(ctx, url)
	}
}

// deleteIfOrphaned checks the whole collection for surviving references
// before touching the blob store. The reference check and the delete are
// not atomic; the race window is accepted because an upload is never
// attached to a post before it exists in the store.
func (g *GarbageCollector) deleteIfOrphaned(ctx context.Context, url string) {
	refs, err := g.repo.CountAssetReferences(ctx, url, "")
	if err != nil {
		logger.Get().Warn().Err(err).Str("url", url).Msg("Asset cleanup: reference check failed, skipping")
		return
	}
	if refs > 0 {
		logger.Get().Debug().Str("url", url).Int64("refs", refs).Msg("Asset still referenced, keeping")
		return
	}
	if err := g.blobs.Delete(ctx, url); err != nil {
		logger.Get().Warn().Err(err).Str("url", url).Msg("Asset cleanup: blob delete failed")
	}
}
