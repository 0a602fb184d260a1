package assets

import (
	"context"
	"errors"
	"testing"

	"github.com/calderaweb/pressroom/internal/blob"
	"github.com/calderaweb/pressroom/internal/models"
	"github.com/calderaweb/pressroom/internal/repository"
)

func newGC(t *testing.T) (*GarbageCollector, *blob.MockStore, *repository.MemoryRepository) {
	t.Helper()
	blobs := blob.NewMockStore(managedHost)
	repo := repository.NewMemoryRepository(10)
	return NewGarbageCollector(blobs, NewResolver(managedHost), repo), blobs, repo
}

func seedPost(t *testing.T, repo *repository.MemoryRepository, p *models.Post) *models.Post {
	t.Helper()
	created, err := repo.Insert(context.Background(), p)
	if err != nil {
		t.Fatalf("seed post: %v", err)
	}
	return created
}

func TestCleanupReplacedImage(t *testing.T) {
	gc, blobs, _ := newGC(t)
	ctx := context.Background()

	oldURL := "https://media.calderaweb.com/blog/old.png"
	newURL := "https://media.calderaweb.com/blog/new.png"

	gc.CleanupReplacedImage(ctx, oldURL, newURL)

	if len(blobs.Deleted) != 1 || blobs.Deleted[0] != oldURL {
		t.Errorf("deleted %v, want exactly [%s]", blobs.Deleted, oldURL)
	}
}

func TestCleanupReplacedImageNoops(t *testing.T) {
	gc, blobs, _ := newGC(t)
	ctx := context.Background()

	// unchanged image
	gc.CleanupReplacedImage(ctx, "https://media.calderaweb.com/a.png", "https://media.calderaweb.com/a.png")
	// no previous image
	gc.CleanupReplacedImage(ctx, "", "https://media.calderaweb.com/b.png")
	// third-party previous image
	gc.CleanupReplacedImage(ctx, "https://example.com/ext.jpg", "https://media.calderaweb.com/c.png")

	if len(blobs.Deleted) != 0 {
		t.Errorf("deleted %v, want none", blobs.Deleted)
	}
}

func TestCleanupReplacedImageStillReferenced(t *testing.T) {
	gc, blobs, repo := newGC(t)
	ctx := context.Background()

	shared := "https://media.calderaweb.com/blog/shared.png"
	seedPost(t, repo, &models.Post{
		Slug: "survivor", Title: "Survivor", Excerpt: "x", Content: "<p>x</p>",
		Category: "General", Status: models.StatusDraft, FeaturedImage: shared,
	})

	gc.CleanupReplacedImage(ctx, shared, "https://media.calderaweb.com/blog/new.png")

	if len(blobs.Deleted) != 0 {
		t.Errorf("deleted %v, want none: asset still referenced by a surviving post", blobs.Deleted)
	}
}

func TestCleanupDeletedPost(t *testing.T) {
	gc, blobs, _ := newGC(t)
	ctx := context.Background()

	post := &models.Post{
		FeaturedImage: "https://media.calderaweb.com/blog/feat.png",
		Content: `<img src="https://media.calderaweb.com/blog/inline.png">` +
			`<img src="https://example.com/third-party.jpg">`,
	}
	gc.CleanupDeletedPost(ctx, post)

	want := map[string]bool{
		"https://media.calderaweb.com/blog/feat.png":   true,
		"https://media.calderaweb.com/blog/inline.png": true,
	}
	if len(blobs.Deleted) != len(want) {
		t.Fatalf("deleted %v, want %d managed URLs", blobs.Deleted, len(want))
	}
	for _, url := range blobs.Deleted {
		if !want[url] {
			t.Errorf("deleted unexpected URL %q", url)
		}
	}
}

func TestCleanupDeletedPostSharedWithDuplicate(t *testing.T) {
	gc, blobs, repo := newGC(t)
	ctx := context.Background()

	shared := "https://media.calderaweb.com/blog/feat.png"

	// The duplicate survives and shares the original's feature image.
	seedPost(t, repo, &models.Post{
		Slug: "original-copy", Title: "Original (Copy)", Excerpt: "x", Content: "<p>x</p>",
		Category: "General", Status: models.StatusDraft, FeaturedImage: shared,
	})

	deleted := &models.Post{FeaturedImage: shared, Content: "<p>x</p>"}
	gc.CleanupDeletedPost(ctx, deleted)

	if len(blobs.Deleted) != 0 {
		t.Errorf("deleted %v: shared feature image must survive while the duplicate references it", blobs.Deleted)
	}
}

func TestCleanupFailuresAreSwallowed(t *testing.T) {
	gc, blobs, _ := newGC(t)
	ctx := context.Background()

	failing := "https://media.calderaweb.com/blog/flaky.png"
	ok := "https://media.calderaweb.com/blog/ok.png"
	blobs.FailOn[failing] = errors.New("transient blob store failure")

	post := &models.Post{
		FeaturedImage: failing,
		Content:       `<img src="` + ok + `">`,
	}

	// Must not panic or abort: the second delete still runs.
	gc.CleanupDeletedPost(ctx, post)

	if len(blobs.Deleted) != 2 {
		t.Errorf("attempted %v, want both deletions attempted despite the failure", blobs.Deleted)
	}
}
