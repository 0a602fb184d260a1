package repository

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/calderaweb/pressroom/internal/models"
	"github.com/google/uuid"
)

// MemoryRepository is an in-memory PostRepository with the same filter,
// ordering and pagination semantics as the Postgres implementation.
// Used by tests and by dev mode when no database is configured.
type MemoryRepository struct {
	mu          sync.RWMutex
	posts       map[string]*models.Post
	defaultPage int
}

func NewMemoryRepository(defaultPageSize int) *MemoryRepository {
	return &MemoryRepository{
		posts:       make(map[string]*models.Post),
		defaultPage: defaultPageSize,
	}
}

// Len reports the number of stored posts.
func (m *MemoryRepository) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.posts)
}

func (m *MemoryRepository) GetByID(ctx context.Context, id string) (*models.Post, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	post, ok := m.posts[id]
	if !ok {
		return nil, models.NewNotFoundError("post", id)
	}
	return clone(post), nil
}

func (m *MemoryRepository) GetBySlug(ctx context.Context, slug string) (*models.Post, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, post := range m.posts {
		if post.Slug == slug {
			return clone(post), nil
		}
	}
	return nil, models.NewNotFoundError("post", slug)
}

func (m *MemoryRepository) Insert(ctx context.Context, post *models.Post) (*models.Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, existing := range m.posts {
		if existing.Slug == post.Slug {
			return nil, models.NewConflictError(fmt.Sprintf("slug %q already exists", post.Slug))
		}
	}

	now := time.Now()
	post.ID = uuid.NewString()
	post.CreatedAt = now
	post.UpdatedAt = now

	m.posts[post.ID] = clone(post)
	return post, nil
}

func (m *MemoryRepository) Update(ctx context.Context, post *models.Post) (*models.Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	existing, ok := m.posts[post.ID]
	if !ok {
		return nil, models.NewNotFoundError("post", post.ID)
	}

	for id, other := range m.posts {
		if id != post.ID && other.Slug == post.Slug {
			return nil, models.NewConflictError(fmt.Sprintf("slug %q already exists", post.Slug))
		}
	}

	post.CreatedAt = existing.CreatedAt
	post.UpdatedAt = time.Now()
	m.posts[post.ID] = clone(post)
	return post, nil
}

func (m *MemoryRepository) Delete(ctx context.Context, id string) (*models.Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	post, ok := m.posts[id]
	if !ok {
		return nil, models.NewNotFoundError("post", id)
	}
	delete(m.posts, id)
	return post, nil
}

func (m *MemoryRepository) List(ctx context.Context, filter models.PostFilter) (*models.PostList, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	filter.Normalize(m.defaultPage)

	var matched []*models.Post
	categorySet := make(map[string]struct{})
	var stats models.Stats

	for _, post := range m.posts {
		stats.Total++
		if post.IsPublished() {
			stats.Published++
		} else {
			stats.Draft++
		}
		categorySet[post.Category] = struct{}{}

		if matches(post, filter) {
			matched = append(matched, clone(post))
		}
	}

	// Published-first by publish date, then newest created.
	sort.Slice(matched, func(i, j int) bool {
		pi, pj := matched[i].PublishedAt, matched[j].PublishedAt
		switch {
		case pi != nil && pj != nil:
			if !pi.Equal(*pj) {
				return pi.After(*pj)
			}
		case pi != nil:
			return true
		case pj != nil:
			return false
		}
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	offset := (filter.Page - 1) * filter.Limit
	if offset > len(matched) {
		offset = len(matched)
	}
	end := offset + filter.Limit
	if end > len(matched) {
		end = len(matched)
	}
	window := matched[offset:end]
	hasMore := len(matched) > end

	categories := make([]string, 0, len(categorySet))
	for c := range categorySet {
		categories = append(categories, c)
	}
	sort.Strings(categories)

	return &models.PostList{
		Posts:      window,
		Pagination: models.Pagination{Page: filter.Page, Limit: filter.Limit, HasMore: hasMore},
		Stats:      stats,
		Categories: categories,
	}, nil
}

func (m *MemoryRepository) CountAssetReferences(ctx context.Context, url string, excludeID string) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var count int64
	for id, post := range m.posts {
		if id == excludeID {
			continue
		}
		if post.FeaturedImage == url || strings.Contains(post.Content, url) {
			count++
		}
	}
	return count, nil
}

func matches(post *models.Post, filter models.PostFilter) bool {
	if filter.Status != "" && post.Status != filter.Status {
		return false
	}
	if filter.Category != "" && post.Category != filter.Category {
		return false
	}
	if filter.Query != "" {
		needle := strings.ToLower(filter.Query)
		if !strings.Contains(strings.ToLower(post.Title), needle) &&
			!strings.Contains(strings.ToLower(post.Excerpt), needle) &&
			!strings.Contains(strings.ToLower(post.Category), needle) {
			return false
		}
	}
	return true
}

func clone(post *models.Post) *models.Post {
	copied := *post
	if post.PublishedAt != nil {
		t := *post.PublishedAt
		copied.PublishedAt = &t
	}
	copied.Tags = append([]string(nil), post.Tags...)
	return &copied
}
