package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/calderaweb/pressroom/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PostRepository owns all access to the post collection. Both the
// Postgres implementation and the in-memory twin satisfy it, so tests
// and dev mode can run without a database.
type PostRepository interface {
	GetByID(ctx context.Context, id string) (*models.Post, error)
	GetBySlug(ctx context.Context, slug string) (*models.Post, error)
	Insert(ctx context.Context, post *models.Post) (*models.Post, error)
	Update(ctx context.Context, post *models.Post) (*models.Post, error)
	Delete(ctx context.Context, id string) (*models.Post, error)
	List(ctx context.Context, filter models.PostFilter) (*models.PostList, error)

	// CountAssetReferences reports how many posts other than excludeID
	// still reference the given asset URL, either as their feature image
	// or embedded in content. The garbage collector uses it to keep
	// shared assets alive.
	CountAssetReferences(ctx context.Context, url string, excludeID string) (int64, error)
}

// postRepository implements PostRepository on Postgres via GORM.
type postRepository struct {
	db          *gorm.DB
	defaultPage int
}

// NewPostRepository creates a new post repository
func NewPostRepository(db *gorm.DB, defaultPageSize int) PostRepository {
	return &postRepository{db: db, defaultPage: defaultPageSize}
}

func (r *postRepository) GetByID(ctx context.Context, id string) (*models.Post, error) {
	var post models.Post
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&post).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, models.NewNotFoundError("post", id)
	}
	if err != nil {
		return nil, fmt.Errorf("get post by id: %w", err)
	}
	return &post, nil
}

func (r *postRepository) GetBySlug(ctx context.Context, slug string) (*models.Post, error) {
	var post models.Post
	err := r.db.WithContext(ctx).Where("slug = ?", slug).First(&post).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, models.NewNotFoundError("post", slug)
	}
	if err != nil {
		return nil, fmt.Errorf("get post by slug: %w", err)
	}
	return &post, nil
}

func (r *postRepository) Insert(ctx context.Context, post *models.Post) (*models.Post, error) {
	taken, err := r.slugTaken(ctx, post.Slug, "")
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, models.NewConflictError(fmt.Sprintf("slug %q already exists", post.Slug))
	}

	now := time.Now()
	post.ID = uuid.NewString()
	post.CreatedAt = now
	post.UpdatedAt = now

	if err := r.db.WithContext(ctx).Create(post).Error; err != nil {
		return nil, fmt.Errorf("insert post: %w", err)
	}
	return post, nil
}

func (r *postRepository) Update(ctx context.Context, post *models.Post) (*models.Post, error) {
	taken, err := r.slugTaken(ctx, post.Slug, post.ID)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, models.NewConflictError(fmt.Sprintf("slug %q already exists", post.Slug))
	}

	post.UpdatedAt = time.Now()

	// Save writes every field, including cleared ones (published_at = NULL).
	res := r.db.WithContext(ctx).Model(&models.Post{}).Where("id = ?", post.ID).
		Select("*").Omit("id", "created_at").Updates(post)
	if res.Error != nil {
		return nil, fmt.Errorf("update post: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, models.NewNotFoundError("post", post.ID)
	}
	return post, nil
}

func (r *postRepository) Delete(ctx context.Context, id string) (*models.Post, error) {
	post, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Post{}).Error; err != nil {
		return nil, fmt.Errorf("delete post: %w", err)
	}
	return post, nil
}

func (r *postRepository) List(ctx context.Context, filter models.PostFilter) (*models.PostList, error) {
	filter.Normalize(r.defaultPage)

	q := r.db.WithContext(ctx).Model(&models.Post{})
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}
	if filter.Category != "" {
		q = q.Where("category = ?", filter.Category)
	}
	if filter.Query != "" {
		needle := "%" + escapeLike(strings.ToLower(filter.Query)) + "%"
		q = q.Where(
			"LOWER(title) LIKE ? OR LOWER(excerpt) LIKE ? OR LOWER(category) LIKE ?",
			needle, needle, needle,
		)
	}

	// Fetch one row past the window so has_more is exact.
	var posts []*models.Post
	offset := (filter.Page - 1) * filter.Limit
	err := q.
		Order("published_at DESC NULLS LAST, created_at DESC").
		Limit(filter.Limit + 1).
		Offset(offset).
		Find(&posts).Error
	if err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}

	hasMore := len(posts) > filter.Limit
	if hasMore {
		posts = posts[:filter.Limit]
	}

	stats, err := r.stats(ctx)
	if err != nil {
		return nil, err
	}

	var categories []string
	err = r.db.WithContext(ctx).Model(&models.Post{}).
		Distinct("category").Order("category").Pluck("category", &categories).Error
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}

	return &models.PostList{
		Posts:      posts,
		Pagination: models.Pagination{Page: filter.Page, Limit: filter.Limit, HasMore: hasMore},
		Stats:      stats,
		Categories: categories,
	}, nil
}

func (r *postRepository) CountAssetReferences(ctx context.Context, url string, excludeID string) (int64, error) {
	var count int64
	needle := "%" + escapeLike(url) + "%"
	q := r.db.WithContext(ctx).Model(&models.Post{}).
		Where("featured_image = ? OR content LIKE ?", url, needle)
	if excludeID != "" {
		q = q.Where("id <> ?", excludeID)
	}
	if err := q.Count(&count).Error; err != nil {
		return 0, fmt.Errorf("count asset references: %w", err)
	}
	return count, nil
}

// stats counts the whole collection, never the filtered view.
func (r *postRepository) stats(ctx context.Context) (models.Stats, error) {
	var stats models.Stats
	if err := r.db.WithContext(ctx).Model(&models.Post{}).Count(&stats.Total).Error; err != nil {
		return stats, fmt.Errorf("count posts: %w", err)
	}
	err := r.db.WithContext(ctx).Model(&models.Post{}).
		Where("status = ?", models.StatusPublished).Count(&stats.Published).Error
	if err != nil {
		return stats, fmt.Errorf("count published posts: %w", err)
	}
	stats.Draft = stats.Total - stats.Published
	return stats, nil
}

func (r *postRepository) slugTaken(ctx context.Context, slug string, excludeID string) (bool, error) {
	var count int64
	q := r.db.WithContext(ctx).Model(&models.Post{}).Where("slug = ?", slug)
	if excludeID != "" {
		q = q.Where("id <> ?", excludeID)
	}
	if err := q.Count(&count).Error; err != nil {
		return false, fmt.Errorf("check slug: %w", err)
	}
	return count > 0, nil
}

// escapeLike escapes LIKE metacharacters in user input.
func escapeLike(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, "%", `\%`)
	s = strings.ReplaceAll(s, "_", `\_`)
	return s
}
