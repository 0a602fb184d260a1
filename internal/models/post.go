package models

import "time"

// Post status values. There is no review workflow; a post is either
// visible on the site or it is not.
const (
	StatusDraft     = "draft"
	StatusPublished = "published"
)

// Post is the single content entity of the system.
type Post struct {
	ID              string     `gorm:"primaryKey;size:36" json:"id"`
	Slug            string     `gorm:"uniqueIndex;not null" json:"slug"`
	Title           string     `gorm:"not null" json:"title"`
	Excerpt         string     `gorm:"not null" json:"excerpt"`
	Content         string     `gorm:"type:text;not null" json:"content"`
	Category        string     `gorm:"not null;index" json:"category"`
	Tags            []string   `gorm:"serializer:json" json:"tags"`
	FeaturedImage   string     `json:"featured_image,omitempty"`
	MetaTitle       string     `json:"meta_title,omitempty"`
	MetaDescription string     `json:"meta_description,omitempty"`
	Status          string     `gorm:"not null;default:draft;index" json:"status"`
	PublishedAt     *time.Time `json:"published_at,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// IsPublished reports whether the post is visible on the public site.
func (p *Post) IsPublished() bool {
	return p.Status == StatusPublished
}

// PostInput carries the writable fields of a post for create and update.
// PreviousFeaturedImage is not persisted; the editor sends it so the
// server can garbage-collect a replaced feature image.
type PostInput struct {
	Slug            string     `json:"slug"`
	Title           string     `json:"title" validate:"required"`
	Excerpt         string     `json:"excerpt" validate:"required"`
	Content         string     `json:"content" validate:"required"`
	Category        string     `json:"category" validate:"required"`
	Tags            []string   `json:"tags"`
	FeaturedImage   string     `json:"featured_image"`
	MetaTitle       string     `json:"meta_title"`
	MetaDescription string     `json:"meta_description"`
	Status          string     `json:"status" validate:"omitempty,oneof=draft published"`
	PublishedAt     *time.Time `json:"published_at"`

	PreviousFeaturedImage string `json:"previous_featured_image"`
}

// StatusInput is the payload of the lightweight status toggle.
type StatusInput struct {
	Status string `json:"status" validate:"required,oneof=draft published"`
}

// PostFilter narrows and pages a listing query. Zero values mean "no
// constraint"; Category "all" is treated the same as empty.
type PostFilter struct {
	Status   string `query:"status"`
	Category string `query:"category"`
	Query    string `query:"q"`
	Page     int    `query:"page"`
	Limit    int    `query:"limit"`
}

// Normalize clamps pagination to safe values instead of rejecting the
// request. Malformed filters fall back, they do not error.
func (f *PostFilter) Normalize(defaultLimit int) {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit < 1 {
		f.Limit = defaultLimit
	}
	if f.Category == "all" {
		f.Category = ""
	}
}

// Stats are collection-wide counts, independent of any active filter.
type Stats struct {
	Total     int64 `json:"total"`
	Published int64 `json:"published"`
	Draft     int64 `json:"draft"`
}

// Pagination describes the window a listing returned. HasMore is exact:
// the repository fetches one row beyond the window to compute it.
type Pagination struct {
	Page    int  `json:"page"`
	Limit   int  `json:"limit"`
	HasMore bool `json:"has_more"`
}

// PostList is the full listing response: the filtered window plus
// collection-wide stats and the distinct category set.
type PostList struct {
	Posts      []*Post    `json:"posts"`
	Pagination Pagination `json:"pagination"`
	Stats      Stats      `json:"stats"`
	Categories []string   `json:"categories"`
}
