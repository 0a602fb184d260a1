// Package assets keeps externally stored media consistent with the
// posts that reference it: the Resolver decides which URLs a post owns,
// the GarbageCollector removes blobs nothing references anymore.
package assets

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/calderaweb/pressroom/internal/models"
)

// imgSrc matches <img ...> tags with either quote style, regardless of
// attribute order. Malformed tags simply do not match.
var imgSrc = regexp.MustCompile(`<img[^>]+src=["']([^"']+)["'][^>]*>`)

// Resolver decides whether a URL belongs to the managed blob namespace.
// Only managed URLs are ever candidates for deletion; anything a user
// pasted from a third-party host is left alone.
type Resolver struct {
	host string
}

func NewResolver(managedHost string) *Resolver {
	return &Resolver{host: strings.ToLower(managedHost)}
}

// IsManaged reports whether the URL's host is the managed blob host or
// one of its subdomains.
func (r *Resolver) IsManaged(rawURL string) bool {
	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Host == "" {
		return false
	}
	host := strings.ToLower(parsed.Hostname())
	return host == r.host || strings.HasSuffix(host, "."+r.host)
}

// ExtractContentImages scans stored HTML for <img> tags and returns the
// managed src values. This is a structural scan, not an HTML parse; on
// broken markup it degrades to returning fewer (or no) matches.
func (r *Resolver) ExtractContentImages(html string) []string {
	var urls []string
	for _, match := range imgSrc.FindAllStringSubmatch(html, -1) {
		if src := match[1]; r.IsManaged(src) {
			urls = append(urls, src)
		}
	}
	return urls
}

// OwnedAssets returns the deduplicated set of managed URLs a post
// references: its feature image plus every inline content image.
func (r *Resolver) OwnedAssets(post *models.Post) []string {
	seen := make(map[string]struct{})
	var owned []string

	add := func(u string) {
		if _, dup := seen[u]; dup {
			return
		}
		seen[u] = struct{}{}
		owned = append(owned, u)
	}

	if post.FeaturedImage != "" && r.IsManaged(post.FeaturedImage) {
		add(post.FeaturedImage)
	}
	for _, src := range r.ExtractContentImages(post.Content) {
		add(src)
	}
	return owned
}
