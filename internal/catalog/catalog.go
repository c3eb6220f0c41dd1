// Package catalog stores media items and user-defined lists.
package catalog

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

// Kind describes what a source reference points at.
type Kind string

const (
	KindDirectLink    Kind = "direct_link"
	KindStreamingSite Kind = "streaming_site"
	KindPlaylist      Kind = "playlist"
	KindLiveFeed      Kind = "live_feed"
)

// Kinds lists every recognized kind.
var Kinds = []Kind{KindDirectLink, KindStreamingSite, KindPlaylist, KindLiveFeed}

// Valid reports whether k is a recognized kind.
func (k Kind) Valid() bool {
	for _, v := range Kinds {
		if k == v {
			return true
		}
	}
	return false
}

// Category groups items for browsing.
type Category string

const (
	CategoryMovies        Category = "movies"
	CategoryTVSeries      Category = "tv_series"
	CategoryLiveTV        Category = "live_tv"
	CategoryStreamingSite Category = "streaming_site"
)

// Categories lists every recognized category in menu order.
var Categories = []Category{CategoryMovies, CategoryTVSeries, CategoryLiveTV, CategoryStreamingSite}

// Valid reports whether c is a recognized category.
func (c Category) Valid() bool {
	for _, v := range Categories {
		if c == v {
			return true
		}
	}
	return false
}

// Item is a cataloged media reference.
type Item struct {
	ID              string    `json:"id"`
	Title           string    `json:"title"`
	SourceReference string    `json:"source_reference"`
	Kind            Kind      `json:"kind"`
	Category        Category  `json:"category"`
	Description     string    `json:"description,omitempty"`
	Thumbnail       string    `json:"thumbnail,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// ItemFields are the caller-supplied fields of a new item.
type ItemFields struct {
	Title           string
	SourceReference string
	Kind            Kind
	Category        Category
	Description     string
	Thumbnail       string
}

// ItemUpdate changes the mutable fields of an item. Nil fields are left as is.
type ItemUpdate struct {
	Title       *string
	Description *string
	Category    *Category
}

// List is a user-defined ordered list of item ids.
// Items may contain ids of items that have since been deleted.
type List struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Items       []string  `json:"items"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ListView is a list materialized for a caller.
// Items holds the members that still resolve, in list order. Dangling holds
// stored ids that no longer resolve to an item and were filtered out.
type ListView struct {
	List        *List    `json:"list"`
	Items       []*Item  `json:"items"`
	Dangling    []string `json:"dangling,omitempty"`
	StoredCount int      `json:"stored_count"`
}

// Filtered reports whether any stored ids were dropped while materializing.
func (v *ListView) Filtered() bool {
	return len(v.Dangling) > 0
}

// Stats summarizes catalog contents.
type Stats struct {
	Items       int              `json:"total_media_items"`
	Lists       int              `json:"total_custom_lists"`
	ListEntries int              `json:"total_list_entries"`
	Categories  map[Category]int `json:"categories"`
}

func normalizeFields(f ItemFields) (ItemFields, error) {
	f.Title = strings.TrimSpace(f.Title)
	f.SourceReference = strings.TrimSpace(f.SourceReference)
	f.Description = strings.TrimSpace(f.Description)
	f.Thumbnail = strings.TrimSpace(f.Thumbnail)

	var problems []string
	if f.Title == "" {
		problems = append(problems, "title: required")
	}
	if f.SourceReference == "" {
		problems = append(problems, "source_reference: required")
	}
	if !f.Kind.Valid() {
		problems = append(problems, fmt.Sprintf("kind: unknown value %q", f.Kind))
	}
	if !f.Category.Valid() {
		problems = append(problems, fmt.Sprintf("category: unknown value %q", f.Category))
	}
	if f.Thumbnail != "" && !isAbsoluteURL(f.Thumbnail) {
		problems = append(problems, fmt.Sprintf("thumbnail: not an absolute URL: %q", f.Thumbnail))
	}
	if len(problems) > 0 {
		return f, &ValidationError{Problems: problems}
	}
	return f, nil
}

func isAbsoluteURL(s string) bool {
	u, err := url.Parse(s)
	return err == nil && u.Scheme != "" && u.Host != ""
}
