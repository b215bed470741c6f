package portfolio

import (
	"context"
	"strings"

	"github.com/cosmicdev/devspace/pkg/utils"
	"gorm.io/gorm"

	storage "github.com/cosmicdev/devspace/pkg/redis"
)

// MaxPageSize caps the listing page size.
const MaxPageSize = 100

// ListParams are the loosely-typed listing parameters as they arrive from
// the query string. Identity is the resolved caller identity, empty for
// anonymous requests.
type ListParams struct {
	Page     int
	Limit    int
	Sort     string
	Category string
	Featured string
	Status   string
	Search   string
	MyItems  string
	Identity string
}

// Clause is one atomic filter condition. Clauses are collected into a list
// and applied one by one, each as its own WHERE fragment, so combining any
// number of them can never clobber an earlier condition.
type Clause interface {
	Apply(q *gorm.DB) *gorm.DB
}

// Equals is an exact-match condition on a column.
type Equals struct {
	Column string
	Value  interface{}
}

func (e Equals) Apply(q *gorm.DB) *gorm.DB {
	return q.Where(e.Column+" = ?", e.Value)
}

// SearchGroup is the OR-group for free-text search: case-insensitive
// substring match over title, description and short description, or
// membership in the tags/keywords arrays.
type SearchGroup struct {
	Term string
}

func (s SearchGroup) Apply(q *gorm.DB) *gorm.DB {
	term := "%" + strings.ToLower(s.Term) + "%"
	return q.Where(
		"LOWER(title) LIKE ? OR LOWER(description) LIKE ? OR LOWER(short_description) LIKE ? OR LOWER(CAST(tags AS TEXT)) LIKE ? OR LOWER(CAST(keywords AS TEXT)) LIKE ?",
		term, term, term, term, term,
	)
}

// Filter is the composed predicate plus ordering and pagination.
type Filter struct {
	Clauses []Clause
	Sort    string
	Page    int
	Limit   int
}

// Offset returns the row offset for the filter's page.
func (f Filter) Offset() int {
	return (f.Page - 1) * f.Limit
}

// ApplyClauses applies every clause of the filter to a query.
func (f Filter) ApplyClauses(q *gorm.DB) *gorm.DB {
	for _, c := range f.Clauses {
		q = c.Apply(q)
	}
	return q
}

// sortKeys translates the frontend sort vocabulary to store ordering.
var sortKeys = map[string]string{
	"newest":   "created_at DESC",
	"oldest":   "created_at ASC",
	"az":       "title ASC",
	"za":       "title DESC",
	"views":    "views DESC",
	"likes":    "likes_count DESC",
	"trending": "views DESC",
}

// ComposeFilter builds the listing predicate from request parameters.
//
// Owners browsing their own items ("myItems" with a resolved identity) see
// everything they created, private and unlisted included. Every other
// listing is restricted to public items.
func ComposeFilter(params ListParams) Filter {
	f := Filter{
		Page:  params.Page,
		Limit: params.Limit,
	}
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit < 1 {
		f.Limit = 20
	}
	if f.Limit > MaxPageSize {
		f.Limit = MaxPageSize
	}

	if params.MyItems == "true" && params.Identity != "" {
		f.Clauses = append(f.Clauses, Equals{Column: "creator_id", Value: params.Identity})
	} else {
		f.Clauses = append(f.Clauses, Equals{Column: "visibility", Value: VisibilityPublic})
	}

	if params.Category != "" {
		f.Clauses = append(f.Clauses, Equals{Column: "category", Value: params.Category})
	}
	if params.Featured == "true" {
		f.Clauses = append(f.Clauses, Equals{Column: "featured", Value: true})
	}
	if params.Status != "" && params.Status != "all" {
		f.Clauses = append(f.Clauses, Equals{Column: "status", Value: params.Status})
	}
	if term := strings.TrimSpace(params.Search); term != "" {
		f.Clauses = append(f.Clauses, SearchGroup{Term: term})
	}

	if key, ok := sortKeys[params.Sort]; ok {
		f.Sort = key
	} else {
		f.Sort = sortKeys["newest"]
	}

	return f
}

// ListItems runs a composed filter against the store and returns the page of
// items plus the total match count.
func ListItems(ctx context.Context, rclient *storage.RedisClient, db *gorm.DB, params ListParams) ([]Item, int64, error) {
	f := ComposeFilter(params)

	var total int64
	if err := f.ApplyClauses(db.WithContext(ctx).Model(&Item{})).Count(&total).Error; err != nil {
		return nil, 0, utils.WrapError(err, utils.ErrInternalServerError.Code, "Failed to count portfolio items")
	}

	var items []Item
	if err := f.ApplyClauses(db.WithContext(ctx).Model(&Item{})).
		Order(f.Sort).
		Offset(f.Offset()).
		Limit(f.Limit).
		Find(&items).Error; err != nil {
		return nil, 0, utils.WrapError(err, utils.ErrInternalServerError.Code, "Failed to fetch portfolio items")
	}

	return items, total, nil
}
