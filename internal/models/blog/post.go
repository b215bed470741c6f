// Package blog holds blog posts and their comments.
package blog

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/cosmicdev/devspace/internal/models/user"
	"github.com/cosmicdev/devspace/pkg/utils"
	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	storage "github.com/cosmicdev/devspace/pkg/redis"
)

type Post struct {
	ID       uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	AuthorID uuid.UUID `gorm:"type:uuid;not null;index:idx_post_author" json:"author_id" validate:"required"`

	Title   string         `gorm:"size:200;not null" json:"title" validate:"required,min=3,max=200"`
	Slug    string         `gorm:"size:220;not null;uniqueIndex" json:"slug" validate:"required,max=220,slug"`
	Content string         `gorm:"type:text;not null" json:"content" validate:"required,min=10"`
	Excerpt string         `gorm:"size:300" json:"excerpt" validate:"omitempty,max=300"`
	Tags    datatypes.JSON `gorm:"type:json" json:"tags,omitempty"`

	Published   bool       `gorm:"default:false;index" json:"published"`
	PublishedAt *time.Time `gorm:"index" json:"published_at,omitempty"`
	Views       int        `gorm:"default:0" json:"views"`

	CreatedAt time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	Comments []Comment `gorm:"foreignKey:PostID;constraint:OnDelete:CASCADE" json:"comments,omitempty" validate:"-"`
}

func (p *Post) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// PostOption configures a Post.
type PostOption func(*Post)

func WithExcerpt(excerpt string) PostOption {
	return func(p *Post) { p.Excerpt = excerpt }
}

func WithTags(tags []string) PostOption {
	return func(p *Post) {
		raw, _ := json.Marshal(tags)
		p.Tags = raw
	}
}

func WithPublished(published bool) PostOption {
	return func(p *Post) { p.Published = published }
}

// NewPost creates a blog post, deriving a unique slug from the title, and
// bumps the author's post counter.
func NewPost(ctx context.Context, rclient *storage.RedisClient, db *gorm.DB, authorID uuid.UUID, title, content string, opts ...PostOption) (*Post, error) {
	if err := ctx.Err(); err != nil {
		return nil, utils.WrapError(err, utils.ErrInternalServerError.Code, "post creation canceled")
	}

	post := &Post{
		AuthorID: authorID,
		Title:    strings.TrimSpace(title),
		Content:  strings.TrimSpace(content),
	}
	for _, opt := range opts {
		opt(post)
	}

	if post.AuthorID == uuid.Nil || post.Title == "" || post.Content == "" {
		return nil, utils.NewError(utils.ErrBadRequest.Code, "Required fields missing: author_id, title, content")
	}
	if post.Published && post.PublishedAt == nil {
		now := time.Now()
		post.PublishedAt = &now
	}

	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		s, err := uniqueSlug(tx, post.Title)
		if err != nil {
			return err
		}
		post.Slug = s

		if err := tx.Create(post).Error; err != nil {
			return utils.WrapError(err, utils.ErrInternalServerError.Code, "Failed to create post")
		}
		return user.UpdateUserStats(ctx, rclient, tx, post.AuthorID, user.WithPostsCount(1))
	})
	if err != nil {
		return nil, err
	}

	data, _ := json.Marshal(post)
	rclient.CacheJSON(ctx, postCacheKey(post.Slug), data, 10*time.Minute)

	return post, nil
}

// uniqueSlug derives a slug from the title, suffixing on collisions.
func uniqueSlug(tx *gorm.DB, title string) (string, error) {
	base := slug.Make(title)
	if base == "" {
		return "", utils.NewError(utils.ErrBadRequest.Code, "Title does not yield a valid slug")
	}

	candidate := base
	for i := 2; ; i++ {
		var count int64
		if err := tx.Model(&Post{}).Where("slug = ?", candidate).Count(&count).Error; err != nil {
			return "", utils.WrapError(err, utils.ErrInternalServerError.Code, "Failed to check slug")
		}
		if count == 0 {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s-%d", base, i)
	}
}

// GetPostBySlug fetches a post through the cache and bumps its view counter.
func GetPostBySlug(ctx context.Context, rclient *storage.RedisClient, db *gorm.DB, s string) (*Post, error) {
	var post Post

	if cached, ok := rclient.GetJSON(ctx, postCacheKey(s)); ok {
		if err := json.Unmarshal(cached, &post); err == nil {
			db.WithContext(ctx).Model(&Post{}).Where("slug = ?", s).
				UpdateColumn("views", gorm.Expr("views + 1"))
			post.Views++
			return &post, nil
		}
	}

	if err := db.WithContext(ctx).Preload("Comments").Where("slug = ?", s).First(&post).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, utils.NewError(utils.ErrNotFound.Code, "Post not found")
		}
		return nil, utils.WrapError(err, utils.ErrInternalServerError.Code, "Failed to fetch post")
	}

	db.WithContext(ctx).Model(&Post{}).Where("id = ?", post.ID).
		UpdateColumn("views", gorm.Expr("views + 1"))
	post.Views++

	data, _ := json.Marshal(post)
	rclient.CacheJSON(ctx, postCacheKey(s), data, 10*time.Minute)

	return &post, nil
}

// ListPosts retrieves published posts with pagination; includeDrafts widens
// the listing for the author/dashboard views.
func ListPosts(ctx context.Context, rclient *storage.RedisClient, db *gorm.DB, page, limit int, includeDrafts bool) ([]Post, int64, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}

	query := db.WithContext(ctx).Model(&Post{})
	if !includeDrafts {
		query = query.Where("published = ?", true)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, utils.WrapError(err, utils.ErrInternalServerError.Code, "Failed to count posts")
	}

	var posts []Post
	if err := query.Order("created_at desc").Offset((page - 1) * limit).Limit(limit).Find(&posts).Error; err != nil {
		return nil, 0, utils.WrapError(err, utils.ErrInternalServerError.Code, "Failed to fetch posts")
	}

	return posts, total, nil
}

// DeletePost removes a post and its comments.
func DeletePost(ctx context.Context, rclient *storage.RedisClient, db *gorm.DB, id uuid.UUID) error {
	var post Post
	if err := db.WithContext(ctx).First(&post, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return utils.NewError(utils.ErrNotFound.Code, "Post not found")
		}
		return utils.WrapError(err, utils.ErrInternalServerError.Code, "Failed to fetch post")
	}

	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Unscoped().Delete(&Post{}, "id = ?", id).Error; err != nil {
			return utils.WrapError(err, utils.ErrInternalServerError.Code, "Failed to delete post")
		}
		if err := tx.Delete(&Comment{}, "post_id = ?", id).Error; err != nil {
			return utils.WrapError(err, utils.ErrInternalServerError.Code, "Failed to delete post comments")
		}
		return user.UpdateUserStats(ctx, rclient, tx, post.AuthorID, user.WithPostsCount(-1))
	})
	if err != nil {
		return err
	}

	rclient.Invalidate(ctx, postCacheKey(post.Slug))
	return nil
}

func postCacheKey(s string) string {
	return "blog:post:" + s
}
