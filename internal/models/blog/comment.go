package blog

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/cosmicdev/devspace/pkg/utils"
	"github.com/google/uuid"
	"gorm.io/gorm"

	storage "github.com/cosmicdev/devspace/pkg/redis"
)

// Comment is an append-only comment on a blog post.
type Comment struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	PostID    uuid.UUID `gorm:"type:uuid;not null;index:idx_blog_comment_post" json:"post_id"`
	Author    string    `gorm:"size:100;not null" json:"author" validate:"required,min=2,max=100"`
	Content   string    `gorm:"size:1000;not null" json:"content" validate:"required,min=2,max=1000"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (c *Comment) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

// AddComment appends a comment to a post.
func AddComment(ctx context.Context, rclient *storage.RedisClient, db *gorm.DB, postID uuid.UUID, author, content string) (*Comment, error) {
	author = strings.TrimSpace(author)
	content = strings.TrimSpace(content)
	if author == "" || content == "" {
		return nil, utils.NewError(utils.ErrBadRequest.Code, "Required fields missing: author, content")
	}
	if utf8.RuneCountInString(content) > 1000 {
		return nil, utils.NewError(utils.ErrBadRequest.Code, "Comment too long")
	}

	comment := &Comment{
		PostID:  postID,
		Author:  author,
		Content: content,
	}

	var slugToDrop string
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var post Post
		if err := tx.Select("id", "slug").First(&post, "id = ?", postID).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return utils.NewError(utils.ErrNotFound.Code, "Post not found")
			}
			return utils.WrapError(err, utils.ErrInternalServerError.Code, "Failed to look up post")
		}
		slugToDrop = post.Slug
		if err := tx.Create(comment).Error; err != nil {
			return utils.WrapError(err, utils.ErrInternalServerError.Code, "Failed to create comment")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	rclient.Invalidate(ctx, postCacheKey(slugToDrop))
	return comment, nil
}
