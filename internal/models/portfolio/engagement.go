package portfolio

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/cosmicdev/devspace/pkg/utils"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	storage "github.com/cosmicdev/devspace/pkg/redis"
)

// LikeResult reports the state of an item after a like toggle.
type LikeResult struct {
	Liked bool `json:"liked"`
	Likes int  `json:"likes"`
}

// metricColumns is the allowlist of monotone counters IncrementMetric can bump.
var metricColumns = map[string]bool{
	"views":     true,
	"shares":    true,
	"downloads": true,
	"stars":     true,
}

// ToggleLike adds or removes a like for the given identity. Same atomicity
// contract as the guestbook engine: unique (item_id, identity) row plus a
// rows-affected-gated counter bump inside one transaction.
func ToggleLike(ctx context.Context, rclient *storage.RedisClient, db *gorm.DB, itemID uuid.UUID, identity string) (*LikeResult, error) {
	if identity == "" {
		return nil, utils.NewError(utils.ErrBadRequest.Code, "Missing identity")
	}

	var result LikeResult
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := itemExists(tx, itemID); err != nil {
			return err
		}

		res := tx.Where("item_id = ? AND identity = ?", itemID, identity).Delete(&ItemLike{})
		if res.Error != nil {
			return utils.WrapError(res.Error, utils.ErrInternalServerError.Code, "Failed to remove like")
		}

		if res.RowsAffected > 0 {
			result.Liked = false
			if err := tx.Model(&Item{}).
				Where("id = ? AND likes_count > 0", itemID).
				UpdateColumn("likes_count", gorm.Expr("likes_count - 1")).Error; err != nil {
				return utils.WrapError(err, utils.ErrInternalServerError.Code, "Failed to decrement likes")
			}
		} else {
			like := ItemLike{ItemID: itemID, Identity: identity}
			ins := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&like)
			if ins.Error != nil {
				return utils.WrapError(ins.Error, utils.ErrInternalServerError.Code, "Failed to add like")
			}
			result.Liked = true
			if ins.RowsAffected > 0 {
				if err := tx.Model(&Item{}).
					Where("id = ?", itemID).
					UpdateColumn("likes_count", gorm.Expr("likes_count + 1")).Error; err != nil {
					return utils.WrapError(err, utils.ErrInternalServerError.Code, "Failed to increment likes")
				}
			}
		}

		var item Item
		if err := tx.Select("likes_count").First(&item, "id = ?", itemID).Error; err != nil {
			return utils.WrapError(err, utils.ErrInternalServerError.Code, "Failed to read like count")
		}
		result.Likes = item.LikesCount
		return nil
	})
	if err != nil {
		return nil, err
	}

	rclient.Invalidate(ctx, itemCacheKey(itemID))
	return &result, nil
}

// AddComment appends a comment to an item.
func AddComment(ctx context.Context, rclient *storage.RedisClient, db *gorm.DB, itemID uuid.UUID, author, content string) (*ItemComment, error) {
	author = strings.TrimSpace(author)
	content = strings.TrimSpace(content)
	if author == "" || content == "" {
		return nil, utils.NewError(utils.ErrBadRequest.Code, "Required fields missing: author, content")
	}
	if utf8.RuneCountInString(content) > 1000 {
		return nil, utils.NewError(utils.ErrBadRequest.Code, "Comment too long")
	}

	comment := &ItemComment{
		ItemID:  itemID,
		Author:  author,
		Content: content,
	}

	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := itemExists(tx, itemID); err != nil {
			return err
		}
		if err := tx.Create(comment).Error; err != nil {
			return utils.WrapError(err, utils.ErrInternalServerError.Code, "Failed to create comment")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	rclient.Invalidate(ctx, itemCacheKey(itemID))
	return comment, nil
}

// IncrementMetric bumps one of the monotone counters atomically.
func IncrementMetric(ctx context.Context, rclient *storage.RedisClient, db *gorm.DB, itemID uuid.UUID, metric string) error {
	if !metricColumns[metric] {
		return utils.NewError(utils.ErrBadRequest.Code, "Unknown metric: "+metric)
	}

	res := db.WithContext(ctx).Model(&Item{}).
		Where("id = ?", itemID).
		UpdateColumn(metric, gorm.Expr(metric+" + 1"))
	if res.Error != nil {
		return utils.WrapError(res.Error, utils.ErrInternalServerError.Code, "Failed to update metric")
	}
	if res.RowsAffected == 0 {
		return utils.NewError(utils.ErrNotFound.Code, "Portfolio item not found")
	}

	rclient.Invalidate(ctx, itemCacheKey(itemID))
	return nil
}

func itemExists(tx *gorm.DB, itemID uuid.UUID) error {
	var count int64
	if err := tx.Model(&Item{}).Where("id = ?", itemID).Count(&count).Error; err != nil {
		return utils.WrapError(err, utils.ErrInternalServerError.Code, "Failed to look up item")
	}
	if count == 0 {
		return utils.NewError(utils.ErrNotFound.Code, "Portfolio item not found")
	}
	return nil
}
