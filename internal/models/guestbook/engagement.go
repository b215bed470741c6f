package guestbook

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/cosmicdev/devspace/pkg/utils"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	storage "github.com/cosmicdev/devspace/pkg/redis"
)

// LikeResult reports the state of an entry after a like toggle.
type LikeResult struct {
	Liked bool `json:"liked"`
	Likes int  `json:"likes"`
}

// ToggleLike adds or removes a like for the given identity. The like row has
// a unique (entry_id, identity) index and the counter is bumped only when the
// row operation actually changed something, so concurrent toggles by
// different identities cannot lose updates.
func ToggleLike(ctx context.Context, rclient *storage.RedisClient, db *gorm.DB, entryID uuid.UUID, identity string) (*LikeResult, error) {
	if identity == "" {
		return nil, utils.NewError(utils.ErrBadRequest.Code, "Missing identity")
	}

	var result LikeResult
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := entryExists(tx, entryID); err != nil {
			return err
		}

		res := tx.Where("entry_id = ? AND identity = ?", entryID, identity).Delete(&EntryLike{})
		if res.Error != nil {
			return utils.WrapError(res.Error, utils.ErrInternalServerError.Code, "Failed to remove like")
		}

		if res.RowsAffected > 0 {
			result.Liked = false
			if err := tx.Model(&Entry{}).
				Where("id = ? AND likes > 0", entryID).
				UpdateColumn("likes", gorm.Expr("likes - 1")).Error; err != nil {
				return utils.WrapError(err, utils.ErrInternalServerError.Code, "Failed to decrement likes")
			}
		} else {
			like := EntryLike{EntryID: entryID, Identity: identity}
			ins := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&like)
			if ins.Error != nil {
				return utils.WrapError(ins.Error, utils.ErrInternalServerError.Code, "Failed to add like")
			}
			result.Liked = true
			if ins.RowsAffected > 0 {
				if err := tx.Model(&Entry{}).
					Where("id = ?", entryID).
					UpdateColumn("likes", gorm.Expr("likes + 1")).Error; err != nil {
					return utils.WrapError(err, utils.ErrInternalServerError.Code, "Failed to increment likes")
				}
			}
		}

		var entry Entry
		if err := tx.Select("likes").First(&entry, "id = ?", entryID).Error; err != nil {
			return utils.WrapError(err, utils.ErrInternalServerError.Code, "Failed to read like count")
		}
		result.Likes = entry.Likes
		return nil
	})
	if err != nil {
		return nil, err
	}

	rclient.Invalidate(ctx, cacheKey(entryID))
	return &result, nil
}

// AddReply appends a reply to an entry and refreshes its updated_at.
func AddReply(ctx context.Context, rclient *storage.RedisClient, db *gorm.DB, entryID uuid.UUID, author, message string) (*EntryReply, error) {
	author = strings.TrimSpace(author)
	message = strings.TrimSpace(message)
	if author == "" || message == "" {
		return nil, utils.NewError(utils.ErrBadRequest.Code, "Required fields missing: author, message")
	}
	if utf8.RuneCountInString(message) > MaxReplyLen {
		return nil, utils.NewError(utils.ErrBadRequest.Code, "Reply too long")
	}

	reply := &EntryReply{
		EntryID: entryID,
		Author:  author,
		Message: message,
	}

	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := entryExists(tx, entryID); err != nil {
			return err
		}
		if err := tx.Create(reply).Error; err != nil {
			return utils.WrapError(err, utils.ErrInternalServerError.Code, "Failed to create reply")
		}
		return tx.Model(&Entry{}).
			Where("id = ?", entryID).
			UpdateColumn("updated_at", time.Now()).Error
	})
	if err != nil {
		return nil, err
	}

	rclient.Invalidate(ctx, cacheKey(entryID))
	return reply, nil
}

// Flag records an abuse report for an entry. A reporter identity can flag an
// entry at most once; a repeat report is a no-op and returns false. Reaching
// the flag threshold forces the entry into the flagged status, whatever its
// current status is.
func Flag(ctx context.Context, rclient *storage.RedisClient, db *gorm.DB, entryID uuid.UUID, identity, reason, description string) (bool, error) {
	if identity == "" {
		return false, utils.NewError(utils.ErrBadRequest.Code, "Missing identity")
	}
	switch reason {
	case "spam", "inappropriate", "harassment", "other":
	default:
		return false, utils.NewError(utils.ErrBadRequest.Code, "Unknown flag reason: "+reason)
	}
	if utf8.RuneCountInString(description) > 500 {
		return false, utils.NewError(utils.ErrBadRequest.Code, "Description too long")
	}

	flagged := false
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := entryExists(tx, entryID); err != nil {
			return err
		}

		flag := EntryFlag{
			EntryID:     entryID,
			Identity:    identity,
			Reason:      reason,
			Description: description,
		}
		ins := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&flag)
		if ins.Error != nil {
			return utils.WrapError(ins.Error, utils.ErrInternalServerError.Code, "Failed to record flag")
		}
		if ins.RowsAffected == 0 {
			// already flagged by this reporter
			return nil
		}
		flagged = true

		var count int64
		if err := tx.Model(&EntryFlag{}).Where("entry_id = ?", entryID).Count(&count).Error; err != nil {
			return utils.WrapError(err, utils.ErrInternalServerError.Code, "Failed to count flags")
		}
		if count >= FlagAutoThreshold {
			if err := tx.Model(&Entry{}).
				Where("id = ?", entryID).
				UpdateColumn("status", StatusFlagged).Error; err != nil {
				return utils.WrapError(err, utils.ErrInternalServerError.Code, "Failed to flag entry")
			}
		}
		return nil
	})
	if err != nil {
		return false, err
	}

	if flagged {
		rclient.Invalidate(ctx, cacheKey(entryID))
	}
	return flagged, nil
}

func entryExists(tx *gorm.DB, entryID uuid.UUID) error {
	var count int64
	if err := tx.Model(&Entry{}).Where("id = ?", entryID).Count(&count).Error; err != nil {
		return utils.WrapError(err, utils.ErrInternalServerError.Code, "Failed to look up entry")
	}
	if count == 0 {
		return utils.NewError(utils.ErrNotFound.Code, "Guestbook entry not found")
	}
	return nil
}
