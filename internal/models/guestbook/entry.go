// Package guestbook holds the guestbook aggregate: entries, their likes,
// replies and flags, plus the spam pipeline that vets new submissions.
package guestbook

import (
	"context"
	"encoding/json"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/cosmicdev/devspace/pkg/utils"
	"github.com/google/uuid"
	"gorm.io/gorm"

	storage "github.com/cosmicdev/devspace/pkg/redis"
)

// MaxMessageLen caps new submissions; moderator edits may store longer
// text, up to the MaxStoredMessageLen column size. All caps count runes.
const (
	MaxMessageLen       = 240
	MaxStoredMessageLen = 1000
	MaxReplyLen         = 500
	// FlagAutoThreshold forces status=flagged once this many distinct
	// reporters have flagged an entry.
	FlagAutoThreshold = 3
)

// Entry represents a guestbook entry.
type Entry struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name      string    `gorm:"size:100;not null" json:"name" validate:"required,min=2,max=100"`
	Email     string    `gorm:"size:100" json:"email,omitempty" validate:"omitempty,email,max=100"`
	AvatarURL string    `gorm:"size:500" json:"avatar_url,omitempty" validate:"omitempty,url,max=500"`
	Message   string    `gorm:"size:1000;not null" json:"message" validate:"required,min=10,max=1000"`

	// ProjectID is a weak reference to a portfolio item; it may dangle and is
	// nulled when the item is deleted.
	ProjectID *uuid.UUID `gorm:"type:uuid;index:idx_entry_project" json:"project_id,omitempty"`

	Status           string `gorm:"size:20;default:'approved';index" json:"status" validate:"omitempty,oneof=pending approved rejected flagged hidden"`
	ModerationReason string `gorm:"size:255" json:"moderation_reason,omitempty"`
	SpamScore        int    `gorm:"default:0" json:"spam_score"`
	IsSpam           bool   `gorm:"default:false;index" json:"is_spam"`

	Likes int `gorm:"default:0" json:"likes"`

	CreatedAt time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	LikedBy []EntryLike  `gorm:"foreignKey:EntryID;constraint:OnDelete:CASCADE" json:"liked_by,omitempty" validate:"-"`
	Replies []EntryReply `gorm:"foreignKey:EntryID;constraint:OnDelete:CASCADE" json:"replies,omitempty" validate:"-"`
	Flags   []EntryFlag  `gorm:"foreignKey:EntryID;constraint:OnDelete:CASCADE" json:"flags,omitempty" validate:"-"`
}

// EntryLike records one like per identity. The unique index is what makes
// like toggling atomic at the store level.
type EntryLike struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	EntryID   uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_entry_like_identity" json:"entry_id"`
	Identity  string    `gorm:"size:100;not null;uniqueIndex:idx_entry_like_identity" json:"identity"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// EntryReply is an append-only reply on an entry.
type EntryReply struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	EntryID   uuid.UUID `gorm:"type:uuid;not null;index:idx_reply_entry" json:"entry_id"`
	Author    string    `gorm:"size:100;not null" json:"author" validate:"required,min=2,max=100"`
	Message   string    `gorm:"size:500;not null" json:"message" validate:"required,min=1,max=500"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// EntryFlag records one abuse report per reporter identity.
type EntryFlag struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	EntryID     uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_entry_flag_identity" json:"entry_id"`
	Identity    string    `gorm:"size:100;not null;uniqueIndex:idx_entry_flag_identity" json:"identity"`
	Reason      string    `gorm:"size:100;not null" json:"reason" validate:"required,oneof=spam inappropriate harassment other"`
	Description string    `gorm:"size:500" json:"description" validate:"omitempty,max=500"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (e *Entry) BeforeCreate(tx *gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}

func (l *EntryLike) BeforeCreate(tx *gorm.DB) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	return nil
}

func (r *EntryReply) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

func (f *EntryFlag) BeforeCreate(tx *gorm.DB) error {
	if f.ID == uuid.Nil {
		f.ID = uuid.New()
	}
	return nil
}

// EntryOption configures an Entry.
type EntryOption func(*Entry)

func WithEmail(email string) EntryOption {
	return func(e *Entry) { e.Email = email }
}

func WithAvatarURL(url string) EntryOption {
	return func(e *Entry) { e.AvatarURL = url }
}

func WithProject(projectID uuid.UUID) EntryOption {
	return func(e *Entry) { id := projectID; e.ProjectID = &id }
}

// NewEntry creates a guestbook entry, running the spam pipeline over the
// submitted name and message. The pipeline sets SpamScore/IsSpam and
// auto-rejects entries scoring at or above the reject threshold.
func NewEntry(ctx context.Context, rclient *storage.RedisClient, db *gorm.DB, name, message string, opts ...EntryOption) (*Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, utils.WrapError(err, utils.ErrInternalServerError.Code, "entry creation canceled")
	}

	entry := &Entry{
		Name:    strings.TrimSpace(name),
		Message: strings.TrimSpace(message),
		Status:  StatusApproved,
	}
	for _, opt := range opts {
		opt(entry)
	}

	if entry.Name == "" || entry.Message == "" {
		return nil, utils.NewError(utils.ErrBadRequest.Code, "Required fields missing: name, message")
	}
	if utf8.RuneCountInString(entry.Message) > MaxMessageLen {
		return nil, utils.NewError(utils.ErrBadRequest.Code, "Message too long")
	}

	entry.Rescore()

	if err := db.WithContext(ctx).Create(entry).Error; err != nil {
		return nil, utils.WrapError(err, utils.ErrInternalServerError.Code, "Failed to create guestbook entry")
	}

	data, _ := json.Marshal(entry)
	rclient.CacheJSON(ctx, cacheKey(entry.ID), data, 10*time.Minute)

	return entry, nil
}

// Rescore recomputes the spam fields. Call whenever Name or Message changes.
func (e *Entry) Rescore() {
	res := ScoreMessage(e.Name, e.Message)
	e.SpamScore = res.Score
	e.IsSpam = res.IsSpam
	if res.AutoStatus != "" {
		e.Status = res.AutoStatus
		e.ModerationReason = "auto-rejected by spam filter: " + strings.Join(res.Reasons, ", ")
	}
}

// GetEntryBy retrieves an entry by condition, with optional preloading of relationships.
func GetEntryBy(ctx context.Context, rclient *storage.RedisClient, db *gorm.DB, condition string, args []interface{}, preload ...string) (*Entry, error) {
	var entry Entry
	query := db.WithContext(ctx).Where(condition, args...)
	for _, rel := range preload {
		if rel != "" {
			query = query.Preload(rel)
		}
	}
	if err := query.First(&entry).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, utils.NewError(utils.ErrNotFound.Code, "Guestbook entry not found")
		}
		return nil, utils.WrapError(err, utils.ErrInternalServerError.Code, "Failed to fetch guestbook entry")
	}
	return &entry, nil
}

// ListEntries retrieves entries with pagination, optionally scoped to a
// status and/or a portfolio item.
func ListEntries(ctx context.Context, rclient *storage.RedisClient, db *gorm.DB, page, limit int, status string, projectID *uuid.UUID) ([]Entry, int64, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}

	query := db.WithContext(ctx).Model(&Entry{})
	if status != "" && status != "all" {
		query = query.Where("status = ?", status)
	}
	if projectID != nil {
		query = query.Where("project_id = ?", *projectID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, utils.WrapError(err, utils.ErrInternalServerError.Code, "Failed to count guestbook entries")
	}

	var entries []Entry
	if err := query.
		Preload("Replies").
		Order("created_at desc").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&entries).Error; err != nil {
		return nil, 0, utils.WrapError(err, utils.ErrInternalServerError.Code, "Failed to fetch guestbook entries")
	}

	return entries, total, nil
}

// UpdateEntry edits the author-visible fields of an entry, re-running the
// spam pipeline when name or message changed.
func UpdateEntry(ctx context.Context, rclient *storage.RedisClient, db *gorm.DB, id uuid.UUID, name, message string) (*Entry, error) {
	entry, err := GetEntryBy(ctx, rclient, db, "id = ?", []interface{}{id})
	if err != nil {
		return nil, err
	}

	changed := false
	if name = strings.TrimSpace(name); name != "" && name != entry.Name {
		entry.Name = name
		changed = true
	}
	if message = strings.TrimSpace(message); message != "" && message != entry.Message {
		if utf8.RuneCountInString(message) > MaxStoredMessageLen {
			return nil, utils.NewError(utils.ErrBadRequest.Code, "Message too long")
		}
		entry.Message = message
		changed = true
	}
	if changed {
		entry.Rescore()
	}

	if err := db.WithContext(ctx).Save(entry).Error; err != nil {
		return nil, utils.WrapError(err, utils.ErrInternalServerError.Code, "Failed to update guestbook entry")
	}

	rclient.Invalidate(ctx, cacheKey(entry.ID))
	return entry, nil
}

// UpdateStatus applies a moderator status change.
func UpdateStatus(ctx context.Context, rclient *storage.RedisClient, db *gorm.DB, id uuid.UUID, status, reason string) (*Entry, error) {
	switch status {
	case StatusPending, StatusApproved, StatusRejected, StatusFlagged, StatusHidden:
	default:
		return nil, utils.NewError(utils.ErrBadRequest.Code, "Unknown status: "+status)
	}

	entry, err := GetEntryBy(ctx, rclient, db, "id = ?", []interface{}{id})
	if err != nil {
		return nil, err
	}

	entry.Status = status
	entry.ModerationReason = reason
	if err := db.WithContext(ctx).Model(entry).
		Select("status", "moderation_reason").
		Updates(map[string]interface{}{"status": status, "moderation_reason": reason}).Error; err != nil {
		return nil, utils.WrapError(err, utils.ErrInternalServerError.Code, "Failed to update entry status")
	}

	rclient.Invalidate(ctx, cacheKey(entry.ID))
	return entry, nil
}

// DeleteEntry hard-deletes an entry and its likes, replies and flags.
func DeleteEntry(ctx context.Context, rclient *storage.RedisClient, db *gorm.DB, id uuid.UUID) error {
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Unscoped().Delete(&Entry{}, "id = ?", id)
		if res.Error != nil {
			return utils.WrapError(res.Error, utils.ErrInternalServerError.Code, "Failed to delete guestbook entry")
		}
		if res.RowsAffected == 0 {
			return utils.NewError(utils.ErrNotFound.Code, "Guestbook entry not found")
		}
		if err := tx.Delete(&EntryLike{}, "entry_id = ?", id).Error; err != nil {
			return utils.WrapError(err, utils.ErrInternalServerError.Code, "Failed to delete entry likes")
		}
		if err := tx.Delete(&EntryReply{}, "entry_id = ?", id).Error; err != nil {
			return utils.WrapError(err, utils.ErrInternalServerError.Code, "Failed to delete entry replies")
		}
		if err := tx.Delete(&EntryFlag{}, "entry_id = ?", id).Error; err != nil {
			return utils.WrapError(err, utils.ErrInternalServerError.Code, "Failed to delete entry flags")
		}
		return nil
	})
	if err != nil {
		return err
	}

	rclient.Invalidate(ctx, cacheKey(id))
	return nil
}

func cacheKey(id uuid.UUID) string {
	return "guestbook:entry:" + id.String()
}
