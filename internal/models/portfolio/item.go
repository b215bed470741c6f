// Package portfolio holds the portfolio gallery: items of the three kinds
// (project, certification, achievement), their engagement metrics, and the
// listing filter composer.
package portfolio

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/cosmicdev/devspace/internal/models/guestbook"
	"github.com/cosmicdev/devspace/pkg/utils"
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	storage "github.com/cosmicdev/devspace/pkg/redis"
)

// Item kinds.
const (
	TypeProject       = "project"
	TypeCertification = "certification"
	TypeAchievement   = "achievement"
)

// Visibility levels.
const (
	VisibilityPublic   = "public"
	VisibilityPrivate  = "private"
	VisibilityUnlisted = "unlisted"
)

// Lifecycle statuses.
const (
	StatusDraft     = "draft"
	StatusPublished = "published"
	StatusArchived  = "archived"
)

// Item represents one portfolio entry of any kind. Kind-specific fields live
// in the typed Details payload; common, filterable fields are columns.
type Item struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ItemType  string    `gorm:"size:20;not null;index" json:"item_type" validate:"required,oneof=project certification achievement"`
	CreatorID uuid.UUID `gorm:"type:uuid;not null;index:idx_item_creator" json:"creator_id" validate:"required"`

	Title            string         `gorm:"size:200;not null;index:idx_item_title" json:"title" validate:"required,min=2,max=200"`
	ShortDescription string         `gorm:"size:300" json:"short_description" validate:"omitempty,max=300"`
	Description      string         `gorm:"type:text" json:"description"`
	Category         string         `gorm:"size:100;index" json:"category" validate:"omitempty,max=100"`
	Tags             datatypes.JSON `gorm:"type:json" json:"tags,omitempty"`
	Keywords         datatypes.JSON `gorm:"type:json" json:"keywords,omitempty"`
	Details          datatypes.JSON `gorm:"type:json" json:"details,omitempty"`

	Status     string `gorm:"size:20;default:'published';index" json:"status" validate:"omitempty,oneof=draft published archived"`
	Visibility string `gorm:"size:20;default:'public';index" json:"visibility" validate:"omitempty,oneof=public private unlisted"`
	Featured   bool   `gorm:"default:false;index" json:"featured"`

	// Monotone counters, bumped with atomic column updates.
	Views     int `gorm:"default:0" json:"views"`
	Shares    int `gorm:"default:0" json:"shares"`
	Downloads int `gorm:"default:0" json:"downloads"`
	Stars     int `gorm:"default:0" json:"stars"`
	// LikesCount is a toggle counter backed by ItemLike rows.
	LikesCount int `gorm:"default:0" json:"likes"`

	CreatedAt time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	LikedBy  []ItemLike    `gorm:"foreignKey:ItemID;constraint:OnDelete:CASCADE" json:"liked_by,omitempty" validate:"-"`
	Comments []ItemComment `gorm:"foreignKey:ItemID;constraint:OnDelete:CASCADE" json:"comments,omitempty" validate:"-"`
}

// ItemLike records one like per identity with its timestamp.
type ItemLike struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ItemID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_item_like_identity" json:"item_id"`
	Identity  string    `gorm:"size:100;not null;uniqueIndex:idx_item_like_identity" json:"identity"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// ItemComment is an append-only comment on an item.
type ItemComment struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ItemID    uuid.UUID `gorm:"type:uuid;not null;index:idx_comment_item" json:"item_id"`
	Author    string    `gorm:"size:100;not null" json:"author" validate:"required,min=2,max=100"`
	Content   string    `gorm:"size:1000;not null" json:"content" validate:"required,min=1,max=1000"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (i *Item) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}

func (l *ItemLike) BeforeCreate(tx *gorm.DB) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	return nil
}

func (c *ItemComment) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

// Details is the closed set of kind-specific payloads. The payload's kind
// must match the item's ItemType; each payload carries its own required
// fields, so a certification cannot be stored with project-shaped data.
type Details interface {
	Kind() string
}

// ProjectDetails is the payload for project items.
type ProjectDetails struct {
	Summary   string   `json:"summary" validate:"required,min=10,max=2000"`
	RepoURL   string   `json:"repo_url,omitempty" validate:"omitempty,url"`
	DemoURL   string   `json:"demo_url,omitempty" validate:"omitempty,url"`
	TechStack []string `json:"tech_stack,omitempty" validate:"max=20"`
}

func (ProjectDetails) Kind() string { return TypeProject }

// CertificationDetails is the payload for certification items.
type CertificationDetails struct {
	IssuingOrg    string     `json:"issuing_org" validate:"required,min=2,max=200"`
	CredentialID  string     `json:"credential_id,omitempty" validate:"omitempty,max=100"`
	CredentialURL string     `json:"credential_url,omitempty" validate:"omitempty,url"`
	IssuedAt      *time.Time `json:"issued_at,omitempty"`
	ExpiresAt     *time.Time `json:"expires_at,omitempty"`
}

func (CertificationDetails) Kind() string { return TypeCertification }

// AchievementDetails is the payload for achievement items.
type AchievementDetails struct {
	AwardCategory string     `json:"award_category" validate:"required,min=2,max=100"`
	AwardedBy     string     `json:"awarded_by,omitempty" validate:"omitempty,max=200"`
	AwardedAt     *time.Time `json:"awarded_at,omitempty"`
}

func (AchievementDetails) Kind() string { return TypeAchievement }

// DecodeDetails unmarshals the stored payload into the typed struct for the
// item's kind.
func (i *Item) DecodeDetails() (Details, error) {
	var d Details
	switch i.ItemType {
	case TypeProject:
		d = &ProjectDetails{}
	case TypeCertification:
		d = &CertificationDetails{}
	case TypeAchievement:
		d = &AchievementDetails{}
	default:
		return nil, utils.NewError(utils.ErrInternalServerError.Code, "Unknown item type: "+i.ItemType)
	}
	if len(i.Details) > 0 {
		if err := json.Unmarshal(i.Details, d); err != nil {
			return nil, utils.WrapError(err, utils.ErrInternalServerError.Code, "Corrupt item details")
		}
	}
	return d, nil
}

// NewItem creates a portfolio item. The details payload must match the
// item's kind; for projects the summary doubles as the searchable
// description when none was set.
func NewItem(ctx context.Context, rclient *storage.RedisClient, db *gorm.DB, validator *utils.Validator, item *Item, details Details) (*Item, error) {
	if err := ctx.Err(); err != nil {
		return nil, utils.WrapError(err, utils.ErrInternalServerError.Code, "item creation canceled")
	}

	item.Title = strings.TrimSpace(item.Title)
	if item.Visibility == "" {
		item.Visibility = VisibilityPublic
	}
	if item.Status == "" {
		item.Status = StatusPublished
	}
	if item.CreatorID == uuid.Nil || item.Title == "" || item.ItemType == "" {
		return nil, utils.NewError(utils.ErrBadRequest.Code, "Required fields missing: creator_id, title, item_type")
	}
	if details == nil || details.Kind() != item.ItemType {
		return nil, utils.NewError(utils.ErrBadRequest.Code, "Details payload does not match item type")
	}

	if verr := validator.Validate(item); verr != nil {
		return nil, verr.AsError()
	}
	if verr := validator.Validate(details); verr != nil {
		return nil, verr.AsError()
	}

	if pd, ok := details.(*ProjectDetails); ok && item.Description == "" {
		item.Description = pd.Summary
	}

	raw, err := json.Marshal(details)
	if err != nil {
		return nil, utils.WrapError(err, utils.ErrInternalServerError.Code, "Failed to encode item details")
	}
	item.Details = raw

	if err := db.WithContext(ctx).Create(item).Error; err != nil {
		return nil, utils.WrapError(err, utils.ErrInternalServerError.Code, "Failed to create portfolio item")
	}

	data, _ := json.Marshal(item)
	rclient.CacheJSON(ctx, itemCacheKey(item.ID), data, 10*time.Minute)

	return item, nil
}

// GetItemBy retrieves an item by condition, with optional preloading of relationships.
func GetItemBy(ctx context.Context, rclient *storage.RedisClient, db *gorm.DB, condition string, args []interface{}, preload ...string) (*Item, error) {
	var item Item
	query := db.WithContext(ctx).Where(condition, args...)
	for _, rel := range preload {
		if rel != "" {
			query = query.Preload(rel)
		}
	}
	if err := query.First(&item).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, utils.NewError(utils.ErrNotFound.Code, "Portfolio item not found")
		}
		return nil, utils.WrapError(err, utils.ErrInternalServerError.Code, "Failed to fetch portfolio item")
	}
	return &item, nil
}

// ItemOption configures an Item on update.
type ItemOption func(*Item)

func WithTitle(title string) ItemOption {
	return func(i *Item) { i.Title = title }
}

func WithDescription(desc string) ItemOption {
	return func(i *Item) { i.Description = desc }
}

func WithShortDescription(desc string) ItemOption {
	return func(i *Item) { i.ShortDescription = desc }
}

func WithCategory(category string) ItemOption {
	return func(i *Item) { i.Category = category }
}

func WithStatus(status string) ItemOption {
	return func(i *Item) { i.Status = status }
}

func WithVisibility(visibility string) ItemOption {
	return func(i *Item) { i.Visibility = visibility }
}

func WithFeatured(featured bool) ItemOption {
	return func(i *Item) { i.Featured = featured }
}

func WithTags(tags []string) ItemOption {
	return func(i *Item) {
		raw, _ := json.Marshal(tags)
		i.Tags = raw
	}
}

func WithKeywords(keywords []string) ItemOption {
	return func(i *Item) {
		raw, _ := json.Marshal(keywords)
		i.Keywords = raw
	}
}

// UpdateItem applies owner edits and refreshes the cache.
func UpdateItem(ctx context.Context, rclient *storage.RedisClient, db *gorm.DB, validator *utils.Validator, id uuid.UUID, opts ...ItemOption) (*Item, error) {
	item, err := GetItemBy(ctx, rclient, db, "id = ?", []interface{}{id})
	if err != nil {
		return nil, err
	}

	for _, opt := range opts {
		opt(item)
	}
	if verr := validator.Validate(item); verr != nil {
		return nil, verr.AsError()
	}

	if err := db.WithContext(ctx).Save(item).Error; err != nil {
		return nil, utils.WrapError(err, utils.ErrInternalServerError.Code, "Failed to update portfolio item")
	}

	rclient.Invalidate(ctx, itemCacheKey(id))
	return item, nil
}

// DeleteItem removes an item together with its likes and comments.
// Guestbook entries that referenced it keep existing but lose the weak
// reference, so no dangling project ids survive the delete.
func DeleteItem(ctx context.Context, rclient *storage.RedisClient, db *gorm.DB, id uuid.UUID) error {
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Unscoped().Delete(&Item{}, "id = ?", id)
		if res.Error != nil {
			return utils.WrapError(res.Error, utils.ErrInternalServerError.Code, "Failed to delete portfolio item")
		}
		if res.RowsAffected == 0 {
			return utils.NewError(utils.ErrNotFound.Code, "Portfolio item not found")
		}
		if err := tx.Delete(&ItemLike{}, "item_id = ?", id).Error; err != nil {
			return utils.WrapError(err, utils.ErrInternalServerError.Code, "Failed to delete item likes")
		}
		if err := tx.Delete(&ItemComment{}, "item_id = ?", id).Error; err != nil {
			return utils.WrapError(err, utils.ErrInternalServerError.Code, "Failed to delete item comments")
		}
		if err := tx.Model(&guestbook.Entry{}).
			Where("project_id = ?", id).
			UpdateColumn("project_id", nil).Error; err != nil {
			return utils.WrapError(err, utils.ErrInternalServerError.Code, "Failed to unlink guestbook entries")
		}
		return nil
	})
	if err != nil {
		return err
	}

	rclient.Invalidate(ctx, itemCacheKey(id))
	return nil
}

func itemCacheKey(id uuid.UUID) string {
	return "portfolio:item:" + id.String()
}
