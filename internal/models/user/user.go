// Package user holds user accounts: credentials, profile and activity stats.
package user

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/cosmicdev/devspace/pkg/utils"
	"github.com/google/uuid"
	"gorm.io/gorm"

	storage "github.com/cosmicdev/devspace/pkg/redis"
)

// Roles, in ascending privilege order.
const (
	RoleMember    = "member"
	RoleModerator = "moderator"
	RoleAdmin     = "admin"
)

type User struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`

	Username string `gorm:"size:50;not null;uniqueIndex" json:"username" validate:"required,min=3,max=50,alphanum"`
	Email    string `gorm:"size:100;not null;uniqueIndex" json:"email" validate:"required,email,max=100"`
	Password string `gorm:"size:255;not null" json:"-" validate:"required,min=6"`
	Role     string `gorm:"size:20;default:'member';index" json:"role" validate:"omitempty,oneof=member moderator admin"`

	Profile struct {
		Name      string `gorm:"size:100" json:"name" validate:"omitempty,max=100"`
		Bio       string `gorm:"size:255" json:"bio" validate:"omitempty,max=255"`
		AvatarURL string `gorm:"size:500" json:"avatar_url" validate:"omitempty,url"`
		Location  string `gorm:"size:100" json:"location" validate:"omitempty,max=100"`
		Website   string `gorm:"size:500" json:"website" validate:"omitempty,url"`
	} `gorm:"embedded" json:"profile"`

	Stats struct {
		ItemsCount    int       `gorm:"default:0" json:"items_count"`
		PostsCount    int       `gorm:"default:0" json:"posts_count"`
		CommentsCount int       `gorm:"default:0" json:"comments_count"`
		LastSeen      time.Time `gorm:"autoCreateTime" json:"last_seen"`
	} `gorm:"embedded" json:"stats"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

// UserOption configures a User.
type UserOption func(*User)

// NewUser creates a new user. The password must already be hashed.
func NewUser(ctx context.Context, rclient *storage.RedisClient, db *gorm.DB, username, email, hashedPassword string, opts ...UserOption) (*User, error) {
	if err := ctx.Err(); err != nil {
		return nil, utils.WrapError(err, utils.ErrInternalServerError.Code, "user creation canceled")
	}

	u := &User{
		Username: strings.TrimSpace(username),
		Email:    strings.ToLower(strings.TrimSpace(email)),
		Password: hashedPassword,
		Role:     RoleMember,
	}
	for _, opt := range opts {
		opt(u)
	}

	if u.Username == "" || u.Email == "" || u.Password == "" {
		return nil, utils.NewError(utils.ErrBadRequest.Code, "Required fields missing: username, email, password")
	}

	if err := db.WithContext(ctx).Create(u).Error; err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "unique") || strings.Contains(strings.ToLower(err.Error()), "duplicate") {
			return nil, utils.NewError(utils.ErrConflict.Code, "Username or email already exists")
		}
		return nil, utils.WrapError(err, utils.ErrInternalServerError.Code, "Failed to create user")
	}

	data, _ := json.Marshal(u)
	rclient.CacheJSON(ctx, cacheKey(u.ID), data, 30*time.Minute)

	return u, nil
}

// GetUserBy retrieves a user by condition.
func GetUserBy(ctx context.Context, rclient *storage.RedisClient, db *gorm.DB, condition string, args []interface{}) (*User, error) {
	var u User
	if err := db.WithContext(ctx).Where(condition, args...).First(&u).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, utils.NewError(utils.ErrNotFound.Code, "User not found")
		}
		return nil, utils.WrapError(err, utils.ErrInternalServerError.Code, "Failed to get user")
	}
	return &u, nil
}

// UpdateUser applies options to a user and refreshes the cache.
func UpdateUser(ctx context.Context, rclient *storage.RedisClient, db *gorm.DB, id uuid.UUID, opts ...UserOption) (*User, error) {
	u, err := GetUserBy(ctx, rclient, db, "id = ?", []interface{}{id})
	if err != nil {
		return nil, err
	}

	for _, opt := range opts {
		opt(u)
	}

	if err := db.WithContext(ctx).Save(u).Error; err != nil {
		return nil, utils.WrapError(err, utils.ErrInternalServerError.Code, "Failed to update user")
	}

	rclient.Invalidate(ctx, cacheKey(id))
	return u, nil
}

// StatsOption mutates a stats delta update.
type StatsOption func(map[string]interface{})

func WithItemsCount(delta int) StatsOption {
	return func(m map[string]interface{}) { m["items_count"] = gorm.Expr("items_count + ?", delta) }
}

func WithPostsCount(delta int) StatsOption {
	return func(m map[string]interface{}) { m["posts_count"] = gorm.Expr("posts_count + ?", delta) }
}

func WithCommentsCount(delta int) StatsOption {
	return func(m map[string]interface{}) { m["comments_count"] = gorm.Expr("comments_count + ?", delta) }
}

// UpdateUserStats applies counter deltas atomically.
func UpdateUserStats(ctx context.Context, rclient *storage.RedisClient, db *gorm.DB, id uuid.UUID, opts ...StatsOption) error {
	updates := map[string]interface{}{}
	for _, opt := range opts {
		opt(updates)
	}
	if len(updates) == 0 {
		return nil
	}

	if err := db.WithContext(ctx).Model(&User{}).Where("id = ?", id).Updates(updates).Error; err != nil {
		return utils.WrapError(err, utils.ErrInternalServerError.Code, "Failed to update user stats")
	}

	rclient.Invalidate(ctx, cacheKey(id))
	return nil
}

// TouchLastSeen records activity for a user, best effort.
func TouchLastSeen(ctx context.Context, db *gorm.DB, id uuid.UUID) {
	db.WithContext(ctx).Model(&User{}).Where("id = ?", id).UpdateColumn("last_seen", time.Now())
}

func cacheKey(id uuid.UUID) string {
	return "user:" + id.String()
}
