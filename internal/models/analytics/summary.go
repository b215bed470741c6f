// Package analytics aggregates dashboard counters across the other domains.
package analytics

import (
	"context"
	"encoding/json"
	"time"

	"github.com/cosmicdev/devspace/internal/models/blog"
	"github.com/cosmicdev/devspace/internal/models/guestbook"
	"github.com/cosmicdev/devspace/internal/models/portfolio"
	"github.com/cosmicdev/devspace/internal/models/user"
	"github.com/cosmicdev/devspace/pkg/utils"
	"gorm.io/gorm"

	storage "github.com/cosmicdev/devspace/pkg/redis"
)

const summaryCacheKey = "analytics:summary"
const summaryCacheTTL = 5 * time.Minute

// Summary is the dashboard aggregate.
type Summary struct {
	Users             int64            `json:"users"`
	PortfolioItems    int64            `json:"portfolio_items"`
	PortfolioViews    int64            `json:"portfolio_views"`
	PortfolioLikes    int64            `json:"portfolio_likes"`
	BlogPosts         int64            `json:"blog_posts"`
	BlogViews         int64            `json:"blog_views"`
	GuestbookEntries  int64            `json:"guestbook_entries"`
	GuestbookByStatus map[string]int64 `json:"guestbook_by_status"`
	SpamEntries       int64            `json:"spam_entries"`
	GeneratedAt       time.Time        `json:"generated_at"`
}

// GetSummary computes the dashboard summary, served from cache when fresh.
func GetSummary(ctx context.Context, rclient *storage.RedisClient, db *gorm.DB) (*Summary, error) {
	if cached, ok := rclient.GetJSON(ctx, summaryCacheKey); ok {
		var s Summary
		if err := json.Unmarshal(cached, &s); err == nil {
			return &s, nil
		}
	}

	s := &Summary{
		GuestbookByStatus: map[string]int64{},
		GeneratedAt:       time.Now(),
	}

	if err := db.WithContext(ctx).Model(&user.User{}).Count(&s.Users).Error; err != nil {
		return nil, utils.WrapError(err, utils.ErrInternalServerError.Code, "Failed to count users")
	}
	if err := db.WithContext(ctx).Model(&portfolio.Item{}).Count(&s.PortfolioItems).Error; err != nil {
		return nil, utils.WrapError(err, utils.ErrInternalServerError.Code, "Failed to count portfolio items")
	}

	var itemTotals struct {
		Views int64
		Likes int64
	}
	if err := db.WithContext(ctx).Model(&portfolio.Item{}).
		Select("COALESCE(SUM(views),0) AS views, COALESCE(SUM(likes_count),0) AS likes").
		Scan(&itemTotals).Error; err != nil {
		return nil, utils.WrapError(err, utils.ErrInternalServerError.Code, "Failed to sum portfolio metrics")
	}
	s.PortfolioViews = itemTotals.Views
	s.PortfolioLikes = itemTotals.Likes

	if err := db.WithContext(ctx).Model(&blog.Post{}).Count(&s.BlogPosts).Error; err != nil {
		return nil, utils.WrapError(err, utils.ErrInternalServerError.Code, "Failed to count posts")
	}
	var blogViews struct{ Views int64 }
	if err := db.WithContext(ctx).Model(&blog.Post{}).
		Select("COALESCE(SUM(views),0) AS views").
		Scan(&blogViews).Error; err != nil {
		return nil, utils.WrapError(err, utils.ErrInternalServerError.Code, "Failed to sum post views")
	}
	s.BlogViews = blogViews.Views

	if err := db.WithContext(ctx).Model(&guestbook.Entry{}).Count(&s.GuestbookEntries).Error; err != nil {
		return nil, utils.WrapError(err, utils.ErrInternalServerError.Code, "Failed to count guestbook entries")
	}

	var rows []struct {
		Status string
		Count  int64
	}
	if err := db.WithContext(ctx).Model(&guestbook.Entry{}).
		Select("status, COUNT(*) AS count").
		Group("status").
		Scan(&rows).Error; err != nil {
		return nil, utils.WrapError(err, utils.ErrInternalServerError.Code, "Failed to group guestbook entries")
	}
	for _, row := range rows {
		s.GuestbookByStatus[row.Status] = row.Count
	}

	if err := db.WithContext(ctx).Model(&guestbook.Entry{}).
		Where("is_spam = ?", true).
		Count(&s.SpamEntries).Error; err != nil {
		return nil, utils.WrapError(err, utils.ErrInternalServerError.Code, "Failed to count spam entries")
	}

	data, _ := json.Marshal(s)
	rclient.CacheJSON(ctx, summaryCacheKey, data, summaryCacheTTL)

	return s, nil
}
