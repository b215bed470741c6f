package analytics

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/cosmicdev/devspace/internal/models/blog"
	"github.com/cosmicdev/devspace/internal/models/guestbook"
	"github.com/cosmicdev/devspace/internal/models/portfolio"
	"github.com/cosmicdev/devspace/internal/models/user"
	"github.com/cosmicdev/devspace/pkg/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"
)

func testDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormLogger.Default.LogMode(gormLogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&user.User{},
		&portfolio.Item{}, &portfolio.ItemLike{}, &portfolio.ItemComment{},
		&blog.Post{}, &blog.Comment{},
		&guestbook.Entry{}, &guestbook.EntryLike{}, &guestbook.EntryReply{}, &guestbook.EntryFlag{},
	))
	return db
}

func TestGetSummaryEmptyStore(t *testing.T) {
	db := testDB(t)
	s, err := GetSummary(context.Background(), nil, db)
	require.NoError(t, err)
	assert.Zero(t, s.Users)
	assert.Zero(t, s.GuestbookEntries)
	assert.NotNil(t, s.GuestbookByStatus)
}

func TestGetSummaryAggregates(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	author, err := user.NewUser(ctx, nil, db, "stella", "stella@example.com", "hashed")
	require.NoError(t, err)

	item := &portfolio.Item{
		ItemType:  portfolio.TypeProject,
		CreatorID: author.ID,
		Title:     "Star Tracker",
	}
	created, err := portfolio.NewItem(ctx, nil, db, utils.NewValidator(), item,
		&portfolio.ProjectDetails{Summary: "Tracks visible stars from your backyard."})
	require.NoError(t, err)
	require.NoError(t, portfolio.IncrementMetric(ctx, nil, db, created.ID, "views"))
	require.NoError(t, portfolio.IncrementMetric(ctx, nil, db, created.ID, "views"))
	_, err = portfolio.ToggleLike(ctx, nil, db, created.ID, "visitor-1")
	require.NoError(t, err)

	post, err := blog.NewPost(ctx, nil, db, author.ID, "Hello", "The first post on the new site.", blog.WithPublished(true))
	require.NoError(t, err)
	_, err = blog.GetPostBySlug(ctx, nil, db, post.Slug)
	require.NoError(t, err)

	_, err = guestbook.NewEntry(ctx, nil, db, "Alice", "A lovely corner of the internet.")
	require.NoError(t, err)
	_, err = guestbook.NewEntry(ctx, nil, db, "Bot", "WIN A FREE LOTTERY PRIZE NOW!!! http://a http://b http://c")
	require.NoError(t, err)

	s, err := GetSummary(ctx, nil, db)
	require.NoError(t, err)

	assert.EqualValues(t, 1, s.Users)
	assert.EqualValues(t, 1, s.PortfolioItems)
	assert.EqualValues(t, 2, s.PortfolioViews)
	assert.EqualValues(t, 1, s.PortfolioLikes)
	assert.EqualValues(t, 1, s.BlogPosts)
	assert.EqualValues(t, 1, s.BlogViews)
	assert.EqualValues(t, 2, s.GuestbookEntries)
	assert.EqualValues(t, 1, s.GuestbookByStatus[guestbook.StatusApproved])
	assert.EqualValues(t, 1, s.GuestbookByStatus[guestbook.StatusRejected])
	assert.EqualValues(t, 1, s.SpamEntries)
	assert.False(t, s.GeneratedAt.IsZero())
}
