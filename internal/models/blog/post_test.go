package blog

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/cosmicdev/devspace/internal/models/user"
	"github.com/google/uuid"
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
	require.NoError(t, db.AutoMigrate(&user.User{}, &Post{}, &Comment{}))
	return db
}

func seedAuthor(t *testing.T, db *gorm.DB) *user.User {
	t.Helper()
	u, err := user.NewUser(context.Background(), nil, db, "stella", "stella@example.com", "hashed-password")
	require.NoError(t, err)
	return u
}

func TestNewPostDerivesSlug(t *testing.T) {
	db := testDB(t)
	author := seedAuthor(t, db)

	post, err := NewPost(context.Background(), nil, db, author.ID, "Hello, Observable Universe!", "A first post about the site and its stack.")
	require.NoError(t, err)
	assert.Equal(t, "hello-observable-universe", post.Slug)
	assert.False(t, post.Published)
	assert.Nil(t, post.PublishedAt)
}

func TestNewPostSlugCollisionsGetSuffixed(t *testing.T) {
	db := testDB(t)
	author := seedAuthor(t, db)
	ctx := context.Background()

	first, err := NewPost(ctx, nil, db, author.ID, "Launch Notes", "Notes from the very first launch window.")
	require.NoError(t, err)
	second, err := NewPost(ctx, nil, db, author.ID, "Launch Notes", "Notes from the second launch window.")
	require.NoError(t, err)
	third, err := NewPost(ctx, nil, db, author.ID, "Launch Notes", "Notes from the third launch window.")
	require.NoError(t, err)

	assert.Equal(t, "launch-notes", first.Slug)
	assert.Equal(t, "launch-notes-2", second.Slug)
	assert.Equal(t, "launch-notes-3", third.Slug)
}

func TestNewPostPublishedStampsTime(t *testing.T) {
	db := testDB(t)
	author := seedAuthor(t, db)

	post, err := NewPost(context.Background(), nil, db, author.ID, "Going Live", "The site is live, here is what shipped.", WithPublished(true))
	require.NoError(t, err)
	assert.True(t, post.Published)
	require.NotNil(t, post.PublishedAt)
}

func TestNewPostBumpsAuthorCounter(t *testing.T) {
	db := testDB(t)
	author := seedAuthor(t, db)
	ctx := context.Background()

	_, err := NewPost(ctx, nil, db, author.ID, "One", "The first post in a short series.")
	require.NoError(t, err)
	_, err = NewPost(ctx, nil, db, author.ID, "Two", "The second post in a short series.")
	require.NoError(t, err)

	got, err := user.GetUserBy(ctx, nil, db, "id = ?", []interface{}{author.ID})
	require.NoError(t, err)
	assert.Equal(t, 2, got.Stats.PostsCount)
}

func TestListPostsHidesDrafts(t *testing.T) {
	db := testDB(t)
	author := seedAuthor(t, db)
	ctx := context.Background()

	_, err := NewPost(ctx, nil, db, author.ID, "Public Post", "This one is published for everybody.", WithPublished(true))
	require.NoError(t, err)
	_, err = NewPost(ctx, nil, db, author.ID, "Draft Post", "This one is still being written.")
	require.NoError(t, err)

	posts, total, err := ListPosts(ctx, nil, db, 1, 10, false)
	require.NoError(t, err)
	require.EqualValues(t, 1, total)
	assert.Equal(t, "Public Post", posts[0].Title)

	posts, total, err = ListPosts(ctx, nil, db, 1, 10, true)
	require.NoError(t, err)
	require.EqualValues(t, 2, total)
	require.Len(t, posts, 2)
}

func TestGetPostBySlugCountsViews(t *testing.T) {
	db := testDB(t)
	author := seedAuthor(t, db)
	ctx := context.Background()

	created, err := NewPost(ctx, nil, db, author.ID, "Viewed Post", "A post that people actually read.", WithPublished(true))
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		_, err := GetPostBySlug(ctx, nil, db, created.Slug)
		require.NoError(t, err)
	}

	got, err := GetPostBySlug(ctx, nil, db, created.Slug)
	require.NoError(t, err)
	assert.Equal(t, 4, got.Views)
}

func TestGetPostBySlugNotFound(t *testing.T) {
	db := testDB(t)
	_, err := GetPostBySlug(context.Background(), nil, db, "no-such-post")
	require.Error(t, err)
}

func TestAddCommentRequiresPost(t *testing.T) {
	db := testDB(t)
	author := seedAuthor(t, db)
	ctx := context.Background()

	post, err := NewPost(ctx, nil, db, author.ID, "Commented Post", "A post worth talking about.", WithPublished(true))
	require.NoError(t, err)

	comment, err := AddComment(ctx, nil, db, post.ID, "Bob", "Nice writeup.")
	require.NoError(t, err)
	assert.Equal(t, post.ID, comment.PostID)

	_, err = AddComment(ctx, nil, db, uuid.New(), "Bob", "Shouting into the void.")
	require.Error(t, err)
}

func TestDeletePostRemovesCommentsAndDecrementsCounter(t *testing.T) {
	db := testDB(t)
	author := seedAuthor(t, db)
	ctx := context.Background()

	post, err := NewPost(ctx, nil, db, author.ID, "Ephemeral Post", "A post that will not stay around.", WithPublished(true))
	require.NoError(t, err)
	_, err = AddComment(ctx, nil, db, post.ID, "Bob", "Catch it while you can.")
	require.NoError(t, err)

	require.NoError(t, DeletePost(ctx, nil, db, post.ID))

	var comments int64
	require.NoError(t, db.Model(&Comment{}).Where("post_id = ?", post.ID).Count(&comments).Error)
	assert.Zero(t, comments)

	got, err := user.GetUserBy(ctx, nil, db, "id = ?", []interface{}{author.ID})
	require.NoError(t, err)
	assert.Equal(t, 0, got.Stats.PostsCount)

	require.Error(t, DeletePost(ctx, nil, db, post.ID))
}
