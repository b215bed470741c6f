package portfolio

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestItemToggleLikeInvolution(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	item := seedItem(t, db, uuid.New(), "Star Tracker", "web", VisibilityPublic, false, nil)

	res, err := ToggleLike(ctx, nil, db, item.ID, "visitor-1")
	require.NoError(t, err)
	assert.True(t, res.Liked)
	assert.Equal(t, 1, res.Likes)

	res, err = ToggleLike(ctx, nil, db, item.ID, "visitor-1")
	require.NoError(t, err)
	assert.False(t, res.Liked)
	assert.Equal(t, 0, res.Likes)
}

func TestItemToggleLikeCounterMatchesRows(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	item := seedItem(t, db, uuid.New(), "Star Tracker", "web", VisibilityPublic, false, nil)

	for i := 0; i < 6; i++ {
		_, err := ToggleLike(ctx, nil, db, item.ID, fmt.Sprintf("visitor-%d", i))
		require.NoError(t, err)
	}
	_, err := ToggleLike(ctx, nil, db, item.ID, "visitor-2")
	require.NoError(t, err)

	var rows int64
	require.NoError(t, db.Model(&ItemLike{}).Where("item_id = ?", item.ID).Count(&rows).Error)

	got, err := GetItemBy(ctx, nil, db, "id = ?", []interface{}{item.ID})
	require.NoError(t, err)
	assert.EqualValues(t, 5, rows)
	assert.Equal(t, 5, got.LikesCount)
}

func TestIncrementMetric(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	item := seedItem(t, db, uuid.New(), "Star Tracker", "web", VisibilityPublic, false, nil)

	for i := 0; i < 3; i++ {
		require.NoError(t, IncrementMetric(ctx, nil, db, item.ID, "views"))
	}
	require.NoError(t, IncrementMetric(ctx, nil, db, item.ID, "shares"))

	got, err := GetItemBy(ctx, nil, db, "id = ?", []interface{}{item.ID})
	require.NoError(t, err)
	assert.Equal(t, 3, got.Views)
	assert.Equal(t, 1, got.Shares)
	assert.Equal(t, 0, got.Downloads)
}

func TestIncrementMetricRejectsUnknownColumn(t *testing.T) {
	db := testDB(t)
	item := seedItem(t, db, uuid.New(), "Star Tracker", "web", VisibilityPublic, false, nil)

	require.Error(t, IncrementMetric(context.Background(), nil, db, item.ID, "likes_count"))
	require.Error(t, IncrementMetric(context.Background(), nil, db, item.ID, "deleted_at"))
}

func TestAddCommentBounds(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	item := seedItem(t, db, uuid.New(), "Star Tracker", "web", VisibilityPublic, false, nil)

	comment, err := AddComment(ctx, nil, db, item.ID, "Bob", "Really slick UI.")
	require.NoError(t, err)
	assert.Equal(t, item.ID, comment.ItemID)

	_, err = AddComment(ctx, nil, db, item.ID, "Bob", strings.Repeat("z", 1001))
	require.Error(t, err)

	_, err = AddComment(ctx, nil, db, uuid.New(), "Bob", "Orphan comment.")
	require.Error(t, err)
}
