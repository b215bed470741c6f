package guestbook

import (
	"context"
	"fmt"
	"strings"
	"testing"

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
	require.NoError(t, db.AutoMigrate(&Entry{}, &EntryLike{}, &EntryReply{}, &EntryFlag{}))
	return db
}

func TestNewEntryCleanMessageApproved(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	entry, err := NewEntry(ctx, nil, db, "Alice", "Loved the nebula renderer, the shader work is impressive.")
	require.NoError(t, err)
	require.Equal(t, StatusApproved, entry.Status)
	require.Equal(t, 0, entry.SpamScore)
	require.False(t, entry.IsSpam)
	require.NotEqual(t, "", entry.ID.String())
}

func TestNewEntrySpamAutoRejected(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	entry, err := NewEntry(ctx, nil, db, "Bot", "WIN A FREE LOTTERY PRIZE NOW!!! http://a http://b http://c")
	require.NoError(t, err)
	require.Equal(t, 100, entry.SpamScore)
	require.True(t, entry.IsSpam)
	require.Equal(t, StatusRejected, entry.Status)
	require.Contains(t, entry.ModerationReason, "auto-rejected")
}

func TestNewEntryValidation(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	_, err := NewEntry(ctx, nil, db, "", "A perfectly fine message body here.")
	require.Error(t, err)

	_, err = NewEntry(ctx, nil, db, "Alice", "   ")
	require.Error(t, err)

	_, err = NewEntry(ctx, nil, db, "Alice", strings.Repeat("x", MaxMessageLen+1))
	require.Error(t, err)

	_, err = NewEntry(ctx, nil, db, "Alice", strings.Repeat("x", MaxMessageLen))
	require.NoError(t, err)
}

func TestListEntriesFiltersByStatusAndProject(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	e1, err := NewEntry(ctx, nil, db, "Alice", "First visit, the portfolio looks stellar.")
	require.NoError(t, err)
	_, err = NewEntry(ctx, nil, db, "Bob", "Second visit, still enjoying the blog posts.")
	require.NoError(t, err)

	_, err = UpdateStatus(ctx, nil, db, e1.ID, StatusHidden, "testing moderation")
	require.NoError(t, err)

	approved, total, err := ListEntries(ctx, nil, db, 1, 20, StatusApproved, nil)
	require.NoError(t, err)
	require.EqualValues(t, 1, total)
	require.Len(t, approved, 1)
	require.Equal(t, "Bob", approved[0].Name)

	all, total, err := ListEntries(ctx, nil, db, 1, 20, "all", nil)
	require.NoError(t, err)
	require.EqualValues(t, 2, total)
	require.Len(t, all, 2)
}

func TestUpdateEntryRescoresOnMessageChange(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	entry, err := NewEntry(ctx, nil, db, "Alice", "A genuinely kind message about the site.")
	require.NoError(t, err)
	require.Equal(t, 0, entry.SpamScore)

	updated, err := UpdateEntry(ctx, nil, db, entry.ID, "", "you are the winner of our lottery prize this week")
	require.NoError(t, err)
	require.Equal(t, 75, updated.SpamScore)
	require.True(t, updated.IsSpam)
}

func TestUpdateEntryEnforcesStorageCap(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	entry, err := NewEntry(ctx, nil, db, "Alice", "A genuinely kind message about the site.")
	require.NoError(t, err)

	// moderator edits may exceed the submission cap but not the column size
	long := strings.Repeat("x", MaxStoredMessageLen)
	updated, err := UpdateEntry(ctx, nil, db, entry.ID, "", long)
	require.NoError(t, err)
	require.Equal(t, long, updated.Message)

	_, err = UpdateEntry(ctx, nil, db, entry.ID, "", strings.Repeat("x", MaxStoredMessageLen+1))
	require.Error(t, err)

	got, err := GetEntryBy(ctx, nil, db, "id = ?", []interface{}{entry.ID})
	require.NoError(t, err)
	require.Equal(t, long, got.Message)
}

func TestUpdateStatusRejectsUnknown(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	entry, err := NewEntry(ctx, nil, db, "Alice", "A genuinely kind message about the site.")
	require.NoError(t, err)

	_, err = UpdateStatus(ctx, nil, db, entry.ID, "vaporized", "")
	require.Error(t, err)
}

func TestDeleteEntryRemovesChildren(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	entry, err := NewEntry(ctx, nil, db, "Alice", "A genuinely kind message about the site.")
	require.NoError(t, err)

	_, err = ToggleLike(ctx, nil, db, entry.ID, "visitor-1")
	require.NoError(t, err)
	_, err = AddReply(ctx, nil, db, entry.ID, "Owner", "Thanks for stopping by!")
	require.NoError(t, err)

	require.NoError(t, DeleteEntry(ctx, nil, db, entry.ID))

	var likes, replies int64
	require.NoError(t, db.Model(&EntryLike{}).Where("entry_id = ?", entry.ID).Count(&likes).Error)
	require.NoError(t, db.Model(&EntryReply{}).Where("entry_id = ?", entry.ID).Count(&replies).Error)
	require.Zero(t, likes)
	require.Zero(t, replies)

	require.Error(t, DeleteEntry(ctx, nil, db, entry.ID))
}
