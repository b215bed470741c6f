package portfolio

import (
	"context"
	"testing"

	"github.com/cosmicdev/devspace/internal/models/guestbook"
	"github.com/cosmicdev/devspace/pkg/utils"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewItemRejectsMismatchedDetails(t *testing.T) {
	db := testDB(t)
	item := &Item{
		ItemType:  TypeCertification,
		CreatorID: uuid.New(),
		Title:     "Orbit Mechanics Cert",
	}
	_, err := NewItem(context.Background(), nil, db, utils.NewValidator(), item,
		&ProjectDetails{Summary: "this is a project payload, not a certification"})
	require.Error(t, err)
}

func TestNewItemRequiresKindFields(t *testing.T) {
	db := testDB(t)
	v := utils.NewValidator()

	tests := []struct {
		name     string
		itemType string
		details  Details
		wantErr  bool
	}{
		{
			name:     "certification without issuing org",
			itemType: TypeCertification,
			details:  &CertificationDetails{},
			wantErr:  true,
		},
		{
			name:     "certification complete",
			itemType: TypeCertification,
			details:  &CertificationDetails{IssuingOrg: "Orbital Academy"},
			wantErr:  false,
		},
		{
			name:     "achievement without category",
			itemType: TypeAchievement,
			details:  &AchievementDetails{},
			wantErr:  true,
		},
		{
			name:     "achievement complete",
			itemType: TypeAchievement,
			details:  &AchievementDetails{AwardCategory: "hackathon"},
			wantErr:  false,
		},
		{
			name:     "project with short summary",
			itemType: TypeProject,
			details:  &ProjectDetails{Summary: "too short"},
			wantErr:  true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			item := &Item{
				ItemType:  tt.itemType,
				CreatorID: uuid.New(),
				Title:     "Fixture Item",
			}
			_, err := NewItem(context.Background(), nil, db, v, item, tt.details)
			if tt.wantErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestNewItemProjectSummaryBecomesDescription(t *testing.T) {
	db := testDB(t)
	item := &Item{
		ItemType:  TypeProject,
		CreatorID: uuid.New(),
		Title:     "Star Tracker",
	}
	created, err := NewItem(context.Background(), nil, db, utils.NewValidator(), item,
		&ProjectDetails{Summary: "Tracks visible stars from your backyard."})
	require.NoError(t, err)
	assert.Equal(t, "Tracks visible stars from your backyard.", created.Description)
	assert.Equal(t, StatusPublished, created.Status)
	assert.Equal(t, VisibilityPublic, created.Visibility)
}

func TestDecodeDetailsRoundTrip(t *testing.T) {
	db := testDB(t)
	item := &Item{
		ItemType:  TypeProject,
		CreatorID: uuid.New(),
		Title:     "Star Tracker",
	}
	created, err := NewItem(context.Background(), nil, db, utils.NewValidator(), item,
		&ProjectDetails{
			Summary:   "Tracks visible stars from your backyard.",
			RepoURL:   "https://git.example/star-tracker",
			TechStack: []string{"go", "webgl"},
		})
	require.NoError(t, err)

	got, err := GetItemBy(context.Background(), nil, db, "id = ?", []interface{}{created.ID})
	require.NoError(t, err)

	details, err := got.DecodeDetails()
	require.NoError(t, err)
	pd, ok := details.(*ProjectDetails)
	require.True(t, ok)
	assert.Equal(t, "https://git.example/star-tracker", pd.RepoURL)
	assert.Equal(t, []string{"go", "webgl"}, pd.TechStack)
}

func TestUpdateItemValidatesEdits(t *testing.T) {
	db := testDB(t)
	created := seedItem(t, db, uuid.New(), "Star Tracker", "web", VisibilityPublic, false, nil)

	_, err := UpdateItem(context.Background(), nil, db, utils.NewValidator(), created.ID, WithTitle("x"))
	require.Error(t, err, "single-rune title is below the minimum")

	updated, err := UpdateItem(context.Background(), nil, db, utils.NewValidator(), created.ID,
		WithTitle("Star Tracker v2"), WithVisibility(VisibilityUnlisted))
	require.NoError(t, err)
	assert.Equal(t, "Star Tracker v2", updated.Title)
	assert.Equal(t, VisibilityUnlisted, updated.Visibility)
}

func TestDeleteItemUnlinksGuestbookEntries(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	created := seedItem(t, db, uuid.New(), "Star Tracker", "web", VisibilityPublic, false, nil)

	entry, err := guestbook.NewEntry(ctx, nil, db, "Alice", "This project helped me find Saturn!",
		guestbook.WithProject(created.ID))
	require.NoError(t, err)
	require.NotNil(t, entry.ProjectID)

	_, err = ToggleLike(ctx, nil, db, created.ID, "visitor-1")
	require.NoError(t, err)
	_, err = AddComment(ctx, nil, db, created.ID, "Bob", "Great work!")
	require.NoError(t, err)

	require.NoError(t, DeleteItem(ctx, nil, db, created.ID))

	_, err = GetItemBy(ctx, nil, db, "id = ?", []interface{}{created.ID})
	require.Error(t, err)

	var likes, comments int64
	require.NoError(t, db.Model(&ItemLike{}).Where("item_id = ?", created.ID).Count(&likes).Error)
	require.NoError(t, db.Model(&ItemComment{}).Where("item_id = ?", created.ID).Count(&comments).Error)
	assert.Zero(t, likes)
	assert.Zero(t, comments)

	got, err := guestbook.GetEntryBy(ctx, nil, db, "id = ?", []interface{}{entry.ID})
	require.NoError(t, err)
	assert.Nil(t, got.ProjectID, "the weak reference is nulled, the entry survives")

	require.Error(t, DeleteItem(ctx, nil, db, created.ID))
}
