package repositories_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"snapshare/internal/config"
	"snapshare/internal/models"
	"snapshare/internal/repositories"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// setupDB opens a private in-memory SQLite database with every table migrated.
func setupDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := repositories.OpenDatabase(config.DatabaseConfig{Driver: "sqlite", DSN: ":memory:"}, false)
	require.NoError(t, err)
	require.NoError(t, repositories.AutoMigrate(db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

func createUser(t *testing.T, repo *repositories.GORMUserRepository, username string, role models.Role) *models.User {
	t.Helper()
	user := &models.User{
		Username: username,
		Email:    username + "@example.com",
		Password: "hash",
		Role:     role,
	}
	require.NoError(t, repo.Create(context.Background(), user))
	return user
}

func createVideo(t *testing.T, repo *repositories.GORMVideoRepository, creator *models.User, title string, uploaded time.Time) *models.Video {
	t.Helper()
	video := &models.Video{
		Title:       title,
		Description: title + " description",
		UploadDate:  uploaded,
		VideoFile:   "videos/" + title + ".mp4",
		Thumbnail:   "thumbnails/" + title + ".jpg",
		CreatorID:   creator.ID,
		Publisher:   "P",
		Producer:    "Q",
		Genre:       models.GenreDrama,
		AgeRating:   models.AgeRatingPG,
	}
	require.NoError(t, repo.Create(context.Background(), video))
	return video
}

func TestUserRepository(t *testing.T) {
	db := setupDB(t)
	users := repositories.NewGORMUserRepository(db)
	ctx := context.Background()

	alice := createUser(t, users, "alice", models.RoleCreator)
	assert.NotZero(t, alice.ID)

	t.Run("duplicate username", func(t *testing.T) {
		err := users.Create(ctx, &models.User{Username: "alice", Email: "other@example.com", Password: "x", Role: models.RoleConsumer})
		assert.ErrorIs(t, err, repositories.ErrDuplicate)
	})

	t.Run("lookups", func(t *testing.T) {
		byName, err := users.GetByUsername(ctx, "alice")
		require.NoError(t, err)
		assert.Equal(t, alice.ID, byName.ID)

		byEmail, err := users.GetByEmail(ctx, "ALICE@example.com")
		require.NoError(t, err)
		assert.Equal(t, alice.ID, byEmail.ID)

		_, err = users.GetByID(ctx, 999)
		assert.ErrorIs(t, err, repositories.ErrNotFound)
	})

	t.Run("role and last login", func(t *testing.T) {
		require.NoError(t, users.UpdateRole(ctx, "alice", models.RoleConsumer))
		assert.ErrorIs(t, users.UpdateRole(ctx, "ghost", models.RoleCreator), repositories.ErrNotFound)

		require.NoError(t, users.TouchLastLogin(ctx, alice.ID))
		reloaded, err := users.GetByID(ctx, alice.ID)
		require.NoError(t, err)
		assert.Equal(t, models.RoleConsumer, reloaded.Role)
		assert.NotNil(t, reloaded.LastLogin)
	})
}

func TestVideoRepository_ListOrderingAndPaging(t *testing.T) {
	db := setupDB(t)
	users := repositories.NewGORMUserRepository(db)
	videos := repositories.NewGORMVideoRepository(db)
	ctx := context.Background()

	alice := createUser(t, users, "alice", models.RoleCreator)
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 12; i++ {
		createVideo(t, videos, alice, fmt.Sprintf("v%02d", i), base.Add(time.Duration(i)*time.Hour))
	}

	count, err := videos.Count(ctx, models.VideoFilter{})
	require.NoError(t, err)
	assert.EqualValues(t, 12, count)

	first, err := videos.List(ctx, models.VideoFilter{}, 0, 10)
	require.NoError(t, err)
	require.Len(t, first, 10)
	assert.Equal(t, "v11", first[0].Title)
	assert.Equal(t, "alice", first[0].Creator.Username)

	second, err := videos.List(ctx, models.VideoFilter{}, 10, 10)
	require.NoError(t, err)
	require.Len(t, second, 2)
	assert.Equal(t, "v01", second[0].Title)
	assert.Equal(t, "v00", second[1].Title)
}

func TestVideoRepository_Filter(t *testing.T) {
	db := setupDB(t)
	users := repositories.NewGORMUserRepository(db)
	videos := repositories.NewGORMVideoRepository(db)
	ctx := context.Background()

	alice := createUser(t, users, "alice", models.RoleCreator)
	carol := createUser(t, users, "carol", models.RoleCreator)
	now := time.Now()
	createVideo(t, videos, alice, "Sunset", now)
	createVideo(t, videos, carol, "Mountains", now)

	byTitle, err := videos.List(ctx, models.VideoFilter{Query: "sun"}, 0, 10)
	require.NoError(t, err)
	require.Len(t, byTitle, 1)
	assert.Equal(t, "Sunset", byTitle[0].Title)

	byCreator, err := videos.Count(ctx, models.VideoFilter{Query: "CAROL"})
	require.NoError(t, err)
	assert.EqualValues(t, 1, byCreator)

	byGenre, err := videos.Count(ctx, models.VideoFilter{Genre: models.GenreComedy})
	require.NoError(t, err)
	assert.Zero(t, byGenre)
}

func TestVideoRepository_ListByCreator(t *testing.T) {
	db := setupDB(t)
	users := repositories.NewGORMUserRepository(db)
	videos := repositories.NewGORMVideoRepository(db)
	ctx := context.Background()

	alice := createUser(t, users, "alice", models.RoleCreator)
	base := time.Now().Add(-time.Hour)
	var last *models.Video
	for i := 0; i < 5; i++ {
		last = createVideo(t, videos, alice, fmt.Sprintf("clip%d", i), base.Add(time.Duration(i)*time.Minute))
	}

	more, err := videos.ListByCreator(ctx, alice.ID, last.ID, 3)
	require.NoError(t, err)
	require.Len(t, more, 3)
	for _, v := range more {
		assert.NotEqual(t, last.ID, v.ID)
	}
	assert.Equal(t, "clip3", more[0].Title)
}

func TestVideoRepository_IncrementViewsConcurrently(t *testing.T) {
	db := setupDB(t)
	users := repositories.NewGORMUserRepository(db)
	videos := repositories.NewGORMVideoRepository(db)
	ctx := context.Background()

	alice := createUser(t, users, "alice", models.RoleCreator)
	video := createVideo(t, videos, alice, "Demo", time.Now())

	const n = 20
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, videos.IncrementViews(ctx, video.ID))
		}()
	}
	wg.Wait()

	reloaded, err := videos.GetByID(ctx, video.ID)
	require.NoError(t, err)
	assert.EqualValues(t, n, reloaded.Views)

	assert.ErrorIs(t, videos.IncrementViews(ctx, 9999), repositories.ErrNotFound)
}

func TestVideoRepository_ToggleLike(t *testing.T) {
	db := setupDB(t)
	users := repositories.NewGORMUserRepository(db)
	videos := repositories.NewGORMVideoRepository(db)
	ctx := context.Background()

	alice := createUser(t, users, "alice", models.RoleCreator)
	bob := createUser(t, users, "bob", models.RoleConsumer)
	video := createVideo(t, videos, alice, "Demo", time.Now())

	res, err := videos.ToggleLike(ctx, video.ID, bob.ID)
	require.NoError(t, err)
	assert.Equal(t, &models.LikeResult{Liked: true, TotalLikes: 1}, res)

	liked, err := videos.IsLikedBy(ctx, video.ID, bob.ID)
	require.NoError(t, err)
	assert.True(t, liked)

	counts, err := videos.LikeCounts(ctx, []uint{video.ID})
	require.NoError(t, err)
	assert.EqualValues(t, 1, counts[video.ID])

	res, err = videos.ToggleLike(ctx, video.ID, bob.ID)
	require.NoError(t, err)
	assert.Equal(t, &models.LikeResult{Liked: false, TotalLikes: 0}, res)

	counts, err = videos.LikeCounts(ctx, []uint{video.ID})
	require.NoError(t, err)
	assert.Empty(t, counts)

	_, err = videos.ToggleLike(ctx, 9999, bob.ID)
	assert.ErrorIs(t, err, repositories.ErrNotFound)
}

func TestVideoRepository_ToggleLikeConcurrently(t *testing.T) {
	db := setupDB(t)
	users := repositories.NewGORMUserRepository(db)
	videos := repositories.NewGORMVideoRepository(db)
	ctx := context.Background()

	alice := createUser(t, users, "alice", models.RoleCreator)
	bob := createUser(t, users, "bob", models.RoleConsumer)
	video := createVideo(t, videos, alice, "Demo", time.Now())

	for _, n := range []int{20, 21} {
		var wg sync.WaitGroup
		for i := 0; i < n; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := videos.ToggleLike(ctx, video.ID, bob.ID)
				assert.NoError(t, err)
			}()
		}
		wg.Wait()

		var rows int64
		require.NoError(t, db.Model(&models.VideoLike{}).
			Where("video_id = ? AND user_id = ?", video.ID, bob.ID).Count(&rows).Error)
		assert.LessOrEqual(t, rows, int64(1))

		liked, err := videos.IsLikedBy(ctx, video.ID, bob.ID)
		require.NoError(t, err)
		// 20 toggles from unliked leave it unliked; 21 more flip it to liked.
		assert.Equal(t, n%2 == 1, liked, "after %d toggles", n)
	}
}

func TestVideoRepository_SearchTreatsWildcardsLiterally(t *testing.T) {
	db := setupDB(t)
	users := repositories.NewGORMUserRepository(db)
	videos := repositories.NewGORMVideoRepository(db)
	ctx := context.Background()

	alice := createUser(t, users, "alice", models.RoleCreator)
	createVideo(t, videos, alice, "100% real", time.Now())
	createVideo(t, videos, alice, "1000 cuts", time.Now())
	createVideo(t, videos, alice, "snake_case", time.Now())
	createVideo(t, videos, alice, "snakeXcase", time.Now())

	found, err := videos.List(ctx, models.VideoFilter{Query: "100%"}, 0, 10)
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "100% real", found[0].Title)

	found, err = videos.List(ctx, models.VideoFilter{Query: "snake_"}, 0, 10)
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "snake_case", found[0].Title)

	count, err := videos.Count(ctx, models.VideoFilter{Query: "100"})
	require.NoError(t, err)
	assert.EqualValues(t, 2, count)
}

func TestEngagementRepository_RatingUpsert(t *testing.T) {
	db := setupDB(t)
	users := repositories.NewGORMUserRepository(db)
	videos := repositories.NewGORMVideoRepository(db)
	engagement := repositories.NewGORMEngagementRepository(db)
	ctx := context.Background()

	alice := createUser(t, users, "alice", models.RoleCreator)
	bob := createUser(t, users, "bob", models.RoleConsumer)
	video := createVideo(t, videos, alice, "Demo", time.Now())

	stats, err := engagement.RatingStats(ctx, video.ID)
	require.NoError(t, err)
	assert.Nil(t, stats.Average)
	assert.Zero(t, stats.Count)

	first := &models.Rating{VideoID: video.ID, UserID: bob.ID, Rating: 4}
	require.NoError(t, engagement.UpsertRating(ctx, first))
	time.Sleep(20 * time.Millisecond)
	second := &models.Rating{VideoID: video.ID, UserID: bob.ID, Rating: 2}
	require.NoError(t, engagement.UpsertRating(ctx, second))

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 2, second.Rating)
	assert.True(t, second.CreatedAt.Equal(first.CreatedAt), "created_at changed on overwrite")
	assert.True(t, second.UpdatedAt.After(first.UpdatedAt), "updated_at not refreshed on overwrite")

	var rows int64
	require.NoError(t, db.Model(&models.Rating{}).Count(&rows).Error)
	assert.EqualValues(t, 1, rows)

	stats, err = engagement.RatingStats(ctx, video.ID)
	require.NoError(t, err)
	require.NotNil(t, stats.Average)
	assert.InDelta(t, 2.0, *stats.Average, 0.0001)
	assert.EqualValues(t, 1, stats.Count)

	stored, err := engagement.GetRating(ctx, video.ID, bob.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, stored.Rating)

	_, err = engagement.GetRating(ctx, video.ID, alice.ID)
	assert.ErrorIs(t, err, repositories.ErrNotFound)
}

func TestEngagementRepository_Comments(t *testing.T) {
	db := setupDB(t)
	users := repositories.NewGORMUserRepository(db)
	videos := repositories.NewGORMVideoRepository(db)
	engagement := repositories.NewGORMEngagementRepository(db)
	ctx := context.Background()

	alice := createUser(t, users, "alice", models.RoleCreator)
	bob := createUser(t, users, "bob", models.RoleConsumer)
	video := createVideo(t, videos, alice, "Demo", time.Now())

	base := time.Now().Add(-time.Hour)
	for i, text := range []string{"first", "second", "third"} {
		require.NoError(t, engagement.CreateComment(ctx, &models.Comment{
			VideoID:   video.ID,
			UserID:    bob.ID,
			Text:      text,
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}))
	}

	count, err := engagement.CountComments(ctx, video.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 3, count)

	page, err := engagement.ListComments(ctx, video.ID, 0, 2)
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, "third", page[0].Text)
	assert.Equal(t, "bob", page[0].User)

	all, err := engagement.ListComments(ctx, video.ID, 0, -1)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	err = engagement.CreateComment(ctx, &models.Comment{VideoID: 9999, UserID: bob.ID, Text: "orphan"})
	assert.ErrorIs(t, err, repositories.ErrNotFound)
}

func TestCascadeOnVideoDelete(t *testing.T) {
	db := setupDB(t)
	users := repositories.NewGORMUserRepository(db)
	videos := repositories.NewGORMVideoRepository(db)
	engagement := repositories.NewGORMEngagementRepository(db)
	ctx := context.Background()

	alice := createUser(t, users, "alice", models.RoleCreator)
	bob := createUser(t, users, "bob", models.RoleConsumer)
	video := createVideo(t, videos, alice, "Demo", time.Now())

	require.NoError(t, engagement.CreateComment(ctx, &models.Comment{VideoID: video.ID, UserID: bob.ID, Text: "hi"}))
	require.NoError(t, engagement.UpsertRating(ctx, &models.Rating{VideoID: video.ID, UserID: bob.ID, Rating: 5}))
	_, err := videos.ToggleLike(ctx, video.ID, bob.ID)
	require.NoError(t, err)

	require.NoError(t, db.Delete(&models.Video{}, video.ID).Error)

	for _, model := range []any{&models.Comment{}, &models.Rating{}, &models.VideoLike{}} {
		var count int64
		require.NoError(t, db.Model(model).Count(&count).Error)
		assert.Zero(t, count, "%T rows should be removed with their video", model)
	}
}
