package services_test

import (
	"context"
	"io"

	"snapshare/internal/models"
	"snapshare/internal/storage"

	"github.com/stretchr/testify/mock"
)

// MockUserRepository is a mock implementation of repositories.UserRepository
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, user *models.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) GetByID(ctx context.Context, id uint) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) UpdateRole(ctx context.Context, username string, role models.Role) error {
	args := m.Called(ctx, username, role)
	return args.Error(0)
}

func (m *MockUserRepository) TouchLastLogin(ctx context.Context, id uint) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockVideoRepository is a mock implementation of repositories.VideoRepository
type MockVideoRepository struct {
	mock.Mock
}

func (m *MockVideoRepository) Create(ctx context.Context, video *models.Video) error {
	args := m.Called(ctx, video)
	return args.Error(0)
}

func (m *MockVideoRepository) GetByID(ctx context.Context, id uint) (*models.Video, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Video), args.Error(1)
}

func (m *MockVideoRepository) Exists(ctx context.Context, id uint) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

func (m *MockVideoRepository) List(ctx context.Context, filter models.VideoFilter, offset, limit int) ([]models.Video, error) {
	args := m.Called(ctx, filter, offset, limit)
	return args.Get(0).([]models.Video), args.Error(1)
}

func (m *MockVideoRepository) Count(ctx context.Context, filter models.VideoFilter) (int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockVideoRepository) ListByCreator(ctx context.Context, creatorID, excludeID uint, limit int) ([]models.Video, error) {
	args := m.Called(ctx, creatorID, excludeID, limit)
	return args.Get(0).([]models.Video), args.Error(1)
}

func (m *MockVideoRepository) LikeCounts(ctx context.Context, ids []uint) (map[uint]int64, error) {
	args := m.Called(ctx, ids)
	return args.Get(0).(map[uint]int64), args.Error(1)
}

func (m *MockVideoRepository) IncrementViews(ctx context.Context, id uint) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockVideoRepository) ToggleLike(ctx context.Context, videoID, userID uint) (*models.LikeResult, error) {
	args := m.Called(ctx, videoID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.LikeResult), args.Error(1)
}

func (m *MockVideoRepository) IsLikedBy(ctx context.Context, videoID, userID uint) (bool, error) {
	args := m.Called(ctx, videoID, userID)
	return args.Bool(0), args.Error(1)
}

// MockEngagementRepository is a mock implementation of repositories.EngagementRepository
type MockEngagementRepository struct {
	mock.Mock
}

func (m *MockEngagementRepository) CreateComment(ctx context.Context, comment *models.Comment) error {
	args := m.Called(ctx, comment)
	return args.Error(0)
}

func (m *MockEngagementRepository) ListComments(ctx context.Context, videoID uint, offset, limit int) ([]models.CommentView, error) {
	args := m.Called(ctx, videoID, offset, limit)
	return args.Get(0).([]models.CommentView), args.Error(1)
}

func (m *MockEngagementRepository) CountComments(ctx context.Context, videoID uint) (int64, error) {
	args := m.Called(ctx, videoID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockEngagementRepository) UpsertRating(ctx context.Context, rating *models.Rating) error {
	args := m.Called(ctx, rating)
	return args.Error(0)
}

func (m *MockEngagementRepository) GetRating(ctx context.Context, videoID, userID uint) (*models.Rating, error) {
	args := m.Called(ctx, videoID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Rating), args.Error(1)
}

func (m *MockEngagementRepository) RatingStats(ctx context.Context, videoID uint) (models.RatingStats, error) {
	args := m.Called(ctx, videoID)
	return args.Get(0).(models.RatingStats), args.Error(1)
}

// MockMediaStore is a mock implementation of services.MediaStore
type MockMediaStore struct {
	mock.Mock
}

func (m *MockMediaStore) Store(ctx context.Context, category storage.Category, up storage.Upload) (string, error) {
	args := m.Called(ctx, category, up)
	return args.String(0), args.Error(1)
}

// URLOrNil maps "k" to "/media/k" without recording a call.
func (m *MockMediaStore) URLOrNil(_ context.Context, key string) *string {
	if key == "" {
		return nil
	}
	url := "/media/" + key
	return &url
}

func (m *MockMediaStore) Delete(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

// liveContext matches a context that has not been cancelled.
func liveContext() any {
	return mock.MatchedBy(func(ctx context.Context) bool { return ctx.Err() == nil })
}

// MockEventPublisher is a mock implementation of services.EventPublisher
type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) PublishEvent(eventType string, payload any) error {
	args := m.Called(eventType, payload)
	return args.Error(0)
}

func fileUpload(name string) *storage.Upload {
	return &storage.Upload{Filename: name, Body: io.NewSectionReader(nil, 0, 0)}
}
