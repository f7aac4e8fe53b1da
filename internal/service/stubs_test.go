package service

import (
	"context"
	"errors"
	"testing"

	"aperture/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// userRepoStub is a function-field stub; set only the functions a test needs.
type userRepoStub struct {
	createFn        func(ctx context.Context, user *models.User) error
	getByIDFn       func(ctx context.Context, id uint) (*models.User, error)
	getByUsernameFn func(ctx context.Context, username string) (*models.User, error)
	getByEmailFn    func(ctx context.Context, email string) (*models.User, error)
	existsFn        func(ctx context.Context, username, email string) (bool, error)
	emailTakenFn    func(ctx context.Context, email string, exceptUserID uint) (bool, error)
	updateFn        func(ctx context.Context, user *models.User) error
	searchFn        func(ctx context.Context, query string, limit int) ([]models.UserSummary, error)
	summariesFn     func(ctx context.Context, ids []uint) (map[uint]models.UserSummary, error)
}

func (s *userRepoStub) Create(ctx context.Context, user *models.User) error {
	return s.createFn(ctx, user)
}

func (s *userRepoStub) GetByID(ctx context.Context, id uint) (*models.User, error) {
	return s.getByIDFn(ctx, id)
}

func (s *userRepoStub) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return s.getByUsernameFn(ctx, username)
}

func (s *userRepoStub) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.getByEmailFn(ctx, email)
}

func (s *userRepoStub) ExistsByUsernameOrEmail(ctx context.Context, username, email string) (bool, error) {
	return s.existsFn(ctx, username, email)
}

func (s *userRepoStub) EmailTaken(ctx context.Context, email string, exceptUserID uint) (bool, error) {
	return s.emailTakenFn(ctx, email, exceptUserID)
}

func (s *userRepoStub) UpdateProfile(ctx context.Context, user *models.User) error {
	return s.updateFn(ctx, user)
}

func (s *userRepoStub) Search(ctx context.Context, query string, limit int) ([]models.UserSummary, error) {
	return s.searchFn(ctx, query, limit)
}

func (s *userRepoStub) Summaries(ctx context.Context, ids []uint) (map[uint]models.UserSummary, error) {
	return s.summariesFn(ctx, ids)
}

func noopUserRepo() *userRepoStub {
	return &userRepoStub{
		createFn: func(_ context.Context, u *models.User) error {
			u.ID = 1
			return nil
		},
		getByIDFn: func(_ context.Context, id uint) (*models.User, error) {
			return &models.User{ID: id, Username: "user", FullName: "User"}, nil
		},
		getByUsernameFn: func(_ context.Context, username string) (*models.User, error) {
			return nil, models.NewNotFoundError("User", username)
		},
		getByEmailFn: func(_ context.Context, email string) (*models.User, error) {
			return nil, models.NewNotFoundError("User", email)
		},
		existsFn:     func(_ context.Context, _, _ string) (bool, error) { return false, nil },
		emailTakenFn: func(_ context.Context, _ string, _ uint) (bool, error) { return false, nil },
		updateFn:     func(_ context.Context, _ *models.User) error { return nil },
		searchFn:     func(_ context.Context, _ string, _ int) ([]models.UserSummary, error) { return nil, nil },
		summariesFn: func(_ context.Context, ids []uint) (map[uint]models.UserSummary, error) {
			out := make(map[uint]models.UserSummary, len(ids))
			for _, id := range ids {
				out[id] = models.UserSummary{ID: id, Username: "user", FullName: "User"}
			}
			return out, nil
		},
	}
}

type followRepoStub struct {
	followFn       func(ctx context.Context, followerID, followeeID uint) error
	unfollowFn     func(ctx context.Context, followerID, followeeID uint) error
	isFollowingFn  func(ctx context.Context, followerID, followeeID uint) (bool, error)
	countsFn       func(ctx context.Context, followerID, followeeID uint) (models.FollowCounts, error)
	followersFn    func(ctx context.Context, userID uint) ([]models.UserSummary, error)
	followingFn    func(ctx context.Context, userID uint) ([]models.UserSummary, error)
	followingIDsFn func(ctx context.Context, userID uint) ([]uint, error)
}

func (s *followRepoStub) Follow(ctx context.Context, followerID, followeeID uint) error {
	return s.followFn(ctx, followerID, followeeID)
}

func (s *followRepoStub) Unfollow(ctx context.Context, followerID, followeeID uint) error {
	return s.unfollowFn(ctx, followerID, followeeID)
}

func (s *followRepoStub) IsFollowing(ctx context.Context, followerID, followeeID uint) (bool, error) {
	return s.isFollowingFn(ctx, followerID, followeeID)
}

func (s *followRepoStub) Counts(ctx context.Context, followerID, followeeID uint) (models.FollowCounts, error) {
	return s.countsFn(ctx, followerID, followeeID)
}

func (s *followRepoStub) Followers(ctx context.Context, userID uint) ([]models.UserSummary, error) {
	return s.followersFn(ctx, userID)
}

func (s *followRepoStub) Following(ctx context.Context, userID uint) ([]models.UserSummary, error) {
	return s.followingFn(ctx, userID)
}

func (s *followRepoStub) FollowingIDs(ctx context.Context, userID uint) ([]uint, error) {
	return s.followingIDsFn(ctx, userID)
}

func noopFollowRepo() *followRepoStub {
	return &followRepoStub{
		followFn:      func(_ context.Context, _, _ uint) error { return nil },
		unfollowFn:    func(_ context.Context, _, _ uint) error { return nil },
		isFollowingFn: func(_ context.Context, _, _ uint) (bool, error) { return false, nil },
		countsFn: func(_ context.Context, _, _ uint) (models.FollowCounts, error) {
			return models.FollowCounts{}, nil
		},
		followersFn:    func(_ context.Context, _ uint) ([]models.UserSummary, error) { return nil, nil },
		followingFn:    func(_ context.Context, _ uint) ([]models.UserSummary, error) { return nil, nil },
		followingIDsFn: func(_ context.Context, _ uint) ([]uint, error) { return nil, nil },
	}
}

type postRepoStub struct {
	createFn        func(ctx context.Context, post *models.Post) error
	getByIDFn       func(ctx context.Context, id, viewerID uint) (*models.Post, error)
	listByAuthorsFn func(ctx context.Context, authorIDs []uint, page models.Page, viewerID uint) ([]*models.Post, int64, error)
	deleteFn        func(ctx context.Context, id uint) error
	likeFn          func(ctx context.Context, postID, userID uint) (*models.LikeResult, error)
	unlikeFn        func(ctx context.Context, postID, userID uint) (*models.LikeResult, error)
}

func (s *postRepoStub) Create(ctx context.Context, post *models.Post) error {
	return s.createFn(ctx, post)
}

func (s *postRepoStub) GetByID(ctx context.Context, id, viewerID uint) (*models.Post, error) {
	return s.getByIDFn(ctx, id, viewerID)
}

func (s *postRepoStub) ListByAuthors(ctx context.Context, authorIDs []uint, page models.Page, viewerID uint) ([]*models.Post, int64, error) {
	return s.listByAuthorsFn(ctx, authorIDs, page, viewerID)
}

func (s *postRepoStub) Delete(ctx context.Context, id uint) error {
	return s.deleteFn(ctx, id)
}

func (s *postRepoStub) Like(ctx context.Context, postID, userID uint) (*models.LikeResult, error) {
	return s.likeFn(ctx, postID, userID)
}

func (s *postRepoStub) Unlike(ctx context.Context, postID, userID uint) (*models.LikeResult, error) {
	return s.unlikeFn(ctx, postID, userID)
}

func noopPostRepo() *postRepoStub {
	return &postRepoStub{
		createFn: func(_ context.Context, p *models.Post) error {
			p.ID = 1
			return nil
		},
		getByIDFn: func(_ context.Context, id, _ uint) (*models.Post, error) {
			return &models.Post{ID: id, UserID: 1}, nil
		},
		listByAuthorsFn: func(_ context.Context, _ []uint, _ models.Page, _ uint) ([]*models.Post, int64, error) {
			return nil, 0, nil
		},
		deleteFn: func(_ context.Context, _ uint) error { return nil },
		likeFn: func(_ context.Context, _, _ uint) (*models.LikeResult, error) {
			return &models.LikeResult{Liked: true, LikesCount: 1}, nil
		},
		unlikeFn: func(_ context.Context, _, _ uint) (*models.LikeResult, error) {
			return &models.LikeResult{Liked: false, LikesCount: 0}, nil
		},
	}
}

type commentRepoStub struct {
	createFn     func(ctx context.Context, comment *models.Comment) error
	getByIDFn    func(ctx context.Context, id, viewerID uint) (*models.Comment, error)
	listByPostFn func(ctx context.Context, postID uint, page models.Page, viewerID uint) ([]*models.Comment, int64, error)
	deleteFn     func(ctx context.Context, id uint) error
	likeFn       func(ctx context.Context, commentID, userID uint) (*models.LikeResult, error)
	unlikeFn     func(ctx context.Context, commentID, userID uint) (*models.LikeResult, error)
}

func (s *commentRepoStub) Create(ctx context.Context, comment *models.Comment) error {
	return s.createFn(ctx, comment)
}

func (s *commentRepoStub) GetByID(ctx context.Context, id, viewerID uint) (*models.Comment, error) {
	return s.getByIDFn(ctx, id, viewerID)
}

func (s *commentRepoStub) ListByPost(ctx context.Context, postID uint, page models.Page, viewerID uint) ([]*models.Comment, int64, error) {
	return s.listByPostFn(ctx, postID, page, viewerID)
}

func (s *commentRepoStub) Delete(ctx context.Context, id uint) error {
	return s.deleteFn(ctx, id)
}

func (s *commentRepoStub) Like(ctx context.Context, commentID, userID uint) (*models.LikeResult, error) {
	return s.likeFn(ctx, commentID, userID)
}

func (s *commentRepoStub) Unlike(ctx context.Context, commentID, userID uint) (*models.LikeResult, error) {
	return s.unlikeFn(ctx, commentID, userID)
}

func noopCommentRepo() *commentRepoStub {
	return &commentRepoStub{
		createFn: func(_ context.Context, c *models.Comment) error {
			c.ID = 1
			return nil
		},
		getByIDFn: func(_ context.Context, id, _ uint) (*models.Comment, error) {
			return &models.Comment{ID: id, PostID: 1, UserID: 1}, nil
		},
		listByPostFn: func(_ context.Context, _ uint, _ models.Page, _ uint) ([]*models.Comment, int64, error) {
			return nil, 0, nil
		},
		deleteFn: func(_ context.Context, _ uint) error { return nil },
		likeFn: func(_ context.Context, _, _ uint) (*models.LikeResult, error) {
			return &models.LikeResult{Liked: true, LikesCount: 1}, nil
		},
		unlikeFn: func(_ context.Context, _, _ uint) (*models.LikeResult, error) {
			return &models.LikeResult{Liked: false, LikesCount: 0}, nil
		},
	}
}

// imageStoreStub records stored and released keys.
type imageStoreStub struct {
	storeErr error
	stored   []string
	released []string
}

func (s *imageStoreStub) Store(_ context.Context, content []byte, _ string) (*StoredImage, error) {
	if s.storeErr != nil {
		return nil, s.storeErr
	}
	if len(content) == 0 {
		return nil, models.NewValidationError("Image is required")
	}
	key := "abc123"
	s.stored = append(s.stored, key)
	return &StoredImage{Key: key, URL: MasterImageURL(key)}, nil
}

func (s *imageStoreStub) Release(_ context.Context, key string) error {
	s.released = append(s.released, key)
	return nil
}

// assertAppError asserts that err is an AppError with the given code.
func assertAppError(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	var appErr *models.AppError
	require.True(t, errors.As(err, &appErr), "expected AppError, got %T: %v", err, err)
	assert.Equal(t, code, appErr.Code)
}

// assertValidationError asserts that err is an AppError with code VALIDATION_ERROR.
func assertValidationError(t *testing.T, err error) {
	t.Helper()
	assertAppError(t, err, models.CodeValidation)
}
