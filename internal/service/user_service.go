// Package service implements the application's operations on top of the repository contracts.
package service

import (
	"context"
	"strings"
	"unicode/utf8"

	"aperture/internal/cache"
	"aperture/internal/models"
	"aperture/internal/observability"
	"aperture/internal/repository"
	"aperture/internal/validation"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/crypto/bcrypt"
)

const (
	DefaultSearchLimit = 10
	maxFullNameLen     = 100
	maxBioLen          = 150
)

type UserService struct {
	users   repository.UserRepository
	follows repository.FollowRepository
}

type RegisterInput struct {
	Username string `json:"username"`
	Email    string `json:"email" validate:"required,email,max=254"`
	Password string `json:"password" validate:"required"`
	FullName string `json:"fullName" validate:"required"`
}

// UpdateProfileInput carries the fields to overwrite. Nil fields are left unchanged.
type UpdateProfileInput struct {
	UserID         uint
	FullName       *string
	Bio            *string
	Email          *string
	ProfilePicture *string
}

func NewUserService(users repository.UserRepository, follows repository.FollowRepository) *UserService {
	return &UserService{users: users, follows: follows}
}

// Register validates the input, rejects taken usernames or emails and stores a bcrypt hash of the password.
func (s *UserService) Register(ctx context.Context, in RegisterInput) (user *models.User, err error) {
	ctx, span := observability.StartServiceSpan(ctx, "UserService", "Register")
	defer func() { observability.EndSpan(span, err) }()

	in.Username = strings.TrimSpace(in.Username)
	in.Email = validation.NormalizeEmail(in.Email)
	in.FullName = strings.TrimSpace(in.FullName)

	if err := validation.ValidateUsername(in.Username); err != nil {
		return nil, err
	}
	if err := validation.ValidateStruct(in); err != nil {
		return nil, err
	}
	if err := validation.ValidatePassword(in.Password); err != nil {
		return nil, err
	}
	if err := validateFullName(in.FullName); err != nil {
		return nil, err
	}

	exists, err := s.users.ExistsByUsernameOrEmail(ctx, in.Username, in.Email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, models.NewConflictError("User already exists with this email or username")
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	user = &models.User{
		Username:       in.Username,
		Email:          in.Email,
		Password:       string(hashed),
		FullName:       in.FullName,
		ProfilePicture: models.DefaultProfilePicture,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// Authenticate checks credentials. Unknown email and wrong password fail identically.
func (s *UserService) Authenticate(ctx context.Context, email, password string) (user *models.User, err error) {
	ctx, span := observability.StartServiceSpan(ctx, "UserService", "Authenticate")
	defer func() { observability.EndSpan(span, err) }()

	email = validation.NormalizeEmail(email)
	if email == "" || password == "" {
		return nil, models.NewValidationError("Email and password are required")
	}

	user, err = s.users.GetByEmail(ctx, email)
	if err != nil {
		if models.HasCode(err, models.CodeNotFound) {
			return nil, models.NewUnauthorizedError("Invalid credentials")
		}
		return nil, err
	}
	if cmpErr := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); cmpErr != nil {
		return nil, models.NewUnauthorizedError("Invalid credentials")
	}
	return user, nil
}

// GetUser returns the account with its counts.
func (s *UserService) GetUser(ctx context.Context, id uint) (*models.User, error) {
	return s.users.GetByID(ctx, id)
}

// UpdateProfile overwrites the supplied fields only. A changed email is re-validated and must be unused.
func (s *UserService) UpdateProfile(ctx context.Context, in UpdateProfileInput) (user *models.User, err error) {
	ctx, span := observability.StartServiceSpan(ctx, "UserService", "UpdateProfile",
		attribute.Int64("user.id", int64(in.UserID)))
	defer func() { observability.EndSpan(span, err) }()

	user, err = s.users.GetByID(ctx, in.UserID)
	if err != nil {
		return nil, err
	}

	if in.FullName != nil {
		name := strings.TrimSpace(*in.FullName)
		if err := validateFullName(name); err != nil {
			return nil, err
		}
		user.FullName = name
	}
	if in.Bio != nil {
		if utf8.RuneCountInString(*in.Bio) > maxBioLen {
			return nil, models.NewValidationError("Bio cannot exceed 150 characters")
		}
		user.Bio = *in.Bio
	}
	if in.ProfilePicture != nil {
		pic := strings.TrimSpace(*in.ProfilePicture)
		if pic == "" {
			pic = models.DefaultProfilePicture
		}
		user.ProfilePicture = pic
	}
	if in.Email != nil {
		email := validation.NormalizeEmail(*in.Email)
		if err := validation.ValidateEmail(email); err != nil {
			return nil, err
		}
		if email != user.Email {
			taken, err := s.users.EmailTaken(ctx, email, user.ID)
			if err != nil {
				return nil, err
			}
			if taken {
				return nil, models.NewConflictError("Email already in use")
			}
		}
		user.Email = email
	}

	if err := s.users.UpdateProfile(ctx, user); err != nil {
		return nil, err
	}
	cache.InvalidateProfile(ctx, user.ID)
	return user, nil
}

// GetProfile returns the account named username with resolved followers and following.
// A non-zero viewerID also reports whether the viewer follows the account.
func (s *UserService) GetProfile(ctx context.Context, username string, viewerID uint) (profile *models.Profile, err error) {
	ctx, span := observability.StartServiceSpan(ctx, "UserService", "GetProfile")
	defer func() { observability.EndSpan(span, err) }()

	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}

	profile = &models.Profile{}
	err = cache.Aside(ctx, cache.ProfileKey(user.ID), profile, cache.ProfileTTL, func() error {
		p, err := s.loadProfile(ctx, user.ID)
		if err != nil {
			return err
		}
		*profile = *p
		return nil
	})
	if err != nil {
		return nil, err
	}
	profile.IsFollowing = false
	if viewerID != 0 && viewerID != user.ID {
		if profile.IsFollowing, err = s.follows.IsFollowing(ctx, viewerID, user.ID); err != nil {
			return nil, err
		}
	}
	return profile, nil
}

func (s *UserService) loadProfile(ctx context.Context, id uint) (*models.Profile, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	followers, err := s.follows.Followers(ctx, id)
	if err != nil {
		return nil, err
	}
	following, err := s.follows.Following(ctx, id)
	if err != nil {
		return nil, err
	}
	return &models.Profile{User: *user, Followers: followers, Following: following}, nil
}

// Followers lists the accounts following id.
func (s *UserService) Followers(ctx context.Context, id uint) ([]models.UserSummary, error) {
	if _, err := s.users.GetByID(ctx, id); err != nil {
		return nil, err
	}
	return s.follows.Followers(ctx, id)
}

// Following lists the accounts id follows.
func (s *UserService) Following(ctx context.Context, id uint) ([]models.UserSummary, error) {
	if _, err := s.users.GetByID(ctx, id); err != nil {
		return nil, err
	}
	return s.follows.Following(ctx, id)
}

// Search matches query against usernames and full names.
func (s *UserService) Search(ctx context.Context, query string, limit int) (users []models.UserSummary, err error) {
	ctx, span := observability.StartServiceSpan(ctx, "UserService", "Search")
	defer func() { observability.EndSpan(span, err) }()

	query = strings.TrimSpace(query)
	if query == "" {
		return nil, models.NewValidationError("Search query is required")
	}
	if limit <= 0 || limit > models.MaxPageLimit {
		limit = DefaultSearchLimit
	}
	users, err = s.users.Search(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	if users == nil {
		users = []models.UserSummary{}
	}
	return users, nil
}

func validateFullName(name string) error {
	if name == "" {
		return models.NewValidationError("fullName is required")
	}
	if utf8.RuneCountInString(name) > maxFullNameLen {
		return models.NewValidationError("fullName cannot exceed 100 characters")
	}
	return nil
}
