package memstore

import (
	"context"
	"sort"
	"strings"

	"aperture/internal/models"
)

type userRepository struct {
	db *DB
}

func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	if err := checkContext(ctx); err != nil {
		return err
	}
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	for _, u := range r.db.users {
		if u.Username == user.Username || strings.EqualFold(u.Email, user.Email) {
			return models.NewConflictError("Username or email already exists")
		}
	}

	r.db.nextUserID++
	now := r.db.timestamp()
	user.ID = r.db.nextUserID
	user.CreatedAt = now
	user.UpdatedAt = now
	stored := *user
	r.db.users[user.ID] = &stored
	return nil
}

func (r *userRepository) find(match func(*models.User) bool, notFound *models.AppError) (*models.User, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	for _, u := range r.db.users {
		if match(u) {
			return r.db.userView(u), nil
		}
	}
	return nil, notFound
}

func (r *userRepository) GetByID(ctx context.Context, id uint) (*models.User, error) {
	if err := checkContext(ctx); err != nil {
		return nil, err
	}
	return r.find(func(u *models.User) bool { return u.ID == id }, models.NewNotFoundError("User", id))
}

func (r *userRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	if err := checkContext(ctx); err != nil {
		return nil, err
	}
	return r.find(func(u *models.User) bool { return u.Username == username }, models.NewNotFoundError("User", username))
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	if err := checkContext(ctx); err != nil {
		return nil, err
	}
	return r.find(func(u *models.User) bool { return strings.EqualFold(u.Email, email) }, models.NewNotFoundError("User", email))
}

func (r *userRepository) ExistsByUsernameOrEmail(ctx context.Context, username, email string) (bool, error) {
	if err := checkContext(ctx); err != nil {
		return false, err
	}
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	for _, u := range r.db.users {
		if u.Username == username || strings.EqualFold(u.Email, email) {
			return true, nil
		}
	}
	return false, nil
}

func (r *userRepository) EmailTaken(ctx context.Context, email string, exceptUserID uint) (bool, error) {
	if err := checkContext(ctx); err != nil {
		return false, err
	}
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	for _, u := range r.db.users {
		if u.ID != exceptUserID && strings.EqualFold(u.Email, email) {
			return true, nil
		}
	}
	return false, nil
}

func (r *userRepository) UpdateProfile(ctx context.Context, user *models.User) error {
	if err := checkContext(ctx); err != nil {
		return err
	}
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	stored, ok := r.db.users[user.ID]
	if !ok {
		return models.NewNotFoundError("User", user.ID)
	}
	for _, u := range r.db.users {
		if u.ID != user.ID && strings.EqualFold(u.Email, user.Email) {
			return models.NewConflictError("Email already in use")
		}
	}
	stored.FullName = user.FullName
	stored.Bio = user.Bio
	stored.Email = user.Email
	stored.ProfilePicture = user.ProfilePicture
	stored.UpdatedAt = r.db.timestamp()
	user.UpdatedAt = stored.UpdatedAt
	return nil
}

func (r *userRepository) Search(ctx context.Context, query string, limit int) ([]models.UserSummary, error) {
	if err := checkContext(ctx); err != nil {
		return nil, err
	}
	q := strings.ToLower(query)

	r.db.mu.RLock()
	out := make([]models.UserSummary, 0)
	for _, u := range r.db.users {
		if containsFold(u.Username, q) || containsFold(u.FullName, q) {
			out = append(out, u.Summary())
		}
	}
	r.db.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].Username != out[j].Username {
			return out[i].Username < out[j].Username
		}
		return out[i].ID < out[j].ID
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *userRepository) Summaries(ctx context.Context, ids []uint) (map[uint]models.UserSummary, error) {
	if err := checkContext(ctx); err != nil {
		return nil, err
	}
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	out := make(map[uint]models.UserSummary, len(ids))
	for _, id := range ids {
		if u, ok := r.db.users[id]; ok {
			out[id] = u.Summary()
		}
	}
	return out, nil
}
