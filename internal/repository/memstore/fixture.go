package memstore

import (
	"context"
	_ "embed"
	"fmt"
	"time"

	"aperture/internal/models"
	"aperture/internal/repository"

	"golang.org/x/crypto/bcrypt"
	"gopkg.in/yaml.v3"
)

//go:embed fixture.yaml
var demoFixture []byte

// DemoPassword is the password of every account in the embedded demo dataset.
const DemoPassword = "password123"

// Fixture is a declarative dataset keyed by username.
type Fixture struct {
	Password string        `yaml:"password"`
	Users    []FixtureUser `yaml:"users"`
	Follows  [][]string    `yaml:"follows"`
	Posts    []FixturePost `yaml:"posts"`
}

type FixtureUser struct {
	Username       string `yaml:"username"`
	Email          string `yaml:"email"`
	FullName       string `yaml:"fullName"`
	Bio            string `yaml:"bio"`
	ProfilePicture string `yaml:"profilePicture"`
}

type FixturePost struct {
	Author     string           `yaml:"author"`
	ImageURL   string           `yaml:"imageUrl"`
	Caption    string           `yaml:"caption"`
	Location   string           `yaml:"location"`
	Tags       []string         `yaml:"tags"`
	AgeMinutes int              `yaml:"ageMinutes"`
	Likes      []string         `yaml:"likes"`
	Comments   []FixtureComment `yaml:"comments"`
}

type FixtureComment struct {
	Author string `yaml:"author"`
	Text   string `yaml:"text"`
}

// ParseFixture decodes a YAML dataset.
func ParseFixture(data []byte) (*Fixture, error) {
	var f Fixture
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse fixture: %w", err)
	}
	return &f, nil
}

// NewDemoStore returns a Store loaded with the embedded demo dataset.
func NewDemoStore() (*repository.Store, error) {
	f, err := ParseFixture(demoFixture)
	if err != nil {
		return nil, err
	}
	db := NewDB()
	if err := db.Load(f); err != nil {
		return nil, err
	}
	return db.Store(), nil
}

// Load inserts the fixture through the repositories. Post ages are relative to the current clock.
func (db *DB) Load(f *Fixture) error {
	ctx := context.Background()
	store := db.Store()

	password := f.Password
	if password == "" {
		password = DemoPassword
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash fixture password: %w", err)
	}

	ids := make(map[string]uint, len(f.Users))
	for _, fu := range f.Users {
		u := &models.User{
			Username:       fu.Username,
			Email:          fu.Email,
			Password:       string(hash),
			FullName:       fu.FullName,
			Bio:            fu.Bio,
			ProfilePicture: fu.ProfilePicture,
		}
		if u.ProfilePicture == "" {
			u.ProfilePicture = models.DefaultProfilePicture
		}
		if err := store.Users.Create(ctx, u); err != nil {
			return fmt.Errorf("fixture user %s: %w", fu.Username, err)
		}
		ids[fu.Username] = u.ID
	}

	lookup := func(username string) (uint, error) {
		id, ok := ids[username]
		if !ok {
			return 0, fmt.Errorf("fixture references unknown user %q", username)
		}
		return id, nil
	}

	for _, pair := range f.Follows {
		if len(pair) != 2 {
			return fmt.Errorf("fixture follow %v must name follower and followee", pair)
		}
		follower, err := lookup(pair[0])
		if err != nil {
			return err
		}
		followee, err := lookup(pair[1])
		if err != nil {
			return err
		}
		if err := store.Follows.Follow(ctx, follower, followee); err != nil {
			return fmt.Errorf("fixture follow %s -> %s: %w", pair[0], pair[1], err)
		}
	}

	now := db.timestamp()
	for i, fp := range f.Posts {
		authorID, err := lookup(fp.Author)
		if err != nil {
			return err
		}
		createdAt := now.Add(-time.Duration(fp.AgeMinutes) * time.Minute)
		post := &models.Post{
			UserID:    authorID,
			ImageURL:  fp.ImageURL,
			Caption:   fp.Caption,
			Location:  fp.Location,
			Tags:      models.Tags(fp.Tags),
			CreatedAt: createdAt,
		}
		if err := store.Posts.Create(ctx, post); err != nil {
			return fmt.Errorf("fixture post %d: %w", i+1, err)
		}

		for _, liker := range fp.Likes {
			uid, err := lookup(liker)
			if err != nil {
				return err
			}
			if _, err := store.Posts.Like(ctx, post.ID, uid); err != nil {
				return fmt.Errorf("fixture like on post %d: %w", i+1, err)
			}
		}

		for j, fc := range fp.Comments {
			uid, err := lookup(fc.Author)
			if err != nil {
				return err
			}
			c := &models.Comment{
				PostID:    post.ID,
				UserID:    uid,
				Text:      fc.Text,
				CreatedAt: createdAt.Add(time.Duration(j+1) * time.Minute),
			}
			if err := store.Comments.Create(ctx, c); err != nil {
				return fmt.Errorf("fixture comment on post %d: %w", i+1, err)
			}
		}
	}
	return nil
}
