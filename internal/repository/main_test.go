package repository

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"testing"

	"aperture/internal/config"
	"aperture/internal/database"
	"aperture/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var dbSeq atomic.Int64

// newTestDB opens a private in-memory SQLite database with the full schema.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	cfg := &config.Config{
		Env:         "test",
		StoreDriver: config.StoreSQLite,
		SQLitePath:  fmt.Sprintf("file:%s_%d?mode=memory&cache=shared", name, dbSeq.Add(1)),
	}
	db, err := database.Connect(cfg)
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

func setupMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	gormDB, err := gorm.Open(postgres.New(postgres.Config{
		Conn: db,
	}), &gorm.Config{TranslateError: true})
	require.NoError(t, err)

	return gormDB, mock
}

func createUser(t *testing.T, repo UserRepository, username string) *models.User {
	t.Helper()
	u := &models.User{
		Username:       username,
		Email:          username + "@example.com",
		Password:       "hash",
		FullName:       strings.ToUpper(username[:1]) + username[1:] + " Tester",
		ProfilePicture: models.DefaultProfilePicture,
	}
	require.NoError(t, repo.Create(context.Background(), u))
	return u
}

func createPost(t *testing.T, repo PostRepository, authorID uint, caption string) *models.Post {
	t.Helper()
	p := &models.Post{
		UserID:   authorID,
		ImageURL: "/media/abc/master.jpg",
		Caption:  caption,
		Tags:     models.Tags{"go"},
	}
	require.NoError(t, repo.Create(context.Background(), p))
	return p
}
