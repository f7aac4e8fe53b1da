package repository

import (
	"context"

	"gorm.io/gorm"
)

// NewGormStore builds a Store over a PostgreSQL or SQLite connection.
func NewGormStore(driver string, db *gorm.DB) *Store {
	return NewStore(driver,
		NewUserRepository(db),
		NewFollowRepository(db),
		NewPostRepository(db),
		NewCommentRepository(db),
		StoreHooks{
			Ping: func(ctx context.Context) error {
				sqlDB, err := db.DB()
				if err != nil {
					return err
				}
				return sqlDB.PingContext(ctx)
			},
			Close: func(context.Context) error {
				sqlDB, err := db.DB()
				if err != nil {
					return err
				}
				return sqlDB.Close()
			},
		},
	)
}
