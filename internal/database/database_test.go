package database

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"
	"testing/fstest"
	"time"

	"aperture/internal/config"
	"aperture/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func sqliteConfig() *config.Config {
	return &config.Config{
		Env:                      "test",
		StoreDriver:              config.StoreSQLite,
		SQLitePath:               ":memory:",
		DBConnMaxLifetimeMinutes: 5,
	}
}

func TestConnect_SQLiteAppliesSchema(t *testing.T) {
	db, err := Connect(sqliteConfig())
	require.NoError(t, err)

	for _, model := range PersistentModels() {
		assert.True(t, db.Migrator().HasTable(model), "%T should be migrated", model)
	}

	sqlDB, err := db.DB()
	require.NoError(t, err)
	assert.Equal(t, 1, sqlDB.Stats().MaxOpenConnections)
}

func TestConnect_UnknownDriver(t *testing.T) {
	cfg := sqliteConfig()
	cfg.StoreDriver = config.StoreMemory
	_, err := Connect(cfg)
	assert.Error(t, err)
}

func TestConfigurePool(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	cfg := &config.Config{
		StoreDriver:              config.StorePostgres,
		DBMaxOpenConns:           10,
		DBMaxIdleConns:           5,
		DBConnMaxLifetimeMinutes: 15,
	}
	require.NoError(t, configurePool(db, cfg))

	sqlDB, err := db.DB()
	require.NoError(t, err)
	assert.Equal(t, 10, sqlDB.Stats().MaxOpenConnections)
}

func TestPersistentModels_CoversDomain(t *testing.T) {
	var haveFollow, havePostLike, haveCommentLike bool
	for _, model := range PersistentModels() {
		switch model.(type) {
		case *models.Follow:
			haveFollow = true
		case *models.PostLike:
			havePostLike = true
		case *models.CommentLike:
			haveCommentLike = true
		}
	}
	assert.True(t, haveFollow)
	assert.True(t, havePostLike)
	assert.True(t, haveCommentLike)
}

func TestSchemaPolicy(t *testing.T) {
	tests := []struct {
		name     string
		driver   string
		mode     string
		env      string
		wantSQL  bool
		wantAuto bool
		wantErr  bool
	}{
		{"SQLite Always Auto", config.StoreSQLite, "sql", "production", false, true, false},
		{"Hybrid Development", config.StorePostgres, "hybrid", "development", true, true, false},
		{"Hybrid Production", config.StorePostgres, "hybrid", "production", true, false, false},
		{"Default Mode Is Hybrid", config.StorePostgres, "", "development", true, true, false},
		{"SQL Only", config.StorePostgres, "sql", "development", true, false, false},
		{"Auto Development", config.StorePostgres, "auto", "development", false, true, false},
		{"Auto Production Refused", config.StorePostgres, "auto", "production", false, false, true},
		{"Unknown Mode", config.StorePostgres, "magic", "development", false, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &config.Config{StoreDriver: tt.driver, DBSchemaMode: tt.mode, Env: tt.env}
			runSQL, runAuto, err := schemaPolicy(cfg)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantSQL, runSQL)
			assert.Equal(t, tt.wantAuto, runAuto)
		})
	}
}

func TestEmbeddedMigrations(t *testing.T) {
	ms := GetMigrations()
	require.NotEmpty(t, ms)
	assert.Equal(t, 1, ms[0].Version)
	assert.Equal(t, "000001_init_schema", ms[0].String())
	assert.Contains(t, ms[0].UpScript, "CREATE TABLE IF NOT EXISTS follows")
	assert.NotEmpty(t, ms[0].DownScript)
	for i := 1; i < len(ms); i++ {
		assert.Less(t, ms[i-1].Version, ms[i].Version)
	}
	assert.NotNil(t, GetMigrationByVersion(1))
	assert.Nil(t, GetMigrationByVersion(999))
}

func TestLoadMigrations_Errors(t *testing.T) {
	_, err := LoadMigrations(fstest.MapFS{
		"migrations/000001_a.up.sql": {Data: []byte("SELECT 1;")},
	})
	assert.ErrorContains(t, err, "down migration")

	_, err = LoadMigrations(fstest.MapFS{
		"migrations/abc_a.up.sql":   {Data: []byte("SELECT 1;")},
		"migrations/abc_a.down.sql": {Data: []byte("SELECT 1;")},
	})
	assert.ErrorContains(t, err, "invalid version")
}

func TestRunMigrations_AppliesOnceAndRollsBack(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	ctx := context.Background()

	ms, err := LoadMigrations(fstest.MapFS{
		"migrations/000001_widgets.up.sql":   {Data: []byte("CREATE TABLE widgets (id INTEGER PRIMARY KEY);")},
		"migrations/000001_widgets.down.sql": {Data: []byte("DROP TABLE widgets;")},
		"migrations/000002_gadgets.up.sql":   {Data: []byte("CREATE TABLE gadgets (id INTEGER PRIMARY KEY);")},
		"migrations/000002_gadgets.down.sql": {Data: []byte("DROP TABLE gadgets;")},
	})
	require.NoError(t, err)

	require.NoError(t, runMigrations(ctx, db, ms))
	require.NoError(t, runMigrations(ctx, db, ms), "second run is a no-op")

	applied, err := AppliedVersions(ctx, db)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2}, applied)
	assert.True(t, db.Migrator().HasTable("gadgets"))

	// A version missing from the build is refused.
	err = runMigrations(ctx, db, ms[:1])
	assert.ErrorContains(t, err, "000002")
}

func TestCustomGormLogger_Trace(t *testing.T) {
	var buf bytes.Buffer
	l := NewGormLogger(slog.New(slog.NewTextHandler(&buf, nil)), logger.Warn)
	fc := func() (string, int64) { return "SELECT 1", 1 }

	l.Trace(context.Background(), time.Now(), fc, gorm.ErrRecordNotFound)
	assert.Empty(t, buf.String(), "record not found is not logged")

	l.Trace(context.Background(), time.Now(), fc, errors.New("boom"))
	assert.Contains(t, buf.String(), "GORM query error")

	buf.Reset()
	l.Trace(context.Background(), time.Now().Add(-time.Second), fc, nil)
	assert.Contains(t, buf.String(), "GORM slow query")

	buf.Reset()
	l.LogMode(logger.Silent).Trace(context.Background(), time.Now().Add(-time.Second), fc, nil)
	assert.Empty(t, buf.String())
}
