package image

import (
	"bytes"
	"context"
	stdimage "image"
	"image/color"
	"image/jpeg"
	"image/png"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"modlog/internal/config"
	"modlog/internal/database"
)

const testProjectID = "project42"

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := filepath.Join(t.TempDir(), "images.db") + "?_pragma=busy_timeout(5000)"
	db, err := database.Connect(dsn, zap.NewNop())
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.Exec("CREATE TABLE projects (id varchar(32) PRIMARY KEY)").Error)
	require.NoError(t, db.Exec("CREATE TABLE users (id varchar(32) PRIMARY KEY)").Error)
	require.NoError(t, database.Migrate(db, &Image{}))
	require.NoError(t, db.Exec("INSERT INTO projects (id) VALUES (?)", testProjectID).Error)
	return db
}

func testUploadConfig(root string) config.UploadConfig {
	cfg := config.DefaultUpload()
	cfg.Root = root
	cfg.StaticURLBase = "/static"
	cfg.ThumbnailSize = 64
	return cfg
}

type fixture struct {
	db    *gorm.DB
	repo  Repository
	files *LocalStore
	cfg   config.UploadConfig
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := setupTestDB(t)
	cfg := testUploadConfig(t.TempDir())
	return &fixture{
		db:    db,
		repo:  NewRepository(db),
		files: NewLocalStore(cfg.Root, cfg.Quality),
		cfg:   cfg,
	}
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, solid(w, h)))
	return buf.Bytes()
}

func jpegBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, solid(w, h), &jpeg.Options{Quality: 90}))
	return buf.Bytes()
}

func solid(w, h int) *stdimage.RGBA {
	img := stdimage.NewRGBA(stdimage.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 200, A: 255})
		}
	}
	return img
}

// faultyStore wraps a FileStore and fails the configured operations.
type faultyStore struct {
	FileStore
	originalErr  error
	thumbnailErr error
}

func (f *faultyStore) WriteOriginal(data []byte, filename, directory string) error {
	if f.originalErr != nil {
		return f.originalErr
	}
	return f.FileStore.WriteOriginal(data, filename, directory)
}

func (f *faultyStore) WriteThumbnail(data []byte, filename, directory string, maxDim int) error {
	if f.thumbnailErr != nil {
		return f.thumbnailErr
	}
	return f.FileStore.WriteThumbnail(data, filename, directory, maxDim)
}

// stuckRepository refuses to delete rows.
type stuckRepository struct {
	Repository
	deleteErr error
	deletes   int
}

func (r *stuckRepository) Delete(ctx context.Context, id string) error {
	r.deletes++
	return r.deleteErr
}
