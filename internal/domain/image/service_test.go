package image

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"modlog/internal/config"
)

func (f *fixture) service(files FileStore, log *zap.Logger) *Service {
	if files == nil {
		files = f.files
	}
	svc := NewService(f.repo, files, f.cfg, log)
	svc.retryDelay = 0
	return svc
}

func (f *fixture) assertEmpty(t *testing.T) {
	t.Helper()
	rows, err := f.repo.ListAll(context.Background())
	require.NoError(t, err)
	assert.Empty(t, rows, "no image rows expected")

	for _, c := range []Category{CategoryProject, CategoryProfile} {
		names, err := f.files.List(string(c))
		require.NoError(t, err)
		assert.Empty(t, names, "no files expected in %s", c)
		thumbs, err := f.files.List(string(c) + "/" + thumbnailDir)
		require.NoError(t, err)
		assert.Empty(t, thumbs, "no thumbnails expected in %s", c)
	}
}

func TestService_Add_PNGRoundTrip(t *testing.T) {
	f := newFixture(t)
	svc := f.service(nil, nil)
	ctx := context.Background()

	img, err := svc.Add(ctx, AddInput{
		Data:     pngBytes(t, 200, 100),
		Filename: "engine bay.PNG",
		Owner:    ProjectOwner(testProjectID),
		UploadIP: "10.0.0.1",
	})
	require.NoError(t, err)

	assert.Equal(t, "png", img.Extension)
	assert.Equal(t, img.ID+".png", img.Filename())
	assert.Len(t, img.ID, 32)

	stored, err := f.repo.GetByID(ctx, img.ID)
	require.NoError(t, err)
	assert.Equal(t, testProjectID, stored.OwnerID)
	assert.Equal(t, CategoryProject, stored.Category)
	assert.Equal(t, "10.0.0.1", stored.UploadIP)

	assert.True(t, f.files.Exists(img.Filename(), string(CategoryProject)))
	assert.True(t, f.files.ThumbnailExists(img.Filename(), string(CategoryProject)))

	thumb, err := imaging.Open(f.cfg.Root + "/project_pictures/thumbnails/" + img.Filename())
	require.NoError(t, err)
	assert.Equal(t, 64, thumb.Bounds().Dx())
	assert.Equal(t, 32, thumb.Bounds().Dy())

	assert.Equal(t, "/static/project_pictures/"+img.Filename(), svc.URL(img))
	assert.Equal(t, "/static/project_pictures/thumbnails/"+img.Filename(), svc.ThumbnailURL(img))
}

func TestService_Add_SmallImageIsNotUpscaled(t *testing.T) {
	f := newFixture(t)
	svc := f.service(nil, nil)

	img, err := svc.Add(context.Background(), AddInput{
		Data:     pngBytes(t, 20, 10),
		Filename: "tiny.png",
		Owner:    ProjectOwner(testProjectID),
	})
	require.NoError(t, err)

	thumb, err := imaging.Open(f.cfg.Root + "/project_pictures/thumbnails/" + img.Filename())
	require.NoError(t, err)
	assert.Equal(t, 20, thumb.Bounds().Dx())
	assert.Equal(t, 10, thumb.Bounds().Dy())
}

func TestService_Add_RejectedBeforeAnySideEffect(t *testing.T) {
	tests := []struct {
		name     string
		data     func(t *testing.T) []byte
		filename string
		maxBytes int64
		wantErr  error
	}{
		{"bmp extension", func(t *testing.T) []byte { return pngBytes(t, 8, 8) }, "car.bmp", 0, ErrUnsupportedFileType},
		{"no extension", func(t *testing.T) []byte { return pngBytes(t, 8, 8) }, "car", 0, ErrUnsupportedFileType},
		{"traversal with bad extension", func(t *testing.T) []byte { return pngBytes(t, 8, 8) }, "../../etc/passwd", 0, ErrUnsupportedFileType},
		{"empty file", func(*testing.T) []byte { return nil }, "car.png", 0, ErrEmptyFile},
		{"too large", func(t *testing.T) []byte { return pngBytes(t, 64, 64) }, "car.png", 16, ErrFileTooLarge},
		{"not an image", func(*testing.T) []byte { return []byte("definitely not a png") }, "car.png", 0, ErrInvalidImageData},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			if tt.maxBytes > 0 {
				f.cfg.MaxBytes = tt.maxBytes
			}
			svc := f.service(nil, nil)

			img, err := svc.Add(context.Background(), AddInput{
				Data:     tt.data(t),
				Filename: tt.filename,
				Owner:    ProjectOwner(testProjectID),
			})
			require.ErrorIs(t, err, tt.wantErr)
			assert.Nil(t, img)
			f.assertEmpty(t)
		})
	}
}

func TestService_Add_DisallowedByConfig(t *testing.T) {
	f := newFixture(t)
	f.cfg.AllowedExtensions = []string{"png"}
	svc := f.service(nil, nil)

	_, err := svc.Add(context.Background(), AddInput{
		Data:     jpegBytes(t, 8, 8),
		Filename: "car.jpg",
		Owner:    ProjectOwner(testProjectID),
	})
	require.ErrorIs(t, err, ErrUnsupportedFileType)
	f.assertEmpty(t)
}

func TestService_Add_MissingOwner(t *testing.T) {
	f := newFixture(t)
	svc := f.service(nil, nil)

	_, err := svc.Add(context.Background(), AddInput{
		Data:     pngBytes(t, 8, 8),
		Filename: "car.png",
		Owner:    ProjectOwner("nope"),
	})
	require.ErrorIs(t, err, ErrRecordCreationFailed)
	assert.ErrorIs(t, err, ErrConstraintViolation)
	f.assertEmpty(t)
}

func TestService_Add_ThumbnailFailureIsCompensated(t *testing.T) {
	f := newFixture(t)
	diskFull := errors.New("no space left on device")
	svc := f.service(&faultyStore{FileStore: f.files, thumbnailErr: diskFull}, nil)

	img, err := svc.Add(context.Background(), AddInput{
		Data:     pngBytes(t, 32, 32),
		Filename: "car.png",
		Owner:    ProjectOwner(testProjectID),
	})
	require.Error(t, err)
	assert.Nil(t, img)
	assert.ErrorIs(t, err, ErrIngestionFailed)
	assert.ErrorIs(t, err, diskFull)

	var ingestion *IngestionError
	require.ErrorAs(t, err, &ingestion)
	assert.Equal(t, diskFull, ingestion.Cause)

	f.assertEmpty(t)
}

func TestService_Add_OriginalFailureIsCompensated(t *testing.T) {
	f := newFixture(t)
	denied := errors.New("permission denied")
	svc := f.service(&faultyStore{FileStore: f.files, originalErr: denied}, nil)

	_, err := svc.Add(context.Background(), AddInput{
		Data:     pngBytes(t, 32, 32),
		Filename: "car.png",
		Owner:    ProjectOwner(testProjectID),
	})
	require.ErrorIs(t, err, ErrIngestionFailed)
	assert.ErrorIs(t, err, denied)
	f.assertEmpty(t)
}

func TestService_Add_CompensatesOnCancelledContext(t *testing.T) {
	f := newFixture(t)
	svc := f.service(&faultyStore{FileStore: f.files, thumbnailErr: errors.New("boom")}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	store := &cancelOnWrite{FileStore: svc.files, cancel: cancel}
	svc.files = store

	_, err := svc.Add(ctx, AddInput{
		Data:     pngBytes(t, 32, 32),
		Filename: "car.png",
		Owner:    ProjectOwner(testProjectID),
	})
	require.ErrorIs(t, err, ErrIngestionFailed)
	f.assertEmpty(t)
}

// cancelOnWrite cancels the request context as soon as the original is
// written, simulating a client disconnect mid-upload.
type cancelOnWrite struct {
	FileStore
	cancel context.CancelFunc
}

func (c *cancelOnWrite) WriteOriginal(data []byte, filename, directory string) error {
	err := c.FileStore.WriteOriginal(data, filename, directory)
	c.cancel()
	return err
}

func TestService_Add_BestEffortThumbnail(t *testing.T) {
	f := newFixture(t)
	f.cfg.ThumbnailPolicy = config.ThumbnailBestEffort
	core, logs := observer.New(zapcore.WarnLevel)
	svc := f.service(&faultyStore{FileStore: f.files, thumbnailErr: errors.New("boom")}, zap.New(core))

	img, err := svc.Add(context.Background(), AddInput{
		Data:     pngBytes(t, 32, 32),
		Filename: "car.png",
		Owner:    ProjectOwner(testProjectID),
	})
	require.NoError(t, err)

	_, err = f.repo.GetByID(context.Background(), img.ID)
	require.NoError(t, err)
	assert.True(t, f.files.Exists(img.Filename(), string(CategoryProject)))
	assert.False(t, f.files.ThumbnailExists(img.Filename(), string(CategoryProject)))
	assert.Equal(t, 1, logs.FilterMessage("thumbnail write failed, keeping original").Len())
}

func TestService_Add_OrphanRowIsLogged(t *testing.T) {
	f := newFixture(t)
	core, logs := observer.New(zapcore.WarnLevel)
	repo := &stuckRepository{Repository: f.repo, deleteErr: errors.New("database is locked")}
	svc := NewService(repo, &faultyStore{FileStore: f.files, thumbnailErr: errors.New("boom")}, f.cfg, zap.New(core))
	svc.retryDelay = 0

	_, err := svc.Add(context.Background(), AddInput{
		Data:     pngBytes(t, 32, 32),
		Filename: "car.png",
		Owner:    ProjectOwner(testProjectID),
	})
	require.ErrorIs(t, err, ErrIngestionFailed)
	assert.Equal(t, 3, repo.deletes)

	orphans := logs.FilterMessage("orphan row: compensating delete failed").All()
	require.Len(t, orphans, 1)
	assert.Equal(t, zapcore.ErrorLevel, orphans[0].Level)

	rows, err := f.repo.ListAll(context.Background())
	require.NoError(t, err)
	assert.Len(t, rows, 1, "the row is left for the sweep")
	names, err := f.files.List(string(CategoryProject))
	require.NoError(t, err)
	assert.Empty(t, names)
}

func TestService_Remove_Twice(t *testing.T) {
	f := newFixture(t)
	svc := f.service(nil, nil)
	ctx := context.Background()

	img, err := svc.Add(ctx, AddInput{Data: pngBytes(t, 16, 16), Filename: "a.png", Owner: ProjectOwner(testProjectID)})
	require.NoError(t, err)

	res, err := svc.Remove(ctx, img.ID)
	require.NoError(t, err)
	assert.Equal(t, RemoveResult{Removed: true}, res)

	res, err = svc.Remove(ctx, img.ID)
	require.NoError(t, err)
	assert.Equal(t, RemoveResult{}, res)

	f.assertEmpty(t)
}

func TestService_Remove_MissingFiles(t *testing.T) {
	f := newFixture(t)
	core, logs := observer.New(zapcore.WarnLevel)
	svc := f.service(nil, zap.New(core))
	ctx := context.Background()

	img, err := svc.Add(ctx, AddInput{Data: pngBytes(t, 16, 16), Filename: "a.png", Owner: ProjectOwner(testProjectID)})
	require.NoError(t, err)
	require.NoError(t, f.files.Delete(img.Filename(), string(img.Category)))

	res, err := svc.Remove(ctx, img.ID)
	require.NoError(t, err)
	assert.True(t, res.Removed)
	assert.True(t, res.PartialCleanup)
	assert.Equal(t, 1, logs.FilterMessage("image files already missing").Len())

	_, err = f.repo.GetByID(ctx, img.ID)
	assert.ErrorIs(t, err, ErrImageNotFound)
}

func TestService_CarScenario(t *testing.T) {
	f := newFixture(t)
	svc := f.service(nil, nil)
	ctx := context.Background()

	img, err := svc.Add(ctx, AddInput{
		Data:     jpegBytes(t, 120, 80),
		Filename: "car.jpg",
		Owner:    ProjectOwner(testProjectID),
		UploadIP: "1.2.3.4",
	})
	require.NoError(t, err)
	assert.Equal(t, "jpg", img.Extension)
	assert.Equal(t, "1.2.3.4", img.UploadIP)
	assert.Equal(t, testProjectID, img.OwnerID)

	_, err = svc.Remove(ctx, img.ID)
	require.NoError(t, err)

	_, err = svc.Get(ctx, img.ID)
	assert.ErrorIs(t, err, ErrImageNotFound)
}

func TestService_Remove_Concurrent(t *testing.T) {
	f := newFixture(t)
	svc := f.service(nil, nil)
	ctx := context.Background()

	img, err := svc.Add(ctx, AddInput{Data: pngBytes(t, 16, 16), Filename: "a.png", Owner: ProjectOwner(testProjectID)})
	require.NoError(t, err)

	var wg sync.WaitGroup
	results := make([]RemoveResult, 2)
	errs := make([]error, 2)
	for i := 0; i < 2; i++ {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i], errs[i] = svc.Remove(ctx, img.ID)
		}()
	}
	wg.Wait()

	require.NoError(t, errs[0])
	require.NoError(t, errs[1])
	assert.NotEqual(t, results[0].Removed, results[1].Removed, "exactly one remover deletes the row")
	f.assertEmpty(t)
}

func TestService_RemoveByOwner(t *testing.T) {
	f := newFixture(t)
	svc := f.service(nil, nil)
	ctx := context.Background()
	require.NoError(t, f.db.Exec("INSERT INTO users (id) VALUES (?)", "user1").Error)

	for i := 0; i < 3; i++ {
		_, err := svc.Add(ctx, AddInput{Data: pngBytes(t, 16, 16), Filename: "a.png", Owner: ProjectOwner(testProjectID)})
		require.NoError(t, err)
	}
	profile, err := svc.Add(ctx, AddInput{Data: jpegBytes(t, 16, 16), Filename: "me.jpeg", Owner: ProfileOwner("user1"), Description: "ignored"})
	require.NoError(t, err)
	assert.Empty(t, profile.Description)

	require.NoError(t, svc.RemoveProjectImages(ctx, testProjectID))

	left, err := svc.ListByOwner(ctx, ProjectOwner(testProjectID))
	require.NoError(t, err)
	assert.Empty(t, left)

	mine, err := svc.ListByOwner(ctx, ProfileOwner("user1"))
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.True(t, f.files.Exists(profile.Filename(), string(CategoryProfile)))
}

func TestService_Get_MalformedID(t *testing.T) {
	f := newFixture(t)
	svc := f.service(nil, nil)

	_, err := svc.Get(context.Background(), "../../etc")
	assert.ErrorIs(t, err, ErrImageNotFound)
}
