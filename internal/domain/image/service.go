package image

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	stdimage "image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"path"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/samber/lo"
	"go.uber.org/zap"

	"modlog/internal/config"
	"modlog/internal/pkg/idgen"
)

type AddInput struct {
	Data        []byte
	Filename    string
	Owner       Owner
	UploadIP    string
	Description string
}

// RemoveResult reports what Remove actually did. A zero value means the
// image was already gone.
type RemoveResult struct {
	Removed        bool
	PartialCleanup bool
}

type Service struct {
	repo    Repository
	files   FileStore
	cfg     config.UploadConfig
	allowed []string
	log     *zap.Logger

	retryAttempts uint
	retryDelay    time.Duration
}

func NewService(repo Repository, files FileStore, cfg config.UploadConfig, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	allowed := lo.Filter(
		lo.Map(cfg.AllowedExtensions, func(ext string, _ int) string {
			return strings.TrimPrefix(strings.ToLower(strings.TrimSpace(ext)), ".")
		}),
		func(ext string, _ int) bool { return lo.Contains(SupportedExtensions, ext) },
	)
	return &Service{
		repo:          repo,
		files:         files,
		cfg:           cfg,
		allowed:       lo.Uniq(allowed),
		log:           log.Named("image"),
		retryAttempts: 3,
		retryDelay:    50 * time.Millisecond,
	}
}

// Add validates the upload, commits the record, then writes the original and
// its thumbnail. If a file write fails the record is deleted again before
// the error is returned.
func (s *Service) Add(ctx context.Context, in AddInput) (*Image, error) {
	ext, err := s.extension(in.Filename)
	if err != nil {
		return nil, err
	}
	if len(in.Data) == 0 {
		return nil, ErrEmptyFile
	}
	if s.cfg.MaxBytes > 0 && int64(len(in.Data)) > s.cfg.MaxBytes {
		return nil, fmt.Errorf("%w: %d bytes", ErrFileTooLarge, len(in.Data))
	}
	if _, _, err := stdimage.DecodeConfig(bytes.NewReader(in.Data)); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidImageData, err)
	}
	if in.Owner.Category == CategoryProfile {
		in.Description = ""
	}

	img := &Image{
		Category:    in.Owner.Category,
		OwnerID:     in.Owner.ID,
		UploadIP:    in.UploadIP,
		Extension:   ext,
		Description: in.Description,
	}
	img.ID = idgen.New()

	if err := s.repo.Insert(ctx, img); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRecordCreationFailed, err)
	}

	filename, dir := img.Filename(), string(img.Category)
	if err := s.files.WriteOriginal(in.Data, filename, dir); err != nil {
		return nil, s.compensate(ctx, img, err)
	}
	if err := s.files.WriteThumbnail(in.Data, filename, dir, s.cfg.ThumbnailSize); err != nil {
		if s.cfg.ThumbnailPolicy == config.ThumbnailBestEffort {
			s.log.Warn("thumbnail write failed, keeping original",
				zap.String("image_id", img.ID), zap.Error(err))
			return img, nil
		}
		return nil, s.compensate(ctx, img, err)
	}

	s.log.Info("image added",
		zap.String("image_id", img.ID),
		zap.String("category", string(img.Category)),
		zap.String("owner_id", img.OwnerID),
	)
	return img, nil
}

// compensate undoes a committed record after a file failure. It runs on a
// context detached from the request so a client disconnect cannot skip it.
func (s *Service) compensate(ctx context.Context, img *Image, cause error) error {
	ctx = context.WithoutCancel(ctx)
	filename, dir := img.Filename(), string(img.Category)

	if err := s.files.Delete(filename, dir); err != nil && !errors.Is(err, ErrFileNotFound) {
		s.log.Error("orphan file after failed ingestion",
			zap.String("image_id", img.ID), zap.String("filename", filename), zap.Error(err))
	}

	err := retry.Do(
		func() error { return s.repo.Delete(ctx, img.ID) },
		retry.Context(ctx),
		retry.Attempts(s.retryAttempts),
		retry.Delay(s.retryDelay),
		retry.LastErrorOnly(true),
		retry.RetryIf(func(err error) bool { return !errors.Is(err, ErrImageNotFound) }),
	)
	if err != nil && !errors.Is(err, ErrImageNotFound) {
		s.log.Error("orphan row: compensating delete failed",
			zap.String("image_id", img.ID),
			zap.String("category", string(img.Category)),
			zap.String("owner_id", img.OwnerID),
			zap.NamedError("cause", cause),
			zap.Error(err),
		)
	}
	return &IngestionError{Cause: cause}
}

// Remove deletes the files first, then the record. Removing an image that
// is already gone is not an error.
func (s *Service) Remove(ctx context.Context, id string) (RemoveResult, error) {
	img, err := s.repo.GetByID(ctx, id)
	if errors.Is(err, ErrImageNotFound) {
		return RemoveResult{}, nil
	}
	if err != nil {
		return RemoveResult{}, err
	}

	var result RemoveResult
	if err := s.files.Delete(img.Filename(), string(img.Category)); err != nil {
		if !errors.Is(err, ErrFileNotFound) {
			return RemoveResult{}, fmt.Errorf("delete files: %w", err)
		}
		result.PartialCleanup = true
		s.log.Warn("image files already missing",
			zap.String("image_id", img.ID), zap.String("filename", img.Filename()))
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, ErrImageNotFound) {
			return RemoveResult{}, nil
		}
		return RemoveResult{}, err
	}
	result.Removed = true
	return result, nil
}

// RemoveByOwner removes every image of owner, collecting failures.
func (s *Service) RemoveByOwner(ctx context.Context, owner Owner) error {
	images, err := s.repo.ListByOwner(ctx, owner)
	if err != nil {
		return err
	}
	var errs []error
	for _, img := range images {
		if _, err := s.Remove(ctx, img.ID); err != nil {
			errs = append(errs, fmt.Errorf("image %s: %w", img.ID, err))
		}
	}
	return errors.Join(errs...)
}

// RemoveProjectImages satisfies the project cascade.
func (s *Service) RemoveProjectImages(ctx context.Context, projectID string) error {
	return s.RemoveByOwner(ctx, ProjectOwner(projectID))
}

// RemoveProfileImages satisfies the user cascade.
func (s *Service) RemoveProfileImages(ctx context.Context, userID string) error {
	return s.RemoveByOwner(ctx, ProfileOwner(userID))
}

func (s *Service) Get(ctx context.Context, id string) (*Image, error) {
	if !idgen.Valid(id) {
		return nil, ErrImageNotFound
	}
	return s.repo.GetByID(ctx, id)
}

func (s *Service) ListByOwner(ctx context.Context, owner Owner) ([]*Image, error) {
	return s.repo.ListByOwner(ctx, owner)
}

func (s *Service) URL(img *Image) string {
	return s.cfg.StaticURLBase + "/" + string(img.Category) + "/" + img.Filename()
}

func (s *Service) ThumbnailURL(img *Image) string {
	return s.cfg.StaticURLBase + "/" + string(img.Category) + "/" + thumbnailDir + "/" + img.Filename()
}

func (s *Service) extension(filename string) (string, error) {
	name := path.Base(strings.ReplaceAll(filename, `\`, "/"))
	ext := strings.ToLower(strings.TrimPrefix(path.Ext(name), "."))
	if ext == "" || !lo.Contains(s.allowed, ext) {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFileType, name)
	}
	return ext, nil
}
