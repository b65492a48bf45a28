package image

import (
	"context"
	"errors"
	"fmt"
	"path"

	"github.com/samber/lo"
	"go.uber.org/zap"
)

// SweepReport lists the inconsistencies found between rows and files.
type SweepReport struct {
	// OrphanRows are rows whose original file is missing.
	OrphanRows []*Image
	// OwnerlessRows are rows whose project or user no longer exists.
	OwnerlessRows []*Image
	// OrphanFiles maps a category to filenames that have no row, whether the
	// original, the thumbnail or both are left on disk.
	OrphanFiles map[Category][]string
}

func (r *SweepReport) Clean() bool {
	return len(r.OrphanRows) == 0 && len(r.OwnerlessRows) == 0 &&
		lo.EveryBy(lo.Values(r.OrphanFiles), func(f []string) bool { return len(f) == 0 })
}

// Sweeper reconciles the images table with the file store. It is meant for
// an offline maintenance run, not the request path.
type Sweeper struct {
	repo  Repository
	files FileStore
	log   *zap.Logger
}

func NewSweeper(repo Repository, files FileStore, log *zap.Logger) *Sweeper {
	if log == nil {
		log = zap.NewNop()
	}
	return &Sweeper{repo: repo, files: files, log: log.Named("sweep")}
}

func (s *Sweeper) Scan(ctx context.Context) (*SweepReport, error) {
	rows, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list images: %w", err)
	}

	report := &SweepReport{OrphanFiles: make(map[Category][]string)}
	known := make(map[Category]map[string]struct{})
	for _, img := range rows {
		if known[img.Category] == nil {
			known[img.Category] = make(map[string]struct{})
		}
		known[img.Category][img.Filename()] = struct{}{}

		owned := false
		if img.Category.Valid() {
			if owned, err = s.repo.OwnerExists(ctx, img.Owner()); err != nil {
				return nil, fmt.Errorf("check owner of %s: %w", img.ID, err)
			}
		}
		switch {
		case !owned:
			report.OwnerlessRows = append(report.OwnerlessRows, img)
		case !s.files.Exists(img.Filename(), string(img.Category)):
			report.OrphanRows = append(report.OrphanRows, img)
		}
	}

	for _, category := range []Category{CategoryProject, CategoryProfile} {
		originals, err := s.files.List(string(category))
		if err != nil {
			return nil, err
		}
		thumbs, err := s.files.List(path.Join(string(category), thumbnailDir))
		if err != nil {
			return nil, err
		}
		report.OrphanFiles[category] = lo.Filter(lo.Uniq(append(originals, thumbs...)), func(name string, _ int) bool {
			_, ok := known[category][name]
			return !ok
		})
	}
	return report, nil
}

// Fix deletes everything listed in report and returns how many rows and
// file names it removed.
func (s *Sweeper) Fix(ctx context.Context, report *SweepReport) (rows, files int, err error) {
	var errs []error
	for _, img := range append(append([]*Image{}, report.OrphanRows...), report.OwnerlessRows...) {
		if err := s.repo.Delete(ctx, img.ID); err != nil && !errors.Is(err, ErrImageNotFound) {
			errs = append(errs, fmt.Errorf("row %s: %w", img.ID, err))
			continue
		}
		// Whatever files are left go with the row.
		if err := s.files.Delete(img.Filename(), string(img.Category)); err != nil && !errors.Is(err, ErrFileNotFound) {
			s.log.Warn("image files not removed", zap.String("image_id", img.ID), zap.Error(err))
		}
		rows++
		s.log.Info("orphan row removed", zap.String("image_id", img.ID), zap.String("category", string(img.Category)))
	}
	for category, names := range report.OrphanFiles {
		for _, name := range names {
			if err := s.files.Delete(name, string(category)); err != nil && !errors.Is(err, ErrFileNotFound) {
				errs = append(errs, fmt.Errorf("file %s/%s: %w", category, name, err))
				continue
			}
			files++
			s.log.Info("orphan file removed", zap.String("category", string(category)), zap.String("filename", name))
		}
	}
	return rows, files, errors.Join(errs...)
}
