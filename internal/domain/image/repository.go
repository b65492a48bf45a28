package image

import (
	"context"
	"errors"
	"fmt"

	"github.com/samber/lo"
	"gorm.io/gorm"

	"modlog/internal/database"
)

type Repository interface {
	Insert(ctx context.Context, img *Image) error
	GetByID(ctx context.Context, id string) (*Image, error)
	Delete(ctx context.Context, id string) error
	ListByOwner(ctx context.Context, owner Owner) ([]*Image, error)
	ListAll(ctx context.Context) ([]*Image, error)
	OwnerExists(ctx context.Context, owner Owner) (bool, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

// Insert commits the row in its own transaction. The owner row must exist.
func (r *repository) Insert(ctx context.Context, img *Image) error {
	if !img.Category.Valid() {
		return fmt.Errorf("%w: unknown category %q", ErrConstraintViolation, img.Category)
	}
	if !lo.Contains(SupportedExtensions, img.Extension) {
		return fmt.Errorf("%w: unsupported extension %q", ErrConstraintViolation, img.Extension)
	}
	if img.OwnerID == "" {
		return fmt.Errorf("%w: owner is required", ErrConstraintViolation)
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		exists, err := ownerExists(tx, img.Owner())
		if err != nil {
			return err
		}
		if !exists {
			return fmt.Errorf("%w: owner %s/%s does not exist", ErrConstraintViolation, img.Category.OwnerTable(), img.OwnerID)
		}
		if err := tx.Create(img).Error; err != nil {
			if database.IsConstraintViolation(err) {
				return fmt.Errorf("%w: %w", ErrConstraintViolation, err)
			}
			return err
		}
		return nil
	})
}

func (r *repository) GetByID(ctx context.Context, id string) (*Image, error) {
	var img Image
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&img).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrImageNotFound
	}
	if err != nil {
		return nil, err
	}
	return &img, nil
}

// Delete fails with ErrImageNotFound when no row was removed, so a second
// delete of the same id is observable.
func (r *repository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Where("id = ?", id).Delete(&Image{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrImageNotFound
		}
		return nil
	})
}

func (r *repository) ListByOwner(ctx context.Context, owner Owner) ([]*Image, error) {
	var images []*Image
	err := r.db.WithContext(ctx).
		Where("category = ? AND owner_id = ?", owner.Category, owner.ID).
		Order("created_at DESC").
		Find(&images).Error
	return images, err
}

func (r *repository) ListAll(ctx context.Context) ([]*Image, error) {
	var images []*Image
	err := r.db.WithContext(ctx).Order("created_at").Find(&images).Error
	return images, err
}

func (r *repository) OwnerExists(ctx context.Context, owner Owner) (bool, error) {
	return ownerExists(r.db.WithContext(ctx), owner)
}

func ownerExists(db *gorm.DB, owner Owner) (bool, error) {
	var n int64
	if err := db.Table(owner.Category.OwnerTable()).Where("id = ?", owner.ID).Count(&n).Error; err != nil {
		return false, err
	}
	return n > 0, nil
}
