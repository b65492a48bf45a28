package project

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"modlog/internal/database"
)

type Repository interface {
	Create(ctx context.Context, p *Project) error
	GetByID(ctx context.Context, id string) (*Project, error)
	Update(ctx context.Context, p *Project) error
	// Delete removes the project row and its follows in one transaction.
	Delete(ctx context.Context, id string) error
	ListByOwner(ctx context.Context, ownerID string) ([]*Project, error)
	ListIDsByOwner(ctx context.Context, ownerID string) ([]string, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, p *Project) error {
	return r.db.WithContext(ctx).Create(p).Error
}

func (r *repository) GetByID(ctx context.Context, id string) (*Project, error) {
	var p Project
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrProjectNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *repository) Update(ctx context.Context, p *Project) error {
	result := r.db.WithContext(ctx).Model(p).Select("*").Omit("id", "owner_id", "created_at").Updates(p)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrProjectNotFound
	}
	return nil
}

func (r *repository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("project_id = ?", id).Delete(&Follow{}).Error; err != nil {
			return err
		}
		result := tx.Where("id = ?", id).Delete(&Project{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrProjectNotFound
		}
		return nil
	})
}

func (r *repository) ListByOwner(ctx context.Context, ownerID string) ([]*Project, error) {
	var projects []*Project
	err := r.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("created_at DESC").
		Find(&projects).Error
	return projects, err
}

func (r *repository) ListIDsByOwner(ctx context.Context, ownerID string) ([]string, error) {
	var ids []string
	err := r.db.WithContext(ctx).Model(&Project{}).Where("owner_id = ?", ownerID).Pluck("id", &ids).Error
	return ids, err
}

type FollowRepository interface {
	Follow(ctx context.Context, userID, projectID string) error
	Unfollow(ctx context.Context, userID, projectID string) error
	IsFollowing(ctx context.Context, userID, projectID string) (bool, error)
	FollowerIDs(ctx context.Context, projectID string) ([]string, error)
	Following(ctx context.Context, userID string) ([]*Project, error)
	DeleteByUser(ctx context.Context, userID string) error
}

type followRepository struct {
	db *gorm.DB
}

func NewFollowRepository(db *gorm.DB) FollowRepository {
	return &followRepository{db: db}
}

func (r *followRepository) Follow(ctx context.Context, userID, projectID string) error {
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&Follow{UserID: userID, ProjectID: projectID})
	if result.Error != nil {
		if database.IsUniqueViolation(result.Error) {
			return ErrAlreadyFollowing
		}
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrAlreadyFollowing
	}
	return nil
}

func (r *followRepository) Unfollow(ctx context.Context, userID, projectID string) error {
	result := r.db.WithContext(ctx).
		Where("user_id = ? AND project_id = ?", userID, projectID).
		Delete(&Follow{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFollowing
	}
	return nil
}

func (r *followRepository) IsFollowing(ctx context.Context, userID, projectID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&Follow{}).
		Where("user_id = ? AND project_id = ?", userID, projectID).
		Count(&count).Error
	return count > 0, err
}

func (r *followRepository) FollowerIDs(ctx context.Context, projectID string) ([]string, error) {
	var ids []string
	err := r.db.WithContext(ctx).
		Model(&Follow{}).
		Where("project_id = ?", projectID).
		Order("created_at").
		Pluck("user_id", &ids).Error
	return ids, err
}

func (r *followRepository) Following(ctx context.Context, userID string) ([]*Project, error) {
	var projects []*Project
	err := r.db.WithContext(ctx).
		Joins("JOIN follows ON follows.project_id = projects.id").
		Where("follows.user_id = ?", userID).
		Order("follows.created_at DESC").
		Find(&projects).Error
	return projects, err
}

func (r *followRepository) DeleteByUser(ctx context.Context, userID string) error {
	return r.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&Follow{}).Error
}
