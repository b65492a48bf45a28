package post

import (
	"context"
	"errors"

	"gorm.io/gorm"
)

var ErrPostNotFound = errors.New("post not found")

type Repository interface {
	Create(ctx context.Context, p *Post) error
	GetByID(ctx context.Context, projectID, id string) (*Post, error)
	Update(ctx context.Context, p *Post) error
	Delete(ctx context.Context, projectID, id string) error
	ListByProject(ctx context.Context, projectID string) ([]*Post, error)
	DeleteByProject(ctx context.Context, projectID string) error
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, p *Post) error {
	return r.db.WithContext(ctx).Create(p).Error
}

func (r *repository) GetByID(ctx context.Context, projectID, id string) (*Post, error) {
	var p Post
	err := r.db.WithContext(ctx).Where("id = ? AND project_id = ?", id, projectID).First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrPostNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *repository) Update(ctx context.Context, p *Post) error {
	return r.db.WithContext(ctx).Model(p).Select("title", "content", "last_edit").Updates(p).Error
}

func (r *repository) Delete(ctx context.Context, projectID, id string) error {
	result := r.db.WithContext(ctx).Where("id = ? AND project_id = ?", id, projectID).Delete(&Post{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrPostNotFound
	}
	return nil
}

func (r *repository) ListByProject(ctx context.Context, projectID string) ([]*Post, error) {
	var posts []*Post
	err := r.db.WithContext(ctx).
		Where("project_id = ?", projectID).
		Order("created_at DESC").
		Find(&posts).Error
	return posts, err
}

func (r *repository) DeleteByProject(ctx context.Context, projectID string) error {
	return r.db.WithContext(ctx).Where("project_id = ?", projectID).Delete(&Post{}).Error
}
