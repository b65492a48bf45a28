package comment

import (
	"context"
	"errors"

	"gorm.io/gorm"
)

type Repository interface {
	Create(ctx context.Context, c *Comment) error
	GetByID(ctx context.Context, projectID, id string) (*Comment, error)
	Update(ctx context.Context, c *Comment) error
	// DeleteThread removes the comment and every reply below it.
	DeleteThread(ctx context.Context, projectID, id string) (int64, error)
	ListByProject(ctx context.Context, projectID string) ([]*Comment, error)
	DeleteByProject(ctx context.Context, projectID string) error
	DeleteByAuthor(ctx context.Context, authorID string) error
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, c *Comment) error {
	return r.db.WithContext(ctx).Create(c).Error
}

func (r *repository) GetByID(ctx context.Context, projectID, id string) (*Comment, error) {
	var c Comment
	err := r.db.WithContext(ctx).Where("id = ? AND project_id = ?", id, projectID).First(&c).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrCommentNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *repository) Update(ctx context.Context, c *Comment) error {
	return r.db.WithContext(ctx).Model(c).Select("content", "last_edit").Updates(c).Error
}

func (r *repository) DeleteThread(ctx context.Context, projectID, id string) (int64, error) {
	var deleted int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ids, err := collectThread(tx, []string{id})
		if err != nil {
			return err
		}
		result := tx.Where("project_id = ? AND id IN ?", projectID, ids).Delete(&Comment{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrCommentNotFound
		}
		deleted = result.RowsAffected
		return nil
	})
	return deleted, err
}

// collectThread walks replies breadth first and returns roots plus descendants.
func collectThread(tx *gorm.DB, roots []string) ([]string, error) {
	all := append([]string{}, roots...)
	frontier := roots
	for len(frontier) > 0 {
		var children []string
		if err := tx.Model(&Comment{}).Where("parent_id IN ?", frontier).Pluck("id", &children).Error; err != nil {
			return nil, err
		}
		all = append(all, children...)
		frontier = children
	}
	return all, nil
}

func (r *repository) ListByProject(ctx context.Context, projectID string) ([]*Comment, error) {
	var comments []*Comment
	err := r.db.WithContext(ctx).
		Where("project_id = ?", projectID).
		Order("created_at ASC").
		Find(&comments).Error
	return comments, err
}

func (r *repository) DeleteByProject(ctx context.Context, projectID string) error {
	return r.db.WithContext(ctx).Where("project_id = ?", projectID).Delete(&Comment{}).Error
}

// DeleteByAuthor removes a user's comments along with the replies under them.
func (r *repository) DeleteByAuthor(ctx context.Context, authorID string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var roots []string
		if err := tx.Model(&Comment{}).Where("author_id = ?", authorID).Pluck("id", &roots).Error; err != nil {
			return err
		}
		if len(roots) == 0 {
			return nil
		}
		ids, err := collectThread(tx, roots)
		if err != nil {
			return err
		}
		return tx.Where("id IN ?", ids).Delete(&Comment{}).Error
	})
}
