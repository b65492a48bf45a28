package post

import "modlog/internal/domain"

// Post is a timestamped build update written by the project owner.
type Post struct {
	domain.Identifiable
	ProjectID string `gorm:"column:project_id;type:varchar(32);not null;index" json:"project_id"`
	Title     string `gorm:"column:title;type:varchar(100);not null" json:"title"`
	Content   string `gorm:"column:content;type:text;not null" json:"content"`
	domain.Timestamps
}

func (Post) TableName() string { return "updates" }

type PostRequest struct {
	Title   string `json:"title" validate:"required,max=100"`
	Content string `json:"content" validate:"required,max=20000"`
}
