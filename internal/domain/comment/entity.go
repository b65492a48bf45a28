package comment

import (
	"errors"

	"modlog/internal/domain"
)

var (
	ErrCommentNotFound = errors.New("comment not found")
	ErrParentNotFound  = errors.New("parent comment not found")
	ErrNotAuthor       = errors.New("only the author can edit this comment")
	ErrCannotDelete    = errors.New("only the author or project owner can delete this comment")
	ErrUnauthenticated = errors.New("authentication required")
)

// Comment is a remark on a project. ParentID threads replies.
type Comment struct {
	domain.Identifiable
	ProjectID string  `gorm:"column:project_id;type:varchar(32);not null;index" json:"project_id"`
	AuthorID  string  `gorm:"column:author_id;type:varchar(32);not null;index" json:"author_id"`
	ParentID  *string `gorm:"column:parent_id;type:varchar(32);index" json:"parent_id,omitempty"`
	Content   string  `gorm:"column:content;type:text;not null" json:"content"`
	domain.Timestamps
}

func (Comment) TableName() string { return "comments" }

type CreateRequest struct {
	Content  string `json:"content" validate:"required,min=1,max=1000"`
	ParentID string `json:"parent_id" validate:"omitempty,len=32,hexadecimal"`
}

type EditRequest struct {
	Content string `json:"content" validate:"required,min=1,max=1000"`
}

// Thread is a comment with its replies nested beneath it.
type Thread struct {
	*Comment
	Replies []*Thread `json:"replies"`
}

// BuildThreads nests a flat, oldest-first list into reply trees. Replies
// whose parent is missing are promoted to the top level.
func BuildThreads(comments []*Comment) []*Thread {
	nodes := make(map[string]*Thread, len(comments))
	for _, c := range comments {
		nodes[c.ID] = &Thread{Comment: c, Replies: []*Thread{}}
	}
	roots := make([]*Thread, 0, len(comments))
	for _, c := range comments {
		node := nodes[c.ID]
		if c.ParentID != nil {
			if parent, ok := nodes[*c.ParentID]; ok {
				parent.Replies = append(parent.Replies, node)
				continue
			}
		}
		roots = append(roots, node)
	}
	return roots
}
