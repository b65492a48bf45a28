package comment

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"modlog/internal/domain/notify"
	"modlog/internal/domain/project"
)

type Notifier interface {
	NotifyFollowers(ctx context.Context, projectID, eventType string, payload any, actorID string) error
}

type Service struct {
	repo     Repository
	notifier Notifier
	log      *zap.Logger
}

func NewService(repo Repository, notifier Notifier, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{repo: repo, notifier: notifier, log: log.Named("comment")}
}

// Create posts a comment as the access principal. A reply must point at a
// comment on the same project.
func (s *Service) Create(ctx context.Context, access *project.Access, req *CreateRequest) (*Comment, error) {
	if !access.Authenticated() {
		return nil, ErrUnauthenticated
	}
	c := &Comment{
		ProjectID: access.Project.ID,
		AuthorID:  access.PrincipalID,
		Content:   req.Content,
	}
	if req.ParentID != "" {
		if _, err := s.repo.GetByID(ctx, access.Project.ID, req.ParentID); err != nil {
			if errors.Is(err, ErrCommentNotFound) {
				return nil, ErrParentNotFound
			}
			return nil, err
		}
		parent := req.ParentID
		c.ParentID = &parent
	}
	if err := s.repo.Create(ctx, c); err != nil {
		return nil, err
	}

	if s.notifier != nil {
		if err := s.notifier.NotifyFollowers(ctx, c.ProjectID, notify.EventProjectComment, c, c.AuthorID); err != nil {
			s.log.Warn("followers not notified", zap.String("comment_id", c.ID), zap.Error(err))
		}
	}
	return c, nil
}

func (s *Service) Edit(ctx context.Context, access *project.Access, id string, req *EditRequest) (*Comment, error) {
	c, err := s.repo.GetByID(ctx, access.Project.ID, id)
	if err != nil {
		return nil, err
	}
	if c.AuthorID != access.PrincipalID {
		return nil, ErrNotAuthor
	}
	c.Content = req.Content
	if err := s.repo.Update(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// Delete removes a comment and its replies. The author or the project owner may delete.
func (s *Service) Delete(ctx context.Context, access *project.Access, id string) (int64, error) {
	c, err := s.repo.GetByID(ctx, access.Project.ID, id)
	if err != nil {
		return 0, err
	}
	if c.AuthorID != access.PrincipalID && !access.Owner {
		return 0, ErrCannotDelete
	}
	return s.repo.DeleteThread(ctx, access.Project.ID, id)
}

func (s *Service) List(ctx context.Context, access *project.Access) ([]*Thread, error) {
	comments, err := s.repo.ListByProject(ctx, access.Project.ID)
	if err != nil {
		return nil, err
	}
	return BuildThreads(comments), nil
}

func (s *Service) DeleteByProject(ctx context.Context, projectID string) error {
	return s.repo.DeleteByProject(ctx, projectID)
}

func (s *Service) DeleteByAuthor(ctx context.Context, authorID string) error {
	return s.repo.DeleteByAuthor(ctx, authorID)
}
