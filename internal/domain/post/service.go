package post

import (
	"context"

	"go.uber.org/zap"

	"modlog/internal/domain/notify"
	"modlog/internal/domain/project"
)

// Notifier pushes project events to followers.
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
	return &Service{repo: repo, notifier: notifier, log: log.Named("post")}
}

// Create adds a post and tells the project's followers about it.
func (s *Service) Create(ctx context.Context, access *project.Access, req *PostRequest) (*Post, error) {
	if err := access.RequireOwner(); err != nil {
		return nil, err
	}
	p := &Post{ProjectID: access.Project.ID, Title: req.Title, Content: req.Content}
	if err := s.repo.Create(ctx, p); err != nil {
		return nil, err
	}

	if s.notifier != nil {
		err := s.notifier.NotifyFollowers(ctx, p.ProjectID, notify.EventProjectUpdate, p, access.PrincipalID)
		if err != nil {
			s.log.Warn("followers not notified", zap.String("post_id", p.ID), zap.Error(err))
		}
	}
	return p, nil
}

func (s *Service) Edit(ctx context.Context, access *project.Access, id string, req *PostRequest) (*Post, error) {
	if err := access.RequireOwner(); err != nil {
		return nil, err
	}
	p, err := s.repo.GetByID(ctx, access.Project.ID, id)
	if err != nil {
		return nil, err
	}
	p.Title = req.Title
	p.Content = req.Content
	if err := s.repo.Update(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *Service) Delete(ctx context.Context, access *project.Access, id string) error {
	if err := access.RequireOwner(); err != nil {
		return err
	}
	return s.repo.Delete(ctx, access.Project.ID, id)
}

func (s *Service) List(ctx context.Context, access *project.Access) ([]*Post, error) {
	return s.repo.ListByProject(ctx, access.Project.ID)
}

// DeleteByProject is the project cleanup hook.
func (s *Service) DeleteByProject(ctx context.Context, projectID string) error {
	return s.repo.DeleteByProject(ctx, projectID)
}
