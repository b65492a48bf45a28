package project

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/samber/lo"
	"go.uber.org/zap"

	"modlog/internal/domain"
)

// CleanupFunc removes data that hangs off a project (pictures, posts,
// comments) before the project row itself is deleted.
type CleanupFunc func(ctx context.Context, projectID string) error

type Service struct {
	repo     Repository
	follows  FollowRepository
	cleanups []CleanupFunc
	log      *zap.Logger
}

func NewService(repo Repository, follows FollowRepository, log *zap.Logger, cleanups ...CleanupFunc) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{repo: repo, follows: follows, cleanups: cleanups, log: log.Named("project")}
}

func (s *Service) Create(ctx context.Context, ownerID string, req *ProjectRequest) (*Project, error) {
	p := &Project{OwnerID: ownerID}
	req.apply(p)
	if err := s.repo.Create(ctx, p); err != nil {
		return nil, fmt.Errorf("create project: %w", err)
	}
	s.log.Info("project created", zap.String("project_id", p.ID), zap.String("owner_id", ownerID))
	return p, nil
}

func (s *Service) Update(ctx context.Context, access *Access, req *ProjectRequest) (*Project, error) {
	if err := access.RequireOwner(); err != nil {
		return nil, err
	}
	p := access.Project
	req.apply(p)
	if err := s.repo.Update(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// Delete removes a project with everything attached to it. Cleanup failures
// abort the delete so the project can be retried.
func (s *Service) Delete(ctx context.Context, access *Access) error {
	if err := access.RequireOwner(); err != nil {
		return err
	}
	return s.delete(ctx, access.Project.ID)
}

func (s *Service) delete(ctx context.Context, projectID string) error {
	for _, cleanup := range s.cleanups {
		if err := cleanup(ctx, projectID); err != nil {
			return fmt.Errorf("clean up project %s: %w", projectID, err)
		}
	}
	if err := s.repo.Delete(ctx, projectID); err != nil {
		return err
	}
	s.log.Info("project deleted", zap.String("project_id", projectID))
	return nil
}

// DeleteAllByOwner deletes every project of a user. Used when the account goes.
func (s *Service) DeleteAllByOwner(ctx context.Context, ownerID string) error {
	ids, err := s.repo.ListIDsByOwner(ctx, ownerID)
	if err != nil {
		return err
	}
	var errs []error
	for _, id := range ids {
		if err := s.delete(ctx, id); err != nil && !errors.Is(err, ErrProjectNotFound) {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (s *Service) AddMod(ctx context.Context, access *Access, mod string) (*Project, error) {
	if err := access.RequireOwner(); err != nil {
		return nil, err
	}
	p := access.Project
	p.Mods = append(p.Mods, mod)
	if err := s.repo.Update(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *Service) DeleteMod(ctx context.Context, access *Access, index int) (*Project, error) {
	if err := access.RequireOwner(); err != nil {
		return nil, err
	}
	p := access.Project
	if index < 0 || index >= len(p.Mods) {
		return nil, ErrModNotFound
	}
	p.Mods = slices.Delete(p.Mods, index, index+1)
	if err := s.repo.Update(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// ListByOwner returns the projects of ownerID that viewerID may see in a listing.
func (s *Service) ListByOwner(ctx context.Context, ownerID, viewerID string) ([]*Project, error) {
	projects, err := s.repo.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	return lo.Filter(projects, func(p *Project, _ int) bool {
		return p.VisibleInListing(viewerID)
	}), nil
}

func (s *Service) Follow(ctx context.Context, access *Access) error {
	if access.Owner {
		return ErrCannotFollowOwn
	}
	return s.follows.Follow(ctx, access.PrincipalID, access.Project.ID)
}

func (s *Service) Unfollow(ctx context.Context, access *Access) error {
	return s.follows.Unfollow(ctx, access.PrincipalID, access.Project.ID)
}

func (s *Service) IsFollowing(ctx context.Context, access *Access) (bool, error) {
	if !access.Authenticated() {
		return false, nil
	}
	return s.follows.IsFollowing(ctx, access.PrincipalID, access.Project.ID)
}

func (s *Service) FollowerIDs(ctx context.Context, projectID string) ([]string, error) {
	return s.follows.FollowerIDs(ctx, projectID)
}

// Following lists the projects userID follows that are still visible to them.
func (s *Service) Following(ctx context.Context, userID string) ([]*Project, error) {
	projects, err := s.follows.Following(ctx, userID)
	if err != nil {
		return nil, err
	}
	return lo.Filter(projects, func(p *Project, _ int) bool {
		return p.Privacy != domain.PrivacyPrivate || p.IsOwnedBy(userID)
	}), nil
}

// RemoveFollowsOf drops every follow made by userID.
func (s *Service) RemoveFollowsOf(ctx context.Context, userID string) error {
	return s.follows.DeleteByUser(ctx, userID)
}
