package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/samber/lo"
	"go.uber.org/zap"

	"modlog/internal/database"
	"modlog/internal/domain"
	"modlog/internal/domain/project"
)

// Service contains account logic: signup, login, profile and deletion.
type Service struct {
	users    UserRepositoryInterface
	projects ProjectLister
	jwt      jwtService
	cleanups []CleanupFunc
	log      *zap.Logger
	now      func() time.Time
}

func NewService(users UserRepositoryInterface, projects ProjectLister, jwt jwtService, log *zap.Logger, cleanups ...CleanupFunc) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{
		users:    users,
		projects: projects,
		jwt:      jwt,
		cleanups: cleanups,
		log:      log.Named("auth"),
		now:      time.Now,
	}
}

func (s *Service) Signup(ctx context.Context, req *SignupRequest) (*User, string, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))

	taken, err := s.users.ExistsByUsername(ctx, req.Username)
	if err != nil {
		return nil, "", err
	}
	if taken {
		return nil, "", ErrUsernameTaken
	}
	exists, err := s.users.ExistsByEmail(ctx, email)
	if err != nil {
		return nil, "", err
	}
	if exists {
		return nil, "", ErrEmailAlreadyExists
	}

	hash, err := HashPassword(req.Password)
	if err != nil {
		return nil, "", fmt.Errorf("hash password: %w", err)
	}
	privacy := req.Privacy
	if privacy == "" {
		privacy = domain.PrivacyPublic
	}
	u := &User{
		Username:     req.Username,
		Email:        email,
		PasswordHash: hash,
		Privacy:      privacy,
		LastLogin:    s.now(),
	}
	if err := s.users.Create(ctx, u); err != nil {
		if database.IsUniqueViolation(err) {
			return nil, "", ErrUsernameTaken
		}
		return nil, "", fmt.Errorf("create user: %w", err)
	}

	token, err := s.jwt.GenerateToken(u.ID, u.Username)
	if err != nil {
		return nil, "", fmt.Errorf("generate token: %w", err)
	}
	s.log.Info("user signed up", zap.String("user_id", u.ID))
	return u, token, nil
}

func (s *Service) Login(ctx context.Context, req *LoginRequest) (*User, string, error) {
	u, err := s.users.GetByUsername(ctx, req.Username)
	if errors.Is(err, ErrUserNotFound) {
		return nil, "", ErrInvalidCredentials
	}
	if err != nil {
		return nil, "", err
	}
	if err := CheckPassword(req.Password, u.PasswordHash); err != nil {
		return nil, "", err
	}

	u.LastLogin = s.now()
	if err := s.users.TouchLogin(ctx, u.ID, u.LastLogin); err != nil {
		s.log.Warn("last login not recorded", zap.String("user_id", u.ID), zap.Error(err))
	}

	token, err := s.jwt.GenerateToken(u.ID, u.Username)
	if err != nil {
		return nil, "", fmt.Errorf("generate token: %w", err)
	}
	return u, token, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (*User, error) {
	return s.users.GetByID(ctx, id)
}

func (s *Service) Update(ctx context.Context, id string, req *UpdateRequest) (*User, error) {
	u, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Email != "" {
		email := strings.ToLower(strings.TrimSpace(req.Email))
		if email != u.Email {
			exists, err := s.users.ExistsByEmail(ctx, email)
			if err != nil {
				return nil, err
			}
			if exists {
				return nil, ErrEmailAlreadyExists
			}
			u.Email = email
		}
	}
	if req.Password != "" {
		hash, err := HashPassword(req.Password)
		if err != nil {
			return nil, fmt.Errorf("hash password: %w", err)
		}
		u.PasswordHash = hash
	}
	if req.Privacy != "" {
		u.Privacy = req.Privacy
	}

	if err := s.users.Update(ctx, u); err != nil {
		if database.IsUniqueViolation(err) {
			return nil, ErrEmailAlreadyExists
		}
		return nil, err
	}
	return u, nil
}

// Profile returns a user's public face and the projects viewerID may see.
func (s *Service) Profile(ctx context.Context, username, viewerID string) (*User, []*project.Project, error) {
	u, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return nil, nil, err
	}
	if u.Privacy == domain.PrivacyPrivate && u.ID != viewerID {
		return nil, nil, ErrProfilePrivate
	}
	projects, err := s.projects.ListByOwner(ctx, u.ID, viewerID)
	if err != nil {
		return nil, nil, err
	}
	return u, projects, nil
}

// Delete removes the account after every cleanup has run. A failed cleanup
// keeps the account so the request can be retried.
func (s *Service) Delete(ctx context.Context, id string) error {
	if _, err := s.users.GetByID(ctx, id); err != nil {
		return err
	}
	for _, cleanup := range s.cleanups {
		if err := cleanup(ctx, id); err != nil {
			return fmt.Errorf("clean up user %s: %w", id, err)
		}
	}
	if err := s.users.Delete(ctx, id); err != nil {
		return err
	}
	s.log.Info("user deleted", zap.String("user_id", id))
	return nil
}

// SetProfileImage links imageID as the user's profile picture and returns
// the id it replaced. An empty imageID unlinks.
func (s *Service) SetProfileImage(ctx context.Context, userID, imageID string) (string, error) {
	return s.users.SwapProfileImage(ctx, userID, imageID)
}

func projectResponses(projects []*project.Project, viewerID string) []project.ProjectResponse {
	return lo.Map(projects, func(p *project.Project, _ int) project.ProjectResponse {
		return project.NewProjectResponse(p, viewerID)
	})
}
