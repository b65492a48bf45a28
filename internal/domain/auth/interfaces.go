package auth

import (
	"context"
	"time"

	"modlog/internal/domain/project"
)

// UserRepositoryInterface — only the methods the auth service uses
type UserRepositoryInterface interface {
	Create(ctx context.Context, u *User) error
	GetByID(ctx context.Context, id string) (*User, error)
	GetByUsername(ctx context.Context, username string) (*User, error)
	ExistsByUsername(ctx context.Context, username string) (bool, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	Update(ctx context.Context, u *User) error
	TouchLogin(ctx context.Context, id string, at time.Time) error
	SwapProfileImage(ctx context.Context, id, imageID string) (string, error)
	Delete(ctx context.Context, id string) error
}

// ProjectLister provides the projects shown on a profile page.
type ProjectLister interface {
	ListByOwner(ctx context.Context, ownerID, viewerID string) ([]*project.Project, error)
}

type jwtService interface {
	GenerateToken(userID, username string) (string, error)
}

// CleanupFunc removes data owned by a user before the account row goes.
type CleanupFunc func(ctx context.Context, userID string) error
