package project

import (
	"context"

	"github.com/gin-gonic/gin"

	"modlog/internal/domain"
	"modlog/internal/pkg/idgen"
)

// ContextKey is the gin key the access middleware stores *Access under.
const ContextKey = "access"

// Access is the resolved authorization context for one request against one
// project. Handlers pass it to services explicitly.
type Access struct {
	PrincipalID string
	Project     *Project
	Owner       bool
}

// RequireOwner returns ErrForbidden unless the principal owns the project.
func (a *Access) RequireOwner() error {
	if a == nil || !a.Owner {
		return ErrForbidden
	}
	return nil
}

// Authenticated reports whether the request carries a principal at all.
func (a *Access) Authenticated() bool {
	return a != nil && a.PrincipalID != ""
}

type Guard struct {
	repo Repository
}

func NewGuard(repo Repository) *Guard {
	return &Guard{repo: repo}
}

// Resolve loads the project and decides whether principalID may see it.
// An empty principalID is an anonymous visitor.
func (g *Guard) Resolve(ctx context.Context, principalID, projectID string) (*Access, error) {
	if !idgen.Valid(projectID) {
		return nil, ErrProjectNotFound
	}
	p, err := g.repo.GetByID(ctx, projectID)
	if err != nil {
		return nil, err
	}
	owner := p.IsOwnedBy(principalID)
	if p.Privacy == domain.PrivacyPrivate && !owner {
		return nil, ErrForbidden
	}
	return &Access{PrincipalID: principalID, Project: p, Owner: owner}, nil
}

// AccessFrom returns the Access stored by the access middleware.
func AccessFrom(c *gin.Context) (*Access, bool) {
	v, ok := c.Get(ContextKey)
	if !ok {
		return nil, false
	}
	a, ok := v.(*Access)
	return a, ok && a != nil
}
