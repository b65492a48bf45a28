package project

import "errors"

var (
	ErrProjectNotFound  = errors.New("project not found")
	ErrForbidden        = errors.New("access to project denied")
	ErrModNotFound      = errors.New("mod not found")
	ErrAlreadyFollowing = errors.New("already following project")
	ErrNotFollowing     = errors.New("not following project")
	ErrCannotFollowOwn  = errors.New("cannot follow your own project")
)
