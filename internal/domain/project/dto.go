package project

import (
	"time"

	"modlog/internal/domain"
)

// ProjectRequest is the body for creating or replacing a project.
type ProjectRequest struct {
	Name        string         `json:"name" validate:"required,max=32"`
	Description string         `json:"description" validate:"max=500"`
	Privacy     domain.Privacy `json:"privacy" validate:"omitempty,oneof=public private unlisted"`
	Mods        []string       `json:"mods" validate:"omitempty,max=100,dive,min=1,max=50"`
	Year        int            `json:"year" validate:"omitempty,min=1886,max=2100"`
	Make        string         `json:"make" validate:"max=50"`
	Model       string         `json:"model" validate:"max=50"`
	Horsepower  int            `json:"horsepower" validate:"min=0,max=100000"`
	Torque      int            `json:"torque" validate:"min=0,max=100000"`
	Weight      int            `json:"weight" validate:"min=0,max=1000000"`
	Drivetrain  Drivetrain     `json:"drivetrain" validate:"omitempty,oneof=FWD RWD AWD"`
	EngineSize  float64        `json:"engine_size" validate:"min=0,max=100"`
}

func (r *ProjectRequest) apply(p *Project) {
	p.Name = r.Name
	p.Description = r.Description
	p.Privacy = r.Privacy
	if p.Privacy == "" {
		p.Privacy = domain.PrivacyPublic
	}
	p.Mods = r.Mods
	if p.Mods == nil {
		p.Mods = []string{}
	}
	p.Year = r.Year
	p.Make = r.Make
	p.Model = r.Model
	p.Horsepower = r.Horsepower
	p.Torque = r.Torque
	p.Weight = r.Weight
	p.Drivetrain = r.Drivetrain
	p.EngineSize = r.EngineSize
}

type AddModRequest struct {
	Mod string `json:"mod" validate:"required,min=1,max=50"`
}

type ProjectResponse struct {
	*Project
	WeightToPower float64 `json:"w2p"`
	IsOwner       bool    `json:"is_owner"`
	Following     bool    `json:"following"`
	Followers     int     `json:"followers"`
}

type FollowerResponse struct {
	UserID     string    `json:"user_id"`
	FollowedAt time.Time `json:"followed_at,omitempty"`
}

func NewProjectResponse(p *Project, viewerID string) ProjectResponse {
	return ProjectResponse{
		Project:       p,
		WeightToPower: p.WeightToPower(),
		IsOwner:       p.IsOwnedBy(viewerID),
	}
}
