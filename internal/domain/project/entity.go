package project

import (
	"math"
	"time"

	"modlog/internal/domain"
)

type Drivetrain string

const (
	DrivetrainFWD Drivetrain = "FWD"
	DrivetrainRWD Drivetrain = "RWD"
	DrivetrainAWD Drivetrain = "AWD"
)

// Project is one car build. Each project has exactly one owner.
type Project struct {
	domain.Identifiable
	OwnerID     string         `gorm:"column:owner_id;type:varchar(32);not null;index" json:"owner_id"`
	Name        string         `gorm:"column:name;type:varchar(32);not null" json:"name"`
	Description string         `gorm:"column:description;type:varchar(500)" json:"description"`
	Privacy     domain.Privacy `gorm:"column:privacy;type:varchar(16);not null;default:public" json:"privacy"`
	Mods        []string       `gorm:"column:mods;serializer:json" json:"mods"`

	Year       int        `gorm:"column:year" json:"year,omitempty"`
	Make       string     `gorm:"column:make;type:varchar(50)" json:"make,omitempty"`
	Model      string     `gorm:"column:model;type:varchar(50)" json:"model,omitempty"`
	Horsepower int        `gorm:"column:horsepower" json:"horsepower"`
	Torque     int        `gorm:"column:torque" json:"torque"`
	Weight     int        `gorm:"column:weight" json:"weight"`
	Drivetrain Drivetrain `gorm:"column:drivetrain;type:varchar(3)" json:"drivetrain,omitempty"`
	EngineSize float64    `gorm:"column:engine_size" json:"engine_size,omitempty"`

	domain.Timestamps
}

func (Project) TableName() string { return "projects" }

// WeightToPower is weight per horsepower rounded to two digits, 0 without power figures.
func (p *Project) WeightToPower() float64 {
	if p.Horsepower <= 0 {
		return 0
	}
	return math.Round(float64(p.Weight)/float64(p.Horsepower)*100) / 100
}

func (p *Project) IsOwnedBy(userID string) bool {
	return userID != "" && p.OwnerID == userID
}

// VisibleInListing reports whether the project shows up in lists viewed by userID.
func (p *Project) VisibleInListing(userID string) bool {
	return p.IsOwnedBy(userID) || p.Privacy == domain.PrivacyPublic
}

// Follow links a user other than the owner to a project.
type Follow struct {
	UserID    string    `gorm:"column:user_id;type:varchar(32);primaryKey"`
	ProjectID string    `gorm:"column:project_id;type:varchar(32);primaryKey;index"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (Follow) TableName() string { return "follows" }
