package domain

import (
	"time"

	"gorm.io/gorm"

	"modlog/internal/pkg/idgen"
)

// Identifiable gives an entity an opaque string primary key assigned on insert.
type Identifiable struct {
	ID string `gorm:"column:id;type:varchar(32);primaryKey" json:"id"`
}

func (m *Identifiable) BeforeCreate(_ *gorm.DB) error {
	if m.ID == "" {
		m.ID = idgen.New()
	}
	return nil
}

// Timestamps tracks creation and last modification time.
type Timestamps struct {
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	LastEdit  time.Time `gorm:"column:last_edit;autoUpdateTime" json:"last_edit"`
}

// Privacy controls who can see a user profile or a project.
type Privacy string

const (
	PrivacyPublic   Privacy = "public"
	PrivacyPrivate  Privacy = "private"
	PrivacyUnlisted Privacy = "unlisted"
)

func (p Privacy) Valid() bool {
	switch p {
	case PrivacyPublic, PrivacyPrivate, PrivacyUnlisted:
		return true
	}
	return false
}
