package image

import (
	"modlog/internal/domain"
)

// Category names both the owner kind of an image and the directory its
// files live in under the upload root.
type Category string

const (
	CategoryProject Category = "project_pictures"
	CategoryProfile Category = "profile_pictures"
)

func (c Category) Valid() bool {
	return c == CategoryProject || c == CategoryProfile
}

// OwnerTable is the table holding the parent rows for this category.
func (c Category) OwnerTable() string {
	switch c {
	case CategoryProject:
		return "projects"
	case CategoryProfile:
		return "users"
	}
	return ""
}

// SupportedExtensions is the schema-level set of extensions an image row may carry.
var SupportedExtensions = []string{"png", "jpg", "jpeg", "gif"}

// Owner references the parent entity of an image.
type Owner struct {
	Category Category
	ID       string
}

func ProjectOwner(projectID string) Owner { return Owner{Category: CategoryProject, ID: projectID} }

func ProfileOwner(userID string) Owner { return Owner{Category: CategoryProfile, ID: userID} }

// Image is the metadata row for one uploaded picture. Its files are
// {category}/{id}.{extension} and {category}/thumbnails/{id}.{extension}.
type Image struct {
	domain.Identifiable
	Category    Category `gorm:"column:category;type:varchar(32);not null;index:idx_images_owner"`
	OwnerID     string   `gorm:"column:owner_id;type:varchar(32);not null;index:idx_images_owner"`
	UploadIP    string   `gorm:"column:upload_ip;type:varchar(64)"`
	Extension   string   `gorm:"column:extension;type:varchar(8);not null"`
	Description string   `gorm:"column:description;type:varchar(120)"`
	domain.Timestamps
}

func (Image) TableName() string { return "images" }

// Filename is derived, never stored.
func (i *Image) Filename() string { return i.ID + "." + i.Extension }

func (i *Image) Owner() Owner { return Owner{Category: i.Category, ID: i.OwnerID} }
