package image

import "time"

type Response struct {
	ID           string    `json:"id"`
	OwnerID      string    `json:"owner_id"`
	Category     Category  `json:"category"`
	Extension    string    `json:"extension"`
	Filename     string    `json:"filename"`
	Description  string    `json:"description,omitempty"`
	URL          string    `json:"url"`
	ThumbnailURL string    `json:"thumbnail_url"`
	CreatedAt    time.Time `json:"created_at"`
	LastEdit     time.Time `json:"last_edit"`
}

type RemoveResponse struct {
	ID             string `json:"id"`
	Removed        bool   `json:"removed"`
	PartialCleanup bool   `json:"partial_cleanup"`
}

func (s *Service) toResponse(img *Image) Response {
	return Response{
		ID:           img.ID,
		OwnerID:      img.OwnerID,
		Category:     img.Category,
		Extension:    img.Extension,
		Filename:     img.Filename(),
		Description:  img.Description,
		URL:          s.URL(img),
		ThumbnailURL: s.ThumbnailURL(img),
		CreatedAt:    img.CreatedAt,
		LastEdit:     img.LastEdit,
	}
}
