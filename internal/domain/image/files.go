package image

import (
	"errors"
	"path"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"

	"modlog/internal/domain/project"
	"modlog/internal/pkg/idgen"
)

// ServeFile handles GET {static_base}/:category/*file. Only files that belong
// to an image row are served, and project pictures follow the project's
// privacy. Profile pictures are public.
func (h *Handler) ServeFile(guard *project.Guard) gin.HandlerFunc {
	return func(c *gin.Context) {
		category := Category(c.Param("category"))
		dir, name := path.Split(strings.TrimPrefix(c.Param("file"), "/"))
		dir = strings.TrimSuffix(dir, "/")
		if !category.Valid() || (dir != "" && dir != thumbnailDir) || strings.HasPrefix(name, ".") {
			writeError(c, ErrImageNotFound)
			return
		}

		id := strings.TrimSuffix(name, path.Ext(name))
		if !idgen.Valid(id) {
			writeError(c, ErrImageNotFound)
			return
		}
		ctx := c.Request.Context()
		img, err := h.service.Get(ctx, id)
		if err == nil && (img.Category != category || img.Filename() != name) {
			err = ErrImageNotFound
		}
		if err != nil {
			writeError(c, err)
			return
		}

		if category == CategoryProject {
			_, err := guard.Resolve(ctx, c.GetString("user_id"), img.OwnerID)
			if errors.Is(err, project.ErrProjectNotFound) {
				writeError(c, ErrImageNotFound)
				return
			}
			if err != nil {
				project.WriteAccessError(c, err)
				return
			}
		}

		present := h.service.files.Exists(name, string(category))
		if dir == thumbnailDir {
			present = h.service.files.ThumbnailExists(name, string(category))
		}
		if !present {
			writeError(c, ErrImageNotFound)
			return
		}
		c.Header("Cache-Control", "private, max-age=3600")
		c.File(filepath.Join(h.service.cfg.Root, string(category), dir, name))
	}
}
