// Package app assembles repositories, services and HTTP routes into one router.
package app

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"modlog/internal/config"
	"modlog/internal/database"
	"modlog/internal/domain/auth"
	"modlog/internal/domain/comment"
	"modlog/internal/domain/image"
	"modlog/internal/domain/notify"
	"modlog/internal/domain/post"
	"modlog/internal/domain/project"
	"modlog/internal/middleware"
	jwtsvc "modlog/internal/pkg/jwt"
)

// Models lists every table the API owns, in dependency order.
func Models() []any {
	return []any{
		&auth.User{},
		&project.Project{},
		&project.Follow{},
		&image.Image{},
		&post.Post{},
		&comment.Comment{},
	}
}

func Migrate(db *gorm.DB) error {
	return database.Migrate(db, Models()...)
}

type App struct {
	Router *gin.Engine
	Hub    *notify.Hub
	JWT    *jwtsvc.Service
}

// New wires the API on top of an open, migrated database.
func New(cfg *config.Config, db *gorm.DB, log *zap.Logger) *App {
	j := jwtsvc.New(cfg.JWTSecret, cfg.JWTTTL)

	// repositories
	userRepo := auth.NewUserRepository(db)
	projectRepo := project.NewRepository(db)
	followRepo := project.NewFollowRepository(db)
	imageRepo := image.NewRepository(db)
	postRepo := post.NewRepository(db)
	commentRepo := comment.NewRepository(db)

	// live notifications
	hub := notify.NewHub(log)
	notifier := notify.NewNotifier(hub, followRepo, log)

	// services
	imageService := image.NewService(imageRepo, image.NewLocalStore(cfg.Upload.Root, cfg.Upload.Quality), cfg.Upload, log)
	postService := post.NewService(postRepo, notifier, log)
	commentService := comment.NewService(commentRepo, notifier, log)

	projectService := project.NewService(projectRepo, followRepo, log,
		imageService.RemoveProjectImages,
		postService.DeleteByProject,
		commentService.DeleteByProject,
	)

	authService := auth.NewService(userRepo, projectService, j, log,
		projectService.DeleteAllByOwner,
		imageService.RemoveProfileImages,
		projectService.RemoveFollowsOf,
		commentService.DeleteByAuthor,
	)
	profilePictures := image.NewProfilePictures(imageService, authService)

	// handlers
	authHandler := auth.NewHandler(authService)
	projectHandler := project.NewHandler(projectService)
	imageHandler := image.NewHandler(imageService, profilePictures)
	postHandler := post.NewHandler(postService)
	commentHandler := comment.NewHandler(commentService)
	notifyHandler := notify.NewHandler(hub, j, cfg.CORSOrigins)

	r := gin.New()
	r.Use(middleware.RequestLogger(log))
	r.Use(middleware.CORS(cfg.CORSOrigins))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	guard := project.NewGuard(projectRepo)
	access := middleware.ProjectAccess(guard)

	image.RegisterStatic(r, cfg.Upload.StaticURLBase, imageHandler, guard, middleware.OptionalAuth(j))
	notify.RegisterRoutes(r, notifyHandler)

	v1 := r.Group("/api/v1")
	{
		public := v1.Group("")
		public.Use(middleware.OptionalAuth(j))

		protected := v1.Group("")
		protected.Use(middleware.JWTAuth(j))

		authHandler.RegisterPublicRoutes(public)
		authHandler.RegisterProtectedRoutes(protected)
		project.RegisterRoutes(public, protected, projectHandler, access)
		image.RegisterRoutes(public, protected, imageHandler, access)
		post.RegisterRoutes(public, protected, postHandler, access)
		comment.RegisterRoutes(public, protected, commentHandler, access)
	}

	return &App{Router: r, Hub: hub, JWT: j}
}
