package main

import (
	"bytes"
	"context"
	"fmt"
	"image/color"
	"math/rand"

	"github.com/disintegration/imaging"
	"go.uber.org/zap"

	"modlog/internal/app"
	"modlog/internal/config"
	"modlog/internal/database"
	"modlog/internal/domain"
	"modlog/internal/domain/auth"
	"modlog/internal/domain/comment"
	"modlog/internal/domain/image"
	"modlog/internal/domain/post"
	"modlog/internal/domain/project"
	"modlog/internal/logging"
	jwtsvc "modlog/internal/pkg/jwt"
)

type demoBuild struct {
	owner string
	req   project.ProjectRequest
}

var demoUsers = []string{"drifter86", "boostedwagon", "trackrat"}

var demoBuilds = []demoBuild{
	{"drifter86", project.ProjectRequest{
		Name: "AE86 Trueno", Year: 1986, Make: "Toyota", Model: "Sprinter Trueno",
		Horsepower: 165, Torque: 120, Weight: 940, Drivetrain: project.DrivetrainRWD, EngineSize: 1.6,
		Mods:        []string{"4A-GE 20v swap", "Coilovers", "Welded diff"},
		Description: "Touge build, still on the original shell.",
	}},
	{"boostedwagon", project.ProjectRequest{
		Name: "Legacy GT wagon", Year: 2005, Make: "Subaru", Model: "Legacy",
		Horsepower: 300, Torque: 380, Weight: 1550, Drivetrain: project.DrivetrainAWD, EngineSize: 2.0,
		Mods: []string{"VF40 turbo", "Front mount intercooler"},
	}},
	{"trackrat", project.ProjectRequest{
		Name: "Miata NB", Year: 2001, Make: "Mazda", Model: "MX-5",
		Horsepower: 140, Torque: 160, Weight: 1070, Drivetrain: project.DrivetrainRWD, EngineSize: 1.8,
		Privacy: domain.PrivacyUnlisted,
	}},
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	log := logging.Must(cfg.LogLevel, false)
	defer func() { _ = log.Sync() }()

	db, err := database.Connect(cfg.DatabaseURL, log)
	if err != nil {
		log.Fatal("database connect failed", zap.Error(err))
	}
	defer func() { _ = database.Close(db) }()

	if err := app.Migrate(db); err != nil {
		log.Fatal("migration failed", zap.Error(err))
	}

	ctx := context.Background()
	followRepo := project.NewFollowRepository(db)
	imageService := image.NewService(image.NewRepository(db), image.NewLocalStore(cfg.Upload.Root, cfg.Upload.Quality), cfg.Upload, log)
	projectService := project.NewService(project.NewRepository(db), followRepo, log)
	authService := auth.NewService(auth.NewUserRepository(db), projectService, jwtsvc.New(cfg.JWTSecret, cfg.JWTTTL), log)
	postService := post.NewService(post.NewRepository(db), nil, log)
	commentService := comment.NewService(comment.NewRepository(db), nil, log)

	users := make(map[string]*auth.User, len(demoUsers))
	for _, name := range demoUsers {
		u, _, err := authService.Signup(ctx, &auth.SignupRequest{
			Username: name,
			Email:    name + "@modlog.local",
			Password: "password123",
		})
		if err != nil {
			log.Fatal("create user failed", zap.String("username", name), zap.Error(err))
		}
		users[name] = u
		log.Info("user created", zap.String("username", name), zap.String("password", "password123"))
	}

	for i, b := range demoBuilds {
		owner := users[b.owner]
		req := b.req
		p, err := projectService.Create(ctx, owner.ID, &req)
		if err != nil {
			log.Fatal("create project failed", zap.String("name", req.Name), zap.Error(err))
		}
		ownerAccess := &project.Access{PrincipalID: owner.ID, Project: p, Owner: true}

		for n := 1; n <= 2; n++ {
			data, err := demoPicture(n + i)
			if err != nil {
				log.Fatal("render picture failed", zap.Error(err))
			}
			if _, err := imageService.Add(ctx, image.AddInput{
				Data:        data,
				Filename:    fmt.Sprintf("build-%d.jpg", n),
				Owner:       image.ProjectOwner(p.ID),
				UploadIP:    "127.0.0.1",
				Description: fmt.Sprintf("%s, photo %d", p.Name, n),
			}); err != nil {
				log.Fatal("add picture failed", zap.Error(err))
			}
		}

		if _, err := postService.Create(ctx, ownerAccess, &post.PostRequest{
			Title:   "Picked it up",
			Content: "Bought the car this weekend. Plenty of work ahead.",
		}); err != nil {
			log.Fatal("create update failed", zap.Error(err))
		}

		for _, name := range demoUsers {
			if name == b.owner {
				continue
			}
			fan := &project.Access{PrincipalID: users[name].ID, Project: p}
			if err := projectService.Follow(ctx, fan); err != nil {
				log.Fatal("follow failed", zap.Error(err))
			}
			c, err := commentService.Create(ctx, fan, &comment.CreateRequest{Content: "Clean build!"})
			if err != nil {
				log.Fatal("create comment failed", zap.Error(err))
			}
			if _, err := commentService.Create(ctx, ownerAccess, &comment.CreateRequest{Content: "Thanks!", ParentID: c.ID}); err != nil {
				log.Fatal("create reply failed", zap.Error(err))
			}
		}
		log.Info("project created", zap.String("name", p.Name), zap.String("owner", b.owner))
	}

	log.Info("seed completed")
}

// demoPicture renders a flat-colored placeholder photo.
func demoPicture(seed int) ([]byte, error) {
	r := rand.New(rand.NewSource(int64(seed)))
	fill := color.NRGBA{R: uint8(r.Intn(256)), G: uint8(r.Intn(256)), B: uint8(r.Intn(256)), A: 255}
	img := imaging.New(800, 600, fill)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
