package main

import (
	"context"
	"log"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/altasolucion/visit-tracker/internal/config"
	"github.com/altasolucion/visit-tracker/internal/database"
	"github.com/altasolucion/visit-tracker/internal/database/migrations"
	"github.com/altasolucion/visit-tracker/internal/handler"
	"github.com/altasolucion/visit-tracker/internal/repository"
	"github.com/altasolucion/visit-tracker/internal/router"
	queue_publisher "github.com/altasolucion/visit-tracker/internal/service"
	"github.com/altasolucion/visit-tracker/internal/storage"
	"github.com/altasolucion/visit-tracker/internal/view"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	if err := migrations.Up(db); err != nil {
		log.Fatalf("migrations: %v", err)
	}

	users := repository.NewUserRepo(db, cfg.BcryptCost)
	if err := database.Seed(context.Background(), users); err != nil {
		log.Fatalf("seed: %v", err)
	}

	files := storage.NewFileStore(cfg.UploadDir)
	visits := repository.NewVisitRepo(db, files)

	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Printf("redis unavailable: login rate limiting disabled")
	}

	visitHandler := handler.NewVisitHandler(visits)
	visitHandler.Publish = queue_publisher.PublishVisitCreated

	e := echo.New()
	e.Renderer = view.New()
	router.Register(e, router.Deps{
		Cfg:       cfg,
		RateLimit: config.LoadRateLimitConfig(),
		Redis:     rdb,
		Auth:      handler.NewAuthHandler(cfg, users),
		Visits:    visitHandler,
		Admin:     handler.NewUserAdminHandler(users),
	})

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
