package main

import (
	"log"

	"focusblock/internal/config"
	"focusblock/internal/db"
	"focusblock/internal/handler"
	"focusblock/internal/repository"
	"focusblock/internal/router"
	"focusblock/internal/service"
)

func main() {
	cfg := config.Load()

	database, err := db.OpenSQLite(cfg.DBPath)
	if err != nil {
		log.Fatalf("open database: %v", err)
	}
	defer database.Close()

	if err := db.RunMigrations(database, cfg.MigrationsDir); err != nil {
		log.Fatalf("run migrations: %v", err)
	}

	userRepo := repository.NewUserRepository(database)
	sessionRepo := repository.NewSessionRepository(database)
	departmentRepo := repository.NewDepartmentRepository(database)
	projectRepo := repository.NewProjectRepository(database)

	authService := service.NewAuthService(userRepo, cfg.JWTSecret, cfg.TokenTTL)
	sessionService := service.NewSessionService(sessionRepo, departmentRepo, projectRepo)
	catalogService := service.NewCatalogService(departmentRepo, projectRepo)

	authHandler := handler.NewAuthHandler(authService)
	sessionHandler := handler.NewSessionHandler(sessionService)
	catalogHandler := handler.NewCatalogHandler(catalogService)

	engine := router.New(authService, authHandler, sessionHandler, catalogHandler, cfg.CORSOrigins)
	log.Printf("focusblock api listening on :%s", cfg.Port)
	if err := engine.Run(":" + cfg.Port); err != nil {
		log.Fatalf("run server: %v", err)
	}
}
