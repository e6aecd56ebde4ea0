package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/advodocs/advodocs/internal/app"
	"github.com/advodocs/advodocs/internal/config"
	"github.com/advodocs/advodocs/internal/database"
	"github.com/advodocs/advodocs/internal/storage"

	_ "github.com/advodocs/advodocs/docs/api" // Swagger docs
)

// @title Advodocs API
// @version 1.0.0
// @description Document management service for legal offices
// @termsOfService http://swagger.io/terms/

// @contact.name API Support
// @contact.url https://github.com/advodocs/advodocs

// @license.name MIT

// @host localhost:3001
// @BasePath /api
// @schemes http https

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := database.EnsureSchema(db.Gorm); err != nil {
		log.Fatalf("Failed to prepare schema: %v", err)
	}

	db.StartProbe(cfg.DBProbeEvery)

	store, err := storage.NewLocal(cfg.UploadDir)
	if err != nil {
		log.Fatalf("Failed to prepare upload directory: %v", err)
	}

	srv := app.New(cfg, db.Gorm, store)

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-c
		log.Println("Gracefully shutting down...")
		_ = srv.Shutdown()
	}()

	log.Printf("Starting server on port %s (%s, %s)", cfg.Port, cfg.Env, db.Type())
	if err := srv.Listen(":" + cfg.Port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}

	log.Println("Server stopped")
}
