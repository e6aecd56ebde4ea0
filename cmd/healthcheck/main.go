package main

import (
	"encoding/json"
	"fmt"
	"log"
	"os"

	"github.com/advodocs/advodocs/internal/config"
	"github.com/advodocs/advodocs/internal/database"
	"github.com/advodocs/advodocs/internal/services"
)

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

	result := services.HealthCheck(cfg, db.Gorm, cfg.UploadDir)

	output, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		log.Fatalf("Failed to marshal health check result: %v", err)
	}

	fmt.Println(string(output))

	if result.Status != "healthy" {
		os.Exit(1)
	}
}
