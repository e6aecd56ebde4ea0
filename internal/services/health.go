package services

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/advodocs/advodocs/internal/config"
	"gorm.io/gorm"
)

// HealthCheckResult represents the result of a health check
type HealthCheckResult struct {
	Status       string            `json:"status"`
	Timestamp    string            `json:"timestamp"`
	Database     string            `json:"database"`
	Storage      string            `json:"storage"`
	Details      map[string]string `json:"details,omitempty"`
	ErrorMessage string            `json:"error,omitempty"`
}

// HealthCheck verifies database connectivity and upload-dir writability.
func HealthCheck(cfg *config.Config, db *gorm.DB, uploadDir string) HealthCheckResult {
	result := HealthCheckResult{
		Status:    "healthy",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Details:   make(map[string]string),
	}

	// Check database connectivity
	sqlDB, err := db.DB()
	if err != nil {
		result.Status = "unhealthy"
		result.Database = "error"
		result.Details["database_error"] = err.Error()
		result.ErrorMessage = fmt.Sprintf("Database connection error: %v", err)
		log.Printf("Health check failed - database connection: %v", err)
	} else {
		if err := sqlDB.Ping(); err != nil {
			result.Status = "unhealthy"
			result.Database = "unreachable"
			result.Details["database_ping_error"] = err.Error()
			result.ErrorMessage = fmt.Sprintf("Database ping failed: %v", err)
			log.Printf("Health check failed - database ping: %v", err)
		} else {
			result.Database = "ok"
			result.Details["database_type"] = cfg.DBType
			result.Details["database_name"] = cfg.DBName
		}
	}

	// Check upload storage writability
	probe := filepath.Join(uploadDir, ".healthcheck")
	if err := os.WriteFile(probe, []byte("ok"), 0o644); err != nil {
		result.Status = "unhealthy"
		result.Storage = "unwritable"
		result.Details["storage_error"] = err.Error()
		if result.ErrorMessage == "" {
			result.ErrorMessage = fmt.Sprintf("Upload dir not writable: %v", err)
		} else {
			result.ErrorMessage += fmt.Sprintf("; upload dir not writable: %v", err)
		}
		log.Printf("Health check failed - upload dir: %v", err)
	} else {
		_ = os.Remove(probe)
		result.Storage = "ok"
		result.Details["upload_dir"] = uploadDir
	}

	return result
}
