package database

import (
	"fmt"
	"log"
	"time"

	"github.com/advodocs/advodocs/internal/config"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/driver/sqlserver"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// DB owns the connection pool and the background liveness probe. It is
// constructed once in main and passed down; there is no package-level
// instance.
type DB struct {
	Gorm *gorm.DB

	dbType    string
	probeStop chan struct{}
	probeDone chan struct{}
}

// Connect establishes a database connection based on the configured DB_TYPE
// and verifies connectivity before returning.
func Connect(cfg *config.Config) (*DB, error) {
	var dialector gorm.Dialector

	switch cfg.DBType {
	case "mysql", "mariadb":
		dsn := fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=Local",
			cfg.DBUser,
			cfg.DBPassword,
			cfg.DBHost,
			cfg.DBPort,
			cfg.DBName,
		)
		dialector = mysql.Open(dsn)

	case "postgres", "postgresql":
		dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=disable TimeZone=UTC",
			cfg.DBHost,
			cfg.DBUser,
			cfg.DBPassword,
			cfg.DBName,
			cfg.DBPort,
		)
		dialector = postgres.Open(dsn)

	case "sqlite":
		// For SQLite, DB_NAME is the file path
		dialector = sqlite.Open(cfg.DBName)

	case "sqlserver", "mssql":
		dsn := fmt.Sprintf("sqlserver://%s:%s@%s:%s?database=%s",
			cfg.DBUser,
			cfg.DBPassword,
			cfg.DBHost,
			cfg.DBPort,
			cfg.DBName,
		)
		dialector = sqlserver.Open(dsn)

	default:
		return nil, fmt.Errorf("unsupported database type: %s", cfg.DBType)
	}

	gdb, err := gorm.Open(dialector, &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Warn),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Get underlying SQL DB for connection pool configuration
	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying SQL DB: %w", err)
	}

	sqlDB.SetMaxOpenConns(cfg.DBMaxConns)
	sqlDB.SetMaxIdleConns(cfg.DBMinIdle)
	sqlDB.SetConnMaxIdleTime(cfg.DBIdleTimeout)

	db := &DB{Gorm: gdb, dbType: cfg.DBType}

	if err := db.verifyConnection(3); err != nil {
		return nil, err
	}

	log.Printf("Connected to %s database: %s", cfg.DBType, cfg.DBName)

	return db, nil
}

// verifyConnection pings the database, retrying on failure with a fixed
// 2 second pause between attempts.
func (d *DB) verifyConnection(attempts int) error {
	sqlDB, err := d.Gorm.DB()
	if err != nil {
		return err
	}

	for i := 0; i < attempts; i++ {
		err = sqlDB.Ping()
		if err == nil {
			return nil
		}
		log.Printf("Connection attempt %d/%d failed: %v", i+1, attempts, err)
		if i < attempts-1 {
			time.Sleep(2 * time.Second)
		}
	}
	return fmt.Errorf("database unreachable after %d attempts: %w", attempts, err)
}

// Type returns the configured dialect name.
func (d *DB) Type() string {
	return d.dbType
}

// StartProbe launches the periodic liveness check. A failed probe is logged
// and never terminates the process; the pool recovers on its own once the
// server is reachable again.
func (d *DB) StartProbe(interval time.Duration) {
	if d.probeStop != nil {
		return
	}
	d.probeStop = make(chan struct{})
	d.probeDone = make(chan struct{})

	go func() {
		defer close(d.probeDone)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if err := d.Gorm.Exec("SELECT 1").Error; err != nil {
					log.Printf("Liveness probe failed: %v", err)
				}
			case <-d.probeStop:
				return
			}
		}
	}()
}

// Close stops the liveness probe and closes the connection pool.
func (d *DB) Close() error {
	if d.probeStop != nil {
		close(d.probeStop)
		<-d.probeDone
		d.probeStop = nil
	}
	sqlDB, err := d.Gorm.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
