package storage

import (
	"fmt"
	"log"
	"os"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"careergpt-api/internal/config"
	"careergpt-api/internal/logging"
)

// Gateway is the process-wide persistence handle: opened once at startup,
// injected into every handler, closed once at shutdown. A nil *Gateway is a
// valid degraded state - reads return empty results and writes return
// explicit errors, matching the behavior when persistence is unconfigured.
type Gateway struct {
	db       *gorm.DB
	logger   logging.Logger
	Analyses AnalysisRepo
	Progress ProgressRepo
}

// NewGateway opens the database connection and runs schema migration.
// Returns (nil, nil) when no database is configured so the caller can start
// in degraded mode instead of crashing.
func NewGateway(cfg *config.Config) (*Gateway, error) {
	logger := logging.GetGlobalLogger()

	if !cfg.HasDatabase() {
		logger.Warn("No database configured - persistence disabled, reads degrade to empty results")
		return nil, nil
	}

	dsn := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		cfg.Database.Host,
		cfg.Database.Port,
		cfg.Database.User,
		cfg.Database.Password,
		cfg.Database.Name,
		cfg.Database.SSLMode,
	)

	gormLog := gormlogger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		gormlogger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  gormlogger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: gormLog,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Postgres: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to access connection pool: %w", err)
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(5 * time.Minute)

	if err := db.AutoMigrate(&Analysis{}, &RoadmapProgress{}); err != nil {
		return nil, fmt.Errorf("failed to migrate schema: %w", err)
	}

	logger.Info("Database connected", map[string]interface{}{
		"host": cfg.Database.Host,
		"name": cfg.Database.Name,
	})

	return NewGatewayWithDB(db), nil
}

// NewGatewayWithDB wires a gateway over an already-open gorm handle.
// Tests use it with a sqlite-backed handle.
func NewGatewayWithDB(db *gorm.DB) *Gateway {
	return &Gateway{
		db:       db,
		logger:   logging.GetGlobalLogger(),
		Analyses: NewAnalysisRepo(db),
		Progress: NewProgressRepo(db),
	}
}

// Available reports whether the gateway can serve queries
func (g *Gateway) Available() bool {
	return g != nil && g.db != nil
}

// Transaction runs fn inside a single database transaction
func (g *Gateway) Transaction(fn func(tx *gorm.DB) error) error {
	if !g.Available() {
		return fmt.Errorf("persistence not configured")
	}
	return g.db.Transaction(fn)
}

// Close releases the underlying connection pool
func (g *Gateway) Close() error {
	if !g.Available() {
		return nil
	}
	sqlDB, err := g.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
