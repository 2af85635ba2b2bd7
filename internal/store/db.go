// Package store is the data access layer over gorm.
package store

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"yatube/internal/config"
	"yatube/internal/models"
)

// Open connects to PostgreSQL when DB_HOST is configured and to the
// SQLite file otherwise.
func Open(cfg *config.Config, logger *logrus.Logger) (*gorm.DB, error) {
	var dialector gorm.Dialector
	if cfg.DBHost == "" {
		logger.WithField("path", cfg.Database).Info("Connecting to SQLite database")
		dialector = sqlite.Open(sqliteDSN(cfg.Database))
	} else {
		logger.WithField("host", cfg.DBHost).Info("Connecting to PostgreSQL database")
		dialector = postgres.Open(cfg.PostgresDSN())
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         newGormLogger(logger),
		TranslateError: true,
	})
	if err != nil {
		logger.WithError(err).Error("Failed to connect to the database")
		return nil, err
	}

	logger.Info("Database connection successful")
	return db, nil
}

// OpenMemory returns a private in-memory SQLite database, mostly for tests.
func OpenMemory(name string) (*gorm.DB, error) {
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_foreign_keys=on", name)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	if err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	// shared-cache memory databases lock per table; one connection avoids it
	sqlDB.SetMaxOpenConns(1)
	return db, nil
}

func sqliteDSN(path string) string {
	return "file:" + path + "?_foreign_keys=on"
}

func newGormLogger(logger *logrus.Logger) gormlogger.Interface {
	return gormlogger.New(logger, gormlogger.Config{
		SlowThreshold:             200 * time.Millisecond,
		LogLevel:                  gormlogger.Warn,
		IgnoreRecordNotFoundError: true,
	})
}

// Migrate creates or updates the tables and their constraints.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(models.All()...); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

type Store struct {
	DB       *gorm.DB
	Users    *UserService
	Groups   *GroupService
	Posts    *PostService
	Comments *CommentService
	Follows  *FollowService
}

func New(db *gorm.DB) *Store {
	return &Store{
		DB:       db,
		Users:    &UserService{db: db},
		Groups:   &GroupService{db: db},
		Posts:    &PostService{db: db},
		Comments: &CommentService{db: db},
		Follows:  &FollowService{db: db},
	}
}
