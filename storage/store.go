package storage

import (
	"errors"

	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"refer-earn-bot/config"
	"refer-earn-bot/models"
)

var (
	ErrNotFound      = errors.New("not found")
	ErrInvalidAmount = errors.New("amount must be positive")
)

// Store owns the persisted state: users, channels, admins, settings and
// withdrawals.
type Store struct {
	db *gorm.DB
}

// Open connects to MySQL when a URI is configured, otherwise to a SQLite
// file, migrates the schema and seeds defaults.
func Open(cfg *config.Config) (*Store, error) {
	dialector := sqlite.Open(cfg.DBPath)
	if cfg.MySQLURI != "" {
		dialector = mysql.Open(cfg.MySQLURI)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, err
	}

	return New(db, cfg.OwnerID)
}

// New wraps an already-open gorm handle, migrating the schema and seeding
// default settings plus the owner admin.
func New(db *gorm.DB, ownerID int64) (*Store, error) {
	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		return nil, err
	}
	if err := s.seed(ownerID); err != nil {
		return nil, err
	}
	return s, nil
}

// Ping reports whether the underlying database is reachable.
func (s *Store) Ping() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}

func (s *Store) migrate() error {
	return s.db.AutoMigrate(
		&models.User{},
		&models.Channel{},
		&models.Admin{},
		&models.Setting{},
		&models.Withdrawal{},
	)
}

// seed writes default settings for missing keys and makes the owner an
// admin. Existing rows are left alone.
func (s *Store) seed(ownerID int64) error {
	for key, value := range settingDefaults {
		var setting models.Setting
		res := s.db.Where(models.Setting{Key: key}).
			Attrs(models.Setting{Value: value}).
			FirstOrCreate(&setting)
		if res.Error != nil {
			return res.Error
		}
	}
	if ownerID != 0 {
		if _, err := s.AddAdmin(ownerID); err != nil {
			return err
		}
	}
	return nil
}
