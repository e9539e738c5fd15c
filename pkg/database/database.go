package database

import (
	"fmt"
	"survey_backend/internal/config"
	"survey_backend/internal/model"
	"survey_backend/pkg/logger"

	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func dialector(cfg *config.DatabaseConfig) (gorm.Dialector, error) {
	switch cfg.Driver {
	case "", "mysql":
		dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=%s&parseTime=%t&loc=Local",
			cfg.User,
			cfg.Password,
			cfg.Host,
			cfg.Port,
			cfg.DBName,
			cfg.Charset,
			cfg.ParseTime,
		)
		return mysql.Open(dsn), nil
	case "postgres":
		sslMode := cfg.SSLMode
		if sslMode == "" {
			sslMode = "disable"
		}
		dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
			cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName, sslMode)
		return postgres.Open(dsn), nil
	case "sqlite":
		return sqlite.Open(cfg.Path + "?_foreign_keys=on"), nil
	}
	return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
}

// Open connects with duplicate-key translation enabled, which the
// submission path relies on to detect a second response for the same student.
func Open(d gorm.Dialector, logLevel gormlogger.LogLevel) (*gorm.DB, error) {
	return gorm.Open(d, &gorm.Config{
		Logger:         gormlogger.Default.LogMode(logLevel),
		TranslateError: true,
	})
}

func InitDB(cfg *config.Config) (*gorm.DB, error) {
	d, err := dialector(&cfg.Database)
	if err != nil {
		return nil, err
	}

	level := gormlogger.Warn
	if cfg.Server.Mode == "debug" {
		level = gormlogger.Info
	}

	db, err := Open(d, level)
	if err != nil {
		return nil, err
	}

	logger.Log.Info("Database connection established", zap.String("driver", d.Name()))

	if cfg.Server.Mode != "release" || cfg.ForceMigrate {
		if err := Migrate(db); err != nil {
			return nil, err
		}
		logger.Log.Info("Database migration completed")
	}

	if err := SeedSections(db, cfg.Seed.Sections); err != nil {
		return nil, err
	}

	return db, nil
}

func Migrate(db *gorm.DB) error {
	if err := db.SetupJoinTable(&model.Survey{}, "AssignedSections", &model.SurveySection{}); err != nil {
		return err
	}
	return db.AutoMigrate(
		&model.Section{},
		&model.User{},
		&model.Profile{},
		&model.Survey{},
		&model.SurveySection{},
		&model.Question{},
		&model.Choice{},
		&model.Response{},
		&model.Answer{},
	)
}

// SeedSections inserts the configured sections when the table is empty.
func SeedSections(db *gorm.DB, sections []config.SeedSection) error {
	if len(sections) == 0 {
		return nil
	}

	var count int64
	if err := db.Model(&model.Section{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	for _, s := range sections {
		if err := db.Create(&model.Section{Name: s.Name, Description: s.Description}).Error; err != nil {
			return err
		}
	}
	return nil
}
