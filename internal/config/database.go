package config

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Database drivers
const (
	DriverSQLite = "sqlite"
	DriverMySQL  = "mysql"
)

// ConnectDatabase opens the sandbox database. An unset driver means SQLite.
func ConnectDatabase(cfg *Config) (*gorm.DB, error) {
	d := cfg.Database

	// Configure GORM logger based on mode
	level := logger.Error
	if cfg.IsDev() {
		level = logger.Warn
	}
	gormLogger := logger.New(log.New(os.Stdout, "\r\n", log.LstdFlags), logger.Config{
		SlowThreshold:             200 * time.Millisecond,
		LogLevel:                  level,
		IgnoreRecordNotFoundError: true,
	})

	var dialector gorm.Dialector
	switch d.Driver {
	case DriverMySQL:
		dialector = mysql.Open(buildDSN(d))
	case DriverSQLite, "":
		dialector = sqlite.Open(sqliteDSN(d.DBName))
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", d.Driver)
	}

	// Open connection
	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         gormLogger,
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Get underlying sql.DB for connection pool settings
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	if d.Driver == DriverMySQL {
		sqlDB.SetMaxIdleConns(10)
		sqlDB.SetMaxOpenConns(100)
		sqlDB.SetConnMaxLifetime(time.Hour)
	} else {
		// SQLite serializes writers; one connection also keeps an in-memory
		// database alive for the life of the pool.
		sqlDB.SetMaxOpenConns(1)
	}

	// Test connection
	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	log.Printf("✅ Database connected successfully [%s]", describeDatabase(d))
	return db, nil
}

// buildDSN returns the MySQL connection string
func buildDSN(d DatabaseConfig) string {
	return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		d.User,
		d.Password,
		d.Host,
		d.Port,
		d.DBName,
	)
}

// sqliteDSN names a private in-memory database when no file is configured,
// so every server gets a fresh one.
func sqliteDSN(file string) string {
	if file == "" {
		return fmt.Sprintf("file:payego-%s?mode=memory&cache=shared&_pragma=busy_timeout(5000)", uuid.NewString())
	}
	return file + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
}

func describeDatabase(d DatabaseConfig) string {
	if d.Driver == DriverMySQL {
		return fmt.Sprintf("mysql %s:%s/%s", d.Host, d.Port, d.DBName)
	}
	if d.DBName == "" {
		return "sqlite in-memory"
	}
	return "sqlite " + d.DBName
}

// CloseDatabase closes the database connection
func CloseDatabase(db *gorm.DB) error {
	if db == nil {
		return nil
	}

	sqlDB, err := db.DB()
	if err != nil {
		return err
	}

	return sqlDB.Close()
}

// PingDatabase checks if database is healthy
func PingDatabase(db *gorm.DB) error {
	if db == nil {
		return fmt.Errorf("database not initialized")
	}

	sqlDB, err := db.DB()
	if err != nil {
		return err
	}

	return sqlDB.Ping()
}
