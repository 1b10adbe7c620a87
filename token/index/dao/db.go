package dao

import (
	"context"
	"fmt"
	"time"

	"github.com/btcsuite/btclog"
	gormMysqlDriver "gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	tokenLog "github.com/token-overlay/tokend/token/log"
)

// DB is a struct that embeds gorm.DB to provide additional database functionality.
type DB struct {
	*gorm.DB
}

// DBOptions is a struct that holds the configuration options for the database.
type DBOptions struct {
	addr     string
	user     string
	password string
	dbName   string

	autoMigrateTables []interface{}
}

// DBOption is a function type that modifies DBOptions.
type DBOption func(*DBOptions)

// WithAddr returns a DBOption that sets the address of the database.
func WithAddr(addr string) DBOption {
	return func(o *DBOptions) {
		o.addr = addr
	}
}

// WithUser returns a DBOption that sets the user of the database.
func WithUser(user string) DBOption {
	return func(o *DBOptions) {
		o.user = user
	}
}

// WithPassword returns a DBOption that sets the password of the database.
func WithPassword(password string) DBOption {
	return func(o *DBOptions) {
		o.password = password
	}
}

// WithDBName returns a DBOption that sets the name of the database.
func WithDBName(dbName string) DBOption {
	return func(o *DBOptions) {
		o.dbName = dbName
	}
}

// WithAutoMigrateTables returns a DBOption that sets the tables to be auto migrated in the database.
func WithAutoMigrateTables(tables ...interface{}) DBOption {
	return func(o *DBOptions) {
		o.autoMigrateTables = tables
	}
}

// Transaction is a method on DB that executes a function within a database transaction.
func (d *DB) Transaction(fn func(tx *DB) error) error {
	return d.DB.Transaction(func(tx *gorm.DB) error {
		d := &DB{DB: tx}
		return fn(d)
	})
}

// NewDB is a function that creates a new DB instance with the provided options.
func NewDB(opts ...DBOption) (*DB, error) {
	options := &DBOptions{}
	for _, opt := range opts {
		opt(options)
	}

	conn := "%s:%s@tcp(%s)/%s?charset=utf8mb4&parseTime=True&loc=Local"
	dsn := fmt.Sprintf(conn, options.user, options.password, options.addr, "")

	db, err := gorm.Open(gormMysqlDriver.Open(dsn), &gorm.Config{Logger: logger.Discard})
	if err != nil {
		return nil, fmt.Errorf("gorm open :%v", err)
	}

	createDb := fmt.Sprintf("CREATE DATABASE IF NOT EXISTS %s;", options.dbName)
	if err = db.Exec(createDb).Error; err != nil {
		return nil, fmt.Errorf("gorm create database :%v", err)
	}

	dsn = fmt.Sprintf(conn, options.user, options.password, options.addr, options.dbName)
	db, err = gorm.Open(gormMysqlDriver.Open(dsn), &gorm.Config{Logger: &GormLogger{Logger: tokenLog.Gorm}})
	if err != nil {
		return nil, fmt.Errorf("gorm open :%v", err)
	}
	if err := db.AutoMigrate(options.autoMigrateTables...); err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("gorm db :%v", err)
	}
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetMaxIdleConns(50)

	return &DB{
		DB: db,
	}, nil
}

// GormLogger is a struct that embeds btclog.Logger to provide additional logging functionality.
type GormLogger struct {
	btclog.Logger
}

// LogMode is a method on GormLogger that sets the log level.
func (g *GormLogger) LogMode(level logger.LogLevel) logger.Interface {
	switch level {
	case logger.Silent:
		g.Logger.SetLevel(btclog.LevelOff)
	case logger.Error:
		g.Logger.SetLevel(btclog.LevelError)
	case logger.Warn:
		g.Logger.SetLevel(btclog.LevelWarn)
	case logger.Info:
		g.Logger.SetLevel(btclog.LevelInfo)
	}
	return g
}

// Info is a method on GormLogger that logs an info message.
func (g *GormLogger) Info(ctx context.Context, s string, i ...interface{}) {
	g.Logger.Infof(s, i...)
}

// Warn is a method on GormLogger that logs a warning message.
func (g *GormLogger) Warn(ctx context.Context, s string, i ...interface{}) {
	g.Logger.Warnf(s, i...)
}

// Error is a method on GormLogger that logs an error message.
func (g *GormLogger) Error(ctx context.Context, s string, i ...interface{}) {
	g.Logger.Errorf(s, i...)
}

// Trace is a method on GormLogger that logs a trace message with SQL details.
func (g *GormLogger) Trace(ctx context.Context, begin time.Time, fc func() (sql string, rowsAffected int64), err error) {
	sql, rows := fc()
	g.Logger.Tracef("sql: %s, rows: %d, err: %v, elapsed: %s", sql, rows, err, time.Since(begin))
}
