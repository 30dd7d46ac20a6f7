package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go-pos-ledger/internal/model"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type Options struct {
	DSN          string
	MaxOpenConns int
	MaxIdleConns int
	Debug        bool
}

func ConnectDB(opts Options) (*gorm.DB, error) {
	if opts.DSN == "" {
		return nil, errors.New("database: empty DSN")
	}
	level := logger.Warn
	if opts.Debug {
		level = logger.Info
	}

	db, err := gorm.Open(postgres.New(postgres.Config{
		DSN:                  opts.DSN,
		PreferSimpleProtocol: true, // Disables implicit prepared statements for pooled connections
	}), &gorm.Config{
		Logger:      NewLogger(level, time.Second),
		PrepareStmt: false,
	})
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	if opts.MaxIdleConns <= 0 {
		opts.MaxIdleConns = 10
	}
	if opts.MaxOpenConns <= 0 {
		opts.MaxOpenConns = 100
	}
	sqlDB.SetMaxIdleConns(opts.MaxIdleConns)
	sqlDB.SetMaxOpenConns(opts.MaxOpenConns)
	sqlDB.SetConnMaxLifetime(time.Hour)

	log.Info().Msg("Database connection established")
	return db, nil
}

// Migrate creates or updates every table the service owns.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&model.Privilege{},
		&model.Role{},
		&model.User{},
		&model.StockItem{},
		&model.Product{},
		&model.Recipe{},
		&model.RFIDTag{},
		&model.StockMovement{},
		&model.Receipt{},
		&model.AuditEntry{},
	)
}

// zlogger routes gorm's logging through zerolog.
type zlogger struct {
	level         logger.LogLevel
	slowThreshold time.Duration
}

func NewLogger(level logger.LogLevel, slowThreshold time.Duration) logger.Interface {
	return &zlogger{level: level, slowThreshold: slowThreshold}
}

func (l *zlogger) LogMode(level logger.LogLevel) logger.Interface {
	n := *l
	n.level = level
	return &n
}

func (l *zlogger) Info(ctx context.Context, msg string, args ...interface{}) {
	if l.level >= logger.Info {
		log.Ctx(ctx).Info().Msgf(msg, args...)
	}
}

func (l *zlogger) Warn(ctx context.Context, msg string, args ...interface{}) {
	if l.level >= logger.Warn {
		log.Ctx(ctx).Warn().Msgf(msg, args...)
	}
}

func (l *zlogger) Error(ctx context.Context, msg string, args ...interface{}) {
	if l.level >= logger.Error {
		log.Ctx(ctx).Error().Msgf(msg, args...)
	}
}

func (l *zlogger) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	if l.level <= logger.Silent {
		return
	}
	elapsed := time.Since(begin)

	var ev *zerolog.Event
	switch {
	case err != nil && !errors.Is(err, gorm.ErrRecordNotFound) && l.level >= logger.Error:
		ev = log.Ctx(ctx).Error().Err(err)
	case l.slowThreshold > 0 && elapsed > l.slowThreshold && l.level >= logger.Warn:
		ev = log.Ctx(ctx).Warn().Str("slow", l.slowThreshold.String())
	case l.level >= logger.Info:
		ev = log.Ctx(ctx).Debug()
	default:
		return
	}
	sql, rows := fc()
	ev.Dur("elapsed", elapsed).Int64("rows", rows).Str("sql", sql).Msg("gorm")
}
