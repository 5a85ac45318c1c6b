package logger

import (
	"context"
	"errors"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
	gormlogger "gorm.io/gorm/logger"
)

// Gorm adapts a zap logger to gorm's logger interface. Record-not-found
// errors are not logged: the stores treat them as a normal outcome.
type Gorm struct {
	log           *zap.Logger
	level         gormlogger.LogLevel
	slowThreshold time.Duration
}

// NewGorm returns a gorm logger writing to base under the "gorm" name.
func NewGorm(base *zap.Logger, level gormlogger.LogLevel) *Gorm {
	return &Gorm{log: base.Named("gorm"), level: level, slowThreshold: 200 * time.Millisecond}
}

// GormLevel maps LOG_LEVEL values onto gorm levels. SQL statements are
// only traced at debug.
func GormLevel(level string) gormlogger.LogLevel {
	switch ParseLevel(level).String() {
	case "debug":
		return gormlogger.Info
	case "error":
		return gormlogger.Error
	default:
		return gormlogger.Warn
	}
}

func (g *Gorm) LogMode(level gormlogger.LogLevel) gormlogger.Interface {
	cp := *g
	cp.level = level
	return &cp
}

func (g *Gorm) Info(_ context.Context, msg string, data ...any) {
	if g.level >= gormlogger.Info {
		g.log.Sugar().Infof(msg, data...)
	}
}

func (g *Gorm) Warn(_ context.Context, msg string, data ...any) {
	if g.level >= gormlogger.Warn {
		g.log.Sugar().Warnf(msg, data...)
	}
}

func (g *Gorm) Error(_ context.Context, msg string, data ...any) {
	if g.level >= gormlogger.Error {
		g.log.Sugar().Errorf(msg, data...)
	}
}

func (g *Gorm) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	if g.level <= gormlogger.Silent {
		return
	}
	elapsed := time.Since(begin)
	sql, rows := fc()
	fields := []zap.Field{zap.Duration("elapsed", elapsed), zap.Int64("rows", rows), zap.String("sql", sql)}
	if id := middleware.GetReqID(ctx); id != "" {
		fields = append(fields, zap.String("request_id", id))
	}

	switch {
	case err != nil && g.level >= gormlogger.Error && !errors.Is(err, gormlogger.ErrRecordNotFound):
		g.log.Error("sql error", append(fields, zap.Error(err))...)
	case elapsed > g.slowThreshold && g.level >= gormlogger.Warn:
		g.log.Warn("slow sql", fields...)
	case g.level >= gormlogger.Info:
		g.log.Debug("sql", fields...)
	}
}
