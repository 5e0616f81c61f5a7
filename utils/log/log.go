package log

import (
	"log"
	"log/slog"
	"os"
	"sync/atomic"

	gormlogger "gorm.io/gorm/logger"
)

var gormLevel atomic.Int32

func init() {
	gormLevel.Store(int32(gormlogger.Silent))
}

// SetupGlobalLogger 初始化全局 slog，并让标准库 log 也走同一个 handler
func SetupGlobalLogger(level slog.Level) {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	logger := slog.New(handler)
	slog.SetDefault(logger)
	log.SetFlags(0)
	log.SetOutput(slog.NewLogLogger(handler, slog.LevelInfo).Writer())
}

// SetGormLogLevel 设置 gorm 日志级别，对之后打开的数据库连接生效
func SetGormLogLevel(level gormlogger.LogLevel) {
	gormLevel.Store(int32(level))
}

// GormLogger 返回按当前级别配置的 gorm logger
func GormLogger() gormlogger.Interface {
	return gormlogger.Default.LogMode(gormlogger.LogLevel(gormLevel.Load()))
}
