package main

import (
	"log/slog"

	"github.com/chengshang-tools/update-server/cmd"
	"github.com/chengshang-tools/update-server/utils"
	logutil "github.com/chengshang-tools/update-server/utils/log"
	gormlogger "gorm.io/gorm/logger"
)

func main() {
	if utils.IsDevBuild() {
		logutil.SetupGlobalLogger(slog.LevelDebug)
		logutil.SetGormLogLevel(gormlogger.Info)
	} else {
		logutil.SetupGlobalLogger(slog.LevelInfo)
		logutil.SetGormLogLevel(gormlogger.Silent)
	}

	slog.Info("update-server starting", "version", utils.CurrentVersion, "hash", utils.VersionHash)

	cmd.Execute()
}
