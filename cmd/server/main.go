package main

import (
	"os"

	"go.uber.org/zap"

	"echodub/config"
	"echodub/internal/server"
	"echodub/internal/storage"
	"echodub/log"
)

func main() {
	log.InitLogger()
	defer log.GetLogger().Sync()

	created, err := config.LoadOrCreateConfig()
	if err != nil {
		log.GetLogger().Error("failed to load config", zap.Error(err))
		return
	}
	if created {
		log.GetLogger().Info("wrote default config, fill in provider credentials before starting tasks")
	}

	storage.InitDB()

	// Clean up tasks orphaned by a previous shutdown.
	if count, err := storage.MarkStaleTasks(); err != nil {
		log.GetLogger().Warn("failed to mark stale tasks", zap.Error(err))
	} else if count > 0 {
		log.GetLogger().Info("marked stale tasks as failed", zap.Int64("count", count))
	}

	if err := server.StartBackend(); err != nil {
		log.GetLogger().Error("backend exited", zap.Error(err))
		os.Exit(1)
	}
}
