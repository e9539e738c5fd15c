// @title Section Survey API
// @version 1.0
// @description 班级问卷系统后端服务：教师发布问卷，学生按班级填写，教师查看统计。

// @host localhost:8080
// @BasePath /
// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name Authorization

package main

import (
	"context"
	"flag"
	"log"
	"survey_backend/internal/app"
	"survey_backend/internal/config"
	"survey_backend/pkg/logger"

	"go.uber.org/zap"
)

const configDir = "configs"

func main() {
	// 命令行参数
	migrateOnly := flag.Bool("migrate-only", false, "只执行数据库迁移，完成后退出")
	migrate := flag.Bool("migrate", false, "启动时强制执行数据库迁移（即使是 release 模式）")
	repairProfiles := flag.Bool("repair-profiles", false, "为缺少资料的用户补建学生资料，完成后退出")
	flag.Parse()

	cfg, err := config.LoadConfig(configDir)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	cfg.ForceMigrate = *migrate || *migrateOnly
	cfg.MigrateOnly = *migrateOnly
	cfg.RepairProfiles = *repairProfiles

	application := app.NewApp(cfg)
	defer logger.Log.Sync()

	if cfg.MigrateOnly {
		logger.Log.Info("数据库迁移完成，退出程序")
		return
	}

	if cfg.RepairProfiles {
		n, err := application.Services.Auth.RepairProfiles(context.Background())
		if err != nil {
			logger.Log.Fatal("Failed to repair profiles", zap.Error(err))
		}
		logger.Log.Info("Profile repair finished", zap.Int("created", n))
		return
	}

	application.Run(configDir)
}
