package main

import (
	"fmt"

	"github.com/songbirdapp/songbird/config"
	"github.com/songbirdapp/songbird/jobs"
	"github.com/songbirdapp/songbird/routes"
	"github.com/songbirdapp/songbird/utils"
)

func main() {
	cfg := config.Get()

	if err := utils.InitLogger(cfg); err != nil {
		panic(err)
	}

	db, err := config.InitDB()
	if err != nil {
		utils.Sugar.Fatalf("database init failed: %v", err)
	}

	r := routes.SetupRouter(db)

	scheduler := jobs.StartScheduler(db)
	defer scheduler.Stop()

	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	utils.Sugar.Infof("starting server on %s (graceful)", addr)
	if err := utils.GraceServer(addr, r); err != nil {
		utils.Sugar.Fatalf("server stopped with error: %v", err)
	}
}
