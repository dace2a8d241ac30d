package main

import (
	"context"
	"log"
	"time"

	"quadrant-server/config"
	"quadrant-server/di"
)

func main() {
	cfg := config.Load()
	container := di.NewContainer(cfg)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// fixed-path workbook, as in the desktop dashboard
	if cfg.DefaultWorkbookPath != "" {
		lw, err := container.WorkbookService.LoadFile(ctx, cfg.DefaultWorkbookPath)
		if err != nil {
			log.Printf("[MAIN] %v", err)
		} else {
			log.Printf("[MAIN] Loaded %s as %s (%d rows)", lw.Name, lw.Fingerprint, len(lw.Series.Rows))
		}
	}

	if refresher := container.WorkbookRefresherService; refresher != nil {
		log.Println("[MAIN] refreshing workbook from source")
		if _, err := refresher.RefreshWorkbook(ctx); err != nil {
			log.Printf("[MAIN] Initial workbook refresh failed: %v", err)
		}
		refresher.StartPeriodicJob(ctx, time.Duration(cfg.WorkbookRefreshMinutes)*time.Minute)
	}

	container.QuadrantHttpServer.Start()
}
