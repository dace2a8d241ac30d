package services

import (
	"context"
	"log"
	"path"
	"time"
)

// WorkbookDownloader fetches the raw workbook; api.HTTPClient implements it.
type WorkbookDownloader interface {
	Download(endpoint string) ([]byte, error)
}

// WorkbookRefresherService periodically re-downloads the source workbook.
// Unchanged content hits the series cache, so nothing is recomputed.
type WorkbookRefresherService struct {
	workbookService *WorkbookService
	downloader      WorkbookDownloader
	sourceName      string
}

// NewWorkbookRefresherService constructs a new refresher with dependencies.
func NewWorkbookRefresherService(
	workbookService *WorkbookService,
	downloader WorkbookDownloader,
	sourceURL string,
) *WorkbookRefresherService {
	name := path.Base(sourceURL)
	if name == "." || name == "/" {
		name = "remote.xlsx"
	}
	return &WorkbookRefresherService{
		workbookService: workbookService,
		downloader:      downloader,
		sourceName:      name,
	}
}

// StartPeriodicJob launches the background loop at the given interval.
// A non-positive interval leaves the job stopped.
func (wr *WorkbookRefresherService) StartPeriodicJob(ctx context.Context, interval time.Duration) bool {
	if interval <= 0 {
		log.Printf("[WorkbookRefresherService] Not starting periodic job, invalid interval %v", interval)
		return false
	}
	go wr.startPeriodicJob(ctx, interval)
	return true
}

func (wr *WorkbookRefresherService) startPeriodicJob(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("[WorkbookRefresherService] Stopping periodic workbook refresher job.")
			return
		case <-ticker.C:
			log.Println("[WorkbookRefresherService] Running periodic workbook refresher job.")
			if _, err := wr.RefreshWorkbook(ctx); err != nil {
				log.Printf("[WorkbookRefresherService] RefreshWorkbook returned error: %v", err)
			}
		}
	}
}

// RefreshWorkbook downloads, loads and promotes the workbook to current.
// On failure the previous current workbook stays in place.
func (wr *WorkbookRefresherService) RefreshWorkbook(ctx context.Context) (*LoadedWorkbook, error) {
	data, err := wr.downloader.Download("")
	if err != nil {
		return nil, &LoadError{Name: wr.sourceName, Err: err}
	}

	lw, err := wr.workbookService.Load(ctx, wr.sourceName, data)
	if err != nil {
		return nil, err
	}

	wr.workbookService.SetCurrent(lw.Fingerprint)
	log.Printf("[WorkbookRefresherService] Current workbook is %s (%d rows)", lw.Fingerprint, len(lw.Series.Rows))
	return lw, nil
}
