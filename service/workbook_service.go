package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"quadrant-server/models"
	"quadrant-server/util"
)

var ErrWorkbookNotFound = errors.New("workbook not found")

// LoadError is a failed workbook load. No partial series is ever kept.
type LoadError struct {
	Name string
	Err  error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("failed to load workbook %q: %v", e.Name, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// LoadedWorkbook is a normalized workbook together with its identity.
type LoadedWorkbook struct {
	Fingerprint string
	Name        string
	Series      *models.NormalizedSeries
	LoadedAt    time.Time
}

// Summary describes the workbook for API clients.
func (lw *LoadedWorkbook) Summary() models.WorkbookSummary {
	s := models.WorkbookSummary{
		Fingerprint: lw.Fingerprint,
		Name:        lw.Name,
		Categories:  lw.Series.Categories(),
		Rows:        len(lw.Series.Rows),
		LoadedAt:    lw.LoadedAt,
	}
	if start, end, ok := lw.Series.DateRange(); ok {
		s.Start, s.End = &start, &end
	}
	return s
}

// workbookEntry is what the service remembers about a workbook besides its series.
type workbookEntry struct {
	name     string
	loadedAt time.Time
}

// WorkbookService reads, normalizes and caches workbooks.
// Series live only in the cache; an entry whose series was evicted is forgotten on lookup.
type WorkbookService struct {
	layout util.WorkbookLayout
	cache  SeriesCache

	mu      sync.RWMutex
	loaded  map[string]workbookEntry
	current string
}

func NewWorkbookService(layout util.WorkbookLayout, cache SeriesCache) *WorkbookService {
	return &WorkbookService{
		layout: layout,
		cache:  cache,
		loaded: make(map[string]workbookEntry),
	}
}

// Load normalizes the workbook bytes, reusing the cached series when the content was seen before.
func (ws *WorkbookService) Load(ctx context.Context, name string, data []byte) (*LoadedWorkbook, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	fingerprint := Fingerprint(data)

	series, ok, err := ws.cache.Get(fingerprint)
	if err != nil {
		return nil, &LoadError{Name: name, Err: err}
	}
	if ok {
		log.Printf("[WorkbookService] Cache hit for %q (%s)", name, fingerprint)
	} else {
		log.Printf("[WorkbookService] Normalizing %q (%s, %d bytes)", name, fingerprint, len(data))
		sale, rent, err := util.ReadWorkbook(bytes.NewReader(data), ws.layout)
		if err != nil {
			return nil, &LoadError{Name: name, Err: err}
		}
		series, err = Normalize(sale, rent)
		if err != nil {
			return nil, &LoadError{Name: name, Err: err}
		}
		if err := ws.cache.Set(fingerprint, series); err != nil {
			return nil, &LoadError{Name: name, Err: err}
		}
		log.Printf("[WorkbookService] Normalized %q into %d rows", name, len(series.Rows))
	}

	ws.mu.Lock()
	entry, exists := ws.loaded[fingerprint]
	if !exists || entry.name == "" {
		entry = workbookEntry{name: name, loadedAt: time.Now()}
		ws.loaded[fingerprint] = entry
	}
	ws.mu.Unlock()

	return entry.workbook(fingerprint, series), nil
}

// LoadFile loads a workbook from a fixed path and makes it the current one.
func (ws *WorkbookService) LoadFile(ctx context.Context, path string) (*LoadedWorkbook, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &LoadError{Name: filepath.Base(path), Err: err}
	}
	lw, err := ws.Load(ctx, filepath.Base(path), data)
	if err != nil {
		return nil, err
	}
	ws.SetCurrent(lw.Fingerprint)
	return lw, nil
}

// Get returns a workbook whose series is still present in the cache.
func (ws *WorkbookService) Get(fingerprint string) (*LoadedWorkbook, error) {
	series, ok, err := ws.cache.Get(fingerprint)
	if err != nil {
		return nil, err
	}

	ws.mu.Lock()
	defer ws.mu.Unlock()
	if !ok {
		delete(ws.loaded, fingerprint)
		return nil, fmt.Errorf("%w: %s", ErrWorkbookNotFound, fingerprint)
	}
	entry, exists := ws.loaded[fingerprint]
	if !exists {
		// warmed by another process through redis
		entry = workbookEntry{loadedAt: time.Now()}
		ws.loaded[fingerprint] = entry
	}
	return entry.workbook(fingerprint, series), nil
}

// List summarizes every workbook the cache still holds, ordered by fingerprint.
func (ws *WorkbookService) List() ([]models.WorkbookSummary, error) {
	fingerprints, err := ws.cache.Fingerprints()
	if err != nil {
		return nil, err
	}
	summaries := make([]models.WorkbookSummary, 0, len(fingerprints))
	for _, fp := range fingerprints {
		lw, err := ws.Get(fp)
		if errors.Is(err, ErrWorkbookNotFound) {
			// expired between listing and lookup
			continue
		}
		if err != nil {
			return nil, err
		}
		summaries = append(summaries, lw.Summary())
	}
	return summaries, nil
}

// Delete drops the workbook from every cache tier. Deleting the current workbook clears it.
func (ws *WorkbookService) Delete(fingerprint string) error {
	if _, err := ws.Get(fingerprint); err != nil {
		return err
	}
	if err := ws.cache.Delete(fingerprint); err != nil {
		return err
	}

	ws.mu.Lock()
	defer ws.mu.Unlock()
	delete(ws.loaded, fingerprint)
	if ws.current == fingerprint {
		ws.current = ""
	}
	log.Printf("[WorkbookService] Deleted workbook %s", fingerprint)
	return nil
}

func (ws *WorkbookService) SetCurrent(fingerprint string) {
	ws.mu.Lock()
	defer ws.mu.Unlock()
	ws.current = fingerprint
}

// Current returns the workbook last set by an upload, the fixed path load or the refresher.
func (ws *WorkbookService) Current() (*LoadedWorkbook, error) {
	ws.mu.RLock()
	fingerprint := ws.current
	ws.mu.RUnlock()
	if fingerprint == "" {
		return nil, fmt.Errorf("%w: no current workbook", ErrWorkbookNotFound)
	}
	return ws.Get(fingerprint)
}

func (e workbookEntry) workbook(fingerprint string, series *models.NormalizedSeries) *LoadedWorkbook {
	return &LoadedWorkbook{
		Fingerprint: fingerprint,
		Name:        e.name,
		Series:      series,
		LoadedAt:    e.loadedAt,
	}
}
