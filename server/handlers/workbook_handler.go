package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"quadrant-server/models"
	services "quadrant-server/service"
	"quadrant-server/util"

	"github.com/gorilla/mux"
)

const (
	START_QUERY_ARG  = "start"
	END_QUERY_ARG    = "end"
	REGION_QUERY_ARG = "region"

	FINGERPRINT_PATH_VAR = "fingerprint"
	UPLOAD_FORM_FIELD    = "file"

	NOTICE_HEADER = "X-Quadrant-Notice"

	dateLayout      = "2006-01-02"
	multipartMemory = 8 << 20
)

// xlsx files are zip containers
var allowedWorkbookTypes = map[string]bool{
	"application/zip":          true,
	"application/octet-stream": true,
}

type errorResponse struct {
	Error string `json:"error"`
}

type WorkbookHandler struct {
	workbookService *services.WorkbookService
	renderer        *services.QuadrantRenderer
	maxUploadBytes  int64
}

func NewWorkbookHandler(
	workbookService *services.WorkbookService,
	renderer *services.QuadrantRenderer,
	maxUploadBytes int64) *WorkbookHandler {
	return &WorkbookHandler{
		workbookService: workbookService,
		renderer:        renderer,
		maxUploadBytes:  maxUploadBytes,
	}
}

// Ping handles GET /ping
func (h *WorkbookHandler) Ping(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "pong"})
}

// UploadWorkbook handles POST /v1/workbooks with a multipart "file" field.
func (h *WorkbookHandler) UploadWorkbook(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		writeError(w, http.StatusBadRequest, "invalid upload: "+err.Error())
		return
	}
	file, header, err := r.FormFile(UPLOAD_FORM_FIELD)
	if err != nil {
		writeError(w, http.StatusBadRequest, "missing form field "+UPLOAD_FORM_FIELD)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read upload")
		return
	}
	if err := validateWorkbookContent(header.Filename, data); err != nil {
		writeError(w, http.StatusUnsupportedMediaType, err.Error())
		return
	}

	lw, err := h.workbookService.Load(r.Context(), header.Filename, data)
	if err != nil {
		log.Printf("[WorkbookHandler] Upload of %q failed: %v", header.Filename, err)
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	h.workbookService.SetCurrent(lw.Fingerprint)

	writeJSON(w, http.StatusCreated, lw.Summary())
}

// ListWorkbooks handles GET /v1/workbooks
func (h *WorkbookHandler) ListWorkbooks(w http.ResponseWriter, r *http.Request) {
	summaries, err := h.workbookService.List()
	if err != nil {
		log.Println("Error listing workbooks:", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	writeJSON(w, http.StatusOK, summaries)
}

// DeleteWorkbook handles DELETE /v1/workbooks/{fingerprint}
func (h *WorkbookHandler) DeleteWorkbook(w http.ResponseWriter, r *http.Request) {
	if err := h.workbookService.Delete(mux.Vars(r)[FINGERPRINT_PATH_VAR]); err != nil {
		h.writeLookupError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetCurrentWorkbook handles GET /v1/workbooks/current
func (h *WorkbookHandler) GetCurrentWorkbook(w http.ResponseWriter, r *http.Request) {
	lw, err := h.workbookService.Current()
	if err != nil {
		h.writeLookupError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, lw.Summary())
}

// GetWorkbook handles GET /v1/workbooks/{fingerprint}
func (h *WorkbookHandler) GetWorkbook(w http.ResponseWriter, r *http.Request) {
	lw, ok := h.lookup(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, lw.Summary())
}

// GetQuadrant handles GET /v1/workbooks/{fingerprint}/quadrant
// expects ?start={YYYY-MM-DD}&end={YYYY-MM-DD}&region={name}...
func (h *WorkbookHandler) GetQuadrant(w http.ResponseWriter, r *http.Request) {
	view, ok := h.renderView(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// GetQuadrantHTML handles GET /v1/workbooks/{fingerprint}/quadrant/chart.html
func (h *WorkbookHandler) GetQuadrantHTML(w http.ResponseWriter, r *http.Request) {
	view, ok := h.renderView(w, r)
	if !ok {
		return
	}

	var buf bytes.Buffer
	var err error
	if view.HasPaths() {
		err = util.RenderQuadrantHTML(view, &buf)
	} else {
		err = util.RenderNoticeHTML(view.Message, &buf)
	}
	if err != nil {
		log.Println("Error rendering quadrant chart:", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}

// GetQuadrantPNG handles GET /v1/workbooks/{fingerprint}/quadrant/chart.png
func (h *WorkbookHandler) GetQuadrantPNG(w http.ResponseWriter, r *http.Request) {
	view, ok := h.renderView(w, r)
	if !ok {
		return
	}
	if !view.HasPaths() {
		w.Header().Set(NOTICE_HEADER, view.Message)
		w.WriteHeader(http.StatusNoContent)
		return
	}

	var buf bytes.Buffer
	if err := util.RenderQuadrantPNG(view, &buf); err != nil {
		log.Println("Error rendering quadrant image:", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}

func (h *WorkbookHandler) renderView(w http.ResponseWriter, r *http.Request) (models.QuadrantView, bool) {
	lw, ok := h.lookup(w, r)
	if !ok {
		return models.QuadrantView{}, false
	}
	sel, err := parseSelection(r.URL.Query(), lw.Series)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return models.QuadrantView{}, false
	}
	return h.renderer.Render(lw.Series, sel), true
}

func (h *WorkbookHandler) lookup(w http.ResponseWriter, r *http.Request) (*services.LoadedWorkbook, bool) {
	fingerprint := mux.Vars(r)[FINGERPRINT_PATH_VAR]
	lw, err := h.workbookService.Get(fingerprint)
	if err != nil {
		h.writeLookupError(w, err)
		return nil, false
	}
	return lw, true
}

func (h *WorkbookHandler) writeLookupError(w http.ResponseWriter, err error) {
	if errors.Is(err, services.ErrWorkbookNotFound) {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	log.Println("Error looking up workbook:", err)
	writeError(w, http.StatusInternalServerError, "Internal server error")
}

// parseSelection falls back to the full range when both dates are absent and to
// the default regions when no region argument is given at all.
func parseSelection(vals url.Values, series *models.NormalizedSeries) (models.Selection, error) {
	defaults := services.DefaultSelection(series)
	sel := models.Selection{}

	startArg, endArg := strings.TrimSpace(vals.Get(START_QUERY_ARG)), strings.TrimSpace(vals.Get(END_QUERY_ARG))
	if startArg == "" && endArg == "" {
		sel.Start, sel.End = defaults.Start, defaults.End
	} else {
		var err error
		if sel.Start, err = parseDateArg(startArg, START_QUERY_ARG); err != nil {
			return sel, err
		}
		if sel.End, err = parseDateArg(endArg, END_QUERY_ARG); err != nil {
			return sel, err
		}
	}

	regions, present := vals[REGION_QUERY_ARG]
	if !present {
		sel.Categories = defaults.Categories
		return sel, nil
	}
	sel.Categories = []string{}
	for _, region := range regions {
		if region = strings.TrimSpace(region); region != "" {
			sel.Categories = append(sel.Categories, region)
		}
	}
	return sel, nil
}

func parseDateArg(s, name string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return nil, errors.New("Invalid argument " + name)
	}
	return &t, nil
}

// validateWorkbookContent checks the extension and the detected content type.
func validateWorkbookContent(filename string, data []byte) error {
	if !strings.EqualFold(filepath.Ext(filename), ".xlsx") {
		return errors.New("only .xlsx workbooks are supported")
	}
	head := data
	if len(head) > 512 {
		head = head[:512]
	}
	detected := strings.ToLower(strings.Split(http.DetectContentType(head), ";")[0])
	if !allowedWorkbookTypes[detected] {
		log.Printf("[WorkbookHandler] Rejected upload %q with detected type %s", filename, detected)
		return errors.New("file content is not an .xlsx workbook")
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Println("Error encoding response:", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}
