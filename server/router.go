package server

import (
	"net/http"

	"github.com/gorilla/mux"
)

// QuadrantHandler is the set of endpoints served by the router.
type QuadrantHandler interface {
	Ping(w http.ResponseWriter, r *http.Request)
	UploadWorkbook(w http.ResponseWriter, r *http.Request)
	ListWorkbooks(w http.ResponseWriter, r *http.Request)
	DeleteWorkbook(w http.ResponseWriter, r *http.Request)
	GetCurrentWorkbook(w http.ResponseWriter, r *http.Request)
	GetWorkbook(w http.ResponseWriter, r *http.Request)
	GetQuadrant(w http.ResponseWriter, r *http.Request)
	GetQuadrantHTML(w http.ResponseWriter, r *http.Request)
	GetQuadrantPNG(w http.ResponseWriter, r *http.Request)
}

type Router struct {
	workbookHandler QuadrantHandler
	router          *mux.Router
}

// NewRouter creates a router with the app’s routes.
func NewRouter(
	workbookHandler QuadrantHandler,
	router *mux.Router) *Router {
	return &Router{
		workbookHandler: workbookHandler,
		router:          router,
	}
}

func (r *Router) RegisterRoutes() {
	r.router.HandleFunc("/ping", r.workbookHandler.Ping).Methods("GET")

	// multipart form with an .xlsx in field "file"
	r.router.HandleFunc("/v1/workbooks", r.workbookHandler.UploadWorkbook).Methods("POST")
	r.router.HandleFunc("/v1/workbooks", r.workbookHandler.ListWorkbooks).Methods("GET")

	// "current" must be registered before the fingerprint pattern
	r.router.HandleFunc("/v1/workbooks/current", r.workbookHandler.GetCurrentWorkbook).Methods("GET")
	r.router.HandleFunc("/v1/workbooks/{fingerprint}", r.workbookHandler.GetWorkbook).Methods("GET")
	r.router.HandleFunc("/v1/workbooks/{fingerprint}", r.workbookHandler.DeleteWorkbook).Methods("DELETE")

	// expects ?start={YYYY-MM-DD}&end={YYYY-MM-DD}&region={name}&region={name}...
	r.router.HandleFunc("/v1/workbooks/{fingerprint}/quadrant", r.workbookHandler.GetQuadrant).Methods("GET")
	r.router.HandleFunc("/v1/workbooks/{fingerprint}/quadrant/chart.html", r.workbookHandler.GetQuadrantHTML).Methods("GET")
	r.router.HandleFunc("/v1/workbooks/{fingerprint}/quadrant/chart.png", r.workbookHandler.GetQuadrantPNG).Methods("GET")
}
