// Package httpapp serves the read-only chart API.
package httpapp

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/cesargomez89/topalbums/internal/domain"
	"github.com/cesargomez89/topalbums/internal/http/dto"
	"github.com/cesargomez89/topalbums/internal/logger"
	"github.com/cesargomez89/topalbums/internal/store"
)

// Store is the read side of *store.DB used by the handlers.
type Store interface {
	Ping(ctx context.Context) error
	ListCharts(ctx context.Context) ([]domain.Chart, error)
	GetChart(ctx context.Context, id int64) (*domain.Chart, error)
	CountChartHistory(ctx context.Context, chartID int64) (int, error)
	ListChartHistory(ctx context.Context, chartID int64, limit, offset int) ([]domain.HistoryRow, error)
	GetAlbumDetail(ctx context.Context, id int64) (*domain.AlbumDetail, error)
}

var _ Store = (*store.DB)(nil)

type Handler struct {
	Store  Store
	Logger *logger.Logger
}

func NewHandler(s Store, log *logger.Logger) *Handler {
	if log == nil {
		log = logger.Default()
	}
	return &Handler{
		Store:  s,
		Logger: log.WithComponent("http"),
	}
}

// NewRouter returns a chi router with the standard middleware and all routes.
func NewRouter(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	h.RegisterRoutes(r)
	return r
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/healthz", h.Health)

	r.Route("/api", func(r chi.Router) {
		r.Get("/charts", h.ListCharts)
		r.Get("/charts/{id}/history", h.ChartHistory)
		r.Get("/albums/{id}", h.Album)
	})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.Logger.Error("Failed to encode response", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, msg string) {
	h.writeJSON(w, status, dto.ErrorResponse{Error: msg})
}

func (h *Handler) writeValidation(w http.ResponseWriter, errs []dto.ValidationError) {
	h.writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: dto.ToResponse(errs), Fields: errs})
}

// writeStoreError maps store errors to a status. Unexpected errors are logged
// and hidden from the client.
func (h *Handler) writeStoreError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, store.ErrNotFound) {
		h.writeError(w, http.StatusNotFound, "not found")
		return
	}
	h.Logger.Error("Store query failed", "path", r.URL.Path, "request_id", middleware.GetReqID(r.Context()), "error", err)
	h.writeError(w, http.StatusInternalServerError, "internal error")
}
