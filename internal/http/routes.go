package httpapp

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/cesargomez89/topalbums/internal/domain"
	"github.com/cesargomez89/topalbums/internal/http/dto"
)

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	if err := h.Store.Ping(r.Context()); err != nil {
		h.Logger.Error("Health check failed", "error", err)
		h.writeError(w, http.StatusServiceUnavailable, "database unavailable")
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) ListCharts(w http.ResponseWriter, r *http.Request) {
	charts, err := h.Store.ListCharts(r.Context())
	if err != nil {
		h.writeStoreError(w, r, err)
		return
	}
	if charts == nil {
		charts = []domain.Chart{}
	}
	h.writeJSON(w, http.StatusOK, dto.ChartsResponse{Charts: charts})
}

func (h *Handler) ChartHistory(w http.ResponseWriter, r *http.Request) {
	id, vErr := dto.ParseID("id", chi.URLParam(r, "id"))
	if vErr != nil {
		h.writeValidation(w, []dto.ValidationError{*vErr})
		return
	}
	page, pageSize, errs := dto.ParsePage(r.URL.Query())
	if len(errs) > 0 {
		h.writeValidation(w, errs)
		return
	}

	chart, err := h.Store.GetChart(r.Context(), id)
	if err != nil {
		h.writeStoreError(w, r, err)
		return
	}
	total, err := h.Store.CountChartHistory(r.Context(), id)
	if err != nil {
		h.writeStoreError(w, r, err)
		return
	}

	p := dto.NewPagination(page, pageSize, total)
	rows, err := h.Store.ListChartHistory(r.Context(), id, p.PageSize, p.Offset())
	if err != nil {
		h.writeStoreError(w, r, err)
		return
	}
	if rows == nil {
		rows = []domain.HistoryRow{}
	}

	h.writeJSON(w, http.StatusOK, dto.HistoryResponse{Chart: *chart, Items: rows, Pagination: p})
}

func (h *Handler) Album(w http.ResponseWriter, r *http.Request) {
	id, vErr := dto.ParseID("id", chi.URLParam(r, "id"))
	if vErr != nil {
		h.writeValidation(w, []dto.ValidationError{*vErr})
		return
	}

	detail, err := h.Store.GetAlbumDetail(r.Context(), id)
	if err != nil {
		h.writeStoreError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, detail)
}
