package packing

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/meridian-wms/meridian-wms/internal/platform/httpx"
)

// Handler exposes read-only box and ledger views.
type Handler struct {
	logger *slog.Logger
	repo   *Repository
}

// NewHandler constructs the packing handler.
func NewHandler(logger *slog.Logger, repo *Repository) *Handler {
	return &Handler{logger: logger, repo: repo}
}

// MountRoutes registers packing routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/{orderID}/boxes", h.boxes)
	r.Get("/{orderID}/breakdown", h.breakdown)
}

func (h *Handler) boxes(w http.ResponseWriter, r *http.Request) {
	orderID, err := strconv.ParseInt(chi.URLParam(r, "orderID"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid order id")
		return
	}
	boxes, err := h.repo.ListBoxes(r.Context(), orderID)
	if err != nil {
		h.logger.Error("list boxes", slog.Int64("order_id", orderID), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"order_id": orderID, "boxes": boxes})
}

func (h *Handler) breakdown(w http.ResponseWriter, r *http.Request) {
	orderID, err := strconv.ParseInt(chi.URLParam(r, "orderID"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid order id")
		return
	}
	rows, err := h.repo.BoxBreakdown(r.Context(), orderID)
	if err != nil {
		h.logger.Error("box breakdown", slog.Int64("order_id", orderID), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"order_id": orderID, "distribution": rows})
}
