package picking

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/meridian-wms/meridian-wms/internal/orders"
	"github.com/meridian-wms/meridian-wms/internal/platform/httpx"
)

// Handler wires the picking advisor endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler constructs the picking handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers picking routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/{id}/route", h.route)
	r.Get("/{id}/validate", h.validate)
}

func (h *Handler) route(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid order id")
		return
	}
	route, err := h.service.Route(r.Context(), id)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, route)
}

func (h *Handler) validate(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid order id")
		return
	}
	report, err := h.service.Validate(r.Context(), id)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, report)
}

func (h *Handler) respondError(w http.ResponseWriter, err error) {
	if errors.Is(err, orders.ErrNotFound) {
		httpx.RespondError(w, fmt.Errorf("%w: %s", httpx.ErrNotFound, err))
		return
	}
	h.logger.Error("picking advisor", slog.Any("error", err))
	httpx.RespondError(w, err)
}
