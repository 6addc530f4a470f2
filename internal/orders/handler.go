package orders

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/meridian-wms/meridian-wms/internal/platform/httpx"
	"github.com/meridian-wms/meridian-wms/internal/shared"
)

// Handler wires the orders JSON API.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
}

// NewHandler constructs the orders handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validate: validator.New()}
}

// MountRoutes registers order routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.list)
	r.Get("/{id}", h.show)
	r.Get("/{id}/history", h.history)
	r.Get("/number/{number}", h.showByNumber)
	r.Post("/{id}/assign", h.assign)
	r.Post("/{id}/status", h.changeStatus)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	page := shared.ParsePage(r, 50, 200)
	filter := ListFilter{Limit: page.Limit, Offset: page.Offset, Search: r.URL.Query().Get("search")}

	if v := r.URL.Query().Get("warehouse_id"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid warehouse_id")
			return
		}
		filter.WarehouseID = id
	}
	if v := r.URL.Query().Get("status"); v != "" {
		status := Status(v)
		if !status.IsValid() {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "unknown status "+v)
			return
		}
		filter.Status = &status
	}
	if v := r.URL.Query().Get("priority"); v != "" {
		priority := Priority(v)
		filter.Priority = &priority
	}
	filter.CustomerCode = r.URL.Query().Get("customer")

	result, total, err := h.service.List(r.Context(), filter)
	if err != nil {
		h.logger.Error("list orders", slog.Any("error", err))
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, ListResponse{Orders: result, Total: total, Limit: page.Limit, Offset: page.Offset})
}

func (h *Handler) show(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid order id")
		return
	}
	order, err := h.service.GetByID(r.Context(), id)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, DetailResponse{Order: *order})
}

func (h *Handler) showByNumber(w http.ResponseWriter, r *http.Request) {
	number := chi.URLParam(r, "number")
	var (
		order *Order
		err   error
	)
	if r.URL.Query().Get("channel") == "customer" {
		order, err = h.service.GetForCustomer(r.Context(), number)
	} else {
		order, err = h.service.GetByNumber(r.Context(), number)
	}
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, DetailResponse{Order: *order})
}

func (h *Handler) history(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid order id")
		return
	}
	history, err := h.service.GetHistory(r.Context(), id)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"order_id": id, "history": history})
}

func (h *Handler) assign(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid order id")
		return
	}
	var req AssignRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "malformed body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	order, err := h.service.Assign(r.Context(), id, req.OperatorID, req.ActorID)
	if err != nil {
		h.logger.Warn("assign order", slog.Int64("order_id", id), slog.Any("error", err))
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, DetailResponse{Order: *order})
}

func (h *Handler) changeStatus(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid order id")
		return
	}
	var req StatusRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "malformed body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	order, err := h.service.ChangeStatus(r.Context(), id, req.Status, req.ActorID, req.Reason)
	if err != nil {
		h.logger.Warn("change status", slog.Int64("order_id", id), slog.String("target", req.Status), slog.Any("error", err))
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, DetailResponse{Order: *order})
}

func (h *Handler) respondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrOperatorNotFound):
		httpx.RespondError(w, fmt.Errorf("%w: %s", httpx.ErrNotFound, err))
	case errors.Is(err, ErrUnknownStatus):
		httpx.RespondError(w, fmt.Errorf("%w: %s", httpx.ErrValidation, err))
	case errors.Is(err, ErrTerminalStatus), errors.Is(err, ErrOperatorInactive):
		httpx.RespondError(w, fmt.Errorf("%w: %s", httpx.ErrPrecondition, err))
	default:
		httpx.RespondError(w, err)
	}
}

func parseID(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
}
