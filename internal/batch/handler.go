package batch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/meridian-wms/meridian-wms/internal/orders"
	"github.com/meridian-wms/meridian-wms/internal/platform/httpx"
	"github.com/meridian-wms/meridian-wms/internal/shared"
)

// IdempotencyPort guards against replayed reconciliation requests.
type IdempotencyPort interface {
	CheckAndInsert(ctx context.Context, key, module string) error
	Delete(ctx context.Context, key string) error
}

// Handler wires the batch reconciliation endpoint.
type Handler struct {
	logger      *slog.Logger
	service     *Service
	idempotency IdempotencyPort
	validate    *validator.Validate
}

// NewHandler constructs the batch handler. idempotency may be nil, disabling
// the Idempotency-Key header.
func NewHandler(logger *slog.Logger, service *Service, idempotency IdempotencyPort) *Handler {
	return &Handler{logger: logger, service: service, idempotency: idempotency, validate: validator.New()}
}

// MountRoutes registers batch routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/reconcile", h.reconcile)
}

func (h *Handler) reconcile(w http.ResponseWriter, r *http.Request) {
	var req ReconcileRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "malformed body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	// The external system retries on timeouts. A replayed key is refused
	// before the order lock even gets involved.
	idemKey := r.Header.Get("Idempotency-Key")
	if h.idempotency != nil && idemKey != "" {
		if err := h.idempotency.CheckAndInsert(r.Context(), idemKey, "batch"); err != nil {
			if errors.Is(err, shared.ErrIdempotencyConflict) {
				httpx.RespondError(w, fmt.Errorf("%w: %s", httpx.ErrDuplicate, err))
				return
			}
			h.logger.Error("idempotency check", slog.Any("error", err))
			httpx.RespondError(w, err)
			return
		}
	}

	result, err := h.service.Reconcile(r.Context(), req.WarehouseID, req.OrderNumber, req.Entries)
	if err != nil {
		if h.idempotency != nil && idemKey != "" {
			// Release the key so the caller can retry after fixing the cause.
			_ = h.idempotency.Delete(r.Context(), idemKey)
		}
		h.logger.Warn("batch reconcile",
			slog.String("order", req.OrderNumber),
			slog.Any("error", err))
		h.respondError(w, err)
		return
	}

	message := fmt.Sprintf("order %s reconciled, %d lines updated", result.OrderNumber, result.LinesUpdated)
	httpx.JSON(w, http.StatusOK, ReconcileResponse{
		Status:         "ok",
		Message:        message,
		OrderNumber:    result.OrderNumber,
		OrderStatus:    string(result.OrderStatus),
		LinesUpdated:   result.LinesUpdated,
		LinesCompleted: result.LinesCompleted,
		LinesPartial:   result.LinesPartial,
		LinesPending:   result.LinesPending,
	})
}

func (h *Handler) respondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, orders.ErrNotFound):
		httpx.RespondError(w, fmt.Errorf("%w: %s", httpx.ErrNotFound, err))
	case errors.Is(err, ErrAlreadyReady), errors.Is(err, ErrEmptyReport):
		httpx.RespondError(w, fmt.Errorf("%w: %s", httpx.ErrPrecondition, err))
	case errors.Is(err, ErrOrderLocked), errors.Is(err, ErrWarehouseAccess):
		httpx.RespondError(w, fmt.Errorf("%w: %s", httpx.ErrForbidden, err))
	case errors.Is(err, ErrNotifyFailed):
		httpx.RespondError(w, fmt.Errorf("%w: %s", httpx.ErrExternal, err))
	default:
		httpx.RespondError(w, err)
	}
}
