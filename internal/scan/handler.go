package scan

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/meridian-wms/meridian-wms/internal/orders"
	"github.com/meridian-wms/meridian-wms/internal/platform/httpx"
	"github.com/meridian-wms/meridian-wms/internal/shared"
)

// Handler upgrades device connections and pumps scan messages through the
// coordinator. One inbound message is processed at a time per connection.
type Handler struct {
	logger      *slog.Logger
	coordinator *Coordinator
	registry    *Registry
	sessions    *SessionCache
	upgrader    websocket.Upgrader
}

// NewHandler constructs the scan channel handler.
func NewHandler(logger *slog.Logger, coordinator *Coordinator, registry *Registry, sessions *SessionCache) *Handler {
	return &Handler{
		logger:      logger,
		coordinator: coordinator,
		registry:    registry,
		sessions:    sessions,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Devices connect from the warehouse LAN with no browser origin.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// MountRoutes registers the websocket endpoint.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/ws", h.serve)
}

func (h *Handler) serve(w http.ResponseWriter, r *http.Request) {
	code := r.URL.Query().Get("operator")
	if code == "" {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "operator query parameter required")
		return
	}

	operator, err := h.coordinator.Operator(r.Context(), code)
	if err != nil {
		switch {
		case errors.Is(err, orders.ErrOperatorNotFound):
			httpx.Problem(w, http.StatusNotFound, "Not Found", "operator not found")
		case errors.Is(err, orders.ErrOperatorInactive):
			httpx.Problem(w, http.StatusForbidden, "Forbidden", "operator is not active")
		default:
			h.logger.Error("resolve operator", slog.Any("error", err))
			httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		}
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade", slog.String("operator", code), slog.Any("error", err))
		return
	}

	if prior := h.registry.Insert(operator.Code, conn); prior != nil {
		// Last-writer-wins: the newer device replaces the stale slot.
		h.logger.Info("evicting prior scan connection", slog.String("operator", operator.Code))
		_ = prior.Close()
	}

	// Session id correlates log lines across reconnects of the same code.
	sessionID := uuid.NewString()
	logger := h.logger.With(
		slog.String("operator", operator.Code),
		slog.String("session", sessionID))
	logger.Info("scan channel connected", slog.Int("connected", h.registry.Count()))

	if last, err := h.sessions.LoadLast(r.Context(), operator.Code); err == nil && last != nil {
		_ = conn.WriteJSON(last)
	}

	// The channel outlives the request deadline; scans carry on until the
	// device disconnects. The operator rides the context so audit records
	// written downstream attribute to the right actor.
	ctx := shared.ContextWithOperator(context.WithoutCancel(r.Context()), operator)
	h.readLoop(ctx, logger, conn, operator)

	if h.registry.Evict(operator.Code, conn) {
		logger.Info("scan channel disconnected", slog.Int("connected", h.registry.Count()))
	}
	_ = conn.Close()
}

// readLoop processes frames serially until the device disconnects. A failure
// handling one frame never tears down the channel.
func (h *Handler) readLoop(ctx context.Context, logger *slog.Logger, conn *websocket.Conn, operator *shared.Operator) {
	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				logger.Warn("scan read", slog.Any("error", err))
			}
			return
		}
		frame := h.process(ctx, operator, raw)
		if err := conn.WriteJSON(frame); err != nil {
			logger.Warn("scan write", slog.Any("error", err))
			return
		}
		if confirmation, ok := frame.(Confirmation); ok {
			if err := h.sessions.StoreLast(ctx, operator.Code, confirmation); err != nil {
				logger.Warn("scan session cache", slog.Any("error", err))
			}
		}
	}
}

// process shields the read loop from panics in frame handling.
func (h *Handler) process(ctx context.Context, operator *shared.Operator, raw []byte) (frame any) {
	defer func() {
		if rec := recover(); rec != nil {
			h.logger.Error("scan handler panic",
				slog.String("operator", operator.Code),
				slog.Any("panic", rec))
			frame = newErrorFrame(CodeInternalError, "unexpected error, please retry")
		}
	}()
	return h.coordinator.Handle(ctx, operator, raw)
}
