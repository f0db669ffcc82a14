package ws

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/pvidal/amigoinvisible/internal/middleware"
	"github.com/pvidal/amigoinvisible/internal/service"
	"github.com/pvidal/amigoinvisible/internal/storage"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Handlers serves the change-feed websocket endpoint.
type Handlers struct {
	hub    *Hub
	groups *service.GroupService
	logger *slog.Logger
}

// NewHandlers creates websocket handlers backed by the given hub.
func NewHandlers(hub *Hub, groups *service.GroupService, logger *slog.Logger) *Handlers {
	return &Handlers{hub: hub, groups: groups, logger: logger}
}

// serveGroup upgrades the connection and subscribes the caller to change
// events for one group. Only members may subscribe.
func (h *Handlers) serveGroup(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	groupID := chi.URLParam(r, "groupID")

	// Membership check before the upgrade; Get enforces it.
	if _, _, err := h.groups.Get(r.Context(), userID, groupID); err != nil {
		w.WriteHeader(http.StatusForbidden)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", "error", err)
		return
	}

	c := &Client{
		hub:     h.hub,
		conn:    conn,
		logger:  h.logger,
		groupID: groupID,
		userID:  userID,
		send:    make(chan storage.ChangeEvent, 16),
	}
	h.hub.register <- c
	go c.writePump()
	go c.readPump()
}

// SetupRoutes mounts the websocket endpoint. The router must already have
// authentication middleware applied.
func (h *Handlers) SetupRoutes(r chi.Router) {
	r.Get("/ws/groups/{groupID}", h.serveGroup)
}
