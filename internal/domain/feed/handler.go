package feed

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"qurux/internal/middleware"
	"qurux/internal/pkg/response"
)

type SalonLister interface {
	SalonIDsByOwner(ctx context.Context, ownerID string) ([]string, error)
}

type Handler struct {
	hub      *Hub
	salons   SalonLister
	upgrader websocket.Upgrader
}

// NewHandler accepts browser origins from allowedOrigins; requests without an
// Origin header (native apps) are always accepted.
func NewHandler(hub *Hub, salons SalonLister, allowedOrigins []string) *Handler {
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		allowed[o] = true
	}
	return &Handler{
		hub:    hub,
		salons: salons,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return origin == "" || allowed[origin]
			},
		},
	}
}

// ServeBookings godoc
// GET /api/v1/ws/bookings?token=
func (h *Handler) ServeBookings(c *gin.Context) {
	userID := c.GetString("user_id")
	if userID == "" {
		response.Error(c, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required")
		return
	}

	salonIDs, err := h.salons.SalonIDsByOwner(c.Request.Context(), userID)
	if err != nil {
		_ = c.Error(err)
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error")
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// the upgrader already wrote the HTTP error
		return
	}
	h.hub.ServeWS(conn, userID, salonIDs)
}

// RegisterRoutes expects r to authenticate the caller; only managers may subscribe.
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/ws/bookings", middleware.RequireRole("MANAGER"), h.ServeBookings)
}
