package booking

import "github.com/gin-gonic/gin"

// RegisterPublicRoutes mounts the read-only availability endpoints.
func (h *Handler) RegisterPublicRoutes(r *gin.RouterGroup) {
	r.GET("/bookings/availability", h.GetAvailability)
	r.GET("/bookings/slots", h.GetSlots)
}

// RegisterRoutes mounts the authenticated endpoints. admission runs in front
// of booking creation only.
func (h *Handler) RegisterRoutes(r *gin.RouterGroup, admission ...gin.HandlerFunc) {
	create := append(append([]gin.HandlerFunc{}, admission...), h.CreateBooking)
	r.POST("/bookings", create...)
	r.GET("/bookings", h.ListBookings)
	r.GET("/bookings/:id", h.GetBooking)
	r.PUT("/bookings/:id/status", h.UpdateStatus)
	r.PUT("/bookings/:id/cancel", h.CancelBooking)
}
