package booking

import "qurux/internal/domain/slot"

type CreateBookingRequest struct {
	SalonID       string  `json:"salonId" binding:"required,uuid"`
	ServiceID     string  `json:"serviceId" binding:"required,uuid"`
	Date          string  `json:"date" binding:"required"`
	TimeSlot      string  `json:"timeSlot" binding:"required"`
	TotalPrice    float64 `json:"totalPrice" binding:"required,gt=0"`
	PaymentMethod string  `json:"paymentMethod" binding:"required"`
	CustomerName  string  `json:"customerName" binding:"required"`
	CustomerPhone string  `json:"customerPhone"`
}

type UpdateStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=Pending Confirmed Completed Declined"`
}

type AvailabilityQuery struct {
	SalonID string `form:"salonId" binding:"required"`
	Date    string `form:"date" binding:"required"`
}

type ListQuery struct {
	Role string `form:"role" binding:"required,oneof=CUSTOMER MANAGER"`
}

// Actor is the authenticated caller as established by the auth middleware.
type Actor struct {
	ID    string
	Email string
	Role  string
}

type SlotsResponse struct {
	SalonID string      `json:"salonId"`
	Date    string      `json:"date"`
	Slots   []slot.Slot `json:"slots"`
}

// Event types published to the live feed.
const (
	EventBookingCreated = "booking.created"
	EventBookingUpdated = "booking.status_changed"
)
