package booking

import (
	"context"
	"time"

	"qurux/internal/domain/catalog"
)

// BookingRepository persists bookings and their slot claims.
type BookingRepository interface {
	// Create inserts b and claims every label atomically. A label already held
	// by an active booking of the same salon and day yields ErrSlotTaken.
	Create(ctx context.Context, b *Booking, labels []string) error
	GetByID(ctx context.Context, id string) (*Booking, error)
	// OccupiedTimeSlots returns the raw time slot values of active bookings of
	// salonID whose date falls inside [from, to].
	OccupiedTimeSlots(ctx context.Context, salonID string, from, to time.Time) ([]string, error)
	// Transition moves a booking from one status to another only if it is
	// still in from. Claims are released when to is terminal.
	Transition(ctx context.Context, id string, from, to Status, at time.Time) (*Booking, error)
	ListByCustomer(ctx context.Context, customerID string) ([]Booking, error)
	ListBySalons(ctx context.Context, salonIDs []string) ([]Booking, error)
	ListConfirmedBefore(ctx context.Context, before time.Time) ([]Booking, error)
}

type CatalogReader interface {
	GetSalon(ctx context.Context, id string) (*catalog.Salon, error)
	GetService(ctx context.Context, id string) (*catalog.Service, error)
	SalonIDsByOwner(ctx context.Context, ownerID string) ([]string, error)
}

// Notifier hands a status change to the notification subsystem. Dispatch must
// not block the caller.
type Notifier interface {
	Dispatch(bookingID string, status Status)
}

type Payment struct {
	CustomerID string
	Amount     float64
	Method     PaymentMethod
}

type PaymentGateway interface {
	Charge(ctx context.Context, p Payment) error
}

// AvailabilityCache memoizes occupied labels per salon day. Every Invalidate
// bumps the day's generation; Set only stores labels read under the
// generation returned by Generation beforehand.
type AvailabilityCache interface {
	Get(ctx context.Context, salonID string, day time.Time) ([]string, bool, error)
	Generation(ctx context.Context, salonID string, day time.Time) (int64, error)
	Set(ctx context.Context, salonID string, day time.Time, generation int64, labels []string) error
	Invalidate(ctx context.Context, salonID string, day time.Time) error
}

// EventPublisher fans booking events out to live subscribers of a salon.
type EventPublisher interface {
	Publish(salonID, eventType string, payload any)
}
