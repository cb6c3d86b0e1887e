package booking

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"qurux/internal/domain/catalog"
	"qurux/internal/domain/slot"
	"qurux/internal/metrics"
)

// SlotLength is how long one calendar slot lasts.
const SlotLength = time.Hour

const priceTolerance = 0.005

type Deps struct {
	Bookings  BookingRepository
	Catalog   CatalogReader
	Payments  PaymentGateway
	Notifier  Notifier
	Cache     AvailabilityCache
	Publisher EventPublisher
	Calendar  *slot.Calendar
	Log       zerolog.Logger
	Now       func() time.Time
}

type Service struct {
	bookings  BookingRepository
	catalog   CatalogReader
	payments  PaymentGateway
	notifier  Notifier
	cache     AvailabilityCache
	publisher EventPublisher
	calendar  *slot.Calendar
	log       zerolog.Logger
	now       func() time.Time
}

func NewService(d Deps) *Service {
	s := &Service{
		bookings:  d.Bookings,
		catalog:   d.Catalog,
		payments:  d.Payments,
		notifier:  d.Notifier,
		cache:     d.Cache,
		publisher: d.Publisher,
		calendar:  d.Calendar,
		log:       d.Log.With().Str("component", "booking").Logger(),
		now:       d.Now,
	}
	if s.payments == nil {
		s.payments = NewSimulatedGateway(d.Log)
	}
	if s.cache == nil {
		s.cache = noopCache{}
	}
	if s.calendar == nil {
		s.calendar = slot.Default()
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

func (s *Service) Calendar() *slot.Calendar {
	return s.calendar
}

type admission struct {
	salonID   string
	serviceID string
	day       time.Time
	labels    []string
	total     float64
	method    PaymentMethod
	name      string
	phone     string
}

func (s *Service) normalize(req CreateBookingRequest) (*admission, error) {
	in := &admission{
		salonID:   strings.TrimSpace(req.SalonID),
		serviceID: strings.TrimSpace(req.ServiceID),
		total:     req.TotalPrice,
		method:    PaymentMethod(strings.TrimSpace(req.PaymentMethod)),
		name:      strings.TrimSpace(req.CustomerName),
		phone:     strings.TrimSpace(req.CustomerPhone),
	}
	if _, err := uuid.Parse(in.salonID); err != nil {
		return nil, fmt.Errorf("%w: salonId must be a uuid", ErrValidation)
	}
	if _, err := uuid.Parse(in.serviceID); err != nil {
		return nil, fmt.Errorf("%w: serviceId must be a uuid", ErrValidation)
	}
	if in.name == "" {
		return nil, fmt.Errorf("%w: customerName is required", ErrValidation)
	}
	if !(in.total > 0) || math.IsInf(in.total, 0) {
		return nil, fmt.Errorf("%w: totalPrice must be positive", ErrValidation)
	}
	if !in.method.IsValid() {
		return nil, fmt.Errorf("%w: unsupported paymentMethod %q", ErrValidation, req.PaymentMethod)
	}

	day, err := slot.ParseDay(req.Date)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	in.day = day

	labels, err := s.calendar.Parse(req.TimeSlot)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	in.labels = labels
	return in, nil
}

// Create admits a new Pending booking. Slot uniqueness is decided by the
// storage layer; the loser of a race gets ErrSlotTaken.
func (s *Service) Create(ctx context.Context, actor Actor, req CreateBookingRequest) (*Booking, error) {
	if actor.ID == "" {
		return nil, ErrUnauthenticated
	}

	in, err := s.normalize(req)
	if err != nil {
		metrics.IncAdmission("rejected")
		return nil, err
	}

	svc, err := s.catalog.GetService(ctx, in.serviceID)
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			metrics.IncAdmission("rejected")
			return nil, fmt.Errorf("%w: service %s does not exist", ErrValidation, in.serviceID)
		}
		return nil, fmt.Errorf("load service: %w", err)
	}
	salon, err := s.catalog.GetSalon(ctx, in.salonID)
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			metrics.IncAdmission("rejected")
			return nil, fmt.Errorf("%w: salon %s does not exist", ErrValidation, in.salonID)
		}
		return nil, fmt.Errorf("load salon: %w", err)
	}
	if svc.SalonID != salon.ID {
		metrics.IncAdmission("rejected")
		return nil, ErrServiceSalonMismatch
	}

	expected := svc.Price * float64(len(in.labels))
	if math.Abs(expected-in.total) > priceTolerance {
		metrics.IncAdmission("rejected")
		return nil, fmt.Errorf("%w: totalPrice %.2f does not match %.2f for %d slot(s)", ErrValidation, in.total, expected, len(in.labels))
	}

	if err := s.payments.Charge(ctx, Payment{CustomerID: actor.ID, Amount: in.total, Method: in.method}); err != nil {
		metrics.IncAdmission("rejected")
		if errors.Is(err, ErrPaymentDeclined) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrPaymentDeclined, err)
	}

	now := s.now().UTC()
	b := &Booking{
		ID:            uuid.NewString(),
		SalonID:       salon.ID,
		ServiceID:     svc.ID,
		CustomerID:    actor.ID,
		CustomerName:  in.name,
		CustomerPhone: in.phone,
		Date:          in.day,
		TimeSlot:      s.calendar.Join(in.labels),
		PaymentMethod: in.method,
		UnitPrice:     svc.Price,
		TotalPrice:    in.total,
		Status:        StatusPending,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := s.bookings.Create(ctx, b, in.labels); err != nil {
		if errors.Is(err, ErrSlotTaken) {
			metrics.IncAdmission("conflict")
			s.log.Info().
				Str("salon_id", b.SalonID).
				Str("date", slot.DayKey(b.Date)).
				Str("time_slot", b.TimeSlot).
				Msg("slot conflict")
			return nil, err
		}
		metrics.IncAdmission("error")
		return nil, fmt.Errorf("create booking: %w", err)
	}

	metrics.IncAdmission("admitted")
	s.log.Info().
		Str("booking_id", b.ID).
		Str("salon_id", b.SalonID).
		Str("customer_id", b.CustomerID).
		Str("time_slot", b.TimeSlot).
		Msg("booking admitted")

	s.invalidate(ctx, b)
	s.publish(b, EventBookingCreated)
	return b, nil
}

// Availability lists the labels held by Pending or Confirmed bookings of the
// salon on the given UTC day, in calendar order.
func (s *Service) Availability(ctx context.Context, salonID, date string) ([]string, error) {
	salonID = strings.TrimSpace(salonID)
	if salonID == "" {
		return nil, fmt.Errorf("%w: salonId is required", ErrValidation)
	}
	day, err := slot.ParseDay(date)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	cacheable := true
	if cached, ok, err := s.cache.Get(ctx, salonID, day); err != nil {
		s.log.Warn().Err(err).Str("salon_id", salonID).Msg("availability cache read failed")
		cacheable = false
	} else if ok {
		return cached, nil
	}

	// taken before the read so a write landing in between wins over this snapshot
	var generation int64
	if cacheable {
		if generation, err = s.cache.Generation(ctx, salonID, day); err != nil {
			s.log.Warn().Err(err).Str("salon_id", salonID).Msg("availability cache generation failed")
			cacheable = false
		}
	}

	from, to := slot.DayBounds(day)
	raw, err := s.bookings.OccupiedTimeSlots(ctx, salonID, from, to)
	if err != nil {
		return nil, fmt.Errorf("query availability: %w", err)
	}
	occupied := s.calendar.Occupied(raw)

	if cacheable {
		if err := s.cache.Set(ctx, salonID, day, generation, occupied); err != nil {
			s.log.Warn().Err(err).Str("salon_id", salonID).Msg("availability cache write failed")
		}
	}
	return occupied, nil
}

// Slots renders the full calendar of the day with each label marked taken or free.
func (s *Service) Slots(ctx context.Context, salonID, date string) (*SlotsResponse, error) {
	occupied, err := s.Availability(ctx, salonID, date)
	if err != nil {
		return nil, err
	}
	day, _ := slot.ParseDay(date)
	return &SlotsResponse{
		SalonID: strings.TrimSpace(salonID),
		Date:    slot.DayKey(day),
		Slots:   s.calendar.Render(occupied),
	}, nil
}

// UpdateStatus applies an owner-driven transition. Cancellation is not
// reachable here; customers use Cancel. Completion is accepted once the last
// slot has ended, the same rule the sweeper applies.
func (s *Service) UpdateStatus(ctx context.Context, actor Actor, bookingID, status string) (*Booking, error) {
	if actor.ID == "" {
		return nil, ErrUnauthenticated
	}
	target, err := ParseStatus(strings.TrimSpace(status))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	if target == StatusCancelled {
		return nil, fmt.Errorf("%w: use the cancel endpoint", ErrValidation)
	}

	b, err := s.bookings.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	salon, err := s.catalog.GetSalon(ctx, b.SalonID)
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			return nil, ErrForbidden
		}
		return nil, fmt.Errorf("load salon: %w", err)
	}
	if salon.OwnerID != actor.ID {
		return nil, ErrForbidden
	}
	if target == StatusCompleted && b.Status == StatusConfirmed && !s.hasEnded(b, s.now().UTC()) {
		return nil, fmt.Errorf("%w: appointment has not ended yet", ErrInvalidStatusTransition)
	}

	return s.transition(ctx, b, target)
}

// Cancel lets the booking's customer withdraw a Pending booking.
func (s *Service) Cancel(ctx context.Context, actor Actor, bookingID string) (*Booking, error) {
	if actor.ID == "" {
		return nil, ErrUnauthenticated
	}
	b, err := s.bookings.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if b.CustomerID != actor.ID {
		return nil, ErrForbidden
	}
	return s.transition(ctx, b, StatusCancelled)
}

func (s *Service) transition(ctx context.Context, b *Booking, target Status) (*Booking, error) {
	if !b.Status.CanTransitionTo(target) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidStatusTransition, b.Status, target)
	}

	updated, err := s.bookings.Transition(ctx, b.ID, b.Status, target, s.now().UTC())
	if err != nil {
		if errors.Is(err, ErrInvalidStatusTransition) || errors.Is(err, ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("update status: %w", err)
	}

	metrics.IncTransition(string(target))
	s.log.Info().
		Str("booking_id", updated.ID).
		Str("from", string(b.Status)).
		Str("to", string(target)).
		Msg("booking status changed")

	if target.IsTerminal() {
		s.invalidate(ctx, updated)
	}
	s.publish(updated, EventBookingUpdated)
	if target.Notifies() && s.notifier != nil {
		s.notifier.Dispatch(updated.ID, target)
	}
	return updated, nil
}

// List returns the caller's bookings newest first: their own as CUSTOMER, or
// every booking of the salons they own as MANAGER.
func (s *Service) List(ctx context.Context, actor Actor, role string) ([]Booking, error) {
	if actor.ID == "" {
		return nil, ErrUnauthenticated
	}

	var (
		items []Booking
		err   error
	)
	switch strings.ToUpper(strings.TrimSpace(role)) {
	case "CUSTOMER":
		items, err = s.bookings.ListByCustomer(ctx, actor.ID)
	case "MANAGER":
		var salonIDs []string
		salonIDs, err = s.catalog.SalonIDsByOwner(ctx, actor.ID)
		if err != nil {
			return nil, fmt.Errorf("load owned salons: %w", err)
		}
		items, err = s.bookings.ListBySalons(ctx, salonIDs)
	default:
		return nil, fmt.Errorf("%w: role must be CUSTOMER or MANAGER", ErrValidation)
	}
	if err != nil {
		return nil, fmt.Errorf("list bookings: %w", err)
	}
	if items == nil {
		items = []Booking{}
	}
	return items, nil
}

// Get returns a booking visible to its customer or to the salon owner.
func (s *Service) Get(ctx context.Context, actor Actor, bookingID string) (*Booking, error) {
	if actor.ID == "" {
		return nil, ErrUnauthenticated
	}
	b, err := s.bookings.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if b.CustomerID == actor.ID {
		return b, nil
	}
	salon, err := s.catalog.GetSalon(ctx, b.SalonID)
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			return nil, ErrForbidden
		}
		return nil, fmt.Errorf("load salon: %w", err)
	}
	if salon.OwnerID != actor.ID {
		return nil, ErrForbidden
	}
	return b, nil
}

// CompleteDue marks Confirmed bookings whose last slot has ended as Completed.
func (s *Service) CompleteDue(ctx context.Context) (int, error) {
	now := s.now().UTC()
	due, err := s.bookings.ListConfirmedBefore(ctx, slot.Day(now))
	if err != nil {
		return 0, fmt.Errorf("list confirmed bookings: %w", err)
	}

	completed := 0
	for i := range due {
		b := &due[i]
		if !s.hasEnded(b, now) {
			continue
		}
		if _, err := s.transition(ctx, b, StatusCompleted); err != nil {
			if errors.Is(err, ErrInvalidStatusTransition) || errors.Is(err, ErrNotFound) {
				continue
			}
			return completed, err
		}
		completed++
	}
	return completed, nil
}

func (s *Service) hasEnded(b *Booking, now time.Time) bool {
	labels := b.Labels()
	if len(labels) == 0 {
		return false
	}
	start, err := s.calendar.Start(b.Date, labels[len(labels)-1])
	if err != nil {
		return false
	}
	return !now.Before(start.Add(SlotLength))
}

func (s *Service) invalidate(ctx context.Context, b *Booking) {
	if err := s.cache.Invalidate(ctx, b.SalonID, b.Date); err != nil {
		s.log.Warn().Err(err).Str("salon_id", b.SalonID).Msg("availability cache invalidation failed")
	}
}

func (s *Service) publish(b *Booking, eventType string) {
	if s.publisher == nil {
		return
	}
	s.publisher.Publish(b.SalonID, eventType, b)
}
