package notification

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"qurux/internal/domain/booking"
	"qurux/internal/domain/catalog"
	"qurux/internal/domain/profile"
)

// ErrNoRecipient means neither the profile nor the identity account has an email.
var ErrNoRecipient = errors.New("notification: no recipient email")

const (
	fallbackCustomerName = "Valued Customer"
	fallbackServiceName  = "Service"
	fallbackSalonName    = "Salon"
	dateLayout           = "Monday, January 2, 2006"
)

type BookingReader interface {
	GetByID(ctx context.Context, id string) (*booking.Booking, error)
}

type ProfileReader interface {
	GetProfile(ctx context.Context, id string) (*profile.Profile, error)
	GetAccount(ctx context.Context, id string) (*profile.Account, error)
}

type CatalogReader interface {
	GetSalon(ctx context.Context, id string) (*catalog.Salon, error)
	GetService(ctx context.Context, id string) (*catalog.Service, error)
}

// Resolver gathers the recipient and display details of a booking email.
type Resolver struct {
	bookings     BookingReader
	profiles     ProfileReader
	catalog      CatalogReader
	bookingsLink string
}

func NewResolver(bookings BookingReader, profiles ProfileReader, catalog CatalogReader, bookingsLink string) *Resolver {
	return &Resolver{
		bookings:     bookings,
		profiles:     profiles,
		catalog:      catalog,
		bookingsLink: bookingsLink,
	}
}

// Resolve returns the recipient address and email details for bookingID.
// The profile email wins; the identity account email is the fallback.
// Missing service or salon rows degrade to generic names.
func (r *Resolver) Resolve(ctx context.Context, bookingID string) (string, *Details, error) {
	b, err := r.bookings.GetByID(ctx, bookingID)
	if err != nil {
		return "", nil, fmt.Errorf("load booking %s: %w", bookingID, err)
	}

	name := strings.TrimSpace(b.CustomerName)
	if name == "" {
		name = fallbackCustomerName
	}

	var (
		email     string
		lookupErr error
	)
	p, err := r.profiles.GetProfile(ctx, b.CustomerID)
	switch {
	case err == nil && strings.TrimSpace(p.Email) != "":
		email = strings.TrimSpace(p.Email)
		if full := strings.TrimSpace(p.FullName); full != "" {
			name = full
		}
	case err != nil && !errors.Is(err, profile.ErrNotFound):
		lookupErr = fmt.Errorf("load profile: %w", err)
	}
	if email == "" {
		acc, err := r.profiles.GetAccount(ctx, b.CustomerID)
		switch {
		case err == nil && strings.TrimSpace(acc.Email) != "":
			email = strings.TrimSpace(acc.Email)
		case err != nil && !errors.Is(err, profile.ErrNotFound):
			lookupErr = errors.Join(lookupErr, fmt.Errorf("load account: %w", err))
		}
	}
	if email == "" {
		if lookupErr != nil {
			return "", nil, lookupErr
		}
		return "", nil, ErrNoRecipient
	}

	d := &Details{
		BookingID:      b.ID,
		CustomerName:   name,
		ServiceName:    fallbackServiceName,
		SalonName:      fallbackSalonName,
		Date:           b.Date.UTC().Format(dateLayout),
		Time:           b.TimeSlot,
		Price:          "$" + strconv.FormatFloat(b.TotalPrice, 'f', -1, 64),
		BookingLink:    r.bookingsLink,
		RescheduleLink: r.bookingsLink,
		Year:           time.Now().Year(),
	}
	if svc, err := r.catalog.GetService(ctx, b.ServiceID); err == nil && svc.NameEnglish != "" {
		d.ServiceName = svc.NameEnglish
	}
	if salon, err := r.catalog.GetSalon(ctx, b.SalonID); err == nil {
		if salon.Name != "" {
			d.SalonName = salon.Name
		}
		d.SalonAddress = salon.FullAddress()
	}
	return email, d, nil
}
