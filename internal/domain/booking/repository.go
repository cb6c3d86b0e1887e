package booking

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	"qurux/internal/domain/slot"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Create(ctx context.Context, b *Booking, labels []string) error {
	day := slot.DayKey(b.Date)
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(b).Error; err != nil {
			return err
		}

		claims := make([]slotClaim, 0, len(labels))
		for _, l := range labels {
			claims = append(claims, slotClaim{
				ID:        uuid.NewString(),
				BookingID: b.ID,
				SalonID:   b.SalonID,
				Day:       day,
				Label:     l,
				CreatedAt: b.CreatedAt,
			})
		}
		if err := tx.Create(&claims).Error; err != nil {
			if isUniqueViolation(err) {
				return ErrSlotTaken
			}
			return err
		}
		return nil
	})
}

func (r *Repository) GetByID(ctx context.Context, id string) (*Booking, error) {
	var b Booking
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&b).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &b, nil
}

func (r *Repository) OccupiedTimeSlots(ctx context.Context, salonID string, from, to time.Time) ([]string, error) {
	var slots []string
	err := r.db.WithContext(ctx).
		Model(&Booking{}).
		Where("salon_id = ?", salonID).
		Where("status IN ?", activeStatuses()).
		Where("booking_date >= ? AND booking_date <= ?", from, to).
		Pluck("time_slot", &slots).Error
	return slots, err
}

func (r *Repository) Transition(ctx context.Context, id string, from, to Status, at time.Time) (*Booking, error) {
	var out Booking
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&Booking{}).
			Where("id = ? AND status = ?", id, string(from)).
			Updates(map[string]any{"status": string(to), "updated_at": at})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			// gone or moved on since it was read
			var count int64
			if err := tx.Model(&Booking{}).Where("id = ?", id).Count(&count).Error; err != nil {
				return err
			}
			if count == 0 {
				return ErrNotFound
			}
			return ErrInvalidStatusTransition
		}

		if to.IsTerminal() {
			if err := tx.Model(&slotClaim{}).
				Where("booking_id = ? AND released = ?", id, false).
				Update("released", true).Error; err != nil {
				return err
			}
		}
		return tx.Where("id = ?", id).First(&out).Error
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *Repository) ListByCustomer(ctx context.Context, customerID string) ([]Booking, error) {
	var items []Booking
	err := r.db.WithContext(ctx).
		Where("customer_id = ?", customerID).
		Order("created_at DESC").
		Find(&items).Error
	return items, err
}

func (r *Repository) ListBySalons(ctx context.Context, salonIDs []string) ([]Booking, error) {
	if len(salonIDs) == 0 {
		return []Booking{}, nil
	}
	var items []Booking
	err := r.db.WithContext(ctx).
		Where("salon_id IN ?", salonIDs).
		Order("created_at DESC").
		Find(&items).Error
	return items, err
}

func (r *Repository) ListConfirmedBefore(ctx context.Context, before time.Time) ([]Booking, error) {
	var items []Booking
	err := r.db.WithContext(ctx).
		Where("status = ?", string(StatusConfirmed)).
		Where("booking_date <= ?", before).
		Order("booking_date ASC").
		Find(&items).Error
	return items, err
}

// isUniqueViolation covers the translated gorm error, raw Postgres 23505 and
// the SQLite driver message.
func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
