package booking

import (
	"strings"
	"time"

	"gorm.io/gorm"
)

type PaymentMethod string

const (
	PaymentZaad  PaymentMethod = "Zaad Service"
	PaymentEVC   PaymentMethod = "EVC Plus"
	PaymentEBirr PaymentMethod = "e-Dahab/eBirr"
	PaymentCard  PaymentMethod = "Credit Card"
)

func (m PaymentMethod) IsValid() bool {
	switch m {
	case PaymentZaad, PaymentEVC, PaymentEBirr, PaymentCard:
		return true
	}
	return false
}

// Booking is the reservation of one or more slots of a salon's day. TimeSlot
// holds a single label or the comma-joined labels of a multi-slot booking.
type Booking struct {
	ID            string        `json:"id" gorm:"column:id;primaryKey;type:varchar(36)"`
	SalonID       string        `json:"salonId" gorm:"column:salon_id;type:varchar(36);index:idx_bookings_salon_date"`
	ServiceID     string        `json:"serviceId" gorm:"column:service_id;type:varchar(36)"`
	CustomerID    string        `json:"customerId" gorm:"column:customer_id;type:varchar(36);index"`
	CustomerName  string        `json:"customerName" gorm:"column:customer_name"`
	CustomerPhone string        `json:"customerPhone,omitempty" gorm:"column:customer_phone"`
	Date          time.Time     `json:"date" gorm:"column:booking_date;index:idx_bookings_salon_date"`
	TimeSlot      string        `json:"timeSlot" gorm:"column:time_slot"`
	PaymentMethod PaymentMethod `json:"paymentMethod" gorm:"column:payment_method"`
	UnitPrice     float64       `json:"unitPrice" gorm:"column:unit_price"`
	TotalPrice    float64       `json:"totalPrice" gorm:"column:total_price"`
	Status        Status        `json:"status" gorm:"column:status;index"`
	CreatedAt     time.Time     `json:"createdAt" gorm:"column:created_at"`
	UpdatedAt     time.Time     `json:"updatedAt" gorm:"column:updated_at"`
}

func (Booking) TableName() string { return "bookings" }

// Labels splits TimeSlot into its individual slot labels.
func (b *Booking) Labels() []string {
	parts := strings.Split(b.TimeSlot, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// slotClaim is one held slot of a booking. At most one unreleased claim may
// exist per (salon, day, label); the database enforces it.
type slotClaim struct {
	ID        string    `gorm:"column:id;primaryKey;type:varchar(36)"`
	BookingID string    `gorm:"column:booking_id;type:varchar(36);index"`
	SalonID   string    `gorm:"column:salon_id;type:varchar(36)"`
	Day       string    `gorm:"column:booking_day;type:varchar(10)"`
	Label     string    `gorm:"column:slot_label;type:varchar(16)"`
	Released  bool      `gorm:"column:released;not null;default:false"`
	CreatedAt time.Time `gorm:"column:created_at"`
}

func (slotClaim) TableName() string { return "booking_slots" }

const activeSlotIndex = `CREATE UNIQUE INDEX IF NOT EXISTS idx_booking_slots_active
ON booking_slots (salon_id, booking_day, slot_label)
WHERE released = false`

// Migrate creates the booking tables and the active-slot unique index.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&Booking{}, &slotClaim{}); err != nil {
		return err
	}
	return db.Exec(activeSlotIndex).Error
}
