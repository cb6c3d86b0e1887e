package catalog

import "time"

type Category string

const (
	CategoryHair  Category = "Hair"
	CategoryFace  Category = "Face"
	CategoryBody  Category = "Body"
	CategoryNails Category = "Nails"
)

func (c Category) IsValid() bool {
	switch c {
	case CategoryHair, CategoryFace, CategoryBody, CategoryNails:
		return true
	}
	return false
}

// Service is offered by exactly one salon. Its price is copied into a booking
// at admission, so later price edits never touch historical totals.
type Service struct {
	ID          string    `json:"id" gorm:"column:id;primaryKey;type:varchar(36)"`
	SalonID     string    `json:"salonId" gorm:"column:salon_id;type:varchar(36);index"`
	NameSomali  string    `json:"nameSomali" gorm:"column:name_somali"`
	NameEnglish string    `json:"nameEnglish" gorm:"column:name_english"`
	Category    Category  `json:"category" gorm:"column:category"`
	DurationMin int       `json:"durationMin" gorm:"column:duration_min"`
	Price       float64   `json:"price" gorm:"column:price"`
	IconName    string    `json:"iconName,omitempty" gorm:"column:icon_name"`
	CreatedAt   time.Time `json:"createdAt" gorm:"column:created_at"`
}

func (Service) TableName() string { return "services" }

// DisplayName prefers the English name.
func (s *Service) DisplayName() string {
	if s.NameEnglish != "" {
		return s.NameEnglish
	}
	if s.NameSomali != "" {
		return s.NameSomali
	}
	return "Service"
}
