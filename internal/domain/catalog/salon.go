package catalog

import "time"

// Salon is owned by exactly one manager account.
type Salon struct {
	ID          string   `json:"id" gorm:"column:id;primaryKey;type:varchar(36)"`
	OwnerID     string   `json:"ownerId" gorm:"column:owner_id;type:varchar(36);index"`
	Name        string   `json:"name" gorm:"column:name"`
	Description string   `json:"description,omitempty" gorm:"column:description;type:text"`
	Address     string   `json:"address" gorm:"column:address"`
	City        string   `json:"city,omitempty" gorm:"column:city"`
	Latitude    *float64 `json:"latitude,omitempty" gorm:"column:latitude"`
	Longitude   *float64 `json:"longitude,omitempty" gorm:"column:longitude"`
	Images      []string `json:"images,omitempty" gorm:"column:images;serializer:json"`
	PhoneNumber string   `json:"phoneNumber,omitempty" gorm:"column:phone_number"`

	SocialLinks SocialLinks `json:"socialLinks,omitempty" gorm:"column:social_links;serializer:json"`

	Rating      float64   `json:"rating" gorm:"column:rating;default:0"`
	ReviewCount int       `json:"reviewCount" gorm:"column:review_count;default:0"`
	CreatedAt   time.Time `json:"createdAt" gorm:"column:created_at"`
}

func (Salon) TableName() string { return "salons" }

type SocialLinks struct {
	Instagram string `json:"instagram,omitempty"`
	Facebook  string `json:"facebook,omitempty"`
	TikTok    string `json:"tiktok,omitempty"`
	Twitter   string `json:"twitter,omitempty"`
}

// FullAddress is "address, city" or just whichever part is present.
func (s *Salon) FullAddress() string {
	switch {
	case s.Address != "" && s.City != "":
		return s.Address + ", " + s.City
	case s.Address != "":
		return s.Address
	default:
		return s.City
	}
}
