package main

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"qurux/internal/config"
	"qurux/internal/database"
	"qurux/internal/domain/catalog"
	"qurux/internal/domain/profile"
	"qurux/internal/logging"
	jwtsvc "qurux/internal/pkg/jwt"
)

const devPassword = "password123"

// seedNS makes ids stable across runs so reseeding is idempotent.
var seedNS = uuid.MustParse("7b0c8f4e-3d52-4c6a-9f0e-5a1b2c3d4e5f")

func seedID(name string) string {
	return uuid.NewSHA1(seedNS, []byte(name)).String()
}

type seedUser struct {
	key      string
	email    string
	fullName string
	phone    string
	role     profile.Role
}

var users = []seedUser{
	{key: "manager", email: "manager@qurux.com", fullName: "Amina Manager", phone: "+252615550001", role: profile.RoleManager},
	{key: "manager-hargeisa", email: "hanna@qurux.com", fullName: "Hanna Abdi", phone: "+252634440002", role: profile.RoleManager},
	{key: "customer", email: "client@qurux.com", fullName: "Farah Client", phone: "+252617770003", role: profile.RoleCustomer},
}

type seedSalon struct {
	key         string
	owner       string
	name        string
	description string
	address     string
	city        string
	rating      float64
	reviews     int
	services    []catalog.Service
}

var salons = []seedSalon{
	{
		key: "qurux-hablos", owner: "manager", name: "Qurux Hablos",
		description: "The premier destination for traditional and modern styling.",
		address:     "KM4", city: "Mogadishu", rating: 4.8, reviews: 124,
		services: []catalog.Service{
			{NameSomali: "Cilaan Saar", NameEnglish: "Henna Application", Category: catalog.CategoryBody, DurationMin: 60, Price: 15, IconName: "Feather"},
			{NameSomali: "Mikiyaajka", NameEnglish: "Makeup", Category: catalog.CategoryFace, DurationMin: 45, Price: 25, IconName: "Palette"},
			{NameSomali: "Timo Dabis", NameEnglish: "Weaving", Category: catalog.CategoryHair, DurationMin: 120, Price: 40, IconName: "Scissors"},
		},
	},
	{
		key: "hannas-henna", owner: "manager-hargeisa", name: "Hanna's Henna & Spa",
		description: "Specializing in intricate bridal henna and organic treatments.",
		address:     "Jigjiga Yar", city: "Hargeisa", rating: 4.9, reviews: 89,
		services: []catalog.Service{
			{NameSomali: "Qurxinta Cidiyaha", NameEnglish: "Manicure", Category: catalog.CategoryNails, DurationMin: 40, Price: 20, IconName: "Sparkles"},
			{NameSomali: "Timo Qurxin", NameEnglish: "Hair Styling", Category: catalog.CategoryHair, DurationMin: 60, Price: 30, IconName: "Scissors"},
		},
	},
	{
		key: "golden-glow", owner: "manager", name: "Golden Glow Salon",
		description: "Modern aesthetics for the modern woman.",
		address:     "Maka Al Mukarama", city: "Mogadishu", rating: 4.5, reviews: 56,
		services: []catalog.Service{
			{NameSomali: "Wajiga Dhaqis", NameEnglish: "Face Wash", Category: catalog.CategoryFace, DurationMin: 20, Price: 10, IconName: "Smile"},
			{NameSomali: "Lashes Extension", NameEnglish: "Lashes Extension", Category: catalog.CategoryFace, DurationMin: 90, Price: 35, IconName: "Eye"},
			{NameSomali: "Dhaqista Jirka", NameEnglish: "All Body Wash", Category: catalog.CategoryBody, DurationMin: 60, Price: 50, IconName: "Sun"},
		},
	},
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		bootLog := logging.New("info", "console", "seed")
		bootLog.Fatal().Err(err).Msg("load config")
	}
	log := logging.New(cfg.LogLevel, "console", cfg.AppEnv)

	db, err := database.Connect(cfg.DatabaseURL, log)
	if err != nil {
		log.Fatal().Err(err).Msg("DB connection failed")
	}
	if err := database.Migrate(db); err != nil {
		log.Fatal().Err(err).Msg("migrate failed")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(devPassword), bcrypt.DefaultCost)
	if err != nil {
		log.Fatal().Err(err).Msg("hash password")
	}

	now := time.Now().UTC()
	err = db.Transaction(func(tx *gorm.DB) error {
		for _, u := range users {
			id := seedID("user:" + u.key)
			if err := upsert(tx, &profile.Account{ID: id, Email: u.email, PasswordHash: string(hash), CreatedAt: now}); err != nil {
				return fmt.Errorf("account %s: %w", u.email, err)
			}
			if err := upsert(tx, &profile.Profile{ID: id, Email: u.email, FullName: u.fullName, PhoneNumber: u.phone, Role: u.role, CreatedAt: now}); err != nil {
				return fmt.Errorf("profile %s: %w", u.email, err)
			}
		}

		for _, s := range salons {
			salon := &catalog.Salon{
				ID:          seedID("salon:" + s.key),
				OwnerID:     seedID("user:" + s.owner),
				Name:        s.name,
				Description: s.description,
				Address:     s.address,
				City:        s.city,
				Rating:      s.rating,
				ReviewCount: s.reviews,
				CreatedAt:   now,
			}
			if err := upsert(tx, salon); err != nil {
				return fmt.Errorf("salon %s: %w", s.name, err)
			}
			for _, svc := range s.services {
				svc.ID = seedID("service:" + s.key + ":" + svc.NameEnglish)
				svc.SalonID = salon.ID
				svc.CreatedAt = now
				if err := upsert(tx, &svc); err != nil {
					return fmt.Errorf("service %s: %w", svc.NameEnglish, err)
				}
			}
		}
		return nil
	})
	if err != nil {
		log.Fatal().Err(err).Msg("seed failed")
	}

	jwtService := jwtsvc.New(cfg.JWTSecret, 30*24*time.Hour)
	fmt.Println("\nSeed complete. Development credentials (password: " + devPassword + "):")
	for _, u := range users {
		id := seedID("user:" + u.key)
		token, err := jwtService.GenerateToken(id, u.email, string(u.role))
		if err != nil {
			log.Fatal().Err(err).Msg("issue dev token")
		}
		fmt.Printf("  %-9s %-20s id=%s\n    token=%s\n", u.role, u.email, id, token)
	}
	for _, s := range salons {
		fmt.Printf("  salon %-22s id=%s\n", s.name, seedID("salon:"+s.key))
	}
}

func upsert(tx *gorm.DB, value any) error {
	return tx.Clauses(clause.OnConflict{UpdateAll: true}).Create(value).Error
}
