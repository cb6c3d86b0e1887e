package booking

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	gormsqlite "gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	_ "modernc.org/sqlite"

	"qurux/internal/domain/catalog"
)

const (
	testSalonID    = "0b7f0e5a-58a1-4d7e-9a4c-2f1f7f0c1a01"
	testOtherSalon = "0b7f0e5a-58a1-4d7e-9a4c-2f1f7f0c1a02"
	testServiceID  = "5d2c6a1e-7f43-4b2a-8c11-6e0f3b9a2b01"
	testOtherSvc   = "5d2c6a1e-7f43-4b2a-8c11-6e0f3b9a2b02"
	testOwnerID    = "9e3a7c10-1d2b-4f5e-8a9b-0c1d2e3f4a01"
	testManagerID  = "9e3a7c10-1d2b-4f5e-8a9b-0c1d2e3f4a02"
	testCustomer   = "c4d5e6f7-0a1b-4c2d-9e3f-4a5b6c7d8e01"
	testCustomer2  = "c4d5e6f7-0a1b-4c2d-9e3f-4a5b6c7d8e02"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:booking_%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(gormsqlite.New(gormsqlite.Config{DriverName: "sqlite", DSN: dsn}),
		&gorm.Config{Logger: logger.Default.LogMode(logger.Silent), TranslateError: true})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(&catalog.Salon{}, &catalog.Service{}))
	require.NoError(t, Migrate(db))
	seedCatalog(t, db)
	return db
}

// seedCatalog creates "Qurux Hablos" owned by testOwnerID offering Henna
// Application for 15, plus a second salon owned by testManagerID.
func seedCatalog(t *testing.T, db *gorm.DB) {
	t.Helper()
	now := time.Now().UTC()
	require.NoError(t, db.Create(&catalog.Salon{ID: testSalonID, OwnerID: testOwnerID, Name: "Qurux Hablos", Address: "Maka Al Mukarama", City: "Mogadishu", CreatedAt: now}).Error)
	require.NoError(t, db.Create(&catalog.Salon{ID: testOtherSalon, OwnerID: testManagerID, Name: "Golden Glow", City: "Hargeisa", CreatedAt: now}).Error)
	require.NoError(t, db.Create(&catalog.Service{ID: testServiceID, SalonID: testSalonID, NameSomali: "Xenna", NameEnglish: "Henna Application", Category: catalog.CategoryBody, DurationMin: 60, Price: 15, CreatedAt: now}).Error)
	require.NoError(t, db.Create(&catalog.Service{ID: testOtherSvc, SalonID: testOtherSalon, NameEnglish: "Hair Braiding", Category: catalog.CategoryHair, DurationMin: 60, Price: 20, CreatedAt: now}).Error)
}

type recordingNotifier struct {
	mu    sync.Mutex
	calls []notifyCall
}

type notifyCall struct {
	BookingID string
	Status    Status
}

func (n *recordingNotifier) Dispatch(bookingID string, status Status) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.calls = append(n.calls, notifyCall{BookingID: bookingID, Status: status})
}

func (n *recordingNotifier) Calls() []notifyCall {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]notifyCall(nil), n.calls...)
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []string
}

func (p *recordingPublisher) Publish(salonID, eventType string, _ any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, salonID+"|"+eventType)
}

func (p *recordingPublisher) Events() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.events...)
}

type testEnv struct {
	db        *gorm.DB
	repo      *Repository
	svc       *Service
	notifier  *recordingNotifier
	publisher *recordingPublisher
	now       time.Time
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db := newTestDB(t)
	env := &testEnv{
		db:        db,
		repo:      NewRepository(db),
		notifier:  &recordingNotifier{},
		publisher: &recordingPublisher{},
		now:       time.Date(2025, 12, 20, 8, 0, 0, 0, time.UTC),
	}
	env.svc = NewService(Deps{
		Bookings:  env.repo,
		Catalog:   catalog.NewRepository(db),
		Notifier:  env.notifier,
		Publisher: env.publisher,
		Log:       zerolog.Nop(),
		Now:       func() time.Time { return env.now },
	})
	return env
}

func hennaRequest(timeSlot string) CreateBookingRequest {
	return CreateBookingRequest{
		SalonID:       testSalonID,
		ServiceID:     testServiceID,
		Date:          "2025-12-25T00:00:00.000Z",
		TimeSlot:      timeSlot,
		TotalPrice:    15,
		PaymentMethod: string(PaymentEVC),
		CustomerName:  "Amina Yusuf",
		CustomerPhone: "+252615000000",
	}
}

func customer(id string) Actor { return Actor{ID: id, Role: "CUSTOMER"} }
func manager(id string) Actor  { return Actor{ID: id, Role: "MANAGER"} }

func mustCreate(t *testing.T, env *testEnv, actor Actor, req CreateBookingRequest) *Booking {
	t.Helper()
	b, err := env.svc.Create(context.Background(), actor, req)
	require.NoError(t, err)
	return b
}
