package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"qurux/internal/config"
	"qurux/internal/database"
	"qurux/internal/domain/booking"
	"qurux/internal/domain/catalog"
	"qurux/internal/domain/feed"
	"qurux/internal/domain/notification"
	"qurux/internal/domain/profile"
	"qurux/internal/middleware"
	jwtsvc "qurux/internal/pkg/jwt"
)

const (
	e2eSalonID    = "7a1c2d3e-4f50-4a6b-8c7d-9e0f1a2b3c01"
	e2eServiceID  = "7a1c2d3e-4f50-4a6b-8c7d-9e0f1a2b3c11"
	e2eOwnerID    = "7a1c2d3e-4f50-4a6b-8c7d-9e0f1a2b3c21"
	e2eStrangerID = "7a1c2d3e-4f50-4a6b-8c7d-9e0f1a2b3c22"
	e2eCustomerID = "7a1c2d3e-4f50-4a6b-8c7d-9e0f1a2b3c31"
	e2eDate       = "2026-01-15"
)

type E2ETestSuite struct {
	router     *gin.Engine
	db         *gorm.DB
	jwtService *jwtsvc.Service
	dispatcher *notification.Dispatcher
	mailer     *capturingMailer
}

type TestResponse struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data,omitempty"`
	Error   *ErrorDetail    `json:"error,omitempty"`
}

type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type capturingMailer struct {
	mu       sync.Mutex
	sent     []*notification.Message
	attempts int
	fail     error
}

func (m *capturingMailer) Send(_ context.Context, msg *notification.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.attempts++
	if m.fail != nil {
		return m.fail
	}
	m.sent = append(m.sent, msg)
	return nil
}

func (m *capturingMailer) FailWith(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fail = err
}

func (m *capturingMailer) Attempts() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.attempts
}

func (m *capturingMailer) Sent() []*notification.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*notification.Message(nil), m.sent...)
}

func setupTestSuite(t *testing.T) *E2ETestSuite {
	t.Helper()
	gin.SetMode(gin.TestMode)
	log := zerolog.Nop()

	dsn := fmt.Sprintf("file:e2e_%s?mode=memory&cache=shared", uuid.NewString())
	db, err := database.Connect(dsn, log)
	require.NoError(t, err, "Failed to connect to test database")
	require.NoError(t, database.Migrate(db), "Failed to migrate")
	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	now := time.Now().UTC()
	require.NoError(t, db.Create(&catalog.Salon{ID: e2eSalonID, OwnerID: e2eOwnerID, Name: "Qurux Hablos", Address: "Maka Al Mukarama", City: "Mogadishu", CreatedAt: now}).Error)
	require.NoError(t, db.Create(&catalog.Service{ID: e2eServiceID, SalonID: e2eSalonID, NameEnglish: "Henna Application", Category: catalog.CategoryBody, DurationMin: 60, Price: 15, CreatedAt: now}).Error)
	require.NoError(t, db.Create(&profile.Profile{ID: e2eCustomerID, Email: "farah@example.com", FullName: "Farah Client", Role: profile.RoleCustomer, CreatedAt: now}).Error)

	cfg := &config.Config{AdmissionRPS: 100, AdmissionBurst: 100}

	catalogRepo := catalog.NewRepository(db)
	bookingRepo := booking.NewRepository(db)
	renderer, err := notification.NewRenderer()
	require.NoError(t, err)
	mailer := &capturingMailer{}
	dispatcher := notification.NewDispatcher(
		notification.Config{Workers: 1, QueueSize: 8, Timeout: 5 * time.Second},
		notification.NewResolver(bookingRepo, profile.NewRepository(db), catalogRepo, "https://qurux.app/bookings"),
		renderer,
		mailer,
		log,
	)
	dispatcher.Start(context.Background())
	t.Cleanup(dispatcher.Stop)

	hub := feed.NewHub(log)
	t.Cleanup(hub.Close)

	svc := booking.NewService(booking.Deps{
		Bookings:  bookingRepo,
		Catalog:   catalogRepo,
		Notifier:  dispatcher,
		Publisher: hub,
		Log:       log,
	})

	jwtService := jwtsvc.New("test_secret_key_32_characters_min", 24*time.Hour)
	r := newRouter(cfg, log, routerDeps{
		jwt:      jwtService,
		bookings: booking.NewHandler(svc),
		feed:     feed.NewHandler(hub, catalogRepo, nil),
		limiter:  middleware.NewRateLimiter(cfg.AdmissionRPS, cfg.AdmissionBurst, log),
		db:       db,
	})

	return &E2ETestSuite{
		router:     r,
		db:         db,
		jwtService: jwtService,
		dispatcher: dispatcher,
		mailer:     mailer,
	}
}

func (s *E2ETestSuite) token(t *testing.T, userID, role string) string {
	t.Helper()
	tok, err := s.jwtService.GenerateToken(userID, "", role)
	require.NoError(t, err)
	return tok
}

func (s *E2ETestSuite) makeRequest(method, path string, body any, token string) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func parseResponse(t *testing.T, w *httptest.ResponseRecorder) *TestResponse {
	t.Helper()
	var resp TestResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), "body: %s", w.Body.String())
	return &resp
}

func bookingBody(timeSlot string, total float64) map[string]any {
	return map[string]any{
		"salonId":       e2eSalonID,
		"serviceId":     e2eServiceID,
		"date":          e2eDate + "T00:00:00.000Z",
		"timeSlot":      timeSlot,
		"totalPrice":    total,
		"paymentMethod": "EVC Plus",
		"customerName":  "Farah Client",
		"customerPhone": "+252615000001",
	}
}

func TestFlow_BookConfirmAndNotify(t *testing.T) {
	suite := setupTestSuite(t)
	customerTok := suite.token(t, e2eCustomerID, "CUSTOMER")
	ownerTok := suite.token(t, e2eOwnerID, "MANAGER")
	strangerTok := suite.token(t, e2eStrangerID, "MANAGER")

	var bookingID string

	t.Run("POST /bookings", func(t *testing.T) {
		w := suite.makeRequest(http.MethodPost, "/api/v1/bookings", bookingBody("10:00 AM, 11:00 AM", 30), customerTok)
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

		resp := parseResponse(t, w)
		assert.True(t, resp.Success)
		var data struct {
			Booking booking.Booking `json:"booking"`
		}
		require.NoError(t, json.Unmarshal(resp.Data, &data))
		assert.Equal(t, booking.StatusPending, data.Booking.Status)
		assert.Equal(t, e2eCustomerID, data.Booking.CustomerID)
		bookingID = data.Booking.ID
	})

	t.Run("POST /bookings overlapping slot is rejected", func(t *testing.T) {
		w := suite.makeRequest(http.MethodPost, "/api/v1/bookings", bookingBody("11:00 AM", 15), customerTok)
		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Equal(t, "SLOT_TAKEN", parseResponse(t, w).Error.Code)
	})

	t.Run("GET /bookings/availability", func(t *testing.T) {
		w := suite.makeRequest(http.MethodGet, "/api/v1/bookings/availability?salonId="+e2eSalonID+"&date="+e2eDate, nil, "")
		require.Equal(t, http.StatusOK, w.Code)

		var taken []string
		require.NoError(t, json.Unmarshal(parseResponse(t, w).Data, &taken))
		assert.Equal(t, []string{"10:00 AM", "11:00 AM"}, taken)
	})

	t.Run("PUT /bookings/:id/status by another manager", func(t *testing.T) {
		w := suite.makeRequest(http.MethodPut, "/api/v1/bookings/"+bookingID+"/status", map[string]string{"status": "Confirmed"}, strangerTok)
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("PUT /bookings/:id/status by the owner", func(t *testing.T) {
		w := suite.makeRequest(http.MethodPut, "/api/v1/bookings/"+bookingID+"/status", map[string]string{"status": "Confirmed"}, ownerTok)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	})

	t.Run("PUT /bookings/:id/cancel after confirmation", func(t *testing.T) {
		w := suite.makeRequest(http.MethodPut, "/api/v1/bookings/"+bookingID+"/cancel", nil, customerTok)
		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Equal(t, "INVALID_STATUS_TRANSITION", parseResponse(t, w).Error.Code)
	})

	t.Run("GET /bookings?role=MANAGER", func(t *testing.T) {
		w := suite.makeRequest(http.MethodGet, "/api/v1/bookings?role=MANAGER", nil, ownerTok)
		require.Equal(t, http.StatusOK, w.Code)

		var data struct {
			Bookings []booking.Booking `json:"bookings"`
		}
		require.NoError(t, json.Unmarshal(parseResponse(t, w).Data, &data))
		require.Len(t, data.Bookings, 1)
		assert.Equal(t, booking.StatusConfirmed, data.Bookings[0].Status)
	})

	suite.dispatcher.Stop()
	sent := suite.mailer.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, "farah@example.com", sent[0].To)
	assert.Contains(t, sent[0].Subject, "Booking Confirmed")
}

func TestFlow_CustomerCancelReleasesSlot(t *testing.T) {
	suite := setupTestSuite(t)
	customerTok := suite.token(t, e2eCustomerID, "CUSTOMER")

	w := suite.makeRequest(http.MethodPost, "/api/v1/bookings", bookingBody("02:00 PM", 15), customerTok)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var data struct {
		Booking booking.Booking `json:"booking"`
	}
	require.NoError(t, json.Unmarshal(parseResponse(t, w).Data, &data))

	w = suite.makeRequest(http.MethodPut, "/api/v1/bookings/"+data.Booking.ID+"/cancel", nil, customerTok)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = suite.makeRequest(http.MethodPost, "/api/v1/bookings", bookingBody("02:00 PM", 15), customerTok)
	assert.Equal(t, http.StatusCreated, w.Code, "cancelled slot should be bookable again")

	suite.dispatcher.Stop()
	assert.Empty(t, suite.mailer.Sent())
}

func TestFlow_ConfirmSurvivesMailFailure(t *testing.T) {
	suite := setupTestSuite(t)
	suite.mailer.FailWith(errors.New("smtp: 421 service not available"))
	customerTok := suite.token(t, e2eCustomerID, "CUSTOMER")
	ownerTok := suite.token(t, e2eOwnerID, "MANAGER")

	w := suite.makeRequest(http.MethodPost, "/api/v1/bookings", bookingBody("04:00 PM", 15), customerTok)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var created struct {
		Booking booking.Booking `json:"booking"`
	}
	require.NoError(t, json.Unmarshal(parseResponse(t, w).Data, &created))

	w = suite.makeRequest(http.MethodPut, "/api/v1/bookings/"+created.Booking.ID+"/status", map[string]string{"status": "Confirmed"}, ownerTok)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.True(t, parseResponse(t, w).Success)

	// drain the queue so the failed delivery has happened before re-reading
	suite.dispatcher.Stop()
	assert.Equal(t, 1, suite.mailer.Attempts())
	assert.Empty(t, suite.mailer.Sent())

	w = suite.makeRequest(http.MethodGet, "/api/v1/bookings/"+created.Booking.ID, nil, customerTok)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var fetched struct {
		Booking booking.Booking `json:"booking"`
	}
	require.NoError(t, json.Unmarshal(parseResponse(t, w).Data, &fetched))
	assert.Equal(t, booking.StatusConfirmed, fetched.Booking.Status)
}

func TestFlow_AuthAndValidation(t *testing.T) {
	suite := setupTestSuite(t)
	customerTok := suite.token(t, e2eCustomerID, "CUSTOMER")

	t.Run("missing token", func(t *testing.T) {
		w := suite.makeRequest(http.MethodPost, "/api/v1/bookings", bookingBody("09:00 AM", 15), "")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("price mismatch", func(t *testing.T) {
		w := suite.makeRequest(http.MethodPost, "/api/v1/bookings", bookingBody("09:00 AM", 1), customerTok)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "VALIDATION_ERROR", parseResponse(t, w).Error.Code)
	})

	t.Run("unknown slot label", func(t *testing.T) {
		w := suite.makeRequest(http.MethodPost, "/api/v1/bookings", bookingBody("01:00 PM", 15), customerTok)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("health", func(t *testing.T) {
		w := suite.makeRequest(http.MethodGet, "/health", nil, "")
		assert.Equal(t, http.StatusOK, w.Code)
	})
}
