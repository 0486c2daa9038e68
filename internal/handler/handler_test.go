package handler

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go-printshop-ws/internal/lock"
	"go-printshop-ws/internal/middleware"
	"go-printshop-ws/internal/model"
	"go-printshop-ws/internal/repository"
	"go-printshop-ws/internal/service"
	"go-printshop-ws/internal/testutil"
	"go-printshop-ws/pkg/jwt"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"gorm.io/gorm"
)

type testServer struct {
	app   *fiber.App
	db    *gorm.DB
	token string
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	db := testutil.NewTestDB(t)
	log := zaptest.NewLogger(t)
	coord := service.NewCoordinator(db, lock.NewLocalLocker(), nil, log)

	products := repository.NewProductRepo(db)
	materials := repository.NewMaterialRepo(db)
	ledger := repository.NewLedgerRepo(db)
	suppliers := repository.NewSupplierRepo(db)
	purchases := repository.NewPurchaseRepo(db)
	sales := repository.NewSaleRepo(db)
	orders := repository.NewOrderRepo(db)
	machines := repository.NewMachineRepo(db)
	reservations := repository.NewReservationRepo(db)
	prints := repository.NewPrintLogRepo(db)

	authService := service.NewAuthService(repository.NewUserRepo(db), jwt.NewSigner("test-secret", time.Hour, "printshop-test"), log)
	_, _, err := authService.EnsureAdmin("admin@example.com", "admin123", "Admin")
	require.NoError(t, err)

	handlers := Handlers{
		Auth:     NewAuthHandler(authService),
		Catalog:  NewCatalogHandler(service.NewCatalogService(coord, products, materials, ledger, suppliers, machines, prints, nil, log)),
		Schedule: NewScheduleHandler(service.NewSchedulerService(coord, machines, reservations, orders, nil, nil, log)),
		Ledger:   NewLedgerHandler(service.NewLedgerService(coord, products, materials, ledger, purchases, sales, nil, nil, log)),
		Order:    NewOrderHandler(service.NewOrderService(coord, orders, products, materials, ledger, prints, nil, nil, log)),
		Record: NewRecordHandler(service.NewEntityService(coord, service.EntityRepos{
			Products:     products,
			Materials:    materials,
			Suppliers:    suppliers,
			Purchases:    purchases,
			Sales:        sales,
			Orders:       orders,
			Machines:     machines,
			Reservations: reservations,
			PrintLogs:    prints,
			Ledger:       ledger,
		}, nil, log)),
	}

	app := fiber.New()
	handlers.Register(app, middleware.RequireAuth(authService))

	s := &testServer{app: app, db: db}
	resp, body := s.do(t, http.MethodPost, "/api/v1/auth/login", fiber.Map{"email": "admin@example.com", "password": "admin123"})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))

	var login service.LoginResponse
	require.NoError(t, json.Unmarshal(body, &login))
	s.token = login.Token
	return s
}

func (s *testServer) do(t *testing.T, method, path string, payload interface{}) (*http.Response, []byte) {
	t.Helper()
	var reader io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if s.token != "" {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}

	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, body
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	s := newTestServer(t)
	s.token = ""

	resp, _ := s.do(t, http.MethodGet, "/api/v1/products", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestMeReturnsTokenOwner(t *testing.T) {
	s := newTestServer(t)

	resp, body := s.do(t, http.MethodGet, "/api/v1/auth/me", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))

	var out struct {
		User model.UserResponse `json:"user"`
	}
	require.NoError(t, json.Unmarshal(body, &out))
	assert.Equal(t, "admin@example.com", out.User.Email)
}

func TestLoginRejectsMalformedEmail(t *testing.T) {
	s := newTestServer(t)
	s.token = ""

	resp, _ := s.do(t, http.MethodPost, "/api/v1/auth/login", fiber.Map{"email": "admin", "password": "admin123"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestCreateReservationConflict(t *testing.T) {
	s := newTestServer(t)
	machine := testutil.SeedMachine(t, s.db, "Prusa MK4")
	existing := testutil.SeedReservation(t, s.db, machine.ID, testutil.Hour(10, 0), testutil.Hour(12, 0), model.ReservationScheduled)

	resp, body := s.do(t, http.MethodPost, "/api/v1/reservations", fiber.Map{
		"machine_id": machine.ID,
		"title":      "overlap",
		"start_at":   testutil.Hour(11, 0),
		"end_at":     testutil.Hour(13, 0),
	})
	require.Equal(t, http.StatusConflict, resp.StatusCode, string(body))

	var out struct {
		Error    string `json:"error"`
		Conflict struct {
			ReservationID string `json:"reservation_id"`
		} `json:"conflict"`
	}
	require.NoError(t, json.Unmarshal(body, &out))
	assert.Equal(t, existing.ID.String(), out.Conflict.ReservationID)

	// touching the end of the existing booking is allowed
	resp, body = s.do(t, http.MethodPost, "/api/v1/reservations", fiber.Map{
		"machine_id": machine.ID,
		"title":      "adjacent",
		"start_at":   testutil.Hour(12, 0),
		"end_at":     testutil.Hour(13, 0),
	})
	assert.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
}

func TestReportDelayRejectsOutOfRange(t *testing.T) {
	s := newTestServer(t)
	machine := testutil.SeedMachine(t, s.db, "Bambu X1")
	r := testutil.SeedReservation(t, s.db, machine.ID, testutil.Hour(9, 0), testutil.Hour(10, 0), model.ReservationScheduled)

	resp, _ := s.do(t, http.MethodPost, fmt.Sprintf("/api/v1/reservations/%s/delay", r.ID), fiber.Map{"minutes": 0})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp, _ = s.do(t, http.MethodPost, fmt.Sprintf("/api/v1/reservations/%s/delay", r.ID), fiber.Map{"minutes": 200000000})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, body := s.do(t, http.MethodPost, fmt.Sprintf("/api/v1/reservations/%s/delay", r.ID), fiber.Map{"minutes": 30})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
}

func TestRecordSaleInsufficientStock(t *testing.T) {
	s := newTestServer(t)
	testutil.SeedProduct(t, s.db, "SKU-1", 2)

	resp, body := s.do(t, http.MethodPost, "/api/v1/sales", fiber.Map{
		"product_barcode": "SKU-1",
		"quantity":        5,
		"total_price":     "50",
	})
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode, string(body))

	resp, body = s.do(t, http.MethodPost, "/api/v1/sales", fiber.Map{
		"product_barcode": "SKU-1",
		"quantity":        2,
		"total_price":     "20",
	})
	assert.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
}

func TestDeleteRecord(t *testing.T) {
	s := newTestServer(t)
	machine := testutil.SeedMachine(t, s.db, "Ender 3")

	resp, _ := s.do(t, http.MethodDelete, fmt.Sprintf("/api/v1/records/widgets/%s", machine.ID), nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = s.do(t, http.MethodDelete, "/api/v1/records/machine/not-a-uuid", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	testutil.SeedReservation(t, s.db, machine.ID, testutil.Hour(8, 0), testutil.Hour(9, 0), model.ReservationScheduled)
	resp, _ = s.do(t, http.MethodDelete, fmt.Sprintf("/api/v1/records/machine/%s", machine.ID), nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	other := testutil.SeedMachine(t, s.db, "Spare")
	resp, body := s.do(t, http.MethodDelete, fmt.Sprintf("/api/v1/records/machine/%s", other.ID), nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode, string(body))

	resp, _ = s.do(t, http.MethodDelete, fmt.Sprintf("/api/v1/records/machine/%s", other.ID), nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestStockLevelNotFound(t *testing.T) {
	s := newTestServer(t)

	resp, _ := s.do(t, http.MethodGet, "/api/v1/stock/missing", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestEditPurchase(t *testing.T) {
	s := newTestServer(t)
	testutil.SeedProduct(t, s.db, "SKU-1", 0)

	resp, body := s.do(t, http.MethodPost, "/api/v1/purchases", fiber.Map{
		"item_barcode": "SKU-1",
		"category":     "product",
		"quantity":     "5",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
	var created struct {
		Data model.Purchase `json:"data"`
	}
	require.NoError(t, json.Unmarshal(body, &created))

	resp, body = s.do(t, http.MethodPost, "/api/v1/sales", fiber.Map{
		"product_barcode": "SKU-1",
		"quantity":        4,
		"total_price":     "40",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))

	path := fmt.Sprintf("/api/v1/purchases/%s", created.Data.ID)
	resp, body = s.do(t, http.MethodPut, path, fiber.Map{
		"item_barcode": "SKU-1",
		"category":     "product",
		"quantity":     "2",
	})
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode, string(body))

	resp, body = s.do(t, http.MethodPut, path, fiber.Map{
		"item_barcode": "SKU-1",
		"category":     "product",
		"quantity":     "7",
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode, string(body))

	var product model.Product
	require.NoError(t, s.db.First(&product, "barcode = ?", "SKU-1").Error)
	assert.Equal(t, int64(3), product.Stock)

	resp, _ = s.do(t, http.MethodPut, "/api/v1/purchases/not-a-uuid", fiber.Map{})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
