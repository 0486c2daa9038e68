package handler

import (
	"github.com/gofiber/fiber/v2"
)

// Handlers groups every HTTP handler mounted under /api/v1.
type Handlers struct {
	Auth     *AuthHandler
	Catalog  *CatalogHandler
	Schedule *ScheduleHandler
	Ledger   *LedgerHandler
	Order    *OrderHandler
	Record   *RecordHandler
}

// Register mounts the public auth routes and the protected API.
func (h Handlers) Register(app *fiber.App, requireAuth fiber.Handler) {
	api := app.Group("/api/v1")

	// ============ PUBLIC ROUTES ============
	auth := api.Group("/auth")
	auth.Post("/login", h.Auth.Login)
	auth.Post("/reset-password", h.Auth.ResetPassword)
	auth.Post("/validate-token", h.Auth.ValidateToken)

	// ============ PROTECTED ROUTES ============
	protected := api.Group("", requireAuth)

	protected.Get("/auth/me", h.Auth.Me)

	// Catalog
	protected.Get("/products", h.Catalog.GetProducts)
	protected.Post("/products", h.Catalog.CreateProduct)
	protected.Put("/products/:id", h.Catalog.UpdateProduct)

	protected.Get("/materials", h.Catalog.GetMaterials)
	protected.Post("/materials", h.Catalog.CreateMaterial)
	protected.Put("/materials/:id", h.Catalog.UpdateMaterial)

	protected.Get("/stock/low", h.Catalog.GetLowStock)
	protected.Get("/stock/:barcode", h.Catalog.GetStockLevel)

	protected.Get("/suppliers", h.Catalog.GetSuppliers)
	protected.Post("/suppliers", h.Catalog.CreateSupplier)
	protected.Put("/suppliers/:id", h.Catalog.UpdateSupplier)

	protected.Get("/machines", h.Catalog.GetMachines)
	protected.Post("/machines", h.Catalog.CreateMachine)
	protected.Put("/machines/:id/status", h.Catalog.UpdateMachineStatus)

	protected.Get("/prints", h.Catalog.GetPrintLogs)
	protected.Post("/prints", h.Catalog.CreatePrintLog)
	protected.Put("/prints/:id", h.Catalog.UpdatePrintLog)

	// Schedule
	protected.Get("/reservations", h.Schedule.GetReservations)
	protected.Get("/reservations/conflict", h.Schedule.CheckConflict)
	protected.Post("/reservations", h.Schedule.CreateReservation)
	protected.Put("/reservations/:id", h.Schedule.RescheduleReservation)
	protected.Put("/reservations/:id/status", h.Schedule.UpdateReservationStatus)
	protected.Post("/reservations/:id/delay", h.Schedule.ReportDelay)

	// Ledger
	protected.Get("/purchases", h.Ledger.GetPurchases)
	protected.Post("/purchases", h.Ledger.RecordPurchase)
	protected.Put("/purchases/:id", h.Ledger.EditPurchase)
	protected.Get("/sales", h.Ledger.GetSales)
	protected.Post("/sales", h.Ledger.RecordSale)
	protected.Put("/sales/:id", h.Ledger.EditSale)
	protected.Get("/ledger", h.Ledger.GetLedger)

	// Orders
	protected.Get("/orders", h.Order.GetOrders)
	protected.Get("/orders/:id", h.Order.GetOrder)
	protected.Post("/orders", h.Order.CreateOrder)
	protected.Put("/orders/:id/status", h.Order.UpdateOrderStatus)

	protected.Delete("/records/:kind/:id", h.Record.DeleteRecord)
}
