package router

import (
	"github.com/labstack/echo/v4"

	"github.com/Daminigadpal/Event-Service-Management-System-sub001/internal/handler"
	"github.com/Daminigadpal/Event-Service-Management-System-sub001/internal/middleware"
)

// RegisterBookings mounts bookings, payments and invoices under /v1.
// Every route requires a valid JWT; role checks happen in the services.
func RegisterBookings(e *echo.Echo, b *handler.BookingHandler, p *handler.PaymentHandler, i *handler.InvoiceHandler, jwtSecret string, limit echo.MiddlewareFunc) {
	g := e.Group("/v1", middleware.JWTAuth(jwtSecret), limit)

	// ---- Bookings ----
	g.POST("/bookings", b.Create)
	g.GET("/bookings", b.List)
	g.GET("/bookings/:id", b.Get)
	g.PATCH("/bookings/:id/status", b.UpdateStatus)
	g.PATCH("/bookings/:id/assign-staff", b.AssignStaff)
	g.DELETE("/bookings/:id/assign-staff/:staffId", b.UnassignStaff)
	g.PATCH("/bookings/:id/quote", b.UpdateQuote)
	g.GET("/bookings/:id/payment-summary", b.PaymentSummary)
	g.GET("/bookings/:id/payments", b.ListPayments)
	g.GET("/bookings/:id/invoices", b.ListInvoices)
	g.POST("/bookings/:id/invoices/sync", b.SyncInvoices)

	// ---- Payments ----
	g.POST("/payments", p.Record)
	g.PATCH("/payments/:id/status", p.UpdateStatus)

	// ---- Invoices ----
	g.POST("/invoices/quotation", i.Quotation)
	g.POST("/invoices/proforma", i.Proforma)
	g.POST("/invoices/final", i.Final)
	g.GET("/invoices/:id", i.Get)
	g.POST("/invoices/:id/refresh-status", i.RefreshStatus)
}

// RegisterSchedule mounts staff scheduling routes under /v1.
func RegisterSchedule(e *echo.Echo, s *handler.ScheduleHandler, jwtSecret string, limit echo.MiddlewareFunc) {
	g := e.Group("/v1", middleware.JWTAuth(jwtSecret), limit)
	g.POST("/schedule", s.Create)
	g.GET("/schedule/conflicts", s.Conflicts)
	g.PATCH("/schedule/:id/status", s.UpdateStatus)
	g.DELETE("/schedule/:id", s.Delete)
	g.GET("/staff/:id/schedule", s.StaffSchedule)
}
