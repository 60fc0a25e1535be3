package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Suscripta-api/internal/application/allocation"
	"github.com/jhoicas/Suscripta-api/internal/application/billing"
	"github.com/jhoicas/Suscripta-api/internal/application/inventory"
	"github.com/jhoicas/Suscripta-api/internal/application/lifecycle"
	"github.com/jhoicas/Suscripta-api/internal/application/orders"
	"github.com/jhoicas/Suscripta-api/internal/application/renewal"
	"github.com/jhoicas/Suscripta-api/internal/application/repair"
	"github.com/jhoicas/Suscripta-api/internal/domain/repository"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	InventoryUC *inventory.UseCase
	OrdersUC    *orders.UseCase
	Allocator   *allocation.AllocatorUseCase
	Warranty    *allocation.WarrantyUseCase
	RenewOrder  *renewal.RenewOrderUseCase
	RenewStock  *renewal.RenewStockUseCase
	Refund      *billing.RefundUseCase
	Repair      *repair.UseCase
	Sweep       *lifecycle.SweepUseCase
	Activity    repository.ActivityLogRepository
	JWTSecret   string
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	api := app.Group("/api")

	// Rutas protegidas (requieren Bearer Token)
	protected := api.Group("/", AuthMiddleware(deps.JWTSecret))

	// Inventory (protegido)
	inv := protected.Group("/inventory")
	inventoryHandler := NewInventoryHandler(deps.InventoryUC, deps.RenewStock, deps.Warranty, deps.Sweep, deps.Activity)
	inv.Post("/", inventoryHandler.Create)
	inv.Get("/", inventoryHandler.List)
	inv.Get("/:id", inventoryHandler.GetByID)
	inv.Post("/:id/renewals", inventoryHandler.RenewStock)
	inv.Get("/:id/renewals", inventoryHandler.ListRenewals)
	inv.Put("/:id/renewals/:renewalId/payment", inventoryHandler.UpdateRenewalPayment)
	inv.Post("/:id/clear-needs-update", inventoryHandler.ClearNeedsUpdate)
	inv.Get("/:id/activity", inventoryHandler.Activity)

	// Orders (protegido)
	ord := protected.Group("/orders")
	orderHandler := NewOrderHandler(deps.OrdersUC, deps.Allocator, deps.Warranty, deps.RenewOrder, deps.Refund, deps.Sweep, deps.Activity)
	ord.Post("/", orderHandler.Create)
	ord.Get("/", orderHandler.List)
	ord.Get("/:id", orderHandler.GetByID)
	ord.Post("/:id/assign", orderHandler.Assign)
	ord.Post("/:id/release", orderHandler.Release)
	ord.Post("/:id/renewals", orderHandler.Renew)
	ord.Put("/:id/renewals/:renewalId/payment", orderHandler.UpdateRenewalPayment)
	ord.Post("/:id/refund/preview", orderHandler.RefundPreview)
	ord.Post("/:id/refund", orderHandler.Refund)
	ord.Post("/:id/warranty/open", orderHandler.WarrantyOpen)
	ord.Post("/:id/warranty/fixed", orderHandler.WarrantyFixed)
	ord.Post("/:id/warranty/replaced", orderHandler.WarrantyReplaced)
	ord.Get("/:id/activity", orderHandler.Activity)

	// Maintenance (protegido, solo admin)
	maint := protected.Group("/maintenance", RequireRole("admin"))
	repairHandler := NewRepairHandler(deps.Repair, deps.Sweep)
	maint.Post("/sweep", repairHandler.Sweep)
	maint.Post("/clear-stale-references", repairHandler.ClearStaleReferences)
	maint.Post("/release-orphaned", repairHandler.ReleaseOrphanedAllocations)
	maint.Post("/reconcile-renewals", repairHandler.ReconcileRenewalExpiry)
}
