package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Suscripta-api/internal/application/lifecycle"
	"github.com/jhoicas/Suscripta-api/internal/application/repair"
)

// RepairHandler expone los escaneos de reconciliación bajo demanda.
// Son idempotentes: una segunda pasada sobre datos sanos no repara nada.
type RepairHandler struct {
	uc    *repair.UseCase
	sweep *lifecycle.SweepUseCase
}

// NewRepairHandler construye el handler.
func NewRepairHandler(uc *repair.UseCase, sweep *lifecycle.SweepUseCase) *RepairHandler {
	return &RepairHandler{uc: uc, sweep: sweep}
}

// ClearStaleReferences godoc
// @Summary      Limpiar referencias obsoletas de pedidos
// @Description  Borra o realinea punteros de pedidos hacia unidades que ya no los reclaman, siguiendo la cadena de resolución.
// @Tags         maintenance
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  repair.Report
// @Router       /api/maintenance/clear-stale-references [post]
func (h *RepairHandler) ClearStaleReferences(c *fiber.Ctx) error {
	report, err := h.uc.ClearStaleReferences(c.Context(), GetUserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(report)
}

// ReleaseOrphanedAllocations godoc
// @Summary      Liberar asignaciones huérfanas
// @Description  Libera unidades o perfiles que reclaman pedidos inexistentes o que ya no apuntan de vuelta.
// @Tags         maintenance
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  repair.Report
// @Router       /api/maintenance/release-orphaned [post]
func (h *RepairHandler) ReleaseOrphanedAllocations(c *fiber.Ctx) error {
	report, err := h.uc.ReleaseOrphanedAllocations(c.Context(), GetUserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(report)
}

// ReconcileRenewalExpiry godoc
// @Summary      Reconciliar vigencias contra la cadena de renovaciones
// @Description  Reescribe la fecha de expiración de los pedidos cuya cadena de renovaciones quedó desalineada.
// @Tags         maintenance
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  repair.Report
// @Router       /api/maintenance/reconcile-renewals [post]
func (h *RepairHandler) ReconcileRenewalExpiry(c *fiber.Ctx) error {
	report, err := h.uc.ReconcileRenewalExpiry(c.Context(), GetUserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(report)
}

// Sweep godoc
// @Summary      Ejecutar el barrido de expiración
// @Description  El mismo barrido que corre antes de cada listado, disparado manualmente.
// @Tags         maintenance
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  lifecycle.SweepReport
// @Router       /api/maintenance/sweep [post]
func (h *RepairHandler) Sweep(c *fiber.Ctx) error {
	report, err := h.sweep.Run(c.Context())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(report)
}
