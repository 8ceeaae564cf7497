package handler

import (
	"github.com/erp/payables/internal/domain/payables"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// ReferenceHandler exposes the read-only reference-data projections:
// suppliers, supplier sites and tax rates. Reads go through the same cached
// repositories the services use.
type ReferenceHandler struct {
	BaseHandler
	suppliers payables.SupplierRepository
	sites     payables.SupplierSiteRepository
	taxRates  payables.TaxRateRepository
}

// NewReferenceHandler creates a new ReferenceHandler
func NewReferenceHandler(
	suppliers payables.SupplierRepository,
	sites payables.SupplierSiteRepository,
	taxRates payables.TaxRateRepository,
) *ReferenceHandler {
	return &ReferenceHandler{
		suppliers: suppliers,
		sites:     sites,
		taxRates:  taxRates,
	}
}

// ListSuppliers handles GET /payables/suppliers
func (h *ReferenceHandler) ListSuppliers(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	suppliers, err := h.suppliers.ListActive(c.Request.Context(), tenantID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, suppliers)
}

// GetSupplier handles GET /payables/suppliers/:id
func (h *ReferenceHandler) GetSupplier(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid supplier ID")
		return
	}

	supplier, err := h.suppliers.FindByID(c.Request.Context(), tenantID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	if supplier == nil {
		h.NotFound(c, "Supplier not found")
		return
	}
	h.Success(c, supplier)
}

// ListSupplierSites handles GET /payables/suppliers/:id/sites
func (h *ReferenceHandler) ListSupplierSites(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}
	supplierID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid supplier ID")
		return
	}

	sites, err := h.sites.ListBySupplier(c.Request.Context(), tenantID, supplierID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, sites)
}

// ListTaxRates handles GET /payables/tax-rates
func (h *ReferenceHandler) ListTaxRates(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	rates, err := h.taxRates.ListActive(c.Request.Context(), tenantID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, rates)
}
