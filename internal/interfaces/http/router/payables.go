package router

import (
	"github.com/erp/payables/internal/interfaces/http/handler"
)

// PayablesRoutes builds the route table for the payables domain:
// supplier invoices, payments and their allocations.
func PayablesRoutes(invoices *handler.InvoiceHandler, payments *handler.PaymentHandler, reference *handler.ReferenceHandler) *DomainGroup {
	g := NewDomainGroup("payables", "/payables")

	// Reference data
	g.GET("/suppliers", reference.ListSuppliers)
	g.GET("/suppliers/:id", reference.GetSupplier)
	g.GET("/suppliers/:id/sites", reference.ListSupplierSites)
	g.GET("/tax-rates", reference.ListTaxRates)

	// Invoices
	g.POST("/invoices", invoices.Create)
	g.POST("/invoices/from-receipt", invoices.CreateFromReceipt)
	g.GET("/invoices", invoices.List)
	g.GET("/invoices/outstanding-summary", invoices.OutstandingSummary)
	g.GET("/invoices/:id", invoices.Get)
	g.POST("/invoices/:id/lines", invoices.AddLine)
	g.PUT("/invoices/:id/lines/:line", invoices.UpdateLine)
	g.DELETE("/invoices/:id/lines/:line", invoices.RemoveLine)
	g.POST("/invoices/:id/import-receipt", invoices.ImportReceipt)
	g.PUT("/invoices/:id/terms", invoices.UpdateTerms)
	g.POST("/invoices/:id/submit", invoices.Submit)
	g.PUT("/invoices/:id/approval", invoices.SetApproval)
	g.POST("/invoices/:id/cancel", invoices.Cancel)
	g.POST("/invoices/:id/void", invoices.Void)

	// Payments
	g.POST("/payments", payments.Create)
	g.GET("/payments", payments.List)
	g.GET("/payments/:id", payments.Get)
	g.GET("/payments/:id/payable-invoices", payments.ListPayableInvoices)
	g.POST("/payments/:id/allocations", payments.Allocate)
	g.PUT("/payments/:id/allocations/:invoiceId", payments.UpdateAllocation)
	g.DELETE("/payments/:id/allocations/:invoiceId", payments.RemoveAllocation)
	g.POST("/payments/:id/allocations/refresh", payments.RefreshAllocations)
	g.POST("/payments/:id/finalize", payments.Finalize)
	g.POST("/payments/:id/cancel", payments.Cancel)
	g.POST("/payments/:id/close-abandoned", payments.CloseAbandonedDraft)

	return g
}

// SystemRoutes builds the route table for system endpoints.
func SystemRoutes(system *handler.SystemHandler) *DomainGroup {
	g := NewDomainGroup("system", "/system")
	g.GET("/info", system.GetSystemInfo)
	g.GET("/ping", system.Ping)
	return g
}
