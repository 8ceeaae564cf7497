package payables

import (
	"time"

	"github.com/erp/payables/internal/domain/shared"
)

// ImportReceiptLines replaces the invoice's line collection with lines
// derived from the goods receipt. Receipt lines with a non-positive received
// quantity are skipped and the surviving lines are renumbered contiguously.
// Lines carrying pre-computed amounts keep them; for the rest the amounts
// are derived from quantity, cost and rate.
//
// The replacement is all-or-nothing: if filtering leaves no usable line, the
// import fails and the invoice keeps its current lines. An invoice never ends
// up with an empty line collection.
func (inv *Invoice) ImportReceiptLines(receipt *GoodsReceipt) error {
	if !inv.Status.CanEditLines() {
		return shared.NewDomainError("INVALID_STATE", "Cannot import receipt lines into a non-draft invoice")
	}
	if receipt == nil {
		return shared.NewDomainError("INVALID_RECEIPT", "Receipt is required")
	}
	if receipt.TenantID != inv.TenantID {
		return shared.NewDomainError("TENANT_MISMATCH", "Receipt belongs to a different tenant")
	}
	if receipt.SupplierID != inv.SupplierID {
		return shared.NewDomainError("SUPPLIER_MISMATCH", "Receipt belongs to a different supplier")
	}
	if receipt.Currency != inv.Currency {
		return shared.NewDomainError("CURRENCY_MISMATCH", "Receipt currency does not match invoice currency")
	}

	derived := make([]InvoiceLine, 0, len(receipt.Lines))
	for i := range receipt.Lines {
		src := &receipt.Lines[i]
		if !src.QuantityReceived.IsPositive() {
			continue
		}
		derived = append(derived, newInvoiceLine(inv.ID, len(derived)+1, LineInput{
			ItemID:      src.ItemID,
			Description: src.Description,
			Quantity:    src.QuantityReceived,
			UnitPrice:   src.UnitCost,
			TaxRate:     src.TaxRate,
			LineAmount:  src.LineAmount,
			TaxAmount:   src.TaxAmount,
		}))
	}

	if len(derived) == 0 {
		return shared.NewDomainError("NO_BILLABLE_LINES", "Receipt has no lines with a positive received quantity")
	}

	inv.replaceLines(derived)
	inv.SourceReceiptID = &receipt.ID
	inv.AddDomainEvent(NewInvoiceLinesChangedEvent(inv))
	inv.UpdatedAt = time.Now()

	return nil
}
