package persistence

import (
	"strings"

	"gorm.io/gorm"
)

// ValidateSortOrder normalizes the sort direction to ASC or DESC.
// Anything that is not ASC becomes DESC.
func ValidateSortOrder(orderDir string) string {
	if strings.ToUpper(strings.TrimSpace(orderDir)) == "ASC" {
		return "ASC"
	}
	return "DESC"
}

// invoiceSortColumns whitelists sortable invoice list columns.
var invoiceSortColumns = map[string]string{
	"created_at":     "created_at",
	"invoice_date":   "invoice_date",
	"due_date":       "due_date",
	"invoice_number": "invoice_number",
	"total_amount":   "total_amount",
	"amount_due":     "amount_due",
	"status":         "status",
}

// paymentSortColumns whitelists sortable payment list columns.
var paymentSortColumns = map[string]string{
	"created_at":     "created_at",
	"payment_date":   "payment_date",
	"payment_number": "payment_number",
	"amount":         "amount",
	"status":         "status",
}

// applySort applies a whitelisted sort column and direction. Unknown columns
// fall back to created_at so callers cannot inject arbitrary SQL.
func applySort(query *gorm.DB, orderBy, orderDir string, allowed map[string]string) *gorm.DB {
	column, ok := allowed[strings.TrimSpace(orderBy)]
	if !ok {
		column = "created_at"
	}
	return query.Order(column + " " + ValidateSortOrder(orderDir))
}
