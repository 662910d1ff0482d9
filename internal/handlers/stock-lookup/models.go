// internal/handlers/stock-lookup/models.go
package stocklookup

import "stock-bot/internal/models"

// Catalog is the read side of the catalog store.
type Catalog interface {
	Products() []models.Product
}

// Ignore reasons, used as metric labels and log fields.
const (
	ReasonSelf      = "self"
	ReasonEmptyText = "empty_text"
	ReasonNoTrigger = "no_trigger"
	ReasonNoSender  = "no_sender"
	ReasonDuplicate = "duplicate"
)
