package inventory

import "context"

// IntegrationHandler receives inventory events after commit.
type IntegrationHandler interface {
	HandleStockChanged(ctx context.Context, evt StockChangedEvent) error
}
