package coordinator

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jcmexdev/grocery-storefront/internal/coordinator/sagalog"
	"github.com/jcmexdev/grocery-storefront/internal/order"
)

// Placement persists, announces and caches a confirmed order. Publisher and
// cache are optional; their steps are skipped when nil.
type Placement struct {
	orders    OrderWriter
	publisher Publisher
	cache     Warmer
	log       sagalog.Repository
	encode    func(any) ([]byte, error)
}

func NewPlacement(orders OrderWriter, publisher Publisher, cache Warmer, log sagalog.Repository) *Placement {
	return &Placement{orders: orders, publisher: publisher, cache: cache, log: log, encode: json.Marshal}
}

// Place runs the saga for c, using the order id as the saga id. Nothing runs
// when the order cannot be encoded for the saga journal.
func (p *Placement) Place(ctx context.Context, c order.Confirmation) error {
	payload, err := p.encode(c)
	if err != nil {
		return fmt.Errorf("coordinator: encode order %q: %w", c.OrderID, err)
	}

	steps := []Step{NewPersistOrderStep(p.orders, c)}
	if p.publisher != nil {
		steps = append(steps, NewPublishOrderStep(p.publisher, c))
	}
	if p.cache != nil {
		steps = append(steps, NewWarmCacheStep(p.cache, c))
	}

	return NewOrchestrator(c.OrderID, steps, p.log).Start(ctx, string(payload))
}
