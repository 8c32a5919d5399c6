// internal/domain/fulfillment/side_effects.go
package fulfillment

import "ecommify/internal/domain/order"

// OrderStatusAfter returns the status the underlying order takes after t, or ""
// when the order is left alone. Shipping delivers the order; undoing the
// archive puts it back in processing.
func OrderStatusAfter(t Transition) order.Status {
	if t.Noop {
		return ""
	}
	switch {
	case t.To == StatusArchived:
		return order.StatusDelivered
	case t.From == StatusArchived:
		return order.StatusProcessing
	}
	return ""
}

// OrderStatusOnPush is the status an order takes when it enters the pipeline.
const OrderStatusOnPush = order.StatusProcessing

// OrderStatusOnRemove is the status restored when a record leaves the pipeline.
const OrderStatusOnRemove = order.StatusNew
