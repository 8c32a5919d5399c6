package order

import (
	"fmt"
	"time"

	"ecommify/internal/domain/day"
)

// Status is the lifecycle status of a shop order.
type Status string

const (
	StatusNew        Status = "new"
	StatusProcessing Status = "processing"
	StatusShipped    Status = "shipped"
	StatusDelivered  Status = "delivered"
	StatusCancelled  Status = "cancelled"
	StatusReturned   Status = "returned"
)

var ErrNotFound = fmt.Errorf("order not found")

// Order represents a shop order as far as the fulfillment pipeline needs it.
type Order struct {
	ID           string
	ShopID       int
	CustomerName string
	Total        float64
	Date         day.Date
	Status       Status
	CreatedAt    time.Time
}
