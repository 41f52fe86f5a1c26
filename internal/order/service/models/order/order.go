package order

import (
	"time"
)

// Order represents an order in the system. ID is the internal surrogate
// key and never leaves the service; ExternalID is the client-visible
// handle, assigned exactly once before the first persistence write.
type Order struct {
	ID          int64     `json:"-"`
	ExternalID  string    `json:"externalId"`
	Description string    `json:"description"`
	ItemName    string    `json:"itemName"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}
