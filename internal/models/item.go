package models

import "time"

// Item is an inventory record. Price is kept as a decimal string
// ("9.99") end-to-end; the column is DECIMAL(10,2) and no float
// conversion ever happens.
type Item struct {
	ID        int       `json:"id"`
	Name      string    `json:"name"`
	Quantity  int       `json:"quantity"`
	Price     string    `json:"price"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ItemRequest is the create/update payload. Quantity is a pointer so
// that an explicit 0 passes the required check.
type ItemRequest struct {
	Name     string `json:"name" validate:"required,max=100"`
	Quantity *int   `json:"quantity" validate:"required,gte=0"`
	Price    string `json:"price" validate:"required,price"`
}
