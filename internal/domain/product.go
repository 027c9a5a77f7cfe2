package domain

import "time"

// Product is a catalog entry. ImageURL is empty until an image is attached.
type Product struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Price       float64   `json:"price"`
	Category    string    `json:"category"`
	ImageURL    string    `json:"image_url,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// ProductUpdate is an explicit patch: nil fields are left untouched.
// Image changes go through the image attach flow, not this struct.
type ProductUpdate struct {
	Name        *string  `json:"name"`
	Description *string  `json:"description"`
	Price       *float64 `json:"price"`
	Category    *string  `json:"category"`
}

// Empty reports whether the patch would change nothing.
func (p ProductUpdate) Empty() bool {
	return p.Name == nil && p.Description == nil && p.Price == nil && p.Category == nil
}
