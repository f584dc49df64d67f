package sales

import "time"

// Sale represents a recorded sales transaction.
type Sale struct {
	ID       string    `json:"id"`
	Product  string    `json:"product"`
	Customer string    `json:"customer"`
	Amount   float64   `json:"amount"`
	Date     time.Time `json:"date"`
}

// Candidate holds the fields of a sale that passed validation but has not been stored yet.
type Candidate struct {
	Product  string    `validate:"min=2"`
	Customer string    `validate:"min=2"`
	Amount   float64   `validate:"gt=0"`
	Date     time.Time
}

// Criteria narrows the dashboard view. Zero values mean "no filter".
type Criteria struct {
	Product  string
	Customer string
	From     *time.Time
	To       *time.Time
}

// Summary is the derived view produced by Apply.
type Summary struct {
	Filtered  []Sale             `json:"sales"`
	Total     float64            `json:"total"`
	ByProduct map[string]float64 `json:"by_product"`
}

// ProductTotal is one bar of the per-product chart.
type ProductTotal struct {
	Name  string  `json:"name"`
	Total float64 `json:"total"`
}

// FilterOptions lists the distinct values offered by the dashboard filters.
type FilterOptions struct {
	Products  []string `json:"products"`
	Customers []string `json:"customers"`
}

// Dashboard is the response of the presentation boundary.
type Dashboard struct {
	Summary
	Chart []ProductTotal `json:"chart"`
	FilterOptions
}
