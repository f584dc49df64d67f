package events

import (
	"encoding/json"
	"time"

	"sales_tracker/internal/sales"
)

// SaleRecordedMessage is published once a sale has been stored.
type SaleRecordedMessage struct {
	ID        string    `json:"id"`
	Product   string    `json:"product"`
	Customer  string    `json:"customer"`
	Amount    float64   `json:"amount"`
	Date      time.Time `json:"date"`
	Timestamp time.Time `json:"timestamp"`
}

// NewSaleRecordedMessage builds the event for a stored sale.
func NewSaleRecordedMessage(s sales.Sale) *SaleRecordedMessage {
	return &SaleRecordedMessage{
		ID:        s.ID,
		Product:   s.Product,
		Customer:  s.Customer,
		Amount:    s.Amount,
		Date:      s.Date,
		Timestamp: time.Now().UTC(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *SaleRecordedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}
