package types

import (
	"bytes"
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// Order is a past purchase. The server returns orders newest first; recency
// is implied by position, CreatedAt is informational.
type Order struct {
	ID        string      `json:"_id"`
	Items     []OrderItem `json:"items"`
	CreatedAt *time.Time  `json:"createdAt,omitempty"`
}

// ShortID returns the truncated order identifier used in display labels.
func (o Order) ShortID() string {
	if len(o.ID) <= 8 {
		return o.ID
	}
	return o.ID[:8]
}

// OrderItem is one line of an order. The medicine reference arrives either
// as an embedded object or as a bare identifier string; the variant is
// resolved once at decode time.
type OrderItem struct {
	Medicine   *Medicine
	MedicineID string
	Name       string
	Quantity   int
	FinalPrice *decimal.Decimal
	Price      *decimal.Decimal
}

func (it *OrderItem) UnmarshalJSON(data []byte) error {
	var raw struct {
		Medicine   json.RawMessage  `json:"medicine"`
		Name       string           `json:"name"`
		Quantity   int              `json:"quantity"`
		FinalPrice *decimal.Decimal `json:"finalPrice"`
		Price      *decimal.Decimal `json:"price"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	it.Name = raw.Name
	it.Quantity = raw.Quantity
	it.FinalPrice = raw.FinalPrice
	it.Price = raw.Price
	it.Medicine = nil
	it.MedicineID = ""

	ref := bytes.TrimSpace(raw.Medicine)
	switch {
	case len(ref) == 0 || bytes.Equal(ref, []byte("null")):
	case ref[0] == '"':
		if err := json.Unmarshal(ref, &it.MedicineID); err != nil {
			return err
		}
	default:
		var med Medicine
		if err := json.Unmarshal(ref, &med); err != nil {
			return err
		}
		it.Medicine = &med
		it.MedicineID = med.ID
	}
	return nil
}

// UnitPrice returns the price actually charged, falling back from finalPrice
// to the list price and finally to zero. Missing prices are never an error.
func (it OrderItem) UnitPrice() decimal.Decimal {
	if it.FinalPrice != nil {
		return *it.FinalPrice
	}
	if it.Price != nil {
		return *it.Price
	}
	return decimal.Zero
}

// DisplayName resolves the label shown for the item: the embedded medicine
// name, then the flat item name, then a generic placeholder.
func (it OrderItem) DisplayName() string {
	if it.Medicine != nil && it.Medicine.Name != "" {
		return it.Medicine.Name
	}
	if it.Name != "" {
		return it.Name
	}
	return "Medicine"
}
