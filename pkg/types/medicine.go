package types

import (
	"bytes"
	"encoding/json"

	"github.com/shopspring/decimal"
)

// Medicine is the server-sourced catalog entry. Fields mirror the upstream
// API payload; everything here is a read-only snapshot.
type Medicine struct {
	ID          string           `json:"_id"`
	Name        string           `json:"name"`
	Brand       string           `json:"brand,omitempty"`
	Category    string           `json:"category,omitempty"`
	Dosage      Dosage           `json:"dosage,omitempty"`
	Price       *decimal.Decimal `json:"price,omitempty"`
	Stock       int              `json:"stock"`
	Images      []ImageRef       `json:"images,omitempty"`
	ImageURL    string           `json:"imageUrl,omitempty"`
	Description string           `json:"description,omitempty"`
	Pharmacy    *Pharmacy        `json:"pharmacy,omitempty"`
}

// Available reports whether the medicine can be ordered: positive stock and
// a known price. A medicine without a price is shown as "not available".
func (m Medicine) Available() bool {
	return m.Stock > 0 && m.Price != nil
}

// PriceString renders the price with two decimal places. The second return
// is false when no price is set.
func (m Medicine) PriceString() (string, bool) {
	if m.Price == nil {
		return "", false
	}
	return m.Price.StringFixed(2), true
}

// Dosage describes the pharmaceutical form and strength of a medicine.
type Dosage struct {
	Form     string `json:"form,omitempty"`
	Strength string `json:"strength,omitempty"`
}

// ImageRef is a single image reference. The API serves two shapes: a
// structured record carrying a url field, and a legacy bare string. Both
// collapse into URL at decode time so callers never re-derive the variant.
type ImageRef struct {
	URL string `json:"url,omitempty"`
}

func (r *ImageRef) UnmarshalJSON(data []byte) error {
	raw := bytes.TrimSpace(data)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		r.URL = ""
		return nil
	}
	if raw[0] == '"' {
		return json.Unmarshal(raw, &r.URL)
	}
	type record ImageRef
	var rec record
	if err := json.Unmarshal(raw, &rec); err != nil {
		return err
	}
	r.URL = rec.URL
	return nil
}
