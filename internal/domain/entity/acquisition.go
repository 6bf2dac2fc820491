package entity

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/garyjia/library-acquisition/internal/domain/workflow"
)

// Requester is the patron a request is made for.
// Name and email are copied onto the request so notifications need no user lookup.
type Requester struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// AcquisitionRequest tracks one acquisition loan cycle
type AcquisitionRequest struct {
	ID              string              `json:"id"`
	Status          workflow.State      `json:"status"`
	Kind            Kind                `json:"kind"`
	Requester       Requester           `json:"requester"`
	CatalogRecordID string              `json:"catalog_record_id"`
	ItemID          string              `json:"item_id"`
	VendorID        string              `json:"vendor_id,omitempty"`
	Copies          int                 `json:"copies"`
	PaymentMethod   PaymentMethod       `json:"payment_method"`
	BudgetCode      string              `json:"budget_code,omitempty"`
	Price           decimal.NullDecimal `json:"price"`
	Currency        string              `json:"currency,omitempty"`
	Delivery        Delivery            `json:"delivery"`
	Comments        string              `json:"comments,omitempty"`
	Invoice         string              `json:"invoice,omitempty"`
	IssuedDate      time.Time           `json:"issued_date"`
	CreatedAt       time.Time           `json:"created_at"`
	UpdatedAt       time.Time           `json:"updated_at"`
	Version         int64               `json:"version"`
}

// Validate returns every problem with the request's commercial and reference fields
func (r *AcquisitionRequest) Validate() []string {
	var reasons []string

	if !r.Kind.IsValid() {
		reasons = append(reasons, fmt.Sprintf("unknown kind %q", r.Kind))
	}
	if r.Requester.ID == "" {
		reasons = append(reasons, "requester id is required")
	}
	if r.Requester.Email == "" {
		reasons = append(reasons, "requester email is required")
	}
	if r.CatalogRecordID == "" {
		reasons = append(reasons, "catalog record id is required")
	}
	if r.Copies <= 0 {
		reasons = append(reasons, fmt.Sprintf("copies must be positive, got %d", r.Copies))
	}

	switch {
	case !r.PaymentMethod.IsValid():
		reasons = append(reasons, fmt.Sprintf("unknown payment method %q", r.PaymentMethod))
	case r.PaymentMethod == PaymentBudgetCode && r.BudgetCode == "":
		reasons = append(reasons, "budget code is required when paying by budget code")
	case r.PaymentMethod == PaymentCash && r.BudgetCode != "":
		reasons = append(reasons, "budget code is only allowed when paying by budget code")
	}

	if !r.Delivery.IsValid() {
		reasons = append(reasons, fmt.Sprintf("unknown delivery %q", r.Delivery))
	}

	reasons = append(reasons, ValidatePrice(r.Price, r.Currency)...)

	return reasons
}

// ValidatePrice checks a price and currency pair. Both may be unset.
func ValidatePrice(price decimal.NullDecimal, currency string) []string {
	var reasons []string

	if price.Valid && price.Decimal.IsNegative() {
		reasons = append(reasons, fmt.Sprintf("price must not be negative, got %s", price.Decimal.String()))
	}
	if currency != "" && !IsCurrencyCode(currency) {
		reasons = append(reasons, fmt.Sprintf("currency %q is not an ISO-4217 code", currency))
	}
	if price.Valid && currency == "" {
		reasons = append(reasons, "currency is required when a price is set")
	}

	return reasons
}

// IsCurrencyCode reports whether s has the shape of an ISO-4217 alphabetic code
func IsCurrencyCode(s string) bool {
	if len(s) != 3 {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < 'A' || s[i] > 'Z' {
			return false
		}
	}
	return true
}

// Clone returns a copy safe to mutate without touching r
func (r *AcquisitionRequest) Clone() *AcquisitionRequest {
	c := *r
	return &c
}
