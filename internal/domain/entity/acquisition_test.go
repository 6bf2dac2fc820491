package entity

import (
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func validRequest() *AcquisitionRequest {
	return &AcquisitionRequest{
		Kind:            KindPurchase,
		Requester:       Requester{ID: "u1", Name: "Jane Roe", Email: "jane@example.org"},
		CatalogRecordID: "rec-1",
		Copies:          1,
		PaymentMethod:   PaymentCash,
		Delivery:        DeliveryPickUp,
	}
}

func TestAcquisitionRequest_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(r *AcquisitionRequest)
		reasons int
		contain string
	}{
		{"valid", func(r *AcquisitionRequest) {}, 0, ""},
		{"zero copies", func(r *AcquisitionRequest) { r.Copies = 0 }, 1, "copies must be positive"},
		{"unknown kind", func(r *AcquisitionRequest) { r.Kind = "loan" }, 1, "unknown kind"},
		{"budget code missing", func(r *AcquisitionRequest) { r.PaymentMethod = PaymentBudgetCode }, 1, "budget code is required"},
		{"budget code with cash", func(r *AcquisitionRequest) { r.BudgetCode = "B-12" }, 1, "only allowed"},
		{"unknown delivery", func(r *AcquisitionRequest) { r.Delivery = "drone" }, 1, "unknown delivery"},
		{"lower case currency", func(r *AcquisitionRequest) { r.Currency = "usd" }, 1, "ISO-4217"},
		{"price without currency", func(r *AcquisitionRequest) {
			r.Price = decimal.NewNullDecimal(decimal.RequireFromString("10.00"))
		}, 1, "currency is required"},
		{"several problems at once", func(r *AcquisitionRequest) {
			r.Copies = -1
			r.Requester.Email = ""
			r.CatalogRecordID = ""
		}, 3, "requester email"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := validRequest()
			tt.mutate(r)

			reasons := r.Validate()
			assert.Len(t, reasons, tt.reasons)
			if tt.contain != "" {
				assert.Contains(t, strings.Join(reasons, "; "), tt.contain)
			}
		})
	}
}

func TestValidatePrice(t *testing.T) {
	assert.Empty(t, ValidatePrice(decimal.NullDecimal{}, ""))
	assert.Empty(t, ValidatePrice(decimal.NewNullDecimal(decimal.RequireFromString("10.00")), "USD"))
	assert.Len(t, ValidatePrice(decimal.NewNullDecimal(decimal.RequireFromString("-1")), "EUR"), 1)
}

func TestIsCurrencyCode(t *testing.T) {
	assert.True(t, IsCurrencyCode("USD"))
	assert.True(t, IsCurrencyCode("CHF"))
	assert.False(t, IsCurrencyCode("US"))
	assert.False(t, IsCurrencyCode("Usd"))
	assert.False(t, IsCurrencyCode("US1"))
}

func TestAcquisitionRequest_Clone(t *testing.T) {
	r := validRequest()
	c := r.Clone()
	c.VendorID = "v1"
	c.Requester.Name = "Other"

	assert.Empty(t, r.VendorID)
	assert.Equal(t, "Jane Roe", r.Requester.Name)
}

func TestEnums(t *testing.T) {
	assert.True(t, KindAcquisition.IsValid())
	assert.False(t, Kind("Purchase").IsValid())
	assert.True(t, PaymentBudgetCode.IsValid())
	assert.False(t, PaymentMethod("card").IsValid())
	assert.Equal(t, DeliveryPickUp, DefaultDelivery)
}

