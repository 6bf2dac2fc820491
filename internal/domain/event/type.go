package event

// Type identifies the kind of audit event
type Type string

const (
	TypeAcquisitionRequested Type = "acquisition_requested"
	TypePurchaseRequested    Type = "purchase_requested"
	TypeAcquisitionOrdered   Type = "acquisition_ordered"
	TypeAcquisitionReceived  Type = "acquisition_received"
	TypeAcquisitionDelivered Type = "acquisition_delivered"
	TypeAcquisitionCanceled  Type = "acquisition_canceled"
	TypeAcquisitionDeclined  Type = "acquisition_declined"
	TypeAcquisitionReturned  Type = "acquisition_returned"
)

// AllTypes lists every audit event type
var AllTypes = []Type{
	TypeAcquisitionRequested,
	TypePurchaseRequested,
	TypeAcquisitionOrdered,
	TypeAcquisitionReceived,
	TypeAcquisitionDelivered,
	TypeAcquisitionCanceled,
	TypeAcquisitionDeclined,
	TypeAcquisitionReturned,
}

// String returns the string representation of the event type
func (t Type) String() string {
	return string(t)
}

// IsValid checks if the event type is one of the defined constants
func (t Type) IsValid() bool {
	switch t {
	case TypeAcquisitionRequested,
		TypePurchaseRequested,
		TypeAcquisitionOrdered,
		TypeAcquisitionReceived,
		TypeAcquisitionDelivered,
		TypeAcquisitionCanceled,
		TypeAcquisitionDeclined,
		TypeAcquisitionReturned:
		return true
	default:
		return false
	}
}
