package entity

// Kind distinguishes buying a document from borrowing one
type Kind string

const (
	KindAcquisition Kind = "acquisition"
	KindPurchase    Kind = "purchase"
)

// AllKinds lists every request kind
var AllKinds = []Kind{KindAcquisition, KindPurchase}

// IsValid reports whether k is a known kind
func (k Kind) IsValid() bool {
	return k == KindAcquisition || k == KindPurchase
}

// PaymentMethod is how an order is paid for
type PaymentMethod string

const (
	PaymentCash       PaymentMethod = "acquisition_payment_method_cash"
	PaymentBudgetCode PaymentMethod = "acquisition_payment_method_cash_budget_code"
)

// IsValid reports whether m is a known payment method
func (m PaymentMethod) IsValid() bool {
	return m == PaymentCash || m == PaymentBudgetCode
}

// Delivery is where the patron receives the document
type Delivery string

const (
	DeliveryPickUp       Delivery = "pick_up"
	DeliveryInternalMail Delivery = "internal_mail"
)

// DefaultDelivery applies when a request does not name one
const DefaultDelivery = DeliveryPickUp

// IsValid reports whether d is a known delivery option
func (d Delivery) IsValid() bool {
	return d == DeliveryPickUp || d == DeliveryInternalMail
}

// Placeholder item statuses
const (
	ItemStatusOnShelf             = "on_shelf"
	ItemAdditionalStatusTemporary = "acquisition_temporary"
)

// Notification status constants
const (
	NotificationStatusPending = "PENDING"
	NotificationStatusSent    = "SENT"
	NotificationStatusFailed  = "FAILED"
)
