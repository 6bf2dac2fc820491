package workflow

// Trigger is an operation that moves a request between states
type Trigger string

const (
	TriggerConfirm Trigger = "confirm"
	TriggerReceive Trigger = "receive"
	TriggerCancel  Trigger = "cancel"
	TriggerDecline Trigger = "decline"
	TriggerDeliver Trigger = "deliver"
	TriggerReturn  Trigger = "return"
)

// AllTriggers lists every trigger the acquisition machine knows about
var AllTriggers = []Trigger{
	TriggerConfirm,
	TriggerReceive,
	TriggerCancel,
	TriggerDecline,
	TriggerDeliver,
	TriggerReturn,
}

// String returns the string representation of the trigger
func (t Trigger) String() string {
	return string(t)
}

// Verb returns the past participle used in violation messages
func (t Trigger) Verb() string {
	switch t {
	case TriggerConfirm:
		return "confirmed"
	case TriggerReceive:
		return "received"
	case TriggerCancel:
		return "canceled"
	case TriggerDecline:
		return "declined"
	case TriggerDeliver:
		return "delivered"
	case TriggerReturn:
		return "finalized on return"
	default:
		return string(t)
	}
}
