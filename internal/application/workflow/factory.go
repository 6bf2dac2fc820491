package workflow

import (
	domainwf "github.com/garyjia/library-acquisition/internal/domain/workflow"
)

// BuildAcquisitionStateMachine creates a state machine configured for the acquisition loan cycle
func BuildAcquisitionStateMachine(initialState domainwf.State) domainwf.StateMachine {
	builder := domainwf.NewBuilder()

	builder.Configure(domainwf.StateRequested).
		Permit(domainwf.TriggerConfirm, domainwf.StateOrdered).
		Permit(domainwf.TriggerDecline, domainwf.StateDeclined).
		Permit(domainwf.TriggerCancel, domainwf.StateCanceled)

	builder.Configure(domainwf.StateOrdered).
		Permit(domainwf.TriggerReceive, domainwf.StateReceived).
		Permit(domainwf.TriggerDeliver, domainwf.StateDelivered).
		Permit(domainwf.TriggerCancel, domainwf.StateCanceled)

	// a received item is finalized when circulation reports it returned
	builder.Configure(domainwf.StateReceived).
		Permit(domainwf.TriggerReturn, domainwf.StateDelivered)

	// DELIVERED, DECLINED and CANCELED are terminal

	return builder.Build(initialState)
}
