package workflow

import (
	"github.com/shopspring/decimal"

	"github.com/garyjia/library-acquisition/internal/domain/entity"
	domainwf "github.com/garyjia/library-acquisition/internal/domain/workflow"
)

// Guards are pure: they read the request and input, never persist, and
// return every violated condition so callers see all problems at once.

// TryCreate checks a new request's fields
func TryCreate(in CreateInput) []string {
	return in.request().Validate()
}

// TryConfirm checks that req can be ordered from in.VendorID at in.Price
func TryConfirm(req *entity.AcquisitionRequest, in ConfirmInput) []string {
	reasons := stateViolations(req, domainwf.TriggerConfirm)

	if in.VendorID == "" {
		reasons = append(reasons, "vendor id is required")
	}
	reasons = append(reasons, entity.ValidatePrice(decimal.NewNullDecimal(in.Price), in.Currency)...)

	return reasons
}

// TryReceive checks that req is ordered
func TryReceive(req *entity.AcquisitionRequest) []string {
	return stateViolations(req, domainwf.TriggerReceive)
}

// TryCancel checks that req is requested or ordered
func TryCancel(req *entity.AcquisitionRequest) []string {
	return stateViolations(req, domainwf.TriggerCancel)
}

// TryDecline checks that req is requested
func TryDecline(req *entity.AcquisitionRequest) []string {
	return stateViolations(req, domainwf.TriggerDecline)
}

// TryDeliver checks that req is ordered
func TryDeliver(req *entity.AcquisitionRequest) []string {
	return stateViolations(req, domainwf.TriggerDeliver)
}

// TryReturn checks that req has been received
func TryReturn(req *entity.AcquisitionRequest) []string {
	return stateViolations(req, domainwf.TriggerReturn)
}

func stateViolations(req *entity.AcquisitionRequest, trigger domainwf.Trigger) []string {
	if !req.Status.IsValid() {
		return []string{"acquisition request has unknown state " + req.Status.String()}
	}
	return BuildAcquisitionStateMachine(req.Status).Violations(trigger)
}
