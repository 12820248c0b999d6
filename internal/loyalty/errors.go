package loyalty

import "github.com/richxcame/ride-loyalty/pkg/common"

// Domain error values. The handlers and the bus consumer branch on these
// with errors.Is; the codes drive the HTTP status and retry classification.
var (
	// ErrRiderAlreadyExists rejects a duplicate rider.signup event.
	ErrRiderAlreadyExists = common.NewAppError(common.CodeDuplicate, "rider already exists")

	// ErrRideAlreadyExists rejects a duplicate ride.completed event.
	ErrRideAlreadyExists = common.NewAppError(common.CodeDuplicate, "ride already exists")

	// ErrRiderNotFound is returned by reads for an unknown rider.
	ErrRiderNotFound = common.NewAppError(common.CodeNotFound, "rider not found")

	// ErrUnknownRider rejects a ride.completed event whose rider has not
	// signed up yet. Retried once by the bus in case the signup event is
	// still in flight.
	ErrUnknownRider = common.NewAppError(common.CodeReferential, "ride references unknown rider")
)
