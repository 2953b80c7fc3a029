package meshbal

import "github.com/arloliu/meshbal/types"

// Re-export sentinel errors from the types package so callers can match
// them with errors.Is without importing types.
var (
	ErrInvalidConfig     = types.ErrInvalidConfig
	ErrMeshRequired      = types.ErrMeshRequired
	ErrWeightTagRequired = types.ErrWeightTagRequired
	ErrInvalidTarget     = types.ErrInvalidTarget

	ErrSelectorNotIdle      = types.ErrSelectorNotIdle
	ErrUnsupportedDimension = types.ErrUnsupportedDimension
	ErrNoCandidates         = types.ErrNoCandidates
	ErrNoIncidentRegions    = types.ErrNoIncidentRegions
	ErrAlreadyPlanned       = types.ErrAlreadyPlanned

	ErrMissingWeight = types.ErrMissingWeight
	ErrInvalidWeight = types.ErrInvalidWeight

	ErrJetStreamRequired = types.ErrJetStreamRequired
	ErrStalePlanVersion  = types.ErrStalePlanVersion
	ErrPublishFailed     = types.ErrPublishFailed
)
