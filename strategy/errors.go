package strategy

import (
	"fmt"

	"github.com/arloliu/meshbal/types"
)

// ErrInvalidSchedule indicates a cavity-cap schedule that is empty, non-positive or not increasing.
//
// It wraps types.ErrInvalidConfig.
var ErrInvalidSchedule = fmt.Errorf("%w: invalid cavity cap schedule", types.ErrInvalidConfig)
