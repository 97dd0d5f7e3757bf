package lifecycle

import (
	"fmt"

	"strategy-supervisor/internal/domain"
)

// InvalidTransitionError is returned when a manual command asks for a
// state transition outside the allowed table. No partial mutation occurs.
type InvalidTransitionError struct {
	Strategy string
	Version  string
	From     domain.DeploymentState
	To       domain.DeploymentState
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid transition for %s@%s: %s -> %s", e.Strategy, e.Version, e.From, e.To)
}
