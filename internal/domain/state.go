package domain

// DeploymentState represents the lifecycle state of a strategy version.
// Stored as a string column; every transition goes through the table below.
type DeploymentState string

const (
	StateDevelopment      DeploymentState = "development"
	StateTestnetPending   DeploymentState = "testnet_pending"
	StateTestnetActive    DeploymentState = "testnet_active"
	StateTestnetValidated DeploymentState = "testnet_validated"
	StateMainnetShadow    DeploymentState = "mainnet_shadow"
	StateMainnetActive    DeploymentState = "mainnet_active"
	StateMainnetPaused    DeploymentState = "mainnet_paused"
	StateDeprecated       DeploymentState = "deprecated"
)

// transitions is the closed transition table. A transition absent from
// this table is rejected; there is no wildcard edge except deprecation,
// which is allowed from any non-terminal state.
var transitions = map[DeploymentState][]DeploymentState{
	StateDevelopment:      {StateTestnetPending},
	StateTestnetPending:   {StateTestnetActive},
	StateTestnetActive:    {StateTestnetValidated},
	StateTestnetValidated: {StateMainnetShadow},
	StateMainnetShadow:    {StateMainnetActive},
	StateMainnetActive:    {StateMainnetPaused},
	StateMainnetPaused:    {StateMainnetActive},
}

// promotionTargets maps each state eligible for automatic promotion to
// its single forward target. Only these three edges are ever evaluated
// by the promoter.
var promotionTargets = map[DeploymentState]DeploymentState{
	StateTestnetActive:    StateTestnetValidated,
	StateTestnetValidated: StateMainnetShadow,
	StateMainnetShadow:    StateMainnetActive,
}

// IsValid reports whether s is a known deployment state.
func (s DeploymentState) IsValid() bool {
	switch s {
	case StateDevelopment, StateTestnetPending, StateTestnetActive,
		StateTestnetValidated, StateMainnetShadow, StateMainnetActive,
		StateMainnetPaused, StateDeprecated:
		return true
	}
	return false
}

// IsTerminal reports whether s admits no further transitions.
func (s DeploymentState) IsTerminal() bool {
	return s == StateDeprecated
}

// CanTransition reports whether the edge s -> target is in the table.
// Deprecation is reachable from every non-terminal state.
func (s DeploymentState) CanTransition(target DeploymentState) bool {
	if s.IsTerminal() {
		return false
	}
	if target == StateDeprecated {
		return true
	}
	for _, t := range transitions[s] {
		if t == target {
			return true
		}
	}
	return false
}

// PromotionTarget returns the forward state the promoter would move s to,
// and whether s is eligible for automatic promotion at all.
func (s DeploymentState) PromotionTarget() (DeploymentState, bool) {
	t, ok := promotionTargets[s]
	return t, ok
}
