package domain

import "time"

// Environment identifies where a deployment runs.
type Environment string

const (
	EnvTestnet Environment = "testnet"
	EnvMainnet Environment = "mainnet"
)

// StrategyVersion is one immutable-identity version of a trading strategy.
// Identity is (Strategy, Version); rows are never deleted, only marked
// deprecated through a state transition.
type StrategyVersion struct {
	Strategy    string // strategy name, e.g. "momentum"
	Version     string // semantic version, e.g. "1.4.2"
	State       DeploymentState
	ContentHash string // SHA256 over the parameter map, for change detection

	// Free-form tuning parameters carried by this version.
	Parameters map[string]string

	CreatedAt  time.Time
	UpdatedAt  time.Time
	PromotedAt *time.Time // set when the version first reaches mainnet_active
}

// Key returns the composite identity "strategy@version".
func (v *StrategyVersion) Key() string {
	return v.Strategy + "@" + v.Version
}

// StrategyDeployment is one (version, environment) pair. Its state mirrors
// or lags the version's state. At most one deployment per (strategy,
// environment) may be active at a time.
type StrategyDeployment struct {
	Strategy    string
	Version     string
	Environment Environment
	State       DeploymentState
	ShadowMode  bool // recommendations logged, never executed

	DeployedAt  time.Time
	LastEvalAt  *time.Time
	Performance *PerformanceMetrics // cached snapshot from the last sweep
}

// RuntimeHours returns how long the deployment has been running as of now.
func (d *StrategyDeployment) RuntimeHours(now time.Time) float64 {
	return now.Sub(d.DeployedAt).Hours()
}
