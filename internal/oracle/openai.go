package oracle

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"
)

// Client is an Advisor backed by an OpenAI-compatible chat-completion API.
// One client serves all four oracle variants; the variant is selected by
// the system prompt.
type Client struct {
	api   *openai.Client
	model string
}

// NewClient creates a Client. baseURL may be empty for the default API
// endpoint, or point at any OpenAI-compatible server.
func NewClient(apiKey, baseURL, model string) (*Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("oracle: api key is required")
	}
	if model == "" {
		model = openai.GPT4oMini
	}
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return &Client{
		api:   openai.NewClientWithConfig(cfg),
		model: model,
	}, nil
}

// Compile-time interface check.
var _ Advisor = (*Client)(nil)

// Model returns the configured model identifier.
func (c *Client) Model() string {
	return c.model
}

const (
	healthSystemPrompt = "You are the health monitor of an autonomous trading system. " +
		"Respond with a single JSON object: overall_health (OK|DEGRADED|CRITICAL), should_pause (bool), " +
		"pause_reason, risk_level (conservative|moderate|aggressive), anomalies_detected (array), " +
		"recommendations (array), confidence (0-1)."

	riskSystemPrompt = "You are the risk officer of an autonomous trading system. " +
		"Respond with a single JSON object: risk_thresholds {drawdown_warning_pct, drawdown_critical_pct, drawdown_pause_pct}, " +
		"leverage_caps {normal, reduced, minimum}, exposure_limits {max_total_exposure_pct, max_single_symbol_pct, max_concurrent_symbols}, " +
		"volatility_adjustments {position_size_scalar}, immediate_actions (array of {action, symbol, strategy, reason}), " +
		"current_risk_score (0-100), risk_trend (IMPROVING|STABLE|DETERIORATING), market_stress_level, confidence (0-1)."

	allocationSystemPrompt = "You are the capital allocator of an autonomous trading system managing the strategies " +
		"momentum, mean_reversion, breakout, funding_arbitrage. " +
		"Respond with a single JSON object: strategies (map of strategy name to {health, regime_fit, recommended_allocation, reasoning}), " +
		"disable_strategies (array), confidence (0-1). Allocations are percent of capital."

	conflictSystemPrompt = "You are the conflict resolver of an autonomous trading system. Merge the given health verdict and " +
		"allocation recommendation into final allocations summing to 100 and per-position actions. " +
		"Respond with a single JSON object: resolved_allocations (map of strategy to percent), " +
		"signal_resolutions (array of {symbol, resolution, reason}), position_actions (array of {symbol, action KEEP|CLOSE|REDUCE, reason}), " +
		"leverage_cap (number, never above the provided cap), adjustments_made (array), confidence (0-1)."
)

// EvaluateHealth implements Advisor.
func (c *Client) EvaluateHealth(ctx context.Context, in Input) (*HealthResult, error) {
	user, err := encodeInput(in, nil, nil)
	if err != nil {
		return nil, err
	}
	var result HealthResult
	if err := c.complete(ctx, healthSystemPrompt, user, &result); err != nil {
		return nil, fmt.Errorf("health oracle: %w", err)
	}
	return &result, nil
}

// EvaluateRiskParameters implements Advisor.
func (c *Client) EvaluateRiskParameters(ctx context.Context, in Input) (*RiskParameterResult, error) {
	user, err := encodeInput(in, nil, nil)
	if err != nil {
		return nil, err
	}
	var result RiskParameterResult
	if err := c.complete(ctx, riskSystemPrompt, user, &result); err != nil {
		return nil, fmt.Errorf("risk oracle: %w", err)
	}
	return &result, nil
}

// EvaluateAllocations implements Advisor.
func (c *Client) EvaluateAllocations(ctx context.Context, in Input) (*AllocationResult, error) {
	user, err := encodeInput(in, nil, nil)
	if err != nil {
		return nil, err
	}
	var result AllocationResult
	if err := c.complete(ctx, allocationSystemPrompt, user, &result); err != nil {
		return nil, fmt.Errorf("allocation oracle: %w", err)
	}
	return &result, nil
}

// ResolveConflicts implements Advisor.
func (c *Client) ResolveConflicts(ctx context.Context, in Input, alloc *AllocationResult, health *HealthResult) (*ConflictResult, error) {
	user, err := encodeInput(in, alloc, health)
	if err != nil {
		return nil, err
	}
	var result ConflictResult
	if err := c.complete(ctx, conflictSystemPrompt, user, &result); err != nil {
		return nil, fmt.Errorf("conflict oracle: %w", err)
	}
	return &result, nil
}

// complete sends one chat completion and unmarshals the JSON reply into out.
func (c *Client) complete(ctx context.Context, system, user string, out any) error {
	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	if err != nil {
		return fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return fmt.Errorf("chat completion returned no choices")
	}

	content := stripCodeFence(resp.Choices[0].Message.Content)
	if err := json.Unmarshal([]byte(content), out); err != nil {
		return fmt.Errorf("parse oracle response: %w", err)
	}
	return nil
}

// encodeInput serializes the oracle input, plus optional prior-oracle
// outputs for the conflict variant, as the user message.
func encodeInput(in Input, alloc *AllocationResult, health *HealthResult) (string, error) {
	payload := map[string]any{
		"account": map[string]any{
			"equity":              in.Snapshot.Equity,
			"available_margin":    in.Snapshot.AvailableMargin,
			"margin_used":         in.Snapshot.MarginUsed,
			"unrealized_pnl":      in.Snapshot.UnrealizedPnl,
			"drawdown_pct":        in.Snapshot.DrawdownPct,
			"open_positions":      in.Snapshot.OpenPositions,
			"current_allocations": in.Snapshot.CurrentAllocations,
			"disabled_strategies": in.Snapshot.DisabledStrategies,
		},
		"risk_tier": in.RiskTier,
		"leverage_caps": map[string]float64{
			"normal":  in.LeverageCaps.Normal,
			"reduced": in.LeverageCaps.Reduced,
			"minimum": in.LeverageCaps.Minimum,
		},
	}
	if alloc != nil {
		payload["allocation_recommendation"] = alloc
	}
	if health != nil {
		payload["health_verdict"] = health
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("encode oracle input: %w", err)
	}
	return string(data), nil
}

// stripCodeFence removes a surrounding markdown code fence, which some
// models emit despite the JSON response format.
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
