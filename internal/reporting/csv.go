package reporting

import (
	"fmt"
	"strings"
	"time"
)

// RenderCSV renders the decision rows as a CSV string.
func RenderCSV(decisions []DecisionRow) string {
	var sb strings.Builder

	sb.WriteString("decision_id,created_at,risk_tier,allocation_sum,leverage_cap,risk_score,paused,closes,disables\n")

	for _, d := range decisions {
		sb.WriteString(fmt.Sprintf("%s,%s,%s,%.4f,%.4f,%.2f,%t,%d,%d\n",
			d.DecisionID,
			d.CreatedAt.Format(time.RFC3339),
			d.RiskTier,
			d.AllocationSum,
			d.LeverageCap,
			d.RiskScore,
			d.Paused,
			d.Closes,
			d.Disables,
		))
	}

	return sb.String()
}
