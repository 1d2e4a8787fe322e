package pipeline

import (
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// ComputeAgentShare returns projectValue * commissionPercent / 100 rounded to
// two places, or nil (blank) when either input is missing or zero.
func ComputeAgentShare(projectValue, commissionPercent *decimal.Decimal) *decimal.Decimal {
	if projectValue == nil || commissionPercent == nil {
		return nil
	}
	if projectValue.IsZero() || commissionPercent.IsZero() {
		return nil
	}
	share := projectValue.Mul(*commissionPercent).Div(hundred).Round(2)
	return &share
}

// FormatMoney renders an optional amount with two decimals, blank for nil.
func FormatMoney(d *decimal.Decimal) string {
	if d == nil {
		return ""
	}
	return d.StringFixed(2)
}

// FormatPercent renders an optional percentage without trailing zeros.
func FormatPercent(d *decimal.Decimal) string {
	if d == nil {
		return ""
	}
	return d.String()
}

// CommissionSummary totals the commission position of one agent.
type CommissionSummary struct {
	AgentID       string
	BookedLeads   int
	OpenLeads     int
	BookedValue   decimal.Decimal
	Earned        decimal.Decimal
	PipelineShare decimal.Decimal
	ByStage       map[Stage]int
}

// SummarizeCommission totals agent share over booked leads (earned) and over
// leads still in the pipeline. Leads of other agents are ignored.
func SummarizeCommission(agentID string, leads []*Lead) CommissionSummary {
	sum := CommissionSummary{
		AgentID:       agentID,
		BookedValue:   decimal.Zero,
		Earned:        decimal.Zero,
		PipelineShare: decimal.Zero,
		ByStage:       make(map[Stage]int, len(Stages)),
	}
	for _, l := range leads {
		if l == nil || l.AgentID != agentID {
			continue
		}
		stage := Classify(l)
		sum.ByStage[stage]++
		share := l.AgentShare()
		if stage == StageBooked {
			sum.BookedLeads++
			if l.ProjectValue != nil {
				sum.BookedValue = sum.BookedValue.Add(*l.ProjectValue)
			}
			if share != nil {
				sum.Earned = sum.Earned.Add(*share)
			}
			continue
		}
		sum.OpenLeads++
		if share != nil {
			sum.PipelineShare = sum.PipelineShare.Add(*share)
		}
	}
	return sum
}
