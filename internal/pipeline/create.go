package pipeline

import (
	"strings"
	"time"

	"github.com/kayapalat/kayapalat-backend/internal/types"
	"github.com/shopspring/decimal"
)

// Draft is the input of a first logged cold call.
type Draft struct {
	AgentID           string
	AgentName         string
	ClientName        string
	ClientPhone       string
	PropertyType      string
	Location          string
	ProjectValue      string
	CommissionPercent string
	ColdCallDate      string
	ColdCallTime      string

	// DefaultCommission is used when CommissionPercent is blank.
	DefaultCommission *decimal.Decimal
}

// NewLead validates a draft and returns a lead in the ColdCalling stage.
// Identity fields are left for the store to assign.
func NewLead(d Draft, today time.Time) (*Lead, error) {
	if strings.TrimSpace(d.AgentID) == "" {
		return nil, invalid("agentId", "is required")
	}
	base := &Lead{
		AgentID:      d.AgentID,
		AgentName:    d.AgentName,
		ColdCall:     Slot{Date: today.Format(DateLayout), Status: types.ColdCallUpcoming},
		PropertyType: types.PropertyResidential,
	}

	p := Patch{
		ClientName:  &d.ClientName,
		ClientPhone: &d.ClientPhone,
		Location:    &d.Location,
		ColdCall:    &SlotPatch{},
	}
	if strings.TrimSpace(d.PropertyType) != "" {
		p.PropertyType = &d.PropertyType
	}
	if strings.TrimSpace(d.ProjectValue) != "" {
		p.ProjectValue = &d.ProjectValue
	}
	if strings.TrimSpace(d.CommissionPercent) != "" {
		p.CommissionPercent = &d.CommissionPercent
	} else if d.DefaultCommission != nil {
		v := *d.DefaultCommission
		base.CommissionPercent = &v
	}
	if strings.TrimSpace(d.ColdCallDate) != "" {
		p.ColdCall.Date = &d.ColdCallDate
	}
	if strings.TrimSpace(d.ColdCallTime) != "" {
		p.ColdCall.Time = &d.ColdCallTime
	}

	lead, _, err := Apply(base, p, today)
	if err != nil {
		return nil, err
	}
	return lead, nil
}
