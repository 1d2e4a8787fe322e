// Package pipeline holds the lead pipeline model shared by every dashboard:
// stage classification, commission math, field mutation rules and the
// in-memory query engine. Nothing in here touches the network or the database.
package pipeline

import (
	"time"

	"github.com/kayapalat/kayapalat-backend/internal/types"
	"github.com/shopspring/decimal"
)

// Stage is the pipeline tab a lead appears under. It is always derived from
// the status fields and never stored.
type Stage string

const (
	StageColdCalling Stage = "ColdCalling"
	StageSiteVisit   Stage = "SiteVisit"
	StageProspect    Stage = "Prospect"
	StageBooked      Stage = "Booked"
)

// Stages in pipeline order.
var Stages = []Stage{StageColdCalling, StageSiteVisit, StageProspect, StageBooked}

// Label is the dashboard tab title.
func (s Stage) Label() string {
	switch s {
	case StageColdCalling:
		return "Cold Calling"
	case StageSiteVisit:
		return "Site Visit"
	case StageProspect:
		return "Hot Client"
	case StageBooked:
		return "Booked"
	}
	return string(s)
}

// Slot is one (date, time, status) triple of a pipeline stage.
type Slot struct {
	Date   string `json:"date"`
	Time   string `json:"time"`
	Status string `json:"status"`
}

// BookingSlot is the booking stage triple plus the booking reference.
type BookingSlot struct {
	Date      string `json:"date"`
	Time      string `json:"time"`
	Status    string `json:"status"`
	BookingID string `json:"bookingId"`
}

// Lead is one client engagement, keyed by AppointmentID.
type Lead struct {
	AppointmentID     string
	LeadID            string
	AgentID           string
	AgentName         string
	ClientName        string
	ClientPhone       string
	ProjectValue      *decimal.Decimal
	CommissionPercent *decimal.Decimal
	PropertyType      string
	Location          string
	ColdCall          Slot
	SiteVisit         Slot
	Booking           BookingSlot
	BookedInNext      string
	BookedInNextSetAt string
	Revision          int64
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// Remark is one append-only note on a lead.
type Remark struct {
	ID            int64
	AppointmentID string
	Date          string
	Time          string
	Comment       string
	Actor         string
	CreatedAt     time.Time
}

// Classify maps the status fields of a lead to exactly one stage.
// The first matching rule wins, so a Booked booking short-circuits the
// earlier stages even when they were never confirmed.
func Classify(l *Lead) Stage {
	if l == nil {
		return StageColdCalling
	}
	switch {
	case l.Booking.Status == types.BookingBooked:
		return StageBooked
	case l.SiteVisit.Status == types.SiteVisitConfirmed:
		return StageProspect
	case l.ColdCall.Status == types.ColdCallConfirmed:
		return StageSiteVisit
	default:
		return StageColdCalling
	}
}

// Stage returns the derived pipeline stage.
func (l *Lead) Stage() Stage {
	return Classify(l)
}

// AgentShare is recomputed from project value and commission on every call.
func (l *Lead) AgentShare() *decimal.Decimal {
	return ComputeAgentShare(l.ProjectValue, l.CommissionPercent)
}

// Clone returns a copy that shares no mutable state with l.
func (l *Lead) Clone() *Lead {
	if l == nil {
		return nil
	}
	c := *l
	if l.ProjectValue != nil {
		v := *l.ProjectValue
		c.ProjectValue = &v
	}
	if l.CommissionPercent != nil {
		v := *l.CommissionPercent
		c.CommissionPercent = &v
	}
	return &c
}

// SlotFor returns the date, time and status of the slot that belongs to stage.
// Prospect and Booked leads are both tracked on the booking slot.
func (l *Lead) SlotFor(stage Stage) (date, clock, status string) {
	switch stage {
	case StageColdCalling:
		return l.ColdCall.Date, l.ColdCall.Time, l.ColdCall.Status
	case StageSiteVisit:
		return l.SiteVisit.Date, l.SiteVisit.Time, l.SiteVisit.Status
	default:
		return l.Booking.Date, l.Booking.Time, l.Booking.Status
	}
}

// ActiveSlot is the slot of the lead's own current stage.
func (l *Lead) ActiveSlot() (date, clock, status string) {
	return l.SlotFor(Classify(l))
}
