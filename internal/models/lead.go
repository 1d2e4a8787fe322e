package models

import (
	"time"

	"github.com/kayapalat/kayapalat-backend/internal/pipeline"
)

// ============================================
// Lead DTOs
// ============================================

type LeadResponse struct {
	AppointmentID     string               `json:"appointmentId"`
	LeadID            string               `json:"leadId"`
	AgentID           string               `json:"agentId"`
	AgentName         string               `json:"agentName"`
	ClientName        string               `json:"clientName"`
	ClientPhone       string               `json:"clientPhone"`
	ProjectValue      *string              `json:"projectValue"`
	CommissionPercent *string              `json:"commissionPercent"`
	AgentShare        *string              `json:"agentShare"`
	PropertyType      string               `json:"propertyType"`
	Location          string               `json:"location"`
	ColdCall          pipeline.Slot        `json:"coldCall"`
	SiteVisit         pipeline.Slot        `json:"siteVisit"`
	Booking           pipeline.BookingSlot `json:"booking"`
	BookedInNext      string               `json:"bookedInNext"`
	BookedInNextSetAt string               `json:"bookedInNextSetAt,omitempty"`
	Stage             pipeline.Stage       `json:"stage"`
	StageLabel        string               `json:"stageLabel"`
	Revision          int64                `json:"revision"`
	Matches           []pipeline.Span      `json:"matches,omitempty"`
	CreatedAt         time.Time            `json:"createdAt"`
	UpdatedAt         time.Time            `json:"updatedAt"`
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func NewLeadResponse(l *pipeline.Lead) LeadResponse {
	stage := pipeline.Classify(l)
	return LeadResponse{
		AppointmentID:     l.AppointmentID,
		LeadID:            l.LeadID,
		AgentID:           l.AgentID,
		AgentName:         l.AgentName,
		ClientName:        l.ClientName,
		ClientPhone:       l.ClientPhone,
		ProjectValue:      optional(pipeline.FormatMoney(l.ProjectValue)),
		CommissionPercent: optional(pipeline.FormatPercent(l.CommissionPercent)),
		AgentShare:        optional(pipeline.FormatMoney(l.AgentShare())),
		PropertyType:      l.PropertyType,
		Location:          l.Location,
		ColdCall:          l.ColdCall,
		SiteVisit:         l.SiteVisit,
		Booking:           l.Booking,
		BookedInNext:      l.BookedInNext,
		BookedInNextSetAt: l.BookedInNextSetAt,
		Stage:             stage,
		StageLabel:        stage.Label(),
		Revision:          l.Revision,
		CreatedAt:         l.CreatedAt,
		UpdatedAt:         l.UpdatedAt,
	}
}

func NewMatchResponses(matches []pipeline.Match) []LeadResponse {
	out := make([]LeadResponse, 0, len(matches))
	for _, m := range matches {
		r := NewLeadResponse(m.Lead)
		r.Matches = m.Spans
		out = append(out, r)
	}
	return out
}

type LeadListResponse struct {
	Projects []LeadResponse `json:"projects"`
	Total    int            `json:"total"`
}

type CreateLeadRequest struct {
	AgentID           string       `json:"agentId"`
	ClientName        string       `json:"clientName" binding:"required"`
	ClientPhone       string       `json:"clientPhone" binding:"required"`
	PropertyType      string       `json:"propertyType"`
	Location          string       `json:"location"`
	ProjectValue      *LooseString `json:"projectValue"`
	CommissionPercent *LooseString `json:"commissionPercent"`
	ColdCallDate      string       `json:"coldCallDate"`
	ColdCallTime      string       `json:"coldCallTime"`
}

type SlotPatchRequest struct {
	Date   *string `json:"date"`
	Time   *string `json:"time"`
	Status *string `json:"status"`
}

type BookingPatchRequest struct {
	Date      *string `json:"date"`
	Time      *string `json:"time"`
	Status    *string `json:"status"`
	BookingID *string `json:"bookingId"`
}

// UpdateLeadRequest is a partial update: absent fields are left unchanged.
type UpdateLeadRequest struct {
	Revision          *int64               `json:"revision"`
	ClientName        *string              `json:"clientName"`
	ClientPhone       *string              `json:"clientPhone"`
	PropertyType      *string              `json:"propertyType"`
	Location          *string              `json:"location"`
	ProjectValue      *LooseString         `json:"projectValue"`
	CommissionPercent *LooseString         `json:"commissionPercent"`
	ColdCall          *SlotPatchRequest    `json:"coldCall"`
	SiteVisit         *SlotPatchRequest    `json:"siteVisit"`
	Booking           *BookingPatchRequest `json:"booking"`
	BookedInNext      *string              `json:"bookedInNext"`
}

func (r *UpdateLeadRequest) ToPatch() pipeline.Patch {
	p := pipeline.Patch{
		ClientName:        r.ClientName,
		ClientPhone:       r.ClientPhone,
		PropertyType:      r.PropertyType,
		Location:          r.Location,
		ProjectValue:      r.ProjectValue.StringPtr(),
		CommissionPercent: r.CommissionPercent.StringPtr(),
		BookedInNext:      r.BookedInNext,
	}
	if r.ColdCall != nil {
		p.ColdCall = &pipeline.SlotPatch{Date: r.ColdCall.Date, Time: r.ColdCall.Time, Status: r.ColdCall.Status}
	}
	if r.SiteVisit != nil {
		p.SiteVisit = &pipeline.SlotPatch{Date: r.SiteVisit.Date, Time: r.SiteVisit.Time, Status: r.SiteVisit.Status}
	}
	if r.Booking != nil {
		p.Booking = &pipeline.BookingPatch{
			Date:      r.Booking.Date,
			Time:      r.Booking.Time,
			Status:    r.Booking.Status,
			BookingID: r.Booking.BookingID,
		}
	}
	return p
}

type UpdateLeadResponse struct {
	Success bool         `json:"success"`
	Project LeadResponse `json:"project"`
	Changed []string     `json:"changed"`
}

type SummaryResponse struct {
	Total           int               `json:"total"`
	ByStage         map[string]int    `json:"byStage"`
	StageLabels     map[string]string `json:"stageLabels"`
	BookedValue     string            `json:"bookedValue"`
	AgentShareTotal string            `json:"agentShareTotal"`
}

func NewSummaryResponse(s pipeline.Summary) SummaryResponse {
	resp := SummaryResponse{
		Total:           s.Total,
		ByStage:         make(map[string]int, len(s.ByStage)),
		StageLabels:     make(map[string]string, len(pipeline.Stages)),
		BookedValue:     s.BookedValue.StringFixed(2),
		AgentShareTotal: s.AgentShareTotal.StringFixed(2),
	}
	for _, st := range pipeline.Stages {
		resp.ByStage[string(st)] = s.ByStage[st]
		resp.StageLabels[string(st)] = st.Label()
	}
	return resp
}

// ============================================
// Remark DTOs
// ============================================

type RemarkResponse struct {
	ID            int64     `json:"id"`
	AppointmentID string    `json:"appointmentId"`
	Date          string    `json:"date"`
	Time          string    `json:"time"`
	Comment       string    `json:"comment"`
	Actor         string    `json:"actor"`
	CreatedAt     time.Time `json:"createdAt"`
}

type AppendRemarkRequest struct {
	Comment string `json:"comment"`
}

func NewRemarkResponse(r *pipeline.Remark) RemarkResponse {
	return RemarkResponse{
		ID:            r.ID,
		AppointmentID: r.AppointmentID,
		Date:          r.Date,
		Time:          r.Time,
		Comment:       r.Comment,
		Actor:         r.Actor,
		CreatedAt:     r.CreatedAt,
	}
}

func NewRemarkResponses(remarks []*pipeline.Remark) []RemarkResponse {
	out := make([]RemarkResponse, 0, len(remarks))
	for _, r := range remarks {
		out = append(out, NewRemarkResponse(r))
	}
	return out
}
