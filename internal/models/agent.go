package models

import (
	"time"

	"github.com/kayapalat/kayapalat-backend/internal/pipeline"
	"github.com/kayapalat/kayapalat-backend/internal/repository"
)

// ============================================
// Agent DTOs
// ============================================

type BankDetailsResponse struct {
	AccountHolder string `json:"accountHolder"`
	AccountNumber string `json:"accountNumber"`
	IFSC          string `json:"ifsc"`
	BankName      string `json:"bankName"`
	UPIID         string `json:"upiId"`
}

type AgentResponse struct {
	ID                       string               `json:"id"`
	AgentCode                string               `json:"agentCode"`
	Name                     string               `json:"name"`
	Phone                    string               `json:"phone"`
	Email                    *string              `json:"email,omitempty"`
	DefaultCommissionPercent *string              `json:"defaultCommissionPercent"`
	BankDetails              *BankDetailsResponse `json:"bankDetails,omitempty"`
	CreatedAt                time.Time            `json:"createdAt"`
}

type CreateAgentRequest struct {
	Name                     string       `json:"name" binding:"required,min=2"`
	Phone                    string       `json:"phone" binding:"required"`
	Email                    *string      `json:"email" binding:"omitempty,email"`
	DefaultCommissionPercent *LooseString `json:"defaultCommissionPercent"`
}

type UpdateAgentRequest struct {
	Name                     *string      `json:"name"`
	Phone                    *string      `json:"phone"`
	Email                    *string      `json:"email"`
	DefaultCommissionPercent *LooseString `json:"defaultCommissionPercent"`
}

type BankDetailsRequest struct {
	AccountHolder string `json:"accountHolder" binding:"required"`
	AccountNumber string `json:"accountNumber" binding:"required"`
	IFSC          string `json:"ifsc" binding:"required"`
	BankName      string `json:"bankName"`
	UPIID         string `json:"upiId"`
}

func (r BankDetailsRequest) ToBankDetails() repository.BankDetails {
	return repository.BankDetails{
		AccountHolder: r.AccountHolder,
		AccountNumber: r.AccountNumber,
		IFSC:          r.IFSC,
		BankName:      r.BankName,
		UPIID:         r.UPIID,
	}
}

func NewBankDetailsResponse(b repository.BankDetails) BankDetailsResponse {
	return BankDetailsResponse{
		AccountHolder: b.AccountHolder,
		AccountNumber: b.AccountNumber,
		IFSC:          b.IFSC,
		BankName:      b.BankName,
		UPIID:         b.UPIID,
	}
}

// NewAgentResponse renders an agent. Bank details are attached only when
// withBank is set; the caller is responsible for masking.
func NewAgentResponse(a *repository.Agent, withBank bool) AgentResponse {
	resp := AgentResponse{
		ID:                       a.ID,
		AgentCode:                a.AgentCode,
		Name:                     a.Name,
		Phone:                    a.Phone,
		Email:                    a.Email,
		DefaultCommissionPercent: optional(pipeline.FormatPercent(a.DefaultCommissionPercent)),
		CreatedAt:                a.CreatedAt,
	}
	if withBank {
		b := NewBankDetailsResponse(a.Bank)
		resp.BankDetails = &b
	}
	return resp
}

type CommissionResponse struct {
	AgentID       string         `json:"agentId"`
	BookedLeads   int            `json:"bookedLeads"`
	OpenLeads     int            `json:"openLeads"`
	BookedValue   string         `json:"bookedValue"`
	Earned        string         `json:"earned"`
	PipelineShare string         `json:"pipelineShare"`
	ByStage       map[string]int `json:"byStage"`
}

func NewCommissionResponse(s pipeline.CommissionSummary) CommissionResponse {
	resp := CommissionResponse{
		AgentID:       s.AgentID,
		BookedLeads:   s.BookedLeads,
		OpenLeads:     s.OpenLeads,
		BookedValue:   s.BookedValue.StringFixed(2),
		Earned:        s.Earned.StringFixed(2),
		PipelineShare: s.PipelineShare.StringFixed(2),
		ByStage:       make(map[string]int, len(pipeline.Stages)),
	}
	for _, st := range pipeline.Stages {
		resp.ByStage[string(st)] = s.ByStage[st]
	}
	return resp
}
