package service

import (
	"context"
	"errors"
	"regexp"
	"strings"

	"github.com/kayapalat/kayapalat-backend/internal/pipeline"
	"github.com/kayapalat/kayapalat-backend/internal/repository"
)

var (
	ifscPattern    = regexp.MustCompile(`^[A-Z]{4}0[A-Z0-9]{6}$`)
	accountPattern = regexp.MustCompile(`^[0-9]{6,18}$`)
)

// AgentInput carries optional agent fields; nil leaves a field unchanged on
// update.
type AgentInput struct {
	Name                     *string
	Phone                    *string
	Email                    *string
	DefaultCommissionPercent *string
}

// ============================================
// Agent Service
// ============================================

type AgentService interface {
	Create(ctx context.Context, actor Actor, input AgentInput) (*repository.Agent, error)
	Get(ctx context.Context, actor Actor, id string) (*repository.Agent, error)
	List(ctx context.Context, actor Actor) ([]*repository.Agent, error)
	Update(ctx context.Context, actor Actor, id string, input AgentInput) (*repository.Agent, error)
	UpdateBankDetails(ctx context.Context, actor Actor, id string, bank repository.BankDetails) (*repository.Agent, error)
	Commission(ctx context.Context, actor Actor, id string) (pipeline.CommissionSummary, error)
}

type agentService struct {
	agentRepo  repository.AgentRepository
	leadRepo   repository.LeadRepository
	permission PermissionService
}

func NewAgentService(agentRepo repository.AgentRepository, leadRepo repository.LeadRepository, permission PermissionService) AgentService {
	if permission == nil {
		permission = NewPermissionService()
	}
	return &agentService{agentRepo: agentRepo, leadRepo: leadRepo, permission: permission}
}

// MaskAccountNumber keeps the last four digits of an account number.
func MaskAccountNumber(number string) string {
	n := len(number)
	if n == 0 {
		return ""
	}
	if n <= 4 {
		return strings.Repeat("X", n)
	}
	return strings.Repeat("X", n-4) + number[n-4:]
}

// redact returns a copy of a with bank details masked for actor.
func (s *agentService) redact(actor Actor, a *repository.Agent) *repository.Agent {
	if a == nil || s.permission.CanSeeFullBankDetails(actor) {
		return a
	}
	c := *a
	c.Bank.AccountNumber = MaskAccountNumber(a.Bank.AccountNumber)
	return &c
}

func applyAgentInput(a *repository.Agent, in AgentInput) error {
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if len(name) < 2 {
			return &pipeline.ValidationError{Field: "name", Message: "must be at least 2 characters"}
		}
		a.Name = name
	}
	if in.Phone != nil {
		phone := strings.TrimSpace(*in.Phone)
		if phone == "" {
			return &pipeline.ValidationError{Field: "phone", Message: "is required"}
		}
		a.Phone = phone
	}
	if in.Email != nil {
		email := strings.TrimSpace(*in.Email)
		if email == "" {
			a.Email = nil
		} else {
			a.Email = &email
		}
	}
	if in.DefaultCommissionPercent != nil {
		pct, err := pipeline.ParsePercent(*in.DefaultCommissionPercent)
		if err != nil {
			return &pipeline.ValidationError{Field: "defaultCommissionPercent", Message: err.Error()}
		}
		a.DefaultCommissionPercent = pct
	}
	return nil
}

func (s *agentService) Create(ctx context.Context, actor Actor, input AgentInput) (*repository.Agent, error) {
	if !s.permission.CheckPermission(actor, EntityAgent, ActionCreate) {
		return nil, ErrForbidden
	}
	if input.Name == nil {
		return nil, &pipeline.ValidationError{Field: "name", Message: "is required"}
	}
	if input.Phone == nil {
		return nil, &pipeline.ValidationError{Field: "phone", Message: "is required"}
	}

	agent := &repository.Agent{}
	if err := applyAgentInput(agent, input); err != nil {
		return nil, err
	}
	if err := s.agentRepo.Create(ctx, agent); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrConflict
		}
		return nil, err
	}
	return s.redact(actor, agent), nil
}

func (s *agentService) find(ctx context.Context, actor Actor, id string) (*repository.Agent, error) {
	if !s.permission.CanViewAgent(actor, id) {
		return nil, ErrForbidden
	}
	agent, err := s.agentRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if agent == nil {
		return nil, ErrNotFound
	}
	return agent, nil
}

func (s *agentService) Get(ctx context.Context, actor Actor, id string) (*repository.Agent, error) {
	agent, err := s.find(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	return s.redact(actor, agent), nil
}

func (s *agentService) List(ctx context.Context, actor Actor) ([]*repository.Agent, error) {
	if !s.permission.CheckPermission(actor, EntityAgent, ActionView) {
		return nil, ErrForbidden
	}
	agents, err := s.agentRepo.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]*repository.Agent, 0, len(agents))
	for _, a := range agents {
		out = append(out, s.redact(actor, a))
	}
	return out, nil
}

func (s *agentService) Update(ctx context.Context, actor Actor, id string, input AgentInput) (*repository.Agent, error) {
	if !s.permission.CheckPermission(actor, EntityAgent, ActionEdit) {
		return nil, ErrForbidden
	}
	agent, err := s.find(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if err := applyAgentInput(agent, input); err != nil {
		return nil, err
	}
	if err := s.agentRepo.Update(ctx, agent); err != nil {
		if errors.Is(err, repository.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return s.redact(actor, agent), nil
}

// UpdateBankDetails replaces the payout details of an agent.
func (s *agentService) UpdateBankDetails(ctx context.Context, actor Actor, id string, bank repository.BankDetails) (*repository.Agent, error) {
	if !s.permission.CheckPermission(actor, EntityBank, ActionEdit) {
		return nil, ErrForbidden
	}

	bank.AccountHolder = strings.TrimSpace(bank.AccountHolder)
	bank.AccountNumber = strings.ReplaceAll(strings.TrimSpace(bank.AccountNumber), " ", "")
	bank.IFSC = strings.ToUpper(strings.TrimSpace(bank.IFSC))
	bank.BankName = strings.TrimSpace(bank.BankName)
	bank.UPIID = strings.TrimSpace(bank.UPIID)

	if bank.AccountHolder == "" {
		return nil, &pipeline.ValidationError{Field: "accountHolder", Message: "is required"}
	}
	if !accountPattern.MatchString(bank.AccountNumber) {
		return nil, &pipeline.ValidationError{Field: "accountNumber", Message: "must be 6 to 18 digits"}
	}
	if !ifscPattern.MatchString(bank.IFSC) {
		return nil, &pipeline.ValidationError{Field: "ifsc", Message: "is not a valid IFSC code"}
	}

	agent, err := s.find(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if err := s.agentRepo.UpdateBankDetails(ctx, id, bank); err != nil {
		if errors.Is(err, repository.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	agent.Bank = bank
	return s.redact(actor, agent), nil
}

// Commission totals earned and pipeline agent share over the agent's leads.
func (s *agentService) Commission(ctx context.Context, actor Actor, id string) (pipeline.CommissionSummary, error) {
	agent, err := s.find(ctx, actor, id)
	if err != nil {
		return pipeline.CommissionSummary{}, err
	}
	leads, err := s.leadRepo.FindByAgentID(ctx, agent.ID)
	if err != nil {
		return pipeline.CommissionSummary{}, err
	}
	return pipeline.SummarizeCommission(agent.ID, leads), nil
}
