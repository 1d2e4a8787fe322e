package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/kayapalat/kayapalat-backend/internal/email"
	"github.com/kayapalat/kayapalat-backend/internal/pipeline"
	"github.com/kayapalat/kayapalat-backend/internal/repository"
)

// ============================================
// Lead Service
// ============================================

type LeadService interface {
	Get(ctx context.Context, actor Actor, appointmentID string) (*pipeline.Lead, error)
	List(ctx context.Context, actor Actor) ([]*pipeline.Lead, error)
	Query(ctx context.Context, actor Actor, filter pipeline.Filter) ([]pipeline.Match, error)
	Create(ctx context.Context, actor Actor, draft pipeline.Draft) (*pipeline.Lead, error)
	UpdateFields(ctx context.Context, actor Actor, appointmentID string, patch pipeline.Patch, expectedRevision *int64) (*pipeline.Lead, []string, error)
	Summary(ctx context.Context, actor Actor) (pipeline.Summary, error)

	// Scheduler queries, unscoped.
	DueFollowUps(ctx context.Context) ([]*pipeline.Lead, error)
	ElapsedBookingWindows(ctx context.Context) ([]*pipeline.Lead, error)
	Today() time.Time
}

// LeadServiceDeps wires a LeadService. Cache, Notifier and Mailer may be nil.
type LeadServiceDeps struct {
	Leads       repository.LeadRepository
	Agents      repository.AgentRepository
	Permission  PermissionService
	Cache       LeadCache
	CacheTTL    time.Duration
	Notifier    LeadNotifier
	Mailer      Mailer
	FrontendURL string
	Clock       Clock
}

type leadService struct {
	leadRepo    repository.LeadRepository
	agentRepo   repository.AgentRepository
	permission  PermissionService
	cache       LeadCache
	cacheTTL    time.Duration
	notifier    LeadNotifier
	mailer      Mailer
	frontendURL string
	clock       Clock
}

func NewLeadService(deps LeadServiceDeps) LeadService {
	s := &leadService{
		leadRepo:    deps.Leads,
		agentRepo:   deps.Agents,
		permission:  deps.Permission,
		cache:       deps.Cache,
		cacheTTL:    deps.CacheTTL,
		notifier:    deps.Notifier,
		mailer:      deps.Mailer,
		frontendURL: deps.FrontendURL,
		clock:       deps.Clock,
	}
	if s.permission == nil {
		s.permission = NewPermissionService()
	}
	if s.notifier == nil {
		s.notifier = nopNotifier{}
	}
	if s.mailer == nil {
		s.mailer = nopMailer{}
	}
	if s.clock.now == nil {
		s.clock = NewClock(nil, nil)
	}
	return s
}

func (s *leadService) Today() time.Time {
	return s.clock.Now()
}

func (s *leadService) Get(ctx context.Context, actor Actor, appointmentID string) (*pipeline.Lead, error) {
	lead, err := s.leadRepo.FindByID(ctx, appointmentID)
	if err != nil {
		return nil, err
	}
	if lead == nil {
		return nil, ErrNotFound
	}
	if !s.permission.CanViewLead(actor, lead) {
		return nil, ErrForbidden
	}
	return lead, nil
}

// List returns every lead the actor may see: all of them for admins, the
// agent's own for referral agents.
func (s *leadService) List(ctx context.Context, actor Actor) ([]*pipeline.Lead, error) {
	var key string
	switch {
	case actor.IsAdmin():
		key = "leads:all"
	case actor.AgentID != "":
		key = "leads:agent:" + actor.AgentID
	default:
		return nil, ErrForbidden
	}

	if s.cache != nil {
		key += ":" + s.generation(ctx)
		var cached []*pipeline.Lead
		if err := s.cache.GetCache(ctx, key, &cached); err == nil {
			return cached, nil
		}
	}

	var (
		leads []*pipeline.Lead
		err   error
	)
	if actor.IsAdmin() {
		leads, err = s.leadRepo.FindAll(ctx)
	} else {
		leads, err = s.leadRepo.FindByAgentID(ctx, actor.AgentID)
	}
	if err != nil {
		return nil, err
	}

	if s.cache != nil && s.cacheTTL > 0 {
		if err := s.cache.SetCache(ctx, key, leads, s.cacheTTL); err != nil {
			log.Printf("[Leads] Cache write failed for %s: %v", key, err)
		}
	}
	return leads, nil
}

func (s *leadService) Query(ctx context.Context, actor Actor, filter pipeline.Filter) ([]pipeline.Match, error) {
	leads, err := s.List(ctx, actor)
	if err != nil {
		return nil, err
	}
	return pipeline.Query(leads, filter), nil
}

func (s *leadService) Summary(ctx context.Context, actor Actor) (pipeline.Summary, error) {
	leads, err := s.List(ctx, actor)
	if err != nil {
		return pipeline.Summary{}, err
	}
	return pipeline.Summarize(leads), nil
}

// Create logs the first cold call of a new lead. Referral agents may omit
// agentId; it defaults to their own.
func (s *leadService) Create(ctx context.Context, actor Actor, draft pipeline.Draft) (*pipeline.Lead, error) {
	if draft.AgentID == "" && !actor.IsAdmin() {
		draft.AgentID = actor.AgentID
	}
	if draft.AgentID == "" {
		return nil, &pipeline.ValidationError{Field: "agentId", Message: "is required"}
	}
	if !s.permission.CanCreateLeadFor(actor, draft.AgentID) {
		return nil, ErrForbidden
	}
	if field, denied := s.permission.DeniedField(actor, draftFields(draft), true); denied {
		return nil, fmt.Errorf("%w: %s", ErrForbidden, field)
	}

	agent, err := s.agentRepo.FindByID(ctx, draft.AgentID)
	if err != nil {
		return nil, err
	}
	if agent == nil {
		return nil, &pipeline.ValidationError{Field: "agentId", Message: "unknown agent"}
	}
	draft.AgentName = agent.Name
	draft.DefaultCommission = agent.DefaultCommissionPercent

	lead, err := pipeline.NewLead(draft, s.Today())
	if err != nil {
		return nil, err
	}
	if err := s.leadRepo.Create(ctx, lead); err != nil {
		return nil, err
	}

	log.Printf("[Leads] ✅ Lead %s created for agent %s by %s", lead.LeadID, agent.AgentCode, actor.UserID)
	s.invalidate(ctx)
	s.notifier.LeadCreated(lead, actor.UserID)
	return lead, nil
}

func draftFields(d pipeline.Draft) []string {
	fields := []string{pipeline.FieldClientName, pipeline.FieldClientPhone, pipeline.FieldLocation}
	add := func(v, field string) {
		if v != "" {
			fields = append(fields, field)
		}
	}
	add(d.PropertyType, pipeline.FieldPropertyType)
	add(d.ProjectValue, pipeline.FieldProjectValue)
	add(d.CommissionPercent, pipeline.FieldCommissionPercent)
	add(d.ColdCallDate, pipeline.FieldColdCallDate)
	add(d.ColdCallTime, pipeline.FieldColdCallTime)
	return fields
}

// UpdateFields applies a partial update with compare-and-swap on the lead's
// revision. Nothing is written when no value actually changes.
func (s *leadService) UpdateFields(ctx context.Context, actor Actor, appointmentID string, patch pipeline.Patch, expectedRevision *int64) (*pipeline.Lead, []string, error) {
	current, err := s.Get(ctx, actor, appointmentID)
	if err != nil {
		return nil, nil, err
	}
	if patch.IsEmpty() {
		return nil, nil, &pipeline.ValidationError{Message: "no fields to update"}
	}
	if field, denied := s.permission.DeniedField(actor, patch.Fields(), false); denied {
		return nil, nil, fmt.Errorf("%w: %s", ErrForbidden, field)
	}
	if expectedRevision != nil && *expectedRevision != current.Revision {
		return nil, nil, ErrConflict
	}

	next, changed, err := pipeline.Apply(current, patch, s.Today())
	if err != nil {
		return nil, nil, err
	}
	if len(changed) == 0 {
		return current, changed, nil
	}

	if err := s.leadRepo.Update(ctx, next, current.Revision); err != nil {
		switch {
		case errors.Is(err, repository.ErrRevisionMismatch):
			return nil, nil, ErrConflict
		case errors.Is(err, repository.ErrRecordNotFound):
			return nil, nil, ErrNotFound
		}
		return nil, nil, err
	}

	log.Printf("[Leads] Lead %s updated by %s: %v (stage %s)", next.LeadID, actor.UserID, changed, next.Stage())
	s.invalidate(ctx)
	s.notifier.LeadUpdated(next, changed, actor.UserID)
	if current.Stage() != pipeline.StageBooked && next.Stage() == pipeline.StageBooked {
		s.notifyBooked(ctx, next)
	}
	return next, changed, nil
}

func (s *leadService) notifyBooked(ctx context.Context, lead *pipeline.Lead) {
	agent, err := s.agentRepo.FindByID(ctx, lead.AgentID)
	if err != nil || agent == nil || agent.Email == nil || *agent.Email == "" {
		return
	}
	s.mailer.SendLeadBooked(*agent.Email, email.LeadBookedData{
		AgentName:    agent.Name,
		ClientName:   lead.ClientName,
		LeadID:       lead.LeadID,
		BookingID:    lead.Booking.BookingID,
		BookingDate:  lead.Booking.Date,
		ProjectValue: pipeline.FormatMoney(lead.ProjectValue),
		AgentShare:   pipeline.FormatMoney(lead.AgentShare()),
		DashboardURL: s.frontendURL + "/referral/dashboard",
	})
}

// leadsGenerationKey holds the suffix of the current lead list keys. A list
// read before a write may still land in the cache after invalidate, but
// under the previous generation where no reader looks.
const leadsGenerationKey = "leadsgen"

func (s *leadService) generation(ctx context.Context) string {
	var gen string
	if err := s.cache.GetCache(ctx, leadsGenerationKey, &gen); err != nil || gen == "" {
		return "0"
	}
	return gen
}

func (s *leadService) invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.SetCache(ctx, leadsGenerationKey, uuid.NewString(), 0); err != nil {
		log.Printf("[Leads] Cache generation bump failed: %v", err)
	}
	if err := s.cache.InvalidateCache(ctx, "leads:*"); err != nil {
		log.Printf("[Leads] Cache invalidation failed: %v", err)
	}
}

func (s *leadService) DueFollowUps(ctx context.Context) ([]*pipeline.Lead, error) {
	leads, err := s.leadRepo.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	return pipeline.DueFollowUps(leads, s.Today()), nil
}

func (s *leadService) ElapsedBookingWindows(ctx context.Context) ([]*pipeline.Lead, error) {
	leads, err := s.leadRepo.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	return pipeline.ElapsedBookingWindows(leads, s.Today()), nil
}
