package service

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/kayapalat/kayapalat-backend/internal/pipeline"
	"github.com/kayapalat/kayapalat-backend/internal/repository"
)

// MaxRemarkLength is the longest comment accepted, in characters.
const MaxRemarkLength = 2000

// ============================================
// Remark Service
// ============================================

// RemarkService is append-only: remarks can be added and listed, never
// edited or removed.
type RemarkService interface {
	Append(ctx context.Context, actor Actor, appointmentID, comment string) (*pipeline.Remark, error)
	List(ctx context.Context, actor Actor, appointmentID string) ([]*pipeline.Remark, error)
}

type remarkService struct {
	remarkRepo repository.RemarkRepository
	leadRepo   repository.LeadRepository
	permission PermissionService
	notifier   LeadNotifier
	clock      Clock
}

func NewRemarkService(
	remarkRepo repository.RemarkRepository,
	leadRepo repository.LeadRepository,
	permission PermissionService,
	notifier LeadNotifier,
	clock Clock,
) RemarkService {
	if notifier == nil {
		notifier = nopNotifier{}
	}
	if permission == nil {
		permission = NewPermissionService()
	}
	if clock.now == nil {
		clock = NewClock(nil, nil)
	}
	return &remarkService{
		remarkRepo: remarkRepo,
		leadRepo:   leadRepo,
		permission: permission,
		notifier:   notifier,
		clock:      clock,
	}
}

func (s *remarkService) lead(ctx context.Context, actor Actor, appointmentID string) (*pipeline.Lead, error) {
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

// Append stamps the remark with the server's date and time.
func (s *remarkService) Append(ctx context.Context, actor Actor, appointmentID, comment string) (*pipeline.Remark, error) {
	lead, err := s.lead(ctx, actor, appointmentID)
	if err != nil {
		return nil, err
	}
	if !s.permission.CheckPermission(actor, EntityRemark, ActionCreate) {
		return nil, ErrForbidden
	}

	if !utf8.ValidString(comment) || strings.ContainsRune(comment, 0) {
		return nil, &pipeline.ValidationError{Field: "comment", Message: "contains invalid characters"}
	}
	comment = strings.TrimSpace(comment)
	if comment == "" {
		return nil, &pipeline.ValidationError{Field: "comment", Message: "is required"}
	}
	if utf8.RuneCountInString(comment) > MaxRemarkLength {
		return nil, &pipeline.ValidationError{Field: "comment", Message: "must be at most 2000 characters"}
	}

	now := s.clock.Now()
	remark := &pipeline.Remark{
		AppointmentID: lead.AppointmentID,
		Date:          now.Format(pipeline.DateLayout),
		Time:          now.Format(pipeline.ClockLayout),
		Comment:       comment,
		Actor:         actor.DisplayName(),
	}
	if err := s.remarkRepo.Append(ctx, remark); err != nil {
		return nil, err
	}

	s.notifier.RemarkAdded(lead, remark, actor.UserID)
	return remark, nil
}

func (s *remarkService) List(ctx context.Context, actor Actor, appointmentID string) ([]*pipeline.Remark, error) {
	lead, err := s.lead(ctx, actor, appointmentID)
	if err != nil {
		return nil, err
	}
	return s.remarkRepo.FindByAppointmentID(ctx, lead.AppointmentID)
}
