package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/kayapalat/kayapalat-backend/internal/pipeline"
	"github.com/shopspring/decimal"
)

type LeadRepository interface {
	Create(ctx context.Context, lead *pipeline.Lead) error
	FindByID(ctx context.Context, appointmentID string) (*pipeline.Lead, error)
	FindAll(ctx context.Context) ([]*pipeline.Lead, error)
	FindByAgentID(ctx context.Context, agentID string) ([]*pipeline.Lead, error)
	Update(ctx context.Context, lead *pipeline.Lead, expectedRevision int64) error
}

type pgLeadRepository struct {
	pool *pgxpool.Pool
}

func NewLeadRepository(pool *pgxpool.Pool) LeadRepository {
	return &pgLeadRepository{pool: pool}
}

const leadColumns = `
	l.appointment_id, l.lead_id, l.agent_id, a.name,
	l.client_name, l.client_phone, l.project_value, l.commission_percent,
	l.property_type, l.location,
	l.cold_call_date, l.cold_call_time, l.cold_call_status,
	l.site_visit_date, l.site_visit_time, l.site_visit_status,
	l.booking_date, l.booking_time, l.booking_status, l.booking_id,
	l.booked_in_next, l.booked_in_next_set_at,
	l.revision, l.created_at, l.updated_at`

const leadFrom = `FROM leads l JOIN agents a ON a.id = l.agent_id`

func scanLead(row pgx.Row) (*pipeline.Lead, error) {
	l := &pipeline.Lead{}
	var projectValue, commission decimal.NullDecimal
	err := row.Scan(
		&l.AppointmentID, &l.LeadID, &l.AgentID, &l.AgentName,
		&l.ClientName, &l.ClientPhone, &projectValue, &commission,
		&l.PropertyType, &l.Location,
		&l.ColdCall.Date, &l.ColdCall.Time, &l.ColdCall.Status,
		&l.SiteVisit.Date, &l.SiteVisit.Time, &l.SiteVisit.Status,
		&l.Booking.Date, &l.Booking.Time, &l.Booking.Status, &l.Booking.BookingID,
		&l.BookedInNext, &l.BookedInNextSetAt,
		&l.Revision, &l.CreatedAt, &l.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	l.ProjectValue = decimalPtr(projectValue)
	l.CommissionPercent = decimalPtr(commission)
	return l, nil
}

// Create assigns the appointment id, the LDxxxxx display code and revision 1.
func (r *pgLeadRepository) Create(ctx context.Context, lead *pipeline.Lead) error {
	query := `
		INSERT INTO leads (
			appointment_id, lead_id, agent_id, client_name, client_phone,
			project_value, commission_percent, property_type, location,
			cold_call_date, cold_call_time, cold_call_status,
			site_visit_date, site_visit_time, site_visit_status,
			booking_date, booking_time, booking_status, booking_id,
			booked_in_next, booked_in_next_set_at, revision
		) VALUES (
			$1, 'LD' || LPAD(nextval('lead_code_seq')::text, 5, '0'), $2, $3, $4,
			$5, $6, $7, $8,
			$9, $10, $11,
			$12, $13, $14,
			$15, $16, $17, $18,
			$19, $20, 1
		)
		RETURNING lead_id, revision, created_at, updated_at
	`
	lead.AppointmentID = uuid.NewString()
	err := r.pool.QueryRow(ctx, query,
		lead.AppointmentID, lead.AgentID, lead.ClientName, lead.ClientPhone,
		nullDecimal(lead.ProjectValue), nullDecimal(lead.CommissionPercent), lead.PropertyType, lead.Location,
		lead.ColdCall.Date, lead.ColdCall.Time, lead.ColdCall.Status,
		lead.SiteVisit.Date, lead.SiteVisit.Time, lead.SiteVisit.Status,
		lead.Booking.Date, lead.Booking.Time, lead.Booking.Status, lead.Booking.BookingID,
		lead.BookedInNext, lead.BookedInNextSetAt,
	).Scan(&lead.LeadID, &lead.Revision, &lead.CreatedAt, &lead.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert lead: %w", err)
	}
	return nil
}

func (r *pgLeadRepository) FindByID(ctx context.Context, appointmentID string) (*pipeline.Lead, error) {
	if _, err := uuid.Parse(appointmentID); err != nil {
		return nil, nil
	}
	query := `SELECT ` + leadColumns + ` ` + leadFrom + ` WHERE l.appointment_id = $1`
	lead, err := scanLead(r.pool.QueryRow(ctx, query, appointmentID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return lead, nil
}

func (r *pgLeadRepository) FindAll(ctx context.Context) ([]*pipeline.Lead, error) {
	query := `SELECT ` + leadColumns + ` ` + leadFrom + ` ORDER BY l.created_at DESC`
	return r.queryLeads(ctx, query)
}

func (r *pgLeadRepository) FindByAgentID(ctx context.Context, agentID string) ([]*pipeline.Lead, error) {
	if _, err := uuid.Parse(agentID); err != nil {
		return []*pipeline.Lead{}, nil
	}
	query := `SELECT ` + leadColumns + ` ` + leadFrom + ` WHERE l.agent_id = $1 ORDER BY l.created_at DESC`
	return r.queryLeads(ctx, query, agentID)
}

func (r *pgLeadRepository) queryLeads(ctx context.Context, query string, args ...interface{}) ([]*pipeline.Lead, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	leads := []*pipeline.Lead{}
	for rows.Next() {
		lead, err := scanLead(rows)
		if err != nil {
			return nil, err
		}
		leads = append(leads, lead)
	}
	return leads, rows.Err()
}

// Update writes every mutable column only if the stored revision still equals
// expectedRevision, then bumps the revision. Identity and ownership columns
// are never written.
func (r *pgLeadRepository) Update(ctx context.Context, lead *pipeline.Lead, expectedRevision int64) error {
	query := `
		UPDATE leads SET
			client_name = $3, client_phone = $4,
			project_value = $5, commission_percent = $6,
			property_type = $7, location = $8,
			cold_call_date = $9, cold_call_time = $10, cold_call_status = $11,
			site_visit_date = $12, site_visit_time = $13, site_visit_status = $14,
			booking_date = $15, booking_time = $16, booking_status = $17, booking_id = $18,
			booked_in_next = $19, booked_in_next_set_at = $20,
			revision = revision + 1, updated_at = NOW()
		WHERE appointment_id = $1 AND revision = $2
		RETURNING revision, updated_at
	`
	err := r.pool.QueryRow(ctx, query,
		lead.AppointmentID, expectedRevision,
		lead.ClientName, lead.ClientPhone,
		nullDecimal(lead.ProjectValue), nullDecimal(lead.CommissionPercent),
		lead.PropertyType, lead.Location,
		lead.ColdCall.Date, lead.ColdCall.Time, lead.ColdCall.Status,
		lead.SiteVisit.Date, lead.SiteVisit.Time, lead.SiteVisit.Status,
		lead.Booking.Date, lead.Booking.Time, lead.Booking.Status, lead.Booking.BookingID,
		lead.BookedInNext, lead.BookedInNextSetAt,
	).Scan(&lead.Revision, &lead.UpdatedAt)
	if err == nil {
		return nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("update lead: %w", err)
	}

	var exists bool
	if err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM leads WHERE appointment_id = $1)`, lead.AppointmentID,
	).Scan(&exists); err != nil {
		return err
	}
	if exists {
		return ErrRevisionMismatch
	}
	return ErrRecordNotFound
}
