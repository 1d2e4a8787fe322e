package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/kayapalat/kayapalat-backend/internal/pipeline"
)

// RemarkRepository is append-only. It has no update or delete.
type RemarkRepository interface {
	Append(ctx context.Context, remark *pipeline.Remark) error
	FindByAppointmentID(ctx context.Context, appointmentID string) ([]*pipeline.Remark, error)
}

type remarkRow struct {
	ID            int64     `db:"id"`
	AppointmentID string    `db:"appointment_id"`
	Date          string    `db:"remark_date"`
	Time          string    `db:"remark_time"`
	Comment       string    `db:"comment"`
	Actor         string    `db:"actor"`
	CreatedAt     time.Time `db:"created_at"`
}

func (r remarkRow) toRemark() *pipeline.Remark {
	return &pipeline.Remark{
		ID:            r.ID,
		AppointmentID: r.AppointmentID,
		Date:          r.Date,
		Time:          r.Time,
		Comment:       r.Comment,
		Actor:         r.Actor,
		CreatedAt:     r.CreatedAt,
	}
}

type sqlRemarkRepository struct {
	db *sqlx.DB
}

func NewRemarkRepository(db *sqlx.DB) RemarkRepository {
	return &sqlRemarkRepository{db: db}
}

func (r *sqlRemarkRepository) Append(ctx context.Context, remark *pipeline.Remark) error {
	query := `
		INSERT INTO remarks (appointment_id, remark_date, remark_time, comment, actor)
		VALUES (:appointment_id, :remark_date, :remark_time, :comment, :actor)
		RETURNING id, created_at
	`
	row := remarkRow{
		AppointmentID: remark.AppointmentID,
		Date:          remark.Date,
		Time:          remark.Time,
		Comment:       remark.Comment,
		Actor:         remark.Actor,
	}
	rows, err := sqlx.NamedQueryContext(ctx, r.db, query, row)
	if err != nil {
		return fmt.Errorf("insert remark: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return fmt.Errorf("insert remark: %w", err)
		}
		return fmt.Errorf("insert remark: no row returned")
	}
	return rows.Scan(&remark.ID, &remark.CreatedAt)
}

// FindByAppointmentID returns remarks oldest first. The serial id orders
// remarks added within the same second.
func (r *sqlRemarkRepository) FindByAppointmentID(ctx context.Context, appointmentID string) ([]*pipeline.Remark, error) {
	query := `
		SELECT id, appointment_id, remark_date, remark_time, comment, actor, created_at
		FROM remarks WHERE appointment_id = $1
		ORDER BY id ASC
	`
	var rows []remarkRow
	if err := r.db.SelectContext(ctx, &rows, query, appointmentID); err != nil {
		return nil, err
	}

	remarks := make([]*pipeline.Remark, 0, len(rows))
	for _, row := range rows {
		remarks = append(remarks, row.toRemark())
	}
	return remarks, nil
}
