package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

type BankDetails struct {
	AccountHolder string
	AccountNumber string
	IFSC          string
	BankName      string
	UPIID         string
}

type Agent struct {
	ID                       string
	AgentCode                string
	Name                     string
	Phone                    string
	Email                    *string
	DefaultCommissionPercent *decimal.Decimal
	Bank                     BankDetails
	CreatedAt                time.Time
	UpdatedAt                time.Time
}

type AgentRepository interface {
	Create(ctx context.Context, agent *Agent) error
	FindByID(ctx context.Context, id string) (*Agent, error)
	FindAll(ctx context.Context) ([]*Agent, error)
	Update(ctx context.Context, agent *Agent) error
	UpdateBankDetails(ctx context.Context, agentID string, bank BankDetails) error
}

type pgAgentRepository struct {
	pool *pgxpool.Pool
}

func NewAgentRepository(pool *pgxpool.Pool) AgentRepository {
	return &pgAgentRepository{pool: pool}
}

const agentColumns = `
	id, agent_code, name, phone, email, default_commission_percent,
	account_holder, account_number, ifsc, bank_name, upi_id,
	created_at, updated_at`

func scanAgent(row pgx.Row) (*Agent, error) {
	a := &Agent{}
	var commission decimal.NullDecimal
	err := row.Scan(
		&a.ID, &a.AgentCode, &a.Name, &a.Phone, &a.Email, &commission,
		&a.Bank.AccountHolder, &a.Bank.AccountNumber, &a.Bank.IFSC, &a.Bank.BankName, &a.Bank.UPIID,
		&a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	a.DefaultCommissionPercent = decimalPtr(commission)
	return a, nil
}

// Create assigns the AGxxxx agent code.
func (r *pgAgentRepository) Create(ctx context.Context, agent *Agent) error {
	query := `
		INSERT INTO agents (
			agent_code, name, phone, email, default_commission_percent,
			account_holder, account_number, ifsc, bank_name, upi_id
		) VALUES (
			'AG' || LPAD(nextval('agent_code_seq')::text, 4, '0'), $1, $2, $3, $4,
			$5, $6, $7, $8, $9
		)
		RETURNING id, agent_code, created_at, updated_at
	`
	err := r.pool.QueryRow(ctx, query,
		agent.Name, agent.Phone, agent.Email, nullDecimal(agent.DefaultCommissionPercent),
		agent.Bank.AccountHolder, agent.Bank.AccountNumber, agent.Bank.IFSC, agent.Bank.BankName, agent.Bank.UPIID,
	).Scan(&agent.ID, &agent.AgentCode, &agent.CreatedAt, &agent.UpdatedAt)
	if isUniqueViolation(err) {
		return ErrDuplicate
	}
	return err
}

func (r *pgAgentRepository) FindByID(ctx context.Context, id string) (*Agent, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, nil
	}
	query := `SELECT ` + agentColumns + ` FROM agents WHERE id = $1`
	agent, err := scanAgent(r.pool.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return agent, nil
}

func (r *pgAgentRepository) FindAll(ctx context.Context) ([]*Agent, error) {
	query := `SELECT ` + agentColumns + ` FROM agents ORDER BY agent_code`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	agents := []*Agent{}
	for rows.Next() {
		agent, err := scanAgent(rows)
		if err != nil {
			return nil, err
		}
		agents = append(agents, agent)
	}
	return agents, rows.Err()
}

func (r *pgAgentRepository) Update(ctx context.Context, agent *Agent) error {
	query := `
		UPDATE agents SET name = $2, phone = $3, email = $4,
			default_commission_percent = $5, updated_at = NOW()
		WHERE id = $1
	`
	tag, err := r.pool.Exec(ctx, query,
		agent.ID, agent.Name, agent.Phone, agent.Email, nullDecimal(agent.DefaultCommissionPercent),
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrRecordNotFound
	}
	return nil
}

func (r *pgAgentRepository) UpdateBankDetails(ctx context.Context, agentID string, bank BankDetails) error {
	query := `
		UPDATE agents SET account_holder = $2, account_number = $3, ifsc = $4,
			bank_name = $5, upi_id = $6, updated_at = NOW()
		WHERE id = $1
	`
	tag, err := r.pool.Exec(ctx, query,
		agentID, bank.AccountHolder, bank.AccountNumber, bank.IFSC, bank.BankName, bank.UPIID,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrRecordNotFound
	}
	return nil
}
