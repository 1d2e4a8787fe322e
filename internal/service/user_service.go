package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/kayapalat/kayapalat-backend/internal/pipeline"
	"github.com/kayapalat/kayapalat-backend/internal/repository"
	"github.com/kayapalat/kayapalat-backend/internal/types"
	"golang.org/x/crypto/bcrypt"
)

// NewUserInput is a dashboard account to create.
type NewUserInput struct {
	Name     string
	Email    string
	Password string
	Role     string
	AgentID  *string
}

// ============================================
// User Service
// ============================================

type UserService interface {
	GetByID(ctx context.Context, id string) (*repository.User, error)
	Create(ctx context.Context, actor Actor, input NewUserInput) (*repository.User, error)
	List(ctx context.Context, actor Actor) ([]*repository.User, error)
	Admins(ctx context.Context) ([]*repository.User, error)
}

type userService struct {
	userRepo   repository.UserRepository
	agentRepo  repository.AgentRepository
	permission PermissionService
}

func NewUserService(userRepo repository.UserRepository, agentRepo repository.AgentRepository, permission PermissionService) UserService {
	if permission == nil {
		permission = NewPermissionService()
	}
	return &userService{userRepo: userRepo, agentRepo: agentRepo, permission: permission}
}

func (s *userService) GetByID(ctx context.Context, id string) (*repository.User, error) {
	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrNotFound
	}
	return user, nil
}

// Create adds a dashboard account. Referral agents must be linked to an
// existing agent record; admins must not be.
func (s *userService) Create(ctx context.Context, actor Actor, input NewUserInput) (*repository.User, error) {
	if !s.permission.CheckPermission(actor, EntityUser, ActionCreate) {
		return nil, ErrForbidden
	}
	if !types.IsValidRole(input.Role) {
		return nil, &pipeline.ValidationError{Field: "role", Message: fmt.Sprintf("unknown role %q", input.Role)}
	}

	if len(input.Password) < 8 {
		return nil, &pipeline.ValidationError{Field: "password", Message: "must be at least 8 characters"}
	}

	var agentID *string
	if input.AgentID != nil && strings.TrimSpace(*input.AgentID) != "" {
		id := strings.TrimSpace(*input.AgentID)
		agentID = &id
	}
	switch {
	case input.Role == types.RoleReferralAgent && agentID == nil:
		return nil, &pipeline.ValidationError{Field: "agentId", Message: "is required for referral agents"}
	case input.Role != types.RoleReferralAgent && agentID != nil:
		return nil, &pipeline.ValidationError{Field: "agentId", Message: "is only allowed for referral agents"}
	}
	if agentID != nil {
		agent, err := s.agentRepo.FindByID(ctx, *agentID)
		if err != nil {
			return nil, err
		}
		if agent == nil {
			return nil, &pipeline.ValidationError{Field: "agentId", Message: "unknown agent"}
		}
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &repository.User{
		Name:     strings.TrimSpace(input.Name),
		Email:    strings.ToLower(strings.TrimSpace(input.Email)),
		Password: string(hashedPassword),
		Role:     input.Role,
		AgentID:  agentID,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrUserExists
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return user, nil
}

func (s *userService) List(ctx context.Context, actor Actor) ([]*repository.User, error) {
	if !s.permission.CheckPermission(actor, EntityUser, ActionView) {
		return nil, ErrForbidden
	}
	return s.userRepo.FindAll(ctx)
}

// Admins returns every sales and super admin, for digest emails.
func (s *userService) Admins(ctx context.Context) ([]*repository.User, error) {
	users, err := s.userRepo.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	var admins []*repository.User
	for _, u := range users {
		if types.IsAdminRole(u.Role) {
			admins = append(admins, u)
		}
	}
	return admins, nil
}
