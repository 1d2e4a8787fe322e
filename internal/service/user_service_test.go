package service

import (
	"context"
	"errors"
	"testing"

	"github.com/kayapalat/kayapalat-backend/internal/pipeline"
	"github.com/kayapalat/kayapalat-backend/internal/types"
	"golang.org/x/crypto/bcrypt"
)

func TestUserCreate(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name      string
		actor     Actor
		input     NewUserInput
		wantErr   error
		wantField string
	}{
		{
			name:    "sales admin cannot create users",
			actor:   salesAdmin,
			input:   NewUserInput{Name: "N", Email: "n@example.com", Password: "password1", Role: types.RoleSalesAdmin},
			wantErr: ErrForbidden,
		},
		{
			name:      "unknown role",
			actor:     superAdmin,
			input:     NewUserInput{Name: "N", Email: "n@example.com", Password: "password1", Role: "owner"},
			wantField: "role",
		},
		{
			name:      "short password",
			actor:     superAdmin,
			input:     NewUserInput{Name: "N", Email: "n@example.com", Password: "short", Role: types.RoleSalesAdmin},
			wantField: "password",
		},
		{
			name:      "agent without agent id",
			actor:     superAdmin,
			input:     NewUserInput{Name: "N", Email: "n@example.com", Password: "password1", Role: types.RoleReferralAgent},
			wantField: "agentId",
		},
		{
			name:      "admin with agent id",
			actor:     superAdmin,
			input:     NewUserInput{Name: "N", Email: "n@example.com", Password: "password1", Role: types.RoleSalesAdmin, AgentID: strp("agent-1")},
			wantField: "agentId",
		},
		{
			name:      "unknown agent",
			actor:     superAdmin,
			input:     NewUserInput{Name: "N", Email: "n@example.com", Password: "password1", Role: types.RoleReferralAgent, AgentID: strp("agent-9")},
			wantField: "agentId",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewUserService(newFakeUserRepo(), newAgentRepo(), nil)
			_, err := svc.Create(ctx, tt.actor, tt.input)
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Fatalf("error = %v, want %v", err, tt.wantErr)
			}
			if tt.wantField != "" {
				var ve *pipeline.ValidationError
				if !errors.As(err, &ve) || ve.Field != tt.wantField {
					t.Fatalf("error = %v, want validation on %s", err, tt.wantField)
				}
			}
		})
	}

	t.Run("creates agent login", func(t *testing.T) {
		repo := newFakeUserRepo()
		svc := NewUserService(repo, newAgentRepo(), nil)
		in := NewUserInput{Name: " Amit ", Email: "Amit@Example.com", Password: "password1", Role: types.RoleReferralAgent, AgentID: strp("agent-1")}
		u, err := svc.Create(ctx, superAdmin, in)
		if err != nil {
			t.Fatalf("Create() error = %v", err)
		}
		if u.Email != "amit@example.com" || u.Name != "Amit" || *u.AgentID != "agent-1" {
			t.Errorf("user = %+v", u)
		}
		if bcrypt.CompareHashAndPassword([]byte(u.Password), []byte("password1")) != nil {
			t.Error("password should be stored as a bcrypt hash")
		}
		if _, err := svc.Create(ctx, superAdmin, in); !errors.Is(err, ErrUserExists) {
			t.Errorf("duplicate error = %v, want ErrUserExists", err)
		}
	})
}

func TestUserAdmins(t *testing.T) {
	ctx := context.Background()
	repo := newFakeUserRepo()
	svc := NewUserService(repo, newAgentRepo(), nil)
	for _, in := range []NewUserInput{
		{Name: "S", Email: "s@example.com", Password: "password1", Role: types.RoleSuperAdmin},
		{Name: "R", Email: "r@example.com", Password: "password1", Role: types.RoleSalesAdmin},
		{Name: "A", Email: "a@example.com", Password: "password1", Role: types.RoleReferralAgent, AgentID: strp("agent-1")},
	} {
		if _, err := svc.Create(ctx, superAdmin, in); err != nil {
			t.Fatal(err)
		}
	}

	admins, err := svc.Admins(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(admins) != 2 {
		t.Errorf("Admins() = %d users, want 2", len(admins))
	}
	if _, err := svc.List(ctx, salesAdmin); !errors.Is(err, ErrForbidden) {
		t.Errorf("sales admin List() error = %v", err)
	}
}
