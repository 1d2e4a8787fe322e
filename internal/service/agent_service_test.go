package service

import (
	"context"
	"errors"
	"testing"

	"github.com/kayapalat/kayapalat-backend/internal/pipeline"
	"github.com/kayapalat/kayapalat-backend/internal/repository"
)

func TestMaskAccountNumber(t *testing.T) {
	tests := []struct{ in, want string }{
		{"", ""},
		{"123", "XXX"},
		{"1234", "XXXX"},
		{"1234567890", "XXXXXX7890"},
	}
	for _, tt := range tests {
		if got := MaskAccountNumber(tt.in); got != tt.want {
			t.Errorf("MaskAccountNumber(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestAgentGetMasksBankDetails(t *testing.T) {
	ctx := context.Background()
	svc := NewAgentService(newAgentRepo(), newFakeLeadRepo(), nil)

	tests := []struct {
		name    string
		actor   Actor
		want    string
		wantErr error
	}{
		{"super admin sees full number", superAdmin, "123456789012", nil},
		{"sales admin sees masked", salesAdmin, "XXXXXXXX9012", nil},
		{"agent sees own masked", agentOne, "XXXXXXXX9012", nil},
		{"other agent forbidden", agentTwo, "", ErrForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, err := svc.Get(ctx, tt.actor, "agent-1")
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Get() error = %v, want %v", err, tt.wantErr)
			}
			if err == nil && a.Bank.AccountNumber != tt.want {
				t.Errorf("account = %q, want %q", a.Bank.AccountNumber, tt.want)
			}
		})
	}
}

func TestAgentList(t *testing.T) {
	ctx := context.Background()
	svc := NewAgentService(newAgentRepo(), newFakeLeadRepo(), nil)

	agents, err := svc.List(ctx, salesAdmin)
	if err != nil || len(agents) != 2 {
		t.Fatalf("List() = %d, %v", len(agents), err)
	}
	for _, a := range agents {
		if a.ID == "agent-1" && a.Bank.AccountNumber != "XXXXXXXX9012" {
			t.Errorf("sales admin list should mask, got %q", a.Bank.AccountNumber)
		}
	}
	if _, err := svc.List(ctx, agentOne); !errors.Is(err, ErrForbidden) {
		t.Errorf("agent List() error = %v", err)
	}
}

func TestAgentCreateAndUpdate(t *testing.T) {
	ctx := context.Background()
	repo := newAgentRepo()
	svc := NewAgentService(repo, newFakeLeadRepo(), nil)

	in := AgentInput{Name: strp("Kiran"), Phone: strp("9800000003"), DefaultCommissionPercent: strp("1.5 %")}
	if _, err := svc.Create(ctx, salesAdmin, in); !errors.Is(err, ErrForbidden) {
		t.Fatalf("sales admin Create() error = %v", err)
	}
	a, err := svc.Create(ctx, superAdmin, in)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if a.AgentCode != "AG0003" || a.DefaultCommissionPercent.String() != "1.5" {
		t.Errorf("agent = %+v", a)
	}

	_, err = svc.Update(ctx, superAdmin, a.ID, AgentInput{DefaultCommissionPercent: strp("120")})
	var ve *pipeline.ValidationError
	if !errors.As(err, &ve) || ve.Field != "defaultCommissionPercent" {
		t.Errorf("Update() error = %v, want percent validation", err)
	}
	_, err = svc.Update(ctx, superAdmin, a.ID, AgentInput{DefaultCommissionPercent: strp("1.255")})
	if !errors.As(err, &ve) || ve.Field != "defaultCommissionPercent" {
		t.Errorf("Update(1.255) error = %v, want scale validation", err)
	}

	updated, err := svc.Update(ctx, superAdmin, a.ID, AgentInput{Email: strp("kiran@example.com")})
	if err != nil {
		t.Fatal(err)
	}
	if updated.Email == nil || *updated.Email != "kiran@example.com" || updated.Name != "Kiran" {
		t.Errorf("updated = %+v", updated)
	}
}

func TestAgentUpdateBankDetails(t *testing.T) {
	ctx := context.Background()
	repo := newAgentRepo()
	svc := NewAgentService(repo, newFakeLeadRepo(), nil)

	good := repository.BankDetails{AccountHolder: "Priya", AccountNumber: "9876 5432 10", IFSC: "sbin0004567"}
	if _, err := svc.UpdateBankDetails(ctx, salesAdmin, "agent-2", good); !errors.Is(err, ErrForbidden) {
		t.Fatalf("sales admin error = %v", err)
	}

	a, err := svc.UpdateBankDetails(ctx, superAdmin, "agent-2", good)
	if err != nil {
		t.Fatalf("UpdateBankDetails() error = %v", err)
	}
	if a.Bank.AccountNumber != "9876543210" || a.Bank.IFSC != "SBIN0004567" {
		t.Errorf("bank = %+v", a.Bank)
	}
	if repo.agents["agent-2"].Bank.IFSC != "SBIN0004567" {
		t.Error("bank details not stored")
	}

	bad := good
	bad.IFSC = "SBIN1234"
	var ve *pipeline.ValidationError
	if _, err := svc.UpdateBankDetails(ctx, superAdmin, "agent-2", bad); !errors.As(err, &ve) || ve.Field != "ifsc" {
		t.Errorf("bad IFSC error = %v", err)
	}
}

func TestAgentCommission(t *testing.T) {
	ctx := context.Background()
	f := newLeadFixture()
	booked := f.seed(t, "agent-1", "Booked")
	f.seed(t, "agent-1", "Open")
	f.seed(t, "agent-2", "Other")
	_, _, err := f.svc.UpdateFields(ctx, salesAdmin, booked.AppointmentID, pipeline.Patch{
		ProjectValue: strp("500000"),
		Booking:      &pipeline.BookingPatch{Status: strp("Booked")},
	}, nil)
	if err != nil {
		t.Fatal(err)
	}

	svc := NewAgentService(f.agents, f.leads, nil)
	sum, err := svc.Commission(ctx, agentOne, "agent-1")
	if err != nil {
		t.Fatalf("Commission() error = %v", err)
	}
	if sum.BookedLeads != 1 || sum.OpenLeads != 1 || sum.Earned.StringFixed(2) != "10000.00" {
		t.Errorf("summary = %+v", sum)
	}
	if _, err := svc.Commission(ctx, agentTwo, "agent-1"); !errors.Is(err, ErrForbidden) {
		t.Errorf("other agent error = %v", err)
	}
}
