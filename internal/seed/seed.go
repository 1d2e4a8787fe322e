// internal/seed/seed.go
package seed

import (
	"context"
	"log"
	"time"

	"github.com/kayapalat/kayapalat-backend/internal/pipeline"
	"github.com/kayapalat/kayapalat-backend/internal/repository"
	"github.com/kayapalat/kayapalat-backend/internal/types"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
)

// SuperAdminEmail marks a seeded database; SeedData does nothing when it exists.
const SuperAdminEmail = "admin@kayapalat.com"

// SeedData creates two referral agents, one account per role and a handful
// of leads spread across the pipeline. today anchors the lead dates.
func SeedData(repos *repository.Repositories, today time.Time) {
	ctx := context.Background()

	if existing, _ := repos.UserRepo.FindByEmail(ctx, SuperAdminEmail); existing != nil {
		log.Println("[Seed] Data already exists, skipping...")
		return
	}

	log.Println("[Seed] 🌱 Creating initial agents, users and leads...")

	// ============================================
	// AGENTS
	// ============================================
	two := decimal.NewFromInt(2)
	amit := &repository.Agent{
		Name:                     "Amit Verma",
		Phone:                    "9876500001",
		Email:                    stringPtr("amit.verma@example.com"),
		DefaultCommissionPercent: &two,
		Bank: repository.BankDetails{
			AccountHolder: "Amit Verma",
			AccountNumber: "123456789012",
			IFSC:          "HDFC0001234",
			BankName:      "HDFC Bank",
		},
	}
	onePointFive := decimal.RequireFromString("1.5")
	priya := &repository.Agent{
		Name:                     "Priya Nair",
		Phone:                    "9876500002",
		DefaultCommissionPercent: &onePointFive,
	}
	for _, a := range []*repository.Agent{amit, priya} {
		if err := repos.AgentRepo.Create(ctx, a); err != nil {
			log.Printf("[Seed] ❌ agent %s: %v", a.Name, err)
			return
		}
	}
	if err := repos.AgentRepo.UpdateBankDetails(ctx, amit.ID, amit.Bank); err != nil {
		log.Printf("[Seed] ⚠️ bank details for %s: %v", amit.Name, err)
	}
	log.Printf("✅ Created 2 agents: %s (%s), %s (%s)", amit.Name, amit.AgentCode, priya.Name, priya.AgentCode)

	// ============================================
	// USERS (one per role, password123)
	// ============================================
	password, _ := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.DefaultCost)
	users := []*repository.User{
		{Email: SuperAdminEmail, Name: "Neha Kapoor", Role: types.RoleSuperAdmin},
		{Email: "sales@kayapalat.com", Name: "Rahul Mehta", Role: types.RoleSalesAdmin},
		{Email: "amit.verma@example.com", Name: amit.Name, Role: types.RoleReferralAgent, AgentID: &amit.ID},
		{Email: "priya.nair@example.com", Name: priya.Name, Role: types.RoleReferralAgent, AgentID: &priya.ID},
	}
	for _, u := range users {
		u.Password = string(password)
		if err := repos.UserRepo.Create(ctx, u); err != nil {
			log.Printf("[Seed] ❌ user %s: %v", u.Email, err)
		}
	}
	log.Printf("✅ Created %d users", len(users))

	// ============================================
	// LEADS
	// ============================================
	date := func(offset int) *string {
		s := today.AddDate(0, 0, offset).Format(pipeline.DateLayout)
		return &s
	}
	status := func(s string) *string { return &s }

	scenarios := []struct {
		agent *repository.Agent
		draft pipeline.Draft
		steps []pipeline.Patch
	}{
		// Fresh cold call due today
		{amit, pipeline.Draft{ClientName: "Rakesh Sharma", ClientPhone: "9811100001", Location: "Baner, Pune", ColdCallTime: "11:00"}, nil},
		// Moved to site visit
		{amit, pipeline.Draft{ClientName: "Sunita Rao", ClientPhone: "9811100002", Location: "Wakad, Pune", ProjectValue: "650000"}, []pipeline.Patch{
			{ColdCall: &pipeline.SlotPatch{Status: status(types.ColdCallConfirmed)}},
			{SiteVisit: &pipeline.SlotPatch{Date: date(2), Time: status("16:00"), Status: status(types.SiteVisitUpcoming)}},
		}},
		// Hot prospect with an expected booking window that already ran out
		{priya, pipeline.Draft{ClientName: "Farhan Qureshi", ClientPhone: "9811100003", PropertyType: types.PropertyCommercial, Location: "Kharadi, Pune", ProjectValue: "1200000"}, []pipeline.Patch{
			{ColdCall: &pipeline.SlotPatch{Status: status(types.ColdCallConfirmed)}},
			{SiteVisit: &pipeline.SlotPatch{Date: date(-12), Time: status("10:30"), Status: status(types.SiteVisitConfirmed)}},
			{Booking: &pipeline.BookingPatch{Date: date(-10), Status: status(types.BookingNegotiation)}, BookedInNext: status(types.BookedIn7Days)},
		}},
		// Booked
		{amit, pipeline.Draft{ClientName: "Meera Iyer", ClientPhone: "9811100004", Location: "Aundh, Pune", ProjectValue: "480000"}, []pipeline.Patch{
			{ColdCall: &pipeline.SlotPatch{Status: status(types.ColdCallConfirmed)}},
			{SiteVisit: &pipeline.SlotPatch{Date: date(-5), Time: status("12:00"), Status: status(types.SiteVisitConfirmed)}},
			{Booking: &pipeline.BookingPatch{Date: date(-1), Status: status(types.BookingBooked), BookingID: status("BK-2024-001")}},
		}},
	}

	created := 0
	for _, sc := range scenarios {
		d := sc.draft
		d.AgentID = sc.agent.ID
		d.AgentName = sc.agent.Name
		d.DefaultCommission = sc.agent.DefaultCommissionPercent

		lead, err := pipeline.NewLead(d, today)
		if err != nil {
			log.Printf("[Seed] ❌ lead %s: %v", d.ClientName, err)
			continue
		}
		for _, step := range sc.steps {
			// backdate so a booked-in-next window is stamped in the past
			stamp := today
			if step.BookedInNext != nil {
				stamp = today.AddDate(0, 0, -10)
			}
			if lead, _, err = pipeline.Apply(lead, step, stamp); err != nil {
				break
			}
		}
		if err != nil {
			log.Printf("[Seed] ❌ lead %s: %v", d.ClientName, err)
			continue
		}
		if err := repos.LeadRepo.Create(ctx, lead); err != nil {
			log.Printf("[Seed] ❌ lead %s: %v", d.ClientName, err)
			continue
		}
		created++
	}

	log.Printf("✅ Created %d leads", created)
	log.Println("[Seed] 🎉 Seeding complete. Log in as admin@kayapalat.com / password123")
}

func stringPtr(s string) *string {
	return &s
}
