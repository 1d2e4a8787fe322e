package pipeline

import (
	"errors"
	"reflect"
	"testing"
	"time"
)

var testToday = time.Date(2024, 3, 10, 11, 0, 0, 0, time.UTC)

func str(s string) *string { return &s }

func baseLead() *Lead {
	return &Lead{
		AppointmentID: "APT-1",
		LeadID:        "LD00001",
		AgentID:       "agent-1",
		ClientName:    "Amit Sharma",
		ClientPhone:   "+91 98200 12345",
		PropertyType:  "Residential",
		ColdCall:      Slot{Date: "2024-03-01", Time: "10:00", Status: "Upcoming"},
	}
}

func TestApplyAutoSeed(t *testing.T) {
	tests := []struct {
		name       string
		lead       func() *Lead
		patch      Patch
		wantStage  Stage
		wantVisit  string
		wantBook   string
		wantFields []string
	}{
		{
			name:       "confirming cold call seeds site visit",
			lead:       baseLead,
			patch:      Patch{ColdCall: &SlotPatch{Status: str("Confirmed")}},
			wantStage:  StageSiteVisit,
			wantVisit:  "Upcoming",
			wantFields: []string{FieldColdCallStatus, FieldSiteVisitStatus},
		},
		{
			name: "confirming cold call keeps existing visit status",
			lead: func() *Lead {
				l := baseLead()
				l.SiteVisit.Status = "Rescheduled"
				return l
			},
			patch:      Patch{ColdCall: &SlotPatch{Status: str("Confirmed")}},
			wantStage:  StageSiteVisit,
			wantVisit:  "Rescheduled",
			wantFields: []string{FieldColdCallStatus},
		},
		{
			name: "confirming site visit seeds booking",
			lead: func() *Lead {
				l := baseLead()
				l.ColdCall.Status = "Confirmed"
				l.SiteVisit.Status = "Upcoming"
				return l
			},
			patch:      Patch{SiteVisit: &SlotPatch{Status: str("Confirmed")}},
			wantStage:  StageProspect,
			wantVisit:  "Confirmed",
			wantBook:   "Upcoming",
			wantFields: []string{FieldSiteVisitStatus, FieldBookingStatus},
		},
		{
			name:       "editing cold call date does not seed",
			lead:       func() *Lead { l := baseLead(); l.ColdCall.Status = "Confirmed"; return l },
			patch:      Patch{ColdCall: &SlotPatch{Date: str("2024-03-05")}},
			wantStage:  StageSiteVisit,
			wantFields: []string{FieldColdCallDate},
		},
		{
			name:       "non-confirming status does not seed",
			lead:       baseLead,
			patch:      Patch{ColdCall: &SlotPatch{Status: str("Not Responding")}},
			wantStage:  StageColdCalling,
			wantFields: []string{FieldColdCallStatus},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			next, changed, err := Apply(tt.lead(), tt.patch, testToday)
			if err != nil {
				t.Fatalf("Apply() unexpected error: %v", err)
			}
			if got := Classify(next); got != tt.wantStage {
				t.Errorf("stage = %s, want %s", got, tt.wantStage)
			}
			if next.SiteVisit.Status != tt.wantVisit {
				t.Errorf("siteVisit.status = %q, want %q", next.SiteVisit.Status, tt.wantVisit)
			}
			if next.Booking.Status != tt.wantBook {
				t.Errorf("booking.status = %q, want %q", next.Booking.Status, tt.wantBook)
			}
			if !reflect.DeepEqual(changed, tt.wantFields) {
				t.Errorf("changed = %v, want %v", changed, tt.wantFields)
			}
		})
	}
}

func TestApplyAutoSeedIsIdempotent(t *testing.T) {
	p := Patch{ColdCall: &SlotPatch{Status: str("Confirmed")}}
	once, _, err := Apply(baseLead(), p, testToday)
	if err != nil {
		t.Fatalf("first Apply() error: %v", err)
	}
	twice, changed, err := Apply(once, p, testToday)
	if err != nil {
		t.Fatalf("second Apply() error: %v", err)
	}
	if !reflect.DeepEqual(once, twice) {
		t.Errorf("second Apply() changed the lead: %+v vs %+v", once, twice)
	}
	if len(changed) != 0 {
		t.Errorf("second Apply() reported changes %v", changed)
	}
}

func TestApplyBookedInNextIsWriteOnce(t *testing.T) {
	lead := baseLead()
	first, changed, err := Apply(lead, Patch{BookedInNext: str("5days")}, testToday)
	if err != nil {
		t.Fatalf("set 5days: %v", err)
	}
	if first.BookedInNext != "5days" || first.BookedInNextSetAt != "2024-03-10" {
		t.Fatalf("bookedInNext = %q set %q", first.BookedInNext, first.BookedInNextSetAt)
	}
	if !reflect.DeepEqual(changed, []string{FieldBookedInNext}) {
		t.Errorf("changed = %v", changed)
	}

	_, _, err = Apply(first, Patch{BookedInNext: str("7days")}, testToday.AddDate(0, 0, 1))
	var verr *ValidationError
	if !errors.As(err, &verr) || verr.Field != FieldBookedInNext {
		t.Fatalf("changing bookedInNext: error = %v, want validation error on %s", err, FieldBookedInNext)
	}
	if first.BookedInNext != "5days" {
		t.Errorf("rejected change mutated the lead: %q", first.BookedInNext)
	}

	_, _, err = Apply(first, Patch{BookedInNext: str("")}, testToday)
	if err == nil {
		t.Error("clearing bookedInNext should be rejected")
	}

	same, changed, err := Apply(first, Patch{BookedInNext: str("5days")}, testToday.AddDate(0, 0, 2))
	if err != nil {
		t.Fatalf("resending same window: %v", err)
	}
	if len(changed) != 0 || same.BookedInNextSetAt != "2024-03-10" {
		t.Errorf("resending same window changed %v, setAt %q", changed, same.BookedInNextSetAt)
	}
}

func TestApplyRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name  string
		patch Patch
		field string
	}{
		{"non-numeric project value", Patch{ProjectValue: str("12abc")}, FieldProjectValue},
		{"negative project value", Patch{ProjectValue: str("-1")}, FieldProjectValue},
		{"commission above 100", Patch{CommissionPercent: str("101")}, FieldCommissionPercent},
		{"commission with three decimals", Patch{CommissionPercent: str("12.345")}, FieldCommissionPercent},
		{"project value beyond column", Patch{ProjectValue: str("1e15")}, FieldProjectValue},
		{"project value with paise fraction", Patch{ProjectValue: str("100.001")}, FieldProjectValue},
		{"unknown cold call status", Patch{ColdCall: &SlotPatch{Status: str("Maybe")}}, "coldCall.status"},
		{"booking status on site visit", Patch{SiteVisit: &SlotPatch{Status: str("Booked")}}, "siteVisit.status"},
		{"unknown booking status", Patch{Booking: &BookingPatch{Status: str("Done")}}, "booking.status"},
		{"bad booking date", Patch{Booking: &BookingPatch{Date: str("10-03-2024")}}, "booking.date"},
		{"bad visit time", Patch{SiteVisit: &SlotPatch{Time: str("later")}}, "siteVisit.time"},
		{"blank client name", Patch{ClientName: str("  ")}, FieldClientName},
		{"bad phone", Patch{ClientPhone: str("call me")}, FieldClientPhone},
		{"unknown property type", Patch{PropertyType: str("Industrial")}, FieldPropertyType},
		{"unknown window", Patch{BookedInNext: str("2days")}, FieldBookedInNext},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lead := baseLead()
			before := lead.Clone()
			next, _, err := Apply(lead, tt.patch, testToday)
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("Apply() error = %v, want *ValidationError", err)
			}
			if verr.Field != tt.field {
				t.Errorf("field = %q, want %q", verr.Field, tt.field)
			}
			if next != nil {
				t.Error("Apply() returned a lead alongside an error")
			}
			if !reflect.DeepEqual(lead, before) {
				t.Error("Apply() mutated the input lead")
			}
		})
	}
}

func TestApplyValidationMessages(t *testing.T) {
	tests := []struct {
		patch Patch
		want  string
	}{
		{Patch{ProjectValue: str("50% off")}, "projectValue: must be a number"},
		{Patch{CommissionPercent: str("2.555")}, "commissionPercent: must have at most 2 decimal places"},
		{Patch{Booking: &BookingPatch{Date: str("tomorrow")}}, "booking.date: must be a date in YYYY-MM-DD format"},
	}
	for _, tt := range tests {
		_, _, err := Apply(baseLead(), tt.patch, testToday)
		if err == nil || err.Error() != tt.want {
			t.Errorf("Apply() error = %v, want %q", err, tt.want)
		}
	}
}

func TestApplyNumericFields(t *testing.T) {
	lead := baseLead()
	next, changed, err := Apply(lead, Patch{
		ProjectValue:      str("₹ 1,20,000"),
		CommissionPercent: str("2.5"),
	}, testToday)
	if err != nil {
		t.Fatalf("Apply() error: %v", err)
	}
	if got := FormatMoney(next.ProjectValue); got != "120000.00" {
		t.Errorf("projectValue = %s", got)
	}
	if got := FormatMoney(next.AgentShare()); got != "3000.00" {
		t.Errorf("agentShare = %s", got)
	}
	if len(changed) != 2 {
		t.Errorf("changed = %v", changed)
	}

	cleared, _, err := Apply(next, Patch{ProjectValue: str("")}, testToday)
	if err != nil {
		t.Fatalf("clear projectValue: %v", err)
	}
	if cleared.ProjectValue != nil || cleared.AgentShare() != nil {
		t.Errorf("cleared projectValue = %v share %v", cleared.ProjectValue, cleared.AgentShare())
	}
}

func TestPatchFields(t *testing.T) {
	p := Patch{
		BookedInNext: str("3days"),
		ClientName:   str("x"),
		Booking:      &BookingPatch{BookingID: str("BK-1")},
	}
	want := []string{FieldClientName, FieldBookingID, FieldBookedInNext}
	if got := p.Fields(); !reflect.DeepEqual(got, want) {
		t.Errorf("Fields() = %v, want %v", got, want)
	}
	if p.IsEmpty() {
		t.Error("IsEmpty() = true")
	}
	if !(Patch{ColdCall: &SlotPatch{}}).IsEmpty() {
		t.Error("patch with empty slot should be empty")
	}
}

func TestNewLead(t *testing.T) {
	def := mustAmount(t, "2")
	lead, err := NewLead(Draft{
		AgentID:           "agent-1",
		ClientName:        " Priya Nair ",
		ClientPhone:       "9820012345",
		ProjectValue:      "50,00,000",
		ColdCallTime:      "4 pm",
		DefaultCommission: def,
	}, testToday)
	if err != nil {
		t.Fatalf("NewLead() error: %v", err)
	}
	if lead.ClientName != "Priya Nair" {
		t.Errorf("clientName = %q", lead.ClientName)
	}
	if lead.Stage() != StageColdCalling || lead.ColdCall.Status != "Upcoming" {
		t.Errorf("stage = %s status %q", lead.Stage(), lead.ColdCall.Status)
	}
	if lead.ColdCall.Date != "2024-03-10" || lead.ColdCall.Time != "16:00" {
		t.Errorf("coldCall = %+v", lead.ColdCall)
	}
	if lead.PropertyType != "Residential" {
		t.Errorf("propertyType = %q", lead.PropertyType)
	}
	if got := FormatMoney(lead.AgentShare()); got != "100000.00" {
		t.Errorf("agentShare = %s", got)
	}

	for _, d := range []Draft{
		{ClientName: "A", ClientPhone: "9820012345"},
		{AgentID: "agent-1", ClientPhone: "9820012345"},
		{AgentID: "agent-1", ClientName: "A", ClientPhone: ""},
		{AgentID: "agent-1", ClientName: "A", ClientPhone: "9820012345", ProjectValue: "lots"},
	} {
		if _, err := NewLead(d, testToday); err == nil {
			t.Errorf("NewLead(%+v) expected error", d)
		}
	}
}
