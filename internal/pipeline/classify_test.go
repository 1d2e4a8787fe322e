package pipeline

import (
	"testing"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name     string
		coldCall string
		site     string
		booking  string
		want     Stage
	}{
		{"all blank", "", "", "", StageColdCalling},
		{"upcoming cold call", "Upcoming", "", "", StageColdCalling},
		{"not responding", "Not Responding", "", "", StageColdCalling},
		{"confirmed cold call", "Confirmed", "", "", StageSiteVisit},
		{"confirmed cold call with upcoming visit", "Confirmed", "Upcoming", "", StageSiteVisit},
		{"confirmed visit", "Confirmed", "Confirmed", "", StageProspect},
		{"confirmed visit with upcoming booking", "Confirmed", "Confirmed", "Upcoming", StageProspect},
		{"booked", "Confirmed", "Confirmed", "Booked", StageBooked},
		{"booking short-circuits blank visit", "", "", "Booked", StageBooked},
		{"booking short-circuits unconfirmed visit", "Upcoming", "No Show", "Booked", StageBooked},
		{"confirmed visit without cold call", "", "Confirmed", "", StageProspect},
		{"cancelled booking stays prospect", "Confirmed", "Confirmed", "Cancelled", StageProspect},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := &Lead{
				ColdCall:  Slot{Status: tt.coldCall},
				SiteVisit: Slot{Status: tt.site},
				Booking:   BookingSlot{Status: tt.booking},
			}
			got := Classify(l)
			if got != tt.want {
				t.Errorf("Classify() = %s, want %s", got, tt.want)
			}
			for i := 0; i < 3; i++ {
				if again := Classify(l); again != got {
					t.Fatalf("Classify() not deterministic: %s then %s", got, again)
				}
			}
		})
	}
}

func TestClassifyIsTotal(t *testing.T) {
	statuses := []string{"", "Upcoming", "Confirmed", "Booked", "No Show", "garbage"}
	valid := map[Stage]bool{}
	for _, s := range Stages {
		valid[s] = true
	}

	for _, c := range statuses {
		for _, s := range statuses {
			for _, b := range statuses {
				l := &Lead{ColdCall: Slot{Status: c}, SiteVisit: Slot{Status: s}, Booking: BookingSlot{Status: b}}
				if got := Classify(l); !valid[got] {
					t.Fatalf("Classify(%q,%q,%q) = %q, not a stage", c, s, b, got)
				}
			}
		}
	}

	if got := Classify(nil); got != StageColdCalling {
		t.Errorf("Classify(nil) = %s, want %s", got, StageColdCalling)
	}
}

func TestStageLabel(t *testing.T) {
	if got := StageProspect.Label(); got != "Hot Client" {
		t.Errorf("StageProspect.Label() = %q, want %q", got, "Hot Client")
	}
	if got := StageColdCalling.Label(); got != "Cold Calling" {
		t.Errorf("StageColdCalling.Label() = %q, want %q", got, "Cold Calling")
	}
}

func TestCloneDoesNotShareDecimals(t *testing.T) {
	pv := mustAmount(t, "100000")
	l := &Lead{ProjectValue: pv}
	c := l.Clone()
	if c.ProjectValue == l.ProjectValue {
		t.Fatal("Clone() shares the ProjectValue pointer")
	}
	if !c.ProjectValue.Equal(*l.ProjectValue) {
		t.Errorf("Clone() ProjectValue = %s, want %s", c.ProjectValue, l.ProjectValue)
	}
}
