package pipeline

import (
	"reflect"
	"testing"
)

func scenarioLeads() []*Lead {
	return []*Lead{
		{AppointmentID: "APT-1", ClientName: "Amit Sharma", PropertyType: "Residential",
			ColdCall: Slot{Date: "2024-03-01", Time: "10:00", Status: "Upcoming"}},
		{AppointmentID: "APT-2", ClientName: "Neha Kulkarni", PropertyType: "Commercial",
			ColdCall:  Slot{Date: "2024-03-02", Time: "09:00", Status: "Confirmed"},
			SiteVisit: Slot{Date: "2024-03-08", Time: "15:30", Status: "Upcoming"}},
		{AppointmentID: "APT-3", ClientName: "Rahul Mehta", PropertyType: "Residential",
			ColdCall:  Slot{Date: "2024-02-20", Time: "11:00", Status: "Confirmed"},
			SiteVisit: Slot{Date: "2024-02-25", Time: "12:00", Status: "Confirmed"},
			Booking:   BookingSlot{Date: "2024-03-05", Time: "17:00", Status: "Negotiation"}},
	}
}

func ids(ms []Match) []string {
	out := make([]string, 0, len(ms))
	for _, m := range ms {
		out = append(out, m.Lead.AppointmentID)
	}
	return out
}

func TestQuery(t *testing.T) {
	tests := []struct {
		name   string
		filter Filter
		want   []string
	}{
		{"all", Filter{}, []string{"APT-1", "APT-2", "APT-3"}},
		{"site visit stage", Filter{Stage: StageSiteVisit}, []string{"APT-2"}},
		{"prospect stage", Filter{Stage: StageProspect}, []string{"APT-3"}},
		{"booked stage is empty", Filter{Stage: StageBooked}, []string{}},
		{"property type", Filter{PropertyType: "Residential"}, []string{"APT-1", "APT-3"}},
		{"search is case-insensitive", Filter{Search: "sharma"}, []string{"APT-1"}},
		{"search hits stage label", Filter{Search: "hot client"}, []string{"APT-3"}},
		{"search no match", Filter{Search: "zzz"}, []string{}},
		{"date range on own slot", Filter{FromDate: "2024-03-01", ToDate: "2024-03-05"}, []string{"APT-1", "APT-3"}},
		{"from bound is inclusive", Filter{Stage: StageSiteVisit, FromDate: "2024-03-08"}, []string{"APT-2"}},
		{"to bound excludes later", Filter{Stage: StageSiteVisit, ToDate: "2024-03-07"}, []string{}},
		{"sort ascending", Filter{Sort: SortAsc}, []string{"APT-1", "APT-3", "APT-2"}},
		{"sort descending", Filter{Sort: SortDesc}, []string{"APT-2", "APT-3", "APT-1"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ids(Query(scenarioLeads(), tt.filter))
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Query() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestQueryDoesNotMutateInput(t *testing.T) {
	leads := scenarioLeads()
	before := make([]*Lead, len(leads))
	for i, l := range leads {
		before[i] = l.Clone()
	}
	order := ids(Query(leads, Filter{}))

	_ = Query(leads, Filter{Sort: SortDesc, Search: "a"})

	for i := range leads {
		if !reflect.DeepEqual(leads[i], before[i]) {
			t.Errorf("lead %d changed", i)
		}
	}
	if got := ids(Query(leads, Filter{})); !reflect.DeepEqual(got, order) {
		t.Errorf("input order changed: %v vs %v", got, order)
	}
}

func TestQueryBoundedExcludesMissingDate(t *testing.T) {
	leads := []*Lead{{AppointmentID: "APT-X", ColdCall: Slot{Status: "Upcoming"}}}
	if got := Query(leads, Filter{FromDate: "2024-01-01"}); len(got) != 0 {
		t.Errorf("undated lead matched a bounded query: %v", ids(got))
	}
	if got := Query(leads, Filter{}); len(got) != 1 {
		t.Errorf("undated lead missing from unbounded query")
	}
}

func TestQuerySpans(t *testing.T) {
	leads := []*Lead{{AppointmentID: "APT-1", ClientName: "Āmit Sharma", Location: "Sharma Nagar"}}
	got := Query(leads, Filter{Search: "SHARMA"})
	if len(got) != 1 {
		t.Fatalf("Query() returned %d matches", len(got))
	}
	want := []Span{
		{Field: "clientName", Start: 5, End: 11},
		{Field: "location", Start: 0, End: 6},
	}
	if !reflect.DeepEqual(got[0].Spans, want) {
		t.Errorf("spans = %+v, want %+v", got[0].Spans, want)
	}
}

func TestParseFilter(t *testing.T) {
	tests := []struct {
		name    string
		stage   string
		ptype   string
		from    string
		order   string
		want    Filter
		wantErr bool
	}{
		{name: "blank", want: Filter{}},
		{name: "all", stage: "all", ptype: "All", want: Filter{}},
		{name: "stage name", stage: "SiteVisit", want: Filter{Stage: StageSiteVisit}},
		{name: "stage label", stage: "hot client", want: Filter{Stage: StageProspect}},
		{name: "snake case", stage: "cold_calling", want: Filter{Stage: StageColdCalling}},
		{name: "property type", ptype: "commercial", want: Filter{PropertyType: "Commercial"}},
		{name: "sort", order: "DESC", want: Filter{Sort: SortDesc}},
		{name: "from date", from: "2024-03-01", want: Filter{FromDate: "2024-03-01"}},
		{name: "unknown stage", stage: "Lost", wantErr: true},
		{name: "unknown property", ptype: "Land", wantErr: true},
		{name: "bad date", from: "yesterday", wantErr: true},
		{name: "bad sort", order: "random", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseFilter(tt.stage, tt.ptype, tt.from, "", "", tt.order)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseFilter() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("ParseFilter() = %+v, want %+v", got, tt.want)
			}
		})
	}
}
