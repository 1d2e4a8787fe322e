package pipeline

import (
	"sort"
	"strings"

	"github.com/kayapalat/kayapalat-backend/internal/types"
)

// SortOrder orders query results by the date and time of the active slot.
type SortOrder string

const (
	SortNone SortOrder = ""
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

// Filter selects leads for one dashboard view. Empty Stage and PropertyType
// mean "all".
type Filter struct {
	Stage        Stage
	PropertyType string
	FromDate     string
	ToDate       string
	Search       string
	Sort         SortOrder
}

// Span marks a search hit inside one field, in rune offsets.
type Span struct {
	Field string `json:"field"`
	Start int    `json:"start"`
	End   int    `json:"end"`
}

// Match is a lead selected by Query plus the spans the search text hit.
type Match struct {
	Lead  *Lead
	Spans []Span
}

// ParseFilter validates raw query parameters. Stage accepts the stage name or
// its tab label in any case; "all" and blank select every stage.
func ParseFilter(stage, propertyType, from, to, search, order string) (Filter, error) {
	var f Filter

	switch s := strings.TrimSpace(stage); {
	case s == "", strings.EqualFold(s, "all"):
	default:
		st, ok := lookupStage(s)
		if !ok {
			return f, invalid("stage", "unknown stage %q", s)
		}
		f.Stage = st
	}

	switch pt := strings.TrimSpace(propertyType); {
	case pt == "", strings.EqualFold(pt, "all"):
	default:
		matched := false
		for _, v := range types.ValidPropertyTypes {
			if strings.EqualFold(v, pt) {
				f.PropertyType = v
				matched = true
			}
		}
		if !matched {
			return f, invalid("propertyType", "must be Residential, Commercial or all")
		}
	}

	var err error
	if f.FromDate, err = ParseDate(from); err != nil {
		return f, invalid("from", "%s", err)
	}
	if f.ToDate, err = ParseDate(to); err != nil {
		return f, invalid("to", "%s", err)
	}

	switch strings.ToLower(strings.TrimSpace(order)) {
	case "":
		f.Sort = SortNone
	case "asc", "ascending":
		f.Sort = SortAsc
	case "desc", "descending":
		f.Sort = SortDesc
	default:
		return f, invalid("sort", "must be asc or desc")
	}

	f.Search = strings.TrimSpace(search)
	return f, nil
}

func lookupStage(s string) (Stage, bool) {
	norm := strings.NewReplacer(" ", "", "_", "", "-", "").Replace(strings.ToLower(s))
	for _, st := range Stages {
		if norm == strings.ToLower(string(st)) ||
			norm == strings.ReplaceAll(strings.ToLower(st.Label()), " ", "") {
			return st, true
		}
	}
	return "", false
}

// Query filters, searches and sorts leads for a dashboard view. It returns a
// new slice and never modifies the input.
func Query(leads []*Lead, f Filter) []Match {
	needle := []rune(strings.ToLower(strings.TrimSpace(f.Search)))
	bounded := f.FromDate != "" || f.ToDate != ""

	out := make([]Match, 0, len(leads))
	for _, l := range leads {
		if l == nil {
			continue
		}
		stage := Classify(l)
		if f.Stage != "" && stage != f.Stage {
			continue
		}
		if f.PropertyType != "" && l.PropertyType != f.PropertyType {
			continue
		}
		if bounded {
			date, _, _ := l.SlotFor(slotStage(f, stage))
			if date == "" {
				continue
			}
			if f.FromDate != "" && date < f.FromDate {
				continue
			}
			if f.ToDate != "" && date > f.ToDate {
				continue
			}
		}

		m := Match{Lead: l}
		if len(needle) > 0 {
			m.Spans = searchLead(l, stage, needle)
			if len(m.Spans) == 0 {
				continue
			}
		}
		out = append(out, m)
	}

	if f.Sort != SortNone {
		key := func(m Match) string {
			date, clock, _ := m.Lead.SlotFor(slotStage(f, Classify(m.Lead)))
			return date + clock
		}
		sort.SliceStable(out, func(i, j int) bool {
			if f.Sort == SortDesc {
				return key(out[i]) > key(out[j])
			}
			return key(out[i]) < key(out[j])
		})
	}
	return out
}

// slotStage picks the slot dates are read from: the filtered tab, or the
// lead's own stage when every stage is shown.
func slotStage(f Filter, own Stage) Stage {
	if f.Stage != "" {
		return f.Stage
	}
	return own
}

type fieldValue struct {
	name  string
	value string
}

func displayFields(l *Lead, stage Stage) []fieldValue {
	return []fieldValue{
		{"appointmentId", l.AppointmentID},
		{"leadId", l.LeadID},
		{"agentId", l.AgentID},
		{"agentName", l.AgentName},
		{"clientName", l.ClientName},
		{"clientPhone", l.ClientPhone},
		{"propertyType", l.PropertyType},
		{"location", l.Location},
		{"projectValue", FormatMoney(l.ProjectValue)},
		{"commissionPercent", FormatPercent(l.CommissionPercent)},
		{"agentShare", FormatMoney(l.AgentShare())},
		{FieldColdCallDate, l.ColdCall.Date},
		{FieldColdCallTime, l.ColdCall.Time},
		{FieldColdCallStatus, l.ColdCall.Status},
		{FieldSiteVisitDate, l.SiteVisit.Date},
		{FieldSiteVisitTime, l.SiteVisit.Time},
		{FieldSiteVisitStatus, l.SiteVisit.Status},
		{FieldBookingDate, l.Booking.Date},
		{FieldBookingTime, l.Booking.Time},
		{FieldBookingStatus, l.Booking.Status},
		{FieldBookingID, l.Booking.BookingID},
		{FieldBookedInNext, l.BookedInNext},
		{"stage", stage.Label()},
	}
}

func searchLead(l *Lead, stage Stage, needle []rune) []Span {
	var spans []Span
	for _, fv := range displayFields(l, stage) {
		if fv.value == "" {
			continue
		}
		// strings.ToLower maps rune for rune, so offsets line up with the original.
		hay := []rune(strings.ToLower(fv.value))
		for i := 0; i+len(needle) <= len(hay); {
			if runesEqual(hay[i:i+len(needle)], needle) {
				spans = append(spans, Span{Field: fv.name, Start: i, End: i + len(needle)})
				i += len(needle)
				continue
			}
			i++
		}
	}
	return spans
}

func runesEqual(a, b []rune) bool {
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
