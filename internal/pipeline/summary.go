package pipeline

import (
	"time"

	"github.com/kayapalat/kayapalat-backend/internal/types"
	"github.com/shopspring/decimal"
)

// Summary is the dashboard header: tab counts and money totals.
type Summary struct {
	Total           int
	ByStage         map[Stage]int
	BookedValue     decimal.Decimal
	AgentShareTotal decimal.Decimal
}

// Summarize counts leads per stage and totals booked value and agent share
// of booked leads.
func Summarize(leads []*Lead) Summary {
	s := Summary{
		ByStage:         make(map[Stage]int, len(Stages)),
		BookedValue:     decimal.Zero,
		AgentShareTotal: decimal.Zero,
	}
	for _, st := range Stages {
		s.ByStage[st] = 0
	}
	for _, l := range leads {
		if l == nil {
			continue
		}
		s.Total++
		stage := Classify(l)
		s.ByStage[stage]++
		if stage != StageBooked {
			continue
		}
		if l.ProjectValue != nil {
			s.BookedValue = s.BookedValue.Add(*l.ProjectValue)
		}
		if share := l.AgentShare(); share != nil {
			s.AgentShareTotal = s.AgentShareTotal.Add(*share)
		}
	}
	return s
}

// DueFollowUps returns leads whose active slot is scheduled on today's date
// and still marked Upcoming.
func DueFollowUps(leads []*Lead, today time.Time) []*Lead {
	day := today.Format(DateLayout)
	var due []*Lead
	for _, l := range leads {
		if l == nil {
			continue
		}
		date, _, status := l.ActiveSlot()
		if date == day && status == types.ColdCallUpcoming {
			due = append(due, l)
		}
	}
	return due
}

// BookingDeadline is the last day of the lead's booked-in-next window.
func BookingDeadline(l *Lead) (time.Time, bool) {
	days, ok := types.BookedInNextDays[l.BookedInNext]
	if !ok || l.BookedInNextSetAt == "" {
		return time.Time{}, false
	}
	setAt, err := time.Parse(DateLayout, l.BookedInNextSetAt)
	if err != nil {
		return time.Time{}, false
	}
	return setAt.AddDate(0, 0, days), true
}

// ElapsedBookingWindows returns leads whose booked-in-next window ended
// before today without the lead reaching Booked.
func ElapsedBookingWindows(leads []*Lead, today time.Time) []*Lead {
	day, _ := time.Parse(DateLayout, today.Format(DateLayout))
	var elapsed []*Lead
	for _, l := range leads {
		if l == nil || Classify(l) == StageBooked {
			continue
		}
		deadline, ok := BookingDeadline(l)
		if ok && deadline.Before(day) {
			elapsed = append(elapsed, l)
		}
	}
	return elapsed
}
