package pipeline

import (
	"regexp"
	"strings"
	"time"

	"github.com/kayapalat/kayapalat-backend/internal/types"
	"github.com/shopspring/decimal"
)

// Field names used in change lists and capability checks.
const (
	FieldClientName        = "clientName"
	FieldClientPhone       = "clientPhone"
	FieldPropertyType      = "propertyType"
	FieldLocation          = "location"
	FieldProjectValue      = "projectValue"
	FieldCommissionPercent = "commissionPercent"
	FieldColdCallDate      = "coldCall.date"
	FieldColdCallTime      = "coldCall.time"
	FieldColdCallStatus    = "coldCall.status"
	FieldSiteVisitDate     = "siteVisit.date"
	FieldSiteVisitTime     = "siteVisit.time"
	FieldSiteVisitStatus   = "siteVisit.status"
	FieldBookingDate       = "booking.date"
	FieldBookingTime       = "booking.time"
	FieldBookingStatus     = "booking.status"
	FieldBookingID         = "booking.bookingId"
	FieldBookedInNext      = "bookedInNext"
)

var phonePattern = regexp.MustCompile(`^\+?[0-9][0-9 \-]{6,18}$`)

// SlotPatch carries the optional new values of a stage slot. Nil means
// "leave unchanged".
type SlotPatch struct {
	Date   *string
	Time   *string
	Status *string
}

// BookingPatch is SlotPatch plus the booking reference.
type BookingPatch struct {
	Date      *string
	Time      *string
	Status    *string
	BookingID *string
}

// Patch is a partial update of a lead as typed by a user. Numeric fields are
// raw strings so decoration like "₹ 1,20,000" can be validated here.
type Patch struct {
	ClientName        *string
	ClientPhone       *string
	PropertyType      *string
	Location          *string
	ProjectValue      *string
	CommissionPercent *string
	ColdCall          *SlotPatch
	SiteVisit         *SlotPatch
	Booking           *BookingPatch
	BookedInNext      *string
}

// Fields lists the fields the patch touches, in a stable order.
func (p Patch) Fields() []string {
	var fields []string
	add := func(set bool, name string) {
		if set {
			fields = append(fields, name)
		}
	}
	add(p.ClientName != nil, FieldClientName)
	add(p.ClientPhone != nil, FieldClientPhone)
	add(p.PropertyType != nil, FieldPropertyType)
	add(p.Location != nil, FieldLocation)
	add(p.ProjectValue != nil, FieldProjectValue)
	add(p.CommissionPercent != nil, FieldCommissionPercent)
	if p.ColdCall != nil {
		add(p.ColdCall.Date != nil, FieldColdCallDate)
		add(p.ColdCall.Time != nil, FieldColdCallTime)
		add(p.ColdCall.Status != nil, FieldColdCallStatus)
	}
	if p.SiteVisit != nil {
		add(p.SiteVisit.Date != nil, FieldSiteVisitDate)
		add(p.SiteVisit.Time != nil, FieldSiteVisitTime)
		add(p.SiteVisit.Status != nil, FieldSiteVisitStatus)
	}
	if p.Booking != nil {
		add(p.Booking.Date != nil, FieldBookingDate)
		add(p.Booking.Time != nil, FieldBookingTime)
		add(p.Booking.Status != nil, FieldBookingStatus)
		add(p.Booking.BookingID != nil, FieldBookingID)
	}
	add(p.BookedInNext != nil, FieldBookedInNext)
	return fields
}

// IsEmpty reports whether the patch touches nothing.
func (p Patch) IsEmpty() bool {
	return len(p.Fields()) == 0
}

type applier struct {
	next    *Lead
	changed []string
}

func (a *applier) set(field string, dst *string, v string) {
	if *dst != v {
		*dst = v
		a.changed = append(a.changed, field)
	}
}

func (a *applier) setDecimal(field string, dst **decimal.Decimal, v *decimal.Decimal) {
	cur := *dst
	same := (cur == nil && v == nil) || (cur != nil && v != nil && cur.Equal(*v))
	if !same {
		*dst = v
		a.changed = append(a.changed, field)
	}
}

func (a *applier) slot(prefix string, dst *Slot, p *SlotPatch, validStatus func(string) bool) error {
	if p == nil {
		return nil
	}
	if p.Date != nil {
		d, err := ParseDate(*p.Date)
		if err != nil {
			return invalid(prefix+".date", "%s", err)
		}
		a.set(prefix+".date", &dst.Date, d)
	}
	if p.Time != nil {
		t, err := ParseClock(*p.Time)
		if err != nil {
			return invalid(prefix+".time", "%s", err)
		}
		a.set(prefix+".time", &dst.Time, t)
	}
	if p.Status != nil {
		s := strings.TrimSpace(*p.Status)
		if !validStatus(s) {
			return invalid(prefix+".status", "unknown status %q", s)
		}
		a.set(prefix+".status", &dst.Status, s)
	}
	return nil
}

// Apply validates p against current and returns the updated copy together with
// the fields whose value actually changed. current is never modified.
//
// Confirming a stage seeds the next stage with "Upcoming" when it is still
// empty, which moves the lead into the next dashboard tab. bookedInNext can be
// set once; any later attempt to change it is rejected.
func Apply(current *Lead, p Patch, today time.Time) (*Lead, []string, error) {
	a := &applier{next: current.Clone()}
	next := a.next

	if p.ClientName != nil {
		name := strings.TrimSpace(*p.ClientName)
		if name == "" {
			return nil, nil, invalid(FieldClientName, "is required")
		}
		a.set(FieldClientName, &next.ClientName, name)
	}
	if p.ClientPhone != nil {
		phone := strings.TrimSpace(*p.ClientPhone)
		if !phonePattern.MatchString(phone) {
			return nil, nil, invalid(FieldClientPhone, "is not a valid phone number")
		}
		a.set(FieldClientPhone, &next.ClientPhone, phone)
	}
	if p.PropertyType != nil {
		pt := strings.TrimSpace(*p.PropertyType)
		if !types.IsValidPropertyType(pt) {
			return nil, nil, invalid(FieldPropertyType, "must be Residential or Commercial")
		}
		a.set(FieldPropertyType, &next.PropertyType, pt)
	}
	if p.Location != nil {
		a.set(FieldLocation, &next.Location, strings.TrimSpace(*p.Location))
	}
	if p.ProjectValue != nil {
		v, err := ParseAmount(*p.ProjectValue)
		if err != nil {
			return nil, nil, invalid(FieldProjectValue, "%s", err)
		}
		a.setDecimal(FieldProjectValue, &next.ProjectValue, v)
	}
	if p.CommissionPercent != nil {
		v, err := ParsePercent(*p.CommissionPercent)
		if err != nil {
			return nil, nil, invalid(FieldCommissionPercent, "%s", err)
		}
		a.setDecimal(FieldCommissionPercent, &next.CommissionPercent, v)
	}

	if err := a.slot("coldCall", &next.ColdCall, p.ColdCall, types.IsValidColdCallStatus); err != nil {
		return nil, nil, err
	}
	if err := a.slot("siteVisit", &next.SiteVisit, p.SiteVisit, types.IsValidSiteVisitStatus); err != nil {
		return nil, nil, err
	}
	if p.Booking != nil {
		booking := Slot{Date: next.Booking.Date, Time: next.Booking.Time, Status: next.Booking.Status}
		bp := &SlotPatch{Date: p.Booking.Date, Time: p.Booking.Time, Status: p.Booking.Status}
		if err := a.slot("booking", &booking, bp, types.IsValidBookingStatus); err != nil {
			return nil, nil, err
		}
		next.Booking.Date, next.Booking.Time, next.Booking.Status = booking.Date, booking.Time, booking.Status
		if p.Booking.BookingID != nil {
			a.set(FieldBookingID, &next.Booking.BookingID, strings.TrimSpace(*p.Booking.BookingID))
		}
	}

	if p.BookedInNext != nil {
		window := strings.TrimSpace(*p.BookedInNext)
		switch {
		case current.BookedInNext != "":
			if window != current.BookedInNext {
				return nil, nil, invalid(FieldBookedInNext, "is already set to %s and cannot be changed", current.BookedInNext)
			}
		case window == "":
		case !types.IsValidBookedInNext(window):
			return nil, nil, invalid(FieldBookedInNext, "must be one of 3days, 5days, 7days, 10days")
		default:
			a.set(FieldBookedInNext, &next.BookedInNext, window)
			next.BookedInNextSetAt = today.Format(DateLayout)
		}
	}

	if p.ColdCall != nil && p.ColdCall.Status != nil &&
		next.ColdCall.Status == types.ColdCallConfirmed && next.SiteVisit.Status == "" {
		a.set(FieldSiteVisitStatus, &next.SiteVisit.Status, types.SiteVisitUpcoming)
	}
	if p.SiteVisit != nil && p.SiteVisit.Status != nil &&
		next.SiteVisit.Status == types.SiteVisitConfirmed && next.Booking.Status == "" {
		a.set(FieldBookingStatus, &next.Booking.Status, types.BookingUpcoming)
	}

	return next, a.changed, nil
}
