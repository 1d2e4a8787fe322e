package types

// User roles
const (
	RoleReferralAgent = "referral_agent"
	RoleSalesAdmin    = "sales_admin"
	RoleSuperAdmin    = "super_admin"
)

// Property types
const (
	PropertyResidential = "Residential"
	PropertyCommercial  = "Commercial"
)

// Cold call status values
const (
	ColdCallUpcoming            = "Upcoming"
	ColdCallNotResponding       = "Not Responding"
	ColdCallNoShow              = "No Show"
	ColdCallBookedSomewhereElse = "Booked Somewhere Else"
	ColdCallConfirmed           = "Confirmed"
)

// Site visit status values
const (
	SiteVisitUpcoming      = "Upcoming"
	SiteVisitRescheduled   = "Rescheduled"
	SiteVisitNoShow        = "No Show"
	SiteVisitNotInterested = "Not Interested"
	SiteVisitConfirmed     = "Confirmed"
)

// Booking status values
const (
	BookingUpcoming    = "Upcoming"
	BookingNegotiation = "Negotiation"
	BookingCancelled   = "Cancelled"
	BookingBooked      = "Booked"
)

// Booked-in-next windows
const (
	BookedIn3Days  = "3days"
	BookedIn5Days  = "5days"
	BookedIn7Days  = "7days"
	BookedIn10Days = "10days"
)

var ValidRoles = []string{
	RoleReferralAgent, RoleSalesAdmin, RoleSuperAdmin,
}

var ValidPropertyTypes = []string{
	PropertyResidential, PropertyCommercial,
}

var ValidColdCallStatuses = []string{
	ColdCallUpcoming, ColdCallNotResponding, ColdCallNoShow,
	ColdCallBookedSomewhereElse, ColdCallConfirmed,
}

var ValidSiteVisitStatuses = []string{
	SiteVisitUpcoming, SiteVisitRescheduled, SiteVisitNoShow,
	SiteVisitNotInterested, SiteVisitConfirmed,
}

var ValidBookingStatuses = []string{
	BookingUpcoming, BookingNegotiation, BookingCancelled, BookingBooked,
}

var ValidBookedInNext = []string{
	BookedIn3Days, BookedIn5Days, BookedIn7Days, BookedIn10Days,
}

// BookedInNextDays maps a booked-in-next window to its length in days.
var BookedInNextDays = map[string]int{
	BookedIn3Days:  3,
	BookedIn5Days:  5,
	BookedIn7Days:  7,
	BookedIn10Days: 10,
}

// Helper functions for validation
func IsValidRole(role string) bool {
	return contains(ValidRoles, role)
}

func IsAdminRole(role string) bool {
	return role == RoleSalesAdmin || role == RoleSuperAdmin
}

func IsValidPropertyType(propertyType string) bool {
	return contains(ValidPropertyTypes, propertyType)
}

// Empty means the stage has not started and is accepted for every slot.
func IsValidColdCallStatus(status string) bool {
	return status == "" || contains(ValidColdCallStatuses, status)
}

func IsValidSiteVisitStatus(status string) bool {
	return status == "" || contains(ValidSiteVisitStatuses, status)
}

func IsValidBookingStatus(status string) bool {
	return status == "" || contains(ValidBookingStatuses, status)
}

func IsValidBookedInNext(window string) bool {
	return contains(ValidBookedInNext, window)
}

func contains(values []string, v string) bool {
	for _, s := range values {
		if s == v {
			return true
		}
	}
	return false
}
