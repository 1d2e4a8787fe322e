package pipeline

import (
	"errors"
	"strings"
	"time"
	"unicode"

	"github.com/shopspring/decimal"
)

const (
	DateLayout  = "2006-01-02"
	ClockLayout = "15:04"
)

// Amounts and percents are stored as NUMERIC(14,2) and NUMERIC(5,2).
const moneyScale = 2

var maxAmount = decimal.New(1, 12)

var (
	errNotNumeric   = errors.New("must be a number")
	errNegative     = errors.New("must not be negative")
	errPercentRange = errors.New("must be between 0 and 100")
	errScale        = errors.New("must have at most 2 decimal places")
	errTooLarge     = errors.New("must be less than 1,000,000,000,000")
	errDateFormat   = errors.New("must be a date in YYYY-MM-DD format")
	errClockFormat  = errors.New("must be a time like 14:30 or 2:30 PM")
)

// "Rs." must precede "Rs" so the dot is consumed with it.
var numberDecoration = strings.NewReplacer(
	"₹", "",
	"Rs.", "",
	"Rs", "",
	"INR", "",
	"%", "",
	",", "",
)

var clockLayouts = []string{"15:04", "15:04:05", "3:04 PM", "3:04PM", "3 PM", "3PM"}

func stripNumber(raw string) string {
	s := numberDecoration.Replace(raw)
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
}

// ParseAmount parses a currency amount typed by a user. Currency symbols,
// thousands separators and whitespace are ignored. Blank input yields nil;
// anything else that is not a non-negative number is an error, never zero.
// Values must fit the stored column: at most 2 decimal places, below 10^12.
func ParseAmount(raw string) (*decimal.Decimal, error) {
	d, err := parseDecimal(raw)
	if err != nil || d == nil {
		return d, err
	}
	if d.GreaterThanOrEqual(maxAmount) {
		return nil, errTooLarge
	}
	return d, nil
}

func parseDecimal(raw string) (*decimal.Decimal, error) {
	s := stripNumber(raw)
	if s == "" {
		return nil, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return nil, errNotNumeric
	}
	if d.IsNegative() {
		return nil, errNegative
	}
	if !d.Equal(d.Truncate(moneyScale)) {
		return nil, errScale
	}
	return &d, nil
}

// ParsePercent parses a percentage in 0..100 with at most 2 decimal places.
func ParsePercent(raw string) (*decimal.Decimal, error) {
	d, err := parseDecimal(raw)
	if err != nil || d == nil {
		return d, err
	}
	if d.GreaterThan(hundred) {
		return nil, errPercentRange
	}
	return d, nil
}

// ParseDate validates an ISO date. Blank input clears the date.
func ParseDate(raw string) (string, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return "", nil
	}
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return "", errDateFormat
	}
	return t.Format(DateLayout), nil
}

// ParseClock normalises a time of day to 24h HH:MM so that date+time
// strings sort chronologically. Blank input clears the time.
func ParseClock(raw string) (string, error) {
	s := strings.ToUpper(strings.TrimSpace(raw))
	if s == "" {
		return "", nil
	}
	for _, layout := range clockLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format(ClockLayout), nil
		}
	}
	return "", errClockFormat
}
