package bsdate

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Date is a single BS calendar day. The zero value is not a valid date.
type Date struct {
	Year  int
	Month int
	Day   int
}

// Epoch is the BS day that corresponds to AnchorAD.
var Epoch = Date{Year: BaseYear, Month: 1, Day: 1}

// AnchorAD is the Gregorian day of Epoch (BS 2081-01-01, Nepali new year).
var AnchorAD = time.Date(2024, time.April, 13, 0, 0, 0, 0, time.UTC)

const oneDay = 24 * time.Hour

// New returns a validated date.
func New(year, month, dayOfMonth int) (Date, error) {
	d := Date{Year: year, Month: month, Day: dayOfMonth}
	if err := d.Validate(); err != nil {
		return Date{}, err
	}
	return d, nil
}

// Parse parses a "YYYY-MM-DD" string.
func Parse(s string) (Date, error) {
	parts := strings.Split(strings.TrimSpace(s), "-")
	if len(parts) != 3 {
		return Date{}, fmt.Errorf("%w: %q", ErrMalformedDate, s)
	}
	var nums [3]int
	for i, p := range parts {
		if !isDigits(p) {
			return Date{}, fmt.Errorf("%w: %q", ErrMalformedDate, s)
		}
		n, err := strconv.Atoi(p)
		if err != nil {
			return Date{}, fmt.Errorf("%w: %q", ErrMalformedDate, s)
		}
		nums[i] = n
	}
	return New(nums[0], nums[1], nums[2])
}

// MustParse is like Parse but panics on error.
func MustParse(s string) Date {
	d, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return d
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// Validate checks that the year is tabulated and month/day are in range.
func (d Date) Validate() error {
	dim, err := DaysInMonth(d.Year, d.Month)
	if err != nil {
		return err
	}
	if d.Day < 1 || d.Day > dim {
		return fmt.Errorf("%w: day %d (month %d of %d has %d days)", ErrInvalidDate, d.Day, d.Month, d.Year, dim)
	}
	return nil
}

// String formats the date as YYYY-MM-DD. The year is not padded.
func (d Date) String() string {
	return fmt.Sprintf("%d-%02d-%02d", d.Year, d.Month, d.Day)
}

func (d Date) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Date) UnmarshalText(b []byte) error {
	parsed, err := Parse(string(b))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// DayOfYear returns the 1-based ordinal of d within its BS year.
func (d Date) DayOfYear() (int, error) {
	if err := d.Validate(); err != nil {
		return 0, err
	}
	months, err := MonthsInYear(d.Year)
	if err != nil {
		return 0, err
	}
	n := d.Day
	for _, l := range months[:d.Month-1] {
		n += l
	}
	return n, nil
}

// DaysSince returns the signed number of days from ref to d. It is negative
// when d is before ref.
func (d Date) DaysSince(ref Date) (int, error) {
	if err := d.Validate(); err != nil {
		return 0, err
	}
	if err := ref.Validate(); err != nil {
		return 0, err
	}
	days := 0
	for y := ref.Year; y < d.Year; y++ {
		n, err := DaysInYear(y)
		if err != nil {
			return 0, err
		}
		days += n
	}
	for y := d.Year; y < ref.Year; y++ {
		n, err := DaysInYear(y)
		if err != nil {
			return 0, err
		}
		days -= n
	}
	a, err := d.DayOfYear()
	if err != nil {
		return 0, err
	}
	b, err := ref.DayOfYear()
	if err != nil {
		return 0, err
	}
	return days + a - b, nil
}

// DaysSinceEpoch returns d.DaysSince(Epoch).
func (d Date) DaysSinceEpoch() (int, error) {
	return d.DaysSince(Epoch)
}

// AddDays returns the date n days after d. Negative n walks backwards.
// d itself is never modified.
func (d Date) AddDays(n int) (Date, error) {
	if err := d.Validate(); err != nil {
		return Date{}, err
	}
	for n > 0 {
		dim, err := DaysInMonth(d.Year, d.Month)
		if err != nil {
			return Date{}, err
		}
		remain := dim - d.Day + 1
		if n < remain {
			d.Day += n
			break
		}
		n -= remain
		d = d.firstOfNextMonth()
	}
	for n < 0 {
		if -n < d.Day {
			d.Day += n
			break
		}
		n += d.Day
		d = d.lastOfPrevMonth()
		dim, err := DaysInMonth(d.Year, d.Month)
		if err != nil {
			return Date{}, err
		}
		d.Day = dim
	}
	if !InRange(d.Year) {
		return Date{}, fmt.Errorf("%w: %d (supported %d-%d)", ErrOutOfRangeYear, d.Year, FirstYear(), LastYear())
	}
	return d, nil
}

func (d Date) firstOfNextMonth() Date {
	if d.Month == 12 {
		return Date{Year: d.Year + 1, Month: 1, Day: 1}
	}
	return Date{Year: d.Year, Month: d.Month + 1, Day: 1}
}

// lastOfPrevMonth moves to the previous month; Day must be filled in by the caller.
func (d Date) lastOfPrevMonth() Date {
	if d.Month == 1 {
		return Date{Year: d.Year - 1, Month: 12}
	}
	return Date{Year: d.Year, Month: d.Month - 1}
}

// ToAD returns the Gregorian day of d as midnight UTC.
func (d Date) ToAD() (time.Time, error) {
	n, err := d.DaysSinceEpoch()
	if err != nil {
		return time.Time{}, err
	}
	return AnchorAD.AddDate(0, 0, n), nil
}

// Weekday returns the Gregorian weekday d falls on.
func (d Date) Weekday() (time.Weekday, error) {
	t, err := d.ToAD()
	if err != nil {
		return 0, err
	}
	return t.Weekday(), nil
}

// FromAD converts the calendar day of t, taken in t's own location, to BS.
func FromAD(t time.Time) (Date, error) {
	y, m, dd := t.Date()
	midnight := time.Date(y, m, dd, 0, 0, 0, 0, time.UTC)
	diff := int(midnight.Sub(AnchorAD) / oneDay)
	return Epoch.AddDays(diff)
}

// Today returns the current BS date in loc. A nil loc means time.Local.
func Today(loc *time.Location) (Date, error) {
	if loc == nil {
		loc = time.Local
	}
	return FromAD(time.Now().In(loc))
}

// Compare returns -1, 0 or +1 depending on whether d is before, equal to or after other.
func (d Date) Compare(other Date) int {
	switch {
	case d.Year != other.Year:
		return cmpInt(d.Year, other.Year)
	case d.Month != other.Month:
		return cmpInt(d.Month, other.Month)
	default:
		return cmpInt(d.Day, other.Day)
	}
}

func (d Date) Before(other Date) bool { return d.Compare(other) < 0 }
func (d Date) After(other Date) bool  { return d.Compare(other) > 0 }

func cmpInt(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

// Span returns every day from "from" to "to" inclusive.
func Span(from, to Date) ([]Date, error) {
	n, err := to.DaysSince(from)
	if err != nil {
		return nil, err
	}
	if n < 0 {
		return nil, fmt.Errorf("%w: %s is before %s", ErrInvalidArgument, to, from)
	}
	if err := from.Validate(); err != nil {
		return nil, err
	}
	out := make([]Date, 0, n+1)
	cur := from
	for i := 0; i <= n; i++ {
		out = append(out, cur)
		if i == n {
			break
		}
		if cur, err = cur.AddDays(1); err != nil {
			return nil, err
		}
	}
	return out, nil
}
