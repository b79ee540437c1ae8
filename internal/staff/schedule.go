package staff

import (
	"fmt"
	"time"

	"github.com/trattoria-erp/trattoria/internal/shared"
)

const clockLayout = "15:04"

// parseClock returns minutes since midnight for an HH:MM value.
func parseClock(field, value string) (int, error) {
	t, err := time.Parse(clockLayout, value)
	if err != nil {
		return 0, shared.NewValidationError(field, "must be HH:MM")
	}
	return t.Hour()*60 + t.Minute(), nil
}

// span is a [start, end) interval in minutes since midnight.
type span struct {
	start int
	end   int
}

func scheduleSpan(s Schedule) (span, error) {
	start, err := parseClock("start_time", s.StartTime)
	if err != nil {
		return span{}, err
	}
	end, err := parseClock("end_time", s.EndTime)
	if err != nil {
		return span{}, err
	}
	if end <= start {
		return span{}, shared.NewValidationError("end_time", "must be after start_time")
	}
	return span{start: start, end: end}, nil
}

func (a span) overlaps(b span) bool {
	return a.start < b.end && b.start < a.end
}

// checkOverlap rejects candidate when it overlaps another schedule of the
// same employee on the same day. The candidate's own row is ignored.
func checkOverlap(candidate Schedule, sameDay []Schedule) error {
	want, err := scheduleSpan(candidate)
	if err != nil {
		return err
	}
	for _, other := range sameDay {
		if other.ID == candidate.ID && candidate.ID != 0 {
			continue
		}
		if other.EmployeeID != candidate.EmployeeID || !other.Date.Equal(candidate.Date) {
			continue
		}
		got, err := scheduleSpan(other)
		if err != nil {
			continue
		}
		if want.overlaps(got) {
			return shared.NewValidationError("start_time",
				fmt.Sprintf("overlaps the %s shift %s-%s", other.Shift, other.StartTime, other.EndTime))
		}
	}
	return nil
}

// scheduledStart returns the instant a schedule begins in loc.
func scheduledStart(s Schedule, loc *time.Location) (time.Time, error) {
	minutes, err := parseClock("start_time", s.StartTime)
	if err != nil {
		return time.Time{}, err
	}
	return s.Date.In(loc).Add(time.Duration(minutes) * time.Minute), nil
}
