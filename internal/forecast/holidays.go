package forecast

import (
	"fmt"
	"strings"
	"time"

	"github.com/rickar/cal/v2"
	"github.com/rickar/cal/v2/us"

	"TickerCast/internal/model"
)

// HolidayCalendar names the public holidays of one country.
type HolidayCalendar struct {
	Country string
	cal     *cal.BusinessCalendar
}

// NewHolidayCalendar returns the calendar for an ISO country code.
func NewHolidayCalendar(country string) (*HolidayCalendar, error) {
	c := cal.NewBusinessCalendar()
	switch strings.ToUpper(strings.TrimSpace(country)) {
	case "US", "USA":
		c.AddHoliday(us.Holidays...)
	default:
		return nil, fmt.Errorf("%w: unsupported holiday country %q", model.ErrInvalidRequest, country)
	}
	return &HolidayCalendar{Country: strings.ToUpper(country), cal: c}, nil
}

// Name returns the holiday falling (or observed) on the date of t.
func (h *HolidayCalendar) Name(t time.Time) (string, bool) {
	actual, observed, hol := h.cal.IsHoliday(t)
	if (!actual && !observed) || hol == nil {
		return "", false
	}
	return hol.Name, true
}
