package forecast

import (
	"fmt"
	"slices"
	"time"

	"TickerCast/internal/model"
)

// ExtendIndex returns history followed by horizon steps of unit after the
// last historical timestamp.
func ExtendIndex(history []time.Time, horizon int, unit model.PeriodUnit) ([]time.Time, error) {
	if horizon < 0 {
		return nil, fmt.Errorf("horizon %d is negative: %w", horizon, model.ErrInvalidRequest)
	}
	switch unit {
	case model.UnitDay, model.UnitHour, model.UnitBusinessDay:
	default:
		return nil, fmt.Errorf("unknown period unit %q: %w", unit, model.ErrInvalidRequest)
	}
	if len(history) == 0 {
		return nil, model.ErrInsufficientHistory
	}
	out := slices.Grow(slices.Clone(history), horizon)
	cur := history[len(history)-1]
	for range horizon {
		cur = unit.Next(cur)
		out = append(out, cur)
	}
	return out, nil
}
