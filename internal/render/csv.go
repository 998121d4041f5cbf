package render

import (
	"encoding/csv"
	"io"
	"slices"
	"strconv"

	"TickerCast/internal/model"
)

// WriteCSV writes the prediction table with one column per component.
func WriteCSV(w io.Writer, res *model.ForecastResult) error {
	names := make([]string, 0, len(res.Components))
	for name := range res.Components {
		names = append(names, name)
	}
	slices.Sort(names)

	cw := csv.NewWriter(w)
	header := append([]string{"ds", "yhat", "yhat_lower", "yhat_upper", "history"}, names...)
	if err := cw.Write(header); err != nil {
		return err
	}
	f := func(v float64) string { return strconv.FormatFloat(v, 'f', 6, 64) }
	for i, r := range res.Rows {
		rec := []string{
			r.DS.Format("2006-01-02 15:04:05"),
			f(r.YHat), f(r.Lower), f(r.Upper),
			strconv.FormatBool(i < res.HistoryLen),
		}
		for _, name := range names {
			rec = append(rec, f(res.Components[name][i]))
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
