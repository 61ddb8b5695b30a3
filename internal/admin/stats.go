package admin

import (
	"strconv"
	"time"

	"github.com/ariefcatur/go-petcare-checkout/internal/appointments"
	"github.com/ariefcatur/go-petcare-checkout/internal/catalog"
	"github.com/shopspring/decimal"
)

type Period string

const (
	Weekly  Period = "weekly"
	Monthly Period = "monthly"
	Yearly  Period = "yearly"
)

func (p Period) Valid() bool { return p == Weekly || p == Monthly || p == Yearly }

// Point is one bar of the revenue chart.
type Point struct {
	Label   string          `json:"label"`
	Revenue decimal.Decimal `json:"revenue"`
}

// Revenue buckets appointments by visit date and prices each one with the
// service of the same name. Unknown services count as zero.
//
//	weekly:  the last 7 days, labelled DD/MM
//	monthly: the last 12 months, labelled MM/YYYY
//	yearly:  from the earliest appointment year (at most now-4) to now, labelled YYYY
func Revenue(appts []appointments.Appointment, services []catalog.Service, period Period, now time.Time) []Point {
	price := make(map[string]decimal.Decimal, len(services))
	for _, s := range services {
		price[s.Name] = s.Price
	}

	type bucket struct {
		key   string
		label string
	}
	var buckets []bucket
	var keyOf func(time.Time) string

	switch period {
	case Weekly:
		keyOf = func(d time.Time) string { return d.Format("2006-01-02") }
		for i := 6; i >= 0; i-- {
			d := now.AddDate(0, 0, -i)
			buckets = append(buckets, bucket{key: keyOf(d), label: d.Format("02/01")})
		}
	case Monthly:
		keyOf = func(d time.Time) string { return d.Format("2006-01") }
		first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
		for i := 11; i >= 0; i-- {
			d := first.AddDate(0, -i, 0)
			buckets = append(buckets, bucket{key: keyOf(d), label: d.Format("01/2006")})
		}
	case Yearly:
		keyOf = func(d time.Time) string { return strconv.Itoa(d.Year()) }
		from := now.Year() - 4
		for _, a := range appts {
			if d, err := time.Parse(appointments.DateLayout, a.Date); err == nil && d.Year() < from {
				from = d.Year()
			}
		}
		for y := from; y <= now.Year(); y++ {
			buckets = append(buckets, bucket{key: strconv.Itoa(y), label: strconv.Itoa(y)})
		}
	default:
		return nil
	}

	sums := map[string]decimal.Decimal{}
	for _, a := range appts {
		d, err := time.Parse(appointments.DateLayout, a.Date)
		if err != nil {
			continue
		}
		k := keyOf(d)
		sums[k] = sums[k].Add(price[a.Service])
	}

	out := make([]Point, 0, len(buckets))
	for _, b := range buckets {
		out = append(out, Point{Label: b.label, Revenue: sums[b.key]})
	}
	return out
}
