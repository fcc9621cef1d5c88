package filtering

import (
	"strconv"

	"github.com/spigell/laborconnect/internal/laborer"
)

type maxRateFilter struct {
	max float64
}

// NewMaxRate creates a filter that drops laborers charging more than max per hour.
func NewMaxRate(max float64) Filter {
	return &maxRateFilter{max: max}
}

func (f *maxRateFilter) Name() string { return "max_rate" }

func (f *maxRateFilter) IsEnabled() bool { return true }

func (f *maxRateFilter) Apply(v *laborer.Laborers) (*laborer.Laborers, Step) {
	return keepIf(v, func(l *laborer.Laborer) bool {
		return l.RatePerHour <= f.max
	})
}

func (f *maxRateFilter) Status() Status {
	return Status{
		Name:    f.Name(),
		Enabled: true,
		Details: map[string]string{"max_rate": strconv.FormatFloat(f.max, 'f', -1, 64)},
	}
}

type minRatingFilter struct {
	min float64
}

// NewMinRating creates a filter that drops laborers rated below min.
func NewMinRating(min float64) Filter {
	return &minRatingFilter{min: min}
}

func (f *minRatingFilter) Name() string { return "min_rating" }

func (f *minRatingFilter) IsEnabled() bool { return true }

func (f *minRatingFilter) Apply(v *laborer.Laborers) (*laborer.Laborers, Step) {
	return keepIf(v, func(l *laborer.Laborer) bool {
		return l.Rating >= f.min
	})
}

func (f *minRatingFilter) Status() Status {
	return Status{
		Name:    f.Name(),
		Enabled: true,
		Details: map[string]string{"min_rating": strconv.FormatFloat(f.min, 'f', -1, 64)},
	}
}
