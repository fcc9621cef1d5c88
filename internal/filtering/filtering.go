package filtering

import (
	"math"
	"slices"

	"go.uber.org/zap"

	"github.com/spigell/laborconnect/internal/laborer"
)

const (
	defaultMaxRate   = 50
	defaultMinRating = 0
)

// Filter represents a single filtering step applied to laborers.
// Apply must not modify its input.
type Filter interface {
	Name() string
	IsEnabled() bool

	Apply(v *laborer.Laborers) (*laborer.Laborers, Step)
}

// Step describes the result of executing a filtering step.
type Step struct {
	Name    string
	Initial int
	Dropped int
	Left    int
}

// Status represents runtime information about a filter.
type Status struct {
	Name    string
	Enabled bool
	Details map[string]string
}

// statusProvider is implemented by filters that can supply detailed status information.
type statusProvider interface {
	Status() Status
}

// SearchFilters holds the structured constraints chosen by the user.
type SearchFilters struct {
	MaxRate   float64  `mapstructure:"max-rate" json:"maxRate"`
	MinRating float64  `mapstructure:"min-rating" json:"minRating"`
	Skills    []string `mapstructure:"skills" json:"skills"`
}

// DefaultSearchFilters returns the filters a fresh session starts with.
func DefaultSearchFilters() SearchFilters {
	return SearchFilters{MaxRate: defaultMaxRate, MinRating: defaultMinRating}
}

// Unbounded returns filters that keep every laborer.
func Unbounded() SearchFilters {
	return SearchFilters{MaxRate: math.Inf(1), MinRating: 0}
}

// Toggle returns a copy with the skill added, or removed when already present.
func (f SearchFilters) Toggle(skill string) SearchFilters {
	out := f
	if idx := slices.Index(f.Skills, skill); idx != -1 {
		out.Skills = slices.Delete(slices.Clone(f.Skills), idx, idx+1)
		return out
	}
	out.Skills = append(slices.Clone(f.Skills), skill)
	return out
}

// Steps builds the filter chain for a query and filters.
func Steps(query string, filters SearchFilters) []Filter {
	return []Filter{
		NewQuery(query),
		NewMaxRate(filters.MaxRate),
		NewMinRating(filters.MinRating),
		NewSkills(filters.Skills),
	}
}

// Apply returns the laborers matching the query and every filter, in store order.
func Apply(v *laborer.Laborers, query string, filters SearchFilters) *laborer.Laborers {
	out, _ := Run(Steps(query, filters), v, nil)
	return out
}

// Run executes the supplied filters sequentially, returning the resulting
// laborers and per-step statistics. A nil logger disables step logging.
func Run(steps []Filter, v *laborer.Laborers, logger *zap.Logger) (*laborer.Laborers, []Step) {
	if v == nil {
		v = &laborer.Laborers{}
	}

	out := &laborer.Laborers{Items: slices.Clone(v.Items)}
	infos := make([]Step, 0, len(steps))

	for _, step := range steps {
		if !step.IsEnabled() {
			if logger != nil {
				logger.Debug("filter disabled", zap.String("name", step.Name()))
			}
			continue
		}

		next, info := step.Apply(out)
		info.Name = step.Name()
		infos = append(infos, info)

		if logger != nil {
			logger.Debug("filter step",
				zap.String("name", info.Name),
				zap.Int("initial", info.Initial),
				zap.Int("dropped", info.Dropped),
				zap.Int("left", info.Left),
			)
		}

		out = next
	}

	return out, infos
}

// Describe returns status entries for the provided filters.
func Describe(steps []Filter) []Status {
	statuses := make([]Status, 0, len(steps))
	for _, step := range steps {
		if reporter, ok := step.(statusProvider); ok {
			statuses = append(statuses, reporter.Status())
			continue
		}

		statuses = append(statuses, Status{
			Name:    step.Name(),
			Enabled: step.IsEnabled(),
		})
	}
	return statuses
}

// keepIf copies the laborers accepted by keep, preserving order.
func keepIf(v *laborer.Laborers, keep func(*laborer.Laborer) bool) (*laborer.Laborers, Step) {
	initial := v.Len()
	kept := make([]*laborer.Laborer, 0, initial)
	for _, l := range v.Items {
		if keep(l) {
			kept = append(kept, l)
		}
	}

	return &laborer.Laborers{Items: kept}, Step{Initial: initial, Dropped: initial - len(kept), Left: len(kept)}
}
