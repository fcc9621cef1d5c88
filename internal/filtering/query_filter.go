package filtering

import (
	"strings"

	"github.com/spigell/laborconnect/internal/laborer"
)

type queryFilter struct {
	query string
}

// NewQuery creates a filter that keeps laborers whose name or any skill contains
// the query, ignoring case. An empty query keeps everyone.
func NewQuery(query string) Filter {
	return &queryFilter{query: strings.ToLower(query)}
}

func (f *queryFilter) Name() string { return "query" }

func (f *queryFilter) IsEnabled() bool { return f.query != "" }

func (f *queryFilter) Apply(v *laborer.Laborers) (*laborer.Laborers, Step) {
	return keepIf(v, f.matches)
}

func (f *queryFilter) matches(l *laborer.Laborer) bool {
	if strings.Contains(strings.ToLower(l.Name), f.query) {
		return true
	}
	for _, skill := range l.Skills {
		if strings.Contains(strings.ToLower(skill), f.query) {
			return true
		}
	}
	return false
}

func (f *queryFilter) Status() Status {
	details := map[string]string{}
	if f.query != "" {
		details["query"] = f.query
	}
	return Status{Name: f.Name(), Enabled: f.IsEnabled(), Details: details}
}
