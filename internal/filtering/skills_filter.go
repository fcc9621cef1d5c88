package filtering

import (
	"slices"
	"strings"

	"github.com/spigell/laborconnect/internal/laborer"
)

type skillsFilter struct {
	skills []string
}

// NewSkills creates a filter that keeps laborers sharing at least one of the
// given skills. No skills means no constraint.
func NewSkills(skills []string) Filter {
	return &skillsFilter{skills: slices.Clone(skills)}
}

func (f *skillsFilter) Name() string { return "skills" }

func (f *skillsFilter) IsEnabled() bool { return len(f.skills) > 0 }

func (f *skillsFilter) Apply(v *laborer.Laborers) (*laborer.Laborers, Step) {
	return keepIf(v, func(l *laborer.Laborer) bool {
		return slices.ContainsFunc(f.skills, l.HasSkill)
	})
}

func (f *skillsFilter) Status() Status {
	details := map[string]string{}
	if len(f.skills) > 0 {
		details["skills"] = strings.Join(f.skills, ",")
	}
	return Status{Name: f.Name(), Enabled: f.IsEnabled(), Details: details}
}
