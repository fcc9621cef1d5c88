package filtering

import (
	"fmt"
	"math"
	"slices"
	"strings"
	"testing"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/google/go-cmp/cmp"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/spigell/laborconnect/internal/laborer"
)

var skillPool = []string{"Carpentry", "Painting", "Landscaping", "Moving", "Cleaning", "Electrical", "Plumbing", "General Labor"}

func randomLaborers(faker *gofakeit.Faker, n int) *laborer.Laborers {
	items := make([]*laborer.Laborer, 0, n)
	for i := 0; i < n; i++ {
		count := faker.Number(0, 3)
		skills := make([]string, 0, count)
		for j := 0; j < count; j++ {
			skills = append(skills, skillPool[faker.Number(0, len(skillPool)-1)])
		}
		items = append(items, &laborer.Laborer{
			ID:           fmt.Sprintf("l-%d", i),
			Name:         faker.Name(),
			Location:     laborer.Location{Lat: faker.Latitude(), Lng: faker.Longitude()},
			RatePerHour:  float64(faker.Number(10, 60)),
			Rating:       faker.Float64Range(0, 5),
			Reviews:      faker.Number(0, 300),
			Skills:       skills,
			Availability: laborer.Available,
		})
	}
	return laborer.New(items...)
}

func randomFilters(faker *gofakeit.Faker) (string, SearchFilters) {
	queries := []string{"", "ing", "PAINT", "a", "zz", "moving"}
	f := SearchFilters{
		MaxRate:   float64(faker.Number(5, 70)),
		MinRating: faker.Float64Range(0, 5),
	}
	if faker.Bool() {
		f.Skills = []string{skillPool[faker.Number(0, len(skillPool)-1)]}
	}
	return queries[faker.Number(0, len(queries)-1)], f
}

func TestApplyScenarioMaxRate(t *testing.T) {
	laborers := laborer.New(
		&laborer.Laborer{ID: "1", RatePerHour: 25, Rating: 4.8, Skills: []string{"Carpentry"}},
		&laborer.Laborer{ID: "2", RatePerHour: 30, Rating: 4.9, Skills: []string{"Landscaping"}},
	)

	got := Apply(laborers, "", SearchFilters{MaxRate: 26, MinRating: 0})

	if diff := cmp.Diff([]string{"1"}, got.IDs()); diff != "" {
		t.Fatalf("unexpected result (-want +got):\n%s", diff)
	}
}

func TestApplyPredicates(t *testing.T) {
	laborers := laborer.Default()
	all, _ := laborers.Laborers(t.Context())

	tests := []struct {
		name    string
		query   string
		filters SearchFilters
		want    []string
	}{
		{name: "unbounded", filters: Unbounded(), want: []string{"1", "2", "3", "4", "5"}},
		{name: "defaults keep everyone", filters: DefaultSearchFilters(), want: []string{"1", "2", "3", "4", "5"}},
		{name: "query matches name case-insensitively", query: "sarah", filters: Unbounded(), want: []string{"2"}},
		{name: "query matches skill substring", query: "PAINT", filters: Unbounded(), want: []string{"1", "5"}},
		{name: "query is not trimmed", query: " chen", filters: Unbounded(), want: []string{"1"}},
		{name: "rate bound is inclusive", filters: SearchFilters{MaxRate: 22}, want: []string{"3", "5"}},
		{name: "rating bound is inclusive", filters: SearchFilters{MaxRate: 100, MinRating: 4.8}, want: []string{"1", "2"}},
		{name: "skills intersect", filters: SearchFilters{MaxRate: 100, Skills: []string{"Plumbing", "Moving"}}, want: []string{"3", "4"}},
		{name: "skills match exactly", filters: SearchFilters{MaxRate: 100, Skills: []string{"paint"}}, want: []string{}},
		{name: "predicates are combined", query: "paint", filters: SearchFilters{MaxRate: 24, Skills: []string{"Pressure Washing"}}, want: []string{"5"}},
		{name: "negative max rate yields nothing", filters: SearchFilters{MaxRate: -1}, want: []string{}},
		{name: "rating above range yields nothing", filters: SearchFilters{MaxRate: 100, MinRating: 10}, want: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Apply(all, tt.query, tt.filters)
			if diff := cmp.Diff(tt.want, got.IDs()); diff != "" {
				t.Fatalf("unexpected ids (-want +got):\n%s", diff)
			}
		})
	}
}

func TestApplyEmptyInput(t *testing.T) {
	if got := Apply(laborer.New(), "x", DefaultSearchFilters()); got.Len() != 0 {
		t.Fatalf("expected empty result, got %d", got.Len())
	}
	if got := Apply(nil, "", Unbounded()); got == nil || got.Len() != 0 {
		t.Fatalf("expected empty non-nil result for nil input")
	}
}

func TestApplyUnboundedReturnsInputInOrder(t *testing.T) {
	faker := gofakeit.New(7)
	laborers := randomLaborers(faker, 50)

	got := Apply(laborers, "", SearchFilters{MaxRate: math.Inf(1), MinRating: 0})

	if diff := cmp.Diff(laborers.Items, got.Items); diff != "" {
		t.Fatalf("unbounded filter changed the list (-want +got):\n%s", diff)
	}
}

func TestApplyProperties(t *testing.T) {
	faker := gofakeit.New(42)

	for round := 0; round < 200; round++ {
		laborers := randomLaborers(faker, faker.Number(0, 25))
		before := slices.Clone(laborers.Items)
		query, filters := randomFilters(faker)

		first := Apply(laborers, query, filters)
		second := Apply(laborers, query, filters)

		if diff := cmp.Diff(first, second); diff != "" {
			t.Fatalf("round %d: filter is not idempotent (-first +second):\n%s", round, diff)
		}
		if !slices.Equal(before, laborers.Items) {
			t.Fatalf("round %d: input was mutated", round)
		}

		lastIdx := -1
		for _, l := range first.Items {
			if l.RatePerHour > filters.MaxRate {
				t.Fatalf("round %d: %s exceeds max rate", round, l.ID)
			}
			if l.Rating < filters.MinRating {
				t.Fatalf("round %d: %s below min rating", round, l.ID)
			}
			if len(filters.Skills) > 0 && !slices.ContainsFunc(filters.Skills, l.HasSkill) {
				t.Fatalf("round %d: %s shares no required skill", round, l.ID)
			}
			if query != "" && !textMatches(l, query) {
				t.Fatalf("round %d: %s does not match query %q", round, l.ID, query)
			}

			idx := slices.Index(laborers.Items, l)
			if idx <= lastIdx {
				t.Fatalf("round %d: order not preserved for %s", round, l.ID)
			}
			lastIdx = idx
		}
	}
}

func textMatches(l *laborer.Laborer, query string) bool {
	q := strings.ToLower(query)
	if strings.Contains(strings.ToLower(l.Name), q) {
		return true
	}
	return slices.ContainsFunc(l.Skills, func(s string) bool {
		return strings.Contains(strings.ToLower(s), q)
	})
}

func TestToggle(t *testing.T) {
	base := DefaultSearchFilters()

	with := base.Toggle("Moving").Toggle("Painting")
	if diff := cmp.Diff([]string{"Moving", "Painting"}, with.Skills); diff != "" {
		t.Fatalf("unexpected skills (-want +got):\n%s", diff)
	}

	without := with.Toggle("Moving")
	if diff := cmp.Diff([]string{"Painting"}, without.Skills); diff != "" {
		t.Fatalf("unexpected skills (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"Moving", "Painting"}, with.Skills); diff != "" {
		t.Fatalf("toggle mutated the receiver (-want +got):\n%s", diff)
	}
	if len(base.Skills) != 0 {
		t.Fatalf("toggle mutated the base filters: %v", base.Skills)
	}
}

func TestRunLogsSteps(t *testing.T) {
	core, observed := observer.New(zapcore.DebugLevel)
	logger := zap.New(core)

	store := laborer.Default()
	all, _ := store.Laborers(t.Context())

	_, steps := Run(Steps("", SearchFilters{MaxRate: 25}), all, logger)

	if len(steps) != 2 {
		t.Fatalf("expected 2 enabled steps, got %d", len(steps))
	}
	if steps[0].Name != "max_rate" || steps[0].Dropped != 2 || steps[0].Left != 3 {
		t.Fatalf("unexpected max_rate step: %+v", steps[0])
	}

	if n := observed.FilterMessage("filter disabled").Len(); n != 2 {
		t.Fatalf("expected 2 disabled filter logs, got %d", n)
	}
	if n := observed.FilterMessage("filter step").Len(); n != 2 {
		t.Fatalf("expected 2 step logs, got %d", n)
	}
}

func TestDescribe(t *testing.T) {
	statuses := Describe(Steps("Paint", SearchFilters{MaxRate: 30, MinRating: 4.5, Skills: []string{"Moving", "Cleaning"}}))

	want := []Status{
		{Name: "query", Enabled: true, Details: map[string]string{"query": "paint"}},
		{Name: "max_rate", Enabled: true, Details: map[string]string{"max_rate": "30"}},
		{Name: "min_rating", Enabled: true, Details: map[string]string{"min_rating": "4.5"}},
		{Name: "skills", Enabled: true, Details: map[string]string{"skills": "Moving,Cleaning"}},
	}
	if diff := cmp.Diff(want, statuses); diff != "" {
		t.Fatalf("unexpected statuses (-want +got):\n%s", diff)
	}
}
