package laborer

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/spigell/laborconnect/internal/geo"
)

// Availability is the current booking state of a laborer.
type Availability string

const (
	Available Availability = "Available"
	Busy      Availability = "Busy"
	Offline   Availability = "Offline"
)

const maxRating = 5

var ErrInvalidLaborer = errors.New("invalid laborer")

func (a Availability) Valid() bool {
	switch a {
	case Available, Busy, Offline:
		return true
	default:
		return false
	}
}

type Location struct {
	Lat float64 `json:"lat" yaml:"lat"`
	Lng float64 `json:"lng" yaml:"lng"`
}

type Laborer struct {
	ID           string       `json:"id"`
	Name         string       `json:"name"`
	Avatar       string       `json:"avatar,omitempty"`
	Bio          string       `json:"bio,omitempty"`
	Location     Location     `json:"location"`
	RatePerHour  float64      `json:"ratePerHour"`
	Rating       float64      `json:"rating"`
	Reviews      int          `json:"reviews"`
	Distance     float64      `json:"distance"`
	Skills       []string     `json:"skills"`
	Availability Availability `json:"availability"`
}

// HasSkill reports whether the laborer lists exactly the given skill.
func (l *Laborer) HasSkill(skill string) bool {
	for _, s := range l.Skills {
		if s == skill {
			return true
		}
	}
	return false
}

// RateLabel is the price tag shown on map markers.
func (l *Laborer) RateLabel() string {
	return fmt.Sprintf("$%s/hr", formatRate(l.RatePerHour))
}

func formatRate(rate float64) string {
	if rate == float64(int64(rate)) {
		return fmt.Sprintf("%d", int64(rate))
	}
	return fmt.Sprintf("%.2f", rate)
}

func (l *Laborer) validate() error {
	if strings.TrimSpace(l.ID) == "" {
		return fmt.Errorf("%w: id is required", ErrInvalidLaborer)
	}
	if l.RatePerHour < 0 {
		return fmt.Errorf("%w %s: negative rate per hour %v", ErrInvalidLaborer, l.ID, l.RatePerHour)
	}
	if l.Rating < 0 || l.Rating > maxRating {
		return fmt.Errorf("%w %s: rating %v is outside 0..%d", ErrInvalidLaborer, l.ID, l.Rating, maxRating)
	}
	if l.Reviews < 0 {
		return fmt.Errorf("%w %s: negative reviews count %d", ErrInvalidLaborer, l.ID, l.Reviews)
	}
	if l.Distance < 0 {
		return fmt.Errorf("%w %s: negative distance %v", ErrInvalidLaborer, l.ID, l.Distance)
	}
	if !geo.ValidCoordinates(l.Location.Lat, l.Location.Lng) {
		return fmt.Errorf("%w %s: invalid location %v,%v", ErrInvalidLaborer, l.ID, l.Location.Lat, l.Location.Lng)
	}
	if !l.Availability.Valid() {
		return fmt.Errorf("%w %s: unknown availability %q", ErrInvalidLaborer, l.ID, l.Availability)
	}
	return nil
}

type Laborers struct {
	Items []*Laborer
}

// New wraps the given laborers keeping their order.
func New(items ...*Laborer) *Laborers {
	return &Laborers{Items: items}
}

func (l *Laborers) Len() int {
	if l == nil {
		return 0
	}
	return len(l.Items)
}

func (l *Laborers) FindByID(id string) *Laborer {
	if l == nil {
		return nil
	}
	for _, laborer := range l.Items {
		if laborer.ID == id {
			return laborer
		}
	}
	return nil
}

func (l *Laborers) IDs() []string {
	ids := make([]string, 0, l.Len())
	if l == nil {
		return ids
	}
	for _, laborer := range l.Items {
		ids = append(ids, laborer.ID)
	}
	return ids
}

// Skills returns every distinct skill in first-seen order.
func (l *Laborers) Skills() []string {
	seen := make(map[string]struct{})
	skills := make([]string, 0)
	if l == nil {
		return skills
	}
	for _, laborer := range l.Items {
		for _, skill := range laborer.Skills {
			if _, ok := seen[skill]; ok {
				continue
			}
			seen[skill] = struct{}{}
			skills = append(skills, skill)
		}
	}
	return skills
}

// Validate checks every laborer and the uniqueness of ids.
func (l *Laborers) Validate() error {
	if l == nil {
		return nil
	}
	seen := make(map[string]struct{}, len(l.Items))
	for idx, laborer := range l.Items {
		if laborer == nil {
			return fmt.Errorf("%w: nil entry at index %d", ErrInvalidLaborer, idx)
		}
		if err := laborer.validate(); err != nil {
			return err
		}
		if _, ok := seen[laborer.ID]; ok {
			return fmt.Errorf("%w: duplicate id %s", ErrInvalidLaborer, laborer.ID)
		}
		seen[laborer.ID] = struct{}{}
	}
	return nil
}

// WithDistanceFrom returns a copy where zero distances are recomputed from the origin.
func (l *Laborers) WithDistanceFrom(origin Location) *Laborers {
	out := &Laborers{Items: make([]*Laborer, 0, l.Len())}
	if l == nil {
		return out
	}
	for _, laborer := range l.Items {
		cp := *laborer
		if cp.Distance == 0 {
			cp.Distance = geo.Haversine(origin.Lat, origin.Lng, cp.Location.Lat, cp.Location.Lng)
		}
		out.Items = append(out.Items, &cp)
	}
	return out
}

// ReportBySkill groups laborers under each of their skills, entries sorted by name.
func (l *Laborers) ReportBySkill() map[string][]map[string]string {
	report := make(map[string][]map[string]string)
	if l == nil {
		return report
	}
	for _, laborer := range l.Items {
		for _, skill := range laborer.Skills {
			report[skill] = append(report[skill], map[string]string{
				"id":           laborer.ID,
				"name":         laborer.Name,
				"rate":         laborer.RateLabel(),
				"rating":       fmt.Sprintf("%.1f (%d reviews)", laborer.Rating, laborer.Reviews),
				"availability": string(laborer.Availability),
				"distance":     fmt.Sprintf("%.1f mi", laborer.Distance),
			})
		}
	}
	for skill := range report {
		sort.SliceStable(report[skill], func(i, j int) bool {
			return report[skill][i]["name"] < report[skill][j]["name"]
		})
	}
	return report
}

func (l *Laborers) DumpToTmpFile() (string, error) {
	file, err := os.CreateTemp("", "laborers_*.json")
	if err != nil {
		return "", err
	}
	defer file.Close()

	enc := json.NewEncoder(file)
	enc.SetIndent("", "  ")
	if err := enc.Encode(l); err != nil {
		return "", err
	}
	return file.Name(), nil
}
