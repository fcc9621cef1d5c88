package httpapi

import (
	"fmt"
	"math"
	"net/http"
	"strconv"

	"github.com/spigell/laborconnect/internal/filtering"
)

const (
	paramQuery     = "q"
	paramMaxRate   = "max_rate"
	paramMinRating = "min_rating"
	paramSkill     = "skill"
)

// ParseFilters reads the search text and filters from the query string.
// Missing bounds keep their defaults; skill may be repeated. NaN is rejected
// for both bounds and max_rate may only be infinite in the positive direction.
func ParseFilters(r *http.Request, defaults filtering.SearchFilters) (string, filtering.SearchFilters, error) {
	values := r.URL.Query()
	filters := filtering.SearchFilters{
		MaxRate:   defaults.MaxRate,
		MinRating: defaults.MinRating,
		Skills:    append([]string(nil), defaults.Skills...),
	}

	if raw := values.Get(paramMaxRate); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil || math.IsNaN(v) || math.IsInf(v, -1) {
			return "", filters, fmt.Errorf("invalid %s %q", paramMaxRate, raw)
		}
		filters.MaxRate = v
	}
	if raw := values.Get(paramMinRating); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
			return "", filters, fmt.Errorf("invalid %s %q", paramMinRating, raw)
		}
		filters.MinRating = v
	}
	if skills, ok := values[paramSkill]; ok {
		filters.Skills = append([]string(nil), skills...)
	}

	return values.Get(paramQuery), filters, nil
}
