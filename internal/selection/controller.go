package selection

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/spigell/laborconnect/internal/ai"
	"github.com/spigell/laborconnect/internal/laborer"
	"github.com/spigell/laborconnect/internal/metrics"
)

var ErrUnknownLaborer = errors.New("unknown laborer")

// Outcome describes how a Match call ended.
type Outcome string

const (
	OutcomeSelected   Outcome = "selected"
	OutcomeUnknownID  Outcome = "unknown_id"
	OutcomeFailed     Outcome = "failed"
	OutcomeDiscarded  Outcome = "discarded"
	OutcomeInProgress Outcome = "in_progress"
)

const (
	transitionSelect       = "select"
	transitionClear        = "clear"
	transitionMatchBegin   = "match_begin"
	transitionMatchSelect  = "match_select"
	transitionMatchNoop    = "match_noop"
	transitionMatchFail    = "match_fail"
	transitionMatchDiscard = "match_discard"
)

var DefaultCenter = laborer.Location{Lat: 37.7749, Lng: -122.4194}

const DefaultZoom = 14

type Config struct {
	Center      laborer.Location `mapstructure:"center"`
	Zoom        int              `mapstructure:"zoom"`
	SidebarOpen bool             `mapstructure:"-"`
}

func DefaultConfig() Config {
	return Config{Center: DefaultCenter, Zoom: DefaultZoom, SidebarOpen: true}
}

// State is a point-in-time copy of the controller.
type State struct {
	SelectedID  string           `json:"selectedId,omitempty"`
	Center      laborer.Location `json:"center"`
	Zoom        int              `json:"zoom"`
	SidebarOpen bool             `json:"sidebarOpen"`
	Insight     string           `json:"insight,omitempty"`
	Matching    bool             `json:"matching"`
}

// Marker is the map view of a laborer. Selected is derived from the
// controller state on every call.
type Marker struct {
	ID       string  `json:"id"`
	Lat      float64 `json:"lat"`
	Lng      float64 `json:"lng"`
	Rate     float64 `json:"rate"`
	Label    string  `json:"label"`
	Selected bool    `json:"selected"`
}

// Controller keeps the selected laborer and the map viewport consistent with
// user actions and advisor results. It is safe for concurrent use.
type Controller struct {
	store   laborer.Store
	advisor ai.Advisor
	logger  *zap.Logger

	mu     sync.Mutex
	state  State
	closed bool
}

func New(store laborer.Store, advisor ai.Advisor, cfg Config, logger *zap.Logger) *Controller {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Zoom == 0 {
		cfg.Zoom = DefaultZoom
	}

	return &Controller{
		store:   store,
		advisor: advisor,
		logger:  logger,
		state: State{
			Center:      cfg.Center,
			Zoom:        cfg.Zoom,
			SidebarOpen: cfg.SidebarOpen,
		},
	}
}

// Select picks a laborer directly and recentres the viewport on it.
func (c *Controller) Select(l *laborer.Laborer) {
	if l == nil {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}
	c.selectLocked(l)
	c.state.Insight = ""
	metrics.SelectionTransitionsTotal.WithLabelValues(transitionSelect).Inc()
}

func (c *Controller) SelectByID(ctx context.Context, id string) error {
	l, err := c.resolve(ctx, id)
	if err != nil {
		return err
	}
	if l == nil {
		return fmt.Errorf("%w: %s", ErrUnknownLaborer, id)
	}
	c.Select(l)
	return nil
}

// Clear drops the selection. The viewport stays where it was.
func (c *Controller) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}
	c.state.SelectedID = ""
	c.state.Insight = ""
	metrics.SelectionTransitionsTotal.WithLabelValues(transitionClear).Inc()
}

// BeginMatch enters the matching state. It returns false when a match is
// already running or the controller is closed.
func (c *Controller) BeginMatch() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed || c.state.Matching {
		return false
	}
	c.state.Matching = true
	c.state.Insight = ""
	metrics.SelectionTransitionsTotal.WithLabelValues(transitionMatchBegin).Inc()
	return true
}

// CompleteMatch applies an advisor result and always leaves the matching
// state. Failures and ids missing from the store change nothing else.
func (c *Controller) CompleteMatch(ctx context.Context, match *ai.Match, matchErr error) Outcome {
	var resolved *laborer.Laborer
	var resolveErr error
	if matchErr == nil && match != nil {
		resolved, resolveErr = c.resolve(ctx, match.BestMatchID)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		c.logger.Debug("discarding match result for closed controller")
		metrics.SelectionTransitionsTotal.WithLabelValues(transitionMatchDiscard).Inc()
		return OutcomeDiscarded
	}
	c.state.Matching = false

	switch {
	case matchErr != nil:
		c.logger.Warn("smart match failed", zap.Error(matchErr))
		metrics.SelectionTransitionsTotal.WithLabelValues(transitionMatchFail).Inc()
		return OutcomeFailed
	case match == nil:
		c.logger.Warn("smart match returned no result")
		metrics.SelectionTransitionsTotal.WithLabelValues(transitionMatchFail).Inc()
		return OutcomeFailed
	case resolveErr != nil:
		c.logger.Warn("failed to load laborers for match result", zap.Error(resolveErr))
		metrics.SelectionTransitionsTotal.WithLabelValues(transitionMatchFail).Inc()
		return OutcomeFailed
	case resolved == nil:
		c.logger.Info("smart match picked an unknown laborer, keeping current selection",
			zap.String("best_match_id", match.BestMatchID),
		)
		metrics.SelectionTransitionsTotal.WithLabelValues(transitionMatchNoop).Inc()
		return OutcomeUnknownID
	}

	c.selectLocked(resolved)
	c.state.Insight = match.Reason
	metrics.SelectionTransitionsTotal.WithLabelValues(transitionMatchSelect).Inc()
	c.logger.Debug("smart match selected laborer",
		zap.String("id", resolved.ID),
		zap.Bool("fallback", match.Fallback),
	)
	return OutcomeSelected
}

// Match asks the advisor for the best laborer for query and applies the
// answer. The advisor runs without holding the controller lock.
func (c *Controller) Match(ctx context.Context, query string) (Outcome, error) {
	if err := ai.ValidateQuery(query); err != nil {
		return "", err
	}
	if !c.BeginMatch() {
		if c.isClosed() {
			return OutcomeDiscarded, nil
		}
		return OutcomeInProgress, nil
	}

	laborers, err := c.store.Laborers(ctx)
	if err != nil {
		err = fmt.Errorf("load laborers: %w", err)
		return c.CompleteMatch(ctx, nil, err), err
	}

	match, err := c.advisor.SmartMatch(ctx, query, laborers)
	outcome := c.CompleteMatch(ctx, match, err)
	if outcome == OutcomeFailed && err != nil {
		return outcome, err
	}
	return outcome, nil
}

// Close disposes the controller. Later transitions and in-flight results are
// dropped.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
}

// Selected re-resolves the selection against the store.
func (c *Controller) Selected(ctx context.Context) (*laborer.Laborer, bool) {
	id := c.Snapshot().SelectedID
	if id == "" {
		return nil, false
	}
	l, err := c.resolve(ctx, id)
	if err != nil || l == nil {
		return nil, false
	}
	return l, true
}

func (c *Controller) Snapshot() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Controller) SetSidebarOpen(open bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.state.SidebarOpen = open
	}
}

func (c *Controller) ToggleSidebar() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.state.SidebarOpen = !c.state.SidebarOpen
	}
}

// Markers builds the map markers for an already filtered list.
func (c *Controller) Markers(list *laborer.Laborers) []Marker {
	selected := c.Snapshot().SelectedID

	markers := make([]Marker, 0, list.Len())
	if list == nil {
		return markers
	}
	for _, l := range list.Items {
		markers = append(markers, Marker{
			ID:       l.ID,
			Lat:      l.Location.Lat,
			Lng:      l.Location.Lng,
			Rate:     l.RatePerHour,
			Label:    l.RateLabel(),
			Selected: selected != "" && l.ID == selected,
		})
	}
	return markers
}

func (c *Controller) selectLocked(l *laborer.Laborer) {
	c.state.SelectedID = l.ID
	c.state.Center = l.Location
}

func (c *Controller) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

func (c *Controller) resolve(ctx context.Context, id string) (*laborer.Laborer, error) {
	laborers, err := c.store.Laborers(ctx)
	if err != nil {
		return nil, fmt.Errorf("load laborers: %w", err)
	}
	return laborers.FindByID(id), nil
}
