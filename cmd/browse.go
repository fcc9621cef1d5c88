package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spigell/laborconnect/internal/filtering"
	"github.com/spigell/laborconnect/internal/laborer"
	"github.com/spigell/laborconnect/internal/selection"
)

const (
	PromptSearch        = "Search"
	PromptToggleSkill   = "Toggle skill filter"
	PromptMaxRate       = "Set max rate"
	PromptMinRating     = "Set min rating"
	PromptPickLaborer   = "Pick a laborer"
	PromptSmartMatch    = "AI smart match"
	PromptClear         = "Clear selection"
	PromptMarkers       = "Show map markers"
	PromptReportBySkill = "Report by skill"
	PromptToFile        = "Dump laborers to file"
	PromptQuit          = "Quit"
	PromptBack          = "back"
)

var errExit = errors.New("exit requested")

var browseCmd = &cobra.Command{
	Use:   "browse",
	Short: "Browse laborers interactively",
	Run: func(cmd *cobra.Command, _ []string) {
		browse(cmd)
	},
}

func init() {
	rootCmd.AddCommand(browseCmd)
	addFilterFlags(browseCmd)
}

// session is the interactive search state on top of the controller.
type session struct {
	ctx        context.Context
	b          *bootstrap
	out        io.Writer
	logger     *zap.Logger
	store      *laborer.StaticStore
	controller *selection.Controller
	query      string
	filters    filtering.SearchFilters
}

func browse(cmd *cobra.Command) {
	b := setup()
	controller := newController(b)
	defer controller.Close()

	query, filters := searchFromFlags(cmd, b.config.Filters)
	s := &session{
		ctx:        context.Background(),
		b:          b,
		out:        cmd.OutOrStdout(),
		logger:     b.logger,
		store:      b.store,
		controller: controller,
		query:      query,
		filters:    filters,
	}

	for {
		filtered := s.filtered()
		b.logger.Info("current list of laborers",
			zap.Int("count", filtered.Len()),
			zap.String("query", s.query),
			zap.Float64("max_rate", s.filters.MaxRate),
			zap.Float64("min_rating", s.filters.MinRating),
			zap.Strings("skills", s.filters.Skills),
		)
		printLaborers(s.out, filtered, controller.Snapshot().SelectedID)

		menu := promptui.Select{
			Label: "What next?",
			Items: []string{
				PromptSearch, PromptToggleSkill, PromptMaxRate, PromptMinRating,
				PromptPickLaborer, PromptSmartMatch, PromptClear, PromptMarkers,
				PromptReportBySkill, PromptToFile, PromptQuit,
			},
		}
		_, action, err := menu.Run()
		if err != nil {
			b.logger.Fatal("exiting", zap.Error(err))
		}

		if err := s.handle(action, filtered); err != nil {
			if errors.Is(err, errExit) {
				return
			}
			b.logger.Fatal("exiting", zap.Error(err))
		}
	}
}

func (s *session) filtered() *laborer.Laborers {
	return filtering.Apply(mustLaborers(s.ctx, s.b), s.query, s.filters)
}

func (s *session) handle(action string, filtered *laborer.Laborers) error {
	switch action {
	case PromptSearch:
		text, err := (&promptui.Prompt{Label: "Search text", Default: s.query, AllowEdit: true}).Run()
		if err != nil {
			return err
		}
		s.query = text
		return nil
	case PromptToggleSkill:
		return s.toggleSkill()
	case PromptMaxRate:
		v, err := askFloat("Max rate per hour", s.filters.MaxRate)
		if err != nil {
			return err
		}
		s.filters.MaxRate = v
		return nil
	case PromptMinRating:
		v, err := askFloat("Min rating", s.filters.MinRating)
		if err != nil {
			return err
		}
		s.filters.MinRating = v
		return nil
	case PromptPickLaborer:
		return s.pick(filtered)
	case PromptSmartMatch:
		text, err := (&promptui.Prompt{Label: "What do you need help with", Default: s.query, AllowEdit: true}).Run()
		if err != nil {
			return err
		}
		if err := smartMatch(s.ctx, s.out, s.controller, text, s.logger); err != nil {
			// the selection is untouched, keep browsing
			s.logger.Warn("smart match failed", zap.Error(err))
		}
		return nil
	case PromptClear:
		s.controller.Clear()
		return nil
	case PromptMarkers:
		pretty, _ := json.MarshalIndent(s.controller.Markers(filtered), "", "  ")
		fmt.Fprintln(s.out, string(pretty))
		return nil
	case PromptReportBySkill:
		pretty, _ := json.MarshalIndent(filtered.ReportBySkill(), "", "  ")
		s.logger.Info(string(pretty), zap.Int("laborers count", filtered.Len()))
		return nil
	case PromptToFile:
		filename, err := filtered.DumpToTmpFile()
		if err != nil {
			return fmt.Errorf("dump results to file: %w", err)
		}
		s.logger.Info("dumping result to file", zap.String("filename", filename))
		return nil
	case PromptQuit:
		s.logger.Info("exiting", zap.String("reason", "got quit from prompt"))
		return errExit
	default:
		return fmt.Errorf("invalid action: %s", action)
	}
}

func (s *session) toggleSkill() error {
	catalog := s.store.Catalog()
	items := make([]string, 0, len(catalog)+1)
	for _, skill := range catalog {
		mark := "[ ]"
		if slices.Contains(s.filters.Skills, skill) {
			mark = "[x]"
		}
		items = append(items, mark+" "+skill)
	}

	idx, _, err := (&promptui.Select{Label: "Toggle a skill", Items: append(items, PromptBack)}).Run()
	if err != nil {
		return err
	}
	if idx < len(catalog) {
		s.filters = s.filters.Toggle(catalog[idx])
	}
	return nil
}

func (s *session) pick(filtered *laborer.Laborers) error {
	if filtered.Len() == 0 {
		fmt.Fprintln(s.out, "No laborers found. Try different keywords or adjust filters.")
		return nil
	}

	items := make([]string, 0, filtered.Len()+1)
	for _, l := range filtered.Items {
		items = append(items, fmt.Sprintf("%s %s / %s / %s", l.ID, l.Name, l.RateLabel(), strings.Join(l.Skills, ", ")))
	}

	idx, _, err := (&promptui.Select{Label: "Choose a laborer and press ENTER", Items: append(items, PromptBack)}).Run()
	if err != nil {
		return err
	}
	if idx >= filtered.Len() {
		return nil
	}

	s.controller.Select(filtered.Items[idx])
	printSelection(s.ctx, s.out, s.controller)
	return nil
}

func askFloat(label string, current float64) (float64, error) {
	prompt := promptui.Prompt{
		Label:     label,
		Default:   strconv.FormatFloat(current, 'f', -1, 64),
		AllowEdit: true,
		Validate: func(input string) error {
			_, err := strconv.ParseFloat(strings.TrimSpace(input), 64)
			return err
		},
	}
	text, err := prompt.Run()
	if err != nil {
		return 0, err
	}
	return strconv.ParseFloat(strings.TrimSpace(text), 64)
}
