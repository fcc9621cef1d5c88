package gemini

import "github.com/spigell/laborconnect/internal/laborer"

func laborerFixture() *laborer.Laborers {
	return laborer.New(
		&laborer.Laborer{ID: "1", Name: "Michael Chen", Skills: []string{"Carpentry"}, RatePerHour: 25, Rating: 4.8},
		&laborer.Laborer{ID: "2", Name: "Sarah Rodriguez", Skills: []string{"Landscaping"}, RatePerHour: 30, Rating: 4.9},
	)
}
