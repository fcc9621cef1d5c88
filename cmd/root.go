package cmd

import (
	"errors"
	"fmt"
	"log"
	"math"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/spigell/laborconnect/internal/filtering"
	"github.com/spigell/laborconnect/internal/selection"
)

const (
	app = "laborconnect"
)

type Config struct {
	LaborersFile string                  `mapstructure:"laborers-file"`
	Filters      filtering.SearchFilters `mapstructure:"filters"`
	Map          selection.Config        `mapstructure:"map"`
	AI           *AIConfig               `mapstructure:"ai"`
	Server       *ServerConfig           `mapstructure:"server"`
}

type AIConfig struct {
	Provider     string          `mapstructure:"provider"`
	MaxLogLength int             `mapstructure:"max-log-length"`
	Gemini       *ProviderConfig `mapstructure:"gemini"`
	OpenAI       *ProviderConfig `mapstructure:"openai"`
}

type ProviderConfig struct {
	APIKey     string        `mapstructure:"api-key"`
	APIKeyFile string        `mapstructure:"api-key-file"`
	BaseURL    string        `mapstructure:"base-url"`
	Model      string        `mapstructure:"model"`
	MaxRetries int           `mapstructure:"max-retries"`
	Timeout    time.Duration `mapstructure:"timeout"`
}

type ServerConfig struct {
	Listen string `mapstructure:"listen"`
}

var (
	// Used for flags.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:   app,
		Short: "laborconnect is a directory of local laborers with filters and an AI smart match",
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	for key, env := range map[string]string{
		"api-key":       "API_KEY",
		"api-key-file":  "API_KEY_FILE",
		"laborers-file": "LABORERS_FILE",
	} {
		if err := viper.BindEnv(key, env); err != nil {
			log.Fatalf("binding %s environment variable: %v", env, err)
		}
	}

	viper.SetDefault("filters.max-rate", filtering.DefaultSearchFilters().MaxRate)
	viper.SetDefault("filters.min-rating", filtering.DefaultSearchFilters().MinRating)
	viper.SetDefault("map.center.lat", selection.DefaultCenter.Lat)
	viper.SetDefault("map.center.lng", selection.DefaultCenter.Lng)
	viper.SetDefault("map.zoom", selection.DefaultZoom)
	viper.SetDefault("ai.provider", "gemini")

	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is laborconnect.yaml in current directory)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")
	rootCmd.PersistentFlags().String("laborers-file", "", "YAML or JSON file with the laborer directory (default is the built-in directory)")

	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
	viper.BindPFlag("laborers-file", rootCmd.PersistentFlags().Lookup("laborers-file"))
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName(app)
		viper.SetConfigType("yaml")
	}

	// The config file is optional unless it was asked for explicitly.
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			log.Fatal(err)
		}
	}
}

func getConfig() (*Config, error) {
	var config *Config
	err := viper.Unmarshal(&config)
	if err != nil {
		return config, err
	}

	if f := config.Filters; math.IsNaN(f.MaxRate) || math.IsInf(f.MaxRate, -1) {
		return config, fmt.Errorf("invalid filters.max-rate %v", f.MaxRate)
	}
	if f := config.Filters; math.IsNaN(f.MinRating) || math.IsInf(f.MinRating, 0) {
		return config, fmt.Errorf("invalid filters.min-rating %v", f.MinRating)
	}

	if config.AI == nil {
		config.AI = &AIConfig{}
	}
	if config.Server == nil {
		config.Server = &ServerConfig{}
	}
	config.Map.SidebarOpen = true

	return config, nil
}
